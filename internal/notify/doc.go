// Package notify delivers monitor notifications to users.
//
// A [Sink] receives each [Notification] once. [ConsoleSink] prints a styled
// line to a terminal, [LogSink] writes structured log entries, and
// [MultiSink] fans a notification out to several sinks.
package notify
