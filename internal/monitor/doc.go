// Package monitor implements the deadline monitor: a periodic scan of tasks
// and meetings that emits de-duplicated notifications.
//
// # Lifecycle
//
// A Monitor starts Idle. Start moves it to Running and launches a single
// ticker goroutine; Stop (or cancellation of the Start context) moves it to
// Stopped, which is terminal. Starting twice, starting after Stop, and
// stopping while Idle are all no-ops.
//
// # Ticks
//
// Each tick fetches tasks due within the scan window and notifies once per
// task id, either as approaching (due within the warning window) or as
// overdue. A task that already produced a notification is not evaluated
// again until Reset, so an approaching task never later fires overdue. The
// same tick reminds attendees of meetings that start within the reminder
// window, once per meeting id.
//
// Only one tick runs at a time. A tick that finds another in flight returns
// immediately and is reported as skipped.
//
// Store failures skip the affected pass and leave the dedup sets untouched.
// Sink failures are logged and swallowed; the id stays marked, so delivery
// is at most once.
package monitor
