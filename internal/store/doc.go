// Package store defines the read and write contracts for tasks, employees
// and meetings.
//
// Implementations live in sub-packages: filestore serves all three from a
// YAML or TOML dataset, and gcal serves meetings from Google Calendar. The
// monitor, recommendation and anomaly components depend only on these
// interfaces.
package store
