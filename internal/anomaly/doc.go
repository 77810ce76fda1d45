// Package anomaly flags overdue tasks and overloaded employees.
//
// Detect is a pure function of its inputs and the supplied time. Detector.Scan
// loads a snapshot from the stores and publishes each finding on the event
// bus.
package anomaly
