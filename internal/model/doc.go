// Package model defines the domain types shared by the scoring,
// recommendation, anomaly and monitoring packages.
//
// The enumerations ([Status], [Priority], [AnomalyType], [Severity]) are
// closed sets. Each is a string type so that dataset files and JSON output
// stay readable; [Status.Valid] and friends report membership and the
// UnmarshalText methods accept any casing plus "InProgress"/"in-progress"
// spellings.
//
// Optional references are pointers: a nil [Task.AssigneeID] means the task
// is unassigned. No numeric value (including 0) is treated as a sentinel.
package model
