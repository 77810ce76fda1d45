// Package scoring computes how well an employee fits a task.
//
// A score is the sum of four independent terms:
//
//   - workload headroom, up to 40 points
//   - skill match, 30 points
//   - same department, 20 points
//   - low active task count, up to 10 points
//
// The functions are pure and safe for concurrent use.
package scoring
