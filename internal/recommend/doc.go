// Package recommend ranks employees for a task and explains the choice.
//
// Ranking is a stable sort of scoring.Score over the candidate pool and is
// never influenced by the completion backend. The rationale is best-effort:
// a completion call bounded by a single timeout, retried with exponential
// backoff only for retryable failures, and replaced by a generated sentence
// when it cannot be obtained.
package recommend
