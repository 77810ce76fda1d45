// Package completion provides text completion backends used to write
// recommendation rationales.
//
// Two backends are available: AnthropicClient talks to the Anthropic
// Messages API over plain HTTP, and OpenAIClient uses the official OpenAI
// SDK. Both report failures as *errors.CompletionError so callers can decide
// whether a retry is worthwhile with errors.IsRetryable.
//
// NewFromConfig selects a backend from configuration. The "none" backend
// yields a nil Client, which callers treat as "skip the call".
package completion
