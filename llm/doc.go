// Package llm wraps an OpenAI-compatible chat completion API (OpenRouter by
// default) with tool calling, retries and backoff.
package llm
