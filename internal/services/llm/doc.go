// Package llm provides an OpenRouter-compatible chat client used as the
// default generation backend for pipeline stages.
//
// Every request asks for a JSON-only response (response_format json_object)
// and returns the raw payload string; callers decode it against their stage
// schema with DecodeLLMJSON, which tolerates common model formatting quirks
// such as code fences and leading prose.
//
// # Retry behaviour
//
// The client retries on HTTP 408/429/5xx and network timeouts with
// exponential backoff (base 1s, max 10s, up to 5 attempts by default) and
// honours Retry-After headers. Context cancellation aborts retries
// immediately. Schema-level retries are the orchestrator's responsibility,
// not this client's.
//
// # Entry points
//
// NewClient: construct a client from Config.
// Client.CompleteJSON: send system/user prompts, receive a JSON payload.
// Client.HealthCheck: verify the API key and model are usable.
package llm
