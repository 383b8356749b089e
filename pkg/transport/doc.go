// Package transport carries envelopes between a client and remote endpoints.
//
// A MessageSender recognises destination URIs by scheme and opens a
// Connection for each exchange. A Connection sends one request, reports
// whether a response is available and receives it. The client resolves
// destinations against an ordered list of senders; the first sender that
// supports a URI wins.
//
// # Senders
//
// HTTPMessageSender:
//   - http and https destinations
//   - POSTs the envelope and reads the whole response body
//   - 202 and 204 mean no response; error statuses without an envelope
//     surface as transport faults
//
// NATSMessageSender:
//   - nats:subject or nats://cluster/subject destinations
//   - request/reply over an existing or dialled NATS connection
//   - oneway=true in the query publishes without waiting
//
// WebSocketMessageSender:
//   - ws and wss destinations
//   - one text frame out, one frame back
//
// MemoryMessageSender:
//   - mem:name destinations bound to in-process handlers
//   - encodes and parses every envelope like a network sender would
//
// # Configuration
//
// NewMessageSender builds a sender from Config and applies middleware:
//
//	config := transport.DefaultConfig(transport.SenderTypeHTTP)
//	config.HTTP.Headers = map[string]string{"Authorization": "Bearer token"}
//	sender, err := transport.NewMessageSender(config)
//
// # Middleware
//
// ReliabilityMiddleware retries connection establishment with exponential
// backoff and keeps a circuit breaker per destination. A request is never
// sent twice. ObservabilityMiddleware logs and times every connection
// event and reports it to a MetricsRecorder.
package transport
