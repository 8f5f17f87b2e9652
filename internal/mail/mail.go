// Package mail implements the asynchronous email pipeline: messages are
// enqueued to Kafka by request handlers and delivered out-of-band by the
// worker with bounded retries. At-least-once, never awaited by a request.
package mail

import "context"

// Message is one email job. HTML is preferred over Text when both are set.
type Message struct {
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html,omitempty"`
	Text    string   `json:"text,omitempty"`
}

// Enqueuer hands a message to the durable queue. Callers use it best-effort
// from business code: log and ignore errors, never roll back.
type Enqueuer interface {
	// Enqueue persists the message for asynchronous delivery. Returns an error
	// only on enqueue failure, not delivery failure.
	Enqueue(ctx context.Context, m *Message) error
	// Close releases resources (e.g. Kafka writer). Safe to call if already closed.
	Close() error
}

// Sender delivers one message to the mail provider. Used by the worker only.
type Sender interface {
	Send(ctx context.Context, m *Message) error
}
