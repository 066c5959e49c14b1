package ports

import "context"

// Message is an outbound notification.
type Message struct {
	To      string
	Subject string
	Text    string
	HTML    string
}

// Notifier delivers a message to a recipient.
type Notifier interface {
	Send(ctx context.Context, msg Message) error
}

// PasswordHasher hashes and checks passwords. Implementations may block on
// CPU; ctx bounds how long a caller waits for a hashing slot.
type PasswordHasher interface {
	Hash(ctx context.Context, plain string) (string, error)
	Verify(ctx context.Context, hash, plain string) bool
}

// MessageQueue accepts messages for asynchronous delivery.
type MessageQueue interface {
	Enqueue(msg Message)
}
