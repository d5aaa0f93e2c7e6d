package sender

import "context"

// Message is a channel-agnostic outbound message
type Message struct {
	To      string
	Subject string
	Body    string
}

// Sender delivers a notification over an external channel. Delivery is best
// effort: callers log failures and move on, they never roll back state.
type Sender interface {
	Send(ctx context.Context, msg *Message) error
}
