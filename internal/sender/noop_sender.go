package sender

import (
	"context"
	"fmt"

	"github.com/VinayKumar7512/EventNest/pkg/logger"
)

// NoOpSender implements Sender by logging instead of delivering. Used when
// no mail credentials are configured so the rest of the flow still works.
type NoOpSender struct{}

// NewNoOpSender creates a new NoOpSender
func NewNoOpSender() *NoOpSender {
	return &NoOpSender{}
}

// Send logs the message and reports success
func (s *NoOpSender) Send(ctx context.Context, msg *Message) error {
	logger.Get().Debug(fmt.Sprintf("NoOp sender: would send %q to %s", msg.Subject, msg.To))
	return nil
}
