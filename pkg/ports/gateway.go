package ports

import (
	"context"

	"github.com/aretw0/scribe/pkg/domain"
)

// Gateway is the messaging-platform client used by the session controller.
// Every call blocks until the platform has acknowledged it.
type Gateway interface {
	// Send posts a new message with its controls to a channel.
	Send(ctx context.Context, channelID string, view domain.MessageView) (domain.MessageRef, error)

	// Edit replaces the content, embed and controls of an existing message.
	Edit(ctx context.Context, ref domain.MessageRef, view domain.MessageView) error

	// Reply posts a plain text message referencing an existing one.
	Reply(ctx context.Context, ref domain.MessageRef, content string) error

	// Subscribe starts delivering the interaction events of a message.
	// Events produced before Subscribe returns are not guaranteed to be delivered.
	Subscribe(ref domain.MessageRef) Subscription
}

// Subscription carries the interaction events of a single message.
// Each stream delivers events in the order the platform produced them.
type Subscription interface {
	Buttons() <-chan domain.ButtonActivated
	Forms() <-chan domain.FormSubmitted

	// Close stops delivery and releases the subscription. It is idempotent.
	Close()
}

// TriggerHandler is called for every inbound chat message a gateway observes.
type TriggerHandler func(ctx context.Context, trigger domain.Trigger) error
