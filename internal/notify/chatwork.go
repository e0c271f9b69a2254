package notify

import (
	"context"

	"github.com/engetsu-hub/chatwork-ai-manager/internal/chatwork"
)

// Chatwork posts alerts back into the room the message came from.
type Chatwork struct {
	client *chatwork.Client
}

// NewChatwork creates a notifier that posts through client.
func NewChatwork(client *chatwork.Client) *Chatwork {
	return &Chatwork{client: client}
}

func (c *Chatwork) Deliver(ctx context.Context, roomID, text string) error {
	_, err := c.client.PostMessage(ctx, roomID, text)
	return err
}

func (c *Chatwork) Name() string { return "chatwork" }
