// Package source fetches room message snapshots from a backing chat store.
package source

import (
	"context"

	"github.com/engetsu-hub/chatwork-ai-manager/internal/chatwork"
	"github.com/engetsu-hub/chatwork-ai-manager/internal/models"
)

// Source returns the current message snapshot for a room, oldest first.
type Source interface {
	Poll(ctx context.Context, roomID string, force bool) ([]models.Message, error)

	// Name returns the source type for logging and health output.
	Name() string
}

var (
	ErrUnauthorized = chatwork.ErrUnauthorized
	ErrRateLimited  = chatwork.ErrRateLimited
)

// APIError is a non-success response from the Chatwork API.
type APIError = chatwork.APIError

// Chatwork polls the Chatwork REST API.
type Chatwork struct {
	client *chatwork.Client
}

// NewChatwork wraps a Chatwork API client.
func NewChatwork(client *chatwork.Client) *Chatwork {
	return &Chatwork{client: client}
}

// Poll returns the latest messages of a room.
func (c *Chatwork) Poll(ctx context.Context, roomID string, force bool) ([]models.Message, error) {
	return c.client.GetMessages(ctx, roomID, force)
}

func (c *Chatwork) Name() string { return "chatwork" }
