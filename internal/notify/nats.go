package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
)

// Publisher is the subset of *nats.Conn used for publishing.
type Publisher interface {
	PublishMsg(m *nats.Msg) error
}

// AlertEvent is the JSON payload published for each alert.
type AlertEvent struct {
	ID     string    `json:"id"`
	RoomID string    `json:"room_id"`
	Text   string    `json:"text"`
	SentAt time.Time `json:"sent_at"`
}

// NATS publishes alerts to a subject for downstream consumers.
type NATS struct {
	pub     Publisher
	subject string
	now     func() time.Time
}

// NewNATS creates a notifier publishing to subject.
func NewNATS(pub Publisher, subject string) *NATS {
	return &NATS{pub: pub, subject: subject, now: time.Now}
}

// Connect dials a NATS server with reconnects enabled.
func Connect(url, name string) (*nats.Conn, error) {
	nc, err := nats.Connect(url,
		nats.Name(name),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.Timeout(5*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("connect nats %s: %w", url, err)
	}
	return nc, nil
}

func (n *NATS) Deliver(ctx context.Context, roomID, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	ev := AlertEvent{
		ID:     uuid.NewString(),
		RoomID: roomID,
		Text:   text,
		SentAt: n.now().UTC(),
	}
	data, err := json.Marshal(ev)
	if err != nil {
		return err
	}

	msg := nats.NewMsg(n.subject)
	msg.Data = data
	// JetStream uses the id for duplicate suppression.
	msg.Header.Set(nats.MsgIdHdr, ev.ID)
	return n.pub.PublishMsg(msg)
}

func (n *NATS) Name() string { return "nats" }
