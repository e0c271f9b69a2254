package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/engetsu-hub/chatwork-ai-manager/internal/chatwork"
)

func TestLogNotifierWritesPreview(t *testing.T) {
	var buf bytes.Buffer
	n := NewLog(zerolog.New(&buf))

	require.NoError(t, n.Deliver(context.Background(), "42", strings.Repeat("あ", 150)))

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "42", entry["room_id"])
	assert.Equal(t, strings.Repeat("あ", 100)+"...", entry["alert"])
	assert.Equal(t, "log", n.Name())
}

func TestChatworkNotifierPosts(t *testing.T) {
	var got string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		got = r.PostForm.Get("body")
		w.Write([]byte(`{"message_id":"1"}`))
	}))
	defer srv.Close()

	n := NewChatwork(chatwork.NewClient(srv.URL, "t"))
	require.NoError(t, n.Deliver(context.Background(), "42", "[info]x[/info]"))
	assert.Equal(t, "[info]x[/info]", got)
}

type fakePublisher struct {
	msgs []*nats.Msg
	err  error
}

func (f *fakePublisher) PublishMsg(m *nats.Msg) error {
	f.msgs = append(f.msgs, m)
	return f.err
}

func TestNATSNotifierPublishesEvent(t *testing.T) {
	pub := &fakePublisher{}
	n := NewNATS(pub, "alerts.reply")

	require.NoError(t, n.Deliver(context.Background(), "42", "hello"))
	require.Len(t, pub.msgs, 1)

	msg := pub.msgs[0]
	assert.Equal(t, "alerts.reply", msg.Subject)

	var ev AlertEvent
	require.NoError(t, json.Unmarshal(msg.Data, &ev))
	assert.Equal(t, "42", ev.RoomID)
	assert.Equal(t, "hello", ev.Text)
	assert.NotEmpty(t, ev.ID)
	assert.Equal(t, ev.ID, msg.Header.Get(nats.MsgIdHdr))
}

func TestNATSNotifierPropagatesErrors(t *testing.T) {
	pub := &fakePublisher{err: errors.New("no responders")}
	err := NewNATS(pub, "s").Deliver(context.Background(), "1", "x")
	assert.EqualError(t, err, "no responders")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, NewNATS(&fakePublisher{}, "s").Deliver(ctx, "1", "x"), context.Canceled)
}
