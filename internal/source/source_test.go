package source

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/engetsu-hub/chatwork-ai-manager/internal/chatwork"
)

func TestDecodeMember(t *testing.T) {
	msg, err := decodeMember("general", `{"id":"01HZX","from":"42","name":"bot","body":"hi [To:5]","ts":1700000000123}`)
	require.NoError(t, err)

	assert.Equal(t, "01HZX", msg.ID)
	assert.Equal(t, "general", msg.RoomID)
	assert.Equal(t, int64(42), msg.Account.ID)
	assert.Equal(t, "bot", msg.Account.Name)
	assert.Equal(t, "hi [To:5]", msg.Body)
	assert.Equal(t, int64(1700000000), msg.SendTime)
}

func TestDecodeMemberFallsBackToSenderID(t *testing.T) {
	msg, err := decodeMember("r", `{"id":"1","from":"a1b2","body":"x","ts":1}`)
	require.NoError(t, err)
	assert.Equal(t, "a1b2", msg.Account.Name)
	assert.Zero(t, msg.Account.ID)
}

func TestDecodeMemberRejectsBadInput(t *testing.T) {
	_, err := decodeMember("r", `not json`)
	assert.Error(t, err)

	_, err = decodeMember("r", `{"body":"no id"}`)
	assert.Error(t, err)
}

func TestRoomMessagesKey(t *testing.T) {
	assert.Equal(t, "room:123:messages", roomMessagesKey("123"))
}

func TestChatworkSourceMapsUnauthorized(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	src := NewChatwork(chatwork.NewClient(srv.URL, "bad"))
	_, err := src.Poll(context.Background(), "1", true)
	assert.ErrorIs(t, err, ErrUnauthorized)
	assert.Equal(t, "chatwork", src.Name())
}
