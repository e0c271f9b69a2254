package detector

import (
	"fmt"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/engetsu-hub/chatwork-ai-manager/internal/models"
)

var t0 = time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)

func msg(id, body string) models.Message {
	return models.Message{
		ID:       id,
		RoomID:   "100",
		Account:  models.Account{ID: 1, Name: "tanaka"},
		Body:     body,
		SendTime: 1700000000,
	}
}

func ids(msgs []models.Message) []string {
	out := make([]string, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, m.ID)
	}
	return out
}

func TestFirstPollReportsEverythingNewWithoutDeletions(t *testing.T) {
	d := New(zerolog.Nop())

	ch := d.Observe("100", []models.Message{msg("1", "a"), msg("2", "b")}, t0)

	assert.Equal(t, []string{"1", "2"}, ids(ch.New))
	assert.Empty(t, ch.Deleted)
	assert.Empty(t, d.Deleted("100"))
}

func TestOnlyMessagesPastHighWaterMarkAreNew(t *testing.T) {
	d := New(zerolog.Nop())
	d.Observe("100", []models.Message{msg("1", "a"), msg("2", "b")}, t0)

	ch := d.Observe("100", []models.Message{msg("1", "a"), msg("2", "b"), msg("3", "c")}, t0)
	assert.Equal(t, []string{"3"}, ids(ch.New))

	ch = d.Observe("100", []models.Message{msg("1", "a"), msg("2", "b"), msg("3", "c")}, t0)
	assert.Empty(t, ch.New)
}

func TestNumericIDsCompareByValue(t *testing.T) {
	d := New(zerolog.Nop())
	d.Observe("100", []models.Message{msg("9", "a")}, t0)

	ch := d.Observe("100", []models.Message{msg("9", "a"), msg("10", "b")}, t0)
	assert.Equal(t, []string{"10"}, ids(ch.New))
}

func TestTagDeletedNeverNewAndLoggedOnce(t *testing.T) {
	d := New(zerolog.Nop())

	snap := []models.Message{msg("1", "hello"), msg("2", "[delete] oops typo")}
	ch := d.Observe("100", snap, t0)

	assert.Equal(t, []string{"1"}, ids(ch.New))
	require.Len(t, ch.Deleted, 1)
	assert.Equal(t, models.DeletionTag, ch.Deleted[0].Kind)
	assert.Equal(t, "oops typo", ch.Deleted[0].Body)
	assert.Equal(t, "tanaka", ch.Deleted[0].Sender)

	ch = d.Observe("100", snap, t0.Add(time.Minute))
	assert.Empty(t, ch.Deleted)
	assert.Len(t, d.Deleted("100"), 1)
}

func TestDeletedMarkerVariantIsStripped(t *testing.T) {
	d := New(zerolog.Nop())
	ch := d.Observe("100", []models.Message{msg("5", "  gone [deleted] ")}, t0)
	require.Len(t, ch.Deleted, 1)
	assert.Equal(t, "gone", ch.Deleted[0].Body)
}

func TestVanishedMessageLoggedOnce(t *testing.T) {
	d := New(zerolog.Nop())
	d.Observe("100", []models.Message{msg("1", "a"), msg("2", "b"), msg("3", "c")}, t0)

	ch := d.Observe("100", []models.Message{msg("1", "a"), msg("3", "c")}, t0.Add(time.Minute))
	require.Len(t, ch.Deleted, 1)
	assert.Equal(t, "2", ch.Deleted[0].MessageID)
	assert.Equal(t, models.DeletionVanished, ch.Deleted[0].Kind)
	assert.Equal(t, "b", ch.Deleted[0].Body)
	assert.Equal(t, t0.Add(time.Minute), ch.Deleted[0].DeletedAt)

	ch = d.Observe("100", []models.Message{msg("1", "a"), msg("3", "c")}, t0.Add(2*time.Minute))
	assert.Empty(t, ch.Deleted)
	assert.Len(t, d.Deleted("100"), 1)
}

func TestTagDeletionTakesPrecedenceOverVanished(t *testing.T) {
	d := New(zerolog.Nop())
	d.Observe("100", []models.Message{msg("1", "a"), msg("2", "b")}, t0)

	ch := d.Observe("100", []models.Message{msg("1", "a"), msg("2", "[delete] b")}, t0)
	require.Len(t, ch.Deleted, 1)
	assert.Equal(t, models.DeletionTag, ch.Deleted[0].Kind)
	assert.Equal(t, "2", ch.Deleted[0].MessageID)
	assert.Empty(t, ch.New)
}

func TestRoomsAreIndependent(t *testing.T) {
	d := New(zerolog.Nop())
	d.Observe("100", []models.Message{msg("1", "a")}, t0)

	ch := d.Observe("200", []models.Message{msg("1", "a")}, t0)
	assert.Equal(t, []string{"1"}, ids(ch.New))

	ch = d.Observe("200", nil, t0)
	assert.Len(t, ch.Deleted, 1)
	assert.Empty(t, d.Deleted("100"))
}

func TestDeletionLogIsBounded(t *testing.T) {
	d := New(zerolog.Nop())

	var snap []models.Message
	for i := 1; i <= LogCapacity+20; i++ {
		snap = append(snap, msg(fmt.Sprint(i), "[delete] x"))
	}
	d.Observe("100", snap, t0)

	log := d.Deleted("100")
	require.Len(t, log, LogCapacity)
	assert.Equal(t, "21", log[0].MessageID)
	assert.Equal(t, fmt.Sprint(LogCapacity+20), log[len(log)-1].MessageID)
}

func TestClear(t *testing.T) {
	d := New(zerolog.Nop())
	d.Observe("100", []models.Message{msg("1", "[delete] a")}, t0)
	d.Observe("200", []models.Message{msg("1", "[delete] a")}, t0)

	d.Clear("100")
	assert.Empty(t, d.Deleted("100"))
	assert.Len(t, d.Deleted("200"), 1)

	d.Clear("")
	assert.Empty(t, d.AllDeleted())
}

func TestAllDeletedReturnsCopies(t *testing.T) {
	d := New(zerolog.Nop())
	d.Observe("100", []models.Message{msg("1", "[delete] a")}, t0)

	all := d.AllDeleted()
	all["100"][0].Body = "mutated"
	assert.Equal(t, "a", d.Deleted("100")[0].Body)
}

func TestCompareIDs(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"1", "1", 0},
		{"9", "10", -1},
		{"0010", "9", 1},
		{"01HZX0", "01HZX1", -1},
		{"abc", "ab", 1},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, compareIDs(tt.a, tt.b), "compareIDs(%q, %q)", tt.a, tt.b)
	}
}

func TestClearDoesNotRelogTaggedMessages(t *testing.T) {
	d := New(zerolog.Nop())
	snap := []models.Message{msg("1", "[delete] a")}
	d.Observe("100", snap, t0)

	d.Clear("100")
	ch := d.Observe("100", snap, t0.Add(time.Minute))
	assert.Empty(t, ch.Deleted)
	assert.Empty(t, d.Deleted("100"))
}
