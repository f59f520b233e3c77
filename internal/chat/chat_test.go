package chat

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vio-chat-service/internal/models"
)

func TestRoomIDIsSymmetric(t *testing.T) {
	ab, err := RoomID("alice", "bob")
	require.NoError(t, err)
	ba, err := RoomID("bob", "alice")
	require.NoError(t, err)

	assert.Equal(t, ab, ba)
	assert.Equal(t, "alice_bob", ab)
}

func TestRoomIDSeparatesAmbiguousPairs(t *testing.T) {
	first, err := RoomID("ab", "c")
	require.NoError(t, err)
	second, err := RoomID("a", "bc")
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
}

func TestRoomIDRejectsSeparatorInIDs(t *testing.T) {
	for _, pair := range [][2]string{{"x_y", "z"}, {"x", "y_z"}, {"_", "bob"}} {
		_, err := RoomID(pair[0], pair[1])
		assert.ErrorIs(t, err, ErrInvalidArgument, "%q", pair)
	}
}

func TestRoomIDRejectsInvalidParticipants(t *testing.T) {
	_, err := RoomID("", "bob")
	assert.ErrorIs(t, err, ErrInvalidArgument)

	_, err = RoomID("bob", "bob")
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestCountUnreadSeenResetsSender(t *testing.T) {
	msgs := []models.Message{
		{SenderID: "x", ReceiverID: "y", Seen: false},
		{SenderID: "x", ReceiverID: "y", Seen: true},
	}

	counts := CountUnread("y", []string{"x"}, msgs)
	assert.Equal(t, 0, counts["x"])
}

func TestCountUnreadCountsUnseen(t *testing.T) {
	msgs := []models.Message{
		{SenderID: "x", ReceiverID: "y"},
		{SenderID: "y", ReceiverID: "x"},
		{SenderID: "x", ReceiverID: "y"},
		{SenderID: "x", ReceiverID: "y"},
	}

	counts := CountUnread("y", []string{"x", "z", "y"}, msgs)
	assert.Equal(t, map[string]int{"x": 3, "z": 0}, counts)
}

func TestCountUnreadLaterUnseenAfterSeen(t *testing.T) {
	msgs := []models.Message{
		{SenderID: "x", ReceiverID: "y"},
		{SenderID: "x", ReceiverID: "y", Seen: true},
		{SenderID: "x", ReceiverID: "y"},
	}

	counts := CountUnread("y", nil, msgs)
	assert.Equal(t, 1, counts["x"])
}

func TestCountUnreadSkipsMalformed(t *testing.T) {
	msgs := []models.Message{
		{SenderID: "", ReceiverID: "y"},
		{SenderID: "x", ReceiverID: ""},
	}

	counts := CountUnread("y", []string{"x"}, msgs)
	assert.Equal(t, map[string]int{"x": 0}, counts)
}

func TestCountUnreadRoomsSkipsForeignRoom(t *testing.T) {
	rooms := map[string][]models.Message{
		"x_y": {{SenderID: "x", ReceiverID: "y"}, {SenderID: "x", ReceiverID: "y"}},
		"w_y": {{SenderID: "w", ReceiverID: "y"}},
		"q_y": {{SenderID: "x", ReceiverID: "y"}},
	}

	counts := CountUnreadRooms("y", []string{"x", "w", "q"}, rooms)
	assert.Equal(t, map[string]int{"x": 2, "w": 1, "q": 0}, counts)
}

func TestApplyEditTwiceKeepsOrderedHistory(t *testing.T) {
	msg := &models.Message{SenderID: "a", ReceiverID: "b", Text: "first", Type: models.MessageTypeText}
	t0 := time.UnixMilli(1_700_000_000_000)

	require.NoError(t, ApplyEdit(msg, "a", "second", t0))
	require.NoError(t, ApplyEdit(msg, "a", "third", t0.Add(5*time.Second)))

	assert.Equal(t, "third", msg.Text)
	assert.True(t, msg.Edited)
	require.NotNil(t, msg.OriginalMessage)
	assert.Equal(t, "first", *msg.OriginalMessage)
	require.Len(t, msg.EditHistory, 2)

	history := History(*msg)
	require.Len(t, history, 2)
	assert.Equal(t, "first", history[0].Text)
	assert.Equal(t, "second", history[1].Text)
	assert.Less(t, history[0].EditedAt, history[1].EditedAt)
}

func TestApplyEditSameMillisecondDoesNotOverwrite(t *testing.T) {
	msg := &models.Message{SenderID: "a", ReceiverID: "b", Text: "one"}
	now := time.UnixMilli(42)

	require.NoError(t, ApplyEdit(msg, "a", "two", now))
	require.NoError(t, ApplyEdit(msg, "a", "three", now))

	history := History(*msg)
	require.Len(t, history, 2)
	assert.Equal(t, "one", history[0].Text)
	assert.Equal(t, "two", history[1].Text)
}

func TestApplyEditRejectsOthers(t *testing.T) {
	msg := &models.Message{SenderID: "a", ReceiverID: "b", Text: "hi"}
	assert.ErrorIs(t, ApplyEdit(msg, "b", "hacked", time.Now()), ErrNotSender)

	voice := &models.Message{SenderID: "a", ReceiverID: "b", Type: models.MessageTypeVoice}
	assert.ErrorIs(t, ApplyEdit(voice, "a", "text", time.Now()), ErrNotEditable)

	assert.ErrorIs(t, ApplyEdit(msg, "a", "   ", time.Now()), ErrInvalidArgument)
	assert.False(t, msg.Edited)
}

func TestHistoryFallsBackToLegacyOriginal(t *testing.T) {
	original := "before"
	at := int64(7)
	msg := models.Message{Edited: true, OriginalMessage: &original, EditedAt: &at}

	assert.Equal(t, []HistoryEntry{{EditedAt: 7, Text: "before"}}, History(msg))
	assert.Nil(t, History(models.Message{}))
}

func TestHideConvergesInEitherOrder(t *testing.T) {
	for _, order := range [][]string{{"a", "b"}, {"b", "a"}} {
		msg := &models.Message{SenderID: "a", ReceiverID: "b"}

		converged, err := Hide(msg, order[0])
		require.NoError(t, err)
		assert.False(t, converged)
		assert.False(t, VisibleTo(*msg, order[0]))
		assert.True(t, VisibleTo(*msg, order[1]))

		converged, err = Hide(msg, order[1])
		require.NoError(t, err)
		assert.True(t, converged)
	}
}

func TestHideRejectsOutsider(t *testing.T) {
	msg := &models.Message{SenderID: "a", ReceiverID: "b"}
	_, err := Hide(msg, "c")
	assert.ErrorIs(t, err, ErrNotParticipant)
}

func TestFilterVisible(t *testing.T) {
	msgs := []models.Message{
		{ID: "1", HiddenBy: models.HiddenBy{"a": true}},
		{ID: "2"},
		{ID: "3", HiddenBy: models.HiddenBy{"b": true}},
	}

	visible := FilterVisible(msgs, "a")
	require.Len(t, visible, 2)
	assert.Equal(t, "2", visible[0].ID)
	assert.Equal(t, "3", visible[1].ID)
}
