package ws

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"vio-chat-service/internal/middleware"
	"vio-chat-service/internal/mocks"
	"vio-chat-service/internal/models"
	"vio-chat-service/internal/repositories"
)

type relayStub struct {
	mu     sync.Mutex
	events []models.ChatEvent
}

func (r *relayStub) Publish(event models.ChatEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	return nil
}

func TestHubAddAndRemoveClient(t *testing.T) {
	hub := NewHub()

	hub.AddClient("a_b", nil, ConnInfo{ConnID: "c1"})
	assert.Equal(t, 1, hub.RoomSize("a_b"))

	assert.True(t, hub.RemoveClient("a_b", nil))
	assert.Equal(t, 0, hub.RoomSize("a_b"))
	assert.Empty(t, hub.rooms)
	assert.False(t, hub.RemoveClient("a_b", nil))
}

func TestBroadcastForwardsToRelay(t *testing.T) {
	hub := NewHub()
	relay := &relayStub{}
	hub.SetRelay(relay)

	hub.BroadcastDeletion("a_b", "m1")

	require.Len(t, relay.events, 1)
	assert.Equal(t, models.ChatEventDeleteForAll, relay.events[0].Type)
	assert.Equal(t, "m1", relay.events[0].MessageID)
}

func setupWSServer(t *testing.T, hub *Hub, users *mocks.UserRepositoryMock, v middleware.TokenValidator) *httptest.Server {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/ws/chats/:peer_id", NewChatWebSocketHandler(hub, users, v).Handle)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func waitForRoom(t *testing.T, hub *Hub, roomID string, size int) {
	t.Helper()
	require.Eventually(t, func() bool { return hub.RoomSize(roomID) == size }, 2*time.Second, 10*time.Millisecond)
}

func TestChatWebSocketReceivesRoomEvents(t *testing.T) {
	hub := NewHub()
	users := new(mocks.UserRepositoryMock)
	users.On("GetUser", mock.Anything, "bob").Return(models.User{UID: "bob", Name: "Bob"}, nil)
	v := middleware.NewJWTValidator("secret")
	token, err := v.IssueToken("alice", jwtClaims())
	require.NoError(t, err)

	srv := setupWSServer(t, hub, users, v)
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/chats/bob?token=" + token
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	waitForRoom(t, hub, "alice_bob", 1)
	hub.BroadcastMessage("alice_bob", models.Message{ID: "m1", RoomID: "alice_bob", Text: "hi", SenderID: "bob", ReceiverID: "alice"})

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)

	var event models.ChatEvent
	require.NoError(t, json.Unmarshal(data, &event))
	assert.Equal(t, models.ChatEventMessage, event.Type)
	assert.Equal(t, "alice_bob", event.RoomID)
	require.NotNil(t, event.Message)
	assert.Equal(t, "hi", event.Message.Text)

	conn.Close()
	waitForRoom(t, hub, "alice_bob", 0)
}

func TestChatWebSocketRejectsBadHandshake(t *testing.T) {
	hub := NewHub()
	users := new(mocks.UserRepositoryMock)
	users.On("GetUser", mock.Anything, "ghost").Return(models.User{}, repositories.ErrUserNotFound)
	v := middleware.NewJWTValidator("secret")
	token, err := v.IssueToken("alice", jwtClaims())
	require.NoError(t, err)
	srv := setupWSServer(t, hub, users, v)

	cases := map[string]struct {
		path   string
		status int
	}{
		"no token":     {"/ws/chats/bob", http.StatusUnauthorized},
		"bad token":    {"/ws/chats/bob?token=garbage", http.StatusUnauthorized},
		"self room":    {"/ws/chats/alice?token=" + token, http.StatusBadRequest},
		"no such peer": {"/ws/chats/ghost?token=" + token, http.StatusNotFound},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			resp, err := http.Get(srv.URL + tc.path)
			require.NoError(t, err)
			resp.Body.Close()
			assert.Equal(t, tc.status, resp.StatusCode)
		})
	}
}
