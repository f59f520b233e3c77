package mocks

import (
	"context"
	"io"
	"time"

	"github.com/stretchr/testify/mock"

	"vio-chat-service/internal/backend"
	"vio-chat-service/internal/media"
	"vio-chat-service/internal/models"
	"vio-chat-service/internal/repositories"
	"vio-chat-service/internal/storage"
)

// MessageRepositoryMock mocks repositories.MessageRepository.
type MessageRepositoryMock struct {
	mock.Mock
}

func (m *MessageRepositoryMock) CreateMessage(ctx context.Context, msg *models.Message) error {
	args := m.Called(ctx, msg)
	return args.Error(0)
}

func (m *MessageRepositoryMock) ListRoomMessages(ctx context.Context, roomID string) ([]models.Message, error) {
	args := m.Called(ctx, roomID)
	msgs, _ := args.Get(0).([]models.Message)
	return msgs, args.Error(1)
}

func (m *MessageRepositoryMock) ListMessagesForUser(ctx context.Context, userID string) (map[string][]models.Message, error) {
	args := m.Called(ctx, userID)
	rooms, _ := args.Get(0).(map[string][]models.Message)
	return rooms, args.Error(1)
}

func (m *MessageRepositoryMock) GetMessage(ctx context.Context, roomID, messageID string) (models.Message, error) {
	args := m.Called(ctx, roomID, messageID)
	return args.Get(0).(models.Message), args.Error(1)
}

func (m *MessageRepositoryMock) EditMessage(ctx context.Context, roomID, messageID, editorID, text string, now time.Time) (models.Message, error) {
	args := m.Called(ctx, roomID, messageID, editorID, text, now)
	return args.Get(0).(models.Message), args.Error(1)
}

func (m *MessageRepositoryMock) HideMessage(ctx context.Context, roomID, messageID, userID string) (models.Message, bool, error) {
	args := m.Called(ctx, roomID, messageID, userID)
	return args.Get(0).(models.Message), args.Bool(1), args.Error(2)
}

func (m *MessageRepositoryMock) DeleteMessage(ctx context.Context, roomID, messageID string) (models.Message, error) {
	args := m.Called(ctx, roomID, messageID)
	return args.Get(0).(models.Message), args.Error(1)
}

func (m *MessageRepositoryMock) MarkSeen(ctx context.Context, roomID, viewerID string) (int64, error) {
	args := m.Called(ctx, roomID, viewerID)
	return args.Get(0).(int64), args.Error(1)
}

// UserRepositoryMock mocks repositories.UserRepository.
type UserRepositoryMock struct {
	mock.Mock
}

func (m *UserRepositoryMock) UpsertUser(ctx context.Context, user models.User) (models.User, error) {
	args := m.Called(ctx, user)
	return args.Get(0).(models.User), args.Error(1)
}

func (m *UserRepositoryMock) UpdateProfile(ctx context.Context, uid string, name *string, photo *string) (models.User, error) {
	args := m.Called(ctx, uid, name, photo)
	return args.Get(0).(models.User), args.Error(1)
}

func (m *UserRepositoryMock) ClearPhoto(ctx context.Context, uid string) error {
	args := m.Called(ctx, uid)
	return args.Error(0)
}

func (m *UserRepositoryMock) SetFCMToken(ctx context.Context, uid, token string) error {
	args := m.Called(ctx, uid, token)
	return args.Error(0)
}

func (m *UserRepositoryMock) GetUser(ctx context.Context, uid string) (models.User, error) {
	args := m.Called(ctx, uid)
	return args.Get(0).(models.User), args.Error(1)
}

func (m *UserRepositoryMock) FindByEmail(ctx context.Context, email string) (models.User, error) {
	args := m.Called(ctx, email)
	return args.Get(0).(models.User), args.Error(1)
}

func (m *UserRepositoryMock) ListUsers(ctx context.Context) ([]models.User, error) {
	args := m.Called(ctx)
	users, _ := args.Get(0).([]models.User)
	return users, args.Error(1)
}

func (m *UserRepositoryMock) BulkUsers(ctx context.Context, uids []string) ([]models.User, error) {
	args := m.Called(ctx, uids)
	users, _ := args.Get(0).([]models.User)
	return users, args.Error(1)
}

// FriendRepositoryMock mocks repositories.FriendRepository.
type FriendRepositoryMock struct {
	mock.Mock
}

func (m *FriendRepositoryMock) HasEdge(ctx context.Context, ownerID, otherID string) (bool, error) {
	args := m.Called(ctx, ownerID, otherID)
	return args.Bool(0), args.Error(1)
}

func (m *FriendRepositoryMock) AddEdge(ctx context.Context, ownerID, otherID string) error {
	args := m.Called(ctx, ownerID, otherID)
	return args.Error(0)
}

func (m *FriendRepositoryMock) ListFriendIDs(ctx context.Context, userID string) ([]string, error) {
	args := m.Called(ctx, userID)
	ids, _ := args.Get(0).([]string)
	return ids, args.Error(1)
}

func (m *FriendRepositoryMock) CreateRequest(ctx context.Context, targetID, senderID string) error {
	args := m.Called(ctx, targetID, senderID)
	return args.Error(0)
}

func (m *FriendRepositoryMock) GetRequest(ctx context.Context, targetID, senderID string) (models.FriendRequest, error) {
	args := m.Called(ctx, targetID, senderID)
	return args.Get(0).(models.FriendRequest), args.Error(1)
}

func (m *FriendRepositoryMock) ListRequests(ctx context.Context, targetID string) ([]models.FriendRequest, error) {
	args := m.Called(ctx, targetID)
	reqs, _ := args.Get(0).([]models.FriendRequest)
	return reqs, args.Error(1)
}

func (m *FriendRepositoryMock) AcceptRequest(ctx context.Context, targetID, senderID string) error {
	args := m.Called(ctx, targetID, senderID)
	return args.Error(0)
}

func (m *FriendRepositoryMock) DeleteRequest(ctx context.Context, targetID, senderID string) error {
	args := m.Called(ctx, targetID, senderID)
	return args.Error(0)
}

// StoreMock mocks storage.Store.
type StoreMock struct {
	mock.Mock
}

func (m *StoreMock) Incr(ctx context.Context, viewer, counterparty string) error {
	args := m.Called(ctx, viewer, counterparty)
	return args.Error(0)
}

func (m *StoreMock) Decr(ctx context.Context, viewer, counterparty string) error {
	args := m.Called(ctx, viewer, counterparty)
	return args.Error(0)
}

func (m *StoreMock) Reset(ctx context.Context, viewer, counterparty string) error {
	args := m.Called(ctx, viewer, counterparty)
	return args.Error(0)
}

func (m *StoreMock) Counts(ctx context.Context, viewer string) (map[string]int, bool, error) {
	args := m.Called(ctx, viewer)
	counts, _ := args.Get(0).(map[string]int)
	return counts, args.Bool(1), args.Error(2)
}

func (m *StoreMock) Replace(ctx context.Context, viewer string, counts map[string]int) error {
	args := m.Called(ctx, viewer, counts)
	return args.Error(0)
}

func (m *StoreMock) GetUser(ctx context.Context, uid string) (models.UserSummary, bool, error) {
	args := m.Called(ctx, uid)
	return args.Get(0).(models.UserSummary), args.Bool(1), args.Error(2)
}

func (m *StoreMock) PutUsers(ctx context.Context, users ...models.UserSummary) error {
	args := m.Called(ctx, users)
	return args.Error(0)
}

func (m *StoreMock) InvalidateUser(ctx context.Context, uid string) error {
	args := m.Called(ctx, uid)
	return args.Error(0)
}

func (m *StoreMock) Close() error {
	args := m.Called()
	return args.Error(0)
}

// MediaStoreMock mocks media.Store.
type MediaStoreMock struct {
	mock.Mock
}

func (m *MediaStoreMock) Upload(ctx context.Context, r io.Reader, opts media.UploadOptions) (string, error) {
	args := m.Called(ctx, r, opts)
	return args.String(0), args.Error(1)
}

func (m *MediaStoreMock) Destroy(ctx context.Context, publicID, resourceType string) error {
	args := m.Called(ctx, publicID, resourceType)
	return args.Error(0)
}

// BackendMock mocks backend.Service.
type BackendMock struct {
	mock.Mock
}

func (m *BackendMock) Notify(ctx context.Context, n backend.PushNotification) error {
	args := m.Called(ctx, n)
	return args.Error(0)
}

func (m *BackendMock) AnalyzeImage(ctx context.Context, filename string, image io.Reader) (backend.AnalysisResult, error) {
	args := m.Called(ctx, filename, image)
	return args.Get(0).(backend.AnalysisResult), args.Error(1)
}

func (m *BackendMock) Speak(ctx context.Context, text string) ([]byte, string, error) {
	args := m.Called(ctx, text)
	audio, _ := args.Get(0).([]byte)
	return audio, args.String(1), args.Error(2)
}

var (
	_ repositories.MessageRepository = (*MessageRepositoryMock)(nil)
	_ repositories.UserRepository    = (*UserRepositoryMock)(nil)
	_ repositories.FriendRepository  = (*FriendRepositoryMock)(nil)
	_ storage.Store                  = (*StoreMock)(nil)
	_ media.Store                    = (*MediaStoreMock)(nil)
	_ backend.Service                = (*BackendMock)(nil)
)
