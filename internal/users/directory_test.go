package users

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"vio-chat-service/internal/mocks"
	"vio-chat-service/internal/models"
	"vio-chat-service/internal/storage/memory"
)

func TestSummariesUsesCacheThenRepo(t *testing.T) {
	ctx := context.Background()
	repo := new(mocks.UserRepositoryMock)
	cache := memory.New(time.Minute)
	require.NoError(t, cache.PutUsers(ctx, models.UserSummary{UID: "alice", Name: "Alice"}))

	repo.On("BulkUsers", mock.Anything, []string{"bob"}).Return([]models.User{{UID: "bob", Name: "Bob"}}, nil).Once()

	dir := NewDirectory(repo, cache)
	got, err := dir.Summaries(ctx, []string{"alice", "bob", "alice", ""})
	require.NoError(t, err)
	assert.Equal(t, "Alice", got["alice"].Name)
	assert.Equal(t, "Bob", got["bob"].Name)

	// bob is cached now
	got, err = dir.Summaries(ctx, []string{"bob"})
	require.NoError(t, err)
	assert.Equal(t, "Bob", got["bob"].Name)
	repo.AssertExpectations(t)
}

func TestSummaryUnknownUser(t *testing.T) {
	repo := new(mocks.UserRepositoryMock)
	repo.On("BulkUsers", mock.Anything, []string{"ghost"}).Return([]models.User{}, nil).Once()

	_, ok, err := NewDirectory(repo, memory.New(time.Minute)).Summary(context.Background(), "ghost")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCacheErrorFallsBackToRepo(t *testing.T) {
	repo := new(mocks.UserRepositoryMock)
	cache := new(mocks.StoreMock)
	cache.On("GetUser", mock.Anything, "alice").Return(models.UserSummary{}, false, assert.AnError).Once()
	cache.On("PutUsers", mock.Anything, mock.Anything).Return(assert.AnError).Once()
	repo.On("BulkUsers", mock.Anything, []string{"alice"}).Return([]models.User{{UID: "alice", Name: "Alice"}}, nil).Once()

	s, ok, err := NewDirectory(repo, cache).Summary(context.Background(), "alice")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "Alice", s.Name)
	cache.AssertExpectations(t)
}

func TestRememberAndForget(t *testing.T) {
	ctx := context.Background()
	cache := memory.New(time.Minute)
	dir := NewDirectory(new(mocks.UserRepositoryMock), cache)

	dir.Remember(ctx, models.User{UID: "alice", Name: "Alice"})
	_, ok, _ := cache.GetUser(ctx, "alice")
	assert.True(t, ok)

	dir.Forget(ctx, "alice")
	_, ok, _ = cache.GetUser(ctx, "alice")
	assert.False(t, ok)
}
