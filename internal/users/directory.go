// Package users resolves display names and photos through the roster cache.
package users

import (
	"context"

	"go.uber.org/zap"

	"vio-chat-service/internal/logger"
	"vio-chat-service/internal/models"
	"vio-chat-service/internal/repositories"
	"vio-chat-service/internal/storage"
)

// Directory reads users from the cache and falls back to the repository on a miss.
// Cache failures are logged and treated as misses.
type Directory struct {
	repo  repositories.UserRepository
	cache storage.UserCache
}

// NewDirectory constructs a Directory.
func NewDirectory(repo repositories.UserRepository, cache storage.UserCache) *Directory {
	return &Directory{repo: repo, cache: cache}
}

// Summaries returns the summaries of the given uids. Unknown uids are absent from the result.
func (d *Directory) Summaries(ctx context.Context, uids []string) (map[string]models.UserSummary, error) {
	out := make(map[string]models.UserSummary, len(uids))
	var missing []string
	seen := make(map[string]bool, len(uids))
	for _, uid := range uids {
		if uid == "" || seen[uid] {
			continue
		}
		seen[uid] = true
		summary, ok, err := d.cache.GetUser(ctx, uid)
		if err != nil {
			logger.Warn("user cache read failed", zap.String("uid", uid), zap.Error(err))
		}
		if ok {
			out[uid] = summary
			continue
		}
		missing = append(missing, uid)
	}
	if len(missing) == 0 {
		return out, nil
	}

	found, err := d.repo.BulkUsers(ctx, missing)
	if err != nil {
		return nil, err
	}
	fresh := make([]models.UserSummary, 0, len(found))
	for _, u := range found {
		s := u.Summary()
		out[u.UID] = s
		fresh = append(fresh, s)
	}
	if err := d.cache.PutUsers(ctx, fresh...); err != nil {
		logger.Warn("user cache write failed", zap.Error(err))
	}
	return out, nil
}

// Summary resolves a single uid. ok is false when the user does not exist.
func (d *Directory) Summary(ctx context.Context, uid string) (models.UserSummary, bool, error) {
	all, err := d.Summaries(ctx, []string{uid})
	if err != nil {
		return models.UserSummary{}, false, err
	}
	s, ok := all[uid]
	return s, ok, nil
}

// Remember stores a freshly written profile.
func (d *Directory) Remember(ctx context.Context, users ...models.User) {
	if len(users) == 0 {
		return
	}
	summaries := make([]models.UserSummary, 0, len(users))
	for _, u := range users {
		summaries = append(summaries, u.Summary())
	}
	if err := d.cache.PutUsers(ctx, summaries...); err != nil {
		logger.Warn("user cache write failed", zap.Error(err))
	}
}

// Forget drops a cached profile.
func (d *Directory) Forget(ctx context.Context, uid string) {
	if err := d.cache.InvalidateUser(ctx, uid); err != nil {
		logger.Warn("user cache invalidate failed", zap.String("uid", uid), zap.Error(err))
	}
}
