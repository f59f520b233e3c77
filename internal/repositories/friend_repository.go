package repositories

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"vio-chat-service/internal/models"
)

var ErrRequestNotFound = errors.New("friend request not found")

// FriendRepository abstracts friends/{ownerId}/{otherId} and friend_requests/{targetId}/{senderId}.
type FriendRepository interface {
	HasEdge(ctx context.Context, ownerID, otherID string) (bool, error)
	AddEdge(ctx context.Context, ownerID, otherID string) error
	ListFriendIDs(ctx context.Context, userID string) ([]string, error)
	CreateRequest(ctx context.Context, targetID, senderID string) error
	GetRequest(ctx context.Context, targetID, senderID string) (models.FriendRequest, error)
	ListRequests(ctx context.Context, targetID string) ([]models.FriendRequest, error)
	AcceptRequest(ctx context.Context, targetID, senderID string) error
	DeleteRequest(ctx context.Context, targetID, senderID string) error
}

// FriendRepo is a sqlx implementation of FriendRepository.
type FriendRepo struct {
	db *sqlx.DB
}

// NewFriendRepo constructs a FriendRepo.
func NewFriendRepo(db *sqlx.DB) *FriendRepo {
	return &FriendRepo{db: db}
}

// HasEdge reports whether friends/{ownerID}/{otherID} exists.
func (r *FriendRepo) HasEdge(ctx context.Context, ownerID, otherID string) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists, `SELECT EXISTS(SELECT 1 FROM friends WHERE owner_id=$1 AND other_id=$2)`, ownerID, otherID)
	return exists, errors.Wrap(err, "friendRepo.HasEdge")
}

// AddEdge writes friends/{ownerID}/{otherID}; writing an existing edge is a no-op.
func (r *FriendRepo) AddEdge(ctx context.Context, ownerID, otherID string) error {
	_, err := r.db.ExecContext(ctx, `INSERT INTO friends (owner_id, other_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`, ownerID, otherID)
	return errors.Wrap(err, "friendRepo.AddEdge")
}

// ListFriendIDs returns the users linked to userID by an edge in either direction.
func (r *FriendRepo) ListFriendIDs(ctx context.Context, userID string) ([]string, error) {
	var ids []string
	err := r.db.SelectContext(ctx, &ids, `SELECT other_id FROM friends WHERE owner_id=$1
        UNION
        SELECT owner_id FROM friends WHERE other_id=$1`, userID)
	return ids, errors.Wrap(err, "friendRepo.ListFriendIDs")
}

// CreateRequest writes a pending request from senderID to targetID.
func (r *FriendRepo) CreateRequest(ctx context.Context, targetID, senderID string) error {
	_, err := r.db.ExecContext(ctx, `INSERT INTO friend_requests (target_id, sender_id, status) VALUES ($1, $2, 'pending')
        ON CONFLICT (target_id, sender_id) DO NOTHING`, targetID, senderID)
	return errors.Wrap(err, "friendRepo.CreateRequest")
}

// GetRequest fetches a single request.
func (r *FriendRepo) GetRequest(ctx context.Context, targetID, senderID string) (models.FriendRequest, error) {
	var req models.FriendRequest
	err := r.db.GetContext(ctx, &req, `SELECT target_id, sender_id, status, created_at FROM friend_requests WHERE target_id=$1 AND sender_id=$2`, targetID, senderID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.FriendRequest{}, ErrRequestNotFound
	}
	return req, errors.Wrap(err, "friendRepo.GetRequest")
}

// ListRequests returns the requests addressed to targetID, oldest first.
func (r *FriendRepo) ListRequests(ctx context.Context, targetID string) ([]models.FriendRequest, error) {
	var reqs []models.FriendRequest
	err := r.db.SelectContext(ctx, &reqs, `SELECT target_id, sender_id, status, created_at FROM friend_requests WHERE target_id=$1 ORDER BY created_at ASC`, targetID)
	return reqs, errors.Wrap(err, "friendRepo.ListRequests")
}

// AcceptRequest writes both edges and removes the request atomically.
func (r *FriendRepo) AcceptRequest(ctx context.Context, targetID, senderID string) (err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "friendRepo.AcceptRequest begin")
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	res, err := tx.ExecContext(ctx, `DELETE FROM friend_requests WHERE target_id=$1 AND sender_id=$2`, targetID, senderID)
	if err != nil {
		return errors.Wrap(err, "friendRepo.AcceptRequest delete")
	}
	count, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "friendRepo.AcceptRequest rows")
	}
	if count == 0 {
		return ErrRequestNotFound
	}

	for _, edge := range [][2]string{{targetID, senderID}, {senderID, targetID}} {
		if _, err = tx.ExecContext(ctx, `INSERT INTO friends (owner_id, other_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`, edge[0], edge[1]); err != nil {
			return errors.Wrap(err, "friendRepo.AcceptRequest edge")
		}
	}

	return errors.Wrap(tx.Commit(), "friendRepo.AcceptRequest commit")
}

// DeleteRequest removes a request without creating an edge.
func (r *FriendRepo) DeleteRequest(ctx context.Context, targetID, senderID string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM friend_requests WHERE target_id=$1 AND sender_id=$2`, targetID, senderID)
	if err != nil {
		return errors.Wrap(err, "friendRepo.DeleteRequest")
	}
	count, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "friendRepo.DeleteRequest rows")
	}
	if count == 0 {
		return ErrRequestNotFound
	}
	return nil
}
