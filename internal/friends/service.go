package friends

import (
	"context"
	"errors"
	"sort"

	"vio-chat-service/internal/models"
	"vio-chat-service/internal/repositories"
)

var (
	ErrInvalidArgument = errors.New("invalid friend request")
	ErrAlreadyFriends  = errors.New("users are already friends")
	ErrRequestPending  = errors.New("friend request already pending")
	ErrRequestNotFound = repositories.ErrRequestNotFound
)

// IncomingRequest is a pending request enriched with the sender's profile.
type IncomingRequest struct {
	models.FriendRequest
	Sender models.UserSummary `json:"sender"`
}

// Service implements the request state machine: none -> pending -> accepted | declined.
type Service struct {
	repo  repositories.FriendRepository
	users repositories.UserRepository
	gate  *Gate
}

// NewService constructs a Service.
func NewService(repo repositories.FriendRepository, users repositories.UserRepository) *Service {
	return &Service{repo: repo, users: users, gate: NewGate(repo)}
}

// Gate exposes the messaging gate backed by the same repository.
func (s *Service) Gate() *Gate {
	return s.gate
}

// SendRequest records friend_requests/{target}/{sender} = pending. When target
// already has a pending request to sender, that request is accepted instead and
// the result is FriendStatusFriends.
func (s *Service) SendRequest(ctx context.Context, senderID, targetID string) (models.FriendStatus, error) {
	if senderID == "" || targetID == "" || senderID == targetID {
		return models.FriendStatusNone, ErrInvalidArgument
	}
	if _, err := s.users.GetUser(ctx, targetID); err != nil {
		return models.FriendStatusNone, err
	}
	friends, err := s.gate.CanMessage(ctx, senderID, targetID)
	if err != nil {
		return models.FriendStatusNone, err
	}
	if friends {
		return models.FriendStatusFriends, ErrAlreadyFriends
	}
	outgoing, err := s.hasRequest(ctx, targetID, senderID)
	if err != nil {
		return models.FriendStatusNone, err
	}
	if outgoing {
		return models.FriendStatusPending, ErrRequestPending
	}
	incoming, err := s.hasRequest(ctx, senderID, targetID)
	if err != nil {
		return models.FriendStatusNone, err
	}
	if incoming {
		if err := s.repo.AcceptRequest(ctx, senderID, targetID); err != nil {
			return models.FriendStatusNone, err
		}
		return models.FriendStatusFriends, nil
	}
	if err := s.repo.CreateRequest(ctx, targetID, senderID); err != nil {
		return models.FriendStatusNone, err
	}
	return models.FriendStatusPending, nil
}

func (s *Service) hasRequest(ctx context.Context, targetID, senderID string) (bool, error) {
	_, err := s.repo.GetRequest(ctx, targetID, senderID)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, repositories.ErrRequestNotFound):
		return false, nil
	default:
		return false, err
	}
}

// Accept writes both edges and drops the request.
func (s *Service) Accept(ctx context.Context, targetID, senderID string) error {
	if targetID == "" || senderID == "" || targetID == senderID {
		return ErrInvalidArgument
	}
	return s.repo.AcceptRequest(ctx, targetID, senderID)
}

// Decline drops the request without creating an edge.
func (s *Service) Decline(ctx context.Context, targetID, senderID string) error {
	if targetID == "" || senderID == "" || targetID == senderID {
		return ErrInvalidArgument
	}
	return s.repo.DeleteRequest(ctx, targetID, senderID)
}

// Status is the relation between me and other as shown on other's profile.
// A request in either direction counts as pending.
func (s *Service) Status(ctx context.Context, me, other string) (models.FriendStatus, error) {
	if me == "" || other == "" || me == other {
		return models.FriendStatusNone, ErrInvalidArgument
	}
	friends, err := s.gate.CanMessage(ctx, me, other)
	if err != nil {
		return models.FriendStatusNone, err
	}
	if friends {
		return models.FriendStatusFriends, nil
	}
	for _, pair := range [][2]string{{other, me}, {me, other}} {
		pending, err := s.hasRequest(ctx, pair[0], pair[1])
		if err != nil {
			return models.FriendStatusNone, err
		}
		if pending {
			return models.FriendStatusPending, nil
		}
	}
	return models.FriendStatusNone, nil
}

// AddDirect writes friends/{owner}/{other} only, without a request.
func (s *Service) AddDirect(ctx context.Context, ownerID, otherID string) error {
	if ownerID == "" || otherID == "" || ownerID == otherID {
		return ErrInvalidArgument
	}
	if _, err := s.users.GetUser(ctx, otherID); err != nil {
		return err
	}
	return s.repo.AddEdge(ctx, ownerID, otherID)
}

// ListFriends returns users linked to uid by an edge in either direction, sorted by name.
func (s *Service) ListFriends(ctx context.Context, uid string) ([]models.User, error) {
	ids, err := s.repo.ListFriendIDs(ctx, uid)
	if err != nil {
		return nil, err
	}
	users, err := s.users.BulkUsers(ctx, ids)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(users, func(i, j int) bool { return users[i].Name < users[j].Name })
	return users, nil
}

// Incoming lists pending requests addressed to uid. Requests from deleted users are skipped.
func (s *Service) Incoming(ctx context.Context, uid string) ([]IncomingRequest, error) {
	reqs, err := s.repo.ListRequests(ctx, uid)
	if err != nil {
		return nil, err
	}
	if len(reqs) == 0 {
		return []IncomingRequest{}, nil
	}
	ids := make([]string, 0, len(reqs))
	for _, r := range reqs {
		ids = append(ids, r.SenderID)
	}
	users, err := s.users.BulkUsers(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]models.User, len(users))
	for _, u := range users {
		byID[u.UID] = u
	}
	out := make([]IncomingRequest, 0, len(reqs))
	for _, r := range reqs {
		sender, ok := byID[r.SenderID]
		if !ok {
			continue
		}
		out = append(out, IncomingRequest{FriendRequest: r, Sender: sender.Summary()})
	}
	return out, nil
}
