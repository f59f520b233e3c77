// Package friends decides who may message whom and drives the friend request flow.
package friends

import (
	"context"

	"vio-chat-service/internal/repositories"
)

// Permitted reports whether two users may exchange messages given the edges
// friends/a/b (forward) and friends/b/a (backward).
func Permitted(forward, backward bool) bool {
	return forward || backward
}

// Gate answers messaging permission questions against the friend graph.
type Gate struct {
	repo repositories.FriendRepository
}

// NewGate constructs a Gate.
func NewGate(repo repositories.FriendRepository) *Gate {
	return &Gate{repo: repo}
}

// CanMessage is true iff an edge exists in either direction between a and b.
func (g *Gate) CanMessage(ctx context.Context, a, b string) (bool, error) {
	forward, err := g.repo.HasEdge(ctx, a, b)
	if err != nil {
		return false, err
	}
	if forward {
		return true, nil
	}
	backward, err := g.repo.HasEdge(ctx, b, a)
	if err != nil {
		return false, err
	}
	return Permitted(forward, backward), nil
}
