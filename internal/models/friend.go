package models

import "time"

// FriendStatus is the relation between two users as seen by one of them.
type FriendStatus string

const (
	FriendStatusNone    FriendStatus = "none"
	FriendStatusPending FriendStatus = "pending"
	FriendStatusFriends FriendStatus = "friends"
)

// FriendRequest mirrors friend_requests/{targetId}/{senderId}.
type FriendRequest struct {
	TargetID  string    `db:"target_id" json:"target_id"`
	SenderID  string    `db:"sender_id" json:"sender_id"`
	Status    string    `db:"status" json:"status"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// FriendEdge mirrors friends/{ownerId}/{otherId} = true.
type FriendEdge struct {
	OwnerID   string    `db:"owner_id" json:"owner_id"`
	OtherID   string    `db:"other_id" json:"other_id"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
