package models

import (
	"time"
)

type FriendStatus string

const (
	FriendStatusPending  FriendStatus = "pending"
	FriendStatusAccepted FriendStatus = "accepted"
)

// FriendRequest is a directed edge: (RequesterID, TargetID) is unique as an
// ordered pair, so B->A is independent of A->B. Accepting never creates a
// reverse edge; friend listings read both directions instead.
type FriendRequest struct {
	ID          int64        `json:"id" db:"id"`
	RequesterID int64        `json:"requester_id" db:"requester_id"`
	TargetID    int64        `json:"target_id" db:"target_id"`
	Status      FriendStatus `json:"status" db:"status"`
	CreatedAt   time.Time    `json:"created_at" db:"created_at"`
}

type CreateFriendRequestInput struct {
	ToUserID int64 `json:"to_user_id"`
}
