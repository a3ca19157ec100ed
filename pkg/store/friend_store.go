package store

import (
	"database/sql"

	"github.com/driftchat/driftchat/pkg/errs"
	"github.com/driftchat/driftchat/pkg/models"
)

// CreateFriendRequest records a directed pending edge. The (requester, target)
// ordered pair is unique, so a repeat request fails with a duplicate error
// while a request in the opposite direction is independent and succeeds.
func (s *Store) CreateFriendRequest(requesterID, targetID int64) (*models.FriendRequest, error) {
	s.logger.Info("Creating friend request",
		"requester_id", requesterID, "target_id", targetID)

	req := &models.FriendRequest{
		RequesterID: requesterID,
		TargetID:    targetID,
		Status:      models.FriendStatusPending,
	}

	query := `
		INSERT INTO friend_requests (requester_id, target_id, status)
		VALUES ($1, $2, $3)
		RETURNING id, created_at`

	err := s.DB.QueryRow(query, req.RequesterID, req.TargetID, req.Status).
		Scan(&req.ID, &req.CreatedAt)

	if err != nil {
		s.logger.Warn("Failed to create friend request",
			"error", err, "requester_id", requesterID, "target_id", targetID)
		return nil, classify(err, "unknown requester or target")
	}

	s.logger.Info("Friend request created",
		"request_id", req.ID, "requester_id", requesterID, "target_id", targetID)
	return req, nil
}

// ListPendingRequests returns requests awaiting a decision by the target.
func (s *Store) ListPendingRequests(targetID int64) ([]models.FriendRequest, error) {
	s.logger.Debug("Listing pending friend requests", "target_id", targetID)

	query := `
		SELECT id, requester_id, target_id, status, created_at
		FROM friend_requests
		WHERE target_id = $1 AND status = 'pending'
		ORDER BY created_at ASC`

	rows, err := s.DB.Query(query, targetID)
	if err != nil {
		s.logger.Error("Failed to list pending requests", "error", err, "target_id", targetID)
		return nil, classify(err, "unknown target")
	}
	defer rows.Close()

	var requests []models.FriendRequest
	for rows.Next() {
		var req models.FriendRequest
		err := rows.Scan(&req.ID, &req.RequesterID, &req.TargetID, &req.Status, &req.CreatedAt)
		if err != nil {
			s.logger.Error("Failed to scan friend request row", "error", err)
			return nil, classify(err, "unknown target")
		}
		requests = append(requests, req)
	}

	return requests, rows.Err()
}

// AcceptFriendRequest flips a pending edge to accepted. Accepting an already
// accepted or nonexistent request is an idempotent no-op reporting success.
// No reverse edge is created; the stored relationship stays asymmetric.
func (s *Store) AcceptFriendRequest(requestID int64) error {
	s.logger.Info("Accepting friend request", "request_id", requestID)

	query := `UPDATE friend_requests SET status = 'accepted' WHERE id = $1 AND status = 'pending'`
	result, err := s.DB.Exec(query, requestID)
	if err != nil {
		s.logger.Error("Failed to accept friend request", "error", err, "request_id", requestID)
		return classify(err, "friend request not found")
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		s.logger.Debug("Friend request accept was a no-op", "request_id", requestID)
	}

	return nil
}

// GetFriendRequest looks up a single edge, used by the accept handler to
// check that the caller is the target before mutating.
func (s *Store) GetFriendRequest(requestID int64) (*models.FriendRequest, error) {
	query := `
		SELECT id, requester_id, target_id, status, created_at
		FROM friend_requests WHERE id = $1`

	req := &models.FriendRequest{}
	err := s.DB.QueryRow(query, requestID).
		Scan(&req.ID, &req.RequesterID, &req.TargetID, &req.Status, &req.CreatedAt)

	if err == sql.ErrNoRows {
		return nil, errs.NotFound("friend request not found")
	}
	if err != nil {
		s.logger.Error("Failed to get friend request", "error", err, "request_id", requestID)
		return nil, classify(err, "friend request not found")
	}

	return req, nil
}

// ListFriends returns users connected to userID by an accepted edge in either
// direction. Storage stays asymmetric; symmetry is synthesized at read time.
func (s *Store) ListFriends(userID int64) ([]models.User, error) {
	s.logger.Debug("Listing friends", "user_id", userID)

	query := `
		SELECT u.id, u.phone, u.email, u.name, u.avatar_path, u.last_seen, u.created_at
		FROM friend_requests f
		JOIN users u ON u.id = CASE WHEN f.requester_id = $1 THEN f.target_id ELSE f.requester_id END
		WHERE (f.requester_id = $1 OR f.target_id = $1) AND f.status = 'accepted'
		ORDER BY u.name`

	rows, err := s.DB.Query(query, userID)
	if err != nil {
		s.logger.Error("Failed to list friends", "error", err, "user_id", userID)
		return nil, classify(err, "unknown user")
	}
	defer rows.Close()

	var friends []models.User
	for rows.Next() {
		var user models.User
		err := rows.Scan(
			&user.ID, &user.Phone, &user.Email, &user.Name,
			&user.AvatarPath, &user.LastSeen, &user.CreatedAt,
		)
		if err != nil {
			s.logger.Error("Failed to scan friend row", "error", err)
			return nil, classify(err, "unknown user")
		}
		friends = append(friends, user)
	}

	return friends, rows.Err()
}
