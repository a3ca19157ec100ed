package store

import (
	"github.com/driftchat/driftchat/pkg/models"
)

// InsertMessage persists a message with a server-assigned timestamp and
// returns the stored row. A dangling sender or receiver fails as not-found;
// message content is never unique, so insertion never reports a duplicate.
func (s *Store) InsertMessage(senderID, receiverID int64, text string) (*models.Message, error) {
	s.logger.Debug("Inserting message", "sender_id", senderID, "receiver_id", receiverID)

	msg := &models.Message{
		SenderID:   senderID,
		ReceiverID: receiverID,
		Text:       text,
		CreatedAt:  s.nextStamp(),
	}

	query := `
		INSERT INTO messages (sender_id, receiver_id, text, created_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id`

	err := s.DB.QueryRow(
		query,
		msg.SenderID, msg.ReceiverID, msg.Text, msg.CreatedAt,
	).Scan(&msg.ID)

	if err != nil {
		s.logger.Error("Failed to insert message",
			"error", err, "sender_id", senderID, "receiver_id", receiverID)
		return nil, classify(err, "unknown sender or receiver")
	}

	s.InvalidateConversationCache(senderID, receiverID)

	s.logger.Info("Message persisted",
		"message_id", msg.ID, "sender_id", senderID, "receiver_id", receiverID)
	return msg, nil
}

// ListMessages returns the full conversation between two users, both
// directions, ascending by creation time. Argument order does not matter:
// ListMessages(a, b) and ListMessages(b, a) return the same sequence.
func (s *Store) ListMessages(userA, userB int64) ([]models.Message, error) {
	s.logger.Debug("Listing messages", "user_a", userA, "user_b", userB)

	if cached, err := s.GetCachedConversation(userA, userB); err == nil && cached != nil {
		s.logger.Debug("Conversation served from cache",
			"user_a", userA, "user_b", userB, "message_count", len(cached))
		return cached, nil
	}

	query := `
		SELECT id, sender_id, receiver_id, text, created_at
		FROM messages
		WHERE (sender_id = $1 AND receiver_id = $2)
		   OR (sender_id = $2 AND receiver_id = $1)
		ORDER BY created_at ASC, id ASC`

	rows, err := s.DB.Query(query, userA, userB)
	if err != nil {
		s.logger.Error("Failed to query messages",
			"error", err, "user_a", userA, "user_b", userB)
		return nil, classify(err, "unknown sender or receiver")
	}
	defer rows.Close()

	var messages []models.Message
	for rows.Next() {
		var msg models.Message
		err := rows.Scan(&msg.ID, &msg.SenderID, &msg.ReceiverID, &msg.Text, &msg.CreatedAt)
		if err != nil {
			s.logger.Error("Failed to scan message row", "error", err)
			return nil, classify(err, "unknown sender or receiver")
		}
		messages = append(messages, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, classify(err, "unknown sender or receiver")
	}

	s.logger.Debug("Messages listed",
		"user_a", userA, "user_b", userB, "message_count", len(messages))

	go s.CacheConversation(userA, userB, messages)

	return messages, nil
}
