package store

import (
	"database/sql"
	"time"

	"github.com/driftchat/driftchat/pkg/errs"
	"github.com/driftchat/driftchat/pkg/models"
)

// CreateUser inserts a new user row. A phone or email already present fails
// with a duplicate error and creates no row. At least one of phone or email
// must be set so the user stays reachable via FindUserByLogin.
func (s *Store) CreateUser(user *models.User) error {
	s.logger.Info("Creating user", "name", user.Name)

	if user.Phone == nil && user.Email == nil {
		return errs.Validation("phone or email required")
	}

	query := `
		INSERT INTO users (phone, email, name, password_hash, last_seen, created_at)
		VALUES ($1, $2, $3, $4, NOW(), NOW())
		RETURNING id, last_seen, created_at`

	err := s.DB.QueryRow(
		query,
		user.Phone, user.Email, user.Name, user.PasswordHash,
	).Scan(&user.ID, &user.LastSeen, &user.CreatedAt)

	if err != nil {
		s.logger.Error("Failed to create user", "error", err, "name", user.Name)
		return classify(err, "user not found")
	}

	s.logger.Info("User created successfully", "user_id", user.ID, "name", user.Name)
	return nil
}

func (s *Store) GetUserByID(userID int64) (*models.User, error) {
	s.logger.Debug("Getting user by ID", "user_id", userID)

	query := `
		SELECT id, phone, email, name, password_hash, avatar_path, last_seen, created_at
		FROM users WHERE id = $1`

	user := &models.User{}
	err := s.DB.QueryRow(query, userID).Scan(
		&user.ID, &user.Phone, &user.Email, &user.Name,
		&user.PasswordHash, &user.AvatarPath, &user.LastSeen, &user.CreatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, errs.NotFound("user not found")
	}
	if err != nil {
		s.logger.Error("Failed to get user by ID", "error", err, "user_id", userID)
		return nil, classify(err, "user not found")
	}

	return user, nil
}

// FindUserByLogin resolves a login identifier against both the phone and the
// email column.
func (s *Store) FindUserByLogin(login string) (*models.User, error) {
	s.logger.Debug("Finding user by login", "login", login)

	query := `
		SELECT id, phone, email, name, password_hash, avatar_path, last_seen, created_at
		FROM users WHERE phone = $1 OR email = $1`

	user := &models.User{}
	err := s.DB.QueryRow(query, login).Scan(
		&user.ID, &user.Phone, &user.Email, &user.Name,
		&user.PasswordHash, &user.AvatarPath, &user.LastSeen, &user.CreatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, errs.NotFound("user not found")
	}
	if err != nil {
		s.logger.Error("Failed to find user by login", "error", err, "login", login)
		return nil, classify(err, "user not found")
	}

	s.logger.Debug("User found by login", "user_id", user.ID)
	return user, nil
}

func (s *Store) UserExists(userID int64) (bool, error) {
	var count int
	err := s.DB.QueryRow(`SELECT COUNT(*) FROM users WHERE id = $1`, userID).Scan(&count)
	if err != nil {
		s.logger.Error("Failed to check user existence", "error", err, "user_id", userID)
		return false, classify(err, "user not found")
	}
	return count > 0, nil
}

func (s *Store) SearchUsersByName(queryStr string, limit int) ([]models.User, error) {
	s.logger.Debug("Searching users", "query", queryStr, "limit", limit)

	query := `
		SELECT id, phone, email, name, avatar_path, last_seen, created_at
		FROM users
		WHERE name ILIKE $1
		ORDER BY name
		LIMIT $2`

	rows, err := s.DB.Query(query, "%"+queryStr+"%", limit)
	if err != nil {
		s.logger.Error("Failed to search users", "error", err, "query", queryStr)
		return nil, classify(err, "user not found")
	}
	defer rows.Close()

	var users []models.User
	for rows.Next() {
		var user models.User
		err := rows.Scan(
			&user.ID, &user.Phone, &user.Email, &user.Name,
			&user.AvatarPath, &user.LastSeen, &user.CreatedAt,
		)
		if err != nil {
			s.logger.Error("Failed to scan user row", "error", err)
			return nil, classify(err, "user not found")
		}
		users = append(users, user)
	}

	s.logger.Debug("User search completed", "query", queryStr, "results", len(users))
	return users, rows.Err()
}

func (s *Store) UpdateUserLastSeen(userID int64, lastSeen time.Time) error {
	query := `UPDATE users SET last_seen = $1 WHERE id = $2`
	_, err := s.DB.Exec(query, lastSeen, userID)
	if err != nil {
		s.logger.Error("Failed to update user last seen", "error", err, "user_id", userID)
		return classify(err, "user not found")
	}
	return nil
}
