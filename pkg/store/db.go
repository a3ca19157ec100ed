package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/lib/pq"

	"github.com/driftchat/driftchat/pkg/errs"
)

// Store is the durable side of the service: users, messages and friend edges
// in Postgres, plus Redis for presence keys, conversation caching and the
// cross-instance sync channel.
type Store struct {
	DB     *sql.DB
	RDB    *redis.Client
	Ctx    context.Context
	logger *slog.Logger

	// Guards lastStamp. Message timestamps must be monotonically
	// non-decreasing per insertion so read-back order matches send order
	// as observed by the dispatcher, not wall-clock skew.
	clockMu   sync.Mutex
	lastStamp time.Time
}

func NewStore(ctx context.Context, pgConnStr, redisURL string, logger *slog.Logger) (*Store, error) {
	var db *sql.DB
	var err error

	logger.Info("Initializing store", "postgres_conn", pgConnStr[:min(len(pgConnStr), 50)], "redis_url", redisURL)

	// Retry Postgres connection 5 times
	for i := 0; i < 5; i++ {
		db, err = sql.Open("postgres", pgConnStr)
		if err == nil {
			err = db.Ping()
			if err == nil {
				logger.Info("PostgreSQL connection successful", "attempt", i+1)
				break
			}
		}
		logger.Warn("Waiting for PostgreSQL...", "attempt", i+1, "max_attempts", 5, "error", err)
		time.Sleep(2 * time.Second)
	}
	if err != nil {
		logger.Error("Failed to connect to PostgreSQL", "error", err)
		return nil, fmt.Errorf("failed to connect to PostgreSQL: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	rdb, err := InitRedis(redisURL, logger)
	if err != nil {
		return nil, err
	}

	if err := rdb.Ping(ctx).Err(); err != nil {
		logger.Error("Failed to ping Redis", "error", err)
		return nil, fmt.Errorf("failed to ping Redis: %w", err)
	}

	logger.Info("Successfully connected to PostgreSQL and Redis")

	return &Store{
		DB:     db,
		RDB:    rdb,
		Ctx:    ctx,
		logger: logger,
	}, nil
}

func (s *Store) InitSchema() error {
	s.logger.Info("Initializing database schema")

	schema := `
		-- Users table
		CREATE TABLE IF NOT EXISTS users (
			id BIGSERIAL PRIMARY KEY,
			phone VARCHAR(20) UNIQUE,
			email VARCHAR(255) UNIQUE,
			name VARCHAR(100) NOT NULL,
			password_hash TEXT NOT NULL,
			avatar_path TEXT,
			last_seen TIMESTAMPTZ DEFAULT CURRENT_TIMESTAMP,
			created_at TIMESTAMPTZ DEFAULT CURRENT_TIMESTAMP
		);

		CREATE INDEX IF NOT EXISTS idx_users_phone ON users(phone);
		CREATE INDEX IF NOT EXISTS idx_users_email ON users(email);
		CREATE INDEX IF NOT EXISTS idx_users_name ON users(name);

		-- Messages table: immutable, retained indefinitely
		CREATE TABLE IF NOT EXISTS messages (
			id BIGSERIAL PRIMARY KEY,
			sender_id BIGINT NOT NULL REFERENCES users(id),
			receiver_id BIGINT NOT NULL REFERENCES users(id),
			text TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_messages_pair_created
			ON messages(LEAST(sender_id, receiver_id), GREATEST(sender_id, receiver_id), created_at);

		-- Friend requests: unique per ordered pair, so B->A is independent of A->B
		CREATE TABLE IF NOT EXISTS friend_requests (
			id BIGSERIAL PRIMARY KEY,
			requester_id BIGINT NOT NULL REFERENCES users(id),
			target_id BIGINT NOT NULL REFERENCES users(id),
			status VARCHAR(10) NOT NULL DEFAULT 'pending' CHECK (status IN ('pending', 'accepted')),
			created_at TIMESTAMPTZ DEFAULT CURRENT_TIMESTAMP,
			UNIQUE (requester_id, target_id)
		);

		CREATE INDEX IF NOT EXISTS idx_friend_requests_target ON friend_requests(target_id, status);
	`

	_, err := s.DB.Exec(schema)
	if err != nil {
		s.logger.Error("Failed to initialize schema", "error", err)
		return err
	}

	s.logger.Info("Database schema initialized successfully")
	return nil
}

func (s *Store) Close() error {
	s.logger.Info("Closing store connections")

	var errList []error

	if err := s.DB.Close(); err != nil {
		s.logger.Error("Failed to close PostgreSQL connection", "error", err)
		errList = append(errList, fmt.Errorf("postgres close error: %w", err))
	}

	if err := s.RDB.Close(); err != nil {
		s.logger.Error("Failed to close Redis connection", "error", err)
		errList = append(errList, fmt.Errorf("redis close error: %w", err))
	}

	if len(errList) > 0 {
		return fmt.Errorf("errors closing store: %v", errList)
	}

	s.logger.Info("Store connections closed successfully")
	return nil
}

// nextStamp issues the server-assigned creation timestamp for a message.
// Never goes backwards, even if the wall clock does.
func (s *Store) nextStamp() time.Time {
	s.clockMu.Lock()
	defer s.clockMu.Unlock()

	now := time.Now().UTC()
	if !now.After(s.lastStamp) {
		now = s.lastStamp.Add(time.Microsecond)
	}
	s.lastStamp = now
	return now
}

// Postgres SQLSTATE codes used for error classification.
const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

// classify maps driver errors onto the service taxonomy at the store
// boundary. notFoundReason is used for FK violations, where a dangling
// reference means an unknown user rather than a malformed row.
func classify(err error, notFoundReason string) error {
	if err == nil {
		return nil
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch string(pqErr.Code) {
		case pgUniqueViolation:
			return errs.Duplicate(constraintReason(pqErr))
		case pgForeignKeyViolation:
			return errs.NotFound(notFoundReason)
		}
	}
	return errs.StoreUnavailable("store operation failed", err)
}

func constraintReason(pqErr *pq.Error) string {
	switch pqErr.Constraint {
	case "users_phone_key":
		return "phone already registered"
	case "users_email_key":
		return "email already registered"
	case "friend_requests_requester_id_target_id_key":
		return "friend request already exists"
	default:
		return "duplicate entry"
	}
}
