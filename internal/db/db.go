package db

import (
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"vio-chat-service/internal/logger"
)

// Connect initializes the database connection and runs migrations.
func Connect(dsn string) (*sqlx.DB, error) {
	db, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("connect db: %w", err)
	}

	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return db, nil
}

// Tables mirror the realtime tree: users/{uid}, chats/{roomId}/{messageId},
// friends/{ownerId}/{otherId} and friend_requests/{targetId}/{senderId}.
var migrations = []string{
	`CREATE TABLE IF NOT EXISTS users (
            uid TEXT PRIMARY KEY,
            name TEXT NOT NULL DEFAULT '',
            email TEXT NOT NULL DEFAULT '',
            photo TEXT,
            fcm_token TEXT,
            created_at TIMESTAMPTZ DEFAULT NOW()
        );`,
	`CREATE INDEX IF NOT EXISTS users_email_idx ON users (email);`,
	`CREATE TABLE IF NOT EXISTS messages (
            id TEXT PRIMARY KEY,
            room_id TEXT NOT NULL,
            seq BIGSERIAL,
            message TEXT NOT NULL DEFAULT '',
            sender_id TEXT NOT NULL,
            sender_name TEXT NOT NULL DEFAULT '',
            receiver_id TEXT NOT NULL,
            kordim BOOLEAN NOT NULL DEFAULT FALSE,
            type TEXT NOT NULL DEFAULT 'text',
            audio_url TEXT,
            audio_duration BIGINT,
            edited BOOLEAN NOT NULL DEFAULT FALSE,
            edited_at BIGINT,
            original_message TEXT,
            edit_history JSONB NOT NULL DEFAULT '{}'::jsonb,
            hidden_by JSONB NOT NULL DEFAULT '{}'::jsonb,
            created_at TIMESTAMPTZ DEFAULT NOW()
        );`,
	`CREATE INDEX IF NOT EXISTS messages_room_seq_idx ON messages (room_id, seq);`,
	`CREATE INDEX IF NOT EXISTS messages_receiver_idx ON messages (receiver_id);`,
	`CREATE TABLE IF NOT EXISTS friends (
            owner_id TEXT NOT NULL,
            other_id TEXT NOT NULL,
            created_at TIMESTAMPTZ DEFAULT NOW(),
            PRIMARY KEY(owner_id, other_id)
        );`,
	`CREATE TABLE IF NOT EXISTS friend_requests (
            target_id TEXT NOT NULL,
            sender_id TEXT NOT NULL,
            status TEXT NOT NULL DEFAULT 'pending',
            created_at TIMESTAMPTZ DEFAULT NOW(),
            PRIMARY KEY(target_id, sender_id)
        );`,
}

func runMigrations(db *sqlx.DB) error {
	for _, m := range migrations {
		if _, err := db.Exec(m); err != nil {
			return err
		}
	}
	logger.Info("database migrations applied")
	return nil
}
