package repositories

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"vio-chat-service/internal/chat"
	"vio-chat-service/internal/models"
)

var ErrMessageNotFound = errors.New("message not found")

const messageColumns = `id, room_id, seq, message, sender_id, sender_name, receiver_id, kordim, type,
        audio_url, audio_duration, edited, edited_at, original_message, edit_history, hidden_by, created_at`

// MessageRepository defines interactions for chat messages.
type MessageRepository interface {
	CreateMessage(ctx context.Context, msg *models.Message) error
	ListRoomMessages(ctx context.Context, roomID string) ([]models.Message, error)
	ListMessagesForUser(ctx context.Context, userID string) (map[string][]models.Message, error)
	GetMessage(ctx context.Context, roomID, messageID string) (models.Message, error)
	EditMessage(ctx context.Context, roomID, messageID, editorID, text string, now time.Time) (models.Message, error)
	HideMessage(ctx context.Context, roomID, messageID, userID string) (models.Message, bool, error)
	DeleteMessage(ctx context.Context, roomID, messageID string) (models.Message, error)
	MarkSeen(ctx context.Context, roomID, viewerID string) (int64, error)
}

// MessageRepo is a sqlx-backed repository.
type MessageRepo struct {
	db *sqlx.DB
}

// NewMessageRepo constructs MessageRepo.
func NewMessageRepo(db *sqlx.DB) *MessageRepo {
	return &MessageRepo{db: db}
}

// NewMessageID returns a time-ordered message id.
func NewMessageID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

// CreateMessage appends msg to its room. Seq and CreatedAt are filled from the insert.
func (r *MessageRepo) CreateMessage(ctx context.Context, msg *models.Message) error {
	if msg.ID == "" {
		msg.ID = NewMessageID()
	}
	if msg.Type == "" {
		msg.Type = models.MessageTypeText
	}
	err := r.db.QueryRowxContext(ctx, `INSERT INTO messages (id, room_id, message, sender_id, sender_name, receiver_id, kordim, type, audio_url, audio_duration)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10) RETURNING seq, created_at`,
		msg.ID, msg.RoomID, msg.Text, msg.SenderID, msg.SenderName, msg.ReceiverID, msg.Seen, msg.Type, msg.AudioURL, msg.AudioDuration).
		Scan(&msg.Seq, &msg.CreatedAt)
	return errors.Wrap(err, "msgRepo.CreateMessage")
}

// ListRoomMessages returns every message of a room in insertion order.
func (r *MessageRepo) ListRoomMessages(ctx context.Context, roomID string) ([]models.Message, error) {
	var msgs []models.Message
	err := r.db.SelectContext(ctx, &msgs, `SELECT `+messageColumns+` FROM messages WHERE room_id=$1 ORDER BY seq ASC`, roomID)
	if err != nil {
		return nil, errors.Wrap(err, "msgRepo.ListRoomMessages")
	}
	return msgs, nil
}

// ListMessagesForUser returns the messages of every room the user takes part in, grouped by room.
func (r *MessageRepo) ListMessagesForUser(ctx context.Context, userID string) (map[string][]models.Message, error) {
	rows, err := r.db.QueryxContext(ctx, `SELECT `+messageColumns+` FROM messages
        WHERE sender_id=$1 OR receiver_id=$1
        ORDER BY seq ASC`, userID)
	if err != nil {
		return nil, errors.Wrap(err, "msgRepo.ListMessagesForUser")
	}
	defer rows.Close()

	rooms := map[string][]models.Message{}
	for rows.Next() {
		var msg models.Message
		if err := rows.StructScan(&msg); err != nil {
			// one bad row must not hide the rest of the rooms
			continue
		}
		rooms[msg.RoomID] = append(rooms[msg.RoomID], msg)
	}
	return rooms, errors.Wrap(rows.Err(), "msgRepo.ListMessagesForUser rows")
}

// GetMessage retrieves a single message of a room.
func (r *MessageRepo) GetMessage(ctx context.Context, roomID, messageID string) (models.Message, error) {
	var msg models.Message
	err := r.db.GetContext(ctx, &msg, `SELECT `+messageColumns+` FROM messages WHERE room_id=$1 AND id=$2`, roomID, messageID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Message{}, ErrMessageNotFound
	}
	return msg, errors.Wrap(err, "msgRepo.GetMessage")
}

// EditMessage replaces the text of a message and records the previous text in its history.
func (r *MessageRepo) EditMessage(ctx context.Context, roomID, messageID, editorID, text string, now time.Time) (models.Message, error) {
	var edited models.Message
	err := r.withLockedMessage(ctx, roomID, messageID, func(tx *sqlx.Tx, msg *models.Message) error {
		if err := chat.ApplyEdit(msg, editorID, text, now); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx, `UPDATE messages SET message=$1, edited=$2, edited_at=$3, original_message=$4, edit_history=$5
            WHERE id=$6`, msg.Text, msg.Edited, msg.EditedAt, msg.OriginalMessage, msg.EditHistory, msg.ID)
		if err != nil {
			return errors.Wrap(err, "msgRepo.EditMessage update")
		}
		edited = *msg
		return nil
	})
	return edited, err
}

// HideMessage hides a message for one participant. Once both participants have hidden
// it the row is deleted and removed is true.
func (r *MessageRepo) HideMessage(ctx context.Context, roomID, messageID, userID string) (models.Message, bool, error) {
	var (
		hidden  models.Message
		removed bool
	)
	err := r.withLockedMessage(ctx, roomID, messageID, func(tx *sqlx.Tx, msg *models.Message) error {
		converged, err := chat.Hide(msg, userID)
		if err != nil {
			return err
		}
		hidden = *msg
		if converged {
			removed = true
			_, err = tx.ExecContext(ctx, `DELETE FROM messages WHERE id=$1`, msg.ID)
			return errors.Wrap(err, "msgRepo.HideMessage delete")
		}
		_, err = tx.ExecContext(ctx, `UPDATE messages SET hidden_by=$1 WHERE id=$2`, msg.HiddenBy, msg.ID)
		return errors.Wrap(err, "msgRepo.HideMessage update")
	})
	return hidden, removed, err
}

// DeleteMessage removes a message for both participants and returns the removed row.
func (r *MessageRepo) DeleteMessage(ctx context.Context, roomID, messageID string) (models.Message, error) {
	var msg models.Message
	err := r.db.GetContext(ctx, &msg, `DELETE FROM messages WHERE room_id=$1 AND id=$2 RETURNING `+messageColumns, roomID, messageID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Message{}, ErrMessageNotFound
	}
	return msg, errors.Wrap(err, "msgRepo.DeleteMessage")
}

// MarkSeen flags every unseen message addressed to viewerID in the room.
func (r *MessageRepo) MarkSeen(ctx context.Context, roomID, viewerID string) (int64, error) {
	res, err := r.db.ExecContext(ctx, `UPDATE messages SET kordim = TRUE WHERE room_id=$1 AND receiver_id=$2 AND kordim = FALSE`, roomID, viewerID)
	if err != nil {
		return 0, errors.Wrap(err, "msgRepo.MarkSeen")
	}
	count, err := res.RowsAffected()
	return count, errors.Wrap(err, "msgRepo.MarkSeen rows")
}

func (r *MessageRepo) withLockedMessage(ctx context.Context, roomID, messageID string, fn func(tx *sqlx.Tx, msg *models.Message) error) (err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "msgRepo begin")
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	var msg models.Message
	err = tx.GetContext(ctx, &msg, `SELECT `+messageColumns+` FROM messages WHERE room_id=$1 AND id=$2 FOR UPDATE`, roomID, messageID)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrMessageNotFound
	}
	if err != nil {
		return errors.Wrap(err, "msgRepo lock")
	}

	if err = fn(tx, &msg); err != nil {
		return err
	}
	return errors.Wrap(tx.Commit(), "msgRepo commit")
}
