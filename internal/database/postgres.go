package database

import (
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/manish14071/rca-app/internal/models"
)

const userColumns = `id, COALESCE(username, ''), email, COALESCE(password_hash, ''),
	COALESCE(external_id, ''), online, email_verified,
	verification_token, verification_expiry,
	COALESCE(avatar_url, ''), COALESCE(status, ''), COALESCE(status_emoji, ''),
	has_story, created_at, last_seen`

const messageColumns = `id, sender_id, receiver_id, content, COALESCE(media_url, ''),
	created_at, updated_at, is_read, deleted`

type PostgresDB struct {
	*sql.DB

	// EditWindow bounds how long after creation a message may be
	// edited by its sender.
	EditWindow time.Duration
}

func NewPostgresDB(connStr string) (*PostgresDB, error) {
	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, err
	}

	if err := db.Ping(); err != nil {
		return nil, err
	}

	return &PostgresDB{DB: db, EditWindow: 15 * time.Minute}, nil
}

func scanUser(row interface{ Scan(...interface{}) error }) (*models.User, error) {
	user := &models.User{}
	err := row.Scan(
		&user.ID, &user.Username, &user.Email, &user.PasswordHash,
		&user.ExternalID, &user.Online, &user.EmailVerified,
		&user.VerificationToken, &user.VerificationExpiry,
		&user.AvatarURL, &user.Status, &user.StatusEmoji,
		&user.HasStory, &user.CreatedAt, &user.LastSeen,
	)
	if err == sql.ErrNoRows {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}

func scanMessage(row interface{ Scan(...interface{}) error }) (*models.Message, error) {
	msg := &models.Message{}
	err := row.Scan(
		&msg.ID, &msg.SenderID, &msg.ReceiverID, &msg.Content, &msg.MediaURL,
		&msg.CreatedAt, &msg.UpdatedAt, &msg.IsRead, &msg.Deleted,
	)
	if err == sql.ErrNoRows {
		return nil, ErrMessageNotFound
	}
	if err != nil {
		return nil, err
	}
	return msg, nil
}

// isUniqueViolation reports whether err is a Postgres unique_violation.
// The pre-insert existence checks are only a fast path; under
// concurrent registration the unique index is the real arbiter.
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}

// displayName resolves the username fallback once, at creation time.
func displayName(username, email string) string {
	if username != "" {
		return username
	}
	if at := strings.Index(email, "@"); at > 0 {
		return email[:at]
	}
	return email
}

func (db *PostgresDB) CreateUser(username, email, passwordHash string) (*models.User, error) {
	var count int
	err := db.QueryRow("SELECT COUNT(*) FROM users WHERE email = $1", email).Scan(&count)
	if err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, ErrUserAlreadyExists
	}

	now := time.Now().UTC()
	user := &models.User{
		ID:           uuid.New(),
		Username:     displayName(username, email),
		Email:        email,
		PasswordHash: passwordHash,
		CreatedAt:    now,
		LastSeen:     now,
	}

	_, err = db.Exec(
		`INSERT INTO users (id, username, email, password_hash, online, email_verified, has_story, created_at, last_seen)
		 VALUES ($1, $2, $3, $4, FALSE, FALSE, FALSE, $5, $6)`,
		user.ID, user.Username, user.Email, user.PasswordHash, user.CreatedAt, user.LastSeen,
	)
	if isUniqueViolation(err) {
		return nil, ErrUserAlreadyExists
	}
	if err != nil {
		return nil, err
	}

	return user, nil
}

// CreateExternalUser creates an account backed by an identity provider.
// No password is stored; the external subject is the credential.
func (db *PostgresDB) CreateExternalUser(username, email, externalID, avatarURL string) (*models.User, error) {
	var count int
	err := db.QueryRow("SELECT COUNT(*) FROM users WHERE email = $1 OR external_id = $2",
		email, externalID).Scan(&count)
	if err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, ErrUserAlreadyExists
	}

	now := time.Now().UTC()
	user := &models.User{
		ID:            uuid.New(),
		Username:      displayName(username, email),
		Email:         email,
		ExternalID:    externalID,
		EmailVerified: true, // provider already verified the address
		AvatarURL:     avatarURL,
		CreatedAt:     now,
		LastSeen:      now,
	}

	_, err = db.Exec(
		`INSERT INTO users (id, username, email, external_id, online, email_verified, avatar_url, has_story, created_at, last_seen)
		 VALUES ($1, $2, $3, $4, FALSE, TRUE, $5, FALSE, $6, $7)`,
		user.ID, user.Username, user.Email, user.ExternalID, user.AvatarURL, user.CreatedAt, user.LastSeen,
	)
	if isUniqueViolation(err) {
		return nil, ErrUserAlreadyExists
	}
	if err != nil {
		return nil, err
	}

	return user, nil
}

func (db *PostgresDB) GetUserByEmail(email string) (*models.User, error) {
	return scanUser(db.QueryRow(
		"SELECT "+userColumns+" FROM users WHERE email = $1", email))
}

func (db *PostgresDB) GetUserByID(id uuid.UUID) (*models.User, error) {
	return scanUser(db.QueryRow(
		"SELECT "+userColumns+" FROM users WHERE id = $1", id))
}

func (db *PostgresDB) GetUserByExternalID(externalID string) (*models.User, error) {
	return scanUser(db.QueryRow(
		"SELECT "+userColumns+" FROM users WHERE external_id = $1", externalID))
}

func (db *PostgresDB) GetAllUsers(excludeUserID uuid.UUID) ([]*models.User, error) {
	rows, err := db.Query(
		"SELECT "+userColumns+" FROM users WHERE id != $1 ORDER BY username", excludeUserID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []*models.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, rows.Err()
}

func (db *PostgresDB) UpdateProfile(userID uuid.UUID, update *models.ProfileUpdate) (*models.User, error) {
	user, err := db.GetUserByID(userID)
	if err != nil {
		return nil, err
	}

	if update.Username != nil {
		user.Username = *update.Username
	}
	if update.AvatarURL != nil {
		user.AvatarURL = *update.AvatarURL
	}
	if update.Status != nil {
		user.Status = *update.Status
	}
	if update.StatusEmoji != nil {
		user.StatusEmoji = *update.StatusEmoji
	}
	if update.HasStory != nil {
		user.HasStory = *update.HasStory
	}

	_, err = db.Exec(
		`UPDATE users SET username = $1, avatar_url = $2, status = $3, status_emoji = $4, has_story = $5
		 WHERE id = $6`,
		user.Username, user.AvatarURL, user.Status, user.StatusEmoji, user.HasStory, user.ID,
	)
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (db *PostgresDB) UpdateLastSeen(userID uuid.UUID) error {
	result, err := db.Exec("UPDATE users SET last_seen = $1 WHERE id = $2",
		time.Now().UTC(), userID)
	if err != nil {
		return err
	}
	return oneRowOr(result, ErrUserNotFound)
}

// SetOnline flips the persisted presence flag. Going offline also
// stamps last_seen, since that is the moment the user was last
// reachable.
func (db *PostgresDB) SetOnline(userID uuid.UUID, online bool) error {
	result, err := db.Exec(
		`UPDATE users SET online = $1,
		        last_seen = CASE WHEN $1 THEN last_seen ELSE NOW() END
		 WHERE id = $2`,
		online, userID,
	)
	if err != nil {
		return err
	}
	return oneRowOr(result, ErrUserNotFound)
}

// ResetAllOnline clears every online flag. Run at startup: the registry
// is rebuilt from zero, so any persisted online=true row is stale.
func (db *PostgresDB) ResetAllOnline() error {
	_, err := db.Exec("UPDATE users SET online = FALSE WHERE online = TRUE")
	return err
}

func (db *PostgresDB) SetVerificationToken(userID uuid.UUID, token string, expiry time.Time) error {
	result, err := db.Exec(
		"UPDATE users SET verification_token = $1, verification_expiry = $2 WHERE id = $3",
		token, expiry, userID,
	)
	if err != nil {
		return err
	}
	return oneRowOr(result, ErrUserNotFound)
}

func (db *PostgresDB) VerifyEmail(token string) (*models.User, error) {
	user, err := scanUser(db.QueryRow(
		"SELECT "+userColumns+" FROM users WHERE verification_token = $1", token))
	if err != nil {
		return nil, err
	}

	if user.VerificationExpiry != nil && user.VerificationExpiry.Before(time.Now()) {
		return nil, ErrVerificationExpired
	}

	// Token and expiry are a pair: set together, cleared together.
	_, err = db.Exec(
		`UPDATE users SET email_verified = TRUE, verification_token = NULL, verification_expiry = NULL
		 WHERE id = $1`, user.ID)
	if err != nil {
		return nil, err
	}

	user.EmailVerified = true
	user.VerificationToken = nil
	user.VerificationExpiry = nil
	return user, nil
}

func (db *PostgresDB) CreateMessage(senderID, receiverID uuid.UUID, content, mediaURL string) (*models.Message, error) {
	if senderID == receiverID {
		return nil, ErrSelfMessage
	}
	if content == "" && mediaURL == "" {
		return nil, ErrEmptyMessage
	}

	if _, err := db.GetUserByID(senderID); err != nil {
		return nil, err
	}
	if _, err := db.GetUserByID(receiverID); err != nil {
		return nil, err
	}

	message := &models.Message{
		ID:         uuid.New(),
		SenderID:   senderID,
		ReceiverID: receiverID,
		Content:    content,
		MediaURL:   mediaURL,
		CreatedAt:  time.Now().UTC(),
	}

	_, err := db.Exec(
		`INSERT INTO messages (id, sender_id, receiver_id, content, media_url, created_at, is_read, deleted)
		 VALUES ($1, $2, $3, $4, NULLIF($5, ''), $6, FALSE, FALSE)`,
		message.ID, message.SenderID, message.ReceiverID, message.Content, message.MediaURL, message.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	return message, nil
}

func (db *PostgresDB) GetMessageByID(messageID uuid.UUID) (*models.Message, error) {
	return scanMessage(db.QueryRow(
		"SELECT "+messageColumns+" FROM messages WHERE id = $1", messageID))
}

func (db *PostgresDB) GetConversation(userID1, userID2 uuid.UUID) ([]*models.Message, error) {
	rows, err := db.Query(
		`SELECT `+messageColumns+` FROM messages
		 WHERE (sender_id = $1 AND receiver_id = $2) OR (sender_id = $2 AND receiver_id = $1)
		 ORDER BY created_at ASC`,
		userID1, userID2,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var messages []*models.Message
	for rows.Next() {
		msg, err := scanMessage(rows)
		if err != nil {
			return nil, err
		}
		messages = append(messages, msg)
	}
	return messages, rows.Err()
}

// EditMessage replaces a message's content. Only the sender may edit,
// only within EditWindow of creation, and tombstoned messages are gone
// for editing purposes. ID and created_at never change.
func (db *PostgresDB) EditMessage(messageID, senderID uuid.UUID, content string) (*models.Message, error) {
	msg, err := db.GetMessageByID(messageID)
	if err != nil {
		return nil, err
	}
	if msg.Deleted {
		return nil, ErrMessageNotFound
	}
	if msg.SenderID != senderID {
		return nil, ErrNotSender
	}
	if time.Since(msg.CreatedAt) > db.EditWindow {
		return nil, ErrEditWindowExpired
	}

	now := time.Now().UTC()
	_, err = db.Exec(
		"UPDATE messages SET content = $1, updated_at = $2 WHERE id = $3",
		content, now, messageID,
	)
	if err != nil {
		return nil, err
	}

	msg.Content = content
	msg.UpdatedAt = &now
	return msg, nil
}

// DeleteMessage tombstones a message: the row and its content survive,
// flagged deleted.
func (db *PostgresDB) DeleteMessage(messageID, senderID uuid.UUID) error {
	msg, err := db.GetMessageByID(messageID)
	if err != nil {
		return err
	}
	if msg.SenderID != senderID {
		return ErrNotSender
	}

	_, err = db.Exec("UPDATE messages SET deleted = TRUE WHERE id = $1", messageID)
	return err
}

func (db *PostgresDB) MarkMessageAsRead(messageID, receiverID uuid.UUID) error {
	result, err := db.Exec(
		"UPDATE messages SET is_read = TRUE WHERE id = $1 AND receiver_id = $2",
		messageID, receiverID,
	)
	if err != nil {
		return err
	}
	return oneRowOr(result, ErrMessageNotFound)
}

// GetChatSummaries computes, per counterpart, the most recent
// non-deleted message exchanged with userID plus the count of their
// unread messages. Recomputed on demand, never cached.
func (db *PostgresDB) GetChatSummaries(userID uuid.UUID) ([]*models.ChatSummary, error) {
	rows, err := db.Query(
		`SELECT DISTINCT ON (counterpart) `+messageColumns+` FROM (
		     SELECT *, CASE WHEN sender_id = $1 THEN receiver_id ELSE sender_id END AS counterpart
		     FROM messages
		     WHERE (sender_id = $1 OR receiver_id = $1) AND deleted = FALSE
		 ) m
		 ORDER BY counterpart, created_at DESC`,
		userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var latest []*models.Message
	for rows.Next() {
		msg, err := scanMessage(rows)
		if err != nil {
			return nil, err
		}
		latest = append(latest, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	var summaries []*models.ChatSummary
	for _, msg := range latest {
		counterpartID := msg.SenderID
		if counterpartID == userID {
			counterpartID = msg.ReceiverID
		}

		counterpart, err := db.GetUserByID(counterpartID)
		if err != nil {
			return nil, err
		}

		var unread int
		err = db.QueryRow(
			`SELECT COUNT(*) FROM messages
			 WHERE sender_id = $1 AND receiver_id = $2 AND is_read = FALSE AND deleted = FALSE`,
			counterpartID, userID,
		).Scan(&unread)
		if err != nil {
			return nil, err
		}

		summaries = append(summaries, &models.ChatSummary{
			User:        counterpart.ToResponse(),
			LastMessage: msg,
			UnreadCount: unread,
		})
	}
	return summaries, nil
}

func oneRowOr(result sql.Result, notFound error) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return notFound
	}
	return nil
}
