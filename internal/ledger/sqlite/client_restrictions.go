package sqlite

import (
	"context"

	"github.com/iamwavecut/tool"

	"github.com/iamwavecut/modbot/internal/ledger"
)

func (s *sqliteClient) Ban(ctx context.Context, chatID, userID int64) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	query := `
		INSERT INTO bans (chat_id, user_id, banned_at)
		VALUES (?, ?, ?)
		ON CONFLICT(chat_id, user_id) DO UPDATE SET
		banned_at = excluded.banned_at
	`
	if err := tool.Err(s.db.ExecContext(ctx, query, chatID, userID, ledger.Now())); err != nil {
		return fault("ban", err)
	}
	return nil
}

func (s *sqliteClient) Unban(ctx context.Context, chatID, userID int64) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if err := tool.Err(s.db.ExecContext(ctx, `DELETE FROM bans WHERE chat_id = ? AND user_id = ?`, chatID, userID)); err != nil {
		return fault("unban", err)
	}
	return nil
}

func (s *sqliteClient) IsBanned(ctx context.Context, chatID, userID int64) (bool, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	var record ledger.BanRecord
	err := s.db.GetContext(ctx, &record, `SELECT chat_id, user_id, banned_at FROM bans WHERE chat_id = ? AND user_id = ?`, chatID, userID)
	if err != nil {
		if isNoRows(err) {
			return false, nil
		}
		return false, fault("is banned", err)
	}
	return true, nil
}

func (s *sqliteClient) Mute(ctx context.Context, chatID, userID int64) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	query := `
		INSERT INTO mutes (chat_id, user_id, muted_at)
		VALUES (?, ?, ?)
		ON CONFLICT(chat_id, user_id) DO UPDATE SET
		muted_at = excluded.muted_at
	`
	if err := tool.Err(s.db.ExecContext(ctx, query, chatID, userID, ledger.Now())); err != nil {
		return fault("mute", err)
	}
	return nil
}

func (s *sqliteClient) Unmute(ctx context.Context, chatID, userID int64) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if err := tool.Err(s.db.ExecContext(ctx, `DELETE FROM mutes WHERE chat_id = ? AND user_id = ?`, chatID, userID)); err != nil {
		return fault("unmute", err)
	}
	return nil
}

func (s *sqliteClient) IsMuted(ctx context.Context, chatID, userID int64) (bool, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	var record ledger.MuteRecord
	err := s.db.GetContext(ctx, &record, `SELECT chat_id, user_id, muted_at FROM mutes WHERE chat_id = ? AND user_id = ?`, chatID, userID)
	if err != nil {
		if isNoRows(err) {
			return false, nil
		}
		return false, fault("is muted", err)
	}
	return true, nil
}

func (s *sqliteClient) Warn(ctx context.Context, chatID, userID int64) (int, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	// Single-statement upsert, not read-then-write, so concurrent warns for
	// the same key cannot lose increments.
	query := `
		INSERT INTO warns (chat_id, user_id, count)
		VALUES (?, ?, 1)
		ON CONFLICT(chat_id, user_id) DO UPDATE SET
		count = count + 1
		RETURNING count
	`
	var total int
	if err := s.db.GetContext(ctx, &total, query, chatID, userID); err != nil {
		return 0, fault("warn", err)
	}
	return total, nil
}

func (s *sqliteClient) WarnCount(ctx context.Context, chatID, userID int64) (int, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	var counter ledger.WarnCounter
	err := s.db.GetContext(ctx, &counter, `SELECT chat_id, user_id, count FROM warns WHERE chat_id = ? AND user_id = ?`, chatID, userID)
	if err != nil {
		if isNoRows(err) {
			return 0, nil
		}
		return 0, fault("warn count", err)
	}
	return counter.Count, nil
}
