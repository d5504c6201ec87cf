package sqlite

import (
	"context"
	"database/sql"

	"github.com/iamwavecut/tool"

	errs "github.com/iamwavecut/modbot/internal/errors"
	"github.com/iamwavecut/modbot/internal/ledger"
)

func (s *sqliteClient) LogAction(ctx context.Context, entry *ledger.AuditEntry) error {
	if entry == nil || entry.Action == "" {
		return errs.ErrInvalidInput
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()

	query := `
		INSERT INTO audit (chat_id, action, user_id, admin_id, timestamp, details)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	details := sql.NullString{String: entry.Details, Valid: entry.Details != ""}
	if err := tool.Err(s.db.ExecContext(ctx, query,
		entry.ChatID,
		entry.Action,
		entry.UserID,
		entry.AdminID,
		ledger.Now(),
		details,
	)); err != nil {
		return fault("log action", err)
	}
	return nil
}

// Ties on the text timestamp fall back to insertion order.
const auditOrder = `ORDER BY timestamp DESC, id DESC`

func (s *sqliteClient) UserAudit(ctx context.Context, userID int64, limit int) ([]*ledger.AuditRecord, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	if limit <= 0 {
		limit = ledger.DefaultAuditLimit
	}
	var records []*ledger.AuditRecord
	err := s.db.SelectContext(ctx, &records, `
		SELECT id, chat_id, action, user_id, admin_id, timestamp, details FROM audit
		WHERE user_id = ?
		`+auditOrder+`
		LIMIT ?
	`, userID, limit)
	if err != nil {
		return nil, fault("user audit", err)
	}
	return records, nil
}

func (s *sqliteClient) ChatUserAudit(ctx context.Context, chatID, userID int64, limit int) ([]*ledger.AuditRecord, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	if limit <= 0 {
		limit = ledger.DefaultAuditLimit
	}
	var records []*ledger.AuditRecord
	err := s.db.SelectContext(ctx, &records, `
		SELECT id, chat_id, action, user_id, admin_id, timestamp, details FROM audit
		WHERE user_id = ? AND chat_id = ?
		`+auditOrder+`
		LIMIT ?
	`, userID, chatID, limit)
	if err != nil {
		return nil, fault("chat user audit", err)
	}
	return records, nil
}

func (s *sqliteClient) Stats(ctx context.Context) (*ledger.Stats, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	stats := &ledger.Stats{}
	if err := s.db.GetContext(ctx, &stats.Banned, `SELECT COUNT(*) FROM bans`); err != nil {
		return nil, fault("stats banned", err)
	}
	if err := s.db.GetContext(ctx, &stats.WarnedUsers, `SELECT COUNT(*) FROM warns WHERE count > 0`); err != nil {
		return nil, fault("stats warned", err)
	}
	return stats, nil
}

func (s *sqliteClient) ChatStats(ctx context.Context, chatID int64) (*ledger.Stats, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	stats := &ledger.Stats{}
	if err := s.db.GetContext(ctx, &stats.Banned, `SELECT COUNT(*) FROM bans WHERE chat_id = ?`, chatID); err != nil {
		return nil, fault("chat stats banned", err)
	}
	if err := s.db.GetContext(ctx, &stats.WarnedUsers, `SELECT COUNT(*) FROM warns WHERE chat_id = ? AND count > 0`, chatID); err != nil {
		return nil, fault("chat stats warned", err)
	}
	return stats, nil
}
