package ledger

import "context"

// Store is the persistent moderation ledger. All state is scoped by
// (chatID, userID); restriction axes are independent, so a user may be
// banned and muted at the same time. Absence of a row is a normal zero
// result, never an error. Any returned error is a storage fault and the
// caller must not assume the mutation did or did not apply.
type Store interface {
	Close() error

	Ban(ctx context.Context, chatID, userID int64) error
	Unban(ctx context.Context, chatID, userID int64) error
	IsBanned(ctx context.Context, chatID, userID int64) (bool, error)

	Mute(ctx context.Context, chatID, userID int64) error
	Unmute(ctx context.Context, chatID, userID int64) error
	IsMuted(ctx context.Context, chatID, userID int64) (bool, error)

	// Warn atomically increments the warning counter and returns the new
	// total, starting at 1. Concurrent warns for the same key never lose
	// increments.
	Warn(ctx context.Context, chatID, userID int64) (int, error)
	WarnCount(ctx context.Context, chatID, userID int64) (int, error)

	LogAction(ctx context.Context, entry *AuditEntry) error
	// UserAudit returns the user's most recent audit records across all
	// chats, most recent first.
	UserAudit(ctx context.Context, userID int64, limit int) ([]*AuditRecord, error)
	ChatUserAudit(ctx context.Context, chatID, userID int64, limit int) ([]*AuditRecord, error)

	Stats(ctx context.Context) (*Stats, error)
	ChatStats(ctx context.Context, chatID int64) (*Stats, error)
}
