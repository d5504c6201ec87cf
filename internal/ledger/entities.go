package ledger

import (
	"database/sql"
	"database/sql/driver"
	"fmt"
	"time"
)

// GlobalScope is the chat scope recorded when a caller has no chat context.
// Callers should prefer explicit chat ids.
const GlobalScope int64 = 0

// DefaultAuditLimit bounds audit queries when the caller has no opinion.
const DefaultAuditLimit = 50

type Action string

const (
	ActionBan    Action = "ban"
	ActionUnban  Action = "unban"
	ActionWarn   Action = "warn"
	ActionMute   Action = "mute"
	ActionUnmute Action = "unmute"
	ActionPlaint Action = "plaint"
)

// utcTimeLayout is fixed-width so that lexicographic order of stored text
// matches chronological order.
const utcTimeLayout = "2006-01-02T15:04:05.000000000Z"

// UTCTime persists as fixed-width ISO-8601 UTC text.
type UTCTime time.Time

func Now() UTCTime {
	return UTCTime(time.Now().UTC())
}

func (t UTCTime) Time() time.Time {
	return time.Time(t)
}

func (t UTCTime) String() string {
	return time.Time(t).UTC().Format(utcTimeLayout)
}

func (t UTCTime) Value() (driver.Value, error) {
	return t.String(), nil
}

func (t *UTCTime) Scan(v interface{}) error {
	switch data := v.(type) {
	case nil:
		*t = UTCTime{}
		return nil
	case time.Time:
		*t = UTCTime(data.UTC())
		return nil
	case string:
		return t.parse(data)
	case []byte:
		return t.parse(string(data))
	default:
		return fmt.Errorf("cannot scan type %T into UTCTime", v)
	}
}

func (t *UTCTime) parse(s string) error {
	parsed, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return fmt.Errorf("parse timestamp %q: %w", s, err)
	}
	*t = UTCTime(parsed.UTC())
	return nil
}

type (
	BanRecord struct {
		ChatID   int64   `db:"chat_id"`
		UserID   int64   `db:"user_id"`
		BannedAt UTCTime `db:"banned_at"`
	}

	MuteRecord struct {
		ChatID  int64   `db:"chat_id"`
		UserID  int64   `db:"user_id"`
		MutedAt UTCTime `db:"muted_at"`
	}

	WarnCounter struct {
		ChatID int64 `db:"chat_id"`
		UserID int64 `db:"user_id"`
		Count  int   `db:"count"`
	}

	// AuditEntry is the caller-facing shape of a new audit row. Nil ids
	// persist as NULL, an empty details string persists as NULL.
	AuditEntry struct {
		Action  Action
		ChatID  *int64
		UserID  *int64
		AdminID *int64
		Details string
	}

	// AuditRecord is an immutable row of the append-only audit trail.
	AuditRecord struct {
		ID        int64          `db:"id"`
		ChatID    sql.NullInt64  `db:"chat_id"`
		Action    Action         `db:"action"`
		UserID    sql.NullInt64  `db:"user_id"`
		AdminID   sql.NullInt64  `db:"admin_id"`
		Timestamp UTCTime        `db:"timestamp"`
		Details   sql.NullString `db:"details"`
	}

	Stats struct {
		Banned      int `db:"banned"`
		WarnedUsers int `db:"warned_users"`
	}
)
