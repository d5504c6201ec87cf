package handlers

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	api "github.com/OvyFlash/telegram-bot-api"

	"github.com/iamwavecut/modbot/internal/bot"
	"github.com/iamwavecut/modbot/internal/config"
	"github.com/iamwavecut/modbot/internal/ledger"
)

func commandMessage(text string, commandLength int) *api.Message {
	return &api.Message{
		Text: text,
		Entities: []api.MessageEntity{
			{Type: "bot_command", Offset: 0, Length: commandLength},
		},
	}
}

// newTestBotAPI serves the bot API from a local test server and collects the
// text of every message the handler sends.
func newTestBotAPI(t *testing.T) (*api.BotAPI, *[]string) {
	t.Helper()

	sent := &[]string{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = r.ParseForm()
		if text := r.FormValue("text"); text != "" {
			*sent = append(*sent, text)
		}
		w.Header().Set("Content-Type", "application/json")
		if strings.HasSuffix(r.URL.Path, "/getMe") {
			_, _ = w.Write([]byte(`{"ok":true,"result":{"id":1,"is_bot":true,"first_name":"modbot"}}`))
			return
		}
		_, _ = w.Write([]byte(`{"ok":true,"result":{"message_id":1,"date":1,"chat":{"id":1}}}`))
	}))
	t.Cleanup(srv.Close)

	botAPI, err := api.NewBotAPIWithAPIEndpoint("TEST", srv.URL+"/bot%s/%s")
	if err != nil {
		t.Fatalf("new bot api: %v", err)
	}
	return botAPI, sent
}

// stubStore satisfies ledger.Store with benign defaults; individual errors
// are injected per test.
type stubStore struct {
	warnTotal int
	logErr    error
}

func (s *stubStore) Close() error                                         { return nil }
func (s *stubStore) Ban(context.Context, int64, int64) error              { return nil }
func (s *stubStore) Unban(context.Context, int64, int64) error            { return nil }
func (s *stubStore) IsBanned(context.Context, int64, int64) (bool, error) { return false, nil }
func (s *stubStore) Mute(context.Context, int64, int64) error             { return nil }
func (s *stubStore) Unmute(context.Context, int64, int64) error           { return nil }
func (s *stubStore) IsMuted(context.Context, int64, int64) (bool, error)  { return false, nil }
func (s *stubStore) Warn(context.Context, int64, int64) (int, error)      { return s.warnTotal, nil }
func (s *stubStore) WarnCount(context.Context, int64, int64) (int, error) { return s.warnTotal, nil }
func (s *stubStore) LogAction(context.Context, *ledger.AuditEntry) error  { return s.logErr }
func (s *stubStore) UserAudit(context.Context, int64, int) ([]*ledger.AuditRecord, error) {
	return nil, nil
}
func (s *stubStore) ChatUserAudit(context.Context, int64, int64, int) ([]*ledger.AuditRecord, error) {
	return nil, nil
}
func (s *stubStore) Stats(context.Context) (*ledger.Stats, error)            { return &ledger.Stats{}, nil }
func (s *stubStore) ChatStats(context.Context, int64) (*ledger.Stats, error) { return &ledger.Stats{}, nil }

func TestFailedAuditWriteStillRepliesWithFault(t *testing.T) {
	t.Parallel()

	botAPI, sent := newTestBotAPI(t)
	store := &stubStore{warnTotal: 3, logErr: errors.New("disk full")}
	admin := NewAdmin(bot.NewService(botAPI, store), config.Config{Admins: []int64{99}})

	u := &api.Update{Message: commandMessage("/warn 7 flooding", len("/warn"))}
	proceed, err := admin.Handle(context.Background(), u, &api.Chat{ID: 1}, &api.User{ID: 99})
	if err == nil {
		t.Fatalf("expected the audit write failure to propagate")
	}
	if proceed {
		t.Fatalf("command must stop the handler chain")
	}

	found := false
	for _, text := range *sent {
		if text == msgInternalFault {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected a fault reply in the chat, got %v", *sent)
	}
}

func TestExtractTargetFromArguments(t *testing.T) {
	t.Parallel()

	m := commandMessage("/ban 42 repeated flooding", len("/ban"))
	target, reason, replied := extractTargetAndReason(m)
	if target != 42 {
		t.Fatalf("expected target 42, got %d", target)
	}
	if reason != "repeated flooding" {
		t.Fatalf("unexpected reason: %q", reason)
	}
	if replied != nil {
		t.Fatalf("expected no replied user")
	}
}

func TestExtractTargetFromArgumentsWithoutReason(t *testing.T) {
	t.Parallel()

	target, reason, _ := extractTargetAndReason(commandMessage("/warn 7", len("/warn")))
	if target != 7 || reason != "" {
		t.Fatalf("expected (7, \"\"), got (%d, %q)", target, reason)
	}
}

func TestExtractTargetRejectsGarbage(t *testing.T) {
	t.Parallel()

	for _, text := range []string{"/ban", "/ban bob", "/ban 0"} {
		target, reason, replied := extractTargetAndReason(commandMessage(text, len("/ban")))
		if target != 0 || reason != "" || replied != nil {
			t.Fatalf("expected parse failure for %q, got (%d, %q, %v)", text, target, reason, replied)
		}
	}
}

func TestExtractTargetFromReply(t *testing.T) {
	t.Parallel()

	m := commandMessage("/mute spamming links", len("/mute"))
	m.ReplyToMessage = &api.Message{
		From: &api.User{ID: 55, UserName: "bob"},
	}

	target, reason, replied := extractTargetAndReason(m)
	if target != 55 {
		t.Fatalf("expected replied author as target, got %d", target)
	}
	if reason != "spamming links" {
		t.Fatalf("unexpected reason: %q", reason)
	}
	if replied == nil || replied.Username != "bob" {
		t.Fatalf("unexpected replied user: %+v", replied)
	}
}

func TestFormatAuditRecordEscapesDetails(t *testing.T) {
	t.Parallel()

	record := &ledger.AuditRecord{
		Action:    ledger.ActionWarn,
		AdminID:   sql.NullInt64{Int64: 99, Valid: true},
		Timestamp: ledger.Now(),
		Details:   sql.NullString{String: "<script>", Valid: true},
	}

	line := formatAuditRecord(record)
	if !strings.Contains(line, "<b>warn</b>") {
		t.Fatalf("expected action markup, got %q", line)
	}
	if !strings.Contains(line, "by 99") {
		t.Fatalf("expected admin id, got %q", line)
	}
	if strings.Contains(line, "<script>") {
		t.Fatalf("details must be escaped, got %q", line)
	}
}

func TestFormatAuditRecordWithoutAdmin(t *testing.T) {
	t.Parallel()

	record := &ledger.AuditRecord{
		Action:    ledger.ActionBan,
		Timestamp: ledger.Now(),
	}
	if line := formatAuditRecord(record); !strings.Contains(line, "by -") {
		t.Fatalf("expected placeholder admin, got %q", line)
	}
}

func TestAuditNotificationText(t *testing.T) {
	t.Parallel()

	target := &bot.User{ID: 7, Username: "alice"}
	admin := &bot.User{ID: 99}
	text := auditNotificationText(ledger.ActionWarn, target, admin, `bad "links"`, 3)

	for _, fragment := range []string{
		"<b>Action:</b> warn",
		`tg://user?id=7`,
		"@alice",
		"(id: 99)",
		"<b>Total warns:</b> 3",
		"bad &#34;links&#34;",
	} {
		if !strings.Contains(text, fragment) {
			t.Fatalf("expected notification to contain %q, got %q", fragment, text)
		}
	}
}

func TestConfirmationMessages(t *testing.T) {
	t.Parallel()

	if got := confirmationFor(ledger.ActionWarn, 7, 2); got != "User 7 is warned (total=2)." {
		t.Fatalf("unexpected warn confirmation: %q", got)
	}
	if got := confirmationFor(ledger.ActionUnban, 7, 0); got != "User 7 is unbanned." {
		t.Fatalf("unexpected unban confirmation: %q", got)
	}
}
