package handlers

import (
	"context"
	"fmt"
	"html"
	"strconv"
	"strings"

	api "github.com/OvyFlash/telegram-bot-api"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/iamwavecut/modbot/internal/bot"
	"github.com/iamwavecut/modbot/internal/config"
	"github.com/iamwavecut/modbot/internal/event"
	"github.com/iamwavecut/modbot/internal/ledger"
	"github.com/iamwavecut/modbot/internal/observability"
)

const (
	msgAdminsOnly    = "Only administrators can use this command."
	msgInternalFault = "Internal error, the action may not have applied. Check state and retry."
	msgNoAuditRows   = "No audit records for this user."

	auditDisplayCap = 20
)

// Admin executes moderation commands against the ledger: /ban /unban /warn
// /mute /unmute /stats /audit, plus /report for non-admin complaints.
// Targets come from a reply or an explicit id, an optional trailing reason
// lands in the audit details.
type Admin struct {
	s   bot.Service
	cfg config.Config
}

func NewAdmin(s bot.Service, cfg config.Config) *Admin {
	return &Admin{s: s, cfg: cfg}
}

func (a *Admin) Handle(ctx context.Context, u *api.Update, chat *api.Chat, user *api.User) (bool, error) {
	if u.Message == nil || chat == nil || user == nil {
		return true, nil
	}
	m := u.Message
	if user.IsBot || !m.IsCommand() {
		return true, nil
	}

	cmd := m.Command()
	switch cmd {
	case "ban", "unban", "warn", "mute", "unmute", "stats", "audit", "report":
	default:
		return true, nil
	}

	// anyone may file a complaint, everything else is for admins
	if cmd == "report" {
		return a.handleReport(ctx, m, chat, user)
	}

	if !a.cfg.IsAdmin(user.ID) {
		a.reply(chat.ID, msgAdminsOnly, "")
		return false, nil
	}

	entry := a.getLogEntry().WithFields(log.Fields{"chat_id": chat.ID, "admin_id": user.ID, "command": cmd})
	admin := bot.UserFromAPI(user)

	switch cmd {
	case "stats":
		stats, err := a.s.GetLedger().ChatStats(ctx, chat.ID)
		if err != nil {
			a.reply(chat.ID, msgInternalFault, "")
			return false, errors.WithMessage(err, "cant get stats")
		}
		a.reply(chat.ID, fmt.Sprintf("Banned: %d, Warned: %d", stats.Banned, stats.WarnedUsers), "")
		return false, nil

	case "audit":
		return a.handleAudit(ctx, m, chat)
	}

	target, reason, replied := extractTargetAndReason(m)
	if target == 0 {
		a.reply(chat.ID, usageFor(cmd), "")
		return false, nil
	}
	targetUser := replied
	if targetUser == nil {
		targetUser = &bot.User{ID: target}
	}

	action, total, err := a.mutate(ctx, cmd, chat.ID, target)
	if err != nil {
		a.reply(chat.ID, msgInternalFault, "")
		return false, errors.WithMessagef(err, "cant %s user", cmd)
	}

	details := reason
	if action == ledger.ActionWarn {
		if details != "" {
			details = fmt.Sprintf("%s (total=%d)", details, total)
		} else {
			details = fmt.Sprintf("total=%d", total)
		}
	}
	logEntry := &ledger.AuditEntry{
		Action:  action,
		ChatID:  &chat.ID,
		UserID:  &target,
		AdminID: &user.ID,
		Details: details,
	}
	if err := a.s.GetLedger().LogAction(ctx, logEntry); err != nil {
		a.reply(chat.ID, msgInternalFault, "")
		return false, errors.WithMessage(err, "cant log action")
	}
	observability.ModerationActions.WithLabelValues(string(action)).Inc()

	if len(a.cfg.AuditChatIDs) > 0 {
		event.Bus.NQ(event.NewAuditNotification(
			a.cfg.AuditChatIDs,
			auditNotificationText(action, targetUser, admin, reason, total),
		))
	}

	a.reply(chat.ID, confirmationFor(action, target, total), "")
	entry.WithField("target_id", target).Info("moderation action applied")
	return false, nil
}

// mutate applies the ledger mutation for cmd and returns the audit action.
// total is meaningful for warns only.
func (a *Admin) mutate(ctx context.Context, cmd string, chatID, target int64) (ledger.Action, int, error) {
	store := a.s.GetLedger()
	switch cmd {
	case "ban":
		return ledger.ActionBan, 0, store.Ban(ctx, chatID, target)
	case "unban":
		return ledger.ActionUnban, 0, store.Unban(ctx, chatID, target)
	case "mute":
		return ledger.ActionMute, 0, store.Mute(ctx, chatID, target)
	case "unmute":
		return ledger.ActionUnmute, 0, store.Unmute(ctx, chatID, target)
	case "warn":
		total, err := store.Warn(ctx, chatID, target)
		return ledger.ActionWarn, total, err
	}
	return "", 0, fmt.Errorf("unknown command %q", cmd)
}

func (a *Admin) handleReport(ctx context.Context, m *api.Message, chat *api.Chat, user *api.User) (bool, error) {
	if m.ReplyToMessage == nil || m.ReplyToMessage.From == nil {
		a.reply(chat.ID, "Reply to the offending message with /report [reason]", "")
		return false, nil
	}
	target := m.ReplyToMessage.From.ID
	reason := strings.TrimSpace(m.CommandArguments())

	entry := &ledger.AuditEntry{
		Action:  ledger.ActionPlaint,
		ChatID:  &chat.ID,
		UserID:  &target,
		AdminID: &user.ID,
		Details: reason,
	}
	if err := a.s.GetLedger().LogAction(ctx, entry); err != nil {
		a.reply(chat.ID, msgInternalFault, "")
		return false, errors.WithMessage(err, "cant log complaint")
	}
	observability.ModerationActions.WithLabelValues(string(ledger.ActionPlaint)).Inc()

	if len(a.cfg.AuditChatIDs) > 0 {
		event.Bus.NQ(event.NewAuditNotification(
			a.cfg.AuditChatIDs,
			auditNotificationText(ledger.ActionPlaint, bot.UserFromAPI(m.ReplyToMessage.From), bot.UserFromAPI(user), reason, 0),
		))
	}

	a.reply(chat.ID, "Report recorded.", "")
	return false, nil
}

func (a *Admin) handleAudit(ctx context.Context, m *api.Message, chat *api.Chat) (bool, error) {
	var target int64
	if m.ReplyToMessage != nil && m.ReplyToMessage.From != nil {
		target = m.ReplyToMessage.From.ID
	} else if args := strings.Fields(m.CommandArguments()); len(args) >= 1 {
		parsed, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			a.reply(chat.ID, "Invalid user id", "")
			return false, nil
		}
		target = parsed
	}
	if target == 0 {
		a.reply(chat.ID, usageFor("audit"), "")
		return false, nil
	}

	records, err := a.s.GetLedger().ChatUserAudit(ctx, chat.ID, target, ledger.DefaultAuditLimit)
	if err != nil {
		a.reply(chat.ID, msgInternalFault, "")
		return false, errors.WithMessage(err, "cant get audit")
	}
	if len(records) == 0 {
		a.reply(chat.ID, msgNoAuditRows, "")
		return false, nil
	}

	lines := make([]string, 0, auditDisplayCap)
	for _, r := range records {
		if len(lines) == auditDisplayCap {
			break
		}
		lines = append(lines, formatAuditRecord(r))
	}
	a.reply(chat.ID, strings.Join(lines, "\n"), api.ModeHTML)
	return false, nil
}

func formatAuditRecord(r *ledger.AuditRecord) string {
	adminTxt := "-"
	if r.AdminID.Valid {
		adminTxt = strconv.FormatInt(r.AdminID.Int64, 10)
	}
	line := fmt.Sprintf("%s - <b>%s</b> by %s",
		html.EscapeString(r.Timestamp.String()),
		html.EscapeString(string(r.Action)),
		html.EscapeString(adminTxt),
	)
	if r.Details.Valid && r.Details.String != "" {
		line += " " + html.EscapeString(r.Details.String)
	}
	return line
}

func auditNotificationText(action ledger.Action, target, admin *bot.User, reason string, total int) string {
	text := fmt.Sprintf(
		"<b>Action:</b> %s\n"+
			"<b>User:</b> <a href=\"tg://user?id=%d\">%s</a> (id: %d)\n"+
			"<b>Admin:</b> %s (id: %d)\n"+
			"<b>Time (UTC):</b> %s\n",
		action,
		target.ID, target.DisplayName(), target.ID,
		admin.DisplayName(), admin.ID,
		html.EscapeString(ledger.Now().String()),
	)
	if action == ledger.ActionWarn {
		text += fmt.Sprintf("<b>Total warns:</b> %d\n", total)
	}
	if reason != "" {
		text += fmt.Sprintf("<b>Reason:</b> %s\n", html.EscapeString(reason))
	}
	return text
}

func confirmationFor(action ledger.Action, target int64, total int) string {
	switch action {
	case ledger.ActionBan:
		return fmt.Sprintf("User %d is banned.", target)
	case ledger.ActionUnban:
		return fmt.Sprintf("User %d is unbanned.", target)
	case ledger.ActionMute:
		return fmt.Sprintf("User %d is muted.", target)
	case ledger.ActionUnmute:
		return fmt.Sprintf("User %d is unmuted.", target)
	case ledger.ActionWarn:
		return fmt.Sprintf("User %d is warned (total=%d).", target, total)
	}
	return ""
}

func usageFor(cmd string) string {
	if cmd == "audit" {
		return "Usage: /audit <user_id>, or reply to the user's message with /audit"
	}
	return fmt.Sprintf("Usage: /%s <user_id> [reason], or reply to a message with /%s [reason]", cmd, cmd)
}

// extractTargetAndReason resolves the command target: the replied-to author
// when the command is a reply, an explicit numeric id otherwise. Whatever
// trails the target is the reason. Returns a zero target when parsing fails.
func extractTargetAndReason(m *api.Message) (int64, string, *bot.User) {
	if m.ReplyToMessage != nil && m.ReplyToMessage.From != nil {
		replied := bot.UserFromAPI(m.ReplyToMessage.From)
		return replied.ID, strings.TrimSpace(m.CommandArguments()), replied
	}

	args := strings.Fields(m.CommandArguments())
	if len(args) == 0 {
		return 0, "", nil
	}
	target, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil || target == 0 {
		return 0, "", nil
	}
	return target, strings.TrimSpace(strings.Join(args[1:], " ")), nil
}

func (a *Admin) reply(chatID int64, text, parseMode string) {
	msg := api.NewMessage(chatID, text)
	msg.DisableNotification = true
	msg.ParseMode = parseMode
	if _, err := a.s.GetBot().Send(msg); err != nil {
		a.getLogEntry().WithError(err).Error("cant send reply")
	}
}

func (a *Admin) getLogEntry() *log.Entry {
	return log.WithField("context", "admin")
}
