package handlers

import (
	"context"

	api "github.com/OvyFlash/telegram-bot-api"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/iamwavecut/modbot/internal/bot"
	"github.com/iamwavecut/modbot/internal/classifier"
	"github.com/iamwavecut/modbot/internal/observability"
)

const (
	msgRestricted = "User is restricted by a moderator."
	msgBadMessage = "Message removed: it violates chat rules."
)

// Moderation screens every inbound message: restricted senders first, then
// the banned-term classifier. Positive outcomes delete the message.
type Moderation struct {
	s bot.Service
	c *classifier.Classifier
}

func NewModeration(s bot.Service, c *classifier.Classifier) *Moderation {
	return &Moderation{s: s, c: c}
}

func (h *Moderation) Handle(ctx context.Context, u *api.Update, chat *api.Chat, user *api.User) (bool, error) {
	if u.Message == nil || chat == nil || user == nil {
		return true, nil
	}
	m := u.Message
	if user.IsBot || m.IsCommand() {
		return true, nil
	}
	entry := h.getLogEntry().WithFields(log.Fields{"chat_id": chat.ID, "user_id": user.ID})
	observability.MessagesChecked.Inc()

	store := h.s.GetLedger()
	banned, err := store.IsBanned(ctx, chat.ID, user.ID)
	if err != nil {
		// "couldn't check" must never pass as "not banned"
		return false, errors.WithMessage(err, "cant check ban state")
	}
	muted := false
	if !banned {
		muted, err = store.IsMuted(ctx, chat.ID, user.ID)
		if err != nil {
			return false, errors.WithMessage(err, "cant check mute state")
		}
	}
	if banned || muted {
		observability.MessagesFlagged.WithLabelValues("restricted").Inc()
		if err := bot.DeleteChatMessage(ctx, h.s.GetBot(), chat.ID, m.MessageID); err != nil {
			entry.WithError(err).Error("cant delete message from restricted user")
		}
		h.reply(chat.ID, msgRestricted)
		return false, nil
	}

	text := m.Text
	if text == "" {
		text = m.Caption
	}
	if h.c.IsBad(text) {
		observability.MessagesFlagged.WithLabelValues("pattern").Inc()
		entry.Info("removing message with banned pattern")
		if err := bot.DeleteChatMessage(ctx, h.s.GetBot(), chat.ID, m.MessageID); err != nil {
			entry.WithError(err).Error("cant moderate message")
		}
		h.reply(chat.ID, msgBadMessage)
		return false, nil
	}

	return true, nil
}

func (h *Moderation) reply(chatID int64, text string) {
	msg := api.NewMessage(chatID, text)
	msg.DisableNotification = true
	if _, err := h.s.GetBot().Send(msg); err != nil {
		h.getLogEntry().WithError(err).Error("cant send reply")
	}
}

func (h *Moderation) getLogEntry() *log.Entry {
	return log.WithField("context", "moderation")
}
