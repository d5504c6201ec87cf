package event

import "time"

// TypeAuditNotification identifies fire-and-forget audit announcements
// destined for the configured audit chats.
const TypeAuditNotification = "audit_notification"

const notificationTTL = 5 * time.Minute

// AuditNotification carries a formatted audit message. Delivery failure is
// the consumer's problem; the ledger mutation it announces is already
// durable.
type AuditNotification struct {
	*Base
	ChatIDs []int64
	Text    string
}

func NewAuditNotification(chatIDs []int64, text string) *AuditNotification {
	return &AuditNotification{
		Base:    CreateBase(TypeAuditNotification, time.Now().Add(notificationTTL)),
		ChatIDs: chatIDs,
		Text:    text,
	}
}
