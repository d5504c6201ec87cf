package bot

import (
	"context"
	"fmt"
	"html"
	"strings"

	api "github.com/OvyFlash/telegram-bot-api"

	"github.com/iamwavecut/modbot/internal/ledger"
)

// ServiceBot defines bot-specific operations
type ServiceBot interface {
	GetBot() *api.BotAPI
}

// ServiceLedger defines moderation-state operations
type ServiceLedger interface {
	GetLedger() ledger.Store
}

// Service defines the core bot service interface
type Service interface {
	ServiceBot
	ServiceLedger
}

// Handler defines the interface for all update handlers in the system
type Handler interface {
	Handle(ctx context.Context, u *api.Update, chat *api.Chat, user *api.User) (proceed bool, err error)
}

// User is the plain value shape the transport layer hands to moderation
// code instead of a raw API object.
type User struct {
	ID        int64
	Username  string
	FirstName string
	LastName  string
}

func UserFromAPI(u *api.User) *User {
	if u == nil {
		return nil
	}
	return &User{
		ID:        u.ID,
		Username:  u.UserName,
		FirstName: u.FirstName,
		LastName:  u.LastName,
	}
}

// DisplayName returns an HTML-safe name, preferring @username, then the
// full name, then the bare id.
func (u *User) DisplayName() string {
	if u == nil {
		return "user"
	}
	if u.Username != "" {
		return html.EscapeString("@" + u.Username)
	}
	full := strings.TrimSpace(strings.TrimSpace(u.FirstName) + " " + strings.TrimSpace(u.LastName))
	if full != "" {
		return html.EscapeString(full)
	}
	return html.EscapeString(fmt.Sprintf("%d", u.ID))
}
