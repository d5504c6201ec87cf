package bot

import (
	api "github.com/OvyFlash/telegram-bot-api"

	"github.com/iamwavecut/modbot/internal/ledger"
)

type service struct {
	bot   *api.BotAPI
	store ledger.Store
}

func NewService(bot *api.BotAPI, store ledger.Store) *service {
	return &service{
		bot:   bot,
		store: store,
	}
}

func (s *service) GetBot() *api.BotAPI {
	return s.bot
}

func (s *service) GetLedger() ledger.Store {
	return s.store
}
