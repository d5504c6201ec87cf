package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	api "github.com/OvyFlash/telegram-bot-api"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/iamwavecut/modbot/internal/bot"
	"github.com/iamwavecut/modbot/internal/classifier"
	"github.com/iamwavecut/modbot/internal/config"
	"github.com/iamwavecut/modbot/internal/event"
	"github.com/iamwavecut/modbot/internal/handlers"
	"github.com/iamwavecut/modbot/internal/infra"
	"github.com/iamwavecut/modbot/internal/ledger/sqlite"
	"github.com/iamwavecut/modbot/internal/lifecycle"
	"github.com/iamwavecut/modbot/internal/observability"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.WithError(err).Fatalln("cant load config")
	}
	log.SetFormatter(&config.MbFormatter{})
	log.SetOutput(os.Stdout)
	log.SetLevel(log.Level(cfg.LogLevel))

	terms := cfg.BannedTerms
	if len(terms) == 0 {
		terms = classifier.DefaultTerms
	}
	cls, err := classifier.New(terms)
	if err != nil {
		// refuse to run with a silently disabled classifier
		log.WithError(err).Fatalln("cant compile banned terms")
	}

	store, err := sqlite.NewSQLiteClient(infra.GetWorkDir(cfg.DotPath), cfg.DBPath)
	if err != nil {
		log.WithError(err).Fatalln("cant initialize ledger")
	}
	defer store.Close()

	ctx, cancelFunc := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancelFunc()

	botAPI, err := api.NewBotAPI(cfg.TelegramAPIToken)
	if err != nil {
		log.WithError(err).Errorln("cant initialize bot api")
		time.Sleep(1 * time.Second)
		log.Fatalln("exiting")
	}
	if log.Level(cfg.LogLevel) == log.TraceLevel {
		botAPI.Debug = true
	}

	service := bot.NewService(botAPI, store)
	bot.RegisterUpdateHandler("admin", handlers.NewAdmin(service, cfg))
	bot.RegisterUpdateHandler("moderation", handlers.NewModeration(service, cls))
	updateProcessor := bot.NewUpdateProcessor(service)

	event.Subscribe(event.TypeAuditNotification, notificationSender(botAPI))

	runtime := lifecycle.NewRuntime(
		event.NewWorker(),
		observability.NewServer(cfg.MetricsAddr),
	)
	if err := runtime.Start(ctx); err != nil {
		log.WithError(err).Fatalln("cant start components")
	}
	defer func() {
		stopCtx, stopCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer stopCancel()
		if err := runtime.Stop(stopCtx); err != nil {
			log.WithError(err).Errorln("cant stop components")
		}
	}()

	go infra.GoRecoverable(-1, "process_updates", func() {
		defer cancelFunc()

		updateConfig := api.NewUpdate(0)
		updateConfig.Timeout = 60
		updateChan, errorChan := bot.GetUpdatesChans(ctx, botAPI, updateConfig)

		for {
			select {
			case err := <-errorChan:
				log.WithError(err).Errorln("bot api get updates error")
				return
			case update := <-updateChan:
				if err := updateProcessor.Process(ctx, &update); err != nil {
					log.WithError(err).Errorln("cant process update")
				}
			case <-ctx.Done():
				return
			}
		}
	})

	select {
	case <-infra.MonitorExecutable(ctx):
		log.Errorln("executable file was modified")
	case <-ctx.Done():
		log.WithError(ctx.Err()).Errorln("no more updates")
	}
}

// notificationSender delivers audit announcements to the configured chats.
// Delivery is best effort: the ledger mutation behind the event has already
// committed and must never be rolled back or blocked by a failed send.
func notificationSender(botAPI *api.BotAPI) func(ev event.Queueable) {
	return func(ev event.Queueable) {
		notification, ok := ev.(*event.AuditNotification)
		if !ok {
			return
		}
		defer notification.Process()

		var g errgroup.Group
		for _, chatID := range notification.ChatIDs {
			g.Go(func() error {
				msg := api.NewMessage(chatID, notification.Text)
				msg.ParseMode = api.ModeHTML
				msg.DisableNotification = true
				_, err := botAPI.Send(msg)
				return err
			})
		}
		if err := g.Wait(); err != nil {
			log.WithError(err).Errorln("cant deliver audit notification")
		}
	}
}
