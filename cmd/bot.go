package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/helpdeskhq/helpdesk-portal/internal/core/events"
	"github.com/helpdeskhq/helpdesk-portal/internal/request"
	requestpg "github.com/helpdeskhq/helpdesk-portal/internal/request/postgres"
	"github.com/helpdeskhq/helpdesk-portal/internal/telegram"
	"github.com/helpdeskhq/helpdesk-portal/internal/user"
	userpg "github.com/helpdeskhq/helpdesk-portal/internal/user/postgres"
	"github.com/helpdeskhq/helpdesk-portal/pkg/logger"

	"github.com/spf13/cobra"
)

var botCmd = &cobra.Command{
	Use:   "bot",
	Short: "Start the telegram bot",
	Long:  `Start the telegram bot that links accounts over shared contacts and answers /mytickets`,
	Run: func(cmd *cobra.Command, args []string) {
		startBot()
	},
}

// openTicketLister narrows the request service to the projection the bot
// prints.
type openTicketLister struct {
	requests *request.Service
}

func (l openTicketLister) ListOpenForUser(userID int64) ([]telegram.TicketSummary, error) {
	reqs, err := l.requests.ListOpenByAuthor(userID)
	if err != nil {
		return nil, err
	}
	out := make([]telegram.TicketSummary, 0, len(reqs))
	for _, r := range reqs {
		out = append(out, telegram.TicketSummary{ID: r.ID, Title: r.Title, Status: r.Status})
	}
	return out, nil
}

func startBot() {
	cfg, err := loadConfig(".")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := logger.LoggerWrapper()

	if !cfg.Telegram.Enabled() {
		log.Error("telegram bot token is not configured")
		os.Exit(1)
	}

	db, err := initDB(cfg.Database)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize database: %v\n", err)
		os.Exit(1)
	}

	bus := events.NewEventBus(log)
	userRepo := userpg.NewUserRepository(db)
	userSvc := user.NewService(userRepo, bus, cfg.Security.BCryptCost, log)
	requestSvc := request.NewService(requestpg.NewRequestRepository(db), userRepo, bus, log)

	client := telegram.NewClient(cfg.Telegram, userRepo, log)
	bot := telegram.NewBot(client, userSvc, openTicketLister{requests: requestSvc}, log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Info("telegram bot is running. Press Ctrl+C to stop.")

	if err := bot.Run(ctx); err != nil && ctx.Err() == nil {
		log.Error("bot stopped with error", "error", err)
		os.Exit(1)
	}

	log.Info("telegram bot shutdown complete")
}
