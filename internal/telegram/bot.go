package telegram

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/helpdeskhq/helpdesk-portal/internal/user"
)

// AccountLinker ties telegram chats to portal accounts.
type AccountLinker interface {
	FindByPhone(phone string) (*user.User, error)
	FindByChatID(chatID int64) (*user.User, error)
	LinkTelegram(userID, chatID int64) error
}

// TicketSummary is the slim projection the bot prints for /mytickets.
type TicketSummary struct {
	ID     int64
	Title  string
	Status string
}

// TicketLister returns the open tickets authored by a user.
type TicketLister interface {
	ListOpenForUser(userID int64) ([]TicketSummary, error)
}

// Bot runs the getUpdates long-poll loop. It understands /start (greets and
// asks for the phone number), a shared contact (links the chat to the
// matching account) and /mytickets.
type Bot struct {
	client  *Client
	linker  AccountLinker
	tickets TicketLister
	logger  *slog.Logger

	pollInterval time.Duration
	offset       int64
}

func NewBot(client *Client, linker AccountLinker, tickets TicketLister, logger *slog.Logger) *Bot {
	interval := client.cfg.PollInterval
	if interval <= 0 {
		interval = 2 * time.Second
	}
	return &Bot{
		client:       client,
		linker:       linker,
		tickets:      tickets,
		logger:       logger,
		pollInterval: interval,
	}
}

type update struct {
	UpdateID int64 `json:"update_id"`
	Message  *struct {
		Chat struct {
			ID int64 `json:"id"`
		} `json:"chat"`
		Text    string `json:"text"`
		Contact *struct {
			PhoneNumber string `json:"phone_number"`
		} `json:"contact"`
	} `json:"message"`
}

// Run polls until the context is cancelled.
func (b *Bot) Run(ctx context.Context) error {
	if !b.client.Enabled() {
		return fmt.Errorf("telegram bot token is not configured")
	}

	b.logger.Info("telegram bot started")
	for {
		select {
		case <-ctx.Done():
			b.logger.Info("telegram bot stopped")
			return ctx.Err()
		default:
		}

		updates, err := b.getUpdates(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			b.logger.Error("telegram: getUpdates failed", "error", err)
			time.Sleep(b.pollInterval)
			continue
		}

		for _, u := range updates {
			b.offset = u.UpdateID + 1
			b.handleUpdate(ctx, u)
		}

		if len(updates) == 0 {
			time.Sleep(b.pollInterval)
		}
	}
}

func (b *Bot) getUpdates(ctx context.Context) ([]update, error) {
	url := fmt.Sprintf("%s/bot%s/getUpdates?timeout=25&offset=%d",
		b.client.cfg.APIBaseURL, b.client.cfg.BotToken, b.offset)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	httpClient := &http.Client{Timeout: 30 * time.Second}
	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var parsed apiResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 4<<20)).Decode(&parsed); err != nil {
		return nil, err
	}
	if !parsed.OK {
		return nil, fmt.Errorf("telegram API error: %s", parsed.Description)
	}

	var updates []update
	if err := json.Unmarshal(parsed.Result, &updates); err != nil {
		return nil, err
	}
	return updates, nil
}

func (b *Bot) handleUpdate(ctx context.Context, u update) {
	if u.Message == nil {
		return
	}
	chatID := u.Message.Chat.ID

	switch {
	case u.Message.Contact != nil:
		b.handleContact(ctx, chatID, u.Message.Contact.PhoneNumber)
	case strings.HasPrefix(u.Message.Text, "/start"):
		b.handleStart(ctx, chatID)
	case strings.HasPrefix(u.Message.Text, "/mytickets"):
		b.handleMyTickets(ctx, chatID)
	}
}

func (b *Bot) handleStart(ctx context.Context, chatID int64) {
	markup := map[string]interface{}{
		"keyboard": [][]map[string]interface{}{
			{{"text": "Share phone number", "request_contact": true}},
		},
		"resize_keyboard":   true,
		"one_time_keyboard": true,
	}

	err := b.client.send(ctx, sendMessageRequest{
		ChatID:      strconv.FormatInt(chatID, 10),
		Text:        "Welcome to the helpdesk bot. Share your phone number to link this chat to your portal account.",
		ReplyMarkup: markup,
	})
	if err != nil {
		b.logger.Error("telegram: failed to send greeting", "error", err, "chat_id", chatID)
	}
}

func (b *Bot) handleContact(ctx context.Context, chatID int64, phone string) {
	u, err := b.linker.FindByPhone(phone)
	if err != nil {
		b.reply(ctx, chatID, "No portal account matches this phone number. Ask an administrator to check your profile.")
		return
	}

	if err := b.linker.LinkTelegram(u.ID, chatID); err != nil {
		b.logger.Error("telegram: failed to link account", "error", err, "user_id", u.ID, "chat_id", chatID)
		b.reply(ctx, chatID, "Could not link the account, try again later.")
		return
	}

	b.logger.Info("telegram chat linked", "user_id", u.ID, "chat_id", chatID)
	b.reply(ctx, chatID, fmt.Sprintf("Done, %s. You will now receive helpdesk updates here. Try /mytickets.", u.FirstName))
}

func (b *Bot) handleMyTickets(ctx context.Context, chatID int64) {
	u, err := b.linker.FindByChatID(chatID)
	if err != nil {
		b.reply(ctx, chatID, "This chat is not linked to a portal account yet. Send /start to link it.")
		return
	}

	tickets, err := b.tickets.ListOpenForUser(u.ID)
	if err != nil {
		b.logger.Error("telegram: failed to list tickets", "error", err, "user_id", u.ID)
		b.reply(ctx, chatID, "Could not load your tickets, try again later.")
		return
	}

	if len(tickets) == 0 {
		b.reply(ctx, chatID, "You have no open tickets.")
		return
	}

	var sb strings.Builder
	sb.WriteString("Your open tickets:\n")
	for _, t := range tickets {
		fmt.Fprintf(&sb, "#%d [%s] %s\n", t.ID, t.Status, t.Title)
	}
	b.reply(ctx, chatID, sb.String())
}

func (b *Bot) reply(ctx context.Context, chatID int64, text string) {
	if err := b.client.SendMessage(ctx, strconv.FormatInt(chatID, 10), text); err != nil {
		b.logger.Error("telegram: failed to reply", "error", err, "chat_id", chatID)
	}
}
