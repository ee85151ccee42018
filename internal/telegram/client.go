package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/helpdeskhq/helpdesk-portal/internal"
	"github.com/helpdeskhq/helpdesk-portal/internal/user"
)

// UserDirectory resolves portal accounts to telegram chats.
type UserDirectory interface {
	GetByID(id int64) (*user.User, error)
	ListByRole(role string) ([]*user.User, error)
	ListByDepartment(department string) ([]*user.User, error)
}

// Client talks to the Bot API over plain HTTP. When no bot token is
// configured every send is a silent no-op, so the rest of the portal never
// has to care whether the relay is on.
type Client struct {
	cfg    internal.TelegramConfig
	http   *http.Client
	users  UserDirectory
	logger *slog.Logger
}

func NewClient(cfg internal.TelegramConfig, users UserDirectory, logger *slog.Logger) *Client {
	return &Client{
		cfg:    cfg,
		http:   &http.Client{Timeout: cfg.SendTimeout},
		users:  users,
		logger: logger,
	}
}

func (c *Client) Enabled() bool {
	return c.cfg.Enabled()
}

type sendMessageRequest struct {
	ChatID      string      `json:"chat_id"`
	Text        string      `json:"text"`
	ParseMode   string      `json:"parse_mode,omitempty"`
	ReplyMarkup interface{} `json:"reply_markup,omitempty"`
}

type apiResponse struct {
	OK          bool            `json:"ok"`
	Description string          `json:"description"`
	Result      json.RawMessage `json:"result"`
}

// SendMessage posts a Markdown message to a chat.
func (c *Client) SendMessage(ctx context.Context, chatID, text string) error {
	return c.send(ctx, sendMessageRequest{ChatID: chatID, Text: text, ParseMode: "Markdown"})
}

func (c *Client) send(ctx context.Context, msg sendMessageRequest) error {
	if !c.Enabled() {
		return nil
	}

	body, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	url := fmt.Sprintf("%s/bot%s/sendMessage", c.cfg.APIBaseURL, c.cfg.BotToken)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	var parsed apiResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&parsed); err != nil {
		return err
	}
	if !parsed.OK {
		return fmt.Errorf("telegram API error: %s", parsed.Description)
	}
	return nil
}

// SendToUser delivers to the user's linked chat. Users without a linked
// telegram account are skipped silently.
func (c *Client) SendToUser(ctx context.Context, userID int64, text string) {
	if !c.Enabled() {
		return
	}

	u, err := c.users.GetByID(userID)
	if err != nil {
		c.logger.Warn("telegram: recipient not found", "user_id", userID)
		return
	}
	if u.TelegramChatID == nil {
		return
	}

	if err := c.SendMessage(ctx, strconv.FormatInt(*u.TelegramChatID, 10), text); err != nil {
		c.logger.Error("telegram: failed to send message", "error", err, "user_id", userID)
	}
}

// SendToRole fans the message out to every linked holder of a role. A
// failed recipient never stops the batch.
func (c *Client) SendToRole(ctx context.Context, role, text string) {
	if !c.Enabled() {
		return
	}

	users, err := c.users.ListByRole(role)
	if err != nil {
		c.logger.Error("telegram: failed to list role recipients", "error", err, "role", role)
		return
	}
	c.sendToAll(ctx, users, text)
}

func (c *Client) SendToDepartment(ctx context.Context, department, text string) {
	if !c.Enabled() {
		return
	}

	users, err := c.users.ListByDepartment(department)
	if err != nil {
		c.logger.Error("telegram: failed to list department recipients", "error", err, "department", department)
		return
	}
	c.sendToAll(ctx, users, text)
}

func (c *Client) sendToAll(ctx context.Context, users []*user.User, text string) {
	for _, u := range users {
		if u.TelegramChatID == nil {
			continue
		}
		if err := c.SendMessage(ctx, strconv.FormatInt(*u.TelegramChatID, 10), text); err != nil {
			c.logger.Error("telegram: failed to send message", "error", err, "user_id", u.ID)
		}
	}
}

// SendToGroup posts to the shared support chat.
func (c *Client) SendToGroup(ctx context.Context, text string) {
	if !c.Enabled() || c.cfg.GroupChatID == "" {
		return
	}
	if err := c.SendMessage(ctx, c.cfg.GroupChatID, text); err != nil {
		c.logger.Error("telegram: failed to send group message", "error", err)
	}
}
