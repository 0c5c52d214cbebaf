// Package telegram forwards rendered query results to a Telegram chat via
// the Bot API. Results are sent as MarkdownV2 messages: a bold title followed
// by the report text in a preformatted block so tables keep their alignment.
//
// Reports longer than one Telegram message are split on line boundaries.
// Each message is delivered with linear-backoff retries.
package telegram

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/rewired-gh/incomelens/internal/logger"
)

// maxMessageLen is Telegram's limit on message text, in characters.
const maxMessageLen = 4096

// sender is the subset of tgbotapi.BotAPI the client uses.
type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Client sends reports to one chat.
type Client struct {
	bot            sender
	chatID         int64
	maxRetries     int
	retryDelayBase time.Duration
}

// NewClient creates a new Telegram client
func NewClient(botToken, chatID string, maxRetries int, retryDelayBase time.Duration) (*Client, error) {
	bot, err := tgbotapi.NewBotAPI(botToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create Telegram bot: %w", err)
	}

	chatIDInt, err := strconv.ParseInt(chatID, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid chat ID: %w", err)
	}

	return newClient(bot, chatIDInt, maxRetries, retryDelayBase), nil
}

func newClient(bot sender, chatID int64, maxRetries int, retryDelayBase time.Duration) *Client {
	if maxRetries <= 0 {
		maxRetries = 3
	}
	if retryDelayBase <= 0 {
		retryDelayBase = time.Second
	}
	return &Client{
		bot:            bot,
		chatID:         chatID,
		maxRetries:     maxRetries,
		retryDelayBase: retryDelayBase,
	}
}

// SendReport sends body under title, split over as many messages as needed.
func (c *Client) SendReport(title, body string) error {
	messages := formatMessages(title, body)
	for i, text := range messages {
		if err := c.send(text); err != nil {
			return fmt.Errorf("failed to send part %d of %d: %w", i+1, len(messages), err)
		}
	}
	logger.Debug("Sent report %q in %d message(s)", title, len(messages))
	return nil
}

func (c *Client) send(text string) error {
	msg := tgbotapi.NewMessage(c.chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdownV2

	var lastErr error
	for i := 0; i < c.maxRetries; i++ {
		_, err := c.bot.Send(msg)
		if err == nil {
			return nil
		}
		lastErr = err
		logger.Warn("Telegram send attempt %d/%d failed: %v", i+1, c.maxRetries, err)
		if i < c.maxRetries-1 {
			time.Sleep(c.retryDelayBase * time.Duration(i+1))
		}
	}

	return fmt.Errorf("failed to send message after %d retries: %w", c.maxRetries, lastErr)
}

// formatMessages renders title and body into MarkdownV2 messages no longer
// than maxMessageLen. The body is split on line boundaries; a single line
// longer than the limit is cut.
func formatMessages(title, body string) []string {
	header := "📊 *" + escapeMarkdownV2(title) + "*\n"
	const fence = "```\n"
	room := maxMessageLen - len([]rune(header)) - 2*len(fence) - len(" \\(99/99\\)")

	var chunks []string
	var cur strings.Builder
	curLen := 0
	for _, line := range strings.Split(strings.TrimRight(body, "\n"), "\n") {
		line = escapeCode(line)
		n := len([]rune(line)) + 1
		if n > room {
			line = string([]rune(line)[:room-1])
			n = room
		}
		if curLen+n > room && curLen > 0 {
			chunks = append(chunks, cur.String())
			cur.Reset()
			curLen = 0
		}
		cur.WriteString(line)
		cur.WriteString("\n")
		curLen += n
	}
	chunks = append(chunks, cur.String())

	messages := make([]string, len(chunks))
	for i, chunk := range chunks {
		h := header
		if len(chunks) > 1 {
			h = fmt.Sprintf("📊 *%s* %s\n", escapeMarkdownV2(title), escapeMarkdownV2(fmt.Sprintf("(%d/%d)", i+1, len(chunks))))
		}
		messages[i] = h + fence + chunk + fence
	}
	return messages
}

// escapeMarkdownV2 escapes special characters for Telegram MarkdownV2
func escapeMarkdownV2(text string) string {
	// Characters that need escaping in MarkdownV2:
	// _ * [ ] ( ) ~ ` > # + - = | { } . ! \
	var b strings.Builder
	for _, char := range text {
		switch char {
		case '_', '*', '[', ']', '(', ')', '~', '`', '>', '#', '+', '-', '=', '|', '{', '}', '.', '!', '\\':
			b.WriteRune('\\')
		}
		b.WriteRune(char)
	}
	return b.String()
}

// escapeCode escapes the characters that are special inside a pre block.
func escapeCode(text string) string {
	var b strings.Builder
	for _, char := range text {
		if char == '`' || char == '\\' {
			b.WriteRune('\\')
		}
		b.WriteRune(char)
	}
	return b.String()
}
