// Package bot delivers reminder digests to a Telegram chat.
package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
)

// MaxMessageLength is Telegram's limit on the text of a single message, in runes.
const MaxMessageLength = 4096

// ErrNoChat is returned when no destination chat is configured.
var ErrNoChat = errors.New("telegram chat id is not configured")

// Notifier sends HTML messages to one chat.
type Notifier struct {
	api    *tgbotapi.BotAPI
	chatID int64
	log    zerolog.Logger
}

// NewWithEndpoint authorizes token against endpoint, a Bot API URL format
// such as tgbotapi.APIEndpoint or a local Bot API server.
func NewWithEndpoint(token, endpoint string, chatID int64, client tgbotapi.HTTPClient, log zerolog.Logger) (*Notifier, error) {
	if strings.TrimSpace(token) == "" {
		return nil, errors.New("telegram token is not configured")
	}
	if chatID == 0 {
		return nil, ErrNoChat
	}

	api, err := tgbotapi.NewBotAPIWithClient(token, endpoint, client)
	if err != nil {
		return nil, fmt.Errorf("create bot api: %w", err)
	}

	log.Debug().Str("account", api.Self.UserName).Msg("bot authorized")

	return &Notifier{api: api, chatID: chatID, log: log}, nil
}

// Notify sends text, split into several messages when it is too long for one.
func (n *Notifier) Notify(ctx context.Context, text string) error {
	for _, chunk := range split(text, MaxMessageLength) {
		if err := ctx.Err(); err != nil {
			return err
		}
		msg := tgbotapi.NewMessage(n.chatID, chunk)
		msg.ParseMode = tgbotapi.ModeHTML
		msg.DisableWebPagePreview = true
		if _, err := n.api.Send(msg); err != nil {
			return fmt.Errorf("send message to chat %d: %w", n.chatID, err)
		}
	}
	n.log.Debug().Int64("chat", n.chatID).Msg("digest sent")
	return nil
}

// split breaks text into pieces of at most limit runes, preferring line
// boundaries. Lines longer than limit are cut at rune boundaries.
func split(text string, limit int) []string {
	if utf8.RuneCountInString(text) <= limit {
		return []string{text}
	}

	var chunks []string
	var current strings.Builder
	size := 0
	flush := func() {
		if chunk := strings.TrimRight(current.String(), "\n"); chunk != "" {
			chunks = append(chunks, chunk)
		}
		current.Reset()
		size = 0
	}

	for _, line := range strings.SplitAfter(text, "\n") {
		n := utf8.RuneCountInString(line)
		if size+n > limit {
			flush()
		}
		for n > limit {
			runes := []rune(line)
			chunks = append(chunks, string(runes[:limit]))
			line = string(runes[limit:])
			n -= limit
		}
		current.WriteString(line)
		size += n
	}
	flush()
	return chunks
}
