package channel

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

var _ Fetcher = (*BotFetcher)(nil)

// BotFetcher reads channel posts through the Bot API update stream. Updates
// are not scoped to a chat, so every update is matched against the target.
type BotFetcher struct {
	token      string
	endpoint   string
	target     string
	httpClient *http.Client

	mu  sync.Mutex
	bot *tgbotapi.BotAPI
}

func NewBotFetcher(token, endpoint, target string, httpClient *http.Client) *BotFetcher {
	if endpoint == "" {
		endpoint = tgbotapi.APIEndpoint
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}

	return &BotFetcher{
		token:      token,
		endpoint:   endpoint,
		target:     target,
		httpClient: httpClient,
	}
}

func (f *BotFetcher) FetchRecent(ctx context.Context, limit int) []Message {
	if limit <= 0 || ctx.Err() != nil {
		return []Message{}
	}

	bot, err := f.connect()
	if err != nil {
		slog.Error("Telegram bot connection failed", "channel", f.target, "error", err)
		return []Message{}
	}

	// A negative offset returns the last limit updates without confirming any.
	updateCfg := tgbotapi.NewUpdate(-limit)
	updateCfg.Limit = limit

	updates, err := bot.GetUpdates(updateCfg)
	if err != nil {
		slog.Error("Telegram fetch failed", "mode", ModeBot, "channel", f.target, "error", err)
		return []Message{}
	}

	messages := make([]Message, 0, len(updates))
	for _, update := range updates {
		post := update.ChannelPost
		if post == nil {
			post = update.Message
		}
		if post == nil || post.Chat == nil {
			continue
		}

		if !MatchesTarget(f.target, post.Chat.UserName, post.Chat.ID) {
			continue
		}

		messages = append(messages, Message{
			ID:           int64(post.MessageID),
			ChatID:       post.Chat.ID,
			ChatUsername: post.Chat.UserName,
			Text:         post.Text,
			Caption:      post.Caption,
			Date:         time.Unix(int64(post.Date), 0).UTC(),
		})
	}

	slog.Debug("Telegram updates fetched", "mode", ModeBot, "updates", len(updates), "matched", len(messages))

	return messages
}

// connect creates the Bot API client on first use. A failed attempt is
// retried on the next fetch.
func (f *BotFetcher) connect() (*tgbotapi.BotAPI, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.bot != nil {
		return f.bot, nil
	}

	bot, err := tgbotapi.NewBotAPIWithClient(f.token, f.endpoint, f.httpClient)
	if err != nil {
		return nil, fmt.Errorf("failed to authorize bot: %w", err)
	}

	slog.Info("Telegram bot authorized", "username", bot.Self.UserName)
	f.bot = bot

	return bot, nil
}
