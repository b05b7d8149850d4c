package channel

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/gotd/td/session"
	"github.com/gotd/td/telegram"
	"github.com/gotd/td/telegram/message/peer"
	"github.com/gotd/td/tg"
)

// ErrUnauthorized means the MTProto session file holds no logged-in account.
// Sessions are created out of band; this service never runs a login flow.
var ErrUnauthorized = errors.New("telegram session is not authorized")

var _ Fetcher = (*UserFetcher)(nil)

// UserFetcher reads channel history with a full-account MTProto session.
// Each fetch opens a connection, reads the history and disconnects.
type UserFetcher struct {
	appID       int
	appHash     string
	sessionPath string
	target      string
}

func NewUserFetcher(appID int, appHash, sessionPath, target string) *UserFetcher {
	return &UserFetcher{
		appID:       appID,
		appHash:     appHash,
		sessionPath: sessionPath,
		target:      target,
	}
}

func (f *UserFetcher) FetchRecent(ctx context.Context, limit int) []Message {
	if limit <= 0 || ctx.Err() != nil {
		return []Message{}
	}

	client := telegram.NewClient(f.appID, f.appHash, telegram.Options{
		SessionStorage: &session.FileStorage{Path: f.sessionPath},
		NoUpdates:      true,
	})

	var messages []Message
	err := client.Run(ctx, func(ctx context.Context) error {
		status, err := client.Auth().Status(ctx)
		if err != nil {
			return fmt.Errorf("failed to get auth status: %w", err)
		}
		if !status.Authorized {
			return ErrUnauthorized
		}

		api := client.API()
		handle := NormalizeHandle(f.target)

		inputPeer, err := peer.DefaultResolver(api).ResolveDomain(ctx, handle)
		if err != nil {
			return fmt.Errorf("failed to resolve channel %q: %w", handle, err)
		}

		history, err := api.MessagesGetHistory(ctx, &tg.MessagesGetHistoryRequest{
			Peer:  inputPeer,
			Limit: limit,
		})
		if err != nil {
			return fmt.Errorf("failed to get history: %w", err)
		}

		messages = historyMessages(history, peerID(inputPeer), handle)
		return nil
	})
	if err != nil {
		slog.Error("Telegram fetch failed", "mode", ModeUser, "channel", f.target, "error", err)
		return []Message{}
	}

	slog.Debug("Telegram history fetched", "mode", ModeUser, "messages", len(messages))

	return messages
}

func peerID(inputPeer tg.InputPeerClass) int64 {
	switch p := inputPeer.(type) {
	case *tg.InputPeerChannel:
		return p.ChannelID
	case *tg.InputPeerChat:
		return p.ChatID
	case *tg.InputPeerUser:
		return p.UserID
	default:
		return 0
	}
}

func historyMessages(history tg.MessagesMessagesClass, chatID int64, username string) []Message {
	var raw []tg.MessageClass
	switch h := history.(type) {
	case *tg.MessagesMessages:
		raw = h.Messages
	case *tg.MessagesMessagesSlice:
		raw = h.Messages
	case *tg.MessagesChannelMessages:
		raw = h.Messages
	}

	messages := make([]Message, 0, len(raw))
	for _, m := range raw {
		msg, ok := m.(*tg.Message)
		if !ok {
			continue
		}

		// MTProto carries media captions in the message text itself.
		messages = append(messages, Message{
			ID:           int64(msg.ID),
			ChatID:       chatID,
			ChatUsername: username,
			Text:         msg.Message,
			Date:         time.Unix(int64(msg.Date), 0).UTC(),
		})
	}

	return messages
}
