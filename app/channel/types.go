package channel

import (
	"context"
	"strconv"
	"strings"
	"time"
)

type Mode string

const (
	ModeBot  Mode = "bot"
	ModeUser Mode = "user"
	ModeFeed Mode = "feed"
)

// Message is one raw post read from the target channel, independent of the
// transport it came from.
type Message struct {
	ID           int64
	ChatID       int64
	ChatUsername string
	Text         string
	Caption      string
	Date         time.Time
}

// Body returns the message text, falling back to the media caption.
func (m Message) Body() string {
	if strings.TrimSpace(m.Text) != "" {
		return m.Text
	}
	return m.Caption
}

// Fetcher reads the most recent messages of the configured channel. Transport
// failures are logged by the implementation and yield an empty slice.
type Fetcher interface {
	FetchRecent(ctx context.Context, limit int) []Message
}

// NormalizeHandle lowercases a channel handle and strips a leading "@".
func NormalizeHandle(handle string) string {
	return strings.ToLower(strings.TrimPrefix(strings.TrimSpace(handle), "@"))
}

// MatchesTarget reports whether a chat identified by username or numeric id
// is the configured target. target is either a handle or a chat id.
func MatchesTarget(target, username string, chatID int64) bool {
	want := NormalizeHandle(target)
	if want == "" {
		return false
	}

	if username != "" && NormalizeHandle(username) == want {
		return true
	}

	if id, err := strconv.ParseInt(want, 10, 64); err == nil && id == chatID {
		return true
	}

	return false
}
