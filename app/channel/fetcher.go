package channel

import (
	"fmt"
	"net/http"
	"strings"
)

type Options struct {
	Mode    Mode
	Channel string

	BotToken    string
	BotEndpoint string

	AppID       int
	AppHash     string
	SessionFile string

	FeedURL   string
	UserAgent string

	HTTPClient *http.Client
}

// NewFetcher builds the fetcher for opts.Mode. The mode is fixed for the
// lifetime of the process.
func NewFetcher(opts Options) (Fetcher, error) {
	if NormalizeHandle(opts.Channel) == "" {
		return nil, fmt.Errorf("telegram channel is required")
	}

	switch opts.Mode {
	case ModeBot:
		if strings.TrimSpace(opts.BotToken) == "" {
			return nil, fmt.Errorf("bot mode requires a bot token")
		}
		return NewBotFetcher(opts.BotToken, opts.BotEndpoint, opts.Channel, opts.HTTPClient), nil

	case ModeUser:
		if opts.AppID == 0 || opts.AppHash == "" || opts.SessionFile == "" {
			return nil, fmt.Errorf("user mode requires app id, app hash and session file")
		}
		return NewUserFetcher(opts.AppID, opts.AppHash, opts.SessionFile, opts.Channel), nil

	case ModeFeed:
		if opts.FeedURL == "" {
			return nil, fmt.Errorf("feed mode requires a feed url")
		}
		return NewFeedFetcher(opts.FeedURL, opts.Channel, opts.UserAgent, opts.HTTPClient), nil

	default:
		return nil, fmt.Errorf("unknown telegram mode %q", opts.Mode)
	}
}
