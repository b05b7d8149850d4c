package channel

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"
)

var trailingDigits = regexp.MustCompile(`(\d+)/?$`)

var _ Fetcher = (*FeedFetcher)(nil)

// FeedFetcher reads an RSS or Atom mirror of a public channel. Item HTML is
// flattened to plain text lines so it parses like a native message.
type FeedFetcher struct {
	feedURL    string
	target     string
	userAgent  string
	httpClient *http.Client
}

func NewFeedFetcher(feedURL, target, userAgent string, httpClient *http.Client) *FeedFetcher {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}

	return &FeedFetcher{
		feedURL:    feedURL,
		target:     target,
		userAgent:  userAgent,
		httpClient: httpClient,
	}
}

func (f *FeedFetcher) FetchRecent(ctx context.Context, limit int) []Message {
	if limit <= 0 || ctx.Err() != nil {
		return []Message{}
	}

	data, err := f.fetchFeed(ctx)
	if err != nil {
		slog.Error("Telegram fetch failed", "mode", ModeFeed, "url", f.feedURL, "error", err)
		return []Message{}
	}

	parsed, err := gofeed.NewParser().Parse(bytes.NewReader(data))
	if err != nil {
		slog.Error("Telegram fetch failed", "mode", ModeFeed, "url", f.feedURL, "error", fmt.Errorf("failed to parse feed: %w", err))
		return []Message{}
	}

	username := NormalizeHandle(f.target)
	messages := make([]Message, 0, min(limit, len(parsed.Items)))
	for _, item := range parsed.Items {
		if len(messages) == limit {
			break
		}

		text := htmlToText(item.Description)
		if text == "" {
			text = htmlToText(item.Content)
		}

		msg := Message{
			ID:           itemID(item),
			ChatUsername: username,
			Text:         text,
		}
		if item.PublishedParsed != nil {
			msg.Date = item.PublishedParsed.UTC()
		}

		messages = append(messages, msg)
	}

	slog.Debug("Telegram feed fetched", "mode", ModeFeed, "items", len(parsed.Items), "messages", len(messages))

	return messages
}

func (f *FeedFetcher) fetchFeed(ctx context.Context) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", f.feedURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	if f.userAgent != "" {
		req.Header.Set("User-Agent", f.userAgent)
	}

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch feed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP error: %d %s", resp.StatusCode, resp.Status)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	return data, nil
}

// htmlToText renders post HTML as newline separated text. Link targets are
// kept next to their anchor text so "click here" lines still carry the URL.
func htmlToText(content string) string {
	if strings.TrimSpace(content) == "" {
		return ""
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(content))
	if err != nil {
		return strings.TrimSpace(content)
	}

	doc.Find("a").Each(func(_ int, s *goquery.Selection) {
		href, ok := s.Attr("href")
		if !ok || href == "" || strings.Contains(s.Text(), href) {
			return
		}
		s.SetText(strings.TrimSpace(s.Text()+" "+href))
	})
	doc.Find("br").ReplaceWithHtml("\n")
	doc.Find("p, div").AppendHtml("\n")

	return strings.TrimSpace(doc.Text())
}

// itemID takes the post number from links like https://t.me/channel/123.
func itemID(item *gofeed.Item) int64 {
	for _, candidate := range []string{item.Link, item.GUID} {
		match := trailingDigits.FindStringSubmatch(candidate)
		if match == nil {
			continue
		}
		if id, err := strconv.ParseInt(match[1], 10, 64); err == nil {
			return id
		}
	}
	return 0
}
