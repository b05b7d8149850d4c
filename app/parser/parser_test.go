package parser

import (
	"context"
	"sync"
	"testing"

	"github.com/lysyi3m/iboxtv/app/channel"
	"github.com/lysyi3m/iboxtv/app/metadata"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubEnricher struct {
	mu     sync.Mutex
	titles []string
	result metadata.Metadata
}

func (s *stubEnricher) Enrich(_ context.Context, title string) metadata.Metadata {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.titles = append(s.titles, title)
	return s.result
}

func TestParser_Announcement(t *testing.T) {
	p := NewParser(nil)

	show := p.Run(context.Background(), channel.Message{
		Text: "Show One\nSeason 1 Episode 2\nCLICK HERE ✔️ https://t.me/showone",
	})

	require.NotNil(t, show)
	assert.Equal(t, "Show One", show.Title)
	assert.Equal(t, "Season 1 Episode 2", show.SeasonEpisode)
	assert.Equal(t, "https://t.me/showone", show.DownloadLink)
	assert.Equal(t, 0, show.Popularity)
	assert.False(t, show.IsStreamable)
	assert.Empty(t, show.Poster)
	assert.Empty(t, show.Description)
}

func TestParser_FewerThanThreeLines(t *testing.T) {
	p := NewParser(nil)

	bodies := []string{
		"",
		"Show One",
		"Show One\nSeason 1",
		"Show One\n\n   \nSeason 1\n\n",
		"   \n\t\n ",
	}

	for _, body := range bodies {
		assert.Nil(t, p.Run(context.Background(), channel.Message{Text: body}), "body %q", body)
	}
}

func TestParser_DownloadLinkIsCaseInsensitive(t *testing.T) {
	p := NewParser(nil)

	tests := []struct {
		line string
		want string
	}{
		{"CLICK HERE https://t.me/a", "https://t.me/a"},
		{"click here https://t.me/a", "https://t.me/a"},
		{"Click Here ✔️ http://example.com/x?y=1", "http://example.com/x?y=1"},
		{"👉 ClIcK   hErE to watch: https://t.me/a https://t.me/b", "https://t.me/a"},
		{"Download: https://t.me/a", ""},
		{"CLICK HERE", ""},
		{"CLICK HERE: https://t.me/x).", "https://t.me/x"},
		{"click here (https://t.me/x)!?", "https://t.me/x"},
		{"https://t.me/a CLICK HERE", ""},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			show := p.Run(context.Background(), channel.Message{Text: "Show\nSeason 1\n" + tt.line})
			require.NotNil(t, show)
			assert.Equal(t, tt.want, show.DownloadLink)
		})
	}
}

func TestParser_TrimsAndSkipsBlankLines(t *testing.T) {
	p := NewParser(nil)

	show := p.Run(context.Background(), channel.Message{
		Text: "\n  Show One  \n\n\tSeason 23 Episode 1\n   \nCLICK HERE https://t.me/showone\nextra line",
	})

	require.NotNil(t, show)
	assert.Equal(t, "Show One", show.Title)
	assert.Equal(t, "Season 23 Episode 1", show.SeasonEpisode)
	assert.Equal(t, "https://t.me/showone", show.DownloadLink)
}

func TestParser_FallsBackToCaption(t *testing.T) {
	p := NewParser(nil)

	show := p.Run(context.Background(), channel.Message{
		Caption: "Show Two\nSeason 2 Episode 1\nclick here https://t.me/showtwo",
	})

	require.NotNil(t, show)
	assert.Equal(t, "Show Two", show.Title)
	assert.Equal(t, "https://t.me/showtwo", show.DownloadLink)
}

func TestParser_Enrichment(t *testing.T) {
	enricher := &stubEnricher{result: metadata.Metadata{
		Poster:      "https://img.example.com/one.jpg",
		Description: "A show about one.",
	}}
	p := NewParser(enricher)

	show := p.Run(context.Background(), channel.Message{
		Text: "Show One\nSeason 1 Episode 2\nCLICK HERE https://t.me/showone",
	})

	require.NotNil(t, show)
	assert.Equal(t, "https://img.example.com/one.jpg", show.Poster)
	assert.Equal(t, "A show about one.", show.Description)
	assert.Equal(t, []string{"Show One"}, enricher.titles)
}

func TestParser_SkippedMessagesAreNotEnriched(t *testing.T) {
	enricher := &stubEnricher{}
	p := NewParser(enricher)

	assert.Nil(t, p.Run(context.Background(), channel.Message{Text: "Just chatting"}))
	assert.Empty(t, enricher.titles)
}
