package parser

import (
	"context"
	"log/slog"
	"regexp"
	"strings"

	"github.com/lysyi3m/iboxtv/app/channel"
	"github.com/lysyi3m/iboxtv/app/database"
)

var downloadLinkPattern = regexp.MustCompile(`(?i)click\s+here.*?(https?://\S+)`)

// Parser turns a three line channel announcement into a Show:
//
//	<title>
//	<season/episode>
//	CLICK HERE ... <url>
type Parser struct {
	enricher Enricher
}

// NewParser returns a parser that fills poster and description from
// enricher. A nil enricher leaves them empty.
func NewParser(enricher Enricher) *Parser {
	return &Parser{enricher: enricher}
}

// Run returns nil when the message is not a show announcement.
func (p *Parser) Run(ctx context.Context, msg channel.Message) *database.Show {
	lines := splitLines(msg.Body())
	if len(lines) < 3 {
		slog.Debug("Message skipped", "message_id", msg.ID, "lines", len(lines))
		return nil
	}

	show := &database.Show{
		Title:         lines[0],
		SeasonEpisode: lines[1],
		DownloadLink:  extractDownloadLink(lines[2]),
		Popularity:    0,
	}

	if p.enricher != nil {
		meta := p.enricher.Enrich(ctx, show.Title)
		show.Poster = meta.Poster
		show.Description = meta.Description
	}

	return show
}

func splitLines(body string) []string {
	var lines []string
	for _, line := range strings.Split(body, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

func extractDownloadLink(line string) string {
	match := downloadLinkPattern.FindStringSubmatch(line)
	if match == nil {
		return ""
	}
	return strings.TrimRight(match[1], ").,!?")
}
