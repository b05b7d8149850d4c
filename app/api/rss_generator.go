package api

import (
	"bytes"
	"cmp"
	"encoding/xml"
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/lysyi3m/iboxtv/app/database"
)

// RSSGenerator renders the show catalogue as an RSS 2.0 feed.
type RSSGenerator struct {
	baseURL string
	version string
}

// NewRSSGenerator builds a generator whose self links point at baseURL.
func NewRSSGenerator(baseURL, version string) *RSSGenerator {
	return &RSSGenerator{
		baseURL: strings.TrimRight(baseURL, "/"),
		version: version,
	}
}

func (g *RSSGenerator) Run(shows []database.Show) (string, error) {
	var buf bytes.Buffer

	buf.WriteString(`<?xml version="1.0" encoding="UTF-8"?>`)
	buf.WriteString("\n")
	buf.WriteString(`<rss version="2.0" xmlns:content="http://purl.org/rss/1.0/modules/content/" xmlns:atom="http://www.w3.org/2005/Atom">`)
	buf.WriteString("\n  <channel>\n")

	g.writeElement(&buf, "title", "iBox TV", 4)
	g.writeElement(&buf, "link", g.baseURL+"/shows", 4)
	g.writeElement(&buf, "description", "Shows announced on the iBox TV channel", 4)

	buf.WriteString(fmt.Sprintf("    <atom:link href=\"%s\" rel=\"self\" type=\"application/rss+xml\" />\n",
		html.EscapeString(g.baseURL+"/shows/feed")))

	lastBuildDate := time.Now().In(time.Local)
	if len(shows) > 0 && !shows[0].CreatedAt.IsZero() {
		lastBuildDate = shows[0].CreatedAt
	}

	g.writeElement(&buf, "lastBuildDate", lastBuildDate.Format(time.RFC1123Z), 4)
	g.writeElement(&buf, "generator", fmt.Sprintf("iBoxTV/%s", g.version), 4)

	for _, show := range shows {
		g.writeItem(&buf, show)
	}

	buf.WriteString("  </channel>\n</rss>")

	return buf.String(), nil
}

func (g *RSSGenerator) writeItem(buf *bytes.Buffer, show database.Show) {
	buf.WriteString("    <item>\n")

	buf.WriteString("      <guid isPermaLink=\"false\">")
	xml.EscapeText(buf, []byte("iboxtv-show-"+show.ID))
	buf.WriteString("</guid>\n")

	title := show.Title
	if show.SeasonEpisode != "" {
		title = fmt.Sprintf("%s (%s)", show.Title, show.SeasonEpisode)
	}
	g.writeElement(buf, "title", title, 6)
	g.writeElement(buf, "link", show.DownloadLink, 6)
	g.writeElement(buf, "description", cmp.Or(show.Description, "No description available"), 6)

	if show.Poster != "" {
		buf.WriteString("      <content:encoded><![CDATA[")
		buf.WriteString(fmt.Sprintf("<img src=\"%s\" alt=\"%s\" />", html.EscapeString(show.Poster), html.EscapeString(show.Title)))
		if show.Description != "" {
			buf.WriteString("<p>")
			buf.WriteString(html.EscapeString(show.Description))
			buf.WriteString("</p>")
		}
		buf.WriteString("]]></content:encoded>\n")
	}

	if !show.CreatedAt.IsZero() {
		g.writeElement(buf, "pubDate", show.CreatedAt.Format(time.RFC1123Z), 6)
	}

	buf.WriteString("    </item>\n")
}

func (g *RSSGenerator) writeElement(buf *bytes.Buffer, tag, content string, indent int) {
	if content == "" {
		return
	}

	for i := 0; i < indent; i++ {
		buf.WriteByte(' ')
	}

	buf.WriteString("<")
	buf.WriteString(tag)
	buf.WriteString(">")
	xml.EscapeText(buf, []byte(content))
	buf.WriteString("</")
	buf.WriteString(tag)
	buf.WriteString(">\n")
}
