package feed

import (
	"bytes"
	"cmp"
	"encoding/xml"
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/lysyi3m/mail-comb/app/cfg"
	"github.com/lysyi3m/mail-comb/app/database"
)

var storedDateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999",
	"2006-01-02 15:04:05.999999-07:00",
	"2006-01-02 15:04:05-07:00",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

type Generator struct {
	now func() time.Time
}

func NewGenerator() *Generator {
	return &Generator{now: time.Now}
}

func (g *Generator) Run(articles []database.Article) (string, error) {
	c := cfg.Get()
	var buf bytes.Buffer

	buf.WriteString(`<?xml version="1.0" encoding="UTF-8"?>`)
	buf.WriteString("\n")
	buf.WriteString(`<rss version="2.0" xmlns:content="http://purl.org/rss/1.0/modules/content/" xmlns:atom="http://www.w3.org/2005/Atom">`)
	buf.WriteString("\n  <channel>\n")

	g.writeElement(&buf, "title", c.FeedTitle, 4)
	g.writeElement(&buf, "link", cmp.Or(c.FeedURL, c.BaseUrl), 4)
	g.writeElement(&buf, "description", c.FeedDescription, 4)

	var selfLink string
	if c.BaseUrl != "" {
		selfLink = fmt.Sprintf("%s/feed.xml", strings.TrimSuffix(c.BaseUrl, "/"))
	} else {
		selfLink = fmt.Sprintf("http://localhost:%s/feed.xml", c.Port)
	}
	buf.WriteString(fmt.Sprintf("    <atom:link href=\"%s\" rel=\"self\" type=\"application/rss+xml\" />\n",
		html.EscapeString(selfLink)))

	g.writeElement(&buf, "lastBuildDate", g.now().Format(time.RFC1123Z), 4)
	g.writeElement(&buf, "generator", fmt.Sprintf("Mail-Comb/%s", c.Version), 4)

	for _, article := range articles {
		g.writeItem(&buf, article)
	}

	buf.WriteString("  </channel>\n</rss>")

	return buf.String(), nil
}

func (g *Generator) writeItem(buf *bytes.Buffer, article database.Article) {
	buf.WriteString("    <item>\n")

	buf.WriteString(fmt.Sprintf("      <guid isPermaLink=\"%t\">", isHTTPURL(article.OriginalLink)))
	xml.EscapeText(buf, []byte(article.OriginalLink))
	buf.WriteString("</guid>\n")

	g.writeElement(buf, "title", cmp.Or(article.Title, article.OriginalLink), 6)
	g.writeElement(buf, "link", article.OriginalLink, 6)
	g.writeElement(buf, "description", g.description(article), 6)

	buf.WriteString("      <content:encoded><![CDATA[")
	buf.WriteString(cdataSafe(g.content(article)))
	buf.WriteString("]]></content:encoded>\n")

	g.writeElement(buf, "pubDate", g.pubDate(article.PublishedDate).Format(time.RFC1123Z), 6)

	if article.Author != "" {
		g.writeElement(buf, "author", article.Author, 6)
	}

	for _, tag := range article.Tags {
		if tag != "" {
			g.writeElement(buf, "category", tag, 6)
		}
	}

	// RSS 2.0 requires url, length and type; the image size is unknown.
	if article.ImageURL != "" {
		buf.WriteString(fmt.Sprintf("      <enclosure url=\"%s\" length=\"0\" type=\"%s\" />\n",
			html.EscapeString(article.ImageURL),
			imageType(article.ImageURL)))
	}

	buf.WriteString("    </item>\n")
}

func (g *Generator) description(article database.Article) string {
	var b strings.Builder

	fmt.Fprintf(&b, "<p><strong>Summary:</strong> %s</p>\n", html.EscapeString(article.Summary))
	fmt.Fprintf(&b, "<p><strong>Tags:</strong> %s</p>\n", html.EscapeString(strings.Join(article.Tags, ", ")))
	b.WriteString(g.metadata(article))
	if article.ImageURL != "" {
		fmt.Fprintf(&b, "<img src=\"%s\" style=\"max-width:100%%;\"/>\n<br/>\n", html.EscapeString(article.ImageURL))
	}
	fmt.Fprintf(&b, "<p><small>Via: %s</small></p>", html.EscapeString(article.EmailSource))

	return b.String()
}

func (g *Generator) content(article database.Article) string {
	var b strings.Builder

	b.WriteString(`<div style="font-style: italic; padding: 10px; border-left: 4px solid #ccc; margin-bottom: 20px;">`)
	b.WriteString("\n")
	fmt.Fprintf(&b, "<p><strong>Summary:</strong> %s</p>\n", html.EscapeString(article.Summary))
	b.WriteString(g.metadata(article))
	b.WriteString("</div>\n")
	if article.ImageURL != "" {
		fmt.Fprintf(&b, "<img src=\"%s\" style=\"max-width:100%%; margin-bottom: 20px;\"/>\n", html.EscapeString(article.ImageURL))
	}
	b.WriteString("<hr/>\n")
	b.WriteString(article.Content)

	return b.String()
}

func (g *Generator) metadata(article database.Article) string {
	readingTime := "?"
	if article.ReadingTime > 0 {
		readingTime = fmt.Sprintf("%d", article.ReadingTime)
	}

	return fmt.Sprintf("<p>\n<strong>Source:</strong> %s<br/>\n<strong>Author:</strong> %s<br/>\n<strong>Reading Time:</strong> ~%s min\n</p>\n",
		html.EscapeString(article.SourceDomain),
		html.EscapeString(cmp.Or(article.Author, "Unknown")),
		readingTime)
}

// pubDate falls back to the current time when the stored date is unreadable.
func (g *Generator) pubDate(stored string) time.Time {
	stored = strings.TrimSpace(stored)
	for _, layout := range storedDateLayouts {
		if t, err := time.ParseInLocation(layout, stored, time.Local); err == nil {
			return t
		}
	}
	return g.now()
}

func (g *Generator) writeElement(buf *bytes.Buffer, tag, content string, indent int) {
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

// A literal "]]>" would end the CDATA section early.
func cdataSafe(s string) string {
	return strings.ReplaceAll(s, "]]>", "]]]]><![CDATA[>")
}

func imageType(imageURL string) string {
	path := strings.ToLower(imageURL)
	if i := strings.IndexAny(path, "?#"); i >= 0 {
		path = path[:i]
	}

	switch {
	case strings.HasSuffix(path, ".png"):
		return "image/png"
	case strings.HasSuffix(path, ".gif"):
		return "image/gif"
	case strings.HasSuffix(path, ".webp"):
		return "image/webp"
	case strings.HasSuffix(path, ".svg"):
		return "image/svg+xml"
	default:
		return "image/jpeg"
	}
}
