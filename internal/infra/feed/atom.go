// Package feed serializes digest feeds as Atom documents and writes them
// to disk.
package feed

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"time"

	"repo-digest/internal/domain/entity"
)

// AtomNamespace is the Atom 1.0 XML namespace.
const AtomNamespace = "http://www.w3.org/2005/Atom"

// timestampLayout is UTC with second precision and a literal Z.
const timestampLayout = "2006-01-02T15:04:05Z"

type atomFeed struct {
	XMLName xml.Name    `xml:"http://www.w3.org/2005/Atom feed"`
	Title   string      `xml:"title"`
	Link    atomLink    `xml:"link"`
	Updated string      `xml:"updated"`
	ID      string      `xml:"id"`
	Entries []atomEntry `xml:"entry"`
}

type atomLink struct {
	Href string `xml:"href,attr"`
}

type atomEntry struct {
	Title   string      `xml:"title"`
	ID      string      `xml:"id"`
	Link    atomLink    `xml:"link"`
	Updated string      `xml:"updated"`
	Content atomContent `xml:"content"`
}

type atomContent struct {
	Type string `xml:"type,attr"`
	Body string `xml:",chardata"`
}

// FormatTimestamp renders t as an Atom timestamp in UTC, e.g.
// "2024-01-02T00:05:00Z".
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(timestampLayout)
}

// Render serializes feed as an indented Atom document. Entry content is
// HTML escaped into a type="html" content element.
func Render(feed entity.Feed) ([]byte, error) {
	doc := atomFeed{
		Title:   feed.Title,
		Link:    atomLink{Href: feed.Link},
		Updated: FormatTimestamp(feed.Updated),
		ID:      feed.ID,
		Entries: make([]atomEntry, 0, len(feed.Entries)),
	}
	for _, e := range feed.Entries {
		doc.Entries = append(doc.Entries, atomEntry{
			Title:   e.Title,
			ID:      e.ID,
			Link:    atomLink{Href: e.Link},
			Updated: FormatTimestamp(e.Updated),
			Content: atomContent{Type: "html", Body: e.ContentHTML},
		})
	}

	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	enc := xml.NewEncoder(&buf)
	enc.Indent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return nil, fmt.Errorf("encode atom feed: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("encode atom feed: %w", err)
	}
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}
