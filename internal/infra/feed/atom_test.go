package feed

import (
	"bytes"
	"encoding/xml"
	"html"
	"strings"
	"testing"
	"time"

	"github.com/mmcdole/gofeed/atom"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"repo-digest/internal/domain/entity"
)

var runInstant = time.Date(2024, 1, 2, 0, 5, 9, 123456789, time.UTC)

func sampleFeed() entity.Feed {
	return entity.Feed{
		Title:   "octo/hello - Releases",
		Link:    "https://github.com/octo/hello",
		ID:      "https://github.com/octo/hello",
		Updated: runInstant,
		Entries: []entity.DigestEntry{{
			Title:       "octo/hello - Releases - 2024-01-01",
			ID:          "https://github.com/octo/hello#2024-01-01",
			Link:        "https://github.com/octo/hello",
			AsOf:        time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
			Updated:     runInstant,
			ContentHTML: `<div><article><h2><a href="https://github.com/octo/hello/releases/v1">v1</a></h2></article></div>`,
		}},
	}
}

func TestFormatTimestamp(t *testing.T) {
	tokyo := time.FixedZone("JST", 9*60*60)
	assert.Equal(t, "2024-01-02T00:05:09Z", FormatTimestamp(runInstant))
	assert.Equal(t, "2024-01-02T00:05:09Z", FormatTimestamp(runInstant.In(tokyo)))
}

func TestRender_ParsesAsAtom(t *testing.T) {
	data, err := Render(sampleFeed())
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte(xml.Header)))

	parsed, err := (&atom.Parser{}).Parse(bytes.NewReader(data))
	require.NoError(t, err)

	assert.Equal(t, "octo/hello - Releases", parsed.Title)
	assert.Equal(t, "https://github.com/octo/hello", parsed.ID)
	assert.Equal(t, "2024-01-02T00:05:09Z", parsed.Updated)
	require.Len(t, parsed.Links, 1)
	assert.Equal(t, "https://github.com/octo/hello", parsed.Links[0].Href)

	require.Len(t, parsed.Entries, 1)
	entry := parsed.Entries[0]
	assert.Equal(t, "octo/hello - Releases - 2024-01-01", entry.Title)
	assert.Equal(t, "https://github.com/octo/hello#2024-01-01", entry.ID)
	assert.Equal(t, "2024-01-02T00:05:09Z", entry.Updated)
	require.Len(t, entry.Links, 1)
	assert.Equal(t, "https://github.com/octo/hello", entry.Links[0].Href)
	require.NotNil(t, entry.Content)
	assert.Equal(t, "html", entry.Content.Type)
	assert.Equal(t, sampleFeed().Entries[0].ContentHTML, html.UnescapeString(entry.Content.Value))
}

func TestRender_ContentIsEscaped(t *testing.T) {
	data, err := Render(sampleFeed())
	require.NoError(t, err)

	text := string(data)
	assert.Contains(t, text, `xmlns="http://www.w3.org/2005/Atom"`)
	assert.Contains(t, text, `<content type="html">&lt;div&gt;`)
	assert.NotContains(t, text, "<article>")

	var decoded atomFeed
	require.NoError(t, xml.Unmarshal(data, &decoded))
	require.Len(t, decoded.Entries, 1)
	assert.Equal(t, sampleFeed().Entries[0].ContentHTML, decoded.Entries[0].Content.Body)
}

func TestRender_EmptyFeed(t *testing.T) {
	feed := sampleFeed()
	feed.Entries = nil

	data, err := Render(feed)
	require.NoError(t, err)
	assert.False(t, strings.Contains(string(data), "<entry>"))

	parsed, err := (&atom.Parser{}).Parse(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, "octo/hello - Releases", parsed.Title)
	assert.Empty(t, parsed.Entries)
}

func TestRender_EntriesKeepOrder(t *testing.T) {
	feed := sampleFeed()
	second := feed.Entries[0]
	second.Title = "octo/world - Releases - 2024-01-01"
	second.ID = "https://github.com/octo/world#2024-01-01"
	feed.Entries = append(feed.Entries, second)

	data, err := Render(feed)
	require.NoError(t, err)

	parsed, err := (&atom.Parser{}).Parse(bytes.NewReader(data))
	require.NoError(t, err)
	require.Len(t, parsed.Entries, 2)
	assert.Equal(t, "https://github.com/octo/hello#2024-01-01", parsed.Entries[0].ID)
	assert.Equal(t, "https://github.com/octo/world#2024-01-01", parsed.Entries[1].ID)
}
