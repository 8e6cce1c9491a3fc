package digest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"repo-digest/internal/domain/entity"
)

var octo = entity.RepoTarget{Owner: "octo", Name: "hello"}

func TestAggregator_ActivityEntry(t *testing.T) {
	agg := NewAggregator("", "")

	t.Run("no activity yields no entry", func(t *testing.T) {
		entry, err := agg.ActivityEntry(octo, ActivityBuckets{}, window, now)
		require.NoError(t, err)
		assert.Nil(t, entry)
	})

	t.Run("any bucket yields exactly one entry", func(t *testing.T) {
		b := ActivityBuckets{IssuesUpdated: []entity.Issue{{ID: "1", Title: "t", URL: "https://github.com/octo/hello/issues/1", Number: 1}}}

		entry, err := agg.ActivityEntry(octo, b, window, now)
		require.NoError(t, err)
		require.NotNil(t, entry)

		assert.Equal(t, "octo/hello - Issues & Pull Requests - 2024-01-01", entry.Title)
		assert.Equal(t, "https://github.com/octo/hello#2024-01-01", entry.ID)
		assert.Equal(t, "https://github.com/octo/hello", entry.Link)
		assert.Equal(t, window.Start, entry.AsOf)
		assert.Equal(t, now, entry.Updated)
		assert.Contains(t, entry.ContentHTML, "<h3>Updated</h3>")
	})
}

func TestAggregator_ReleasesEntry(t *testing.T) {
	agg := NewAggregator("", "")

	entry, err := agg.ReleasesEntry(octo, nil, window, now)
	require.NoError(t, err)
	assert.Nil(t, entry)

	z := entity.Release{ID: "Z", TagName: "v1.2.0", URL: "https://github.com/octo/hello/releases/tag/v1.2.0"}
	entry, err = agg.ReleasesEntry(octo, []entity.Release{z}, window, now)
	require.NoError(t, err)
	require.NotNil(t, entry)
	assert.Equal(t, "octo/hello - Releases - 2024-01-01", entry.Title)
	assert.Equal(t, "https://github.com/octo/hello#2024-01-01", entry.ID)
	assert.Contains(t, entry.ContentHTML, ">v1.2.0</a>")
}

func TestAggregator_TargetFeed(t *testing.T) {
	agg := NewAggregator("", "")

	empty := agg.TargetFeed(entity.KindReleases, octo, nil, now)
	assert.Equal(t, "octo/hello - Releases", empty.Title)
	assert.Equal(t, "https://github.com/octo/hello", empty.Link)
	assert.Equal(t, "https://github.com/octo/hello", empty.ID)
	assert.Equal(t, now, empty.Updated)
	assert.NotNil(t, empty.Entries)
	assert.Empty(t, empty.Entries)

	entry := &entity.DigestEntry{ID: "e"}
	feed := agg.TargetFeed(entity.KindIssuesAndPullRequests, octo, entry, now)
	assert.Equal(t, "octo/hello - Issues & Pull Requests", feed.Title)
	assert.Equal(t, []entity.DigestEntry{{ID: "e"}}, feed.Entries)
}

func TestAggregator_Consolidate(t *testing.T) {
	agg := NewAggregator(".NET related GitHub", "https://example.com/digest")

	entries := []*entity.DigestEntry{{ID: "a"}, nil, {ID: "c"}}
	feed := agg.Consolidate(entity.KindIssuesAndPullRequests, entries, now)

	assert.Equal(t, ".NET related GitHub Issues & Pull Requests", feed.Title)
	assert.Equal(t, "https://example.com/digest", feed.Link)
	assert.Equal(t, "https://example.com/digest", feed.ID)
	require.Len(t, feed.Entries, 2)
	assert.Equal(t, []string{"a", "c"}, []string{feed.Entries[0].ID, feed.Entries[1].ID})
}

func TestNewAggregator_Defaults(t *testing.T) {
	agg := NewAggregator("", "")
	assert.Equal(t, DefaultFeedBaseTitle, agg.BaseTitle)
	assert.Equal(t, DefaultSiteURL, agg.SiteURL)
	assert.Equal(t, "GitHub Releases", agg.Consolidate(entity.KindReleases, nil, now).Title)
}
