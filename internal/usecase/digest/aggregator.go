package digest

import (
	"time"

	"repo-digest/internal/domain/entity"
)

// Defaults for the consolidated feed header.
const (
	DefaultFeedBaseTitle = "GitHub"
	DefaultSiteURL       = "https://github.com"
)

// Aggregator turns classified buckets into digest entries and feeds.
type Aggregator struct {
	// BaseTitle prefixes the consolidated feed titles.
	BaseTitle string
	// SiteURL is the consolidated feed's link and id.
	SiteURL string
}

// NewAggregator creates an Aggregator. Empty arguments take the defaults.
func NewAggregator(baseTitle, siteURL string) Aggregator {
	if baseTitle == "" {
		baseTitle = DefaultFeedBaseTitle
	}
	if siteURL == "" {
		siteURL = DefaultSiteURL
	}
	return Aggregator{BaseTitle: baseTitle, SiteURL: siteURL}
}

// ActivityEntry returns the issues and pull requests entry for target, or
// nil when every bucket is empty.
func (a Aggregator) ActivityEntry(target entity.RepoTarget, b ActivityBuckets, w entity.TimeWindow, now time.Time) (*entity.DigestEntry, error) {
	if b.Empty() {
		return nil, nil
	}
	body, err := RenderActivity(b)
	if err != nil {
		return nil, err
	}
	entry := newEntry(entity.KindIssuesAndPullRequests, target, w, now, body)
	return &entry, nil
}

// ReleasesEntry returns the releases entry for target, or nil when no
// release was published in the window.
func (a Aggregator) ReleasesEntry(target entity.RepoTarget, published []entity.Release, w entity.TimeWindow, now time.Time) (*entity.DigestEntry, error) {
	if len(published) == 0 {
		return nil, nil
	}
	body, err := RenderReleases(published)
	if err != nil {
		return nil, err
	}
	entry := newEntry(entity.KindReleases, target, w, now, body)
	return &entry, nil
}

// TargetFeed wraps target's entry (if any) in its per-repository feed.
// A nil entry yields a well-formed feed with no entries.
func (a Aggregator) TargetFeed(kind entity.DigestKind, target entity.RepoTarget, entry *entity.DigestEntry, now time.Time) entity.Feed {
	feed := entity.Feed{
		Title:   target.String() + " - " + kind.Title(),
		Link:    target.URL(),
		ID:      target.URL(),
		Updated: now,
		Entries: []entity.DigestEntry{},
	}
	if entry != nil {
		feed.Entries = append(feed.Entries, *entry)
	}
	return feed
}

// Consolidate folds per-target entries into the consolidated feed. Entries
// keep the order given; nil entries are skipped.
func (a Aggregator) Consolidate(kind entity.DigestKind, entries []*entity.DigestEntry, now time.Time) entity.Feed {
	feed := entity.Feed{
		Title:   a.BaseTitle + " " + kind.Title(),
		Link:    a.SiteURL,
		ID:      a.SiteURL,
		Updated: now,
		Entries: make([]entity.DigestEntry, 0, len(entries)),
	}
	for _, e := range entries {
		if e != nil {
			feed.Entries = append(feed.Entries, *e)
		}
	}
	return feed
}

func newEntry(kind entity.DigestKind, target entity.RepoTarget, w entity.TimeWindow, now time.Time, body string) entity.DigestEntry {
	date := w.Date()
	return entity.DigestEntry{
		Title:       target.String() + " - " + kind.Title() + " - " + date,
		ID:          target.URL() + "#" + date,
		Link:        target.URL(),
		AsOf:        w.Start,
		Updated:     now,
		ContentHTML: body,
	}
}
