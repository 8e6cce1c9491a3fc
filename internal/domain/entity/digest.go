package entity

import "time"

// DigestKind selects which digest a run produces.
type DigestKind string

const (
	// KindReleases summarizes releases published in the window.
	KindReleases DigestKind = "releases"
	// KindIssuesAndPullRequests summarizes issue and pull request activity.
	KindIssuesAndPullRequests DigestKind = "issues-and-pull-requests"
)

// Title returns the human-readable heading used in feed and entry titles.
func (k DigestKind) Title() string {
	switch k {
	case KindReleases:
		return "Releases"
	case KindIssuesAndPullRequests:
		return "Issues & Pull Requests"
	default:
		return string(k)
	}
}

// FileName returns the consolidated feed file name for the kind.
func (k DigestKind) FileName() string {
	return string(k) + ".atom"
}

// Valid reports whether k is a known digest kind.
func (k DigestKind) Valid() bool {
	return k == KindReleases || k == KindIssuesAndPullRequests
}

// DigestEntry is one synthesized feed entry. It is built once per run and
// never mutated afterwards.
type DigestEntry struct {
	Title       string
	ID          string
	Link        string
	AsOf        time.Time // window start
	Updated     time.Time // run instant
	ContentHTML string
}

// Feed is a syndication document header plus its ordered entries.
type Feed struct {
	Title   string
	Link    string
	ID      string
	Updated time.Time
	Entries []DigestEntry
}
