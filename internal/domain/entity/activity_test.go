package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRelease_DisplayName(t *testing.T) {
	tests := []struct {
		name    string
		release Release
		want    string
	}{
		{name: "named release", release: Release{Name: ".NET 8.0.1", TagName: "v8.0.1"}, want: ".NET 8.0.1"},
		{name: "empty name", release: Release{Name: "", TagName: "v1.2.0"}, want: "v1.2.0"},
		{name: "whitespace name", release: Release{Name: " \t\n", TagName: "v1.2.0"}, want: "v1.2.0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.release.DisplayName())
		})
	}
}

func TestNode_IdentityIgnoresOtherFields(t *testing.T) {
	a := Issue{ID: "I_1", Title: "before", Number: 1}
	b := Issue{ID: "I_1", Title: "after edit", Number: 1, Labels: []string{"bug"}}

	var na, nb Node = a, b
	assert.Equal(t, na.NodeID(), nb.NodeID())

	var pr Node = PullRequest{ID: "PR_1"}
	var rel Node = Release{ID: "RE_1"}
	assert.Equal(t, "PR_1", pr.NodeID())
	assert.Equal(t, "RE_1", rel.NodeID())
}

func TestDigestKind(t *testing.T) {
	assert.Equal(t, "Releases", KindReleases.Title())
	assert.Equal(t, "Issues & Pull Requests", KindIssuesAndPullRequests.Title())
	assert.Equal(t, "releases.atom", KindReleases.FileName())
	assert.Equal(t, "issues-and-pull-requests.atom", KindIssuesAndPullRequests.FileName())
	assert.True(t, KindReleases.Valid())
	assert.False(t, DigestKind("commits").Valid())
}
