package digest

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"repo-digest/internal/domain/entity"
)

func parseHTML(t *testing.T, body string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	require.NoError(t, err)
	return doc
}

func textsOf(sel *goquery.Selection) []string {
	var out []string
	sel.Each(func(_ int, s *goquery.Selection) {
		out = append(out, s.Text())
	})
	return out
}

func TestRenderActivity_SectionOrder(t *testing.T) {
	created := entity.Issue{ID: "1", Title: "New bug", URL: "https://github.com/octo/hello/issues/10", Number: 10,
		Labels: []string{"bug", "area-net"}, Milestone: "9.0.0"}
	closed := entity.Issue{ID: "2", Title: "Old bug", URL: "https://github.com/octo/hello/issues/3", Number: 3}
	updated := entity.Issue{ID: "3", Title: "Discussion", URL: "https://github.com/octo/hello/issues/5", Number: 5,
		Milestone: "Future"}
	merged := entity.PullRequest{ID: "4", Title: "Fix bug", URL: "https://github.com/octo/hello/pull/11", Number: 11,
		Labels: []string{"fix"}}

	body, err := RenderActivity(ActivityBuckets{
		IssuesCreated:      []entity.Issue{created},
		IssuesClosed:       []entity.Issue{closed},
		IssuesUpdated:      []entity.Issue{updated},
		PullRequestsMerged: []entity.PullRequest{merged},
	})
	require.NoError(t, err)

	doc := parseHTML(t, body)

	sections := doc.Find("section")
	require.Equal(t, 2, sections.Length())
	assert.Equal(t, []string{"Issues", "Pull Requests"}, textsOf(doc.Find("section > h2")))

	issues := sections.Eq(0)
	assert.Equal(t, []string{"Created", "Closed", "Updated"}, textsOf(issues.Find("h3")))
	assert.Equal(t, []string{"New bug #10", "Old bug #3", "Discussion #5"}, textsOf(issues.Find("li a")))

	href, ok := issues.Find("li a").First().Attr("href")
	require.True(t, ok)
	assert.Equal(t, "https://github.com/octo/hello/issues/10", href)

	summaries := textsOf(issues.Find("li > div:nth-child(2)"))
	assert.Equal(t, []string{"bug, area-net, 9.0.0", "", "Future"}, summaries)

	prs := sections.Eq(1)
	assert.Equal(t, []string{"Merged"}, textsOf(prs.Find("h3")), "empty buckets are omitted")
	assert.Equal(t, []string{"Fix bug #11"}, textsOf(prs.Find("li a")))
}

func TestRenderActivity_EmptyKindIsEmptyDiv(t *testing.T) {
	body, err := RenderActivity(ActivityBuckets{
		PullRequestsCreated: []entity.PullRequest{{ID: "1", Title: "Add", URL: "https://github.com/o/n/pull/1", Number: 1}},
	})
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(body, "<div></div><section>"), body)
	assert.Equal(t, 1, parseHTML(t, body).Find("section").Length())
}

func TestRenderActivity_EscapesTitles(t *testing.T) {
	body, err := RenderActivity(ActivityBuckets{
		IssuesCreated: []entity.Issue{{ID: "1", Title: `<script>alert("x")</script>`, URL: "https://github.com/o/n/issues/1", Number: 1}},
	})
	require.NoError(t, err)

	assert.NotContains(t, body, "<script>")
	doc := parseHTML(t, body)
	assert.Equal(t, 0, doc.Find("script").Length())
	assert.Equal(t, `<script>alert("x")</script> #1`, doc.Find("li a").Text())
}

func TestRenderReleases(t *testing.T) {
	releases := []entity.Release{
		{
			ID:              "Z",
			Name:            "",
			TagName:         "v1.2.0",
			URL:             "https://github.com/octo/hello/releases/tag/v1.2.0",
			DescriptionHTML: "<p>Bug <strong>fixes</strong></p>",
		},
		{
			ID:           "P",
			Name:         "Preview 1",
			TagName:      "v2.0.0-preview.1",
			URL:          "https://github.com/octo/hello/releases/tag/v2.0.0-preview.1",
			Description:  "## Highlights\n\n* faster",
			IsPrerelease: true,
		},
		{
			ID:      "E",
			Name:    "   ",
			TagName: "v0.0.1",
			URL:     "https://github.com/octo/hello/releases/tag/v0.0.1",
		},
	}

	body, err := RenderReleases(releases)
	require.NoError(t, err)

	doc := parseHTML(t, body)
	articles := doc.Find("body > div > article")
	require.Equal(t, 3, articles.Length())

	assert.Equal(t, []string{"v1.2.0", "Preview 1", "v0.0.1"}, textsOf(articles.Find("h2 > a")),
		"blank names fall back to the tag name")

	href, _ := articles.Eq(0).Find("h2 > a").Attr("href")
	assert.Equal(t, "https://github.com/octo/hello/releases/tag/v1.2.0", href)

	// Server-rendered HTML is embedded unescaped.
	assert.Equal(t, "fixes", articles.Eq(0).Find("div > p > strong").Text())

	// Prerelease marker and Markdown fallback.
	assert.Equal(t, "Preview 1 (pre-release)", articles.Eq(1).ChildrenFiltered("h2").Text())
	assert.Equal(t, "Highlights", articles.Eq(1).Find("div > h2").Text())
	assert.Equal(t, "faster", articles.Eq(1).Find("div > ul > li").Text())

	assert.Empty(t, strings.TrimSpace(articles.Eq(2).Find("div").Text()))
}

func TestSummary(t *testing.T) {
	assert.Equal(t, "", summary(nil, ""))
	assert.Equal(t, "bug", summary([]string{"bug"}, ""))
	assert.Equal(t, "v1", summary(nil, "v1"))
	assert.Equal(t, "a, b, v1", summary([]string{"a", "b"}, "v1"))
}
