package builder_test

import (
	"strings"
	"testing"
	"time"

	"feedmaker/feed"
	"feedmaker/internal/builder"
	"feedmaker/internal/config"
	"feedmaker/internal/models"

	"github.com/mmcdole/gofeed"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return fixedNow }

func testChannel() config.ChannelConfig {
	return config.ChannelConfig{
		Name:        "news",
		Title:       "News & Views",
		Link:        "https://example.com",
		Description: "Daily news",
		Language:    "ru",
		Category:    "General",
		TTL:         30,
		Image:       config.ImageConfig{URL: "https://example.com/logo.png", Title: "Logo"},
		CustomTags: []config.TagConfig{
			{Name: "generator", Value: "feedmaker"},
			{Name: "docs", Value: "https://example.com/docs?a=1&amp;b=2", Raw: true},
		},
	}
}

func testEntries() []models.Entry {
	return []models.Entry{
		{
			Channel:         "news",
			Title:           "Second",
			Link:            "https://example.com/2",
			Description:     "<p>Two</p>",
			Author:          "jane@example.com (Jane)",
			Published:       fixedNow.Add(-time.Hour),
			EnclosureURL:    "https://example.com/2.mp3",
			EnclosureLength: 2048,
			EnclosureType:   "audio/mpeg",
		},
		{
			Channel:     "news",
			Title:       "First",
			Link:        "https://example.com/1",
			Description: "One",
			GUID:        "urn:news:1",
			SourceURL:   "https://other.com/rss",
			SourceName:  "Other",
			Published:   fixedNow.Add(-2 * time.Hour),
		},
	}
}

func TestBuild(t *testing.T) {
	f, err := builder.Build(testChannel(), testEntries(), fixedClock)
	require.NoError(t, err)

	out := f.String()
	require.Contains(t, out, "<title>News &amp; Views</title>")
	require.Contains(t, out, "<language>ru</language>")
	require.Contains(t, out, "<ttl>30</ttl>")
	require.Contains(t, out, "<lastBuildDate>Mon, 15 Jan 2024 10:00:00 +0000</lastBuildDate>")
	require.Contains(t, out, "<generator>feedmaker</generator>")
	require.Contains(t, out, "<docs>https://example.com/docs?a=1&amp;b=2</docs>")
	require.Contains(t, out, "<pubDate>Mon, 15 Jan 2024 09:00:00 +0000</pubDate>")
	require.Contains(t, out, `<enclosure url="https://example.com/2.mp3" length="2048" type="audio/mpeg" />`)
	require.Contains(t, out, `<source url="https://other.com/rss">Other</source>`)
	require.Contains(t, out, `<guid isPermaLink="false">urn:news:1</guid>`)
	require.Less(t, strings.Index(out, "Second"), strings.Index(out, "First"))

	parsed, err := gofeed.NewParser().ParseString(out)
	require.NoError(t, err)
	require.Equal(t, "rss", parsed.FeedType)
	require.Len(t, parsed.Items, 2)
	require.Equal(t, "<p>Two</p>", parsed.Items[0].Description)
	require.Equal(t, "https://example.com/logo.png", parsed.Image.URL)
}

func TestBuild_DefaultsAndEmpty(t *testing.T) {
	f, err := builder.Build(config.ChannelConfig{Title: "Empty"}, nil, fixedClock)
	require.NoError(t, err)
	require.Equal(t, feed.DefaultLanguage, f.Language())
	require.Equal(t, feed.DefaultEncoding, f.Encoding())
	require.Empty(t, f.Items())
	require.NotContains(t, f.String(), "<image>")
}

func TestBuild_ItemWithoutPublishedUsesClock(t *testing.T) {
	f, err := builder.Build(testChannel(), []models.Entry{{Channel: "news", Title: "Now"}}, fixedClock)
	require.NoError(t, err)
	require.Contains(t, f.String(), "<pubDate>Mon, 15 Jan 2024 10:00:00 +0000</pubDate>")
}

func TestBuild_InvalidPubDate(t *testing.T) {
	ch := testChannel()
	ch.PubDate = "not a date"

	f, err := builder.Build(ch, nil, fixedClock)
	require.ErrorIs(t, err, feed.ErrInvalidDate)
	require.NotNil(t, f)

	_, err = builder.Atom(f)
	require.ErrorIs(t, err, feed.ErrInvalidDate)
}

func TestAtom(t *testing.T) {
	f, err := builder.Build(testChannel(), testEntries(), fixedClock)
	require.NoError(t, err)

	out, err := builder.Atom(f)
	require.NoError(t, err)
	require.Contains(t, out, `xmlns="http://www.w3.org/2005/Atom"`)

	parsed, err := gofeed.NewParser().ParseString(out)
	require.NoError(t, err)
	require.Equal(t, "atom", parsed.FeedType)
	require.Equal(t, "News & Views", parsed.Title)
	require.Len(t, parsed.Items, 2)
	require.Equal(t, "https://example.com/2", parsed.Items[0].Link)
	require.Equal(t, "urn:news:1", parsed.Items[1].GUID)
	require.True(t, parsed.Items[0].UpdatedParsed.Equal(fixedNow.Add(-time.Hour)))
}

func TestJSON(t *testing.T) {
	f, err := builder.Build(testChannel(), testEntries(), fixedClock)
	require.NoError(t, err)

	out, err := builder.JSON(f)
	require.NoError(t, err)
	require.Contains(t, out, "jsonfeed.org")

	parsed, err := gofeed.NewParser().ParseString(out)
	require.NoError(t, err)
	require.Equal(t, "json", parsed.FeedType)
	require.Len(t, parsed.Items, 2)
	require.Equal(t, "First", parsed.Items[1].Title)
}
