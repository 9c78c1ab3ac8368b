package feed_test

import (
	"encoding/xml"
	"strings"
	"testing"
	"time"

	"feedmaker/feed"

	"github.com/mmcdole/gofeed"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return fixedNow }

func TestNew_Defaults(t *testing.T) {
	f := feed.New(feed.WithClock(fixedClock))

	require.Equal(t, "en", f.Language())
	require.Equal(t, "utf-8", f.Encoding())
	require.Equal(t, "Mon, 15 Jan 2024 10:00:00 +0000", f.LastBuildDate())
	require.Empty(t, f.PubDate())
	require.Zero(t, f.TTL())
	require.NoError(t, f.Err())

	out := f.String()
	require.True(t, strings.HasPrefix(out, `<?xml version="1.0" encoding="utf-8"?>`+"\n"+
		`<rss version="2.0" xmlns:dc="http://purl.org/dc/elements/1.1/">`+"\n<channel>\n"))
	require.True(t, strings.HasSuffix(out, "</channel>\n</rss>"))
	require.Contains(t, out, "<language>en</language>\n")
	require.Contains(t, out, "<lastBuildDate>Mon, 15 Jan 2024 10:00:00 +0000</lastBuildDate>\n")
	require.NotContains(t, out, "<pubDate>")
}

func TestString_EmptyFeed(t *testing.T) {
	out := feed.New(feed.WithClock(fixedClock)).String()

	require.Equal(t, 1, strings.Count(out, "<channel>"))
	require.Equal(t, 1, strings.Count(out, "</channel>"))
	require.NotContains(t, out, "<item>")
	require.Contains(t, out, "<title/>\n")
	require.Contains(t, out, "<link/>\n")
	require.NotContains(t, out, "</link>")
	require.Contains(t, out, "<description/>\n")
}

func TestString_ChannelFieldOrder(t *testing.T) {
	f := feed.New(feed.WithClock(fixedClock)).
		SetTitle("Title").
		SetLink("https://e.com").
		SetDescription("Desc").
		SetPubDate("2024-01-14").
		SetWebmaster("web@e.com").
		SetCopyright("(c) e.com").
		SetCategory("News").
		SetTTL(60).
		SetImage(feed.Image{Title: "Logo", URL: "https://e.com/logo.png", Link: "https://e.com"}).
		AddCustomTag("dc:publisher", "E")
	f.AddItem(feed.NewItem().SetTitle("Hi"))

	out := f.String()
	order := []string{
		"<title>Title</title>",
		"<link>https://e.com</link>",
		"<description>Desc</description>",
		"<language>en</language>",
		"<lastBuildDate>",
		"<pubDate>Sun, 14 Jan 2024 00:00:00 +0000</pubDate>",
		"<webMaster>web@e.com</webMaster>",
		"<copyright>(c) e.com</copyright>",
		"<category>News</category>",
		"<ttl>60</ttl>",
		"<image>",
		"<dc:publisher>E</dc:publisher>",
		"<item>",
		"</channel>",
	}
	last := -1
	for _, want := range order {
		idx := strings.Index(out, want)
		require.NotEqual(t, -1, idx, "missing %s", want)
		require.Greater(t, idx, last, "%s out of order", want)
		last = idx
	}
}

func TestString_CategoryUsesOwnValue(t *testing.T) {
	out := feed.New().SetCopyright("ACME").SetCategory("Tech").String()

	require.Contains(t, out, "<category>Tech</category>")
	require.Contains(t, out, "<copyright>ACME</copyright>")
	require.NotContains(t, out, "<category>ACME</category>")
}

func TestString_TTL(t *testing.T) {
	f := feed.New()
	require.NotContains(t, f.String(), "<ttl>")

	f.SetTTL(120)
	require.Contains(t, f.String(), "<ttl>120</ttl>")

	f.SetTTL(-5)
	require.Zero(t, f.TTL())
	require.NotContains(t, f.String(), "<ttl>")
}

func TestString_OptionalChannelFields(t *testing.T) {
	out := feed.New().SetLanguage("").String()

	for _, tag := range []string{"<language>", "<webMaster>", "<copyright>", "<category>", "<image>"} {
		assert.NotContains(t, out, tag)
	}
}

func TestString_Image(t *testing.T) {
	out := feed.New().SetImage(feed.Image{URL: "https://e.com/logo.png"}).String()

	require.Contains(t, out, "<image>\n  <url>https://e.com/logo.png</url>\n</image>\n")

	out = feed.New().SetImage(feed.Image{}).String()
	require.NotContains(t, out, "<image>")
}

func TestAddCustomTag(t *testing.T) {
	f := feed.New()
	f.AddCustomTag("dc:creator", "Jane")

	out := f.String()
	require.Equal(t, 1, strings.Count(out, "<dc:creator>Jane</dc:creator>"))

	f.AddCustomTag("generator", "feedmaker")
	f.AddCustomTag("dc:creator", "John")

	out = f.String()
	require.NotContains(t, out, "Jane")
	require.Equal(t, 1, strings.Count(out, "<dc:creator>"))
	require.Less(t, strings.Index(out, "<dc:creator>John</dc:creator>"), strings.Index(out, "<generator>feedmaker</generator>"))

	tags := f.CustomTags()
	require.Len(t, tags, 2)
	require.Equal(t, "dc:creator", tags[0].Name)
	require.Equal(t, "John", tags[0].Value)
}

func TestAddCustomTag_EmptyNameIgnored(t *testing.T) {
	f := feed.New().AddCustomTag("", "x")

	require.Empty(t, f.CustomTags())
	require.NotContains(t, f.String(), "<>")
}

func TestAddCustomTag_Escaping(t *testing.T) {
	f := feed.New().
		AddCustomTag("dc:rights", "Tom & Jerry <3").
		AddRawCustomTag("atom:link", `<x href="a"/>`)

	out := f.String()
	require.Contains(t, out, "<dc:rights>Tom &amp; Jerry &lt;3</dc:rights>")
	require.Contains(t, out, `<atom:link><x href="a"/></atom:link>`)
}

func TestString_EscapesChannelText(t *testing.T) {
	f := feed.New().
		SetTitle("Q&A <live>").
		SetLink("https://e.com/?a=1&b=2").
		SetWebmaster(`"ops" <ops@e.com>`)

	out := f.String()
	require.Contains(t, out, "<title>Q&amp;A &lt;live&gt;</title>")
	require.Contains(t, out, "<link>https://e.com/?a=1&amp;b=2</link>")
	require.Contains(t, out, "<webMaster>&quot;ops&quot; &lt;ops@e.com&gt;</webMaster>")

	var doc struct {
		Channel struct {
			Title string `xml:"title"`
			Link  string `xml:"link"`
		} `xml:"channel"`
	}
	require.NoError(t, xml.Unmarshal([]byte(out), &doc))
	require.Equal(t, "Q&A <live>", doc.Channel.Title)
	require.Equal(t, "https://e.com/?a=1&b=2", doc.Channel.Link)
}

func TestAddItem_PreservesOrder(t *testing.T) {
	f := feed.New()
	for _, title := range []string{"A", "B", "C"} {
		f.AddItem(feed.NewItem().SetTitle(title))
	}
	f.AddItem(nil)

	out := f.String()
	a := strings.Index(out, "<![CDATA[A]]>")
	b := strings.Index(out, "<![CDATA[B]]>")
	c := strings.Index(out, "<![CDATA[C]]>")
	require.True(t, a >= 0 && a < b && b < c)
	require.Equal(t, 3, strings.Count(out, "<item>"))
	require.Len(t, f.Items(), 3)
}

func TestAddItem_InheritsClock(t *testing.T) {
	f := feed.New(feed.WithClock(fixedClock))
	f.AddItem(feed.NewItem().SetLink("https://e.com/1"))

	require.Contains(t, f.String(), "<pubDate>Mon, 15 Jan 2024 10:00:00 +0000</pubDate>")
}

func TestDateSetters_InvalidInput(t *testing.T) {
	f := feed.New(feed.WithClock(fixedClock)).
		SetPubDate("2024-01-01").
		SetPubDate("not a date").
		SetLastBuildDate("also not a date").
		SetTitle("still chained")

	require.Equal(t, "Mon, 1 Jan 2024 00:00:00 +0000", f.PubDate())
	require.Equal(t, "Mon, 15 Jan 2024 10:00:00 +0000", f.LastBuildDate())
	require.Equal(t, "still chained", f.Title())
	require.ErrorIs(t, f.Err(), feed.ErrInvalidDate)
	require.Contains(t, f.Err().Error(), "not a date")
}

func TestDateSetters_EmptyMeansNow(t *testing.T) {
	f := feed.New(feed.WithClock(fixedClock)).SetPubDate("").SetLastBuildDate("")

	require.Equal(t, "Mon, 15 Jan 2024 10:00:00 +0000", f.PubDate())
	require.Equal(t, "Mon, 15 Jan 2024 10:00:00 +0000", f.LastBuildDate())
}

func TestErr_IncludesItems(t *testing.T) {
	f := feed.New()
	f.AddItem(feed.NewItem().SetPubDate("yesterday-ish"))

	require.ErrorIs(t, f.Err(), feed.ErrInvalidDate)
}

func TestString_RoundTrip(t *testing.T) {
	f := feed.New(feed.WithClock(fixedClock)).
		SetTitle("Test").
		SetLink("https://e.com").
		SetDescription("Desc").
		SetCategory("News").
		SetCopyright("ACME")
	f.AddItem(feed.NewItem().
		SetTitle("Hi").
		SetLink("https://e.com/1").
		SetDescription("<p>Hello & welcome</p>").
		SetPubDate("2024-01-15T10:00:00Z").
		SetEnclosure(feed.Enclosure{URL: "https://e.com/a.mp3", Length: 1024, Type: "audio/mpeg"}).
		AddCustomTag("dc:creator", "Jane"))

	out := f.String()

	var doc struct {
		XMLName xml.Name `xml:"rss"`
		Version string   `xml:"version,attr"`
		Channel struct {
			Title string `xml:"title"`
			Items []struct {
				Title string `xml:"title"`
				Link  string `xml:"link"`
			} `xml:"item"`
		} `xml:"channel"`
	}
	require.NoError(t, xml.Unmarshal([]byte(out), &doc))
	require.Equal(t, "2.0", doc.Version)
	require.Equal(t, "Test", doc.Channel.Title)
	require.Len(t, doc.Channel.Items, 1)
	require.Equal(t, "Hi", doc.Channel.Items[0].Title)

	parsed, err := gofeed.NewParser().ParseString(out)
	require.NoError(t, err)
	assert.Equal(t, "Test", parsed.Title)
	assert.Equal(t, "https://e.com", parsed.Link)
	assert.Equal(t, "Desc", parsed.Description)
	assert.Equal(t, "ACME", parsed.Copyright)
	assert.Equal(t, []string{"News"}, parsed.Categories)
	require.Len(t, parsed.Items, 1)

	item := parsed.Items[0]
	assert.Equal(t, "Hi", item.Title)
	assert.Equal(t, "https://e.com/1", item.Link)
	assert.Equal(t, "https://e.com/1", item.GUID)
	assert.Equal(t, "<p>Hello & welcome</p>", item.Description)
	require.NotNil(t, item.PublishedParsed)
	assert.True(t, item.PublishedParsed.Equal(fixedNow))
	require.Len(t, item.Enclosures, 1)
	assert.Equal(t, "https://e.com/a.mp3", item.Enclosures[0].URL)
	assert.Equal(t, "1024", item.Enclosures[0].Length)
	assert.Equal(t, "audio/mpeg", item.Enclosures[0].Type)
	require.NotEmpty(t, item.Extensions["dc"]["creator"])
	assert.Equal(t, "Jane", item.Extensions["dc"]["creator"][0].Value)
}

func TestSetEncoding(t *testing.T) {
	out := feed.New().SetEncoding("ISO-8859-1").String()

	require.True(t, strings.HasPrefix(out, `<?xml version="1.0" encoding="ISO-8859-1"?>`))
}
