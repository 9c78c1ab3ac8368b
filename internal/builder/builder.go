// Package builder собирает ленту канала из записей хранилища.
package builder

import (
	"strconv"
	"time"

	"feedmaker/feed"
	"feedmaker/internal/config"
	"feedmaker/internal/models"

	"github.com/gorilla/feeds"
)

// Build заполняет Feed настройками канала ch и записями entries.
// Возвращает ленту вместе с первой ошибкой разбора дат, если она была.
func Build(ch config.ChannelConfig, entries []models.Entry, clock feed.Clock) (*feed.Feed, error) {
	var opts []feed.Option
	if clock != nil {
		opts = append(opts, feed.WithClock(clock))
	}

	f := feed.New(opts...).
		SetTitle(ch.Title).
		SetLink(ch.Link).
		SetDescription(ch.Description).
		SetCopyright(ch.Copyright).
		SetWebmaster(ch.Webmaster).
		SetCategory(ch.Category).
		SetTTL(ch.TTL).
		SetImage(feed.Image{Title: ch.Image.Title, URL: ch.Image.URL, Link: ch.Image.Link})
	if ch.Language != "" {
		f.SetLanguage(ch.Language)
	}
	if ch.Encoding != "" {
		f.SetEncoding(ch.Encoding)
	}
	if ch.PubDate != "" {
		f.SetPubDate(ch.PubDate)
	}
	for _, tag := range ch.CustomTags {
		if tag.Raw {
			f.AddRawCustomTag(tag.Name, tag.Value)
		} else {
			f.AddCustomTag(tag.Name, tag.Value)
		}
	}

	for _, e := range entries {
		f.AddItem(itemFromEntry(e))
	}
	return f, f.Err()
}

func itemFromEntry(e models.Entry) *feed.Item {
	item := feed.NewItem().
		SetTitle(e.Title).
		SetLink(e.Link).
		SetDescription(e.Description).
		SetAuthor(e.Author).
		SetCategory(e.Category).
		SetComments(e.Comments).
		SetGUID(e.GUID).
		SetSource(feed.Source{URL: e.SourceURL, Name: e.SourceName}).
		SetEnclosure(feed.Enclosure{URL: e.EnclosureURL, Length: e.EnclosureLength, Type: e.EnclosureType})
	if !e.Published.IsZero() {
		item.SetPubDateTime(e.Published)
	}
	return item
}

// Atom выводит ленту в формате Atom 1.0.
func Atom(f *feed.Feed) (string, error) {
	if err := f.Err(); err != nil {
		return "", err
	}
	return toGorilla(f).ToAtom()
}

// JSON выводит ленту в формате JSON Feed.
func JSON(f *feed.Feed) (string, error) {
	if err := f.Err(); err != nil {
		return "", err
	}
	return toGorilla(f).ToJSON()
}

func toGorilla(f *feed.Feed) *feeds.Feed {
	built := parseOr(f.LastBuildDate(), time.Now())
	out := &feeds.Feed{
		Title:       f.Title(),
		Link:        &feeds.Link{Href: f.Link()},
		Description: f.Description(),
		Copyright:   f.Copyright(),
		Updated:     built,
		Created:     parseOr(f.PubDate(), time.Time{}),
		Id:          f.Link(),
	}
	if f.Webmaster() != "" {
		out.Author = &feeds.Author{Email: f.Webmaster()}
	}
	if img := f.Image(); !img.IsZero() {
		out.Image = &feeds.Image{Url: img.URL, Title: img.Title, Link: img.Link}
	}

	for _, item := range f.Items() {
		published := parseOr(item.PubDate(), built)
		gi := &feeds.Item{
			Title:       item.Title(),
			Link:        &feeds.Link{Href: item.Link()},
			Description: item.Description(),
			Id:          item.GUID(),
			Created:     published,
			Updated:     published,
		}
		if item.Author() != "" {
			gi.Author = &feeds.Author{Name: item.Author()}
		}
		if src := item.Source(); src.URL != "" {
			gi.Source = &feeds.Link{Href: src.URL}
		}
		if enc := item.Enclosure(); !enc.IsZero() {
			gi.Enclosure = &feeds.Enclosure{Url: enc.URL, Length: strconv.FormatInt(enc.Length, 10), Type: enc.Type}
		}
		out.Items = append(out.Items, gi)
	}
	return out
}

func parseOr(formatted string, fallback time.Time) time.Time {
	if formatted == "" {
		return fallback
	}
	t, err := time.Parse(feed.DateLayout, formatted)
	if err != nil {
		return fallback
	}
	return t
}
