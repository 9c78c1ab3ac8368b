// Package feed собирает документы RSS 2.0.
//
// Feed хранит метаданные канала и упорядоченный список Item. Оба типа -
// изменяемые построители: сеттер меняет значение на месте и возвращает его,
// поэтому документ описывается одной цепочкой и выводится через String.
//
// Текст экранируется везде, кроме заголовков и описаний элементов, которые
// пишутся в CDATA, и тегов, добавленных через AddRawCustomTag.
package feed

import (
	"errors"
	"strconv"
	"strings"
	"time"
)

const (
	DefaultLanguage = "en"
	DefaultEncoding = "utf-8"

	// DublinCoreNS объявляется на корневом элементе для тегов dc:*.
	DublinCoreNS = "http://purl.org/dc/elements/1.1/"
)

// Image - логотип канала.
type Image struct {
	Title string
	URL   string
	Link  string
}

// IsZero сообщает, что ни одно поле не задано.
func (i Image) IsZero() bool {
	return i.Title == "" && i.URL == "" && i.Link == ""
}

// Option настраивает Feed или Item.
type Option func(*options)

type options struct {
	clock Clock
}

// WithClock заменяет time.Now как источник текущего времени.
func WithClock(clock Clock) Option {
	return func(o *options) {
		o.clock = clock
	}
}

func applyOptions(opts []Option) options {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Feed - канал RSS и его элементы.
type Feed struct {
	title         string
	link          string
	description   string
	lastBuildDate string
	pubDate       string
	copyright     string
	webmaster     string
	category      string
	language      string
	encoding      string
	ttl           int
	image         Image
	items         []*Item
	tags          customTags

	clock Clock
	err   error
}

// New создаёт ленту с языком "en", кодировкой "utf-8" и датой
// последней сборки, равной текущему времени.
func New(opts ...Option) *Feed {
	o := applyOptions(opts)
	f := &Feed{
		language: DefaultLanguage,
		encoding: DefaultEncoding,
		clock:    o.clock,
	}
	f.lastBuildDate = FormatDate(f.now())
	return f
}

func (f *Feed) now() time.Time {
	if f.clock == nil {
		return time.Now()
	}
	return f.clock()
}

// SetTitle задаёт заголовок канала.
func (f *Feed) SetTitle(title string) *Feed {
	f.title = title
	return f
}

// SetLink задаёт адрес сайта канала.
func (f *Feed) SetLink(link string) *Feed {
	f.link = link
	return f
}

// SetDescription задаёт описание канала.
func (f *Feed) SetDescription(description string) *Feed {
	f.description = description
	return f
}

// SetLastBuildDate задаёт дату последней сборки, см. ParseDate.
// При ошибке дата не меняется, а ошибку возвращает Err.
func (f *Feed) SetLastBuildDate(raw string) *Feed {
	date, err := formatRawDate(raw, f.now)
	if err != nil {
		f.fail(err)
		return f
	}
	f.lastBuildDate = date
	return f
}

// SetLastBuildDateTime задаёт дату последней сборки.
func (f *Feed) SetLastBuildDateTime(t time.Time) *Feed {
	f.lastBuildDate = FormatDate(t)
	return f
}

// SetPubDate задаёт дату публикации, см. ParseDate.
// При ошибке дата не меняется, а ошибку возвращает Err.
func (f *Feed) SetPubDate(raw string) *Feed {
	date, err := formatRawDate(raw, f.now)
	if err != nil {
		f.fail(err)
		return f
	}
	f.pubDate = date
	return f
}

// SetPubDateTime задаёт дату публикации.
func (f *Feed) SetPubDateTime(t time.Time) *Feed {
	f.pubDate = FormatDate(t)
	return f
}

func (f *Feed) SetCopyright(copyright string) *Feed {
	f.copyright = copyright
	return f
}

// SetWebmaster задаёт адрес, который выводится в <webMaster>.
func (f *Feed) SetWebmaster(webmaster string) *Feed {
	f.webmaster = webmaster
	return f
}

func (f *Feed) SetCategory(category string) *Feed {
	f.category = category
	return f
}

// SetLanguage задаёт код языка. Пустой код убирает элемент.
func (f *Feed) SetLanguage(language string) *Feed {
	f.language = language
	return f
}

// SetTTL задаёт, сколько минут читатели могут кэшировать ленту.
// Ноль убирает элемент, отрицательные значения считаются нулём.
func (f *Feed) SetTTL(ttl int) *Feed {
	if ttl < 0 {
		ttl = 0
	}
	f.ttl = ttl
	return f
}

func (f *Feed) SetImage(image Image) *Feed {
	f.image = image
	return f
}

// SetEncoding задаёт кодировку в XML-декларации.
func (f *Feed) SetEncoding(encoding string) *Feed {
	f.encoding = encoding
	return f
}

// AddItem добавляет элемент. Элемент без своих часов получает часы ленты.
func (f *Feed) AddItem(item *Item) {
	if item == nil {
		return
	}
	if item.clock == nil {
		item.clock = f.clock
	}
	f.items = append(f.items, item)
}

// AddCustomTag добавляет или перезаписывает тег канала. Значение экранируется.
func (f *Feed) AddCustomTag(name, value string) *Feed {
	f.tags.set(name, value, false)
	return f
}

// AddRawCustomTag - AddCustomTag для значений, которые уже являются разметкой.
func (f *Feed) AddRawCustomTag(name, value string) *Feed {
	f.tags.set(name, value, true)
	return f
}

// Err возвращает первую ошибку сеттеров ленты вместе с
// ошибками её элементов.
func (f *Feed) Err() error {
	errs := []error{f.err}
	for _, item := range f.items {
		errs = append(errs, item.Err())
	}
	return errors.Join(errs...)
}

func (f *Feed) fail(err error) {
	if f.err == nil {
		f.err = err
	}
}

func (f *Feed) Title() string         { return f.title }
func (f *Feed) Link() string          { return f.link }
func (f *Feed) Description() string   { return f.description }
func (f *Feed) LastBuildDate() string { return f.lastBuildDate }
func (f *Feed) PubDate() string       { return f.pubDate }
func (f *Feed) Copyright() string     { return f.copyright }
func (f *Feed) Webmaster() string     { return f.webmaster }
func (f *Feed) Category() string      { return f.category }
func (f *Feed) Language() string      { return f.language }
func (f *Feed) Encoding() string      { return f.encoding }
func (f *Feed) TTL() int              { return f.ttl }
func (f *Feed) Image() Image          { return f.image }

// Items возвращает элементы в порядке добавления.
func (f *Feed) Items() []*Item {
	out := make([]*Item, len(f.items))
	copy(out, f.items)
	return out
}

// CustomTags возвращает теги канала в порядке добавления.
func (f *Feed) CustomTags() []CustomTag {
	return f.tags.list()
}

// String выводит весь документ RSS.
func (f *Feed) String() string {
	var b strings.Builder

	b.WriteString(`<?xml version="1.0" encoding="` + escape(f.encoding) + `"?>` + "\n")
	b.WriteString(`<rss version="2.0" xmlns:dc="` + DublinCoreNS + `">` + "\n")
	b.WriteString("<channel>\n")

	writeRequired(&b, "title", f.title)
	writeRequired(&b, "link", f.link)
	writeRequired(&b, "description", f.description)
	writeOptional(&b, "language", f.language)
	writeOptional(&b, "lastBuildDate", f.lastBuildDate)
	writeOptional(&b, "pubDate", f.pubDate)
	writeOptional(&b, "webMaster", f.webmaster)
	writeOptional(&b, "copyright", f.copyright)
	writeOptional(&b, "category", f.category)
	if f.ttl > 0 {
		writeElement(&b, "", "ttl", strconv.Itoa(f.ttl))
	}
	f.writeImage(&b)

	f.tags.write(&b, "")

	for _, item := range f.items {
		item.write(&b)
	}

	b.WriteString("</channel>\n")
	b.WriteString("</rss>")

	return b.String()
}

func (f *Feed) writeImage(b *strings.Builder) {
	if f.image.IsZero() {
		return
	}
	b.WriteString("<image>\n")
	if f.image.Title != "" {
		writeElement(b, "  ", "title", f.image.Title)
	}
	if f.image.URL != "" {
		writeElement(b, "  ", "url", f.image.URL)
	}
	if f.image.Link != "" {
		writeElement(b, "  ", "link", f.image.Link)
	}
	b.WriteString("</image>\n")
}
