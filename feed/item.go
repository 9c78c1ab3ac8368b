package feed

import (
	"strconv"
	"strings"
	"time"
)

// Source - канал, из которого пришёл элемент.
type Source struct {
	URL  string
	Name string
}

// Enclosure - медиафайл, прикреплённый к элементу.
type Enclosure struct {
	URL    string
	Length int64
	Type   string
}

// IsZero сообщает, что ни одно поле не задано.
func (e Enclosure) IsZero() bool {
	return e.URL == "" && e.Length == 0 && e.Type == ""
}

// Item - одна запись ленты. Сеттеры меняют элемент и возвращают его
// для цепочки вызовов.
type Item struct {
	title       string
	link        string
	description string
	author      string
	category    string
	comments    string
	guid        string
	pubDate     string
	source      Source
	enclosure   Enclosure
	tags        customTags

	clock Clock
	err   error
}

// NewItem создаёт пустой элемент.
func NewItem(opts ...Option) *Item {
	o := applyOptions(opts)
	return &Item{clock: o.clock}
}

func (i *Item) now() time.Time {
	if i.clock == nil {
		return time.Now()
	}
	return i.clock()
}

// SetTitle задаёт заголовок элемента.
func (i *Item) SetTitle(title string) *Item {
	i.title = title
	return i
}

// SetLink задаёт адрес элемента.
func (i *Item) SetLink(link string) *Item {
	i.link = link
	return i
}

// SetDescription задаёт краткое содержание.
func (i *Item) SetDescription(description string) *Item {
	i.description = description
	return i
}

// SetAuthor задаёт e-mail автора.
func (i *Item) SetAuthor(author string) *Item {
	i.author = author
	return i
}

// SetCategory задаёт категорию элемента.
func (i *Item) SetCategory(category string) *Item {
	i.category = category
	return i
}

// SetComments задаёт адрес страницы комментариев.
func (i *Item) SetComments(comments string) *Item {
	i.comments = comments
	return i
}

// SetGUID задаёт уникальный идентификатор. Без него используется ссылка.
func (i *Item) SetGUID(guid string) *Item {
	i.guid = guid
	return i
}

// SetPubDate задаёт дату публикации, см. ParseDate.
// При ошибке дата не меняется, а ошибку возвращает Err.
func (i *Item) SetPubDate(raw string) *Item {
	date, err := formatRawDate(raw, i.now)
	if err != nil {
		i.fail(err)
		return i
	}
	i.pubDate = date
	return i
}

// SetPubDateTime задаёт дату публикации.
func (i *Item) SetPubDateTime(t time.Time) *Item {
	i.pubDate = FormatDate(t)
	return i
}

// SetSource задаёт исходный канал.
func (i *Item) SetSource(source Source) *Item {
	i.source = source
	return i
}

// SetEnclosure прикрепляет медиафайл.
func (i *Item) SetEnclosure(enclosure Enclosure) *Item {
	i.enclosure = enclosure
	return i
}

// AddCustomTag добавляет или перезаписывает тег элемента. Значение экранируется.
func (i *Item) AddCustomTag(name, value string) *Item {
	i.tags.set(name, value, false)
	return i
}

// AddRawCustomTag - AddCustomTag для значений, которые уже являются разметкой.
func (i *Item) AddRawCustomTag(name, value string) *Item {
	i.tags.set(name, value, true)
	return i
}

// Err возвращает первую ошибку сеттеров.
func (i *Item) Err() error {
	return i.err
}

func (i *Item) fail(err error) {
	if i.err == nil {
		i.err = err
	}
}

func (i *Item) Title() string        { return i.title }
func (i *Item) Link() string         { return i.link }
func (i *Item) Description() string  { return i.description }
func (i *Item) Author() string       { return i.author }
func (i *Item) Category() string     { return i.category }
func (i *Item) Comments() string     { return i.comments }
func (i *Item) Source() Source       { return i.source }
func (i *Item) Enclosure() Enclosure { return i.enclosure }
func (i *Item) CustomTags() []CustomTag {
	return i.tags.list()
}

// GUID возвращает идентификатор, который выводится для элемента.
func (i *Item) GUID() string {
	if i.guid == "" {
		return i.link
	}
	return i.guid
}

// PubDate возвращает дату публикации или "", если она не задавалась.
func (i *Item) PubDate() string {
	return i.pubDate
}

// String выводит элемент как <item>.
func (i *Item) String() string {
	var b strings.Builder
	i.write(&b)
	return b.String()
}

func (i *Item) write(b *strings.Builder) {
	b.WriteString("<item>\n")

	writeCDATA(b, "title", i.title)
	writeRequired(b, "link", i.link)
	writeOptional(b, "comments", i.comments)
	writeCDATA(b, "description", i.description)

	pubDate := i.pubDate
	if pubDate == "" {
		pubDate = FormatDate(i.now())
	}
	writeElement(b, "", "pubDate", pubDate)

	b.WriteString(`<guid isPermaLink="false">` + escape(i.GUID()) + "</guid>\n")

	writeOptional(b, "author", i.author)
	writeOptional(b, "category", i.category)

	if i.source.URL != "" && i.source.Name != "" {
		b.WriteString(`<source url="` + escape(i.source.URL) + `">` + escape(i.source.Name) + "</source>\n")
	}

	if !i.enclosure.IsZero() {
		b.WriteString(`<enclosure url="` + escape(i.enclosure.URL) +
			`" length="` + strconv.FormatInt(i.enclosure.Length, 10) +
			`" type="` + escape(i.enclosure.Type) + "\" />\n")
	}

	i.tags.write(b, "  ")

	b.WriteString("</item>\n")
}
