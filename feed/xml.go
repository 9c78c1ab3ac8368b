package feed

import (
	"strings"
)

var textEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&apos;",
)

func escape(s string) string {
	return textEscaper.Replace(s)
}

// cdata оборачивает s в CDATA. Подстрока "]]>" разбивается на две
// секции, чтобы не закрыть первую раньше времени.
func cdata(s string) string {
	return "<![CDATA[" + strings.ReplaceAll(s, "]]>", "]]]]><![CDATA[>") + "]]>"
}

// writeElement пишет <name>значение</name> и перевод строки.
func writeElement(b *strings.Builder, indent, name, value string) {
	b.WriteString(indent)
	b.WriteString("<" + name + ">")
	b.WriteString(escape(value))
	b.WriteString("</" + name + ">\n")
}

// writeRequired пишет элемент, если значение задано, иначе
// пустую самозакрывающуюся форму.
func writeRequired(b *strings.Builder, name, value string) {
	if value == "" {
		b.WriteString("<" + name + "/>\n")
		return
	}
	writeElement(b, "", name, value)
}

func writeOptional(b *strings.Builder, name, value string) {
	if value != "" {
		writeElement(b, "", name, value)
	}
}

func writeCDATA(b *strings.Builder, name, value string) {
	if value == "" {
		b.WriteString("<" + name + "/>\n")
		return
	}
	b.WriteString("<" + name + ">" + cdata(value) + "</" + name + ">\n")
}

// CustomTag - дополнительный тег ленты или элемента.
type CustomTag struct {
	Name  string
	Value string
	// Raw-значения пишутся как есть, без экранирования.
	Raw bool
}

// customTags хранит теги в порядке первого добавления.
// Повторное имя перезаписывает значение на прежнем месте.
type customTags struct {
	order []string
	tags  map[string]CustomTag
}

func (c *customTags) set(name, value string, raw bool) {
	if name == "" {
		return
	}
	if c.tags == nil {
		c.tags = make(map[string]CustomTag)
	}
	if _, ok := c.tags[name]; !ok {
		c.order = append(c.order, name)
	}
	c.tags[name] = CustomTag{Name: name, Value: value, Raw: raw}
}

func (c *customTags) list() []CustomTag {
	out := make([]CustomTag, 0, len(c.order))
	for _, name := range c.order {
		out = append(out, c.tags[name])
	}
	return out
}

func (c *customTags) write(b *strings.Builder, indent string) {
	for _, name := range c.order {
		tag := c.tags[name]
		value := tag.Value
		if !tag.Raw {
			value = escape(value)
		}
		b.WriteString(indent + "<" + name + ">" + value + "</" + name + ">\n")
	}
}
