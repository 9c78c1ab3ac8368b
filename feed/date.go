package feed

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jinzhu/now"
)

// DateLayout - формат даты RFC 822, который использует RSS 2.0.
const DateLayout = "Mon, 2 Jan 2006 15:04:05 -0700"

// ErrInvalidDate возвращается, если вход не пустой, не дата и не Unix-время.
var ErrInvalidDate = errors.New("invalid date")

// Clock возвращает текущее время. Лента и элементы берут из него каждое «сейчас».
type Clock func() time.Time

// dateLayouts перебираются по порядку до разбора через jinzhu/now.
var dateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	time.RFC1123Z,
	time.RFC1123,
	DateLayout,
	"Mon, 2 Jan 2006 15:04:05 MST",
	time.RFC822Z,
	time.RFC822,
	time.RFC850,
	time.ANSIC,
	time.UnixDate,
	time.RubyDate,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05 -0700",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
	"20060102T150405Z0700",
	"20060102T150405",
	"20060102",
	"January 2, 2006 15:04:05",
	"January 2, 2006 15:04",
	"January 2, 2006",
	"Jan 2, 2006 15:04:05",
	"Jan 2, 2006",
	"Jan 2 2006",
	"2 January 2006 15:04:05",
	"2 January 2006",
	"2 Jan 2006 15:04:05",
	"2 Jan 2006 15:04",
	"2 Jan 2006",
}

// rfc822Zones - буквенные зоны RFC 822 и их смещения в секундах.
var rfc822Zones = map[string]int{
	"EST": -5 * 3600,
	"EDT": -4 * 3600,
	"CST": -6 * 3600,
	"CDT": -5 * 3600,
	"MST": -7 * 3600,
	"MDT": -6 * 3600,
	"PST": -8 * 3600,
	"PDT": -7 * 3600,
}

var utcZones = map[string]bool{"UT": true, "UTC": true, "GMT": true, "Z": true}

// ParseDate переводит дату, заданную вызывающим, во время.
// Пустой вход даёт ref. Строка сначала разбирается как дата (включая
// ISO-8601 без разделителей: 20240115), и только неразобранное число
// читается как Unix-время в секундах. Даты без зоны берутся в зоне ref.
func ParseDate(raw string, ref time.Time) (time.Time, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return ref, nil
	}

	for _, layout := range dateLayouts {
		t, err := time.ParseInLocation(layout, s, ref.Location())
		if err != nil {
			continue
		}
		if strings.Contains(layout, "MST") {
			return resolveZoneName(t, ref, raw)
		}
		return t, nil
	}

	if isUnixTimestamp(s) {
		sec, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return time.Time{}, fmt.Errorf("%w: %q: %v", ErrInvalidDate, raw, err)
		}
		return time.Unix(sec, 0).In(ref.Location()), nil
	}

	if t, err := now.New(ref).Parse(s); err == nil {
		return t, nil
	}

	return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, raw)
}

// resolveZoneName исправляет смещение для буквенной зоны. time.Parse даёт
// незнакомым сокращениям смещение 0, поэтому зоны RFC 822 подставляются
// из таблицы, а прочие неизвестные имена считаются ошибкой.
func resolveZoneName(t, ref time.Time, raw string) (time.Time, error) {
	name, offset := t.Zone()
	if off, ok := rfc822Zones[name]; ok {
		y, mo, d := t.Date()
		h, mi, sec := t.Clock()
		return time.Date(y, mo, d, h, mi, sec, t.Nanosecond(), time.FixedZone(name, off)), nil
	}
	if utcZones[name] || offset != 0 || t.Location() == ref.Location() {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("%w: %q: unknown time zone %s", ErrInvalidDate, raw, name)
}

// FormatDate выводит t в формате RSS.
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// formatRawDate - общий путь всех сеттеров дат.
func formatRawDate(raw string, clock Clock) (string, error) {
	t, err := ParseDate(raw, clock())
	if err != nil {
		return "", err
	}
	return FormatDate(t), nil
}

func isUnixTimestamp(s string) bool {
	if strings.HasPrefix(s, "-") {
		s = s[1:]
	}
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
