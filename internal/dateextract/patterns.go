// internal/dateextract/patterns.go
package dateextract

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"
)

const isoLayout = "2006-01-02"

const (
	PatternNumeric  = "numeric"
	PatternISO      = "iso"
	PatternDayMonth = "month-name-dmy"
	PatternMonthDay = "month-name-mdy"
)

var monthNames = map[string]time.Month{
	"januar": time.January, "jänner": time.January, "jaenner": time.January,
	"january": time.January, "jan": time.January,
	"februar": time.February, "feber": time.February, "february": time.February, "feb": time.February,
	"märz": time.March, "maerz": time.March, "mrz": time.March, "mär": time.March,
	"march": time.March, "mar": time.March,
	"april": time.April, "apr": time.April,
	"mai": time.May, "may": time.May,
	"juni": time.June, "june": time.June, "jun": time.June,
	"juli": time.July, "july": time.July, "jul": time.July,
	"august": time.August, "aug": time.August,
	"september": time.September, "sept": time.September, "sep": time.September,
	"oktober": time.October, "october": time.October, "okt": time.October, "oct": time.October,
	"november": time.November, "nov": time.November,
	"dezember": time.December, "december": time.December, "dez": time.December, "dec": time.December,
}

// pattern is one date shape. parse receives the submatches and returns
// year, month and day before any calendar validation.
type pattern struct {
	name  string
	re    *regexp.Regexp
	parse func(sm []string) (year, month, day int, ok bool)
}

var (
	whitespaceRe   = regexp.MustCompile(`\s+`)
	decimalCommaRe = regexp.MustCompile(`(\d),(\d)`)

	numericPattern = pattern{
		name: PatternNumeric,
		re:   regexp.MustCompile(`\b(\d{1,2})[./-](\d{1,2})[./-](\d{4}|\d{2})\b`),
		parse: func(sm []string) (int, int, int, bool) {
			d, _ := strconv.Atoi(sm[1])
			m, _ := strconv.Atoi(sm[2])
			return expandYear(sm[3]), m, d, true
		},
	}

	isoPattern = pattern{
		name: PatternISO,
		re:   regexp.MustCompile(`\b(\d{4})-(\d{2})-(\d{2})\b`),
		parse: func(sm []string) (int, int, int, bool) {
			y, _ := strconv.Atoi(sm[1])
			m, _ := strconv.Atoi(sm[2])
			d, _ := strconv.Atoi(sm[3])
			return y, m, d, true
		},
	}

	dayMonthPattern = pattern{
		name: PatternDayMonth,
		re:   regexp.MustCompile(`(?i)\b(\d{1,2})\.?\s*(` + monthAlternation() + `)\.?,?\s*(\d{4})\b`),
		parse: func(sm []string) (int, int, int, bool) {
			month, ok := lookupMonth(sm[2])
			if !ok {
				return 0, 0, 0, false
			}
			d, _ := strconv.Atoi(sm[1])
			y, _ := strconv.Atoi(sm[3])
			return y, int(month), d, true
		},
	}

	monthDayPattern = pattern{
		name: PatternMonthDay,
		re:   regexp.MustCompile(`(?i)\b(` + monthAlternation() + `)\.?\s*(\d{1,2})(?:st|nd|rd|th)?\.?,?\s*(\d{4})\b`),
		parse: func(sm []string) (int, int, int, bool) {
			month, ok := lookupMonth(sm[1])
			if !ok {
				return 0, 0, 0, false
			}
			d, _ := strconv.Atoi(sm[2])
			y, _ := strconv.Atoi(sm[3])
			return y, int(month), d, true
		},
	}

	// families are tried in this order, both inside anchor windows and
	// over the whole text.
	families = []pattern{numericPattern, isoPattern, dayMonthPattern, monthDayPattern}
)

// monthAlternation lists month names longest first so that "september"
// wins over "sep" when both would fit.
func monthAlternation() string {
	names := make([]string, 0, len(monthNames))
	for name := range monthNames {
		names = append(names, regexp.QuoteMeta(name))
	}
	sort.Slice(names, func(i, j int) bool {
		if len(names[i]) != len(names[j]) {
			return len(names[i]) > len(names[j])
		}
		return names[i] < names[j]
	})
	return strings.Join(names, "|")
}

func lookupMonth(name string) (time.Month, bool) {
	m, ok := monthNames[strings.ToLower(name)]
	return m, ok
}

func expandYear(s string) int {
	y, _ := strconv.Atoi(s)
	if len(s) == 2 {
		return 2000 + y
	}
	return y
}

// calendarDate builds a UTC date and rejects overflow such as 31.02.
func calendarDate(year, month, day int) (time.Time, bool) {
	if month < 1 || month > 12 || day < 1 || day > 31 {
		return time.Time{}, false
	}
	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if t.Year() != year || int(t.Month()) != month || t.Day() != day {
		return time.Time{}, false
	}
	return t, true
}

// familyMatcher returns every match of p in order and keeps the first
// one that is a real date accepted by plausible.
func familyMatcher(p pattern, plausible func(time.Time) bool) Matcher {
	return MatcherFunc(func(text string) (Match, bool) {
		for _, sm := range p.re.FindAllStringSubmatch(text, -1) {
			y, m, d, ok := p.parse(sm)
			if !ok {
				continue
			}
			t, ok := calendarDate(y, m, d)
			if !ok || !plausible(t) {
				continue
			}
			return Match{Date: t, Raw: sm[0], Pattern: p.name}, true
		}
		return Match{}, false
	})
}

func normalize(text string) string {
	text = whitespaceRe.ReplaceAllString(text, " ")
	for {
		next := decimalCommaRe.ReplaceAllString(text, "${1}.${2}")
		if next == text {
			break
		}
		text = next
	}
	return strings.TrimSpace(text)
}
