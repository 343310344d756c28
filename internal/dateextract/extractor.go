// internal/dateextract/extractor.go

// Package dateextract finds the invoice date in OCR text.
//
// Dates are looked for first in a short window after known keywords such as
// "Rechnungsdatum" or "Invoice Date", then anywhere in the text. Numeric
// forms are read day-first.
package dateextract

import (
	"fmt"
	"regexp"
	"time"
	"unicode/utf8"
)

// DefaultKeywords are tried in this order.
var DefaultKeywords = []string{
	"Rechnungsdatum",
	"Invoice Date",
	"Belegdatum",
	"Datum der Rechnung",
	"Date of issue",
	"Issue date",
	"Ausstellungsdatum",
	"Datum",
	"Date",
	"due",
}

const (
	DefaultWindowSize    = 180
	DefaultMinDate       = "2010-01-01"
	DefaultMaxFutureDays = 366
)

// Config tunes an Extractor. Dates after now plus MaxFutureDays are
// rejected; these are mostly phone or order numbers read as dates.
type Config struct {
	Keywords      []string
	WindowSize    int
	MinDate       string
	MaxFutureDays int
}

func DefaultConfig() Config {
	return Config{
		Keywords:      DefaultKeywords,
		WindowSize:    DefaultWindowSize,
		MinDate:       DefaultMinDate,
		MaxFutureDays: DefaultMaxFutureDays,
	}
}

type anchor struct {
	keyword string
	re      *regexp.Regexp
}

// Extractor holds no mutable state once built and can be shared between goroutines.
type Extractor struct {
	windowSize    int
	minDate       time.Time
	maxFutureDays int
	now           func() time.Time
	anchors       []anchor
	matcher       Matcher
}

// NewExtractor builds an Extractor. Empty fields fall back to the defaults.
func NewExtractor(cfg Config) (*Extractor, error) {
	if len(cfg.Keywords) == 0 {
		cfg.Keywords = DefaultKeywords
	}
	if cfg.WindowSize <= 0 {
		cfg.WindowSize = DefaultWindowSize
	}
	if cfg.MinDate == "" {
		cfg.MinDate = DefaultMinDate
	}
	if cfg.MaxFutureDays <= 0 {
		cfg.MaxFutureDays = DefaultMaxFutureDays
	}

	minDate, err := time.Parse(isoLayout, cfg.MinDate)
	if err != nil {
		return nil, fmt.Errorf("invalid min date %q: %w", cfg.MinDate, err)
	}

	e := &Extractor{
		windowSize:    cfg.WindowSize,
		minDate:       minDate,
		maxFutureDays: cfg.MaxFutureDays,
		now:           time.Now,
	}
	for _, kw := range cfg.Keywords {
		if kw == "" {
			continue
		}
		e.anchors = append(e.anchors, anchor{
			keyword: kw,
			re:      regexp.MustCompile(`(?i)` + regexp.QuoteMeta(kw)),
		})
	}

	scan := e.scanner()
	e.matcher = FirstOf(e.anchored(scan), scan)
	return e, nil
}

// MustNewExtractor is NewExtractor for configurations known to be valid.
func MustNewExtractor(cfg Config) *Extractor {
	e, err := NewExtractor(cfg)
	if err != nil {
		panic(err)
	}
	return e
}

// Extract returns the most plausible invoice date in text.
func (e *Extractor) Extract(text string) (Match, bool) {
	if text == "" {
		return Match{}, false
	}
	text = normalize(text)
	if text == "" {
		return Match{}, false
	}
	return e.matcher.Match(text)
}

// scanner tries the pattern families in priority order.
func (e *Extractor) scanner() Matcher {
	matchers := make([]Matcher, 0, len(families))
	for _, p := range families {
		matchers = append(matchers, familyMatcher(p, e.plausible))
	}
	return FirstOf(matchers...)
}

// plausible reports whether t lies between the min date and the future
// limit, both inclusive.
func (e *Extractor) plausible(t time.Time) bool {
	if t.Before(e.minDate) {
		return false
	}
	y, m, d := e.now().UTC().AddDate(0, 0, e.maxFutureDays).Date()
	return !t.After(time.Date(y, m, d, 0, 0, 0, 0, time.UTC))
}

// anchored applies scan to the window after every keyword hit.
func (e *Extractor) anchored(scan Matcher) Matcher {
	return MatcherFunc(func(text string) (Match, bool) {
		for _, a := range e.anchors {
			for _, loc := range a.re.FindAllStringIndex(text, -1) {
				w := window(text[loc[1]:], e.windowSize)
				if m, ok := scan.Match(w); ok {
					m.Anchor = a.keyword
					return m, true
				}
			}
		}
		return Match{}, false
	})
}

// window returns at most n runes from the start of s.
func window(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}

var defaultExtractor = MustNewExtractor(DefaultConfig())

// ExtractInvoiceDate runs the default Extractor over text.
func ExtractInvoiceDate(text string) (time.Time, bool) {
	m, ok := defaultExtractor.Extract(text)
	if !ok {
		return time.Time{}, false
	}
	return m.Date, true
}

// ExtractInvoiceDatePtr treats a nil text like an empty one.
func ExtractInvoiceDatePtr(text *string) (time.Time, bool) {
	if text == nil {
		return time.Time{}, false
	}
	return ExtractInvoiceDate(*text)
}
