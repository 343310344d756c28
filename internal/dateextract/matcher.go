// internal/dateextract/matcher.go
package dateextract

import "time"

// Match is a plausible date found in a piece of text.
type Match struct {
	Date    time.Time
	Raw     string
	Pattern string
	Anchor  string
}

// ISO returns the date in YYYY-MM-DD form.
func (m Match) ISO() string {
	return m.Date.Format(isoLayout)
}

// Matcher looks for a date in text and reports whether it found one.
type Matcher interface {
	Match(text string) (Match, bool)
}

// MatcherFunc adapts a function to the Matcher interface.
type MatcherFunc func(text string) (Match, bool)

func (f MatcherFunc) Match(text string) (Match, bool) {
	return f(text)
}

// FirstOf runs matchers in order and returns the first success.
func FirstOf(matchers ...Matcher) Matcher {
	return MatcherFunc(func(text string) (Match, bool) {
		for _, m := range matchers {
			if found, ok := m.Match(text); ok {
				return found, true
			}
		}
		return Match{}, false
	})
}
