// Package classifier decides whether message text violates content policy.
// It is a deterministic pattern match: no state, no I/O, no learning.
package classifier

import (
	"fmt"
	"regexp"
	"strings"

	errs "github.com/iamwavecut/modbot/internal/errors"
)

// RawPrefix marks a banned term as a raw regular expression instead of a
// whole-word literal.
const RawPrefix = "re:"

// DefaultTerms is the built-in fallback list. Deployments should configure
// their own via MODBOT_BANNED_TERMS.
var DefaultTerms = []string{
	"badword",
	"spam",
	"scam",
}

// Classifier holds one compiled matcher for a fixed term list. Compile once
// per distinct list and reuse: matching is on the hot path of every inbound
// message, compilation is not.
type Classifier struct {
	re *regexp.Regexp
}

// New compiles terms into a single case-insensitive alternation. Literals
// are escaped and anchored on word boundaries; terms with the RawPrefix are
// used verbatim. A malformed raw term fails here, never at match time.
func New(terms []string) (*Classifier, error) {
	parts := make([]string, 0, len(terms))
	for _, term := range terms {
		if raw, ok := strings.CutPrefix(term, RawPrefix); ok {
			if _, err := regexp.Compile(raw); err != nil {
				return nil, fmt.Errorf("term %q: %v: %w", term, err, errs.ErrBadPattern)
			}
			parts = append(parts, "(?:"+raw+")")
			continue
		}
		parts = append(parts, `\b`+regexp.QuoteMeta(term)+`\b`)
	}
	if len(parts) == 0 {
		// An empty list matches nothing, not everything.
		return &Classifier{}, nil
	}

	re, err := regexp.Compile("(?i)" + strings.Join(parts, "|"))
	if err != nil {
		return nil, fmt.Errorf("compile term list: %v: %w", err, errs.ErrBadPattern)
	}
	return &Classifier{re: re}, nil
}

// MustDefault compiles the built-in term list. The list is a package
// constant, so failure is a programming error.
func MustDefault() *Classifier {
	c, err := New(DefaultTerms)
	if err != nil {
		panic(err)
	}
	return c
}

// IsBad reports whether text contains any banned term. Empty text is never
// bad.
func (c *Classifier) IsBad(text string) bool {
	if text == "" || c.re == nil {
		return false
	}
	return c.re.MatchString(text)
}
