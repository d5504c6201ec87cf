package classifier

import (
	"errors"
	"testing"

	errs "github.com/iamwavecut/modbot/internal/errors"
)

func TestLiteralWholeWordMatching(t *testing.T) {
	t.Parallel()

	c, err := New([]string{"spam"})
	if err != nil {
		t.Fatalf("new classifier: %v", err)
	}

	cases := []struct {
		text string
		want bool
	}{
		{"buy spam now", true},
		{"I got spam.", true},
		{"SPAM!", true},
		{"spamming", false},
		{"this is spammy", false},
		{"hello, this is safe text", false},
		{"", false},
	}
	for _, tc := range cases {
		if got := c.IsBad(tc.text); got != tc.want {
			t.Errorf("IsBad(%q) = %v, want %v", tc.text, got, tc.want)
		}
	}
}

func TestRawPatternMatching(t *testing.T) {
	t.Parallel()

	c, err := New([]string{`re:spam\d+`})
	if err != nil {
		t.Fatalf("new classifier: %v", err)
	}

	if !c.IsBad("spam123") {
		t.Fatalf("expected raw pattern to match digits suffix")
	}
	if c.IsBad("spam abc") {
		t.Fatalf("raw pattern must not match without digits")
	}
}

func TestMixedTermList(t *testing.T) {
	t.Parallel()

	c, err := New([]string{`re:spam\d+`, "phish"})
	if err != nil {
		t.Fatalf("new classifier: %v", err)
	}

	if !c.IsBad("a phish attempt") {
		t.Fatalf("expected literal alternative to match")
	}
	if !c.IsBad("SPAM42") {
		t.Fatalf("expected case-insensitive raw alternative to match")
	}
	if c.IsBad("phishing") {
		t.Fatalf("literal must keep its word boundary in a mixed list")
	}
}

func TestEmptyTermListNeverMatches(t *testing.T) {
	t.Parallel()

	c, err := New(nil)
	if err != nil {
		t.Fatalf("new classifier: %v", err)
	}

	for _, text := range []string{"", "anything", "badword"} {
		if c.IsBad(text) {
			t.Fatalf("empty term list matched %q", text)
		}
	}
}

func TestLiteralEscapesMetaCharacters(t *testing.T) {
	t.Parallel()

	c, err := New([]string{"a.b"})
	if err != nil {
		t.Fatalf("new classifier: %v", err)
	}

	if !c.IsBad("see a.b here") {
		t.Fatalf("expected literal dot to match")
	}
	if c.IsBad("see axb here") {
		t.Fatalf("literal dot must not act as a wildcard")
	}
}

func TestMalformedRawPatternFailsAtCompileTime(t *testing.T) {
	t.Parallel()

	_, err := New([]string{"ok", `re:(`})
	if err == nil {
		t.Fatalf("expected compile error for malformed raw pattern")
	}
	if !errors.Is(err, errs.ErrBadPattern) {
		t.Fatalf("expected ErrBadPattern, got %v", err)
	}
}

func TestDefaultTerms(t *testing.T) {
	t.Parallel()

	c := MustDefault()
	if !c.IsBad("this contains badword inside") {
		t.Fatalf("expected default list to flag badword")
	}
	if c.IsBad("this is badwording and should be allowed") {
		t.Fatalf("default literal must respect word boundaries")
	}
}
