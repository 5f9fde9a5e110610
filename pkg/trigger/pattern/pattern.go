// Package pattern compiles and applies the regex dialect used by
// trigger expressions. Expressions are written against the
// ECMAScript-flavored syntax their authors know from the surrounding
// scripting surface, so matchers are built on dlclark/regexp2 rather
// than the stdlib RE2 engine.
package pattern

import (
	"errors"
	"fmt"
	"strings"

	"github.com/dlclark/regexp2"
)

// ErrBadPattern reports an uncompilable pattern or unknown flag.
var ErrBadPattern = errors.New("bad pattern")

// Pattern is an immutable compiled matcher. Safe for concurrent use.
type Pattern struct {
	re     *regexp2.Regexp
	source string
	flags  string
	global bool
}

// Compile builds a Pattern from source syntax and a flag string.
// Supported flags: i (ignore case), m (multiline), s (dot matches
// newline), u (unicode, accepted for compatibility), g (global,
// affects only Count). Unknown flags or a bad expression fail with
// an error wrapping ErrBadPattern.
func Compile(expr, flags string) (*Pattern, error) {
	opts := regexp2.RegexOptions(regexp2.ECMAScript)
	global := false
	for _, f := range flags {
		switch f {
		case 'i':
			opts |= regexp2.IgnoreCase
		case 'm':
			opts |= regexp2.Multiline
		case 's':
			opts |= regexp2.Singleline
		case 'u':
			opts |= regexp2.Unicode
		case 'g':
			global = true
		default:
			return nil, fmt.Errorf("%w: unknown flag %q", ErrBadPattern, string(f))
		}
	}

	re, err := regexp2.Compile(expr, opts)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadPattern, err)
	}
	return &Pattern{re: re, source: expr, flags: flags, global: global}, nil
}

// Source returns the pattern text as written.
func (p *Pattern) Source() string { return p.source }

// Flags returns the flag string as written.
func (p *Pattern) Flags() string { return p.flags }

// Global reports whether the g flag was set.
func (p *Pattern) Global() bool { return p.global }

// Match reports whether the pattern matches anywhere in s. Internal
// matcher errors read as no match.
func (p *Pattern) Match(s string) bool {
	ok, err := p.re.MatchString(s)
	return err == nil && ok
}

// Count returns the number of non-overlapping matches in s. Without
// the g flag, matching stops after the first hit, so the count is at
// most one.
func (p *Pattern) Count(s string) int {
	n := 0
	m, err := p.re.FindStringMatch(s)
	for err == nil && m != nil {
		n++
		if !p.global {
			break
		}
		m, err = p.re.FindNextMatch(m)
	}
	return n
}

// String renders the pattern in its literal form.
func (p *Pattern) String() string {
	return "~" + strings.ReplaceAll(p.source, "~", "\\~") + "~" + p.flags
}
