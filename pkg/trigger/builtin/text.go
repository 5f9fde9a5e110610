package builtin

import (
	"math"
	"strings"

	"github.com/talekit/trigger/pkg/trigger/pattern"
	"github.com/talekit/trigger/pkg/trigger/value"
)

// termMatches tests one term against the text: a compiled pattern
// matches as a pattern, anything else as a case-insensitive
// substring of the text.
func termMatches(text, lowerText string, term any) bool {
	if p, ok := term.(*pattern.Pattern); ok {
		return p.Match(text)
	}
	s := value.ToString(term)
	if s == "" {
		return false
	}
	return strings.Contains(lowerText, strings.ToLower(s))
}

// anyFn reports whether at least one term matches.
func anyFn(text string, args []any) (any, error) {
	lower := strings.ToLower(text)
	for _, term := range args {
		if termMatches(text, lower, term) {
			return true, nil
		}
	}
	return false, nil
}

// allFn reports whether every term matches. True with no terms.
func allFn(text string, args []any) (any, error) {
	lower := strings.ToLower(text)
	for _, term := range args {
		if !termMatches(text, lower, term) {
			return false, nil
		}
	}
	return true, nil
}

// noneFn reports whether no term matches.
func noneFn(text string, args []any) (any, error) {
	matched, err := anyFn(text, args)
	if err != nil {
		return nil, err
	}
	return !matched.(bool), nil
}

// countFn counts whole-word occurrences of a string term or total
// matches of a pattern term.
func countFn(text string, args []any) (any, error) {
	if err := needArgs("count", args, 1); err != nil {
		return nil, err
	}
	if p, ok := args[0].(*pattern.Pattern); ok {
		return float64(p.Count(text)), nil
	}
	return float64(len(wordOccurrences(text, argString(args, 0)))), nil
}

// nearFn reports whether some whole-word occurrence of the first word
// lies within maxDistance characters of some occurrence of the
// second. Distance is the absolute difference of start indexes; the
// scan stops at the first qualifying pair.
func nearFn(text string, args []any) (any, error) {
	if err := needArgs("near", args, 3); err != nil {
		return nil, err
	}
	occA := wordOccurrences(text, argString(args, 0))
	if len(occA) == 0 {
		return false, nil
	}
	occB := wordOccurrences(text, argString(args, 1))
	if len(occB) == 0 {
		return false, nil
	}
	maxDist := value.ToFloat64(args[2])
	if math.IsNaN(maxDist) {
		return false, nil
	}
	for _, a := range occA {
		for _, b := range occB {
			if math.Abs(float64(a-b)) <= maxDist {
				return true, nil
			}
		}
	}
	return false, nil
}

// sequenceFn reports whether the words occur as whole-word matches in
// order. Each search starts after the end of the previous match:
// greedy first fit per word, not globally optimal.
func sequenceFn(text string, args []any) (any, error) {
	if err := needArgs("sequence", args, 1); err != nil {
		return nil, err
	}
	pos := 0
	for _, arg := range args {
		word := value.ToString(arg)
		found := -1
		for _, occ := range wordOccurrences(text, word) {
			if occ >= pos {
				found = occ
				break
			}
		}
		if found < 0 {
			return false, nil
		}
		pos = found + len([]rune(word))
	}
	return true, nil
}

// regexFn compiles and tests a pattern. A precompiled pattern
// argument is used as is; an invalid pattern reads as no match.
func regexFn(text string, args []any) (any, error) {
	if err := needArgs("regex", args, 1); err != nil {
		return nil, err
	}
	if p, ok := args[0].(*pattern.Pattern); ok {
		return p.Match(text), nil
	}
	flags := ""
	if len(args) > 1 {
		flags = argString(args, 1)
	}
	p, err := pattern.Compile(argString(args, 0), flags)
	if err != nil {
		return false, nil
	}
	return p.Match(text), nil
}
