package builtin

import (
	"strings"

	"github.com/talekit/trigger/pkg/trigger/similarity"
	"github.com/talekit/trigger/pkg/trigger/value"
)

// fuzzyWindow is the token-length pruning window: only tokens within
// this many runes of the target word's length are scored.
const fuzzyWindow = 2

// bestFuzzyMatch scores every text token within the length window
// against word and returns the best token at or above threshold.
func bestFuzzyMatch(text, word string, threshold float64) (wordToken, float64, bool) {
	target := strings.ToLower(word)
	targetLen := len([]rune(target))

	var best wordToken
	bestScore := -1.0
	for _, tok := range wordTokens(text) {
		tokLen := len([]rune(tok.text))
		if tokLen < targetLen-fuzzyWindow || tokLen > targetLen+fuzzyWindow {
			continue
		}
		score := similarity.Score(strings.ToLower(tok.text), target)
		if score >= threshold && score > bestScore {
			best = tok
			bestScore = score
		}
	}
	return best, bestScore, bestScore >= 0
}

// fuzzyFn reports whether some token of the text is within edit
// similarity threshold of the word. Threshold defaults to the
// registry's configured cutoff.
func fuzzyFn(defaultThreshold float64) Func {
	return func(text string, args []any) (any, error) {
		if err := needArgs("fuzzy", args, 1); err != nil {
			return nil, err
		}
		threshold := argFloat(args, 1, defaultThreshold)
		_, _, ok := bestFuzzyMatch(text, argString(args, 0), threshold)
		return ok, nil
	}
}

// fuzzyFindFn returns the best-scoring qualifying token of the text,
// or undefined when nothing qualifies.
func fuzzyFindFn(text string, args []any) (any, error) {
	if err := needArgs("fuzzyFind", args, 2); err != nil {
		return nil, err
	}
	tok, _, ok := bestFuzzyMatch(text, argString(args, 0), value.ToFloat64(args[1]))
	if !ok {
		return value.Undefined{}, nil
	}
	return tok.text, nil
}

// fuzzyAnyFn reports whether fuzzy holds for any candidate in the
// list argument.
func fuzzyAnyFn(defaultThreshold float64) Func {
	return func(text string, args []any) (any, error) {
		if err := needArgs("fuzzyAny", args, 1); err != nil {
			return nil, err
		}
		threshold := argFloat(args, 1, defaultThreshold)
		candidates, ok := args[0].([]any)
		if !ok {
			// A lone candidate degrades to plain fuzzy.
			_, _, found := bestFuzzyMatch(text, argString(args, 0), threshold)
			return found, nil
		}
		for _, cand := range candidates {
			if _, _, found := bestFuzzyMatch(text, value.ToString(cand), threshold); found {
				return true, nil
			}
		}
		return false, nil
	}
}
