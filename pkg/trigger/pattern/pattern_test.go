package pattern

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompileAndMatch(t *testing.T) {
	tests := []struct {
		name  string
		expr  string
		flags string
		text  string
		want  bool
	}{
		{"plain match", `dragon`, "", "a dragon appears", true},
		{"plain miss", `dragon`, "", "a wyvern appears", false},
		{"case sensitive by default", `Dragon`, "", "a dragon appears", false},
		{"ignore case flag", `dragon\s+slain`, "i", "The Dragon Slain echoes", true},
		{"multiline flag", `^door`, "m", "first line\ndoor here", true},
		{"dotall flag", `a.b`, "s", "a\nb", true},
		{"lookahead", `sword(?!fish)`, "", "a swordfish", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := Compile(tt.expr, tt.flags)
			require.NoError(t, err)
			assert.Equal(t, tt.want, p.Match(tt.text))
		})
	}
}

func TestCompileErrors(t *testing.T) {
	tests := []struct {
		name  string
		expr  string
		flags string
	}{
		{"unbalanced group", `(dragon`, ""},
		{"unknown flag", `dragon`, "x"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Compile(tt.expr, tt.flags)
			assert.ErrorIs(t, err, ErrBadPattern)
		})
	}
}

func TestCount(t *testing.T) {
	p, err := Compile(`gold`, "gi")
	require.NoError(t, err)
	assert.Equal(t, 3, p.Count("Gold gold GOLD coins"))
	assert.Equal(t, 0, p.Count("silver"))

	// Without the g flag the count stops at the first match.
	single, err := Compile(`gold`, "i")
	require.NoError(t, err)
	assert.Equal(t, 1, single.Count("Gold gold GOLD coins"))
	assert.Equal(t, 0, single.Count("silver"))
}

func TestAccessors(t *testing.T) {
	p, err := Compile(`a+`, "ig")
	require.NoError(t, err)
	assert.Equal(t, `a+`, p.Source())
	assert.Equal(t, "ig", p.Flags())
	assert.True(t, p.Global())
	assert.Equal(t, "~a+~ig", p.String())
}
