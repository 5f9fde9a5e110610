package eval

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talekit/trigger/pkg/trigger/builtin"
	"github.com/talekit/trigger/pkg/trigger/parser"
	"github.com/talekit/trigger/pkg/trigger/value"
)

func compile(t *testing.T, expr string, kind Context) *Compiled {
	t.Helper()
	root, err := parser.Parse(expr)
	require.NoError(t, err, "parse %q", expr)
	return Compile(root, kind)
}

func runText(t *testing.T, expr, text string) (any, error) {
	t.Helper()
	return compile(t, expr, Text).Run(Input{
		Text:     text,
		Builtins: builtin.NewRegistry(),
	})
}

func TestLiteralsAndArithmetic(t *testing.T) {
	tests := []struct {
		expr string
		want any
	}{
		{"5", 5.0},
		{"2.5", 2.5},
		{`"gold"`, "gold"},
		{"true", true},
		{"false", false},
		{"null", nil},
		{"undefined", value.Undefined{}},
		{"1 + 2 * 3", 7.0},
		{"(1 + 2) * 3", 9.0},
		{"10 / 4", 2.5},
		{"10 % 3", 1.0},
		{"-5 + 3", -2.0},
		{`"score: " + 10`, "score: 10"},
		{`5 + " points"`, "5 points"},
		{"!true", false},
		{"!0", true},
		{"1 < 2", true},
		{"2 <= 2", true},
		{"3 > 4", false},
		{`"abc" < "abd"`, true},
		{`"10" > 5`, true},
		{"1 == 1", true},
		{`"1" == 1`, true},
		{`"1" === 1`, false},
		{"1 != 2", true},
		{`null == undefined`, true},
		{`null === undefined`, false},
	}

	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			got, err := runText(t, tt.expr, "")
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLogicalReturnsOperand(t *testing.T) {
	tests := []struct {
		expr string
		want any
	}{
		{`"a" && "b"`, "b"},
		{`"" && "b"`, ""},
		{`"a" || "b"`, "a"},
		{`"" || "b"`, "b"},
		{`0 || null`, nil},
	}

	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			got, err := runText(t, tt.expr, "")
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLogicalShortCircuit(t *testing.T) {
	reg := builtin.NewRegistry()
	calls := 0
	reg.Register("probe", func(text string, args []any) (any, error) {
		calls++
		return true, nil
	})
	in := Input{Builtins: reg}

	c := compile(t, `false && probe()`, Text)
	_, err := c.Run(in)
	require.NoError(t, err)
	assert.Zero(t, calls, "right side of a false && must not run")

	c = compile(t, `true || probe()`, Text)
	_, err = c.Run(in)
	require.NoError(t, err)
	assert.Zero(t, calls, "right side of a true || must not run")

	c = compile(t, `true && probe()`, Text)
	_, err = c.Run(in)
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestScopeResolution(t *testing.T) {
	reg := builtin.NewRegistry()
	reg.Register("level", func(text string, args []any) (any, error) {
		return "builtin", nil
	})

	in := Input{
		Record:   map[string]any{"level": 9.0, "name": "Kara"},
		Bindings: map[string]any{"level": "binding", "mood": "calm"},
		Globals:  map[string]any{"level": "global", "realm": "north"},
		Builtins: reg,
	}

	// Object context: record fields win over everything.
	got, err := compile(t, "level", Object).Run(in)
	require.NoError(t, err)
	assert.Equal(t, 9.0, got)

	// Text context: no record lookup, bindings beat globals.
	textIn := in
	textIn.Record = nil
	got, err = compile(t, "mood", Text).Run(textIn)
	require.NoError(t, err)
	assert.Equal(t, "calm", got)

	got, err = compile(t, "realm", Text).Run(textIn)
	require.NoError(t, err)
	assert.Equal(t, "north", got)

	// Unresolvable names read as undefined, not an error.
	got, err = compile(t, "nothing", Text).Run(textIn)
	require.NoError(t, err)
	assert.True(t, value.IsUndefined(got))

	// Undefined compares falsy rather than failing.
	assert.False(t, compile(t, "nothing > 5", Text).Test(textIn))
}

func TestBuiltinReceivesText(t *testing.T) {
	in := Input{
		Text:     "the dragon sleeps on gold",
		Builtins: builtin.NewRegistry(),
	}

	tests := []struct {
		expr string
		want bool
	}{
		{`any("dragon", "kraken")`, true},
		{`all("dragon", "gold")`, true},
		{`none("kraken")`, true},
		{`count("gold") >= 1`, true},
		{`near("dragon", "gold", 20)`, true},
		{`sequence("dragon", "gold")`, true},
		{`sequence("gold", "dragon")`, false},
		{`fuzzy("dragun")`, true},
	}

	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			assert.Equal(t, tt.want, compile(t, tt.expr, Text).Test(in))
		})
	}
}

func TestMemberAccess(t *testing.T) {
	in := Input{
		Bindings: map[string]any{
			"state": map[string]any{
				"hp":    15.0,
				"party": []any{"Kara", "Tomas"},
				"flags": map[string]any{"cursed": true},
			},
			"title": "Dragonfall",
		},
		Builtins: builtin.NewRegistry(),
	}

	tests := []struct {
		expr string
		want any
	}{
		{"state.hp", 15.0},
		{"state.hp < 20", true},
		{"state.flags.cursed", true},
		{"state.party[0]", "Kara"},
		{"state.party[5]", value.Undefined{}},
		{"state.party.length", 2.0},
		{`state["hp"]`, 15.0},
		{"title.length", 10.0},
		{"title[0]", "D"},
		{"state.missing", value.Undefined{}},
		{"state.missing.deeper", value.Undefined{}},
	}

	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			got, err := compile(t, tt.expr, Text).Run(in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestStringMethods(t *testing.T) {
	in := Input{
		Bindings: map[string]any{"name": "  Dragonfall  "},
		Builtins: builtin.NewRegistry(),
	}

	tests := []struct {
		expr string
		want any
	}{
		{`name.trim()`, "Dragonfall"},
		{`name.trim().toLowerCase()`, "dragonfall"},
		{`name.trim().toUpperCase()`, "DRAGONFALL"},
		{`name.includes("Dragon")`, true},
		{`name.contains("fall")`, true},
		{`name.trim().startsWith("Dragon")`, true},
		{`name.trim().endsWith("fall")`, true},
		{`name.trim().indexOf("fall")`, 6.0},
		{`name.trim().indexOf("ice")`, -1.0},
	}

	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			got, err := compile(t, tt.expr, Text).Run(in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestListMethods(t *testing.T) {
	in := Input{
		Bindings: map[string]any{
			"items": []any{"sword", "rope", "torch"},
			"hps":   []any{12.0, 30.0, 7.0},
		},
		Builtins: builtin.NewRegistry(),
	}

	tests := []struct {
		expr string
		want any
	}{
		{`items.includes("rope")`, true},
		{`items.includes("gold")`, false},
		{`items.join(", ")`, "sword, rope, torch"},
		{`items.join()`, "sword,rope,torch"},
		{`hps.some(h => h < 10)`, true},
		{`hps.every(h => h < 10)`, false},
		{`hps.every(h => h < 100)`, true},
		{`hps.filter(h => h > 10).length`, 2.0},
		{`hps.map(h => h * 2)[0]`, 24.0},
		{`hps.find(h => h < 10)`, 7.0},
		{`hps.find(h => h > 100)`, value.Undefined{}},
	}

	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			got, err := compile(t, tt.expr, Text).Run(in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestArrowScope(t *testing.T) {
	in := Input{
		Bindings: map[string]any{
			"hps":   []any{12.0, 30.0},
			"limit": 20.0,
		},
		Builtins: builtin.NewRegistry(),
	}

	// The arrow body sees both its parameter and the ambient scope.
	got, err := compile(t, `hps.filter(h => h < limit).length`, Text).Run(in)
	require.NoError(t, err)
	assert.Equal(t, 1.0, got)

	// The parameter shadows an ambient name of the same spelling.
	got, err = compile(t, `hps.map(limit => limit + 1)[0]`, Text).Run(in)
	require.NoError(t, err)
	assert.Equal(t, 13.0, got)
}

func TestMethodErrors(t *testing.T) {
	in := Input{Builtins: builtin.NewRegistry()}

	_, err := compile(t, `missing.trim()`, Text).Run(in)
	require.ErrorIs(t, err, ErrUnknownMethod)

	_, err = compile(t, `"abc".explode()`, Text).Run(in)
	require.ErrorIs(t, err, ErrUnknownMethod)

	notFn := Input{
		Bindings: map[string]any{"hp": 5.0},
		Builtins: builtin.NewRegistry(),
	}
	_, err = compile(t, `hp()`, Text).Run(notFn)
	require.ErrorIs(t, err, ErrNotCallable)

	// Test collapses every runtime failure to false.
	assert.False(t, compile(t, `missing.trim()`, Text).Test(in))
}

func TestMapHas(t *testing.T) {
	in := Input{
		Bindings: map[string]any{
			"flags": map[string]any{"cursed": true},
		},
		Builtins: builtin.NewRegistry(),
	}

	assert.True(t, compile(t, `flags.has("cursed")`, Text).Test(in))
	assert.False(t, compile(t, `flags.has("blessed")`, Text).Test(in))
}

func TestObjectQueryInObjectContext(t *testing.T) {
	record := map[string]any{
		"type":  "item",
		"name":  "Flaming Sword",
		"level": 12.0,
		"meta":  map[string]any{"rarity": "epic"},
	}
	in := Input{Record: record, Builtins: builtin.NewRegistry()}

	tests := []struct {
		expr string
		want bool
	}{
		{`type: "item"`, true},
		{`type: "spell"`, false},
		{`level.gt: 5`, true},
		{`level.gt: 20`, false},
		{`level.gte: 12`, true},
		{`level.lt: 20`, true},
		{`level.lte: 11`, false},
		{`name.contains: "sword"`, true},
		{`name.includes: "SWORD"`, true},
		{`name.startsWith: "flaming"`, true},
		{`name.endsWith: "Sword"`, true},
		{`name.match: "^Flaming"`, true},
		{`meta.rarity: "epic"`, true},
		{`type: "item" && level.gt: 5`, true},
		{`type: "spell" || level.gt: 5`, true},
		{`type: "spell" && level.gt: 5`, false},
		// A record missing the field fails every operator.
		{`owner: "Kara"`, false},
		{`owner.contains: "Kara"`, false},
		{`owner.gt: 0`, false},
		// Non-numeric field on a numeric operator reads as false.
		{`name.gt: 5`, false},
		// Invalid pattern reads as false.
		{`name.match: "(unclosed"`, false},
	}

	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			assert.Equal(t, tt.want, compile(t, tt.expr, Object).Test(in))
		})
	}
}

func TestObjectQueryInTextContext(t *testing.T) {
	// Text context yields the predicate itself rather than applying it.
	got, err := runText(t, `level.gt: 5`, "")
	require.NoError(t, err)
	q, ok := got.(*Query)
	require.True(t, ok, "want *Query, got %T", got)
	assert.Equal(t, "level", q.Path)
	assert.Equal(t, "gt", q.Op)
	assert.Equal(t, 5.0, q.Value)

	assert.True(t, q.Test(map[string]any{"level": 9.0}))
	assert.False(t, q.Test(map[string]any{"level": 3.0}))
	assert.False(t, q.Test(map[string]any{}))
}

func TestRegexLiteral(t *testing.T) {
	in := Input{
		Text:     "The Dragon was SLAIN today",
		Builtins: builtin.NewRegistry(),
	}

	assert.True(t, compile(t, `~dragon.*slain~i`, Text).Test(in))
	assert.False(t, compile(t, `~dragon.*slain~`, Text).Test(in))
	assert.True(t, compile(t, `~slain~i && any("dragon")`, Text).Test(in))
}

func TestCompiledConcurrency(t *testing.T) {
	c := compile(t, `count("gold") >= 2`, Text)

	done := make(chan bool)
	for i := 0; i < 8; i++ {
		go func(hit bool) {
			text := "no treasure"
			if hit {
				text = "gold and more gold"
			}
			in := Input{Text: text, Builtins: builtin.NewRegistry()}
			done <- c.Test(in) == hit
		}(i%2 == 0)
	}
	for i := 0; i < 8; i++ {
		assert.True(t, <-done)
	}
}
