/*
Package trigger provides an embedded expression language for
conditional triggers stored as plain strings inside game-state
records, evaluated against either a block of narrative text or a
structured record.

# Overview

An Engine owns a compiled-expression cache and the evaluation
environment. Hosts create one engine per session, hand each
evaluation the session's ambient bindings (conventionally a
state-like and an info-like namespace), and ask yes/no questions
about narrative text or records:

	eng := trigger.New()

	// Narrative-text triggers.
	hit := eng.EvaluateText(ctx, `near("sword", "broken", 20)`,
	    "the broken old sword lay there", nil)

	// Record filtering.
	hit = eng.EvaluateRecord(ctx, `type: "item" && level.gt: 5`,
	    map[string]any{"type": "item", "level": 10}, nil)

	// Ambient bindings.
	hit = eng.EvaluateText(ctx, "state.hp < 20", "",
	    trigger.Bindings{"state": map[string]any{"hp": 10}})

Failures are always soft: an expression that does not lex, parse, or
evaluate yields false (or "no evaluator" from Parse), never an error
that aborts the host's processing step. Diagnostics are visible
through an optional slog logger and OpenTelemetry metrics.

# Expression Syntax

	<expr>    := <or>
	<or>      := <and> ('||' | 'OR') <and> ...
	<and>     := <eq> ('&&' | 'AND') <eq> ...
	<eq>      := <rel> ('==' | '!=' | '===' | '!==') <rel> ...
	<rel>     := <add> ('<' | '<=' | '>' | '>=') <add> ...
	<add>     := <mul> ('+' | '-') <mul> ...
	<mul>     := <unary> ('*' | '/' | '%') <unary> ...
	<unary>   := ('!' | 'NOT' | '-' | '+') <unary> | <postfix>
	<postfix> := <primary> postfix-op ...

Postfix forms, applied left to right:

	.name            member access
	.name(args)      method call (args may be arrow functions: x => expr)
	[expr]           computed member access
	name(args)       function call, directly after a bare identifier
	path: value      object query, operator "equals"
	path.op: value   object query with an explicit operator

Object-query operators: contains, includes, startsWith (starts),
endsWith (ends), match, regex, gt, lt, gte, lte.

Regex literals are written ~pattern~flags and desugar to a call to
the builtin regex function:

	~dragon\s+slain~i

# Builtin Functions

Builtins run against the narrative text under evaluation, which is
passed implicitly as their first argument:

	any("gold", "silver")         some term matches (case-insensitive)
	all("gold", "dragon")         every term matches
	none("dead")                  no term matches
	count("gold") >= 3            whole-word occurrence count
	near("sword", "broken", 20)   occurrences within a character distance
	sequence("opened", "door")    whole-word matches in order
	regex("dragon\\s+slain", "i") pattern test
	fuzzy("sword", 0.8)           edit-similarity token match
	fuzzyFind("sword", 0.8)       best-scoring fuzzy token, or undefined
	fuzzyAny(list, 0.8)           fuzzy over a list of candidates

# Evaluation Contexts

A compiled evaluator is built for exactly one context kind:
ContextText evaluators receive narrative text, ContextObject
evaluators receive records. The two are never interchangeable even
when they share an AST shape, and the cache keys on the context kind
(plus an optional target kind) for that reason.

# Concurrency

Engines guard their cache with a lock and compiled evaluators are
immutable, so a single engine may be shared. Sessions that must not
observe each other's cache or globals get one engine each.
*/
package trigger
