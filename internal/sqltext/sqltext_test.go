package sqltext

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIdent(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"plain", "users", `"users"`},
		{"hyphenated", "team_42-role", `"team_42-role"`},
		{"mixed case", "MyTable", `"MyTable"`},
		{"embedded quote", `we"ird`, `"we""ird"`},
		{"injection attempt", `"; DROP TABLE x; --`, `"""; DROP TABLE x; --"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Ident(tt.input))
		})
	}
}

func TestIdent_InjectionStaysQuoted(t *testing.T) {
	hostile := `"; DROP TABLE x; --`
	got := Ident(hostile)

	// Every interior double quote must be doubled, so the identifier can
	// never close early and leak the payload into statement position.
	inner := strings.TrimSuffix(strings.TrimPrefix(got, `"`), `"`)
	assert.NotContains(t, strings.ReplaceAll(inner, `""`, ``), `"`)
}

func TestQualifiedIdent(t *testing.T) {
	assert.Equal(t, `"public"."users"`, QualifiedIdent("public", "users"))
}

func TestLiteral(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"plain", "secret", `'secret'`},
		{"embedded quote", "it's", `'it''s'`},
		{"injection attempt", "'; DROP TABLE x; --", `'''; DROP TABLE x; --'`},
		{"backslash", `a\b`, `E'a\\b'`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Literal(tt.input))
		})
	}
}
