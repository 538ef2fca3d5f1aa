package models

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLooksCanonical(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		expect bool
	}{
		{"uuid", "6d2f1c4e-8a1b-4c3d-9e2f-0a1b2c3d4e5f", true},
		{"30 chars with separator", strings.Repeat("a", 29) + "-", true},
		{"29 chars with separator", strings.Repeat("a", 28) + "-", false},
		{"long name without separator", strings.Repeat("x", 35), false},
		{"short hyphenated name", "Jean-Luc Picard", false},
		{"empty", "", false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expect, LooksCanonical(tc.input))
		})
	}
}

func TestParseIdentifier(t *testing.T) {
	id := ParseIdentifier("  6d2f1c4e-8a1b-4c3d-9e2f-0a1b2c3d4e5f ")
	assert.Equal(t, ByID, id.Kind)
	assert.Equal(t, "6d2f1c4e-8a1b-4c3d-9e2f-0a1b2c3d4e5f", id.Value)

	name := ParseIdentifier("Sales Pipeline")
	assert.Equal(t, ByName, name.Kind)
	assert.Equal(t, "name:Sales Pipeline", name.String())
}

func TestExplicitIdentifiersSkipHeuristic(t *testing.T) {
	assert.Equal(t, ByID, IDOf("abc").Kind)
	assert.Equal(t, ByName, NameOf("6d2f1c4e-8a1b-4c3d-9e2f-0a1b2c3d4e5f").Kind)
}

func TestIdentifierPredicates(t *testing.T) {
	assert.True(t, NameOf("   ").IsEmpty())
	assert.False(t, NameOf("x").IsEmpty())
	assert.True(t, NameOf("jane@example.com").IsEmail())
	assert.False(t, IDOf("jane@example.com").IsEmail())
}
