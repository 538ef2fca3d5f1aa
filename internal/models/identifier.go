package models

import "strings"

// IdentifierKind tags how an Identifier should be resolved.
type IdentifierKind int

const (
	// ByName is a human-supplied display name that needs a search.
	ByName IdentifierKind = iota
	// ByID is a canonical remote ID used as-is.
	ByID
)

func (k IdentifierKind) String() string {
	if k == ByID {
		return "id"
	}
	return "name"
}

// canonicalMinLength and canonicalSeparator form the untyped-input heuristic
// for "looks like a system-issued ID".
const (
	canonicalMinLength = 30
	canonicalSeparator = "-"
)

// Identifier is a caller-supplied reference to a list or record.
type Identifier struct {
	Kind  IdentifierKind `json:"kind"`
	Value string         `json:"value"`
}

// IDOf returns an explicit canonical-ID identifier.
func IDOf(id string) Identifier {
	return Identifier{Kind: ByID, Value: strings.TrimSpace(id)}
}

// NameOf returns an explicit display-name identifier.
func NameOf(name string) Identifier {
	return Identifier{Kind: ByName, Value: strings.TrimSpace(name)}
}

// ParseIdentifier adapts an untyped string. Values that LooksCanonical are
// treated as IDs, everything else as a name.
func ParseIdentifier(s string) Identifier {
	s = strings.TrimSpace(s)
	if LooksCanonical(s) {
		return IDOf(s)
	}
	return NameOf(s)
}

// LooksCanonical reports whether s contains the separator and is at least
// 30 characters long. It is a loose proxy for a UUID and is only consulted
// for untyped input.
func LooksCanonical(s string) bool {
	return len(s) >= canonicalMinLength && strings.Contains(s, canonicalSeparator)
}

// IsEmpty reports whether the identifier carries no value.
func (i Identifier) IsEmpty() bool {
	return strings.TrimSpace(i.Value) == ""
}

// IsEmail reports whether the identifier looks like an email address.
func (i Identifier) IsEmail() bool {
	return i.Kind == ByName && strings.Contains(i.Value, "@")
}

func (i Identifier) String() string {
	return i.Kind.String() + ":" + i.Value
}
