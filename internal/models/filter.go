package models

import (
	"fmt"
	"sort"
	"strings"
)

// Operator is a filter comparison supported by the remote query endpoints.
// Whether an operator is legal for a given attribute type is decided remotely.
type Operator string

const (
	OpEquals     Operator = "$eq"
	OpNotEquals  Operator = "$neq"
	OpContains   Operator = "$contains"
	OpStartsWith Operator = "$starts_with"
	OpEndsWith   Operator = "$ends_with"
	OpGreater    Operator = "$gt"
	OpGreaterEq  Operator = "$gte"
	OpLess       Operator = "$lt"
	OpLessEq     Operator = "$lte"
	OpIn         Operator = "$in"
	OpNotEmpty   Operator = "$not_empty"
)

var operatorAliases = map[string]Operator{
	"eq":          OpEquals,
	"equals":      OpEquals,
	"neq":         OpNotEquals,
	"ne":          OpNotEquals,
	"not_equals":  OpNotEquals,
	"contains":    OpContains,
	"starts_with": OpStartsWith,
	"ends_with":   OpEndsWith,
	"gt":          OpGreater,
	"gte":         OpGreaterEq,
	"lt":          OpLess,
	"lte":         OpLessEq,
	"in":          OpIn,
	"not_empty":   OpNotEmpty,
}

// LookupOperator maps a caller-supplied operator spelling ("$eq", "equals",
// "gte", ...) to an Operator.
func LookupOperator(s string) (Operator, bool) {
	key := strings.ToLower(strings.TrimPrefix(strings.TrimSpace(s), "$"))
	op, ok := operatorAliases[key]
	return op, ok
}

// Condition is one attribute comparison. Property selects a sub-field of a
// composite attribute value (for example name.full_name).
type Condition struct {
	Attribute string      `json:"attribute"`
	Property  string      `json:"property,omitempty"`
	Operator  Operator    `json:"operator"`
	Value     interface{} `json:"value"`
}

// Filter is an AND-combination of conditions.
type Filter []Condition

// ParseFilter converts a loosely-typed filter mapping of the form
//
//	{"<slug>": {"<operator>": <value>}}
//	{"<slug>": <scalar>}                       // shorthand for $eq
//	{"<slug>": {"<property>": {"<operator>": <value>}}}
//
// into a Filter. Unknown operators fail with ErrInvalidFilter.
func ParseFilter(raw map[string]interface{}) (Filter, error) {
	var f Filter
	for _, attr := range sortedKeys(raw) {
		if strings.TrimSpace(attr) == "" {
			return nil, fmt.Errorf("%w: empty attribute slug", ErrInvalidFilter)
		}
		if strings.HasPrefix(attr, "$") {
			return nil, fmt.Errorf("%w: %q is not an attribute slug; use one key per attribute", ErrInvalidFilter, attr)
		}
		conds, err := parseAttribute(attr, "", raw[attr])
		if err != nil {
			return nil, err
		}
		f = append(f, conds...)
	}
	return f, nil
}

func parseAttribute(attr, prop string, v interface{}) ([]Condition, error) {
	m, ok := v.(map[string]interface{})
	if !ok {
		c := Condition{Attribute: attr, Property: prop, Operator: OpEquals, Value: v}
		if _, isList := v.([]interface{}); isList {
			c.Operator = OpIn
		}
		if err := c.validate(); err != nil {
			return nil, err
		}
		return []Condition{c}, nil
	}
	if len(m) == 0 {
		return nil, fmt.Errorf("%w: %s has an empty condition", ErrInvalidFilter, path(attr, prop))
	}

	var conds []Condition
	for _, key := range sortedKeys(m) {
		if key == "$not" {
			c, err := parseNegation(attr, prop, m[key])
			if err != nil {
				return nil, err
			}
			conds = append(conds, c)
			continue
		}
		if op, ok := LookupOperator(key); ok {
			c := Condition{Attribute: attr, Property: prop, Operator: op, Value: m[key]}
			if err := c.validate(); err != nil {
				return nil, err
			}
			conds = append(conds, c)
			continue
		}
		if strings.HasPrefix(key, "$") {
			return nil, fmt.Errorf("%w: unknown operator %q on %s", ErrInvalidFilter, key, path(attr, prop))
		}
		if prop != "" {
			return nil, fmt.Errorf("%w: %s.%s nests deeper than one property", ErrInvalidFilter, path(attr, prop), key)
		}
		sub, err := parseAttribute(attr, key, m[key])
		if err != nil {
			return nil, err
		}
		conds = append(conds, sub...)
	}
	return conds, nil
}

// parseNegation accepts the remote encoding {"$not": {"$eq": v}}.
func parseNegation(attr, prop string, v interface{}) (Condition, error) {
	inner, ok := v.(map[string]interface{})
	if !ok || len(inner) != 1 {
		return Condition{}, fmt.Errorf("%w: $not on %s must wrap a single $eq", ErrInvalidFilter, path(attr, prop))
	}
	for key, val := range inner {
		if op, ok := LookupOperator(key); ok && op == OpEquals {
			return Condition{Attribute: attr, Property: prop, Operator: OpNotEquals, Value: val}, nil
		}
	}
	return Condition{}, fmt.Errorf("%w: $not on %s must wrap a single $eq", ErrInvalidFilter, path(attr, prop))
}

func (c Condition) validate() error {
	where := path(c.Attribute, c.Property)
	switch c.Operator {
	case OpContains, OpStartsWith, OpEndsWith:
		if _, ok := c.Value.(string); !ok {
			return fmt.Errorf("%w: %s on %s needs a string value", ErrInvalidFilter, c.Operator, where)
		}
	case OpIn:
		if _, ok := c.Value.([]interface{}); !ok {
			return fmt.Errorf("%w: %s on %s needs a list value", ErrInvalidFilter, c.Operator, where)
		}
	case OpNotEmpty:
		if _, ok := c.Value.(bool); !ok {
			return fmt.Errorf("%w: %s on %s needs true or false", ErrInvalidFilter, c.Operator, where)
		}
	case OpGreater, OpGreaterEq, OpLess, OpLessEq:
		switch c.Value.(type) {
		case string, float64, int, int64:
		default:
			return fmt.Errorf("%w: %s on %s needs a number, date or timestamp", ErrInvalidFilter, c.Operator, where)
		}
	case OpEquals, OpNotEquals:
		if c.Value == nil {
			return fmt.Errorf("%w: %s on %s needs a value", ErrInvalidFilter, c.Operator, where)
		}
	default:
		return fmt.Errorf("%w: unknown operator %q on %s", ErrInvalidFilter, c.Operator, where)
	}
	return nil
}

// fragment encodes the operator part of one condition.
func (c Condition) fragment() map[string]interface{} {
	if c.Operator == OpNotEquals {
		return map[string]interface{}{"$not": map[string]interface{}{string(OpEquals): c.Value}}
	}
	return map[string]interface{}{string(c.Operator): c.Value}
}

// payload encodes one condition as a standalone filter object.
func (c Condition) payload() map[string]interface{} {
	inner := c.fragment()
	if c.Property != "" {
		inner = map[string]interface{}{c.Property: inner}
	}
	return map[string]interface{}{c.Attribute: inner}
}

// Payload encodes the filter for a query request body. Conditions are
// merged into one object; when two conditions would collide on the same key
// the filter is emitted as an explicit {"$and": [...]} instead.
func (f Filter) Payload() map[string]interface{} {
	if len(f) == 0 {
		return nil
	}
	out := make(map[string]interface{})
	for _, c := range f {
		target := out
		if existing, ok := target[c.Attribute]; ok {
			m, ok := existing.(map[string]interface{})
			if !ok {
				return f.andPayload()
			}
			target = m
		} else {
			m := make(map[string]interface{})
			target[c.Attribute] = m
			target = m
		}
		if c.Property != "" {
			if existing, ok := target[c.Property]; ok {
				target = existing.(map[string]interface{})
			} else {
				m := make(map[string]interface{})
				target[c.Property] = m
				target = m
			}
		}
		for k, v := range c.fragment() {
			if _, dup := target[k]; dup {
				return f.andPayload()
			}
			target[k] = v
		}
	}
	return out
}

func (f Filter) andPayload() map[string]interface{} {
	parts := make([]interface{}, 0, len(f))
	for _, c := range f {
		parts = append(parts, c.payload())
	}
	return map[string]interface{}{"$and": parts}
}

// Sort orders query results by one attribute.
type Sort struct {
	Attribute string `json:"attribute"`
	Field     string `json:"field,omitempty"`
	Direction string `json:"direction"`
}

// ParseSorts converts caller-supplied sort specs. Each entry is a mapping
// with "attribute", optional "field" and optional "direction" (asc|desc).
func ParseSorts(raw []interface{}) ([]Sort, error) {
	sorts := make([]Sort, 0, len(raw))
	for i, item := range raw {
		m, ok := item.(map[string]interface{})
		if !ok {
			return nil, fmt.Errorf("%w: sort %d must be an object", ErrInvalidFilter, i)
		}
		s := Sort{
			Attribute: StringField(m, "attribute"),
			Field:     StringField(m, "field"),
			Direction: strings.ToLower(StringField(m, "direction")),
		}
		if s.Attribute == "" {
			return nil, fmt.Errorf("%w: sort %d has no attribute", ErrInvalidFilter, i)
		}
		if s.Direction == "" {
			s.Direction = "asc"
		}
		if s.Direction != "asc" && s.Direction != "desc" {
			return nil, fmt.Errorf("%w: sort %d direction must be asc or desc, got %q", ErrInvalidFilter, i, s.Direction)
		}
		sorts = append(sorts, s)
	}
	return sorts, nil
}

func path(attr, prop string) string {
	if prop == "" {
		return attr
	}
	return attr + "." + prop
}

func sortedKeys(m map[string]interface{}) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
