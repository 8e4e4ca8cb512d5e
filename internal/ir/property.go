package ir

import (
	"fmt"
	"math/bits"
	"strings"
)

// Property is an algebraic property that can be declared on an operand.
type Property uint8

const (
	UpperTriangular Property = iota
	LowerTriangular
	Square
	Symmetric
	FullRank
	SPD

	numProperties
)

var propertyNames = [numProperties]string{
	UpperTriangular: "UPPER_TRIANGULAR",
	LowerTriangular: "LOWER_TRIANGULAR",
	Square:          "SQUARE",
	Symmetric:       "SYMMETRIC",
	FullRank:        "FULL_RANK",
	SPD:             "SPD",
}

// AllProperties lists every property in declaration order.
var AllProperties = []Property{UpperTriangular, LowerTriangular, Square, Symmetric, FullRank, SPD}

func (p Property) String() string {
	if p < numProperties {
		return propertyNames[p]
	}
	return fmt.Sprintf("Property(%d)", uint8(p))
}

// ParseProperty converts a name such as "LOWER_TRIANGULAR" into a Property.
// Matching is case-insensitive.
func ParseProperty(s string) (Property, error) {
	upper := strings.ToUpper(strings.TrimSpace(s))
	for p, name := range propertyNames {
		if name == upper {
			return Property(p), nil
		}
	}
	return 0, fmt.Errorf("unknown property %q", s)
}

// PropertySet is a bit set of declared properties.
type PropertySet uint8

// NewPropertySet builds a set from the given properties.
func NewPropertySet(props ...Property) PropertySet {
	var s PropertySet
	for _, p := range props {
		s = s.With(p)
	}
	return s
}

// Has reports whether p is in the set.
func (s PropertySet) Has(p Property) bool { return s&(1<<p) != 0 }

// With returns the set with p added.
func (s PropertySet) With(p Property) PropertySet { return s | 1<<p }

// Len returns the number of properties in the set.
func (s PropertySet) Len() int { return bits.OnesCount8(uint8(s)) }

// List returns the members in declaration order.
func (s PropertySet) List() []Property {
	out := make([]Property, 0, s.Len())
	for _, p := range AllProperties {
		if s.Has(p) {
			out = append(out, p)
		}
	}
	return out
}

// Closure adds the properties implied by definition:
// SPD implies SYMMETRIC, FULL_RANK and SQUARE; SYMMETRIC implies SQUARE.
func (s PropertySet) Closure() PropertySet {
	if s.Has(SPD) {
		s = s.With(Symmetric).With(FullRank).With(Square)
	}
	if s.Has(Symmetric) {
		s = s.With(Square)
	}
	return s
}

// String renders the set as a comma-separated list of names.
func (s PropertySet) String() string {
	names := make([]string, 0, s.Len())
	for _, p := range s.List() {
		names = append(names, p.String())
	}
	return strings.Join(names, ", ")
}
