package props

import (
	"errors"
	"fmt"
	"strings"

	"github.com/roach88/mchain/internal/ir"
)

// Answer is the outcome of one predicate on one node.
type Answer int

const (
	False Answer = iota
	True
	Unsupported
)

func (a Answer) String() string {
	switch a {
	case True:
		return "true"
	case False:
		return "false"
	default:
		return "unsupported"
	}
}

// MarshalText renders the answer for JSON and YAML output.
func (a Answer) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

// Report holds all six predicate answers for a node.
type Report struct {
	UpperTriangular Answer `json:"upper_triangular"`
	LowerTriangular Answer `json:"lower_triangular"`
	Square          Answer `json:"square"`
	Symmetric       Answer `json:"symmetric"`
	FullRank        Answer `json:"full_rank"`
	SPD             Answer `json:"spd"`
}

// Get returns the answer for the predicate matching p.
func (r Report) Get(p ir.Property) Answer {
	switch p {
	case ir.UpperTriangular:
		return r.UpperTriangular
	case ir.LowerTriangular:
		return r.LowerTriangular
	case ir.Square:
		return r.Square
	case ir.Symmetric:
		return r.Symmetric
	case ir.FullRank:
		return r.FullRank
	case ir.SPD:
		return r.SPD
	default:
		return Unsupported
	}
}

// Holds returns the properties answered True, as a set.
func (r Report) Holds() ir.PropertySet {
	var s ir.PropertySet
	for _, p := range ir.AllProperties {
		if r.Get(p) == True {
			s = s.With(p)
		}
	}
	return s
}

func (r Report) String() string {
	parts := make([]string, 0, len(ir.AllProperties))
	for _, p := range ir.AllProperties {
		parts = append(parts, fmt.Sprintf("%s=%s", p, r.Get(p)))
	}
	return strings.Join(parts, " ")
}

// Check evaluates the predicate for p on e.
func Check(e ir.Expr, p ir.Property) (bool, error) {
	switch p {
	case ir.UpperTriangular:
		return IsUpperTriangular(e)
	case ir.LowerTriangular:
		return IsLowerTriangular(e)
	case ir.Square:
		return IsSquare(e)
	case ir.Symmetric:
		return IsSymmetric(e)
	case ir.FullRank:
		return IsFullRank(e)
	case ir.SPD:
		return IsSPD(e)
	default:
		return false, fmt.Errorf("unknown property %s", p)
	}
}

// Infer evaluates every predicate on e. Unsupported cells are recorded as
// Unsupported instead of failing the whole report; any other error is
// returned.
func Infer(e ir.Expr) (Report, error) {
	var r Report
	slots := map[ir.Property]*Answer{
		ir.UpperTriangular: &r.UpperTriangular,
		ir.LowerTriangular: &r.LowerTriangular,
		ir.Square:          &r.Square,
		ir.Symmetric:       &r.Symmetric,
		ir.FullRank:        &r.FullRank,
		ir.SPD:             &r.SPD,
	}
	for _, p := range ir.AllProperties {
		ok, err := Check(e, p)
		switch {
		case errors.Is(err, ErrUnsupportedQuery):
			*slots[p] = Unsupported
		case err != nil:
			return Report{}, err
		case ok:
			*slots[p] = True
		default:
			*slots[p] = False
		}
	}
	return r, nil
}
