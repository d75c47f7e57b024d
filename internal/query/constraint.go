package query

import (
	"errors"
	"strconv"
)

type rangeOp uint8

const (
	opUnset rangeOp = iota
	opExactly
	opLessThan
	opGreaterThan
	opBetween
)

// Constraint is a numeric range filter. The zero value is unset.
type Constraint struct {
	op     rangeOp
	lo, hi int
}

// Exactly matches n.
func Exactly(n int) Constraint { return Constraint{op: opExactly, lo: n, hi: n} }

// LessThan matches values below n.
func LessThan(n int) Constraint { return Constraint{op: opLessThan, hi: n} }

// GreaterThan matches values above n.
func GreaterThan(n int) Constraint { return Constraint{op: opGreaterThan, lo: n} }

// Between matches values from lo to hi inclusive.
func Between(lo, hi int) Constraint { return Constraint{op: opBetween, lo: lo, hi: hi} }

// IsSet reports whether c filters anything.
func (c Constraint) IsSet() bool { return c.op != opUnset }

// String renders c the way the catalog's search form expects it.
func (c Constraint) String() string {
	switch c.op {
	case opExactly:
		return strconv.Itoa(c.lo)
	case opLessThan:
		return "<" + strconv.Itoa(c.hi)
	case opGreaterThan:
		return ">" + strconv.Itoa(c.lo)
	case opBetween:
		return strconv.Itoa(c.lo) + "-" + strconv.Itoa(c.hi)
	default:
		return ""
	}
}

// ParseConstraint reads the catalog's textual form back into a Constraint.
// An empty string is the unset constraint.
func ParseConstraint(s string) (Constraint, error) {
	if s == "" {
		return Constraint{}, nil
	}

	switch s[0] {
	case '<':
		n, err := strconv.Atoi(s[1:])
		if err != nil {
			return Constraint{}, errInvalidConstraint
		}
		return LessThan(n), nil
	case '>':
		n, err := strconv.Atoi(s[1:])
		if err != nil {
			return Constraint{}, errInvalidConstraint
		}
		return GreaterThan(n), nil
	}

	for i := 1; i < len(s); i++ {
		if s[i] != '-' {
			continue
		}
		lo, errLo := strconv.Atoi(s[:i])
		hi, errHi := strconv.Atoi(s[i+1:])
		if errLo != nil || errHi != nil {
			return Constraint{}, errInvalidConstraint
		}
		return Between(lo, hi), nil
	}

	n, err := strconv.Atoi(s)
	if err != nil {
		return Constraint{}, errInvalidConstraint
	}
	return Exactly(n), nil
}

var errInvalidConstraint = errors.New("expected n, <n, >n or a-b")

func (c Constraint) validate() string {
	switch {
	case !c.IsSet():
		return ""
	case c.lo < 0 || c.hi < 0:
		return "must not be negative"
	case c.op == opBetween && c.lo > c.hi:
		return "lower bound must not exceed upper bound"
	default:
		return ""
	}
}
