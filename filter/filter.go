// Package filter implements the closed-vocabulary predicate evaluator
// the Design Notes call for in place of the original's dynamic
// string-keyed filter expressions (e.g. "MOODY'S RATING < B3"):
// a parsed AST of {And, Or, Compare(field_tag, op, literal)} nodes,
// evaluated against a FieldSource without reflection or exceptions.
package filter

import "github.com/meenmo-clo/engine/errs"

// FieldTag is the closed vocabulary of fields a predicate may
// reference. Only tags listed here are legal; there is no open
// string-keyed lookup.
type FieldTag string

const (
	FieldParAmount      FieldTag = "PAR_AMOUNT"
	FieldMoodyRatingRank FieldTag = "MOODYS_RATING_RANK"
	FieldSPRatingRank    FieldTag = "SP_RATING_RANK"
	FieldSeniority       FieldTag = "SENIORITY"
	FieldKind            FieldTag = "KIND"
	FieldMoodyIndustry   FieldTag = "MOODYS_INDUSTRY"
	FieldSPIndustry      FieldTag = "SP_INDUSTRY"
	FieldCountry         FieldTag = "COUNTRY"
	FieldCovLite         FieldTag = "COV_LITE"
	FieldDefaulted       FieldTag = "DEFAULTED"
	FieldDIP             FieldTag = "DIP"
	FieldStructFinance   FieldTag = "STRUCT_FINANCE"
	FieldRevolver        FieldTag = "REVOLVER"
)

// Op is a comparison operator.
type Op string

const (
	OpEQ Op = "=="
	OpNE Op = "!="
	OpLT Op = "<"
	OpLE Op = "<="
	OpGT Op = ">"
	OpGE Op = ">="
)

// Value is a predicate literal: exactly one field populated.
type Value struct {
	Number *float64
	Text    *string
	Boolean *bool
}

func Num(v float64) Value   { return Value{Number: &v} }
func Str(v string) Value    { return Value{Text: &v} }
func Bool(v bool) Value     { return Value{Boolean: &v} }

// Predicate is the typed predicate tree: And/Or combinators over
// Compare leaves.
type Predicate struct {
	And     []*Predicate
	Or      []*Predicate
	Not     *Predicate
	Compare *CompareNode
}

type CompareNode struct {
	Field FieldTag
	Op    Op
	Lit   Value
}

// FieldSource supplies a single field's value for predicate
// evaluation; asset.Obligation (via an adapter) is the primary
// implementation.
type FieldSource interface {
	Field(tag FieldTag) (Value, error)
}

// Eval evaluates predicate p against src, returning an *errs.Error of
// kind errs.Validation instead of panicking on an unrecognized tag or
// type mismatch.
func Eval(p *Predicate, src FieldSource) (bool, error) {
	const op = "filter.Eval"
	switch {
	case p == nil:
		return true, nil
	case p.Compare != nil:
		return evalCompare(p.Compare, src)
	case p.Not != nil:
		r, err := Eval(p.Not, src)
		return !r, err
	case len(p.And) > 0:
		for _, child := range p.And {
			r, err := Eval(child, src)
			if err != nil {
				return false, err
			}
			if !r {
				return false, nil
			}
		}
		return true, nil
	case len(p.Or) > 0:
		for _, child := range p.Or {
			r, err := Eval(child, src)
			if err != nil {
				return false, err
			}
			if r {
				return true, nil
			}
		}
		return false, nil
	default:
		return false, errs.New(errs.Validation, op, "empty predicate node")
	}
}

func evalCompare(c *CompareNode, src FieldSource) (bool, error) {
	const op = "filter.evalCompare"
	val, err := src.Field(c.Field)
	if err != nil {
		return false, err
	}

	switch {
	case val.Number != nil && c.Lit.Number != nil:
		return compareNumber(*val.Number, c.Op, *c.Lit.Number), nil
	case val.Text != nil && c.Lit.Text != nil:
		return compareText(*val.Text, c.Op, *c.Lit.Text), nil
	case val.Boolean != nil && c.Lit.Boolean != nil:
		return compareBool(*val.Boolean, c.Op, *c.Lit.Boolean), nil
	default:
		return false, errs.New(errs.Validation, op, "type mismatch comparing field "+string(c.Field))
	}
}

func compareNumber(a float64, op Op, b float64) bool {
	switch op {
	case OpEQ:
		return a == b
	case OpNE:
		return a != b
	case OpLT:
		return a < b
	case OpLE:
		return a <= b
	case OpGT:
		return a > b
	case OpGE:
		return a >= b
	default:
		return false
	}
}

func compareText(a string, op Op, b string) bool {
	switch op {
	case OpEQ:
		return a == b
	case OpNE:
		return a != b
	default:
		return false
	}
}

func compareBool(a bool, op Op, b bool) bool {
	switch op {
	case OpEQ:
		return a == b
	case OpNE:
		return a != b
	default:
		return false
	}
}
