package asset

import (
	"github.com/meenmo-clo/engine/errs"
	"github.com/meenmo-clo/engine/filter"
	"github.com/meenmo-clo/engine/rating"
)

// FieldSource adapts an Obligation to filter.FieldSource so pool
// queries and concentration tests can evaluate predicates against it
// through the closed field-tag vocabulary rather than reflection.
type FieldSource struct {
	Obligation *Obligation
}

func (f FieldSource) Field(tag filter.FieldTag) (filter.Value, error) {
	o := f.Obligation
	switch tag {
	case filter.FieldParAmount:
		return filter.Num(o.ParAmount.Float64()), nil
	case filter.FieldMoodyRatingRank:
		return filter.Num(float64(rating.Rank(o.MoodyRating))), nil
	case filter.FieldSPRatingRank:
		return filter.Num(float64(rating.SPRank(o.SPRating))), nil
	case filter.FieldSeniority:
		return filter.Str(string(o.Seniority)), nil
	case filter.FieldKind:
		return filter.Str(string(o.Kind)), nil
	case filter.FieldMoodyIndustry:
		return filter.Str(o.MoodyIndustry), nil
	case filter.FieldSPIndustry:
		return filter.Str(o.SPIndustry), nil
	case filter.FieldCountry:
		return filter.Str(o.Country), nil
	case filter.FieldCovLite:
		return filter.Bool(o.Flags.CovLite), nil
	case filter.FieldDefaulted:
		return filter.Bool(o.Flags.DefaultAsset), nil
	case filter.FieldDIP:
		return filter.Bool(o.Flags.DIP), nil
	case filter.FieldStructFinance:
		return filter.Bool(o.Flags.StructFinance), nil
	case filter.FieldRevolver:
		return filter.Bool(o.Flags.Revolver), nil
	default:
		return filter.Value{}, errs.New(errs.Validation, "asset.Field", "unrecognized field tag")
	}
}
