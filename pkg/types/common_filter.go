package types

import (
	"errors"
	"fmt"

	"gorm.io/gorm/clause"
)

type CommonFilterOperator string

const (
	CommonFilterOperatorEq        CommonFilterOperator = "eq"
	CommonFilterOperatorNotEq     CommonFilterOperator = "not_eq"
	CommonFilterOperatorLt        CommonFilterOperator = "lt"
	CommonFilterOperatorLte       CommonFilterOperator = "lte"
	CommonFilterOperatorGt        CommonFilterOperator = "gt"
	CommonFilterOperatorGte       CommonFilterOperator = "gte"
	CommonFilterOperatorDateRange CommonFilterOperator = "date_range"
	CommonFilterOperatorRange     CommonFilterOperator = "range"
	CommonFilterOperatorIn        CommonFilterOperator = "in"
)

// CommonFilter is a single admin list condition, e.g.
// {"field":"payment_method","operator":"in","values":["qr_code","promptpay"]}.
type CommonFilter struct {
	Field    string               `json:"field"`
	Operator CommonFilterOperator `json:"operator"`
	Values   []any                `json:"values"`
}

// Build writes the condition. Column names are always quoted.
func (f *CommonFilter) Build(builder clause.Builder) {
	if len(f.Values) == 0 {
		builder.WriteString("1=1")
		return
	}

	value := f.Values[0]
	switch f.Operator {
	case CommonFilterOperatorEq:
		clause.Eq{Column: f.Field, Value: value}.Build(builder)
	case CommonFilterOperatorNotEq:
		clause.Neq{Column: f.Field, Value: value}.Build(builder)
	case CommonFilterOperatorLt:
		clause.Lt{Column: f.Field, Value: value}.Build(builder)
	case CommonFilterOperatorLte:
		clause.Lte{Column: f.Field, Value: value}.Build(builder)
	case CommonFilterOperatorGt:
		clause.Gt{Column: f.Field, Value: value}.Build(builder)
	case CommonFilterOperatorGte:
		clause.Gte{Column: f.Field, Value: value}.Build(builder)
	case CommonFilterOperatorRange, CommonFilterOperatorDateRange:
		if len(f.Values) < 2 {
			builder.WriteString("1=1")
			return
		}
		clause.And(clause.Gte{Column: f.Field, Value: f.Values[0]}, clause.Lt{Column: f.Field, Value: f.Values[1]}).Build(builder)
	case CommonFilterOperatorIn:
		clause.IN{Column: f.Field, Values: f.Values}.Build(builder)
	default:
		builder.WriteString("1=1")
	}
}

// FiltersAnd joins filters with AND. An empty list matches every row.
type FiltersAnd []*CommonFilter

func (w FiltersAnd) Build(builder clause.Builder) {
	if len(w) == 0 {
		builder.WriteString("1=1")
		return
	}
	exprs := make([]clause.Expression, 0, len(w))
	for _, f := range w {
		exprs = append(exprs, f)
	}
	clause.And(exprs...).Build(builder)
}

// ScanRequest is the paginated admin list request shared by every list endpoint.
type ScanRequest struct {
	Filters   []*CommonFilter `json:"filters"`
	From      int             `json:"from"`
	Size      int             `json:"size"`
	SortBy    string          `json:"sort_by"`
	SortOrder string          `json:"sort_order"`
}

var ErrInvalidScanRequest = errors.New("invalid scan request")

const (
	DefaultScanSize = 10
	MaxScanSize     = 200
)

// Normalize clamps pagination and rejects filter or sort fields outside allowed.
func (r *ScanRequest) Normalize(allowed ...string) error {
	if r.Size <= 0 {
		r.Size = DefaultScanSize
	}
	if r.Size > MaxScanSize {
		r.Size = MaxScanSize
	}
	if r.From < 0 {
		r.From = 0
	}
	ok := make(map[string]struct{}, len(allowed))
	for _, a := range allowed {
		ok[a] = struct{}{}
	}
	for _, f := range r.Filters {
		if f == nil {
			return fmt.Errorf("%w: nil filter", ErrInvalidScanRequest)
		}
		if _, found := ok[f.Field]; !found {
			return fmt.Errorf("%w: unsupported filter field %q", ErrInvalidScanRequest, f.Field)
		}
	}
	if r.SortBy != "" {
		if _, found := ok[r.SortBy]; !found {
			return fmt.Errorf("%w: unsupported sort field %q", ErrInvalidScanRequest, r.SortBy)
		}
	}
	return nil
}

// OrderBy sorts by SortBy, or by def when unset. Descending unless SortOrder is "asc".
func (r *ScanRequest) OrderBy(def string) clause.OrderBy {
	col := r.SortBy
	if col == "" {
		col = def
	}
	return clause.OrderBy{Columns: []clause.OrderByColumn{{Column: clause.Column{Name: col}, Desc: r.SortOrder != "asc"}}}
}
