package vista

import (
	"net/url"
	"strconv"
	"strings"
)

// Wire keys of the flat view-state encoding. Filter slots are numbered
// 0..MaxFilterSlots-1.
const (
	keyFilterField = "filter__fieldname__"
	keyFilterOp    = "filter__op__"
	keyFilterValue = "filter__value__"
	keyOrderBy     = "order_by"
	keyColumns     = "columns"
	keyPaginateBy  = "paginate_by"
	keyFreeText    = "combined_text_search"
)

// Filter is one decoded filter tuple. Values holds one element for scalar
// operators and any number for OpIn.
type Filter struct {
	Field  string
	Op     Operator
	Values []string
}

// Value returns the scalar value of a non-in filter.
func (f Filter) Value() string {
	if len(f.Values) == 0 {
		return ""
	}
	return f.Values[0]
}

// ViewState is the decoded, in-memory form of a vista or of an ad hoc
// query submission. OrderBy entries carry a leading '-' for descending.
type ViewState struct {
	Filters    []Filter
	OrderBy    []string
	Columns    []string
	PaginateBy int
	FreeText   string
}

// IsZero reports whether the view-state carries no selections at all.
func (v ViewState) IsZero() bool {
	return len(v.Filters) == 0 && len(v.OrderBy) == 0 && len(v.Columns) == 0 &&
		v.PaginateBy == 0 && v.FreeText == ""
}

// Encode serializes a view-state to flat key/value pairs suitable for URL
// encoding or vista storage. Encoding a decoded view-state reproduces its
// meaning; literal key order is not significant.
func Encode(v ViewState) url.Values {
	vals := url.Values{}

	for i, f := range v.Filters {
		idx := strconv.Itoa(i)
		vals.Set(keyFilterField+idx, f.Field)
		vals.Set(keyFilterOp+idx, string(f.Op))
		if f.Op == OpIn {
			for _, value := range f.Values {
				vals.Add(keyFilterValue+idx, value)
			}
		} else {
			vals.Set(keyFilterValue+idx, f.Value())
		}
	}

	for _, field := range v.OrderBy {
		vals.Add(keyOrderBy, field)
	}
	for _, field := range v.Columns {
		vals.Add(keyColumns, field)
	}
	if v.PaginateBy > 0 {
		vals.Set(keyPaginateBy, strconv.Itoa(v.PaginateBy))
	}
	if v.FreeText != "" {
		vals.Set(keyFreeText, v.FreeText)
	}

	return vals
}

// Decode reconstructs a view-state from flat key/value pairs, validating
// every entry against the catalog. Malformed entries are dropped, never
// fatal: a stale saved vista must not break the whole list. Filter slot
// enumeration stops at the first absent fieldname index.
func Decode(cat *Catalog, vals url.Values) ViewState {
	var v ViewState

	for i := 0; i < cat.MaxFilterSlots; i++ {
		idx := strconv.Itoa(i)
		if !vals.Has(keyFilterField + idx) {
			break
		}

		field := vals.Get(keyFilterField + idx)
		op := Operator(vals.Get(keyFilterOp + idx))

		spec, ok := cat.Field(field)
		if !ok || !spec.Filterable || !OperatorAllowed(spec.Type, op) {
			continue
		}

		var values []string
		if op == OpIn {
			values = append(values, vals[keyFilterValue+idx]...)
		} else {
			values = []string{vals.Get(keyFilterValue + idx)}
		}

		v.Filters = append(v.Filters, Filter{Field: field, Op: op, Values: values})
	}

	for _, entry := range vals[keyOrderBy] {
		name := strings.TrimPrefix(entry, "-")
		if spec, ok := cat.Field(name); ok && spec.Orderable {
			v.OrderBy = append(v.OrderBy, entry)
		}
	}

	for _, name := range vals[keyColumns] {
		if spec, ok := cat.Field(name); ok && spec.ColumnView {
			v.Columns = append(v.Columns, name)
		}
	}

	if raw := vals.Get(keyPaginateBy); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			v.PaginateBy = n
		}
	}

	v.FreeText = vals.Get(keyFreeText)

	return v
}
