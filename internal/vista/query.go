package vista

import (
	"strconv"
	"strings"
	"time"

	"gorm.io/gorm"
)

// Apply translates a decoded view-state into WHERE and ORDER BY clauses on
// the given query. All values are bound as parameters, never interpolated.
// Entries the catalog cannot serve are dropped rather than raised, so a
// malformed saved view degrades to a wider result set instead of an error.
// Read-only: Apply never mutates the view-state or writes to the store.
func Apply(q *gorm.DB, cat *Catalog, v ViewState) *gorm.DB {
	return Sort(Filters(q, cat, v), cat, v.OrderBy)
}

// Filters applies the free-text predicate OR-combined over the catalog's
// text fields, AND-combined with one predicate per filter tuple. Callers
// count matches on this query before ordering and paging.
func Filters(q *gorm.DB, cat *Catalog, v ViewState) *gorm.DB {
	q = applyFreeText(q, cat, v.FreeText)
	for _, f := range v.Filters {
		q = applyFilter(q, cat, f)
	}
	return q
}

// Sort applies a stable multi-key ORDER BY; a '-' prefix means descending.
func Sort(q *gorm.DB, cat *Catalog, orderBy []string) *gorm.DB {
	return applyOrder(q, cat, orderBy)
}

// Paginate applies the page slice for a 1-based page number. Pages past the
// end simply return no rows.
func Paginate(q *gorm.DB, page, pageSize int) *gorm.DB {
	if page < 1 {
		page = 1
	}
	return q.Offset((page - 1) * pageSize).Limit(pageSize)
}

func applyFreeText(q *gorm.DB, cat *Catalog, needle string) *gorm.DB {
	if needle == "" || len(cat.TextFields) == 0 {
		return q
	}

	conds := make([]string, 0, len(cat.TextFields))
	args := make([]interface{}, 0, len(cat.TextFields))
	pattern := likePattern(needle)

	for _, name := range cat.TextFields {
		spec, ok := cat.Field(name)
		if !ok || spec.Column == "" {
			continue
		}
		conds = append(conds, "lower("+quote(spec.Column)+") LIKE ? ESCAPE '\\'")
		args = append(args, pattern)
	}
	if len(conds) == 0 {
		return q
	}

	return q.Where(strings.Join(conds, " OR "), args...)
}

func applyFilter(q *gorm.DB, cat *Catalog, f Filter) *gorm.DB {
	spec, ok := cat.Field(f.Field)
	if !ok || !spec.Filterable || spec.Column == "" || !OperatorAllowed(spec.Type, f.Op) {
		return q
	}

	col := quote(spec.Column)

	switch f.Op {
	case OpEquals, OpNotEquals, OpGreater, OpLess:
		value, ok := coerce(spec.Type, f.Value())
		if !ok {
			return q
		}
		return q.Where(comparison(spec.Type, col, f.Op), value)

	case OpContains:
		return q.Where("lower("+col+") LIKE ? ESCAPE '\\'", likePattern(f.Value()))

	case OpIn:
		if len(f.Values) == 0 {
			// an empty in-list matches nothing
			return q.Where("1 = 0")
		}
		values := make([]interface{}, 0, len(f.Values))
		for _, raw := range f.Values {
			if value, ok := coerce(spec.Type, raw); ok {
				values = append(values, value)
			}
		}
		if len(values) == 0 {
			return q
		}
		if spec.Type == TypeDate {
			return q.Where("date("+col+") IN ?", values)
		}
		return q.Where(col+" IN ?", values)

	case OpIsNull:
		if wantNull(f.Value()) {
			return q.Where(col + " IS NULL")
		}
		return q.Where(col + " IS NOT NULL")
	}

	return q
}

func applyOrder(q *gorm.DB, cat *Catalog, orderBy []string) *gorm.DB {
	for _, entry := range orderBy {
		name := strings.TrimPrefix(entry, "-")

		spec, ok := cat.Field(name)
		if !ok || !spec.Orderable {
			continue
		}

		expr := spec.OrderExpr
		if expr == "" {
			expr = quote(spec.Column)
		}
		if strings.HasPrefix(entry, "-") {
			expr += " DESC"
		}
		q = q.Order(expr)
	}
	return q
}

// comparison picks the SQL comparison for a scalar operator. Date and
// datetime columns compare under calendar semantics rather than raw text.
func comparison(t SemanticType, col string, op Operator) string {
	var sign string
	switch op {
	case OpEquals:
		sign = "="
	case OpNotEquals:
		sign = "<>"
	case OpGreater:
		sign = ">"
	case OpLess:
		sign = "<"
	}

	switch t {
	case TypeDate:
		return "date(" + col + ") " + sign + " date(?)"
	case TypeDateTime:
		return "datetime(" + col + ") " + sign + " datetime(?)"
	default:
		return col + " " + sign + " ?"
	}
}

// coerce converts a wire value into a typed bind argument. Failure drops
// the filter entry instead of failing the query.
func coerce(t SemanticType, raw string) (interface{}, bool) {
	switch t {
	case TypeInteger:
		n, err := strconv.Atoi(raw)
		return n, err == nil
	case TypeDecimal:
		n, err := strconv.ParseFloat(raw, 64)
		return n, err == nil
	case TypeBoolean:
		b, err := strconv.ParseBool(raw)
		return b, err == nil
	case TypeDate:
		day, err := time.Parse("2006-01-02", raw)
		return day.Format("2006-01-02"), err == nil
	case TypeDateTime:
		for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02 15:04:05", "2006-01-02"} {
			if _, err := time.Parse(layout, raw); err == nil {
				return raw, true
			}
		}
		return nil, false
	default:
		return raw, true
	}
}

func wantNull(raw string) bool {
	if raw == "" {
		return true
	}
	b, err := strconv.ParseBool(raw)
	return err != nil || b
}

// quote backtick-quotes a column identifier; some catalog columns (begin,
// when) are SQL keywords.
func quote(col string) string {
	return "`" + col + "`"
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// likePattern builds a substring LIKE pattern in which %, _ and the escape
// character from the needle match themselves.
func likePattern(needle string) string {
	return "%" + likeEscaper.Replace(strings.ToLower(needle)) + "%"
}
