package listing

import (
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// searchColumn is a column matched by the search predicate. Non-text columns are
// compared through their text rendering so a term can hit an id or a date.
type searchColumn struct {
	name   string
	asText bool
}

var searchColumns = []searchColumn{
	{name: "id", asText: true},
	{name: "title"},
	{name: "content"},
	{name: "created_at", asText: true},
}

// projection is the column list selected by the listing query.
var projection = []string{"id", "title", "content", "created_at"}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// Pattern is the bound ILIKE value for term: the term with LIKE metacharacters
// escaped, wrapped in %...%.
func Pattern(term string) string {
	return "%" + likeEscaper.Replace(term) + "%"
}

// Predicate returns the filter shared by the listing and count queries, or nil when
// there is no search term.
func (s QuerySpec) Predicate() clause.Expression {
	if !s.Filtered() {
		return nil
	}

	pattern := Pattern(s.Search)
	exprs := make([]clause.Expression, 0, len(searchColumns))
	for _, col := range searchColumns {
		sql := "? ILIKE ?"
		if col.asText {
			sql = "?::text ILIKE ?"
		}
		exprs = append(exprs, clause.Expr{
			SQL:  sql,
			Vars: []any{clause.Column{Table: clause.CurrentTable, Name: col.name}, pattern},
		})
	}
	return clause.Or(exprs...)
}

// Filter is the scope applying the shared predicate. Both queries go through it.
func (s QuerySpec) Filter() func(*gorm.DB) *gorm.DB {
	pred := s.Predicate()
	return func(tx *gorm.DB) *gorm.DB {
		if pred == nil {
			return tx
		}
		return tx.Where(pred)
	}
}

// OrderBy renders the sort from the enum members. Sorting by a non-unique column
// appends id ascending so pages are reproducible.
func (s QuerySpec) OrderBy() []clause.OrderByColumn {
	cols := []clause.OrderByColumn{{
		Column: clause.Column{Table: clause.CurrentTable, Name: string(s.SortColumn)},
		Desc:   s.SortDirection == Descending,
	}}
	if s.SortColumn != SortByID {
		cols = append(cols, clause.OrderByColumn{
			Column: clause.Column{Table: clause.CurrentTable, Name: string(SortByID)},
		})
	}
	return cols
}

// Page is the scope for the listing query: projection, shared predicate, order,
// limit and offset, in that order.
func (s QuerySpec) Page() func(*gorm.DB) *gorm.DB {
	return func(tx *gorm.DB) *gorm.DB {
		tx = s.Filter()(tx.Select(projection))
		for _, col := range s.OrderBy() {
			tx = tx.Order(col)
		}
		return tx.Limit(s.Limit).Offset(s.Offset)
	}
}
