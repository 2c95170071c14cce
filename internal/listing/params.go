// Package listing turns caller-supplied listing parameters into a validated query
// specification and the GORM scopes that render it.
//
// Sort column and direction are closed enums: they are the only values ever written
// into ORDER BY, so raw request text never reaches the query structure. The search
// term is always a bound parameter.
package listing

import (
	"math"
	"strconv"
	"strings"
	"unicode/utf8"

	"postboard/internal/models"
)

// SortColumn is an allow-listed sortable column of the posts table.
type SortColumn string

const (
	SortByID        SortColumn = "id"
	SortByTitle     SortColumn = "title"
	SortByContent   SortColumn = "content"
	SortByCreatedAt SortColumn = "created_at"
)

// sortColumns maps accepted request values to columns. createdAt is the JSON
// spelling of created_at.
var sortColumns = map[string]SortColumn{
	"id":         SortByID,
	"title":      SortByTitle,
	"content":    SortByContent,
	"created_at": SortByCreatedAt,
	"createdAt":  SortByCreatedAt,
}

// SortDirection is ORDER BY direction.
type SortDirection int

const (
	Ascending SortDirection = iota
	Descending
)

func (d SortDirection) String() string {
	if d == Descending {
		return "desc"
	}
	return "asc"
}

// ParseSortColumn resolves a request value against the allow-list.
func ParseSortColumn(raw string) (SortColumn, bool) {
	col, ok := sortColumns[strings.TrimSpace(raw)]
	return col, ok
}

// ParseSortDirection accepts asc/ascending/desc/descending in any case.
func ParseSortDirection(raw string) (SortDirection, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "asc", "ascending":
		return Ascending, true
	case "desc", "descending":
		return Descending, true
	default:
		return Ascending, false
	}
}

// Params are the raw listing parameters as decoded from the request. Empty fields
// mean "not supplied".
type Params struct {
	Page      string `query:"page"`
	PageSize  string `query:"pageSize"`
	SortBy    string `query:"sortBy"`
	SortOrder string `query:"sortOrder"`
	Search    string `query:"search"`
}

// Limits bound what a caller may ask for.
type Limits struct {
	DefaultPageSize int
	MaxPageSize     int
	MaxSearchLength int
}

// DefaultLimits is used when no configuration is wired in.
var DefaultLimits = Limits{
	DefaultPageSize: 10,
	MaxPageSize:     100,
	MaxSearchLength: 200,
}

// WithDefaults fills each non-positive field from DefaultLimits and keeps the
// default page size within the maximum.
func (l Limits) WithDefaults() Limits {
	if l.MaxPageSize <= 0 {
		l.MaxPageSize = DefaultLimits.MaxPageSize
	}
	if l.DefaultPageSize <= 0 {
		l.DefaultPageSize = DefaultLimits.DefaultPageSize
	}
	if l.DefaultPageSize > l.MaxPageSize {
		l.DefaultPageSize = l.MaxPageSize
	}
	if l.MaxSearchLength <= 0 {
		l.MaxSearchLength = DefaultLimits.MaxSearchLength
	}
	return l
}

// QuerySpec is a validated, bounded description of one listing request.
type QuerySpec struct {
	Offset        int
	Limit         int
	SortColumn    SortColumn
	SortDirection SortDirection
	// Search is the trimmed search term; empty means no filter.
	Search string
}

// Filtered reports whether a search predicate applies.
func (s QuerySpec) Filtered() bool {
	return s.Search != ""
}

// Normalize validates p against limits and produces a QuerySpec. Every failure is a
// validation AppError naming the offending field; nothing here touches the store.
func Normalize(p Params, limits Limits) (QuerySpec, error) {
	limits = limits.WithDefaults()
	spec := QuerySpec{
		Limit:         limits.DefaultPageSize,
		SortColumn:    SortByID,
		SortDirection: Ascending,
	}

	page := 0
	if raw := strings.TrimSpace(p.Page); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return QuerySpec{}, models.NewValidationError("page", "page must be an integer")
		}
		if n < 0 {
			return QuerySpec{}, models.NewValidationError("page", "page must not be negative")
		}
		page = n
	}

	if raw := strings.TrimSpace(p.PageSize); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return QuerySpec{}, models.NewValidationError("pageSize", "pageSize must be an integer")
		}
		if n < 1 || n > limits.MaxPageSize {
			return QuerySpec{}, models.NewValidationError("pageSize",
				"pageSize must be between 1 and "+strconv.Itoa(limits.MaxPageSize))
		}
		spec.Limit = n
	}

	if page > math.MaxInt32/spec.Limit {
		return QuerySpec{}, models.NewValidationError("page", "page is out of range")
	}
	spec.Offset = page * spec.Limit

	if p.SortBy != "" {
		col, ok := ParseSortColumn(p.SortBy)
		if !ok {
			return QuerySpec{}, models.NewValidationError("sortBy",
				"sortBy must be one of id, title, content, created_at")
		}
		spec.SortColumn = col
	}

	if p.SortOrder != "" {
		dir, ok := ParseSortDirection(p.SortOrder)
		if !ok {
			return QuerySpec{}, models.NewValidationError("sortOrder", "sortOrder must be asc or desc")
		}
		spec.SortDirection = dir
	}

	search := strings.TrimSpace(p.Search)
	if !utf8.ValidString(search) || strings.ContainsRune(search, 0) {
		return QuerySpec{}, models.NewValidationError("search", "search must be valid UTF-8 text without NUL characters")
	}
	if utf8.RuneCountInString(search) > limits.MaxSearchLength {
		return QuerySpec{}, models.NewValidationError("search",
			"search must be at most "+strconv.Itoa(limits.MaxSearchLength)+" characters")
	}
	spec.Search = search

	return spec, nil
}
