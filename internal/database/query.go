package database

import (
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Predicate is a typed filter condition rendered by gorm's clause builder.
type Predicate = clause.Expression

// Query describes which rows a repository call should touch and in what order.
// The zero value matches every row.
type Query struct {
	conds    []clause.Expression
	orders   []clause.OrderByColumn
	preloads []string
	limit    int
	offset   int
}

// NewQuery starts a query filtered by the given predicates.
func NewQuery(preds ...Predicate) Query {
	return Query{}.Where(preds...)
}

// Where narrows the query; predicates are ANDed together.
func (q Query) Where(preds ...Predicate) Query {
	q.conds = append(append([]clause.Expression(nil), q.conds...), preds...)
	return q
}

// OrderBy appends a sort key.
func (q Query) OrderBy(column string, desc bool) Query {
	q.orders = append(append([]clause.OrderByColumn(nil), q.orders...), clause.OrderByColumn{
		Column: clause.Column{Name: column},
		Desc:   desc,
	})
	return q
}

func (q Query) Limit(n int) Query {
	q.limit = n
	return q
}

func (q Query) Offset(n int) Query {
	q.offset = n
	return q
}

// Preload loads the named associations with the results.
func (q Query) Preload(associations ...string) Query {
	q.preloads = append(append([]string(nil), q.preloads...), associations...)
	return q
}

func (q Query) apply(db *gorm.DB) *gorm.DB {
	if len(q.conds) > 0 {
		db = db.Clauses(clause.Where{Exprs: q.conds})
	}
	for _, order := range q.orders {
		db = db.Order(order)
	}
	for _, assoc := range q.preloads {
		db = db.Preload(assoc)
	}
	if q.limit > 0 {
		db = db.Limit(q.limit)
	}
	if q.offset > 0 {
		db = db.Offset(q.offset)
	}
	return db
}

func column(name string) clause.Column {
	return clause.Column{Name: name}
}

func Eq(col string, value any) Predicate {
	return clause.Eq{Column: column(col), Value: value}
}

func Neq(col string, value any) Predicate {
	return clause.Neq{Column: column(col), Value: value}
}

// FoldEq compares text case-insensitively.
func FoldEq(col string, value string) Predicate {
	return clause.Expr{SQL: "LOWER(?) = LOWER(?)", Vars: []any{column(col), value}}
}

func IsNull(col string) Predicate {
	return clause.Eq{Column: column(col), Value: nil}
}

func NotNull(col string) Predicate {
	return clause.Neq{Column: column(col), Value: nil}
}

func Lt(col string, value any) Predicate {
	return clause.Lt{Column: column(col), Value: value}
}

func Gt(col string, value any) Predicate {
	return clause.Gt{Column: column(col), Value: value}
}

func In(col string, values ...any) Predicate {
	return clause.IN{Column: column(col), Values: values}
}

// Or matches when any of the predicates match.
func Or(preds ...Predicate) Predicate {
	return clause.Or(preds...)
}
