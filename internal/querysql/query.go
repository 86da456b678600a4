package querysql

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/roach88/stencil/internal/model"
)

// Defaults used when a section tag does not specify pagination.
const (
	DefaultLimit  = 1000
	DefaultOffset = 0
)

// Predicate is a WHERE clause fragment.
type Predicate interface {
	predicate()
}

// Equals is "field = value".
type Equals struct {
	Field string
	Value any
}

// And is a conjunction of predicates.
type And struct {
	Predicates []Predicate
}

func (Equals) predicate() {}
func (And) predicate()    {}

// OrderTerm orders by a content field.
type OrderTerm struct {
	Field string
	Desc  bool
}

// RecordQuery selects records of one section.
type RecordQuery struct {
	Filter Predicate

	// Order is empty for the default position/created_at order.
	Order []OrderTerm

	// Single drops user ordering and fetches one record.
	Single bool

	Limit  int
	Offset int
}

var fieldNameRegex = regexp.MustCompile(`^\w+$`)

// ParseOrder parses the order DSL: "city,-name" sorts by city ascending,
// then name descending. Empty terms are skipped.
func ParseOrder(s string) []OrderTerm {
	var terms []OrderTerm
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		term := OrderTerm{Field: part}
		if strings.HasPrefix(part, "-") {
			term = OrderTerm{Field: strings.TrimSpace(part[1:]), Desc: true}
		}
		if term.Field != "" {
			terms = append(terms, term)
		}
	}
	return terms
}

// ForSection builds the query a section tag asks for. A non-zero recordID
// restricts it to that record.
func ForSection(sectionID int64, params model.Params, recordID int64) RecordQuery {
	q := RecordQuery{
		Filter: Equals{Field: "section_id", Value: sectionID},
		Order:  ParseOrder(params["order"]),
		Limit:  positive(params["limit"], DefaultLimit),
		Offset: positive(params["offset"], DefaultOffset),
	}

	if recordID != 0 {
		q.Filter = And{Predicates: []Predicate{
			Equals{Field: "section_id", Value: sectionID},
			Equals{Field: "id", Value: recordID},
		}}
		q.Single = true
		q.Order = nil
		q.Limit = 1
	}
	return q
}

func positive(s string, def int) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n <= 0 {
		return def
	}
	return n
}
