package search

import (
	"errors"
	"strings"
)

// ErrEmptyQuery is returned when the query has no content.
var ErrEmptyQuery = errors.New("query is empty")

// ProcessQuery collapses whitespace in query and rejects blank queries.
func ProcessQuery(query string) (string, error) {
	q := strings.Join(strings.Fields(query), " ")
	if q == "" {
		return "", ErrEmptyQuery
	}
	return q, nil
}
