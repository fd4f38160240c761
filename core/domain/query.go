package domain

import (
	"strconv"
	"strings"
)

// Query is one benchmark statement, numbered from 1 in file order
type Query struct {
	Number int
	Name   string
	Text   string
}

// NewQuery creates a Query named after its number
func NewQuery(number int, text string) Query {
	return Query{
		Number: number,
		Name:   strconv.Itoa(number),
		Text:   text,
	}
}

// NewQueries numbers statements in order
func NewQueries(statements []string) []Query {
	queries := make([]Query, 0, len(statements))
	for i, stmt := range statements {
		queries = append(queries, NewQuery(i+1, stmt))
	}
	return queries
}

// Validate validates the query
func (q Query) Validate() error {
	if q.Number < 1 {
		return ErrInvalidQueryNumber
	}
	if strings.TrimSpace(q.Text) == "" {
		return ErrInvalidQueryStatement
	}
	return nil
}

// Domain errors
var (
	ErrInvalidQueryNumber    = &DomainError{Message: "query number must be positive"}
	ErrInvalidQueryStatement = &DomainError{Message: "query statement cannot be empty"}
	ErrEmptyErrorMessage     = &DomainError{Message: "unknown error"}
)

// DomainError represents a domain-level error
type DomainError struct {
	Message string
}

func (e *DomainError) Error() string {
	return e.Message
}
