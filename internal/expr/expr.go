// Package expr compiles operator-authored match expressions into pure
// predicates over a candidate's computed match attributes.
//
// Expression format: "artist:match AND title:similarity>=0.8"
// Fields: artist, title, album, artistWithTitle, artistInTitle
// Operations: match, contains, is, not, similarity>=threshold
// Combinators: AND, OR (upper-case, evaluated left-to-right)
package expr

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"trackmatch-go-srv/internal/models"
)

// Predicate reports whether a candidate's match attributes satisfy the
// compiled expression.
type Predicate func(m *models.Matching) bool

type operation int

const (
	opMatch operation = iota
	opContains
	opIs
	opNot
	opSimilarity
)

type condition struct {
	field     string
	op        operation
	threshold float64
}

type combinator int

const (
	combAnd combinator = iota
	combOr
)

type parsedExpression struct {
	conditions  []condition
	combinators []combinator
}

var (
	combinatorRe = regexp.MustCompile(`\s+(AND|OR)\s+`)
	similarityRe = regexp.MustCompile(`^similarity>=([\d.]+)$`)
)

var validFields = map[string]bool{
	"artist":          true,
	"title":           true,
	"album":           true,
	"artistWithTitle": true,
	"artistInTitle":   true,
}

// Compile parses source into a predicate. It never fails at call time: on a
// parse or validation error the returned predicate always reports false and
// the error carries the diagnostic for the caller to log. The returned
// predicate is never nil.
func Compile(source string) (Predicate, error) {
	if strings.TrimSpace(source) == "" {
		return func(*models.Matching) bool { return false }, nil
	}

	parsed, err := parse(source)
	if err != nil {
		return func(*models.Matching) bool { return false }, fmt.Errorf("parse expression %q: %w", source, err)
	}
	return parsed.evaluate, nil
}

func parse(source string) (*parsedExpression, error) {
	parsed := &parsedExpression{}

	// Split on AND/OR while keeping the combinators. Lower-case and/or is
	// not a combinator and ends up inside a condition token, which then
	// fails condition parsing.
	rest := source
	for {
		loc := combinatorRe.FindStringSubmatchIndex(rest)
		if loc == nil {
			break
		}
		cond, err := parseCondition(rest[:loc[0]])
		if err != nil {
			return nil, err
		}
		parsed.conditions = append(parsed.conditions, cond)
		if rest[loc[2]:loc[3]] == "AND" {
			parsed.combinators = append(parsed.combinators, combAnd)
		} else {
			parsed.combinators = append(parsed.combinators, combOr)
		}
		rest = rest[loc[1]:]
	}

	cond, err := parseCondition(rest)
	if err != nil {
		return nil, err
	}
	parsed.conditions = append(parsed.conditions, cond)

	return parsed, nil
}

func parseCondition(s string) (condition, error) {
	s = strings.TrimSpace(s)

	parts := strings.Split(s, ":")
	if len(parts) != 2 {
		return condition{}, fmt.Errorf("Invalid condition format: %s", s)
	}

	field := strings.TrimSpace(parts[0])
	op := strings.TrimSpace(parts[1])
	if field == "" || op == "" {
		return condition{}, fmt.Errorf("Invalid condition format: %s", s)
	}

	if !validFields[field] {
		return condition{}, fmt.Errorf("Invalid field: %s", field)
	}

	switch op {
	case "match":
		return condition{field: field, op: opMatch}, nil
	case "contains":
		return condition{field: field, op: opContains}, nil
	case "is":
		return condition{field: field, op: opIs}, nil
	case "not":
		return condition{field: field, op: opNot}, nil
	}

	if m := similarityRe.FindStringSubmatch(op); m != nil {
		threshold, err := strconv.ParseFloat(m[1], 64)
		if err != nil || threshold < 0 || threshold > 1 {
			return condition{}, fmt.Errorf("Invalid similarity threshold: %s", m[1])
		}
		return condition{field: field, op: opSimilarity, threshold: threshold}, nil
	}

	return condition{}, fmt.Errorf("Invalid operation: %s", op)
}

// evaluate applies the conditions strictly left-to-right. AND and OR have no
// relative precedence: "a AND b OR c" means "(a AND b) OR c". Published rule
// sets depend on this, so it must not be "fixed" to conventional precedence.
func (p *parsedExpression) evaluate(m *models.Matching) bool {
	if len(p.conditions) == 0 {
		return false
	}

	result := p.conditions[0].evaluate(m)
	for i, comb := range p.combinators {
		if i+1 >= len(p.conditions) {
			break
		}
		next := p.conditions[i+1].evaluate(m)
		if comb == combAnd {
			result = result && next
		} else {
			result = result || next
		}
	}

	return result
}

func (c *condition) evaluate(m *models.Matching) bool {
	attr, ok := attributeFor(m, c.field)
	if !ok {
		return false
	}

	switch c.op {
	case opMatch:
		return attr.Match
	case opContains:
		return attr.Contains
	case opIs:
		return attr.Match && attr.Contains
	case opNot:
		return !attr.Match
	case opSimilarity:
		return attr.Similarity >= c.threshold
	default:
		return false
	}
}

func attributeFor(m *models.Matching, field string) (models.Attribute, bool) {
	if m == nil {
		return models.Attribute{}, false
	}

	switch field {
	case "artist":
		return m.Artist, true
	case "title":
		return m.Title, true
	case "album":
		return m.Album, true
	case "artistWithTitle":
		return m.ArtistWithTitle, true
	case "artistInTitle":
		return m.ArtistInTitle, true
	default:
		return models.Attribute{}, false
	}
}
