package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

// Predicate selects tiddlers of a snapshot by their stored fields.
//
// This is a sealed interface; the marker method keeps implementations in
// this package so compilePredicate can switch over every case.
//
// Predicate types:
//   - FieldEquals: the textual field equals a value
//   - TitlePrefix: the title starts with a prefix
//   - And: all predicates must be true
type Predicate interface {
	predicateNode()
}

// FieldEquals matches tiddlers whose textual field equals Value. A missing
// field never matches.
type FieldEquals struct {
	Field string
	Value string
}

// TitlePrefix matches tiddlers whose title starts with Prefix.
type TitlePrefix struct {
	Prefix string
}

// And matches when every predicate matches. An empty And matches all.
type And struct {
	Predicates []Predicate
}

func (FieldEquals) predicateNode() {}
func (TitlePrefix) predicateNode() {}
func (And) predicateNode()         {}

// compilePredicate converts p to a WHERE fragment over snapshot_tiddlers.
// Values and JSON paths are always bound as parameters.
func compilePredicate(p Predicate) (string, []any, error) {
	switch pred := p.(type) {
	case nil:
		return "1 = 1", nil, nil
	case FieldEquals:
		return compileFieldEquals(pred)
	case *FieldEquals:
		return compileFieldEquals(*pred)
	case TitlePrefix:
		return "substr(title, 1, length(?)) = ?", []any{pred.Prefix, pred.Prefix}, nil
	case *TitlePrefix:
		return compilePredicate(*pred)
	case And:
		return compileAnd(pred)
	case *And:
		return compileAnd(*pred)
	default:
		return "", nil, fmt.Errorf("unsupported predicate type: %T", p)
	}
}

func compileFieldEquals(eq FieldEquals) (string, []any, error) {
	if eq.Field == "" {
		return "", nil, fmt.Errorf("field name is required")
	}
	if strings.ContainsAny(eq.Field, `"\`) {
		return "", nil, fmt.Errorf("field name %q contains a quote or backslash", eq.Field)
	}
	path := `$."` + eq.Field + `"`
	return "json_extract(fields, ?) = ?", []any{path, eq.Value}, nil
}

func compileAnd(and And) (string, []any, error) {
	if len(and.Predicates) == 0 {
		return "1 = 1", nil, nil
	}

	parts := make([]string, 0, len(and.Predicates))
	var params []any
	for _, pred := range and.Predicates {
		frag, ps, err := compilePredicate(pred)
		if err != nil {
			return "", nil, err
		}
		parts = append(parts, "("+frag+")")
		params = append(params, ps...)
	}
	return strings.Join(parts, " AND "), params, nil
}

// FindTitles returns the titles in snapshot id matching p, in title order.
// An empty id searches the latest snapshot.
func (s *Store) FindTitles(ctx context.Context, id string, p Predicate) ([]string, error) {
	if id == "" {
		err := s.db.QueryRowContext(ctx, `SELECT id FROM snapshots ORDER BY seq DESC LIMIT 1`).Scan(&id)
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNoSnapshots
		}
		if err != nil {
			return nil, fmt.Errorf("latest snapshot: %w", err)
		}
	} else {
		var exists int
		err := s.db.QueryRowContext(ctx, `SELECT 1 FROM snapshots WHERE id = ?`, id).Scan(&exists)
		if errors.Is(err, sql.ErrNoRows) {
			return nil, &NotFoundError{ID: id}
		}
		if err != nil {
			return nil, fmt.Errorf("find snapshot %s: %w", id, err)
		}
	}

	where, params, err := compilePredicate(p)
	if err != nil {
		return nil, fmt.Errorf("compile predicate: %w", err)
	}
	query := `SELECT title FROM snapshot_tiddlers WHERE snapshot_id = ? AND (` + where + `)
		ORDER BY title ASC COLLATE BINARY`

	rows, err := s.db.QueryContext(ctx, query, append([]any{id}, params...)...)
	if err != nil {
		return nil, fmt.Errorf("find titles: %w", err)
	}
	defer rows.Close()

	titles := []string{}
	for rows.Next() {
		var title string
		if err := rows.Scan(&title); err != nil {
			return nil, fmt.Errorf("find titles: %w", err)
		}
		titles = append(titles, title)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("find titles: %w", err)
	}
	return titles, nil
}

// ParseWhere builds a predicate from "field=value" terms, all of which must
// match.
func ParseWhere(terms []string) (Predicate, error) {
	and := And{}
	for _, term := range terms {
		field, value, ok := strings.Cut(term, "=")
		if !ok || field == "" {
			return nil, fmt.Errorf("invalid term %q: want field=value", term)
		}
		and.Predicates = append(and.Predicates, FieldEquals{Field: field, Value: value})
	}
	return and, nil
}
