package store

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedQueryStore(t *testing.T) *Store {
	t.Helper()
	s := createTestStore(t, WithIDGenerator(NewFixedGenerator("old", "new")))
	ctx := context.Background()

	_, err := s.SaveSnapshot(ctx, "old", []map[string]string{
		{"title": "Stale", "tags": "journal"},
	})
	require.NoError(t, err)
	_, err = s.SaveSnapshot(ctx, "new", []map[string]string{
		{"title": "$:/plugins/me/lib", "type": "application/json", "plugin-type": "plugin"},
		{"title": "$:/plugins/me/theme", "type": "application/json", "plugin-type": "theme"},
		{"title": "Journal 1", "tags": "journal"},
		{"title": "Journal 2", "tags": "journal", "type": "text/plain"},
		{"title": "Note", "tags": "misc"},
	})
	require.NoError(t, err)
	return s
}

func TestFindTitles(t *testing.T) {
	s := seedQueryStore(t)
	ctx := context.Background()

	tests := []struct {
		name string
		id   string
		pred Predicate
		want []string
	}{
		{
			name: "nil matches all",
			pred: nil,
			want: []string{"$:/plugins/me/lib", "$:/plugins/me/theme", "Journal 1", "Journal 2", "Note"},
		},
		{
			name: "field equals",
			pred: FieldEquals{Field: "tags", Value: "journal"},
			want: []string{"Journal 1", "Journal 2"},
		},
		{
			name: "hyphenated field",
			pred: &FieldEquals{Field: "plugin-type", Value: "theme"},
			want: []string{"$:/plugins/me/theme"},
		},
		{
			name: "title prefix",
			pred: TitlePrefix{Prefix: "$:/plugins/"},
			want: []string{"$:/plugins/me/lib", "$:/plugins/me/theme"},
		},
		{
			name: "and",
			pred: And{Predicates: []Predicate{
				FieldEquals{Field: "tags", Value: "journal"},
				FieldEquals{Field: "type", Value: "text/plain"},
			}},
			want: []string{"Journal 2"},
		},
		{
			name: "no match",
			pred: FieldEquals{Field: "missing", Value: ""},
			want: []string{},
		},
		{
			name: "explicit snapshot",
			id:   "old",
			pred: FieldEquals{Field: "tags", Value: "journal"},
			want: []string{"Stale"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.FindTitles(ctx, tt.id, tt.pred)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFindTitles_Errors(t *testing.T) {
	ctx := context.Background()

	empty := createTestStore(t)
	_, err := empty.FindTitles(ctx, "", nil)
	assert.True(t, errors.Is(err, ErrNoSnapshots))

	s := seedQueryStore(t)
	_, err = s.FindTitles(ctx, "nope", nil)
	assert.True(t, IsNotFound(err))

	_, err = s.FindTitles(ctx, "", FieldEquals{Field: `bad"field`, Value: "x"})
	assert.ErrorContains(t, err, "quote")
}

func TestCompilePredicate_Parameterized(t *testing.T) {
	sql, params, err := compilePredicate(And{Predicates: []Predicate{
		FieldEquals{Field: "tags", Value: "x'; DROP TABLE snapshots; --"},
		TitlePrefix{Prefix: "A"},
	}})
	require.NoError(t, err)
	assert.Equal(t, "(json_extract(fields, ?) = ?) AND (substr(title, 1, length(?)) = ?)", sql)
	assert.Equal(t, []any{`$."tags"`, "x'; DROP TABLE snapshots; --", "A", "A"}, params)
	assert.NotContains(t, sql, "DROP")
}

func TestParseWhere(t *testing.T) {
	pred, err := ParseWhere([]string{"tags=journal", "caption=a=b"})
	require.NoError(t, err)
	assert.Equal(t, And{Predicates: []Predicate{
		FieldEquals{Field: "tags", Value: "journal"},
		FieldEquals{Field: "caption", Value: "a=b"},
	}}, pred)

	_, err = ParseWhere([]string{"novalue"})
	assert.Error(t, err)
	_, err = ParseWhere([]string{"=x"})
	assert.Error(t, err)
}
