package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/twboot/internal/boot"
	"github.com/roach88/twboot/internal/tiddler"
)

func fixedNow() time.Time {
	return time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
}

func TestSaveSnapshot_AssignsSeqAndHash(t *testing.T) {
	s := createTestStore(t, WithIDGenerator(NewFixedGenerator("snap-1", "snap-2")), WithNow(fixedNow))
	ctx := context.Background()

	fields := []map[string]string{
		{"title": "B", "text": "two"},
		{"title": "A", "text": "one"},
	}
	first, err := s.SaveSnapshot(ctx, "first", fields)
	require.NoError(t, err)
	assert.Equal(t, "snap-1", first.ID)
	assert.Equal(t, int64(1), first.Seq)
	assert.Equal(t, 2, first.Tiddlers)
	assert.Equal(t, fixedNow(), first.CreatedAt)

	// Same content in another order hashes the same.
	second, err := s.SaveSnapshot(ctx, "second", []map[string]string{fields[1], fields[0]})
	require.NoError(t, err)
	assert.Equal(t, int64(2), second.Seq)
	assert.Equal(t, first.Hash, second.Hash)
}

func TestSaveSnapshot_DifferentContentDifferentHash(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	a, err := s.SaveSnapshot(ctx, "", []map[string]string{{"title": "A", "text": "one"}})
	require.NoError(t, err)
	b, err := s.SaveSnapshot(ctx, "", []map[string]string{{"title": "A", "text": "uno"}})
	require.NoError(t, err)
	assert.NotEqual(t, a.Hash, b.Hash)
	assert.NotEqual(t, a.ID, b.ID)
}

func TestSaveSnapshot_RejectsUntitled(t *testing.T) {
	s := createTestStore(t)

	_, err := s.SaveSnapshot(context.Background(), "", []map[string]string{{"text": "orphan"}})
	require.Error(t, err)

	list, err := s.ListSnapshots(context.Background())
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestSaveSnapshot_LaterDuplicateWins(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	info, err := s.SaveSnapshot(ctx, "", []map[string]string{
		{"title": "A", "text": "old"},
		{"title": "A", "text": "new"},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, info.Tiddlers)

	snap, err := s.LoadSnapshot(ctx, info.ID)
	require.NoError(t, err)
	require.Len(t, snap.Fields, 1)
	assert.Equal(t, "new", snap.Fields[0]["text"])
}

func TestLoadSnapshot_TitleOrder(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	info, err := s.SaveSnapshot(ctx, "", []map[string]string{
		{"title": "b"},
		{"title": "B"},
		{"title": "a"},
	})
	require.NoError(t, err)

	snap, err := s.LoadSnapshot(ctx, info.ID)
	require.NoError(t, err)
	var titles []string
	for _, f := range snap.Fields {
		titles = append(titles, f["title"])
	}
	assert.Equal(t, []string{"B", "a", "b"}, titles)
}

func TestLoadSnapshot_NotFound(t *testing.T) {
	s := createTestStore(t)

	_, err := s.LoadSnapshot(context.Background(), "nope")
	require.Error(t, err)
	assert.True(t, IsNotFound(err))
}

func TestLatestSnapshot(t *testing.T) {
	s := createTestStore(t, WithIDGenerator(NewFixedGenerator("z-first", "a-second")))
	ctx := context.Background()

	_, err := s.LatestSnapshot(ctx)
	require.ErrorIs(t, err, ErrNoSnapshots)

	_, err = s.SaveSnapshot(ctx, "one", []map[string]string{{"title": "A"}})
	require.NoError(t, err)
	_, err = s.SaveSnapshot(ctx, "two", []map[string]string{{"title": "B"}})
	require.NoError(t, err)

	// seq decides, not ID order.
	latest, err := s.LatestSnapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, "a-second", latest.ID)
	assert.Equal(t, "two", latest.Label)

	list, err := s.ListSnapshots(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "z-first", list[0].ID)
	assert.Equal(t, "a-second", list[1].ID)
}

func TestSnapshotSource_RestoresRealLayer(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	src, err := boot.New()
	require.NoError(t, err)
	src.Wiki.AddFields(tiddler.Bundle{
		"title":    "Note",
		"text":     "body",
		"tags":     "one [[two words]]",
		"modified": "20240301120000000",
	})
	info, err := s.SaveWiki(ctx, "wiki", src.Wiki)
	require.NoError(t, err)
	assert.Equal(t, 1, info.Tiddlers)

	dst, err := boot.New()
	require.NoError(t, err)
	summary, err := dst.Startup(ctx, s.Source(""))
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Tiddlers)

	got := dst.Wiki.GetTiddler("Note")
	require.NotNil(t, got)
	assert.Equal(t, "body", got.Text())
	assert.Equal(t, []string{"one", "two words"}, got.List("tags"))
	modified, ok := got.Time("modified")
	require.True(t, ok)
	assert.Equal(t, fixedNow(), modified)
}

func TestSnapshotSource_UnknownID(t *testing.T) {
	s := createTestStore(t)

	c, err := boot.New()
	require.NoError(t, err)
	_, err = c.Startup(context.Background(), s.Source("missing"))
	require.Error(t, err)
	assert.True(t, IsNotFound(err))
	assert.Equal(t, "snapshot:missing", s.Source("missing").Name())
}
