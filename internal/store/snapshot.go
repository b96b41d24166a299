package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/roach88/twboot/internal/boot"
	"github.com/roach88/twboot/internal/canonical"
	"github.com/roach88/twboot/internal/tiddler"
	"github.com/roach88/twboot/internal/wiki"
)

// ErrNoSnapshots is returned by LatestSnapshot on an empty store.
var ErrNoSnapshots = errors.New("no snapshots")

// NotFoundError reports an unknown snapshot ID.
type NotFoundError struct {
	ID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("snapshot %q not found", e.ID)
}

// IsNotFound reports whether err is a NotFoundError.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

// SnapshotInfo describes a stored snapshot without its tiddlers.
type SnapshotInfo struct {
	ID        string    `json:"id"`
	Seq       int64     `json:"seq"`
	Label     string    `json:"label,omitempty"`
	Tiddlers  int       `json:"tiddlers"`
	Hash      string    `json:"hash"`
	CreatedAt time.Time `json:"created_at"`
}

// Snapshot is a stored snapshot with the textual fields of each tiddler in
// title order.
type Snapshot struct {
	SnapshotInfo
	Fields []map[string]string `json:"fields"`
}

// Bundles converts the snapshot into bundles ready for the codecs.
func (s *Snapshot) Bundles() []tiddler.Bundle {
	out := make([]tiddler.Bundle, 0, len(s.Fields))
	for _, f := range s.Fields {
		b := make(tiddler.Bundle, len(f))
		for k, v := range f {
			b[k] = v
		}
		out = append(out, b)
	}
	return out
}

// SaveSnapshot stores tiddlers (in textual form) as a new snapshot and
// returns its description. Entries without a title are rejected; a later
// entry with the same title replaces an earlier one.
func (s *Store) SaveSnapshot(ctx context.Context, label string, tiddlers []map[string]string) (*SnapshotInfo, error) {
	byTitle := make(map[string]map[string]string, len(tiddlers))
	for i, f := range tiddlers {
		title := f[tiddler.FieldTitle]
		if title == "" {
			return nil, fmt.Errorf("save snapshot: entry %d has no title", i)
		}
		byTitle[title] = f
	}
	titles := make([]string, 0, len(byTitle))
	for title := range byTitle {
		titles = append(titles, title)
	}
	sort.Strings(titles)

	type row struct {
		title, fields, hash string
	}
	rows := make([]row, 0, len(titles))
	hashes := make([]string, 0, len(titles))
	for _, title := range titles {
		f := byTitle[title]
		data, err := canonical.Marshal(f)
		if err != nil {
			return nil, fmt.Errorf("save snapshot: encode %q: %w", title, err)
		}
		hash := canonical.HashWithDomain(canonical.DomainTiddler, data)
		rows = append(rows, row{title: title, fields: string(data), hash: hash})
		hashes = append(hashes, hash)
	}

	info := &SnapshotInfo{
		ID:        s.ids.Generate(),
		Label:     label,
		Tiddlers:  len(rows),
		Hash:      canonical.SnapshotHash(hashes),
		CreatedAt: s.now().UTC().Truncate(time.Millisecond),
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("save snapshot: begin: %w", err)
	}
	defer tx.Rollback()

	if err := tx.QueryRowContext(ctx, `SELECT COALESCE(MAX(seq), 0) + 1 FROM snapshots`).Scan(&info.Seq); err != nil {
		return nil, fmt.Errorf("save snapshot: next seq: %w", err)
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO snapshots (id, seq, label, tiddler_count, hash, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, info.ID, info.Seq, info.Label, info.Tiddlers, info.Hash, info.CreatedAt.Format(time.RFC3339Nano))
	if err != nil {
		return nil, fmt.Errorf("save snapshot: insert %s: %w", info.ID, err)
	}
	for _, r := range rows {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO snapshot_tiddlers (snapshot_id, title, fields, hash)
			VALUES (?, ?, ?, ?)
		`, info.ID, r.title, r.fields, r.hash)
		if err != nil {
			return nil, fmt.Errorf("save snapshot: insert tiddler %q: %w", r.title, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("save snapshot: commit: %w", err)
	}
	return info, nil
}

// ListSnapshots returns every snapshot, oldest first.
func (s *Store) ListSnapshots(ctx context.Context) ([]SnapshotInfo, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, seq, label, tiddler_count, hash, created_at
		FROM snapshots
		ORDER BY seq ASC, id ASC COLLATE BINARY
	`)
	if err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}
	defer rows.Close()

	var out []SnapshotInfo
	for rows.Next() {
		info, err := scanInfo(rows)
		if err != nil {
			return nil, fmt.Errorf("list snapshots: %w", err)
		}
		out = append(out, *info)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}
	return out, nil
}

// LatestSnapshot loads the snapshot with the highest seq.
func (s *Store) LatestSnapshot(ctx context.Context) (*Snapshot, error) {
	var id string
	err := s.db.QueryRowContext(ctx, `SELECT id FROM snapshots ORDER BY seq DESC LIMIT 1`).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNoSnapshots
	}
	if err != nil {
		return nil, fmt.Errorf("latest snapshot: %w", err)
	}
	return s.LoadSnapshot(ctx, id)
}

// LoadSnapshot loads a snapshot and its tiddlers by ID.
func (s *Store) LoadSnapshot(ctx context.Context, id string) (*Snapshot, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, seq, label, tiddler_count, hash, created_at
		FROM snapshots WHERE id = ?
	`, id)
	info, err := scanInfo(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &NotFoundError{ID: id}
	}
	if err != nil {
		return nil, fmt.Errorf("load snapshot %s: %w", id, err)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT fields FROM snapshot_tiddlers
		WHERE snapshot_id = ?
		ORDER BY title ASC COLLATE BINARY
	`, id)
	if err != nil {
		return nil, fmt.Errorf("load snapshot %s: %w", id, err)
	}
	defer rows.Close()

	snap := &Snapshot{SnapshotInfo: *info}
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("load snapshot %s: %w", id, err)
		}
		var fields map[string]string
		if err := json.Unmarshal([]byte(raw), &fields); err != nil {
			return nil, fmt.Errorf("load snapshot %s: decode fields: %w", id, err)
		}
		snap.Fields = append(snap.Fields, fields)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load snapshot %s: %w", id, err)
	}
	return snap, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanInfo(sc scanner) (*SnapshotInfo, error) {
	var info SnapshotInfo
	var created string
	if err := sc.Scan(&info.ID, &info.Seq, &info.Label, &info.Tiddlers, &info.Hash, &created); err != nil {
		return nil, err
	}
	t, err := time.Parse(time.RFC3339Nano, created)
	if err != nil {
		return nil, fmt.Errorf("parse created_at %q: %w", created, err)
	}
	info.CreatedAt = t
	return &info, nil
}

// Source returns a boot source that feeds the snapshot with the given ID.
// An empty id selects the latest snapshot at load time.
func (s *Store) Source(id string) boot.Source {
	return &snapshotSource{store: s, id: id}
}

type snapshotSource struct {
	store *Store
	id    string
}

func (src *snapshotSource) Name() string {
	if src.id == "" {
		return "snapshot:latest"
	}
	return "snapshot:" + src.id
}

func (src *snapshotSource) Load(ctx context.Context) ([]boot.Raw, error) {
	var snap *Snapshot
	var err error
	if src.id == "" {
		snap, err = src.store.LatestSnapshot(ctx)
	} else {
		snap, err = src.store.LoadSnapshot(ctx, src.id)
	}
	if err != nil {
		return nil, err
	}
	return boot.Bundles(snap.Bundles()...), nil
}

// SaveWiki snapshots the real layer of w.
func (s *Store) SaveWiki(ctx context.Context, label string, w *wiki.Wiki) (*SnapshotInfo, error) {
	codecs := w.Codecs()
	var fields []map[string]string
	w.Each(func(_ string, t *tiddler.Tiddler) {
		fields = append(fields, codecs.Stringify(t))
	})
	return s.SaveSnapshot(ctx, label, fields)
}
