package library

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"musicus/internal/ids"
)

const mediumColumns = "id, name, discid, last_used, last_played"

type mediumRow struct {
	ID         string         `db:"id"`
	Name       string         `db:"name"`
	DiscID     sql.NullString `db:"discid"`
	LastUsed   sql.NullString `db:"last_used"`
	LastPlayed sql.NullString `db:"last_played"`
}

type trackSetRow struct {
	ID        string `db:"id"`
	Recording string `db:"recording"`
}

type trackRow struct {
	WorkParts string `db:"work_parts"`
	Path      string `db:"path"`
}

// UpdateMedium replaces a medium with its track sets and tracks. Recordings
// referenced by the track sets are created with their whole graph when the
// library does not know them yet.
func (s *Store) UpdateMedium(ctx context.Context, m Medium) error {
	ctx = ensureContext(ctx)
	if err := requireID(KindMedium, m.ID); err != nil {
		return err
	}
	now := s.timestamp()
	err := s.withTx(ctx, func(tx *sqlx.Tx) error {
		played, err := carryLastPlayed(ctx, tx, KindMedium, m.ID, m.LastPlayed)
		if err != nil {
			return err
		}
		m.LastPlayed = played
		if _, err := tx.ExecContext(ctx, "DELETE FROM mediums WHERE id = ?", m.ID); err != nil {
			return fmt.Errorf("delete previous medium: %w", err)
		}
		return insertMedium(ctx, tx, m, now)
	})
	if err != nil {
		return fmt.Errorf("update medium %s: %w", m.ID, err)
	}
	s.logUpdated(KindMedium, m.ID)
	return nil
}

func insertMedium(ctx context.Context, tx *sqlx.Tx, m Medium, now string) error {
	for _, set := range m.TrackSets {
		if err := ensureRecording(ctx, tx, set.Recording, now); err != nil {
			return err
		}
	}

	if _, err := tx.ExecContext(ctx, "INSERT INTO mediums ("+mediumColumns+") VALUES (?, ?, ?, ?, ?)",
		m.ID, m.Name, nullableString(m.DiscID), now, nullableTime(m.LastPlayed)); err != nil {
		return fmt.Errorf("insert medium %s: %w", m.ID, err)
	}
	if err := beforeOwnedInsert(KindMedium, m.ID); err != nil {
		return err
	}

	for i, set := range m.TrackSets {
		setID := ids.New()
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO track_sets (id, medium, set_index, recording) VALUES (?, ?, ?, ?)",
			setID, m.ID, i, set.Recording.ID); err != nil {
			return fmt.Errorf("insert track set: %w", err)
		}
		for j, track := range set.Tracks {
			if _, err := tx.ExecContext(ctx,
				"INSERT INTO tracks (id, track_set, track_index, work_parts, path) VALUES (?, ?, ?, ?, ?)",
				ids.New(), setID, j, encodeWorkParts(track.WorkParts), track.Path); err != nil {
				return fmt.Errorf("insert track: %w", err)
			}
		}
	}
	return nil
}

func getMedium(ctx context.Context, q sqlx.QueryerContext, id string) (*Medium, error) {
	var row mediumRow
	err := sqlx.GetContext(ctx, q, &row, "SELECT "+mediumColumns+" FROM mediums WHERE id = ?", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get medium: %w", err)
	}

	used, played, err := decodeTimes("mediums", row.LastUsed, row.LastPlayed)
	if err != nil {
		return nil, err
	}
	m := &Medium{ID: row.ID, Name: row.Name, DiscID: row.DiscID.String, LastUsed: used, LastPlayed: played}

	var sets []trackSetRow
	if err := sqlx.SelectContext(ctx, q, &sets,
		"SELECT id, recording FROM track_sets WHERE medium = ? ORDER BY set_index", id); err != nil {
		return nil, fmt.Errorf("load track sets: %w", err)
	}
	for _, setRow := range sets {
		recording, err := requireRecording(ctx, q, setRow.Recording)
		if err != nil {
			return nil, err
		}
		var rows []trackRow
		if err := sqlx.SelectContext(ctx, q, &rows,
			"SELECT work_parts, path FROM tracks WHERE track_set = ? ORDER BY track_index", setRow.ID); err != nil {
			return nil, fmt.Errorf("load tracks: %w", err)
		}
		set := TrackSet{Recording: recording, Tracks: make([]Track, 0, len(rows))}
		for _, tr := range rows {
			parts, err := decodeWorkParts(tr.WorkParts)
			if err != nil {
				return nil, err
			}
			set.Tracks = append(set.Tracks, Track{WorkParts: parts, Path: tr.Path})
		}
		m.TrackSets = append(m.TrackSets, set)
	}
	return m, nil
}

// GetMedium returns the medium with id, or nil when there is none.
func (s *Store) GetMedium(ctx context.Context, id string) (*Medium, error) {
	ctx = ensureContext(ctx)
	var m *Medium
	err := s.withReadTx(ctx, func(q sqlx.ExtContext) error {
		var err error
		m, err = getMedium(ctx, q, id)
		return err
	})
	return m, err
}

// DeleteMedium removes a medium with its track sets and tracks. The
// recordings stay in the library.
func (s *Store) DeleteMedium(ctx context.Context, id string) error {
	return s.deleteByID(ctx, KindMedium, id)
}

// GetMediums returns every medium ordered by name.
func (s *Store) GetMediums(ctx context.Context) ([]Medium, error) {
	return s.loadMediums(ctx, "SELECT id FROM mediums ORDER BY name COLLATE NOCASE, id")
}

// GetMediumsBySourceID returns the mediums whose disc fingerprint equals
// sourceID. Several mediums may share one fingerprint.
func (s *Store) GetMediumsBySourceID(ctx context.Context, sourceID string) ([]Medium, error) {
	return s.loadMediums(ctx, "SELECT id FROM mediums WHERE discid = ? ORDER BY name COLLATE NOCASE, id", sourceID)
}

// GetMediumsForPerson returns mediums containing a recording the person performed in.
func (s *Store) GetMediumsForPerson(ctx context.Context, personID string) ([]Medium, error) {
	return s.loadMediums(ctx, `SELECT DISTINCT mediums.id FROM mediums
		JOIN track_sets ON track_sets.medium = mediums.id
		JOIN performances ON performances.recording = track_sets.recording
		WHERE performances.person = ?
		ORDER BY mediums.name COLLATE NOCASE, mediums.id`, personID)
}

// GetMediumsForEnsemble returns mediums containing a recording the ensemble performed in.
func (s *Store) GetMediumsForEnsemble(ctx context.Context, ensembleID string) ([]Medium, error) {
	return s.loadMediums(ctx, `SELECT DISTINCT mediums.id FROM mediums
		JOIN track_sets ON track_sets.medium = mediums.id
		JOIN performances ON performances.recording = track_sets.recording
		WHERE performances.ensemble = ?
		ORDER BY mediums.name COLLATE NOCASE, mediums.id`, ensembleID)
}

// GetMediumsForRecording returns the mediums a recording appears on.
func (s *Store) GetMediumsForRecording(ctx context.Context, recordingID string) ([]Medium, error) {
	return s.loadMediums(ctx, `SELECT DISTINCT mediums.id FROM mediums
		JOIN track_sets ON track_sets.medium = mediums.id
		WHERE track_sets.recording = ?
		ORDER BY mediums.name COLLATE NOCASE, mediums.id`, recordingID)
}

func (s *Store) loadMediums(ctx context.Context, query string, args ...any) ([]Medium, error) {
	ctx = ensureContext(ctx)
	var mediums []Medium
	err := s.withReadTx(ctx, func(q sqlx.ExtContext) error {
		var mediumIDs []string
		if err := sqlx.SelectContext(ctx, q, &mediumIDs, query, args...); err != nil {
			return fmt.Errorf("list mediums: %w", err)
		}
		mediums = make([]Medium, 0, len(mediumIDs))
		for _, id := range mediumIDs {
			m, err := getMedium(ctx, q, id)
			if err != nil {
				return err
			}
			if m == nil {
				return &MissingItemError{Kind: KindMedium, ID: id}
			}
			mediums = append(mediums, *m)
		}
		return nil
	})
	return mediums, err
}
