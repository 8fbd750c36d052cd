package library

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"musicus/internal/ids"
)

const recordingColumns = "id, work, comment, last_used, last_played"

type recordingRow struct {
	ID         string         `db:"id"`
	Work       string         `db:"work"`
	Comment    string         `db:"comment"`
	LastUsed   sql.NullString `db:"last_used"`
	LastPlayed sql.NullString `db:"last_played"`
}

type performanceRow struct {
	Person   sql.NullString `db:"person"`
	Ensemble sql.NullString `db:"ensemble"`
	Role     sql.NullString `db:"role"`
}

// UpdateRecording replaces a recording and its performances. The recorded
// work is created with its whole graph if missing, as are performers and
// roles. Mediums that contain the recording stay attached.
func (s *Store) UpdateRecording(ctx context.Context, r Recording) error {
	ctx = ensureContext(ctx)
	if err := requireID(KindRecording, r.ID); err != nil {
		return err
	}
	now := s.timestamp()
	err := s.withTx(ctx, func(tx *sqlx.Tx) error {
		played, err := carryLastPlayed(ctx, tx, KindRecording, r.ID, r.LastPlayed)
		if err != nil {
			return err
		}
		r.LastPlayed = played
		if _, err := tx.ExecContext(ctx, "DELETE FROM recordings WHERE id = ?", r.ID); err != nil {
			return fmt.Errorf("delete previous recording: %w", err)
		}
		return insertRecording(ctx, tx, r, now)
	})
	if err != nil {
		return fmt.Errorf("update recording %s: %w", r.ID, err)
	}
	s.logUpdated(KindRecording, r.ID)
	return nil
}

func ensureRecording(ctx context.Context, tx *sqlx.Tx, r Recording, now string) error {
	if err := requireID(KindRecording, r.ID); err != nil {
		return err
	}
	exists, err := rowExists(ctx, tx, KindRecording, r.ID)
	if err != nil || exists {
		return err
	}
	return insertRecording(ctx, tx, r, now)
}

func insertRecording(ctx context.Context, tx *sqlx.Tx, r Recording, now string) error {
	if err := ensureWork(ctx, tx, r.Work, now); err != nil {
		return err
	}
	for _, perf := range r.Performances {
		if perf.Person != nil {
			if err := ensurePerson(ctx, tx, *perf.Person, now); err != nil {
				return err
			}
		}
		if perf.Ensemble != nil {
			if err := ensureNamed(ctx, tx, KindEnsemble, perf.Ensemble.named(), now); err != nil {
				return err
			}
		}
		if perf.Role != nil {
			if err := ensureNamed(ctx, tx, KindInstrument, perf.Role.named(), now); err != nil {
				return err
			}
		}
	}

	if _, err := tx.ExecContext(ctx, "INSERT INTO recordings ("+recordingColumns+") VALUES (?, ?, ?, ?, ?)",
		r.ID, r.Work.ID, r.Comment, now, nullableTime(r.LastPlayed)); err != nil {
		return fmt.Errorf("insert recording %s: %w", r.ID, err)
	}
	if err := beforeOwnedInsert(KindRecording, r.ID); err != nil {
		return err
	}

	for i, perf := range r.Performances {
		var person, ensemble, role sql.NullString
		if perf.Person != nil {
			person = nullableString(perf.Person.ID)
		}
		if perf.Ensemble != nil {
			ensemble = nullableString(perf.Ensemble.ID)
		}
		if perf.Role != nil {
			role = nullableString(perf.Role.ID)
		}
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO performances (id, recording, performance_index, person, ensemble, role) VALUES (?, ?, ?, ?, ?, ?)",
			ids.New(), r.ID, i, person, ensemble, role); err != nil {
			return fmt.Errorf("insert performance: %w", err)
		}
	}
	return nil
}

func getRecording(ctx context.Context, q sqlx.QueryerContext, id string) (*Recording, error) {
	var row recordingRow
	err := sqlx.GetContext(ctx, q, &row, "SELECT "+recordingColumns+" FROM recordings WHERE id = ?", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get recording: %w", err)
	}

	used, played, err := decodeTimes("recordings", row.LastUsed, row.LastPlayed)
	if err != nil {
		return nil, err
	}
	r := &Recording{ID: row.ID, Comment: row.Comment, LastUsed: used, LastPlayed: played}
	if r.Work, err = requireWork(ctx, q, row.Work); err != nil {
		return nil, err
	}

	var perfs []performanceRow
	if err := sqlx.SelectContext(ctx, q, &perfs,
		"SELECT person, ensemble, role FROM performances WHERE recording = ? ORDER BY performance_index", id); err != nil {
		return nil, fmt.Errorf("load performances: %w", err)
	}
	for _, row := range perfs {
		var perf Performance
		if row.Person.Valid {
			p, err := requirePerson(ctx, q, row.Person.String)
			if err != nil {
				return nil, err
			}
			perf.Person = &p
		}
		if row.Ensemble.Valid {
			e, err := requireEnsemble(ctx, q, row.Ensemble.String)
			if err != nil {
				return nil, err
			}
			perf.Ensemble = &e
		}
		if row.Role.Valid {
			inst, err := requireInstrument(ctx, q, row.Role.String)
			if err != nil {
				return nil, err
			}
			perf.Role = &inst
		}
		r.Performances = append(r.Performances, perf)
	}
	return r, nil
}

func requireRecording(ctx context.Context, q sqlx.QueryerContext, id string) (Recording, error) {
	r, err := getRecording(ctx, q, id)
	if err != nil {
		return Recording{}, err
	}
	if r == nil {
		return Recording{}, &MissingItemError{Kind: KindRecording, ID: id}
	}
	return *r, nil
}

// GetRecording returns the recording with id, or nil when there is none.
func (s *Store) GetRecording(ctx context.Context, id string) (*Recording, error) {
	ctx = ensureContext(ctx)
	var r *Recording
	err := s.withReadTx(ctx, func(q sqlx.ExtContext) error {
		var err error
		r, err = getRecording(ctx, q, id)
		return err
	})
	return r, err
}

// DeleteRecording removes a recording and its performances. It fails while a
// medium contains the recording.
func (s *Store) DeleteRecording(ctx context.Context, id string) error {
	return s.deleteByID(ctx, KindRecording, id)
}

// RecordingExists reports whether a recording with id is stored.
func (s *Store) RecordingExists(ctx context.Context, id string) (bool, error) {
	return rowExists(ensureContext(ctx), s.db, KindRecording, id)
}

// GetRecordingsForPerson returns recordings the person performed in.
func (s *Store) GetRecordingsForPerson(ctx context.Context, personID string) ([]Recording, error) {
	return s.loadRecordings(ctx, `SELECT DISTINCT recordings.id FROM recordings
		JOIN performances ON performances.recording = recordings.id
		JOIN works ON works.id = recordings.work
		WHERE performances.person = ?
		ORDER BY works.title COLLATE NOCASE, recordings.id`, personID)
}

// GetRecordingsForEnsemble returns recordings the ensemble performed in.
func (s *Store) GetRecordingsForEnsemble(ctx context.Context, ensembleID string) ([]Recording, error) {
	return s.loadRecordings(ctx, `SELECT DISTINCT recordings.id FROM recordings
		JOIN performances ON performances.recording = recordings.id
		JOIN works ON works.id = recordings.work
		WHERE performances.ensemble = ?
		ORDER BY works.title COLLATE NOCASE, recordings.id`, ensembleID)
}

// GetRecordingsForWork returns every recording of the work.
func (s *Store) GetRecordingsForWork(ctx context.Context, workID string) ([]Recording, error) {
	return s.loadRecordings(ctx, "SELECT id FROM recordings WHERE work = ? ORDER BY last_used DESC, id", workID)
}

func (s *Store) loadRecordings(ctx context.Context, query string, args ...any) ([]Recording, error) {
	ctx = ensureContext(ctx)
	var recordings []Recording
	err := s.withReadTx(ctx, func(q sqlx.ExtContext) error {
		var recordingIDs []string
		if err := sqlx.SelectContext(ctx, q, &recordingIDs, query, args...); err != nil {
			return fmt.Errorf("list recordings: %w", err)
		}
		recordings = make([]Recording, 0, len(recordingIDs))
		for _, id := range recordingIDs {
			r, err := requireRecording(ctx, q, id)
			if err != nil {
				return err
			}
			recordings = append(recordings, r)
		}
		return nil
	})
	return recordings, err
}
