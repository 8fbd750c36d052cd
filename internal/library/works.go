package library

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"musicus/internal/ids"
)

const workColumns = "id, composer, title, last_used, last_played"

type workRow struct {
	ID         string         `db:"id"`
	Composer   string         `db:"composer"`
	Title      string         `db:"title"`
	LastUsed   sql.NullString `db:"last_used"`
	LastPlayed sql.NullString `db:"last_played"`
}

type workPartRow struct {
	Title    string         `db:"title"`
	Composer sql.NullString `db:"composer"`
}

type workSectionRow struct {
	Title       string `db:"title"`
	BeforeIndex int    `db:"before_index"`
}

// UpdateWork replaces a work together with its instrumentation, parts, and
// sections. The composer, part composers, and instruments are created from
// the payload when the library does not know them yet. Recordings of the work
// stay attached because the work keeps its ID.
func (s *Store) UpdateWork(ctx context.Context, w Work) error {
	ctx = ensureContext(ctx)
	if err := requireID(KindWork, w.ID); err != nil {
		return err
	}
	now := s.timestamp()
	err := s.withTx(ctx, func(tx *sqlx.Tx) error {
		played, err := carryLastPlayed(ctx, tx, KindWork, w.ID, w.LastPlayed)
		if err != nil {
			return err
		}
		w.LastPlayed = played
		if _, err := tx.ExecContext(ctx, "DELETE FROM works WHERE id = ?", w.ID); err != nil {
			return fmt.Errorf("delete previous work: %w", err)
		}
		return insertWork(ctx, tx, w, now)
	})
	if err != nil {
		return fmt.Errorf("update work %s: %w", w.ID, err)
	}
	s.logUpdated(KindWork, w.ID)
	return nil
}

// ensureWork inserts w unless the library already has a work with its ID.
func ensureWork(ctx context.Context, tx *sqlx.Tx, w Work, now string) error {
	if err := requireID(KindWork, w.ID); err != nil {
		return err
	}
	exists, err := rowExists(ctx, tx, KindWork, w.ID)
	if err != nil || exists {
		return err
	}
	return insertWork(ctx, tx, w, now)
}

func insertWork(ctx context.Context, tx *sqlx.Tx, w Work, now string) error {
	if err := ensurePerson(ctx, tx, w.Composer, now); err != nil {
		return err
	}
	for _, part := range w.Parts {
		if part.Composer != nil {
			if err := ensurePerson(ctx, tx, *part.Composer, now); err != nil {
				return err
			}
		}
	}
	for _, inst := range w.Instruments {
		if err := ensureNamed(ctx, tx, KindInstrument, inst.named(), now); err != nil {
			return err
		}
	}

	if _, err := tx.ExecContext(ctx, "INSERT INTO works ("+workColumns+") VALUES (?, ?, ?, ?, ?)",
		w.ID, w.Composer.ID, w.Title, now, nullableTime(w.LastPlayed)); err != nil {
		return fmt.Errorf("insert work %s: %w", w.ID, err)
	}
	if err := beforeOwnedInsert(KindWork, w.ID); err != nil {
		return err
	}

	for i, inst := range w.Instruments {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO instrumentations (id, work, instrument, instrument_index) VALUES (?, ?, ?, ?)",
			ids.New(), w.ID, inst.ID, i); err != nil {
			return fmt.Errorf("insert instrumentation: %w", err)
		}
	}
	for i, part := range w.Parts {
		var composer sql.NullString
		if part.Composer != nil {
			composer = nullableString(part.Composer.ID)
		}
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO work_parts (id, work, part_index, title, composer) VALUES (?, ?, ?, ?, ?)",
			ids.New(), w.ID, i, part.Title, composer); err != nil {
			return fmt.Errorf("insert work part: %w", err)
		}
	}
	for i, section := range w.Sections {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO work_sections (id, work, section_index, title, before_index) VALUES (?, ?, ?, ?, ?)",
			ids.New(), w.ID, i, section.Title, section.BeforeIndex); err != nil {
			return fmt.Errorf("insert work section: %w", err)
		}
	}
	return nil
}

func getWork(ctx context.Context, q sqlx.QueryerContext, id string) (*Work, error) {
	var row workRow
	err := sqlx.GetContext(ctx, q, &row, "SELECT "+workColumns+" FROM works WHERE id = ?", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get work: %w", err)
	}

	used, played, err := decodeTimes("works", row.LastUsed, row.LastPlayed)
	if err != nil {
		return nil, err
	}
	w := &Work{ID: row.ID, Title: row.Title, LastUsed: used, LastPlayed: played}

	if w.Composer, err = requirePerson(ctx, q, row.Composer); err != nil {
		return nil, err
	}

	var instrumentIDs []string
	if err := sqlx.SelectContext(ctx, q, &instrumentIDs,
		"SELECT instrument FROM instrumentations WHERE work = ? ORDER BY instrument_index", id); err != nil {
		return nil, fmt.Errorf("load instrumentation: %w", err)
	}
	for _, instID := range instrumentIDs {
		inst, err := requireInstrument(ctx, q, instID)
		if err != nil {
			return nil, err
		}
		w.Instruments = append(w.Instruments, inst)
	}

	var parts []workPartRow
	if err := sqlx.SelectContext(ctx, q, &parts,
		"SELECT title, composer FROM work_parts WHERE work = ? ORDER BY part_index", id); err != nil {
		return nil, fmt.Errorf("load work parts: %w", err)
	}
	for _, part := range parts {
		wp := WorkPart{Title: part.Title}
		if part.Composer.Valid {
			composer, err := requirePerson(ctx, q, part.Composer.String)
			if err != nil {
				return nil, err
			}
			wp.Composer = &composer
		}
		w.Parts = append(w.Parts, wp)
	}

	var sections []workSectionRow
	if err := sqlx.SelectContext(ctx, q, &sections,
		"SELECT title, before_index FROM work_sections WHERE work = ? ORDER BY section_index", id); err != nil {
		return nil, fmt.Errorf("load work sections: %w", err)
	}
	for _, section := range sections {
		w.Sections = append(w.Sections, WorkSection{Title: section.Title, BeforeIndex: section.BeforeIndex})
	}
	return w, nil
}

func requireWork(ctx context.Context, q sqlx.QueryerContext, id string) (Work, error) {
	w, err := getWork(ctx, q, id)
	if err != nil {
		return Work{}, err
	}
	if w == nil {
		return Work{}, &MissingItemError{Kind: KindWork, ID: id}
	}
	return *w, nil
}

// GetWork returns the work with id, or nil when there is none.
func (s *Store) GetWork(ctx context.Context, id string) (*Work, error) {
	ctx = ensureContext(ctx)
	var w *Work
	err := s.withReadTx(ctx, func(q sqlx.ExtContext) error {
		var err error
		w, err = getWork(ctx, q, id)
		return err
	})
	return w, err
}

// DeleteWork removes a work and everything it owns. It fails while any
// recording references the work.
func (s *Store) DeleteWork(ctx context.Context, id string) error {
	return s.deleteByID(ctx, KindWork, id)
}

// GetWorks returns the works composed by composerID, ordered by title.
func (s *Store) GetWorks(ctx context.Context, composerID string) ([]Work, error) {
	return s.loadWorks(ctx, "SELECT id FROM works WHERE composer = ? ORDER BY title COLLATE NOCASE", composerID)
}

// SearchWorks returns works whose title contains term.
func (s *Store) SearchWorks(ctx context.Context, term string) ([]Work, error) {
	return s.loadWorks(ctx, "SELECT id FROM works WHERE title LIKE ? ORDER BY title COLLATE NOCASE", "%"+term+"%")
}

func (s *Store) loadWorks(ctx context.Context, query string, args ...any) ([]Work, error) {
	ctx = ensureContext(ctx)
	var works []Work
	err := s.withReadTx(ctx, func(q sqlx.ExtContext) error {
		var workIDs []string
		if err := sqlx.SelectContext(ctx, q, &workIDs, query, args...); err != nil {
			return fmt.Errorf("list works: %w", err)
		}
		works = make([]Work, 0, len(workIDs))
		for _, id := range workIDs {
			w, err := requireWork(ctx, q, id)
			if err != nil {
				return err
			}
			works = append(works, w)
		}
		return nil
	})
	return works, err
}

func rowExists(ctx context.Context, q sqlx.QueryerContext, kind Kind, id string) (bool, error) {
	var exists bool
	if err := sqlx.GetContext(ctx, q, &exists, "SELECT EXISTS(SELECT 1 FROM "+kind.table()+" WHERE id = ?)", id); err != nil {
		return false, fmt.Errorf("check %s %s: %w", kind, id, err)
	}
	return exists, nil
}

// carryLastPlayed keeps the stored last_played of an entity that is about to
// be replaced unless the payload sets its own.
func carryLastPlayed(ctx context.Context, q sqlx.QueryerContext, kind Kind, id string, payload time.Time) (time.Time, error) {
	if !payload.IsZero() {
		return payload, nil
	}
	var stored sql.NullString
	err := sqlx.GetContext(ctx, q, &stored, "SELECT last_played FROM "+kind.table()+" WHERE id = ?", id)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("read last_played: %w", err)
	}
	return parseTime(kind.table()+".last_played", stored)
}
