package library

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
)

const personColumns = "id, first_name, last_name, last_used, last_played"

type personRow struct {
	ID         string         `db:"id"`
	FirstName  string         `db:"first_name"`
	LastName   string         `db:"last_name"`
	LastUsed   sql.NullString `db:"last_used"`
	LastPlayed sql.NullString `db:"last_played"`
}

func (r personRow) toPerson() (Person, error) {
	used, played, err := decodeTimes("persons", r.LastUsed, r.LastPlayed)
	if err != nil {
		return Person{}, err
	}
	return Person{ID: r.ID, FirstName: r.FirstName, LastName: r.LastName, LastUsed: used, LastPlayed: played}, nil
}

// UpdatePerson creates or replaces a person. Persons own no rows, so the
// existing row is updated in place rather than deleted; deleting it would
// cascade into performances owned by recordings.
func (s *Store) UpdatePerson(ctx context.Context, p Person) error {
	ctx = ensureContext(ctx)
	if err := requireID(KindPerson, p.ID); err != nil {
		return err
	}
	now := s.timestamp()
	err := s.withTx(ctx, func(tx *sqlx.Tx) error {
		_, err := tx.ExecContext(ctx, `INSERT INTO persons (`+personColumns+`)
			VALUES (?, ?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET
				first_name = excluded.first_name,
				last_name = excluded.last_name,
				last_used = excluded.last_used,
				last_played = COALESCE(excluded.last_played, persons.last_played)`,
			p.ID, p.FirstName, p.LastName, now, nullableTime(p.LastPlayed))
		return err
	})
	if err != nil {
		return fmt.Errorf("update person %s: %w", p.ID, err)
	}
	s.logUpdated(KindPerson, p.ID)
	return nil
}

// ensurePerson inserts p unless a row with its ID already exists. Existing
// rows are left untouched.
func ensurePerson(ctx context.Context, tx *sqlx.Tx, p Person, now string) error {
	if err := requireID(KindPerson, p.ID); err != nil {
		return err
	}
	_, err := tx.ExecContext(ctx, `INSERT INTO persons (`+personColumns+`)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING`,
		p.ID, p.FirstName, p.LastName, now, nullableTime(p.LastPlayed))
	if err != nil {
		return fmt.Errorf("create person %s: %w", p.ID, err)
	}
	return nil
}

func getPerson(ctx context.Context, q sqlx.QueryerContext, id string) (*Person, error) {
	var row personRow
	err := sqlx.GetContext(ctx, q, &row, "SELECT "+personColumns+" FROM persons WHERE id = ?", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get person: %w", err)
	}
	p, err := row.toPerson()
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// requirePerson loads a referenced person; absence is a MissingItemError.
func requirePerson(ctx context.Context, q sqlx.QueryerContext, id string) (Person, error) {
	p, err := getPerson(ctx, q, id)
	if err != nil {
		return Person{}, err
	}
	if p == nil {
		return Person{}, &MissingItemError{Kind: KindPerson, ID: id}
	}
	return *p, nil
}

func selectPersons(ctx context.Context, q sqlx.QueryerContext, query string, args ...any) ([]Person, error) {
	var rows []personRow
	if err := sqlx.SelectContext(ctx, q, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list persons: %w", err)
	}
	persons := make([]Person, 0, len(rows))
	for _, row := range rows {
		p, err := row.toPerson()
		if err != nil {
			return nil, err
		}
		persons = append(persons, p)
	}
	return persons, nil
}

// GetPerson returns the person with id, or nil when there is none.
func (s *Store) GetPerson(ctx context.Context, id string) (*Person, error) {
	return getPerson(ensureContext(ctx), s.db, id)
}

// DeletePerson removes a person. It fails while a work names the person as
// composer; performances by the person are removed with it.
func (s *Store) DeletePerson(ctx context.Context, id string) error {
	return s.deleteByID(ctx, KindPerson, id)
}

// GetPersons returns all persons ordered by last name.
func (s *Store) GetPersons(ctx context.Context) ([]Person, error) {
	return selectPersons(ensureContext(ctx), s.db,
		"SELECT "+personColumns+" FROM persons ORDER BY last_name COLLATE NOCASE, first_name COLLATE NOCASE")
}

// GetRecentPersons returns up to limit persons, most recently used first.
func (s *Store) GetRecentPersons(ctx context.Context, limit int) ([]Person, error) {
	if limit <= 0 {
		limit = 10
	}
	return selectPersons(ensureContext(ctx), s.db,
		"SELECT "+personColumns+" FROM persons ORDER BY last_used IS NULL, last_used DESC LIMIT ?", limit)
}

// SearchPersons returns persons whose first or last name contains term.
func (s *Store) SearchPersons(ctx context.Context, term string) ([]Person, error) {
	pattern := "%" + term + "%"
	return selectPersons(ensureContext(ctx), s.db,
		"SELECT "+personColumns+" FROM persons WHERE first_name LIKE ? OR last_name LIKE ? "+
			"ORDER BY last_name COLLATE NOCASE, first_name COLLATE NOCASE", pattern, pattern)
}

// GetComposers returns every person credited as the composer of a work.
func (s *Store) GetComposers(ctx context.Context) ([]Person, error) {
	return selectPersons(ensureContext(ctx), s.db,
		"SELECT "+personColumns+" FROM persons WHERE id IN (SELECT composer FROM works) "+
			"ORDER BY last_name COLLATE NOCASE, first_name COLLATE NOCASE")
}
