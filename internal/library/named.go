package library

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
)

// Instruments and ensembles share one table shape: an ID, a name, and the
// bookkeeping timestamps.

const namedColumns = "id, name, last_used, last_played"

type namedRow struct {
	ID         string         `db:"id"`
	Name       string         `db:"name"`
	LastUsed   sql.NullString `db:"last_used"`
	LastPlayed sql.NullString `db:"last_played"`
}

type namedValue struct {
	id         string
	name       string
	lastUsed   time.Time
	lastPlayed time.Time
}

func (r namedRow) decode(kind Kind) (namedValue, error) {
	used, played, err := decodeTimes(kind.table(), r.LastUsed, r.LastPlayed)
	if err != nil {
		return namedValue{}, err
	}
	return namedValue{id: r.ID, name: r.Name, lastUsed: used, lastPlayed: played}, nil
}

func (s *Store) upsertNamed(ctx context.Context, kind Kind, v namedValue) error {
	ctx = ensureContext(ctx)
	if err := requireID(kind, v.id); err != nil {
		return err
	}
	now := s.timestamp()
	table := kind.table()
	err := s.withTx(ctx, func(tx *sqlx.Tx) error {
		_, err := tx.ExecContext(ctx, `INSERT INTO `+table+` (`+namedColumns+`)
			VALUES (?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET
				name = excluded.name,
				last_used = excluded.last_used,
				last_played = COALESCE(excluded.last_played, `+table+`.last_played)`,
			v.id, v.name, now, nullableTime(v.lastPlayed))
		return err
	})
	if err != nil {
		return fmt.Errorf("update %s %s: %w", kind, v.id, err)
	}
	s.logUpdated(kind, v.id)
	return nil
}

func ensureNamed(ctx context.Context, tx *sqlx.Tx, kind Kind, v namedValue, now string) error {
	if err := requireID(kind, v.id); err != nil {
		return err
	}
	_, err := tx.ExecContext(ctx, `INSERT INTO `+kind.table()+` (`+namedColumns+`)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING`,
		v.id, v.name, now, nullableTime(v.lastPlayed))
	if err != nil {
		return fmt.Errorf("create %s %s: %w", kind, v.id, err)
	}
	return nil
}

func getNamed(ctx context.Context, q sqlx.QueryerContext, kind Kind, id string) (*namedValue, error) {
	var row namedRow
	err := sqlx.GetContext(ctx, q, &row, "SELECT "+namedColumns+" FROM "+kind.table()+" WHERE id = ?", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", kind, err)
	}
	v, err := row.decode(kind)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func selectNamed(ctx context.Context, q sqlx.QueryerContext, kind Kind) ([]namedValue, error) {
	var rows []namedRow
	query := "SELECT " + namedColumns + " FROM " + kind.table() + " ORDER BY name COLLATE NOCASE"
	if err := sqlx.SelectContext(ctx, q, &rows, query); err != nil {
		return nil, fmt.Errorf("list %s: %w", kind.table(), err)
	}
	values := make([]namedValue, 0, len(rows))
	for _, row := range rows {
		v, err := row.decode(kind)
		if err != nil {
			return nil, err
		}
		values = append(values, v)
	}
	return values, nil
}
