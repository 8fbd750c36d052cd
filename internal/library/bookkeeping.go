package library

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// MarkUsed bumps last_used of one entity, for example when it is picked in an
// editor. Selection lists order by it.
func (s *Store) MarkUsed(ctx context.Context, kind Kind, id string) error {
	ctx = ensureContext(ctx)
	if _, err := ParseKind(string(kind)); err != nil {
		return err
	}
	if err := requireID(kind, id); err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, "UPDATE "+kind.table()+" SET last_used = ? WHERE id = ?", s.timestamp(), id)
	if err != nil {
		return fmt.Errorf("mark %s used: %w", kind, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return &MissingItemError{Kind: kind, ID: id}
	}
	return nil
}

// MarkPlayed bumps last_played of a recording and of everything credited on
// it: the work, its composer, the performers, and their roles.
func (s *Store) MarkPlayed(ctx context.Context, recordingID string) error {
	ctx = ensureContext(ctx)
	if err := requireID(KindRecording, recordingID); err != nil {
		return err
	}
	now := s.timestamp()
	return s.withTx(ctx, func(tx *sqlx.Tx) error {
		var workID string
		err := sqlx.GetContext(ctx, tx, &workID, "SELECT work FROM recordings WHERE id = ?", recordingID)
		if errors.Is(err, sql.ErrNoRows) {
			return &MissingItemError{Kind: KindRecording, ID: recordingID}
		}
		if err != nil {
			return fmt.Errorf("mark played: %w", err)
		}

		statements := []struct {
			query string
			arg   string
		}{
			{"UPDATE recordings SET last_played = ? WHERE id = ?", recordingID},
			{"UPDATE works SET last_played = ? WHERE id = ?", workID},
			{"UPDATE persons SET last_played = ? WHERE id = (SELECT composer FROM works WHERE id = ?)", workID},
			{"UPDATE persons SET last_played = ? WHERE id IN (SELECT person FROM performances WHERE recording = ?)", recordingID},
			{"UPDATE ensembles SET last_played = ? WHERE id IN (SELECT ensemble FROM performances WHERE recording = ?)", recordingID},
			{"UPDATE instruments SET last_played = ? WHERE id IN (SELECT role FROM performances WHERE recording = ?)", recordingID},
		}
		for _, stmt := range statements {
			if _, err := tx.ExecContext(ctx, stmt.query, now, stmt.arg); err != nil {
				return fmt.Errorf("mark played: %w", err)
			}
		}
		return nil
	})
}
