package library

import "context"

// ExecWithoutForeignKeysForTests runs query on a connection with foreign key
// enforcement off so tests can plant dangling references.
func ExecWithoutForeignKeysForTests(ctx context.Context, s *Store, query string, args ...any) error {
	conn, err := s.db.Conn(ctx)
	if err != nil {
		return err
	}
	defer conn.Close()
	if _, err := conn.ExecContext(ctx, "PRAGMA foreign_keys = OFF"); err != nil {
		return err
	}
	defer func() { _, _ = conn.ExecContext(ctx, "PRAGMA foreign_keys = ON") }()
	_, err = conn.ExecContext(ctx, query, args...)
	return err
}

// ExecForTests runs a raw statement against the store's database.
func ExecForTests(ctx context.Context, s *Store, query string, args ...any) error {
	_, err := s.db.ExecContext(ctx, query, args...)
	return err
}

// CountRowsForTests returns the number of rows in table.
func CountRowsForTests(ctx context.Context, s *Store, table string) (int, error) {
	var n int
	err := s.db.GetContext(ctx, &n, "SELECT COUNT(*) FROM "+table)
	return n, err
}
