package library

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidEntity reports a payload the store cannot persist, such as an
// entity or reference without an ID.
var ErrInvalidEntity = errors.New("invalid entity")

// MissingItemError reports a referenced row that does not exist.
type MissingItemError struct {
	Kind Kind
	ID   string
}

func (e *MissingItemError) Error() string {
	return fmt.Sprintf("missing %s %q", e.Kind, e.ID)
}

// ParsingError reports a stored value that could not be decoded. It means the
// database holds data this package never writes.
type ParsingError struct {
	Field string
	Raw   string
	Err   error
}

func (e *ParsingError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("parse %s: invalid value %q", e.Field, e.Raw)
	}
	return fmt.Sprintf("parse %s: invalid value %q: %v", e.Field, e.Raw, e.Err)
}

func (e *ParsingError) Unwrap() error { return e.Err }

const (
	sqliteConstraintCode           = 19
	sqliteConstraintForeignKeyCode = 787
)

// IsForeignKeyViolation reports whether err is SQLite refusing a write that
// would break a foreign key, which is how deleting an entity that is still
// referenced fails.
func IsForeignKeyViolation(err error) bool {
	if err == nil {
		return false
	}
	var coder interface{ Code() int }
	if errors.As(err, &coder) {
		code := coder.Code()
		if code == sqliteConstraintForeignKeyCode {
			return true
		}
		if code&0xff != sqliteConstraintCode {
			return false
		}
	}
	return strings.Contains(err.Error(), "FOREIGN KEY constraint failed")
}

// IsMissingItem reports whether err carries a MissingItemError.
func IsMissingItem(err error) bool {
	var missing *MissingItemError
	return errors.As(err, &missing)
}

func requireID(kind Kind, id string) error {
	if strings.TrimSpace(id) == "" {
		return fmt.Errorf("%w: %s without id", ErrInvalidEntity, kind)
	}
	return nil
}
