package library

// beforeOwnedInsert runs after an aggregate's own row is written and before
// its owned rows are. Tests use it to fail an update half way through.
var beforeOwnedInsert = func(Kind, string) error { return nil }

// SetBeforeOwnedInsertForTests overrides the hook and returns a restore function.
func SetBeforeOwnedInsertForTests(fn func(kind Kind, id string) error) func() {
	prev := beforeOwnedInsert
	if fn == nil {
		fn = func(Kind, string) error { return nil }
	}
	beforeOwnedInsert = fn
	return func() { beforeOwnedInsert = prev }
}
