package library

import (
	"context"

	"github.com/jmoiron/sqlx"
)

func (i Instrument) named() namedValue {
	return namedValue{id: i.ID, name: i.Name, lastUsed: i.LastUsed, lastPlayed: i.LastPlayed}
}

func instrumentFrom(v namedValue) Instrument {
	return Instrument{ID: v.id, Name: v.name, LastUsed: v.lastUsed, LastPlayed: v.lastPlayed}
}

// UpdateInstrument creates or replaces an instrument.
func (s *Store) UpdateInstrument(ctx context.Context, inst Instrument) error {
	return s.upsertNamed(ctx, KindInstrument, inst.named())
}

// GetInstrument returns the instrument with id, or nil when there is none.
func (s *Store) GetInstrument(ctx context.Context, id string) (*Instrument, error) {
	v, err := getNamed(ensureContext(ctx), s.db, KindInstrument, id)
	if err != nil || v == nil {
		return nil, err
	}
	inst := instrumentFrom(*v)
	return &inst, nil
}

// DeleteInstrument removes an instrument, its instrumentation rows, and the
// role on any performance that named it.
func (s *Store) DeleteInstrument(ctx context.Context, id string) error {
	return s.deleteByID(ctx, KindInstrument, id)
}

// GetInstruments returns all instruments ordered by name.
func (s *Store) GetInstruments(ctx context.Context) ([]Instrument, error) {
	values, err := selectNamed(ensureContext(ctx), s.db, KindInstrument)
	if err != nil {
		return nil, err
	}
	out := make([]Instrument, len(values))
	for i, v := range values {
		out[i] = instrumentFrom(v)
	}
	return out, nil
}

func requireInstrument(ctx context.Context, q sqlx.QueryerContext, id string) (Instrument, error) {
	v, err := getNamed(ctx, q, KindInstrument, id)
	if err != nil {
		return Instrument{}, err
	}
	if v == nil {
		return Instrument{}, &MissingItemError{Kind: KindInstrument, ID: id}
	}
	return instrumentFrom(*v), nil
}
