package library

import (
	"context"

	"github.com/jmoiron/sqlx"
)

func (e Ensemble) named() namedValue {
	return namedValue{id: e.ID, name: e.Name, lastUsed: e.LastUsed, lastPlayed: e.LastPlayed}
}

func ensembleFrom(v namedValue) Ensemble {
	return Ensemble{ID: v.id, Name: v.name, LastUsed: v.lastUsed, LastPlayed: v.lastPlayed}
}

// UpdateEnsemble creates or replaces an ensemble.
func (s *Store) UpdateEnsemble(ctx context.Context, e Ensemble) error {
	return s.upsertNamed(ctx, KindEnsemble, e.named())
}

// GetEnsemble returns the ensemble with id, or nil when there is none.
func (s *Store) GetEnsemble(ctx context.Context, id string) (*Ensemble, error) {
	v, err := getNamed(ensureContext(ctx), s.db, KindEnsemble, id)
	if err != nil || v == nil {
		return nil, err
	}
	e := ensembleFrom(*v)
	return &e, nil
}

// DeleteEnsemble removes an ensemble together with its performances.
func (s *Store) DeleteEnsemble(ctx context.Context, id string) error {
	return s.deleteByID(ctx, KindEnsemble, id)
}

func (s *Store) GetEnsembles(ctx context.Context) ([]Ensemble, error) {
	values, err := selectNamed(ensureContext(ctx), s.db, KindEnsemble)
	if err != nil {
		return nil, err
	}
	out := make([]Ensemble, len(values))
	for i, v := range values {
		out[i] = ensembleFrom(v)
	}
	return out, nil
}

func requireEnsemble(ctx context.Context, q sqlx.QueryerContext, id string) (Ensemble, error) {
	v, err := getNamed(ctx, q, KindEnsemble, id)
	if err != nil {
		return Ensemble{}, err
	}
	if v == nil {
		return Ensemble{}, &MissingItemError{Kind: KindEnsemble, ID: id}
	}
	return ensembleFrom(*v), nil
}
