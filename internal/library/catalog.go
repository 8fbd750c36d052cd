package library

import "context"

// Catalog is the read and write surface of a music library. The local SQLite
// Store implements it; any other backend must return entities of the same
// shape so an entity fetched from one can be handed to another's Update
// methods unchanged.
type Catalog interface {
	UpdatePerson(ctx context.Context, p Person) error
	GetPerson(ctx context.Context, id string) (*Person, error)
	DeletePerson(ctx context.Context, id string) error
	GetPersons(ctx context.Context) ([]Person, error)
	GetRecentPersons(ctx context.Context, limit int) ([]Person, error)
	GetComposers(ctx context.Context) ([]Person, error)

	UpdateInstrument(ctx context.Context, inst Instrument) error
	GetInstrument(ctx context.Context, id string) (*Instrument, error)
	DeleteInstrument(ctx context.Context, id string) error
	GetInstruments(ctx context.Context) ([]Instrument, error)

	UpdateEnsemble(ctx context.Context, e Ensemble) error
	GetEnsemble(ctx context.Context, id string) (*Ensemble, error)
	DeleteEnsemble(ctx context.Context, id string) error
	GetEnsembles(ctx context.Context) ([]Ensemble, error)

	UpdateWork(ctx context.Context, w Work) error
	GetWork(ctx context.Context, id string) (*Work, error)
	DeleteWork(ctx context.Context, id string) error
	GetWorks(ctx context.Context, composerID string) ([]Work, error)

	UpdateRecording(ctx context.Context, r Recording) error
	GetRecording(ctx context.Context, id string) (*Recording, error)
	DeleteRecording(ctx context.Context, id string) error
	RecordingExists(ctx context.Context, id string) (bool, error)
	GetRecordingsForPerson(ctx context.Context, personID string) ([]Recording, error)
	GetRecordingsForEnsemble(ctx context.Context, ensembleID string) ([]Recording, error)
	GetRecordingsForWork(ctx context.Context, workID string) ([]Recording, error)

	UpdateMedium(ctx context.Context, m Medium) error
	GetMedium(ctx context.Context, id string) (*Medium, error)
	DeleteMedium(ctx context.Context, id string) error
	GetMediums(ctx context.Context) ([]Medium, error)
	GetMediumsBySourceID(ctx context.Context, sourceID string) ([]Medium, error)
	GetMediumsForPerson(ctx context.Context, personID string) ([]Medium, error)
	GetMediumsForEnsemble(ctx context.Context, ensembleID string) ([]Medium, error)
	GetMediumsForRecording(ctx context.Context, recordingID string) ([]Medium, error)

	MarkUsed(ctx context.Context, kind Kind, id string) error
	MarkPlayed(ctx context.Context, recordingID string) error
}

var _ Catalog = (*Store)(nil)
