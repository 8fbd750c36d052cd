package library

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Kind names an entity type stored in the library.
type Kind string

const (
	KindPerson     Kind = "person"
	KindInstrument Kind = "instrument"
	KindEnsemble   Kind = "ensemble"
	KindWork       Kind = "work"
	KindRecording  Kind = "recording"
	KindMedium     Kind = "medium"
)

// Kinds lists every entity kind in dependency order, leaves first.
var Kinds = []Kind{KindPerson, KindInstrument, KindEnsemble, KindWork, KindRecording, KindMedium}

// ParseKind maps a user supplied name (singular or plural) onto a Kind.
func ParseKind(value string) (Kind, error) {
	normalized := strings.TrimSuffix(strings.ToLower(strings.TrimSpace(value)), "s")
	for _, k := range Kinds {
		if string(k) == normalized {
			return k, nil
		}
	}
	return "", fmt.Errorf("unknown entity kind %q", value)
}

func (k Kind) table() string {
	return string(k) + "s"
}

// Person is a composer or performer. The role is contextual.
type Person struct {
	ID         string    `json:"id" yaml:"id"`
	FirstName  string    `json:"first_name" yaml:"first_name"`
	LastName   string    `json:"last_name" yaml:"last_name"`
	LastUsed   time.Time `json:"last_used,omitzero" yaml:"last_used,omitempty"`
	LastPlayed time.Time `json:"last_played,omitzero" yaml:"last_played,omitempty"`
}

// Name returns "First Last".
func (p Person) Name() string {
	return strings.TrimSpace(p.FirstName + " " + p.LastName)
}

// NameLastFirst returns "Last, First", or just the last name.
func (p Person) NameLastFirst() string {
	if strings.TrimSpace(p.FirstName) == "" {
		return p.LastName
	}
	return p.LastName + ", " + p.FirstName
}

// Instrument is called for by works and played as a performance role.
type Instrument struct {
	ID         string    `json:"id" yaml:"id"`
	Name       string    `json:"name" yaml:"name"`
	LastUsed   time.Time `json:"last_used,omitzero" yaml:"last_used,omitempty"`
	LastPlayed time.Time `json:"last_played,omitzero" yaml:"last_played,omitempty"`
}

type Ensemble struct {
	ID         string    `json:"id" yaml:"id"`
	Name       string    `json:"name" yaml:"name"`
	LastUsed   time.Time `json:"last_used,omitzero" yaml:"last_used,omitempty"`
	LastPlayed time.Time `json:"last_played,omitzero" yaml:"last_played,omitempty"`
}

// Work is a composition. A work without parts is played as a single unit.
type Work struct {
	ID          string        `json:"id" yaml:"id"`
	Title       string        `json:"title" yaml:"title"`
	Composer    Person        `json:"composer" yaml:"composer"`
	Instruments []Instrument  `json:"instruments,omitempty" yaml:"instruments,omitempty"`
	Parts       []WorkPart    `json:"parts,omitempty" yaml:"parts,omitempty"`
	Sections    []WorkSection `json:"sections,omitempty" yaml:"sections,omitempty"`
	LastUsed    time.Time     `json:"last_used,omitzero" yaml:"last_used,omitempty"`
	LastPlayed  time.Time     `json:"last_played,omitzero" yaml:"last_played,omitempty"`
}

// WorkPart is a movement or number within a work. Composer is set only when
// it differs from the work's composer.
type WorkPart struct {
	Title    string  `json:"title" yaml:"title"`
	Composer *Person `json:"composer,omitempty" yaml:"composer,omitempty"`
}

// WorkSection is a heading shown before the part at BeforeIndex. It is not a
// part itself.
type WorkSection struct {
	Title       string `json:"title" yaml:"title"`
	BeforeIndex int    `json:"before_index" yaml:"before_index"`
}

type Recording struct {
	ID           string        `json:"id" yaml:"id"`
	Work         Work          `json:"work" yaml:"work"`
	Comment      string        `json:"comment,omitempty" yaml:"comment,omitempty"`
	Performances []Performance `json:"performances,omitempty" yaml:"performances,omitempty"`
	LastUsed     time.Time     `json:"last_used,omitzero" yaml:"last_used,omitempty"`
	LastPlayed   time.Time     `json:"last_played,omitzero" yaml:"last_played,omitempty"`
}

// Performance credits exactly one of Person or Ensemble, optionally with the
// instrument played.
type Performance struct {
	Person   *Person     `json:"person,omitempty" yaml:"person,omitempty"`
	Ensemble *Ensemble   `json:"ensemble,omitempty" yaml:"ensemble,omitempty"`
	Role     *Instrument `json:"role,omitempty" yaml:"role,omitempty"`
}

// ErrInvalidPerformer is returned by Performance.Validate.
var ErrInvalidPerformer = errors.New("performance needs exactly one of person or ensemble")

// Validate checks the performer rule. The store accepts invalid performances;
// editors call this before saving.
func (p Performance) Validate() error {
	if (p.Person == nil) == (p.Ensemble == nil) {
		return ErrInvalidPerformer
	}
	return nil
}

// Performer returns the display name of whoever performed.
func (p Performance) Performer() string {
	var name string
	switch {
	case p.Person != nil:
		name = p.Person.Name()
	case p.Ensemble != nil:
		name = p.Ensemble.Name
	}
	if p.Role != nil && p.Role.Name != "" {
		name += " (" + p.Role.Name + ")"
	}
	return name
}

// Medium is a physical or virtual release, typically one disc.
type Medium struct {
	ID         string     `json:"id" yaml:"id"`
	Name       string     `json:"name" yaml:"name"`
	DiscID     string     `json:"discid,omitempty" yaml:"discid,omitempty"`
	TrackSets  []TrackSet `json:"track_sets,omitempty" yaml:"track_sets,omitempty"`
	LastUsed   time.Time  `json:"last_used,omitzero" yaml:"last_used,omitempty"`
	LastPlayed time.Time  `json:"last_played,omitzero" yaml:"last_played,omitempty"`
}

// TrackSet binds consecutive tracks of a medium to one recording.
type TrackSet struct {
	Recording Recording `json:"recording" yaml:"recording"`
	Tracks    []Track   `json:"tracks" yaml:"tracks"`
}

// Track is one file. WorkParts lists the indices into the recorded work's
// parts that the file contains; empty means the whole work.
type Track struct {
	WorkParts []int  `json:"work_parts,omitempty" yaml:"work_parts,omitempty"`
	Path      string `json:"path" yaml:"path"`
}

// TrackCount returns the number of tracks across all track sets.
func (m Medium) TrackCount() int {
	n := 0
	for _, set := range m.TrackSets {
		n += len(set.Tracks)
	}
	return n
}
