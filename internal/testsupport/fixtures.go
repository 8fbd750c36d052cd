package testsupport

import (
	"fmt"

	"musicus/internal/library"
)

// Person returns a person fixture with a stable ID derived from the name.
func Person(first, last string) library.Person {
	return library.Person{ID: "person-" + last, FirstName: first, LastName: last}
}

func Instrument(name string) library.Instrument {
	return library.Instrument{ID: "instrument-" + name, Name: name}
}

func Ensemble(name string) library.Ensemble {
	return library.Ensemble{ID: "ensemble-" + name, Name: name}
}

// Work returns a work by composer with numbered parts.
func Work(id string, composer library.Person, parts int) library.Work {
	w := library.Work{ID: id, Title: "Work " + id, Composer: composer}
	for i := 0; i < parts; i++ {
		w.Parts = append(w.Parts, library.WorkPart{Title: fmt.Sprintf("Part %d", i+1)})
	}
	return w
}

// Recording returns a recording of w performed by the given people.
func Recording(id string, w library.Work, performers ...library.Person) library.Recording {
	r := library.Recording{ID: id, Work: w}
	for i := range performers {
		p := performers[i]
		r.Performances = append(r.Performances, library.Performance{Person: &p})
	}
	return r
}

// Medium returns a medium holding one track per work part (or a single track
// for a work without parts) of each recording.
func Medium(id, discID string, recordings ...library.Recording) library.Medium {
	m := library.Medium{ID: id, Name: "Medium " + id, DiscID: discID}
	n := 0
	for _, r := range recordings {
		set := library.TrackSet{Recording: r}
		if len(r.Work.Parts) == 0 {
			n++
			set.Tracks = append(set.Tracks, library.Track{Path: fmt.Sprintf("%s/%02d.flac", id, n)})
		}
		for i := range r.Work.Parts {
			n++
			set.Tracks = append(set.Tracks, library.Track{WorkParts: []int{i}, Path: fmt.Sprintf("%s/%02d.flac", id, n)})
		}
		m.TrackSets = append(m.TrackSets, set)
	}
	return m
}
