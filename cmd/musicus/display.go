package main

import (
	"slices"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"golang.org/x/text/cases"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"musicus/internal/library"
)

// newCollator orders names the way a reader expects, so "Åström" sorts
// next to "Astrom" and case is ignored.
func newCollator() *collate.Collator {
	return collate.New(language.Und, collate.IgnoreCase, collate.IgnoreDiacritics)
}

func sortPersons(persons []library.Person) {
	c := newCollator()
	slices.SortStableFunc(persons, func(a, b library.Person) int {
		return c.CompareString(a.NameLastFirst(), b.NameLastFirst())
	})
}

func sortWorks(works []library.Work) {
	c := newCollator()
	slices.SortStableFunc(works, func(a, b library.Work) int {
		if n := c.CompareString(a.Composer.NameLastFirst(), b.Composer.NameLastFirst()); n != 0 {
			return n
		}
		return c.CompareString(a.Title, b.Title)
	})
}

func sortByName[T any](items []T, name func(T) string) {
	c := newCollator()
	slices.SortStableFunc(items, func(a, b T) int {
		return c.CompareString(name(a), name(b))
	})
}

// heading title-cases an entity kind for section headers ("Recordings").
func heading(kind library.Kind) string {
	return cases.Title(language.English).String(string(kind) + "s")
}

func formatWhen(t time.Time) string {
	if t.IsZero() {
		return "never"
	}
	return humanize.Time(t)
}

func shortID(id string) string {
	if len(id) <= 12 {
		return id
	}
	return id[:12] + "…"
}

func performers(r library.Recording) string {
	names := make([]string, 0, len(r.Performances))
	for _, p := range r.Performances {
		if name := p.Performer(); name != "" {
			names = append(names, name)
		}
	}
	return strings.Join(names, "; ")
}
