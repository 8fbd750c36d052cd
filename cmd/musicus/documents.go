package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"musicus/internal/library"
)

var errNotFound = errors.New("not found")

// document is the on-disk form of one entity for apply, export and
// import --medium. Exactly the body matching Kind is set. Referenced
// entities are embedded in full, like a remote library would send them.
type document struct {
	Kind       library.Kind        `yaml:"kind" json:"kind"`
	Person     *library.Person     `yaml:"person,omitempty" json:"person,omitempty"`
	Instrument *library.Instrument `yaml:"instrument,omitempty" json:"instrument,omitempty"`
	Ensemble   *library.Ensemble   `yaml:"ensemble,omitempty" json:"ensemble,omitempty"`
	Work       *library.Work       `yaml:"work,omitempty" json:"work,omitempty"`
	Recording  *library.Recording  `yaml:"recording,omitempty" json:"recording,omitempty"`
	Medium     *library.Medium     `yaml:"medium,omitempty" json:"medium,omitempty"`
}

func (d document) bodies() int {
	n := 0
	for _, set := range []bool{d.Person != nil, d.Instrument != nil, d.Ensemble != nil, d.Work != nil, d.Recording != nil, d.Medium != nil} {
		if set {
			n++
		}
	}
	return n
}

func (d document) validate() error {
	kind, err := library.ParseKind(string(d.Kind))
	if err != nil {
		return err
	}
	if d.bodies() != 1 {
		return fmt.Errorf("%s document must contain exactly one entity body", kind)
	}
	var ok bool
	switch kind {
	case library.KindPerson:
		ok = d.Person != nil
	case library.KindInstrument:
		ok = d.Instrument != nil
	case library.KindEnsemble:
		ok = d.Ensemble != nil
	case library.KindWork:
		ok = d.Work != nil
	case library.KindRecording:
		ok = d.Recording != nil
	case library.KindMedium:
		ok = d.Medium != nil
	}
	if !ok {
		return fmt.Errorf("%s document is missing its %s body", kind, kind)
	}
	return nil
}

// decodeDocuments reads a YAML stream of documents. JSON input parses as
// YAML too.
func decodeDocuments(r io.Reader) ([]document, error) {
	dec := yaml.NewDecoder(r)
	var docs []document
	for i := 1; ; i++ {
		var doc document
		err := dec.Decode(&doc)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("document %d: %w", i, err)
		}
		if doc.Kind == "" && doc.bodies() == 0 {
			continue
		}
		if err := doc.validate(); err != nil {
			return nil, fmt.Errorf("document %d: %w", i, err)
		}
		kind, _ := library.ParseKind(string(doc.Kind))
		doc.Kind = kind
		docs = append(docs, doc)
	}
	return docs, nil
}

func readDocumentsFile(path string) ([]document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return decodeDocuments(f)
}

// readMediumFile loads the single medium document an import finalizes.
func readMediumFile(path string) (library.Medium, error) {
	docs, err := readDocumentsFile(path)
	if err != nil {
		return library.Medium{}, err
	}
	if len(docs) != 1 || docs[0].Kind != library.KindMedium {
		return library.Medium{}, fmt.Errorf("%s: expected exactly one medium document", path)
	}
	return *docs[0].Medium, nil
}

// applyDocument stores the entity with the matching Update operation.
func applyDocument(ctx context.Context, catalog library.Catalog, doc document) (string, error) {
	switch doc.Kind {
	case library.KindPerson:
		return doc.Person.ID, catalog.UpdatePerson(ctx, *doc.Person)
	case library.KindInstrument:
		return doc.Instrument.ID, catalog.UpdateInstrument(ctx, *doc.Instrument)
	case library.KindEnsemble:
		return doc.Ensemble.ID, catalog.UpdateEnsemble(ctx, *doc.Ensemble)
	case library.KindWork:
		return doc.Work.ID, catalog.UpdateWork(ctx, *doc.Work)
	case library.KindRecording:
		return doc.Recording.ID, catalog.UpdateRecording(ctx, *doc.Recording)
	case library.KindMedium:
		return doc.Medium.ID, catalog.UpdateMedium(ctx, *doc.Medium)
	default:
		return "", fmt.Errorf("unknown entity kind %q", doc.Kind)
	}
}

// loadDocument fetches one entity as a document.
func loadDocument(ctx context.Context, catalog library.Catalog, kind library.Kind, id string) (document, error) {
	doc := document{Kind: kind}
	var found bool
	switch kind {
	case library.KindPerson:
		v, err := catalog.GetPerson(ctx, id)
		if err != nil {
			return doc, err
		}
		doc.Person, found = v, v != nil
	case library.KindInstrument:
		v, err := catalog.GetInstrument(ctx, id)
		if err != nil {
			return doc, err
		}
		doc.Instrument, found = v, v != nil
	case library.KindEnsemble:
		v, err := catalog.GetEnsemble(ctx, id)
		if err != nil {
			return doc, err
		}
		doc.Ensemble, found = v, v != nil
	case library.KindWork:
		v, err := catalog.GetWork(ctx, id)
		if err != nil {
			return doc, err
		}
		doc.Work, found = v, v != nil
	case library.KindRecording:
		v, err := catalog.GetRecording(ctx, id)
		if err != nil {
			return doc, err
		}
		doc.Recording, found = v, v != nil
	case library.KindMedium:
		v, err := catalog.GetMedium(ctx, id)
		if err != nil {
			return doc, err
		}
		doc.Medium, found = v, v != nil
	default:
		return doc, fmt.Errorf("unknown entity kind %q", kind)
	}
	if !found {
		return doc, fmt.Errorf("%s %q: %w", kind, id, errNotFound)
	}
	return doc, nil
}

func deleteEntity(ctx context.Context, catalog library.Catalog, kind library.Kind, id string) error {
	switch kind {
	case library.KindPerson:
		return catalog.DeletePerson(ctx, id)
	case library.KindInstrument:
		return catalog.DeleteInstrument(ctx, id)
	case library.KindEnsemble:
		return catalog.DeleteEnsemble(ctx, id)
	case library.KindWork:
		return catalog.DeleteWork(ctx, id)
	case library.KindRecording:
		return catalog.DeleteRecording(ctx, id)
	case library.KindMedium:
		return catalog.DeleteMedium(ctx, id)
	default:
		return fmt.Errorf("unknown entity kind %q", kind)
	}
}

func writeYAML(w io.Writer, v any) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return err
	}
	return enc.Close()
}
