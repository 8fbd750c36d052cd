package main

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"musicus/internal/library"
)

const workDocs = `kind: work
work:
  id: d935
  title: Impromptus D 935
  composer:
    id: schubert
    first_name: Franz
    last_name: Schubert
  instruments:
    - id: piano
      name: Piano
  parts:
    - title: "No. 1 in F minor"
    - title: "No. 2 in A-flat major"
---
kind: ensembles
ensemble:
  id: abq
  name: Alban Berg Quartett
`

func TestDecodeDocumentsValidates(t *testing.T) {
	docs, err := decodeDocuments(strings.NewReader(workDocs))
	if err != nil {
		t.Fatalf("decodeDocuments: %v", err)
	}
	if len(docs) != 2 || docs[0].Kind != library.KindWork || docs[1].Kind != library.KindEnsemble {
		t.Fatalf("unexpected documents %+v", docs)
	}
	if len(docs[0].Work.Parts) != 2 || docs[0].Work.Composer.LastName != "Schubert" {
		t.Fatalf("unexpected work %+v", docs[0].Work)
	}

	cases := map[string]string{
		"unknown kind": "kind: symphony\nwork:\n  id: x\n",
		"missing body": "kind: person\n",
		"wrong body":   "kind: person\nwork:\n  id: x\n",
		"two bodies":   "kind: person\nperson:\n  id: a\nensemble:\n  id: b\n",
		"invalid yaml": "kind: [person\n",
	}
	for name, input := range cases {
		if _, err := decodeDocuments(strings.NewReader(input)); err == nil {
			t.Errorf("%s: expected error", name)
		}
	}
}

func TestApplyShowAndDelete(t *testing.T) {
	env := setupCLITestEnv(t)
	path := writeDocs(t, env.baseDir, "works.yaml", workDocs)

	out, _, err := runCLI(t, []string{"apply", path}, env.configPath)
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	requireContains(t, out, "Applied work d935")
	requireContains(t, out, "Applied ensemble abq")

	out, _, err = runCLI(t, []string{"work", "list"}, env.configPath)
	if err != nil {
		t.Fatalf("work list: %v", err)
	}
	requireContains(t, out, "Impromptus D 935")
	requireContains(t, out, "Schubert, Franz")

	out, _, err = runCLI(t, []string{"person", "list", "--composers"}, env.configPath)
	if err != nil {
		t.Fatalf("person list: %v", err)
	}
	requireContains(t, out, "schubert")

	out, _, err = runCLI(t, []string{"export", "work", "d935", "--format", "json"}, env.configPath)
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	var doc document
	if err := json.Unmarshal([]byte(out), &doc); err != nil {
		t.Fatalf("decode export: %v\n%s", err, out)
	}
	if doc.Kind != library.KindWork || doc.Work == nil || doc.Work.ID != "d935" || len(doc.Work.Instruments) != 1 {
		t.Fatalf("unexpected export %+v", doc)
	}

	out, _, err = runCLI(t, []string{"work", "show", "d935"}, env.configPath)
	if err != nil {
		t.Fatalf("work show: %v", err)
	}
	requireContains(t, out, "kind: work")
	requireContains(t, out, "title: Impromptus D 935")

	_, _, err = runCLI(t, []string{"person", "delete", "schubert"}, env.configPath)
	if err == nil {
		t.Fatal("expected deleting a composer to fail")
	}
	requireContains(t, formatError(err), "still referenced")

	out, _, err = runCLI(t, []string{"work", "delete", "d935"}, env.configPath)
	if err != nil {
		t.Fatalf("work delete: %v", err)
	}
	requireContains(t, out, "Deleted work d935")

	_, _, err = runCLI(t, []string{"work", "show", "d935"}, env.configPath)
	if !errors.Is(err, errNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestApplyKeepsExistingReferences(t *testing.T) {
	env := setupCLITestEnv(t)
	person := writeDocs(t, env.baseDir, "person.yaml", "kind: person\nperson:\n  id: schubert\n  first_name: Franz Peter\n  last_name: Schubert\n")
	if _, _, err := runCLI(t, []string{"apply", person}, env.configPath); err != nil {
		t.Fatalf("apply person: %v", err)
	}
	works := writeDocs(t, env.baseDir, "works.yaml", workDocs)
	if _, _, err := runCLI(t, []string{"apply", works}, env.configPath); err != nil {
		t.Fatalf("apply works: %v", err)
	}

	out, _, err := runCLI(t, []string{"person", "show", "schubert"}, env.configPath)
	if err != nil {
		t.Fatalf("person show: %v", err)
	}
	requireContains(t, out, "first_name: Franz Peter")
}

func TestRecordingListNeedsOneFilter(t *testing.T) {
	env := setupCLITestEnv(t)
	if _, _, err := runCLI(t, []string{"recording", "list"}, env.configPath); err == nil {
		t.Fatal("expected error without a filter")
	}
	if _, _, err := runCLI(t, []string{"recording", "list", "--person", "a", "--work", "b"}, env.configPath); err == nil {
		t.Fatal("expected error with two filters")
	}
	out, _, err := runCLI(t, []string{"recording", "list", "--work", "none"}, env.configPath)
	if err != nil {
		t.Fatalf("recording list: %v", err)
	}
	requireContains(t, out, "No recordings found")
}
