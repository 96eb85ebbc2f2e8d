package graph

import (
	"errors"
	"testing"
)

func chainState() *State {
	return buildState(
		file("A.md", "[[B]]"),
		file("B.md", "[[C]] and ![[pic.png]]"),
		file("C.md", ""),
	)
}

func TestTraverse_DepthBound(t *testing.T) {
	s := chainState()

	res, err := s.Traverse([]string{"A"}, TraverseOptions{MaxDepth: 1})
	if err != nil {
		t.Fatalf("Traverse() error = %v", err)
	}
	if len(res.Notes) != 2 {
		t.Fatalf("depth 1: %d notes, want 2 (A, B)", len(res.Notes))
	}
	if res.Notes[0].Note.Name != "A" || res.Notes[0].Depth != 0 {
		t.Errorf("first = %q depth %d, want A depth 0", res.Notes[0].Note.Name, res.Notes[0].Depth)
	}
	if res.Notes[1].Note.Name != "B" || res.Notes[1].Depth != 1 {
		t.Errorf("second = %q depth %d, want B depth 1", res.Notes[1].Note.Name, res.Notes[1].Depth)
	}

	res, err = s.Traverse([]string{"A"}, TraverseOptions{MaxDepth: 2})
	if err != nil {
		t.Fatalf("Traverse() error = %v", err)
	}
	if len(res.Notes) != 3 {
		t.Errorf("depth 2: %d notes, want 3", len(res.Notes))
	}
	if last := res.Notes[2]; last.Note.Name != "C" || last.Depth != 2 {
		t.Errorf("last = %q depth %d, want C depth 2", last.Note.Name, last.Depth)
	}
}

func TestTraverse_FirstVisitIsMinDepth(t *testing.T) {
	// A links both directly to C and through B; C must come out at depth 1.
	s := buildState(
		file("A.md", "[[B]] [[C]]"),
		file("B.md", "[[C]]"),
		file("C.md", ""),
	)
	res, err := s.Traverse([]string{"A"}, TraverseOptions{MaxDepth: 3})
	if err != nil {
		t.Fatalf("Traverse() error = %v", err)
	}
	for _, tn := range res.Notes {
		if tn.Note.Name == "C" && tn.Depth != 1 {
			t.Errorf("C at depth %d, want 1", tn.Depth)
		}
	}
}

func TestTraverse_LinkType(t *testing.T) {
	s := chainState()
	res, err := s.Traverse([]string{"B"}, TraverseOptions{MaxDepth: 1})
	if err != nil {
		t.Fatalf("Traverse() error = %v", err)
	}
	for _, tn := range res.Notes {
		switch tn.Note.Name {
		case "B":
			if tn.LinkType != "" {
				t.Errorf("root link type = %q, want empty", tn.LinkType)
			}
		case "C":
			if tn.LinkType != LinkTypeWikilink {
				t.Errorf("C link type = %q, want %q", tn.LinkType, LinkTypeWikilink)
			}
		}
	}
}

func TestTraverse_MissingCollected(t *testing.T) {
	s := chainState()
	res, err := s.Traverse([]string{"B"}, TraverseOptions{MaxDepth: 2})
	if err != nil {
		t.Fatalf("Traverse() error = %v", err)
	}
	if len(res.Missing) != 1 {
		t.Fatalf("missing = %v, want one entry", res.Missing)
	}
	m := res.Missing[0]
	if m.Name != "pic.png" {
		t.Errorf("missing name = %q, want pic.png", m.Name)
	}
	if len(m.Referrers) != 1 || m.Referrers[0] != "B" {
		t.Errorf("referrers = %v, want [B]", m.Referrers)
	}
}

func TestTraverse_MultiRoot(t *testing.T) {
	s := buildState(
		file("X.md", "[[Shared]]"),
		file("Y.md", "[[Shared]]"),
		file("Shared.md", ""),
	)
	res, err := s.Traverse([]string{"X", "Y"}, TraverseOptions{MaxDepth: 1})
	if err != nil {
		t.Fatalf("Traverse() error = %v", err)
	}
	if len(res.Roots) != 2 {
		t.Errorf("roots = %v, want 2", res.Roots)
	}
	shared := 0
	for _, tn := range res.Notes {
		if tn.Note.Name == "Shared" {
			shared++
		}
	}
	if shared != 1 {
		t.Errorf("Shared visited %d times, want once", shared)
	}
}

func TestTraverse_UnresolvedRoot(t *testing.T) {
	s := chainState()
	_, err := s.Traverse([]string{"A", "Nope"}, TraverseOptions{MaxDepth: 1})
	var ure *UnresolvedRootError
	if !errors.As(err, &ure) {
		t.Fatalf("error = %v, want *UnresolvedRootError", err)
	}
	if ure.Name != "Nope" {
		t.Errorf("unresolved name = %q, want Nope", ure.Name)
	}
}

func TestTraverse_ExcludeFolders(t *testing.T) {
	s := buildState(
		file("A.md", "[[Hidden]] [[Open]]"),
		file("archive/Hidden.md", "[[Open]]"),
		file("Open.md", ""),
	)
	res, err := s.Traverse([]string{"A"}, TraverseOptions{MaxDepth: 2, ExcludeFolders: []string{"archive"}})
	if err != nil {
		t.Fatalf("Traverse() error = %v", err)
	}
	for _, tn := range res.Notes {
		if tn.Note.Name == "Hidden" {
			t.Error("excluded-folder note Hidden was visited")
		}
	}
	found := false
	for _, tn := range res.Notes {
		if tn.Note.Name == "Open" {
			found = true
		}
	}
	if !found {
		t.Error("Open not visited; exclusion must not block other routes")
	}
}

func TestTraverse_FuzzyRoot(t *testing.T) {
	s := buildState(file("My-Note.md", ""))
	res, err := s.Traverse([]string{"my note"}, TraverseOptions{MaxDepth: 1})
	if err != nil {
		t.Fatalf("Traverse() error = %v", err)
	}
	if len(res.Roots) != 1 || res.Roots[0] != "My-Note" {
		t.Errorf("roots = %v, want [My-Note]", res.Roots)
	}
}
