package archive

import (
	"testing"

	"mapcreator/api/internal/project"
)

func TestCommitAndHistory(t *testing.T) {
	svc := New(t.TempDir())
	doc := project.Default()

	first, err := svc.CommitProject("user-1", doc, "a@example.com")
	if err != nil {
		t.Fatalf("first commit failed: %v", err)
	}
	if first.Hash == "" || first.Author != "a@example.com" {
		t.Errorf("commit info wrong: %+v", first)
	}

	if _, err := doc.AddLocation(project.NewLocationInput{Name: "Warehouse A", Latitude: "52.1", Longitude: "5.1"}); err != nil {
		t.Fatalf("AddLocation failed: %v", err)
	}
	second, err := svc.CommitProject("user-1", doc, "a@example.com")
	if err != nil {
		t.Fatalf("second commit failed: %v", err)
	}
	if second.Message != "Save project: 1 locations, 0 connections" {
		t.Errorf("commit message = %q", second.Message)
	}

	history, err := svc.History("user-1", 0)
	if err != nil {
		t.Fatalf("History failed: %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("got %d commits, want 2", len(history))
	}
	if history[0].Hash != second.Hash || history[1].Hash != first.Hash {
		t.Errorf("history not newest first: %+v", history)
	}
}

func TestCommitUnchangedDocumentReturnsHead(t *testing.T) {
	svc := New(t.TempDir())
	doc := project.Default()

	first, err := svc.CommitProject("user-1", doc, "a@example.com")
	if err != nil {
		t.Fatalf("first commit failed: %v", err)
	}
	again, err := svc.CommitProject("user-1", doc, "a@example.com")
	if err != nil {
		t.Fatalf("repeat commit failed: %v", err)
	}
	if again.Hash != first.Hash {
		t.Errorf("unchanged commit produced new hash: %q vs %q", again.Hash, first.Hash)
	}

	history, err := svc.History("user-1", 0)
	if err != nil {
		t.Fatalf("History failed: %v", err)
	}
	if len(history) != 1 {
		t.Errorf("got %d commits, want 1", len(history))
	}
}

func TestSnapshotRestoresOlderState(t *testing.T) {
	svc := New(t.TempDir())
	doc := project.Default()

	first, err := svc.CommitProject("user-1", doc, "a@example.com")
	if err != nil {
		t.Fatalf("first commit failed: %v", err)
	}

	if _, err := doc.AddLocation(project.NewLocationInput{Name: "Depot", Latitude: "51.9", Longitude: "4.5"}); err != nil {
		t.Fatalf("AddLocation failed: %v", err)
	}
	if _, err := svc.CommitProject("user-1", doc, "a@example.com"); err != nil {
		t.Fatalf("second commit failed: %v", err)
	}

	old, err := svc.Snapshot("user-1", first.Hash)
	if err != nil {
		t.Fatalf("Snapshot failed: %v", err)
	}
	if len(old.Locations) != 0 {
		t.Errorf("snapshot has %d locations, want 0", len(old.Locations))
	}
}

func TestHistoryForUnknownUser(t *testing.T) {
	svc := New(t.TempDir())
	history, err := svc.History("nobody", 10)
	if err != nil {
		t.Fatalf("History failed: %v", err)
	}
	if len(history) != 0 {
		t.Errorf("got %d commits, want 0", len(history))
	}
}
