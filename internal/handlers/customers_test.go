package handlers

import (
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/pantherdox/mini-crm-backend/internal/models"
)

func makeNotes(n int) []models.Note {
	author := primitive.NewObjectID()
	notes := make([]models.Note, n)
	for i := range notes {
		notes[i] = models.Note{Text: "note", Author: author, CreatedAt: time.Now()}
	}
	return notes
}

func TestPrependNotePutsNewestFirst(t *testing.T) {
	existing := makeNotes(2)
	newest := models.Note{Text: "latest", Author: primitive.NewObjectID(), CreatedAt: time.Now()}

	notes := prependNote(existing, newest)
	if len(notes) != 3 {
		t.Fatalf("expected 3 notes, got %d", len(notes))
	}
	if notes[0].Text != "latest" {
		t.Fatal("new note must be first")
	}
}

func TestPrependNoteDoesNotMutateExisting(t *testing.T) {
	existing := makeNotes(1)
	_ = prependNote(existing, models.Note{Text: "x"})
	if existing[0].Text != "note" {
		t.Fatal("existing notes slice must not be rewritten")
	}
}

func TestLatestNotesBounds(t *testing.T) {
	if got := latestNotes(makeNotes(3), 5); len(got) != 3 {
		t.Fatalf("expected all 3 notes when fewer than requested, got %d", len(got))
	}
	if got := latestNotes(makeNotes(8), 5); len(got) != 5 {
		t.Fatalf("expected cap at 5 notes, got %d", len(got))
	}
}
