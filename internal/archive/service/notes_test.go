package service

import (
	"context"
	"strings"

	"custodia/internal/archive/models"
	"custodia/internal/audit"
	id "custodia/pkg/domain"
	dErrors "custodia/pkg/domain-errors"
)

// =============================================================================
// Note Tests
// =============================================================================

func (s *ServiceSuite) TestAddNote() {
	s.Run("appends a note attributed to the actor", func() {
		rec := s.queued("annotated.pdf", []byte("annotated"))

		note, err := s.service.AddNote(s.ctx, rec.ID, "Flagged during the Q1 review.")
		s.Require().NoError(err)
		s.Equal("alice", note.Author)
		s.Equal("Flagged during the Q1 review.", note.Text)
		s.Equal(s.now, note.CreatedAt)

		trail := s.trail(rec.ID)
		s.Require().Len(trail, 1)
		s.Equal(note.ID, trail[0].ID)
		s.Equal(audit.ActionNoteAdded, s.lastEvent().Action)
	})

	s.Run("terminal record still accepts notes", func() {
		rec := s.archived("closed.pdf", []byte("closed"))
		_, err := s.service.Unarchive(s.ctx, rec.ID)
		s.Require().NoError(err)

		_, err = s.service.AddNote(s.ctx, rec.ID, "Withdrawal confirmed with legal.")
		s.Require().NoError(err)
	})

	s.Run("empty text is rejected", func() {
		rec := s.queued("silent.pdf", []byte("silent"))
		_, err := s.service.AddNote(s.ctx, rec.ID, "")
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("oversized text is rejected", func() {
		rec := s.queued("rambling.pdf", []byte("rambling"))
		_, err := s.service.AddNote(s.ctx, rec.ID, strings.Repeat("x", 4001))
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("missing record returns not found", func() {
		_, err := s.service.AddNote(s.ctx, id.NewRecordID(), "orphan note")
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("missing actor is unauthorized", func() {
		rec := s.queued("anonnote.pdf", []byte("anon note"))
		_, err := s.service.AddNote(context.Background(), rec.ID, "unattributed")
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})
}

func (s *ServiceSuite) TestListNotes() {
	s.Run("returns the trail in creation order", func() {
		ref := s.catalogFile("trailing.pdf", []byte("trailing"), 1)
		rec, err := s.service.Queue(s.ctx, ref, models.ReasonOutdated, "", "", "")
		s.Require().NoError(err)
		_, err = s.service.AddNote(s.ctx, rec.ID, "Second entry.")
		s.Require().NoError(err)

		notes, err := s.service.ListNotes(s.ctx, rec.ID)
		s.Require().NoError(err)
		s.Require().Len(notes, 2)
		s.Contains(notes[0].Text, "referenced by 1 live item")
		s.Equal("Second entry.", notes[1].Text)
	})

	s.Run("missing record returns not found", func() {
		_, err := s.service.ListNotes(s.ctx, id.NewRecordID())
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}
