package models

import (
	"fmt"
	"time"
)

// JournalExport is the JSON document accepted by the importer
type JournalExport struct {
	Books []ExportedBook `json:"books" validate:"dive"`
}

type ExportedBook struct {
	BookInput
	CurrentPage int               `json:"current_page" validate:"min=0"`
	StartedAt   *time.Time        `json:"started_at"`
	FinishedAt  *time.Time        `json:"finished_at"`
	Sessions    []ExportedSession `json:"sessions" validate:"dive"`
	Notes       []ExportedNote    `json:"notes"    validate:"dive"`
}

type ExportedSession struct {
	StartedAt       time.Time `json:"started_at"       validate:"required"`
	DurationSeconds int       `json:"duration_seconds" validate:"gt=0,max=86400"`
	StartPage       int       `json:"start_page"       validate:"min=0"`
	EndPage         int       `json:"end_page"         validate:"min=0,gtefield=StartPage"`
	Note            string    `json:"note"             validate:"omitempty,max=2000"`
}

type ExportedNote struct {
	Kind    NoteKind `json:"kind"    validate:"required,oneof=quote critique review question"`
	Content string   `json:"content" validate:"required,max=10000"`
	Page    int      `json:"page"    validate:"min=0"`
	Public  bool     `json:"public"`
}

// Validate checks every book, session and note before anything is written
func (e JournalExport) Validate() error {
	for i, b := range e.Books {
		if err := validateStruct(b); err != nil {
			return fmt.Errorf("book %d (%q): %w", i, b.Title, err)
		}
		if b.TotalPages > 0 && b.CurrentPage > b.TotalPages {
			return fmt.Errorf("book %d (%q): %w: current_page must not exceed total_pages", i, b.Title, ErrValidation)
		}
	}
	return nil
}

// ImportReport counts what an import wrote, or would write on a dry run
type ImportReport struct {
	Books    int  `json:"books"`
	Sessions int  `json:"sessions"`
	Notes    int  `json:"notes"`
	DryRun   bool `json:"dry_run"`
}
