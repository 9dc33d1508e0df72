package services

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"reading-journal/internal/models"
)

const journalExport = `{
  "books": [
    {
      "title": "Dune",
      "author": "Frank Herbert",
      "genre": "Sci-Fi",
      "total_pages": 600,
      "current_page": 600,
      "status": "finished",
      "rating": 5,
      "sessions": [
        {"started_at": "2025-06-02T10:00:00Z", "duration_seconds": 1800, "start_page": 0, "end_page": 60},
        {"started_at": "2025-06-03T10:00:00Z", "duration_seconds": 1200, "start_page": 60, "end_page": 100}
      ],
      "notes": [
        {"kind": "quote", "content": "Fear is the mind-killer.", "page": 8, "public": true}
      ]
    },
    {
      "title": "Emma",
      "author": "Jane Austen"
    }
  ]
}`

func TestImportService_Import(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := env.newUser(t, "ada")

	t.Run("DryRunWritesNothing", func(t *testing.T) {
		report, err := env.importSvc.Import(ctx, user, strings.NewReader(journalExport), true)
		require.NoError(t, err)
		assert.Equal(t, &models.ImportReport{Books: 2, Sessions: 2, Notes: 1, DryRun: true}, report)
		assert.Empty(t, env.books.byID)
	})

	t.Run("Writes", func(t *testing.T) {
		report, err := env.importSvc.Import(ctx, user, strings.NewReader(journalExport), false)
		require.NoError(t, err)
		assert.Equal(t, 2, report.Books)

		books, err := env.books.List(ctx, user, models.StatusFinished)
		require.NoError(t, err)
		require.Len(t, books, 1)
		assert.Equal(t, 600, books[0].CurrentPage)
		assert.NotNil(t, books[0].FinishedAt)

		emma, err := env.books.List(ctx, user, models.StatusWantToRead)
		require.NoError(t, err)
		assert.Len(t, emma, 1)

		assert.Len(t, env.sessions.byID, 2)
		assert.Len(t, env.notes.byID, 1)

		stats, err := env.stats.Get(ctx, user)
		require.NoError(t, err)
		assert.Equal(t, 3000, stats.TotalReadingTime)
		assert.Equal(t, 1, stats.BooksFinished)
		assert.Equal(t, 4, stats.Level)
	})
}

func TestImportService_Rejects(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := env.newUser(t, "ada")

	tests := []struct {
		name string
		body string
	}{
		{name: "Malformed", body: `{"books": [`},
		{name: "UnknownField", body: `{"shelves": []}`},
		{name: "MissingTitle", body: `{"books": [{"author": "X"}]}`},
		{name: "BadSession", body: `{"books": [{"title": "A", "author": "B", "sessions": [{"started_at": "2025-01-01T00:00:00Z", "duration_seconds": 0}]}]}`},
		{name: "BadNoteKind", body: `{"books": [{"title": "A", "author": "B", "notes": [{"kind": "rant", "content": "x"}]}]}`},
		{name: "PageBeyondEnd", body: `{"books": [{"title": "A", "author": "B", "total_pages": 10, "current_page": 11}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.importSvc.Import(ctx, user, strings.NewReader(tt.body), false)
			assert.ErrorIs(t, err, models.ErrValidation)
			assert.Empty(t, env.books.byID)
		})
	}

	t.Run("UnknownUser", func(t *testing.T) {
		_, err := env.importSvc.Import(ctx, primitive.NewObjectID(), strings.NewReader(journalExport), false)
		assert.ErrorIs(t, err, models.ErrNotFound)
	})
}
