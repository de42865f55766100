package repository

import (
	"database/sql"
	"os"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"codecollab/engine"
	"codecollab/pkg/logger"
	"codecollab/store"
)

func TestMain(m *testing.M) {
	logger.Init()
	os.Exit(m.Run())
}

func TestFileContent(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewCollabRepository(db)

	mock.ExpectQuery("SELECT content FROM file_snapshots").
		WithArgs("proj-1", "main.go").
		WillReturnRows(sqlmock.NewRows([]string{"content"}).AddRow("package main\n"))

	content, err := repo.FileContent("proj-1", "main.go")
	require.NoError(t, err)
	assert.Equal(t, "package main\n", content)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFileContentMissingRowPropagates(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewCollabRepository(db)

	mock.ExpectQuery("SELECT content FROM file_snapshots").
		WithArgs("proj-1", "new.go").
		WillReturnError(sql.ErrNoRows)

	_, err = repo.FileContent("proj-1", "new.go")
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestSaveSnapshot(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewCollabRepository(db)

	mock.ExpectExec("INSERT INTO file_snapshots").
		WithArgs("proj-1", "main.go", "package main\n", 7).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err = repo.SaveSnapshot(store.FileSnapshot{
		ProjectID: "proj-1",
		FileID:    "main.go",
		Content:   "package main\n",
		Version:   7,
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestArchiveMessage(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewCollabRepository(db)

	sentAt := time.Now()
	mock.ExpectExec("INSERT INTO session_messages").
		WithArgs("msg-1", "sess-1", engine.MessageText, "hello", "u1", "Ana", sentAt).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err = repo.ArchiveMessage("sess-1", engine.Message{
		ID:         "msg-1",
		Kind:       engine.MessageText,
		Content:    "hello",
		AuthorID:   "u1",
		AuthorName: "Ana",
		SentAt:     sentAt,
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
