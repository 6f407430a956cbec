package repository

import (
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yukikurage/projecthub/internal/slug"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()

	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	return db, mock
}

func TestProjectRepository_CreateRollsBackOnInsertFailure(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewProjectRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT "slug" FROM "projects"`).
		WillReturnRows(sqlmock.NewRows([]string{"slug"}).AddRow("plan"))
	mock.ExpectQuery(`INSERT INTO "projects"`).
		WillReturnError(errors.New("connection reset"))
	mock.ExpectRollback()

	p := newProject("plan")
	err := repo.Create(p, 1, nil)

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrCreateProject)
	assert.Equal(t, "plan-1", p.Slug)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProjectRepository_CreateReportsLostSlugRace(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewProjectRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT "slug" FROM "projects"`).
		WillReturnRows(sqlmock.NewRows([]string{"slug"}))
	mock.ExpectQuery(`INSERT INTO "projects"`).
		WillReturnError(&pgconn.PgError{Code: "23505", Message: "duplicate key value violates unique constraint"})
	mock.ExpectRollback()

	err := repo.Create(newProject("plan"), 1, nil)

	assert.ErrorIs(t, err, slug.ErrTaken)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProjectRepository_CreateBeginFailure(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewProjectRepository(db)

	mock.ExpectBegin().WillReturnError(errors.New("too many connections"))

	err := repo.Create(newProject("plan"), 1, nil)

	assert.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNoteRepository_FindOrCreateReadsBackConcurrentInsert(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewNoteRepository(db)

	mock.ExpectQuery(`SELECT \* FROM "notes"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "project_id", "content"}))
	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO "notes"`).
		WillReturnError(&pgconn.PgError{Code: "23505", Message: "duplicate key value violates unique constraint"})
	mock.ExpectRollback()
	mock.ExpectQuery(`SELECT \* FROM "notes"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "project_id", "content"}).AddRow(11, 7, "written first"))

	note, err := repo.FindOrCreate(7)

	require.NoError(t, err)
	assert.Equal(t, uint64(11), note.ID)
	assert.Equal(t, "written first", note.Content)
	assert.NoError(t, mock.ExpectationsWereMet())
}
