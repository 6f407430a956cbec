package repository

import (
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yukikurage/projecthub/internal/database/databasetest"
	"github.com/yukikurage/projecthub/internal/models"
	"gorm.io/gorm"
)

var errInjected = errors.New("injected write failure")

// failingWrites makes creates or deletes against table fail while enabled.
type failingWrites struct {
	creates atomic.Bool
	deletes atomic.Bool
}

func injectWriteFailures(t *testing.T, db *gorm.DB, table string) *failingWrites {
	t.Helper()
	f := &failingWrites{}

	require.NoError(t, db.Callback().Create().Before("gorm:create").Register("test:fail_create", func(tx *gorm.DB) {
		if f.creates.Load() && tx.Statement.Table == table {
			_ = tx.AddError(errInjected)
		}
	}))
	require.NoError(t, db.Callback().Delete().Before("gorm:delete").Register("test:fail_delete", func(tx *gorm.DB) {
		if f.deletes.Load() && tx.Statement.Table == table {
			_ = tx.AddError(errInjected)
		}
	}))

	return f
}

// requireUnchanged checks the project still has owner and collaborators and
// that every member still holds its back-reference.
func requireUnchanged(t *testing.T, db *gorm.DB, repo ProjectRepository, projectID, owner uint64, collaborators []uint64) {
	t.Helper()

	found, err := repo.FindByID(projectID)
	require.NoError(t, err)
	gotOwner, ok := found.Owner()
	require.True(t, ok)
	assert.Equal(t, owner, gotOwner)
	assert.Equal(t, collaborators, found.Collaborators())

	for _, id := range append([]uint64{owner}, collaborators...) {
		assert.Equal(t, []uint64{projectID}, backRefs(t, db, id))
	}
	assertLedger(t, repo)
}

func TestProjectRepository_ReconcileRollsBackOnBackReferenceFailure(t *testing.T) {
	db := databasetest.NewDB(t)
	repo := NewProjectRepository(db)
	users := seedUsers(t, db, 4)
	fail := injectWriteFailures(t, db, "user_projects")

	p := newProject("reconcile")
	require.NoError(t, repo.Create(p, users[0], []uint64{users[1], users[2]}))

	// Removing users[1] succeeds, then adding users[3]'s back-reference fails.
	fail.creates.Store(true)
	_, _, err := repo.ReconcileCollaborators(p.ID, []uint64{users[2], users[3]})
	fail.creates.Store(false)

	require.ErrorIs(t, err, errInjected)
	assert.ErrorIs(t, err, ErrCreateMembership)
	requireUnchanged(t, db, repo, p.ID, users[0], []uint64{users[1], users[2]})
	assert.Empty(t, backRefs(t, db, users[3]))
}

func TestProjectRepository_LeaveTransferRollsBackOnBackReferenceFailure(t *testing.T) {
	db := databasetest.NewDB(t)
	repo := NewProjectRepository(db)
	users := seedUsers(t, db, 3)
	fail := injectWriteFailures(t, db, "user_projects")

	p := newProject("transfer")
	require.NoError(t, repo.Create(p, users[0], []uint64{users[1], users[2]}))

	// The owner's member row is deleted, then its back-reference delete fails.
	fail.deletes.Store(true)
	_, err := repo.Leave(p.ID, users[0])
	fail.deletes.Store(false)

	require.ErrorIs(t, err, errInjected)
	assert.ErrorIs(t, err, ErrDeleteMembership)
	requireUnchanged(t, db, repo, p.ID, users[0], []uint64{users[1], users[2]})
}

func TestProjectRepository_DeleteRollsBackOnBackReferenceFailure(t *testing.T) {
	db := databasetest.NewDB(t)
	repo := NewProjectRepository(db)
	users := seedUsers(t, db, 2)
	fail := injectWriteFailures(t, db, "user_projects")

	p := newProject("keep")
	require.NoError(t, repo.Create(p, users[0], []uint64{users[1]}))
	require.NoError(t, db.Create(&models.Task{ProjectID: p.ID, CreatorID: users[0], Name: "t", Priority: models.PriorityLow}).Error)
	require.NoError(t, db.Create(&models.Note{ProjectID: p.ID, Content: "hi"}).Error)

	// Tasks, note and member rows are deleted before the back-references fail.
	fail.deletes.Store(true)
	_, err := repo.Delete(p.ID)
	fail.deletes.Store(false)

	require.ErrorIs(t, err, errInjected)
	requireUnchanged(t, db, repo, p.ID, users[0], []uint64{users[1]})

	for _, model := range []interface{}{&models.Task{}, &models.Note{}} {
		var count int64
		require.NoError(t, db.Model(model).Where("project_id = ?", p.ID).Count(&count).Error)
		assert.Equal(t, int64(1), count)
	}
}
