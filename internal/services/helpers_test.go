package services

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/yukikurage/projecthub/internal/database/databasetest"
	"github.com/yukikurage/projecthub/internal/models"
	"github.com/yukikurage/projecthub/internal/repository"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
	"gorm.io/gorm"
)

type recordingMedia struct {
	mu        sync.Mutex
	destroyed []string
	err       error
}

func (m *recordingMedia) Destroy(_ context.Context, publicID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.destroyed = append(m.destroyed, publicID)
	return m.err
}

type fixture struct {
	db          *gorm.DB
	projectRepo repository.ProjectRepository
	projects    *ProjectService
	tasks       *TaskService
	notes       *NoteService
	board       *BoardService
	auth        *AuthService
	media       *recordingMedia
	logs        *observer.ObservedLogs
	users       []uint64
}

func newFixture(t *testing.T, users int) *fixture {
	t.Helper()

	db := databasetest.NewDB(t)
	core, logs := observer.New(zap.InfoLevel)
	logger := zap.New(core)
	media := &recordingMedia{}

	userRepo := repository.NewUserRepository(db)
	projectRepo := repository.NewProjectRepository(db)
	projects := NewProjectService(projectRepo, userRepo, media, 5, logger)

	f := &fixture{
		db:          db,
		projectRepo: projectRepo,
		projects:    projects,
		tasks:       NewTaskService(repository.NewTaskRepository(db), projects, nil, logger),
		notes:       NewNoteService(repository.NewNoteRepository(db), projects),
		board:       NewBoardService(repository.NewBoardRepository(db), projects, media, logger),
		auth:        NewAuthService(userRepo),
		media:       media,
		logs:        logs,
	}

	for i := 0; i < users; i++ {
		user := models.User{
			Username:     fmt.Sprintf("member%d", i),
			Email:        fmt.Sprintf("member%d@example.com", i),
			FullName:     fmt.Sprintf("Member %d", i),
			PasswordHash: "hash",
		}
		require.NoError(t, db.Create(&user).Error)
		f.users = append(f.users, user.ID)
	}

	return f
}

func (f *fixture) createProject(t *testing.T, name string, owner uint64, collaborators ...uint64) *models.Project {
	t.Helper()
	p, err := f.projects.Create(CreateProjectInput{Name: name, OwnerID: owner, CollaboratorIDs: collaborators})
	require.NoError(t, err)
	return p
}

func (f *fixture) makePublic(t *testing.T, projectID uint64) {
	t.Helper()
	require.NoError(t, f.db.Model(&models.Project{}).Where("id = ?", projectID).
		Update("visibility", models.VisibilityPublic).Error)
}

// requireLedgerConsistent checks membership against back-references and the
// owner/collaborator disjointness for every project.
func (f *fixture) requireLedgerConsistent(t *testing.T) {
	t.Helper()

	issues, err := f.projectRepo.CheckLedger()
	require.NoError(t, err)
	require.Empty(t, issues)

	var projects []models.Project
	require.NoError(t, f.db.Preload("Members").Find(&projects).Error)
	for _, p := range projects {
		owner, ok := p.Owner()
		require.True(t, ok, "project %d has no owner", p.ID)
		require.NotContains(t, p.Collaborators(), owner)
	}
}

func ptr[T any](v T) *T {
	return &v
}
