package services

import (
	"context"
	"errors"
	"math/rand"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yukikurage/projecthub/internal/access"
	"github.com/yukikurage/projecthub/internal/metrics"
	"github.com/yukikurage/projecthub/internal/models"
	"github.com/yukikurage/projecthub/internal/repository"
	"github.com/yukikurage/projecthub/internal/slug"
	"go.uber.org/zap"
)

func TestProjectService_CreateDefaultsAndSlug(t *testing.T) {
	f := newFixture(t, 1)

	first := f.createProject(t, "My Plan!!", f.users[0])
	second := f.createProject(t, "My Plan!!", f.users[0])

	assert.Equal(t, "my-plan", first.Slug)
	assert.Equal(t, "my-plan-1", second.Slug)
	assert.Equal(t, "My Plan!!", first.Name)
	assert.Equal(t, models.DefaultProjectIcon, first.Icon)
	assert.Equal(t, models.VisibilityPrivate, first.Visibility)
	assert.Equal(t, models.PriorityMedium, first.Priority)
	assert.Equal(t, []string{}, first.Links)

	entry := f.logs.FilterMessage("project created").All()
	require.Len(t, entry, 2)
	assert.Equal(t, "my-plan-1", entry[1].ContextMap()["slug"])
}

func TestProjectService_CreateNormalizesCollaborators(t *testing.T) {
	f := newFixture(t, 3)
	owner, a, b := f.users[0], f.users[1], f.users[2]

	p := f.createProject(t, "team", owner, b, owner, a, b)

	assert.Equal(t, []uint64{b, a}, p.Collaborators())
	f.requireLedgerConsistent(t)
}

func TestProjectService_CreateValidation(t *testing.T) {
	tests := []struct {
		name    string
		input   func(owner uint64) CreateProjectInput
		wantErr error
	}{
		{
			name:    "blank name",
			input:   func(owner uint64) CreateProjectInput { return CreateProjectInput{Name: "   ", OwnerID: owner} },
			wantErr: ErrProjectNameRequired,
		},
		{
			name: "unknown visibility",
			input: func(owner uint64) CreateProjectInput {
				return CreateProjectInput{Name: "x", OwnerID: owner, Metadata: ProjectMetadata{Visibility: "secret"}}
			},
			wantErr: ErrInvalidVisibility,
		},
		{
			name: "unknown priority",
			input: func(owner uint64) CreateProjectInput {
				return CreateProjectInput{Name: "x", OwnerID: owner, Metadata: ProjectMetadata{Priority: "urgent"}}
			},
			wantErr: ErrInvalidPriority,
		},
		{
			name: "missing collaborator",
			input: func(owner uint64) CreateProjectInput {
				return CreateProjectInput{Name: "x", OwnerID: owner, CollaboratorIDs: []uint64{9999}}
			},
			wantErr: ErrInvalidCollaborator,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, 1)

			_, err := f.projects.Create(tt.input(f.users[0]))
			require.ErrorIs(t, err, tt.wantErr)
			assert.Equal(t, CategoryInvalidInput, CategoryOf(err))

			var count int64
			require.NoError(t, f.db.Model(&models.Project{}).Count(&count).Error)
			assert.Zero(t, count, "validation runs before any write")
		})
	}
}

// flakyProjectRepo loses the slug race a fixed number of times.
type flakyProjectRepo struct {
	repository.ProjectRepository
	failures int
	calls    int
	slugs    []string
}

func (r *flakyProjectRepo) Create(project *models.Project, ownerID uint64, collaboratorIDs []uint64) error {
	r.calls++
	r.slugs = append(r.slugs, project.Slug)
	if r.calls <= r.failures {
		return slug.ErrTaken
	}
	project.ID = 1
	return nil
}

func TestProjectService_CreateRetriesLostSlugRace(t *testing.T) {
	f := newFixture(t, 1)
	repo := &flakyProjectRepo{failures: 2}
	svc := NewProjectService(repo, repository.NewUserRepository(f.db), f.media, 5, zap.NewNop())

	before := testutil.ToFloat64(metrics.SlugConflicts)
	p, err := svc.Create(CreateProjectInput{Name: "Race", OwnerID: f.users[0]})

	require.NoError(t, err)
	assert.Equal(t, uint64(1), p.ID)
	assert.Equal(t, 3, repo.calls)
	assert.Equal(t, []string{"race", "race", "race"}, repo.slugs, "every attempt re-probes from the base")
	assert.Equal(t, before+2, testutil.ToFloat64(metrics.SlugConflicts))
}

func TestProjectService_CreateGivesUpAfterMaxAttempts(t *testing.T) {
	f := newFixture(t, 1)
	repo := &flakyProjectRepo{failures: 100}
	svc := NewProjectService(repo, repository.NewUserRepository(f.db), f.media, 3, zap.NewNop())

	_, err := svc.Create(CreateProjectInput{Name: "Race", OwnerID: f.users[0]})

	require.ErrorIs(t, err, ErrSlugAllocationFailed)
	assert.Equal(t, CategoryInternal, CategoryOf(err))
	assert.Equal(t, 3, repo.calls)
}

func TestProjectService_GetBySlug(t *testing.T) {
	f := newFixture(t, 3)
	owner, collaborator, stranger := f.users[0], f.users[1], f.users[2]
	p := f.createProject(t, "Secret", owner, collaborator)

	got, err := f.projects.GetBySlug("secret", collaborator)
	require.NoError(t, err)
	assert.Equal(t, p.ID, got.ID)
	require.Len(t, got.Members, 2)
	assert.NotEmpty(t, got.Members[0].User.Username)

	_, err = f.projects.GetBySlug("secret", stranger)
	assert.ErrorIs(t, err, ErrAccessDenied)

	_, err = f.projects.GetBySlug("missing", owner)
	assert.ErrorIs(t, err, ErrProjectNotFound)

	f.makePublic(t, p.ID)
	_, err = f.projects.GetBySlug("secret", stranger)
	assert.NoError(t, err)
}

func TestProjectService_Update(t *testing.T) {
	f := newFixture(t, 3)
	owner, collaborator, stranger := f.users[0], f.users[1], f.users[2]
	deadline := time.Date(2031, 3, 1, 0, 0, 0, 0, time.UTC)
	p, err := f.projects.Create(CreateProjectInput{
		Name: "Launch", OwnerID: owner, CollaboratorIDs: []uint64{collaborator},
		Metadata: ProjectMetadata{Deadline: &deadline},
	})
	require.NoError(t, err)

	name := "  Launch v2  "
	high := models.PriorityHigh
	updated, err := f.projects.Update(UpdateProjectInput{
		ProjectID: p.ID, CallerID: collaborator,
		Name: &name, Priority: &high, ClearDeadline: true,
		Links: []string{" https://example.com ", ""}, SetLinks: true,
	})
	require.NoError(t, err)
	assert.Equal(t, "Launch v2", updated.Name)
	assert.Equal(t, "launch", updated.Slug)
	assert.Nil(t, updated.Deadline)
	assert.Equal(t, []string{"https://example.com"}, updated.Links)

	reloaded, err := f.projectRepo.FindByID(p.ID)
	require.NoError(t, err)
	assert.Equal(t, "Launch v2", reloaded.Name)
	assert.Nil(t, reloaded.Deadline)
	assert.Equal(t, models.PriorityHigh, reloaded.Priority)

	_, err = f.projects.Update(UpdateProjectInput{ProjectID: p.ID, CallerID: stranger, Name: &name})
	assert.ErrorIs(t, err, ErrAccessDenied)

	bogus := models.Visibility("hidden")
	_, err = f.projects.Update(UpdateProjectInput{ProjectID: p.ID, CallerID: owner, Visibility: &bogus})
	assert.ErrorIs(t, err, ErrInvalidVisibility)

	_, err = f.projects.Update(UpdateProjectInput{ProjectID: 999, CallerID: owner, Name: &name})
	assert.ErrorIs(t, err, ErrProjectNotFound)
}

func TestProjectService_ReconcileCollaborators(t *testing.T) {
	f := newFixture(t, 5)
	owner, a, b, c, stranger := f.users[0], f.users[1], f.users[2], f.users[3], f.users[4]
	p := f.createProject(t, "Crew", owner, a, b)

	result, err := f.projects.ReconcileCollaborators(p.ID, a, []uint64{owner, b, c, c})
	require.NoError(t, err)
	assert.Equal(t, []uint64{c}, result.Added)
	assert.Equal(t, []uint64{a}, result.Removed)
	assert.Equal(t, []uint64{b, c}, result.Project.Collaborators())
	f.requireLedgerConsistent(t)

	_, err = f.projects.ReconcileCollaborators(p.ID, stranger, []uint64{stranger})
	assert.ErrorIs(t, err, ErrAccessDenied)

	_, err = f.projects.ReconcileCollaborators(p.ID, owner, []uint64{b, 4242})
	assert.ErrorIs(t, err, ErrInvalidCollaborator)

	// a was removed and lost write access
	_, err = f.projects.ReconcileCollaborators(p.ID, a, []uint64{})
	assert.ErrorIs(t, err, ErrAccessDenied)
}

func TestProjectService_Leave(t *testing.T) {
	tests := []struct {
		name          string
		collaborators int
		leaver        int
		want          models.LeaveOutcome
	}{
		{"collaborator leaves", 2, 2, models.LeaveOutcomeLeft},
		{"owner with collaborators transfers", 2, 0, models.LeaveOutcomeTransferred},
		{"owner alone deletes", 0, 0, models.LeaveOutcomeDeleted},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, 3)
			p := f.createProject(t, "Leave", f.users[0], f.users[1:1+tt.collaborators]...)
			_, err := f.board.AddImage(AddImageInput{ProjectID: p.ID, CallerID: f.users[0], URL: "https://cdn/x", PublicID: "x"})
			require.NoError(t, err)

			before := testutil.ToFloat64(metrics.ProjectLeaves.WithLabelValues(string(tt.want)))
			result, err := f.projects.Leave(context.Background(), p.ID, f.users[tt.leaver])
			require.NoError(t, err)
			assert.Equal(t, tt.want, result.Outcome)
			assert.Equal(t, before+1, testutil.ToFloat64(metrics.ProjectLeaves.WithLabelValues(string(tt.want))))

			f.requireLedgerConsistent(t)

			switch tt.want {
			case models.LeaveOutcomeDeleted:
				assert.Nil(t, result.Project)
				_, err := f.projects.Authorize(p.ID, f.users[0], access.Read)
				assert.ErrorIs(t, err, ErrProjectNotFound)
				assert.Equal(t, []string{"x"}, f.media.destroyed)
			case models.LeaveOutcomeTransferred:
				assert.Equal(t, f.users[1], result.NewOwnerID)
				require.NotNil(t, result.Project)
				owner, _ := result.Project.Owner()
				assert.Equal(t, f.users[1], owner)
				assert.Equal(t, []uint64{f.users[2]}, result.Project.Collaborators())
				assert.Len(t, f.logs.FilterMessage("project ownership transferred").All(), 1)
			default:
				require.NotNil(t, result.Project)
				assert.Equal(t, []uint64{f.users[1]}, result.Project.Collaborators())
				_, err := f.projects.Authorize(p.ID, f.users[tt.leaver], access.Read)
				assert.ErrorIs(t, err, ErrAccessDenied)
				assert.Empty(t, f.media.destroyed)
			}
		})
	}
}

func TestProjectService_LeaveNonMember(t *testing.T) {
	f := newFixture(t, 2)
	p := f.createProject(t, "Closed", f.users[0])

	_, err := f.projects.Leave(context.Background(), p.ID, f.users[1])
	assert.ErrorIs(t, err, ErrAccessDenied)

	_, err = f.projects.Leave(context.Background(), 999, f.users[1])
	assert.ErrorIs(t, err, ErrProjectNotFound)
}

func TestProjectService_RemoveMember(t *testing.T) {
	f := newFixture(t, 3)
	owner, a, b := f.users[0], f.users[1], f.users[2]
	p := f.createProject(t, "Team", owner, a, b)

	_, err := f.projects.RemoveMember(p.ID, a, b)
	assert.ErrorIs(t, err, ErrAccessDenied, "collaborators cannot remove members")

	updated, err := f.projects.RemoveMember(p.ID, owner, b)
	require.NoError(t, err)
	assert.Equal(t, []uint64{a}, updated.Collaborators())
	_, err = f.projects.Authorize(p.ID, b, access.Read)
	assert.ErrorIs(t, err, ErrAccessDenied)

	_, err = f.projects.RemoveMember(p.ID, owner, owner)
	require.NoError(t, err, "removing the owner is a no-op")
	reloaded, err := f.projects.RemoveMember(p.ID, owner, 777)
	require.NoError(t, err, "removing a non-member is a no-op")

	ownerID, _ := reloaded.Owner()
	assert.Equal(t, owner, ownerID)
	assert.Equal(t, []uint64{a}, reloaded.Collaborators())
	f.requireLedgerConsistent(t)
}

func TestProjectService_Delete(t *testing.T) {
	f := newFixture(t, 2)
	owner, collaborator := f.users[0], f.users[1]
	p := f.createProject(t, "Gone", owner, collaborator)
	_, err := f.board.AddImage(AddImageInput{ProjectID: p.ID, CallerID: collaborator, URL: "https://cdn/y", PublicID: "y"})
	require.NoError(t, err)
	f.media.err = errors.New("storage offline")

	assert.ErrorIs(t, f.projects.Delete(context.Background(), p.ID, collaborator), ErrAccessDenied)

	require.NoError(t, f.projects.Delete(context.Background(), p.ID, owner))
	assert.Equal(t, []string{"y"}, f.media.destroyed)
	assert.Len(t, f.logs.FilterMessage("failed to destroy board media").All(), 1)

	projects, err := f.projects.ListMine(collaborator)
	require.NoError(t, err)
	assert.Empty(t, projects)
	f.requireLedgerConsistent(t)

	assert.ErrorIs(t, f.projects.Delete(context.Background(), p.ID, owner), ErrProjectNotFound)
}

// TestProjectService_LedgerSurvivesRandomOperations drives a seeded random mix
// of membership operations and checks the ledger after each step.
func TestProjectService_LedgerSurvivesRandomOperations(t *testing.T) {
	f := newFixture(t, 6)
	rng := rand.New(rand.NewSource(42))
	ctx := context.Background()

	var projectIDs []uint64
	for i := 0; i < 3; i++ {
		p := f.createProject(t, "Random", f.users[i], f.users[i+1], f.users[i+2])
		projectIDs = append(projectIDs, p.ID)
	}

	pick := func() uint64 { return f.users[rng.Intn(len(f.users))] }

	for step := 0; step < 60; step++ {
		projectID := projectIDs[rng.Intn(len(projectIDs))]
		caller := pick()

		var err error
		switch rng.Intn(3) {
		case 0:
			_, err = f.projects.ReconcileCollaborators(projectID, caller, []uint64{pick(), pick()})
		case 1:
			_, err = f.projects.Leave(ctx, projectID, caller)
		case 2:
			_, err = f.projects.RemoveMember(projectID, caller, pick())
		}

		if err != nil {
			category := CategoryOf(err)
			require.Contains(t, []Category{CategoryAccessDenied, CategoryNotFound}, category, "step %d: %v", step, err)
		}
		f.requireLedgerConsistent(t)
	}

	var orphans int64
	require.NoError(t, f.db.Model(&models.UserProject{}).
		Where("project_id NOT IN (?)", f.db.Model(&models.Project{}).Select("id")).
		Count(&orphans).Error)
	assert.Zero(t, orphans)
}

func TestProjectService_ListMine(t *testing.T) {
	f := newFixture(t, 2)
	older := f.createProject(t, "Older", f.users[0])
	newer := f.createProject(t, "Newer", f.users[1], f.users[0])
	require.NoError(t, f.db.Model(&models.Project{}).Where("id = ?", older.ID).
		Update("updated_at", time.Now().Add(-time.Hour)).Error)

	projects, err := f.projects.ListMine(f.users[0])
	require.NoError(t, err)
	require.Len(t, projects, 2)
	assert.Equal(t, newer.ID, projects[0].ID)
	assert.Equal(t, older.ID, projects[1].ID)
}
