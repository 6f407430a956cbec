package repository

import (
	"fmt"

	"github.com/yukikurage/projecthub/internal/models"
)

type LedgerIssueKind string

const (
	// IssueMissingBackReference is a member row without a user_projects row.
	IssueMissingBackReference LedgerIssueKind = "missing_back_reference"
	// IssueOrphanBackReference is a user_projects row without a member row.
	IssueOrphanBackReference LedgerIssueKind = "orphan_back_reference"
	// IssueOwnerCount is a project without exactly one owner.
	IssueOwnerCount LedgerIssueKind = "owner_count"
)

// LedgerIssue is one divergence found by CheckLedger.
type LedgerIssue struct {
	Kind      LedgerIssueKind `json:"kind"`
	ProjectID uint64          `json:"project_id"`
	UserID    uint64          `json:"user_id,omitempty"`
	Owners    int64           `json:"owners,omitempty"`
}

func (i LedgerIssue) String() string {
	switch i.Kind {
	case IssueOwnerCount:
		return fmt.Sprintf("%s: project=%d owners=%d", i.Kind, i.ProjectID, i.Owners)
	default:
		return fmt.Sprintf("%s: project=%d user=%d", i.Kind, i.ProjectID, i.UserID)
	}
}

type pair struct {
	ProjectID uint64
	UserID    uint64
}

// CheckLedger compares project_members with user_projects and counts owners.
func (r *GormProjectRepository) CheckLedger() ([]LedgerIssue, error) {
	var issues []LedgerIssue

	var missing []pair
	if err := r.db.Table("project_members AS pm").
		Select("pm.project_id, pm.user_id").
		Joins("LEFT JOIN user_projects AS up ON up.project_id = pm.project_id AND up.user_id = pm.user_id").
		Where("up.user_id IS NULL").
		Order("pm.project_id, pm.user_id").
		Scan(&missing).Error; err != nil {
		return nil, fmt.Errorf("failed to scan members: %w", err)
	}
	for _, p := range missing {
		issues = append(issues, LedgerIssue{Kind: IssueMissingBackReference, ProjectID: p.ProjectID, UserID: p.UserID})
	}

	var orphans []pair
	if err := r.db.Table("user_projects AS up").
		Select("up.project_id, up.user_id").
		Joins("LEFT JOIN project_members AS pm ON pm.project_id = up.project_id AND pm.user_id = up.user_id").
		Where("pm.user_id IS NULL").
		Order("up.project_id, up.user_id").
		Scan(&orphans).Error; err != nil {
		return nil, fmt.Errorf("failed to scan back-references: %w", err)
	}
	for _, p := range orphans {
		issues = append(issues, LedgerIssue{Kind: IssueOrphanBackReference, ProjectID: p.ProjectID, UserID: p.UserID})
	}

	var counts []struct {
		ProjectID uint64
		Owners    int64
	}
	if err := r.db.Model(&models.Project{}).
		Select("projects.id AS project_id, COUNT(pm.user_id) AS owners").
		Joins("LEFT JOIN project_members AS pm ON pm.project_id = projects.id AND pm.role = ?", models.RoleOwner).
		Group("projects.id").
		Having("COUNT(pm.user_id) <> 1").
		Order("projects.id").
		Scan(&counts).Error; err != nil {
		return nil, fmt.Errorf("failed to count owners: %w", err)
	}
	for _, c := range counts {
		issues = append(issues, LedgerIssue{Kind: IssueOwnerCount, ProjectID: c.ProjectID, Owners: c.Owners})
	}

	return issues, nil
}
