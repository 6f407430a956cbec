package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"github.com/yukikurage/projecthub/internal/database"
	"github.com/yukikurage/projecthub/internal/logging"
	"github.com/yukikurage/projecthub/internal/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var ledgerJSON bool

func init() {
	checkLedgerCmd.Flags().BoolVar(&ledgerJSON, "json", false, "print issues as JSON")
}

var checkLedgerCmd = &cobra.Command{
	Use:   "check-ledger",
	Short: "Verify project memberships against user back-references",
	Long: `Scan project_members and user_projects and report every project whose
membership and back-references disagree, or which does not have exactly one
owner. Exits non-zero when any issue is found.

Examples:
  # Human readable report
  projecthub check-ledger

  # Machine readable report
  projecthub check-ledger --json`,
	RunE: runCheckLedger,
}

func runCheckLedger(cmd *cobra.Command, args []string) error {
	cfg, logger, err := loadRuntime()
	if err != nil {
		return err
	}
	defer func() { _ = logging.Sync(logger) }()

	db, err := database.Connect(cfg.DB, false, logger)
	if err != nil {
		return err
	}

	return checkLedger(db, logger, cmd.OutOrStdout(), ledgerJSON)
}

func checkLedger(db *gorm.DB, logger *zap.Logger, out io.Writer, asJSON bool) error {
	issues, err := repository.NewProjectRepository(db).CheckLedger()
	if err != nil {
		return fmt.Errorf("failed to check ledger: %w", err)
	}

	if asJSON {
		if issues == nil {
			issues = []repository.LedgerIssue{}
		}
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(issues); err != nil {
			return err
		}
	} else {
		for _, issue := range issues {
			fmt.Fprintln(out, issue.String())
		}
	}

	if len(issues) > 0 {
		logger.Warn("membership ledger diverged", zap.Int("issues", len(issues)))
		return fmt.Errorf("found %d ledger issue(s)", len(issues))
	}

	logger.Info("membership ledger consistent")
	if !asJSON {
		fmt.Fprintln(out, "ledger consistent")
	}
	return nil
}
