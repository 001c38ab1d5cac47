package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wonny/catalyst-alpha/pkg/database"
)

// migrateCmd applies the embedded schema
var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "DB 스키마 적용",
	Long: `market.daily_closes, study.runs, study.car_results 스키마를 생성합니다.
모든 마이그레이션은 재실행해도 안전합니다.

Example:
  DATABASE_URL=postgres://... go run ./cmd/catalyst migrate`,
	RunE: runMigrate,
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}

func runMigrate(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	if a.db == nil {
		return a.cfg.RequireDatabase()
	}

	// newApp already migrated; report what is applied and the pool health
	files, err := database.MigrationFiles()
	if err != nil {
		return err
	}
	status, err := a.db.HealthCheck(cmd.Context())
	if err != nil {
		return err
	}

	PrintList(files)
	PrintSuccess(fmt.Sprintf("Schema up to date (%d migrations, ping %s)", len(files), status.ResponseTime))
	return nil
}
