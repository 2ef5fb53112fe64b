package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dbsmedya/gofactory/internal/config"
	"github.com/dbsmedya/gofactory/internal/database"
	"github.com/dbsmedya/gofactory/internal/inspect"
)

var tablesWithCounts bool

var tablesCmd = &cobra.Command{
	Use:   "tables",
	Short: "List tables with their foreign key dependencies",
	Long: `Tables lists every base table in the inspected schema together with
the tables it references through non-nullable foreign keys.

Example:
  gofactory tables --config gofactory.yaml --counts`,
	RunE: runTables,
}

func init() {
	tablesCmd.Flags().BoolVar(&tablesWithCounts, "counts", false,
		"Include row counts (runs one COUNT(*) per table)")

	rootCmd.AddCommand(tablesCmd)
}

func runTables(cmd *cobra.Command, args []string) error {
	cfg, log, err := loadConfigAndLogger()
	if err != nil {
		return err
	}

	ctx := database.ShutdownContext(log)

	manager := database.NewManager(cfg)
	if err := manager.Connect(ctx); err != nil {
		return err
	}
	defer manager.Close()

	insp := inspect.New(manager.DB, cfg, log)
	plan, err := insp.BuildPlan(ctx)
	if err != nil {
		return fmt.Errorf("failed to inspect schema: %w", err)
	}

	var counts map[string]int64
	if tablesWithCounts {
		counts, err = insp.RowCounts(ctx, plan.Order)
		if err != nil {
			return err
		}
	}

	printTables(cfg, plan, counts)
	return nil
}

func printTables(cfg *config.Config, plan *inspect.Plan, counts map[string]int64) {
	fmt.Fprintf(outputWriter, "Tables in %s:\n\n", cfg.InspectSchema())

	for i, table := range plan.Order {
		fmt.Fprintf(outputWriter, "%d. %s\n", i+1, table)
		deps := plan.Dependencies[table]
		if len(deps) > 0 {
			for _, dep := range deps {
				fmt.Fprintf(outputWriter, "   └─ needs %s\n", dep)
			}
		} else {
			fmt.Fprintf(outputWriter, "   (no dependencies)\n")
		}
		if counts != nil {
			fmt.Fprintf(outputWriter, "   Rows: %d\n", counts[table])
		}
	}

	fmt.Fprintf(outputWriter, "\nTotal: %d table(s)\n", len(plan.Order))
}
