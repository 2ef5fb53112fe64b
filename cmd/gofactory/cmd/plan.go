package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dbsmedya/gofactory/internal/config"
	"github.com/dbsmedya/gofactory/internal/database"
	"github.com/dbsmedya/gofactory/internal/diagram"
	"github.com/dbsmedya/gofactory/internal/inspect"
	"github.com/dbsmedya/gofactory/internal/logger"
)

// outputWriter is used for printing output, can be overridden in tests
var outputWriter io.Writer = os.Stdout

// setOutputWriter sets the output writer (used for testing)
func setOutputWriter(w io.Writer) {
	outputWriter = w
}

// resetOutputWriter resets output to stdout (used for testing)
func resetOutputWriter() {
	outputWriter = os.Stdout
}

var planColor bool

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Show the dependency-ordered insertion plan for a schema",
	Long: `Plan connects to the configured database, reads its foreign keys from
information_schema, and displays the order in which tables can be bulk
inserted without violating constraints.

The plan shows:
  - ASCII dependency layer diagram
  - Insertion order (referenced tables first)
  - Detected foreign keys and their nullability
  - Cycle diagnosis when the order is only partial

Example:
  gofactory plan --config gofactory.yaml`,
	RunE: runPlan,
}

func init() {
	planCmd.Flags().BoolVar(&planColor, "color", false,
		"Colorize the dependency diagram")

	rootCmd.AddCommand(planCmd)
}

func runPlan(cmd *cobra.Command, args []string) error {
	cfg, log, err := loadConfigAndLogger()
	if err != nil {
		return err
	}

	ctx := database.ShutdownContext(log)
	plan, err := buildPlan(ctx, cfg, log)
	if err != nil {
		return err
	}

	printPlan(cfg, plan)
	return nil
}

// buildPlan connects, inspects, and disconnects.
func buildPlan(ctx context.Context, cfg *config.Config, log *logger.Logger) (*inspect.Plan, error) {
	manager := database.NewManager(cfg)
	if err := manager.Connect(ctx); err != nil {
		return nil, err
	}
	defer manager.Close()

	insp := inspect.New(manager.DB, cfg, log)
	plan, err := insp.BuildPlan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to build insertion plan: %w", err)
	}
	return plan, nil
}

// printPlan renders a built plan to the output writer.
func printPlan(cfg *config.Config, plan *inspect.Plan) {
	printHeader("Insertion Plan: %s", cfg.InspectSchema())
	fmt.Fprintln(outputWriter)

	renderer := diagram.New(planColor)
	fmt.Fprint(outputWriter, renderer.Render(plan.Order, plan.Dependencies))
	fmt.Fprintln(outputWriter)

	printSection("Insertion Order (referenced tables first)")
	for i, table := range plan.Order {
		if deps := plan.Dependencies[table]; len(deps) > 0 {
			fmt.Fprintf(outputWriter, "  [%d] %s | needs: %s\n", i+1, table, strings.Join(deps, ", "))
		} else {
			fmt.Fprintf(outputWriter, "  [%d] %s\n", i+1, table)
		}
	}

	fmt.Fprintln(outputWriter)
	printSection("Detected Foreign Keys")
	if len(plan.ForeignKeys) == 0 {
		fmt.Fprintln(outputWriter, "  (none)")
	}
	for _, fk := range plan.ForeignKeys {
		suffix := ""
		if fk.Nullable {
			suffix = " (nullable, not ordered)"
		}
		fmt.Fprintf(outputWriter, "  • %s.%s → %s%s\n", fk.Table, fk.Column, fk.ReferencedTable, suffix)
	}

	if plan.Cycle != nil {
		fmt.Fprintln(outputWriter)
		printSection("Cycle Diagnosis")
		fmt.Fprintf(outputWriter, "  Participants: %s\n", strings.Join(plan.Cycle.Participants, ", "))
		if len(plan.Cycle.CyclePath) > 0 {
			fmt.Fprintf(outputWriter, "  Path:         %s\n", strings.Join(plan.Cycle.CyclePath, " → "))
		}
		fmt.Fprintf(outputWriter, "  Placed %d of %d tables; the rest keep discovery order.\n",
			plan.Cycle.PlacedTables, plan.Cycle.TotalTables)
	}

	fmt.Fprintln(outputWriter)
	fmt.Fprintf(outputWriter, "Summary: %s\n", diagram.Summary(plan.Order, plan.Dependencies))
}

// loadConfigAndLogger loads the config file, applies CLI overrides, and
// builds the logger. Shared by the database-backed commands.
func loadConfigAndLogger() (*config.Config, *logger.Logger, error) {
	cfg, err := config.Load(GetConfigFile())
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	overrides := GetCLIOverrides()
	cfg.ApplyOverrides(overrides.LogLevel, overrides.LogFormat, overrides.Schema)

	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}

	log, err := logger.New(&cfg.Logging)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to build logger: %w", err)
	}
	log = log.WithFields(map[string]interface{}{"schema": cfg.InspectSchema()})
	return cfg, log, nil
}

// printHeader prints a formatted header
func printHeader(format string, args ...interface{}) {
	title := fmt.Sprintf(format, args...)
	width := len(title) + 4
	fmt.Fprintln(outputWriter, strings.Repeat("=", width))
	fmt.Fprintf(outputWriter, "  %s\n", title)
	fmt.Fprintln(outputWriter, strings.Repeat("=", width))
}

// printSection prints a section header
func printSection(title string) {
	fmt.Fprintf(outputWriter, "[%s]\n", title)
	fmt.Fprintln(outputWriter, strings.Repeat("-", len(title)+2))
}
