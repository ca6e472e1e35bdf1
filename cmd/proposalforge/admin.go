package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"golang.org/x/term"

	"github.com/Strob0t/ProposalForge/internal/adapter/postgres"
	"github.com/Strob0t/ProposalForge/internal/config"
	"github.com/Strob0t/ProposalForge/internal/domain/adjustment"
	"github.com/Strob0t/ProposalForge/internal/domain/user"
	"github.com/Strob0t/ProposalForge/internal/secrets"
	"github.com/Strob0t/ProposalForge/internal/service"
)

var monthHeaders = []string{"JAN", "FEB", "MAR", "APR", "MAY", "JUN", "JUL", "AUG", "SEP", "OCT", "NOV", "DEC"}

// runAdmin dispatches admin subcommands (migrate, rollback, version, issue-token, rates).
func runAdmin(args []string) error {
	if len(args) == 0 || args[0] == "help" || args[0] == "--help" {
		printAdminHelp()
		return nil
	}

	switch args[0] {
	case "migrate":
		return runAdminMigrate(args[1:])
	case "rollback":
		return runAdminRollback(args[1:])
	case "version":
		return runAdminVersion(args[1:])
	case "issue-token":
		return runAdminIssueToken(args[1:])
	case "rates":
		return runAdminRates(args[1:])
	default:
		printAdminHelp()
		return fmt.Errorf("unknown admin command: %s", args[0])
	}
}

func printAdminHelp() {
	fmt.Fprintf(os.Stderr, `Usage: proposalforge admin <command> [options]

Commands:
  migrate       Apply pending database migrations
  rollback      Roll back the last migrations
  version       Print the current migration version
  issue-token   Issue a signed bearer token
  rates         Print a unit's adjustment rate history
  help          Show this help message

Examples:
  proposalforge admin migrate
  proposalforge admin rollback --steps 2
  proposalforge admin issue-token --sub u-1 --name "Ana" --role admin --ttl 24h
  proposalforge admin rates --unit 7d9f0c1e-3a52-4b8e-9f61-2c4d5e6f7a80
`)
}

func loadAdminConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

func runAdminMigrate(args []string) error {
	fs := flag.NewFlagSet("migrate", flag.ContinueOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}
	cfg, err := loadAdminConfig()
	if err != nil {
		return err
	}

	ctx := context.Background()
	if err := postgres.RunMigrations(ctx, cfg.Postgres.DSN); err != nil {
		return err
	}
	v, err := postgres.MigrationVersion(ctx, cfg.Postgres.DSN)
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "Migrations applied (version %d)\n", v)
	return nil
}

func runAdminRollback(args []string) error {
	fs := flag.NewFlagSet("rollback", flag.ContinueOnError)
	steps := fs.Int("steps", 1, "number of migrations to roll back")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *steps < 1 {
		return fmt.Errorf("--steps must be at least 1")
	}
	cfg, err := loadAdminConfig()
	if err != nil {
		return err
	}

	ctx := context.Background()
	if err := postgres.RollbackMigrations(ctx, cfg.Postgres.DSN, *steps); err != nil {
		return err
	}
	v, err := postgres.MigrationVersion(ctx, cfg.Postgres.DSN)
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "Rolled back %d migration(s), now at version %d\n", *steps, v)
	return nil
}

func runAdminVersion(args []string) error {
	fs := flag.NewFlagSet("version", flag.ContinueOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}
	cfg, err := loadAdminConfig()
	if err != nil {
		return err
	}

	v, err := postgres.MigrationVersion(context.Background(), cfg.Postgres.DSN)
	if err != nil {
		return err
	}
	fmt.Println(v)
	return nil
}

func runAdminIssueToken(args []string) error {
	fs := flag.NewFlagSet("issue-token", flag.ContinueOnError)
	sub := fs.String("sub", "", "caller id (required)")
	name := fs.String("name", "", "caller display name")
	role := fs.String("role", string(user.RoleUser), "caller role (admin or user)")
	ttl := fs.Duration("ttl", 24*time.Hour, "token lifetime")
	if err := fs.Parse(args); err != nil {
		return err
	}

	caller := &user.Caller{ID: *sub, Name: *name, Role: user.Role(strings.ToLower(*role))}
	if err := caller.Validate(); err != nil {
		return err
	}
	if *ttl <= 0 {
		return fmt.Errorf("--ttl must be positive")
	}

	cfg, err := loadAdminConfig()
	if err != nil {
		return err
	}
	vault, err := secrets.NewVault(secrets.EnvLoader(cfg.Auth.JWTSecretEnv))
	if err != nil {
		return err
	}

	token, err := service.NewAuthService(&cfg.Auth, vault).Issue(caller, *ttl)
	if err != nil {
		return fmt.Errorf("issue token: %w", err)
	}
	fmt.Println(token)
	return nil
}

func runAdminRates(args []string) error {
	fs := flag.NewFlagSet("rates", flag.ContinueOnError)
	unitID := fs.String("unit", "", "unit id (required)")
	asJSON := fs.Bool("json", false, "print JSON even on a terminal")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *unitID == "" {
		return fmt.Errorf("--unit is required")
	}

	cfg, err := loadAdminConfig()
	if err != nil {
		return err
	}

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.Postgres)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer pool.Close()

	store := postgres.NewStore(pool)
	svc := service.NewAdjustmentService(store, nil, service.NewUnitInventory(store))
	table, err := svc.History(ctx, *unitID)
	if err != nil {
		return fmt.Errorf("load rates: %w", err)
	}

	if *asJSON || !term.IsTerminal(int(os.Stdout.Fd())) { //nolint:gosec // fd fits in int
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(table)
	}
	return printRateTable(os.Stdout, table)
}

func printRateTable(out io.Writer, t *adjustment.Table) error {
	if len(t.Rows) == 0 {
		_, err := fmt.Fprintln(out, "No adjustment rates recorded.")
		return err
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintf(w, "YEAR\t%s\tACCUMULATED\n", strings.Join(monthHeaders, "\t"))
	for i := range t.Rows {
		row := &t.Rows[i]
		_, _ = fmt.Fprintf(w, "%d\t%s\t%s\n", row.Year, strings.Join(row.Months[:], "\t"), row.Accumulated)
	}
	_, _ = fmt.Fprintf(w, "TOTAL\t%s\t%s\n", strings.Repeat("\t", len(monthHeaders)-1), t.TotalDisplay)
	return w.Flush()
}
