package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/apchkout/apchkout/internal/git"
	"github.com/apchkout/apchkout/internal/log"
	"github.com/apchkout/apchkout/internal/output"
)

var (
	// Global flags
	verbose bool
	quiet   bool
	yes     bool

	// Operation flags
	listFlag  bool
	cleanFlag bool
	dropFlag  bool
	allFlag   bool
	withDB    bool
	force     bool
)

// rootCmd is the whole CLI: one command, flag-style dispatch.
var rootCmd = &cobra.Command{
	Use:   "apchkout [<branch>] [flags]",
	Short: "Branch checkout with per-branch development databases",
	Long: `apchkout couples git branch switching to disposable Postgres databases:
every branch gets its own copy-free database named after the branch, and the
project's .env file always points at the right one.

Checking out a branch with --with-db provisions the branch database (running
migrations and seed data when it is freshly created) and updates DB_NAME.
The master branch always maps back to the base database.`,
	Example: `  apchkout feature/new-api --with-db   # switch branch, provision its database
  apchkout feature/new-api --with-db --force   # ...recreating the database from scratch
  apchkout master                      # switch back, DB_NAME reverts to the base
  apchkout --list                      # show branch databases
  apchkout --clean                     # drop databases whose branch is gone
  apchkout --drop app_feature_old      # drop one database
  apchkout --drop --all                # drop every branch database`,
	SilenceUsage:  true,
	SilenceErrors: true,
	Args:          cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if verbose && quiet {
			return fmt.Errorf("--verbose and --quiet are mutually exclusive")
		}

		// Flags are parsed now, so the logger can honor them.
		ctx := log.WithLogger(cmd.Context(), log.New(os.Stderr, verbose, quiet))
		ctx = output.WithPrinter(ctx, os.Stdout)

		if err := git.CheckGit(); err != nil {
			return err
		}
		if err := validateFlags(args); err != nil {
			return err
		}

		workDir, err := os.Getwd()
		if err != nil {
			return fmt.Errorf("failed to get working directory: %w", err)
		}

		// Checkout may run before the env file exists; database
		// operations may not.
		checkout := !listFlag && !cleanFlag && !dropFlag
		a, err := newApp(ctx, workDir, checkout)
		if err != nil {
			return err
		}
		if yes {
			a.confirm = assumeYes
		}

		switch {
		case listFlag:
			return runList(ctx, a)
		case cleanFlag:
			return runClean(ctx, a)
		case dropFlag && allFlag:
			return runDropAll(ctx, a)
		case dropFlag:
			return runDropOne(ctx, a, args[0])
		default:
			return runCheckout(ctx, a, args[0], withDB, force)
		}
	},
}

// validateFlags enforces the mutually exclusive operation surface.
func validateFlags(args []string) error {
	ops := 0
	for _, set := range []bool{listFlag, cleanFlag, dropFlag} {
		if set {
			ops++
		}
	}
	if ops > 1 {
		return fmt.Errorf("--list, --clean and --drop are mutually exclusive")
	}

	switch {
	case listFlag, cleanFlag:
		if len(args) > 0 {
			return fmt.Errorf("unexpected argument %q", args[0])
		}
		if withDB || force || allFlag {
			return fmt.Errorf("--with-db, --force and --all only apply to checkout and --drop")
		}
	case dropFlag:
		if withDB || force {
			return fmt.Errorf("--with-db and --force do not apply to --drop")
		}
		if allFlag && len(args) > 0 {
			return fmt.Errorf("--drop --all takes no database name")
		}
		if !allFlag && len(args) == 0 {
			return fmt.Errorf("--drop requires a database name (or --all)")
		}
	default:
		if allFlag {
			return fmt.Errorf("--all only applies to --drop")
		}
		if len(args) == 0 {
			return fmt.Errorf("no branch name given")
		}
		if force && !withDB {
			return fmt.Errorf("--force requires --with-db")
		}
	}
	return nil
}

// Execute runs the CLI.
func Execute() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	rootCmd.SetContext(ctx)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		fmt.Fprintln(os.Stderr)
		fmt.Fprintln(os.Stderr, "Run 'apchkout -h' for help")
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Show external commands being executed")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "Suppress diagnostic output")
	rootCmd.Flags().BoolVarP(&yes, "yes", "y", false, "Assume yes on every confirmation prompt")

	rootCmd.Flags().BoolVar(&listFlag, "list", false, "List branch databases")
	rootCmd.Flags().BoolVar(&cleanFlag, "clean", false, "Drop databases whose branch no longer exists")
	rootCmd.Flags().BoolVar(&dropFlag, "drop", false, "Drop the named database")
	rootCmd.Flags().BoolVar(&allFlag, "all", false, "With --drop: drop every branch database")
	rootCmd.Flags().BoolVar(&withDB, "with-db", false, "Provision and activate the branch database")
	rootCmd.Flags().BoolVar(&force, "force", false, "With --with-db: drop and recreate an existing branch database")

	rootCmd.Version = versionString()
	rootCmd.SetVersionTemplate("{{.Version}}\n")
}
