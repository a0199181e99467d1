// Package django invokes the project's Django management commands after a
// fresh branch database is provisioned: schema migrations first, then the
// development seed data.
package django

import (
	"context"
	"fmt"

	"github.com/apchkout/apchkout/internal/cmd"
)

// Runner shells out to the management script at the repo root. The two
// steps are independent: a migrate failure is reported before seeding is
// attempted, and neither rolls back the database creation.
type Runner struct {
	RepoRoot     string // working directory for the management script
	Python       string // interpreter, e.g. "python" or "python3"
	ManageScript string // e.g. "manage.py"
	SeedCommand  string // management command that loads dev data
	Settings     string // DJANGO_SETTINGS_MODULE value
}

// Migrate applies all pending migrations.
func (r Runner) Migrate(ctx context.Context) error {
	if err := r.manage(ctx, "migrate", "--noinput"); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

// Seed populates development seed data.
func (r Runner) Seed(ctx context.Context) error {
	if err := r.manage(ctx, r.SeedCommand); err != nil {
		return fmt.Errorf("%s: %w", r.SeedCommand, err)
	}
	return nil
}

func (r Runner) manage(ctx context.Context, args ...string) error {
	env := []string{"DJANGO_SETTINGS_MODULE=" + r.Settings}
	cmdArgs := append([]string{r.ManageScript}, args...)
	return cmd.RunEnvContext(ctx, r.RepoRoot, env, r.Python, cmdArgs...)
}
