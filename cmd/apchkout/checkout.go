package main

import (
	"context"
	"fmt"

	"github.com/apchkout/apchkout/internal/config"
	"github.com/apchkout/apchkout/internal/dbname"
	"github.com/apchkout/apchkout/internal/django"
	"github.com/apchkout/apchkout/internal/log"
	"github.com/apchkout/apchkout/internal/output"
)

// runCheckout switches to branch. With withDB it also provisions the
// branch's database and points DB_NAME at it; with force an existing branch
// database is dropped and recreated from scratch.
func runCheckout(ctx context.Context, a *app, branch string, withDB, force bool) error {
	if err := switchBranch(ctx, a, branch); err != nil {
		return err
	}

	if !withDB {
		return finishPlainCheckout(ctx, a, branch)
	}

	if branch == "master" {
		return activateBase(ctx, a)
	}
	return provisionBranchDB(ctx, a, branch, force)
}

// switchBranch checks out an existing branch (local first, then
// remote-tracking) or creates a new one from the current HEAD.
func switchBranch(ctx context.Context, a *app, branch string) error {
	l := log.FromContext(ctx)

	switch {
	case a.git.BranchExistsLocal(ctx, branch):
		if err := a.git.Checkout(ctx, branch); err != nil {
			return err
		}
		l.Printf("Switched to branch %q\n", branch)
	case a.git.BranchExistsRemote(ctx, branch):
		if err := a.git.CheckoutTrack(ctx, branch); err != nil {
			return err
		}
		l.Printf("Switched to branch %q (tracking origin/%s)\n", branch, branch)
	default:
		if err := a.git.CreateAndCheckout(ctx, branch); err != nil {
			return err
		}
		l.Printf("Created and switched to new branch %q\n", branch)
	}
	return nil
}

// finishPlainCheckout keeps the config consistent on plain checkouts:
// switching to master reverts DB_NAME to the pinned base. Without a pinned
// base there is nothing to revert to, so the current DB_NAME is reported
// as is. The database server is never contacted.
func finishPlainCheckout(ctx context.Context, a *app, branch string) error {
	out := output.FromContext(ctx)

	if branch != "master" {
		return nil
	}

	base, ok := a.env.Lookup(config.KeyDBNameBase)
	if !ok || base == "" {
		if active := a.activeDBName(); active != "" {
			out.Printf("DB_NAME is %s (no base recorded, left unchanged)\n", active)
		}
		return nil
	}

	if a.activeDBName() == base {
		out.Printf("DB_NAME is %s\n", base)
		return nil
	}

	a.env.Set(config.KeyDBName, base)
	if err := a.env.Save(); err != nil {
		return err
	}
	out.Printf("DB_NAME reverted to %s\n", base)
	return nil
}

// activateBase handles --with-db for master: the target database is the
// base itself and no server call is needed.
func activateBase(ctx context.Context, a *app) error {
	out := output.FromContext(ctx)

	if err := a.env.Validate(); err != nil {
		return err
	}
	base := a.env.BaseName()

	a.env.EnsureBase(base)
	a.env.Set(config.KeyDBName, base)
	if err := a.env.Save(); err != nil {
		return err
	}
	out.Printf("Switched to base database %s\n", base)
	return nil
}

// provisionBranchDB implements the --with-db state machine for non-master
// branches: create the branch database if missing, recreate it under
// --force, reuse it otherwise. Freshly created databases get migrations and
// seed data.
func provisionBranchDB(ctx context.Context, a *app, branch string, force bool) error {
	l := log.FromContext(ctx)
	out := output.FromContext(ctx)

	closeDB, err := a.ensureDB(ctx)
	if err != nil {
		return err
	}
	defer closeDB()

	base := a.env.BaseName()
	owner := a.env.Get(config.KeyDBUser, "")
	name := dbname.ForBranch(branch, base)

	exists, err := a.db.Exists(ctx, name)
	if err != nil {
		return err
	}

	fresh := false
	switch {
	case !exists:
		if err := a.db.Create(ctx, name, owner); err != nil {
			return err
		}
		l.Printf("Created database %s\n", name)
		fresh = true
	case force:
		if err := a.db.Drop(ctx, name); err != nil {
			return err
		}
		if err := a.db.Create(ctx, name, owner); err != nil {
			return err
		}
		l.Printf("Recreated database %s\n", name)
		fresh = true
	default:
		l.Printf("Reusing existing database %s\n", name)
	}

	a.env.EnsureBase(base)
	a.env.Set(config.KeyDBName, name)
	if err := a.env.Save(); err != nil {
		return err
	}

	if fresh {
		if err := migrateAndSeed(ctx, a); err != nil {
			return err
		}
	}

	out.Printf("DB_NAME set to %s\n", name)
	return nil
}

// migrateAndSeed runs the two post-provisioning steps. Either failing is
// fatal and leaves the freshly created database in place, unmigrated or
// unseeded; the operator retries or drops it manually.
func migrateAndSeed(ctx context.Context, a *app) error {
	l := log.FromContext(ctx)

	settings, ok := a.env.Lookup(config.KeyDjangoSettings)
	if !ok || settings == "" {
		return fmt.Errorf("%w: %s in %s (required to run migrations)",
			config.ErrMissingSetting, config.KeyDjangoSettings, a.env.Path())
	}

	runner := django.Runner{
		RepoRoot:     a.root,
		Python:       a.global.Python,
		ManageScript: a.global.ManageScript,
		SeedCommand:  a.global.SeedCommand,
		Settings:     settings,
	}

	l.Println("Applying migrations...")
	if err := runner.Migrate(ctx); err != nil {
		return fmt.Errorf("database created but not migrated: %w", err)
	}
	l.Println("Loading seed data...")
	if err := runner.Seed(ctx); err != nil {
		return fmt.Errorf("database migrated but not seeded: %w", err)
	}
	return nil
}
