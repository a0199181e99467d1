package main

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/apchkout/apchkout/internal/dbname"
	"github.com/apchkout/apchkout/internal/log"
	"github.com/apchkout/apchkout/internal/output"
)

// errActiveDatabase protects the database the config currently points at
// from targeted drops. --drop --all deliberately bypasses it.
var errActiveDatabase = errors.New("database is currently active")

// runDropOne drops a single named database after confirmation.
func runDropOne(ctx context.Context, a *app, name string) error {
	out := output.FromContext(ctx)

	closeDB, err := a.ensureDB(ctx)
	if err != nil {
		return err
	}
	defer closeDB()

	exists, err := a.db.Exists(ctx, name)
	if err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("database %q does not exist (see 'apchkout --list')", name)
	}
	if name == a.activeDBName() {
		return fmt.Errorf("%w: %s (switch branches first, e.g. 'apchkout master')", errActiveDatabase, name)
	}

	ok, err := a.confirm(fmt.Sprintf("Drop database %s?", name))
	if err != nil {
		return err
	}
	if !ok {
		out.Println("Cancelled")
		return nil
	}

	if err := a.db.Drop(ctx, name); err != nil {
		return err
	}
	out.Printf("Dropped %s\n", name)
	return nil
}

// runDropAll drops every branch database behind a single all-or-nothing
// confirmation. Databases with a live branch and even the active database
// are included on purpose: the operator asked for a clean slate, and the
// combined warning spells out exactly what that means before the gate.
func runDropAll(ctx context.Context, a *app) error {
	l := log.FromContext(ctx)
	out := output.FromContext(ctx)

	closeDB, err := a.ensureDB(ctx)
	if err != nil {
		return err
	}
	defer closeDB()

	base := a.env.BaseName()
	names, err := a.db.ListDatabases(ctx, base)
	if err != nil {
		return err
	}
	if len(names) == 0 {
		out.Println("No branch databases found")
		return nil
	}

	branches, err := a.git.ListAllBranchNames(ctx)
	if err != nil {
		return err
	}

	active := a.activeDBName()
	flagged := false
	var warnings []string
	for _, name := range names {
		var reasons []string
		if slices.Contains(branches, dbname.GuessBranch(name, base)) {
			reasons = append(reasons, "branch still exists")
		}
		if name == active {
			reasons = append(reasons, "currently active")
		}
		if len(reasons) > 0 {
			flagged = true
			warnings = append(warnings, fmt.Sprintf("  %s (%s)", name, strings.Join(reasons, ", ")))
		}
	}

	var question string
	if flagged {
		out.Println("Warning: the following databases are still in use:")
		for _, w := range warnings {
			out.Println(w)
		}
		question = fmt.Sprintf("Drop ALL %d branch database(s), including the ones above?", len(names))
	} else {
		question = fmt.Sprintf("Drop all %d branch database(s)?", len(names))
	}

	ok, err := a.confirm(question)
	if err != nil {
		return err
	}
	if !ok {
		out.Println("Cancelled")
		return nil
	}

	for _, name := range names {
		if err := a.db.Drop(ctx, name); err != nil {
			return err
		}
		l.Printf("Dropped %s\n", name)
	}
	out.Printf("Dropped %d database(s)\n", len(names))
	return nil
}
