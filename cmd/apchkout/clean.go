package main

import (
	"context"
	"fmt"
	"slices"

	"github.com/apchkout/apchkout/internal/dbname"
	"github.com/apchkout/apchkout/internal/log"
	"github.com/apchkout/apchkout/internal/output"
)

// runClean drops branch databases whose branch is gone. A database counts
// as orphaned only when its guessed branch name matches neither a local nor
// an origin branch; the guess alone never decides, the live branch list
// does. The active database is never a candidate. One confirmation covers
// the whole batch; anything but yes aborts all of it.
func runClean(ctx context.Context, a *app) error {
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

	branches, err := a.git.ListAllBranchNames(ctx)
	if err != nil {
		return err
	}

	active := a.activeDBName()
	var orphans []string
	for _, name := range names {
		if name == active {
			continue
		}
		guess := dbname.GuessBranch(name, base)
		if !slices.Contains(branches, guess) {
			orphans = append(orphans, name)
		}
	}

	if len(orphans) == 0 {
		out.Println("No orphaned databases found")
		return nil
	}

	out.Printf("Orphaned databases (no matching branch):\n")
	for _, name := range orphans {
		out.Printf("  %s (guessed branch %q)\n", name, dbname.GuessBranch(name, base))
	}

	ok, err := a.confirm(fmt.Sprintf("Drop %d orphaned database(s)?", len(orphans)))
	if err != nil {
		return err
	}
	if !ok {
		out.Println("Cancelled")
		return nil
	}

	for _, name := range orphans {
		if err := a.db.Drop(ctx, name); err != nil {
			return err
		}
		l.Printf("Dropped %s\n", name)
	}
	out.Printf("Dropped %d database(s)\n", len(orphans))
	return nil
}
