package main

import (
	"context"

	"github.com/apchkout/apchkout/internal/dbname"
	"github.com/apchkout/apchkout/internal/output"
	"github.com/apchkout/apchkout/internal/ui/static"
)

// runList prints every branch database with its guessed branch name,
// marking the active one. Reads only; neither config nor server change.
func runList(ctx context.Context, a *app) error {
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

	out.Printf("Base database: %s\n", base)
	if len(names) == 0 {
		out.Println("No branch databases found")
		return nil
	}

	active := a.activeDBName()
	headers := []string{"DATABASE", "BRANCH (GUESSED)", ""}
	var rows [][]string
	for _, name := range names {
		marker := ""
		if name == active {
			marker = "ACTIVE"
		}
		rows = append(rows, []string{name, dbname.GuessBranch(name, base), marker})
	}

	out.Print(static.RenderTable(headers, rows))
	return nil
}
