package main

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/apchkout/apchkout/internal/config"
	"github.com/apchkout/apchkout/internal/git"
	"github.com/apchkout/apchkout/internal/pg"
	"github.com/apchkout/apchkout/internal/ui/prompt"
)

// database is the administrative gateway surface the operations use.
// Implemented by [pg.Admin]; tests substitute fakes.
type database interface {
	ListDatabases(ctx context.Context, base string) ([]string, error)
	Exists(ctx context.Context, name string) (bool, error)
	Create(ctx context.Context, name, owner string) error
	Drop(ctx context.Context, name string) error
}

// vcs is the branch gateway surface the operations use.
type vcs interface {
	BranchExistsLocal(ctx context.Context, branch string) bool
	BranchExistsRemote(ctx context.Context, branch string) bool
	Checkout(ctx context.Context, branch string) error
	CheckoutTrack(ctx context.Context, branch string) error
	CreateAndCheckout(ctx context.Context, branch string) error
	ListAllBranchNames(ctx context.Context) ([]string, error)
}

// migrator runs the post-provisioning steps for a fresh database.
type migrator interface {
	Migrate(ctx context.Context) error
	Seed(ctx context.Context) error
}

// confirmFunc asks the operator a yes/no question. A false answer is not an
// error; callers print a cancelled message and stop.
type confirmFunc func(message string) (bool, error)

// app bundles the collaborators of a single invocation. Built once by
// preflight, then handed to the selected operation.
type app struct {
	root    string // repo working tree root
	env     *config.Env
	global  config.Global
	db      database
	git     vcs
	confirm confirmFunc
}

// gitVCS adapts the git package to the vcs interface, pinning the repo dir.
type gitVCS struct {
	dir string
}

func (g gitVCS) BranchExistsLocal(ctx context.Context, branch string) bool {
	return git.BranchExistsLocal(ctx, g.dir, branch)
}

func (g gitVCS) BranchExistsRemote(ctx context.Context, branch string) bool {
	return git.BranchExistsRemote(ctx, g.dir, branch)
}

func (g gitVCS) Checkout(ctx context.Context, branch string) error {
	return git.Checkout(ctx, g.dir, branch)
}

func (g gitVCS) CheckoutTrack(ctx context.Context, branch string) error {
	return git.CheckoutTrack(ctx, g.dir, branch)
}

func (g gitVCS) CreateAndCheckout(ctx context.Context, branch string) error {
	return git.CreateAndCheckout(ctx, g.dir, branch)
}

func (g gitVCS) ListAllBranchNames(ctx context.Context) ([]string, error) {
	return git.ListAllBranchNames(ctx, g.dir)
}

// newApp locates the repo root and loads both config layers.
// allowMissingEnv lets checkout operations run in a project without an env
// file yet; database operations require one.
func newApp(ctx context.Context, workDir string, allowMissingEnv bool) (*app, error) {
	root, err := git.FindRepoRoot(ctx, workDir)
	if err != nil {
		return nil, err
	}

	envPath := filepath.Join(root, config.EnvFileName)
	env, err := config.LoadEnv(envPath)
	if err != nil {
		if !errors.Is(err, config.ErrNotFound) || !allowMissingEnv {
			return nil, err
		}
		env = config.NewEnv(envPath)
	}

	global, err := config.LoadGlobal()
	if err != nil {
		return nil, err
	}

	return &app{
		root:    root,
		env:     env,
		global:  global,
		git:     gitVCS{dir: root},
		confirm: askConfirm,
	}, nil
}

// ensureDB validates the database settings and opens the admin connection,
// returning a cleanup func. Called by every operation that talks to the
// server; plain checkouts never do, so they never pay for (or fail on) a
// connection. A pre-populated gateway (tests) is used as is.
func (a *app) ensureDB(ctx context.Context) (func(), error) {
	if err := a.env.Validate(); err != nil {
		return nil, err
	}
	if a.db != nil {
		return func() {}, nil
	}

	admin, err := pg.Connect(ctx, pg.ConnParams{
		Host:     a.env.Get(config.KeyDBHost, config.DefaultDBHost),
		Port:     a.env.Get(config.KeyDBPort, config.DefaultDBPort),
		User:     a.env.Get(config.KeyDBUser, ""),
		Password: a.env.Get(config.KeyDBPassword, ""),
		AdminDB:  a.global.AdminDB,
	})
	if err != nil {
		return nil, err
	}
	a.db = admin
	return func() { admin.Close() }, nil
}

// activeDBName is the database the project config currently points at.
func (a *app) activeDBName() string {
	return a.env.Get(config.KeyDBName, "")
}

// askConfirm is the interactive confirm implementation.
// Replaced by assumeYes when --yes is set and by doubles in tests.
func askConfirm(message string) (bool, error) {
	result, err := prompt.Confirm(message)
	if err != nil {
		return false, fmt.Errorf("confirmation prompt: %w", err)
	}
	if result.Cancelled {
		return false, nil
	}
	return result.Confirmed, nil
}

// assumeYes satisfies every confirmation gate, for --yes and scripting.
func assumeYes(string) (bool, error) {
	return true, nil
}
