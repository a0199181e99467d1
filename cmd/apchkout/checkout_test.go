package main

import (
	"errors"
	"slices"
	"strings"
	"testing"

	"github.com/apchkout/apchkout/internal/config"
)

const baseEnv = "DB_NAME=app\nDB_USER=dev\nDJANGO_SETTINGS_MODULE=project.settings.dev\n"

func TestCheckoutWithDBFresh(t *testing.T) {
	t.Parallel()
	a, db, git := newTestApp(t, baseEnv)
	ctx, _ := testCtx()

	if err := runCheckout(ctx, a, "feature/new-api", true, false); err != nil {
		t.Fatalf("runCheckout = %v, want nil", err)
	}

	if !slices.Contains(git.checkedOut, "feature/new-api") {
		t.Error("branch was not checked out")
	}
	if !slices.Contains(db.created, "app_feature_new_api") {
		t.Errorf("created = %v, want app_feature_new_api", db.created)
	}
	if owner := db.owners["app_feature_new_api"]; owner != "dev" {
		t.Errorf("owner = %q, want %q", owner, "dev")
	}

	content := envFileContent(t, a)
	if !strings.Contains(content, "DB_NAME=app_feature_new_api\n") {
		t.Errorf("env file missing new DB_NAME:\n%s", content)
	}
	if !strings.Contains(content, "DEV_APCHKOUT_DB_NAME_BASE=app\n") {
		t.Errorf("env file missing base pin:\n%s", content)
	}

	calls := managementCalls(t, a.root)
	want := []string{
		"project.settings.dev migrate --noinput",
		"project.settings.dev populate_dev_data",
	}
	if !slices.Equal(calls, want) {
		t.Errorf("management calls = %v, want %v", calls, want)
	}
}

func TestCheckoutWithDBIdempotent(t *testing.T) {
	t.Parallel()
	a, db, _ := newTestApp(t, baseEnv)
	ctx, _ := testCtx()

	if err := runCheckout(ctx, a, "feature/x", true, false); err != nil {
		t.Fatal(err)
	}
	createdOnce := len(db.created)

	// Second checkout without --force reuses the database.
	if err := runCheckout(ctx, a, "feature/x", true, false); err != nil {
		t.Fatalf("second runCheckout = %v, want nil", err)
	}
	if len(db.created) != createdOnce {
		t.Errorf("created = %v, second checkout must not create", db.created)
	}
	if len(db.dropped) != 0 {
		t.Errorf("dropped = %v, second checkout must not drop", db.dropped)
	}
	if got := a.env.Get(config.KeyDBName, ""); got != "app_feature_x" {
		t.Errorf("DB_NAME = %q, want %q", got, "app_feature_x")
	}

	// Migrations ran only for the first (fresh) checkout.
	if calls := managementCalls(t, a.root); len(calls) != 2 {
		t.Errorf("management calls = %v, want exactly the first checkout's two", calls)
	}
}

func TestCheckoutWithDBForce(t *testing.T) {
	t.Parallel()
	a, db, _ := newTestApp(t, baseEnv)
	db.existing = []string{"app_feature_x"}
	ctx, _ := testCtx()

	if err := runCheckout(ctx, a, "feature/x", true, true); err != nil {
		t.Fatalf("runCheckout --force = %v, want nil", err)
	}

	if !slices.Contains(db.dropped, "app_feature_x") {
		t.Errorf("dropped = %v, want app_feature_x", db.dropped)
	}
	if !slices.Contains(db.created, "app_feature_x") {
		t.Errorf("created = %v, want app_feature_x", db.created)
	}
	if calls := managementCalls(t, a.root); len(calls) != 2 {
		t.Errorf("management calls = %v, want migrate+seed after recreate", calls)
	}
}

func TestCheckoutWithDBMaster(t *testing.T) {
	t.Parallel()
	a, db, _ := newTestApp(t, "DB_NAME=app_feature_x\nDB_USER=dev\nDEV_APCHKOUT_DB_NAME_BASE=app\n")
	ctx, _ := testCtx()

	if err := runCheckout(ctx, a, "master", true, false); err != nil {
		t.Fatalf("runCheckout master --with-db = %v, want nil", err)
	}

	if got := a.env.Get(config.KeyDBName, ""); got != "app" {
		t.Errorf("DB_NAME = %q, want base %q", got, "app")
	}
	// Master never touches the server.
	if len(db.created)+len(db.dropped) != 0 {
		t.Errorf("server touched: created=%v dropped=%v", db.created, db.dropped)
	}
	if calls := managementCalls(t, a.root); calls != nil {
		t.Errorf("management calls = %v, want none", calls)
	}
}

func TestPlainCheckoutMasterReverts(t *testing.T) {
	t.Parallel()
	a, db, _ := newTestApp(t, "DB_NAME=app_feature_x\nDB_USER=dev\nDEV_APCHKOUT_DB_NAME_BASE=app\n")
	ctx, _ := testCtx()

	if err := runCheckout(ctx, a, "master", false, false); err != nil {
		t.Fatalf("runCheckout master = %v, want nil", err)
	}

	if got := a.env.Get(config.KeyDBName, ""); got != "app" {
		t.Errorf("DB_NAME = %q, want %q", got, "app")
	}
	if len(db.created)+len(db.dropped) != 0 {
		t.Error("plain checkout must not touch the server")
	}
}

func TestPlainCheckoutMasterWithoutBase(t *testing.T) {
	t.Parallel()
	a, _, _ := newTestApp(t, "DB_NAME=app_feature_x\nDB_USER=dev\n")
	ctx, out := testCtx()

	if err := runCheckout(ctx, a, "master", false, false); err != nil {
		t.Fatalf("runCheckout = %v, want nil", err)
	}

	// No base recorded: config stays untouched, current DB_NAME reported.
	content := envFileContent(t, a)
	if !strings.Contains(content, "DB_NAME=app_feature_x\n") {
		t.Errorf("DB_NAME changed without a recorded base:\n%s", content)
	}
	if !strings.Contains(out.String(), "app_feature_x") {
		t.Errorf("output = %q, want current DB_NAME reported", out.String())
	}
}

func TestPlainCheckoutFeatureLeavesConfig(t *testing.T) {
	t.Parallel()
	a, db, git := newTestApp(t, baseEnv)
	git.local = append(git.local, "feature/x")
	ctx, _ := testCtx()

	if err := runCheckout(ctx, a, "feature/x", false, false); err != nil {
		t.Fatalf("runCheckout = %v, want nil", err)
	}

	if got := a.env.Get(config.KeyDBName, ""); got != "app" {
		t.Errorf("DB_NAME = %q, want unchanged %q", got, "app")
	}
	if len(db.created)+len(db.dropped) != 0 {
		t.Error("plain checkout must not touch the server")
	}
}

func TestCheckoutRemoteBranch(t *testing.T) {
	t.Parallel()
	a, _, git := newTestApp(t, baseEnv)
	git.remote = []string{"fix/bug-123"}
	ctx, _ := testCtx()

	if err := runCheckout(ctx, a, "fix/bug-123", false, false); err != nil {
		t.Fatalf("runCheckout = %v, want nil", err)
	}
	if !slices.Contains(git.local, "fix/bug-123") {
		t.Error("remote branch should become a local tracking branch")
	}
}

func TestCheckoutCreatesNewBranch(t *testing.T) {
	t.Parallel()
	a, _, git := newTestApp(t, baseEnv)
	ctx, _ := testCtx()

	if err := runCheckout(ctx, a, "feature/brand-new", false, false); err != nil {
		t.Fatalf("runCheckout = %v, want nil", err)
	}
	if !slices.Contains(git.local, "feature/brand-new") {
		t.Error("unknown branch should be created")
	}
}

func TestCheckoutWithDBMissingSettings(t *testing.T) {
	t.Parallel()
	a, db, _ := newTestApp(t, "DB_NAME=app\nDB_USER=dev\n")
	ctx, _ := testCtx()

	err := runCheckout(ctx, a, "feature/x", true, false)
	if !errors.Is(err, config.ErrMissingSetting) {
		t.Fatalf("runCheckout = %v, want ErrMissingSetting", err)
	}
	// The database was created before the check and stays in place.
	if !slices.Contains(db.created, "app_feature_x") {
		t.Errorf("created = %v, database should remain created", db.created)
	}
	// DB_NAME was persisted before migrations were attempted.
	if got := a.env.Get(config.KeyDBName, ""); got != "app_feature_x" {
		t.Errorf("DB_NAME = %q, want %q", got, "app_feature_x")
	}
}

func TestCheckoutWithDBPinsBaseOnce(t *testing.T) {
	t.Parallel()
	a, _, _ := newTestApp(t, baseEnv)
	ctx, _ := testCtx()

	if err := runCheckout(ctx, a, "feature/one", true, false); err != nil {
		t.Fatal(err)
	}
	if err := runCheckout(ctx, a, "feature/two", true, false); err != nil {
		t.Fatal(err)
	}

	// Base derives from the original DB_NAME, not from the first branch
	// database: switching branches never changes what "base" means.
	if got := a.env.Get(config.KeyDBNameBase, ""); got != "app" {
		t.Errorf("base pin = %q, want %q", got, "app")
	}
	if got := a.env.Get(config.KeyDBName, ""); got != "app_feature_two" {
		t.Errorf("DB_NAME = %q, want %q", got, "app_feature_two")
	}
}
