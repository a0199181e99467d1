package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/apchkout/apchkout/internal/config"
	"github.com/apchkout/apchkout/internal/log"
	"github.com/apchkout/apchkout/internal/output"
	"github.com/apchkout/apchkout/internal/pg"
)

// fakeDB is an in-memory database gateway.
type fakeDB struct {
	existing []string
	created  []string
	dropped  []string
	owners   map[string]string
}

func newFakeDB(names ...string) *fakeDB {
	return &fakeDB{existing: names, owners: map[string]string{}}
}

func (f *fakeDB) ListDatabases(_ context.Context, base string) ([]string, error) {
	var names []string
	for _, name := range f.existing {
		if strings.HasPrefix(name, base+"_") {
			names = append(names, name)
		}
	}
	slices.Sort(names)
	return names, nil
}

func (f *fakeDB) Exists(_ context.Context, name string) (bool, error) {
	return slices.Contains(f.existing, name), nil
}

func (f *fakeDB) Create(_ context.Context, name, owner string) error {
	if slices.Contains(f.existing, name) {
		return fmt.Errorf("%w: %s", pg.ErrAlreadyExists, name)
	}
	f.existing = append(f.existing, name)
	f.created = append(f.created, name)
	f.owners[name] = owner
	return nil
}

func (f *fakeDB) Drop(_ context.Context, name string) error {
	if i := slices.Index(f.existing, name); i >= 0 {
		f.existing = slices.Delete(f.existing, i, i+1)
	}
	f.dropped = append(f.dropped, name)
	return nil
}

// fakeVCS is an in-memory branch gateway.
type fakeVCS struct {
	local      []string
	remote     []string
	checkedOut []string
}

func (f *fakeVCS) BranchExistsLocal(_ context.Context, branch string) bool {
	return slices.Contains(f.local, branch)
}

func (f *fakeVCS) BranchExistsRemote(_ context.Context, branch string) bool {
	return slices.Contains(f.remote, branch)
}

func (f *fakeVCS) Checkout(_ context.Context, branch string) error {
	f.checkedOut = append(f.checkedOut, branch)
	return nil
}

func (f *fakeVCS) CheckoutTrack(_ context.Context, branch string) error {
	f.local = append(f.local, branch)
	f.checkedOut = append(f.checkedOut, branch)
	return nil
}

func (f *fakeVCS) CreateAndCheckout(_ context.Context, branch string) error {
	f.local = append(f.local, branch)
	f.checkedOut = append(f.checkedOut, branch)
	return nil
}

func (f *fakeVCS) ListAllBranchNames(_ context.Context) ([]string, error) {
	seen := map[string]struct{}{}
	var names []string
	for _, name := range append(slices.Clone(f.local), f.remote...) {
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		names = append(names, name)
	}
	slices.Sort(names)
	return names, nil
}

// confirmRecorder is a confirm double with a fixed answer.
type confirmRecorder struct {
	answer  bool
	prompts []string
}

func (c *confirmRecorder) confirm(message string) (bool, error) {
	c.prompts = append(c.prompts, message)
	return c.answer, nil
}

// newTestApp builds an app over a temp project dir with the given env file
// content, a fake database and a fake VCS. The Django management script is
// stubbed with a shell script that appends its invocations to record.txt.
func newTestApp(t *testing.T, envContent string) (*app, *fakeDB, *fakeVCS) {
	t.Helper()
	root := t.TempDir()

	envPath := filepath.Join(root, config.EnvFileName)
	var env *config.Env
	if envContent == "" {
		env = config.NewEnv(envPath)
	} else {
		if err := os.WriteFile(envPath, []byte(envContent), 0o600); err != nil {
			t.Fatal(err)
		}
		var err error
		env, err = config.LoadEnv(envPath)
		if err != nil {
			t.Fatal(err)
		}
	}

	stub := "#!/bin/sh\necho \"$DJANGO_SETTINGS_MODULE $@\" >> " + recordPath(root) + "\n"
	if err := os.WriteFile(filepath.Join(root, "manage.py"), []byte(stub), 0o755); err != nil {
		t.Fatal(err)
	}

	db := newFakeDB()
	git := &fakeVCS{local: []string{"master"}}
	global := config.DefaultGlobal()
	global.Python = "sh"

	return &app{
		root:    root,
		env:     env,
		global:  global,
		db:      db,
		git:     git,
		confirm: assumeYes,
	}, db, git
}

func recordPath(root string) string {
	return filepath.Join(root, "record.txt")
}

// managementCalls returns the recorded management script invocations.
func managementCalls(t *testing.T, root string) []string {
	t.Helper()
	data, err := os.ReadFile(recordPath(root))
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		t.Fatal(err)
	}
	return strings.Split(strings.TrimSpace(string(data)), "\n")
}

// testCtx returns a context with a logger and a printer capturing output.
func testCtx() (context.Context, *bytes.Buffer) {
	var buf bytes.Buffer
	ctx := log.WithLogger(context.Background(), log.New(&buf, false, false))
	ctx = output.WithPrinter(ctx, &buf)
	return ctx, &buf
}

// envFileContent reads the project env file back.
func envFileContent(t *testing.T, a *app) string {
	t.Helper()
	data, err := os.ReadFile(a.env.Path())
	if err != nil {
		t.Fatal(err)
	}
	return string(data)
}
