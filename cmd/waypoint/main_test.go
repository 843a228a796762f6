package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vango-dev/waypoint/internal/config"
	"github.com/vango-dev/waypoint/internal/errors"
)

const testManifest = `version: 1
fallback: NotFound
routes:
  - path: /
    name: home
    view: Home
  - path: /users/:id
    name: user
    view: User
    meta:
      requiresAuth: true
  - path: /old
    redirect: /users/1
  - path: /loop/a
    redirect: /loop/b
  - path: /loop/b
    redirect: /loop/a
  - path: /users/:uid
    name: member
    view: Member
`

func TestMain(m *testing.M) {
	color.NoColor = true
	os.Exit(m.Run())
}

// writeProject creates a waypoint.json and routes.yaml in a temp dir.
func writeProject(t *testing.T, manifest string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "waypoint.json"),
		[]byte(`{"name": "wallet", "manifest": {"path": "routes.yaml"}}`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "routes.yaml"), []byte(manifest), 0o644))
	return dir
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := rootCmd()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestRoutes(t *testing.T) {
	dir := writeProject(t, testManifest)

	out, err := run(t, "routes", "--config", dir)
	require.NoError(t, err)

	assert.Contains(t, out, "(6 routes)")
	assert.Regexp(t, `/users/:id\s+user\s+User\s+requiresAuth`, out)
	assert.Regexp(t, `/old\s+-\s+→ /users/1\s+-`, out)
	assert.Contains(t, out, "Fallback view: NotFound")
	assert.Contains(t, out, "/users/:uid (#5) can never match")
}

func TestRoutesExplicitManifest(t *testing.T) {
	dir := writeProject(t, testManifest)

	out, err := run(t, "routes", "--config", t.TempDir(), "--manifest", filepath.Join(dir, "routes.yaml"))
	require.NoError(t, err)
	assert.Contains(t, out, "/users/:id")
}

func TestResolve(t *testing.T) {
	dir := writeProject(t, testManifest)

	t.Run("location", func(t *testing.T) {
		out, err := run(t, "resolve", "--config", dir, "/users/42?tab=posts#bio")
		require.NoError(t, err)
		assert.Contains(t, out, "committed")
		assert.Contains(t, out, "Route:     /users/:id (user)")
		assert.Contains(t, out, "Params:    id=42")
		assert.Contains(t, out, "Query:     tab=posts")
		assert.Contains(t, out, "Hash:      bio")
		assert.Contains(t, out, "View:      User")
	})

	t.Run("named", func(t *testing.T) {
		out, err := run(t, "resolve", "--config", dir, "--name", "user", "-p", "id=7")
		require.NoError(t, err)
		assert.Contains(t, out, "Location:  /users/7")
	})

	t.Run("redirect", func(t *testing.T) {
		out, err := run(t, "resolve", "--config", dir, "/old")
		require.NoError(t, err)
		assert.Contains(t, out, "Redirect:  /old")
		assert.Contains(t, out, "Location:  /users/1")
	})

	t.Run("duplicate", func(t *testing.T) {
		out, err := run(t, "resolve", "--config", dir, "--from", "/users/1", "/old")
		require.NoError(t, err)
		assert.Contains(t, out, "duplicate")
	})

	t.Run("not found", func(t *testing.T) {
		out, err := run(t, "resolve", "--config", dir, "/nowhere")
		require.NoError(t, err)
		assert.Contains(t, out, "Route:     no match")
		assert.Contains(t, out, "View:      NotFound")
	})
}

func TestResolveFailures(t *testing.T) {
	dir := writeProject(t, testManifest)

	tests := []struct {
		name string
		args []string
		code string
	}{
		{"redirect loop", []string{"/loop/a", "--max-redirects", "3"}, "W201"},
		{"unknown name", []string{"--name", "nope"}, "W107"},
		{"missing param", []string{"--name", "user"}, "W108"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := run(t, append([]string{"resolve", "--config", dir}, tt.args...)...)
			require.Error(t, err)
			assert.Equal(t, tt.code, errors.FromError(err).Code)
		})
	}

	_, err := run(t, "resolve", "--config", dir)
	assert.Error(t, err, "a target is required")

	_, err = run(t, "resolve", "--config", dir, "--name", "user", "/users/1")
	assert.Error(t, err, "location and name are exclusive")
}

func TestCheck(t *testing.T) {
	dir := writeProject(t, testManifest)

	out, err := run(t, "check", "--config", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "6 routes")
	assert.Contains(t, out, "/users/:uid (#5) can never match")

	_, err = run(t, "check", "--config", dir, "--strict")
	require.Error(t, err)
	assert.Equal(t, "W303", errors.FromError(err).Code)
}

func TestCheckReportsBadInput(t *testing.T) {
	t.Run("missing config", func(t *testing.T) {
		_, err := run(t, "check", "--config", t.TempDir())
		require.Error(t, err)
		assert.Equal(t, "W501", errors.FromError(err).Code)
	})

	t.Run("invalid config", func(t *testing.T) {
		dir := writeProject(t, testManifest)
		require.NoError(t, os.WriteFile(filepath.Join(dir, "waypoint.json"),
			[]byte(`{"history": "memory"}`), 0o644))
		_, err := run(t, "check", "--config", filepath.Join(dir, "waypoint.json"))
		require.Error(t, err)
		assert.Equal(t, "W502", errors.FromError(err).Code)
	})

	t.Run("bad manifest", func(t *testing.T) {
		dir := writeProject(t, "version: 1\nroutes:\n  - path: /users/:id\n")
		_, err := run(t, "check", "--config", dir)
		require.Error(t, err)
		assert.Equal(t, "W303", errors.FromError(err).Code)
	})
}

func TestInit(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "shop")

	out, err := run(t, "init", dir, "--base", "app/", "--hash")
	require.NoError(t, err)
	assert.Contains(t, out, "Created "+filepath.Join(dir, "waypoint.json"))

	cfg, err := config.Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "shop", cfg.Name)
	assert.Equal(t, "/app", cfg.Base)
	assert.Equal(t, "hash", cfg.History)

	out, err = run(t, "routes", "--config", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "(2 routes)")

	_, err = run(t, "init", dir)
	assert.Error(t, err, "existing config is kept without --force")

	_, err = run(t, "init", dir, "--force")
	assert.NoError(t, err)
}

func TestVersion(t *testing.T) {
	out, err := run(t, "version", "--short")
	require.NoError(t, err)
	assert.Equal(t, "dev\n", out)
}
