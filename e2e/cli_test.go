package e2e_test

import (
	"encoding/json"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcoot/tournax/internal/model"
	"github.com/mcoot/tournax/internal/testutil"
)

// cliRunner manages CLI binary execution
type cliRunner struct {
	binaryPath  string
	backendURL  string
	sessionFile string
}

func newCLIRunner(t *testing.T, backendURL string) *cliRunner {
	t.Helper()

	// Find project root (where go.mod is)
	projectRoot := findProjectRoot(t)

	// Build the CLI binary
	binaryPath := filepath.Join(projectRoot, "bin", "tournax-test")
	cmd := exec.Command("go", "build", "-o", binaryPath, "./cmd/tournax")
	cmd.Dir = projectRoot
	output, err := cmd.CombinedOutput()
	require.NoError(t, err, "failed to build CLI: %s", string(output))

	return &cliRunner{
		binaryPath:  binaryPath,
		backendURL:  backendURL,
		sessionFile: filepath.Join(t.TempDir(), "session.json"),
	}
}

func (r *cliRunner) run(args ...string) (string, error) {
	fullArgs := append([]string{
		"--backend", r.backendURL,
		"--session-file", r.sessionFile,
		"--output", "json",
	}, args...)

	cmd := exec.Command(r.binaryPath, fullArgs...)
	cmd.Env = append(os.Environ(), "HOME="+filepath.Dir(r.sessionFile))
	output, err := cmd.Output()
	return string(output), err
}

func findProjectRoot(t *testing.T) string {
	t.Helper()

	dir, err := os.Getwd()
	require.NoError(t, err)

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			t.Fatal("could not find project root (go.mod)")
		}
		dir = parent
	}
}

type statusResponse struct {
	Status string `json:"status"`
	User   *struct {
		ID       string `json:"id"`
		Username string `json:"username"`
		Role     string `json:"role"`
	} `json:"user"`
}

func TestCLI_SessionLifecycle(t *testing.T) {
	backend := testutil.NewBackend(t)
	backend.AddUser("alice", "secret", model.RolePlayer)
	cli := newCLIRunner(t, backend.URL())

	out, err := cli.run("status")
	require.NoError(t, err, out)
	var status statusResponse
	require.NoError(t, json.Unmarshal([]byte(out), &status))
	assert.Equal(t, "unauthenticated", status.Status)

	out, err = cli.run("login", "--user", "alice", "--pass", "secret")
	require.NoError(t, err, out)

	// A separate process restores the session from the file
	out, err = cli.run("status")
	require.NoError(t, err, out)
	require.NoError(t, json.Unmarshal([]byte(out), &status))
	assert.Equal(t, "authenticated", status.Status)
	require.NotNil(t, status.User)
	assert.Equal(t, "alice", status.User.Username)
	assert.Equal(t, "Player", status.User.Role)

	out, err = cli.run("logout")
	require.NoError(t, err, out)
	assert.NoFileExists(t, cli.sessionFile)
}

func TestCLI_TournamentCommands(t *testing.T) {
	backend := testutil.NewBackend(t)
	backend.AddUser("root", "hunter2", model.RoleAdmin)
	cli := newCLIRunner(t, backend.URL())

	_, err := cli.run("tournament", "list")
	require.Error(t, err, "listing without a session must fail")

	out, err := cli.run("login", "--user", "root", "--pass", "hunter2")
	require.NoError(t, err, out)

	out, err = cli.run("tournament", "create", "--name", "Spring Open", "--location", "Lisbon", "--start", "2026-04-01")
	require.NoError(t, err, out)
	var created model.Tournament
	require.NoError(t, json.Unmarshal([]byte(out), &created))
	assert.NotZero(t, created.ID)
	assert.Equal(t, model.FormatSwiss, created.Format)

	out, err = cli.run("tournament", "list")
	require.NoError(t, err, out)
	var tournaments []model.Tournament
	require.NoError(t, json.Unmarshal([]byte(out), &tournaments))
	require.Len(t, tournaments, 1)
	assert.Equal(t, "Spring Open", tournaments[0].Name)
}

func TestCLI_RevokedSession(t *testing.T) {
	backend := testutil.NewBackend(t)
	backend.AddUser("alice", "secret", model.RolePlayer)
	cli := newCLIRunner(t, backend.URL())

	out, err := cli.run("login", "--user", "alice", "--pass", "secret")
	require.NoError(t, err, out)

	raw, err := os.ReadFile(cli.sessionFile)
	require.NoError(t, err)
	var sess model.Session
	require.NoError(t, json.Unmarshal(raw, &sess))
	backend.Revoke(sess.Token)

	_, err = cli.run("player", "stats")
	require.Error(t, err)
	assert.NoFileExists(t, cli.sessionFile)
}
