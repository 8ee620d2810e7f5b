package cli

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/eventhistory/internal/store"
	"github.com/roach88/eventhistory/internal/testutil"
)

// cliEnv is a config file pointing at a temp store, plus in-memory archives.
type cliEnv struct {
	dir      string
	config   string
	archives *testutil.Archives
}

func newCLIEnv(t *testing.T) *cliEnv {
	t.Helper()
	t.Setenv("HISTORY_DATABASE_URL", "")
	t.Setenv("HISTORY_METRICS_ADDR", "")

	dir := t.TempDir()
	config := filepath.Join(dir, "history.yaml")
	require.NoError(t, os.WriteFile(config, []byte(fmt.Sprintf(`
store:
  path: %s
  table_prefix: Test
archives:
  root: %s
`, filepath.Join(dir, "history.db"), filepath.Join(dir, "archives"))), 0o644))

	return &cliEnv{dir: dir, config: config, archives: testutil.NewArchives(t)}
}

// run executes the CLI against the env and returns exit code, stdout and
// stderr.
func (e *cliEnv) run(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	opts := &RootOptions{Catalog: e.archives.Catalog, Blobs: e.archives.Blobs}
	stdout, stderr := &bytes.Buffer{}, &bytes.Buffer{}

	code := execute(context.Background(), opts, append(args, "--config", e.config), stdout, stderr)
	return code, stdout.String(), stderr.String()
}

// openStore opens the env's store for setup or verification. Close it
// before running commands.
func (e *cliEnv) openStore(t *testing.T) *store.Store {
	t.Helper()
	st, err := store.Open(filepath.Join(e.dir, "history.db"), store.WithTablePrefix("Test"))
	require.NoError(t, err)
	return st
}
