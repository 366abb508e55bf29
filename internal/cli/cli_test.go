package cli

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sdejongh/drivemirror/pkg/config"
	"github.com/sdejongh/drivemirror/pkg/remote"
)

// cliFixture points the commands at a temporary config and an in-memory store
type cliFixture struct {
	configPath string
	ledgerDir  string
	local      string
	store      *remote.Memory
}

func newCLIFixture(t *testing.T) *cliFixture {
	t.Helper()

	dir := t.TempDir()
	f := &cliFixture{
		configPath: filepath.Join(dir, "config.yaml"),
		ledgerDir:  filepath.Join(dir, "runs"),
		local:      filepath.Join(dir, "src"),
		store:      remote.NewMemory(),
	}

	content := "sync:\n  order: name\n  backoff: 1ms\n  exclude: []\n" +
		"ledger:\n  dir: " + f.ledgerDir + "\n  format: json\n" +
		"output:\n  format: human\n  progress: false\n" +
		"logging:\n  enabled: false\n"
	if err := os.WriteFile(f.configPath, []byte(content), 0644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	files := map[string]string{
		"a.txt":  "alpha",
		"b.txt":  "bravo",
		"empty/": "",
	}
	for name, data := range files {
		path := filepath.Join(f.local, filepath.FromSlash(name))
		if strings.HasSuffix(name, "/") {
			if err := os.MkdirAll(path, 0755); err != nil {
				t.Fatalf("MkdirAll() error = %v", err)
			}
			continue
		}
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			t.Fatalf("MkdirAll() error = %v", err)
		}
		if err := os.WriteFile(path, []byte(data), 0644); err != nil {
			t.Fatalf("WriteFile() error = %v", err)
		}
	}
	f.store.MustMkdirAll("/backup")

	previous := newConnector
	newConnector = func(cfg *config.Config) remote.Connector {
		return remote.ConnectorFunc(func(ctx context.Context) (remote.Store, error) {
			return f.store, nil
		})
	}
	t.Cleanup(func() { newConnector = previous })

	return f
}

// run executes the command line and returns its stdout
func (f *cliFixture) run(t *testing.T, args ...string) (string, error) {
	t.Helper()

	cmd := NewRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(append([]string{"--config", f.configPath}, args...))

	err := cmd.ExecuteContext(context.Background())
	return stdout.String(), err
}

// runDirs returns the ledger directories written so far
func (f *cliFixture) runDirs(t *testing.T) []string {
	t.Helper()
	entries, err := os.ReadDir(f.ledgerDir)
	if err != nil {
		t.Fatalf("ReadDir() error = %v", err)
	}
	var dirs []string
	for _, e := range entries {
		if e.IsDir() {
			dirs = append(dirs, filepath.Join(f.ledgerDir, e.Name()))
		}
	}
	return dirs
}

func exitCode(err error) int {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	if err != nil {
		return -1
	}
	return 0
}

func TestSyncCommand(t *testing.T) {
	f := newCLIFixture(t)

	if _, err := f.run(t, "sync", f.local, "/backup"); err != nil {
		t.Fatalf("sync error = %v", err)
	}

	// a.txt, b.txt and the empty folder
	if got := len(f.store.Created()); got != 3 {
		t.Errorf("created %d objects, want 3", got)
	}
	if dirs := f.runDirs(t); len(dirs) != 1 {
		t.Errorf("ledger dirs = %v, want one", dirs)
	}

	out, err := f.run(t, "plan", f.local, "/backup")
	if err != nil {
		t.Fatalf("plan error = %v", err)
	}
	if strings.Contains(out, "Uploads (") {
		t.Errorf("second plan should be empty:\n%s", out)
	}
}

func TestPlanCommand(t *testing.T) {
	f := newCLIFixture(t)
	reportPath := filepath.Join(t.TempDir(), "plan.json")

	out, err := f.run(t, "plan", f.local, "/backup", "--report", reportPath, "--report-format", "json")
	if err != nil {
		t.Fatalf("plan error = %v", err)
	}

	if !strings.Contains(out, "Mirror Plan") || !strings.Contains(out, "a.txt") {
		t.Errorf("plan output missing tasks:\n%s", out)
	}
	if got := len(f.store.Created()); got != 0 {
		t.Errorf("plan created %d objects, want 0", got)
	}
	if _, err := os.Stat(f.ledgerDir); !os.IsNotExist(err) {
		t.Errorf("plan should not write a ledger, Stat() error = %v", err)
	}

	data, err := os.ReadFile(reportPath)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if !bytes.Contains(data, []byte(`"b.txt"`)) {
		t.Errorf("report missing b.txt:\n%s", data)
	}
}

func TestSyncCommandMissingRemoteRoot(t *testing.T) {
	f := newCLIFixture(t)

	_, err := f.run(t, "sync", f.local, "/nowhere")
	if got := exitCode(err); got != 2 {
		t.Errorf("exit code = %d, want 2 (err = %v)", got, err)
	}
	if len(f.store.Created()) != 0 {
		t.Error("nothing should be created when the remote root is missing")
	}
}

func TestSyncCommandRejectsBadOrder(t *testing.T) {
	f := newCLIFixture(t)

	if _, err := f.run(t, "sync", f.local, "/backup", "--order", "random"); err == nil {
		t.Error("sync should reject an unknown order")
	}
}

func TestLedgerShowAndRetry(t *testing.T) {
	f := newCLIFixture(t)
	f.store.SetHook(func(op, arg string) error {
		if op == remote.OpCreateFile && arg == "b.txt" {
			return errors.New("quota exceeded")
		}
		return nil
	})

	_, err := f.run(t, "sync", f.local, "/backup")
	if got := exitCode(err); got != 1 {
		t.Fatalf("exit code = %d, want 1 for a partial run (err = %v)", got, err)
	}

	dirs := f.runDirs(t)
	if len(dirs) != 1 {
		t.Fatalf("ledger dirs = %v, want one", dirs)
	}

	out, err := f.run(t, "ledger", "show", dirs[0])
	if err != nil {
		t.Fatalf("ledger show error = %v", err)
	}
	if !strings.Contains(out, "Failed:    1") || !strings.Contains(out, "quota exceeded") {
		t.Errorf("ledger show output:\n%s", out)
	}

	f.store.SetHook(nil)
	if _, err := f.run(t, "ledger", "retry", dirs[0]); err != nil {
		t.Fatalf("ledger retry error = %v", err)
	}

	found := 0
	for _, obj := range f.store.Created() {
		if obj.Name == "b.txt" {
			found++
		}
	}
	if found != 1 {
		t.Errorf("b.txt created %d times, want 1", found)
	}

	out, err = f.run(t, "ledger", "list")
	if err != nil {
		t.Fatalf("ledger list error = %v", err)
	}
	if got := strings.Count(out, "completed"); got != 2 {
		t.Errorf("ledger list shows %d runs, want 2:\n%s", got, out)
	}
}

func TestMkdirAndResolve(t *testing.T) {
	f := newCLIFixture(t)

	if _, err := f.run(t, "mkdir", "/backup/2024/photos"); err != nil {
		t.Fatalf("mkdir error = %v", err)
	}

	out, err := f.run(t, "resolve", "backup/2024/photos")
	if err != nil {
		t.Fatalf("resolve error = %v", err)
	}
	if !strings.Contains(out, "Kind: folder") || !strings.Contains(out, "/backup/2024/photos") {
		t.Errorf("resolve output:\n%s", out)
	}

	_, err = f.run(t, "resolve", "/backup/missing")
	if got := exitCode(err); got != 1 {
		t.Errorf("exit code = %d, want 1 for a missing path", got)
	}
}

func TestUploadCommand(t *testing.T) {
	f := newCLIFixture(t)
	source := filepath.Join(f.local, "a.txt")

	t.Run("IntoExistingFolder", func(t *testing.T) {
		out, err := f.run(t, "upload", source, "/backup")
		if err != nil {
			t.Fatalf("upload error = %v", err)
		}
		if !strings.Contains(out, "/backup/a.txt") {
			t.Errorf("upload output = %q, want /backup/a.txt", out)
		}
		obj, ok, err := remote.Resolve(context.Background(), f.store, "/backup/a.txt")
		if err != nil || !ok {
			t.Fatalf("Resolve() = %v, %v, %v", obj, ok, err)
		}
		if data, _ := f.store.Content(obj.ID); string(data) != "alpha" {
			t.Errorf("content = %q, want alpha", data)
		}
	})

	t.Run("NewNestedPath", func(t *testing.T) {
		if _, err := f.run(t, "upload", source, "/backup/2024/notes/first.txt", "--bandwidth", "1MiB"); err != nil {
			t.Fatalf("upload error = %v", err)
		}
		obj, ok, err := remote.Resolve(context.Background(), f.store, "/backup/2024/notes/first.txt")
		if err != nil || !ok || obj.IsFolder() {
			t.Fatalf("Resolve() = %v, %v, %v, want the uploaded file", obj, ok, err)
		}
	})

	t.Run("ExistingFileIsKept", func(t *testing.T) {
		before := len(f.store.Created())
		_, err := f.run(t, "upload", source, "/backup")
		if got := exitCode(err); got != 1 {
			t.Errorf("exit code = %d, want 1 (err = %v)", got, err)
		}
		if len(f.store.Created()) != before {
			t.Error("upload must not create a second a.txt")
		}
	})

	t.Run("RejectsDirectory", func(t *testing.T) {
		_, err := f.run(t, "upload", filepath.Join(f.local, "empty"), "/backup")
		if got := exitCode(err); got != 2 {
			t.Errorf("exit code = %d, want 2 (err = %v)", got, err)
		}
	})
}

func TestConfigInit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "drivemirror.yaml")

	cmd := NewRootCommand()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetArgs([]string{"--config", path, "config", "init"})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("config init error = %v", err)
	}

	if _, err := config.LoadFromFile(path); err != nil {
		t.Errorf("LoadFromFile() error = %v", err)
	}

	cmd = NewRootCommand()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetArgs([]string{"--config", path, "config", "init"})
	if err := cmd.Execute(); err == nil {
		t.Error("config init should refuse to overwrite without --force")
	}
}

func TestVersionCommand(t *testing.T) {
	cmd := NewRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"version"})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("version error = %v", err)
	}
	if !strings.HasPrefix(out.String(), "drivemirror "+Version) {
		t.Errorf("version output = %q", out.String())
	}
}
