package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

// testEnv is an isolated config and data directory for one test.
type testEnv struct {
	t         *testing.T
	tempDir   string
	configDir string
	dataDir   string
}

func newTestEnv(t *testing.T, extraConfig string) *testEnv {
	t.Helper()

	tempDir := t.TempDir()
	dataDir := filepath.Join(tempDir, "data")
	configDir := filepath.Join(tempDir, "config")
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		t.Fatalf("failed to create config dir: %v", err)
	}
	content := "backend: sqlite\nlog_level: error\n" + extraConfig
	if err := os.WriteFile(filepath.Join(configDir, configFileExt), []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return &testEnv{t: t, tempDir: tempDir, configDir: configDir, dataDir: dataDir}
}

type cmdResult struct {
	stdout   string
	stderr   string
	exitCode int
}

func (e *testEnv) run(args ...string) cmdResult {
	e.t.Helper()
	all := append([]string{"--config-dir", e.configDir, "--data-dir", e.dataDir}, args...)
	var stdout, stderr bytes.Buffer
	code := Run(all, &stdout, &stderr)
	return cmdResult{stdout: stdout.String(), stderr: stderr.String(), exitCode: code}
}

func (e *testEnv) mustRun(args ...string) cmdResult {
	e.t.Helper()
	res := e.run(args...)
	if res.exitCode != exitSuccess {
		e.t.Fatalf("keepsake %v failed with exit code %d:\nstdout: %s\nstderr: %s",
			args, res.exitCode, res.stdout, res.stderr)
	}
	return res
}

func parseJSON[T any](t *testing.T, s string) T {
	t.Helper()
	var v T
	if err := json.Unmarshal([]byte(s), &v); err != nil {
		t.Fatalf("failed to parse JSON output: %v\n%s", err, s)
	}
	return v
}
