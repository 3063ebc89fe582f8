package cli

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/keepsake/internal/sqlite"
	"github.com/mesh-intelligence/keepsake/pkg/types"
)

func TestVersion(t *testing.T) {
	env := newTestEnv(t, "")
	res := env.mustRun("version")
	assert.Contains(t, res.stdout, "keepsake v")
	assert.Contains(t, res.stdout, "schema: 1")
}

func TestDefaultConfigWritten(t *testing.T) {
	configDir := filepath.Join(t.TempDir(), "fresh")
	code := Run([]string{"--config-dir", configDir, "version"}, &strings.Builder{}, &strings.Builder{})
	require.Equal(t, exitSuccess, code)

	data, err := os.ReadFile(filepath.Join(configDir, configFileExt))
	require.NoError(t, err)
	assert.Contains(t, string(data), "backend: sqlite")
}

func TestInitCreatesDatabase(t *testing.T) {
	env := newTestEnv(t, "")
	res := env.mustRun("init")
	assert.Contains(t, res.stdout, "keepsake initialized")

	_, err := os.Stat(filepath.Join(env.dataDir, sqlite.DBFileName))
	assert.NoError(t, err)
}

func TestRecordLifecycle(t *testing.T) {
	env := newTestEnv(t, "")

	res := env.mustRun("add", "accounts", `{"type":"expense","amount":32.5,"category":"food","date":"2026-10-19"}`)
	id := strings.TrimSpace(res.stdout)
	require.NotEmpty(t, id)

	got := parseJSON[map[string]any](t, env.mustRun("get", "accounts", id).stdout)
	assert.Equal(t, 32.5, got["amount"])
	assert.Equal(t, "food", got["category"])

	env.mustRun("update", "accounts", `{"id":"`+id+`","type":"expense","amount":40,"category":"food","date":"2026-10-19"}`)
	got = parseJSON[map[string]any](t, env.mustRun("get", "accounts", id).stdout)
	assert.Equal(t, float64(40), got["amount"])

	env.mustRun("add", "accounts", `{"id":"inc-1","type":"income","amount":100,"category":"salary","date":"2026-10-01"}`)
	expenses := parseJSON[[]map[string]any](t, env.mustRun("--json", "list", "accounts", "--index", "type", "--value", "expense").stdout)
	require.Len(t, expenses, 1)
	assert.Equal(t, id, expenses[0]["id"])

	table := env.mustRun("list", "accounts").stdout
	assert.Contains(t, table, "inc-1")
	assert.Contains(t, table, "2 records")

	env.mustRun("delete", "accounts", id)
	assert.Equal(t, exitUserError, env.run("get", "accounts", id).exitCode)
	env.mustRun("delete", "accounts", id)
}

func TestUserErrors(t *testing.T) {
	env := newTestEnv(t, "")
	env.mustRun("add", "games", `{"id":"g-1","gameType":"dice","result":"6"}`)

	tests := []struct {
		name string
		args []string
	}{
		{"unknown collection", []string{"add", "pets", `{"id":"p"}`}},
		{"invalid JSON", []string{"add", "accounts", `{"type":`}},
		{"negative amount", []string{"add", "accounts", `{"type":"expense","amount":-1,"category":"food","date":"2026-10-19"}`}},
		{"duplicate id", []string{"add", "games", `{"id":"g-1","gameType":"dice","result":"6"}`}},
		{"undeclared index", []string{"list", "games", "--index", "nope", "--value", "x"}},
		{"index without value", []string{"list", "games", "--index", "type"}},
		{"missing argument", []string{"get", "games"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := env.run(tt.args...)
			assert.Equal(t, exitUserError, res.exitCode, res.stderr)
			assert.Contains(t, res.stderr, "keepsake:")
		})
	}
}

func TestStoreUnavailableIsSystemError(t *testing.T) {
	env := newTestEnv(t, "")
	require.NoError(t, os.WriteFile(env.dataDir, []byte("not a directory"), 0o644))

	res := env.run("list", "diaries")
	assert.Equal(t, exitSysError, res.exitCode)
}

func TestSettings(t *testing.T) {
	env := newTestEnv(t, "")

	res := env.mustRun("setting", "get", "theme", "--default", `"light"`)
	assert.Equal(t, `"light"`, strings.TrimSpace(res.stdout))

	env.mustRun("setting", "set", types.SettingMonthlyBudget, "3000")
	res = env.mustRun("setting", "get", types.SettingMonthlyBudget)
	assert.Equal(t, "3000", strings.TrimSpace(res.stdout))

	assert.Equal(t, exitUserError, env.run("setting", "set", "theme", "dark").exitCode)
}

func TestExportImportRoundTrip(t *testing.T) {
	src := newTestEnv(t, "")
	src.mustRun("add", "diaries", `{"id":"2026-10-01","date":"2026-10-01","content":"First entry"}`)
	src.mustRun("add", "foods", `{"id":"f-1","name":"Fried rice","difficulty":"easy"}`)
	src.mustRun("setting", "set", types.SettingMonthlyBudget, "1500")

	out := filepath.Join(src.tempDir, "snapshot.json.sz")
	res := src.mustRun("--json", "export", "--out", out, "--compress")
	exported := parseJSON[exportResult](t, res.stdout)
	assert.Equal(t, out, exported.Path)
	assert.Equal(t, 3, exported.Records)
	assert.Contains(t, exported.Fingerprint, "diaries")

	dst := newTestEnv(t, "")
	res = dst.mustRun("import", out, "--verify")
	assert.Contains(t, res.stdout, "imported 3 records")
	assert.Contains(t, res.stdout, "verified")

	got := parseJSON[map[string]any](t, dst.mustRun("get", "diaries", "2026-10-01").stdout)
	assert.Equal(t, "First entry", got["content"])
	res = dst.mustRun("setting", "get", types.SettingMonthlyBudget)
	assert.Equal(t, "1500", strings.TrimSpace(res.stdout))
}

func TestExportDefaultLocation(t *testing.T) {
	env := newTestEnv(t, "")
	env.mustRun("add", "ingredients", `{"id":"i-1","name":"Salt","quantity":1,"unit":"bag"}`)

	res := env.mustRun("export")
	assert.Contains(t, res.stdout, "exported 1 records")

	matches, err := filepath.Glob(filepath.Join(env.dataDir, "backups", "keepsake-*.json"))
	require.NoError(t, err)
	assert.Len(t, matches, 1)
}

func TestPushPullLocalRemote(t *testing.T) {
	remoteDir := filepath.Join(t.TempDir(), "remote")
	remoteConfig := "backup:\n  remote: local\n  local_dir: " + remoteDir + "\n"

	src := newTestEnv(t, remoteConfig)
	src.mustRun("add", "photos", `{"id":"p-1","src":"beach.jpg","date":"2026-08-02"}`)
	res := src.mustRun("--json", "export", "--push")
	pushed := parseJSON[exportResult](t, res.stdout)
	assert.NotEmpty(t, pushed.Remote)

	dst := newTestEnv(t, remoteConfig)
	dst.mustRun("import", "--pull", "--verify")
	got := parseJSON[map[string]any](t, dst.mustRun("get", "photos", "p-1").stdout)
	assert.Equal(t, "beach.jpg", got["src"])
}

func TestImportErrors(t *testing.T) {
	env := newTestEnv(t, "")

	assert.Equal(t, exitUserError, env.run("import").exitCode)
	assert.Equal(t, exitUserError, env.run("import", "--pull").exitCode)
	assert.Equal(t, exitUserError, env.run("import", filepath.Join(env.tempDir, "missing.json")).exitCode)

	bad := filepath.Join(env.tempDir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte("not json"), 0o644))
	assert.Equal(t, exitUserError, env.run("import", bad).exitCode)
}

func TestSummaryYear(t *testing.T) {
	env := newTestEnv(t, "")
	env.mustRun("add", "accounts", `{"id":"a-1","type":"expense","amount":50,"category":"food","date":"2025-03-04"}`)
	env.mustRun("add", "accounts", `{"id":"a-2","type":"income","amount":300,"category":"salary","date":"2025-03-01"}`)
	env.mustRun("add", "accounts", `{"id":"a-3","type":"expense","amount":99,"category":"food","date":"2024-12-31"}`)

	res := env.mustRun("--json", "summary", "--year", "2025")
	stats := parseJSON[map[string]any](t, res.stdout)
	assert.Equal(t, float64(300), stats["income"])
	assert.Equal(t, float64(50), stats["expense"])

	table := env.mustRun("summary", "--year", "2025").stdout
	assert.Contains(t, table, "Year 2025")
	assert.Contains(t, table, "food")

	assert.Contains(t, env.mustRun("summary").stdout, "Budget left")
}

func TestSummaryOverBudget(t *testing.T) {
	env := newTestEnv(t, "")
	today := time.Now().Format(types.DateLayout)
	env.mustRun("setting", "set", types.SettingMonthlyBudget, "10")
	env.mustRun("add", "accounts", `{"id":"a-1","type":"expense","amount":50,"category":"food","date":"`+today+`"}`)

	res := env.mustRun("summary")
	assert.Contains(t, res.stdout, "over budget")
	assert.Contains(t, res.stdout, "50.00")
}

func TestAddPhotoFillsDate(t *testing.T) {
	env := newTestEnv(t, "")
	env.mustRun("add", "photos", `{"id":"p-1","src":"beach.jpg","createdAt":"2026-08-02T10:00:00Z"}`)

	found := parseJSON[[]map[string]any](t, env.mustRun("--json", "list", "photos", "--index", "date", "--value", "2026-08-02").stdout)
	require.Len(t, found, 1)
	assert.Equal(t, "p-1", found[0]["id"])
}
