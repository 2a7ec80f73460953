package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// inEmptyDir runs the test from a directory without config.yaml or .env.
func inEmptyDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	// Equivalent of t.Chdir (Go 1.24+) for older toolchains.
	oldwd, err := os.Getwd()
	require.NoError(t, err)
	t.Setenv("PWD", dir)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(oldwd) })
	return dir
}

func TestLoadConfig_Defaults(t *testing.T) {
	inEmptyDir(t)
	root := filepath.Join(t.TempDir(), "project")
	t.Setenv("CORESISTANCE_PATHS_PROJECT_ROOT", root)

	cfg, err := LoadConfig(nil)
	require.NoError(t, err)

	figures := filepath.Join(root, "data", "processed", "figures")
	assert.Equal(t, filepath.Join(figures, "coresistance_significant_pairs.csv"), cfg.Paths.Input)
	assert.Equal(t, filepath.Join(figures, "top_10_coresistance_pairs.png"), cfg.Paths.Output)
	assert.Equal(t, 10, cfg.Chart.TopN)
	assert.Equal(t, 300.0, cfg.Chart.DPI)
	assert.Equal(t, 8.0, cfg.Chart.WidthIn)
	assert.Equal(t, 5.0, cfg.Chart.HeightIn)
	assert.Equal(t, 0.4, cfg.Chart.ColorLow)
	assert.Equal(t, 0.9, cfg.Chart.ColorHigh)
	assert.Equal(t, "logs", cfg.Log.Dir)
	assert.Equal(t, 3, cfg.Telegram.MaxRetries)
}

func TestLoadConfig_ProjectRootFromExecutable(t *testing.T) {
	inEmptyDir(t)

	cfg, err := LoadConfig(nil)
	require.NoError(t, err)

	exe, err := os.Executable()
	require.NoError(t, err)
	if resolved, err := filepath.EvalSymlinks(exe); err == nil {
		exe = resolved
	}
	assert.Equal(t, filepath.Dir(filepath.Dir(exe)), cfg.Paths.ProjectRoot)
}

func TestLoadConfig_EnvAliasesOverridePaths(t *testing.T) {
	inEmptyDir(t)
	t.Setenv("CORESISTANCE_INPUT", "/data/in.csv")
	t.Setenv("CORESISTANCE_OUTPUT", "/data/out.png")
	t.Setenv("TELEGRAM_CHAT_ID", "-100123")

	cfg, err := LoadConfig(nil)
	require.NoError(t, err)

	assert.Equal(t, "/data/in.csv", cfg.Paths.Input)
	assert.Equal(t, "/data/out.png", cfg.Paths.Output)
	assert.Equal(t, "-100123", cfg.Telegram.ChatID)
}

func TestLoadConfig_YAMLFile(t *testing.T) {
	dir := inEmptyDir(t)
	yaml := "chart:\n  dpi: 150\n  top_n: 5\npaths:\n  project_root: /srv/amr\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	cfg, err := LoadConfig(nil)
	require.NoError(t, err)

	assert.Equal(t, 150.0, cfg.Chart.DPI)
	assert.Equal(t, 5, cfg.Chart.TopN)
	assert.Equal(t, filepath.Join("/srv/amr", "data", "processed", "figures", DefaultInputName), cfg.Paths.Input)
}

func TestLoadConfig_DotEnv(t *testing.T) {
	dir := inEmptyDir(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("TELEGRAM_BOT_TOKEN=from-dotenv\n"), 0644))
	t.Cleanup(func() { os.Unsetenv("TELEGRAM_BOT_TOKEN") })

	cfg, err := LoadConfig(nil)
	require.NoError(t, err)

	assert.Equal(t, "from-dotenv", cfg.Telegram.BotToken)
}

func TestLoadConfig_FlagsWin(t *testing.T) {
	inEmptyDir(t)
	t.Setenv("CORESISTANCE_CHART_TOP_N", "7")

	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	BindFlags(fs)
	require.NoError(t, fs.Parse([]string{"--chart.top_n=3", "--paths.output=/tmp/chart.png"}))

	cfg, err := LoadConfig(fs)
	require.NoError(t, err)

	assert.Equal(t, 3, cfg.Chart.TopN)
	assert.Equal(t, "/tmp/chart.png", cfg.Paths.Output)
}

func TestLoadConfig_UnsetFlagsKeepEnv(t *testing.T) {
	inEmptyDir(t)
	t.Setenv("CORESISTANCE_CHART_TOP_N", "7")

	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	BindFlags(fs)
	require.NoError(t, fs.Parse(nil))

	cfg, err := LoadConfig(fs)
	require.NoError(t, err)

	assert.Equal(t, 7, cfg.Chart.TopN)
}

func TestLoadConfig_Invalid(t *testing.T) {
	cases := map[string]string{
		"CORESISTANCE_CHART_TOP_N":      "0",
		"CORESISTANCE_CHART_DPI":        "-1",
		"CORESISTANCE_CHART_WIDTH_IN":   "0",
		"CORESISTANCE_CHART_COLOR_HIGH": "1.5",
	}
	for env, value := range cases {
		t.Run(env, func(t *testing.T) {
			inEmptyDir(t)
			t.Setenv(env, value)

			_, err := LoadConfig(nil)
			assert.Error(t, err)
		})
	}
}

func TestFiguresDir(t *testing.T) {
	assert.Equal(t, filepath.Join("root", "data", "processed", "figures"), FiguresDir("root"))
}
