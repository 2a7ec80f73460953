package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	// DefaultInputName and DefaultOutputName live under <project_root>/data/processed/figures.
	DefaultInputName  = "coresistance_significant_pairs.csv"
	DefaultOutputName = "top_10_coresistance_pairs.png"

	envPrefix = "CORESISTANCE"
)

// Config holds everything the pipeline reads at its boundary.
type Config struct {
	Paths    PathsConfig    `mapstructure:"paths"`
	Chart    ChartConfig    `mapstructure:"chart"`
	Log      LogConfig      `mapstructure:"log"`
	Telegram TelegramConfig `mapstructure:"telegram"`
}

type PathsConfig struct {
	ProjectRoot string `mapstructure:"project_root"` // empty = parent of the executable's directory
	Input       string `mapstructure:"input"`        // empty = <project_root>/data/processed/figures/<DefaultInputName>
	Output      string `mapstructure:"output"`       // empty = <project_root>/data/processed/figures/<DefaultOutputName>
}

type ChartConfig struct {
	TopN      int     `mapstructure:"top_n"`
	DPI       float64 `mapstructure:"dpi"`
	WidthIn   float64 `mapstructure:"width_in"`
	HeightIn  float64 `mapstructure:"height_in"`
	ColorLow  float64 `mapstructure:"color_low"`  // lower bound of the Reds sample range
	ColorHigh float64 `mapstructure:"color_high"` // upper bound of the Reds sample range
	FontPath  string  `mapstructure:"font_path"`  // optional TTF; Go Regular when empty
}

type LogConfig struct {
	Dir string `mapstructure:"dir"`
}

// TelegramConfig is only read by the publish command.
type TelegramConfig struct {
	BotToken    string `mapstructure:"bot_token"`
	ChatID      string `mapstructure:"chat_id"`
	APIEndpoint string `mapstructure:"api_endpoint"` // tgbotapi format string, e.g. https://api.telegram.org/bot%s/%s
	MaxRetries  int    `mapstructure:"max_retries"`
}

// LoadConfig merges, lowest precedence first:
// 1. defaults
// 2. config.yaml in the working directory
// 3. .env file
// 4. environment (CORESISTANCE_* and aliases)
// 5. flags
func LoadConfig(flags *pflag.FlagSet) (*Config, error) {
	godotenv.Load(".env")

	v := viper.New()

	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config.yaml: %w", err)
		}
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setupEnvAliases(v)

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return nil, fmt.Errorf("failed to bind flags: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	if err := resolvePaths(&cfg.Paths); err != nil {
		return nil, err
	}

	if err := validateConfig(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// BindFlags registers the chart and path flags on fs. Flag names match config keys.
func BindFlags(fs *pflag.FlagSet) {
	fs.String("paths.project_root", "", "Project root (env: CORESISTANCE_PATHS_PROJECT_ROOT)")
	fs.String("paths.input", "", "Input CSV path (env: CORESISTANCE_INPUT)")
	fs.String("paths.output", "", "Output PNG path (env: CORESISTANCE_OUTPUT)")
	fs.Int("chart.top_n", 10, "Number of pairs to plot (env: CORESISTANCE_CHART_TOP_N)")
	fs.Float64("chart.dpi", 300, "Output resolution in dots per inch (env: CORESISTANCE_CHART_DPI)")
	fs.String("chart.font_path", "", "TrueType font for chart text (env: CORESISTANCE_CHART_FONT_PATH)")
	fs.String("log.dir", "logs", "Directory for app.log (env: CORESISTANCE_LOG_DIR)")
}

// BindTelegramFlags registers flags used by the publish command.
func BindTelegramFlags(fs *pflag.FlagSet) {
	fs.String("telegram.bot_token", "", "Telegram bot token (env: TELEGRAM_BOT_TOKEN)")
	fs.String("telegram.chat_id", "", "Telegram chat ID to post the chart to (env: TELEGRAM_CHAT_ID)")
	fs.Int("telegram.max_retries", 3, "Max retries for a failed send (env: CORESISTANCE_TELEGRAM_MAX_RETRIES)")
}

func setupEnvAliases(v *viper.Viper) {
	v.BindEnv("paths.input", "CORESISTANCE_INPUT")
	v.BindEnv("paths.output", "CORESISTANCE_OUTPUT")
	v.BindEnv("telegram.bot_token", "TELEGRAM_BOT_TOKEN")
	v.BindEnv("telegram.chat_id", "TELEGRAM_CHAT_ID")
	v.BindEnv("telegram.api_endpoint", "TELEGRAM_API_ENDPOINT")
}

func setDefaults(v *viper.Viper) {
	// Paths
	v.SetDefault("paths.project_root", "")
	v.SetDefault("paths.input", "")
	v.SetDefault("paths.output", "")

	// Chart
	v.SetDefault("chart.top_n", 10)
	v.SetDefault("chart.dpi", 300.0)
	v.SetDefault("chart.width_in", 8.0)
	v.SetDefault("chart.height_in", 5.0)
	v.SetDefault("chart.color_low", 0.4)
	v.SetDefault("chart.color_high", 0.9)
	v.SetDefault("chart.font_path", "")

	// Log
	v.SetDefault("log.dir", "logs")

	// Telegram
	v.SetDefault("telegram.bot_token", "")
	v.SetDefault("telegram.chat_id", "")
	v.SetDefault("telegram.api_endpoint", "")
	v.SetDefault("telegram.max_retries", 3)
}

// resolvePaths fills empty input/output paths from the project root.
func resolvePaths(p *PathsConfig) error {
	if p.ProjectRoot == "" {
		root, err := executableProjectRoot()
		if err != nil {
			return err
		}
		p.ProjectRoot = root
	}

	figuresDir := FiguresDir(p.ProjectRoot)
	if p.Input == "" {
		p.Input = filepath.Join(figuresDir, DefaultInputName)
	}
	if p.Output == "" {
		p.Output = filepath.Join(figuresDir, DefaultOutputName)
	}
	return nil
}

// FiguresDir is where the input CSV and output PNG live by default.
func FiguresDir(projectRoot string) string {
	return filepath.Join(projectRoot, "data", "processed", "figures")
}

// executableProjectRoot returns the parent of the directory holding the running binary.
func executableProjectRoot() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("failed to locate executable: %w", err)
	}
	if resolved, err := filepath.EvalSymlinks(exe); err == nil {
		exe = resolved
	}
	return filepath.Dir(filepath.Dir(exe)), nil
}

func validateConfig(cfg *Config) error {
	if cfg.Chart.TopN <= 0 {
		return fmt.Errorf("chart.top_n must be positive, got %d", cfg.Chart.TopN)
	}
	if cfg.Chart.DPI <= 0 {
		return fmt.Errorf("chart.dpi must be positive, got %v", cfg.Chart.DPI)
	}
	if cfg.Chart.WidthIn <= 0 || cfg.Chart.HeightIn <= 0 {
		return fmt.Errorf("chart size must be positive, got %vx%v", cfg.Chart.WidthIn, cfg.Chart.HeightIn)
	}
	if cfg.Chart.ColorLow < 0 || cfg.Chart.ColorHigh > 1 || cfg.Chart.ColorLow > cfg.Chart.ColorHigh {
		return fmt.Errorf("chart color range must satisfy 0 <= low <= high <= 1, got [%v, %v]", cfg.Chart.ColorLow, cfg.Chart.ColorHigh)
	}
	return nil
}
