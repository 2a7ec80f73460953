package top_pairs

// Top co-resistance pairs chart: load the CSV, keep the first N rows as given,
// render a horizontal bar chart and write it as PNG.
// The input is trusted to be sorted strongest first; this package never re-sorts.

import (
	"fmt"

	"amr-coresistance/internal/config"
	"amr-coresistance/internal/coresistance"
	"amr-coresistance/internal/features/charts"
	"amr-coresistance/internal/infra/fs"
	"amr-coresistance/internal/infra/log"

	"go.uber.org/zap"
)

// Result describes one pipeline run.
type Result struct {
	InputPath  string
	OutputPath string
	Rows       []coresistance.DisplayRow
	Missing    bool // input file was absent; nothing was written
}

// StyleFromConfig builds the chart style for the top pairs figure.
func StyleFromConfig(cfg config.ChartConfig) charts.Style {
	style := charts.DefaultStyle()
	style.WidthIn = cfg.WidthIn
	style.HeightIn = cfg.HeightIn
	style.DPI = cfg.DPI
	style.ColorLow = cfg.ColorLow
	style.ColorHigh = cfg.ColorHigh
	style.FontPath = cfg.FontPath
	return style
}

// LoadTopRows loads the input and returns its first topN display rows.
// Missing input is reported as Result.Missing, not as an error.
func LoadTopRows(cfg *config.Config) (*Result, error) {
	res := &Result{InputPath: cfg.Paths.Input, OutputPath: cfg.Paths.Output}

	log.LogSuccess("Loading data from: "+res.InputPath, zap.String("path", res.InputPath))

	exists, err := fs.FileExists(res.InputPath)
	if err != nil {
		return nil, err
	}
	if !exists {
		log.LogError("Error: Data file not found.", zap.String("path", res.InputPath))
		res.Missing = true
		return res, nil
	}

	pairs, err := coresistance.LoadPairs(res.InputPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load co-resistance pairs: %w", err)
	}

	res.Rows = coresistance.Top(pairs, cfg.Chart.TopN)
	log.LogInfo("Co-resistance pairs loaded",
		zap.Int("total", len(pairs)),
		zap.Int("plotted", len(res.Rows)))

	for _, v := range coresistance.CheckOrdering(res.Rows) {
		log.LogWarn(fmt.Sprintf("Input not sorted by Phi: row %d (%.4f) is stronger than row %d (%.4f)",
			v.Index+1, v.Phi, v.Index, v.PrevPhi),
			zap.Int("row", v.Index+1),
			zap.Float64("phi", v.Phi),
			zap.Float64("prev_phi", v.PrevPhi))
	}

	return res, nil
}

// Bars converts display rows into chart bars, keeping order.
func Bars(rows []coresistance.DisplayRow) []charts.Bar {
	bars := make([]charts.Bar, len(rows))
	for i, row := range rows {
		bars[i] = charts.Bar{Label: row.Label, Value: row.Phi}
	}
	return bars
}

// Run loads the input, renders the chart and writes it to the configured output.
func Run(cfg *config.Config) (*Result, error) {
	res, err := LoadTopRows(cfg)
	if err != nil || res.Missing {
		return res, err
	}

	data, err := charts.RenderPNG(Bars(res.Rows), StyleFromConfig(cfg.Chart))
	if err != nil {
		return nil, fmt.Errorf("failed to render chart: %w", err)
	}

	log.LogSuccess("Saving figure to: "+res.OutputPath, zap.String("path", res.OutputPath))
	if err := fs.WriteFileAtomic(res.OutputPath, data); err != nil {
		return nil, fmt.Errorf("failed to save chart: %w", err)
	}

	log.LogSuccess("Done.",
		zap.String("filename", res.OutputPath),
		zap.Int("fileSize", len(data)),
		zap.Int("barsCount", len(res.Rows)))
	return res, nil
}
