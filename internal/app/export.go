package app

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	chart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/Kakaur/tensr-signal-agent/internal/signal"
	"github.com/Kakaur/tensr-signal-agent/internal/storage"
)

// ExportOptions hold parameters for exporting the latest batch.
type ExportOptions struct {
	CSVPath string
	PNGPath string
	MaxBars int
}

// Export writes the latest batch as CSV and/or a score bar chart PNG.
func (a *App) Export(ctx context.Context, opts ExportOptions) error {
	if opts.CSVPath == "" && opts.PNGPath == "" {
		return errors.New("at least one of --csv or --png must be provided")
	}

	opts.MaxBars = a.Config.ResolveMaxBars(opts.MaxBars)

	store, closeStore, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	if store == nil {
		return errors.New("database not configured; cannot export")
	}
	defer closeStore()

	records, err := store.LatestSignals(ctx, storage.SignalFilter{})
	if err != nil {
		return err
	}
	if len(records) == 0 {
		a.Logger.Info().Msg("no signals found for export")
		return nil
	}

	a.Logger.Info().Int("signals", len(records)).Msg("exporting latest batch")

	if opts.CSVPath != "" {
		if err := writeSignalsCSV(opts.CSVPath, records); err != nil {
			return err
		}
	}
	if opts.PNGPath != "" {
		if err := writeScoresPNG(opts.PNGPath, records, opts.MaxBars); err != nil {
			return err
		}
	}
	return nil
}

func writeSignalsCSV(path string, records []storage.SignalRecord) error {
	if err := ensureDir(path); err != nil {
		return err
	}

	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	header := []string{
		"run_id", "institution", "country", "region", "signal_type", "domain",
		"institution_tier", "seniority", "seniority_inferred", "signal_date", "source_url",
		"action_pts", "seniority_pts", "domain_pts", "accessibility_pts", "recency_pts",
		"total_score", "tier",
	}
	if err := writer.Write(header); err != nil {
		return err
	}

	for _, rec := range records {
		record := []string{
			rec.RunID.String(),
			rec.Institution,
			rec.Country,
			rec.Region,
			rec.Type,
			rec.Domain,
			rec.InstitutionTier,
			rec.Seniority,
			strconv.FormatBool(rec.SeniorityInferred),
			rec.Date.Format("2006-01-02"),
			rec.SourceURL,
			strconv.Itoa(rec.ActionPts),
			strconv.Itoa(rec.SeniorityPts),
			strconv.Itoa(rec.DomainPts),
			strconv.Itoa(rec.AccessibilityPts),
			strconv.Itoa(rec.RecencyPts),
			strconv.Itoa(rec.TotalScore),
			string(rec.Tier),
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}

	return writer.Error()
}

func writeScoresPNG(path string, records []storage.SignalRecord, maxBars int) error {
	if err := ensureDir(path); err != nil {
		return err
	}

	if maxBars > 0 && len(records) > maxBars {
		records = records[:maxBars]
	}

	bars := make([]chart.Value, 0, len(records))
	for _, rec := range records {
		bars = append(bars, chart.Value{
			Label: truncateLabel(rec.Institution, 18),
			Value: float64(rec.TotalScore),
			Style: chart.Style{FillColor: tierColor(rec.Tier), StrokeWidth: 0},
		})
	}

	graph := chart.BarChart{
		Title:    "Signal scores (latest batch)",
		Width:    1280,
		Height:   720,
		BarWidth: 24,
		YAxis: chart.YAxis{
			Range: &chart.ContinuousRange{Min: 0, Max: 100},
			ValueFormatter: func(v interface{}) string {
				return chart.FloatValueFormatterWithFormat(v, "%.0f")
			},
		},
		Bars: bars,
	}

	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	if err := graph.Render(chart.PNG, file); err != nil {
		return fmt.Errorf("render chart: %w", err)
	}
	return nil
}

// truncateLabel shortens a chart label to max runes, never splitting
// a multi-byte character.
func truncateLabel(label string, max int) string {
	runes := []rune(label)
	if len(runes) <= max {
		return label
	}
	return string(runes[:max-1]) + "…"
}

func tierColor(tier signal.Tier) drawing.Color {
	switch tier {
	case signal.TierHot:
		return drawing.Color{R: 0xd9, G: 0x3f, B: 0x2b, A: 0xff}
	case signal.TierWarm:
		return drawing.Color{R: 0xef, G: 0x8e, B: 0x38, A: 0xff}
	case signal.TierNurture:
		return drawing.Color{R: 0x3b, G: 0x82, B: 0xc4, A: 0xff}
	default:
		return drawing.Color{R: 0x8a, G: 0x8f, B: 0x98, A: 0xff}
	}
}

func ensureDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}
