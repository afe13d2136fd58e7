package discovery

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/Kakaur/tensr-signal-agent/internal/profile"
	"github.com/Kakaur/tensr-signal-agent/internal/signal"
)

const reportGlob = "signal_report_*.json"

// ErrNoReports indicates no scout report was found in the reports dir.
var ErrNoReports = errors.New("discovery: no signal reports found")

// report mirrors the scout output file shape.
type report struct {
	Timestamp string         `json:"timestamp"`
	Signals   []reportSignal `json:"signals"`
}

type reportSignal struct {
	Institution     string `json:"institution"`
	Country         string `json:"country"`
	Region          string `json:"region"`
	SignalType      string `json:"signal_type"`
	SignalDate      string `json:"signal_date"`
	Domain          string `json:"domain"`
	InstitutionTier string `json:"institution_tier"`
	Seniority       string `json:"seniority"`
	SourceURL       string `json:"source_url"`
	Summary         string `json:"summary"`
}

// FileSource reads scout report files produced by the external
// discovery step. When Path is empty it falls back to the most recent
// report in Dir.
type FileSource struct {
	Path   string
	Dir    string
	logger zerolog.Logger
}

// NewFileSource constructs a report-file source.
func NewFileSource(path, dir string, logger zerolog.Logger) *FileSource {
	return &FileSource{
		Path:   path,
		Dir:    dir,
		logger: logger.With().Str("component", "discovery").Logger(),
	}
}

// Discover parses the report and returns its signals. Rows with an
// unparseable date keep a zero Date and are rejected downstream by the
// scorer's required-field validation.
func (f *FileSource) Discover(ctx context.Context, _ *profile.Profile) ([]signal.Signal, error) {
	path := f.Path
	if path == "" {
		latest, err := LatestReport(f.Dir)
		if err != nil {
			return nil, err
		}
		path = latest
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read report: %w", err)
	}

	var rep report
	if err := json.Unmarshal(data, &rep); err != nil {
		return nil, fmt.Errorf("parse report %s: %w", filepath.Base(path), err)
	}

	signals := make([]signal.Signal, 0, len(rep.Signals))
	for _, row := range rep.Signals {
		date, err := ParseSignalDate(row.SignalDate)
		if err != nil {
			f.logger.Warn().
				Str("institution", row.Institution).
				Str("signal_date", row.SignalDate).
				Msg("unparseable signal date")
		}
		signals = append(signals, signal.Signal{
			Institution:     row.Institution,
			Country:         row.Country,
			Region:          row.Region,
			Type:            row.SignalType,
			Domain:          row.Domain,
			InstitutionTier: row.InstitutionTier,
			Seniority:       row.Seniority,
			SourceURL:       row.SourceURL,
			Summary:         row.Summary,
			Date:            date,
		})
	}

	f.logger.Info().Str("report", filepath.Base(path)).Int("signals", len(signals)).Msg("report loaded")
	return signals, nil
}

// LatestReport returns the most recently modified scout report in dir.
func LatestReport(dir string) (string, error) {
	matches, err := filepath.Glob(filepath.Join(dir, reportGlob))
	if err != nil {
		return "", fmt.Errorf("glob reports: %w", err)
	}
	if len(matches) == 0 {
		return "", ErrNoReports
	}

	sort.Slice(matches, func(i, j int) bool {
		si, errI := os.Stat(matches[i])
		sj, errJ := os.Stat(matches[j])
		if errI != nil || errJ != nil {
			return matches[i] < matches[j]
		}
		return si.ModTime().Before(sj.ModTime())
	})
	return matches[len(matches)-1], nil
}

// ParseSignalDate accepts the scout date formats: full dates and
// month-precision dates.
func ParseSignalDate(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, fmt.Errorf("empty signal date")
	}
	for _, layout := range []string{"2006-01-02", "2006-01"} {
		if t, err := time.Parse(layout, value); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised signal date %q", value)
}

var _ Source = (*FileSource)(nil)
