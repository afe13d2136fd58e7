package app

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/Kakaur/tensr-signal-agent/internal/discovery"
	"github.com/Kakaur/tensr-signal-agent/internal/pipeline"
	"github.com/Kakaur/tensr-signal-agent/internal/profile"
)

// ScoreOptions configure a dry-run evaluation.
type ScoreOptions struct {
	ReportPath  string
	ProfilePath string
}

// Score evaluates a scout report against a profile without writing to
// the database. The output shows the same ranking a real run would
// persist, plus the per-category point breakdown.
func (a *App) Score(ctx context.Context, opts ScoreOptions) error {
	var p profile.Profile
	if opts.ProfilePath != "" {
		loaded, err := a.profileStore().Load(opts.ProfilePath)
		if err != nil {
			return err
		}
		p = loaded
	} else {
		p = profile.Default()
	}

	source := discovery.NewFileSource(opts.ReportPath, a.Config.Pipeline.ReportsDir, a.Logger)
	candidates, err := source.Discover(ctx, &p)
	if err != nil {
		return err
	}

	outcome := pipeline.Evaluate(&p, candidates, time.Now().UTC(), a.Logger)

	fmt.Fprintf(os.Stdout, "candidates: %d  rejected: %d  outside window: %d  selected: %d\n",
		len(candidates), outcome.Rejected, outcome.Excluded, len(outcome.Selection.Signals))
	if outcome.Warning != "" {
		fmt.Fprintf(os.Stdout, "warning: %s\n", outcome.Warning)
	}
	if len(outcome.Selection.Signals) == 0 {
		return nil
	}

	writer := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(writer, "Rank\tTier\tTotal\tAction\tSeniority\tDomain\tAccess\tRecency\tInstitution")
	for i, s := range outcome.Selection.Signals {
		fmt.Fprintf(
			writer,
			"%d\t%s\t%d\t%d\t%d\t%d\t%d\t%d\t%s\n",
			i+1,
			s.Tier,
			s.TotalScore,
			s.ActionPts,
			s.SeniorityPts,
			s.DomainPts,
			s.AccessibilityPts,
			s.RecencyPts,
			sanitizeInline(s.Institution),
		)
	}
	writer.Flush()
	return nil
}
