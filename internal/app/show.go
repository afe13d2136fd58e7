package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/google/uuid"

	"github.com/Kakaur/tensr-signal-agent/internal/signal"
	"github.com/Kakaur/tensr-signal-agent/internal/storage"
)

// ShowOptions configure the show command.
type ShowOptions struct {
	Region  string
	Domains []string
	Tiers   []string
}

// Show prints the latest batch's signals ranked hottest first.
func (a *App) Show(ctx context.Context, opts ShowOptions) error {
	store, closeStore, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	if store == nil {
		return errors.New("database not configured; cannot show signals")
	}
	defer closeStore()

	filter := storage.SignalFilter{
		Region:  opts.Region,
		Domains: opts.Domains,
	}
	for _, t := range opts.Tiers {
		filter.Tiers = append(filter.Tiers, signal.Tier(strings.ToUpper(strings.TrimSpace(t))))
	}

	records, err := store.LatestSignals(ctx, filter)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		fmt.Fprintln(os.Stdout, "no signals found")
		return nil
	}

	writer := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(writer, "Tier\tScore\tInstitution\tType\tDomain\tSeniority\tDate")
	for _, rec := range records {
		seniority := rec.Seniority
		if rec.SeniorityInferred {
			seniority += " (inferred)"
		}
		fmt.Fprintf(
			writer,
			"%s\t%d\t%s\t%s\t%s\t%s\t%s\n",
			rec.Tier,
			rec.TotalScore,
			sanitizeInline(rec.Institution),
			rec.Type,
			rec.Domain,
			seniority,
			rec.Date.Format("2006-01-02"),
		)
	}
	writer.Flush()
	return nil
}

// Batches prints all finalized runs, newest first.
func (a *App) Batches(ctx context.Context) error {
	store, closeStore, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	if store == nil {
		return errors.New("database not configured; cannot list batches")
	}
	defer closeStore()

	batches, err := store.ListBatches(ctx)
	if err != nil {
		return err
	}
	if len(batches) == 0 {
		fmt.Fprintln(os.Stdout, "no batches found")
		return nil
	}

	writer := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(writer, "Run ID\tTime (UTC)\tSignals\tProfile\tWarning")
	for _, batch := range batches {
		fmt.Fprintf(
			writer,
			"%s\t%s\t%d\t%s\t%s\n",
			batch.ID,
			batch.Timestamp.UTC().Format(time.RFC3339),
			batch.SignalCount,
			batch.ProfilePath,
			sanitizeInline(batch.Warning),
		)
	}
	writer.Flush()
	return nil
}

// DeleteBatch removes one run and its signals. Deleting an unknown run
// id reports zero rows without failing.
func (a *App) DeleteBatch(ctx context.Context, runID string) error {
	id, err := uuid.Parse(strings.TrimSpace(runID))
	if err != nil {
		return fmt.Errorf("run id must be a valid UUID: %w", err)
	}

	store, closeStore, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	if store == nil {
		return errors.New("database not configured; cannot delete batches")
	}
	defer closeStore()

	deleted, err := store.DeleteBatch(ctx, id)
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stdout, "deleted %d run(s)\n", deleted)
	return nil
}

// DeleteAllBatches removes every run and signal.
func (a *App) DeleteAllBatches(ctx context.Context) error {
	store, closeStore, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	if store == nil {
		return errors.New("database not configured; cannot delete batches")
	}
	defer closeStore()

	deleted, err := store.DeleteAllBatches(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stdout, "deleted %d run(s)\n", deleted)
	return nil
}

func sanitizeInline(v string) string {
	cleaned := strings.ReplaceAll(v, "\n", " ")
	cleaned = strings.ReplaceAll(cleaned, "\r", " ")
	return cleaned
}
