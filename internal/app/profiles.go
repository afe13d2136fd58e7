package app

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/Kakaur/tensr-signal-agent/internal/profile"
)

// ListProfiles prints saved profiles, newest first.
func (a *App) ListProfiles() error {
	infos, err := a.profileStore().List()
	if err != nil {
		return err
	}
	if len(infos) == 0 {
		fmt.Fprintln(os.Stdout, "no saved profiles")
		return nil
	}

	writer := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(writer, "Profile ID\tCreated (UTC)\tTarget\tObjective\tPath")
	for _, info := range infos {
		fmt.Fprintf(
			writer,
			"%s\t%s\t%d-%d\t%s\t%s\n",
			info.ProfileID,
			info.CreatedAt.UTC().Format(time.RFC3339),
			info.MinSignals,
			info.MaxSignals,
			sanitizeInline(info.Objective),
			info.Path,
		)
	}
	writer.Flush()
	return nil
}

// SaveDefaultProfile writes the built-in default profile to the
// profiles directory so it can be edited and reused.
func (a *App) SaveDefaultProfile() error {
	path, err := a.profileStore().Save(profile.Default())
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stdout, "saved default profile to %s\n", path)
	return nil
}
