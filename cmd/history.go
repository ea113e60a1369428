package cmd

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"nebles/almanac/internal/db"
)

var (
	historyLimit int
	historyJSON  bool
)

var errHistoryDisabled = errors.New("run history is disabled (set db_path, ALMANAC_DB_PATH or --db)")

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recorded runs",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := openHistoryRequired()
		if err != nil {
			return err
		}
		defer d.Close()

		runs, err := d.RecentRuns(cmd.Context(), historyLimit)
		if err != nil {
			return fmt.Errorf("loading runs: %w", err)
		}

		out := cmd.OutOrStdout()
		if historyJSON {
			for i := range runs {
				runs[i].Snapshot = nil
			}
			if runs == nil {
				runs = []db.Run{}
			}
			return printJSON(out, runs)
		}

		if len(runs) == 0 {
			fmt.Fprintln(out, "  No runs recorded.")
			return nil
		}
		for _, r := range runs {
			houses := ""
			if r.HasHouses {
				houses = "  houses"
			}
			file := "-"
			if r.FilePath != nil {
				file = *r.FilePath
			}
			fmt.Fprintf(out, "  %s  %s  recorded %s  bodies=%d aspects=%d%s  %s\n",
				shortRunID(r.ID), r.TimeUTC,
				time.UnixMilli(r.CreatedAt).UTC().Format(time.RFC3339),
				r.BodyCount, r.AspectCount, houses, file)
		}
		return nil
	},
}

var historyShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Print the snapshot of a recorded run (full ID or unique prefix)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := openHistoryRequired()
		if err != nil {
			return err
		}
		defer d.Close()

		run, err := d.GetRun(cmd.Context(), args[0])
		if err != nil {
			return err
		}

		var buf bytes.Buffer
		if err := json.Indent(&buf, run.Snapshot, "", "    "); err != nil {
			return fmt.Errorf("stored snapshot for %s: %w", run.ID, err)
		}
		buf.WriteByte('\n')
		_, err = cmd.OutOrStdout().Write(buf.Bytes())
		return err
	},
}

func init() {
	historyCmd.Flags().IntVar(&historyLimit, "limit", 20, "Number of runs to list")
	historyCmd.Flags().BoolVar(&historyJSON, "json", false, "Output as JSON")
	historyCmd.AddCommand(historyShowCmd)
	rootCmd.AddCommand(historyCmd)
}

func openHistoryRequired() (*db.DB, error) {
	d, err := OpenHistory()
	if err != nil {
		return nil, err
	}
	if d == nil {
		return nil, errHistoryDisabled
	}
	return d, nil
}

func shortRunID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
