package commands

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
)

var exportOutput string

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write the task collection as JSON",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		a, err := openApp(cmd.Context(), cfg, newLogger(cmd.ErrOrStderr()))
		if err != nil {
			return err
		}
		defer a.Close()

		out := cmd.OutOrStdout()
		if exportOutput != "" && exportOutput != "-" {
			f, err := os.Create(exportOutput)
			if err != nil {
				return fmt.Errorf("failed to create %s: %w", exportOutput, err)
			}
			defer f.Close()
			out = f
		}

		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(a.tasks.List()); err != nil {
			return fmt.Errorf("failed to write tasks: %w", err)
		}
		a.logger.Debug("tasks exported", slog.Int("count", len(a.tasks.List())))
		return nil
	},
}

var slotsCmd = &cobra.Command{
	Use:   "slots",
	Short: "List stored slots, including quarantined ones",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		a, err := openApp(cmd.Context(), cfg, newLogger(cmd.ErrOrStderr()))
		if err != nil {
			return err
		}
		defer a.Close()

		slots, err := a.db.ListSlots(cmd.Context())
		if err != nil {
			return err
		}
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "KEY\tBYTES\tUPDATED")
		for _, s := range slots {
			fmt.Fprintf(w, "%s\t%d\t%s\n", s.Key, s.Size, s.UpdatedAt.Format(time.RFC3339))
		}
		return w.Flush()
	},
}

func init() {
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "-", "Output file (- for stdout)")
}
