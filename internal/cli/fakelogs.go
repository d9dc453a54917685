package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/vietddude/inventorybot/internal/demo/fakelogs"
)

var (
	fakeOut   string
	fakeCount int
)

var fakeLogsCmd = &cobra.Command{
	Use:   "fakelogs",
	Short: "Generate synthetic batch logs and a metrics textfile",
	Run:   runFakeLogs,
}

func init() {
	defaults := fakelogs.DefaultConfig()
	fakeLogsCmd.Flags().StringVar(&fakeOut, "out", defaults.Dir, "output directory")
	fakeLogsCmd.Flags().IntVar(&fakeCount, "count", defaults.Count, "number of log lines")
	rootCmd.AddCommand(fakeLogsCmd)
}

func runFakeLogs(cmd *cobra.Command, args []string) {
	cfg := fakelogs.DefaultConfig()
	cfg.Dir = fakeOut
	cfg.Count = fakeCount

	res, err := fakelogs.Generate(cfg)
	if err != nil {
		slog.Error("Failed to generate fake logs", "error", err)
		os.Exit(1)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Generated logs: %s\nGenerated metrics: %s\n", res.LogPath, res.MetricsPath)
}
