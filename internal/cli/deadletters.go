package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/vietddude/inventorybot/internal/core/config"
	redisclient "github.com/vietddude/inventorybot/internal/infra/redis"
	"github.com/vietddude/inventorybot/internal/infra/storage"
	"github.com/vietddude/inventorybot/internal/infra/storage/postgres"
)

var dlWorker int

var deadLettersCmd = &cobra.Command{
	Use:   "deadletters",
	Short: "List persisted dead letters for a worker",
	Run:   runDeadLetters,
}

func init() {
	deadLettersCmd.Flags().IntVar(&dlWorker, "worker", 0, "worker id")
	rootCmd.AddCommand(deadLettersCmd)
}

func runDeadLetters(cmd *cobra.Command, args []string) {
	cfg := loadConfig()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	repo, closeRepo, err := openRepository(ctx, cfg.DeadLetter)
	if err != nil {
		slog.Error("Failed to open dead-letter store", "error", err)
		os.Exit(1)
	}
	defer closeRepo()

	entries, err := repo.List(ctx, dlWorker)
	if err != nil {
		slog.Error("Failed to list dead letters", "error", err)
		os.Exit(1)
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 3, ' ', tabwriter.Debug)
	_, _ = fmt.Fprintln(w, "BATCH\tRETRIES\tREASON\tCREATED")
	for _, e := range entries {
		_, _ = fmt.Fprintf(w, "%s\t%d\t%s\t%s\n", e.BatchID, e.Retries, e.Reason, e.CreatedAt.Format(time.RFC3339))
	}
	_ = w.Flush()
}

// openRepository connects to the persisted dead-letter backend.
func openRepository(ctx context.Context, dl config.DeadLetterConfig) (storage.DeadLetterRepository, func(), error) {
	switch dl.Backend {
	case config.BackendRedis:
		client, err := redisclient.NewClient(dl.Redis)
		if err != nil {
			return nil, nil, err
		}
		return redisclient.NewDeadLetterRepo(client), func() { _ = client.Close() }, nil

	case config.BackendPostgres:
		db, err := postgres.NewDB(ctx, dl.Database)
		if err != nil {
			return nil, nil, err
		}
		return postgres.NewDeadLetterRepo(db), func() { _ = db.Close() }, nil

	default:
		return nil, nil, fmt.Errorf("backend %q does not persist dead letters", dl.Backend)
	}
}
