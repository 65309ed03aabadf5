package admin

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/spf13/cobra"

	"github.com/yojanasaar/yojanasaar/internal/config"
	"github.com/yojanasaar/yojanasaar/internal/jobs"
	"github.com/yojanasaar/yojanasaar/internal/repository"
	"github.com/yojanasaar/yojanasaar/internal/service"
	"github.com/yojanasaar/yojanasaar/internal/snapshot"
)

func IndexCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "index",
		Short: "Embed pending schemes",
		Long:  "Generate embeddings for every scheme that does not have one yet, and optionally export a SQLite snapshot of the indexed corpus",
		RunE:  runIndex,
	}

	cmd.Flags().Int("batch", jobs.DefaultBatchSize, "Schemes to embed per provider round-trip")
	cmd.Flags().String("snapshot", "", "Write a SQLite snapshot of the indexed corpus to this path")
	cmd.Flags().StringP("output", "o", "text", "Output format (text or json)")

	return cmd
}

func runIndex(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	batch, _ := cmd.Flags().GetInt("batch")
	snapshotPath, _ := cmd.Flags().GetString("snapshot")
	outputFormat, _ := cmd.Flags().GetString("output")

	pool, err := getDBPool(ctx)
	if err != nil {
		return err
	}
	defer pool.Close()

	schemeRepo := repository.NewSchemeRepository(pool)

	modelClient, err := newModelClient(ctx, cfg)
	if err != nil {
		return err
	}

	embeddingSvc := service.NewEmbeddingService(modelClient, schemeRepo)

	embedded := 0
	for {
		n, err := embeddingSvc.EmbedPending(ctx, batch)
		embedded += n
		if err != nil {
			return fmt.Errorf("embedding stopped after %d schemes: %w", embedded, err)
		}
		if n == 0 {
			break
		}
		log.Printf("embedded %d schemes so far", embedded)
	}

	total, withVectors, err := schemeRepo.Counts(ctx)
	if err != nil {
		return fmt.Errorf("failed to count schemes: %w", err)
	}

	var entryCount int
	if snapshotPath != "" {
		entries, err := schemeRepo.LoadCorpus(ctx)
		if err != nil {
			return fmt.Errorf("failed to load corpus: %w", err)
		}
		if err := snapshot.Write(ctx, snapshotPath, entries); err != nil {
			return fmt.Errorf("failed to write snapshot: %w", err)
		}
		entryCount = len(entries)
	}

	if outputFormat == "json" {
		data := map[string]interface{}{
			"embedded": embedded,
			"total":    total,
			"indexed":  withVectors,
		}
		if snapshotPath != "" {
			data["snapshot"] = snapshotPath
			data["snapshot_entries"] = entryCount
		}
		jsonBytes, _ := json.MarshalIndent(data, "", "  ")
		fmt.Println(string(jsonBytes))
	} else {
		fmt.Printf("Embedded %d schemes; %d of %d now indexed\n", embedded, withVectors, total)
		if snapshotPath != "" {
			fmt.Printf("Snapshot with %d schemes written to %s\n", entryCount, snapshotPath)
		}
	}

	return nil
}
