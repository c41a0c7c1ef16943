package main

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/adamscao/lotcert/internal/db/repository"
	"github.com/adamscao/lotcert/internal/storage"
)

var blobCmd = &cobra.Command{
	Use:   "blob",
	Short: "Maintain stored certificate documents",
}

var blobPruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Delete stored documents that no certificate record references",
	Long: "Issuance stores the PDF before writing the record, so an interrupted issuance can " +
		"leave an unreferenced object behind. Objects younger than --min-age are kept, " +
		"since their issuance may still be in flight.",
	RunE: pruneBlobs,
}

var (
	dryRun bool
	minAge time.Duration
)

func init() {
	blobPruneCmd.Flags().BoolVar(&dryRun, "dry-run", false, "List orphans without deleting them")
	blobPruneCmd.Flags().DurationVar(&minAge, "min-age", time.Hour, "Only prune objects older than this")

	blobCmd.AddCommand(blobPruneCmd)
}

func pruneBlobs(cmd *cobra.Command, args []string) error {
	if err := initDB(); err != nil {
		return err
	}
	defer database.Close()

	ctx := context.Background()
	blobs, err := initBlobs()
	if err != nil {
		return err
	}

	objects, err := blobs.List(ctx)
	if err != nil {
		return fmt.Errorf("failed to list stored documents: %w", err)
	}

	certRepo := repository.NewCertificateRepository(database)
	referenced, err := certRepo.ListPDFKeys(ctx)
	if err != nil {
		return err
	}

	orphans := orphanKeys(objects, referenced, time.Now().Add(-minAge))
	if len(orphans) == 0 {
		color.Green("No orphaned documents (%d stored)", len(objects))
		return nil
	}

	for _, key := range orphans {
		if dryRun {
			fmt.Printf("would delete %s\n", key)
			continue
		}
		if err := blobs.Delete(ctx, key); err != nil {
			return fmt.Errorf("failed to delete %s: %w", key, err)
		}
		fmt.Printf("deleted %s\n", key)
	}

	if dryRun {
		color.Yellow("%d orphaned documents (dry run)", len(orphans))
	} else {
		color.Green("Deleted %d orphaned documents", len(orphans))
	}
	return nil
}

// orphanKeys returns the keys of objects modified before cutoff that no
// record references, sorted
func orphanKeys(stored []storage.Object, referenced map[string]struct{}, cutoff time.Time) []string {
	var orphans []string
	for _, obj := range stored {
		if obj.LastModified.After(cutoff) {
			continue
		}
		if _, ok := referenced[obj.Key]; !ok {
			orphans = append(orphans, obj.Key)
		}
	}
	sort.Strings(orphans)
	return orphans
}
