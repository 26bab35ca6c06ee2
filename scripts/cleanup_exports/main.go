// Command cleanup_exports prunes moderation report files that have
// outlived their signed download window. Run it from cron; the API
// itself never deletes exports.
package main

import (
	"flag"
	"log"
	"time"

	"github.com/profsight/profsight-api/pkg/storage"
)

func main() {
	var (
		dir    string
		maxAge time.Duration
		dryRun bool
	)

	flag.StringVar(&dir, "dir", "./exports", "Directory holding export files")
	flag.DurationVar(&maxAge, "max-age", 24*time.Hour, "Delete files older than this")
	flag.BoolVar(&dryRun, "dry-run", false, "List what would be deleted without deleting")
	flag.Parse()

	store, err := storage.NewLocalStorage(dir)
	if err != nil {
		log.Fatalf("open export directory: %v", err)
	}

	if dryRun {
		names, err := store.ListOlderThan(maxAge)
		if err != nil {
			log.Fatalf("scan export directory: %v", err)
		}
		for _, name := range names {
			log.Printf("would delete %s", name)
		}
		log.Printf("dry run: %d file(s) older than %s", len(names), maxAge)
		return
	}

	deleted, err := store.CleanupOlderThan(maxAge)
	if err != nil {
		log.Fatalf("cleanup export directory: %v", err)
	}
	for _, name := range deleted {
		log.Printf("deleted %s", name)
	}
	log.Printf("removed %d file(s) older than %s", len(deleted), maxAge)
}
