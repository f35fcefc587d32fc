package main

import (
	"context"
	"flag"
	"io"
	"log"
	"time"

	"phillysafe/internal/app"
	"phillysafe/internal/export"
	"phillysafe/internal/normalize"
	"phillysafe/pkg/utils"
)

// export-mirror snapshots the live incident list (through the usual
// fallback chain) into a fixture for mirror-server -fixture or
// PHILLYSAFE_MIRROR_PATH.
func main() {
	cfg := utils.LoadConfig()
	var (
		outPath = flag.String("out", "data/mirror.json", "output JSON path")
		limit   = flag.Int("limit", 0, "keep at most this many incidents (0 for all)")
	)
	flag.StringVar(&cfg.CrimeBaseURL, "crime", cfg.CrimeBaseURL, "primary crime data API base URL")
	flag.StringVar(&cfg.SimulatedBaseURL, "sim", cfg.SimulatedBaseURL, "simulated crime data API base URL")
	flag.Parse()

	// the snapshot never needs the persisted login
	cfg.SessionStore = "memory"
	cfg.MirrorPath = ""

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	a, err := app.New(ctx, cfg, log.Default())
	if err != nil {
		log.Fatalf("start: %v", err)
	}
	defer a.Close()

	raws, err := a.Crime.GetIncidents(ctx)
	if err != nil {
		log.Fatalf("fetch incidents: %v", err)
	}
	items := normalize.Normalize(raws)
	if *limit > 0 && len(items) > *limit {
		items = items[:*limit]
	}

	err = export.ToFile(*outPath, func(w io.Writer) error { return export.WriteJSON(w, items) })
	if err != nil {
		log.Fatalf("write failed: %v", err)
	}
	log.Printf("✅ exported %d incidents to %s", len(items), *outPath)
}
