// Command diagnose_sources runs one collection attempt against every
// active source and prints a JSON report per source. Useful for triaging
// feeds that stopped producing items or pages whose selectors went stale.
//
// Usage:
//
//	DATABASE_URL=postgres://... go run scripts/diagnose_sources.go
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"localwire/internal/infra/adapter/persistence/postgres"
	"localwire/internal/infra/collector"
	"localwire/internal/infra/db"
)

// SourceDiagnostic is the per-source report line.
type SourceDiagnostic struct {
	ID             int64  `json:"id"`
	Name           string `json:"name"`
	SourceType     string `json:"source_type"`
	Endpoint       string `json:"endpoint"`
	Status         string `json:"status"` // OK, ERROR, EMPTY
	ItemCount      int    `json:"item_count"`
	LatestItem     string `json:"latest_item,omitempty"`
	HealthScore    int    `json:"health_score"`
	ErrorMessage   string `json:"error_message,omitempty"`
	ResponseTimeMS int64  `json:"response_time_ms"`
}

func main() {
	database, err := db.Open()
	if err != nil {
		log.Fatalf("open database: %v", err)
	}
	defer func() { _ = database.Close() }()

	sourceRepo := postgres.NewSourceRepo(database)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	sources, err := sourceRepo.ListActive(ctx)
	if err != nil {
		log.Fatalf("list active sources: %v", err)
	}

	factory := collector.NewFactory(
		&http.Client{Timeout: 30 * time.Second},
		os.Getenv("RENDER_SCRIPT"),
		90*time.Second,
	)

	var ok, bad int
	enc := json.NewEncoder(os.Stdout)
	for _, src := range sources {
		diag := SourceDiagnostic{
			ID:          src.ID,
			Name:        src.Name,
			SourceType:  src.SourceType,
			Endpoint:    src.Endpoint,
			HealthScore: src.HealthScore,
		}

		c, err := factory.CollectorFor(src)
		if err != nil {
			diag.Status = "ERROR"
			diag.ErrorMessage = err.Error()
		} else {
			start := time.Now()
			items, err := c.Collect(ctx, src)
			diag.ResponseTimeMS = time.Since(start).Milliseconds()

			switch {
			case err != nil:
				diag.Status = "ERROR"
				diag.ErrorMessage = err.Error()
			case len(items) == 0:
				diag.Status = "EMPTY"
			default:
				diag.Status = "OK"
				diag.ItemCount = len(items)
				latest := items[0].PublishedAt
				for _, it := range items[1:] {
					if it.PublishedAt.After(latest) {
						latest = it.PublishedAt
					}
				}
				diag.LatestItem = latest.Format(time.RFC3339)
			}
		}

		if diag.Status == "OK" {
			ok++
		} else {
			bad++
		}
		if err := enc.Encode(diag); err != nil {
			log.Fatalf("encode diagnostic: %v", err)
		}
	}

	fmt.Fprintf(os.Stderr, "checked %d sources: %d ok, %d failing\n", len(sources), ok, bad)
}
