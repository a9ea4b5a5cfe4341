// Command seed-events writes a deterministic synthetic event fixture:
// an events CSV for loading into the source table and a labels CSV in
// the label exchange format.
package main

import (
	"context"
	"encoding/csv"
	"flag"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/okian/timefold/internal/synthetic"
	"github.com/okian/timefold/pkg/logger"
)

const (
	defaultEntities = 500
	defaultEvents   = 20
	dateLayout      = "2006-01-02"
	filePermission  = 0o644
)

func main() {
	var (
		entities  = flag.Int("entities", defaultEntities, "Number of distinct entities")
		events    = flag.Int("events", defaultEvents, "Events per entity")
		seed      = flag.Int64("seed", 1, "Random seed; equal seeds give equal fixtures")
		start     = flag.String("start", "2010-01-01", "Earliest knowledge date (2006-01-02)")
		end       = flag.String("end", "2015-01-01", "Knowledge date upper bound, exclusive")
		labelDays = flag.String("label-dates", "", "Comma-separated as-of dates to label (empty skips labels)")
		outDir    = flag.String("out", ".", "Output directory")
	)
	flag.Parse()

	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		return
	}
	log := logger.Get()
	ctx := context.Background()

	startDate, err := time.Parse(dateLayout, *start)
	if err != nil {
		log.Fatal(ctx, "invalid start date", logger.Error(err))
	}
	endDate, err := time.Parse(dateLayout, *end)
	if err != nil {
		log.Fatal(ctx, "invalid end date", logger.Error(err))
	}

	cfg := synthetic.Config{
		Seed:            *seed,
		Entities:        *entities,
		EventsPerEntity: *events,
		Start:           startDate,
		End:             endDate,
	}

	eventsPath := filepath.Join(*outDir, "events.csv")
	if err := writeEvents(eventsPath, cfg); err != nil {
		log.Fatal(ctx, "writing events", logger.Error(err))
	}
	log.Info(ctx, "events written",
		logger.String("path", eventsPath),
		logger.Int("rows", cfg.Entities*cfg.EventsPerEntity),
	)

	if *labelDays == "" {
		return
	}
	dates, err := parseDates(*labelDays)
	if err != nil {
		log.Fatal(ctx, "invalid label dates", logger.Error(err))
	}
	labelsPath := filepath.Join(*outDir, "labels.csv")
	if err := writeLabels(labelsPath, cfg, dates); err != nil {
		log.Fatal(ctx, "writing labels", logger.Error(err))
	}
	log.Info(ctx, "labels written", logger.String("path", labelsPath))
}

func writeEvents(path string, cfg synthetic.Config) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, filePermission)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"entity_id", "knowledge_date", "amount", "color"}); err != nil {
		return err
	}
	for _, row := range synthetic.Rows(cfg) {
		record := []string{
			row.EntityID,
			row.KnowledgeDate.Format(dateLayout),
			strconv.FormatFloat(row.Quantities["amount"], 'f', 4, 64),
			row.Attributes["color"],
		}
		if err := w.Write(record); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func writeLabels(path string, cfg synthetic.Config, dates []time.Time) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, filePermission)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"entity_id", "as_of_date", "label"}); err != nil {
		return err
	}
	for key, value := range synthetic.Labels(cfg, dates) {
		label := "0"
		if value != nil && *value {
			label = "1"
		}
		if err := w.Write([]string{key.EntityID, key.AsOf.Format(dateLayout), label}); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func parseDates(raw string) ([]time.Time, error) {
	parts := strings.Split(raw, ",")
	out := make([]time.Time, 0, len(parts))
	for _, p := range parts {
		t, err := time.Parse(dateLayout, strings.TrimSpace(p))
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}
