package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"golang.org/x/text/language"

	"callsift/internal/analytics"
	"callsift/internal/detect"
	"callsift/internal/maprow"
	"callsift/internal/metrics"
	"callsift/internal/metrics/datadog"
	"callsift/internal/regstore"
	"callsift/internal/rowsource"
	"callsift/internal/schema"

	// register all schema store backends with the regstore factory.
	_ "callsift/internal/regstore/all"
)

// main is the entry point for the callsift binary. It parses a tabular
// export, detects the best-fit schema, maps rows to canonical records,
// and runs one analytics operation over them.
func main() {
	var (
		inputPath   string
		schemasJSON string
		storeKind   string
		storeDSN    string
		threshold   float64
		localeFlg   string

		op        string
		dimension string
		measure   string
		aggName   string
		fieldA    string
		fieldB    string
		field     string
		buckets   int
		pct       float64
		limit     int

		metricsBackendFlg string
		bestEffort        bool
	)

	flag.StringVar(&inputPath, "input", "", "tabular input file (csv, json, or html)")
	flag.StringVar(&schemasJSON, "schemas", "", "schema definitions JSON file")
	flag.StringVar(&storeKind, "store", "", "schema store backend (sqlite, postgres, mssql)")
	flag.StringVar(&storeDSN, "dsn", "", "schema store DSN")
	flag.Float64Var(&threshold, "threshold", 40, "minimum detection confidence (0-100)")
	flag.StringVar(&localeFlg, "locale", "", "BCP 47 tag for number parsing (e.g. de, en-US); empty auto-detects")

	flag.StringVar(&op, "op", "aggregate", "operation: detect, aggregate, trends, correlate, scatter, histogram, percentile, top, stats")
	flag.StringVar(&dimension, "dimension", "", "dimension field id (aggregate)")
	flag.StringVar(&measure, "measure", "", "measure field id (aggregate, trends)")
	flag.StringVar(&aggName, "agg", "count", "aggregation: sum, avg, min, max, count")
	flag.StringVar(&fieldA, "field-a", "", "first numeric field id (correlate, scatter)")
	flag.StringVar(&fieldB, "field-b", "", "second numeric field id (correlate, scatter)")
	flag.StringVar(&field, "field", "", "numeric field id (histogram, percentile, top, stats)")
	flag.IntVar(&buckets, "buckets", 10, "histogram bucket count")
	flag.Float64Var(&pct, "percentile", 50, "percentile to compute (0-100)")
	flag.IntVar(&limit, "limit", 10, "top values limit")

	flag.StringVar(&metricsBackendFlg, "metrics-backend", "none", "metrics backend to use (datadog, none)")
	flag.BoolVar(&bestEffort, "best-effort", false, "report the top schema even below the threshold")
	verbose := flag.Bool("v", false, "enable verbose logs")

	flag.Parse()

	if inputPath == "" {
		fatalf("missing -input")
	}
	if schemasJSON == "" && storeKind == "" {
		fatalf("schemas required: pass -schemas <file.json> or -store <kind> -dsn <dsn>")
	}

	ctx := context.Background()

	var mb metrics.Backend
	switch metricsBackendFlg {
	case "datadog":
		// Datadog backend: buffers metrics, submits periodically, and
		// performs one final submit at shutdown (Close()).
		extraTags := datadog.ParseTagsCSV(os.Getenv("METRICS_TAGS"))
		b, err := datadog.NewBackend(ctx, datadog.Options{
			JobName: "callsift",
			Tags:    extraTags,
			Logger:  log.Default(),
		})
		if err != nil {
			log.Printf("metrics: failed to init datadog backend: %v; using nop", err)
		} else {
			if *verbose {
				log.Printf("metrics: backend=datadog tags=%v", extraTags)
			}
			mb = b
			defer func() {
				if err := b.Close(); err != nil {
					log.Printf("metrics: datadog close/flush error: %v", err)
				}
			}()
		}
	case "", "none":
		if *verbose {
			log.Printf("metrics: disabled")
		}
	default:
		log.Printf("metrics: unknown backend %q; metrics disabled", metricsBackendFlg)
	}

	reg, err := loadRegistry(ctx, schemasJSON, storeKind, storeDSN)
	if err != nil {
		fatalf("load schemas: %v", err)
	}
	if *verbose {
		log.Printf("registry: %d schema(s) loaded", reg.Len())
	}

	data, err := os.ReadFile(inputPath)
	if err != nil {
		fatalf("read input: %v", err)
	}
	rows, err := rowsource.ReadAuto(data)
	if err != nil {
		fatalf("parse input: %v", err)
	}
	if len(rows) == 0 {
		fatalf("input %s: no usable rows", inputPath)
	}
	if *verbose {
		log.Printf("input: format=%s rows=%d", rowsource.Sniff(data), len(rows))
	}

	start := time.Now()

	detector := detect.Detector{Metrics: mb}
	det, ok := detector.Detect(rows, reg, threshold)
	if !ok {
		if !bestEffort {
			fatalf("no schema cleared confidence threshold %.0f; rerun with -best-effort to see the closest match", threshold)
		}
		det, ok = detector.BestEffort(rows, reg)
		if !ok {
			fatalf("no schema matched any column")
		}
		log.Printf("warning: best-effort match %q at confidence %.1f (below threshold %.0f); verify before trusting results",
			det.Schema.ID, det.Confidence, threshold)
	}
	if *verbose {
		log.Printf("detected: schema=%s confidence=%.1f verified=%v", det.Schema.ID, det.Confidence, det.Verified)
	}

	if op == "detect" {
		emit(map[string]any{
			"schema_id":  det.Schema.ID,
			"schema":     det.Schema.Name,
			"confidence": det.Confidence,
			"verified":   det.Verified,
		})
		return
	}

	mapper := maprow.Mapper{Locale: parseLocale(localeFlg)}
	recs := make([]schema.CallRecord, 0, len(rows))
	for i, row := range rows {
		m := mapper.MapRow(row, &det.Schema, det.Columns)
		if len(m.MissingRequired) > 0 && *verbose {
			log.Printf("row %d: missing required fields: %s", i, strings.Join(m.MissingRequired, ", "))
		}
		recs = append(recs, schema.CallRecord{
			ID:       fmt.Sprintf("%s-%d", det.Schema.ID, i),
			SchemaID: det.Schema.ID,
			Metadata: m.Values,
			Status:   schema.StatusImported,
		})
	}

	engine := analytics.Engine{Metrics: mb}
	view := analytics.View{
		DimensionField: dimension,
		MeasureField:   measure,
		Aggregation:    analytics.Aggregation(aggName),
	}

	switch op {
	case "aggregate":
		emit(engine.AggregateByDimension(recs, &det.Schema, view))
	case "trends":
		emit(engine.CalculateTrends(recs, &det.Schema, view))
	case "correlate":
		emit(engine.Correlate(recs, &det.Schema, fieldA, fieldB))
	case "scatter":
		emit(engine.GenerateScatterData(recs, &det.Schema, fieldA, fieldB))
	case "histogram":
		emit(engine.GenerateHistogram(recs, &det.Schema, field, buckets))
	case "percentile":
		emit(map[string]any{
			"field":      field,
			"percentile": pct,
			"value":      engine.CalculatePercentile(numericColumn(engine, recs, &det.Schema, field), pct),
		})
	case "top":
		emit(engine.GetTopValues(recs, &det.Schema, field, limit))
	case "stats":
		emit(engine.CalculateStatistics(recs, &det.Schema, field))
	default:
		fatalf("unknown -op %q", op)
	}

	if *verbose {
		log.Printf("completed in %s", time.Since(start).Truncate(time.Millisecond))
	}
}

// loadRegistry builds the schema registry from a JSON file or a store
// backend, whichever was configured. The JSON file wins when both are set.
func loadRegistry(ctx context.Context, jsonPath, kind, dsn string) (*schema.Registry, error) {
	if jsonPath != "" {
		f, err := os.Open(jsonPath)
		if err != nil {
			return nil, err
		}
		defer f.Close()

		var defs []schema.SchemaDefinition
		if err := json.NewDecoder(f).Decode(&defs); err != nil {
			return nil, fmt.Errorf("decode %s: %w", jsonPath, err)
		}
		return schema.NewRegistry(defs)
	}

	store, err := regstore.Open(ctx, kind, dsn)
	if err != nil {
		return nil, err
	}
	defer store.Close()

	if err := store.EnsureTables(ctx); err != nil {
		return nil, err
	}
	defs, err := store.LoadAll(ctx)
	if err != nil {
		return nil, err
	}
	return schema.NewRegistry(defs)
}

func parseLocale(s string) language.Tag {
	if s == "" {
		return language.Und
	}
	tag, err := language.Parse(s)
	if err != nil {
		log.Printf("locale: cannot parse %q, auto-detecting: %v", s, err)
		return language.Und
	}
	return tag
}

// numericColumn re-extracts a numeric column through the public stats
// surface so the percentile op sees the same exclusion rules as stats.
func numericColumn(e analytics.Engine, recs []schema.CallRecord, s *schema.SchemaDefinition, fieldID string) []float64 {
	pts := e.GenerateScatterData(recs, s, fieldID, fieldID)
	out := make([]float64, 0, len(pts))
	for _, p := range pts {
		out = append(out, p.X)
	}
	return out
}

func emit(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		fatalf("encode result: %v", err)
	}
}

func fatalf(format string, a ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", a...)
	os.Exit(1)
}
