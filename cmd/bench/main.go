// Command bench runs a synthetic cost-weighted workload against the cache and exposes optional pprof/Prometheus endpoints.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"math/rand"
	"net/http"
	_ "net/http/pprof" // registers /debug/pprof/* on DefaultServeMux
	"os"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/IvanBrykalov/costcache/cache"
	"github.com/IvanBrykalov/costcache/internal/config"
	pmet "github.com/IvanBrykalov/costcache/metrics/prom"
	"github.com/google/uuid"
	"github.com/ohler55/ojg"
	"github.com/ohler55/ojg/oj"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "bench:", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, jsonOut, err := parseConfig(flag.CommandLine, os.Args[1:])
	if err != nil {
		return err
	}
	if cfg.Bench.Seed == 0 {
		cfg.Bench.Seed = time.Now().UnixNano()
	}
	if cfg.Bench.Workers <= 0 {
		cfg.Bench.Workers = 2 * runtime.GOMAXPROCS(0)
	}

	runID := uuid.New()
	logger := cfg.Log.Logger(os.Stderr).With(slog.String("run", runID.String()))

	// ---- pprof server (on DefaultServeMux) ----
	if cfg.HTTP.PprofAddr != "" {
		go func() {
			logger.Info("pprof: serving", "addr", cfg.HTTP.PprofAddr)
			logger.Error("pprof server stopped", slog.Any("err", http.ListenAndServe(cfg.HTTP.PprofAddr, nil)))
		}()
	}

	// ---- Prometheus metrics (on DefaultServeMux) ----
	var metrics cache.Metrics = cache.NoopMetrics{}
	if cfg.HTTP.MetricsAddr != "" {
		metrics = pmet.New(nil, "costcache", "bench", prometheus.Labels{"cache": cfg.Cache.Name})
		http.Handle("/metrics", promhttp.Handler())
		go func() {
			logger.Info("metrics: serving", "addr", cfg.HTTP.MetricsAddr)
			logger.Error("metrics server stopped", slog.Any("err", http.ListenAndServe(cfg.HTTP.MetricsAddr, nil)))
		}()
	}

	// ---- Build cache ----
	var evicted atomic.Uint64
	c := cache.New[int, []byte](cache.Options[int, []byte]{
		Name:                   cfg.Cache.Name,
		TotalCostLimit:         cfg.Cache.TotalCostLimit,
		CountLimit:             cfg.Cache.CountLimit,
		EvictsDiscardedContent: cfg.Cache.EvictsDiscardedContent,
		SizeHint:               cfg.Cache.SizeHint,
		Metrics:                metrics,
		Logger:                 logger,
		Delegate: cache.DelegateFunc[int, []byte](func(*cache.Cache[int, []byte], []byte) {
			evicted.Add(1)
		}),
	})

	// Identity keys: one handle per logical key, shared by every worker.
	keySet := make([]*cache.Key[int], cfg.Bench.Keys)
	for i := range keySet {
		keySet[i] = cache.NewKey(i)
	}

	// ---- Snapshot config for goroutines ----
	b := cfg.Bench
	keysMax := uint64(b.Keys - 1)

	logger.Info("bench: start",
		"cost_limit", cfg.Cache.TotalCostLimit, "count_limit", cfg.Cache.CountLimit,
		"workers", b.Workers, "keys", b.Keys, "duration", b.Duration, "seed", b.Seed)

	// ---- Load generation ----
	var reads, writes, hits, misses, total atomic.Uint64
	ctx, cancel := context.WithTimeout(context.Background(), b.Duration)
	defer cancel()

	start := time.Now()
	g, ctx := errgroup.WithContext(ctx)
	for w := 0; w < b.Workers; w++ {
		id := w
		g.Go(func() error {
			// Each worker gets its own RNG + Zipf (rand.Rand is NOT goroutine-safe).
			localR := rand.New(rand.NewSource(b.Seed + int64(id)*9973))
			localZipf := rand.NewZipf(localR, b.ZipfS, b.ZipfV, keysMax)

			for {
				select {
				case <-ctx.Done():
					return nil
				default:
				}

				total.Add(1)
				k := keySet[localZipf.Uint64()]
				if int(localR.Int31n(100)) < b.ReadPct {
					reads.Add(1)
					if _, ok := c.Get(k); ok {
						hits.Add(1)
					} else {
						misses.Add(1)
					}
				} else {
					writes.Add(1)
					cost := localR.Int63n(b.MaxCost + 1)
					c.SetWithCost(k, make([]byte, 8), cost)
				}
			}
		})
	}
	if err := g.Wait(); err != nil && !errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	elapsed := time.Since(start)

	// ---- Report ----
	ops := total.Load()
	readsN, writesN := reads.Load(), writes.Load()
	hitsN, missesN := hits.Load(), misses.Load()

	hitRate := 0.0
	if readsN > 0 {
		hitRate = float64(hitsN) / float64(readsN) * 100
	}
	st := c.Stats()

	if jsonOut {
		report := map[string]any{
			"run":         runID.String(),
			"cache":       c.Name(),
			"cost_limit":  c.TotalCostLimit(),
			"count_limit": c.CountLimit(),
			"workers":     b.Workers,
			"keys":        b.Keys,
			"seed":        b.Seed,
			"elapsed":     elapsed.String(),
			"ops":         ops,
			"ops_per_sec": float64(ops) / elapsed.Seconds(),
			"reads":       readsN,
			"writes":      writesN,
			"hits":        hitsN,
			"misses":      missesN,
			"hit_rate":    hitRate,
			"evictions":   st.Evictions,
			"delegated":   evicted.Load(),
			"len":         c.Len(),
			"total_cost":  c.TotalCost(),
		}
		fmt.Println(oj.JSON(report, &ojg.Options{Indent: 2, Sort: true}))
		return nil
	}

	fmt.Printf("run=%s cost-limit=%d count-limit=%d workers=%d keys=%d dur=%v seed=%d\n",
		runID, c.TotalCostLimit(), c.CountLimit(), b.Workers, b.Keys, elapsed, b.Seed)
	fmt.Printf("ops=%d (%.0f ops/s)  reads=%d  writes=%d\n",
		ops, float64(ops)/elapsed.Seconds(), readsN, writesN)
	fmt.Printf("hits=%d  misses=%d  hit-rate=%.2f%%\n", hitsN, missesN, hitRate)
	fmt.Printf("evictions=%d (delegate saw %d)\n", st.Evictions, evicted.Load())
	fmt.Printf("Len()=%d  TotalCost()=%d\n", c.Len(), c.TotalCost())
	return nil
}

// parseConfig registers the bench flags on fs, parses args, loads the
// -config file and lets explicitly set flags override it.
func parseConfig(fs *flag.FlagSet, args []string) (config.Config, bool, error) {
	def := config.Default()

	// ---- Flags ----
	var (
		cfgPath = fs.String("config", "", "YAML config file; explicit flags override it")

		costLimit  = fs.Int64("cost-limit", def.Cache.TotalCostLimit, "total cost limit (<=0 = unlimited)")
		countLimit = fs.Int("count-limit", def.Cache.CountLimit, "entry count limit (<=0 = unlimited)")

		workers  = fs.Int("workers", def.Bench.Workers, "number of worker goroutines (0 = 2*GOMAXPROCS)")
		duration = fs.Duration("duration", def.Bench.Duration, "benchmark duration")
		readPct  = fs.Int("reads", def.Bench.ReadPct, "read percentage [0..100]")

		keys    = fs.Int("keys", def.Bench.Keys, "keyspace size")
		maxCost = fs.Int64("max-cost", def.Bench.MaxCost, "per-entry cost is uniform in [0, max-cost]")
		zipfS   = fs.Float64("zipf_s", def.Bench.ZipfS, "Zipf s > 1 (skew)")
		zipfV   = fs.Float64("zipf_v", def.Bench.ZipfV, "Zipf v")
		seed    = fs.Int64("seed", 0, "random seed (0 = time-based)")

		metricsAddr = fs.String("http", def.HTTP.MetricsAddr, "serve Prometheus metrics at addr; empty = disabled")
		pprofAddr   = fs.String("pprof", def.HTTP.PprofAddr, "serve pprof at addr (e.g. :6060); empty = disabled")
		jsonOut     = fs.Bool("json", false, "print the report as JSON")
	)
	if err := fs.Parse(args); err != nil {
		return def, false, err
	}

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		return cfg, false, err
	}
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "cost-limit":
			cfg.Cache.TotalCostLimit = *costLimit
		case "count-limit":
			cfg.Cache.CountLimit = *countLimit
		case "workers":
			cfg.Bench.Workers = *workers
		case "duration":
			cfg.Bench.Duration = *duration
		case "reads":
			cfg.Bench.ReadPct = *readPct
		case "keys":
			cfg.Bench.Keys = *keys
		case "max-cost":
			cfg.Bench.MaxCost = *maxCost
		case "zipf_s":
			cfg.Bench.ZipfS = *zipfS
		case "zipf_v":
			cfg.Bench.ZipfV = *zipfV
		case "seed":
			cfg.Bench.Seed = *seed
		case "http":
			cfg.HTTP.MetricsAddr = *metricsAddr
		case "pprof":
			cfg.HTTP.PprofAddr = *pprofAddr
		}
	})
	if err := cfg.Validate(); err != nil {
		return cfg, false, err
	}
	return cfg, *jsonOut, nil
}
