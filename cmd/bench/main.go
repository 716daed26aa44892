// Command bench runs a synthetic autoload workload over a real temp
// directory tree and exposes optional pprof/Prometheus endpoints.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"net/http"
	_ "net/http/pprof" // registers /debug/pprof/* on DefaultServeMux
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/IvanBrykalov/autoload/autoload"
	pmet "github.com/IvanBrykalov/autoload/metrics/prom"
)

func main() {
	// ---- Flags ----
	var (
		capacity  = flag.Int("cap", 4096, "cache capacity (entries)")
		cmds      = flag.Int("cmds", 10_000, "distinct command names")
		present   = flag.Int("present", 70, "percentage of commands with a real definition file [0..100]")
		staleness = flag.Duration("staleness", time.Second, "staleness interval")

		probers  = flag.Int("probers", 2*runtime.GOMAXPROCS(0), "CanLoad goroutines")
		duration = flag.Duration("duration", 10*time.Second, "benchmark duration")

		zipfS = flag.Float64("zipf_s", 1.1, "Zipf s > 1 (skew)")
		zipfV = flag.Float64("zipf_v", 1.0, "Zipf v")
		seed  = flag.Int64("seed", time.Now().UnixNano(), "random seed")

		pprofAddr   = flag.String("pprof", "", "serve pprof at addr (e.g. :6060); empty = disabled")
		metricsAddr = flag.String("http", ":8080", "serve Prometheus metrics at addr")
	)
	flag.Parse()

	// ---- pprof server (on DefaultServeMux) ----
	if *pprofAddr != "" {
		go func() {
			log.Printf("pprof: serving at %s", *pprofAddr)
			log.Println(http.ListenAndServe(*pprofAddr, nil))
		}()
	}

	// ---- Prometheus metrics (on DefaultServeMux) ----
	metrics := pmet.New(nil, "autoload", "bench", nil)
	http.Handle("/metrics", promhttp.Handler())
	go func() {
		log.Printf("metrics: serving at %s", *metricsAddr)
		log.Println(http.ListenAndServe(*metricsAddr, nil))
	}()

	// ---- Build the search directory ----
	dir, err := os.MkdirTemp("", "autoload-bench-*")
	if err != nil {
		log.Fatal(err)
	}
	defer os.RemoveAll(dir)

	names := make([]string, *cmds)
	for i := range names {
		names[i] = "cmd" + strconv.Itoa(i)
		if i%100 < *present {
			path := filepath.Join(dir, names[i]+".fish")
			if err := os.WriteFile(path, []byte("true\n"), 0o644); err != nil {
				log.Fatal(err)
			}
		}
	}

	// ---- Build the loader ----
	env := autoload.Snapshot{"bench_function_path": dir}
	a, ctl := autoload.New(autoload.Options{
		PathVar:           "bench_function_path",
		Suffix:            ".fish",
		Capacity:          *capacity,
		StalenessInterval: *staleness,
		Environ:           env,
		Metrics:           metrics,
	})

	// ---- Snapshot flags for goroutines ----
	cmdsMax := uint64(*cmds - 1)
	seedBase := *seed
	zipfSVal := *zipfS
	zipfVVal := *zipfV
	workersN := *probers
	if workersN <= 0 {
		workersN = 1
	}

	// ---- Load generation ----
	var loads, probes, found uint64
	ctx, cancel := context.WithTimeout(context.Background(), *duration)
	defer cancel()

	start := time.Now()
	var wg sync.WaitGroup

	// One goroutine owns the Control handle.
	wg.Add(1)
	go func() {
		defer wg.Done()

		r := rand.New(rand.NewSource(seedBase))
		zipf := rand.NewZipf(r, zipfSVal, zipfVVal, cmdsMax)

		for {
			select {
			case <-ctx.Done():
				return
			default:
			}

			cmd := names[zipf.Uint64()]
			switch r.Intn(100) {
			case 0:
				ctl.Unload(cmd)
			case 1:
				ctl.Load(ctx, cmd, true)
			default:
				ctl.Load(ctx, cmd, false)
			}
			atomic.AddUint64(&loads, 1)
		}
	}()

	// Probe-only workers.
	wg.Add(workersN)
	for w := 0; w < workersN; w++ {
		go func(id int) {
			defer wg.Done()

			// Each worker gets its own RNG + Zipf (rand.Rand is NOT goroutine-safe).
			localR := rand.New(rand.NewSource(seedBase + int64(id)*9973))
			localZipf := rand.NewZipf(localR, zipfSVal, zipfVVal, cmdsMax)

			for {
				select {
				case <-ctx.Done():
					return
				default:
				}

				cmd := names[localZipf.Uint64()]
				if a.CanLoad(ctx, cmd, env) {
					atomic.AddUint64(&found, 1)
				}
				atomic.AddUint64(&probes, 1)
			}
		}(w)
	}

	wg.Wait()
	elapsed := time.Since(start)

	// ---- Report ----
	loadsN := atomic.LoadUint64(&loads)
	probesN := atomic.LoadUint64(&probes)
	foundN := atomic.LoadUint64(&found)

	foundRate := 0.0
	if probesN > 0 {
		foundRate = float64(foundN) / float64(probesN) * 100
	}

	fmt.Printf("cap=%d cmds=%d present=%d%% probers=%d staleness=%v dur=%v seed=%d\n",
		*capacity, *cmds, *present, workersN, *staleness, elapsed, seedBase)
	fmt.Printf("loads=%d (%.0f/s)  probes=%d (%.0f/s)\n",
		loadsN, float64(loadsN)/elapsed.Seconds(),
		probesN, float64(probesN)/elapsed.Seconds())
	fmt.Printf("found-rate=%.2f%%  Len()=%d\n", foundRate, a.Len())
}
