package main

import (
	"flag"
	"fmt"
	"os"
	"runtime"
	"slices"
	"sort"
	"sync"
	"time"

	"gpu-life/internal/compute"
	_ "gpu-life/internal/compute/opencl"
	_ "gpu-life/internal/compute/soft"
	"gpu-life/internal/core"
	"gpu-life/internal/telemetry"
	"gpu-life/pkg/sims/life"
)

type scenario struct {
	size    core.Size
	workers int
}

func (s scenario) String() string {
	return fmt.Sprintf("%dx%d workers=%d", s.size.W, s.size.H, s.workers)
}

type scenarioResult struct {
	scenario scenario
	groups   core.Size
	stats    telemetry.Stats
	mismatch int
	// lastDrop is the cause of the most recent dropped step.
	lastDrop error
	err      error
}

func main() {
	steps := flag.Int("steps", 120, "steps to run per scenario")
	workers := flag.Int("workers", 1, "scenarios run at once (1 keeps timings clean)")
	backendName := flag.String("backend", "soft", "compute backend")
	verify := flag.Bool("verify", true, "compare every step against the host reference")
	seed := flag.Int64("seed", 1337, "board seed")
	flag.Parse()

	factory, ok := compute.Backends()[*backendName]
	if !ok {
		fmt.Fprintf(os.Stderr, "unknown backend %q\n", *backendName)
		os.Exit(2)
	}

	sizes := []core.Size{{W: 64, H: 32}, {W: 100, H: 50}, {W: 256, H: 160}, {W: 512, H: 320}, {W: 1024, H: 640}}
	deviceWorkers := []int{1, 2, runtime.NumCPU()}

	var sets []scenario
	for _, size := range sizes {
		for _, w := range deviceWorkers {
			sets = append(sets, scenario{size: size, workers: w})
		}
	}

	fmt.Printf("Sweeping %d scenarios on %s (%d at once, %d steps)\n", len(sets), *backendName, *workers, *steps)

	jobs := make(chan scenario)
	results := make(chan scenarioResult)
	var wg sync.WaitGroup

	for i := 0; i < *workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for sc := range jobs {
				backend := factory(compute.BackendOptions{Workers: sc.workers})
				results <- runScenario(backend, sc, *steps, *seed, *verify)
			}
		}()
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	go func() {
		for _, sc := range sets {
			jobs <- sc
		}
		close(jobs)
	}()

	start := time.Now()
	var all []scenarioResult
	failed := 0
	for res := range results {
		if res.err != nil {
			failed++
			fmt.Printf("%s: %v\n", res.scenario, res.err)
			continue
		}
		if res.mismatch > 0 {
			failed++
			fmt.Printf("%s: %d steps differ from the reference\n", res.scenario, res.mismatch)
		}
		all = append(all, res)
	}

	sort.Slice(all, func(i, j int) bool {
		return cellsPerSecond(all[i]) > cellsPerSecond(all[j])
	})
	elapsed := time.Since(start)

	fmt.Printf("\nResults by throughput (elapsed %s):\n", elapsed.Round(time.Millisecond))
	for i, res := range all {
		fmt.Printf("%2d) %-26s groups=%dx%d mean=%.0fus p95=%.0fus max=%.0fus dropped=%d cells/s=%.3g\n",
			i+1, res.scenario, res.groups.W, res.groups.H, res.stats.MeanStepUS, res.stats.P95StepUS,
			res.stats.MaxStepUS, res.stats.Dropped, cellsPerSecond(res))
		if res.lastDrop != nil {
			fmt.Printf("    last drop: %v\n", res.lastDrop)
		}
	}
	if failed > 0 {
		os.Exit(1)
	}
}

func runScenario(backend compute.Backend, sc scenario, steps int, seed int64, verify bool) scenarioResult {
	res := scenarioResult{scenario: sc}
	col := telemetry.NewCollector(steps)

	eng, err := compute.New(backend, sc.size.W, sc.size.H,
		compute.WithDropHandler(func(err error) { res.lastDrop = err }))
	if err != nil {
		res.err = err
		return res
	}
	defer eng.Close()
	res.groups = eng.Geometry().Groups

	grid := core.NewGrid(sc.size.W, sc.size.H, core.NewRNG(seed))
	cur := grid.Cells()
	for i := 0; i < steps; i++ {
		t0 := time.Now()
		next := eng.Step(cur)
		if &next[0] == &cur[0] {
			col.RecordDrop()
			continue
		}
		col.RecordStep(time.Since(t0))
		if verify && !slices.Equal(next, life.Step(cur, sc.size.W, sc.size.H)) {
			res.mismatch++
		}
		cur = next
	}
	res.stats = col.Stats()
	return res
}

func cellsPerSecond(res scenarioResult) float64 {
	if res.stats.MeanStepUS <= 0 {
		return 0
	}
	return float64(res.scenario.size.Area()) / (res.stats.MeanStepUS / 1e6)
}
