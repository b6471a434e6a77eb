// Command terrainprobe prints terrain samples and the chunk set a viewpoint
// would stream, without opening a window.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"sort"
	"text/tabwriter"

	"flightsim/internal/logger"
	"flightsim/pkg/config"
	"flightsim/pkg/sim"
)

func main() {
	configPath := flag.String("config", "", "Path to configuration file (defaults when empty)")
	seed := flag.Int64("seed", 0, "Terrain seed (overrides the config)")
	x := flag.Float64("x", 0, "Viewpoint X")
	z := flag.Float64("z", 0, "Viewpoint Z")
	radius := flag.Float64("radius", 1024, "Sampling radius around the viewpoint")
	steps := flag.Int("steps", 4, "Samples per side of the radius")
	flag.Parse()

	cfg := config.DefaultConfig()
	if *configPath != "" {
		var err error
		if cfg, err = config.LoadConfig(*configPath); err != nil {
			log.Fatalf("Failed to load configuration: %v", err)
		}
	}
	flag.Visit(func(f *flag.Flag) {
		if f.Name == "seed" {
			cfg.Noise.Seed = *seed
		}
	})
	if err := cfg.Validate(); err != nil {
		log.Fatal(err)
	}

	hf, err := sim.NewHeightField(cfg)
	if err != nil {
		log.Fatal(err)
	}
	store, err := sim.NewChunkStore(cfg, hf, logger.NewLogger("warn"))
	if err != nil {
		log.Fatal(err)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(w, "x\tz\theight\tinfluence\tr\tg\tb\t")
	if *steps < 1 {
		*steps = 1
	}
	step := *radius / float64(*steps)
	for i := -*steps; i <= *steps; i++ {
		for j := -*steps; j <= *steps; j++ {
			sx, sz := *x+float64(j)*step, *z+float64(i)*step
			s := hf.At(sx, sz)
			fmt.Fprintf(w, "%.0f\t%.0f\t%.2f\t%.3f\t%.2f\t%.2f\t%.2f\t\n",
				sx, sz, s.Height, s.Influence, s.Color.R, s.Color.G, s.Color.B)
		}
	}
	w.Flush()

	required := store.Required(*x, *z)
	histogram := make(map[int]int)
	for _, res := range required {
		histogram[res]++
	}
	resolutions := make([]int, 0, len(histogram))
	for res := range histogram {
		resolutions = append(resolutions, res)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(resolutions)))

	fmt.Printf("\nviewpoint (%.0f, %.0f) in chunk %s: %d chunks within %.1f m\n",
		*x, *z, store.KeyAt(*x, *z), len(required), store.ViewDistance())
	for _, res := range resolutions {
		fmt.Printf("  resolution %3d: %d chunks\n", res, histogram[res])
	}
}
