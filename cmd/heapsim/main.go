package main

import (
	"flag"
	"log"

	"github.com/genc-murat/heapscope/config"
	"github.com/genc-murat/heapscope/internal/app"
	"github.com/genc-murat/heapscope/internal/storage"
)

var (
	configPath = flag.String("config", "", "path to a YAML config file (defaults baked in)")
	outputPath = flag.String("out", "", "override the CSV output path from the config")
)

func main() {
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatal(err)
	}
	if *outputPath != "" {
		cfg.Output.Path = *outputPath
	}

	sim, err := app.NewSimulation(cfg)
	if err != nil {
		log.Fatal(err)
	}

	log.Printf("Running memory simulation for %d timesteps...", cfg.Simulation.Steps)
	series := sim.Run()

	sink := storage.NewCSVSink(cfg.Output.Path, cfg.Output.LockFile)
	if err := sink.Write(series.Records()); err != nil {
		// The series survives in memory; only persistence failed.
		log.Printf("could not write %s: %v", cfg.Output.Path, err)
		return
	}
	log.Printf("Wrote %d records to %s", series.Len(), cfg.Output.Path)
}
