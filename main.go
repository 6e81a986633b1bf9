package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"runtime"
	"slices"
	"strings"
	"time"

	"github.com/facette/natsort"
	"github.com/wildstyl3r/lxgata"

	"github.com/wildstyl3r/remc/internal/config"
	"github.com/wildstyl3r/remc/internal/output"
	"github.com/wildstyl3r/remc/internal/sim"
	"github.com/wildstyl3r/remc/internal/utils"
)

func main() {
	dataFlags := output.NewDataFlags(flag.CommandLine)
	var configFileNamePointer = flag.String("input", "air", "model configuration in toml format")
	var verbose = flag.Bool("v", false, "print progress")
	var threads = flag.Int("threads", runtime.NumCPU(), "number of runs computed in parallel")
	var logLevel = flag.String("log", "info", "log level: debug, info, warn or error")
	flag.Parse()

	var level slog.Level
	if err := level.UnmarshalText([]byte(*logLevel)); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	startTime := time.Now()
	fmt.Printf("Current time: %s\n", startTime.UTC().Format(time.UnixDate))

	configFileName := strings.TrimSuffix(*configFileNamePointer, ".toml")
	conf, meta, err := config.LoadConfig(configFileName)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if len(conf.Models) == 0 {
		fmt.Println("No models provided")
		os.Exit(0)
	}

	if conf.OutputDir != "" && conf.OutputDir != "." {
		if err := os.MkdirAll(conf.OutputDir, 0750); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		dataFlags.SetOutputPath(conf.OutputDir)
	}

	modelNames := make([]string, 0, len(conf.Models))
	for modelName := range conf.Models {
		modelNames = append(modelNames, modelName)
	}
	slices.SortFunc(modelNames, func(a, b string) int {
		if natsort.Compare(a, b) {
			return -1
		}
		if natsort.Compare(b, a) {
			return 1
		}
		return 0
	})

	crossSections := map[string]lxgata.Collisions{}
	var summary utils.CSV
	var summaryColumns []string
	failed := false
	for _, modelName := range modelNames {
		fmt.Println("\n" + modelName)
		parameters := conf.Models[modelName]
		if err := parameters.CheckAndUnify(modelName, &conf, &meta); err != nil {
			fmt.Fprintln(os.Stderr, err)
			failed = true
			continue
		}
		parameters.SetVerbosity(*verbose)
		parameters.SetThreads(*threads)

		if parameters.CrossSections != "" {
			collisions, loaded := crossSections[parameters.CrossSections]
			if !loaded {
				collisions, err = lxgata.LoadCrossSections(parameters.CrossSections)
				if err != nil {
					fmt.Fprintln(os.Stderr, fmt.Errorf("invalid cross section file: %w", err))
					failed = true
					continue
				}
				crossSections[parameters.CrossSections] = collisions
			}
			parameters.SetCrossSectionsData(collisions)
		}

		m, err := sim.NewModel(modelName, parameters)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			failed = true
			continue
		}
		ensemble, results, err := m.Run(dataFlags.Recorders(m))
		if err != nil {
			slog.Error("model finished with errors", slog.String("model", modelName), slog.Any("error", err))
			failed = true
		}
		if ensemble.Runs() == 0 {
			continue
		}

		de := output.NewDataExtractor(m, ensemble, results)
		if err := de.Save(dataFlags); err != nil {
			fmt.Fprintln(os.Stderr, err)
			failed = true
		}
		if summaryColumns == nil {
			summaryColumns = dataFlags.SummaryColumns(parameters.OutputUnits())
		}
		summary = append(summary, de.Summary(dataFlags))
	}

	if len(summary) > 0 {
		err := utils.WriteAsCSV(summary, false, dataFlags.OutputPath(), "summary", configFileName, summaryColumns)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			failed = true
		}
	}

	fmt.Printf("Elapsed time: %v\n", time.Since(startTime))
	if failed {
		os.Exit(1)
	}
}
