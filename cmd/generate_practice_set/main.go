package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"sort"
	"time"

	"github.com/ahrav/go-slate/internal/application"
	"github.com/ahrav/go-slate/internal/testutils"
)

func main() {
	var (
		bankPath   = flag.String("bank", "", "Question bank YAML file (built-in sample bank when empty)")
		perFamily  = flag.Int("per-family", 5, "Number of instances to generate per family")
		seed       = flag.Int64("seed", time.Now().UnixNano(), "Random seed; fix it to reproduce a set")
		outputPath = flag.String("output", "testdata/practice_set/sample_practice_set.json", "Output file path")
	)
	flag.Parse()

	ctx := context.Background()

	var (
		bank *application.Bank
		err  error
	)
	if *bankPath != "" {
		var loader *application.BankLoader
		loader, err = application.NewBankLoader()
		if err == nil {
			bank, err = loader.LoadFromFile(ctx, *bankPath)
		}
	} else {
		bank, err = testutils.LoadSampleBank(ctx)
	}
	if err != nil {
		log.Fatalf("Failed to load bank: %v", err)
	}

	set, err := testutils.GeneratePracticeSet(ctx, bank, *seed, *perFamily)
	if err != nil {
		log.Fatalf("Failed to generate practice set: %v", err)
	}

	if err := testutils.SavePracticeSet(set, *outputPath); err != nil {
		log.Fatalf("Failed to save practice set: %v", err)
	}

	stats := testutils.ComputePracticeSetStatistics(set)

	fmt.Printf("Generated practice set:\n")
	fmt.Printf("- Path: %s\n", *outputPath)
	fmt.Printf("- Seed: %d\n", *seed)
	fmt.Printf("- Total items: %d\n", stats.TotalItems)

	families := make([]string, 0, len(stats.FamilyCount))
	for id := range stats.FamilyCount {
		families = append(families, id)
	}
	sort.Strings(families)
	for _, id := range families {
		fmt.Printf("- %s: %d items\n", id, stats.FamilyCount[id])
	}
	fmt.Printf("\nPractice set saved successfully!\n")
}
