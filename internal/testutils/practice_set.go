package testutils

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/ahrav/go-slate/infrastructure/render"
	"github.com/ahrav/go-slate/internal/application"
	"github.com/ahrav/go-slate/internal/domain"
	"github.com/ahrav/go-slate/internal/engine"
)

// PracticeItem is one generated question: the rendered prompt plus the
// full instance environment, which carries the values an answer key
// needs.
type PracticeItem struct {
	InstanceID  string             `json:"instance_id"`
	FamilyID    string             `json:"family_id"`
	VariantID   string             `json:"variant_id,omitempty"`
	View        string             `json:"view"`
	Prompt      string             `json:"prompt"`
	Environment map[string]float64 `json:"environment"`
}

// PracticeSetMetadata describes how a practice set was produced.
type PracticeSetMetadata struct {
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Seed        int64     `json:"seed"`
	GeneratedAt time.Time `json:"generated_at"`
}

// PracticeSet is a generated batch of questions ready for export.
type PracticeSet struct {
	Metadata PracticeSetMetadata `json:"metadata"`
	Items    []PracticeItem      `json:"items"`
}

// PracticeSetStatistics summarizes a generated practice set.
type PracticeSetStatistics struct {
	TotalItems  int
	FamilyCount map[string]int
}

// GeneratePracticeSet produces perFamily instances of every family in
// the bank, rendering each gradeable view of each instance. The same
// bank and seed always produce the same set.
func GeneratePracticeSet(ctx context.Context, bank *application.Bank, seed int64, perFamily int) (*PracticeSet, error) {
	if perFamily < 1 {
		return nil, fmt.Errorf("perFamily must be at least 1, got %d", perFamily)
	}

	rng := rand.New(rand.NewSource(seed))
	svc := application.NewService(bank, rng, engine.NewMemoryStore(), render.NewTemplateRenderer(), nil)

	set := &PracticeSet{
		Metadata: PracticeSetMetadata{
			Name:        bank.Metadata.Name,
			Description: bank.Metadata.Description,
			Seed:        seed,
			GeneratedAt: time.Now().UTC(),
		},
	}

	for _, familyID := range bank.FamilyIDs() {
		fam := bank.Families[familyID]
		for i := 0; i < perFamily; i++ {
			inst, err := svc.CreateInstance(ctx, familyID, engine.GenerateOptions{})
			if err != nil {
				return nil, fmt.Errorf("family %s item %d: %w", familyID, i, err)
			}

			views := fam.Views
			if inst.VariantID != "" {
				for v := range fam.Variants {
					if fam.Variants[v].ID == inst.VariantID && len(fam.Variants[v].Views) > 0 {
						views = fam.Variants[v].Views
						break
					}
				}
			}

			for _, viewName := range sortedViewNames(views) {
				if views[viewName].Answer == nil {
					continue
				}
				prompt, err := svc.RenderView(inst.ID, viewName)
				if err != nil {
					return nil, fmt.Errorf("family %s view %s: %w", familyID, viewName, err)
				}
				set.Items = append(set.Items, PracticeItem{
					InstanceID:  inst.ID,
					FamilyID:    familyID,
					VariantID:   inst.VariantID,
					View:        viewName,
					Prompt:      prompt,
					Environment: inst.Environment(),
				})
			}
		}
	}

	return set, nil
}

// SavePracticeSet writes a practice set as indented JSON, creating
// parent directories as needed.
func SavePracticeSet(set *PracticeSet, path string) error {
	data, err := json.MarshalIndent(set, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal practice set: %w", err)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write practice set: %w", err)
	}
	return nil
}

// ComputePracticeSetStatistics tallies the items in a practice set.
func ComputePracticeSetStatistics(set *PracticeSet) PracticeSetStatistics {
	stats := PracticeSetStatistics{
		TotalItems:  len(set.Items),
		FamilyCount: make(map[string]int),
	}
	for _, item := range set.Items {
		stats.FamilyCount[item.FamilyID]++
	}
	return stats
}

func sortedViewNames(views map[string]domain.View) []string {
	names := make([]string, 0, len(views))
	for name := range views {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
