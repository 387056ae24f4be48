// Package testutils provides shared fixtures and dataset helpers for
// exercising the question engine in tests and tooling.
package testutils

import (
	"context"
	"fmt"
	"strings"

	"github.com/ahrav/go-slate/internal/application"
)

// SampleBankYAML is a small self-contained question bank used by tests
// and the practice-set generator when no bank file is supplied.
const SampleBankYAML = `
version: "1.0.0"
metadata:
  name: sample
  description: Built-in sample bank covering the supported answer kinds.
  tags: [sample, algebra]
families:
  QF.int_roots:
    params:
      r1: {int: [-9, 9], exclude: [0]}
      r2: {int: [-9, 9], exclude: [0]}
    pick_order: [r1, r2]
    derive:
      sum: "r1 + r2"
      prod: "r1 * r2"
    constraints: ["r1 != r2"]
    views:
      question:
        prompt: "Solve x**2 - {{sum}}x + {{prod}} = 0"
        answer: {kind: roots_set, of: [r1, r2]}
    presets:
      - id: golden
        params: {r1: 2, r2: 3}
  AR.sum:
    params:
      a: {int: [1, 50]}
      b: {int: [1, 50]}
    derive:
      total: "a + b"
    views:
      question:
        prompt: "What is {{a}} + {{b}}?"
        answer: {kind: numeric, of: [total]}
  AR.division:
    params:
      n: {int: [-40, 40], exclude: [0]}
      d: {int: [2, 9]}
    derive:
      quot: "n // d"
      rem: "n % d"
    views:
      question:
        prompt: "Compute the floor quotient and remainder of {{n}} divided by {{d}}."
        answer: {kind: tuple, of: [quot, rem]}
`

// LoadSampleBank compiles the built-in sample bank.
func LoadSampleBank(ctx context.Context) (*application.Bank, error) {
	loader, err := application.NewBankLoader()
	if err != nil {
		return nil, fmt.Errorf("failed to create loader: %w", err)
	}
	bank, err := loader.LoadFromReader(ctx, strings.NewReader(SampleBankYAML))
	if err != nil {
		return nil, fmt.Errorf("failed to load sample bank: %w", err)
	}
	return bank, nil
}
