//go:build go1.18
// +build go1.18

package application

import (
	"context"
	"strings"
	"testing"
)

// FuzzBankLoader_LoadFromReader tests the YAML parsing and validation
// logic of the BankLoader with random inputs. It aims to uncover
// panics or crashes when loading a wide variety of potentially
// malformed or hostile bank documents.
func FuzzBankLoader_LoadFromReader(f *testing.F) {
	// Seed corpus mixing valid banks with common authoring mistakes.
	testcases := []string{
		// Valid minimal bank.
		`version: "1.0.0"
metadata:
  name: "test"
families:
  F1:
    params:
      n: {int: [1, 5]}
    views:
      q:
        prompt: "What is {{n}}?"
        answer: {kind: numeric, of: [n]}`,

		// Invalid YAML syntax.
		`version: "1.0.0
metadata:
  name: test"`,

		// Missing required fields.
		`metadata:
  name: "test"
families: {}`,

		// Invalid structure.
		`version: 1
metadata: "invalid"
families: "should be map"`,

		// Malformed YAML.
		`version: "1.0.0"
metadata:
  name: [[[[[
families:
  F1: {{{{{`,

		// Expression fields carrying hostile text.
		`version: "1.0.0"
metadata:
  name: "hostile"
families:
  F1:
    params:
      n: {int: [1, 5]}
    derive:
      d: "__import__('os').system('true')"
    views:
      q: {prompt: "p"}`,

		// Unicode and special characters.
		`version: "1.0.0"
metadata:
  name: "测试 🚀 тест"
  description: "Multi-line\nstring with\ttabs"
families:
  F1:
    params:
      n: {choices: [1]}
    views:
      q: {prompt: "{{n}}"}`,

		// Extreme numbers in ranges and choices.
		`version: "999999999.0.0"
metadata:
  name: "x"
families:
  F1:
    params:
      n: {int: [-99999999999, 99999999999]}
      c: {choices: [1.7976931348623157e+308, -0.0]}
    views:
      q: {prompt: "p"}`,
	}

	for _, tc := range testcases {
		f.Add(tc)
	}

	loader, err := NewBankLoader()
	if err != nil {
		f.Fatal(err)
	}

	f.Fuzz(func(t *testing.T, yamlInput string) {
		// Loading must never panic, whatever the document contains.
		reader := strings.NewReader(yamlInput)
		bank, err := loader.LoadFromReader(context.Background(), reader)

		// If loading succeeded, the compiled bank must be usable.
		if err == nil && bank != nil {
			_ = bank.FamilyIDs()
		}

		// Clear the cache periodically to avoid memory growth during fuzzing.
		loader.ClearCache()
	})
}
