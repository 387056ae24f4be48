package application

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/go-playground/validator/v10"
	"golang.org/x/sync/singleflight"
	"gopkg.in/yaml.v3"

	"github.com/ahrav/go-slate/internal/domain"
)

// Bank is a compiled question bank: the validated family set plus the
// metadata it was authored with. Banks are immutable after loading and
// safe to share across services.
type Bank struct {
	// Metadata carries the bank's descriptive information.
	Metadata Metadata
	// Families maps family IDs to their compiled domain form.
	Families map[string]*domain.Family
}

// FamilyIDs returns the bank's family identifiers in sorted order.
func (b *Bank) FamilyIDs() []string {
	ids := make([]string, 0, len(b.Families))
	for id := range b.Families {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// BankLoader provides YAML parsing, validation, and caching for
// question banks, transforming declarative YAML documents into
// compiled family sets ready for generation.
// Use BankLoader to load banks from files or readers while benefiting
// from SHA256-based caching and comprehensive validation.
type BankLoader struct {
	// validator performs struct field validation for bank
	// configurations and their nested components.
	validator *validator.Validate
	// cache stores compiled banks indexed by SHA256 hash of the
	// normalized source YAML to avoid recompiling identical documents.
	// Cached banks MUST NOT be mutated.
	cache map[string]*Bank
	// cacheMu provides thread-safe access to the cache map during
	// concurrent read and write operations.
	cacheMu sync.RWMutex
	// sf prevents duplicate bank compilation when multiple goroutines
	// request the same bank simultaneously.
	sf singleflight.Group
}

// NewBankLoader creates a bank loader with validation capabilities and
// an empty cache.
// NewBankLoader returns an error if validator registration fails.
func NewBankLoader() (*BankLoader, error) {
	v := validator.New()

	if err := registerCustomValidators(v); err != nil {
		return nil, fmt.Errorf("failed to register validators: %w", err)
	}

	return &BankLoader{
		validator: v,
		cache:     make(map[string]*Bank),
	}, nil
}

// load is the common implementation for loading banks from byte data,
// utilizing singleflight to prevent duplicate compilation and
// SHA256-based caching for efficiency.
func (bl *BankLoader) load(ctx context.Context, data []byte) (*Bank, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Parse YAML first to normalize it before hashing.
	config, err := bl.parseYAML(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	hash, err := bl.calculateConfigHash(config)
	if err != nil {
		return nil, fmt.Errorf("failed to calculate hash: %w", err)
	}

	v, err, _ := bl.sf.Do(hash, func() (any, error) {
		// Check cache inside singleflight to handle the race between
		// the cache check and singleflight group execution.
		if bank, ok := bl.getCachedBank(hash); ok {
			return bank, nil
		}

		if err := bl.validateConfig(config); err != nil {
			return nil, fmt.Errorf("validation failed: %w", err)
		}

		families, err := config.compile()
		if err != nil {
			return nil, fmt.Errorf("failed to compile bank: %w", err)
		}
		bank := &Bank{Metadata: config.Metadata, Families: families}

		bl.cacheBank(hash, bank)

		return bank, nil
	})

	if err != nil {
		return nil, err
	}

	return v.(*Bank), nil
}

// LoadFromFile loads and compiles a question bank from a YAML file,
// utilizing SHA256-based caching to avoid recompiling identical files.
// LoadFromFile returns an error if file reading, parsing, validation,
// or compilation fails.
func (bl *BankLoader) LoadFromFile(ctx context.Context, path string) (*Bank, error) {
	// Clean the path to prevent directory traversal attacks.
	cleanPath := filepath.Clean(path)

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	return bl.load(ctx, data)
}

// LoadFromReader loads and compiles a question bank from an io.Reader,
// supporting any source that implements the Reader interface.
// LoadFromReader returns an error if reading, parsing, validation, or
// compilation fails.
func (bl *BankLoader) LoadFromReader(ctx context.Context, r io.Reader) (*Bank, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read data: %w", err)
	}

	return bl.load(ctx, data)
}

// parseYAML unmarshals YAML byte data into a structured BankConfig.
// parseYAML uses strict decoding to detect unknown fields, preventing
// configuration typos from being silently ignored.
func (bl *BankLoader) parseYAML(data []byte) (*BankConfig, error) {
	var config BankConfig
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true) // Strict mode - fail on unknown fields.

	if err := decoder.Decode(&config); err != nil {
		return nil, fmt.Errorf("YAML decode failed: %w", err)
	}
	return &config, nil
}

// validateConfig performs comprehensive validation on a parsed bank
// configuration: struct field validation followed by the semantic
// rules struct tags cannot express.
func (bl *BankLoader) validateConfig(config *BankConfig) error {
	if err := bl.validator.Struct(config); err != nil {
		return fmt.Errorf("struct validation failed: %w", err)
	}

	// Validate families in sorted order so the first error reported
	// for a defective bank is deterministic.
	ids := make([]string, 0, len(config.Families))
	for id := range config.Families {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		if err := validateFamilySemantics(id, config.Families[id]); err != nil {
			return fmt.Errorf("semantic validation failed: %w", err)
		}
	}

	return nil
}

// calculateConfigHash computes the SHA256 hash of a normalized
// BankConfig for cache indexing, so semantically identical documents
// produce the same hash regardless of whitespace or key ordering.
func (bl *BankLoader) calculateConfigHash(config *BankConfig) (string, error) {
	var buf bytes.Buffer
	encoder := yaml.NewEncoder(&buf)
	encoder.SetIndent(2)

	if err := encoder.Encode(config); err != nil {
		return "", fmt.Errorf("failed to encode config for hashing: %w", err)
	}

	hash := sha256.Sum256(buf.Bytes())
	return hex.EncodeToString(hash[:]), nil
}

// getCachedBank retrieves a previously compiled bank by hash.
// getCachedBank is safe for concurrent use.
func (bl *BankLoader) getCachedBank(hash string) (*Bank, bool) {
	bl.cacheMu.RLock()
	defer bl.cacheMu.RUnlock()

	bank, ok := bl.cache[hash]
	return bank, ok
}

// cacheBank stores a compiled bank indexed by its source hash.
// cacheBank is safe for concurrent use.
func (bl *BankLoader) cacheBank(hash string, bank *Bank) {
	bl.cacheMu.Lock()
	defer bl.cacheMu.Unlock()

	bl.cache[hash] = bank
}

// ClearCache removes all cached banks, forcing subsequent loads to
// recompile from source.
// ClearCache is safe for concurrent use.
func (bl *BankLoader) ClearCache() {
	bl.cacheMu.Lock()
	defer bl.cacheMu.Unlock()

	bl.cache = make(map[string]*Bank)
}
