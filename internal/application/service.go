package application

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/ahrav/go-slate/internal/domain"
	"github.com/ahrav/go-slate/internal/engine"
	"github.com/ahrav/go-slate/internal/grading"
	"github.com/ahrav/go-slate/internal/ports"
)

// Service is the caller-facing facade over a loaded bank: it generates
// instances, renders views, and grades submissions. A Service owns one
// random stream, so a fixed seed reproduces the same instance sequence.
// Service methods are safe for concurrent use only when the underlying
// store is; the random stream itself is not synchronized, so replayable
// runs should generate from a single goroutine.
type Service struct {
	bank      *Bank
	generator *engine.Generator
	store     ports.InstanceStore
	renderer  ports.Renderer
	metrics   ports.MetricsCollector
	tolerance float64
}

// ServiceOption customizes Service construction.
type ServiceOption func(*Service)

// WithTolerance overrides the absolute tolerance applied to numeric
// grading comparisons.
func WithTolerance(tol float64) ServiceOption {
	return func(s *Service) { s.tolerance = tol }
}

// WithMaxAttempts overrides the generation retry budget.
func WithMaxAttempts(n int) ServiceOption {
	return func(s *Service) { s.generator.SetMaxAttempts(n) }
}

// NewService wires a bank to a generator, store, and renderer.
// The rng is the sole random source for all generation; pass
// rand.New(rand.NewSource(seed)) for reproducible runs.
// A nil metrics collector is replaced with a no-op.
func NewService(
	bank *Bank,
	rng *rand.Rand,
	store ports.InstanceStore,
	renderer ports.Renderer,
	metrics ports.MetricsCollector,
	opts ...ServiceOption,
) *Service {
	if metrics == nil {
		metrics = ports.NopMetrics{}
	}
	s := &Service{
		bank:      bank,
		generator: engine.NewGenerator(bank.Families, rng, store, metrics),
		store:     store,
		renderer:  renderer,
		metrics:   metrics,
		tolerance: grading.DefaultTolerance,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateInstance generates one instance of the named family, storing it
// for later rendering and grading.
// CreateInstance returns domain.ErrFamilyNotFound for unknown families,
// domain.ErrPresetNotFound for unknown presets, a configuration error
// when derivation or constraint evaluation is defective, and
// domain.ErrExhaustedRetries when no draw satisfies the constraints
// within the retry budget.
func (s *Service) CreateInstance(ctx context.Context, familyID string, opts engine.GenerateOptions) (*domain.Instance, error) {
	ctx, span := s.startSpan(ctx, "Service.CreateInstance",
		attribute.String("family.id", familyID),
		attribute.String("preset.id", opts.PresetID))
	defer span.End()

	start := time.Now()
	inst, err := s.generator.Generate(familyID, opts)
	s.metrics.RecordLatency("create_instance", time.Since(start), map[string]string{"family": familyID})

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	span.SetAttributes(
		attribute.String("instance.id", inst.ID),
		attribute.String("instance.variant", inst.VariantID))
	span.SetStatus(codes.Ok, "instance created")
	return inst, nil
}

// Grade evaluates a student submission against one view of a stored
// instance.
// Malformed submissions grade as incorrect rather than erroring; Grade
// returns an error only for unknown instances or views, display-only
// views, and bank-authoring defects surfaced by the grader.
func (s *Service) Grade(ctx context.Context, instanceID, viewName string, student any) (grading.Result, error) {
	_, span := s.startSpan(ctx, "Service.Grade",
		attribute.String("instance.id", instanceID),
		attribute.String("view.name", viewName))
	defer span.End()

	inst, view, err := s.lookupView(instanceID, viewName)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return grading.Result{}, err
	}
	if view.Answer == nil {
		err := fmt.Errorf("%w: view %q of family %s is display-only", domain.ErrInvalidConfiguration, viewName, inst.FamilyID)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return grading.Result{}, err
	}

	start := time.Now()
	result, err := grading.Grade(*view.Answer, inst.Environment(), student, s.tolerance)
	s.metrics.RecordLatency("grade", time.Since(start), map[string]string{"family": inst.FamilyID})

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return grading.Result{}, err
	}

	s.metrics.RecordCounter("grading_total", 1, map[string]string{
		"family":  inst.FamilyID,
		"correct": fmt.Sprintf("%t", result.Correct),
	})
	span.SetAttributes(attribute.Bool("grade.correct", result.Correct))
	span.SetStatus(codes.Ok, "graded")
	return result, nil
}

// RenderView fills the named view's prompt template with the
// instance's environment and returns the finished text.
func (s *Service) RenderView(instanceID, viewName string) (string, error) {
	inst, view, err := s.lookupView(instanceID, viewName)
	if err != nil {
		return "", err
	}
	return s.renderer.Render(view.Prompt, inst.Environment()), nil
}

// Environment returns the flat name-to-value binding of a stored
// instance: sampled parameters and derived values together. The map is
// a fresh copy; callers may mutate it freely.
func (s *Service) Environment(instanceID string) (map[string]float64, error) {
	inst, ok := s.store.Get(instanceID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrInstanceNotFound, instanceID)
	}
	return inst.Environment(), nil
}

// Bank returns the loaded bank backing this service.
func (s *Service) Bank() *Bank { return s.bank }

// lookupView resolves an instance ID and view name to the stored
// instance and its effective view, honoring variant view replacement.
func (s *Service) lookupView(instanceID, viewName string) (*domain.Instance, domain.View, error) {
	inst, ok := s.store.Get(instanceID)
	if !ok {
		return nil, domain.View{}, fmt.Errorf("%w: %s", domain.ErrInstanceNotFound, instanceID)
	}

	fam, ok := s.bank.Families[inst.FamilyID]
	if !ok {
		return nil, domain.View{}, fmt.Errorf("%w: %s", domain.ErrFamilyNotFound, inst.FamilyID)
	}

	views := fam.Views
	if inst.VariantID != "" {
		for i := range fam.Variants {
			if fam.Variants[i].ID == inst.VariantID && len(fam.Variants[i].Views) > 0 {
				views = fam.Variants[i].Views
				break
			}
		}
	}

	view, ok := views[viewName]
	if !ok {
		return nil, domain.View{}, fmt.Errorf("%w: family %s has no view %q", domain.ErrViewNotFound, inst.FamilyID, viewName)
	}
	return inst, view, nil
}

func (s *Service) startSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	tracer := otel.Tracer("question-bank-service")
	ctx, span := tracer.Start(ctx, name)
	span.SetAttributes(attrs...)
	return ctx, span
}
