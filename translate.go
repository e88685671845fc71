// Package translate is the public entry point of the wasm2jvm
// translator (spec.md §1–§2): it turns a parsed, validated WASM module
// into the class descriptors a downstream serializer packages into a
// deployable archive. Everything else in this repository — internal/ir,
// internal/translator, internal/emitter, internal/binder,
// internal/assemble — is reached through Translate; callers never
// import those packages directly, the same shape wazero's own
// RuntimeConfig/Runtime pair presents over internal/wasm and
// internal/engine.
package translate

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/wasm2jvm/translator/internal/assemble"
	"github.com/wasm2jvm/translator/internal/diag"
	"github.com/wasm2jvm/translator/internal/features"
	"github.com/wasm2jvm/translator/internal/jvm"
	"github.com/wasm2jvm/translator/internal/layout"
	"github.com/wasm2jvm/translator/internal/wasm"
)

// FeatureSet gates which optional WASM proposals a translation accepts
// (SPEC_FULL §C.1); re-exported so callers never import internal/features
// directly.
type FeatureSet = features.Set

// Feature flags, re-exported from internal/features.
const (
	FeatureSignExtension        = features.SignExtension
	FeatureSaturatingTruncation = features.SaturatingTruncation
	FeatureReferenceTypes       = features.ReferenceTypes
	FeatureMultiValue           = features.MultiValue

	// FeaturesAll is the DESIGN.md-fixed default target: WASM 1.0 plus
	// sign-extension, saturating-truncation, multi-value, and
	// reference-types (the exact proposal set wazero itself ships).
	FeaturesAll  = features.All
	FeaturesNone = features.None
)

// Kind classifies a fatal translation-time error (spec.md §7.1).
type Kind = diag.Kind

// Translation-error kinds, re-exported from internal/diag.
const (
	KindSignatureTooWide       = diag.KindSignatureTooWide
	KindLimitExceeded          = diag.KindLimitExceeded
	KindUnsupportedInstruction = diag.KindUnsupportedInstruction
	KindInvariant              = diag.KindInvariant
)

// Error is a structured, fatal translation-time diagnostic (spec.md §7.1).
// Use errors.As to recover one from Translate's returned error — when
// several functions fail independently in one translation, the returned
// error is a go.uber.org/multierr aggregate and errors.As/Is still finds
// each *Error inside it.
type Error = diag.Error

// Diagnostic is a non-fatal observation surfaced alongside a translation
// (SPEC_FULL §C.2): the only one produced notes a memory or table whose
// declared maximum projects past the 2^31-1 limit while its minimum does
// not. Unlike Error, a Diagnostic never fails the translation.
type Diagnostic = diag.Diagnostic

// Output is everything Translate produces for one module: the main
// module class, every carrier class it references, the shared trap
// helper class, and the non-fatal diagnostics gathered along the way
// (spec.md §6 "an ordered collection of class descriptors").
type Output struct {
	MainClass      *jvm.ClassDescriptor
	CarrierClasses []*jvm.ClassDescriptor
	TrapsHelper    *jvm.ClassDescriptor
	NaNHelper      *jvm.ClassDescriptor

	// CarrierClassesPlanned/CarrierClassesReused report the Name & Layout
	// Planner's structural-dedup outcome (SPEC_FULL §C.3): how many
	// distinct carrier shapes were planned vs. how many exports/entities
	// reused an already-planned class.
	CarrierClassesPlanned int
	CarrierClassesReused  int

	Diagnostics []Diagnostic
}

// config is the resolved state of every Option.
type config struct {
	base      string
	logger    *zap.Logger
	features  FeatureSet
	cacheSize int
}

// Option configures a Translate call, the same functional-options shape
// wazero's own RuntimeConfig uses.
type Option func(*config)

// WithBaseName sets the main module class's base name (spec.md §4.2).
// Defaults to "Module" if never set.
func WithBaseName(base string) Option {
	return func(c *config) { c.base = base }
}

// WithLogger sets the *zap.Logger Translate reports to (SPEC_FULL §A.1):
// its start and assembled events at Debug, a rejected feature-gated
// construct at Warn, and an assembly failure at Error. The internal
// pipeline stages do not log. Defaults to zap.NewNop(), so library use
// is silent unless a caller opts in.
func WithLogger(logger *zap.Logger) Option {
	return func(c *config) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithFeatures sets which optional WASM proposals are accepted
// (SPEC_FULL §C.1). Defaults to FeaturesAll.
func WithFeatures(fs FeatureSet) Option {
	return func(c *config) { c.features = fs }
}

// WithCarrierCacheSize bounds the Name & Layout Planner's shape→class LRU
// cache (SPEC_FULL §B). 0 or negative selects layout.DefaultCacheSize.
func WithCarrierCacheSize(size int) Option {
	return func(c *config) { c.cacheSize = size }
}

func defaultConfig() config {
	return config{base: "Module", logger: zap.NewNop(), features: FeaturesAll, cacheSize: layout.DefaultCacheSize}
}

// Translate ingests a validated WASM module (spec.md §6 "Input") and
// produces an Output ready for a class-file serializer. Translation is
// synchronous, single-threaded, and non-suspending (spec.md §5): no
// blocking I/O occurs inside Translate, and the same *wasm.Module may be
// translated concurrently from multiple goroutines since Translate
// allocates all of its own state per call.
//
// The returned error is nil on success. On failure it is either a single
// *Error or a go.uber.org/multierr aggregate of several (when more than
// one function independently failed to compile, SPEC_FULL §A.2) —
// errors.As(err, &translateErr) recovers individual *Error values either
// way.
func Translate(module *wasm.Module, opts ...Option) (*Output, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	log := cfg.logger.With(zap.String("base", cfg.base))
	log.Debug("translate: starting", zap.Int("functions", len(module.Functions)), zap.Int("memories", len(module.Memories)),
		zap.Int("tables", len(module.Tables)), zap.Int("globals", len(module.Globals)))

	if err := features.Validate(module, cfg.features); err != nil {
		log.Warn("translate: feature-gated construct rejected", zap.Error(err))
		return nil, err
	}

	out, err := assemble.Assemble(module, cfg.base, cfg.cacheSize)
	if err != nil {
		log.Error("translate: assembly failed", zap.Error(err))
		return nil, err
	}
	log.Debug("translate: assembled",
		zap.Int("carrierClasses", len(out.CarrierClasses)),
		zap.String("mainClass", out.MainClass.Name))

	return &Output{
		MainClass:             out.MainClass,
		CarrierClasses:        out.CarrierClasses,
		TrapsHelper:           out.TrapsHelper,
		NaNHelper:             out.NaNHelper,
		CarrierClassesPlanned: out.CarrierClassesPlanned,
		CarrierClassesReused:  out.CarrierClassesReused,
		Diagnostics:           buildDiagnostics(module, out),
	}, nil
}

// buildDiagnostics derives SPEC_FULL §C.2/§C.3's non-fatal diagnostics
// from a completed assembly: a per-memory/table note when its declared
// maximum exceeds the 2^31-1
// projection limit but its minimum did not (DESIGN.md's Open Question
// decision: accepted at translation time, deferred to a runtime grow
// failure).
func buildDiagnostics(module *wasm.Module, out *assemble.Output) []Diagnostic {
	var diags []Diagnostic
	for i, m := range module.Memories {
		if m.Max != nil && uint64(*m.Max)*wasm.PageSize > assemble.MaxLinearSize {
			diags = append(diags, Diagnostic{
				Kind:      "maximum-beyond-projection-limit",
				Message:   fmt.Sprintf("memory %d: declared maximum %d pages exceeds the 2^31-1 byte limit; grow will fail once reached", i, *m.Max),
				FuncIndex: -1,
			})
		}
	}
	for i, t := range module.Tables {
		if t.Max != nil && uint64(*t.Max) > assemble.MaxLinearSize {
			diags = append(diags, Diagnostic{
				Kind:      "maximum-beyond-projection-limit",
				Message:   fmt.Sprintf("table %d: declared maximum %d elements exceeds the 2^31-1 limit; grow will fail once reached", i, *t.Max),
				FuncIndex: -1,
			})
		}
	}
	return diags
}

// Classes returns every class descriptor Translate produced for this
// module in a single ordered slice: the main class, then each carrier
// class, then the shared trap helper class, then the shared NaN-
// canonicalization helper class (spec.md §6).
func (o *Output) Classes() []*jvm.ClassDescriptor {
	classes := make([]*jvm.ClassDescriptor, 0, len(o.CarrierClasses)+3)
	classes = append(classes, o.MainClass)
	classes = append(classes, o.CarrierClasses...)
	classes = append(classes, o.TrapsHelper)
	classes = append(classes, o.NaNHelper)
	return classes
}
