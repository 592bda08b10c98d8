// File: internal/engine/engine.go

// Package engine orchestrates one full analysis of a script: parse once,
// fan the analyzers out concurrently, then aggregate.
package engine

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/xkilldash9x/scriptlens/api/schemas"
	"github.com/xkilldash9x/scriptlens/internal/analysis/complexity"
	"github.com/xkilldash9x/scriptlens/internal/analysis/jsparser"
	"github.com/xkilldash9x/scriptlens/internal/analysis/obfuscation"
	"github.com/xkilldash9x/scriptlens/internal/analysis/patterns"
	"github.com/xkilldash9x/scriptlens/internal/analysis/quality"
	"github.com/xkilldash9x/scriptlens/internal/analysis/structure"
	"github.com/xkilldash9x/scriptlens/internal/analysis/taint"
	"github.com/xkilldash9x/scriptlens/internal/analysis/techstack"
	"github.com/xkilldash9x/scriptlens/internal/config"
)

// Engine runs the analysis pipeline. The risk identifier and refiner are
// optional collaborators; a nil value disables that step without
// affecting the deterministic components.
type Engine struct {
	cfg     config.Interface
	logger  *zap.Logger
	risks   schemas.RiskIdentifier
	refiner taint.Refiner
}

func New(cfg config.Interface, logger *zap.Logger, risks schemas.RiskIdentifier, refiner taint.Refiner) *Engine {
	return &Engine{
		cfg:     cfg,
		logger:  logger.Named("engine"),
		risks:   risks,
		refiner: refiner,
	}
}

// Analyze produces the full assessment for one script. The tree is built
// once and shared read-only by every tree-walking component; the raw-text
// components run alongside them. Only an orchestration fault (context
// expiry, collaborator panic surfaced as error) is returned; component
// results degrade to empty values on unparseable input.
func (e *Engine) Analyze(ctx context.Context, unit schemas.SourceUnit) (*schemas.ScriptAnalysis, error) {
	ctx, cancel := context.WithTimeout(ctx, e.cfg.Engine().AnalysisTimeout)
	defer cancel()

	log := e.logger.With(zap.String("script", unit.Name))
	source := []byte(unit.Source)

	parsed := jsparser.Parse(ctx, source, log)
	defer parsed.Close()

	analysis := &schemas.ScriptAnalysis{
		ID:      uuid.NewString(),
		Name:    unit.Name,
		Focus:   unit.Focus,
		Context: unit.Context,
	}

	var (
		patternResult patterns.Result
		risks         []schemas.SecurityRisk
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.cfg.Engine().ComponentConcurrency)

	g.Go(func() error {
		analysis.Structure = structure.Extract(parsed, log)
		return nil
	})
	g.Go(func() error {
		analysis.ComplexityMetrics = complexity.Score(parsed, log)
		return nil
	})
	g.Go(func() error {
		patternResult = patterns.Detect(parsed, e.cfg.Analysis(), log)
		return nil
	})
	g.Go(func() error {
		analysis.DataFlow = taint.Analyze(parsed, log)
		return nil
	})
	g.Go(func() error {
		analysis.Obfuscation = obfuscation.Classify(source, log)
		return nil
	})
	g.Go(func() error {
		analysis.TechStack = techstack.Detect(source)
		return nil
	})
	if e.risks != nil {
		g.Go(func() error {
			var err error
			risks, err = e.risks.IdentifyRisks(gctx, unit.Source)
			if err != nil {
				// External risk findings are advisory; their absence only
				// lifts the security sub-score.
				log.Warn("Risk identification failed; continuing without external findings.", zap.Error(err))
				risks = nil
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("analysis pipeline failed for %q: %w", unit.Name, err)
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("analysis of %q aborted: %w", unit.Name, err)
	}

	analysis.CodePatterns = patternResult.Patterns
	analysis.AntiPatterns = patternResult.AntiPatterns
	analysis.Duplicates = patternResult.Duplicates
	analysis.SecurityRisks = risks

	e.refineTaint(ctx, source, analysis, log)

	analysis.QualityScore = quality.Score(quality.Inputs{
		Risks:        analysis.SecurityRisks,
		Complexity:   analysis.ComplexityMetrics,
		Functions:    analysis.Structure.Functions,
		AntiPatterns: analysis.AntiPatterns,
	}, log)

	log.Info("Script analysis complete.",
		zap.Int("functions", len(analysis.Structure.Functions)),
		zap.Int("taint_paths", len(analysis.DataFlow.TaintPaths)),
		zap.Int("quality_score", analysis.QualityScore))
	return analysis, nil
}

// refineTaint asks the optional collaborator for additional flows. It
// only runs when refinement is enabled and the static passes found at
// least one path worth corroborating; every failure degrades to "no
// additional paths".
func (e *Engine) refineTaint(ctx context.Context, source []byte, analysis *schemas.ScriptAnalysis, log *zap.Logger) {
	if e.refiner == nil || !e.cfg.LLM().RefinementEnabled {
		return
	}
	if len(analysis.DataFlow.TaintPaths) == 0 {
		return
	}

	proposals, err := e.refiner.Refine(ctx, source, analysis.DataFlow)
	if err != nil {
		log.Debug("Taint refinement unavailable.", zap.Error(err))
		return
	}
	if added := taint.MergeRefined(&analysis.DataFlow, proposals); added > 0 {
		log.Info("Refinement added taint paths.", zap.Int("added", added))
	}
}
