// File: internal/analysis/taint/refiner.go
package taint

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"

	"github.com/xkilldash9x/scriptlens/api/schemas"
	"github.com/xkilldash9x/scriptlens/internal/config"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// jsonBlockRegex extracts the payload from a fenced markdown block.
var jsonBlockRegex = regexp.MustCompile("(?s)```(?:json)?\\s*(.*?)\\s*```")

// Refiner proposes additional taint paths for a script given the static
// findings. Implementations must never remove or alter existing paths;
// the caller merges proposals additively.
type Refiner interface {
	Refine(ctx context.Context, source []byte, analysis schemas.DataFlowAnalysis) ([]schemas.TaintPath, error)
}

// LLMRefiner asks a language model to spot flows the static passes missed,
// such as taint routed through aliasing or string building too dynamic to
// follow structurally.
type LLMRefiner struct {
	client schemas.LLMClient
	cfg    config.LLMConfig
	logger *zap.Logger
}

func NewLLMRefiner(client schemas.LLMClient, cfg config.LLMConfig, logger *zap.Logger) *LLMRefiner {
	return &LLMRefiner{
		client: client,
		cfg:    cfg,
		logger: logger.Named("taint_refiner"),
	}
}

const refinerSystemPrompt = `You are a JavaScript security auditor. You receive a script excerpt and the taint sources, sinks, and flows already found by static analysis. Identify ONLY additional source-to-sink flows the static pass missed. Respond with a JSON array (possibly empty) of objects shaped like {"source": {"kind": "...", "name": "...", "line": N}, "sink": {"kind": "...", "name": "...", "line": N}, "trail": [N, ...]}. Use the same kind vocabulary as the input. Do not repeat flows already listed.`

// Refine sends the excerpt and current findings to the model and parses
// its proposals. The returned paths are marked Refined; the caller is
// responsible for merging them without duplicating known flows.
func (r *LLMRefiner) Refine(ctx context.Context, source []byte, analysis schemas.DataFlowAnalysis) ([]schemas.TaintPath, error) {
	excerpt := string(source)
	if limit := r.cfg.ExcerptLimit; limit > 0 && len(excerpt) > limit {
		excerpt = excerpt[:limit]
	}

	findings, err := json.MarshalToString(analysis)
	if err != nil {
		return nil, fmt.Errorf("encoding findings for refinement: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, r.cfg.APITimeout)
	defer cancel()

	raw, err := r.client.Generate(ctx, schemas.GenerationRequest{
		SystemPrompt: refinerSystemPrompt,
		UserPrompt:   fmt.Sprintf("Current findings:\n%s\n\nScript excerpt:\n```javascript\n%s\n```", findings, excerpt),
		Tier:         schemas.TierPowerful,
		Options: schemas.GenerationOptions{
			Temperature:     float64(r.cfg.Temperature),
			ForceJSONFormat: true,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("refinement generation failed: %w", err)
	}

	paths, err := parseRefinedPaths(raw)
	if err != nil {
		return nil, err
	}
	r.logger.Debug("Refinement proposals received.", zap.Int("proposed", len(paths)))
	return paths, nil
}

// parseRefinedPaths tolerates fenced or bare JSON and marks every parsed
// path as model-proposed.
func parseRefinedPaths(raw string) ([]schemas.TaintPath, error) {
	payload := strings.TrimSpace(raw)
	if match := jsonBlockRegex.FindStringSubmatch(payload); len(match) > 1 {
		payload = match[1]
	} else if start := strings.IndexAny(payload, "[{"); start >= 0 {
		end := strings.LastIndexAny(payload, "]}")
		if end > start {
			payload = payload[start : end+1]
		}
	}

	var paths []schemas.TaintPath
	if err := json.UnmarshalFromString(payload, &paths); err != nil {
		return nil, fmt.Errorf("parsing refinement response: %w", err)
	}
	for i := range paths {
		paths[i].Refined = true
	}
	return paths, nil
}

// MergeRefined appends proposals to the analysis, skipping any whose
// (source line, sink line) pair is already present. Existing paths are
// never modified.
func MergeRefined(analysis *schemas.DataFlowAnalysis, proposals []schemas.TaintPath) int {
	seen := map[[2]int]struct{}{}
	for _, p := range analysis.TaintPaths {
		seen[[2]int{p.Source.Line, p.Sink.Line}] = struct{}{}
	}
	added := 0
	for _, p := range proposals {
		key := [2]int{p.Source.Line, p.Sink.Line}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		if len(p.Trail) == 0 {
			p.Trail = []int{p.Source.Line, p.Sink.Line}
		}
		p.Refined = true
		analysis.TaintPaths = append(analysis.TaintPaths, p)
		added++
	}
	return added
}
