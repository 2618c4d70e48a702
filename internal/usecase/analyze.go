// Package usecase contains application business logic services.
package usecase

import (
	"log/slog"

	"github.com/orientis/orientis/internal/adapter/observability"
	"github.com/orientis/orientis/internal/analysis"
	"github.com/orientis/orientis/internal/domain"
	"github.com/orientis/orientis/internal/heuristic"
)

// analysisOptions are the generation settings for the CV analysis call.
var analysisOptions = domain.GenerationOptions{Temperature: 0.2, TopP: 0.9, NumPredict: 1000}

// AnalyzeService runs the CV analysis pipeline: scan, prompt, model call,
// repair, with the heuristic fallback absorbing every failure. Analyze
// never fails; the caller always receives a complete analysis.
type AnalyzeService struct {
	Profiler *heuristic.Profiler
	Prompts  *analysis.PromptBuilder
	Repairer *analysis.Repairer
	Fallback *analysis.FallbackGenerator
	Model    domain.ModelClient
}

// NewAnalyzeService wires the pipeline stages around a shared profiler.
func NewAnalyzeService(model domain.ModelClient) AnalyzeService {
	prof := heuristic.NewProfiler()
	return AnalyzeService{
		Profiler: prof,
		Prompts:  analysis.NewPromptBuilder(prof),
		Repairer: analysis.NewRepairer(prof),
		Fallback: analysis.NewFallbackGenerator(prof),
		Model:    model,
	}
}

// Analyze runs the full pipeline over CV text. Every stage moves forward:
// a model failure or unparsable reply degrades to the heuristic fallback,
// never to an error.
func (s AnalyzeService) Analyze(ctx domain.Context, cvText string) domain.Analysis {
	hint := s.Profiler.Scan(cvText)
	prompt := s.Prompts.Build(cvText, hint)

	raw, err := s.Model.Chat(ctx, prompt, analysisOptions)
	if err != nil {
		slog.Warn("model call failed; using heuristic fallback",
			slog.Int("cv_length", hint.Length), slog.Any("error", err))
		res := s.Fallback.Generate(cvText, &hint)
		observability.ObserveAnalysis("fallback", skillLevels(res.Skills))
		return res
	}

	res, err := s.Repairer.Repair(raw, cvText, hint)
	if err != nil {
		slog.Warn("model response unparsable; using heuristic fallback",
			slog.Int("cv_length", hint.Length), slog.Int("response_length", len(raw)), slog.Any("error", err))
		res = s.Fallback.Generate(cvText, &hint)
		observability.ObserveAnalysis("fallback", skillLevels(res.Skills))
		return res
	}

	slog.Info("cv analysis completed",
		slog.Int("cv_length", hint.Length),
		slog.Int("skills", len(res.Skills)),
		slog.String("field", res.DetectedField),
		slog.String("experience_level", res.ExperienceLevel))
	observability.ObserveAnalysis("model", skillLevels(res.Skills))
	return res
}

func skillLevels(skills []domain.Skill) []int {
	levels := make([]int, len(skills))
	for i, s := range skills {
		levels[i] = s.Level
	}
	return levels
}
