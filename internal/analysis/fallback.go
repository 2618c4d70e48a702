package analysis

import (
	"time"

	"github.com/orientis/orientis/internal/domain"
	"github.com/orientis/orientis/internal/heuristic"
)

// FallbackReason is the diagnostic string recorded on heuristics-only results.
const FallbackReason = "IA non disponible ou réponse invalide"

// FallbackGenerator produces a complete analysis from the heuristic
// profiler alone. It is the terminal failure-absorption point of the
// pipeline and never fails.
type FallbackGenerator struct {
	prof *heuristic.Profiler
	now  func() time.Time
}

// NewFallbackGenerator constructs a FallbackGenerator sharing the given profiler.
func NewFallbackGenerator(p *heuristic.Profiler) *FallbackGenerator {
	return &FallbackGenerator{prof: p, now: time.Now}
}

// Generate builds the heuristics-only analysis. A nil hint triggers a
// fresh scan of the text.
func (f *FallbackGenerator) Generate(cvText string, h *heuristic.Hint) domain.Analysis {
	if h == nil {
		scanned := f.prof.Scan(cvText)
		h = &scanned
	}
	skills := f.prof.ExtractSkills(cvText)
	return domain.Analysis{
		Skills:          skills,
		SuggestedRoles:  f.prof.GenerateRoles(skills),
		DetectedField:   f.prof.DetectMainField(*h),
		Summary:         f.prof.Summarize(cvText, skills),
		ExperienceLevel: f.prof.DetectExperienceLevel(cvText, *h),
		Metadata: domain.AnalysisMeta{
			CVLength:     len(cvText),
			SkillsCount:  len(skills),
			HasProjects:  h.HasProjects,
			HasEducation: h.HasEducation,
			AnalysisDate: f.now().UTC(),
			Fallback:     true,
			Reason:       FallbackReason,
		},
	}
}
