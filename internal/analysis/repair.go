package analysis

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/orientis/orientis/internal/domain"
	"github.com/orientis/orientis/internal/heuristic"
	"github.com/orientis/orientis/pkg/jsonx"
)

// Repairer validates model output and back-fills missing fields from the
// heuristic profiler. Best-effort by design: partial or malformed model
// output degrades field by field instead of failing the whole analysis.
type Repairer struct {
	prof *heuristic.Profiler
	now  func() time.Time
}

// NewRepairer constructs a Repairer sharing the given profiler.
func NewRepairer(p *heuristic.Profiler) *Repairer {
	return &Repairer{prof: p, now: time.Now}
}

// Repair extracts the JSON object from raw model text, parses it, and
// merges defaults for every absent field. It fails only when no JSON
// object can be parsed at all; the caller then falls back.
func (r *Repairer) Repair(raw, cvText string, h heuristic.Hint) (domain.Analysis, error) {
	obj, ok := jsonx.ExtractObject(raw)
	if !ok {
		return domain.Analysis{}, fmt.Errorf("%w: no JSON object in model output", domain.ErrUnparsableResponse)
	}
	var res domain.Analysis
	if err := json.Unmarshal([]byte(obj), &res); err != nil {
		return domain.Analysis{}, fmt.Errorf("%w: %v", domain.ErrUnparsableResponse, err)
	}
	return r.mergeDefaults(res, cvText, h), nil
}

// mergeDefaults enforces the Analysis invariants on a parsed record and
// fills every absent field with its heuristic counterpart. Metadata is
// always recomputed.
func (r *Repairer) mergeDefaults(res domain.Analysis, cvText string, h heuristic.Hint) domain.Analysis {
	if len(res.Skills) == 0 {
		res.Skills = r.prof.ExtractSkills(cvText)
	}
	for i := range res.Skills {
		if res.Skills[i].Level < 0 {
			res.Skills[i].Level = 0
		}
		if res.Skills[i].Level > 100 {
			res.Skills[i].Level = 100
		}
		if res.Skills[i].Category == "" {
			res.Skills[i].Category = domain.CategoryGeneral
		}
	}
	if len(res.SuggestedRoles) == 0 {
		res.SuggestedRoles = r.prof.GenerateRoles(res.Skills)
	} else {
		res.SuggestedRoles = dedupeCap(res.SuggestedRoles, 5)
	}
	if res.DetectedField == "" {
		res.DetectedField = r.prof.DetectMainField(h)
	}
	if res.ExperienceLevel == "" {
		res.ExperienceLevel = r.prof.DetectExperienceLevel(cvText, h)
	}
	if res.Summary == "" {
		res.Summary = r.prof.Summarize(cvText, res.Skills)
	}
	res.Metadata = domain.AnalysisMeta{
		CVLength:     len(cvText),
		SkillsCount:  len(res.Skills),
		HasProjects:  h.HasProjects,
		HasEducation: h.HasEducation,
		AnalysisDate: r.now().UTC(),
	}
	return res
}

func dedupeCap(in []string, max int) []string {
	seen := make(map[string]struct{}, len(in))
	out := in[:0]
	for _, s := range in {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
		if len(out) == max {
			break
		}
	}
	return out
}
