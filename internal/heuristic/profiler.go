// Package heuristic implements the keyword-based CV profiler.
//
// It produces a lightweight structured hint from raw CV text without any
// model call, and provides the derived operations (skill extraction, role
// suggestion, field and experience detection) that both seed the model
// prompt and back-fill incomplete model output. Every operation is
// synchronous, deterministic and total: empty input yields all-false flags,
// never an error.
package heuristic

import (
	"fmt"
	"strings"

	"github.com/orientis/orientis/internal/domain"
)

// Hint is the outcome of a quick keyword scan over CV text. Immutable after
// construction.
type Hint struct {
	Domains map[string]bool

	Junior bool
	Senior bool
	Mid    bool

	French        bool
	English       bool
	OtherLanguage bool

	HasEducation bool
	HasProjects  bool
	Length       int
}

// Profiler scans CV text against the static detection tables.
type Profiler struct{}

// NewProfiler constructs a Profiler.
func NewProfiler() *Profiler { return &Profiler{} }

func containsAny(text string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}

// Scan builds a Hint from CV text. No I/O, no failure mode.
func (p *Profiler) Scan(cvText string) Hint {
	text := strings.ToLower(cvText)
	h := Hint{
		Domains: make(map[string]bool, len(domainTable)),
		Length:  len(cvText),
	}
	for _, d := range domainTable {
		h.Domains[d.ID] = containsAny(text, d.Keywords)
	}
	h.Junior = containsAny(text, juniorMarkers)
	h.Senior = containsAny(text, seniorMarkers)
	h.Mid = !h.Junior && !h.Senior
	h.French = containsAny(text, frenchMarkers)
	h.English = containsAny(text, englishMarkers)
	h.OtherLanguage = containsAny(text, otherLangMarkers)
	h.HasEducation = containsAny(text, educationMarkers)
	h.HasProjects = containsAny(text, projectMarkers)
	return h
}

// ExtractSkills detects skills from CV text against the skill table.
// Levels start at the table base level, gain +10 when the combined keyword
// occurrence count exceeds 3 and a further +15 when it exceeds 5, gain +15
// when an explicit mastery phrase names the primary keyword, and are clamped
// to [0,100]. The result is never empty: when nothing matches, a single
// sentinel entry is returned.
func (p *Profiler) ExtractSkills(cvText string) []domain.Skill {
	text := strings.ToLower(cvText)
	var skills []domain.Skill
	for _, spec := range skillTable {
		if !containsAny(text, spec.Keywords) {
			continue
		}
		occurrences := 0
		for _, kw := range spec.Keywords {
			occurrences += strings.Count(text, kw)
		}
		level := spec.BaseLevel
		if occurrences > 3 {
			level += 10
		}
		if occurrences > 5 {
			level += 15
		}
		primary := spec.Keywords[0]
		if strings.Contains(text, "expert "+primary) || strings.Contains(text, "maîtrise "+primary) {
			level += 15
		}
		if level > 100 {
			level = 100
		}
		skills = append(skills, domain.Skill{Name: spec.Name, Category: spec.Category, Level: level})
	}
	if len(skills) == 0 {
		skills = append(skills, domain.Skill{Name: "Compétences générales", Category: domain.CategoryGeneral, Level: 50})
	}
	return skills
}

// GenerateRoles maps the categories present in skills to candidate job
// titles. Order follows the first appearance of each category in skills,
// duplicates are dropped, and the result is truncated to 5 entries.
func (p *Profiler) GenerateRoles(skills []domain.Skill) []string {
	var roles []string
	seen := make(map[string]struct{})
	for _, s := range skills {
		for _, role := range rolesByCategory[s.Category] {
			if _, ok := seen[role]; ok {
				continue
			}
			seen[role] = struct{}{}
			roles = append(roles, role)
			if len(roles) == 5 {
				return roles
			}
		}
	}
	return roles
}

// DetectMainField picks the career field from a hint. Domains are checked in
// the fixed table priority order; when none matched, the field defaults to
// Général; when only domains outside the priority chain matched, the first
// active one wins.
func (p *Profiler) DetectMainField(h Hint) string {
	anyActive := false
	for _, d := range domainTable {
		if h.Domains[d.ID] {
			anyActive = true
			break
		}
	}
	if !anyActive {
		return domain.FieldGeneral
	}
	for _, d := range domainTable {
		if h.Domains[d.ID] {
			return d.Field
		}
	}
	return domain.FieldGeneral
}

// DetectExperienceLevel derives the experience level from markers, text
// length and project mentions. Senior markers win, then junior markers; the
// remaining cases fall through length-based rules.
func (p *Profiler) DetectExperienceLevel(cvText string, h Hint) string {
	switch {
	case h.Senior:
		return domain.LevelAdvanced
	case h.Junior:
		return domain.LevelBeginner
	case len(cvText) > 2000 && h.HasProjects:
		return domain.LevelIntermediate
	case len(cvText) < 800:
		return domain.LevelBeginner
	default:
		return domain.LevelIntermediate
	}
}

// Summarize builds a short profile synthesis from the detected skills.
func (p *Profiler) Summarize(cvText string, skills []domain.Skill) string {
	if len(skills) == 0 {
		return "Profil polyvalent en cours d'analyse"
	}
	top := skills
	if len(top) > 3 {
		top = top[:3]
	}
	names := make([]string, len(top))
	for i, s := range top {
		names[i] = s.Name
	}
	hint := "en développement professionnel"
	if len(cvText) > 1500 {
		hint = "avec expérience confirmée"
	}
	return fmt.Sprintf("Profil spécialisé en %s %s. %d compétences identifiées.", strings.Join(names, ", "), hint, len(skills))
}

// MainDomainID returns the priority-ordered identifier of the dominant
// domain, used by the prompt builder. Falls back to "général".
func (p *Profiler) MainDomainID(h Hint) string {
	for _, d := range domainTable {
		if h.Domains[d.ID] {
			return d.ID
		}
	}
	return "général"
}
