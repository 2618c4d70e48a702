// Package analysis turns CV text into a structured career analysis.
//
// It hosts the three stages around the model call: building the prompt,
// validating and repairing the model's JSON answer, and generating a
// heuristics-only fallback when the model is unavailable or unparsable.
package analysis

import (
	"fmt"
	"strings"

	"github.com/orientis/orientis/internal/heuristic"
	"github.com/orientis/orientis/pkg/textx"
)

// maxPromptCVBytes bounds the CV excerpt embedded in the prompt.
const maxPromptCVBytes = 3500

// PromptBuilder renders the analysis prompt. Pure string templating,
// deterministic for identical inputs.
type PromptBuilder struct {
	prof *heuristic.Profiler
}

// NewPromptBuilder constructs a PromptBuilder sharing the given profiler.
func NewPromptBuilder(p *heuristic.Profiler) *PromptBuilder { return &PromptBuilder{prof: p} }

func yesNo(b bool) string {
	if b {
		return "Oui"
	}
	return "Non"
}

// Build combines truncated CV text and the scan hint into a single prompt
// with strict JSON-only output instructions.
func (b *PromptBuilder) Build(cvText string, h heuristic.Hint) string {
	mainDomain := b.prof.MainDomainID(h)
	return fmt.Sprintf(`TU ES UN EXPERT EN ANALYSE DE CV SPÉCIALISÉ EN %s.

CV À ANALYSER:
%s

CONTEXTE DÉTECTÉ:
- Domaine principal: %s
- Longueur CV: %d caractères
- Projets mentionnés: %s
- Formation: %s

MISSION:
Extrais UNIQUEMENT les informations RÉELLES du CV.

RÉPONDS EN JSON STRICT:
{
  "skills": [
    {"name": "compétence exacte du CV", "category": "catégorie", "level": 0-100}
  ],
  "suggested_roles": ["métier réaliste 1", "métier réaliste 2"],
  "detected_field": "%s",
  "summary": "synthèse objective basée sur le CV",
  "experience_level": "Débutant/Intermédiaire/Avancé"
}

RÈGLES:
- Compétences: SEULEMENT celles mentionnées
- Niveau: basé sur l'expérience décrite
- Métiers: réalistes et accessibles avec ce profil
- NE PAS inventer de contenu

JSON UNIQUEMENT, AUCUN TEXTE SUPPLÉMENTAIRE.`,
		strings.ToUpper(mainDomain),
		textx.Truncate(cvText, maxPromptCVBytes),
		mainDomain,
		h.Length,
		yesNo(h.HasProjects),
		yesNo(h.HasEducation),
		mainDomain,
	)
}
