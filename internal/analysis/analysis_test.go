package analysis_test

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orientis/orientis/internal/analysis"
	"github.com/orientis/orientis/internal/domain"
	"github.com/orientis/orientis/internal/heuristic"
)

func TestPromptBuilder_Deterministic(t *testing.T) {
	t.Parallel()
	prof := heuristic.NewProfiler()
	b := analysis.NewPromptBuilder(prof)
	cv := "Développeur python avec projet data"
	h := prof.Scan(cv)
	p1 := b.Build(cv, h)
	p2 := b.Build(cv, h)
	assert.Equal(t, p1, p2)
	assert.Contains(t, p1, "SPÉCIALISÉ EN DEV")
	assert.Contains(t, p1, "Projets mentionnés: Oui")
	assert.Contains(t, p1, "JSON UNIQUEMENT")
	assert.Contains(t, p1, cv)
}

func TestPromptBuilder_TruncatesLongCV(t *testing.T) {
	t.Parallel()
	prof := heuristic.NewProfiler()
	b := analysis.NewPromptBuilder(prof)
	cv := strings.Repeat("x", 5000)
	p := b.Build(cv, prof.Scan(cv))
	assert.NotContains(t, p, strings.Repeat("x", 3501))
	assert.Contains(t, p, strings.Repeat("x", 3500))
	// The hint length reports the full text, not the excerpt.
	assert.Contains(t, p, "5000 caractères")
}

func TestRepair_CompleteResponseUnchanged(t *testing.T) {
	t.Parallel()
	prof := heuristic.NewProfiler()
	r := analysis.NewRepairer(prof)
	full := domain.Analysis{
		Skills:          []domain.Skill{{Name: "Rust", Category: "Développement", Level: 72}},
		SuggestedRoles:  []string{"Développeur Systèmes"},
		DetectedField:   "Développement Logiciel",
		Summary:         "Profil systèmes.",
		ExperienceLevel: domain.LevelAdvanced,
	}
	raw, err := json.Marshal(full)
	require.NoError(t, err)

	cv := "CV avec rust et expérience"
	got, err := r.Repair(string(raw), cv, prof.Scan(cv))
	require.NoError(t, err)
	assert.Equal(t, full.Skills, got.Skills)
	assert.Equal(t, full.SuggestedRoles, got.SuggestedRoles)
	assert.Equal(t, full.DetectedField, got.DetectedField)
	assert.Equal(t, full.Summary, got.Summary)
	assert.Equal(t, full.ExperienceLevel, got.ExperienceLevel)
	assert.False(t, got.Metadata.AnalysisDate.IsZero())
	assert.Equal(t, len(cv), got.Metadata.CVLength)
}

func TestRepair_FillsMissingRolesFromModelSkills(t *testing.T) {
	t.Parallel()
	prof := heuristic.NewProfiler()
	r := analysis.NewRepairer(prof)
	// Model returned skills but no suggested_roles: roles must derive from
	// the model-provided categories, not from a heuristic re-scan.
	raw := `{"skills":[{"name":"Kubernetes","category":"DevOps","level":80}],"detected_field":"Cloud","summary":"ok","experience_level":"Avancé"}`
	cv := "CV mentionnant python uniquement"
	got, err := r.Repair(raw, cv, prof.Scan(cv))
	require.NoError(t, err)
	require.NotEmpty(t, got.SuggestedRoles)
	assert.Equal(t, "DevOps Engineer", got.SuggestedRoles[0])
}

func TestRepair_FillsEverythingWhenSparse(t *testing.T) {
	t.Parallel()
	prof := heuristic.NewProfiler()
	r := analysis.NewRepairer(prof)
	cv := "Développeur javascript avec git, projet web, formation licence"
	got, err := r.Repair("voici : {}", cv, prof.Scan(cv))
	require.NoError(t, err)
	assert.NotEmpty(t, got.Skills)
	assert.NotEmpty(t, got.SuggestedRoles)
	assert.Equal(t, "Développement Logiciel", got.DetectedField)
	assert.NotEmpty(t, got.Summary)
	assert.Contains(t, []string{domain.LevelBeginner, domain.LevelIntermediate, domain.LevelAdvanced}, got.ExperienceLevel)
	assert.True(t, got.Metadata.HasProjects)
	assert.True(t, got.Metadata.HasEducation)
}

func TestRepair_ClampsAndDefaultsModelSkills(t *testing.T) {
	t.Parallel()
	prof := heuristic.NewProfiler()
	r := analysis.NewRepairer(prof)
	raw := `{"skills":[{"name":"X","level":150},{"name":"Y","level":-3}],"suggested_roles":["A","A","B","C","D","E","F"]}`
	got, err := r.Repair(raw, "cv", prof.Scan("cv"))
	require.NoError(t, err)
	assert.Equal(t, 100, got.Skills[0].Level)
	assert.Equal(t, 0, got.Skills[1].Level)
	assert.Equal(t, domain.CategoryGeneral, got.Skills[0].Category)
	assert.Equal(t, []string{"A", "B", "C", "D", "E"}, got.SuggestedRoles)
}

func TestRepair_UnparsableFails(t *testing.T) {
	t.Parallel()
	prof := heuristic.NewProfiler()
	r := analysis.NewRepairer(prof)
	for _, raw := range []string{"", "pas de json", "{invalid json]"} {
		_, err := r.Repair(raw, "cv", prof.Scan("cv"))
		require.ErrorIs(t, err, domain.ErrUnparsableResponse, "raw=%q", raw)
	}
}

func TestFallback_NeverFails(t *testing.T) {
	t.Parallel()
	prof := heuristic.NewProfiler()
	f := analysis.NewFallbackGenerator(prof)
	for _, cv := range []string{"", "x", strings.Repeat("projet python ", 200)} {
		got := f.Generate(cv, nil)
		assert.NotEmpty(t, got.Skills)
		assert.True(t, got.Metadata.Fallback)
		assert.Equal(t, analysis.FallbackReason, got.Metadata.Reason)
		assert.Equal(t, len(cv), got.Metadata.CVLength)
		assert.NotEmpty(t, got.ExperienceLevel)
	}
}

func TestFallback_ReusesPrecomputedHint(t *testing.T) {
	t.Parallel()
	prof := heuristic.NewProfiler()
	f := analysis.NewFallbackGenerator(prof)
	cv := "ingénieur python et docker, projet cloud"
	h := prof.Scan(cv)
	got := f.Generate(cv, &h)
	assert.Equal(t, "Développement Logiciel", got.DetectedField)
	assert.True(t, got.Metadata.HasProjects)
}
