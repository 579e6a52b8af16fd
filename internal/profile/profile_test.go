package profile

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromMap(t *testing.T) {
	t.Parallel()

	p, err := FromMap(map[string]any{
		"name":             "Asha",
		"years_experience": "3.5 years",
		"primary_roles":    []any{"Data Analyst", " ", 42.0},
		"skills":           "python",
		"education":        []any{map[string]any{"degree": "BSc"}},
		"locations":        nil,
		"target_roles":     []any{},
		"unexpected":       true,
	})
	require.NoError(t, err)

	assert.Equal(t, "Asha", p.Name)
	require.NotNil(t, p.YearsExperience)
	assert.Equal(t, 3.5, *p.YearsExperience)
	assert.Equal(t, []string{"Data Analyst", "42"}, p.PrimaryRoles)
	assert.Equal(t, []string{"python"}, p.Skills)
	assert.Equal(t, []string{`{"degree":"BSc"}`}, p.Education)
	assert.Empty(t, p.Locations)
	assert.Empty(t, p.TargetRoles)
}

func TestFromMapExperience(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		value any
		want  *float64
	}{
		{name: "number", value: 2.0, want: ptr(2)},
		{name: "plus suffix", value: "5+", want: ptr(5)},
		{name: "negative", value: -1.0, want: nil},
		{name: "garbage", value: "many", want: nil},
		{name: "null", value: nil, want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			p, err := FromMap(map[string]any{"years_experience": tt.value})
			require.NoError(t, err)
			assert.Equal(t, tt.want, p.YearsExperience)
		})
	}
}

func TestRoles(t *testing.T) {
	t.Parallel()

	p := &Profile{PrimaryRoles: []string{"Analyst"}, TargetRoles: []string{"Data Analyst", "BI Developer"}}
	assert.Equal(t, "Data Analyst, BI Developer", p.RolesString())

	p.TargetRoles = nil
	assert.Equal(t, []string{"Analyst"}, p.Roles())
	assert.Equal(t, []string{"Analyst"}, p.SearchRoles())

	empty := &Profile{}
	assert.Empty(t, empty.RolesString())
	assert.Equal(t, DefaultTargetRoles, empty.SearchRoles())

	var missing *Profile
	assert.Empty(t, missing.Roles())
	assert.Empty(t, missing.SkillsString())
}

func TestTopSkills(t *testing.T) {
	t.Parallel()

	p := &Profile{Skills: []string{"a", "b", "c"}}
	assert.Equal(t, []string{"a", "b"}, p.TopSkills(2))
	assert.Equal(t, []string{"a", "b", "c"}, p.TopSkills(8))
	assert.Nil(t, p.TopSkills(0))
}

func TestSkillGapFromMap(t *testing.T) {
	t.Parallel()

	gap, err := SkillGapFromMap(map[string]any{
		"gaps":         []any{"Power BI", "Tableau"},
		"easiest_wins": "Excel pivot tables",
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"Power BI", "Tableau"}, gap.Gaps)
	assert.Equal(t, []string{"Excel pivot tables"}, gap.EasiestWins)
}

func ptr(f float64) *float64 { return &f }
