// Package profile holds the candidate record derived from a resume.
package profile

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/mitchellh/mapstructure"
)

// DefaultTargetRoles are searched for when the resume names no roles at all.
var DefaultTargetRoles = []string{"Data Analyst", "Business Analyst"}

// Profile is a read-only candidate record. Lists keep the order they were extracted in.
type Profile struct {
	Name            string   `json:"name,omitempty" mapstructure:"name"`
	YearsExperience *float64 `json:"years_experience,omitempty" mapstructure:"years_experience"`
	PrimaryRoles    []string `json:"primary_roles" mapstructure:"primary_roles"`
	Skills          []string `json:"skills" mapstructure:"skills"`
	Education       []string `json:"education" mapstructure:"education"`
	Locations       []string `json:"locations" mapstructure:"locations"`
	TargetRoles     []string `json:"target_roles" mapstructure:"target_roles"`
}

// SkillGap is the comparison of candidate skills against role requirements.
type SkillGap struct {
	Gaps        []string `json:"gaps" mapstructure:"gaps"`
	EasiestWins []string `json:"easiest_wins" mapstructure:"easiest_wins"`
}

var listFields = []string{"primary_roles", "skills", "education", "locations", "target_roles"}

// FromMap decodes loosely typed model output into a Profile. Lists may arrive as
// strings, numbers or objects; years of experience may be a number or a numeric string.
// Unusable values are dropped rather than rejected.
func FromMap(data map[string]any) (*Profile, error) {
	clean := make(map[string]any, len(data))
	for key, value := range data {
		clean[strings.ToLower(strings.TrimSpace(key))] = value
	}

	for _, field := range listFields {
		clean[field] = Strings(clean[field])
	}

	clean["name"] = scalarString(clean["name"])

	if years, ok := experience(clean["years_experience"]); ok {
		clean["years_experience"] = years
	} else {
		delete(clean, "years_experience")
	}

	var p Profile
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &p,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return nil, err
	}
	if err := decoder.Decode(clean); err != nil {
		return nil, fmt.Errorf("decode profile: %w", err)
	}

	return &p, nil
}

// SkillGapFromMap decodes a skill-gap answer.
func SkillGapFromMap(data map[string]any) (*SkillGap, error) {
	clean := map[string]any{
		"gaps":         Strings(data["gaps"]),
		"easiest_wins": Strings(data["easiest_wins"]),
	}

	var gap SkillGap
	if err := mapstructure.Decode(clean, &gap); err != nil {
		return nil, fmt.Errorf("decode skill gap: %w", err)
	}
	return &gap, nil
}

// Roles returns the target roles, or the primary roles when no targets are set.
func (p *Profile) Roles() []string {
	if p == nil {
		return nil
	}
	if len(p.TargetRoles) > 0 {
		return p.TargetRoles
	}
	return p.PrimaryRoles
}

// RolesString joins Roles with ", ".
func (p *Profile) RolesString() string {
	return strings.Join(p.Roles(), ", ")
}

// SkillsString joins the skills with ", ".
func (p *Profile) SkillsString() string {
	if p == nil {
		return ""
	}
	return strings.Join(p.Skills, ", ")
}

// SearchRoles is Roles falling back to DefaultTargetRoles.
func (p *Profile) SearchRoles() []string {
	if roles := p.Roles(); len(roles) > 0 {
		return roles
	}
	return append([]string(nil), DefaultTargetRoles...)
}

// TopSkills returns at most n leading skills.
func (p *Profile) TopSkills(n int) []string {
	if p == nil || n <= 0 {
		return nil
	}
	if len(p.Skills) <= n {
		return p.Skills
	}
	return p.Skills[:n]
}

// Strings flattens a loosely typed value into a list of non-empty strings.
func Strings(v any) []string {
	switch val := v.(type) {
	case nil:
		return []string{}
	case []string:
		return compact(val)
	case string:
		return compact([]string{val})
	case []any:
		out := make([]string, 0, len(val))
		for _, item := range val {
			if s := scalarString(item); s != "" {
				out = append(out, s)
			}
		}
		return out
	default:
		return compact([]string{scalarString(val)})
	}
}

func compact(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func scalarString(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(val)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	default:
		data, err := json.Marshal(val)
		if err != nil {
			return fmt.Sprintf("%v", val)
		}
		return string(data)
	}
}

func experience(v any) (float64, bool) {
	var f float64
	switch val := v.(type) {
	case float64:
		f = val
	case int:
		f = float64(val)
	case string:
		fields := strings.Fields(strings.TrimSuffix(strings.TrimSpace(val), "+"))
		if len(fields) == 0 {
			return 0, false
		}
		parsed, err := strconv.ParseFloat(strings.TrimSuffix(fields[0], "+"), 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) || f < 0 {
		return 0, false
	}
	return f, true
}
