package ai

import (
	_ "embed"
	"strings"
)

var (
	//go:embed prompts/summary.md
	summaryPrompt string
	//go:embed prompts/profile.md
	profilePrompt string
	//go:embed prompts/skill_gap.md
	skillGapPrompt string
	//go:embed prompts/roadmap.md
	roadmapPrompt string
	//go:embed prompts/brief.md
	briefPrompt string
)

// render replaces every {{KEY}} placeholder with its value.
func render(template string, values map[string]string) string {
	pairs := make([]string, 0, len(values)*2)
	for key, value := range values {
		pairs = append(pairs, "{{"+key+"}}", value)
	}
	return strings.NewReplacer(pairs...).Replace(template)
}
