package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/spigell/job-recommender/internal/jobs"
	"github.com/spigell/job-recommender/internal/profile"
	"github.com/spigell/job-recommender/internal/utils"
)

const (
	defaultMaxLogLength = 200
	// BriefJobs is the number of ranked postings shown to the model for the brief.
	BriefJobs = 8
)

// Advisor renders the prompt templates and interprets the model's answers.
type Advisor struct {
	generator Generator
	logger    *zap.Logger
	maxLogLen int
}

func NewAdvisor(generator Generator, logger *zap.Logger, maxLogLength int) *Advisor {
	if logger == nil {
		logger = zap.NewNop()
	}
	if maxLogLength <= 0 {
		maxLogLength = defaultMaxLogLength
	}
	return &Advisor{generator: generator, logger: logger, maxLogLen: maxLogLength}
}

// Summarize returns a short professional summary of the resume.
func (a *Advisor) Summarize(ctx context.Context, resumeText string) (string, error) {
	return a.text(ctx, "summary", render(summaryPrompt, map[string]string{
		"RESUME_TEXT": resumeText,
	}))
}

// ExtractProfile asks for a structured candidate profile.
func (a *Advisor) ExtractProfile(ctx context.Context, resumeText string) (*profile.Profile, error) {
	data, err := a.object(ctx, "profile", render(profilePrompt, map[string]string{
		"RESUME_TEXT": resumeText,
	}))
	if err != nil {
		return nil, err
	}
	return profile.FromMap(data)
}

// SkillGaps compares the candidate skills with requirement snippets of target roles.
func (a *Advisor) SkillGaps(ctx context.Context, skills []string, requirements []string) (*profile.SkillGap, error) {
	data, err := a.object(ctx, "skill_gap", render(skillGapPrompt, map[string]string{
		"CANDIDATE_SKILLS":  mustJSON(nonNil(skills)),
		"ROLE_REQUIREMENTS": mustJSON(nonNil(requirements)),
	}))
	if err != nil {
		return nil, err
	}
	return profile.SkillGapFromMap(data)
}

// Roadmap returns a 90-day learning plan towards the target roles.
func (a *Advisor) Roadmap(ctx context.Context, p *profile.Profile, targetRoles []string) (string, error) {
	return a.text(ctx, "roadmap", render(roadmapPrompt, map[string]string{
		"TARGET_ROLES": strings.Join(targetRoles, ", "),
		"PROFILE_JSON": mustJSON(p),
	}))
}

// Brief explains why the leading ranked postings suit the candidate.
func (a *Advisor) Brief(ctx context.Context, p *profile.Profile, ranked []*jobs.Job) (string, error) {
	if len(ranked) > BriefJobs {
		ranked = ranked[:BriefJobs]
	}
	return a.text(ctx, "brief", render(briefPrompt, map[string]string{
		"PROFILE_JSON": mustJSON(p),
		"JOBS_JSON":    mustJSON(nonNil(ranked)),
	}))
}

func (a *Advisor) text(ctx context.Context, kind, prompt string) (string, error) {
	if a.generator == nil {
		return "", errors.New("language model is not configured")
	}

	a.logger.Debug("generate content request",
		zap.String("kind", kind),
		zap.Int("prompt_length", utf8.RuneCountInString(prompt)),
		zap.String("prompt_preview", utils.TruncateForLog(prompt, a.maxLogLen)),
	)

	raw, err := a.generator.GenerateContent(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("%s: %w", kind, err)
	}

	a.logger.Debug("generate content response",
		zap.String("kind", kind),
		zap.Int("response_length", utf8.RuneCountInString(raw)),
		zap.String("response_preview", utils.TruncateForLog(raw, a.maxLogLen)),
	)

	return strings.TrimSpace(raw), nil
}

func (a *Advisor) object(ctx context.Context, kind, prompt string) (map[string]any, error) {
	raw, err := a.text(ctx, kind, prompt)
	if err != nil {
		return nil, err
	}
	data, err := parseObject(raw)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", kind, err)
	}
	return data, nil
}

func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}

func mustJSON(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(data)
}
