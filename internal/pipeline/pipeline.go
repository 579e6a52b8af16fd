// Package pipeline runs the ordered steps that turn a resume into job recommendations.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spigell/job-recommender/internal/jobs"
	"github.com/spigell/job-recommender/internal/logger"
	"github.com/spigell/job-recommender/internal/profile"
	"github.com/spigell/job-recommender/internal/ranking"
	"github.com/spigell/job-recommender/internal/utils"
)

const (
	StepParseResume = "parse_resume"
	StepSummary     = "summary"
	StepProfile     = "profile"
	StepSearchJobs  = "search_jobs"
	StepFilterJobs  = "filter_jobs"
	StepRankJobs    = "rank_jobs"
	StepSkillGaps   = "skill_gaps"
	StepRoadmap     = "roadmap"
	StepBrief       = "brief"

	DefaultTopK             = 12
	DefaultSearchSkills     = 8
	DefaultGapJobs          = 5
	DefaultRequirementChars = 2000
)

type Advisor interface {
	Summarize(ctx context.Context, resumeText string) (string, error)
	ExtractProfile(ctx context.Context, resumeText string) (*profile.Profile, error)
	SkillGaps(ctx context.Context, skills []string, requirements []string) (*profile.SkillGap, error)
	Roadmap(ctx context.Context, p *profile.Profile, targetRoles []string) (string, error)
	Brief(ctx context.Context, p *profile.Profile, ranked []*jobs.Job) (string, error)
}

type Searcher interface {
	Search(ctx context.Context, params *jobs.SearchParams, limit int) (*jobs.Jobs, error)
}

type Ranker interface {
	Rank(ctx context.Context, p *profile.Profile, postings []*jobs.Job, k int) []ranking.Result
}

type Filter interface {
	RunFilters(ctx context.Context, j *jobs.Jobs) (*jobs.Jobs, error)
}

// ResumeReader returns the text of the resume stored at path.
type ResumeReader func(path string) (string, error)

// Deps are the collaborators of a run. Filter is optional.
type Deps struct {
	ReadResume ResumeReader
	Advisor    Advisor
	Searcher   Searcher
	Filter     Filter
	Ranker     Ranker
}

type Config struct {
	TopK int `mapstructure:"top-k" validate:"gte=0"`
	// SearchLimit caps the number of postings kept from the search.
	SearchLimit int `mapstructure:"search-limit" validate:"gte=0"`
	// SearchSkills is the number of leading skills added to the search query.
	SearchSkills int `mapstructure:"search-skills" validate:"gte=0"`
	// GapJobs is the number of top ranked postings used as role requirements.
	GapJobs          int `mapstructure:"gap-jobs" validate:"gte=0"`
	RequirementChars int `mapstructure:"requirement-chars" validate:"gte=0"`
	// Search holds the static search parameters. Query is always overwritten.
	Search *jobs.SearchParams `mapstructure:"search"`
}

func DefaultConfig() Config {
	return Config{
		TopK:             DefaultTopK,
		SearchLimit:      jobs.DefaultLimit,
		SearchSkills:     DefaultSearchSkills,
		GapJobs:          DefaultGapJobs,
		RequirementChars: DefaultRequirementChars,
	}
}

// State is the record threaded through the steps.
type State struct {
	RunID       string            `json:"run_id"`
	ResumePath  string            `json:"resume_path"`
	ResumeText  string            `json:"resume_text,omitempty"`
	Summary     string            `json:"summary,omitempty"`
	Profile     *profile.Profile  `json:"profile,omitempty"`
	TargetRoles []string          `json:"target_roles,omitempty"`
	Query       string            `json:"query,omitempty"`
	RawJobs     *jobs.Jobs        `json:"raw_jobs,omitempty"`
	Jobs        *jobs.Jobs        `json:"jobs,omitempty"`
	Results     []ranking.Result  `json:"results,omitempty"`
	RankedJobs  []*jobs.Job       `json:"ranked_jobs,omitempty"`
	SkillGap    *profile.SkillGap `json:"skill_gap,omitempty"`
	Roadmap     string            `json:"roadmap,omitempty"`
	Brief       string            `json:"brief,omitempty"`
}

type Step struct {
	Name string
	Run  func(ctx context.Context, s *State) error
}

type Pipeline struct {
	deps   Deps
	cfg    Config
	steps  []Step
	logger *zap.Logger
}

func New(deps Deps, cfg Config, logger *zap.Logger) (*Pipeline, error) {
	if deps.ReadResume == nil {
		return nil, errors.New("resume reader is required")
	}
	if deps.Advisor == nil {
		return nil, errors.New("advisor is required")
	}
	if deps.Searcher == nil {
		return nil, errors.New("job searcher is required")
	}
	if deps.Ranker == nil {
		return nil, errors.New("ranker is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	defaults := DefaultConfig()
	if cfg.TopK <= 0 {
		cfg.TopK = defaults.TopK
	}
	if cfg.SearchLimit <= 0 {
		cfg.SearchLimit = defaults.SearchLimit
	}
	if cfg.SearchSkills <= 0 {
		cfg.SearchSkills = defaults.SearchSkills
	}
	if cfg.GapJobs <= 0 {
		cfg.GapJobs = defaults.GapJobs
	}
	if cfg.RequirementChars <= 0 {
		cfg.RequirementChars = defaults.RequirementChars
	}

	p := &Pipeline{deps: deps, cfg: cfg, logger: logger}
	p.steps = []Step{
		{Name: StepParseResume, Run: p.parseResume},
		{Name: StepSummary, Run: p.summary},
		{Name: StepProfile, Run: p.profile},
		{Name: StepSearchJobs, Run: p.searchJobs},
		{Name: StepFilterJobs, Run: p.filterJobs},
		{Name: StepRankJobs, Run: p.rankJobs},
		{Name: StepSkillGaps, Run: p.skillGaps},
		{Name: StepRoadmap, Run: p.roadmap},
		{Name: StepBrief, Run: p.brief},
	}
	return p, nil
}

// Steps returns the step names in execution order.
func (p *Pipeline) Steps() []string {
	names := make([]string, 0, len(p.steps))
	for _, step := range p.steps {
		names = append(names, step.Name)
	}
	return names
}

// Run executes every step in order. The returned state holds whatever was
// produced before a failing step.
func (p *Pipeline) Run(ctx context.Context, resumePath string) (*State, error) {
	state := &State{
		RunID:      uuid.New().String(),
		ResumePath: resumePath,
	}
	runLog := p.logger.With(zap.String(logger.FieldRunID, state.RunID))

	started := time.Now()
	for _, step := range p.steps {
		if err := ctx.Err(); err != nil {
			return state, err
		}

		stepStarted := time.Now()
		if err := step.Run(ctx, state); err != nil {
			runLog.Error("pipeline step failed",
				zap.String("name", step.Name),
				zap.Duration("duration", time.Since(stepStarted)),
				zap.Error(err),
			)
			return state, fmt.Errorf("%s: %w", step.Name, err)
		}

		runLog.Info("pipeline step",
			zap.String("name", step.Name),
			zap.Duration("duration", time.Since(stepStarted)),
		)
	}

	runLog.Info("pipeline finished",
		zap.Int("ranked", len(state.RankedJobs)),
		zap.Duration("duration", time.Since(started)),
	)
	return state, nil
}

func (p *Pipeline) parseResume(_ context.Context, s *State) error {
	text, err := p.deps.ReadResume(s.ResumePath)
	if err != nil {
		return err
	}
	s.ResumeText = text
	return nil
}

func (p *Pipeline) summary(ctx context.Context, s *State) error {
	summary, err := p.deps.Advisor.Summarize(ctx, s.ResumeText)
	if err != nil {
		return err
	}
	s.Summary = summary
	return nil
}

func (p *Pipeline) profile(ctx context.Context, s *State) error {
	prof, err := p.deps.Advisor.ExtractProfile(ctx, s.ResumeText)
	if err != nil {
		return err
	}
	if prof == nil {
		prof = &profile.Profile{}
	}
	s.Profile = prof
	s.TargetRoles = prof.SearchRoles()
	return nil
}

// SearchQuery joins the target roles and the leading skills the way job boards expect free text.
func SearchQuery(roles, skills []string) string {
	return strings.Join(roles, ", ") + " " + strings.Join(skills, ", ")
}

func (p *Pipeline) searchJobs(ctx context.Context, s *State) error {
	s.Query = SearchQuery(s.TargetRoles, s.Profile.TopSkills(p.cfg.SearchSkills))

	params := &jobs.SearchParams{}
	if p.cfg.Search != nil {
		copied := *p.cfg.Search
		params = &copied
	}
	params.Query = s.Query

	found, err := p.deps.Searcher.Search(ctx, params, p.cfg.SearchLimit)
	if err != nil {
		p.logger.Warn("job search failed, continuing without jobs",
			zap.String("query", s.Query),
			zap.Error(err),
		)
		found = &jobs.Jobs{}
	}
	if found == nil {
		found = &jobs.Jobs{}
	}

	s.RawJobs = found
	s.Jobs = &jobs.Jobs{Items: append([]*jobs.Job(nil), found.Items...)}
	return nil
}

func (p *Pipeline) filterJobs(ctx context.Context, s *State) error {
	if p.deps.Filter == nil || s.Jobs.Len() == 0 {
		return nil
	}
	filtered, err := p.deps.Filter.RunFilters(ctx, s.Jobs)
	if err != nil {
		return err
	}
	s.Jobs = filtered
	return nil
}

func (p *Pipeline) rankJobs(ctx context.Context, s *State) error {
	var postings []*jobs.Job
	if s.Jobs != nil {
		postings = s.Jobs.Items
	}
	s.Results = p.deps.Ranker.Rank(ctx, s.Profile, postings, p.cfg.TopK)
	s.RankedJobs = ranking.Jobs(s.Results)
	return nil
}

// Requirements builds the role requirement snippets from the leading ranked postings.
func Requirements(ranked []*jobs.Job, count, limit int) []string {
	if len(ranked) > count {
		ranked = ranked[:count]
	}
	requirements := make([]string, 0, len(ranked))
	for _, job := range ranked {
		if job == nil {
			continue
		}
		requirements = append(requirements, utils.Truncate(job.Title+" - "+job.Description, limit))
	}
	return requirements
}

func (p *Pipeline) skillGaps(ctx context.Context, s *State) error {
	requirements := Requirements(s.RankedJobs, p.cfg.GapJobs, p.cfg.RequirementChars)
	gap, err := p.deps.Advisor.SkillGaps(ctx, s.Profile.Skills, requirements)
	if err != nil {
		return err
	}
	s.SkillGap = gap
	return nil
}

func (p *Pipeline) roadmap(ctx context.Context, s *State) error {
	roadmap, err := p.deps.Advisor.Roadmap(ctx, s.Profile, s.TargetRoles)
	if err != nil {
		return err
	}
	s.Roadmap = roadmap
	return nil
}

func (p *Pipeline) brief(ctx context.Context, s *State) error {
	brief, err := p.deps.Advisor.Brief(ctx, s.Profile, s.RankedJobs)
	if err != nil {
		return err
	}
	s.Brief = brief
	return nil
}
