package filtering

import (
	"context"
	"strings"

	"github.com/spigell/job-recommender/internal/jobs"
)

type companiesFilter struct {
	toggle
	companies []string
}

// NewExcludedCompanies drops postings from the listed companies, compared case-insensitively.
func NewExcludedCompanies(companies []string) Filter {
	return &companiesFilter{companies: companies}
}

func (f *companiesFilter) Name() string { return "companies" }

func (f *companiesFilter) Validate() error { return nil }

func (f *companiesFilter) Apply(_ context.Context, j *jobs.Jobs) (*jobs.Jobs, Step, error) {
	initial := j.Len()
	if len(f.companies) == 0 {
		return j, stepOf(initial, j), nil
	}

	j.Exclude(jobs.JobCompanyField, f.companies)

	return j, stepOf(initial, j), nil
}

type titleKeywordsFilter struct {
	toggle
	keywords []string
}

// NewTitleKeywords drops postings whose title contains any of the keywords, case-insensitively.
func NewTitleKeywords(keywords []string) Filter {
	return &titleKeywordsFilter{keywords: keywords}
}

func (f *titleKeywordsFilter) Name() string { return "title_keywords" }

func (f *titleKeywordsFilter) Validate() error { return nil }

func (f *titleKeywordsFilter) Apply(_ context.Context, j *jobs.Jobs) (*jobs.Jobs, Step, error) {
	initial := j.Len()

	lowered := make([]string, 0, len(f.keywords))
	for _, k := range f.keywords {
		if k = strings.ToLower(strings.TrimSpace(k)); k != "" {
			lowered = append(lowered, k)
		}
	}
	if len(lowered) == 0 {
		return j, stepOf(initial, j), nil
	}

	j.Filter(func(job *jobs.Job) bool {
		title := strings.ToLower(job.Title)
		for _, k := range lowered {
			if strings.Contains(title, k) {
				return false
			}
		}
		return true
	})

	return j, stepOf(initial, j), nil
}
