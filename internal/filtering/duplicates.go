package filtering

import (
	"context"
	"strings"

	"github.com/spigell/job-recommender/internal/jobs"
)

type duplicatesFilter struct {
	toggle
}

// NewDuplicates drops repeated postings: the same link, or the same title at the same company.
// The first occurrence is kept.
func NewDuplicates() Filter {
	return &duplicatesFilter{}
}

func (f *duplicatesFilter) Name() string { return "duplicates" }

func (f *duplicatesFilter) Validate() error { return nil }

func (f *duplicatesFilter) Apply(_ context.Context, j *jobs.Jobs) (*jobs.Jobs, Step, error) {
	initial := j.Len()
	links := make(map[string]struct{})
	titles := make(map[string]struct{})

	j.Filter(func(job *jobs.Job) bool {
		if job == nil {
			return false
		}
		if link := strings.TrimSpace(job.Link); link != "" {
			if _, ok := links[link]; ok {
				return false
			}
			links[link] = struct{}{}
		}

		title := strings.ToLower(strings.TrimSpace(job.Title))
		company := strings.ToLower(strings.TrimSpace(job.Company))
		if title == "" && company == "" {
			return true
		}
		key := title + "\x00" + company
		if _, ok := titles[key]; ok {
			return false
		}
		titles[key] = struct{}{}
		return true
	})

	return j, stepOf(initial, j), nil
}
