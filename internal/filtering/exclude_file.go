package filtering

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spigell/job-recommender/internal/jobs"
)

type excludeFileFilter struct {
	toggle
	path string
}

// NewExcludeFile drops postings whose link is listed in the exclude file.
func NewExcludeFile(path string) Filter {
	return &excludeFileFilter{
		path: path,
	}
}

func (f *excludeFileFilter) Name() string { return "exclude_file" }

func (f *excludeFileFilter) Validate() error {
	if f.path == "" {
		return nil
	}
	dir := filepath.Dir(f.path)
	if _, err := os.Stat(dir); err != nil {
		return fmt.Errorf("exclude file directory: %w", err)
	}
	return nil
}

func (f *excludeFileFilter) Apply(_ context.Context, j *jobs.Jobs) (*jobs.Jobs, Step, error) {
	initial := j.Len()
	if f.path == "" {
		return j, stepOf(initial, j), nil
	}

	excluded, err := jobs.GetExcludedJobsFromFile(f.path)
	if err != nil {
		return j, Step{}, fmt.Errorf("getting excluded jobs from file: %w", err)
	}

	j.Exclude(jobs.JobLinkField, excluded.Links())

	return j, stepOf(initial, j), nil
}
