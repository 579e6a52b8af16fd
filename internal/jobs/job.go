package jobs

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"
)

const (
	JobLinkField    = "Link"
	JobCompanyField = "Company"
)

// Job is a posting. Every field may be empty.
type Job struct {
	Title       string `json:"title"`
	Company     string `json:"company"`
	Location    string `json:"location"`
	Description string `json:"description"`
	Link        string `json:"link,omitempty"`
}

type Jobs struct {
	Items []*Job
}

type ExcludedJobs struct {
	Items []*ExcludedJob
}

type ExcludedJob struct {
	Link       string
	Title      string
	Company    string
	ExcludedAt time.Time
}

// FromFile reads postings from a JSON file holding either a list of jobs or {"Items": [...]}.
func FromFile(path string) (*Jobs, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	trimmed := strings.TrimSpace(string(data))
	if trimmed == "" {
		return &Jobs{}, nil
	}

	if strings.HasPrefix(trimmed, "[") {
		var items []*Job
		if err := json.Unmarshal(data, &items); err != nil {
			return nil, fmt.Errorf("decode jobs file %q: %w", path, err)
		}
		return &Jobs{Items: items}, nil
	}

	var jobs Jobs
	if err := json.Unmarshal(data, &jobs); err != nil {
		return nil, fmt.Errorf("decode jobs file %q: %w", path, err)
	}
	return &jobs, nil
}

func (j *Jobs) DumpToTmpFile() (string, error) {
	file, err := os.CreateTemp("", "jobs_*.json")
	if err != nil {
		return "", err
	}
	defer file.Close()

	enc := json.NewEncoder(file)
	enc.SetIndent("", "  ")
	if err := enc.Encode(j.Items); err != nil {
		return "", err
	}
	return file.Name(), nil
}

func (j *Jobs) ToExcluded() *ExcludedJobs {
	excluded := &ExcludedJobs{}
	for _, job := range j.Items {
		excluded.Items = append(excluded.Items, &ExcludedJob{
			Link:       job.Link,
			Title:      job.Title,
			Company:    job.Company,
			ExcludedAt: time.Now().UTC(),
		})
	}
	return excluded
}

// GetExcludedJobsFromFile reads an exclude file. A missing or empty file yields no entries.
func GetExcludedJobsFromFile(path string) (*ExcludedJobs, error) {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &ExcludedJobs{}, nil
		}
		return nil, err
	}
	defer file.Close()

	stat, err := file.Stat()
	if err != nil {
		return nil, err
	}

	if stat.Size() == 0 {
		return &ExcludedJobs{}, nil
	}

	var excluded ExcludedJobs
	if err := json.NewDecoder(file).Decode(&excluded); err != nil {
		return nil, err
	}
	return &excluded, nil
}

func (e *ExcludedJobs) Append(s *ExcludedJobs) {
	e.Items = append(e.Items, s.Items...)
}

func (e *ExcludedJobs) Links() []string {
	links := make([]string, 0, len(e.Items))
	for _, job := range e.Items {
		if job.Link != "" {
			links = append(links, job.Link)
		}
	}
	return links
}

func (e *ExcludedJobs) ToFile(path string) error {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	defer file.Close()

	enc := json.NewEncoder(file)
	enc.SetIndent("", "  ")
	return enc.Encode(e)
}

func (job *Job) GetStringField(name string) string {
	switch name {
	case JobLinkField:
		return job.Link
	case JobCompanyField:
		return job.Company
	default:
		return ""
	}
}

// ReportByCompany groups postings by company name.
func (j *Jobs) ReportByCompany() map[string][]map[string]string {
	report := make(map[string][]map[string]string)
	for _, job := range j.Items {
		key := job.Company
		if key == "" {
			key = "(unknown company)"
		}
		report[key] = append(report[key], map[string]string{
			"title":    job.Title,
			"location": job.Location,
			"link":     job.Link,
		})
	}
	return report
}

func (j *Jobs) Len() int {
	if j == nil {
		return 0
	}
	return len(j.Items)
}

func (j *Jobs) Titles() []string {
	if j == nil {
		return nil
	}
	titles := make([]string, 0, len(j.Items))
	for _, job := range j.Items {
		titles = append(titles, job.Title)
	}
	return titles
}

// Exclude removes every job whose field matches one of targets, case-insensitively,
// and returns the removed jobs. Remaining jobs keep their order.
func (j *Jobs) Exclude(name string, targets []string) []*Job {
	set := make(map[string]struct{}, len(targets))
	for _, target := range targets {
		if t := strings.ToLower(strings.TrimSpace(target)); t != "" {
			set[t] = struct{}{}
		}
	}
	if len(set) == 0 {
		return nil
	}

	return j.Filter(func(job *Job) bool {
		_, drop := set[strings.ToLower(strings.TrimSpace(job.GetStringField(name)))]
		return !drop
	})
}

// Filter keeps jobs for which keep returns true, preserving order, and returns the dropped ones.
func (j *Jobs) Filter(keep func(*Job) bool) []*Job {
	var removed []*Job
	kept := make([]*Job, 0, len(j.Items))
	for _, job := range j.Items {
		if keep(job) {
			kept = append(kept, job)
			continue
		}
		removed = append(removed, job)
	}
	j.Items = kept

	return removed
}
