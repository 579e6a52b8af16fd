package filtering

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/spigell/job-recommender/internal/jobs"
)

func sample() *jobs.Jobs {
	return &jobs.Jobs{Items: []*jobs.Job{
		{Title: "Data Analyst", Company: "Acme", Link: "https://jobs/1"},
		{Title: "Data Analyst", Company: "Acme", Link: "https://jobs/2"},
		{Title: "Senior BI Analyst", Company: "Globex", Link: "https://jobs/3"},
		{Title: "Chef", Company: "Bistro", Link: "https://jobs/1"},
		{Title: "Business Analyst", Company: "Initech", Link: "https://jobs/4"},
		{},
		{},
	}}
}

func links(j *jobs.Jobs) []string {
	out := make([]string, 0, j.Len())
	for _, job := range j.Items {
		out = append(out, job.Link)
	}
	return out
}

func equal(t *testing.T, want, got []string) {
	t.Helper()
	if len(want) != len(got) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if want[i] != got[i] {
			t.Fatalf("expected %v, got %v", want, got)
		}
	}
}

func TestDuplicates(t *testing.T) {
	j, info, err := NewDuplicates().Apply(context.Background(), sample())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	equal(t, []string{"https://jobs/1", "https://jobs/3", "https://jobs/4", "", ""}, links(j))
	if info.Initial != 7 || info.Dropped != 2 || info.Left != 5 {
		t.Fatalf("unexpected step info: %+v", info)
	}
}

func TestExcludedCompanies(t *testing.T) {
	j, info, err := NewExcludedCompanies([]string{"acme", "BISTRO"}).Apply(context.Background(), sample())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	equal(t, []string{"https://jobs/3", "https://jobs/4", "", ""}, links(j))
	if info.Dropped != 3 {
		t.Fatalf("expected 3 dropped, got %d", info.Dropped)
	}
}

func TestTitleKeywords(t *testing.T) {
	j, _, err := NewTitleKeywords([]string{" senior ", ""}).Apply(context.Background(), sample())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if j.Len() != 6 {
		t.Fatalf("expected 6 jobs, got %d", j.Len())
	}
	for _, job := range j.Items {
		if job.Title == "Senior BI Analyst" {
			t.Fatalf("senior posting must be dropped")
		}
	}
}

func TestExcludeFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "exclude.json")
	excluded := &jobs.ExcludedJobs{Items: []*jobs.ExcludedJob{{Link: "https://jobs/1"}, {Link: "https://jobs/4"}}}
	if err := excluded.ToFile(path); err != nil {
		t.Fatal(err)
	}

	f := NewExcludeFile(path)
	if err := f.Validate(); err != nil {
		t.Fatalf("unexpected validation error: %v", err)
	}

	j, _, err := f.Apply(context.Background(), sample())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	equal(t, []string{"https://jobs/2", "https://jobs/3", "", ""}, links(j))
}

func TestExcludeFileMissingDirectory(t *testing.T) {
	f := NewExcludeFile(filepath.Join(t.TempDir(), "absent", "exclude.json"))
	if err := f.Validate(); err == nil {
		t.Fatal("expected validation error")
	}
}

func TestExcludeFileBroken(t *testing.T) {
	path := filepath.Join(t.TempDir(), "exclude.json")
	if err := os.WriteFile(path, []byte("{"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, _, err := NewExcludeFile(path).Apply(context.Background(), sample()); err == nil {
		t.Fatal("expected decode error")
	}
}

type failingFilter struct {
	toggle
	validateErr error
	applyErr    error
}

func (f *failingFilter) Name() string    { return "failing" }
func (f *failingFilter) Validate() error { return f.validateErr }
func (f *failingFilter) Apply(_ context.Context, j *jobs.Jobs) (*jobs.Jobs, Step, error) {
	return j, Step{}, f.applyErr
}

func TestRunFilters(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)

	failing := &failingFilter{applyErr: errors.New("boom")}
	f := New([]Filter{NewDuplicates(), NewExcludedCompanies([]string{"Globex"}), failing}, zap.New(core))
	f.DisableByName("failing", "not needed")

	j, err := f.RunFilters(context.Background(), sample())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	equal(t, []string{"https://jobs/1", "https://jobs/4", "", ""}, links(j))

	if got := logs.FilterMessage("filter step").Len(); got != 2 {
		t.Fatalf("expected 2 filter step entries, got %d", got)
	}
	if got := logs.FilterMessage("filter disabled").Len(); got != 1 {
		t.Fatalf("expected 1 disabled entry, got %d", got)
	}

	statuses := f.Describe()
	if len(statuses) != 3 || statuses[2].Enabled || statuses[2].Reason != "not needed" {
		t.Fatalf("unexpected statuses: %+v", statuses)
	}
}

func TestRunFiltersErrors(t *testing.T) {
	f := New([]Filter{&failingFilter{validateErr: errors.New("invalid")}}, nil)
	if _, err := f.RunFilters(context.Background(), sample()); err == nil || err.Error() != "failing: invalid" {
		t.Fatalf("unexpected error: %v", err)
	}

	f = New([]Filter{&failingFilter{applyErr: errors.New("boom")}}, nil)
	if _, err := f.RunFilters(context.Background(), sample()); err == nil || err.Error() != "failing: boom" {
		t.Fatalf("unexpected error: %v", err)
	}
}
