// Package ranking orders job postings by semantic and lexical similarity to a candidate.
package ranking

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/spigell/job-recommender/internal/embedding"
	"github.com/spigell/job-recommender/internal/jobs"
	"github.com/spigell/job-recommender/internal/profile"
	"github.com/spigell/job-recommender/internal/utils"
)

const (
	DefaultTopK             = 10
	DefaultSimilarityWeight = 1.0
	DefaultMaxDocumentChars = 3000
	DefaultBatchSize        = 8
	DefaultWorkers          = 4
)

// Options configure an Engine. Start from DefaultOptions. When both weights are
// zero they are treated as unset and replaced by the defaults; a zero BoostWeight
// next to a non-zero SimilarityWeight disables the title boost.
type Options struct {
	// TopK is used when Rank is called with a negative k.
	TopK             int     `mapstructure:"top-k" validate:"gte=0"`
	SimilarityWeight float64 `mapstructure:"similarity-weight" validate:"gte=0"`
	BoostWeight      float64 `mapstructure:"boost-weight" validate:"gte=0"`
	// MaxDocumentChars bounds the text sent per job. Negative disables truncation.
	MaxDocumentChars int `mapstructure:"max-document-chars"`
	// BatchSize is the number of job texts per embedding request.
	BatchSize int `mapstructure:"batch-size" validate:"gte=0"`
	// Workers bounds the number of embedding requests in flight.
	Workers int `mapstructure:"workers" validate:"gte=0"`
	// Deadline caps a whole Rank call. Zero means no cap beyond per-request timeouts.
	Deadline time.Duration `mapstructure:"deadline" validate:"gte=0"`
}

func DefaultOptions() Options {
	return Options{
		TopK:             DefaultTopK,
		SimilarityWeight: DefaultSimilarityWeight,
		BoostWeight:      DefaultBoostWeight,
		MaxDocumentChars: DefaultMaxDocumentChars,
		BatchSize:        DefaultBatchSize,
		Workers:          DefaultWorkers,
	}
}

// Result is a scored posting. Job is the caller's pointer, unmodified.
type Result struct {
	Score      float64   `json:"score"`
	Similarity float64   `json:"similarity"`
	Boost      float64   `json:"boost"`
	Job        *jobs.Job `json:"job"`
}

type Engine struct {
	embedder embedding.Embedder
	opts     Options
	logger   *zap.Logger
}

func NewEngine(embedder embedding.Embedder, opts Options, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.TopK <= 0 {
		opts.TopK = DefaultTopK
	}
	if opts.SimilarityWeight == 0 && opts.BoostWeight == 0 {
		opts.SimilarityWeight = DefaultSimilarityWeight
		opts.BoostWeight = DefaultBoostWeight
	}
	if opts.MaxDocumentChars == 0 {
		opts.MaxDocumentChars = DefaultMaxDocumentChars
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = 1
	}
	if opts.Workers <= 0 {
		opts.Workers = 1
	}
	return &Engine{embedder: embedder, opts: opts, logger: logger}
}

func (e *Engine) Options() Options {
	return e.opts
}

// QueryText builds the text embedded for the candidate.
func QueryText(p *profile.Profile) string {
	return fmt.Sprintf("%s. Skills: %s.", p.RolesString(), p.SkillsString())
}

// DocumentText builds the text embedded for a job, cut to limit characters.
func DocumentText(job *jobs.Job, limit int) string {
	if job == nil {
		job = &jobs.Job{}
	}
	return utils.Truncate(fmt.Sprintf("%s %s %s", job.Title, job.Company, job.Description), limit)
}

// Rank scores every job against the profile and returns the best k, highest first.
// A negative k uses Options.TopK; k == 0 returns no results.
// Equal scores keep input order. It never fails; embedding problems only lower scores.
func (e *Engine) Rank(ctx context.Context, p *profile.Profile, postings []*jobs.Job, k int) []Result {
	if k < 0 {
		k = e.opts.TopK
	}
	if len(postings) == 0 || k == 0 {
		return []Result{}
	}

	if e.opts.Deadline > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.opts.Deadline)
		defer cancel()
	}

	started := time.Now()
	roles := p.RolesString()

	query := embedding.EmbedOne(ctx, e.embedder, QueryText(p))
	if query.IsZero() {
		e.logger.Warn("query embedding is empty, ranking by title match only")
	}

	docs := make([]string, len(postings))
	for i, job := range postings {
		docs[i] = DocumentText(job, e.opts.MaxDocumentChars)
	}
	vectors := e.embedAll(ctx, docs)

	results := make([]Result, len(postings))
	for i, job := range postings {
		title := ""
		if job != nil {
			title = job.Title
		}
		sim := Cosine(query, vectors[i])
		boost := Boost(title, roles, e.opts.BoostWeight)
		results[i] = Result{
			Score:      e.opts.SimilarityWeight*sim + boost,
			Similarity: sim,
			Boost:      boost,
			Job:        job,
		}
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})

	if len(results) > k {
		results = results[:k]
	}

	e.logger.Info("ranked jobs",
		zap.Int("jobs", len(postings)),
		zap.Int("returned", len(results)),
		zap.Duration("took", time.Since(started)),
	)

	return results
}

// embedAll returns one vector per text. Texts go out in batches on a bounded
// number of workers; a batch that comes back entirely zero is retried text by
// text so one bad input cannot zero its neighbours.
func (e *Engine) embedAll(ctx context.Context, texts []string) embedding.Matrix {
	out := make(embedding.Matrix, len(texts))

	var g errgroup.Group
	g.SetLimit(e.opts.Workers)

	for start := 0; start < len(texts); start += e.opts.BatchSize {
		end := min(start+e.opts.BatchSize, len(texts))
		g.Go(func() error {
			e.embedBatch(ctx, texts[start:end], out[start:end])
			return nil
		})
	}
	_ = g.Wait()

	for i := range out {
		if out[i] == nil {
			out[i] = embedding.Zero()
		}
	}
	return out
}

func (e *Engine) embedBatch(ctx context.Context, texts []string, dst embedding.Matrix) {
	m := e.embedder.Embed(ctx, texts)
	if len(m) != len(texts) {
		e.logger.Error("embedder returned wrong number of rows",
			zap.Int("want", len(texts)),
			zap.Int("got", len(m)),
		)
		m = embedding.Zeros(len(texts))
	}

	if len(texts) > 1 && m.IsZero() && ctx.Err() == nil {
		e.logger.Debug("batch embedding failed, retrying one by one", zap.Int("size", len(texts)))
		for i, text := range texts {
			dst[i] = embedding.EmbedOne(ctx, e.embedder, text)
		}
		return
	}

	copy(dst, m)
}

// Jobs returns the postings of results in order.
func Jobs(results []Result) []*jobs.Job {
	out := make([]*jobs.Job, 0, len(results))
	for _, r := range results {
		out = append(out, r.Job)
	}
	return out
}
