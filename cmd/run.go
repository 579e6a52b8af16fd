package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/job-recommender/internal/ai"
	"github.com/spigell/job-recommender/internal/embedding"
	"github.com/spigell/job-recommender/internal/jobs"
	"github.com/spigell/job-recommender/internal/logger"
	"github.com/spigell/job-recommender/internal/pipeline"
	"github.com/spigell/job-recommender/internal/ranking"
	"github.com/spigell/job-recommender/internal/resume"
)

const (
	PromptShowJobs            = "Show ranked jobs"
	PromptShowSkillGaps       = "Show skill gaps"
	PromptShowRoadmap         = "Show roadmap"
	PromptShowBrief           = "Show recommendation brief"
	PromptReportByCompanies   = "Report by companies"
	PromptJobsToFile          = "Dump ranked jobs to file"
	PromptAppendToExcludeFile = "Append ranked jobs to exclude file"
	PromptExit                = "Exit"
)

var errExit = errors.New("exit requested")

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Recommend jobs for a resume",
	Run: func(cmd *cobra.Command, _ []string) {
		run(cmd)
	},
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringP("resume", "r", "", "path to the resume (.pdf, .docx or text)")
	runCmd.Flags().BoolP("auto-approve", "y", false, "print every result and exit without the interactive menu")
	runCmd.Flags().StringP("exclude-file", "e", "", "special file with jobs to exclude. Default is unset.")
	runCmd.Flags().StringP("out", "o", "", "write the whole run state as JSON to this file")
	runCmd.Flags().Int("top-k", pipeline.DefaultTopK, "number of ranked jobs to keep")

	viper.BindPFlag("resume", runCmd.Flags().Lookup("resume"))
	viper.BindPFlag("exclude-file", runCmd.Flags().Lookup("exclude-file"))
	viper.BindPFlag("pipeline.top-k", runCmd.Flags().Lookup("top-k"))
}

// run is the main command for the cli.
func run(cmd *cobra.Command) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	logger.Info("starting the job-recommender", zap.String("version", version))

	// do not bother error since there is a valid parseable config
	pretty, _ := json.MarshalIndent(redacted(config), "", "  ")
	logger.Debug(fmt.Sprintf("starting with config: \n %s", pretty))

	if strings.TrimSpace(config.Resume) == "" {
		logger.Fatal("resume path is required", zap.String("hint", "pass --resume or set 'resume' in the configuration file"))
	}

	embedder := newEmbedder(config.Embedding, logger)

	p, err := newPipeline(ctx, config, embedder, logger)
	if err != nil {
		logger.Fatal("building the pipeline", zap.Error(err))
	}

	state, err := p.Run(ctx, config.Resume)
	if err != nil {
		logger.Fatal("running the pipeline", zap.Error(err))
	}

	logCacheStats(logger, embedder)
	logger.Debug("ranked jobs", zap.Strings("titles", (&jobs.Jobs{Items: state.RankedJobs}).Titles()))

	if out := cmd.Flag("out").Value.String(); out != "" {
		if err := writeJSON(out, state); err != nil {
			logger.Fatal("writing run state", zap.Error(err))
		}
		logger.Info("run state written", zap.String("filename", out))
	}

	if len(state.RankedJobs) == 0 {
		logger.Info("no jobs ranked", zap.String("query", state.Query))
	}

	if cmd.Flag("auto-approve").Value.String() == "true" {
		for _, action := range []string{PromptShowJobs, PromptShowSkillGaps, PromptShowRoadmap, PromptShowBrief} {
			if err := handleAction(action, logger, config, state); err != nil {
				logger.Fatal("exiting", zap.Error(err))
			}
		}
		return
	}

	prompt := promptui.Select{
		Label: "What next?",
		Items: menuItems(config),
		Size:  10,
	}

	for {
		_, action, err := prompt.Run()
		if err != nil {
			logger.Fatal("exiting", zap.Error(err))
		}

		if err := handleAction(action, logger, config, state); err != nil {
			if errors.Is(err, errExit) {
				return
			}
			logger.Fatal("exiting", zap.Error(err))
		}
	}
}

func newPipeline(ctx context.Context, config *Config, embedder embedding.Embedder, log *zap.Logger) (*pipeline.Pipeline, error) {
	generator, err := newGenerator(ctx, config.AI, log)
	if err != nil {
		return nil, fmt.Errorf("building language model client: %w", err)
	}

	searcher, err := newJobsClient(config.JSearch, config.UserAgent, log)
	if err != nil {
		return nil, fmt.Errorf("building job search client: %w", err)
	}

	engine := ranking.NewEngine(embedder, config.Ranking, log)

	return pipeline.New(pipeline.Deps{
		ReadResume: resume.Read,
		Advisor:    ai.NewAdvisor(generator, logger.WithCommonFields(log, config.AI.Provider, generator.Model()), config.AI.MaxLogLength),
		Searcher:   searcher,
		Filter:     newFilters(config, log),
		Ranker:     engine,
	}, config.Pipeline, log)
}

func menuItems(config *Config) []string {
	items := []string{
		PromptShowJobs,
		PromptShowSkillGaps,
		PromptShowRoadmap,
		PromptShowBrief,
		PromptReportByCompanies,
		PromptJobsToFile,
	}
	if config.ExcludeFile != "" {
		items = append(items, PromptAppendToExcludeFile)
	}
	return append(items, PromptExit)
}

func handleAction(action string, logger *zap.Logger, config *Config, state *pipeline.State) error {
	ranked := &jobs.Jobs{Items: state.RankedJobs}

	switch action {
	case PromptShowJobs:
		printResults(state.Results)
		return nil
	case PromptShowSkillGaps:
		pretty, _ := json.MarshalIndent(state.SkillGap, "", "  ")
		fmt.Println(string(pretty))
		return nil
	case PromptShowRoadmap:
		fmt.Println(state.Roadmap)
		return nil
	case PromptShowBrief:
		fmt.Println(state.Brief)
		return nil
	case PromptReportByCompanies:
		pretty, _ := json.MarshalIndent(ranked.ReportByCompany(), "", "  ")
		logger.Info(string(pretty), zap.Int("jobs count", ranked.Len()))
		return nil
	case PromptJobsToFile:
		filename, err := ranked.DumpToTmpFile()
		if err != nil {
			return fmt.Errorf("dump results to file: %w", err)
		}
		logger.Info("dumping result to file", zap.String("filename", filename))
		return nil
	case PromptAppendToExcludeFile:
		excluded, err := jobs.GetExcludedJobsFromFile(config.ExcludeFile)
		if err != nil {
			return err
		}

		excluded.Append(ranked.ToExcluded())

		if err = excluded.ToFile(config.ExcludeFile); err != nil {
			return err
		}

		logger.Info("appended to exclude file", zap.String("filename", config.ExcludeFile), zap.Int("count", ranked.Len()))
		return nil
	case PromptExit:
		logger.Info("exiting", zap.String("reason", "got exit from prompt"))
		return errExit
	default:
		return fmt.Errorf("invalid action: %s", action)
	}
}

func printResults(results []ranking.Result) {
	for i, result := range results {
		job := result.Job
		if job == nil {
			continue
		}
		fmt.Printf("%2d. [%.3f] %s / %s / %s\n    %s\n",
			i+1, result.Score, job.Title, job.Company, job.Location, job.Link,
		)
	}
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

// redacted returns a copy of config without inline secrets.
func redacted(config *Config) *Config {
	c := *config
	mask := func(s string) string {
		if s == "" {
			return ""
		}
		return "***"
	}
	c.Embedding.APIKey = mask(c.Embedding.APIKey)
	c.JSearch.APIKey = mask(c.JSearch.APIKey)
	if c.AI.Groq != nil {
		groqCfg := *c.AI.Groq
		groqCfg.APIKey = mask(groqCfg.APIKey)
		c.AI.Groq = &groqCfg
	}
	if c.AI.Gemini != nil {
		geminiCfg := *c.AI.Gemini
		geminiCfg.APIKey = mask(geminiCfg.APIKey)
		c.AI.Gemini = &geminiCfg
	}
	return &c
}
