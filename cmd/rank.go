package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/job-recommender/internal/jobs"
	"github.com/spigell/job-recommender/internal/logger"
	"github.com/spigell/job-recommender/internal/profile"
	"github.com/spigell/job-recommender/internal/ranking"
)

var rankCmd = &cobra.Command{
	Use:   "rank",
	Short: "Rank a jobs JSON file against a profile JSON file",
	Run: func(cmd *cobra.Command, _ []string) {
		rank(cmd)
	},
}

func init() {
	rootCmd.AddCommand(rankCmd)

	rankCmd.Flags().StringP("profile", "p", "", "candidate profile JSON file")
	rankCmd.Flags().String("jobs", "", "jobs JSON file (a list or a dump made by the run command)")
	rankCmd.Flags().IntP("top-k", "k", -1, "number of ranked jobs to keep (negative uses ranking.top-k)")
	rankCmd.Flags().StringP("out", "o", "", "write results to this file instead of stdout")

	rankCmd.MarkFlagRequired("profile")
	rankCmd.MarkFlagRequired("jobs")
}

func rank(cmd *cobra.Command) {
	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	p, err := loadProfile(cmd.Flag("profile").Value.String())
	if err != nil {
		logger.Fatal("loading profile", zap.Error(err))
	}

	postings, err := jobs.FromFile(cmd.Flag("jobs").Value.String())
	if err != nil {
		logger.Fatal("loading jobs", zap.Error(err))
	}

	topK, _ := cmd.Flags().GetInt("top-k")

	embedder := newEmbedder(config.Embedding, logger)
	engine := ranking.NewEngine(embedder, config.Ranking, logger)
	results := engine.Rank(context.Background(), p, postings.Items, topK)
	logCacheStats(logger, embedder)

	out := cmd.Flag("out").Value.String()
	if out == "" {
		pretty, _ := json.MarshalIndent(results, "", "  ")
		fmt.Println(string(pretty))
		return
	}

	if err := writeJSON(out, results); err != nil {
		logger.Fatal("writing results", zap.Error(err))
	}
	logger.Info("ranked jobs written", zap.String("filename", out), zap.Int("count", len(results)))
}

func loadProfile(path string) (*profile.Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode profile file %q: %w", path, err)
	}
	return profile.FromMap(raw)
}
