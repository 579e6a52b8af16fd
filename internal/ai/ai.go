// Package ai prompts a language model for the text steps of a recommendation run.
package ai

import "context"

// Generator sends a single prompt and returns the model's text answer.
type Generator interface {
	GenerateContent(ctx context.Context, prompt string) (string, error)
	Model() string
}
