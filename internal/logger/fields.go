package logger

import (
	"strings"

	"go.uber.org/zap"
)

const (
	// FieldProvider is the structured log field key for the LLM provider name.
	FieldProvider = "ai_provider"
	// FieldModel is the structured log field key for the LLM model identifier.
	FieldModel = "ai_model"
	// FieldEmbeddingModel is the structured log field key for the embedding model.
	FieldEmbeddingModel = "embedding_model"
	// FieldEmbeddingDimension is the structured log field key for the vector width.
	FieldEmbeddingDimension = "embedding_dimension"
	// FieldRunID identifies a single pipeline run.
	FieldRunID = "run_id"
)

// StringField describes a string-valued structured logging field.
type StringField struct {
	Key   string
	Value string
}

// StringFields converts the provided key/value pairs into zap fields, trimming
// whitespace and omitting entries with empty keys or values.
func StringFields(fields ...StringField) []zap.Field {
	result := make([]zap.Field, 0, len(fields))
	for _, field := range fields {
		key := strings.TrimSpace(field.Key)
		if key == "" {
			continue
		}

		value := strings.TrimSpace(field.Value)
		if value == "" {
			continue
		}

		result = append(result, zap.String(key, value))
	}

	return result
}

// WithFields safely attaches the provided fields to the logger.
// A nil logger is replaced with a no-op one.
func WithFields(logger *zap.Logger, fields ...zap.Field) *zap.Logger {
	if logger == nil {
		logger = zap.NewNop()
	}

	if len(fields) == 0 {
		return logger
	}

	return logger.With(fields...)
}

// CommonFields returns standard zap fields that describe the LLM provider and model.
func CommonFields(provider, model string) []zap.Field {
	return StringFields(
		StringField{Key: FieldProvider, Value: provider},
		StringField{Key: FieldModel, Value: model},
	)
}

// WithCommonFields attaches the common LLM fields to the provided logger.
func WithCommonFields(logger *zap.Logger, provider, model string) *zap.Logger {
	return WithFields(logger, CommonFields(provider, model)...)
}

// EmbeddingFields describes the embedding backend. A non-positive dimension is omitted.
func EmbeddingFields(model string, dimension int) []zap.Field {
	fields := StringFields(StringField{Key: FieldEmbeddingModel, Value: model})
	if dimension > 0 {
		fields = append(fields, zap.Int(FieldEmbeddingDimension, dimension))
	}
	return fields
}

// WithEmbeddingFields attaches EmbeddingFields to the provided logger.
func WithEmbeddingFields(logger *zap.Logger, model string, dimension int) *zap.Logger {
	return WithFields(logger, EmbeddingFields(model, dimension)...)
}
