package embedding

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spigell/job-recommender/internal/logger"
	"github.com/spigell/job-recommender/internal/utils"
)

const (
	apiURL       = "https://api-inference.huggingface.co/pipeline/feature-extraction"
	DefaultModel = "sentence-transformers/all-MiniLM-L6-v2"
	userAgent    = "spigell/job-recommender"
	contentType  = "application/json"
	// Upper bound on a response body; 384 floats per text stays far below it.
	maxBodyBytes = 64 << 20
	logPreview   = 200
)

// Client talks to a Hugging Face feature-extraction endpoint.
type Client struct {
	token      string
	logger     *zap.Logger
	HTTPClient *http.Client
	UserAgent  string
	APIURL     string
	Model      string
}

type request struct {
	Inputs  []string       `json:"inputs"`
	Options requestOptions `json:"options"`
}

type requestOptions struct {
	WaitForModel bool `json:"wait_for_model"`
}

// New returns a client for the default sentence-transformers model.
func New(log *zap.Logger, token string) *Client {
	return &Client{
		token:  strings.TrimSpace(token),
		logger: logger.WithEmbeddingFields(log, DefaultModel, Dimension),
		APIURL: apiURL,
		Model:  DefaultModel,
		HTTPClient: &http.Client{
			Timeout: 60 * time.Second,
		},
		UserAgent: userAgent,
	}
}

// Endpoint returns the full URL used for requests.
func (c *Client) Endpoint() string {
	return fmt.Sprintf("%s/%s", strings.TrimRight(c.APIURL, "/"), strings.Trim(c.Model, "/"))
}

// Embed implements Embedder. Every failure is logged and yields zero rows.
func (c *Client) Embed(ctx context.Context, texts []string) Matrix {
	n := len(texts)
	if n == 0 {
		return Matrix{}
	}

	body, status, err := c.post(ctx, texts)
	if err != nil {
		c.logger.Warn("embedding request failed, using zero vectors", zap.Int("inputs", n), zap.Error(err))
		return Zeros(n)
	}

	if status < http.StatusOK || status >= http.StatusMultipleChoices {
		fields := []zap.Field{
			zap.Int("status", status),
			zap.Int("inputs", n),
			zap.String("body_preview", utils.TruncateForLog(string(body), logPreview)),
		}
		var raw any
		if json.Unmarshal(body, &raw) == nil {
			if resp := Classify(raw); resp.Kind == KindError {
				fields = append(fields, zap.String("upstream_error", resp.Message))
			}
		}
		c.logger.Warn("embedding service returned bad status, using zero vectors", fields...)
		return Zeros(n)
	}

	m, resp, err := Decode(body, n)
	if err != nil {
		c.logger.Warn("unusable embedding response, using zero vectors",
			zap.Int("inputs", n),
			zap.Stringer("shape", resp.Kind),
			zap.String("body_preview", utils.TruncateForLog(string(body), logPreview)),
			zap.Error(err),
		)
		return m
	}

	c.logger.Debug("got embeddings", zap.Int("inputs", n), zap.Stringer("shape", resp.Kind))
	return m
}

func (c *Client) post(ctx context.Context, texts []string) ([]byte, int, error) {
	payload, err := json.Marshal(request{
		Inputs:  texts,
		Options: requestOptions{WaitForModel: true},
	})
	if err != nil {
		return nil, 0, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.Endpoint(), bytes.NewReader(payload))
	if err != nil {
		return nil, 0, err
	}
	c.setHeaders(req)

	c.logger.Debug("make request", zap.String("url", req.URL.String()), zap.Int("inputs", len(texts)))
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	var reader io.Reader = resp.Body
	if resp.Header.Get("Content-Encoding") == "gzip" {
		gz, err := gzip.NewReader(resp.Body)
		if err != nil {
			return nil, resp.StatusCode, err
		}
		defer gz.Close()
		reader = gz
	}

	data, err := io.ReadAll(io.LimitReader(reader, maxBodyBytes))
	if err != nil {
		return nil, resp.StatusCode, err
	}

	return data, resp.StatusCode, nil
}

func (c *Client) setHeaders(req *http.Request) {
	if c.token != "" {
		req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", c.token))
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("User-Agent", c.UserAgent)
}
