package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"termbridge/internal/domain"
	"termbridge/internal/store"
)

// ChatAnswer is the RAG service's grounded answer with citation metadata.
type ChatAnswer struct {
	Answer  string       `json:"answer"`
	Sources []ChatSource `json:"sources"`
}

// ChatSource cites one term the answer was grounded on.
type ChatSource struct {
	PrimaryTerm string `json:"primary_term"`
	Code        string `json:"code"`
	Source      string `json:"source"`
}

// RAGClient calls the separately hosted retrieval-augmented-generation
// service. The service is an opaque question-answering boundary: we only
// rely on its request/response contract, never its internals.
type RAGClient struct {
	httpClient *resty.Client
	cache      store.KV
	cacheTTL   time.Duration
	logger     *zap.Logger
}

// NewRAGClient creates the client. cache may be nil to disable answer
// caching.
func NewRAGClient(baseURL string, timeout time.Duration, cache store.KV, cacheTTL time.Duration, logger *zap.Logger) *RAGClient {
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout). // model inference can be slow
		SetRetryCount(2).
		SetRetryWaitTime(1 * time.Second).
		SetRetryMaxWaitTime(5 * time.Second).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")

	return &RAGClient{
		httpClient: client,
		cache:      cache,
		cacheTTL:   cacheTTL,
		logger:     logger,
	}
}

type ragRequest struct {
	Query string `json:"query"`
}

// Chat forwards the question to the RAG service. Answers are cached by
// normalized query so repeated questions skip inference.
func (c *RAGClient) Chat(ctx context.Context, query string) (*ChatAnswer, error) {
	if strings.TrimSpace(query) == "" {
		return nil, &domain.ValidationError{Field: "query", Reason: "must not be empty"}
	}

	cacheKey := "rag:chat:" + strings.ToLower(strings.TrimSpace(query))
	if c.cache != nil {
		if cached, err := c.cache.Get(ctx, cacheKey); err == nil {
			var answer ChatAnswer
			if err := json.Unmarshal([]byte(cached), &answer); err == nil {
				return &answer, nil
			}
		}
	}

	var answer ChatAnswer
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetBody(ragRequest{Query: query}).
		SetResult(&answer).
		Post("/chat")
	if err != nil {
		return nil, &domain.UpstreamError{System: "rag service", Err: err}
	}
	if resp.IsError() {
		c.logger.Warn("RAG chat returned error status",
			zap.Int("status", resp.StatusCode()),
			zap.String("body", resp.String()))
		return nil, &domain.UpstreamError{
			System: "rag service",
			Err:    fmt.Errorf("chat returned status %d", resp.StatusCode()),
		}
	}

	if c.cache != nil && c.cacheTTL > 0 {
		if data, err := json.Marshal(&answer); err == nil {
			if err := c.cache.Set(ctx, cacheKey, string(data), c.cacheTTL); err != nil {
				c.logger.Warn("failed to cache chat answer", zap.Error(err))
			}
		}
	}
	return &answer, nil
}
