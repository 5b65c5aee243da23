package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"comps-scraper/llm"
	"comps-scraper/metrics"
	"comps-scraper/models"
	"comps-scraper/utils"
)

// Agent calls a hosted language model to extract listing features, score
// similarity and write search queries. Every method degrades to an empty
// result on failure; none of them return errors.
type Agent struct {
	provider llm.Provider
	cfg      AgentConfig
	metrics  *metrics.Crawl
	logger   *utils.Logger
}

// AgentConfig selects the model and bounds each call.
type AgentConfig struct {
	Model   string
	Timeout time.Duration
}

// NewAgent creates an Agent over provider.
func NewAgent(provider llm.Provider, cfg AgentConfig, m *metrics.Crawl, logger *utils.Logger) *Agent {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &Agent{provider: provider, cfg: cfg, metrics: m, logger: logger}
}

// ExtractFeatures returns the attributes the model reads from a listing, or
// an empty map when the call or its JSON fails.
func (a *Agent) ExtractFeatures(ctx context.Context, title, description, brand string) models.Features {
	var features models.Features
	err := a.complete(ctx, "extract", llm.Request{
		System:      extractSystem,
		Prompt:      extractPrompt(title, description, brand),
		Temperature: extractTemperature,
	}, &features)
	if err != nil || features == nil {
		if err == nil {
			err = fmt.Errorf("reply is not a JSON object")
		}
		a.logger.Warn("[agent] Feature extraction failed for %q: %v", title, err)
		return models.Features{}
	}
	return features
}

// CalculateSimilarity scores listing against query in [0,1]; failures score 0.
func (a *Agent) CalculateSimilarity(ctx context.Context, query, listing models.Features) float64 {
	var reply struct {
		SimilarityScore *float64 `json:"similarity_score"`
		Reasoning       string   `json:"reasoning"`
	}
	err := a.complete(ctx, "similarity", llm.Request{
		System:      similaritySystem,
		Prompt:      similarityPrompt(query, listing),
		Temperature: similarityTemperature,
	}, &reply)
	if err != nil {
		a.logger.Warn("[agent] Similarity calculation failed: %v", err)
		return 0
	}
	if reply.SimilarityScore == nil {
		a.logger.Warn("[agent] Similarity reply had no similarity_score")
		return 0
	}

	score := clamp01(*reply.SimilarityScore)
	a.logger.Debug("[agent] Similarity %.2f: %s", score, reply.Reasoning)
	return score
}

// GenerateSearchQueries asks for up to three marketplace search strings.
// An empty result means the caller has to fall back to a raw query.
func (a *Agent) GenerateSearchQueries(ctx context.Context, item models.Features) []string {
	var reply struct {
		Queries []string `json:"queries"`
	}
	err := a.complete(ctx, "queries", llm.Request{
		System:      querySystem,
		Prompt:      queryPrompt(item),
		Temperature: queryTemperature,
	}, &reply)
	if err != nil {
		a.logger.Warn("[agent] Query generation failed: %v", err)
		return []string{}
	}

	queries := make([]string, 0, 3)
	for _, q := range reply.Queries {
		q = NormaliseText(q)
		if q == "" {
			continue
		}
		queries = append(queries, q)
		if len(queries) == 3 {
			break
		}
	}
	return queries
}

func (a *Agent) complete(ctx context.Context, op string, req llm.Request, out any) error {
	ctx, cancel := context.WithTimeout(ctx, a.cfg.Timeout)
	defer cancel()

	req.Model = a.cfg.Model
	req.JSON = true

	text, err := a.provider.Complete(ctx, req)
	if err == nil {
		err = json.Unmarshal([]byte(stripFence(text)), out)
		if err != nil {
			err = fmt.Errorf("decode %s reply: %w", op, err)
		}
	}
	a.metrics.LLMCall(op, err)
	return err
}

// stripFence removes a ```json ... ``` wrapper some models put around JSON.
func stripFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if i := strings.Index(s, "\n"); i >= 0 {
		s = s[i+1:]
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

func clamp01(v float64) float64 {
	switch {
	case v != v:
		return 0
	case v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}
