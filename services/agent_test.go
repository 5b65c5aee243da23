package services

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/smartystreets/goconvey/convey"

	"comps-scraper/llm"
	"comps-scraper/models"
	"comps-scraper/utils"
)

// stubProvider answers with a canned reply, or with whatever reply func returns.
type stubProvider struct {
	text  string
	err   error
	reply func(req llm.Request) string
	calls []llm.Request
}

func (s *stubProvider) Complete(ctx context.Context, req llm.Request) (string, error) {
	s.calls = append(s.calls, req)
	if s.err != nil {
		return "", s.err
	}
	if s.reply != nil {
		return s.reply(req), nil
	}
	return s.text, nil
}

func (s *stubProvider) Close() error { return nil }

func quietLogger() *utils.Logger { return utils.NewLoggerTo(io.Discard) }

func newTestAgent(p llm.Provider) *Agent {
	return NewAgent(p, AgentConfig{Model: "gpt-4o-mini", Timeout: time.Second}, nil, quietLogger())
}

// categoryScorer scores by comparing the category of the listing half of the
// similarity prompt with the query half.
func categoryScorer(req llm.Request) string {
	parts := strings.SplitN(req.Prompt, "Listing Item:", 2)
	if len(parts) != 2 {
		return `{"similarity_score": 0}`
	}
	query, listing := parts[0], parts[1]
	if strings.Contains(query, `"hoodie"`) && strings.Contains(listing, `"hoodie"`) {
		if strings.Contains(listing, `"Nike"`) {
			return `{"similarity_score": 0.92, "reasoning": "same category and brand"}`
		}
		return `{"similarity_score": 0.7, "reasoning": "same category"}`
	}
	return `{"similarity_score": 0.12, "reasoning": "different category"}`
}

func TestAgentExtractFeatures(t *testing.T) {
	convey.Convey("Given an agent", t, func() {
		ctx := context.Background()

		convey.Convey("When the model returns a JSON object", func() {
			p := &stubProvider{text: `{"category": "hoodie", "brand_clean": "Nike", "size_normalized": "L", "style_tags": ["streetwear"]}`}
			f := newTestAgent(p).ExtractFeatures(ctx, "Nike Tech Fleece Hoodie L", "", "")

			convey.Convey("Then the features are returned as decoded", func() {
				convey.So(f.String("category"), convey.ShouldEqual, "hoodie")
				convey.So(f.String("brand_clean"), convey.ShouldEqual, "Nike")
				convey.So(f["style_tags"], convey.ShouldResemble, []any{"streetwear"})
			})

			convey.Convey("Then the request uses the extraction settings", func() {
				req := p.calls[0]
				convey.So(req.Model, convey.ShouldEqual, "gpt-4o-mini")
				convey.So(req.JSON, convey.ShouldBeTrue)
				convey.So(req.Temperature, convey.ShouldEqual, 0.3)
				convey.So(req.System, convey.ShouldContainSubstring, "clothing product analyzer")
				convey.So(req.Prompt, convey.ShouldContainSubstring, "Brand: Unknown")
				convey.So(req.Prompt, convey.ShouldContainSubstring, "Description: N/A")
			})
		})

		convey.Convey("When the description is long", func() {
			p := &stubProvider{text: `{}`}
			newTestAgent(p).ExtractFeatures(ctx, "Hoodie", strings.Repeat("x", 900), "Nike")

			convey.Convey("Then only the first 500 characters are sent", func() {
				convey.So(p.calls[0].Prompt, convey.ShouldContainSubstring, strings.Repeat("x", 500))
				convey.So(p.calls[0].Prompt, convey.ShouldNotContainSubstring, strings.Repeat("x", 501))
				convey.So(p.calls[0].Prompt, convey.ShouldContainSubstring, "Brand: Nike")
			})
		})

		convey.Convey("When the reply is fenced", func() {
			p := &stubProvider{text: "```json\n{\"category\": \"jersey\"}\n```"}
			f := newTestAgent(p).ExtractFeatures(ctx, "Jersey", "", "")

			convey.Convey("Then the fence is stripped", func() {
				convey.So(f.String("category"), convey.ShouldEqual, "jersey")
			})
		})

		convey.Convey("When the model fails or returns junk", func() {
			for _, p := range []*stubProvider{
				{err: errors.New("rate limited")},
				{text: "sure! here are the features"},
				{text: `["not", "an", "object"]`},
				{text: "null"},
			} {
				f := newTestAgent(p).ExtractFeatures(ctx, "Hoodie", "", "")
				convey.So(f, convey.ShouldNotBeNil)
				convey.So(f.Empty(), convey.ShouldBeTrue)
			}
		})
	})
}

func TestAgentCalculateSimilarity(t *testing.T) {
	convey.Convey("Given an agent backed by a category-aware model", t, func() {
		ctx := context.Background()
		agent := newTestAgent(&stubProvider{reply: categoryScorer})
		query := models.Features{"category": "hoodie", "brand_clean": "Nike", "size_normalized": "L"}

		convey.Convey("When comparing a matching hoodie and a pair of pants", func() {
			hoodie := agent.CalculateSimilarity(ctx, query, models.Features{"category": "hoodie", "brand_clean": "Nike"})
			pants := agent.CalculateSimilarity(ctx, query, models.Features{"category": "pants", "brand_clean": "Levi's"})

			convey.Convey("Then the hoodie scores higher", func() {
				convey.So(hoodie, convey.ShouldBeGreaterThan, pants)
				convey.So(hoodie, convey.ShouldBeGreaterThan, 0.5)
				convey.So(pants, convey.ShouldBeLessThan, 0.5)
			})
		})

		convey.Convey("When the model returns an out-of-range score", func() {
			high := newTestAgent(&stubProvider{text: `{"similarity_score": 1.7}`}).CalculateSimilarity(ctx, query, query)
			low := newTestAgent(&stubProvider{text: `{"similarity_score": -0.3}`}).CalculateSimilarity(ctx, query, query)

			convey.Convey("Then it is clamped to [0,1]", func() {
				convey.So(high, convey.ShouldEqual, 1)
				convey.So(low, convey.ShouldEqual, 0)
			})
		})

		convey.Convey("When the call fails or the score is missing", func() {
			failed := newTestAgent(&stubProvider{err: context.DeadlineExceeded}).CalculateSimilarity(ctx, query, query)
			missing := newTestAgent(&stubProvider{text: `{"reasoning": "no idea"}`}).CalculateSimilarity(ctx, query, query)

			convey.Convey("Then the score is 0", func() {
				convey.So(failed, convey.ShouldEqual, 0)
				convey.So(missing, convey.ShouldEqual, 0)
			})
		})
	})
}

func TestAgentGenerateSearchQueries(t *testing.T) {
	convey.Convey("Given an agent", t, func() {
		ctx := context.Background()
		item := models.Features{"category": "hoodie", "brand_clean": "Nike"}

		convey.Convey("When the model returns more than three queries with blanks", func() {
			p := &stubProvider{text: `{"queries": ["nike hoodie L", "  ", "nike tech fleece", "nike pullover", "extra"]}`}
			queries := newTestAgent(p).GenerateSearchQueries(ctx, item)

			convey.Convey("Then blanks are dropped and at most three are kept", func() {
				convey.So(queries, convey.ShouldResemble, []string{"nike hoodie L", "nike tech fleece", "nike pullover"})
				convey.So(p.calls[0].Temperature, convey.ShouldEqual, 0.5)
			})
		})

		convey.Convey("When the model fails", func() {
			queries := newTestAgent(&stubProvider{err: errors.New("boom")}).GenerateSearchQueries(ctx, item)

			convey.Convey("Then an empty list is returned", func() {
				convey.So(queries, convey.ShouldNotBeNil)
				convey.So(queries, convey.ShouldBeEmpty)
			})
		})
	})
}

func TestStripFence(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{`{"a":1}`, `{"a":1}`},
		{"```json\n{\"a\":1}\n```", `{"a":1}`},
		{"```\n{\"a\":1}```", `{"a":1}`},
		{"  {\"a\":1}\n", `{"a":1}`},
	}
	for _, tt := range tests {
		if got := stripFence(tt.in); got != tt.want {
			t.Errorf("stripFence(%q) = %q; want %q", tt.in, got, tt.want)
		}
	}
}
