package gemini

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"

	_ "embed"

	"github.com/mitchellh/mapstructure"
	"github.com/spigell/cv-agent/internal/ai"
	"github.com/spigell/cv-agent/internal/util"
	"go.uber.org/zap"
)

type contentGenerator interface {
	GenerateContent(ctx context.Context, prompt string) (string, error)
	Model() string
}

//go:embed prompt.md
var promptTemplate string

const (
	defaultMaxLogLength = 200
	noJobPlaceholder    = "none provided"
)

// Reviewer turns CV review requests into Gemini prompts and parses the
// structured JSON responses.
type Reviewer struct {
	generator contentGenerator
	logger    *zap.Logger
	maxLogLen int
}

func NewReviewer(generator contentGenerator, logger *zap.Logger, maxLogLength int) *Reviewer {
	if maxLogLength <= 0 {
		maxLogLength = defaultMaxLogLength
	}

	if logger == nil {
		logger = zap.NewNop()
	}

	return &Reviewer{
		generator: generator,
		logger:    logger,
		maxLogLen: maxLogLength,
	}
}

func (r *Reviewer) Review(ctx context.Context, req *ai.Request) (*ai.Review, error) {
	if req == nil {
		return nil, fmt.Errorf("review request is required")
	}

	if strings.TrimSpace(req.CV) == "" {
		return nil, fmt.Errorf("cv text is required")
	}

	prompt := buildPrompt(req.CV, req.Job)

	r.logger.Debug("gemini review request",
		zap.String("analysis_id", req.ID),
		zap.Int("prompt_length", utf8.RuneCountInString(prompt)),
		zap.String("prompt_preview", util.TruncateForLog(prompt, r.maxLogLen)),
	)

	raw, err := r.generator.GenerateContent(ctx, prompt)
	if err != nil {
		return nil, err
	}

	r.logger.Debug("gemini review response",
		zap.String("analysis_id", req.ID),
		zap.Int("response_length", utf8.RuneCountInString(raw)),
		zap.String("response_preview", util.TruncateForLog(raw, r.maxLogLen)),
	)

	review, err := parseResponse(raw)
	if err != nil {
		return nil, err
	}

	review.Raw = raw
	return review, nil
}

func buildPrompt(cv, job string) string {
	template := promptTemplate
	if strings.TrimSpace(template) == "" {
		template = "CV:\n{{CV}}\n\nJob description:\n{{JOB}}\n\nJSON Response:"
	}

	if strings.TrimSpace(job) == "" {
		job = noJobPlaceholder
	}

	prompt := strings.ReplaceAll(template, "{{CV}}", strings.TrimSpace(cv))
	prompt = strings.ReplaceAll(prompt, "{{JOB}}", strings.TrimSpace(job))
	return prompt
}

func parseResponse(raw string) (*ai.Review, error) {
	cleaned := extractJSON(strings.TrimSpace(raw))

	var data map[string]any
	if err := json.Unmarshal([]byte(cleaned), &data); err != nil {
		return nil, fmt.Errorf("parse gemini response: %w", err)
	}

	var review ai.Review
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &review,
		TagName:          "json",
		WeaklyTypedInput: true,
	})
	if err != nil {
		return nil, fmt.Errorf("build response decoder: %w", err)
	}

	if err := decoder.Decode(data); err != nil {
		return nil, fmt.Errorf("decode gemini response: %w", err)
	}

	if review.Score < 0 {
		review.Score = 0
	}
	if review.Score > 100 {
		review.Score = 100
	}

	return &review, nil
}

// extractJSON strips markdown fences and surrounding prose, returning the
// outermost JSON object found in the response.
func extractJSON(raw string) string {
	if strings.HasPrefix(raw, "```") {
		raw = strings.TrimPrefix(raw, "```json")
		raw = strings.TrimPrefix(raw, "```")
		raw = strings.TrimSuffix(strings.TrimSpace(raw), "```")
		raw = strings.TrimSpace(raw)
	}

	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start >= 0 && end > start {
		return raw[start : end+1]
	}

	return raw
}
