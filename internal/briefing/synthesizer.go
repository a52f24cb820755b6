package briefing

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"whats-up/internal/domain"
	"whats-up/internal/llmjson"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// LLMClient abstracts the OpenAI chat completions API for testability.
type LLMClient interface {
	CreateChatCompletion(ctx context.Context, params openai.ChatCompletionNewParams) (*openai.ChatCompletion, error)
}

// Synthesizer merges price data, social intelligence, and raw evidence into
// one structured briefing via a single LLM call.
type Synthesizer struct {
	tracer    trace.Tracer
	llm       LLMClient
	model     string
	maxTokens int
	now       func() time.Time
}

func NewSynthesizer(tracer trace.Tracer, llm LLMClient, model string, maxTokens int) *Synthesizer {
	if maxTokens <= 0 {
		maxTokens = 2000
	}
	return &Synthesizer{
		tracer:    tracer,
		llm:       llm,
		model:     model,
		maxTokens: maxTokens,
		now:       time.Now,
	}
}

// Synthesize produces the briefing. Unlike the enrichment adapters this call
// is the product itself, so every failure surfaces as a typed error and
// nothing silently degrades.
func (s *Synthesizer) Synthesize(
	ctx context.Context,
	coins []domain.CoinSnapshot,
	intel domain.SocialIntelligence,
	evidence []domain.RankedSocialPost,
	movers map[int]domain.TopMoversTier,
) (*domain.Briefing, error) {
	ctx, span := s.tracer.Start(ctx, "briefing.synthesize")
	defer span.End()
	span.SetAttributes(
		attribute.Int("coins", len(coins)),
		attribute.Int("themes", len(intel.Themes)),
		attribute.Int("evidence_posts", len(evidence)),
	)

	if s.llm == nil {
		return nil, &domain.ConfigMissingError{Key: "OPENAI_API_KEY"}
	}

	completion, err := s.llm.CreateChatCompletion(ctx, openai.ChatCompletionNewParams{
		Model:     s.model,
		MaxTokens: openai.Int(int64(s.maxTokens)),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(synthesisSystemPrompt),
			openai.UserMessage(buildSynthesisPrompt(coins, intel, evidence)),
		},
	})
	if err != nil {
		span.RecordError(err)
		var apiErr *openai.Error
		if errors.As(err, &apiErr) {
			return nil, &domain.UpstreamError{Provider: "openai", Status: apiErr.StatusCode, Message: apiErr.Message}
		}
		return nil, &domain.UpstreamError{Provider: "openai", Message: err.Error()}
	}
	if len(completion.Choices) == 0 {
		return nil, &domain.MalformedResponseError{Provider: "openai", Reason: "no choices in response"}
	}

	briefing, err := parseSynthesisResponse(completion.Choices[0].Message.Content)
	if err != nil {
		return nil, err
	}

	fallback := ComputeFallbackSentiment(coins)
	if field, ok := normalizeSentiment(briefing.rawSentiment); ok {
		fallback = field
	}
	// The conclusion prose is authoritative over both the structured field
	// and the numeric fallback.
	sentiment := DeriveSentimentFromText(briefing.conclusion, fallback)

	result := &domain.Briefing{
		Bullets:     briefing.bullets,
		Conclusion:  briefing.conclusion,
		Sentiment:   sentiment,
		TopMovers:   movers,
		GeneratedAt: s.now().UTC(),
	}
	return result, nil
}

type parsedSynthesis struct {
	bullets      []domain.BulletPoint
	conclusion   string
	rawSentiment string
}

func parseSynthesisResponse(text string) (*parsedSynthesis, error) {
	raw, err := llmjson.ExtractObject(text)
	if err != nil {
		return nil, &domain.MalformedResponseError{Provider: "openai", Reason: "failed to parse synthesis response: " + err.Error()}
	}

	var wire struct {
		Bullets    []json.RawMessage `json:"bullets"`
		Conclusion string            `json:"conclusion"`
		Sentiment  string            `json:"sentiment"`
	}
	if err := json.Unmarshal(raw, &wire); err != nil {
		return nil, &domain.MalformedResponseError{Provider: "openai", Reason: "failed to parse synthesis response: " + err.Error()}
	}

	parsed := &parsedSynthesis{
		conclusion:   strings.TrimSpace(wire.Conclusion),
		rawSentiment: wire.Sentiment,
	}
	for _, rawBullet := range wire.Bullets {
		bullet, ok := normalizeBullet(rawBullet)
		if ok {
			parsed.bullets = append(parsed.bullets, bullet)
		}
	}
	if len(parsed.bullets) == 0 {
		return nil, &domain.MalformedResponseError{Provider: "openai", Reason: "failed to parse synthesis response: no bullets"}
	}
	return parsed, nil
}

// normalizeBullet accepts the two shapes models actually produce: a plain
// string, or an object with main/sourceUrl/subPoints where each sub-point is
// again either a string or a {text, sourceUrl} object.
func normalizeBullet(raw json.RawMessage) (domain.BulletPoint, bool) {
	var plain string
	if err := json.Unmarshal(raw, &plain); err == nil {
		plain = strings.TrimSpace(plain)
		return domain.BulletPoint{Main: plain}, plain != ""
	}

	var structured struct {
		Main      string            `json:"main"`
		SourceURL string            `json:"sourceUrl"`
		SubPoints []json.RawMessage `json:"subPoints"`
	}
	if err := json.Unmarshal(raw, &structured); err != nil {
		return domain.BulletPoint{}, false
	}

	bullet := domain.BulletPoint{
		Main:      strings.TrimSpace(structured.Main),
		SourceURL: strings.TrimSpace(structured.SourceURL),
	}
	if bullet.Main == "" {
		return domain.BulletPoint{}, false
	}
	for _, rawSub := range structured.SubPoints {
		var subPlain string
		if err := json.Unmarshal(rawSub, &subPlain); err == nil {
			if subPlain = strings.TrimSpace(subPlain); subPlain != "" {
				bullet.SubPoints = append(bullet.SubPoints, domain.SubPoint{Text: subPlain})
			}
			continue
		}
		var subStructured struct {
			Text      string `json:"text"`
			SourceURL string `json:"sourceUrl"`
		}
		if err := json.Unmarshal(rawSub, &subStructured); err != nil {
			continue
		}
		if text := strings.TrimSpace(subStructured.Text); text != "" {
			bullet.SubPoints = append(bullet.SubPoints, domain.SubPoint{
				Text:      text,
				SourceURL: strings.TrimSpace(subStructured.SourceURL),
			})
		}
	}
	return bullet, true
}

// openaiClient wraps the official SDK's chat completions service.
type openaiClient struct {
	client openai.Client
}

// NewOpenAIClient returns nil when no API key is configured, which the
// Synthesizer reports as a configuration error at call time.
func NewOpenAIClient(apiKey string) LLMClient {
	if strings.TrimSpace(apiKey) == "" {
		return nil
	}
	client := openai.NewClient(option.WithAPIKey(apiKey))
	return &openaiClient{client: client}
}

func (c *openaiClient) CreateChatCompletion(
	ctx context.Context,
	params openai.ChatCompletionNewParams,
) (*openai.ChatCompletion, error) {
	return c.client.Chat.Completions.New(ctx, params)
}
