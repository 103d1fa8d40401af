package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"github.com/santhosh-tekuri/jsonschema/v5"
	openai "github.com/sashabaranov/go-openai"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var (
	genDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "kuis",
		Subsystem: "ai",
		Name:      "generation_duration_seconds",
		Help:      "Duration of AI quiz generation requests",
	}, []string{"model"})

	genFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "kuis",
		Subsystem: "ai",
		Name:      "generation_failures_total",
		Help:      "Number of AI quiz generation failures",
	}, []string{"model"})
)

// questionSchema validates each generated question before it reaches the quiz
// pipeline. Explanations are optional here; the quiz service backfills them.
const questionSchemaJSON = `{
	"type": "object",
	"required": ["text", "options", "correct_answer"],
	"properties": {
		"text": {"type": "string", "minLength": 1},
		"options": {
			"type": "object",
			"required": ["A", "B", "C", "D"],
			"additionalProperties": {"type": "string"}
		},
		"correct_answer": {"type": "string", "enum": ["A", "B", "C", "D"]},
		"explanations": {"type": "object"},
		"correct_explanation": {"type": "string"}
	}
}`

var questionSchema = jsonschema.MustCompileString("question.json", questionSchemaJSON)

// OpenAIConfig defines configuration options for the OpenAI generator.
type OpenAIConfig struct {
	APIKey      string
	Model       string
	MaxTokens   int
	Temperature float32
	Logger      zerolog.Logger
}

// OpenAIGenerator implements QuestionGenerator against the OpenAI chat
// completion API.
type OpenAIGenerator struct {
	client *openai.Client
	cfg    OpenAIConfig
	tracer trace.Tracer
	logger zerolog.Logger
}

// NewOpenAIGenerator builds a new generator using the provided configuration.
func NewOpenAIGenerator(cfg OpenAIConfig) (*OpenAIGenerator, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openai api key is required")
	}

	if cfg.Model == "" {
		cfg.Model = "gpt-4o-mini"
	}

	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = 4096
	}

	tracer := otel.Tracer("github.com/noah-isme/kuis-go-api/pkg/ai/openai")
	logger := cfg.Logger
	if logger.GetLevel() == zerolog.Disabled {
		logger = zerolog.Nop()
	}

	config := openai.DefaultConfig(cfg.APIKey)
	client := openai.NewClientWithConfig(config)

	return &OpenAIGenerator{
		client: client,
		cfg:    cfg,
		tracer: tracer,
		logger: logger,
	}, nil
}

// Generate asks the model for quiz questions and parses the JSON response.
func (g *OpenAIGenerator) Generate(parent context.Context, input GenerationInput) ([]GeneratedQuestion, error) {
	ctx, span := g.tracer.Start(parent, "openai.generate_questions", trace.WithAttributes(
		attribute.String("model", g.cfg.Model),
		attribute.Int("question_count", input.QuestionCount),
	))
	defer span.End()

	start := time.Now()
	request := openai.ChatCompletionRequest{
		Model:       g.cfg.Model,
		MaxTokens:   g.cfg.MaxTokens,
		Temperature: g.cfg.Temperature,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: generatorSystemPrompt(),
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: buildGenerationPrompt(input),
			},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{Type: openai.ChatCompletionResponseFormatTypeJSONObject},
	}

	resp, err := g.client.CreateChatCompletion(ctx, request)
	duration := time.Since(start)
	genDuration.WithLabelValues(g.cfg.Model).Observe(duration.Seconds())
	if err != nil {
		genFailures.WithLabelValues(g.cfg.Model).Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("openai generate: %w", err)
	}

	if len(resp.Choices) == 0 {
		err := fmt.Errorf("no choices returned from openai")
		genFailures.WithLabelValues(g.cfg.Model).Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	questions, err := parseGenerationResponse(content)
	if err != nil {
		genFailures.WithLabelValues(g.cfg.Model).Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	span.SetAttributes(attribute.Int("questions_returned", len(questions)))
	g.logger.Info().
		Str("model", g.cfg.Model).
		Int("requested", input.QuestionCount).
		Int("returned", len(questions)).
		Dur("duration", duration).
		Msg("quiz questions generated")

	return questions, nil
}

func generatorSystemPrompt() string {
	return "You are a quiz author for a classroom learning platform. Respond with a JSON object containing a \"questions\" " +
		"array. Each question has: text, options (object keyed A-D), correct_answer (one of A-D), explanations (object keyed " +
		"by wrong option letter explaining why it is wrong), and correct_explanation. Questions must be answerable from the " +
		"provided lecture material alone."
}

func buildGenerationPrompt(input GenerationInput) string {
	builder := strings.Builder{}
	builder.WriteString("# Quiz\n")
	builder.WriteString(input.Title)
	if input.Topic != "" {
		builder.WriteString("\n\n## Topic\n")
		builder.WriteString(input.Topic)
	}
	builder.WriteString(fmt.Sprintf("\n\n## Instructions\nWrite exactly %d multiple-choice questions. The quiz allows %d minutes.",
		input.QuestionCount, input.DurationMinutes))
	builder.WriteString("\n\n## Lecture Material\n")
	builder.WriteString(input.LectureText)
	builder.WriteString("\nReturn JSON.")
	return builder.String()
}

func parseGenerationResponse(content string) ([]GeneratedQuestion, error) {
	var envelope struct {
		Questions []json.RawMessage `json:"questions"`
	}
	if err := json.Unmarshal([]byte(content), &envelope); err != nil {
		return nil, fmt.Errorf("parse generation json: %w", err)
	}

	questions := make([]GeneratedQuestion, 0, len(envelope.Questions))
	for i, raw := range envelope.Questions {
		var doc interface{}
		if err := json.Unmarshal(raw, &doc); err != nil {
			return nil, fmt.Errorf("parse question %d: %w", i, err)
		}
		if err := questionSchema.Validate(doc); err != nil {
			return nil, fmt.Errorf("question %d failed schema validation: %w", i, err)
		}

		var question GeneratedQuestion
		if err := json.Unmarshal(raw, &question); err != nil {
			return nil, fmt.Errorf("decode question %d: %w", i, err)
		}
		questions = append(questions, question)
	}

	return questions, nil
}
