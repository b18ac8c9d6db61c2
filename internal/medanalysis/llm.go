package medanalysis

import (
	"context"
	"encoding/base64"
	"errors"
	"net"
	"os"
	"strings"
	"time"

	anthropic "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

const systemPrompt = "You are a medical AI assistant. Analyze medical records and return structured JSON data. " +
	"Focus on patient safety and medical accuracy. Respond with strict JSON only."

type llmFailureClass int

const (
	failureNone llmFailureClass = iota
	failureParse
	failureSchema
	failureEmpty
	failureTimeout
	failureRateLimit
	failureServer
	failureClient
)

// PromptPart is one element of a generation request: either text or an
// attachment (image or PDF bytes with a MIME type).
type PromptPart struct {
	Text     string
	Data     []byte
	MIMEType string
}

func TextPart(s string) PromptPart { return PromptPart{Text: s} }

func DataPart(b []byte, mime string) PromptPart { return PromptPart{Data: b, MIMEType: mime} }

// Generator is the upstream generation collaborator. It owns neither retries
// nor timeouts; the pipeline supplies both.
type Generator interface {
	Generate(ctx context.Context, parts []PromptPart) (string, error)
}

type AnthropicGenerator struct {
	messages AnthropicMessager
}

type AnthropicMessager interface {
	New(ctx context.Context, params anthropic.MessageNewParams, opts ...option.RequestOption) (*anthropic.Message, error)
}

type AnthropicClientCreator func(apiKey string) AnthropicMessager

func defaultAnthropicCreator(apiKey string) AnthropicMessager {
	c := anthropic.NewClient(option.WithAPIKey(apiKey))
	return &c.Messages
}

var newAnthropicClient AnthropicClientCreator = defaultAnthropicCreator

func NewAnthropicGeneratorFromEnv() (*AnthropicGenerator, error) {
	if envEnabled("JEEVA_AI_NO_LLM") {
		return nil, &ConfigurationError{Setting: "generation disabled (JEEVA_AI_NO_LLM); ANTHROPIC_API_KEY"}
	}
	apiKey := strings.TrimSpace(os.Getenv("ANTHROPIC_API_KEY"))
	if apiKey == "" {
		return nil, &ConfigurationError{Setting: "ANTHROPIC_API_KEY"}
	}
	return &AnthropicGenerator{messages: newAnthropicClient(apiKey)}, nil
}

func (a *AnthropicGenerator) Generate(ctx context.Context, parts []PromptPart) (string, error) {
	blocks := make([]anthropic.ContentBlockParamUnion, 0, len(parts))
	for _, p := range parts {
		if len(p.Data) > 0 {
			encoded := base64.StdEncoding.EncodeToString(p.Data)
			if p.MIMEType == "application/pdf" {
				blocks = append(blocks, anthropic.NewDocumentBlock(anthropic.Base64PDFSourceParam{Data: encoded}))
			} else {
				blocks = append(blocks, anthropic.NewImageBlockBase64(p.MIMEType, encoded))
			}
			continue
		}
		blocks = append(blocks, anthropic.NewTextBlock(p.Text))
	}
	resp, err := a.messages.New(ctx, anthropic.MessageNewParams{
		Model:       anthropic.ModelClaudeSonnet4_20250514,
		MaxTokens:   4096,
		System:      []anthropic.TextBlockParam{{Text: systemPrompt}},
		Messages:    []anthropic.MessageParam{anthropic.NewUserMessage(blocks...)},
		Temperature: anthropic.Float(0),
	})
	if err != nil {
		return "", err
	}
	var sb strings.Builder
	for _, b := range resp.Content {
		if b.Type == "text" {
			sb.WriteString(b.Text)
		}
	}
	return sb.String(), nil
}

func classifyTransportError(err error) llmFailureClass {
	msg := strings.ToLower(err.Error())
	if errors.Is(err, context.DeadlineExceeded) {
		return failureTimeout
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return failureTimeout
	}
	switch {
	case strings.Contains(msg, "429"):
		return failureRateLimit
	case strings.Contains(msg, "status code: 5") || strings.Contains(msg, "server error"):
		return failureServer
	case strings.Contains(msg, "status code: 4"):
		return failureClient
	default:
		return failureServer
	}
}

func backoffDelay(attempt int) time.Duration {
	if attempt <= 1 {
		return 1 * time.Second
	}
	return 2 * time.Second
}

func envEnabled(key string) bool {
	switch strings.ToLower(strings.TrimSpace(os.Getenv(key))) {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}
