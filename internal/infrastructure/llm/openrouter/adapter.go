package openrouter

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/sashabaranov/go-openai"

	"formbridge/internal/application/port/output"
	"formbridge/internal/domain/entity"
	"formbridge/internal/domain/privacy"
	"formbridge/internal/infrastructure/prompts"
)

var _ output.TokenProposerPort = (*TokenProposer)(nil)

const assignFunction = "assign_tokens"

// TokenProposer asks a chat model which placeholder token each unmapped
// field wants. Only field descriptors are sent.
type TokenProposer struct {
	client *openai.Client
	model  string
	prompt string
	logger output.LoggerPort
}

type Config struct {
	APIKey  string
	Model   string
	BaseURL string
	Logger  output.LoggerPort
}

func DefaultConfig(apiKey, model string) Config {
	return Config{
		APIKey:  apiKey,
		Model:   model,
		BaseURL: "https://openrouter.ai/api/v1",
	}
}

type loggingTransport struct {
	base   http.RoundTripper
	logger output.LoggerPort
}

// RoundTrip logs the exchange without its bodies.
func (t *loggingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	t.logger.Debug("HTTP Request", "method", req.Method, "url", req.URL.String(), "bytes", req.ContentLength)

	resp, err := t.base.RoundTrip(req)
	if err != nil {
		t.logger.Warn("HTTP Request failed", "url", req.URL.String(), "error", err)
		return nil, err
	}

	t.logger.Debug("HTTP Response", "status", resp.Status, "statusCode", resp.StatusCode)
	return resp, nil
}

func NewTokenProposer(cfg Config) (*TokenProposer, error) {
	prompt, err := prompts.GenerateTokenProposerPrompt(prompts.TokenProposerPrompt, assignFunction)
	if err != nil {
		return nil, err
	}

	config := openai.DefaultConfig(cfg.APIKey)
	config.BaseURL = cfg.BaseURL

	if cfg.Logger != nil {
		config.HTTPClient = &http.Client{
			Transport: &loggingTransport{
				base:   http.DefaultTransport,
				logger: cfg.Logger,
			},
		}
	}

	return &TokenProposer{
		client: openai.NewClientWithConfig(config),
		model:  cfg.Model,
		prompt: prompt,
		logger: cfg.Logger,
	}, nil
}

// descriptor is everything the model learns about a field.
type descriptor struct {
	ID          string   `json:"id"`
	Name        string   `json:"name,omitempty"`
	Type        string   `json:"type"`
	Label       string   `json:"label,omitempty"`
	Placeholder string   `json:"placeholder,omitempty"`
	Options     []string `json:"options,omitempty"`
}

func describe(fields []entity.FormField) []descriptor {
	out := make([]descriptor, 0, len(fields))
	for _, f := range fields {
		if f.IsPassword() {
			continue
		}
		d := descriptor{
			ID:          f.ID,
			Name:        f.Name,
			Type:        f.Type,
			Label:       f.Label,
			Placeholder: f.Placeholder,
		}
		for _, o := range f.Options {
			d.Options = append(d.Options, o.Text)
		}
		out = append(out, d)
	}
	return out
}

type assignment struct {
	FieldID string `json:"fieldId"`
	Token   string `json:"token"`
}

type assignArgs struct {
	Assignments []assignment `json:"assignments"`
}

var assignParameters = json.RawMessage(`{
	"type": "object",
	"properties": {
		"assignments": {
			"type": "array",
			"items": {
				"type": "object",
				"properties": {
					"fieldId": {"type": "string"},
					"token": {"type": "string"}
				},
				"required": ["fieldId", "token"]
			}
		}
	},
	"required": ["assignments"]
}`)

// Propose returns suggestions restricted to the given fields and to the
// closed token set; anything else the model says is dropped.
func (p *TokenProposer) Propose(ctx context.Context, fields []entity.FormField) (privacy.TokenFill, error) {
	descriptors := describe(fields)
	if len(descriptors) == 0 {
		return privacy.TokenFill{}, nil
	}

	payload, err := json.Marshal(descriptors)
	if err != nil {
		return nil, fmt.Errorf("encode descriptors: %w", err)
	}

	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: p.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: p.prompt},
			{Role: openai.ChatMessageRoleUser, Content: string(payload)},
		},
		Tools: []openai.Tool{{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        assignFunction,
				Description: "Assign placeholder tokens to form fields.",
				Parameters:  assignParameters,
			},
		}},
		ToolChoice: openai.ToolChoice{
			Type:     openai.ToolTypeFunction,
			Function: openai.ToolFunction{Name: assignFunction},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("chat completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("no choices in response")
	}

	args, err := arguments(resp.Choices[0].Message)
	if err != nil {
		return nil, err
	}

	known := make(map[string]bool, len(descriptors))
	for _, d := range descriptors {
		known[d.ID] = true
	}

	out := privacy.TokenFill{}
	dropped := 0
	for _, a := range args.Assignments {
		tok, err := privacy.ParseToken(a.Token)
		if err != nil || !known[a.FieldID] {
			dropped++
			continue
		}
		if _, taken := out[a.FieldID]; !taken {
			out[a.FieldID] = tok
		}
	}

	if p.logger != nil {
		p.logger.Info("Tokens proposed", "model", p.model, "fields", len(descriptors), "proposed", len(out), "dropped", dropped)
	}
	return out, nil
}

// arguments reads the assign call, falling back to a JSON message body for
// models that ignore tool_choice.
func arguments(msg openai.ChatCompletionMessage) (assignArgs, error) {
	var args assignArgs
	raw := msg.Content
	for _, tc := range msg.ToolCalls {
		if tc.Function.Name == assignFunction {
			raw = tc.Function.Arguments
			break
		}
	}
	if raw == "" {
		return args, nil
	}
	if err := json.Unmarshal([]byte(raw), &args); err != nil {
		return args, fmt.Errorf("decode %s arguments: %w", assignFunction, err)
	}
	return args, nil
}
