package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"google.golang.org/genai"

	"github.com/dvloznov/expense-coach/internal/logger"
)

// DefaultModelName is the Gemini model used when none is configured.
const DefaultModelName = "gemini-2.5-flash"

// DefaultTimeout bounds every call to the text service.
const DefaultTimeout = 8 * time.Second

// TextGenerator sends a prompt to the external text service and returns its
// plain-text reply.
type TextGenerator interface {
	GenerateText(ctx context.Context, prompt string) (string, error)
}

// Config selects credentials and model for the Gemini client.
type Config struct {
	APIKey          string
	CredentialsFile string
	Project         string
	Location        string
	Model           string
	Timeout         time.Duration
}

// GeminiClient is the TextGenerator backed by Google's Gemini models.
type GeminiClient struct {
	client  *genai.Client
	model   string
	timeout time.Duration
	log     zerolog.Logger
}

// NewGeminiClient builds the client once. An API key selects the Gemini API
// backend; otherwise ambient credentials plus a project select Vertex AI.
// With neither it returns a *ConfigurationError.
func NewGeminiClient(ctx context.Context, cfg Config) (*GeminiClient, error) {
	clientCfg, err := clientConfig(cfg)
	if err != nil {
		return nil, err
	}

	client, err := genai.NewClient(ctx, clientCfg)
	if err != nil {
		return nil, &ConfigurationError{Reason: "create genai client", Err: err}
	}

	model := cfg.Model
	if model == "" {
		model = DefaultModelName
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	log := logger.FromContext(ctx)
	log.Info().
		Str("model", model).
		Str("backend", backendName(clientCfg.Backend)).
		Dur("timeout", timeout).
		Msg("Gemini client ready")

	return &GeminiClient{client: client, model: model, timeout: timeout, log: log}, nil
}

func clientConfig(cfg Config) (*genai.ClientConfig, error) {
	if key := strings.TrimSpace(cfg.APIKey); key != "" {
		return &genai.ClientConfig{
			APIKey:  key,
			Backend: genai.BackendGeminiAPI,
		}, nil
	}
	if cfg.CredentialsFile != "" && cfg.Project != "" {
		location := cfg.Location
		if location == "" {
			location = "us-central1"
		}
		return &genai.ClientConfig{
			Project:  cfg.Project,
			Location: location,
			Backend:  genai.BackendVertexAI,
		}, nil
	}
	return nil, missingCredentials()
}

func backendName(b genai.Backend) string {
	if b == genai.BackendVertexAI {
		return "vertex"
	}
	return "gemini-api"
}

// Model returns the configured model name.
func (c *GeminiClient) Model() string {
	return c.model
}

// GenerateText sends prompt as a single user turn. The returned text is not
// trimmed or validated; callers decide what counts as usable.
func (c *GeminiClient) GenerateText(ctx context.Context, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	start := time.Now()
	resp, err := c.client.Models.GenerateContent(ctx, c.model, genai.Text(prompt), nil)
	if err != nil {
		return "", fmt.Errorf("GenerateText: generate content: %w", err)
	}

	text := resp.Text()
	c.log.Debug().
		Str("model", c.model).
		Dur("elapsed", time.Since(start)).
		Int("response_len", len(text)).
		Msg("Gemini call finished")

	return text, nil
}

// Unconfigured is a TextGenerator that always fails with the configuration
// error recorded at startup. It keeps the rest of the system running when no
// credentials are present.
type Unconfigured struct {
	Err *ConfigurationError
}

// NewUnconfigured wraps err. A nil err becomes the missing-credentials error.
func NewUnconfigured(err *ConfigurationError) *Unconfigured {
	if err == nil {
		err = missingCredentials()
	}
	return &Unconfigured{Err: err}
}

func (u *Unconfigured) GenerateText(context.Context, string) (string, error) {
	return "", u.Err
}
