// Package greeting fetches the personalised wish shown when the gift opens.
package greeting

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"
	"google.golang.org/genai"
)

// Fallback is shown whenever no generated greeting is available.
const Fallback = "May snowflakes dance and magic glow, in every heart where wonders grow."

// DefaultName is used in the prompt when the user gave no name.
const DefaultName = "Friend"

const systemInstruction = "You are a mystical Christmas Wizard. Use evocative, festive language."

// ErrNotConfigured is returned by NewGemini without an API key.
var ErrNotConfigured = errors.New("greeting: no API key configured")

// Generator produces a greeting for a name.
type Generator interface {
	Greet(ctx context.Context, name string) (string, error)
}

// GeneratorFunc adapts a function to Generator.
type GeneratorFunc func(ctx context.Context, name string) (string, error)

// Greet calls f(ctx, name).
func (f GeneratorFunc) Greet(ctx context.Context, name string) (string, error) {
	return f(ctx, name)
}

// Prompt builds the generation prompt for name.
func Prompt(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		name = DefaultName
	}
	return fmt.Sprintf("Write a short, magical, rhyming Christmas wish (max 30 words) for a person named %s. Make it sound like a spell being cast.", name)
}

// Config holds Gemini settings.
type Config struct {
	APIKey  string
	Model   string
	Timeout time.Duration
}

// Gemini generates greetings with the Gemini API.
type Gemini struct {
	client  *genai.Client
	model   string
	timeout time.Duration
}

// NewGemini creates a Gemini generator.
func NewGemini(ctx context.Context, cfg Config) (*Gemini, error) {
	if cfg.APIKey == "" {
		return nil, ErrNotConfigured
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}
	if cfg.Model == "" {
		cfg.Model = "gemini-2.0-flash"
	}
	return &Gemini{client: client, model: cfg.Model, timeout: cfg.Timeout}, nil
}

// Greet asks the model for a greeting.
func (g *Gemini) Greet(ctx context.Context, name string) (string, error) {
	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(Prompt(name)), &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(systemInstruction, genai.RoleUser),
	})
	if err != nil {
		return "", fmt.Errorf("generate greeting: %w", err)
	}
	return strings.TrimSpace(resp.Text()), nil
}

// Cached memoises greetings per normalised name.
type Cached struct {
	next  Generator
	cache *cache.Cache
}

// NewCached wraps next with an in-memory cache whose entries expire after ttl.
func NewCached(next Generator, ttl time.Duration) *Cached {
	return &Cached{
		next:  next,
		cache: cache.New(ttl, 2*ttl),
	}
}

// Greet returns a cached greeting or asks next. Failures are not cached.
func (c *Cached) Greet(ctx context.Context, name string) (string, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	if v, ok := c.cache.Get(key); ok {
		return v.(string), nil
	}
	text, err := c.next.Greet(ctx, name)
	if err != nil {
		return "", err
	}
	c.cache.SetDefault(key, text)
	return text, nil
}

// Resolve always yields something to show: the generated greeting, or
// Fallback when gen is nil, fails, or returns nothing.
func Resolve(ctx context.Context, gen Generator, name string, log *zap.SugaredLogger) string {
	if gen == nil {
		return Fallback
	}
	text, err := gen.Greet(ctx, name)
	if err != nil {
		log.Warnf("Greeting generation failed, using fallback: %v", err)
		return Fallback
	}
	if text == "" {
		return Fallback
	}
	return text
}
