// Package draft turns the structured intake form into a prose request the
// property manager can edit before submitting.
package draft

import (
	"context"
	_ "embed"
	"fmt"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"facility-intake-backend/internal/llm"
	"facility-intake-backend/internal/metrics"
	"facility-intake-backend/internal/types"
)

//go:embed prompt.yaml
var defaultPrompt []byte

const (
	defaultTemperature = 0.4
	defaultMaxTokens   = 300
	requestTimeout     = 30 * time.Second
)

type PromptSpec struct {
	System       string `yaml:"system"`
	Instructions string `yaml:"instructions"`
	Style        struct {
		Temperature float32 `yaml:"temperature"`
		MaxTokens   int     `yaml:"max_tokens"`
	} `yaml:"style"`
}

// LoadPromptSpec reads the prompt from path, or the built-in prompt when path is empty.
func LoadPromptSpec(path string) (*PromptSpec, error) {
	b := defaultPrompt
	if path != "" {
		var err error
		if b, err = os.ReadFile(path); err != nil {
			return nil, err
		}
	}
	var spec PromptSpec
	if err := yaml.Unmarshal(b, &spec); err != nil {
		return nil, fmt.Errorf("parse draft prompt: %w", err)
	}
	if spec.Style.Temperature <= 0 {
		spec.Style.Temperature = defaultTemperature
	}
	if spec.Style.MaxTokens <= 0 {
		spec.Style.MaxTokens = defaultMaxTokens
	}
	return &spec, nil
}

// DraftGenerationError wraps any failure to produce a draft. The form's
// existing notes must be left as they are when this is returned.
type DraftGenerationError struct {
	Err error
}

func (e *DraftGenerationError) Error() string {
	return "could not generate a draft: " + e.Err.Error()
}

func (e *DraftGenerationError) Unwrap() error { return e.Err }

// Completer is the one-shot half of llm.Provider.
type Completer interface {
	Generate(ctx context.Context, prompt string, opts llm.GenerateOptions) (string, error)
}

type Generator struct {
	completer Completer
	spec      *PromptSpec
	logger    *zap.Logger
}

func NewGenerator(completer Completer, spec *PromptSpec, logger *zap.Logger) *Generator {
	if logger == nil {
		logger = zap.NewNop()
	}
	if spec == nil {
		spec, _ = LoadPromptSpec("")
	}
	return &Generator{completer: completer, spec: spec, logger: logger.With(zap.String("component", "draft"))}
}

// Generate returns the drafted request text, trimmed. It makes exactly one
// request and does not retry.
func (g *Generator) Generate(ctx context.Context, form types.SurveyPayload) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	var b strings.Builder
	b.WriteString(strings.TrimSpace(g.spec.Instructions))
	b.WriteString("\n\n")
	b.WriteString(ContextBlock(form))

	out, err := g.completer.Generate(ctx, b.String(), llm.GenerateOptions{
		System:      strings.TrimSpace(g.spec.System),
		Temperature: g.spec.Style.Temperature,
		MaxTokens:   g.spec.Style.MaxTokens,
	})
	if err == nil {
		out = strings.TrimSpace(out)
		if out == "" {
			err = fmt.Errorf("empty response")
		}
	}
	if err != nil {
		g.logger.Warn("draft generation failed", zap.Error(err))
		metrics.ObserveDraft(false)
		return "", &DraftGenerationError{Err: err}
	}
	metrics.ObserveDraft(true)
	return out, nil
}

// ContextBlock lists the form fields in a fixed order: company, property,
// contact, services, area, timeline. Blank fields are omitted.
func ContextBlock(form types.SurveyPayload) string {
	services := append([]string(nil), form.Services...)
	if other := strings.TrimSpace(form.OtherService); other != "" {
		services = append(services, other)
	}
	lines := []struct{ label, value string }{
		{"Company", form.CompanyName},
		{"Property", form.PropertyName},
		{"Contact", form.ContactName},
		{"Services requested", strings.Join(services, ", ")},
		{"Area / unit", form.UnitInfo},
		{"Timeline", form.Timeline},
	}
	var b strings.Builder
	for _, l := range lines {
		v := strings.TrimSpace(l.value)
		if v == "" {
			continue
		}
		fmt.Fprintf(&b, "%s: %s\n", l.label, v)
	}
	return b.String()
}
