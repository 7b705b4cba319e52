// Package sitegen generates small static websites with the model and
// publishes them to GitHub Pages.
package sitegen

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/openai/openai-go/v3"
)

const generateSystemPrompt = `You are an expert web developer creating premium websites. Return ONLY the three files (index.html, styles.css, script.js) separated by markers. Use correct file paths. No explanations or JSON wrappers.`

const generateTemplate = `Build a modern, production-ready website named %q.

The user asked: %q

Requirements:
- Three files: index.html, styles.css, script.js.
- Responsive layout, clean typography, at least three content sections.
- Link assets with plain relative paths: href="styles.css", src="script.js".
- No frameworks, no build step, no external dependencies.

Output format, exactly:
--- index.html ---
[content]
--- styles.css ---
[content]
--- script.js ---
[content]

Start with: --- index.html ---`

// Project is a finished build stored in the document store.
type Project struct {
	ID        string
	Name      string
	Command   string
	URL       string
	CreatedAt time.Time
}

// Store persists project metadata.
type Store interface {
	SaveProject(ctx context.Context, p Project) error
}

// Publisher uploads generated files and returns the public URL.
type Publisher interface {
	UploadWebsite(ctx context.Context, projectID string, files map[string]string) (string, error)
}

// Service runs the generate-publish-record pipeline.
type Service struct {
	client openai.Client
	pub    Publisher
	store  Store
}

func NewService(client openai.Client, pub Publisher, store Store) *Service {
	return &Service{client: client, pub: pub, store: store}
}

const maxGenerateRetries = 3

// Build generates the site and publishes it. onStep, when non-nil, gets
// short progress lines suitable for display.
func (s *Service) Build(ctx context.Context, name, command string, onStep func(string)) (Project, error) {
	step := func(msg string) {
		if onStep != nil {
			onStep(msg)
		}
	}

	step("Generating website files")
	var files map[string]string
	var lastErr error
	for attempt := 0; attempt <= maxGenerateRetries; attempt++ {
		if attempt > 0 {
			step("Quality check failed, regenerating")
			select {
			case <-ctx.Done():
				return Project{}, ctx.Err()
			case <-time.After(1200 * time.Millisecond):
			}
		}

		raw, err := s.generate(ctx, name, command)
		if err != nil {
			lastErr = err
			continue
		}
		parsed, err := ParseGeneratedFiles(raw)
		if err != nil {
			lastErr = err
			continue
		}
		if err := validateSite(parsed); err != nil {
			lastErr = err
			continue
		}
		files = parsed
		break
	}
	if files == nil {
		return Project{}, fmt.Errorf("website generation: %w", lastErr)
	}

	p := Project{
		ID:        uuid.NewString()[:8],
		Name:      name,
		Command:   command,
		CreatedAt: time.Now(),
	}

	step("Publishing to GitHub Pages")
	url, err := s.pub.UploadWebsite(ctx, p.ID, files)
	if err != nil {
		return Project{}, fmt.Errorf("publish website: %w", err)
	}
	p.URL = url

	if s.store != nil {
		if err := s.store.SaveProject(ctx, p); err != nil {
			// The site is live; a failed metadata write is not fatal.
			slog.Warn("save project failed", "project", p.ID, "err", err)
		}
	}

	slog.Info("website built", "project", p.ID, "name", name, "url", url)
	return p, nil
}

func (s *Service) generate(ctx context.Context, name, command string) (string, error) {
	resp, err := s.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModelGPT4o,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(generateSystemPrompt),
			openai.UserMessage(fmt.Sprintf(generateTemplate, name, command)),
		},
		MaxTokens:   openai.Int(12000),
		Temperature: openai.Float(0.7),
	})
	if err != nil {
		return "", fmt.Errorf("generate site: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("generate site: empty response")
	}
	return resp.Choices[0].Message.Content, nil
}

func validateSite(files map[string]string) error {
	html, ok := files["index.html"]
	if !ok {
		return fmt.Errorf("missing index.html")
	}
	lower := strings.ToLower(html)
	if !strings.Contains(lower, "<html") {
		return fmt.Errorf("index.html has no <html> tag")
	}
	if len(html) < 200 {
		return fmt.Errorf("index.html suspiciously small (%d bytes)", len(html))
	}
	if strings.Count(lower, "<section") < 2 && strings.Count(lower, "<div") < 3 {
		return fmt.Errorf("index.html lacks content structure")
	}
	return nil
}
