package classifier

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"google.golang.org/genai"
)

const (
	DefaultModel = "gemini-2.5-flash"
	SpamTag      = "spam"
	maxTags      = 5
)

var ErrNotConfigured = errors.New("classifier API key is not configured")

// Error is returned when the model call fails or its answer is unusable.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string {
	return fmt.Sprintf("classifier %s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

type Classification struct {
	Summary string
	Tags    []string
}

func (c Classification) IsSpam() bool {
	return slices.ContainsFunc(c.Tags, func(tag string) bool {
		return strings.EqualFold(tag, SpamTag)
	})
}

type Gemini struct {
	client *genai.Client
	model  string
}

// NewGemini creates a classifier backed by the Gemini API. Without an API key
// the classifier is created but every call fails with ErrNotConfigured.
func NewGemini(ctx context.Context, apiKey, model string) (*Gemini, error) {
	g := &Gemini{model: model}
	if g.model == "" {
		g.model = DefaultModel
	}

	if apiKey == "" {
		slog.Warn("GEMINI_API_KEY not set, articles will be saved without summary and tags")
		return g, nil
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	g.client = client

	return g, nil
}

func (g *Gemini) Classify(ctx context.Context, title, content string) (Classification, error) {
	if g.client == nil {
		return Classification{}, ErrNotConfigured
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(BuildPrompt(title, content)),
		&genai.GenerateContentConfig{
			ResponseMIMEType: "application/json",
		})
	if err != nil {
		return Classification{}, &Error{Op: "generate", Err: err}
	}

	return ParseResponse(resp.Text())
}

func BuildPrompt(title, content string) string {
	var b strings.Builder

	b.WriteString("You are an intelligent RSS feed curator.\n")
	b.WriteString("Analyze the following article content.\n\n")
	fmt.Fprintf(&b, "Article Title: %s\n", title)
	fmt.Fprintf(&b, "Content Snippet: %s... (truncated)\n\n", content)
	b.WriteString("Tasks:\n")
	b.WriteString("1. Write a concise summary of the article.\n")
	b.WriteString("2. Generate a list of the top 5 most relevant tags (topics, companies, people).\n")
	b.WriteString("3. CRITICAL: If the content looks like an advertisement, a newsletter intro that isn't an article, ")
	b.WriteString("a \"subscribe now\" prompt, or spam, YOU MUST include the tag 'spam' in the tags list.\n\n")
	b.WriteString("Return the result as a VALID JSON object with the following structure:\n")
	b.WriteString(`{"summary": "The summary text...", "tags": ["tag1", "tag2", "spam"]}`)
	b.WriteString("\n")

	return b.String()
}

type response struct {
	Summary string          `json:"summary"`
	Tags    json.RawMessage `json:"tags"`
}

// ParseResponse decodes the model answer. Tags are trimmed and
// de-duplicated case-insensitively; the spam tag survives the top five cut.
func ParseResponse(text string) (Classification, error) {
	text = stripCodeFence(strings.TrimSpace(text))
	if text == "" {
		return Classification{}, &Error{Op: "parse", Err: errors.New("empty response")}
	}

	var raw response
	if err := json.Unmarshal([]byte(text), &raw); err != nil {
		return Classification{}, &Error{Op: "parse", Err: err}
	}

	tags, err := decodeTags(raw.Tags)
	if err != nil {
		return Classification{}, &Error{Op: "parse", Err: err}
	}

	return Classification{
		Summary: strings.TrimSpace(raw.Summary),
		Tags:    cleanTags(tags),
	}, nil
}

// Models sometimes answer with a comma separated string instead of a list.
func decodeTags(raw json.RawMessage) ([]string, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}

	var list []string
	if err := json.Unmarshal(raw, &list); err == nil {
		return list, nil
	}

	var joined string
	if err := json.Unmarshal(raw, &joined); err != nil {
		return nil, fmt.Errorf("tags must be a list of strings: %w", err)
	}
	return strings.Split(joined, ","), nil
}

func cleanTags(tags []string) []string {
	cleaned := make([]string, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))
	spam := false

	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		if tag == "" {
			continue
		}
		key := strings.ToLower(tag)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}

		if key == SpamTag {
			spam = true
			continue
		}
		cleaned = append(cleaned, tag)
	}

	if len(cleaned) > maxTags {
		cleaned = cleaned[:maxTags]
	}
	if spam {
		cleaned = append(cleaned, SpamTag)
	}

	return cleaned
}

func stripCodeFence(text string) string {
	if !strings.HasPrefix(text, "```") {
		return text
	}
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimPrefix(text, "json")
	text = strings.TrimSuffix(strings.TrimSpace(text), "```")
	return strings.TrimSpace(text)
}
