package annotator

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/sashabaranov/go-openai"

	"calclik-event-scanner/internal/models"
)

// OpenAIAnnotator performs named-entity recognition through the OpenAI chat
// API: the model is asked to label location and organization spans in the
// text and return them as JSON. It implements Annotator; any API or parse
// failure comes back as *AnnotatorError so the scanner can degrade to the
// fallback extractor.
type OpenAIAnnotator struct {
	client      *openai.Client
	model       string
	temperature float32
	maxTokens   int
}

// NewOpenAIAnnotator creates an annotator from the OPENAI_API_KEY
// environment variable. Returns ErrUnavailable when the key is not set so
// callers can fall back instead of crashing.
func NewOpenAIAnnotator() (*OpenAIAnnotator, error) {
	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		return nil, ErrUnavailable
	}

	return &OpenAIAnnotator{
		client:      openai.NewClient(apiKey),
		model:       "gpt-4o-mini",
		temperature: 0.0,
		maxTokens:   1500,
	}, nil
}

// NewOpenAIAnnotatorWithConfig creates an annotator with custom model
// settings.
func NewOpenAIAnnotatorWithConfig(model string, temperature float32, maxTokens int) (*OpenAIAnnotator, error) {
	annotator, err := NewOpenAIAnnotator()
	if err != nil {
		return nil, err
	}

	if model != "" {
		annotator.model = model
	}
	annotator.temperature = temperature
	if maxTokens > 0 {
		annotator.maxTokens = maxTokens
	}

	return annotator, nil
}

// entityResponse is the JSON shape the model is instructed to return.
type entityResponse struct {
	Entities []struct {
		Label   string `json:"label"`
		Literal string `json:"literal"`
	} `json:"entities"`
}

// Annotate implements Annotator. Entity positions are resolved against the
// input text by first occurrence; an entity the model invented (not present
// in the text) is dropped.
func (a *OpenAIAnnotator) Annotate(ctx context.Context, text string) ([]models.Entity, error) {
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}

	resp, err := a.client.CreateChatCompletion(
		ctx,
		openai.ChatCompletionRequest{
			Model:       a.model,
			Temperature: a.temperature,
			MaxTokens:   a.maxTokens,
			Messages: []openai.ChatCompletionMessage{
				{
					Role:    openai.ChatMessageRoleSystem,
					Content: nerSystemPrompt,
				},
				{
					Role:    openai.ChatMessageRoleUser,
					Content: "Label the entities in this text:\n\n" + text,
				},
			},
		},
	)
	if err != nil {
		return nil, &AnnotatorError{Err: fmt.Errorf("openai request failed: %w", err)}
	}

	if len(resp.Choices) == 0 {
		return nil, &AnnotatorError{Err: fmt.Errorf("no response choices from OpenAI")}
	}

	entities, err := ParseEntityResponse(resp.Choices[0].Message.Content, text)
	if err != nil {
		return nil, &AnnotatorError{Err: err}
	}

	return entities, nil
}

// Model returns the model in use.
func (a *OpenAIAnnotator) Model() string {
	return a.model
}

const nerSystemPrompt = `You are a named-entity recognizer. Given a text, find every location (venue, address, place name) and organization mentioned in it.

Return a JSON object with this exact structure and nothing else:
{
  "entities": [
    {"label": "location", "literal": "exact text span as it appears"},
    {"label": "organization", "literal": "exact text span as it appears"}
  ]
}

Rules:
- "label" is one of: location, organization, other
- "literal" must be copied verbatim from the input text
- List entities in order of appearance
- Return {"entities": []} when there are none`

// ParseEntityResponse parses the model's JSON reply and resolves each
// entity's position in the original text. Exported so the parsing can be
// tested without an API round trip.
func ParseEntityResponse(response, originalText string) ([]models.Entity, error) {
	cleaned := cleanJSONResponse(response)

	var parsed entityResponse
	if err := json.Unmarshal([]byte(cleaned), &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse entity response JSON: %w", err)
	}

	var entities []models.Entity
	searchFrom := make(map[string]int)

	for _, raw := range parsed.Entities {
		label := normalizeLabel(raw.Label)
		literal := strings.TrimSpace(raw.Literal)
		if literal == "" {
			continue
		}

		// Resolve position by next occurrence so repeated literals keep
		// distinct positions.
		offset := searchFrom[literal]
		if offset > len(originalText) {
			continue
		}
		idx := strings.Index(originalText[offset:], literal)
		if idx < 0 {
			continue
		}

		position := offset + idx
		searchFrom[literal] = position + len(literal)

		entities = append(entities, models.Entity{
			Label:    label,
			Literal:  literal,
			Position: position,
		})
	}

	sort.SliceStable(entities, func(i, j int) bool {
		return entities[i].Position < entities[j].Position
	})

	return entities, nil
}

// normalizeLabel maps free-form model labels onto the entity label enum.
func normalizeLabel(label string) string {
	switch strings.ToLower(strings.TrimSpace(label)) {
	case models.EntityLocation, "loc", "place", "venue", "address":
		return models.EntityLocation
	case models.EntityOrganization, "org", "company":
		return models.EntityOrganization
	default:
		return models.EntityOther
	}
}

// cleanJSONResponse removes markdown code fences the model sometimes wraps
// around its JSON.
func cleanJSONResponse(response string) string {
	cleaned := strings.TrimSpace(response)

	if strings.HasPrefix(cleaned, "```json") {
		cleaned = strings.TrimPrefix(cleaned, "```json")
	}
	if strings.HasPrefix(cleaned, "```") {
		cleaned = strings.TrimPrefix(cleaned, "```")
	}
	if strings.HasSuffix(cleaned, "```") {
		cleaned = strings.TrimSuffix(cleaned, "```")
	}

	return strings.TrimSpace(cleaned)
}
