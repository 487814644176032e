package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/LavaJover/shvark-settlement-service/internal/domain"
)

const defaultResponsesURL = "https://api.openai.com/v1/responses"

const instructions = `You are a neutral mediator between two parties of a dispute.
Read the dispute description and both positions and reply with a single JSON object with exactly these keys:
"agreementPoints", "negotiablePoints", "disputedPoints": arrays of {"reference", "summary", "rationale"};
"settlement": {"content", "status"} describing a settlement both parties could accept.
If modification feedback is present, revise the settlement to address it.
Reply with JSON only.`

type OpenAIConfig struct {
	ResponsesURL string
	APIKey       string
	Model        string
	HTTPClient   *http.Client
}

// OpenAIGenerator produces settlement proposals through an OpenAI compatible
// Responses endpoint.
type OpenAIGenerator struct {
	cfg OpenAIConfig
}

func NewOpenAIGenerator(cfg OpenAIConfig) (*OpenAIGenerator, error) {
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = http.DefaultClient
	}
	if strings.TrimSpace(cfg.ResponsesURL) == "" {
		cfg.ResponsesURL = defaultResponsesURL
	}
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("ai api key is required")
	}
	if strings.TrimSpace(cfg.Model) == "" {
		return nil, fmt.Errorf("ai model is required")
	}
	return &OpenAIGenerator{cfg: cfg}, nil
}

func (g *OpenAIGenerator) Generate(ctx context.Context, input domain.GenerationInput) ([]byte, error) {
	requestBody, err := json.Marshal(map[string]any{
		"model":        g.cfg.Model,
		"instructions": instructions,
		"input":        buildPrompt(input),
		"text": map[string]any{
			"format": map[string]string{"type": "json_object"},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("marshal generate request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.cfg.ResponsesURL, bytes.NewReader(requestBody))
	if err != nil {
		return nil, fmt.Errorf("build generate request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+g.cfg.APIKey)

	res, err := g.cfg.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("generate request failed: %w", err)
	}
	defer res.Body.Close()
	if res.StatusCode < 200 || res.StatusCode >= 300 {
		body, err := io.ReadAll(io.LimitReader(res.Body, 4096))
		if err != nil {
			return nil, fmt.Errorf("read generate error body: %w", err)
		}
		return nil, fmt.Errorf("generate request status %d: %s", res.StatusCode, strings.TrimSpace(string(body)))
	}

	var payload struct {
		OutputText string `json:"output_text"`
		Output     []struct {
			Content []struct {
				Type string `json:"type"`
				Text string `json:"text"`
			} `json:"content"`
		} `json:"output"`
	}
	if err := json.NewDecoder(res.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode generate response: %w", err)
	}
	outputText := strings.TrimSpace(payload.OutputText)
	for _, item := range payload.Output {
		if outputText != "" {
			break
		}
		for _, content := range item.Content {
			if text := strings.TrimSpace(content.Text); text != "" {
				outputText = text
				break
			}
		}
	}
	if outputText == "" {
		return nil, fmt.Errorf("generate response missing output text")
	}
	return []byte(stripCodeFence(outputText)), nil
}

func buildPrompt(input domain.GenerationInput) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Dispute:\n%s\n\n", input.Description)
	writeSide(&b, "Creator", input.CreatorPosition, input.CreatorDocuments)
	writeSide(&b, "Counterparty", input.CounterpartyPosition, input.CounterpartyDocuments)
	if len(input.ModificationFeedback) > 0 {
		b.WriteString("Modification feedback on the previous proposal:\n")
		for i, f := range input.ModificationFeedback {
			fmt.Fprintf(&b, "%d. %s\n", i+1, f)
		}
	}
	return b.String()
}

func writeSide(b *strings.Builder, who, position string, documents []string) {
	fmt.Fprintf(b, "%s position:\n%s\n", who, position)
	if len(documents) > 0 {
		fmt.Fprintf(b, "%s documents: %s\n", who, strings.Join(documents, ", "))
	}
	b.WriteString("\n")
}

// stripCodeFence unwraps ```json fenced replies some models return despite
// the JSON format setting.
func stripCodeFence(s string) string {
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimPrefix(s, "json")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
