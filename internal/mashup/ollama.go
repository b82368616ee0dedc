package mashup

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/raveai/server/internal/domain"
)

const titleSystemPrompt = "You name DJ mashups. Reply with one short, catchy title only, no quotes, no explanation."

// OllamaSynthesizer asks a local Ollama model for the mashup title and
// uses the template synthesizer for everything else, including the title
// whenever the model is unavailable.
type OllamaSynthesizer struct {
	baseURL    string
	model      string
	httpClient *http.Client
	fallback   *TemplateSynthesizer
	logger     *slog.Logger
}

func NewOllamaSynthesizer(baseURL, model string, timeout time.Duration, fallback *TemplateSynthesizer, logger *slog.Logger) *OllamaSynthesizer {
	return &OllamaSynthesizer{
		baseURL:    strings.TrimRight(baseURL, "/"),
		model:      model,
		httpClient: &http.Client{Timeout: timeout},
		fallback:   fallback,
		logger:     logger,
	}
}

type generateRequest struct {
	Model   string         `json:"model"`
	Prompt  string         `json:"prompt"`
	System  string         `json:"system,omitempty"`
	Stream  bool           `json:"stream"`
	Options map[string]any `json:"options,omitempty"`
}

type generateResponse struct {
	Response string `json:"response"`
	Done     bool   `json:"done"`
}

func (s *OllamaSynthesizer) Synthesize(ctx context.Context, tracks []domain.Track, progress ProgressFunc) (Synthesis, error) {
	synthesis, err := s.fallback.Synthesize(ctx, tracks, progress)
	if err != nil {
		return Synthesis{}, err
	}

	title, err := s.generate(ctx, titleSystemPrompt, titlePrompt(tracks))
	if err != nil {
		s.logger.WarnContext(ctx, "failed to generate mashup title, using template", "error", err)
		return synthesis, nil
	}
	if title = cleanTitle(title); title != "" {
		synthesis.Title = title
	}

	return synthesis, nil
}

func titlePrompt(tracks []domain.Track) string {
	var b strings.Builder
	b.WriteString("Name a mashup of these tracks:\n")
	for _, t := range tracks {
		fmt.Fprintf(&b, "- %s by %s (%s, %d BPM, %s)\n", t.Title, t.Artist, t.Genre, t.BPM, t.Key)
	}
	return b.String()
}

func cleanTitle(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	return strings.Trim(s, `"' `)
}

func (s *OllamaSynthesizer) generate(ctx context.Context, system, prompt string) (string, error) {
	body, err := json.Marshal(generateRequest{
		Model:  s.model,
		Prompt: prompt,
		System: system,
		Stream: false,
		Options: map[string]any{
			"temperature": 0.9,
			"num_predict": 32,
		},
	})
	if err != nil {
		return "", fmt.Errorf("marshal: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/api/generate", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("ollama request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("ollama status %d: %s", resp.StatusCode, string(msg))
	}

	var result generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("decode: %w", err)
	}

	return result.Response, nil
}
