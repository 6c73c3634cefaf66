package render

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/okian/teampulse/pkg/metrics"
)

const (
	DefaultOllamaEndpoint = "http://localhost:11434"
	DefaultOllamaModel    = "llama3.2"
	probeTimeout          = 2 * time.Second
)

// prompt is the per-kind instruction sent to the model.
type prompt struct {
	system      string
	instruction string
	temperature float64
	maxTokens   int
}

const (
	studentSystem    = "You are a helpful AI learning assistant for collaborative education. Your role is to encourage student engagement and teamwork in a positive, supportive manner."
	groupSystem      = "You are an AI facilitator for collaborative learning groups. Your role is to identify issues and suggest constructive interventions."
	instructorSystem = "You are an AI dashboard for instructors managing multiple collaborative learning groups. Focus on actionable insights."

	nudgeInstruction = "Generate a short, personalized message (2-3 sentences) that is supportive and encouraging, " +
		"provides an actionable suggestion and uses a friendly, conversational tone. Reply with the message only."
)

var prompts = map[Kind]prompt{
	KindFirstContribution: {studentSystem, "Write a nudge for a student who has not contributed yet. " + nudgeInstruction, 0.7, 150},
	KindReEngage:          {studentSystem, "Write a nudge for a student who has been inactive. " + nudgeInstruction, 0.7, 150},
	KindFairLoad:          {studentSystem, "Write a nudge about balancing the workload. " + nudgeInstruction, 0.7, 150},
	KindGoodWork:          {studentSystem, "Write positive reinforcement for recent contributions. " + nudgeInstruction, 0.7, 150},
	KindDeadline:          {studentSystem, "Write a reminder about an upcoming milestone deadline. " + nudgeInstruction, 0.7, 150},
	KindAllGood:           {studentSystem, "Write an encouraging note for a student who is on track. " + nudgeInstruction, 0.7, 150},
	KindGroupAssessment:   {groupSystem, "Give an overall health assessment of this collaborative learning group in 1-2 sentences. Reply with the assessment only.", 0.6, 400},
	KindInstructorAlert:   {instructorSystem, "Generate a brief alert (3-4 sentences) that summarizes the critical issues, explains the impact on learning outcomes and suggests immediate intervention steps.", 0.6, 200},
}

// OllamaConfig configures the Ollama renderer.
type OllamaConfig struct {
	Endpoint   string
	Model      string
	Timeout    time.Duration
	MaxRetries int
}

// OllamaRenderer renders phrases with a local Ollama model via /api/generate.
type OllamaRenderer struct {
	cfg  OllamaConfig
	http *http.Client
}

// NewOllamaRenderer creates a renderer talking to cfg.Endpoint.
func NewOllamaRenderer(cfg OllamaConfig) *OllamaRenderer {
	if cfg.Endpoint == "" {
		cfg.Endpoint = DefaultOllamaEndpoint
	}
	if cfg.Model == "" {
		cfg.Model = DefaultOllamaModel
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 3 * time.Second
	}
	cfg.Endpoint = strings.TrimRight(cfg.Endpoint, "/")
	return &OllamaRenderer{
		cfg: cfg,
		http: &http.Client{
			Transport: &http.Transport{
				DialContext: (&net.Dialer{Timeout: 5 * time.Second}).DialContext,
			},
		},
	}
}

type ollamaRequest struct {
	Model   string        `json:"model"`
	System  string        `json:"system,omitempty"`
	Prompt  string        `json:"prompt"`
	Stream  bool          `json:"stream"`
	Options ollamaOptions `json:"options"`
}

type ollamaOptions struct {
	Temperature float64 `json:"temperature,omitempty"`
	NumPredict  int     `json:"num_predict,omitempty"`
}

type ollamaResponse struct {
	Model    string `json:"model"`
	Response string `json:"response"`
}

// Render asks the model for one phrase, retrying up to MaxRetries times.
func (o *OllamaRenderer) Render(ctx context.Context, kind Kind, params Params) (string, error) {
	p, ok := prompts[kind]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownKind, kind)
	}
	start := time.Now()
	defer func() {
		metrics.RecordRendererLatency("ollama", float64(time.Since(start).Milliseconds()))
	}()

	ctx, cancel := context.WithTimeout(ctx, o.cfg.Timeout)
	defer cancel()

	body := ollamaRequest{
		Model:   o.cfg.Model,
		System:  p.system,
		Prompt:  buildPrompt(p.instruction, params),
		Stream:  false,
		Options: ollamaOptions{Temperature: p.temperature, NumPredict: p.maxTokens},
	}

	var lastErr error
	for i := 0; i < 1+o.cfg.MaxRetries; i++ {
		text, err := o.generate(ctx, body)
		if err == nil {
			return text, nil
		}
		lastErr = err
		if ctx.Err() != nil {
			break
		}
	}

	switch {
	case ctx.Err() != nil:
		return "", ErrTimeout
	case isConnectionError(lastErr):
		return "", ErrUnavailable
	default:
		return "", fmt.Errorf("%w: %v", ErrRetryExhausted, lastErr)
	}
}

func buildPrompt(instruction string, params Params) string {
	var b strings.Builder
	b.WriteString(instruction)
	b.WriteString("\n\nContext:\n")
	for _, k := range params.keys() {
		if k == ParamMessage {
			continue
		}
		fmt.Fprintf(&b, "- %s: %s\n", k, params[k])
	}
	return b.String()
}

func (o *OllamaRenderer) generate(ctx context.Context, body ollamaRequest) (string, error) {
	data, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("marshaling request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.cfg.Endpoint+"/api/generate", bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := o.http.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("reading response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("ollama returned status %d: %s", resp.StatusCode, string(raw))
	}

	var out ollamaResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return "", fmt.Errorf("decoding response: %w", err)
	}
	text := strings.TrimSpace(out.Response)
	if text == "" {
		return "", ErrEmptyOutput
	}
	return text, nil
}

// Available reports whether the Ollama server answers /api/tags.
func (o *OllamaRenderer) Available(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, o.cfg.Endpoint+"/api/tags", nil)
	if err != nil {
		return false
	}
	resp, err := o.http.Do(req)
	if err != nil {
		return false
	}
	resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

func isConnectionError(err error) bool {
	var netErr *net.OpError
	return errors.As(err, &netErr)
}
