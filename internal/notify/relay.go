package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/yz4230/deployboard/internal/entity"
)

const maxResponseText = 4 << 10

type Message struct {
	Title string `json:"title"`
	Text  string `json:"text"`
	URL   string `json:"url,omitempty"`
}

type Result struct {
	OK   bool   `json:"ok"`
	Text string `json:"text"`
}

// upstreamPayload is what the push endpoint receives.
type upstreamPayload struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

// Relay forwards notifications to an external push endpoint.
type Relay struct {
	endpoint string
	client   *http.Client
}

func NewRelay(endpoint string, timeout time.Duration) *Relay {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Relay{endpoint: endpoint, client: &http.Client{Timeout: timeout}}
}

func (r *Relay) Enabled() bool { return r != nil && r.endpoint != "" }

// Send posts msg to endpoint, or to the configured endpoint when endpoint is
// empty. A non-2xx answer is not an error: it is reported through Result.OK.
func (r *Relay) Send(ctx context.Context, endpoint string, msg *Message) (*Result, error) {
	if endpoint == "" {
		endpoint = r.endpoint
	}
	if endpoint == "" {
		return nil, fmt.Errorf("push endpoint: %w", entity.ErrNotConfigured)
	}

	payload, err := json.Marshal(&upstreamPayload{Title: msg.Title, Body: msg.Text})
	if err != nil {
		return nil, fmt.Errorf("encode notification: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("relay notification: %w", err)
	}
	defer res.Body.Close()

	body, err := io.ReadAll(io.LimitReader(res.Body, maxResponseText))
	if err != nil {
		return nil, fmt.Errorf("read relay response: %w", err)
	}
	return &Result{
		OK:   res.StatusCode >= 200 && res.StatusCode < 300,
		Text: string(body),
	}, nil
}

// DeployMessage describes a freshly recorded deployment.
func DeployMessage(rec *entity.DeployRecord) *Message {
	text := fmt.Sprintf("%s deployed %s@%s to %s: %s", rec.Operator, rec.Branch, shortCommit(rec.Commit), rec.Environment, rec.Title)
	if rec.Note != "" {
		text += "\n" + rec.Note
	}
	return &Message{
		Title: fmt.Sprintf("[%s] %s %s", rec.ProjectName, rec.Environment, rec.Status),
		Text:  text,
	}
}

func shortCommit(commit string) string {
	if len(commit) > 7 {
		return commit[:7]
	}
	return commit
}
