package importer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/rs/zerolog/log"
	"golang.org/x/xerrors"
)

// Notifier is told the outcome of every file a handler imports.
type Notifier interface {
	Notify(context.Context, *Result) error
}

// Result is the outcome of importing one file with one handler.
type Result struct {
	Event   Event
	Handler *Handler
	Rows    int64
	Error   error
}

// Summary describes r in one line.
func (r *Result) Summary() string {
	if r.Error != nil {
		return fmt.Sprintf("%s handler failed to load %s: %s", r.Handler.Name, r.Event.Name, r.Error)
	}
	return fmt.Sprintf("%s handler successfully loaded %d rows from %s into %s",
		r.Handler.Name, r.Rows, r.Event.Name, r.Handler.Table)
}

// Notifiers fans a result out to every notifier in order. All of them are
// called; the first error is returned.
type Notifiers []Notifier

func (ns Notifiers) Notify(ctx context.Context, r *Result) error {
	var first error
	for _, n := range ns {
		if err := n.Notify(ctx, r); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// SlackPostMessageURL is the Web API method SlackNotifier calls.
const SlackPostMessageURL = "https://slack.com/api/chat.postMessage"

// SlackNotifier posts result summaries to a Slack channel with a bot token.
type SlackNotifier struct {
	Token     string
	Channel   string
	Username  string
	IconEmoji string

	// URL overrides SlackPostMessageURL.
	URL string

	// HTTPClient is used to call the Slack API. http.DefaultClient if nil.
	HTTPClient *http.Client
}

func (n *SlackNotifier) Notify(ctx context.Context, r *Result) error {
	payload, err := json.Marshal(map[string]string{
		"channel":    n.Channel,
		"text":       r.Summary(),
		"username":   n.Username,
		"icon_emoji": n.IconEmoji,
	})
	if err != nil {
		return xerrors.Errorf("failed to marshal slack message: %w", err)
	}

	if err := n.post(ctx, payload); err != nil {
		return xerrors.Errorf("slack postMessage failed: %w", err)
	}

	return nil
}

func (n *SlackNotifier) post(ctx context.Context, payload []byte) error {
	url := n.URL
	if url == "" {
		url = SlackPostMessageURL
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return xerrors.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json; charset=utf-8")
	req.Header.Set("Authorization", "Bearer "+n.Token)

	client := n.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}

	resp, err := client.Do(req)
	if err != nil {
		return xerrors.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return xerrors.Errorf("failed to read response: %w", err)
	}
	log.Ctx(ctx).Debug().Int("status", resp.StatusCode).Bytes("body", body).Msg("slack responded")

	if resp.StatusCode >= http.StatusBadRequest {
		return xerrors.Errorf("status code %d: %s", resp.StatusCode, body)
	}

	var res struct {
		OK    bool   `json:"ok"`
		Error string `json:"error"`
	}
	if err := json.Unmarshal(body, &res); err != nil {
		return xerrors.Errorf("failed to decode response: %w", err)
	}
	if !res.OK {
		return xerrors.New(res.Error)
	}

	return nil
}
