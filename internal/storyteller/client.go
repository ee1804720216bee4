package storyteller

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/samber/oops"
)

// Client calls a remote narrative service over JSON/HTTP.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

// NewClient returns a client for the service at baseURL. A non-empty token
// is sent as a bearer credential.
func NewClient(baseURL, token string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		http:    &http.Client{Timeout: timeout},
	}
}

func (c *Client) Narrate(ctx context.Context, req Request) (Response, error) {
	return c.post(ctx, "/narrate", req)
}

func (c *Client) QuestHint(ctx context.Context, req Request) (Response, error) {
	return c.post(ctx, "/quest-hint", req)
}

func (c *Client) Fuse(ctx context.Context, req Request) (Response, error) {
	return c.post(ctx, "/fuse", req)
}

func (c *Client) post(ctx context.Context, path string, req Request) (Response, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return Response{}, oops.Wrapf(err, "encode %s request", path)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return Response{}, oops.Wrapf(err, "build %s request", path)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.token)
	}

	res, err := c.http.Do(httpReq)
	if err != nil {
		return Response{}, oops.Wrapf(err, "call %s", path)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(res.Body, 512))
		return Response{}, oops.
			With("status", res.StatusCode).
			Errorf("%s returned %s: %s", path, res.Status, strings.TrimSpace(string(msg)))
	}

	var out Response
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		return Response{}, oops.Wrapf(err, "decode %s response", path)
	}
	if out.Narrative == "" && out.NewItem == nil {
		return Response{}, oops.Errorf("%s returned an empty response", path)
	}
	return out, nil
}
