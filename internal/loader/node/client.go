package node

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

type infoResponse struct {
	RootID  string   `json:"rootId"`
	Missing []string `json:"missing"`
}

type renderRequest struct {
	Location string         `json:"location"`
	Locals   map[string]any `json:"locals"`
}

type renderResponse struct {
	HTML  string `json:"html"`
	Error *struct {
		Message string `json:"message"`
		Stack   string `json:"stack"`
	} `json:"error"`
}

// client talks to a running harness.
type client struct {
	http *http.Client
	base string
}

func (c *client) info(ctx context.Context) (infoResponse, error) {
	var out infoResponse
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+"/info", nil)
	if err != nil {
		return out, err
	}
	err = c.do(req, &out)
	return out, err
}

func (c *client) render(ctx context.Context, location string, locals map[string]any) (string, error) {
	body, err := json.Marshal(renderRequest{Location: location, Locals: locals})
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+"/render", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	var out renderResponse
	if err := c.do(req, &out); err != nil {
		return "", err
	}
	if out.Error != nil {
		var sb strings.Builder
		sb.WriteString(out.Error.Message)
		if out.Error.Stack != "" {
			fmt.Fprintf(&sb, "\n\nStack:\n%s", out.Error.Stack)
		}
		return "", fmt.Errorf("%s", sb.String())
	}
	return out.HTML, nil
}

func (c *client) do(req *http.Request, result any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("harness returned %s for %s", resp.Status, req.URL.Path)
	}
	return json.NewDecoder(resp.Body).Decode(result)
}
