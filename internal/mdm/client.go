// Package mdm issues commands to a MicroMDM server through its command API.
package mdm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/jmehdipour/micromdm-webhook/internal/config"
	"github.com/jmehdipour/micromdm-webhook/internal/model"
)

const (
	CommandsPath    = "/v1/commands"
	DefaultUsername = "micromdm"
)

var ErrBreakerOpen = errors.New("mdm: circuit breaker open")

// Client posts CommandRequests to {server_url}/v1/commands using basic auth
// with a fixed username and the API key as secret. It never retries.
type Client struct {
	baseURL  string
	username string
	apiKey   string
	client   *http.Client
	br       *Breaker // nil unless breaker.fail_threshold > 0
}

func NewClient(cfg config.MDMConfig) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	username := cfg.Username
	if username == "" {
		username = DefaultUsername
	}

	c := &Client{
		baseURL:  strings.TrimRight(cfg.ServerURL, "/"),
		username: username,
		apiKey:   cfg.APIKey,
		client:   &http.Client{Timeout: timeout},
	}

	// opt-in: an open breaker skips the command outright
	if cfg.Breaker.FailThreshold > 0 {
		openFor := cfg.Breaker.OpenFor
		if openFor <= 0 {
			openFor = 30 * time.Second
		}
		c.br = NewBreaker(cfg.Breaker.FailThreshold, openFor)
	}

	return c
}

// Send queues one command for udid on the MDM server.
func (c *Client) Send(ctx context.Context, udid string, requestType model.RequestType) error {
	if c.br != nil && !c.br.Acquire() {
		return ErrBreakerOpen
	}

	if err := c.post(ctx, model.CommandRequest{UDID: udid, RequestType: requestType}); err != nil {
		if c.br != nil {
			c.br.OnFailure()
		}
		return err
	}

	if c.br != nil {
		c.br.OnSuccess()
	}

	return nil
}

func (c *Client) post(ctx context.Context, cmd model.CommandRequest) error {
	b, err := json.Marshal(cmd)
	if err != nil {
		return fmt.Errorf("marshal command: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+CommandsPath, bytes.NewReader(b))
	if err != nil {
		return err
	}

	req.Header.Set("Content-Type", "application/json")
	req.SetBasicAuth(c.username, c.apiKey)

	res, err := c.client.Do(req)
	if err != nil {
		return err
	}

	defer res.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(res.Body, 64<<10))

	if res.StatusCode/100 != 2 {
		return fmt.Errorf("mdm command udid=%s type=%s status=%d", cmd.UDID, cmd.RequestType, res.StatusCode)
	}

	return nil
}
