// Package remote talks to the shared command store that registered PCs
// poll for work. Documents live under Devices/{id}/Commands; the daemon
// writes pending commands and watches for the agent to mark them executed.
package remote

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/tidwall/gjson"
)

// Device is a PC registered in the store.
type Device struct {
	ID       string
	Name     string
	Nickname string
	Hostname string
}

// Outcome says how a result wait ended.
type Outcome int

const (
	// OutcomeResult means the command completed and produced output.
	OutcomeResult Outcome = iota
	// OutcomeTimedOut means the agent never reported completion in time.
	OutcomeTimedOut
	// OutcomeFailed means polling itself failed.
	OutcomeFailed
)

// Poll is the final state of a result wait.
type Poll struct {
	Outcome Outcome
	Output  string
}

// Config wires the client to a Firestore-compatible REST endpoint.
type Config struct {
	BaseURL      string
	ProjectID    string
	APIKey       string
	Timeout      time.Duration
	PollInterval time.Duration
	PollTimeout  time.Duration
}

func (c Config) withDefaults() Config {
	if c.Timeout == 0 {
		c.Timeout = 10 * time.Second
	}
	if c.PollInterval == 0 {
		c.PollInterval = 2 * time.Second
	}
	if c.PollTimeout == 0 {
		c.PollTimeout = 30 * time.Second
	}
	return c
}

// Client reads and writes command documents.
type Client struct {
	http *resty.Client
	cfg  Config
}

func NewClient(cfg Config) *Client {
	cfg = cfg.withDefaults()
	hc := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(cfg.Timeout).
		SetHeader("Content-Type", "application/json")
	return &Client{http: hc, cfg: cfg}
}

func (c *Client) docBase() string {
	return fmt.Sprintf("/projects/%s/databases/(default)/documents", c.cfg.ProjectID)
}

// ListDevices returns every registered PC. Failures are logged and yield an
// empty list so callers degrade to "no devices" instead of erroring.
func (c *Client) ListDevices(ctx context.Context) []Device {
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParam("key", c.cfg.APIKey).
		Get(c.docBase() + "/Devices")
	if err != nil {
		slog.Warn("list devices failed", "err", err)
		return nil
	}
	if resp.IsError() {
		slog.Warn("list devices failed", "status", resp.StatusCode())
		return nil
	}

	var devices []Device
	gjson.GetBytes(resp.Body(), "documents").ForEach(func(_, doc gjson.Result) bool {
		fields := doc.Get("fields")
		d := Device{
			ID:       fields.Get("device_id.stringValue").String(),
			Name:     fields.Get("device_name.stringValue").String(),
			Nickname: fields.Get("nickname.stringValue").String(),
			Hostname: fields.Get("hostname.stringValue").String(),
		}
		if d.ID == "" {
			// Fall back to the document name tail.
			d.ID = lastPathSegment(doc.Get("name").String())
		}
		if d.ID != "" {
			devices = append(devices, d)
		}
		return true
	})
	return devices
}

var spaceRe = regexp.MustCompile(`\s+`)

func normalizeName(s string) string {
	return spaceRe.ReplaceAllString(strings.ToLower(strings.TrimSpace(s)), "")
}

// FindByNickname locates a device by spoken name. Matching ignores case
// and internal whitespace and also accepts the device name or hostname, so
// "Devil PC" finds a device registered as "devilpc".
func (c *Client) FindByNickname(ctx context.Context, nickname string) (Device, bool) {
	want := normalizeName(nickname)
	if want == "" {
		return Device{}, false
	}
	for _, d := range c.ListDevices(ctx) {
		if normalizeName(d.Nickname) == want ||
			normalizeName(d.Name) == want ||
			normalizeName(d.Hostname) == want {
			return d, true
		}
	}
	return Device{}, false
}

// Send creates a pending command document for the device and returns its
// ID. ok is false when the store rejected the write.
func (c *Client) Send(ctx context.Context, deviceID, command string, isQuery bool) (string, bool) {
	body := map[string]any{
		"fields": map[string]any{
			"command":     map[string]any{"stringValue": command},
			"executed":    map[string]any{"booleanValue": false},
			"status":      map[string]any{"stringValue": "pending"},
			"output":      map[string]any{"stringValue": ""},
			"return_code": map[string]any{"integerValue": "0"},
			"success":     map[string]any{"booleanValue": false},
			"is_query":    map[string]any{"booleanValue": isQuery},
		},
	}

	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParam("key", c.cfg.APIKey).
		SetBody(body).
		Post(fmt.Sprintf("%s/Devices/%s/Commands", c.docBase(), deviceID))
	if err != nil {
		slog.Error("send command failed", "device", deviceID, "err", err)
		return "", false
	}
	if resp.IsError() {
		slog.Error("send command failed",
			"device", deviceID,
			"status", resp.StatusCode(),
			"body", string(resp.Body()))
		return "", false
	}

	id := lastPathSegment(gjson.GetBytes(resp.Body(), "name").String())
	if id == "" {
		return "", false
	}
	slog.Info("command dispatched", "device", deviceID, "command_id", id, "query", isQuery)
	return id, true
}

// AwaitResult polls the command document until the agent marks it completed
// and executed, the poll window closes, or ctx is canceled. The first poll
// happens immediately.
func (c *Client) AwaitResult(ctx context.Context, deviceID, commandID string) Poll {
	deadline := time.Now().Add(c.cfg.PollTimeout)
	ticker := time.NewTicker(c.cfg.PollInterval)
	defer ticker.Stop()

	for {
		done, output, err := c.checkResult(ctx, deviceID, commandID)
		if err != nil {
			slog.Warn("result poll failed", "command_id", commandID, "err", err)
			return Poll{Outcome: OutcomeFailed}
		}
		if done {
			return Poll{Outcome: OutcomeResult, Output: output}
		}
		if time.Now().After(deadline) {
			slog.Warn("result poll timed out", "command_id", commandID, "window", c.cfg.PollTimeout)
			return Poll{Outcome: OutcomeTimedOut}
		}

		select {
		case <-ctx.Done():
			return Poll{Outcome: OutcomeFailed}
		case <-ticker.C:
		}
	}
}

// CreateProject records website-build metadata in the Projects collection.
func (c *Client) CreateProject(ctx context.Context, id, name, command, url string) error {
	body := map[string]any{
		"fields": map[string]any{
			"project_id": map[string]any{"stringValue": id},
			"name":       map[string]any{"stringValue": name},
			"command":    map[string]any{"stringValue": command},
			"url":        map[string]any{"stringValue": url},
			"created_at": map[string]any{"timestampValue": time.Now().UTC().Format(time.RFC3339)},
		},
	}

	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParam("key", c.cfg.APIKey).
		SetBody(body).
		Post(c.docBase() + "/Projects")
	if err != nil {
		return fmt.Errorf("create project: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("create project: status %d", resp.StatusCode())
	}
	return nil
}

func (c *Client) checkResult(ctx context.Context, deviceID, commandID string) (bool, string, error) {
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParam("key", c.cfg.APIKey).
		Get(fmt.Sprintf("%s/Devices/%s/Commands/%s", c.docBase(), deviceID, commandID))
	if err != nil {
		return false, "", err
	}
	if resp.IsError() {
		// Transient store errors are not fatal; keep polling.
		slog.Debug("result fetch error", "command_id", commandID, "status", resp.StatusCode())
		return false, "", nil
	}

	fields := gjson.GetBytes(resp.Body(), "fields")
	executed := fields.Get("executed.booleanValue").Bool()
	isQuery := fields.Get("is_query.booleanValue").Bool()
	status := fields.Get("status.stringValue").String()
	if isQuery && executed && status == "completed" {
		return true, fields.Get("output.stringValue").String(), nil
	}
	return false, "", nil
}

func lastPathSegment(s string) string {
	if i := strings.LastIndexByte(s, '/'); i >= 0 {
		return s[i+1:]
	}
	return s
}
