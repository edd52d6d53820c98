package deviceapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/muurk/modemctl/internal/logging"
)

const (
	// DefaultPort is the modem's HTTP port
	DefaultPort = 80

	// DefaultTimeout bounds every request. A request that times out is
	// reported like any other transport failure.
	DefaultTimeout = 5 * time.Second

	// maxBodySize caps how much of a reply is read
	maxBodySize = 1 << 20
)

// Client talks to the modem's local HTTP API. It performs exactly one
// request per call: there are no retries and no cache.
type Client struct {
	// BaseURL is the base URL for the modem (e.g., "http://192.168.4.1")
	BaseURL string

	// HTTPClient is the underlying HTTP client
	HTTPClient *http.Client

	// Timeout is applied to each request through its context
	Timeout time.Duration
}

// NewClient creates a client for the modem at host:port
func NewClient(host string, port int) *Client {
	if port == 0 {
		port = DefaultPort
	}
	return NewClientWithURL(fmt.Sprintf("http://%s:%d", host, port))
}

// NewClientWithURL creates a client with a full base URL
// baseURL: Full base URL (e.g., "http://192.168.4.1:80")
func NewClientWithURL(baseURL string) *Client {
	return &Client{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		HTTPClient: &http.Client{},
		Timeout:    DefaultTimeout,
	}
}

// SetTimeout sets the per-request timeout. Zero restores the default.
func (c *Client) SetTimeout(timeout time.Duration) {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	c.Timeout = timeout
}

// Get fetches path and decodes the JSON body into out.
func (c *Client) Get(ctx context.Context, path string, out any) error {
	return c.do(ctx, http.MethodGet, path, nil, "", out)
}

// Post sends payload as JSON to path and decodes the JSON reply into out.
func (c *Client) Post(ctx context.Context, path string, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode request for %s: %w", path, err)
	}
	return c.do(ctx, http.MethodPost, path, body, "application/json", out)
}

// PostForm sends form url-encoded to path and decodes the JSON reply into out.
func (c *Client) PostForm(ctx context.Context, path string, form url.Values, out any) error {
	return c.do(ctx, http.MethodPost, path, []byte(form.Encode()), "application/x-www-form-urlencoded", out)
}

func (c *Client) do(ctx context.Context, method, path string, body []byte, contentType string, out any) error {
	timeout := c.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, reader)
	if err != nil {
		return NewNetworkError(path, "failed to create request", err)
	}
	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	} else {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		devErr := NewNetworkError(path, "request failed", err)
		logging.Debug("Device request failed",
			zap.String("method", method),
			zap.String("path", path),
			zap.Stringer("type", devErr.Type),
			zap.Error(err))
		return devErr
	}
	defer func() { _ = resp.Body.Close() }()

	logging.Debug("Device request",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", time.Since(start)))

	// 304 counts as delivered. It carries no body, so a caller expecting a
	// reply gets a parse error rather than a request failure.
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNotModified {
		return NewHTTPError(path, resp.StatusCode)
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return NewNetworkError(path, "failed to read response body", err)
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		logging.Warn("Malformed device response",
			zap.String("path", path),
			zap.ByteString("body", truncate(raw, 256)),
			zap.Error(err))
		return NewParseError(path, err)
	}
	return nil
}

func truncate(b []byte, n int) []byte {
	if len(b) <= n {
		return b
	}
	return b[:n]
}

// checkReply turns a success:false envelope into a server error
func checkReply(path string, r Reply) error {
	if !r.Success {
		return NewServerError(path, r.Message)
	}
	return nil
}

// Ping checks that the modem answers its status endpoint
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.GetStatus(ctx)
	return err
}

// ListTopics returns the subscription topics in the order the modem reports them
func (c *Client) ListTopics(ctx context.Context) ([]string, error) {
	var reply TopicList
	if err := c.Get(ctx, PathTopics, &reply); err != nil {
		return nil, err
	}
	if err := checkReply(PathTopics, reply.Reply); err != nil {
		return nil, err
	}
	if reply.Topics == nil {
		return []string{}, nil
	}
	return reply.Topics, nil
}

// AddTopic subscribes the modem to topic
func (c *Client) AddTopic(ctx context.Context, topic string) error {
	var reply Reply
	if err := c.Post(ctx, PathTopicsAdd, TopicRequest{Topic: topic}, &reply); err != nil {
		return err
	}
	return checkReply(PathTopicsAdd, reply)
}

// DeleteTopic removes topic from the modem's subscriptions
func (c *Client) DeleteTopic(ctx context.Context, topic string) error {
	var reply Reply
	if err := c.Post(ctx, PathTopicsDelete, TopicRequest{Topic: topic}, &reply); err != nil {
		return err
	}
	return checkReply(PathTopicsDelete, reply)
}

// Publish asks the modem to publish message on topic
func (c *Client) Publish(ctx context.Context, topic, message string) error {
	var reply Reply
	if err := c.Post(ctx, PathPublish, PublishRequest{Topic: topic, Message: message}, &reply); err != nil {
		return err
	}
	return checkReply(PathPublish, reply)
}

// GetSettings returns the modem's broker settings
func (c *Client) GetSettings(ctx context.Context) (*BrokerSettings, error) {
	var reply SettingsReply
	if err := c.Get(ctx, PathSettings, &reply); err != nil {
		return nil, err
	}
	if err := checkReply(PathSettings, reply.Reply); err != nil {
		return nil, err
	}
	settings := reply.BrokerSettings
	return &settings, nil
}

// SaveSettings stores new broker settings; the modem reconnects on success
func (c *Client) SaveSettings(ctx context.Context, settings BrokerSettings) error {
	var reply Reply
	if err := c.Post(ctx, PathSettingsSave, settings, &reply); err != nil {
		return err
	}
	return checkReply(PathSettingsSave, reply)
}

// GetStatus returns the modem's current broker connection state
func (c *Client) GetStatus(ctx context.Context) (*Connection, error) {
	var reply StatusReply
	if err := c.Get(ctx, PathStatus, &reply); err != nil {
		return nil, err
	}
	if err := checkReply(PathStatus, reply.Reply); err != nil {
		return nil, err
	}
	return &Connection{
		Status:       reply.Status,
		Text:         reply.StatusText,
		ErrorMessage: reply.ErrorMessage,
	}, nil
}

// GetSensors returns the latest environment and position reading
func (c *Client) GetSensors(ctx context.Context) (*SensorReading, error) {
	var reading SensorReading
	if err := c.Get(ctx, PathSensors, &reading); err != nil {
		return nil, err
	}
	return &reading, nil
}

// GetNetworkMode returns the modem's active uplink
func (c *Client) GetNetworkMode(ctx context.Context) (NetworkMode, error) {
	var reply NetworkModeReply
	if err := c.Get(ctx, PathNetworkMode, &reply); err != nil {
		return 0, err
	}
	return reply.Mode, nil
}

// SaveWiFiStation posts station credentials. The returned string is the
// firmware's confirmation text.
func (c *Client) SaveWiFiStation(ctx context.Context, station WiFiStation) (string, error) {
	var reply WiFiReply
	if err := c.PostForm(ctx, PathWiFiStation, station.ToFormData(), &reply); err != nil {
		return "", err
	}
	if !reply.OK() {
		return "", NewServerError(PathWiFiStation, reply.Message)
	}
	return reply.Message, nil
}

// StreamURL returns the websocket URL of the emulator's message feed
func (c *Client) StreamURL() (string, error) {
	u, err := url.Parse(c.BaseURL)
	if err != nil {
		return "", fmt.Errorf("invalid base URL %q: %w", c.BaseURL, err)
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	u.Path = PathMessagesStream
	return u.String(), nil
}
