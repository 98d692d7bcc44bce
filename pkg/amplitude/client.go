package amplitude

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/loft-sh/amplitude/pkg/config"
	"github.com/loft-sh/amplitude/pkg/event"
	amphttp "github.com/loft-sh/amplitude/pkg/http"
	"github.com/loft-sh/amplitude/pkg/response"
	"github.com/loft-sh/amplitude/pkg/version"
	"github.com/loft-sh/log"
	"github.com/pkg/errors"
)

const (
	URLSingle   = "https://api2.amplitude.com/2/httpapi"
	URLBatch    = "https://api2.amplitude.com/batch"
	URLSingleEU = "https://api.eu.amplitude.com/2/httpapi"
	URLBatchEU  = "https://api.eu.amplitude.com/batch"

	// EnvAPIKey is read by NewFromEnv
	EnvAPIKey = config.EnvAPIKey

	// DefaultServerError is decoded in place of a body that could not be read
	DefaultServerError = response.DefaultServerError
)

// Client uploads events to the collector.
//
// Send and SendOne may be called from multiple goroutines. The configuration
// methods (Single, Batch, EU, US, SetURL, SetMinIDLength, SetHTTPClient,
// SetLogger) must not race with Send: configure the client before sharing it,
// or use one client per configuration.
type Client struct {
	apiKey     string
	httpClient *http.Client
	log        log.Logger

	batch   bool
	eu      bool
	url     string
	options *RequestOptions
}

// New creates a client for the given api key that sends to the single
// event endpoint.
func New(apiKey string) (*Client, error) {
	if apiKey == "" {
		return nil, &ConfigError{Err: ErrMissingAPIKey}
	}

	return &Client{
		apiKey:     apiKey,
		httpClient: amphttp.GetHTTPClient(),
		log:        log.Discard,
	}, nil
}

// NewFromEnv creates a client from AMPLITUDE_API_KEY and the other
// AMPLITUDE_* variables understood by config.Load.
func NewFromEnv() (*Client, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, &ConfigError{Err: err}
	}

	return NewFromConfig(cfg)
}

// NewFromConfig creates a client from a resolved configuration.
func NewFromConfig(cfg *config.Config) (*Client, error) {
	if cfg == nil {
		return nil, &ConfigError{Err: errors.New("config is nil")}
	}
	if err := cfg.Validate(); err != nil {
		return nil, &ConfigError{Err: err}
	}

	c, err := New(cfg.APIKey)
	if err != nil {
		return nil, err
	}

	if cfg.Endpoint == config.EndpointBatch {
		c.Batch()
	}
	if cfg.Region == config.RegionEU {
		c.EU()
	}
	if cfg.URL != "" {
		c.SetURL(cfg.URL)
	}
	if cfg.MinIDLength > 0 {
		c.SetMinIDLength(uint16(cfg.MinIDLength))
	}

	timeout, err := cfg.Timeout()
	if err != nil {
		return nil, &ConfigError{Err: err}
	}
	if timeout > 0 {
		c.SetHTTPClient(amphttp.NewHTTPClient(timeout))
	}

	return c, nil
}

// Single selects the HTTP API v2 endpoint and drops a SetURL override
func (c *Client) Single() *Client {
	c.batch = false
	c.url = ""
	return c
}

// Batch selects the batch endpoint and drops a SetURL override
func (c *Client) Batch() *Client {
	c.batch = true
	c.url = ""
	return c
}

// EU selects the EU data center and drops a SetURL override
func (c *Client) EU() *Client {
	c.eu = true
	c.url = ""
	return c
}

// US selects the US data center and drops a SetURL override
func (c *Client) US() *Client {
	c.eu = false
	c.url = ""
	return c
}

// SetURL sends all uploads to url until the endpoint is selected again
func (c *Client) SetURL(url string) *Client {
	c.url = url
	return c
}

// SetMinIDLength sets the minimum permitted length of user_id and device_id
func (c *Client) SetMinIDLength(length uint16) *Client {
	if c.options == nil {
		c.options = &RequestOptions{}
	}

	c.options.MinIDLength = &length
	return c
}

// SetHTTPClient replaces the transport. nil restores the shared client.
func (c *Client) SetHTTPClient(httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = amphttp.GetHTTPClient()
	}

	c.httpClient = httpClient
	return c
}

// SetLogger sets the logger for debug output. nil disables logging.
func (c *Client) SetLogger(logger log.Logger) *Client {
	if logger == nil {
		logger = log.Discard
	}

	c.log = logger
	return c
}

// URL returns the endpoint the next upload is sent to
func (c *Client) URL() string {
	if c.url != "" {
		return c.url
	}

	switch {
	case c.batch && c.eu:
		return URLBatchEU
	case c.batch:
		return URLBatch
	case c.eu:
		return URLSingleEU
	default:
		return URLSingle
	}
}

// Options returns a copy of the request options, nil if none are set
func (c *Client) Options() *RequestOptions {
	return c.options.clone()
}

// Send validates the events and uploads them in one request. The returned
// response is selected by the HTTP status code; an error is only returned if
// an event is invalid, the request failed or the body could not be decoded.
func (c *Client) Send(ctx context.Context, events []event.Event) (response.Response, error) {
	if len(events) == 0 {
		return nil, &ValidationError{Index: -1, Err: ErrNoEvents}
	}

	for i, e := range events {
		if err := e.Validate(); err != nil {
			validationErr := &ValidationError{}
			if errors.As(err, &validationErr) {
				return nil, validationErr.AtIndex(i)
			}

			return nil, err
		}
	}

	return c.upload(ctx, &UploadEnvelope{
		APIKey:  c.apiKey,
		Events:  events,
		Options: c.options.clone(),
	})
}

// SendOne sends a single event
func (c *Client) SendOne(ctx context.Context, e event.Event) (response.Response, error) {
	return c.Send(ctx, []event.Event{e})
}

// Envelope returns the request body Send would upload for the events,
// without validating them.
func (c *Client) Envelope(events []event.Event) *UploadEnvelope {
	return &UploadEnvelope{
		APIKey:  c.apiKey,
		Events:  events,
		Options: c.options.clone(),
	}
}

func (c *Client) upload(ctx context.Context, envelope *UploadEnvelope) (response.Response, error) {
	url := c.URL()
	body, err := json.Marshal(envelope)
	if err != nil {
		return nil, errors.Wrap(err, "marshal upload envelope")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, errors.Wrap(err, "create request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "*/*")
	req.Header.Set("User-Agent", version.UserAgent())

	c.log.Debugf("Send %d event(s) to %s", len(envelope.Events), url)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &NetworkError{URL: url, Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		c.log.Debugf("Error reading response body: %v", err)
		raw = []byte(DefaultServerError)
	} else if len(bytes.TrimSpace(raw)) == 0 {
		raw = []byte(DefaultServerError)
	}

	r, err := response.Decode(resp.StatusCode, raw)
	if err != nil {
		return nil, newDecodeError(resp.StatusCode, raw, err)
	}

	c.log.Debugf("Received %s response with status %d", r.Kind(), resp.StatusCode)
	return r, nil
}
