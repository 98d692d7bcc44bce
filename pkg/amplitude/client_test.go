package amplitude

import (
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"unicode/utf8"

	"github.com/loft-sh/amplitude/pkg/config"
	"github.com/loft-sh/amplitude/pkg/event"
	"github.com/loft-sh/amplitude/pkg/response"
	"github.com/pkg/errors"
	"gotest.tools/assert"
	"gotest.tools/assert/cmp"
)

type collector struct {
	status int
	body   string

	requests atomic.Int32
	m        sync.Mutex
	last     *http.Request
	lastBody []byte
}

func (c *collector) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	c.m.Lock()
	c.last = r
	c.lastBody = body
	c.m.Unlock()
	c.requests.Add(1)

	w.WriteHeader(c.status)
	_, _ = w.Write([]byte(c.body))
}

func newTestClient(t *testing.T, status int, body string) (*Client, *collector) {
	t.Helper()

	c := &collector{status: status, body: body}
	server := httptest.NewServer(c)
	t.Cleanup(server.Close)

	client, err := New("test-key")
	assert.NilError(t, err)
	client.SetURL(server.URL)
	return client, c
}

func testEvent() event.Event {
	return event.New("test").WithUserID("6543").WithCountry("BY").WithAndroidID("ewq4tegf")
}

type roundTripFunc func(req *http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

type errReader struct{}

func (errReader) Read([]byte) (int, error) {
	return 0, errors.New("connection reset")
}

func (errReader) Close() error {
	return nil
}

func TestSendOk(t *testing.T) {
	client, c := newTestClient(t, http.StatusOK, `{"code": 200, "events_ingested": 1, "payload_size_bytes": 93, "server_upload_time": 1700000000000}`)
	client.SetMinIDLength(4)

	r, err := client.SendOne(context.Background(), testEvent())
	assert.NilError(t, err)
	assert.Assert(t, response.IsSuccess(r))

	ok := r.(*response.Ok)
	assert.Equal(t, *ok.EventsIngested, 1)
	assert.Equal(t, *ok.PayloadSizeBytes, int64(93))
	assert.Equal(t, *ok.ServerUploadTime, int64(1700000000000))

	assert.Equal(t, c.last.Method, http.MethodPost)
	assert.Equal(t, c.last.Header.Get("Content-Type"), "application/json")
	assert.Assert(t, cmp.Contains(c.last.Header.Get("User-Agent"), "amplitude-go/"))

	envelope := map[string]interface{}{}
	assert.NilError(t, json.Unmarshal(c.lastBody, &envelope))
	assert.Equal(t, envelope["api_key"], "test-key")
	assert.DeepEqual(t, envelope["options"], map[string]interface{}{"min_id_length": float64(4)})
	assert.DeepEqual(t, envelope["events"], []interface{}{
		map[string]interface{}{
			"event_type": "test",
			"user_id":    "6543",
			"country":    "BY",
			"android_id": "ewq4tegf",
		},
	})
}

func TestSendWithoutOptions(t *testing.T) {
	client, c := newTestClient(t, http.StatusOK, `{"code": 200}`)

	_, err := client.Send(context.Background(), []event.Event{testEvent(), event.New("other").WithDeviceID("device")})
	assert.NilError(t, err)
	assert.Assert(t, !strings.Contains(string(c.lastBody), "options"))
	assert.Assert(t, !strings.Contains(string(c.lastBody), "null"))
}

func TestSendTooManyRequests(t *testing.T) {
	client, _ := newTestClient(t, http.StatusTooManyRequests, `{
		"code": 429,
		"error": "Too many requests for some devices and users",
		"eps_threshold": 30,
		"throttled_devices": {"device-1": 31},
		"throttled_users": {"6543": 32},
		"throttled_events": [0]
	}`)

	r, err := client.SendOne(context.Background(), testEvent())
	assert.NilError(t, err)

	tooMany, ok := r.(*response.TooManyRequests)
	assert.Assert(t, ok)
	assert.Equal(t, tooMany.StatusCode(), 429)
	assert.DeepEqual(t, tooMany.ThrottledDevices, response.Map{"device-1": float64(31)})
	assert.DeepEqual(t, tooMany.ThrottledUsers, response.Map{"6543": float64(32)})
	assert.DeepEqual(t, tooMany.ThrottledEvents, []int{0})
}

func TestSendServerError(t *testing.T) {
	client, _ := newTestClient(t, http.StatusInternalServerError, `{"error": "internal", "trace": {"id": "abc"}}`)

	r, err := client.SendOne(context.Background(), testEvent())
	assert.NilError(t, err)

	serverErr, ok := r.(*response.ServerError)
	assert.Assert(t, ok)
	assert.DeepEqual(t, serverErr.Value, response.Map{"error": "internal", "trace": map[string]interface{}{"id": "abc"}})
}

func TestSendEmptyBody(t *testing.T) {
	for _, status := range []int{200, 400, 413, 429, 500, 502, 503, 504} {
		client, _ := newTestClient(t, status, "")

		r, err := client.SendOne(context.Background(), testEvent())
		assert.NilError(t, err, "status %d", status)
		assert.Equal(t, r.Kind(), response.KindForStatus(status), "status %d", status)
		assert.Equal(t, r.StatusCode(), status)
	}
}

func TestSendUnreadableBody(t *testing.T) {
	client, err := New("test-key")
	assert.NilError(t, err)
	client.SetHTTPClient(&http.Client{Transport: roundTripFunc(func(req *http.Request) (*http.Response, error) {
		return &http.Response{StatusCode: http.StatusServiceUnavailable, Body: errReader{}, Request: req}, nil
	})})

	r, err := client.SendOne(context.Background(), testEvent())
	assert.NilError(t, err)

	unavailable, ok := r.(*response.ServiceUnavailable)
	assert.Assert(t, ok)
	assert.DeepEqual(t, unavailable.Value, response.Map{"error": "Some kind of server error"})
}

func TestSendUnknownStatusFallsBackToOk(t *testing.T) {
	client, _ := newTestClient(t, http.StatusNotFound, `{"code": 404}`)

	r, err := client.SendOne(context.Background(), testEvent())
	assert.NilError(t, err)
	assert.Equal(t, r.Kind(), response.KindOk)
	assert.Assert(t, !response.IsSuccess(r))
}

func TestSendDecodeError(t *testing.T) {
	client, _ := newTestClient(t, http.StatusServiceUnavailable, "<html>down for maintenance</html>")

	_, err := client.SendOne(context.Background(), testEvent())
	decodeErr := &DecodeError{}
	assert.Assert(t, errors.As(err, &decodeErr))
	assert.Equal(t, decodeErr.StatusCode, http.StatusServiceUnavailable)
	assert.Equal(t, decodeErr.Body, "<html>down for maintenance</html>")
}

func TestSendNetworkError(t *testing.T) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	assert.NilError(t, err)
	url := "http://" + listener.Addr().String()
	assert.NilError(t, listener.Close())

	client, err := New("test-key")
	assert.NilError(t, err)
	client.SetURL(url)

	_, err = client.SendOne(context.Background(), testEvent())
	networkErr := &NetworkError{}
	assert.Assert(t, errors.As(err, &networkErr))
	assert.Equal(t, networkErr.URL, url)

	// the client stays usable
	server := httptest.NewServer(&collector{status: http.StatusOK, body: `{"code": 200}`})
	defer server.Close()
	client.SetURL(server.URL)
	_, err = client.SendOne(context.Background(), testEvent())
	assert.NilError(t, err)
}

func TestSendCanceledContext(t *testing.T) {
	client, c := newTestClient(t, http.StatusOK, `{"code": 200}`)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := client.SendOne(ctx, testEvent())
	assert.Assert(t, errors.Is(err, context.Canceled))
	assert.Equal(t, c.requests.Load(), int32(0))
}

func TestSendValidation(t *testing.T) {
	client, c := newTestClient(t, http.StatusOK, `{"code": 200}`)

	_, err := client.Send(context.Background(), []event.Event{testEvent(), event.New("anonymous")})
	validationErr := &ValidationError{}
	assert.Assert(t, errors.As(err, &validationErr))
	assert.Equal(t, validationErr.Index, 1)
	assert.Assert(t, errors.Is(err, event.ErrMissingIdentity))

	_, err = client.Send(context.Background(), nil)
	assert.Assert(t, errors.Is(err, ErrNoEvents))
	assert.Equal(t, c.requests.Load(), int32(0))
}

func TestEndpointSelection(t *testing.T) {
	var urls []string
	client, err := New("test-key")
	assert.NilError(t, err)
	client.SetHTTPClient(&http.Client{Transport: roundTripFunc(func(req *http.Request) (*http.Response, error) {
		urls = append(urls, req.URL.String())
		return &http.Response{StatusCode: http.StatusOK, Body: io.NopCloser(strings.NewReader(`{"code": 200}`)), Request: req}, nil
	})})

	assert.Equal(t, client.URL(), URLSingle)
	client.Batch()
	_, err = client.SendOne(context.Background(), testEvent())
	assert.NilError(t, err)
	client.Single()
	_, err = client.SendOne(context.Background(), testEvent())
	assert.NilError(t, err)
	client.EU().Batch()
	_, err = client.SendOne(context.Background(), testEvent())
	assert.NilError(t, err)
	client.Single()
	_, err = client.SendOne(context.Background(), testEvent())
	assert.NilError(t, err)

	assert.DeepEqual(t, urls, []string{URLBatch, URLSingle, URLBatchEU, URLSingleEU})

	client.SetURL("http://proxy.local/ingest")
	assert.Equal(t, client.URL(), "http://proxy.local/ingest")
	client.US()
	assert.Equal(t, client.URL(), URLSingle)
}

func TestConcurrentSend(t *testing.T) {
	client, c := newTestClient(t, http.StatusOK, `{"code": 200, "events_ingested": 1}`)

	wg := sync.WaitGroup{}
	errs := make(chan error, 20)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := client.SendOne(context.Background(), testEvent().WithRandomInsertID())
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		assert.NilError(t, err)
	}
	assert.Equal(t, c.requests.Load(), int32(20))
}

func TestOptionsAreCopied(t *testing.T) {
	client, err := New("test-key")
	assert.NilError(t, err)
	assert.Assert(t, client.Options() == nil)

	client.SetMinIDLength(4)
	options := client.Options()
	*options.MinIDLength = 10
	assert.Equal(t, *client.Options().MinIDLength, uint16(4))
	assert.Equal(t, *client.Envelope(nil).Options.MinIDLength, uint16(4))
}

func TestNew(t *testing.T) {
	_, err := New("")
	assert.Assert(t, errors.Is(err, ErrConfiguration))
	assert.Assert(t, errors.Is(err, ErrMissingAPIKey))
}

func TestNewFromEnv(t *testing.T) {
	for _, key := range []string{config.EnvAPIKey, config.EnvEndpoint, config.EnvRegion, config.EnvMinIDLength, config.EnvTimeout, config.EnvURL} {
		t.Setenv(key, "")
	}

	_, err := NewFromEnv()
	assert.Assert(t, errors.Is(err, ErrConfiguration))
	assert.Assert(t, errors.Is(err, config.ErrMissingAPIKey))
	assert.ErrorContains(t, err, "AMPLITUDE_API_KEY")

	t.Setenv(EnvAPIKey, "env-key")
	t.Setenv(config.EnvEndpoint, "batch")
	t.Setenv(config.EnvMinIDLength, "3")
	t.Setenv(config.EnvTimeout, "5s")
	client, err := NewFromEnv()
	assert.NilError(t, err)
	assert.Equal(t, client.URL(), URLBatch)
	assert.Equal(t, *client.Options().MinIDLength, uint16(3))
	assert.Equal(t, client.httpClient.Timeout.String(), "5s")
	assert.Equal(t, client.Envelope(nil).APIKey, "env-key")
}

func TestNewFromConfig(t *testing.T) {
	_, err := NewFromConfig(nil)
	assert.Assert(t, errors.Is(err, ErrConfiguration))

	client, err := NewFromConfig(&config.Config{APIKey: "k", Endpoint: config.EndpointSingle, Region: config.RegionEU})
	assert.NilError(t, err)
	assert.Equal(t, client.URL(), URLSingleEU)

	client, err = NewFromConfig(&config.Config{APIKey: "k", Endpoint: config.EndpointBatch, Region: config.RegionUS, URL: "http://localhost:1234"})
	assert.NilError(t, err)
	assert.Equal(t, client.URL(), "http://localhost:1234")

	_, err = NewFromConfig(&config.Config{APIKey: "k", Endpoint: config.EndpointSingle, Region: config.RegionUS, RequestTimeout: "soon"})
	assert.Assert(t, errors.Is(err, ErrConfiguration))
	assert.Assert(t, cmp.ErrorContains(err, "parse "+config.EnvTimeout))
}

func TestDecodeErrorBody(t *testing.T) {
	testCases := []struct {
		name     string
		body     string
		expected string
	}{
		{name: "short", body: "not json", expected: "not json"},
		{name: "ascii", body: strings.Repeat("a", 600), expected: strings.Repeat("a", 512) + "..."},
		{name: "rune boundary", body: strings.Repeat("a", 511) + strings.Repeat("é", 10), expected: strings.Repeat("a", 511) + "..."},
	}

	for _, testCase := range testCases {
		decodeErr := newDecodeError(http.StatusOK, []byte(testCase.body), errors.New("boom"))
		assert.Equal(t, decodeErr.Body, testCase.expected, testCase.name)
		assert.Assert(t, utf8.ValidString(decodeErr.Body), testCase.name)
	}
}
