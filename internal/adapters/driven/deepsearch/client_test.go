package deepsearch

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/dsbulk/internal/core/domain"
)

// fakeService emulates the token, submit and task endpoints.
type fakeService struct {
	mu sync.Mutex

	tokens       int
	tokenStatus  int
	lastAuth     string
	lastBody     map[string]any
	lastPath     string
	submitStatus int
	taskStatus   int
	taskBody     string
	retryAfter   string
}

func (f *fakeService) handler(t *testing.T) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/cps/user/v1/user/token", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()

		user, key, ok := r.BasicAuth()
		if !ok || user != "alice" || key != "secret" || f.tokenStatus != 0 {
			status := f.tokenStatus
			if status == 0 {
				status = http.StatusUnauthorized
			}
			w.WriteHeader(status)
			_, _ = w.Write([]byte(`{"message":"bad credentials"}`))
			return
		}

		var body map[string]any
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, false, body["admin"])

		f.tokens++
		_ = json.NewEncoder(w).Encode(map[string]string{
			"access_token": "tok-" + string(rune('0'+f.tokens)),
		})
	})

	mux.HandleFunc("POST /api/cps/public/v1/project/{proj}/data_indices/{index}/actions/ccs_convert_upload",
		func(w http.ResponseWriter, r *http.Request) {
			f.mu.Lock()
			defer f.mu.Unlock()

			f.lastAuth = r.Header.Get("Authorization")
			f.lastPath = r.URL.EscapedPath()
			f.lastBody = nil
			_ = json.NewDecoder(r.Body).Decode(&f.lastBody)

			if f.submitStatus != 0 {
				if f.retryAfter != "" {
					w.Header().Set("Retry-After", f.retryAfter)
				}
				w.WriteHeader(f.submitStatus)
				_, _ = w.Write([]byte(`{"detail":"boom"}`))
				return
			}
			_ = json.NewEncoder(w).Encode(map[string]string{"task_id": "task-123"})
		})

	mux.HandleFunc("GET /api/cps/public/v1/project/{proj}/celery_tasks/{task}", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()

		f.lastAuth = r.Header.Get("Authorization")
		if f.taskStatus != 0 {
			w.WriteHeader(f.taskStatus)
			return
		}
		body := f.taskBody
		if body == "" {
			body = `{"task_id":"` + r.PathValue("task") + `","task_status":"SUCCESS","result":{"n":1}}`
		}
		_, _ = w.Write([]byte(body))
	})

	return mux
}

func newTestClient(t *testing.T, f *fakeService) *Client {
	t.Helper()
	server := httptest.NewServer(f.handler(t))
	t.Cleanup(server.Close)

	client, err := NewClient(Config{
		Host:      server.URL + "/",
		Username:  "alice",
		APIKey:    "secret",
		VerifySSL: true,
		Timeout:   5 * time.Second,
		RateLimit: RateLimitConfig{RequestsPerSecond: 1000, BurstSize: 100},
	})
	require.NoError(t, err)
	return client
}

var testCollection = domain.CollectionCoordinates{ProjectKey: "proj", IndexKey: "idx"}

func TestNewClient_InvalidHost(t *testing.T) {
	for _, host := range []string{"", "ds.example.com", "ftp://ds.example.com", "https://"} {
		_, err := NewClient(Config{Host: host})
		assert.ErrorIs(t, err, domain.ErrInvalidConfig, host)
	}
}

func TestConfigFromProfile(t *testing.T) {
	cfg := ConfigFromProfile(&domain.Profile{
		Host: "https://ds.example.com/", Username: "u", APIKey: "k", VerifySSL: false,
	})
	assert.Equal(t, "https://ds.example.com", cfg.Host)
	assert.Equal(t, "u", cfg.Username)
	assert.False(t, cfg.VerifySSL)
}

func TestClient_Submit_URLs(t *testing.T) {
	f := &fakeService{}
	client := newTestClient(t, f)

	handle, err := client.Submit(context.Background(), testCollection, domain.UploadSource{
		FileURLs: []string{"https://example.com/a.pdf", "https://example.com/b.pdf"},
	})
	require.NoError(t, err)

	assert.Equal(t, domain.TaskHandle("task-123"), handle)
	assert.Equal(t, "Bearer tok-1", f.lastAuth)
	assert.Equal(t, "/api/cps/public/v1/project/proj/data_indices/idx/actions/ccs_convert_upload", f.lastPath)
	assert.Equal(t, []any{"https://example.com/a.pdf", "https://example.com/b.pdf"}, f.lastBody["file_url"])
	assert.NotContains(t, f.lastBody, "s3_source")
}

func TestClient_Submit_S3(t *testing.T) {
	f := &fakeService{}
	client := newTestClient(t, f)

	coords := domain.S3Coordinates{
		Host: "s3.local", Port: 9000, SSL: true, Bucket: "docs",
		KeyPrefix: "incoming/2024/", AccessKey: "ak", SecretKey: "sk",
	}
	_, err := client.Submit(context.Background(), testCollection, domain.UploadSource{S3: &coords})
	require.NoError(t, err)

	source, ok := f.lastBody["s3_source"].(map[string]any)
	require.True(t, ok)
	got, ok := source["coordinates"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "incoming/2024/", got["key_prefix"])
	assert.Equal(t, "docs", got["bucket"])
	assert.Equal(t, float64(9000), got["port"])
	assert.NotContains(t, f.lastBody, "file_url")
}

func TestClient_Submit_InvalidSource(t *testing.T) {
	client := newTestClient(t, &fakeService{})

	_, err := client.Submit(context.Background(), testCollection, domain.UploadSource{})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = client.Submit(context.Background(), testCollection, domain.UploadSource{
		FileURLs: []string{"u"}, S3: &domain.S3Coordinates{},
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestClient_Submit_EscapesPath(t *testing.T) {
	f := &fakeService{}
	client := newTestClient(t, f)

	_, err := client.Submit(context.Background(),
		domain.CollectionCoordinates{ProjectKey: "my proj", IndexKey: "idx"},
		domain.UploadSource{FileURLs: []string{"u"}})
	require.NoError(t, err)
	assert.Contains(t, f.lastPath, "/project/my%20proj/")
}

func TestClient_Submit_ServerError(t *testing.T) {
	f := &fakeService{submitStatus: http.StatusBadGateway}
	client := newTestClient(t, f)

	_, err := client.Submit(context.Background(), testCollection, domain.UploadSource{FileURLs: []string{"u"}})
	require.Error(t, err)

	var remoteErr *domain.RemoteError
	require.ErrorAs(t, err, &remoteErr)
	assert.Equal(t, "submit", remoteErr.Op)
	assert.Equal(t, http.StatusBadGateway, remoteErr.StatusCode)
	assert.Equal(t, "boom", remoteErr.Message)
	assert.True(t, domain.IsTransient(err))
}

func TestClient_Submit_RateLimited(t *testing.T) {
	f := &fakeService{submitStatus: http.StatusTooManyRequests, retryAfter: "7"}
	client := newTestClient(t, f)

	_, err := client.Submit(context.Background(), testCollection, domain.UploadSource{FileURLs: []string{"u"}})
	require.ErrorIs(t, err, domain.ErrRateLimited)
	assert.True(t, domain.IsTransient(err))

	backoff := client.rateLimiter.Backoff()
	assert.Greater(t, backoff, 5*time.Second)
	assert.LessOrEqual(t, backoff, 7*time.Second)
}

func TestClient_Unauthorized_InvalidatesToken(t *testing.T) {
	f := &fakeService{submitStatus: http.StatusUnauthorized}
	client := newTestClient(t, f)

	_, err := client.Submit(context.Background(), testCollection, domain.UploadSource{FileURLs: []string{"u"}})
	require.ErrorIs(t, err, domain.ErrAuthInvalid)
	assert.False(t, domain.IsTransient(err))

	f.mu.Lock()
	f.submitStatus = 0
	f.mu.Unlock()

	_, err = client.Submit(context.Background(), testCollection, domain.UploadSource{FileURLs: []string{"u"}})
	require.NoError(t, err)
	assert.Equal(t, 2, f.tokens)
	assert.Equal(t, "Bearer tok-2", f.lastAuth)
}

func TestClient_TaskStatus(t *testing.T) {
	f := &fakeService{}
	client := newTestClient(t, f)

	report, err := client.TaskStatus(context.Background(), "proj", "task-9")
	require.NoError(t, err)

	assert.Equal(t, domain.TaskHandle("task-9"), report.Handle)
	assert.Equal(t, domain.TaskStatusSuccess, report.Status)
	assert.Equal(t, map[string]any{"n": float64(1)}, report.Result)
}

func TestClient_TaskStatus_NonObjectResult(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantStatus domain.TaskStatus
		wantResult any
	}{
		{
			name:       "success with document list",
			body:       `{"task_id":"t","task_status":"SUCCESS","result":["doc-1","doc-2"]}`,
			wantStatus: domain.TaskStatusSuccess,
			wantResult: []any{"doc-1", "doc-2"},
		},
		{
			name:       "failure with traceback",
			body:       `{"task_id":"t","task_status":"FAILURE","result":"Traceback (most recent call last): ..."}`,
			wantStatus: domain.TaskStatusFailure,
			wantResult: "Traceback (most recent call last): ...",
		},
		{
			name:       "null result",
			body:       `{"task_id":"t","task_status":"SUCCESS","result":null}`,
			wantStatus: domain.TaskStatusSuccess,
			wantResult: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, &fakeService{taskBody: tt.body})

			report, err := client.TaskStatus(context.Background(), "proj", "t")
			require.NoError(t, err)
			require.NotNil(t, report)
			assert.Equal(t, tt.wantStatus, report.Status)
			assert.True(t, report.Status.IsTerminal())
			assert.Equal(t, tt.wantResult, report.Result)
		})
	}
}

func TestClient_TaskStatus_FillsMissingHandle(t *testing.T) {
	f := &fakeService{taskBody: `{"task_status":"STARTED"}`}
	client := newTestClient(t, f)

	report, err := client.TaskStatus(context.Background(), "proj", "task-9")
	require.NoError(t, err)
	assert.Equal(t, domain.TaskHandle("task-9"), report.Handle)
	assert.False(t, report.Status.IsTerminal())
}

func TestClient_TaskStatus_Errors(t *testing.T) {
	tests := []struct {
		name          string
		status        int
		wantTransient bool
	}{
		{"service unavailable", http.StatusServiceUnavailable, true},
		{"internal error", http.StatusInternalServerError, true},
		{"not found", http.StatusNotFound, false},
		{"bad request", http.StatusBadRequest, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, &fakeService{taskStatus: tt.status})

			_, err := client.TaskStatus(context.Background(), "proj", "task-9")
			require.Error(t, err)
			assert.Equal(t, tt.wantTransient, domain.IsTransient(err))
			assert.Contains(t, err.Error(), "task status failed with HTTP error")
		})
	}
}

func TestClient_RefreshToken(t *testing.T) {
	f := &fakeService{}
	client := newTestClient(t, f)

	require.NoError(t, client.RefreshToken(context.Background()))
	require.NoError(t, client.RefreshToken(context.Background()))
	assert.Equal(t, 2, f.tokens)

	_, err := client.TaskStatus(context.Background(), "proj", "t")
	require.NoError(t, err)
	assert.Equal(t, "Bearer tok-2", f.lastAuth)
	assert.Equal(t, 2, f.tokens)
}

func TestClient_RefreshToken_FailureKeepsToken(t *testing.T) {
	f := &fakeService{}
	client := newTestClient(t, f)
	require.NoError(t, client.RefreshToken(context.Background()))

	f.mu.Lock()
	f.tokenStatus = http.StatusServiceUnavailable
	f.mu.Unlock()

	err := client.RefreshToken(context.Background())
	require.ErrorIs(t, err, domain.ErrTokenRefreshFailed)

	_, err = client.TaskStatus(context.Background(), "proj", "t")
	require.NoError(t, err)
	assert.Equal(t, "Bearer tok-1", f.lastAuth)
}

func TestClient_BadCredentials(t *testing.T) {
	server := httptest.NewServer((&fakeService{}).handler(t))
	t.Cleanup(server.Close)

	client, err := NewClient(Config{Host: server.URL, Username: "alice", APIKey: "wrong"})
	require.NoError(t, err)

	err = client.RefreshToken(context.Background())
	require.ErrorIs(t, err, domain.ErrAuthInvalid)
	assert.Contains(t, err.Error(), "bad credentials")

	_, err = client.TaskStatus(context.Background(), "proj", "t")
	require.ErrorIs(t, err, domain.ErrAuthInvalid)
}

func TestClient_ContextCancelled(t *testing.T) {
	client := newTestClient(t, &fakeService{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.TaskStatus(ctx, "proj", "t")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestReadErrorMessage(t *testing.T) {
	tests := []struct {
		body string
		want string
	}{
		{`{"message":"m"}`, "m"},
		{`{"error":"e"}`, "e"},
		{`{"detail":"d"}`, "d"},
		{`{"detail":[{"loc":"x"}]}`, `[{"loc":"x"}]`},
		{"  plain text \n", "plain text"},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, readErrorMessage(stringsReader(tt.body)), tt.body)
	}
}
