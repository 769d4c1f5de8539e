package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sseServer(t *testing.T, events []string, capture *completionRequest, auth *string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		if auth != nil {
			*auth = r.Header.Get("Authorization")
		}
		if capture != nil {
			assert.NoError(t, json.NewDecoder(r.Body).Decode(capture))
		}
		w.Header().Set("Content-Type", "text/event-stream")
		for _, e := range events {
			fmt.Fprintf(w, "data: %s\n\n", e)
		}
	}))
}

func delta(s string) string {
	b, _ := json.Marshal(map[string]any{
		"choices": []any{map[string]any{"delta": map[string]any{"content": s}}},
	})
	return string(b)
}

func collect(t *testing.T, c *Client, req Request) ([]string, error) {
	t.Helper()
	var got []string
	err := c.Stream(context.Background(), req, func(s string) error {
		got = append(got, s)
		return nil
	})
	return got, err
}

func TestStream_FragmentsInOrder(t *testing.T) {
	var sent completionRequest
	var auth string
	srv := sseServer(t, []string{delta("Hel"), delta("lo"), `{"choices":[{"delta":{},"finish_reason":"stop"}]}`, "[DONE]", delta("ignored")}, &sent, &auth)
	defer srv.Close()

	c := NewClient(srv.URL+"/", "server-key", "gpt-4.1-mini", time.Second)
	defer c.Close()

	got, err := collect(t, c, Request{Messages: []Message{{Role: RoleUser, Content: "hi"}}})
	require.NoError(t, err)
	assert.Equal(t, []string{"Hel", "lo"}, got)

	assert.True(t, sent.Stream)
	assert.Equal(t, "gpt-4.1-mini", sent.Model)
	assert.Equal(t, []Message{{Role: RoleUser, Content: "hi"}}, sent.Messages)
	assert.Equal(t, "Bearer server-key", auth)
}

func TestStream_RequestKeyOverrides(t *testing.T) {
	var auth string
	srv := sseServer(t, []string{"[DONE]"}, nil, &auth)
	defer srv.Close()

	c := NewClient(srv.URL, "server-key", "m", time.Second)
	_, err := collect(t, c, Request{APIKey: "user-key"})
	require.NoError(t, err)
	assert.Equal(t, "Bearer user-key", auth)
}

func TestStream_NoKey(t *testing.T) {
	c := NewClient("http://127.0.0.1:1", "", "m", time.Second)
	_, err := collect(t, c, Request{})
	assert.ErrorIs(t, err, ErrNoAPIKey)
}

func TestStream_EndsWithoutDone(t *testing.T) {
	srv := sseServer(t, []string{delta("only")}, nil, nil)
	defer srv.Close()

	got, err := collect(t, NewClient(srv.URL, "k", "m", time.Second), Request{})
	require.NoError(t, err)
	assert.Equal(t, []string{"only"}, got)
}

func TestStream_IgnoresNonDataLines(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, ": keep-alive\n\nevent: message\ndata: "+delta("a")+"\n\ndata: [DONE]\n\n")
	}))
	defer srv.Close()

	got, err := collect(t, NewClient(srv.URL, "k", "m", time.Second), Request{})
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, got)
}

func TestStream_StatusErrors(t *testing.T) {
	cases := []struct {
		status    int
		retryable bool
	}{
		{http.StatusTooManyRequests, true},
		{http.StatusBadGateway, true},
		{http.StatusUnauthorized, false},
	}
	for _, tc := range cases {
		t.Run(http.StatusText(tc.status), func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				fmt.Fprint(w, `{"error":{"type":"x","message":"nope"}}`)
			}))
			defer srv.Close()

			_, err := collect(t, NewClient(srv.URL, "k", "m", time.Second), Request{})
			require.Error(t, err)
			assert.Equal(t, tc.retryable, IsRetryable(err))
			if !tc.retryable {
				var se *StatusError
				require.True(t, errors.As(err, &se))
				assert.Equal(t, "nope", se.Message)
			}
		})
	}
}

func TestStream_StreamErrorEvent(t *testing.T) {
	srv := sseServer(t, []string{delta("a"), `{"error":{"type":"server_error","message":"overloaded"}}`}, nil, nil)
	defer srv.Close()

	got, err := collect(t, NewClient(srv.URL, "k", "m", time.Second), Request{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "overloaded")
	assert.Equal(t, []string{"a"}, got)
}

func TestStream_CallbackErrorStops(t *testing.T) {
	srv := sseServer(t, []string{delta("a"), delta("b")}, nil, nil)
	defer srv.Close()

	stop := errors.New("client gone")
	var n int
	err := NewClient(srv.URL, "k", "m", time.Second).Stream(context.Background(), Request{}, func(string) error {
		n++
		return stop
	})
	assert.ErrorIs(t, err, stop)
	assert.Equal(t, 1, n)
}

func TestStream_BodyMayOutlastTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, "data: %s\n\n", delta("slow"))
		w.(http.Flusher).Flush()
		time.Sleep(300 * time.Millisecond)
		fmt.Fprintf(w, "data: %s\n\ndata: [DONE]\n\n", delta(" answer"))
	}))
	defer srv.Close()

	got, err := collect(t, NewClient(srv.URL, "k", "m", 100*time.Millisecond), Request{})
	require.NoError(t, err)
	assert.Equal(t, []string{"slow", " answer"}, got)
}

func TestStream_TimeoutWaitingForHeaders(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(time.Second):
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()

	_, err := collect(t, NewClient(srv.URL, "k", "m", 50*time.Millisecond), Request{})
	require.Error(t, err)
}

func TestStream_MalformedEvent(t *testing.T) {
	srv := sseServer(t, []string{"{not json"}, nil, nil)
	defer srv.Close()

	_, err := collect(t, NewClient(srv.URL, "k", "m", time.Second), Request{})
	require.Error(t, err)
	assert.True(t, strings.HasPrefix(err.Error(), "decode stream event"))
}

func TestRetry_StopsOnSuccess(t *testing.T) {
	calls := 0
	err := retryWith(context.Background(), 3, func(int) time.Duration { return 0 }, nil, func() error {
		calls++
		if calls < 2 {
			return &RetryableError{StatusCode: 503}
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func TestRetry_GivesUpAfterAttempts(t *testing.T) {
	calls := 0
	err := retryWith(context.Background(), 3, func(int) time.Duration { return 0 }, nil, func() error {
		calls++
		return &RetryableError{StatusCode: 429}
	})
	assert.True(t, IsRetryable(err))
	assert.Equal(t, 3, calls)
}

func TestRetry_NonRetryableReturnsImmediately(t *testing.T) {
	calls := 0
	boom := errors.New("boom")
	err := retryWith(context.Background(), 3, func(int) time.Duration { return 0 }, nil, func() error {
		calls++
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, calls)
}

func TestRetry_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := retryWith(ctx, 3, func(int) time.Duration { return time.Hour }, nil, func() error {
		return &RetryableError{StatusCode: 503}
	})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestBackoffBounds(t *testing.T) {
	for attempt := range 8 {
		d := Backoff(attempt)
		base := time.Duration(1<<uint(attempt)) * time.Second
		base = min(base, 30*time.Second)
		assert.GreaterOrEqual(t, d, base)
		assert.Less(t, d, base+base/2)
	}
}
