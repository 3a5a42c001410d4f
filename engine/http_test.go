package engine

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meikuraledutech/workflow"
)

func TestHTTPExecutor_DefaultsToGET(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"method":"`+r.Method+`","items":[1,2]}`)
	}))
	defer srv.Close()

	v, err := NewHTTPExecutor().Execute(context.Background(), workflow.Node{
		Type: workflow.NodeHTTP,
		Data: map[string]any{"url": srv.URL},
	}, NewContext(nil))

	require.NoError(t, err)
	assert.Equal(t, map[string]any{"method": "GET", "items": []any{1.0, 2.0}}, v)
}

func TestHTTPExecutor_SendsMethodHeadersAndJSONBody(t *testing.T) {
	type seen struct {
		Method      string
		ContentType string
		Token       string
		Body        map[string]any
	}
	got := make(chan seen, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		got <- seen{r.Method, r.Header.Get("Content-Type"), r.Header.Get("X-Token"), body}
		_, _ = io.WriteString(w, "created")
	}))
	defer srv.Close()

	v, err := NewHTTPExecutor().Execute(context.Background(), workflow.Node{
		Type: workflow.NodeHTTP,
		Data: map[string]any{
			"method":  "post",
			"url":     srv.URL,
			"headers": map[string]any{"X-Token": "abc"},
			"body":    map[string]any{"n": 1.0},
		},
	}, NewContext(nil))

	require.NoError(t, err)
	assert.Equal(t, "created", v)
	assert.Equal(t, seen{"POST", "application/json", "abc", map[string]any{"n": 1.0}}, <-got)
}

func TestHTTPExecutor_StringBodyVerbatim(t *testing.T) {
	got := make(chan string, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		got <- string(b)
	}))
	defer srv.Close()

	_, err := NewHTTPExecutor().Execute(context.Background(), workflow.Node{
		Data: map[string]any{"method": "PUT", "url": srv.URL, "body": "a=1&b=2"},
	}, NewContext(nil))

	require.NoError(t, err)
	assert.Equal(t, "a=1&b=2", <-got)
}

func TestHTTPExecutor_ErrorStatusIsNotAFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = io.WriteString(w, "oops")
	}))
	defer srv.Close()

	v, err := NewHTTPExecutor().Execute(context.Background(), workflow.Node{
		Data: map[string]any{"url": srv.URL},
	}, NewContext(nil))

	require.NoError(t, err)
	assert.Equal(t, "oops", v)
}

func TestHTTPExecutor_Timeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer srv.Close()
	defer close(release)

	h := NewHTTPExecutor()
	assert.Equal(t, HTTPTimeout, h.timeout)
	h.timeout = 50 * time.Millisecond

	_, err := h.Execute(context.Background(), workflow.Node{
		Data: map[string]any{"url": srv.URL},
	}, NewContext(nil))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "HTTP request failed")
}

func TestDecodeBody(t *testing.T) {
	assert.Equal(t, "", decodeBody(nil))
	assert.Equal(t, "plain", decodeBody([]byte("plain")))
	assert.Equal(t, 3.0, decodeBody([]byte("3")))
	assert.Equal(t, map[string]any{"a": true}, decodeBody([]byte(`{"a":true}`)))
}

func TestHTTPExecutor_FollowsRedirects(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/old", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/new", http.StatusFound)
	})
	mux.HandleFunc("/new", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"ok":true}`)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	v, err := NewHTTPExecutor().Execute(context.Background(), workflow.Node{
		Data: map[string]any{"url": srv.URL + "/old"},
	}, NewContext(nil))

	require.NoError(t, err)
	assert.Equal(t, map[string]any{"ok": true}, v)
}

func TestHTTPExecutor_TooManyRedirects(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/again", http.StatusFound)
	}))
	defer srv.Close()

	_, err := NewHTTPExecutor().Execute(context.Background(), workflow.Node{
		Data: map[string]any{"url": srv.URL},
	}, NewContext(nil))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "HTTP request failed")
}
