package httpclient

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWithBaseURL(t *testing.T) {
	c, err := NewWithBaseURL("http://localhost:8080/api/v1/", 0)
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8080/api/v1", c.BaseURL)
	assert.Equal(t, DefaultTimeout, c.HTTP.Timeout)

	_, err = NewWithBaseURL("not a url", time.Second)
	assert.Error(t, err)

	u, err := c.resolveURL("pets/1")
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8080/api/v1/pets/1", u)

	_, err = New(0).resolveURL("/pets")
	assert.Error(t, err, "relative path without BaseURL")
}

func TestDoJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/pets":
			assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
			assert.Equal(t, "req-1", r.Header.Get("X-Request-ID"))
			var in map[string]any
			_ = json.NewDecoder(r.Body).Decode(&in)
			in["id"] = 1
			w.WriteHeader(http.StatusCreated)
			_ = json.NewEncoder(w).Encode(in)
		case "/pets/9":
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"error":"Pet not found"}`))
		case "/health":
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"status":"unhealthy","database":"disconnected"}`))
		default:
			w.WriteHeader(http.StatusBadGateway)
			_, _ = w.Write([]byte(`upstream down`))
		}
	}))
	defer srv.Close()

	c, err := NewWithBaseURL(srv.URL, time.Second)
	require.NoError(t, err)
	c.RequestID = "req-1"
	ctx := context.Background()

	t.Run("Should send and decode JSON", func(t *testing.T) {
		var out struct {
			ID   int64  `json:"id"`
			Name string `json:"name"`
		}
		err := c.DoJSON(ctx, http.MethodPost, "/pets", map[string]any{"name": "Fluffy"}, &out)
		require.NoError(t, err)
		assert.Equal(t, int64(1), out.ID)
		assert.Equal(t, "Fluffy", out.Name)
	})

	t.Run("Should expose the API error message", func(t *testing.T) {
		err := c.GetJSON(ctx, "/pets/9", nil)
		var he *HTTPError
		require.True(t, errors.As(err, &he))
		assert.Equal(t, http.StatusNotFound, he.StatusCode)
		assert.Equal(t, "Pet not found", he.Message)
		assert.Equal(t, http.StatusNotFound, StatusCode(err))
	})

	t.Run("Should still decode the body of a non-2xx response", func(t *testing.T) {
		var out struct {
			Status string `json:"status"`
		}
		err := c.GetJSON(ctx, "/health", &out)
		assert.Equal(t, http.StatusServiceUnavailable, StatusCode(err))
		assert.Equal(t, "unhealthy", out.Status)
	})

	t.Run("Should keep raw body when it is not JSON", func(t *testing.T) {
		err := c.GetJSON(ctx, srv.URL+"/other", nil)
		var he *HTTPError
		require.True(t, errors.As(err, &he))
		assert.Empty(t, he.Message)
		assert.Equal(t, "upstream down", he.Body)
		assert.Contains(t, he.Error(), "status=502")
	})

	assert.Equal(t, 0, StatusCode(errors.New("plain")))
}
