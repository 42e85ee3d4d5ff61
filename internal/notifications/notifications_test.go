package notifications

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSend(t *testing.T) {
	var got map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	n := New("kitchen-coffee").WithServer(srv.URL)
	require.NoError(t, n.Send("Coffee started", "Starting coffee with size: 1 mug(s)"))

	assert.Equal(t, map[string]string{
		"topic":   "kitchen-coffee",
		"title":   "Coffee started",
		"message": "Starting coffee with size: 1 mug(s)",
	}, got)
}

func TestSend_NonSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	err := New("kitchen-coffee").WithServer(srv.URL).Send("t", "m")
	assert.ErrorContains(t, err, "429")
}

func TestSend_Disabled(t *testing.T) {
	n := New("")
	assert.Nil(t, n)
	assert.NoError(t, n.Send("t", "m"))
}
