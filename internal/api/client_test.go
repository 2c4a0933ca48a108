package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(handler http.HandlerFunc) (*Client, *httptest.Server) {
	server := httptest.NewServer(handler)
	client := NewClient(server.URL, 5*time.Second, zerolog.Nop())
	return client, server
}

func TestGetAttachesBearerToken(t *testing.T) {
	var gotAuth string
	client, server := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Write([]byte(`{}`))
	})
	defer server.Close()

	client.SetToken("tok-123")
	var out map[string]any
	require.NoError(t, client.Get(context.Background(), "/mail", &out))

	assert.Equal(t, "Bearer tok-123", gotAuth)
}

func TestClearedTokenIsNotSent(t *testing.T) {
	var gotAuth string
	client, server := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Write([]byte(`{}`))
	})
	defer server.Close()

	client.SetToken("tok-123")
	client.SetToken("")
	var out map[string]any
	require.NoError(t, client.Get(context.Background(), "/mail", &out))

	assert.Empty(t, gotAuth)
}

func TestPostMarshalsBody(t *testing.T) {
	var gotBody map[string]string
	var gotContentType string
	client, server := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		gotContentType = r.Header.Get("Content-Type")
		json.NewDecoder(r.Body).Decode(&gotBody)
		w.Write([]byte(`{"ok":true}`))
	})
	defer server.Close()

	var out struct {
		OK bool `json:"ok"`
	}
	err := client.Post(context.Background(), "/mail/send",
		map[string]string{"to": "x@y.z"}, &out)
	require.NoError(t, err)

	assert.Equal(t, "application/json", gotContentType)
	assert.Equal(t, "x@y.z", gotBody["to"])
	assert.True(t, out.OK)
}

func TestErrorDecodesMessageField(t *testing.T) {
	client, server := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		w.Write([]byte(`{"message":"Mail already sent"}`))
	})
	defer server.Close()

	err := client.Get(context.Background(), "/mail/x", nil)

	require.Error(t, err)
	assert.Equal(t, "Mail already sent", err.Error())
	assert.Equal(t, "Mail already sent", ServerMessage(err))
}

func TestErrorFallsBackToErrorField(t *testing.T) {
	client, server := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":"bad input"}`))
	})
	defer server.Close()

	err := client.Get(context.Background(), "/mail", nil)

	require.Error(t, err)
	assert.Equal(t, "bad input", ServerMessage(err))
}

func TestErrorWithoutBodyHasNoServerMessage(t *testing.T) {
	client, server := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	defer server.Close()

	err := client.Get(context.Background(), "/mail", nil)

	require.Error(t, err)
	assert.Empty(t, ServerMessage(err))

	var apiErr *Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusInternalServerError, apiErr.StatusCode)
}

func TestServerMessageIgnoresTransportErrors(t *testing.T) {
	client := NewClient("http://127.0.0.1:1", time.Second, zerolog.Nop())

	err := client.Get(context.Background(), "/mail", nil)

	require.Error(t, err)
	assert.Empty(t, ServerMessage(err))
}

func TestNoContentResponseSkipsDecode(t *testing.T) {
	client, server := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	defer server.Close()

	var out map[string]any
	assert.NoError(t, client.Patch(context.Background(), "/mail/delete/x", nil, &out))
	assert.NoError(t, client.Delete(context.Background(), "/mail/trash"))
}
