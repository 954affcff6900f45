package registry

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublishSuccess(t *testing.T) {
	var gotAuth string
	var gotBody []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotBody, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	err := NewClient(srv.URL).Publish(context.Background(), "sekrit", []byte("artifact"))
	require.NoError(t, err)
	assert.Equal(t, "Bearer sekrit", gotAuth)
	assert.Equal(t, "artifact", string(gotBody))
}

func TestPublishMissingToken(t *testing.T) {
	err := NewClient("http://unused.invalid").Publish(context.Background(), "", []byte("artifact"))
	assert.ErrorIs(t, err, ErrMissingToken)
}

func TestPublishRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte("bad token"))
	}))
	defer srv.Close()

	err := NewClient(srv.URL).Publish(context.Background(), "wrong", []byte("artifact"))
	require.Error(t, err)

	var rejected *RejectedError
	require.True(t, errors.As(err, &rejected))
	assert.Equal(t, http.StatusUnauthorized, rejected.Status)
	assert.Contains(t, rejected.Body, "bad token")
}

func TestPublishNetworkFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // closed before the request

	err := NewClient(srv.URL).Publish(context.Background(), "tok", nil)
	require.Error(t, err)
	var rejected *RejectedError
	assert.False(t, errors.As(err, &rejected), "transport errors are not rejections")
}
