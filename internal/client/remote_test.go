package client

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/josephgoksu/tod/internal/state"
)

func TestHTTPRemote_FetchAndReplace(t *testing.T) {
	stored := []byte(`{"theme":"dark","custom":1}`)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write(stored)
		case http.MethodPut:
			assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
			stored, _ = io.ReadAll(r.Body)
			w.WriteHeader(http.StatusNoContent)
		}
	}))
	defer srv.Close()

	remote := NewHTTPRemote(srv.URL, time.Second)
	blob, err := remote.Fetch(context.Background())
	require.NoError(t, err)
	theme, ok := blob.Slice("theme")
	require.True(t, ok)
	assert.JSONEq(t, `"dark"`, string(theme))

	require.NoError(t, remote.Replace(context.Background(), state.MergeSlice(blob, "theme", []byte(`"light"`))))
	assert.JSONEq(t, `{"theme":"light","custom":1}`, string(stored))
}

func TestHTTPRemote_ClassifiesFailures(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/status":
			w.WriteHeader(http.StatusInternalServerError)
		case "/decode":
			_, _ = w.Write([]byte(`[1,2,3]`))
		case "/slow":
			select {
			case <-release:
			case <-r.Context().Done():
			}
		}
	}))
	defer srv.Close()
	defer close(release)

	closed := httptest.NewServer(http.NotFoundHandler())
	closedURL := closed.URL
	closed.Close()

	tests := []struct {
		name string
		url  string
		kind FailureKind
	}{
		{"non-2xx", srv.URL + "/status", FailureStatus},
		{"not an object", srv.URL + "/decode", FailureDecode},
		{"timeout", srv.URL + "/slow", FailureTimeout},
		{"connection refused", closedURL, FailureNetwork},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewHTTPRemote(tt.url, 50*time.Millisecond).Fetch(context.Background())
			require.Error(t, err)
			assert.Equal(t, tt.kind, Classify(err))

			var se *SyncError
			require.True(t, errors.As(err, &se))
			assert.Equal(t, "fetch", se.Op)
		})
	}
}

func TestHTTPRemote_ReplaceStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	err := NewHTTPRemote(srv.URL, time.Second).Replace(context.Background(), state.Blob{})
	var se *SyncError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, FailureStatus, se.Kind)
	assert.Equal(t, http.StatusBadRequest, se.StatusCode)
	assert.Contains(t, err.Error(), "400")
}

func TestClassify(t *testing.T) {
	assert.Equal(t, FailureNone, Classify(nil))
	assert.Equal(t, FailureTimeout, Classify(context.DeadlineExceeded))
	assert.Equal(t, FailureNetwork, Classify(errors.New("boom")))
	assert.Equal(t, FailureDecode, Classify(&SyncError{Kind: FailureDecode}))
}

func TestTransition(t *testing.T) {
	tests := []struct {
		from Mode
		kind FailureKind
		want Mode
	}{
		{ModeRemote, FailureNone, ModeRemote},
		{ModeDegraded, FailureNone, ModeRemote},
		{ModeRemote, FailureTimeout, ModeDegraded},
		{ModeRemote, FailureNetwork, ModeDegraded},
		{ModeRemote, FailureStatus, ModeDegraded},
		{ModeRemote, FailureDecode, ModeDegraded},
		{ModeDegraded, FailureNetwork, ModeDegraded},
	}
	for _, tt := range tests {
		t.Run(tt.from.String()+"/"+tt.kind.String(), func(t *testing.T) {
			assert.Equal(t, tt.want, Transition(tt.from, Outcome{Failure: tt.kind}))
		})
	}
}
