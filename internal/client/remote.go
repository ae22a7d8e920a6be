// Package client keeps application state in sync with the tod state service,
// falling back to slice-keyed local files when the service is unreachable.
package client

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/josephgoksu/tod/internal/state"
)

// FailureKind classifies why a remote call failed.
type FailureKind int

const (
	FailureNone FailureKind = iota
	FailureTimeout
	FailureNetwork
	FailureStatus
	FailureDecode
)

func (k FailureKind) String() string {
	switch k {
	case FailureNone:
		return "none"
	case FailureTimeout:
		return "timeout"
	case FailureNetwork:
		return "network"
	case FailureStatus:
		return "status"
	case FailureDecode:
		return "decode"
	}
	return fmt.Sprintf("FailureKind(%d)", int(k))
}

// SyncError is returned by Remote implementations for any failed call.
type SyncError struct {
	Op         string // fetch or replace
	Kind       FailureKind
	StatusCode int
	Err        error
}

func (e *SyncError) Error() string {
	if e.Kind == FailureStatus {
		return fmt.Sprintf("%s state: unexpected status %d", e.Op, e.StatusCode)
	}
	return fmt.Sprintf("%s state: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *SyncError) Unwrap() error { return e.Err }

// Classify reports the failure kind of err. Errors that are not a
// *SyncError are treated as network failures.
func Classify(err error) FailureKind {
	if err == nil {
		return FailureNone
	}
	var se *SyncError
	if errors.As(err, &se) {
		return se.Kind
	}
	if isTimeout(err) {
		return FailureTimeout
	}
	return FailureNetwork
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// Remote is the state service as seen by the synchronizer.
type Remote interface {
	// Fetch returns the whole stored blob.
	Fetch(ctx context.Context) (state.Blob, error)
	// Replace overwrites the stored blob.
	Replace(ctx context.Context, blob state.Blob) error
}

// HTTPRemote talks to the state resource over HTTP.
type HTTPRemote struct {
	url     string
	client  *http.Client
	timeout time.Duration
}

// NewHTTPRemote targets the state resource at url. Every call is bounded by timeout.
func NewHTTPRemote(url string, timeout time.Duration) *HTTPRemote {
	return &HTTPRemote{
		url:     url,
		client:  &http.Client{},
		timeout: timeout,
	}
}

// URL returns the state resource address.
func (r *HTTPRemote) URL() string { return r.url }

func (r *HTTPRemote) Fetch(ctx context.Context) (state.Blob, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.url, nil)
	if err != nil {
		return nil, &SyncError{Op: "fetch", Kind: FailureNetwork, Err: err}
	}
	req.Header.Set("Accept", "application/json")

	body, err := r.do(req, "fetch")
	if err != nil {
		return nil, err
	}

	blob, err := state.ParseBlob(body)
	if err != nil {
		return nil, &SyncError{Op: "fetch", Kind: FailureDecode, Err: err}
	}
	return blob, nil
}

func (r *HTTPRemote) Replace(ctx context.Context, blob state.Blob) error {
	payload, err := blob.JSON()
	if err != nil {
		return &SyncError{Op: "replace", Kind: FailureDecode, Err: err}
	}

	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, r.url, bytes.NewReader(payload))
	if err != nil {
		return &SyncError{Op: "replace", Kind: FailureNetwork, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")

	_, err = r.do(req, "replace")
	return err
}

func (r *HTTPRemote) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if r.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, r.timeout)
}

func (r *HTTPRemote) do(req *http.Request, op string) ([]byte, error) {
	resp, err := r.client.Do(req)
	if err != nil {
		kind := FailureNetwork
		if isTimeout(err) {
			kind = FailureTimeout
		}
		return nil, &SyncError{Op: op, Kind: kind, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		kind := FailureNetwork
		if isTimeout(err) {
			kind = FailureTimeout
		}
		return nil, &SyncError{Op: op, Kind: kind, Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &SyncError{Op: op, Kind: FailureStatus, StatusCode: resp.StatusCode}
	}
	return body, nil
}
