package llm

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type fakeTransport struct {
	responses []string
	errs      []error
	requests  []Request
	i         int
}

func (f *fakeTransport) Name() string { return "fake" }

func (f *fakeTransport) Complete(ctx context.Context, req Request) (string, error) {
	f.requests = append(f.requests, req)
	idx := f.i
	f.i++
	if idx < len(f.errs) && f.errs[idx] != nil {
		return "", f.errs[idx]
	}
	if idx < len(f.responses) {
		return f.responses[idx], nil
	}
	return "", errors.New("unexpected call")
}

func newTestClient(tr Transport) *Client {
	c := NewClient(tr, ClientConfig{Model: "test-model", Temperature: 0.2})
	c.sleep = func(context.Context, time.Duration) error { return nil }
	return c
}

var testMessages = []Message{{Role: RoleSystem, Content: "sys"}, {Role: RoleUser, Content: "hi"}}

func TestCompleteFirstStrategyWins(t *testing.T) {
	tr := &fakeTransport{responses: []string{`{"ok":true}`}}
	res, err := newTestClient(tr).Complete(context.Background(), testMessages)
	require.NoError(t, err)
	require.Equal(t, StrategyJSONMode, res.Strategy)
	require.Len(t, tr.requests, 1)
	req := tr.requests[0]
	require.True(t, req.JSONMode)
	require.Nil(t, req.Temperature)
	require.Equal(t, DefaultTimeout, req.Timeout)
}

func TestCompleteFallsThroughStrategiesInOrder(t *testing.T) {
	tr := &fakeTransport{
		errs:      []error{&HTTPError{StatusCode: 400, Body: "response_format unsupported"}, &HTTPError{StatusCode: 400, Body: "temperature unsupported"}},
		responses: []string{"", "", `{"ok":true}`},
	}
	res, err := newTestClient(tr).Complete(context.Background(), testMessages)
	require.NoError(t, err)
	require.Equal(t, StrategyMinimal, res.Strategy)
	require.Len(t, res.Failures, 2)
	require.Equal(t, StrategyJSONMode, res.Failures[0].Strategy)
	require.Equal(t, FailureClient, res.Failures[0].Class)

	second := tr.requests[1]
	require.False(t, second.JSONMode)
	require.NotNil(t, second.Temperature)
	require.InDelta(t, 0.2, *second.Temperature, 1e-9)

	third := tr.requests[2]
	require.True(t, third.Minimal)
	require.Nil(t, third.Temperature)
	require.Zero(t, third.MaxTokens)
	require.Equal(t, "test-model", third.Model)
}

func TestCompleteAllStrategiesFail(t *testing.T) {
	tr := &fakeTransport{errs: []error{
		&HTTPError{StatusCode: 500, Body: "boom"},
		&HTTPError{StatusCode: 429, Body: "slow down"},
		context.DeadlineExceeded,
	}}
	_, err := newTestClient(tr).Complete(context.Background(), testMessages)
	require.Error(t, err)
	require.True(t, errors.Is(err, ErrAllStrategiesFailed))
	var ce *CallError
	require.True(t, errors.As(err, &ce))
	require.Len(t, ce.Attempts, 3)
	require.Equal(t, []FailureClass{FailureServer, FailureRateLimit, FailureTimeout},
		[]FailureClass{ce.Attempts[0].Class, ce.Attempts[1].Class, ce.Attempts[2].Class})
	require.True(t, errors.Is(err, context.DeadlineExceeded))
}

func TestCompleteTreatsEmptyContentAsFailure(t *testing.T) {
	tr := &fakeTransport{responses: []string{"   ", `{"a":1}`}}
	res, err := newTestClient(tr).Complete(context.Background(), testMessages)
	require.NoError(t, err)
	require.Equal(t, StrategyWithTemperature, res.Strategy)
	require.Equal(t, FailureEmpty, res.Failures[0].Class)
}

func TestCompleteStopsWhenCanceled(t *testing.T) {
	tr := &fakeTransport{errs: []error{context.Canceled}}
	_, err := newTestClient(tr).Complete(context.Background(), testMessages)
	require.Error(t, err)
	require.Len(t, tr.requests, 1)
}

func TestAttemptAppliesTimeout(t *testing.T) {
	var deadline time.Time
	tr := transportFunc(func(ctx context.Context, req Request) (string, error) {
		deadline, _ = ctx.Deadline()
		return "{}", nil
	})
	c := NewClient(tr, ClientConfig{Model: "m", Timeout: 5 * time.Second})
	_, err := c.Complete(context.Background(), testMessages)
	require.NoError(t, err)
	require.WithinDuration(t, time.Now().Add(5*time.Second), deadline, time.Second)
}

type transportFunc func(ctx context.Context, req Request) (string, error)

func (f transportFunc) Name() string { return "func" }

func (f transportFunc) Complete(ctx context.Context, req Request) (string, error) { return f(ctx, req) }

func TestClassifyTransportError(t *testing.T) {
	for _, tc := range []struct {
		err  error
		want FailureClass
	}{
		{err: errors.New("failed after 5 retries while waiting 4 seconds"), want: FailureServer},
		{err: errors.New("status code: 400 bad request"), want: FailureClient},
		{err: errors.New("429 Too Many Requests"), want: FailureRateLimit},
		{err: &HTTPError{StatusCode: 503}, want: FailureServer},
		{err: context.DeadlineExceeded, want: FailureTimeout},
		{err: context.Canceled, want: FailureCanceled},
	} {
		if got := classifyTransportError(tc.err); got != tc.want {
			t.Fatalf("classify(%v)=%s want %s", tc.err, got, tc.want)
		}
	}
}

func TestBackoffDelay(t *testing.T) {
	if backoffDelay(FailureServer, 1) != time.Second || backoffDelay(FailureRateLimit, 2) != 2*time.Second {
		t.Fatal("unexpected backoff for transient failures")
	}
	if backoffDelay(FailureClient, 1) != 0 {
		t.Fatal("client errors should not back off")
	}
}
