// Copyright 2025 Certen Protocol

package oracle

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/mangonet-labs/bridge-node/pkg/bridge"
)

type fakeAction struct{ digest bridge.Digest }

func (f fakeAction) Digest() bridge.Digest { return f.digest }
func (f fakeAction) Bytes() []byte         { return f.digest[:] }

type flakySource struct {
	failuresBeforeSuccess int32
	calls                 int32
	result                bridge.OnChainStatus
}

func (s *flakySource) GetActionStatus(ctx context.Context, action bridge.Action) (bridge.OnChainStatus, error) {
	n := atomic.AddInt32(&s.calls, 1)
	if n <= s.failuresBeforeSuccess {
		return 0, errors.New("transport error")
	}
	return s.result, nil
}

func TestStatusUntilSuccessRetriesPastTransportErrors(t *testing.T) {
	source := &flakySource{failuresBeforeSuccess: 3, result: bridge.StatusApproved}
	o := New(source)

	status := o.StatusUntilSuccess(context.Background(), fakeAction{})
	if status != bridge.StatusApproved {
		t.Fatalf("got status %s, want %s", status, bridge.StatusApproved)
	}
	if got := atomic.LoadInt32(&source.calls); got != 4 {
		t.Fatalf("source called %d times, want 4", got)
	}
}

func TestStatusUntilSuccessReturnsPendingOnCancel(t *testing.T) {
	source := &flakySource{failuresBeforeSuccess: 1 << 30, result: bridge.StatusApproved}
	o := New(source)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	status := o.StatusUntilSuccess(ctx, fakeAction{})
	if status != bridge.StatusPending {
		t.Fatalf("got status %s, want %s on cancellation", status, bridge.StatusPending)
	}
}
