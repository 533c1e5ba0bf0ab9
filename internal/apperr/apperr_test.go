package apperr

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func TestKindMatching(t *testing.T) {
	err := NotFound("team %d not found", 7)
	if !errors.Is(err, ErrNotFound) {
		t.Fatal("NotFound error should match ErrNotFound")
	}
	if errors.Is(err, ErrConflict) {
		t.Fatal("NotFound error should not match ErrConflict")
	}
	if err.Error() != "team 7 not found" {
		t.Errorf("message = %q", err.Error())
	}
}

func TestFromContext(t *testing.T) {
	if err := FromContext(context.DeadlineExceeded); !errors.Is(err, ErrTimeout) {
		t.Errorf("deadline exceeded should map to Timeout, got %v", err)
	}
	if err := FromContext(context.Canceled); !errors.Is(err, ErrTimeout) {
		t.Errorf("canceled should map to Timeout, got %v", err)
	}
	plain := errors.New("disk full")
	if err := FromContext(plain); !errors.Is(err, plain) {
		t.Errorf("unrelated errors should pass through, got %v", err)
	}
	if err := FromContext(nil); err != nil {
		t.Errorf("nil should stay nil, got %v", err)
	}
}

func TestPartialFailureManifest(t *testing.T) {
	p := &PartialFailure{
		Op: "delete team",
		Steps: []Step{
			{Name: "delete games"},
			{Name: "delete requests", Err: errors.New("relation locked")},
			{Name: "delete team"},
		},
	}
	if !p.Failed() {
		t.Fatal("manifest with a failed step should report Failed")
	}
	failed := p.FailedSteps()
	if len(failed) != 1 || failed[0] != "delete requests" {
		t.Errorf("FailedSteps = %v", failed)
	}
	msg := p.Error()
	if !strings.Contains(msg, "delete requests") || !strings.Contains(msg, "1/3") {
		t.Errorf("Error() = %q, want the failed step and the step count", msg)
	}

	clean := &PartialFailure{Op: "delete team", Steps: []Step{{Name: "delete games"}}}
	if clean.Failed() {
		t.Error("all-success manifest should not report Failed")
	}
}
