package command

import (
	"context"
	"testing"
	"time"
)

func TestRunWithTimeout_Success(t *testing.T) {
	result := RunWithTimeout(context.Background(), 2*time.Second, "echo", "hello")

	if result.Outcome != Success {
		t.Fatalf("expected Success, got %s (err: %v)", result.Outcome, result.Err)
	}
	if result.ExitCode != 0 {
		t.Errorf("expected exit code 0, got %d", result.ExitCode)
	}
}

func TestRunWithTimeout_Failed(t *testing.T) {
	result := RunWithTimeout(context.Background(), 2*time.Second, "sh", "-c", "exit 3")

	if result.Outcome != Failed {
		t.Fatalf("expected Failed, got %s", result.Outcome)
	}
	if result.ExitCode != 3 {
		t.Errorf("expected exit code 3, got %d", result.ExitCode)
	}
}

func TestRunWithTimeout_Timeout(t *testing.T) {
	result := RunWithTimeout(context.Background(), 50*time.Millisecond, "sleep", "5")

	if result.Outcome != Timeout {
		t.Fatalf("expected Timeout, got %s", result.Outcome)
	}
}

func TestRunWithTimeout_SpawnError(t *testing.T) {
	result := RunWithTimeout(context.Background(), time.Second, "this-binary-does-not-exist-xyz")

	if result.Outcome != SpawnError {
		t.Fatalf("expected SpawnError, got %s", result.Outcome)
	}
}
