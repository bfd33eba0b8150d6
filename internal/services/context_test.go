package services_test

import (
	"context"
	"testing"

	"conveyor/internal/services"
)

func TestRunTaskAttemptRoundTrip(t *testing.T) {
	ctx := services.WithRunID(context.Background(), "manual__2025-03-01")
	ctx = services.WithTaskID(ctx, "transform")
	ctx = services.WithAttempt(ctx, 3)

	if id, ok := services.RunIDFromContext(ctx); !ok || id != "manual__2025-03-01" {
		t.Fatalf("run id = %q ok=%v", id, ok)
	}
	if id, ok := services.TaskIDFromContext(ctx); !ok || id != "transform" {
		t.Fatalf("task id = %q ok=%v", id, ok)
	}
	if attempt, ok := services.AttemptFromContext(ctx); !ok || attempt != 3 {
		t.Fatalf("attempt = %d ok=%v", attempt, ok)
	}
}

func TestEmptyValuesAreNotStored(t *testing.T) {
	ctx := services.WithRunID(context.Background(), "")
	ctx = services.WithAttempt(ctx, 0)
	ctx = services.WithRequestID(ctx, "")

	if _, ok := services.RunIDFromContext(ctx); ok {
		t.Fatal("empty run id stored")
	}
	if _, ok := services.AttemptFromContext(ctx); ok {
		t.Fatal("zero attempt stored")
	}
	if _, ok := services.RequestIDFromContext(ctx); ok {
		t.Fatal("empty request id stored")
	}
}

func TestRequestIDRoundTrip(t *testing.T) {
	ctx := services.WithRequestID(context.Background(), "req-42")
	if id, ok := services.RequestIDFromContext(ctx); !ok || id != "req-42" {
		t.Fatalf("request id = %q ok=%v", id, ok)
	}
}
