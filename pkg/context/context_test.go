//nolint:testpackage // Internal testing of context package methods
package context

import (
	"context"
	"testing"
	"time"

	"github.com/dpkgo/dpkgo/pkg/logger"
)

func TestNewTransactionContext(t *testing.T) {
	t.Parallel()

	transactionID := "tx-123"
	pkg := "test-package"
	operation := "install"
	adminDir := "/var/lib/dpkgo"

	txCtx := NewTransactionContext(transactionID, pkg, operation, adminDir)

	if txCtx.TransactionID != transactionID {
		t.Errorf("Expected TransactionID %s, got %s", transactionID, txCtx.TransactionID)
	}

	if txCtx.Package != pkg {
		t.Errorf("Expected Package %s, got %s", pkg, txCtx.Package)
	}

	if txCtx.Operation != operation {
		t.Errorf("Expected Operation %s, got %s", operation, txCtx.Operation)
	}

	if txCtx.AdminDir != adminDir {
		t.Errorf("Expected AdminDir %s, got %s", adminDir, txCtx.AdminDir)
	}

	if txCtx.Metadata == nil {
		t.Error("Expected Metadata to be initialized")
	}
}

func TestWithTransactionContext(t *testing.T) {
	t.Parallel()

	txCtx := NewTransactionContext("tx-123", "pkg", "install", "/var/lib/dpkgo")
	ctx := WithTransactionContext(context.Background(), txCtx)

	if ctx.Value(TransactionIDKey) != txCtx.TransactionID {
		t.Errorf("Expected TransactionID in context to be %s", txCtx.TransactionID)
	}

	if ctx.Value(PackageKey) != txCtx.Package {
		t.Errorf("Expected Package in context to be %s", txCtx.Package)
	}
}

func TestGetTransactionContext(t *testing.T) {
	t.Parallel()

	originalCtx := NewTransactionContext("tx-123", "pkg", "install", "/var/lib/dpkgo")
	ctx := WithTransactionContext(context.Background(), originalCtx)
	retrievedCtx := GetTransactionContext(ctx)

	if retrievedCtx.TransactionID != originalCtx.TransactionID {
		t.Errorf("Expected TransactionID %s, got %s", originalCtx.TransactionID, retrievedCtx.TransactionID)
	}

	if retrievedCtx.Package != originalCtx.Package {
		t.Errorf("Expected Package %s, got %s", originalCtx.Package, retrievedCtx.Package)
	}
}

func TestInterruptFlag(t *testing.T) {
	t.Parallel()

	var flag InterruptFlag

	if flag.Observed() {
		t.Error("Expected flag to start unobserved")
	}

	flag.Set()

	if !flag.Observed() {
		t.Error("Expected flag to be observed after Set")
	}
}

func TestWithLogger(t *testing.T) {
	t.Parallel()

	log := logger.Logger
	ctx := WithLogger(context.Background(), log)

	retrievedLogger := GetLogger(ctx)
	if retrievedLogger != log {
		t.Error("Expected logger to match")
	}
}

func TestGetLogger_Default(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	log := GetLogger(ctx)

	if log == nil {
		t.Error("Expected default logger to be returned")
	}
}

func TestTraceID(t *testing.T) {
	t.Parallel()

	traceID := "trace-123"
	ctx := WithTraceID(context.Background(), traceID)

	retrieved := GetTraceID(ctx)
	if retrieved != traceID {
		t.Errorf("Expected TraceID %s, got %s", traceID, retrieved)
	}
}

func TestRequestID(t *testing.T) {
	t.Parallel()

	requestID := "request-123"
	ctx := WithRequestID(context.Background(), requestID)

	retrieved := GetRequestID(ctx)
	if retrieved != requestID {
		t.Errorf("Expected RequestID %s, got %s", requestID, retrieved)
	}
}

func TestOperation(t *testing.T) {
	t.Parallel()

	operation := "configure"
	ctx := WithOperation(context.Background(), operation)

	retrieved := GetOperation(ctx)
	if retrieved != operation {
		t.Errorf("Expected Operation %s, got %s", operation, retrieved)
	}
}

func TestRetryWithContext(t *testing.T) {
	t.Parallel()

	attempts := 0

	err := RetryWithContext(context.Background(), 2, 10*time.Millisecond, func(_ context.Context) error {
		attempts++
		if attempts < 2 {
			return context.DeadlineExceeded
		}

		return nil
	})
	if err != nil {
		t.Fatalf("Unexpected error after retry: %v", err)
	}

	if attempts != 2 {
		t.Errorf("Expected 2 attempts, got %d", attempts)
	}
}
