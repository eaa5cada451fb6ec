// Package context provides context utilities and transaction-scoped state
// for installer and remover operations.
package context

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dpkgo/dpkgo/pkg/logger"
)

// contextKey is a custom type for context keys to avoid collisions.
type contextKey string

const (
	// TransactionIDKey is the context key for transaction identifiers.
	TransactionIDKey contextKey = "transaction_id"
	// PackageKey is the context key for the package name being processed.
	PackageKey contextKey = "package"
	// AdminDirKey is the context key for the admin database root.
	AdminDirKey contextKey = "admindir"
	// OperationKey is the context key for operation identifiers.
	OperationKey contextKey = "operation"
	// UserKey is the context key for user identifiers.
	UserKey contextKey = "user"
	// RequestIDKey is the context key for request identifiers.
	RequestIDKey contextKey = "request_id"
	// TraceIDKey is the context key for trace identifiers.
	TraceIDKey contextKey = "trace_id"
	// LoggerKey is the context key for logger instances.
	LoggerKey contextKey = "logger"
)

// TransactionContext carries the identity of one install/remove/configure
// run through the call stack: which transaction, which package, and which
// admin database it is operating against.
type TransactionContext struct {
	TransactionID string            `json:"transactionId"`
	Package       string            `json:"package"`
	Operation     string            `json:"operation"`
	AdminDir      string            `json:"admindir"`
	StartTime     time.Time         `json:"startTime"`
	Metadata      map[string]string `json:"metadata"`
}

// NewTransactionContext creates a new transaction context.
func NewTransactionContext(transactionID, pkg, operation, adminDir string) *TransactionContext {
	return &TransactionContext{
		TransactionID: transactionID,
		Package:       pkg,
		Operation:     operation,
		AdminDir:      adminDir,
		StartTime:     time.Now(),
		Metadata:      make(map[string]string),
	}
}

// WithTransactionContext adds the transaction context to ctx.
func WithTransactionContext(parent context.Context, txCtx *TransactionContext) context.Context {
	ctx := parent
	ctx = context.WithValue(ctx, TransactionIDKey, txCtx.TransactionID)
	ctx = context.WithValue(ctx, PackageKey, txCtx.Package)
	ctx = context.WithValue(ctx, OperationKey, txCtx.Operation)
	ctx = context.WithValue(ctx, AdminDirKey, txCtx.AdminDir)

	return ctx
}

// GetTransactionContext extracts the transaction context from ctx.
func GetTransactionContext(ctx context.Context) *TransactionContext {
	txCtx := &TransactionContext{
		Metadata: make(map[string]string),
	}

	if transactionID, ok := ctx.Value(TransactionIDKey).(string); ok {
		txCtx.TransactionID = transactionID
	}

	if pkg, ok := ctx.Value(PackageKey).(string); ok {
		txCtx.Package = pkg
	}

	if operation, ok := ctx.Value(OperationKey).(string); ok {
		txCtx.Operation = operation
	}

	if adminDir, ok := ctx.Value(AdminDirKey).(string); ok {
		txCtx.AdminDir = adminDir
	}

	return txCtx
}

// InterruptFlag is the one piece of module-level state the installer and
// remover are allowed to share: a single atomic bit raised by a signal
// handler and observed cooperatively between journal-tracked steps so a
// SIGINT lands on a clean boundary instead of mid-unpack.
type InterruptFlag struct {
	flag atomic.Bool
}

// Set raises the interrupt flag.
func (f *InterruptFlag) Set() {
	f.flag.Store(true)
}

// Observed reports whether the flag has been raised.
func (f *InterruptFlag) Observed() bool {
	return f.flag.Load()
}

// WithTimeout creates a context with timeout and proper cleanup.
func WithTimeout(
	parent context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(parent, timeout)
}

// WithDeadline creates a context with deadline and proper cleanup.
func WithDeadline(
	parent context.Context, deadline time.Time) (context.Context, context.CancelFunc) {
	return context.WithDeadline(parent, deadline)
}

// WithCancel creates a context with cancellation.
func WithCancel(
	parent context.Context) (context.Context, context.CancelFunc) {
	return context.WithCancel(parent)
}

// WithLogger adds a logger to the context.
func WithLogger(parent context.Context, log *logger.DpkgoLogger) context.Context {
	return context.WithValue(parent, LoggerKey, log)
}

// GetLogger retrieves logger from context, returns default if not found.
func GetLogger(ctx context.Context) *logger.DpkgoLogger {
	if log, ok := ctx.Value(LoggerKey).(*logger.DpkgoLogger); ok {
		return log
	}

	return logger.Logger
}

// WithTraceID adds a trace ID to the context.
func WithTraceID(parent context.Context, traceID string) context.Context {
	return context.WithValue(parent, TraceIDKey, traceID)
}

// GetTraceID retrieves trace ID from context.
func GetTraceID(ctx context.Context) string {
	if traceID, ok := ctx.Value(TraceIDKey).(string); ok {
		return traceID
	}

	return ""
}

// WithRequestID adds a request ID to the context.
func WithRequestID(parent context.Context, requestID string) context.Context {
	return context.WithValue(parent, RequestIDKey, requestID)
}

// GetRequestID retrieves request ID from context.
func GetRequestID(ctx context.Context) string {
	if requestID, ok := ctx.Value(RequestIDKey).(string); ok {
		return requestID
	}

	return ""
}

// WithOperation adds an operation name to the context.
func WithOperation(parent context.Context, operation string) context.Context {
	return context.WithValue(parent, OperationKey, operation)
}

// GetOperation retrieves operation name from context.
func GetOperation(ctx context.Context) string {
	if operation, ok := ctx.Value(OperationKey).(string); ok {
		return operation
	}

	return ""
}

// BackgroundWithTimeout creates a background context with timeout.
func BackgroundWithTimeout(timeout time.Duration) (context.Context, context.CancelFunc) {
	return WithTimeout(context.Background(), timeout)
}

// Semaphore provides context-aware semaphore functionality.
type Semaphore struct {
	ch chan struct{}
}

// NewSemaphore creates a new semaphore with the given capacity.
func NewSemaphore(capacity int) *Semaphore {
	return &Semaphore{
		ch: make(chan struct{}, capacity),
	}
}

// Acquire acquires a semaphore slot, respecting context cancellation.
func (s *Semaphore) Acquire(ctx context.Context) error {
	select {
	case s.ch <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// TryAcquire attempts to acquire a semaphore slot without blocking.
func (s *Semaphore) TryAcquire() bool {
	select {
	case s.ch <- struct{}{}:
		return true
	default:
		return false
	}
}

// Release releases a semaphore slot.
func (s *Semaphore) Release() {
	select {
	case <-s.ch:
	default:
		panic("semaphore: release called without corresponding acquire")
	}
}

// Available returns the number of available slots.
func (s *Semaphore) Available() int {
	return cap(s.ch) - len(s.ch)
}

// WorkerPool provides context-aware worker pool functionality.
type WorkerPool struct {
	workers   int
	semaphore *Semaphore
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	closed    bool
	mu        sync.RWMutex
}

// NewWorkerPool creates a new worker pool with the given number of workers.
func NewWorkerPool(workers int) *WorkerPool {
	_, cancel := WithCancel(context.Background())

	return &WorkerPool{
		workers:   workers,
		semaphore: NewSemaphore(workers),
		cancel:    cancel,
		closed:    false,
	}
}

// Submit submits work to the pool.
func (wp *WorkerPool) Submit(ctx context.Context, work func(context.Context) error) error {
	workCtx, cancel := WithCancel(ctx)
	defer cancel()

	wp.mu.RLock()

	if wp.closed {
		wp.mu.RUnlock()

		return context.Canceled
	}

	wp.mu.RUnlock()

	err := wp.semaphore.Acquire(workCtx)
	if err != nil {
		return err
	}

	wp.wg.Add(1)

	go func() {
		defer wp.wg.Done()
		defer wp.semaphore.Release()

		combinedCtx, combinedCancel := WithCancel(workCtx)
		defer combinedCancel()

		_ = work(combinedCtx)
	}()

	return nil
}

// Shutdown gracefully shuts down the worker pool.
func (wp *WorkerPool) Shutdown(timeout time.Duration) error {
	wp.mu.Lock()

	if wp.closed {
		wp.mu.Unlock()

		return nil
	}

	wp.closed = true
	wp.mu.Unlock()

	wp.cancel()

	done := make(chan struct{})

	go func() {
		defer close(done)

		wp.wg.Wait()
	}()

	select {
	case <-done:
		return nil
	case <-time.After(timeout):
		return context.DeadlineExceeded
	}
}

// Available returns the number of available workers.
func (wp *WorkerPool) Available() int {
	return wp.semaphore.Available()
}

// RetryWithContext retries a function with exponential backoff and context support.
//
//nolint:varnamelen // fn is a commonly used short name for function parameters
func RetryWithContext(ctx context.Context, maxRetries int, baseDelay time.Duration,
	fn func(context.Context) error,
) error {
	var lastErr error

	delay := baseDelay

	for attempt := 0; attempt <= maxRetries; attempt++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		err := fn(ctx)
		if err == nil {
			return nil
		}

		lastErr = err

		if attempt < maxRetries {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}

			delay *= 2 // Exponential backoff
		}
	}

	return lastErr
}
