package store

// Metrics collects sync and reconciliation metrics.
// metrics.Prometheus implements it; NoopMetrics is the default.
type Metrics interface {
	// Dispatched is called once per remote operation with result "ok" or "error".
	Dispatched(op, result string)

	// PendingChanged moves the count of queued or running operations.
	PendingChanged(delta int)

	// SyncFailed is called when an operation is handed to the FailureHandler.
	SyncFailed(op string)

	// Reconciled is called after each LoadData with result "ok" or "error".
	Reconciled(result string)
}

// NoopMetrics is a no-op implementation of Metrics.
type NoopMetrics struct{}

// Ensure NoopMetrics implements Metrics interface.
var _ Metrics = (*NoopMetrics)(nil)

// Dispatched implements Metrics.
func (NoopMetrics) Dispatched(string, string) {}

// PendingChanged implements Metrics.
func (NoopMetrics) PendingChanged(int) {}

// SyncFailed implements Metrics.
func (NoopMetrics) SyncFailed(string) {}

// Reconciled implements Metrics.
func (NoopMetrics) Reconciled(string) {}
