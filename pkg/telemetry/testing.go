// ABOUTME: Disabled telemetry for tests of real components, no business logic mocking

package telemetry

// NewForTesting returns a no-op telemetry instance for use in tests.
func NewForTesting() Telemetry {
	return NewNoop()
}
