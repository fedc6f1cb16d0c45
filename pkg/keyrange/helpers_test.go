package keyrange

import (
	"context"
	"encoding/binary"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/KevoDB/sai/pkg/primarykey"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

var testFactory = primarykey.NewFactory(primarykey.WithPartitioner(primarykey.ByteOrderedPartitioner))

func partition(n int) []byte {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], uint64(n))
	return b[:]
}

// key returns the normal row key of partition n. Keys sort by n.
func key(n int) *primarykey.PrimaryKey {
	return testFactory.Create(partition(n), nil)
}

// staticKey returns the static row key of partition n.
func staticKey(n int) *primarykey.PrimaryKey {
	return testFactory.CreateStatic(partition(n))
}

func keys(ns ...int) []*primarykey.PrimaryKey {
	out := make([]*primarykey.PrimaryKey, len(ns))
	for i, n := range ns {
		out[i] = key(n)
	}
	return out
}

func number(k *primarykey.PrimaryKey) int {
	return int(binary.BigEndian.Uint64(k.Partition()))
}

func drain(it Iterator) []*primarykey.PrimaryKey {
	var out []*primarykey.PrimaryKey
	for it.HasNext() {
		out = append(out, it.Next())
	}
	return out
}

func drainNumbers(it Iterator) []int {
	var out []int
	for _, k := range drain(it) {
		out = append(out, number(k))
	}
	return out
}

func assertNumbers(t *testing.T, got []int, want ...int) {
	t.Helper()
	if fmt.Sprint(got) != fmt.Sprint(want) {
		t.Errorf("expected keys %v, got %v", want, got)
	}
}

// mockRange is a list-backed range that counts closes and can fail them.
type mockRange struct {
	*ListIterator
	closes   int
	closeErr error
}

func newMockRange(ns ...int) *mockRange {
	return &mockRange{ListIterator: NewListIterator(keys(ns...))}
}

func newMockRangeOf(ks ...*primarykey.PrimaryKey) *mockRange {
	return &mockRange{ListIterator: NewListIterator(ks)}
}

func (m *mockRange) Close() error {
	m.closes++
	m.ListIterator.Close()
	return m.closeErr
}

// boundsRange reports arbitrary bounds and produces nothing.
type boundsRange struct {
	Base
	closes int
}

func newBoundsRange(min, max *primarykey.PrimaryKey, count int64) *boundsRange {
	r := &boundsRange{}
	r.init(min, max, count, r)
	return r
}

func (r *boundsRange) computeNext() (*primarykey.PrimaryKey, bool) { return nil, false }
func (r *boundsRange) performSkipTo(target *primarykey.PrimaryKey) {}

func (r *boundsRange) Close() error {
	r.closes++
	r.markClosed()
	return nil
}

// mockTelemetryServer captures metrics for testing key range telemetry (infrastructure mocking only)
type mockTelemetryServer struct {
	mu         sync.Mutex
	histograms map[string][]float64
	counters   map[string][]mockCounterValue
}

type mockCounterValue struct {
	value      int64
	attributes []attribute.KeyValue
}

func newMockTelemetryServer() *mockTelemetryServer {
	return &mockTelemetryServer{
		histograms: make(map[string][]float64),
		counters:   make(map[string][]mockCounterValue),
	}
}

func (m *mockTelemetryServer) RecordHistogram(ctx context.Context, name string, value float64, attrs ...attribute.KeyValue) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.histograms[name] = append(m.histograms[name], value)
}

func (m *mockTelemetryServer) RecordCounter(ctx context.Context, name string, value int64, attrs ...attribute.KeyValue) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counters[name] = append(m.counters[name], mockCounterValue{value: value, attributes: attrs})
}

func (m *mockTelemetryServer) StartSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return ctx, trace.SpanFromContext(ctx)
}

func (m *mockTelemetryServer) Shutdown(ctx context.Context) error {
	return nil
}

func (m *mockTelemetryServer) counterTotal(name string) int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	var total int64
	for _, v := range m.counters[name] {
		total += v.value
	}
	return total
}

func (m *mockTelemetryServer) counterWith(name, attrKey, attrValue string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, v := range m.counters[name] {
		for _, a := range v.attributes {
			if string(a.Key) == attrKey && a.Value.Emit() == attrValue {
				n++
			}
		}
	}
	return n
}

func (m *mockTelemetryServer) histogram(name string) []float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]float64(nil), m.histograms[name]...)
}

func containsAll(s string, parts ...string) bool {
	for _, p := range parts {
		if !strings.Contains(s, p) {
			return false
		}
	}
	return true
}
