package history

import "context"

// NoopRecorder is used when history is disabled.
type NoopRecorder struct{}

func NewNoopRecorder() *NoopRecorder { return &NoopRecorder{} }

func (n *NoopRecorder) Record(context.Context, Record) error { return nil }
func (n *NoopRecorder) Recent(context.Context, string, int) ([]Record, error) {
	return nil, nil
}
func (n *NoopRecorder) Close() error { return nil }
