package ingest

import (
	"github.com/tinytelemetry/pfwatch/internal/metrics"
	"github.com/tinytelemetry/pfwatch/internal/model"
	"github.com/tinytelemetry/pfwatch/internal/pipeline"
)

// StoreSink appends records to the shared store and wakes the filter
// pipeline after each append. It must be the store's only writer.
type StoreSink struct {
	store    *pipeline.Store
	notifier *pipeline.Notifier
	metrics  *metrics.Collector
}

func NewStoreSink(store *pipeline.Store, notifier *pipeline.Notifier, m *metrics.Collector) *StoreSink {
	return &StoreSink{store: store, notifier: notifier, metrics: m}
}

func (s *StoreSink) Add(record *model.LogRecord) {
	s.store.Append(record)
	s.metrics.IncStored()
	s.notifier.Signal()
}
