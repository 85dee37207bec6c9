package recorder

import (
	"github.com/google/uuid"

	"PatternScout/internal/model"
	"PatternScout/internal/scanner"
)

// NoopRecorder is a no-op implementation used when no database is configured.
type NoopRecorder struct{}

func NewNoopRecorder() *NoopRecorder { return &NoopRecorder{} }

func (n *NoopRecorder) RecordPatterns(_ uuid.UUID, _, _ string, _ []model.Pattern) error { return nil }
func (n *NoopRecorder) RecordRSI(_ string, _ model.RSIReport) error                      { return nil }
func (n *NoopRecorder) RecordScan(_ *scanner.Report) error                               { return nil }
func (n *NoopRecorder) Close() error                                                     { return nil }
