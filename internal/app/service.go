package app

import (
	"io"
	"time"

	"github.com/charmbracelet/log"
	"github.com/oklog/ulid/v2"
)

// DefaultTrendConcurrency bounds concurrent per-bucket metric calculations.
const DefaultTrendConcurrency = 4

// ServiceConfig holds configuration for service.
type ServiceConfig struct {
	// TrendConcurrency caps concurrent bucket calculations in TrendSeries.
	TrendConcurrency int
	// SnapshotIDs generates metrics snapshot ids. Defaults to ULIDs so ids sort by creation.
	SnapshotIDs IDGenerator
	// Archiver, when set, receives a copy of every rendered export.
	Archiver ExportArchiver
	// ArchivePrefix is prepended to archive object keys.
	ArchivePrefix string
	Logger        *log.Logger
}

// IDGenerator returns unique identifiers for new entities.
type IDGenerator func() string

// Clock returns the current time.
type Clock func() time.Time

// Service computes metrics, report content and analytics over the repository ports.
type Service struct {
	repos            Repositories
	idGen            IDGenerator
	snapshotIDGen    IDGenerator
	clock            Clock
	trendConcurrency int
	archiver         ExportArchiver
	archivePrefix    string
	logger           *log.Logger
}

// NewService constructs a new value for this package.
func NewService(repos Repositories, idGen IDGenerator, clock Clock, cfg ServiceConfig) *Service {
	if idGen == nil {
		idGen = func() string { return "" }
	}
	if clock == nil {
		clock = time.Now
	}
	if cfg.SnapshotIDs == nil {
		cfg.SnapshotIDs = func() string { return ulid.Make().String() }
	}
	if cfg.TrendConcurrency <= 0 {
		cfg.TrendConcurrency = DefaultTrendConcurrency
	}
	if cfg.Logger == nil {
		cfg.Logger = log.New(io.Discard)
	}
	return &Service{
		repos:            repos,
		idGen:            idGen,
		snapshotIDGen:    cfg.SnapshotIDs,
		clock:            clock,
		trendConcurrency: cfg.TrendConcurrency,
		archiver:         cfg.Archiver,
		archivePrefix:    cfg.ArchivePrefix,
		logger:           cfg.Logger,
	}
}

func (s *Service) now() time.Time {
	return s.clock().UTC()
}
