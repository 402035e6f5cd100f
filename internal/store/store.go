// Package store keeps run reports in a sqlite database.
package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/lao-tseu-is-alive/go-colreg-simulation/internal/report"
)

// MemoryPath opens a private in-memory database.
const MemoryPath = "file::memory:"

var ErrNotFound = errors.New("run not found")

// Run is one stored report.
type Run struct {
	gorm.Model
	Scenario         string `gorm:"size:200;index"`
	Policy           string `gorm:"size:16"`
	Completed        bool
	Ticks            int
	SimSeconds       float64
	TickSeconds      float64
	SafeDistanceNm   float64
	MinSeparationNm  float64
	Iterations       int
	IterationCapHits int
	UnresolvedTicks  int
	HeadOn           int
	Crossing         int
	Overtaking       int

	Voyages []VoyageResult
}

// VoyageResult is the line of one vessel within a Run.
type VoyageResult struct {
	gorm.Model
	RunID        uint   `gorm:"index"`
	Vessel       string `gorm:"size:64"`
	DistanceNm   float64
	SpeedKn      float64
	Arrived      bool
	ActualS      float64
	OptimalS     float64
	ExtraS       float64
	Maneuvers    int
	TurnTotalDeg float64
}

type Store struct {
	db *gorm.DB
}

// Open connects to the sqlite file at path and migrates the schema.
func Open(path string) (*Store, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	// one connection keeps an in-memory database alive and serialises writers
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(&Run{}, &VoyageResult{}); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("migrating %s: %w", path, err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func fromReport(r *report.Report) Run {
	run := Run{
		Scenario:         r.Scenario,
		Policy:           r.Policy,
		Completed:        r.Completed,
		Ticks:            r.Ticks,
		SimSeconds:       r.Time,
		TickSeconds:      r.TickSeconds,
		SafeDistanceNm:   r.SafeDistance,
		MinSeparationNm:  r.MinSeparation,
		Iterations:       r.Iterations,
		IterationCapHits: r.CapHits,
		UnresolvedTicks:  r.Unresolved,
		HeadOn:           r.HeadOn,
		Crossing:         r.Crossing,
		Overtaking:       r.Overtaking,
	}
	for _, v := range r.Voyages {
		run.Voyages = append(run.Voyages, VoyageResult{
			Vessel:       v.Vessel,
			DistanceNm:   v.Distance,
			SpeedKn:      v.Speed,
			Arrived:      v.Arrived,
			ActualS:      v.Actual,
			OptimalS:     v.Optimal,
			ExtraS:       v.Extra,
			Maneuvers:    v.Maneuvers,
			TurnTotalDeg: v.TurnTotal,
		})
	}
	return run
}

// SaveResult stores r with its voyages in one transaction and returns the run id.
func (s *Store) SaveResult(ctx context.Context, r *report.Report) (uint, error) {
	run := fromReport(r)
	if err := s.db.WithContext(ctx).Create(&run).Error; err != nil {
		return 0, fmt.Errorf("saving run %s: %w", r.Scenario, err)
	}
	return run.ID, nil
}

// ListRuns returns the stored runs, oldest first, with their voyages. An
// empty scenario lists every run.
func (s *Store) ListRuns(ctx context.Context, scenario string) ([]Run, error) {
	q := s.db.WithContext(ctx).Preload("Voyages", func(db *gorm.DB) *gorm.DB {
		return db.Order("id")
	}).Order("id")
	if scenario != "" {
		q = q.Where("scenario = ?", scenario)
	}
	var runs []Run
	if err := q.Find(&runs).Error; err != nil {
		return nil, fmt.Errorf("listing runs: %w", err)
	}
	return runs, nil
}

// GetRun loads one run with its voyages.
func (s *Store) GetRun(ctx context.Context, id uint) (*Run, error) {
	var run Run
	err := s.db.WithContext(ctx).Preload("Voyages").First(&run, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: %d", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("loading run %d: %w", id, err)
	}
	return &run, nil
}
