// Package appconf holds the engine-wide configuration record. There is no
// process-global mutable configuration state anywhere in this module: every
// builder and the query orchestrator take a Config value explicitly.
package appconf

import (
	"time"

	"transitraptor.dev/internal/models"
)

// Environment names the deployment environment, mirroring the teacher's
// environment enum.
type Environment string

const (
	Development Environment = "development"
	Staging     Environment = "staging"
	Production  Environment = "production"
	Test        Environment = "test"
)

// Config is the engine-wide configuration record. Fields map directly onto
// spec.md section 3's derived constants and section 6's optional query
// options, plus the ambient concerns (admission control, snapshot refresh)
// this module adds around the core.
type Config struct {
	Env Environment

	MaxWalkRadiusM          float64
	WalkSpeedMPS            float64
	WalkPenalty             float64
	KMax                    int
	SameStopTransferSeconds int32

	QueryTimeout time.Duration

	// MaxQPS caps query admission; 0 means unlimited, matching the
	// teacher's rate-limit-middleware convention for "no limiting".
	MaxQPS    float64
	BurstSize int

	// SnapshotRefreshInterval records a refresh period for a background
	// snapshot loader. No component of this module reads it; there is no
	// background refresh loop here.
	SnapshotRefreshInterval time.Duration

	// DiskCachePath records a location for the optional opaque on-disk
	// snapshot cache described in spec.md section 6. No component of this
	// module reads it; snapshot.OpenDiskCache takes its path as an argument.
	DiskCachePath string

	Verbose bool
}

// Defaults extracts the derived constants a timetable.Builder needs from
// the engine-wide configuration.
func (c Config) Defaults() models.Defaults {
	return models.Defaults{
		MaxWalkRadiusM:          c.MaxWalkRadiusM,
		WalkSpeedMPS:            c.WalkSpeedMPS,
		WalkPenalty:             c.WalkPenalty,
		KMax:                    c.KMax,
		SameStopTransferSeconds: c.SameStopTransferSeconds,
	}
}

// DefaultConfig returns the spec-mandated defaults with no admission
// control, no refresh loop, and no disk cache — a bare in-process engine.
func DefaultConfig() Config {
	return Config{
		Env:                     Development,
		MaxWalkRadiusM:          1000,
		WalkSpeedMPS:            1.389,
		WalkPenalty:             2.0,
		KMax:                    7,
		SameStopTransferSeconds: 0,
		QueryTimeout:            10 * time.Second,
	}
}
