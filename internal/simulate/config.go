// Package simulate drives a running teampulse server with random
// contributions and checks that analytics come back consistent.
package simulate

import (
	"errors"
	"fmt"
	"time"
)

// Defaults used when a Config field is zero.
const (
	DefaultBaseURL       = "http://localhost:9080"
	DefaultContributions = 200
	DefaultWorkers       = 8
	DefaultTimeout       = 10 * time.Second
	DefaultSettle        = 30 * time.Second
)

// ErrInvalidConfig reports an unusable simulation setup.
var ErrInvalidConfig = errors.New("invalid simulation config")

// Config holds configuration for a simulation run.
type Config struct {
	BaseURL       string        // base URL of the service
	Token         string        // bearer token; staff role needed when auth is on
	Students      int           // how many roster students to use; 0 means all
	Contributions int           // contributions to submit
	DuplicateRate float64       // fraction of submissions that replay an earlier id
	Workers       int           // concurrent submitters
	Timeout       time.Duration // per-request timeout
	Settle        time.Duration // how long to wait for the refresh queue to drain
	Seed          uint64        // random seed; 0 picks one from the clock
}

func (c *Config) withDefaults() {
	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL
	}
	if c.Contributions == 0 {
		c.Contributions = DefaultContributions
	}
	if c.Workers == 0 {
		c.Workers = DefaultWorkers
	}
	if c.Timeout == 0 {
		c.Timeout = DefaultTimeout
	}
	if c.Settle == 0 {
		c.Settle = DefaultSettle
	}
	if c.Seed == 0 {
		c.Seed = uint64(time.Now().UnixNano())
	}
}

func (c *Config) validate() error {
	switch {
	case c.Contributions < 0:
		return fmt.Errorf("%w: contributions must not be negative", ErrInvalidConfig)
	case c.Students < 0:
		return fmt.Errorf("%w: students must not be negative", ErrInvalidConfig)
	case c.Workers < 1:
		return fmt.Errorf("%w: workers must be positive", ErrInvalidConfig)
	case c.DuplicateRate < 0 || c.DuplicateRate >= 1:
		return fmt.Errorf("%w: duplicate rate must be in [0,1)", ErrInvalidConfig)
	}
	return nil
}

// Contribution is the POST /contributions body.
type Contribution struct {
	ID        string  `json:"id"`
	StudentID string  `json:"student_id"`
	GroupID   string  `json:"group_id"`
	Task      string  `json:"task"`
	Action    string  `json:"action"`
	Hours     float64 `json:"hours"`
	Timestamp string  `json:"timestamp"`
}

// Stats holds run statistics.
type Stats struct {
	Groups          int
	Students        int
	Generated       int
	Submitted       int
	Accepted        int
	Duplicate       int
	Rejected        int
	Failed          int
	ReportsFetched  int
	SnapshotsSeen   int
	FeedAlerts      int
	Recommendations int
	StartTime       time.Time
	EndTime         time.Time
	Duration        time.Duration
}
