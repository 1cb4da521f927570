// Package probe runs the startup checks and reports which ones block startup.
package probe

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"
)

// DefaultTimeout bounds a single check.
const DefaultTimeout = 5 * time.Second

// CheckFunc returns nil when the check passes.
type CheckFunc func(ctx context.Context) error

// Probe is a single startup check.
type Probe struct {
	Name     string
	Check    CheckFunc
	Critical bool // failure aborts startup
}

// Result holds the outcome of a single probe.
type Result struct {
	Probe    Probe
	Error    error
	Duration time.Duration
}

// Run executes the probes in order, each under its own timeout.
func Run(ctx context.Context, timeout time.Duration, probes ...Probe) []Result {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	results := make([]Result, 0, len(probes))
	for _, p := range probes {
		start := time.Now()
		pctx, cancel := context.WithTimeout(ctx, timeout)
		err := p.Check(pctx)
		cancel()
		results = append(results, Result{Probe: p, Error: err, Duration: time.Since(start)})
	}
	return results
}

// Summarize logs every result and joins the errors of failed critical probes.
func Summarize(results []Result) error {
	logger := slog.With("component", "startup")
	var critical []error

	for _, r := range results {
		status := "PASS"
		if r.Error != nil {
			status = "FAIL"
		}
		msg := fmt.Sprintf("[%s] %-24s (%v)", status, r.Probe.Name, r.Duration.Round(time.Millisecond))
		switch {
		case r.Error == nil:
			logger.Info(msg)
		case r.Probe.Critical:
			logger.Error(msg, "error", r.Error)
			critical = append(critical, fmt.Errorf("%s: %w", r.Probe.Name, r.Error))
		default:
			logger.Warn(msg, "error", r.Error)
		}
	}
	return errors.Join(critical...)
}

// Pinger is satisfied by *sql.DB.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Database checks that the database answers.
func Database(p Pinger) Probe {
	return Probe{Name: "Database", Check: p.PingContext, Critical: true}
}

// ElevationFile checks that the elevation dataset is present. The engine falls back
// to procedural terrain without it.
func ElevationFile(path string) Probe {
	return Probe{
		Name: "Terrain Data (ETOPO1)",
		Check: func(context.Context) error {
			if path == "" {
				return errors.New("no elevation file configured")
			}
			fi, err := os.Stat(path)
			if err != nil {
				return err
			}
			if fi.Size() == 0 {
				return fmt.Errorf("%s is empty", path)
			}
			return nil
		},
	}
}
