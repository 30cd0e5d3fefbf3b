// Package telemetry records per-tick engine statistics as CSV and
// summarises tick timings.
package telemetry

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/gocarina/gocsv"
	"github.com/lao-tseu-is-alive/go-flock-engine/pkg/flock"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/stat"
)

// Recorder collects flock.TickStats. Rows go to the CSV writer, if any, and
// the timings of the current window feed Summary.
// A Recorder is used by the goroutine driving the ticks only.
type Recorder struct {
	out           io.Writer
	file          *os.File
	headerWritten bool

	durations []float64 // milliseconds
	parallel  []float64
	window    Summary
}

// Row is the CSV form of flock.TickStats.
type Row struct {
	Frame         uint64 `csv:"frame"`
	Agents        int    `csv:"agents"`
	Batches       int    `csv:"batches"`
	UsedGrid      bool   `csv:"used_grid"`
	Neighbors     int    `csv:"neighbors"`
	Targets       int    `csv:"targets"`
	Probes        int    `csv:"probes"`
	ProbeQueries  int    `csv:"probe_queries"`
	ProbesBlocked int    `csv:"probes_blocked"`
	QueryErrors   int    `csv:"query_errors"`
	ParallelNs    int64  `csv:"parallel_ns"`
	DurationNs    int64  `csv:"duration_ns"`
}

// NewRow converts s.
func NewRow(s flock.TickStats) Row {
	return Row{
		Frame:         s.Frame,
		Agents:        s.Agents,
		Batches:       s.Batches,
		UsedGrid:      s.UsedGrid,
		Neighbors:     s.Neighbors,
		Targets:       s.Targets,
		Probes:        s.Probes,
		ProbeQueries:  s.ProbeQueries,
		ProbesBlocked: s.ProbesBlocked,
		QueryErrors:   s.QueryErrors,
		ParallelNs:    s.ParallelDuration.Nanoseconds(),
		DurationNs:    s.Duration.Nanoseconds(),
	}
}

// Summary describes a window of ticks.
type Summary struct {
	Ticks          int
	MeanMs         float64
	StdDevMs       float64
	P95Ms          float64
	MaxMs          float64
	MeanParallelMs float64
	Neighbors      int
	Probes         int
	ProbeQueries   int
	ProbesBlocked  int
	QueryErrors    int
}

// New returns a recorder writing CSV rows to out. A nil out only keeps the
// summary.
func New(out io.Writer) *Recorder {
	return &Recorder{out: out}
}

// Open creates dir if needed and records into dir/ticks.csv. An empty dir
// disables the CSV output.
func Open(dir string) (*Recorder, error) {
	if dir == "" {
		return New(nil), nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}
	f, err := os.Create(filepath.Join(dir, "ticks.csv"))
	if err != nil {
		return nil, fmt.Errorf("creating ticks.csv: %w", err)
	}
	r := New(f)
	r.file = f
	return r, nil
}

// Record adds the statistics of one tick.
func (r *Recorder) Record(s flock.TickStats) error {
	r.durations = append(r.durations, ms(s.Duration))
	r.parallel = append(r.parallel, ms(s.ParallelDuration))
	r.window.Ticks++
	r.window.Neighbors += s.Neighbors
	r.window.Probes += s.Probes
	r.window.ProbeQueries += s.ProbeQueries
	r.window.ProbesBlocked += s.ProbesBlocked
	r.window.QueryErrors += s.QueryErrors

	if r.out == nil {
		return nil
	}
	rows := []Row{NewRow(s)}
	if !r.headerWritten {
		if err := gocsv.Marshal(rows, r.out); err != nil {
			return fmt.Errorf("writing tick stats: %w", err)
		}
		r.headerWritten = true
		return nil
	}
	if err := gocsv.MarshalWithoutHeaders(rows, r.out); err != nil {
		return fmt.Errorf("writing tick stats: %w", err)
	}
	return nil
}

// Summary returns the statistics of the ticks recorded since the last
// Reset.
func (r *Recorder) Summary() Summary {
	s := r.window
	if len(r.durations) == 0 {
		return s
	}
	sorted := slices.Clone(r.durations)
	slices.Sort(sorted)

	s.MeanMs, s.StdDevMs = stat.MeanStdDev(sorted, nil)
	if len(sorted) < 2 {
		s.StdDevMs = 0
	}
	s.P95Ms = stat.Quantile(0.95, stat.Empirical, sorted, nil)
	s.MaxMs = sorted[len(sorted)-1]
	s.MeanParallelMs = stat.Mean(r.parallel, nil)
	return s
}

// Reset starts a new summary window. CSV output is not affected.
func (r *Recorder) Reset() {
	r.durations = r.durations[:0]
	r.parallel = r.parallel[:0]
	r.window = Summary{}
}

// Close closes the CSV file opened by Open.
func (r *Recorder) Close() error {
	if r.file == nil {
		return nil
	}
	err := r.file.Close()
	r.file = nil
	return err
}

// Fields renders s as structured log fields.
func (s Summary) Fields() []zap.Field {
	return []zap.Field{
		zap.Int("ticks", s.Ticks),
		zap.Float64("meanMs", s.MeanMs),
		zap.Float64("stdDevMs", s.StdDevMs),
		zap.Float64("p95Ms", s.P95Ms),
		zap.Float64("maxMs", s.MaxMs),
		zap.Float64("meanParallelMs", s.MeanParallelMs),
		zap.Int("probes", s.Probes),
		zap.Int("probesBlocked", s.ProbesBlocked),
		zap.Int("queryErrors", s.QueryErrors),
	}
}

func ms(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}
