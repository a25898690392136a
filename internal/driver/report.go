package driver

import (
	"fmt"
	"io"
	"strings"
)

// Stats aggregates the executions of one memory size.
type Stats struct {
	Memory       int
	Executions   int
	TotalSeconds float64
}

// AvgSeconds is the mean reported duration.
func (s Stats) AvgSeconds() float64 {
	if s.Executions == 0 {
		return 0
	}
	return s.TotalSeconds / float64(s.Executions)
}

// Cost prices the executions in GB-seconds plus the per-request fee.
func (s Stats) Cost() float64 {
	return float64(s.Executions)*CostPerRequest +
		(float64(s.Memory)/1024)*s.TotalSeconds*CostPerGbSeconds
}

// Report summarises a load run.
type Report struct {
	Max    int
	Loops  int
	Errors int
	Stats  []Stats
}

func newReport(cfg Config, memories []int) *Report {
	r := &Report{Max: cfg.Max, Loops: cfg.Loops, Stats: make([]Stats, len(memories))}
	for i, m := range memories {
		r.Stats[i].Memory = m
	}
	return r
}

func (r *Report) add(e Execution) {
	for i := range r.Stats {
		if r.Stats[i].Memory == e.Memory {
			r.Stats[i].Executions++
			r.Stats[i].TotalSeconds += e.DurationSeconds
			return
		}
	}
}

// Total is the cost of the whole run.
func (r *Report) Total() float64 {
	var total float64
	for _, s := range r.Stats {
		total += s.Cost()
	}
	return total
}

// WriteTo renders the report as text.
func (r *Report) WriteTo(w io.Writer) (int64, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "Number of lambda executions returning errors: %d\n", r.Errors)
	b.WriteString("Stats for each Lambda function by Lambda memory allocation:\n")
	for _, s := range r.Stats {
		fmt.Fprintf(&b, "  %dmb %fsec(avg) $%f(total) to calculate %d times all prime numbers <=%d\n",
			s.Memory, s.AvgSeconds(), s.Cost(), s.Executions, r.Max)
	}
	fmt.Fprintf(&b, "Total cost of this test run: $%f\n", r.Total())
	n, err := io.WriteString(w, b.String())
	return int64(n), err
}
