package bench

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/your-org/eratosthenes-lambda/internal/sieve"
)

const (
	// TopCount is how many of the largest primes are logged per run.
	TopCount = 3
	// MaxBound is the largest accepted max. The sieve allocates one byte
	// per candidate, so this keeps a run within a 128MB function.
	MaxBound = 50000000
)

var (
	// ErrInvalidInput marks parameters that are missing or not integers.
	ErrInvalidInput = errors.New("invalid input")
	// ErrNegativeBound marks a negative max. It wraps ErrInvalidInput.
	ErrNegativeBound = fmt.Errorf("%w: negative bound", ErrInvalidInput)
	// ErrBoundTooLarge marks a max above MaxBound. It wraps ErrInvalidInput.
	ErrBoundTooLarge = fmt.Errorf("%w: bound too large", ErrInvalidInput)
)

// Params are the two inputs of a benchmark invocation.
type Params struct {
	Max   int
	Loops int
}

// Result is the record returned to the caller.
type Result struct {
	DurationSeconds float64 `json:"durationSeconds"`
	Max             int     `json:"max"`
	Loops           int     `json:"loops"`
}

// ParseParams reads max and loops from query-string style parameters.
func ParseParams(query map[string]string) (Params, error) {
	maxPrime, err := parseInt(query, "max")
	if err != nil {
		return Params{}, err
	}
	loops, err := parseInt(query, "loops")
	if err != nil {
		return Params{}, err
	}
	p := Params{Max: maxPrime, Loops: loops}
	if err := p.Validate(); err != nil {
		return Params{}, err
	}
	return p, nil
}

func parseInt(query map[string]string, name string) (int, error) {
	raw, ok := query[name]
	if !ok {
		return 0, fmt.Errorf("%w: missing %s", ErrInvalidInput, name)
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %s %q is not an integer", ErrInvalidInput, name, raw)
	}
	return v, nil
}

// Validate rejects negative values and bounds above MaxBound.
func (p Params) Validate() error {
	if p.Max < 0 {
		return fmt.Errorf("%w: max %d", ErrNegativeBound, p.Max)
	}
	if p.Max > MaxBound {
		return fmt.Errorf("%w: max %d exceeds %d", ErrBoundTooLarge, p.Max, MaxBound)
	}
	if p.Loops < 0 {
		return fmt.Errorf("%w: loops %d is negative", ErrInvalidInput, p.Loops)
	}
	return nil
}

// Runner repeats the sieve and times the whole batch.
type Runner struct {
	Sieve func(n int) []int
	Log   *zap.SugaredLogger
	now   func() time.Time
}

// NewRunner creates a Runner backed by the Eratosthenes sieve.
func NewRunner(log *zap.SugaredLogger) *Runner {
	return &Runner{Sieve: sieve.Eratosthenes, Log: log, now: time.Now}
}

// Run sieves up to p.Max exactly p.Loops times. The duration spans all
// loops; the largest primes of each loop are only logged.
func (r *Runner) Run(p Params) (Result, error) {
	if err := p.Validate(); err != nil {
		return Result{}, err
	}
	now := r.now
	if now == nil {
		now = time.Now
	}

	r.Log.Infof("looping %d time(s)", p.Loops)
	start := now()
	for i := 0; i < p.Loops; i++ {
		primes := r.Sieve(p.Max)
		top := sieve.Largest(primes, TopCount)
		if len(top) < TopCount {
			r.Log.Warnw("fewer primes than requested", "loop", i, "max", p.Max, "found", len(top))
		}
		r.Log.Infow("highest primes", "loop", i, "primes", top)
	}
	elapsed := now().Sub(start)

	return Result{
		DurationSeconds: elapsed.Seconds(),
		Max:             p.Max,
		Loops:           p.Loops,
	}, nil
}
