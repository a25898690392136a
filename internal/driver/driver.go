package driver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"sync"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/your-org/eratosthenes-lambda/internal/bench"
	"github.com/your-org/eratosthenes-lambda/internal/targets"
)

// AWS Lambda pricing in USD as of Jan 2017.
const (
	CostPerRequest   = 0.0000002
	CostPerGbSeconds = 0.00001667
)

// Config controls a load run.
type Config struct {
	Max         int
	Loops       int
	Execs       int
	Concurrency int
}

// Validate checks the run limits.
func (c Config) Validate() error {
	switch {
	case c.Max < 3:
		return errors.New("max must be 3 or greater")
	case c.Max > bench.MaxBound:
		return fmt.Errorf("max must be %d or less", bench.MaxBound)
	case c.Execs < 1:
		return errors.New("execs must be 1 or greater")
	case c.Loops < 1:
		return errors.New("loops must be 1 or greater")
	case c.Concurrency < 1:
		return errors.New("conc must be 1 or greater")
	}
	return nil
}

// Execution is one function invocation as reported by the function.
type Execution struct {
	DurationSeconds float64 `json:"durationSeconds"`
	Memory          int     `json:"-"`
}

// Driver invokes benchmark functions over HTTP.
type Driver struct {
	cfg        Config
	httpClient *http.Client
	log        *zap.SugaredLogger
}

// New creates a Driver. A nil client uses http.DefaultClient.
func New(cfg Config, client *http.Client, log *zap.SugaredLogger) (*Driver, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if client == nil {
		client = http.DefaultClient
	}
	return &Driver{cfg: cfg, httpClient: client, log: log}, nil
}

// Trigger calls the function at rawURL once.
func (d *Driver) Trigger(ctx context.Context, rawURL string, mem int) (Execution, error) {
	e := Execution{Memory: mem}

	u, err := url.Parse(rawURL)
	if err != nil {
		return e, fmt.Errorf("function %dmb url: %w", mem, err)
	}
	q := u.Query()
	q.Set("max", strconv.Itoa(d.cfg.Max))
	q.Set("loops", strconv.Itoa(d.cfg.Loops))
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return e, fmt.Errorf("function %dmb request: %w", mem, err)
	}
	resp, err := d.httpClient.Do(req)
	if err != nil {
		return e, fmt.Errorf("function %dmb: %w", mem, err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return e, fmt.Errorf("function %dmb returned status code: %d", mem, resp.StatusCode)
	}

	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return e, fmt.Errorf("function %dmb read: %w", mem, err)
	}
	if err := json.Unmarshal(b, &e); err != nil {
		return e, fmt.Errorf("function %dmb decode: %w", mem, err)
	}
	e.Memory = mem
	if e.DurationSeconds <= 0 {
		return e, fmt.Errorf("function %dmb reported duration %v", mem, e.DurationSeconds)
	}
	return e, nil
}

// Run invokes every target Execs times, all in parallel, with at most
// Concurrency calls in flight. The returned error combines every failed
// invocation, including those never started because ctx was done; the
// report only counts successful ones.
func (d *Driver) Run(ctx context.Context, t targets.Targets) (*Report, error) {
	d.log.Infow("triggering functions",
		"functions", len(t), "execs", d.cfg.Execs, "loops", d.cfg.Loops, "max", d.cfg.Max)

	rep := newReport(d.cfg, t.Memories())
	var (
		wg     sync.WaitGroup
		mu     sync.Mutex
		errs   error
		tokens = make(chan struct{}, d.cfg.Concurrency)
	)
	for _, mem := range t.Memories() {
		u := t[mem]
		for c := 0; c < d.cfg.Execs; c++ {
			wg.Add(1)
			go func(u string, m int) {
				defer wg.Done()
				var (
					e   Execution
					err error
				)
				select {
				case tokens <- struct{}{}:
					e, err = d.Trigger(ctx, u, m)
					<-tokens
				case <-ctx.Done():
					err = fmt.Errorf("function %dmb: %w", m, ctx.Err())
				}

				mu.Lock()
				defer mu.Unlock()
				if err != nil {
					d.log.Warnw("invocation failed", "memory", m, "error", err)
					rep.Errors++
					errs = multierr.Append(errs, err)
					return
				}
				rep.add(e)
			}(u, mem)
		}
	}
	wg.Wait()
	return rep, errs
}
