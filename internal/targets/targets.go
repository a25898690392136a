package targets

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"go.uber.org/zap"

	_ "embed"
)

//go:embed targets.schema.json
var schemaData []byte
var schema *jsonschema.Schema

func init() {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("targets.json", strings.NewReader(string(schemaData))); err != nil {
		panic(err)
	}
	var err error
	schema, err = compiler.Compile("targets.json")
	if err != nil {
		panic(err)
	}
}

// Targets maps a function memory size in MB to the URL that invokes it.
type Targets map[int]string

// Memories returns the configured memory sizes in ascending order.
func (t Targets) Memories() []int {
	out := make([]int, 0, len(t))
	for mem := range t {
		out = append(out, mem)
	}
	sort.Ints(out)
	return out
}

// Parse validates a targets document and decodes it.
func Parse(data []byte) (Targets, error) {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	if err := schema.Validate(v); err != nil {
		return nil, fmt.Errorf("validate: %w", err)
	}

	var doc struct {
		Functions map[string]string `json:"functions"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	out := make(Targets, len(doc.Functions))
	for key, url := range doc.Functions {
		mem, err := strconv.Atoi(key)
		if err != nil {
			return nil, fmt.Errorf("memory level %s: %w", key, err)
		}
		out[mem] = url
	}
	return out, nil
}

// ReadFile reads and parses the targets document at path.
func ReadFile(path string) (Targets, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return Parse(b)
}

// SSMAPI abstracts the SSM GetParameter operation for testability.
type SSMAPI interface {
	GetParameter(ctx context.Context, in *ssm.GetParameterInput, optFns ...func(*ssm.Options)) (*ssm.GetParameterOutput, error)
}

// Loader retrieves and caches targets documents from SSM Parameter Store.
type Loader struct {
	client SSMAPI
	cache  map[string]Targets
	mu     sync.Mutex
	log    *zap.SugaredLogger
}

// NewLoader creates a Loader using the provided SSM client and logger.
func NewLoader(client SSMAPI, log *zap.SugaredLogger) *Loader {
	return &Loader{client: client, cache: make(map[string]Targets), log: log}
}

// Load fetches the named parameter, caching the parsed result.
func (l *Loader) Load(ctx context.Context, name string) (Targets, error) {
	l.mu.Lock()
	if t, ok := l.cache[name]; ok {
		l.mu.Unlock()
		return t, nil
	}
	l.mu.Unlock()

	out, err := l.client.GetParameter(ctx, &ssm.GetParameterInput{Name: &name})
	if err != nil {
		return nil, fmt.Errorf("get parameter %s: %w", name, err)
	}
	if out.Parameter == nil || out.Parameter.Value == nil {
		return nil, fmt.Errorf("parameter %s has no value", name)
	}

	t, err := Parse([]byte(*out.Parameter.Value))
	if err != nil {
		return nil, fmt.Errorf("parameter %s: %w", name, err)
	}
	l.log.Infow("targets loaded", "parameter", name, "functions", len(t))

	l.mu.Lock()
	l.cache[name] = t
	l.mu.Unlock()
	return t, nil
}
