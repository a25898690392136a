package main

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"go.uber.org/zap"

	"github.com/your-org/eratosthenes-lambda/internal/bench"
)

type fakeCW struct {
	in  *cloudwatch.PutMetricDataInput
	err error
}

func (f *fakeCW) PutMetricData(ctx context.Context, in *cloudwatch.PutMetricDataInput, opt ...func(*cloudwatch.Options)) (*cloudwatch.PutMetricDataOutput, error) {
	f.in = in
	if f.err != nil {
		return nil, f.err
	}
	return &cloudwatch.PutMetricDataOutput{}, nil
}

func setup(cw metricsClient) {
	log = zap.NewNop().Sugar()
	runner = bench.NewRunner(log)
	cwClient = cw
	namespace = "Test"
	memorySize = "128"
}

func request(q map[string]string) events.APIGatewayProxyRequest {
	return events.APIGatewayProxyRequest{QueryStringParameters: q}
}

func TestHandlerSuccess(t *testing.T) {
	cw := &fakeCW{}
	setup(cw)
	resp, err := handler(context.Background(), request(map[string]string{"max": "30", "loops": "3"}))
	if err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if resp.StatusCode != 200 {
		t.Fatalf("unexpected status %d", resp.StatusCode)
	}
	if resp.Headers["Content-Type"] != "application/json" {
		t.Fatalf("unexpected headers: %v", resp.Headers)
	}
	var out map[string]any
	if err := json.Unmarshal([]byte(resp.Body), &out); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if out["max"] != float64(30) || out["loops"] != float64(3) {
		t.Fatalf("unexpected body: %s", resp.Body)
	}
	if d, ok := out["durationSeconds"].(float64); !ok || d < 0 {
		t.Fatalf("bad duration: %s", resp.Body)
	}
	if len(out) != 3 {
		t.Fatalf("unexpected fields: %s", resp.Body)
	}
	if cw.in == nil || *cw.in.Namespace != "Test" {
		t.Fatal("metric not sent")
	}
	if *cw.in.MetricData[0].Dimensions[0].Value != "128" {
		t.Fatal("memory dimension missing")
	}
}

func TestHandlerZeroLoops(t *testing.T) {
	setup(nil)
	resp, err := handler(context.Background(), request(map[string]string{"max": "100", "loops": "0"}))
	if err != nil || resp.StatusCode != 200 {
		t.Fatalf("unexpected response %d: %v", resp.StatusCode, err)
	}
}

func TestHandlerSmallMax(t *testing.T) {
	setup(nil)
	resp, err := handler(context.Background(), request(map[string]string{"max": "4", "loops": "2"}))
	if err != nil || resp.StatusCode != 200 {
		t.Fatalf("unexpected response %d: %v", resp.StatusCode, err)
	}
}

func TestHandlerBadInput(t *testing.T) {
	setup(nil)
	cases := []map[string]string{
		nil,
		{"max": "10"},
		{"max": "ten", "loops": "1"},
		{"max": "-3", "loops": "1"},
		{"max": "9223372036854775807", "loops": "1"},
		{"max": "50000001", "loops": "1"},
	}
	for _, q := range cases {
		resp, err := handler(context.Background(), request(q))
		if err != nil {
			t.Fatalf("handler error: %v", err)
		}
		if resp.StatusCode != 400 {
			t.Fatalf("query %v: expected 400, got %d", q, resp.StatusCode)
		}
		if resp.Headers["Content-Type"] != "application/json" {
			t.Fatalf("unexpected headers: %v", resp.Headers)
		}
	}
}

func TestHandlerMetricError(t *testing.T) {
	setup(&fakeCW{err: errors.New("throttled")})
	resp, err := handler(context.Background(), request(map[string]string{"max": "10", "loops": "1"}))
	if err != nil || resp.StatusCode != 200 {
		t.Fatalf("metric failure must not fail the request: %d %v", resp.StatusCode, err)
	}
}

func TestRealMain(t *testing.T) {
	called := false
	start := func(h interface{}) {
		if _, ok := h.(func(context.Context, events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error)); ok {
			called = true
		}
	}
	prev := loadConfig
	loadConfig = func(ctx context.Context, optFns ...func(*config.LoadOptions) error) (aws.Config, error) {
		return aws.Config{}, nil
	}
	defer func() { loadConfig = prev }()
	realMain(start)
	if !called {
		t.Fatal("start not called")
	}
	if cwClient == nil || runner == nil {
		t.Fatal("clients not initialised")
	}
}

func TestRealMainConfigError(t *testing.T) {
	prev := loadConfig
	loadConfig = func(ctx context.Context, optFns ...func(*config.LoadOptions) error) (aws.Config, error) {
		return aws.Config{}, errors.New("cfg")
	}
	defer func() { loadConfig = prev }()
	cwClient = nil
	realMain(func(interface{}) {})
	if cwClient != nil {
		t.Fatal("metrics should be disabled")
	}
}
