package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"os"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	cwtypes "github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"
	"go.uber.org/zap"

	"github.com/your-org/eratosthenes-lambda/internal/bench"
)

var (
	lambdaStart = lambda.Start
	loadConfig  = config.LoadDefaultConfig
	namespace   = envOr("METRICS_NAMESPACE", "Eratosthenes")
	memorySize  = os.Getenv("AWS_LAMBDA_FUNCTION_MEMORY_SIZE")
	log         *zap.SugaredLogger
	cwClient    metricsClient
	runner      *bench.Runner
)

type metricsClient interface {
	PutMetricData(ctx context.Context, in *cloudwatch.PutMetricDataInput, optFns ...func(*cloudwatch.Options)) (*cloudwatch.PutMetricDataOutput, error)
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func jsonResponse(status int, v any) events.APIGatewayProxyResponse {
	body, _ := json.Marshal(v)
	return events.APIGatewayProxyResponse{
		StatusCode: status,
		Headers:    map[string]string{"Content-Type": "application/json"},
		Body:       string(body),
	}
}

func handler(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	p, err := bench.ParseParams(req.QueryStringParameters)
	if err != nil {
		log.Warnw("rejected request", "error", err)
		return jsonResponse(http.StatusBadRequest, map[string]string{"error": err.Error()}), nil
	}

	res, err := runner.Run(p)
	if err != nil {
		if errors.Is(err, bench.ErrInvalidInput) {
			return jsonResponse(http.StatusBadRequest, map[string]string{"error": err.Error()}), nil
		}
		log.Errorw("run", "error", err)
		return jsonResponse(http.StatusInternalServerError, map[string]string{"error": "internal error"}), nil
	}

	putDuration(ctx, res)
	log.Infow("benchmark complete", "max", res.Max, "loops", res.Loops, "durationSeconds", res.DurationSeconds)
	return jsonResponse(http.StatusOK, res), nil
}

func putDuration(ctx context.Context, res bench.Result) {
	if cwClient == nil {
		return
	}
	datum := cwtypes.MetricDatum{
		MetricName: aws.String("DurationSeconds"),
		Unit:       cwtypes.StandardUnitSeconds,
		Value:      aws.Float64(res.DurationSeconds),
	}
	if memorySize != "" {
		datum.Dimensions = []cwtypes.Dimension{{Name: aws.String("MemoryMB"), Value: aws.String(memorySize)}}
	}
	_, err := cwClient.PutMetricData(ctx, &cloudwatch.PutMetricDataInput{
		Namespace:  aws.String(namespace),
		MetricData: []cwtypes.MetricDatum{datum},
	})
	if err != nil {
		log.Warnw("put metric", "error", err)
	}
}

func realMain(start func(interface{})) {
	logger, _ := zap.NewProduction()
	log = logger.Sugar()
	log.Info("loading function")

	cfg, err := loadConfig(context.Background())
	if err != nil {
		log.Warnw("aws config unavailable, metrics disabled", "error", err)
	} else {
		cwClient = cloudwatch.NewFromConfig(cfg)
	}
	runner = bench.NewRunner(log)
	start(handler)
}

func main() {
	realMain(lambdaStart)
}
