package results

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
	"go.uber.org/zap"

	"github.com/your-org/eratosthenes-lambda/internal/driver"
)

// PutItemAPI abstracts the DynamoDB PutItem operation.
type PutItemAPI interface {
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
}

// PutObjectAPI abstracts the S3 PutObject operation.
type PutObjectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

func num(v float64) types.AttributeValue {
	return &types.AttributeValueMemberN{Value: strconv.FormatFloat(v, 'f', -1, 64)}
}

// PutSummary writes one item per memory size of the report.
func PutSummary(ctx context.Context, db PutItemAPI, table, runID string, rep *driver.Report) error {
	for _, s := range rep.Stats {
		_, err := db.PutItem(ctx, &dynamodb.PutItemInput{
			TableName: &table,
			Item: map[string]types.AttributeValue{
				"RunID":      &types.AttributeValueMemberS{Value: runID},
				"MemoryMB":   num(float64(s.Memory)),
				"Executions": num(float64(s.Executions)),
				"AvgSeconds": num(s.AvgSeconds()),
				"CostUSD":    num(s.Cost()),
				"Max":        num(float64(rep.Max)),
				"Loops":      num(float64(rep.Loops)),
			},
		})
		if err != nil {
			return fmt.Errorf("put %dmb: %w", s.Memory, err)
		}
	}
	return nil
}

// UploadReport stores body under key, retrying once when S3 asks to slow down.
func UploadReport(ctx context.Context, client PutObjectAPI, bucket, key string, body []byte, log *zap.SugaredLogger) error {
	var err error
	for attempt := 0; attempt < 2; attempt++ {
		_, err = client.PutObject(ctx, &s3.PutObjectInput{
			Bucket:      &bucket,
			Key:         &key,
			Body:        bytes.NewReader(body),
			ContentType: aws.String("text/plain"),
		})
		if err == nil {
			log.Infow("report uploaded", "bucket", bucket, "key", key)
			return nil
		}
		var apiErr smithy.APIError
		if !errors.As(err, &apiErr) || apiErr.ErrorCode() != "SlowDown" {
			break
		}
		log.Warnw("s3 slow down, retrying", "key", key)
	}
	return fmt.Errorf("put report: %w", err)
}
