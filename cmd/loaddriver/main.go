package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/your-org/eratosthenes-lambda/internal/driver"
	"github.com/your-org/eratosthenes-lambda/internal/results"
	"github.com/your-org/eratosthenes-lambda/internal/targets"
)

var (
	loadConfig = config.LoadDefaultConfig
	httpClient = http.DefaultClient
	now        = time.Now
	log        *zap.SugaredLogger
	newLogger  = func() (*zap.Logger, error) { return zap.NewProduction() }

	newSSM    = func(cfg aws.Config) targets.SSMAPI { return ssm.NewFromConfig(cfg) }
	newDynamo = func(cfg aws.Config) results.PutItemAPI { return dynamodb.NewFromConfig(cfg) }
	newS3     = func(cfg aws.Config) results.PutObjectAPI { return s3.NewFromConfig(cfg) }
)

type options struct {
	driver.Config
	configFile   string
	ssmParam     string
	resultsTable string
	reportBucket string
}

func (o options) usesAWS() bool {
	return o.ssmParam != "" || o.resultsTable != "" || o.reportBucket != ""
}

func newRootCmd(out io.Writer) *cobra.Command {
	var o options
	cmd := &cobra.Command{
		Use:           "loaddriver",
		Short:         "Invoke the Eratosthenes function at several memory sizes and price the run",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), o, out)
		},
	}
	f := cmd.Flags()
	f.IntVar(&o.Max, "max", 1000000, "maximum number to search for primes (<=2M to not cause out of memory in the lowest Lambda memory setting)")
	f.IntVar(&o.Execs, "execs", 20, "number of times to execute the Lambda function")
	f.IntVar(&o.Loops, "loops", 1, "number of times to repeat the search for primes (without consuming additional memory)")
	f.IntVar(&o.Concurrency, "conc", 80, "limit of concurrently running Lambda functions")
	f.StringVar(&o.configFile, "config", "config.json", "name of config file")
	f.StringVar(&o.ssmParam, "ssm-param", "", "SSM parameter holding the targets document (overrides --config)")
	f.StringVar(&o.resultsTable, "results-table", "", "DynamoDB table receiving the run summary")
	f.StringVar(&o.reportBucket, "report-bucket", "", "S3 bucket receiving the text report")
	return cmd
}

func run(ctx context.Context, o options, out io.Writer) error {
	d, err := driver.New(o.Config, httpClient, log)
	if err != nil {
		return err
	}

	var cfg aws.Config
	if o.usesAWS() {
		cfg, err = loadConfig(ctx)
		if err != nil {
			return fmt.Errorf("load aws config: %w", err)
		}
	}

	var t targets.Targets
	if o.ssmParam != "" {
		t, err = targets.NewLoader(newSSM(cfg), log).Load(ctx, o.ssmParam)
	} else {
		t, err = targets.ReadFile(o.configFile)
	}
	if err != nil {
		return fmt.Errorf("load targets: %w", err)
	}

	fmt.Fprintln(out, "Working...")
	rep, runErr := d.Run(ctx, t)
	if runErr != nil {
		log.Warnw("run finished with errors", "errors", rep.Errors)
	}

	var buf bytes.Buffer
	if _, err := rep.WriteTo(&buf); err != nil {
		return err
	}
	if _, err := out.Write(buf.Bytes()); err != nil {
		return err
	}

	runID := now().UTC().Format("20060102T150405Z")
	if o.resultsTable != "" {
		if err := results.PutSummary(ctx, newDynamo(cfg), o.resultsTable, runID, rep); err != nil {
			return fmt.Errorf("write summary: %w", err)
		}
	}
	if o.reportBucket != "" {
		key := "reports/" + runID + ".txt"
		if err := results.UploadReport(ctx, newS3(cfg), o.reportBucket, key, buf.Bytes(), log); err != nil {
			return err
		}
	}
	return nil
}

// realMain runs the CLI and returns the process exit code. The logger is
// flushed before it returns.
func realMain(args []string, out io.Writer) int {
	logger, err := newLogger()
	if err != nil {
		fmt.Fprintf(os.Stderr, "create logger: %v\n", err)
		return 1
	}
	log = logger.Sugar()
	defer func() { _ = logger.Sync() }()

	cmd := newRootCmd(out)
	cmd.SetArgs(args)
	if err := cmd.ExecuteContext(context.Background()); err != nil {
		log.Errorw("load driver", "error", err)
		return 1
	}
	return 0
}

func main() {
	os.Exit(realMain(os.Args[1:], os.Stdout))
}
