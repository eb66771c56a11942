package metrics

import (
	"context"
	"log"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"
)

const (
	namespace                = "MAGDA/Harmony"
	httpStatusServerError    = 500
	cloudwatchTimeoutSeconds = 5
)

// Client wraps CloudWatch client for custom metrics. A nil or disabled
// client drops every record.
type Client struct {
	client      *cloudwatch.Client
	enabled     bool
	environment string
}

// NewClient creates a new CloudWatch metrics client
func NewClient(ctx context.Context, environment string) (*Client, error) {
	// Only enable in production
	if environment != "production" {
		log.Printf("📊 CloudWatch Metrics: DISABLED (environment: %s)", environment)
		return &Client{
			enabled:     false,
			environment: environment,
		}, nil
	}

	cfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		log.Printf("⚠️  Failed to load AWS config for CloudWatch: %v", err)
		return &Client{enabled: false}, nil
	}

	client := cloudwatch.NewFromConfig(cfg)
	log.Printf("📊 CloudWatch Metrics: ✅ ENABLED (namespace: %s)", namespace)

	return &Client{
		client:      client,
		enabled:     true,
		environment: environment,
	}, nil
}

func (m *Client) active() bool { return m != nil && m.enabled }

func (m *Client) envDimension() types.Dimension {
	return types.Dimension{
		Name:  aws.String("Environment"),
		Value: aws.String(m.environment),
	}
}

// RecordAPIRequest records an API request metric
func (m *Client) RecordAPIRequest(endpoint string, statusCode int, duration time.Duration) {
	if !m.active() {
		return
	}

	go func() {
		ctx := context.Background()
		metricName := "APIRequests"
		if statusCode >= httpStatusServerError {
			metricName = "APIErrors"
		}

		dimensions := []types.Dimension{
			{
				Name:  aws.String("Endpoint"),
				Value: aws.String(endpoint),
			},
			m.envDimension(),
		}

		if err := m.putMetric(ctx, metricName, 1, types.StandardUnitCount, dimensions); err != nil {
			log.Printf("Failed to record %s metric: %v", metricName, err)
		}

		latencyMs := float64(duration.Milliseconds())
		if err := m.putMetric(ctx, "APILatency", latencyMs, types.StandardUnitMilliseconds, dimensions); err != nil {
			log.Printf("Failed to record APILatency metric: %v", err)
		}
	}()
}

// RecordArrangement records an arrangement's duration and size
func (m *Client) RecordArrangement(duration time.Duration, sections, notes int, success bool) {
	if !m.active() {
		return
	}

	go func() {
		ctx := context.Background()
		dimensions := []types.Dimension{
			{
				Name:  aws.String("Success"),
				Value: aws.String(boolToString(success)),
			},
			m.envDimension(),
		}

		durationMs := float64(duration.Milliseconds())
		if err := m.putMetric(ctx, "ArrangementDuration", durationMs, types.StandardUnitMilliseconds, dimensions); err != nil {
			log.Printf("Failed to record ArrangementDuration metric: %v", err)
		}
		if !success {
			return
		}
		if err := m.putMetric(ctx, "ArrangementSections", float64(sections), types.StandardUnitCount, dimensions); err != nil {
			log.Printf("Failed to record ArrangementSections metric: %v", err)
		}
		if err := m.putMetric(ctx, "ArrangementNotes", float64(notes), types.StandardUnitCount, dimensions); err != nil {
			log.Printf("Failed to record ArrangementNotes metric: %v", err)
		}
	}()
}

// RecordFindings records counterpoint errors and warnings per validation
func (m *Client) RecordFindings(errors, warnings int) {
	if !m.active() {
		return
	}

	go func() {
		ctx := context.Background()
		dimensions := []types.Dimension{m.envDimension()}

		if err := m.putMetric(ctx, "CounterpointErrors", float64(errors), types.StandardUnitCount, dimensions); err != nil {
			log.Printf("Failed to record CounterpointErrors metric: %v", err)
		}
		if err := m.putMetric(ctx, "CounterpointWarnings", float64(warnings), types.StandardUnitCount, dimensions); err != nil {
			log.Printf("Failed to record CounterpointWarnings metric: %v", err)
		}
	}()
}

// RecordInfeasible counts voicing failures by eliminating constraint
func (m *Client) RecordInfeasible(constraint string) {
	if !m.active() {
		return
	}

	go func() {
		ctx := context.Background()
		dimensions := []types.Dimension{
			{
				Name:  aws.String("Constraint"),
				Value: aws.String(constraint),
			},
			m.envDimension(),
		}

		if err := m.putMetric(ctx, "InfeasibleVoicings", 1, types.StandardUnitCount, dimensions); err != nil {
			log.Printf("Failed to record InfeasibleVoicings metric: %v", err)
		}
	}()
}

// putMetric sends a metric to CloudWatch
func (m *Client) putMetric(
	_ context.Context,
	metricName string,
	value float64,
	unit types.StandardUnit,
	dimensions []types.Dimension,
) error {
	if !m.active() || m.client == nil {
		return nil
	}

	// Create context with timeout for CloudWatch call
	timeout := time.Duration(cloudwatchTimeoutSeconds) * time.Second
	cwCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	_, err := m.client.PutMetricData(cwCtx, &cloudwatch.PutMetricDataInput{
		Namespace: aws.String(namespace),
		MetricData: []types.MetricDatum{
			{
				MetricName: aws.String(metricName),
				Value:      aws.Float64(value),
				Unit:       unit,
				Timestamp:  aws.Time(time.Now()),
				Dimensions: dimensions,
			},
		},
	})

	return err
}

func boolToString(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
