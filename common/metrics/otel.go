package metrics

import (
	"context"
	"fmt"
	"net/url"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"

	"github.com/ceramicnetwork/go-sqs-flow/common"
	"github.com/ceramicnetwork/go-sqs-flow/common/config"
	"github.com/ceramicnetwork/go-sqs-flow/models"
)

var _ models.MetricService = &OtelMetricService{}

type OtelMetricService struct {
	meterProvider *sdkmetric.MeterProvider
	meter         metric.Meter
	logger        models.Logger
	counters      map[models.MetricName]metric.Int64Counter
	mu            sync.Mutex
}

// NewMetricService exports over OTLP/HTTP when an endpoint is configured, to stdout when requested, and otherwise
// discards everything.
func NewMetricService(ctx context.Context, settings *config.Settings, logger models.Logger) (models.MetricService, error) {
	var exporter sdkmetric.Exporter
	var err error
	if len(settings.MetricsEndpoint) > 0 {
		if exporter, err = newOtlpExporter(ctx, settings.MetricsEndpoint); err != nil {
			return nil, err
		}
		logger.Infof("metrics: exporting to %s", settings.MetricsEndpoint)
	} else if settings.MetricsStdout {
		if exporter, err = stdoutmetric.New(); err != nil {
			return nil, fmt.Errorf("metrics: failed to create stdout exporter: %w", err)
		}
		logger.Infof("metrics: exporting to stdout")
	} else {
		logger.Infof("metrics: disabled")
		return &NoOpMetricService{}, nil
	}
	return newOtelMetricService(sdkmetric.NewPeriodicReader(exporter), settings.Env, logger), nil
}

func newOtelMetricService(reader sdkmetric.Reader, env string, logger models.Logger) *OtelMetricService {
	res := resource.NewSchemaless(
		attribute.String("service.name", common.ServiceName),
		attribute.String("deployment.environment", env),
	)
	meterProvider := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(reader),
		sdkmetric.WithResource(res),
	)
	otel.SetMeterProvider(meterProvider)
	return &OtelMetricService{
		meterProvider: meterProvider,
		meter:         meterProvider.Meter(models.MetricsCallerName),
		logger:        logger,
		counters:      make(map[models.MetricName]metric.Int64Counter),
	}
}

func newOtlpExporter(ctx context.Context, endpoint string) (sdkmetric.Exporter, error) {
	parsedUrl, err := url.Parse(endpoint)
	if err != nil {
		return nil, fmt.Errorf("metrics: invalid endpoint %s: %w", endpoint, err)
	}
	opts := []otlpmetrichttp.Option{otlpmetrichttp.WithEndpoint(parsedUrl.Host)}
	if len(parsedUrl.Path) > 0 && parsedUrl.Path != "/" {
		opts = append(opts, otlpmetrichttp.WithURLPath(parsedUrl.Path))
	}
	if parsedUrl.Scheme == "http" {
		opts = append(opts, otlpmetrichttp.WithInsecure())
	}
	if exporter, err := otlpmetrichttp.New(ctx, opts...); err != nil {
		return nil, fmt.Errorf("metrics: failed to create otlp exporter: %w", err)
	} else {
		return exporter, nil
	}
}

func (o *OtelMetricService) Count(ctx context.Context, name models.MetricName, val int) error {
	counter, err := o.counter(name)
	if err != nil {
		o.logger.Errorf("metrics: error creating counter %s: %v", name, err)
		return err
	}
	counter.Add(ctx, int64(val))
	return nil
}

func (o *OtelMetricService) counter(name models.MetricName) (metric.Int64Counter, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if counter, found := o.counters[name]; found {
		return counter, nil
	}
	counter, err := o.meter.Int64Counter(string(name))
	if err != nil {
		return nil, err
	}
	o.counters[name] = counter
	return counter, nil
}

// Shutdown flushes any pending measurements.
func (o *OtelMetricService) Shutdown(ctx context.Context) {
	if err := o.meterProvider.Shutdown(ctx); err != nil {
		o.logger.Errorf("metrics: error shutting down meter provider: %v", err)
	}
}
