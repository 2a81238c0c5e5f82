package telemetry

import (
	"context"
	"net/http"
	"sync"

	"github.com/lumenshop/storefront/internal/logger"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

const meterName = "github.com/lumenshop/storefront"

type instruments struct {
	cartMirrorFailures metric.Int64Counter
	ordersPlaced       metric.Int64Counter
	orderTransitions   metric.Int64Counter
	remoteUnavailable  metric.Int64Counter
}

var (
	instrumentsOnce sync.Once
	active          *instruments
)

// InitMeterProvider 初始化 Prometheus 导出器，返回 /metrics 处理器
func InitMeterProvider(serviceName, serviceVersion string) (http.Handler, ShutdownFunc, error) {
	exporter, err := prometheus.New()
	if err != nil {
		return nil, nil, err
	}
	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(exporter),
		sdkmetric.WithResource(newResource(serviceName, serviceVersion)),
	)
	otel.SetMeterProvider(mp)
	return promhttp.Handler(), mp.Shutdown, nil
}

// 全局 MeterProvider 会把此前创建的指标委托给后续设置的实现
func load() *instruments {
	instrumentsOnce.Do(func() {
		meter := otel.Meter(meterName)
		inst := &instruments{}
		var err error
		if inst.cartMirrorFailures, err = meter.Int64Counter("storefront.cart.mirror.failures",
			metric.WithDescription("Cart mirror writes that failed and were kept only in memory")); err != nil {
			logger.Warnw("metric_register_failed", "name", "cart_mirror_failures", "error", err)
		}
		if inst.ordersPlaced, err = meter.Int64Counter("storefront.orders.placed",
			metric.WithDescription("Orders persisted at checkout")); err != nil {
			logger.Warnw("metric_register_failed", "name", "orders_placed", "error", err)
		}
		if inst.orderTransitions, err = meter.Int64Counter("storefront.orders.transitions",
			metric.WithDescription("Order status transitions by target status")); err != nil {
			logger.Warnw("metric_register_failed", "name", "order_transitions", "error", err)
		}
		if inst.remoteUnavailable, err = meter.Int64Counter("storefront.remote.unavailable",
			metric.WithDescription("Remote calls that timed out or could not reach the backend")); err != nil {
			logger.Warnw("metric_register_failed", "name", "remote_unavailable", "error", err)
		}
		active = inst
	})
	return active
}

// RecordCartMirrorFailure 记录购物车镜像写入失败
func RecordCartMirrorFailure(ctx context.Context, operation string) {
	if c := load().cartMirrorFailures; c != nil {
		c.Add(ctx, 1, metric.WithAttributes(attribute.String("operation", operation)))
	}
}

// RecordOrderPlaced 记录下单成功
func RecordOrderPlaced(ctx context.Context) {
	if c := load().ordersPlaced; c != nil {
		c.Add(ctx, 1)
	}
}

// RecordOrderTransition 记录订单状态流转
func RecordOrderTransition(ctx context.Context, from, to, actor string) {
	if c := load().orderTransitions; c != nil {
		c.Add(ctx, 1, metric.WithAttributes(
			attribute.String("from", from),
			attribute.String("to", to),
			attribute.String("actor", actor),
		))
	}
}

// RecordRemoteUnavailable 记录远端不可用
func RecordRemoteUnavailable(ctx context.Context, operation string) {
	if c := load().remoteUnavailable; c != nil {
		c.Add(ctx, 1, metric.WithAttributes(attribute.String("operation", operation)))
	}
}
