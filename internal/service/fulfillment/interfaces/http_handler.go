// internal/service/fulfillment/interfaces/http_handler.go
package interfaces

import (
	"encoding/json"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"

	"tradepost/internal/pkg/logger"
	"tradepost/internal/service/fulfillment/application"
)

const serviceName = "fulfillment-service"

// FulfillmentHandler 封装了履约服务的 HTTP 处理器。
// 唯一的业务入口是入队：结算完成后调用，立即返回 202。
type FulfillmentHandler struct {
	service *application.FulfillmentService
}

func NewFulfillmentHandler(service *application.FulfillmentService) *FulfillmentHandler {
	return &FulfillmentHandler{service: service}
}

// RegisterRoutes 在 ServeMux 上注册所有路由。
func (h *FulfillmentHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("POST /orders/fulfill", h.fulfillOrderHandler)
}

func (h *FulfillmentHandler) fulfillOrderHandler(w http.ResponseWriter, r *http.Request) {
	propagator := otel.GetTextMapPropagator()
	ctx := propagator.Extract(r.Context(), propagation.HeaderCarrier(r.Header))

	tracer := otel.Tracer(serviceName)
	ctx, span := tracer.Start(ctx, "http.FulfillOrder")
	defer span.End()

	var req application.FulfillOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		enqueueRequests.WithLabelValues("bad_request").Inc()
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.OrderID == "" || req.UserID == "" {
		enqueueRequests.WithLabelValues("bad_request").Inc()
		http.Error(w, "orderId and userId are required", http.StatusBadRequest)
		return
	}

	resp, err := h.service.RequestFulfillment(ctx, &req)
	if err != nil {
		logger.Ctx(ctx).Error().Err(err).Str("orderId", req.OrderID).Msg("failed to enqueue fulfillment")
		enqueueRequests.WithLabelValues("error").Inc()
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	enqueueRequests.WithLabelValues("accepted").Inc()
	// 202: 请求已接受，结果通过推送异步送达
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(resp)
}
