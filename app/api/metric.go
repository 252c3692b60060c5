package api

import (
	"context"

	"github.com/neoblog/neoblog/app/request"
	"github.com/neoblog/neoblog/app/response"
)

func (h *Handlers) ListMetrics(ctx context.Context, req *request.Request) *response.Response {
	limit := safeInt(req.QueryParams()["limit"], 20, 1, 200)
	records, err := h.metrics.Recent(limit)
	if err != nil {
		return serverError(err)
	}
	payload := []map[string]any{}
	for _, m := range records {
		payload = append(payload, map[string]any{
			"timestamp":     m.Timestamp,
			"latency_ms":    m.LatencyMS,
			"throughput":    m.Throughput,
			"rtt":           m.RTT,
			"request_count": m.RequestCount,
		})
	}
	return ok(map[string]any{"metrics": payload})
}

// RecordMetric accepts externally measured samples, mostly from browser-side
// timing probes.
func (h *Handlers) RecordMetric(ctx context.Context, req *request.Request) *response.Response {
	data := jsonObject(req)
	latency, okLatency := numberField(data, "latency_ms")
	throughput, okThroughput := numberField(data, "throughput")
	rtt, okRTT := numberField(data, "rtt")
	requestCount, okCount := numberField(data, "request_count")
	if !okLatency || !okThroughput || !okRTT || !okCount {
		return unprocessable("metric payload is malformed")
	}
	if err := h.metrics.Record(latency, throughput, rtt, int64(requestCount)); err != nil {
		return serverError(err)
	}
	return created(map[string]any{})
}

func numberField(object map[string]any, key string) (float64, bool) {
	value, isNumber := object[key].(float64)
	return value, isNumber
}
