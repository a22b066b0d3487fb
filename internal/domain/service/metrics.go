// Package service defines the collaborator interfaces of the esign request pipeline.
package service

import (
	"time"
)

// Metrics defines the interface for collecting client metrics.
// This abstraction keeps the pipeline independent of the monitoring backend (e.g., Prometheus).
// Metrics 定义了收集客户端指标的接口。
type Metrics interface {
	// RecordCall records the outcome and latency of one logical call.
	// RecordCall 记录一次逻辑调用的结果和耗时。
	RecordCall(operation, method, result string, duration time.Duration)

	// RecordAttempt counts one transport call.
	RecordAttempt(method string)

	// RecordRetry counts one refresh-and-resubmit cycle.
	// RecordRetry 记录一次刷新令牌并重新提交。
	RecordRetry(method string)

	// RecordTokenRefresh records a fetch from the token endpoint.
	RecordTokenRefresh(success bool, duration time.Duration)

	// RecordDomainError counts a nonzero envelope code surfaced to a caller.
	RecordDomainError(code int)
}

type noopMetrics struct{}

// NewNoopMetrics returns a Metrics that records nothing.
func NewNoopMetrics() Metrics { return noopMetrics{} }

func (noopMetrics) RecordCall(string, string, string, time.Duration) {}
func (noopMetrics) RecordAttempt(string)                             {}
func (noopMetrics) RecordRetry(string)                               {}
func (noopMetrics) RecordTokenRefresh(bool, time.Duration)           {}
func (noopMetrics) RecordDomainError(int)                            {}
