// Licensed to the LF AI & Data foundation under one
// or more contributor license agreements. See the NOTICE file
// distributed with this work for additional information
// regarding copyright ownership. The ASF licenses this file
// to you under the Apache License, Version 2.0 (the
// "License"); you may not use this file except in compliance
// with the License. You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	// bridgeNamespace 是当前项目所有 Prometheus 指标使用的命名空间。
	bridgeNamespace = "protobridge"

	bridgeSubsystem = "bridge"

	// 以下为当前使用的通用标签名。
	statusLabelName = "status"
	opLabelName     = "op"

	StatusSuccess = "success"
	StatusFail    = "fail"

	OpSerialize   = "serialize"
	OpDeserialize = "deserialize"
	OpFormat      = "format"
)

var (
	// buckets 为转换耗时直方图的桶划分，单位为毫秒。
	// 实际桶分布为：
	// [1 2 4 8 16 32 64 128 256 512 1024 2048 4096 8192 16384 32768 65536 1.31072e+05]
	buckets = prometheus.ExponentialBuckets(1, 2, 18)

	// payloadBuckets 为二进制载荷大小的桶划分，单位为字节。
	payloadBuckets = []float64{64, 256, 1024, 4096, 16384, 65536, 262144, 1048576, 4194304, 16777216}

	BridgeSerializeTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: bridgeNamespace,
			Subsystem: bridgeSubsystem,
			Name:      "serialize_total",
			Help:      "serialize 调用总次数，按结果状态区分",
		}, []string{statusLabelName})

	BridgeDeserializeTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: bridgeNamespace,
			Subsystem: bridgeSubsystem,
			Name:      "deserialize_total",
			Help:      "deserialize 调用总次数，按结果状态区分",
		}, []string{statusLabelName})

	BridgeFormatTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: bridgeNamespace,
			Subsystem: bridgeSubsystem,
			Name:      "format_total",
			Help:      "format 调用总次数，按结果状态区分",
		}, []string{statusLabelName})

	BridgeConvertDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: bridgeNamespace,
			Subsystem: bridgeSubsystem,
			Name:      "convert_duration_ms",
			Help:      "单次转换耗时，单位毫秒",
			Buckets:   buckets,
		}, []string{opLabelName})

	BridgePayloadBytes = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: bridgeNamespace,
			Subsystem: bridgeSubsystem,
			Name:      "payload_bytes",
			Help:      "二进制载荷大小，单位字节",
			Buckets:   payloadBuckets,
		}, []string{opLabelName})
)

var bridgeMetricsRegisterOnce sync.Once

// RegisterBridgeMetrics 将转换引擎相关指标注册到给定的 Registry 上。
// 重复调用只会注册一次。
func RegisterBridgeMetrics(registry *prometheus.Registry) {
	bridgeMetricsRegisterOnce.Do(func() {
		registry.MustRegister(BridgeSerializeTotal)
		registry.MustRegister(BridgeDeserializeTotal)
		registry.MustRegister(BridgeFormatTotal)
		registry.MustRegister(BridgeConvertDuration)
		registry.MustRegister(BridgePayloadBytes)
	})
}
