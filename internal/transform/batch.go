package transform

import (
	"context"

	"go.uber.org/atomic"
	"go.uber.org/zap"

	"github.com/lk2023060901/proto-bridge-go/internal/bridge"
	"github.com/lk2023060901/proto-bridge-go/pkg/log"
	"github.com/lk2023060901/proto-bridge-go/pkg/util/conc"
	"github.com/lk2023060901/proto-bridge-go/pkg/util/merr"
)

// Stats 是一次 BatchTranscoder 生命周期内的累计转换计数。
type Stats struct {
	Serialized   int64
	Deserialized int64
	Failed       int64
}

// BatchTranscoder 将单条转换能力铺到协程池上，对同类型的成批载荷做并行转换。
// 结果与输入一一对应、保持顺序；任何一条失败都会聚合进返回错误。
type BatchTranscoder struct {
	bridge *bridge.Bridge
	pool   *conc.Pool[any]

	serialized   atomic.Int64
	deserialized atomic.Int64
	failed       atomic.Int64
}

// NewBatchTranscoder 创建一个 worker 数为 workers 的批量转换器。
func NewBatchTranscoder(b *bridge.Bridge, workers int) (*BatchTranscoder, error) {
	if b == nil {
		return nil, merr.WrapErrParameterMissing("bridge")
	}
	if workers <= 0 {
		return nil, merr.WrapErrParameterInvalidMsg("workers must be positive, got %d", workers)
	}
	return &BatchTranscoder{
		bridge: b,
		pool:   conc.NewPool[any](workers, conc.WithPreAlloc(true)),
	}, nil
}

// DeserializeAll 并行解析一批同类型的二进制载荷。
// 第 i 个结果对应第 i 条载荷；整体错误为各条错误的聚合。
func (t *BatchTranscoder) DeserializeAll(ctx context.Context, typeName string, payloads [][]byte) ([]any, error) {
	futures := make([]*conc.Future[any], len(payloads))
	for i, payload := range payloads {
		data := payload
		futures[i] = t.pool.Submit(func() (any, error) {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			return t.bridge.Deserialize(typeName, data)
		})
	}

	results := make([]any, len(futures))
	errs := make([]error, 0, len(futures))
	for i, future := range futures {
		value, err := future.Await()
		if err != nil {
			t.failed.Inc()
			errs = append(errs, err)
			continue
		}
		t.deserialized.Inc()
		results[i] = value
	}

	if err := merr.Combine(errs...); err != nil {
		log.Ctx(ctx).Warn("batch deserialize partially failed",
			log.FieldType(typeName),
			zap.Int("total", len(payloads)),
			zap.Int("failed", len(errs)))
		return results, err
	}
	return results, nil
}

// SerializeAll 并行编码一批同类型的动态值树。
func (t *BatchTranscoder) SerializeAll(ctx context.Context, typeName string, values []any) ([][]byte, error) {
	futures := make([]*conc.Future[any], len(values))
	for i, value := range values {
		v := value
		futures[i] = t.pool.Submit(func() (any, error) {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			return t.bridge.Serialize(typeName, v)
		})
	}

	results := make([][]byte, len(futures))
	errs := make([]error, 0, len(futures))
	for i, future := range futures {
		value, err := future.Await()
		if err != nil {
			t.failed.Inc()
			errs = append(errs, err)
			continue
		}
		t.serialized.Inc()
		results[i] = value.([]byte)
	}

	if err := merr.Combine(errs...); err != nil {
		log.Ctx(ctx).Warn("batch serialize partially failed",
			log.FieldType(typeName),
			zap.Int("total", len(values)),
			zap.Int("failed", len(errs)))
		return results, err
	}
	return results, nil
}

// Stats 返回累计计数的快照。
func (t *BatchTranscoder) Stats() Stats {
	return Stats{
		Serialized:   t.serialized.Load(),
		Deserialized: t.deserialized.Load(),
		Failed:       t.failed.Load(),
	}
}

// Close 关闭底层协程池。
func (t *BatchTranscoder) Close() {
	t.pool.Release()
}
