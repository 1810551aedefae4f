package bridge

import (
	"fmt"
	"io"
	"time"

	"go.uber.org/zap"
	"google.golang.org/protobuf/encoding/prototext"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/reflect/protoreflect"

	"github.com/lk2023060901/proto-bridge-go/internal/schema"
	"github.com/lk2023060901/proto-bridge-go/pkg/log"
	"github.com/lk2023060901/proto-bridge-go/pkg/metrics"
	"github.com/lk2023060901/proto-bridge-go/pkg/util/merr"
)

// FormatMode 为 Format 的文本渲染模式。
type FormatMode string

const (
	// FormatDebug 渲染多行结构化文本，非 ASCII 字符转义输出。
	FormatDebug FormatMode = "debug"
	// FormatShort 渲染单行紧凑文本。
	FormatShort FormatMode = "short"
	// FormatUTF8 渲染多行文本并保留原始 UTF-8 字符。
	FormatUTF8 FormatMode = "utf8"
)

// DefaultMaxDepth 为消息嵌套深度的默认上限，
// 用于阻断病态深/自引用 schema 导致的无界递归。
const DefaultMaxDepth = 1000

// Options 用于构造 Bridge 的依赖注入参数。
type Options struct {
	// Registry 为类型解析与消息实例化来源，必填。
	Registry schema.Registry
	// MaxDepth 为嵌套深度上限，0 表示使用 DefaultMaxDepth。
	MaxDepth int
}

// Bridge 是“消息实例 <-> 动态值树”的双向转换引擎，
// 以及 serialize/deserialize/format 三个 wire 入口的组合器。
//
// Bridge 本身无可变状态：每次调用实例化自己的消息，
// 注册表与描述符只读共享，可安全并发使用。
type Bridge struct {
	registry schema.Registry
	maxDepth int
}

// New 创建一个基于给定依赖的 Bridge。
func New(opts Options) (*Bridge, error) {
	if opts.Registry == nil {
		return nil, fmt.Errorf("bridge: registry is nil")
	}
	maxDepth := opts.MaxDepth
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}
	return &Bridge{
		registry: opts.Registry,
		maxDepth: maxDepth,
	}, nil
}

// Decode 将消息实例转换为动态值树。
// 结果只包含已填充的字段。
func (b *Bridge) Decode(m proto.Message) (map[string]any, error) {
	d := &decoder{maxDepth: b.maxDepth}
	return d.decodeMessage(m.ProtoReflect(), 0)
}

// Encode 将动态值树写入消息实例。
// value 不是关联值时不做任何修改；字段级错误立即中止。
func (b *Bridge) Encode(value any, m proto.Message) error {
	e := &encoder{maxDepth: b.maxDepth}
	return e.encodeMessage(value, m.ProtoReflect(), 0)
}

// Serialize 将动态值树编码为 typeName 类型消息的二进制字节。
func (b *Bridge) Serialize(typeName string, value any) ([]byte, error) {
	start := time.Now()

	msg, err := b.buildMessage(typeName, value)
	if err != nil {
		metrics.BridgeSerializeTotal.WithLabelValues(metrics.StatusFail).Inc()
		return nil, err
	}

	data, err := proto.Marshal(msg)
	if err != nil {
		metrics.BridgeSerializeTotal.WithLabelValues(metrics.StatusFail).Inc()
		return nil, merr.WrapErrWireEncodeFailed(typeName, err)
	}

	metrics.BridgeSerializeTotal.WithLabelValues(metrics.StatusSuccess).Inc()
	metrics.BridgeConvertDuration.WithLabelValues(metrics.OpSerialize).
		Observe(float64(time.Since(start).Milliseconds()))
	metrics.BridgePayloadBytes.WithLabelValues(metrics.OpSerialize).Observe(float64(len(data)))
	return data, nil
}

// SerializeWith 编码后不产出字节，而是把仍由本次调用持有的消息
// 借给 consumer 使用。consumer 不得在返回后继续持有该消息；
// 无论 consumer 是否返回错误，消息都在本次调用结束时释放。
func (b *Bridge) SerializeWith(typeName string, value any, consumer func(msg proto.Message) error) error {
	if consumer == nil {
		return merr.WrapErrParameterMissing("consumer")
	}

	msg, err := b.buildMessage(typeName, value)
	if err != nil {
		metrics.BridgeSerializeTotal.WithLabelValues(metrics.StatusFail).Inc()
		return err
	}

	metrics.BridgeSerializeTotal.WithLabelValues(metrics.StatusSuccess).Inc()
	return consumer(msg)
}

// Deserialize 将二进制字节解析为 typeName 类型的消息并转换为动态值树。
func (b *Bridge) Deserialize(typeName string, data []byte) (any, error) {
	start := time.Now()

	msg, err := b.parseMessage(typeName, data)
	if err != nil {
		metrics.BridgeDeserializeTotal.WithLabelValues(metrics.StatusFail).Inc()
		return nil, err
	}

	value, err := b.Decode(msg)
	if err != nil {
		metrics.BridgeDeserializeTotal.WithLabelValues(metrics.StatusFail).Inc()
		log.RatedWarn(1, "bridge decode failed", log.FieldType(typeName), zap.Error(err))
		return nil, err
	}

	metrics.BridgeDeserializeTotal.WithLabelValues(metrics.StatusSuccess).Inc()
	metrics.BridgeConvertDuration.WithLabelValues(metrics.OpDeserialize).
		Observe(float64(time.Since(start).Milliseconds()))
	metrics.BridgePayloadBytes.WithLabelValues(metrics.OpDeserialize).Observe(float64(len(data)))
	return value, nil
}

// DeserializeFrom 与 Deserialize 相同，字节来源为 io.Reader。
func (b *Bridge) DeserializeFrom(typeName string, r io.Reader) (any, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, merr.WrapErrIoFailed(typeName, err)
	}
	return b.Deserialize(typeName, data)
}

// Format 将二进制字节解析后按 mode 渲染为文本。
func (b *Bridge) Format(typeName string, data []byte, mode FormatMode) (string, error) {
	msg, err := b.parseMessage(typeName, data)
	if err != nil {
		metrics.BridgeFormatTotal.WithLabelValues(metrics.StatusFail).Inc()
		return "", err
	}

	var opts prototext.MarshalOptions
	switch mode {
	case FormatDebug:
		opts = prototext.MarshalOptions{Multiline: true, Indent: "  ", EmitASCII: true}
	case FormatShort:
		opts = prototext.MarshalOptions{EmitASCII: true}
	case FormatUTF8:
		opts = prototext.MarshalOptions{Multiline: true, Indent: "  "}
	default:
		metrics.BridgeFormatTotal.WithLabelValues(metrics.StatusFail).Inc()
		return "", merr.WrapErrParameterInvalid("debug|short|utf8", string(mode))
	}

	out, err := opts.Marshal(msg)
	if err != nil {
		metrics.BridgeFormatTotal.WithLabelValues(metrics.StatusFail).Inc()
		return "", merr.WrapErrWireEncodeFailed(typeName, err)
	}

	metrics.BridgeFormatTotal.WithLabelValues(metrics.StatusSuccess).Inc()
	return string(out), nil
}

// FormatFrom 与 Format 相同，字节来源为 io.Reader。
func (b *Bridge) FormatFrom(typeName string, r io.Reader, mode FormatMode) (string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", merr.WrapErrIoFailed(typeName, err)
	}
	return b.Format(typeName, data, mode)
}

// buildMessage 实例化空白消息并编码动态值树。
func (b *Bridge) buildMessage(typeName string, value any) (proto.Message, error) {
	md, err := b.registry.Resolve(protoreflect.FullName(typeName))
	if err != nil {
		return nil, err
	}
	msg := b.registry.NewMessage(md)
	if err := b.Encode(value, msg); err != nil {
		log.RatedWarn(1, "bridge encode failed", log.FieldType(typeName), zap.Error(err))
		return nil, err
	}
	return msg, nil
}

// parseMessage 实例化空白消息并解析二进制字节。
func (b *Bridge) parseMessage(typeName string, data []byte) (proto.Message, error) {
	md, err := b.registry.Resolve(protoreflect.FullName(typeName))
	if err != nil {
		return nil, err
	}
	msg := b.registry.NewMessage(md)
	if err := proto.Unmarshal(data, msg); err != nil {
		return nil, merr.WrapErrWireDecodeFailed(typeName, err)
	}
	return msg, nil
}
