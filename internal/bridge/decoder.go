package bridge

import (
	"google.golang.org/protobuf/reflect/protoreflect"

	"github.com/lk2023060901/proto-bridge-go/pkg/util/merr"
)

// decoder 负责“消息实例 -> 动态值树”的递归转换。
// 仅输出已填充的字段；未填充的 singular 字段在结果中完全缺失。
type decoder struct {
	maxDepth int
}

// decodeMessage 将消息的全部已填充字段转换为一个关联值。
func (d *decoder) decodeMessage(m protoreflect.Message, depth int) (map[string]any, error) {
	if depth > d.maxDepth {
		return nil, merr.WrapErrDepthLimitExceeded(d.maxDepth,
			"decode "+string(m.Descriptor().FullName()))
	}

	out := make(map[string]any)
	var rangeErr error
	m.Range(func(fd protoreflect.FieldDescriptor, v protoreflect.Value) bool {
		val, err := d.decodeField(fd, v, depth)
		if err != nil {
			rangeErr = err
			return false
		}
		out[string(fd.Name())] = val
		return true
	})
	if rangeErr != nil {
		return nil, rangeErr
	}
	return out, nil
}

func (d *decoder) decodeField(fd protoreflect.FieldDescriptor, v protoreflect.Value, depth int) (any, error) {
	cls := Classify(fd)
	switch {
	case cls.IsMap:
		return d.decodeMap(fd, v, depth)
	case cls.Cardinality == CardinalityRepeated:
		return d.decodeList(fd, cls, v, depth)
	default:
		return d.decodeSingular(fd, cls.Kind, v, depth, false)
	}
}

// decodeSingular 转换单个标量/枚举/子消息值。
// inList 表示该值位于 repeated 字段内部：未知枚举数值在 repeated 内
// 用占位串代替，在 singular 场景则中止整个解码。
func (d *decoder) decodeSingular(fd protoreflect.FieldDescriptor, kind ValueKind, v protoreflect.Value, depth int, inList bool) (any, error) {
	switch kind {
	case ValueKindInt32, ValueKindInt64:
		return v.Int(), nil
	case ValueKindUint32, ValueKindUint64:
		return v.Uint(), nil
	case ValueKindDouble, ValueKindFloat:
		return v.Float(), nil
	case ValueKindBool:
		return v.Bool(), nil
	case ValueKindString:
		return v.String(), nil
	case ValueKindBytes:
		return string(v.Bytes()), nil
	case ValueKindEnum:
		ev := fd.Enum().Values().ByNumber(v.Enum())
		if ev == nil {
			if inList {
				return enumDecodeErrorSentinel, nil
			}
			return nil, merr.WrapErrEnumValueInvalid(string(fd.Enum().FullName()), int64(v.Enum()),
				"field "+string(fd.FullName()))
		}
		return string(ev.Name()), nil
	case ValueKindMessage:
		return d.decodeMessage(v.Message(), depth+1)
	default:
		return nil, merr.WrapErrFieldKindUnknown(string(fd.FullName()), fd.Kind())
	}
}

// decodeList 将 repeated（非 map）字段转换为保持顺序的数组值。
func (d *decoder) decodeList(fd protoreflect.FieldDescriptor, cls FieldClass, v protoreflect.Value, depth int) ([]any, error) {
	list := v.List()
	out := make([]any, 0, list.Len())
	for i := 0; i < list.Len(); i++ {
		item, err := d.decodeSingular(fd, cls.Kind, list.Get(i), depth, true)
		if err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	return out, nil
}

// decodeMap 将 map 字段转换为关联值，键为字符串化后的 map key。
func (d *decoder) decodeMap(fd protoreflect.FieldDescriptor, v protoreflect.Value, depth int) (map[string]any, error) {
	pair, err := mapEntryOf(fd)
	if err != nil {
		return nil, err
	}
	valueKind := Classify(pair.value).Kind

	out := make(map[string]any, v.Map().Len())
	var rangeErr error
	v.Map().Range(func(mk protoreflect.MapKey, mv protoreflect.Value) bool {
		key, err := formatMapKey(pair.key, mk)
		if err != nil {
			rangeErr = err
			return false
		}
		val, err := d.decodeSingular(pair.value, valueKind, mv, depth, false)
		if err != nil {
			rangeErr = err
			return false
		}
		out[key] = val
		return true
	})
	if rangeErr != nil {
		return nil, rangeErr
	}
	return out, nil
}
