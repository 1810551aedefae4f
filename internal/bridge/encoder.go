package bridge

import (
	"google.golang.org/protobuf/reflect/protoreflect"

	"github.com/lk2023060901/proto-bridge-go/pkg/util/merr"
)

// encoder 负责“动态值树 -> 消息实例”的递归填充。
// 除文档化的宽容路径外遇错即止：出错时不保证消息的部分填充状态可用。
type encoder struct {
	maxDepth int
}

// encodeMessage 按字段名将关联值写入消息。
//
// 顶层输入不是关联值时静默跳过（保持消息为空、不报错），这是对外承诺的
// 边界行为；未知字段名则是硬错误。
func (e *encoder) encodeMessage(value any, m protoreflect.Message, depth int) error {
	if depth > e.maxDepth {
		return merr.WrapErrDepthLimitExceeded(e.maxDepth,
			"encode "+string(m.Descriptor().FullName()))
	}

	obj, ok := value.(map[string]any)
	if !ok {
		return nil
	}

	fields := m.Descriptor().Fields()
	for key, val := range obj {
		fd := fields.ByName(protoreflect.Name(key))
		if fd == nil {
			return merr.WrapErrFieldNotFound(key, "message "+string(m.Descriptor().FullName()))
		}
		if err := e.encodeField(fd, val, m, depth); err != nil {
			return err
		}
	}
	return nil
}

func (e *encoder) encodeField(fd protoreflect.FieldDescriptor, val any, m protoreflect.Message, depth int) error {
	cls := Classify(fd)
	switch {
	case cls.IsMap:
		return e.encodeMap(fd, val, m, depth)
	case cls.Cardinality == CardinalityRepeated:
		return e.encodeList(fd, cls, val, m, depth)
	default:
		return e.encodeSingular(fd, cls.Kind, val, m, depth)
	}
}

// encodeSingular 写入单个字段。
// 枚举采用宽容语义：名字不认识时字段保持未设置，不报错。
func (e *encoder) encodeSingular(fd protoreflect.FieldDescriptor, kind ValueKind, val any, m protoreflect.Message, depth int) error {
	switch kind {
	case ValueKindMessage:
		sub, ok := val.(map[string]any)
		if !ok {
			return merr.WrapErrFieldTypeMismatch(string(fd.FullName()), "object", val)
		}
		return e.encodeMessage(sub, m.Mutable(fd).Message(), depth+1)

	case ValueKindEnum:
		name, ok := toString(val)
		if !ok {
			return merr.WrapErrFieldTypeMismatch(string(fd.FullName()), "string", val)
		}
		ev := fd.Enum().Values().ByName(protoreflect.Name(name))
		if ev == nil {
			return nil
		}
		m.Set(fd, protoreflect.ValueOfEnum(ev.Number()))
		return nil

	default:
		pv, err := e.scalarValue(fd, kind, val)
		if err != nil {
			return err
		}
		m.Set(fd, pv)
		return nil
	}
}

// encodeList 写入 repeated（非 map）字段。
// 与 singular 不同，repeated 枚举的未知名字会中止整个编码。
func (e *encoder) encodeList(fd protoreflect.FieldDescriptor, cls FieldClass, val any, m protoreflect.Message, depth int) error {
	arr, ok := val.([]any)
	if !ok {
		return merr.WrapErrFieldTypeMismatch(string(fd.FullName()), "array", val)
	}

	list := m.Mutable(fd).List()
	for _, item := range arr {
		switch cls.Kind {
		case ValueKindMessage:
			sub, ok := item.(map[string]any)
			if !ok {
				return merr.WrapErrFieldTypeMismatch(string(fd.FullName()), "object", item)
			}
			el := list.NewElement()
			if err := e.encodeMessage(sub, el.Message(), depth+1); err != nil {
				return err
			}
			list.Append(el)

		case ValueKindEnum:
			name, ok := toString(item)
			if !ok {
				return merr.WrapErrFieldTypeMismatch(string(fd.FullName()), "string", item)
			}
			ev := fd.Enum().Values().ByName(protoreflect.Name(name))
			if ev == nil {
				return merr.WrapErrEnumNameNotFound(string(fd.Enum().FullName()), name,
					"repeated field "+string(fd.FullName()))
			}
			list.Append(protoreflect.ValueOfEnum(ev.Number()))

		default:
			pv, err := e.scalarValue(fd, cls.Kind, item)
			if err != nil {
				return err
			}
			list.Append(pv)
		}
	}
	return nil
}

// encodeMap 写入 map 字段：输入必须是关联值，每个条目对应一个 key/value 元素。
func (e *encoder) encodeMap(fd protoreflect.FieldDescriptor, val any, m protoreflect.Message, depth int) error {
	obj, ok := val.(map[string]any)
	if !ok {
		return merr.WrapErrFieldTypeMismatch(string(fd.FullName()), "object", val)
	}

	pair, err := mapEntryOf(fd)
	if err != nil {
		return err
	}
	valueKind := Classify(pair.value).Kind

	mp := m.Mutable(fd).Map()
	for rawKey, entryVal := range obj {
		mk, err := parseMapKey(pair.key, rawKey)
		if err != nil {
			return err
		}
		mv, err := e.mapValue(pair.value, valueKind, entryVal, mp, depth)
		if err != nil {
			return err
		}
		mp.Set(mk, mv)
	}
	return nil
}

// mapValue 按 singular 语义构造一个 map 条目的值。
func (e *encoder) mapValue(vfd protoreflect.FieldDescriptor, kind ValueKind, val any, mp protoreflect.Map, depth int) (protoreflect.Value, error) {
	switch kind {
	case ValueKindMessage:
		sub, ok := val.(map[string]any)
		if !ok {
			return protoreflect.Value{}, merr.WrapErrFieldTypeMismatch(string(vfd.FullName()), "object", val)
		}
		mv := mp.NewValue()
		if err := e.encodeMessage(sub, mv.Message(), depth+1); err != nil {
			return protoreflect.Value{}, err
		}
		return mv, nil

	case ValueKindEnum:
		name, ok := toString(val)
		if !ok {
			return protoreflect.Value{}, merr.WrapErrFieldTypeMismatch(string(vfd.FullName()), "string", val)
		}
		ev := vfd.Enum().Values().ByName(protoreflect.Name(name))
		if ev == nil {
			// singular 语义：名字不认识时条目退化为默认值。
			return mp.NewValue(), nil
		}
		return protoreflect.ValueOfEnum(ev.Number()), nil

	default:
		return e.scalarValue(vfd, kind, val)
	}
}

// scalarValue 将动态值收敛为字段要求的标量。
// 数值族允许宽度转换与可整除浮点，跨族不匹配报 ErrFieldTypeMismatch。
func (e *encoder) scalarValue(fd protoreflect.FieldDescriptor, kind ValueKind, val any) (protoreflect.Value, error) {
	switch kind {
	case ValueKindInt32:
		n, ok := toInt64(val)
		if !ok {
			return protoreflect.Value{}, merr.WrapErrFieldTypeMismatch(string(fd.FullName()), "integer", val)
		}
		return protoreflect.ValueOfInt32(int32(n)), nil
	case ValueKindInt64:
		n, ok := toInt64(val)
		if !ok {
			return protoreflect.Value{}, merr.WrapErrFieldTypeMismatch(string(fd.FullName()), "integer", val)
		}
		return protoreflect.ValueOfInt64(n), nil
	case ValueKindUint32:
		n, ok := toUint64(val)
		if !ok {
			return protoreflect.Value{}, merr.WrapErrFieldTypeMismatch(string(fd.FullName()), "unsigned integer", val)
		}
		return protoreflect.ValueOfUint32(uint32(n)), nil
	case ValueKindUint64:
		n, ok := toUint64(val)
		if !ok {
			return protoreflect.Value{}, merr.WrapErrFieldTypeMismatch(string(fd.FullName()), "unsigned integer", val)
		}
		return protoreflect.ValueOfUint64(n), nil
	case ValueKindDouble:
		f, ok := toFloat64(val)
		if !ok {
			return protoreflect.Value{}, merr.WrapErrFieldTypeMismatch(string(fd.FullName()), "number", val)
		}
		return protoreflect.ValueOfFloat64(f), nil
	case ValueKindFloat:
		f, ok := toFloat64(val)
		if !ok {
			return protoreflect.Value{}, merr.WrapErrFieldTypeMismatch(string(fd.FullName()), "number", val)
		}
		return protoreflect.ValueOfFloat32(float32(f)), nil
	case ValueKindBool:
		b, ok := toBool(val)
		if !ok {
			return protoreflect.Value{}, merr.WrapErrFieldTypeMismatch(string(fd.FullName()), "boolean", val)
		}
		return protoreflect.ValueOfBool(b), nil
	case ValueKindString:
		s, ok := toString(val)
		if !ok {
			return protoreflect.Value{}, merr.WrapErrFieldTypeMismatch(string(fd.FullName()), "string", val)
		}
		return protoreflect.ValueOfString(s), nil
	case ValueKindBytes:
		s, ok := toString(val)
		if !ok {
			return protoreflect.Value{}, merr.WrapErrFieldTypeMismatch(string(fd.FullName()), "string", val)
		}
		return protoreflect.ValueOfBytes([]byte(s)), nil
	default:
		return protoreflect.Value{}, merr.WrapErrFieldKindUnknown(string(fd.FullName()), fd.Kind())
	}
}
