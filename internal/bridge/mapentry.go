package bridge

import (
	"strconv"

	"google.golang.org/protobuf/reflect/protoreflect"

	"github.com/lk2023060901/proto-bridge-go/pkg/util/merr"
)

// mapEntryFields 是 map 字段元素消息的 key/value 字段对。
// 两个方向的 map 转换共用这里的解析与校验：字段必须按名字查找，
// 不能假设 key 一定声明在 value 之前。
type mapEntryFields struct {
	key   protoreflect.FieldDescriptor
	value protoreflect.FieldDescriptor
}

// mapEntryOf 解析并校验 map 字段的元素消息形状。
// 元素必须恰好包含名为 key 与 value 的两个字段，违反属于 schema 完整性错误。
func mapEntryOf(fd protoreflect.FieldDescriptor) (mapEntryFields, error) {
	entry := fd.Message()
	if entry == nil {
		return mapEntryFields{}, merr.WrapErrMapShapeInvalid(string(fd.FullName()), "map element is not a message")
	}
	fields := entry.Fields()
	if fields.Len() != 2 {
		return mapEntryFields{}, merr.WrapErrMapShapeInvalid(string(fd.FullName()),
			"map element must have exactly 2 fields, got "+strconv.Itoa(fields.Len()))
	}

	kfd := fields.ByName("key")
	if kfd == nil {
		return mapEntryFields{}, merr.WrapErrMapShapeInvalid(string(fd.FullName()), "no key field")
	}
	vfd := fields.ByName("value")
	if vfd == nil {
		return mapEntryFields{}, merr.WrapErrMapShapeInvalid(string(fd.FullName()), "no value field")
	}

	return mapEntryFields{key: kfd, value: vfd}, nil
}

// formatMapKey 将 map key 规整为字符串形式，作为关联值的键。
func formatMapKey(kfd protoreflect.FieldDescriptor, mk protoreflect.MapKey) (string, error) {
	switch Classify(kfd).Kind {
	case ValueKindInt32, ValueKindInt64:
		return strconv.FormatInt(mk.Value().Int(), 10), nil
	case ValueKindUint32, ValueKindUint64:
		return strconv.FormatUint(mk.Value().Uint(), 10), nil
	case ValueKindBool:
		return strconv.FormatBool(mk.Value().Bool()), nil
	case ValueKindString:
		return mk.Value().String(), nil
	default:
		// 合法的 proto map key 只能是整数、布尔或字符串。
		return "", merr.WrapErrMapShapeInvalid(string(kfd.FullName()),
			"illegal map key kind "+Classify(kfd).Kind.String())
	}
}

// parseMapKey 将字符串形式的键还原为 map key。
func parseMapKey(kfd protoreflect.FieldDescriptor, raw string) (protoreflect.MapKey, error) {
	switch Classify(kfd).Kind {
	case ValueKindInt32:
		n, err := strconv.ParseInt(raw, 10, 32)
		if err != nil {
			return protoreflect.MapKey{}, merr.WrapErrFieldTypeMismatch(string(kfd.FullName()), "int32 key", raw)
		}
		return protoreflect.ValueOfInt32(int32(n)).MapKey(), nil
	case ValueKindInt64:
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return protoreflect.MapKey{}, merr.WrapErrFieldTypeMismatch(string(kfd.FullName()), "int64 key", raw)
		}
		return protoreflect.ValueOfInt64(n).MapKey(), nil
	case ValueKindUint32:
		n, err := strconv.ParseUint(raw, 10, 32)
		if err != nil {
			return protoreflect.MapKey{}, merr.WrapErrFieldTypeMismatch(string(kfd.FullName()), "uint32 key", raw)
		}
		return protoreflect.ValueOfUint32(uint32(n)).MapKey(), nil
	case ValueKindUint64:
		n, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			return protoreflect.MapKey{}, merr.WrapErrFieldTypeMismatch(string(kfd.FullName()), "uint64 key", raw)
		}
		return protoreflect.ValueOfUint64(n).MapKey(), nil
	case ValueKindBool:
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return protoreflect.MapKey{}, merr.WrapErrFieldTypeMismatch(string(kfd.FullName()), "bool key", raw)
		}
		return protoreflect.ValueOfBool(b).MapKey(), nil
	case ValueKindString:
		return protoreflect.ValueOfString(raw).MapKey(), nil
	default:
		return protoreflect.MapKey{}, merr.WrapErrMapShapeInvalid(string(kfd.FullName()),
			"illegal map key kind "+Classify(kfd).Kind.String())
	}
}
