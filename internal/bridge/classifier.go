package bridge

import (
	"google.golang.org/protobuf/reflect/protoreflect"
)

// ValueKind 是转换引擎视角下字段值的封闭类型集合。
// 与 wire 类型无关：sint32/sfixed32 等在这里统一归入 Int32。
type ValueKind int32

const (
	ValueKindUnknown ValueKind = iota
	ValueKindInt32
	ValueKindInt64
	ValueKindUint32
	ValueKindUint64
	ValueKindDouble
	ValueKindFloat
	ValueKindBool
	ValueKindEnum
	ValueKindString
	ValueKindBytes
	ValueKindMessage
)

var valueKindName = map[ValueKind]string{
	ValueKindUnknown: "unknown",
	ValueKindInt32:   "int32",
	ValueKindInt64:   "int64",
	ValueKindUint32:  "uint32",
	ValueKindUint64:  "uint64",
	ValueKindDouble:  "double",
	ValueKindFloat:   "float",
	ValueKindBool:    "bool",
	ValueKindEnum:    "enum",
	ValueKindString:  "string",
	ValueKindBytes:   "bytes",
	ValueKindMessage: "message",
}

func (k ValueKind) String() string {
	return valueKindName[k]
}

// Cardinality 描述字段的出现次数语义。
type Cardinality int32

const (
	CardinalitySingular Cardinality = iota
	CardinalityRepeated
)

// FieldClass 是字段分类结果。
// IsMap 仅在 Repeated 且 Kind 为 Message 时可能为 true。
type FieldClass struct {
	Kind        ValueKind
	Cardinality Cardinality
	IsMap       bool
}

// Classify 将字段描述符映射为 FieldClass。
// 纯函数、全函数：任何合法描述符都能得到分类结果，
// 未识别的 Kind 归入 ValueKindUnknown，由使用方在触达时报错。
func Classify(fd protoreflect.FieldDescriptor) FieldClass {
	cls := FieldClass{
		Cardinality: CardinalitySingular,
	}
	if fd.IsList() || fd.IsMap() {
		cls.Cardinality = CardinalityRepeated
	}
	cls.IsMap = fd.IsMap()

	switch fd.Kind() {
	case protoreflect.Int32Kind, protoreflect.Sint32Kind, protoreflect.Sfixed32Kind:
		cls.Kind = ValueKindInt32
	case protoreflect.Int64Kind, protoreflect.Sint64Kind, protoreflect.Sfixed64Kind:
		cls.Kind = ValueKindInt64
	case protoreflect.Uint32Kind, protoreflect.Fixed32Kind:
		cls.Kind = ValueKindUint32
	case protoreflect.Uint64Kind, protoreflect.Fixed64Kind:
		cls.Kind = ValueKindUint64
	case protoreflect.DoubleKind:
		cls.Kind = ValueKindDouble
	case protoreflect.FloatKind:
		cls.Kind = ValueKindFloat
	case protoreflect.BoolKind:
		cls.Kind = ValueKindBool
	case protoreflect.EnumKind:
		cls.Kind = ValueKindEnum
	case protoreflect.StringKind:
		cls.Kind = ValueKindString
	case protoreflect.BytesKind:
		cls.Kind = ValueKindBytes
	case protoreflect.MessageKind, protoreflect.GroupKind:
		cls.Kind = ValueKindMessage
	default:
		cls.Kind = ValueKindUnknown
	}
	return cls
}
