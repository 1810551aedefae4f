package bridge

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/reflect/protoreflect"

	"github.com/lk2023060901/proto-bridge-go/internal/schema"
)

func TestClassify(t *testing.T) {
	registry := schema.NewFilesRegistry()
	require.NoError(t, registry.LoadSetBytes(buildGameDescriptorSet()))
	md, err := registry.Resolve("game.Everything")
	require.NoError(t, err)
	fields := md.Fields()

	cases := []struct {
		field    string
		expected FieldClass
	}{
		{"i32", FieldClass{Kind: ValueKindInt32, Cardinality: CardinalitySingular}},
		{"i64", FieldClass{Kind: ValueKindInt64, Cardinality: CardinalitySingular}},
		{"u32", FieldClass{Kind: ValueKindUint32, Cardinality: CardinalitySingular}},
		{"u64", FieldClass{Kind: ValueKindUint64, Cardinality: CardinalitySingular}},
		{"d", FieldClass{Kind: ValueKindDouble, Cardinality: CardinalitySingular}},
		{"f", FieldClass{Kind: ValueKindFloat, Cardinality: CardinalitySingular}},
		{"b", FieldClass{Kind: ValueKindBool, Cardinality: CardinalitySingular}},
		{"s", FieldClass{Kind: ValueKindString, Cardinality: CardinalitySingular}},
		{"raw", FieldClass{Kind: ValueKindBytes, Cardinality: CardinalitySingular}},
		{"color", FieldClass{Kind: ValueKindEnum, Cardinality: CardinalitySingular}},
		{"sub", FieldClass{Kind: ValueKindMessage, Cardinality: CardinalitySingular}},
		{"nums", FieldClass{Kind: ValueKindInt64, Cardinality: CardinalityRepeated}},
		{"colors", FieldClass{Kind: ValueKindEnum, Cardinality: CardinalityRepeated}},
		{"subs", FieldClass{Kind: ValueKindMessage, Cardinality: CardinalityRepeated}},
		{"scores", FieldClass{Kind: ValueKindMessage, Cardinality: CardinalityRepeated, IsMap: true}},
		{"names", FieldClass{Kind: ValueKindMessage, Cardinality: CardinalityRepeated, IsMap: true}},
		{"children", FieldClass{Kind: ValueKindMessage, Cardinality: CardinalityRepeated, IsMap: true}},
	}

	for _, c := range cases {
		fd := fields.ByName(protoreflect.Name(c.field))
		require.NotNil(t, fd, c.field)
		assert.Equal(t, c.expected, Classify(fd), c.field)
	}
}

func TestValueKindString(t *testing.T) {
	assert.Equal(t, "int32", ValueKindInt32.String())
	assert.Equal(t, "message", ValueKindMessage.String())
	assert.Equal(t, "unknown", ValueKindUnknown.String())
}
