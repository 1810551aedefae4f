package transform

import (
	"context"
	"strconv"
	"testing"

	"github.com/stretchr/testify/suite"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/descriptorpb"

	"github.com/lk2023060901/proto-bridge-go/internal/bridge"
	"github.com/lk2023060901/proto-bridge-go/internal/schema"
	"github.com/lk2023060901/proto-bridge-go/pkg/util/merr"
)

func pointDescriptorSet(t *testing.T) []byte {
	t.Helper()

	file := &descriptorpb.FileDescriptorProto{
		Name:    proto.String("demo.proto"),
		Package: proto.String("demo"),
		Syntax:  proto.String("proto3"),
		MessageType: []*descriptorpb.DescriptorProto{
			{
				Name: proto.String("Point"),
				Field: []*descriptorpb.FieldDescriptorProto{
					{
						Name:   proto.String("x"),
						Number: proto.Int32(1),
						Label:  descriptorpb.FieldDescriptorProto_LABEL_OPTIONAL.Enum(),
						Type:   descriptorpb.FieldDescriptorProto_TYPE_INT32.Enum(),
					},
				},
			},
		},
	}

	data, err := proto.Marshal(&descriptorpb.FileDescriptorSet{
		File: []*descriptorpb.FileDescriptorProto{file},
	})
	if err != nil {
		t.Fatal(err)
	}
	return data
}

type BatchSuite struct {
	suite.Suite

	transcoder *BatchTranscoder
}

func (s *BatchSuite) SetupTest() {
	registry := schema.NewFilesRegistry()
	s.Require().NoError(registry.LoadSetBytes(pointDescriptorSet(s.T())))

	b, err := bridge.New(bridge.Options{Registry: registry})
	s.Require().NoError(err)

	s.transcoder, err = NewBatchTranscoder(b, 4)
	s.Require().NoError(err)
}

func (s *BatchSuite) TearDownTest() {
	s.transcoder.Close()
}

func (s *BatchSuite) TestNewValidation() {
	_, err := NewBatchTranscoder(nil, 4)
	s.ErrorIs(err, merr.ErrParameterMissing)

	registry := schema.NewFilesRegistry()
	b, err := bridge.New(bridge.Options{Registry: registry})
	s.Require().NoError(err)

	_, err = NewBatchTranscoder(b, 0)
	s.ErrorIs(err, merr.ErrParameterInvalid)
}

func (s *BatchSuite) TestRoundTripPreservesOrder() {
	ctx := context.Background()

	const n = 32
	values := make([]any, 0, n)
	for i := 0; i < n; i++ {
		values = append(values, map[string]any{"x": int64(i + 1)})
	}

	payloads, err := s.transcoder.SerializeAll(ctx, "demo.Point", values)
	s.Require().NoError(err)
	s.Len(payloads, n)

	results, err := s.transcoder.DeserializeAll(ctx, "demo.Point", payloads)
	s.Require().NoError(err)
	s.Len(results, n)

	for i, result := range results {
		s.Equal(map[string]any{"x": int64(i + 1)}, result, "index "+strconv.Itoa(i))
	}

	stats := s.transcoder.Stats()
	s.Equal(int64(n), stats.Serialized)
	s.Equal(int64(n), stats.Deserialized)
	s.Equal(int64(0), stats.Failed)
}

func (s *BatchSuite) TestPartialFailure() {
	ctx := context.Background()

	values := []any{
		map[string]any{"x": int64(1)},
		map[string]any{"nope": int64(2)},
		map[string]any{"x": int64(3)},
	}

	payloads, err := s.transcoder.SerializeAll(ctx, "demo.Point", values)
	s.ErrorIs(err, merr.ErrFieldNotFound)

	// 成功的条目仍然占据原位，失败的条目为 nil。
	s.Len(payloads, 3)
	s.NotNil(payloads[0])
	s.Nil(payloads[1])
	s.NotNil(payloads[2])

	s.Equal(int64(1), s.transcoder.Stats().Failed)
}

func (s *BatchSuite) TestCanceledContext() {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.transcoder.SerializeAll(ctx, "demo.Point", []any{map[string]any{"x": int64(1)}})
	s.ErrorIs(err, context.Canceled)
}

func TestBatchTranscoder(t *testing.T) {
	suite.Run(t, new(BatchSuite))
}
