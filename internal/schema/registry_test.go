package schema

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/suite"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/descriptorpb"
	"google.golang.org/protobuf/types/dynamicpb"

	"github.com/lk2023060901/proto-bridge-go/pkg/util/merr"
)

// demoDescriptorSet 构造最小的测试 descriptor set：
// package demo 下的 message Item 与 enum Grade。
func demoDescriptorSet(t *testing.T) []byte {
	t.Helper()

	file := &descriptorpb.FileDescriptorProto{
		Name:    proto.String("demo.proto"),
		Package: proto.String("demo"),
		Syntax:  proto.String("proto3"),
		MessageType: []*descriptorpb.DescriptorProto{
			{
				Name: proto.String("Item"),
				Field: []*descriptorpb.FieldDescriptorProto{
					{
						Name:   proto.String("id"),
						Number: proto.Int32(1),
						Label:  descriptorpb.FieldDescriptorProto_LABEL_OPTIONAL.Enum(),
						Type:   descriptorpb.FieldDescriptorProto_TYPE_INT64.Enum(),
					},
				},
			},
		},
		EnumType: []*descriptorpb.EnumDescriptorProto{
			{
				Name: proto.String("Grade"),
				Value: []*descriptorpb.EnumValueDescriptorProto{
					{Name: proto.String("GRADE_UNSPECIFIED"), Number: proto.Int32(0)},
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

type RegistrySuite struct {
	suite.Suite

	registry *FilesRegistry
}

func (s *RegistrySuite) SetupTest() {
	s.registry = NewFilesRegistry()
	s.Require().NoError(s.registry.LoadSetBytes(demoDescriptorSet(s.T())))
}

func (s *RegistrySuite) TestResolve() {
	md, err := s.registry.Resolve("demo.Item")
	s.NoError(err)
	s.Equal("demo.Item", string(md.FullName()))
}

func (s *RegistrySuite) TestResolveNotFound() {
	_, err := s.registry.Resolve("demo.Missing")
	s.ErrorIs(err, merr.ErrTypeNotFound)
}

func (s *RegistrySuite) TestResolveNotMessage() {
	_, err := s.registry.Resolve("demo.Grade")
	s.ErrorIs(err, merr.ErrTypeNotMessage)
}

func (s *RegistrySuite) TestNewMessage() {
	md, err := s.registry.Resolve("demo.Item")
	s.Require().NoError(err)

	msg := s.registry.NewMessage(md)
	s.IsType(&dynamicpb.Message{}, msg)
	s.Equal("demo.Item", string(msg.ProtoReflect().Descriptor().FullName()))
}

func (s *RegistrySuite) TestLoadSetBytesMalformed() {
	registry := NewFilesRegistry()
	err := registry.LoadSetBytes([]byte{0xff, 0xff})
	s.ErrorIs(err, merr.ErrParameterInvalid)
}

func (s *RegistrySuite) TestLoadSetFromFile() {
	path := filepath.Join(s.T().TempDir(), "demo.pb")
	s.Require().NoError(os.WriteFile(path, demoDescriptorSet(s.T()), 0o600))

	registry := NewFilesRegistry()
	ctx := context.Background()
	s.NoError(registry.LoadSet(ctx, path))

	_, err := registry.Resolve("demo.Item")
	s.NoError(err)

	// 同一路径重复加载应被拒绝。
	s.ErrorIs(registry.LoadSet(ctx, path), merr.ErrParameterInvalid)
}

func (s *RegistrySuite) TestLoadSetMissingFile() {
	registry := NewFilesRegistry()
	err := registry.LoadSet(context.Background(), filepath.Join(s.T().TempDir(), "absent.pb"))
	s.ErrorIs(err, merr.ErrIoFailed)
}

func (s *RegistrySuite) TestGlobalRegistry() {
	// descriptorpb 随测试二进制链接，全局注册表一定能找到它。
	md, err := Global().Resolve("google.protobuf.FileDescriptorSet")
	s.Require().NoError(err)

	msg := Global().NewMessage(md)
	s.IsType(&descriptorpb.FileDescriptorSet{}, msg)

	_, err = Global().Resolve("demo.NotLinkedIn")
	s.ErrorIs(err, merr.ErrTypeNotFound)
}

func TestRegistry(t *testing.T) {
	suite.Run(t, new(RegistrySuite))
}
