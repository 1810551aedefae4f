package schema

import (
	"context"
	"os"
	"sync"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/reflect/protodesc"
	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/reflect/protoregistry"
	"google.golang.org/protobuf/types/descriptorpb"
	"google.golang.org/protobuf/types/dynamicpb"

	"github.com/lk2023060901/proto-bridge-go/pkg/log"
	"github.com/lk2023060901/proto-bridge-go/pkg/util/merr"
	"github.com/lk2023060901/proto-bridge-go/pkg/util/retry"
	"github.com/lk2023060901/proto-bridge-go/pkg/util/typeutil"
)

// Registry 抽象了“类型全名 -> 消息描述符 -> 空白消息实例”的解析能力。
//
// 设计目标：
//   - 转换引擎只依赖该接口，不关心描述符从哪里来（descriptor set 文件、
//     编译期链接的生成代码等）。
//   - 描述符一经加载即只读，可被并发转换安全共享。
type Registry interface {
	// Resolve 按类型全名查找消息描述符。
	// 未找到时返回 merr.ErrTypeNotFound；找到但不是消息类型时返回 merr.ErrTypeNotMessage。
	Resolve(name protoreflect.FullName) (protoreflect.MessageDescriptor, error)

	// NewMessage 基于描述符实例化一个空白消息。
	NewMessage(md protoreflect.MessageDescriptor) proto.Message
}

// FilesRegistry 基于 protoregistry.Files 实现 Registry，
// 描述符来源为序列化的 FileDescriptorSet（protoc --descriptor_set_out 的产物）。
//
// 加载应在启动阶段完成；加载完成后的查询是并发安全的。
type FilesRegistry struct {
	mu     sync.RWMutex
	files  *protoregistry.Files
	loaded typeutil.Set[string]
}

var _ Registry = (*FilesRegistry)(nil)

// NewFilesRegistry 创建一个空的 FilesRegistry。
func NewFilesRegistry() *FilesRegistry {
	return &FilesRegistry{
		files:  new(protoregistry.Files),
		loaded: typeutil.NewSet[string](),
	}
}

// LoadSet 从磁盘读取并注册一个 descriptor set 文件。
// 读取失败按可重试错误处理（共享卷上的描述符文件可能正在被写入）。
// 同一路径重复加载会被拒绝。
func (r *FilesRegistry) LoadSet(ctx context.Context, path string) error {
	r.mu.RLock()
	dup := r.loaded.Contain(path)
	r.mu.RUnlock()
	if dup {
		return merr.WrapErrParameterInvalidMsg("descriptor set %s already loaded", path)
	}

	var data []byte
	err := retry.Do(ctx, func() error {
		var readErr error
		data, readErr = os.ReadFile(path)
		if readErr != nil {
			return merr.WrapErrIoFailed(path, readErr)
		}
		return nil
	}, retry.Attempts(3))
	if err != nil {
		return err
	}

	if err := r.LoadSetBytes(data); err != nil {
		return errors.Wrapf(err, "load descriptor set %s", path)
	}

	r.mu.Lock()
	r.loaded.Insert(path)
	r.mu.Unlock()

	log.Ctx(ctx).Info("descriptor set loaded",
		zap.String("path", path),
		zap.Int("bytes", len(data)))
	return nil
}

// LoadSetBytes 注册一段序列化的 FileDescriptorSet。
func (r *FilesRegistry) LoadSetBytes(data []byte) error {
	var set descriptorpb.FileDescriptorSet
	if err := proto.Unmarshal(data, &set); err != nil {
		return merr.WrapErrParameterInvalidMsg("malformed descriptor set: %v", err)
	}

	files, err := protodesc.NewFiles(&set)
	if err != nil {
		return merr.WrapErrParameterInvalidMsg("build descriptors: %v", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	var registerErr error
	files.RangeFiles(func(fd protoreflect.FileDescriptor) bool {
		if err := r.files.RegisterFile(fd); err != nil {
			registerErr = merr.WrapErrParameterInvalidMsg("register file %s: %v", fd.Path(), err)
			return false
		}
		return true
	})
	return registerErr
}

// Resolve 实现 Registry.Resolve。
func (r *FilesRegistry) Resolve(name protoreflect.FullName) (protoreflect.MessageDescriptor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	desc, err := r.files.FindDescriptorByName(name)
	if err != nil {
		return nil, merr.WrapErrTypeNotFound(string(name))
	}
	md, ok := desc.(protoreflect.MessageDescriptor)
	if !ok {
		return nil, merr.WrapErrTypeNotMessage(string(name))
	}
	return md, nil
}

// NewMessage 实现 Registry.NewMessage。
func (r *FilesRegistry) NewMessage(md protoreflect.MessageDescriptor) proto.Message {
	return dynamicpb.NewMessage(md)
}

// globalRegistry 基于进程内链接的生成代码（protoregistry.GlobalFiles / GlobalTypes）
// 实现 Registry，对应原生实现中的 generated pool + generated factory。
type globalRegistry struct{}

var _ Registry = globalRegistry{}

// Global 返回基于全局生成代码注册表的 Registry。
func Global() Registry {
	return globalRegistry{}
}

func (globalRegistry) Resolve(name protoreflect.FullName) (protoreflect.MessageDescriptor, error) {
	desc, err := protoregistry.GlobalFiles.FindDescriptorByName(name)
	if err != nil {
		return nil, merr.WrapErrTypeNotFound(string(name))
	}
	md, ok := desc.(protoreflect.MessageDescriptor)
	if !ok {
		return nil, merr.WrapErrTypeNotMessage(string(name))
	}
	return md, nil
}

func (globalRegistry) NewMessage(md protoreflect.MessageDescriptor) proto.Message {
	// 优先使用生成代码的具体类型，未注册时退回动态消息。
	if mt, err := protoregistry.GlobalTypes.FindMessageByName(md.FullName()); err == nil {
		return mt.New().Interface()
	}
	return dynamicpb.NewMessage(md)
}
