// Licensed to the LF AI & Data foundation under one
// or more contributor license agreements. See the NOTICE file
// distributed with this work for additional information
// regarding copyright ownership. The ASF licenses this file
// to you under the Apache License, Version 2.0 (the
// "License"); you may not use this file except in compliance
// with the License. You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package merr

import (
	"context"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/suite"
)

type ErrSuite struct {
	suite.Suite
}

func (s *ErrSuite) TestCode() {
	err := WrapErrTypeNotFound("game.Player")
	errors.Wrap(err, "failed to resolve type")
	s.ErrorIs(err, ErrTypeNotFound)
	s.Equal(Code(ErrTypeNotFound), Code(err))
	s.Equal(TimeoutCode, Code(context.DeadlineExceeded))
	s.Equal(CanceledCode, Code(context.Canceled))
	s.Equal(errUnexpected.errCode, Code(errUnexpected))
	s.Equal(int32(0), Code(nil))

	sameCodeErr := newBridgeError("new error", ErrTypeNotFound.errCode, false)
	s.True(sameCodeErr.Is(ErrTypeNotFound))
}

func (s *ErrSuite) TestWrap() {
	// Type 相关错误。
	s.ErrorIs(WrapErrTypeNotFound("game.Player", "serialize"), ErrTypeNotFound)
	s.ErrorIs(WrapErrTypeNotMessage("game.Color"), ErrTypeNotMessage)

	// Field 相关错误。
	s.ErrorIs(WrapErrFieldNotFound("doesNotExist", "message game.Player"), ErrFieldNotFound)
	s.ErrorIs(WrapErrFieldTypeMismatch("hp", "integer", "oops"), ErrFieldTypeMismatch)
	s.ErrorIs(WrapErrFieldKindUnknown("hp", 42), ErrFieldKindUnknown)

	// Enum 相关错误。
	s.ErrorIs(WrapErrEnumNameNotFound("game.Color", "MAGENTA"), ErrEnumNameNotFound)
	s.ErrorIs(WrapErrEnumValueInvalid("game.Color", 99, "field game.Player.color"), ErrEnumValueInvalid)

	// Map 相关错误。
	s.ErrorIs(WrapErrMapShapeInvalid("scores", "entry has 3 fields"), ErrMapShapeInvalid)

	// Value 树相关错误。
	s.ErrorIs(WrapErrValueShapeInvalid("object", []any{}), ErrValueShapeInvalid)
	s.ErrorIs(WrapErrDepthLimitExceeded(1000), ErrDepthLimitExceeded)

	// Wire 编解码相关错误。
	s.ErrorIs(WrapErrWireDecodeFailed("game.Player", errors.New("truncated varint")), ErrWireDecodeFailed)
	s.ErrorIs(WrapErrWireEncodeFailed("game.Player", errors.New("required field unset")), ErrWireEncodeFailed)

	// IO 与参数相关错误。
	s.ErrorIs(WrapErrIoFailed("/tmp/set.pb", errors.New("permission denied")), ErrIoFailed)
	s.ErrorIs(WrapErrIoKeyNotFound("descriptor set"), ErrIoKeyNotFound)
	s.ErrorIs(WrapErrParameterInvalid("debug|short|utf8", "verbose"), ErrParameterInvalid)
	s.ErrorIs(WrapErrParameterInvalidMsg("mode %s unsupported", "verbose"), ErrParameterInvalid)
	s.ErrorIs(WrapErrParameterMissing("registry"), ErrParameterMissing)
}

func (s *ErrSuite) TestWrapNil() {
	s.NoError(WrapErrIoFailed("/tmp/set.pb", nil))
}

func (s *ErrSuite) TestRetryable() {
	s.False(IsRetryableErr(WrapErrFieldNotFound("x")))
	s.True(IsRetryableErr(WrapErrIoFailed("/tmp/set.pb", errors.New("EOF"))))
	s.False(IsRetryableErr(nil))
}

func (s *ErrSuite) TestCombine() {
	var (
		errFirst  = errors.New("first")
		errSecond = errors.New("second")
		errThird  = errors.New("third")
	)

	err := Combine(errFirst, errSecond)
	s.True(errors.Is(err, errFirst))
	s.True(errors.Is(err, errSecond))
	s.False(errors.Is(err, errThird))

	s.Equal("first: second", err.Error())
}

func (s *ErrSuite) TestCombineWithNil() {
	err := errors.New("non-nil")

	s.Error(Combine(nil, err))
	s.Error(Combine(err, nil))
	s.NoError(Combine(nil, nil))
}

func (s *ErrSuite) TestCombineOnlyNil() {
	s.NoError(Combine())
}

func (s *ErrSuite) TestIsCanceledOrTimeout() {
	s.True(IsCanceledOrTimeout(context.Canceled))
	s.True(IsCanceledOrTimeout(context.DeadlineExceeded))
	s.False(IsCanceledOrTimeout(ErrTypeNotFound))
}

func TestErrors(t *testing.T) {
	suite.Run(t, new(ErrSuite))
}
