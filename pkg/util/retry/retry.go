// Copyright (C) 2019-2020 Zilliz. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance
// with the License. You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software distributed under the License
// is distributed on an "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express
// or implied. See the License for the specific language governing permissions and limitations under the License.

package retry

import (
	"context"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"

	"github.com/lk2023060901/proto-bridge-go/pkg/log"
	"github.com/lk2023060901/proto-bridge-go/pkg/util/merr"
)

// Do 使用重试机制执行指定函数。
// fn 为待执行的函数；opts 用于控制最大重试次数、初始休眠时间等行为。
// 不可重试的错误（merr.IsRetryableErr 为 false 且未开启 RetryAlways）会立即返回。
func Do(ctx context.Context, fn func() error, opts ...Option) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}

	c := newDefaultConfig()
	for _, opt := range opts {
		opt(c)
	}

	expo := backoff.NewExponentialBackOff()
	expo.InitialInterval = c.sleep
	expo.MaxInterval = c.maxSleepTime
	expo.Multiplier = 2

	var b backoff.BackOff = expo
	if c.attempts > 0 {
		b = backoff.WithMaxRetries(b, uint64(c.attempts-1))
	}
	b = backoff.WithContext(b, ctx)

	lg := log.Ctx(ctx)
	attempt := 0
	return backoff.Retry(func() error {
		attempt++
		err := fn()
		if err == nil {
			return nil
		}
		if merr.IsCanceledOrTimeout(err) {
			return backoff.Permanent(err)
		}
		if !c.retryAlways && !merr.IsRetryableErr(err) {
			return backoff.Permanent(err)
		}
		lg.Warn("retry func failed",
			zap.Int("attempt", attempt),
			zap.Error(err))
		return err
	}, b)
}
