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

package conc

import (
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
)

func TestPoolSubmit(t *testing.T) {
	pool := NewPool[int](4, WithPreAlloc(true))
	defer pool.Release()

	assert.Equal(t, 4, pool.Cap())

	futures := make([]*Future[int], 0, 16)
	for i := 0; i < 16; i++ {
		n := i
		futures = append(futures, pool.Submit(func() (int, error) {
			return n * n, nil
		}))
	}

	for i, future := range futures {
		value, err := future.Await()
		assert.NoError(t, err)
		assert.Equal(t, i*i, value)
	}
}

func TestPoolSubmitError(t *testing.T) {
	pool := NewPool[int](1)
	defer pool.Release()

	errTask := errors.New("task failed")
	future := pool.Submit(func() (int, error) {
		return 0, errTask
	})

	_, err := future.Await()
	assert.ErrorIs(t, err, errTask)
}

func TestPoolConcealPanic(t *testing.T) {
	pool := NewPool[int](1, WithConcealPanic(true))
	defer pool.Release()

	future := pool.Submit(func() (int, error) {
		panic("boom")
	})

	err := future.Err()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "boom")
}

func TestAwaitAll(t *testing.T) {
	pool := NewPool[int](2)
	defer pool.Release()

	ok := pool.Submit(func() (int, error) { return 1, nil })
	bad := pool.Submit(func() (int, error) { return 0, errors.New("broken") })

	assert.Error(t, AwaitAll(ok, bad))
	assert.NoError(t, AwaitAll(ok))
}
