/*
 * Licensed to the Apache Software Foundation (ASF) under one or more
 * contributor license agreements.  See the NOTICE file distributed with
 * this work for additional information regarding copyright ownership.
 * The ASF licenses this file to You under the Apache License, Version 2.0
 * (the "License"); you may not use this file except in compliance with
 * the License.  You may obtain a copy of the License at
 *
 *    http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package process

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v5"
	"go.uber.org/zap"
)

// Default restart wait values
// 默认重启等待配置
const (
	DefaultRestartMaxAttempts     = 10
	DefaultRestartInitialInterval = 200 * time.Millisecond
	DefaultRestartMaxInterval     = 2 * time.Second
)

// RestartPolicy bounds how long restart waits for the previous instance to exit
// RestartPolicy 限制重启时等待旧实例退出的时长
type RestartPolicy struct {
	MaxAttempts     int           `json:"max_attempts"`     // Locator polls before giving up / 放弃前的轮询次数
	InitialInterval time.Duration `json:"initial_interval"` // First backoff delay / 首次退避间隔
	MaxInterval     time.Duration `json:"max_interval"`     // Backoff delay cap / 退避间隔上限
}

// DefaultRestartPolicy returns the default restart policy
// DefaultRestartPolicy 返回默认重启策略
func DefaultRestartPolicy() RestartPolicy {
	return RestartPolicy{
		MaxAttempts:     DefaultRestartMaxAttempts,
		InitialInterval: DefaultRestartInitialInterval,
		MaxInterval:     DefaultRestartMaxInterval,
	}
}

var errStillRunning = errors.New("tagged process still running")

// waitForExit polls the locator with exponential backoff until the tagged process is gone
// waitForExit 以指数退避轮询 Locator，直到带标签的进程消失
func (c *Controller) waitForExit(ctx context.Context, tagValue string) error {
	policy := c.restart

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = policy.InitialInterval
	b.MaxInterval = policy.MaxInterval

	attempts := 0
	_, err := backoff.Retry(ctx, func() (struct{}, error) {
		attempts++
		record, err := c.locator.Find(ctx, tagValue)
		if err != nil {
			return struct{}{}, backoff.Permanent(err)
		}
		if record != nil {
			c.logger.Debug("Waiting for previous instance to exit", zap.Int("attempt", attempts))
			return struct{}{}, errStillRunning
		}
		return struct{}{}, nil
	}, backoff.WithBackOff(b), backoff.WithMaxTries(uint(policy.MaxAttempts)))

	if errors.Is(err, errStillRunning) {
		return fmt.Errorf("%w: still running after %d checks", ErrRestartTimeout, attempts)
	}
	return err
}
