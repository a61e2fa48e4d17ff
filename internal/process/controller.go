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

// Package process implements the lifecycle operations of the managed application.
// process 包实现托管应用的生命周期操作。
//
// This package provides:
// 此包提供：
// - Start: launch a detached, tagged instance / 启动一个脱离的、带标签的实例
// - Stop: terminate the tagged instance / 终止带标签的实例
// - Restart: stop, wait until the instance is gone, then start / 停止、等待实例退出后再启动
// - Status: report whether the tagged instance is running / 报告带标签的实例是否在运行
package process

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/dfxyz/main-wrapper/internal/discovery"
	"github.com/dfxyz/main-wrapper/internal/platform"
	"github.com/dfxyz/main-wrapper/internal/quote"
	"github.com/dfxyz/main-wrapper/internal/tag"
	"go.uber.org/zap"
)

// Common errors for lifecycle operations
// 生命周期操作的常见错误
var (
	// ErrEnvironment indicates the runtime executable or entry point cannot be determined
	// ErrEnvironment 表示无法确定运行时可执行文件或入口
	ErrEnvironment = errors.New("environment error")

	// ErrLaunch indicates the application process could not be created
	// ErrLaunch 表示无法创建应用进程
	ErrLaunch = errors.New("failed to create application process")

	// ErrStop indicates the terminate command could not be run
	// ErrStop 表示无法执行终止命令
	ErrStop = errors.New("failed to stop application")

	// ErrRestartTimeout indicates the previous instance was still running after all wait attempts
	// ErrRestartTimeout 表示等待结束后旧实例仍在运行
	ErrRestartTimeout = errors.New("previous instance did not exit in time")
)

// ProcessStatus represents the status of the managed application
// ProcessStatus 表示托管应用的状态
type ProcessStatus string

const (
	// StatusRunning indicates the tagged process was found
	// StatusRunning 表示找到了带标签的进程
	StatusRunning ProcessStatus = "running"

	// StatusStopped indicates there is no tag or no tagged process
	// StatusStopped 表示没有标签或没有带标签的进程
	StatusStopped ProcessStatus = "stopped"

	// StatusUnknown indicates the process table could not be scanned
	// StatusUnknown 表示无法扫描进程表
	StatusUnknown ProcessStatus = "unknown"
)

// Lines printed to the user
// 输出给用户的信息
const (
	MsgAlreadyRunning  = "application is running; operation aborted"
	MsgStarted         = "application started"
	MsgStoppedWithCode = "application stopped with code %d"
	MsgRunning         = "application is running"
	MsgNotRunning      = "application is not running"
	MsgNoInstance      = "application is not running (failed to read process uuid file; application may never be started)"
)

// TagStore provides the instance tag
// TagStore 提供实例标签
type TagStore interface {
	GetOrCreate() (string, error)
	GetOrFail() (string, error)
}

// ControllerConfig holds the collaborators of a Controller
// ControllerConfig 保存 Controller 的协作组件
type ControllerConfig struct {
	Dialect  platform.Dialect
	Tags     TagStore
	Locator  discovery.Locator       // Defaults to the dialect's locator / 默认使用方言对应的 Locator
	Runner   discovery.CommandRunner // Runs kill / wmic terminate / 执行 kill 或 wmic terminate
	Launcher Launcher                // Defaults to DetachedLauncher / 默认使用 DetachedLauncher
	Launch   LaunchConfig
	Restart  RestartPolicy
	Out      io.Writer // Status lines, defaults to stdout / 状态输出，默认标准输出
	Logger   *zap.Logger
}

// Controller runs start, stop, restart and status against one tagged instance
// Controller 针对一个带标签的实例执行启动、停止、重启和状态查询
type Controller struct {
	dialect  platform.Dialect
	tags     TagStore
	locator  discovery.Locator
	runner   discovery.CommandRunner
	launcher Launcher
	quoter   *quote.Quoter
	launch   LaunchConfig
	restart  RestartPolicy
	out      io.Writer
	logger   *zap.Logger
}

// NewController creates a new Controller, filling in default collaborators
// NewController 创建一个新的 Controller，并补全默认组件
func NewController(cfg *ControllerConfig) *Controller {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	runner := cfg.Runner
	if runner == nil {
		runner = discovery.NewExecRunner(logger)
	}
	locator := cfg.Locator
	if locator == nil {
		locator = discovery.NewLocator(cfg.Dialect, runner, logger)
	}
	launcher := cfg.Launcher
	if launcher == nil {
		launcher = NewDetachedLauncher(logger)
	}
	out := cfg.Out
	if out == nil {
		out = os.Stdout
	}
	restart := cfg.Restart
	if restart.MaxAttempts <= 0 {
		restart = DefaultRestartPolicy()
	}

	return &Controller{
		dialect:  cfg.Dialect,
		tags:     cfg.Tags,
		locator:  locator,
		runner:   runner,
		launcher: launcher,
		quoter:   quote.New(cfg.Dialect),
		launch:   cfg.Launch,
		restart:  restart,
		out:      out,
		logger:   logger,
	}
}

// Start launches a detached instance unless the tagged instance is already running
// Start 启动一个脱离的实例，除非带标签的实例已在运行
func (c *Controller) Start(ctx context.Context, args []string) error {
	tagValue, err := c.tags.GetOrCreate()
	if err != nil {
		return err
	}
	return c.start(ctx, tagValue, args)
}

func (c *Controller) start(ctx context.Context, tagValue string, args []string) error {
	record, err := c.locator.Find(ctx, tagValue)
	if err != nil {
		return err
	}
	if record != nil {
		c.println(MsgAlreadyRunning)
		return nil
	}

	spec, err := BuildLaunchSpec(c.launch, tagValue, args)
	if err != nil {
		return err
	}
	quoted, err := c.quoter.QuoteAll(spec.Tokens())
	if err != nil {
		return err
	}
	if err := c.launcher.Launch(spec, quoted); err != nil {
		return err
	}

	c.println(MsgStarted)
	return nil
}

// Stop terminates the tagged instance if there is one
// Stop 终止带标签的实例（如果存在）
func (c *Controller) Stop(ctx context.Context) error {
	tagValue, err := c.tags.GetOrFail()
	if errors.Is(err, tag.ErrNoInstance) {
		c.println(MsgNoInstance)
		return nil
	}
	if err != nil {
		return err
	}
	return c.stop(ctx, tagValue)
}

func (c *Controller) stop(ctx context.Context, tagValue string) error {
	if c.dialect == platform.Windows {
		// wmic matches its own command line too, so exclude it
		// wmic 自身命令行也会匹配，需要排除
		where := fmt.Sprintf("commandline like '%%%s%%' and name <> 'WMIC.exe'", tag.Marker(tagValue))
		code, err := c.runner.Run(ctx, "wmic", "process", "where", where, "call", "terminate")
		if err != nil {
			return fmt.Errorf("%w: %v", ErrStop, err)
		}
		c.logger.Info("Terminate command finished", zap.Int("code", code))
		c.printf(MsgStoppedWithCode, code)
		return nil
	}

	record, err := c.locator.Find(ctx, tagValue)
	if err != nil {
		return err
	}
	if record == nil {
		c.println(MsgNotRunning)
		return nil
	}

	code, err := c.runner.Run(ctx, "kill", strconv.Itoa(record.PID))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStop, err)
	}
	c.logger.Info("Kill command finished", zap.Int("pid", record.PID), zap.Int("code", code))
	c.printf(MsgStoppedWithCode, code)
	return nil
}

// Restart stops the tagged instance, waits until it is gone, then starts a new one
// Restart 停止带标签的实例，等待其退出后再启动新实例
func (c *Controller) Restart(ctx context.Context, args []string) error {
	tagValue, err := c.tags.GetOrCreate()
	if err != nil {
		return err
	}
	if err := c.stop(ctx, tagValue); err != nil {
		return err
	}
	if err := c.waitForExit(ctx, tagValue); err != nil {
		return err
	}
	return c.start(ctx, tagValue, args)
}

// Status reports whether the tagged instance is running
// Status 报告带标签的实例是否在运行
func (c *Controller) Status(ctx context.Context) (ProcessStatus, error) {
	tagValue, err := c.tags.GetOrFail()
	if errors.Is(err, tag.ErrNoInstance) {
		c.println(MsgNoInstance)
		return StatusStopped, nil
	}
	if err != nil {
		return StatusUnknown, err
	}

	record, err := c.locator.Find(ctx, tagValue)
	if err != nil {
		return StatusUnknown, err
	}
	if record == nil {
		c.println(MsgNotRunning)
		return StatusStopped, nil
	}
	c.println(MsgRunning)
	return StatusRunning, nil
}

func (c *Controller) println(line string) {
	fmt.Fprintln(c.out, line)
}

func (c *Controller) printf(format string, args ...interface{}) {
	fmt.Fprintf(c.out, format+"\n", args...)
}
