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

// Package wrapper turns an application's main function into a self-managing
// command line with run, start, stop, restart and status verbs.
// wrapper 包将应用的 main 函数包装为带有 run、start、stop、restart 和 status
// 子命令的自管理命令行。
//
// Usage / 用法:
//
//	func main() {
//		wrapper.Main(func(ctx context.Context, args []string) error {
//			return app.Run(ctx, args)
//		})
//	}
//
// "run" calls the main function in the foreground. "start" relaunches the
// binary detached, tagged with -Dapp.process.uuid=<tag>, and the other verbs
// find that instance again through the tag.
// "run" 在前台调用 main 函数。"start" 以 -Dapp.process.uuid=<tag> 标记并脱离地
// 重新启动程序，其余子命令通过该标签找到实例。
package wrapper

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/dfxyz/main-wrapper/internal/process"
	"github.com/spf13/afero"
	"go.uber.org/zap"
)

// UsageText is printed for a missing or unknown verb
// UsageText 在缺少子命令或子命令未知时输出
const UsageText = `Usage: run [args...]
   or: start [args...]
   or: restart [args...]
   or: stop
   or: status
`

// Verbs lists the commands accepted as argument 0
// Verbs 列出可以作为第 0 个参数的子命令
var Verbs = []string{process.RunVerb, "start", "stop", "restart", "status"}

func isVerb(arg string) bool {
	for _, verb := range Verbs {
		if arg == verb {
			return true
		}
	}
	return false
}

// DefaultName is the root command name when none is configured
// DefaultName 是未配置时的根命令名称
const DefaultName = "main-wrapper"

// MainFunc is the wrapped application's entry point
// MainFunc 是被包装应用的入口
type MainFunc func(ctx context.Context, args []string) error

// lifecycle is the part of process.Controller the dispatcher drives
// lifecycle 是调度器使用的 process.Controller 接口
type lifecycle interface {
	Start(ctx context.Context, args []string) error
	Stop(ctx context.Context) error
	Restart(ctx context.Context, args []string) error
	Status(ctx context.Context) (process.ProcessStatus, error)
}

type options struct {
	name       string
	configPath string
	overrides  map[string]interface{}
	out        io.Writer
	logger     *zap.Logger
	fs         afero.Fs

	newLifecycle func(w *Wrapper, inherited []string) (lifecycle, error)
}

// Option configures a Wrapper
// Option 配置 Wrapper
type Option func(*options)

// WithName sets the root command name
// WithName 设置根命令名称
func WithName(name string) Option {
	return func(o *options) { o.name = name }
}

// WithConfigPath sets the configuration file path
// WithConfigPath 设置配置文件路径
func WithConfigPath(path string) Option {
	return func(o *options) { o.configPath = path }
}

// WithOverrides pins configuration keys (e.g. "launch.mode") above file and environment values
// WithOverrides 以高于文件和环境变量的优先级固定配置项（例如 "launch.mode"）
func WithOverrides(overrides map[string]interface{}) Option {
	return func(o *options) {
		if o.overrides == nil {
			o.overrides = make(map[string]interface{}, len(overrides))
		}
		for k, v := range overrides {
			o.overrides[k] = v
		}
	}
}

// WithOutput sets the writer for status lines and usage
// WithOutput 设置状态信息和用法的输出
func WithOutput(out io.Writer) Option {
	return func(o *options) { o.out = out }
}

// WithLogger sets the logger instead of building one from configuration
// WithLogger 设置日志记录器，不再根据配置构建
func WithLogger(logger *zap.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// WithFs sets the filesystem holding the instance tag file
// WithFs 设置保存实例标签文件的文件系统
func WithFs(fs afero.Fs) Option {
	return func(o *options) { o.fs = fs }
}

// Wrapper dispatches one command line invocation
// Wrapper 调度一次命令行调用
type Wrapper struct {
	main MainFunc
	opts options
}

// New creates a Wrapper around the application's main function
// New 围绕应用的 main 函数创建 Wrapper
func New(main MainFunc, opts ...Option) *Wrapper {
	o := options{
		name: DefaultName,
		out:  os.Stdout,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.newLifecycle == nil {
		o.newLifecycle = newController
	}
	return &Wrapper{main: main, opts: o}
}

// Invoke runs the verb in args. Leading -Dkey=value tokens are runtime properties.
// Invoke 执行 args 中的子命令。前置的 -Dkey=value 参数为运行时属性。
func (w *Wrapper) Invoke(ctx context.Context, args []string) error {
	props, rest := splitProperties(args)
	ctx = withProperties(ctx, props)

	root := w.newRootCommand(inheritedFlags(props))
	if len(rest) == 0 || !isVerb(rest[0]) {
		// Only argument 0 may select a verb; cobra would skip leading flags to find one.
		// An empty slice also keeps cobra from reading os.Args.
		// 只有第 0 个参数能选择子命令；cobra 会跳过前置标志寻找子命令。空切片也避免 cobra 读取 os.Args。
		rest = []string{}
	}
	root.SetArgs(rest)
	return root.ExecuteContext(ctx)
}

// Main runs the wrapper on os.Args and exits the process
// Main 使用 os.Args 运行 wrapper 并退出进程
func Main(main MainFunc, opts ...Option) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := New(main, opts...).Invoke(ctx, os.Args[1:])
	stop()

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
