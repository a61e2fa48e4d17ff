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

// Package main is the entry point of the main-wrapper demo binary.
// main 包是 main-wrapper 示例程序的入口点。
//
// The wrapped application is a small heartbeat loop. Typical use:
// 被包装的应用是一个简单的心跳循环。典型用法：
//
//	main-wrapper start --interval 5s   # detached, tagged instance / 后台带标签实例
//	main-wrapper status
//	main-wrapper restart --interval 1s
//	main-wrapper stop
//	main-wrapper run version           # foreground / 前台运行
package main

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"github.com/dfxyz/main-wrapper/wrapper"
	"github.com/spf13/cobra"
)

// Version information, set at build time
// 版本信息，在构建时设置
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildTime = "unknown"
)

// newAppCommand builds the wrapped application's own command line
// newAppCommand 构建被包装应用自身的命令行
func newAppCommand() *cobra.Command {
	var (
		interval time.Duration
		message  string
	)

	appCmd := &cobra.Command{
		Use:           "heartbeat",
		Short:         "Print a heartbeat line until interrupted / 打印心跳直到被中断",
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if interval <= 0 {
				return fmt.Errorf("invalid interval: %v", interval)
			}
			return runHeartbeat(cmd, interval, message)
		},
	}
	appCmd.Flags().DurationVarP(&interval, "interval", "i", 10*time.Second, "heartbeat interval / 心跳间隔")
	appCmd.Flags().StringVarP(&message, "message", "m", "alive", "heartbeat message / 心跳内容")

	// versionCmd shows version information
	// versionCmd 显示版本信息
	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information / 打印版本信息",
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "main-wrapper demo\n")
			fmt.Fprintf(out, "  Version:    %s\n", Version)
			fmt.Fprintf(out, "  Git Commit: %s\n", GitCommit)
			fmt.Fprintf(out, "  Build Time: %s\n", BuildTime)
			fmt.Fprintf(out, "  Go Version: %s\n", runtime.Version())
			fmt.Fprintf(out, "  OS/Arch:    %s/%s\n", runtime.GOOS, runtime.GOARCH)
		},
	}
	appCmd.AddCommand(versionCmd)
	appCmd.CompletionOptions.DisableDefaultCmd = true

	return appCmd
}

// runHeartbeat prints one line per tick until the context is cancelled
// runHeartbeat 每个周期打印一行，直到上下文被取消
func runHeartbeat(cmd *cobra.Command, interval time.Duration, message string) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()
	instance := wrapper.InstanceTag(ctx)
	if instance == "" {
		instance = "foreground"
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	fmt.Fprintf(out, "heartbeat started (instance %s, interval %v)\n", instance, interval)
	for {
		select {
		case <-ctx.Done():
			fmt.Fprintln(out, "heartbeat stopped")
			return nil
		case t := <-ticker.C:
			fmt.Fprintf(out, "%s %s\n", t.Format(time.RFC3339), message)
		}
	}
}

// runApp is the wrapped main function
// runApp 是被包装的 main 函数
func runApp(ctx context.Context, args []string) error {
	appCmd := newAppCommand()
	appCmd.SetArgs(append([]string{}, args...))
	return appCmd.ExecuteContext(ctx)
}

func main() {
	wrapper.Main(runApp)
}
