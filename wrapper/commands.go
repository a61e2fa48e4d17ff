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

package wrapper

import (
	"fmt"

	"github.com/dfxyz/main-wrapper/internal/process"
	"github.com/spf13/cobra"
)

// newRootCommand builds the verb tree; every command passes its arguments through untouched
// newRootCommand 构建子命令树；所有命令原样传递参数
func (w *Wrapper) newRootCommand(inherited []string) *cobra.Command {
	printUsage := func(cmd *cobra.Command) {
		fmt.Fprint(cmd.OutOrStdout(), UsageText)
	}

	root := &cobra.Command{
		Use:                w.opts.name,
		Short:              "Run or manage a detached instance of the application / 运行或管理应用的后台实例",
		Args:               cobra.ArbitraryArgs,
		DisableFlagParsing: true,
		SilenceErrors:      true,
		SilenceUsage:       true,
		RunE: func(cmd *cobra.Command, args []string) error {
			printUsage(cmd)
			return nil
		},
	}
	root.SetOut(w.opts.out)
	root.SetHelpFunc(func(cmd *cobra.Command, _ []string) { printUsage(cmd) })
	root.SetUsageFunc(func(cmd *cobra.Command) error {
		printUsage(cmd)
		return nil
	})
	root.CompletionOptions.DisableDefaultCmd = true

	// runCmd hands the remaining arguments to the application
	// runCmd 将剩余参数交给应用
	runCmd := &cobra.Command{
		Use:                process.RunVerb + " [args...]",
		Short:              "Run the application in the foreground / 在前台运行应用",
		Args:               cobra.ArbitraryArgs,
		DisableFlagParsing: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return w.main(cmd.Context(), args)
		},
	}

	startCmd := &cobra.Command{
		Use:                "start [args...]",
		Short:              "Start a detached instance unless one is running / 启动后台实例（若未运行）",
		Args:               cobra.ArbitraryArgs,
		DisableFlagParsing: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			lc, err := w.opts.newLifecycle(w, inherited)
			if err != nil {
				return err
			}
			return lc.Start(cmd.Context(), args)
		},
	}

	restartCmd := &cobra.Command{
		Use:                "restart [args...]",
		Short:              "Stop the instance, wait for it to exit, then start it / 停止实例、等待退出后重新启动",
		Args:               cobra.ArbitraryArgs,
		DisableFlagParsing: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			lc, err := w.opts.newLifecycle(w, inherited)
			if err != nil {
				return err
			}
			return lc.Restart(cmd.Context(), args)
		},
	}

	stopCmd := &cobra.Command{
		Use:                "stop",
		Short:              "Terminate the running instance / 终止运行中的实例",
		Args:               cobra.ArbitraryArgs,
		DisableFlagParsing: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			lc, err := w.opts.newLifecycle(w, inherited)
			if err != nil {
				return err
			}
			return lc.Stop(cmd.Context())
		},
	}

	statusCmd := &cobra.Command{
		Use:                "status",
		Short:              "Report whether the instance is running / 报告实例是否在运行",
		Args:               cobra.ArbitraryArgs,
		DisableFlagParsing: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			lc, err := w.opts.newLifecycle(w, inherited)
			if err != nil {
				return err
			}
			_, err = lc.Status(cmd.Context())
			return err
		},
	}

	root.AddCommand(runCmd, startCmd, restartCmd, stopCmd, statusCmd)
	return root
}
