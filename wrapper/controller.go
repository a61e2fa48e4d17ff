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

	"github.com/dfxyz/main-wrapper/internal/config"
	"github.com/dfxyz/main-wrapper/internal/logger"
	"github.com/dfxyz/main-wrapper/internal/process"
	"github.com/dfxyz/main-wrapper/internal/tag"
	"go.uber.org/zap"
)

// loadConfig loads and validates the configuration
// loadConfig 加载并验证配置
func (w *Wrapper) loadConfig() (*config.Config, error) {
	cfg, err := config.LoadWithOverrides(w.opts.configPath, w.opts.overrides)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// newController builds the lifecycle controller from configuration
// newController 根据配置构建生命周期控制器
func newController(w *Wrapper, inherited []string) (lifecycle, error) {
	cfg, err := w.loadConfig()
	if err != nil {
		return nil, err
	}

	log := w.opts.logger
	if log == nil {
		log = logger.NewOrDefault(cfg.Log)
	}
	if data, err := cfg.ToYAML(); err == nil {
		log.Debug("Effective configuration", zap.ByteString("yaml", data))
	}

	return process.NewController(controllerConfig(cfg, w, inherited, log)), nil
}

// controllerConfig maps the loaded configuration onto the controller's collaborators
// controllerConfig 将配置映射为控制器的协作组件
func controllerConfig(cfg *config.Config, w *Wrapper, inherited []string, log *zap.Logger) *process.ControllerConfig {
	flags := make([]string, 0, len(cfg.Launch.RuntimeFlags)+len(inherited))
	flags = append(flags, cfg.Launch.RuntimeFlags...)
	flags = append(flags, inherited...)

	return &process.ControllerConfig{
		Dialect: cfg.Dialect(),
		Tags:    tag.NewStore(w.opts.fs, cfg.Instance.TagFile, log),
		Launch: process.LaunchConfig{
			Mode:          cfg.Launch.Mode,
			Executable:    cfg.Launch.Executable,
			RuntimeFlags:  flags,
			EntryPoint:    cfg.Launch.EntryPoint,
			ArchiveSuffix: cfg.Launch.ArchiveSuffix,
			ArchiveFlag:   cfg.Launch.ArchiveFlag,
			Env:           cfg.Launch.Env,
			Dir:           cfg.Launch.Dir,
			OutputFile:    cfg.Launch.OutputFile,
			WindowTitle:   cfg.Launch.WindowTitle,
		},
		Restart: process.RestartPolicy{
			MaxAttempts:     cfg.Restart.MaxAttempts,
			InitialInterval: cfg.Restart.InitialInterval,
			MaxInterval:     cfg.Restart.MaxInterval,
		},
		Out:    w.opts.out,
		Logger: log,
	}
}
