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

// Package logger builds the zap logger used by the main wrapper.
// logger 包构建 main wrapper 使用的 zap 日志记录器。
//
// Diagnostics go to stderr so that stdout stays reserved for the lifecycle
// messages printed by the dispatcher. When a log file is configured, a JSON
// copy is written through a rotating lumberjack writer.
// 诊断日志输出到标准错误，标准输出只用于生命周期提示信息。
// 配置日志文件时，会通过 lumberjack 轮转写入一份 JSON 日志。
package logger

import (
	"fmt"
	"os"
	"strings"

	"github.com/dfxyz/main-wrapper/internal/config"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/term"
	"gopkg.in/natefinch/lumberjack.v2"
)

// New creates a logger from the log configuration
// New 根据日志配置创建日志记录器
func New(cfg config.LogConfig) (*zap.Logger, error) {
	color := term.IsTerminal(int(os.Stderr.Fd()))
	return newLogger(cfg, zapcore.Lock(os.Stderr), color)
}

// NewOrDefault creates a logger and falls back to a production logger on error
// NewOrDefault 创建日志记录器，出错时回退到生产环境日志记录器
func NewOrDefault(cfg config.LogConfig) *zap.Logger {
	logger, err := New(cfg)
	if err == nil {
		return logger
	}
	logger, err = zap.NewProduction()
	if err != nil {
		logger, _ = zap.NewDevelopment()
	}
	return logger
}

func newLogger(cfg config.LogConfig, console zapcore.WriteSyncer, color bool) (*zap.Logger, error) {
	level, err := ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}

	consoleEncoderConfig := zap.NewDevelopmentEncoderConfig()
	if color {
		consoleEncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}
	cores := []zapcore.Core{
		zapcore.NewCore(zapcore.NewConsoleEncoder(consoleEncoderConfig), console, level),
	}

	if cfg.File != "" {
		rotator := &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    cfg.MaxSize,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAge,
			Compress:   cfg.Compress,
		}
		fileEncoderConfig := zap.NewProductionEncoderConfig()
		fileEncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
		cores = append(cores, zapcore.NewCore(zapcore.NewJSONEncoder(fileEncoderConfig), zapcore.AddSync(rotator), level))
	}

	return zap.New(zapcore.NewTee(cores...), zap.AddCaller()), nil
}

// ParseLevel parses a configured log level; empty means warn
// ParseLevel 解析配置的日志级别；为空时为 warn
func ParseLevel(level string) (zapcore.Level, error) {
	level = strings.ToLower(strings.TrimSpace(level))
	if level == "" {
		return zapcore.WarnLevel, nil
	}
	parsed, err := zapcore.ParseLevel(level)
	if err != nil {
		return zapcore.WarnLevel, fmt.Errorf("invalid log level: %s", level)
	}
	return parsed, nil
}
