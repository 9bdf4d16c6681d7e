// Licensed to the Apache Software Foundation (ASF) under one or more
// contributor license agreements.  See the NOTICE file distributed with
// this work for additional information regarding copyright ownership.
// The ASF licenses this file to You under the Apache License, Version 2.0
// (the "License"); you may not use this file except in compliance with
// the License.  You may obtain a copy of the License at
//
//    http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package log is a context-aware logging facade with a replaceable backend.
// Library code logs through the package functions; binaries pick the backend
// once at startup with SetLogger.
package log

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync/atomic"
)

// Severity is the severity of the log message.
type Severity int

const (
	SevUnspecified Severity = iota
	SevDebug
	SevInfo
	SevWarn
	SevError
	SevFatal
)

var sevNames = map[Severity]string{
	SevUnspecified: "UNSPECIFIED",
	SevDebug:       "DEBUG",
	SevInfo:        "INFO",
	SevWarn:        "WARN",
	SevError:       "ERROR",
	SevFatal:       "FATAL",
}

func (s Severity) String() string {
	if n, ok := sevNames[s]; ok {
		return n
	}
	return fmt.Sprintf("Severity(%d)", int(s))
}

// ParseSeverity parses a case-insensitive severity name, such as "info".
func ParseSeverity(s string) (Severity, error) {
	for sev, name := range sevNames {
		if strings.EqualFold(s, name) {
			return sev, nil
		}
	}
	if strings.EqualFold(s, "warning") {
		return SevWarn, nil
	}
	return SevUnspecified, fmt.Errorf("invalid log severity %q", s)
}

// Logger is a context-aware logging backend. Must be concurrency safe.
type Logger interface {
	// Log logs the message in some implementation-dependent way. Log should
	// always return regardless of the severity.
	Log(ctx context.Context, sev Severity, calldepth int, msg string)
}

type holder struct{ Logger }

var logger atomic.Value

func init() {
	logger.Store(holder{NewStandard(os.Stderr, SevInfo)})
}

// SetLogger sets the global Logger. Intended to be called during initialization
// only.
func SetLogger(l Logger) {
	if l == nil {
		panic("Logger cannot be nil")
	}
	logger.Store(holder{l})
}

// Output logs the given message to the global logger. Calldepth is the count
// of the number of frames to skip when computing the file name and line number.
func Output(ctx context.Context, sev Severity, calldepth int, msg string) {
	logger.Load().(holder).Log(ctx, sev, calldepth+1, msg) // +1 for this frame
}

// Debug writes the fmt.Sprint-formatted arguments with debug severity.
func Debug(ctx context.Context, v ...any) {
	Output(ctx, SevDebug, 2, fmt.Sprint(v...))
}

// Debugf writes the fmt.Sprintf-formatted arguments with debug severity.
func Debugf(ctx context.Context, format string, v ...any) {
	Output(ctx, SevDebug, 2, fmt.Sprintf(format, v...))
}

// Info writes the fmt.Sprint-formatted arguments with info severity.
func Info(ctx context.Context, v ...any) {
	Output(ctx, SevInfo, 2, fmt.Sprint(v...))
}

// Infof writes the fmt.Sprintf-formatted arguments with info severity.
func Infof(ctx context.Context, format string, v ...any) {
	Output(ctx, SevInfo, 2, fmt.Sprintf(format, v...))
}

// Warn writes the fmt.Sprint-formatted arguments with warn severity.
func Warn(ctx context.Context, v ...any) {
	Output(ctx, SevWarn, 2, fmt.Sprint(v...))
}

// Warnf writes the fmt.Sprintf-formatted arguments with warn severity.
func Warnf(ctx context.Context, format string, v ...any) {
	Output(ctx, SevWarn, 2, fmt.Sprintf(format, v...))
}

// Error writes the fmt.Sprint-formatted arguments with error severity.
func Error(ctx context.Context, v ...any) {
	Output(ctx, SevError, 2, fmt.Sprint(v...))
}

// Errorf writes the fmt.Sprintf-formatted arguments with error severity.
func Errorf(ctx context.Context, format string, v ...any) {
	Output(ctx, SevError, 2, fmt.Sprintf(format, v...))
}

// Exit writes the fmt.Sprint-formatted arguments with fatal severity. It then
// exits.
func Exit(ctx context.Context, v ...any) {
	Output(ctx, SevFatal, 2, fmt.Sprint(v...))
	os.Exit(1)
}

// Exitf writes the fmt.Sprintf-formatted arguments with fatal severity. It
// then exits.
func Exitf(ctx context.Context, format string, v ...any) {
	Output(ctx, SevFatal, 2, fmt.Sprintf(format, v...))
	os.Exit(1)
}
