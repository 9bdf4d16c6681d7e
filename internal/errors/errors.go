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

// Package errors builds annotated error chains. Every annotation keeps the
// wrapped error reachable through Unwrap, so the standard errors.Is and
// errors.As helpers work on the result.
package errors

import (
	stderrors "errors"
	"fmt"
	"io"
	"strings"
)

// New returns an error with the given message.
func New(message string) error {
	return stderrors.New(message)
}

// Errorf returns an error with a message formatted according to the format
// specifier. The %w verb is honored.
func Errorf(format string, args ...any) error {
	return fmt.Errorf(format, args...)
}

// Is reports whether any error in err's chain matches target.
func Is(err, target error) bool {
	return stderrors.Is(err, target)
}

// As finds the first error in err's chain that matches target.
func As(err error, target any) bool {
	return stderrors.As(err, target)
}

// Wrap returns a new error annotating err with a new message.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return &chainError{cause: err, msg: message, top: topOf(err)}
}

// Wrapf returns a new error annotating err with a formatted message.
func Wrapf(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return Wrap(err, fmt.Sprintf(format, args...))
}

// WithContext returns a new error adding context to err. Context is printed
// indented above the messages of err.
func WithContext(err error, context string) error {
	if err == nil {
		return nil
	}
	return &chainError{cause: err, context: context, top: topOf(err)}
}

// WithContextf is WithContext with a format specifier.
func WithContextf(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return WithContext(err, fmt.Sprintf(format, args...))
}

// SetTopLevelMsg returns a new error with the given top level message, which is
// printed first by Error on the result and on any error wrapping it.
func SetTopLevelMsg(err error, top string) error {
	if err == nil {
		return nil
	}
	return &chainError{cause: err, top: top}
}

// SetTopLevelMsgf is SetTopLevelMsg with a format specifier.
func SetTopLevelMsgf(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return SetTopLevelMsg(err, fmt.Sprintf(format, args...))
}

func topOf(err error) string {
	var ce *chainError
	if stderrors.As(err, &ce) {
		return ce.top
	}
	return ""
}

// chainError is one link of an annotated error. The cause is never nil; the
// link carries a message, a context, or only a top level message.
type chainError struct {
	cause   error
	context string
	msg     string
	top     string
}

func (e *chainError) Error() string {
	var b strings.Builder
	if e.top != "" {
		fmt.Fprintf(&b, "%s\nFull error:\n", e.top)
	}
	e.write(&b)
	return b.String()
}

func (e *chainError) write(b *strings.Builder) {
	if e.context != "" {
		fmt.Fprintf(b, "\t%s\n", strings.ReplaceAll(e.context, "\n", "\n\t"))
	}
	if e.msg != "" {
		b.WriteString(e.msg)
		b.WriteString("\n\tcaused by:\n")
	}
	if next, ok := e.cause.(*chainError); ok {
		next.write(b)
		return
	}
	b.WriteString(e.cause.Error())
}

// Format implements fmt.Formatter.
func (e *chainError) Format(s fmt.State, verb rune) {
	switch verb {
	case 'v', 's':
		io.WriteString(s, e.Error())
	case 'q':
		fmt.Fprintf(s, "%q", e.Error())
	}
}

// Unwrap returns the wrapped error.
func (e *chainError) Unwrap() error {
	return e.cause
}
