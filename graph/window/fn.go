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

// Package window contains window fns, triggers and windowing strategies.
package window

import (
	"fmt"
	"time"

	"github.com/nicku33/beam/graph/coder"
)

// Kind is the semantic type of a window fn.
type Kind string

const (
	GlobalWindows  Kind = "GLO"
	FixedWindows   Kind = "FIX"
	SlidingWindows Kind = "SLI"
	Sessions       Kind = "SES"
)

// NewGlobalWindows returns the default window fn, which places all elements
// into a single window.
func NewGlobalWindows() *Fn {
	return &Fn{Kind: GlobalWindows}
}

// NewFixedWindows returns the fixed window fn with the given interval.
func NewFixedWindows(interval time.Duration) *Fn {
	return &Fn{Kind: FixedWindows, Size: interval}
}

// NewSlidingWindows returns the sliding window fn with the given period and duration.
func NewSlidingWindows(period, duration time.Duration) *Fn {
	return &Fn{Kind: SlidingWindows, Period: period, Size: duration}
}

// NewSessions returns the session window fn with the given gap.
func NewSessions(gap time.Duration) *Fn {
	return &Fn{Kind: Sessions, Gap: gap}
}

// Fn defines the window fn.
type Fn struct {
	Kind Kind

	Size   time.Duration // FixedWindows, SlidingWindows
	Period time.Duration // SlidingWindows
	Offset time.Duration // FixedWindows, SlidingWindows
	Gap    time.Duration // Sessions
}

// Coder returns the window coder for the window fn.
func (w *Fn) Coder() *coder.WindowCoder {
	if w.Kind == GlobalWindows {
		return coder.NewGlobalWindow()
	}
	return coder.NewIntervalWindow()
}

// IsMerging returns true iff windows produced by the fn may be merged when a
// group is formed.
func (w *Fn) IsMerging() bool {
	return w.Kind == Sessions
}

// Validate checks that the durations of the fn are usable.
func (w *Fn) Validate() error {
	switch w.Kind {
	case GlobalWindows:
		return nil
	case FixedWindows:
		if w.Size <= 0 {
			return fmt.Errorf("fixed windows need a positive size, got %v", w.Size)
		}
	case SlidingWindows:
		if w.Size <= 0 || w.Period <= 0 {
			return fmt.Errorf("sliding windows need a positive size and period, got %v", w)
		}
	case Sessions:
		if w.Gap <= 0 {
			return fmt.Errorf("sessions need a positive gap, got %v", w.Gap)
		}
	default:
		return fmt.Errorf("unknown window kind: %v", w.Kind)
	}
	return nil
}

func (w *Fn) String() string {
	switch w.Kind {
	case FixedWindows:
		return fmt.Sprintf("%v[%v]", w.Kind, w.Size)
	case SlidingWindows:
		return fmt.Sprintf("%v[%v@%v]", w.Kind, w.Size, w.Period)
	case Sessions:
		return fmt.Sprintf("%v[%v]", w.Kind, w.Gap)
	default:
		return string(w.Kind)
	}
}

// Equals returns true iff the windows have the same kind and underlying behavior.
func (w *Fn) Equals(o *Fn) bool {
	if w.Kind != o.Kind {
		return false
	}
	switch w.Kind {
	case FixedWindows:
		return w.Size == o.Size && w.Offset == o.Offset
	case SlidingWindows:
		return w.Period == o.Period && w.Size == o.Size && w.Offset == o.Offset
	case Sessions:
		return w.Gap == o.Gap
	default:
		return true
	}
}
