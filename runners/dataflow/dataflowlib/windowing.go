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

package dataflowlib

import (
	"net/url"
	"time"

	pipepb "github.com/apache/beam/sdks/v2/go/pkg/beam/model/pipeline_v1"
	"github.com/nicku33/beam/graph/coder"
	"github.com/nicku33/beam/graph/window"
	"github.com/nicku33/beam/internal/errors"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/durationpb"
	"google.golang.org/protobuf/types/known/timestamppb"
)

// Model URNs of window fns and window coders.
const (
	URNGlobalWindowsWindowFn  = "beam:window_fn:global_windows:v1"
	URNFixedWindowsWindowFn   = "beam:window_fn:fixed_windows:v1"
	URNSlidingWindowsWindowFn = "beam:window_fn:sliding_windows:v1"
	URNSessionsWindowFn       = "beam:window_fn:session_windows:v1"

	URNGlobalWindow   = "beam:coder:global_window:v1"
	URNIntervalWindow = "beam:coder:interval_window:v1"
)

const windowCoderID = "wc0"

// encodeWindowingStrategy returns the percent-escaped model proto of the
// strategy, bundled with its window coder.
func encodeWindowingStrategy(ws *window.WindowingStrategy) (string, error) {
	msg, err := marshalWindowingStrategy(ws)
	if err != nil {
		return "", err
	}
	return encodeSerializedFn(msg)
}

func encodeSerializedFn(in proto.Message) (string, error) {
	// The Beam Runner API uses percent-encoding for serialized fn messages.
	// See: https://en.wikipedia.org/wiki/Percent-encoding
	data, err := proto.MarshalOptions{Deterministic: true}.Marshal(in)
	if err != nil {
		return "", errors.Wrap(err, "serializing fn")
	}
	return url.PathEscape(string(data)), nil
}

func marshalWindowingStrategy(ws *window.WindowingStrategy) (*pipepb.MessageWithComponents, error) {
	if ws == nil {
		return nil, errors.New("nil windowing strategy")
	}
	if err := ws.Validate(); err != nil {
		return nil, errors.Wrapf(err, "invalid windowing strategy %v", ws)
	}
	fn, err := makeWindowFn(ws.Fn)
	if err != nil {
		return nil, err
	}
	trigger, err := makeTrigger(ws.Trigger)
	if err != nil {
		return nil, err
	}

	mergeStatus := pipepb.MergeStatus_NON_MERGING
	if ws.Fn.IsMerging() {
		mergeStatus = pipepb.MergeStatus_NEEDS_MERGE
	}
	mode := pipepb.AccumulationMode_DISCARDING
	if ws.AccumulationMode == window.Accumulating {
		mode = pipepb.AccumulationMode_ACCUMULATING
	}

	strategy := &pipepb.WindowingStrategy{
		WindowFn:         fn,
		MergeStatus:      mergeStatus,
		AccumulationMode: mode,
		WindowCoderId:    windowCoderID,
		Trigger:          trigger,
		OutputTime:       pipepb.OutputTime_END_OF_WINDOW,
		ClosingBehavior:  pipepb.ClosingBehavior_EMIT_IF_NONEMPTY,
		AllowedLateness:  ws.AllowedLateness.Milliseconds(),
		OnTimeBehavior:   pipepb.OnTimeBehavior_FIRE_ALWAYS,
	}
	return &pipepb.MessageWithComponents{
		Components: &pipepb.Components{
			Coders: map[string]*pipepb.Coder{
				windowCoderID: makeWindowCoder(ws.Fn.Coder()),
			},
		},
		Root: &pipepb.MessageWithComponents_WindowingStrategy{
			WindowingStrategy: strategy,
		},
	}, nil
}

func makeWindowCoder(w *coder.WindowCoder) *pipepb.Coder {
	urn := URNGlobalWindow
	if w.Kind == coder.IntervalWindow {
		urn = URNIntervalWindow
	}
	return &pipepb.Coder{Spec: &pipepb.FunctionSpec{Urn: urn}}
}

func makeWindowFn(w *window.Fn) (*pipepb.FunctionSpec, error) {
	var urn string
	var payload proto.Message
	switch w.Kind {
	case window.GlobalWindows:
		return &pipepb.FunctionSpec{Urn: URNGlobalWindowsWindowFn}, nil
	case window.FixedWindows:
		urn = URNFixedWindowsWindowFn
		payload = &pipepb.FixedWindowsPayload{
			Size:   durationpb.New(w.Size),
			Offset: offsetProto(w.Offset),
		}
	case window.SlidingWindows:
		urn = URNSlidingWindowsWindowFn
		payload = &pipepb.SlidingWindowsPayload{
			Size:   durationpb.New(w.Size),
			Offset: offsetProto(w.Offset),
			Period: durationpb.New(w.Period),
		}
	case window.Sessions:
		urn = URNSessionsWindowFn
		payload = &pipepb.SessionWindowsPayload{
			GapSize: durationpb.New(w.Gap),
		}
	default:
		return nil, errors.Errorf("unexpected window fn: %v", w)
	}
	data, err := proto.MarshalOptions{Deterministic: true}.Marshal(payload)
	if err != nil {
		return nil, errors.Wrapf(err, "serializing window fn %v", w)
	}
	return &pipepb.FunctionSpec{Urn: urn, Payload: data}, nil
}

func offsetProto(offset time.Duration) *timestamppb.Timestamp {
	if offset == 0 {
		return nil
	}
	return timestamppb.New(time.Unix(0, 0).Add(offset))
}

func makeTrigger(t *window.Trigger) (*pipepb.Trigger, error) {
	if t == nil {
		return &pipepb.Trigger{Trigger: &pipepb.Trigger_Default_{Default: &pipepb.Trigger_Default{}}}, nil
	}
	subs, err := makeTriggers(t.SubTriggers)
	if err != nil {
		return nil, err
	}

	switch t.Kind {
	case window.DefaultTrigger:
		return &pipepb.Trigger{Trigger: &pipepb.Trigger_Default_{Default: &pipepb.Trigger_Default{}}}, nil
	case window.AlwaysTrigger:
		return &pipepb.Trigger{Trigger: &pipepb.Trigger_Always_{Always: &pipepb.Trigger_Always{}}}, nil
	case window.NeverTrigger:
		return &pipepb.Trigger{Trigger: &pipepb.Trigger_Never_{Never: &pipepb.Trigger_Never{}}}, nil
	case window.AfterCountTrigger:
		return &pipepb.Trigger{Trigger: &pipepb.Trigger_ElementCount_{
			ElementCount: &pipepb.Trigger_ElementCount{ElementCount: t.ElementCount},
		}}, nil
	case window.AfterProcessingTimeTrigger:
		return &pipepb.Trigger{Trigger: &pipepb.Trigger_AfterProcessingTime_{
			AfterProcessingTime: &pipepb.Trigger_AfterProcessingTime{
				TimestampTransforms: []*pipepb.TimestampTransform{{
					TimestampTransform: &pipepb.TimestampTransform_Delay_{
						Delay: &pipepb.TimestampTransform_Delay{DelayMillis: t.Delay.Milliseconds()},
					},
				}},
			},
		}}, nil
	case window.AfterSynchronizedProcessingTimeTrigger:
		return &pipepb.Trigger{Trigger: &pipepb.Trigger_AfterSynchronizedProcessingTime_{
			AfterSynchronizedProcessingTime: &pipepb.Trigger_AfterSynchronizedProcessingTime{},
		}}, nil
	case window.AfterEndOfWindowTrigger:
		eow := &pipepb.Trigger_AfterEndOfWindow{}
		if t.Early != nil {
			if eow.EarlyFirings, err = makeTrigger(t.Early); err != nil {
				return nil, err
			}
		}
		if t.Late != nil {
			if eow.LateFirings, err = makeTrigger(t.Late); err != nil {
				return nil, err
			}
		}
		return &pipepb.Trigger{Trigger: &pipepb.Trigger_AfterEndOfWindow_{AfterEndOfWindow: eow}}, nil
	case window.AfterAnyTrigger:
		return &pipepb.Trigger{Trigger: &pipepb.Trigger_AfterAny_{
			AfterAny: &pipepb.Trigger_AfterAny{Subtriggers: subs},
		}}, nil
	case window.AfterAllTrigger:
		return &pipepb.Trigger{Trigger: &pipepb.Trigger_AfterAll_{
			AfterAll: &pipepb.Trigger_AfterAll{Subtriggers: subs},
		}}, nil
	case window.AfterEachTrigger:
		return &pipepb.Trigger{Trigger: &pipepb.Trigger_AfterEach_{
			AfterEach: &pipepb.Trigger_AfterEach{Subtriggers: subs},
		}}, nil
	case window.RepeatTrigger:
		if len(subs) != 1 {
			return nil, errors.Errorf("bad trigger %v: repeat needs one subtrigger", t)
		}
		return &pipepb.Trigger{Trigger: &pipepb.Trigger_Repeat_{
			Repeat: &pipepb.Trigger_Repeat{Subtrigger: subs[0]},
		}}, nil
	case window.OrFinallyTrigger:
		if len(subs) != 2 {
			return nil, errors.Errorf("bad trigger %v: or-finally needs a main and a finally trigger", t)
		}
		return &pipepb.Trigger{Trigger: &pipepb.Trigger_OrFinally_{
			OrFinally: &pipepb.Trigger_OrFinally{Main: subs[0], Finally: subs[1]},
		}}, nil
	default:
		return nil, errors.Errorf("unexpected trigger: %v", t)
	}
}

func makeTriggers(ts []*window.Trigger) ([]*pipepb.Trigger, error) {
	var ret []*pipepb.Trigger
	for _, t := range ts {
		pt, err := makeTrigger(t)
		if err != nil {
			return nil, err
		}
		ret = append(ret, pt)
	}
	return ret, nil
}
