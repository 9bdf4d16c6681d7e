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
	"bytes"
	"encoding/base64"
	"encoding/binary"
	"encoding/json"
	"net/url"
	"strconv"

	"github.com/nicku33/beam/graph"
	"github.com/nicku33/beam/graph/coder"
	"github.com/nicku33/beam/graph/window"
	"github.com/nicku33/beam/internal/errors"
)

// Service step kinds.
const (
	impulseKind    = "CreateCollection"
	parDoKind      = "ParallelDo"
	combineKind    = "CombineValues"
	flattenKind    = "Flatten"
	gbkKind        = "GroupByKey"
	windowIntoKind = "Bucket"
	sideInputKind  = "CollectionToSingleton"
	readKind       = "ParallelRead"
)

// fnInfo is the serialized form of a ParDo function as read by the worker.
type fnInfo struct {
	Fn                string             `json:"fn"`
	Payload           string             `json:"payload,omitempty"`
	WindowingStrategy string             `json:"windowing_strategy"`
	SideInputs        []string           `json:"side_inputs,omitempty"`
	InputCoder        *coder.CloudObject `json:"input_coder"`
	MainOutput        int64              `json:"main_output,omitempty"`
	Outputs           map[string]string  `json:"outputs,omitempty"`
}

// combineFnInfo is the serialized form of a combining function.
type combineFnInfo struct {
	Fn                string             `json:"fn"`
	Payload           string             `json:"payload,omitempty"`
	AccumulatorCoder  *coder.CloudObject `json:"accumulator_coder"`
	InputCoder        *coder.CloudObject `json:"input_coder"`
	WindowingStrategy string             `json:"windowing_strategy"`
}

func encodeJSONFn(info any) (string, error) {
	data, err := json.Marshal(info)
	if err != nil {
		return "", errors.Wrap(err, "serializing fn")
	}
	return url.PathEscape(string(data)), nil
}

func translateImpulse(t *graph.Transform, ctx TranslationContext) error {
	out, err := t.Output()
	if err != nil {
		return err
	}
	b, err := ctx.AddStep(t, impulseKind)
	if err != nil {
		return err
	}
	// NOTE: The impulse []data value is encoded in a special way as a
	// URL Query-escaped windowed _unnested_ value. It is read back in
	// a nested context at runtime.
	value := string(append(globalWindowHeader(), t.ImpulseValue...))
	b.props[propElement] = []string{url.QueryEscape(value)}
	_, err = b.AddOutput(out)
	return err
}

// globalWindowHeader returns the windowed value header of an element at the
// zero timestamp in the global window, with no pane firing.
func globalWindowHeader() []byte {
	var buf bytes.Buffer
	var ts [8]byte
	binary.BigEndian.PutUint64(ts[:], uint64(0)^(1<<63)) // timestamp 0, sign bit flipped.
	buf.Write(ts[:])
	var n [4]byte
	binary.BigEndian.PutUint32(n[:], 1) // one window; the global window has no bytes.
	buf.Write(n[:])
	buf.WriteByte(0x0f) // pane: no firing.
	return buf.Bytes()
}

func translateRead(t *graph.Transform, ctx TranslationContext) error {
	if t.Source == nil {
		return errors.Wrapf(ErrMalformedStep, "read %v has no source", t)
	}
	out, err := t.Output()
	if err != nil {
		return err
	}
	b, err := ctx.AddStep(t, readKind)
	if err != nil {
		return err
	}
	b.AddString(propFormat, "custom_source")
	serialized := base64.StdEncoding.EncodeToString(t.Source.Payload)
	b.props[propCustomSourceInputStep] = newCustomSourceInputStep(serialized, t.Source.EstimatedSize)
	_, err = b.AddOutput(out)
	return err
}

func translateParDo(t *graph.Transform, ctx TranslationContext) error {
	fn := t.DoFn
	if fn == nil {
		return errors.Wrapf(ErrMalformedStep, "pardo %v has no fn", t)
	}
	if fn.Splittable {
		return errors.Wrapf(ErrUnsupportedFeature, "Dataflow does not currently support splittable DoFn: %v", fn.Name)
	}
	in, err := t.Input()
	if err != nil {
		return err
	}
	b, err := ctx.AddStep(t, parDoKind)
	if err != nil {
		return err
	}
	sideTags, err := translateInputs(t, in, b, ctx)
	if err != nil {
		return err
	}
	outputs, err := TranslateOutputs(t, b)
	if err != nil {
		return err
	}

	ws, err := encodeWindowingStrategy(in.WindowingStrategy)
	if err != nil {
		return err
	}
	inCoder, err := coder.EncodeCloudObject(in.Coder)
	if err != nil {
		return errors.Wrapf(err, "input coder of %v", t)
	}
	info := fnInfo{
		Fn:                fn.Name,
		Payload:           base64.StdEncoding.EncodeToString(fn.Payload),
		WindowingStrategy: ws,
		SideInputs:        sideTags,
		InputCoder:        inCoder,
		Outputs:           make(map[string]string),
	}
	if len(t.Outputs) > 0 {
		info.MainOutput, _ = outputs.ID(t.Outputs[0].Tag)
	}
	for _, id := range outputs.IDs() {
		tag, _ := outputs.Tag(id)
		info.Outputs[strconv.FormatInt(id, 10)] = tag
	}
	serialized, err := encodeJSONFn(info)
	if err != nil {
		return err
	}
	b.AddString(propUserFn, fn.Name)
	b.AddString(propSerializedFn, serialized)

	// Keyed state forces an ungrouped shuffle, which only works in streaming.
	if ctx.Options().Streaming && (fn.UsesState || fn.UsesTimers) {
		b.AddString(propUsesKeyedState, "true")
	}
	return nil
}

// translateInputs sets the main input and the side inputs of a step and
// returns the side input tags in declared order.
func translateInputs(t *graph.Transform, in *graph.Value, b *StepBuilder, ctx TranslationContext) ([]string, error) {
	if err := b.AddInput(propParallelInput, in); err != nil {
		return nil, err
	}
	nonParInputs := make(map[string]any)
	var tags []string
	for _, side := range t.SideInputs() {
		producer, err := ctx.Producer(side.Value)
		if err != nil {
			return nil, err
		}
		ref, err := ctx.AsOutputReference(side.Value, producer)
		if err != nil {
			return nil, err
		}
		nonParInputs[side.Tag] = ref
		tags = append(tags, side.Tag)
	}
	b.AddDict(propNonParallelInputs, nonParInputs)
	return tags, nil
}

func translateGBK(t *graph.Transform, ctx TranslationContext) error {
	in, out, err := singleInOut(t)
	if err != nil {
		return err
	}
	b, err := ctx.AddStep(t, gbkKind)
	if err != nil {
		return err
	}
	if err := b.AddInput(propParallelInput, in); err != nil {
		return err
	}
	if _, err := b.AddOutput(out); err != nil {
		return err
	}

	ws := in.WindowingStrategy
	if ws == nil || ws.Fn == nil {
		return errors.Wrapf(ErrMalformedStep, "input %v of %v has no windowing strategy", in, t)
	}
	b.AddBool(propDisallowCombinerLifting, disallowCombinerLifting(ws, ctx.Options().Streaming, t.FewKeys))
	serialized, err := encodeWindowingStrategy(ws)
	if err != nil {
		return err
	}
	b.AddString(propSerializedFn, serialized)
	b.AddBool(propIsMergingWindowFn, ws.Fn.IsMerging())
	return nil
}

// disallowCombinerLifting reports whether the service must not pre-aggregate
// values ahead of a grouping.
func disallowCombinerLifting(ws *window.WindowingStrategy, streaming, fewKeys bool) bool {
	return ws.Fn.IsMerging() ||
		(streaming && !fewKeys) ||
		!window.IsDefault(ws.Trigger)
}

func translateSortedGBK(t *graph.Transform, ctx TranslationContext) error {
	in, out, err := singleInOut(t)
	if err != nil {
		return err
	}
	b, err := ctx.AddStep(t, gbkKind)
	if err != nil {
		return err
	}
	if err := b.AddInput(propParallelInput, in); err != nil {
		return err
	}
	if _, err := b.AddOutput(out); err != nil {
		return err
	}
	b.AddBool(propSortValues, true)
	// Combiner lifting is not supported for sorted groupings.
	b.AddBool(propDisallowCombinerLifting, true)
	return nil
}

func translateFlatten(t *graph.Transform, ctx TranslationContext) error {
	out, err := t.Output()
	if err != nil {
		return err
	}
	b, err := ctx.AddStep(t, flattenKind)
	if err != nil {
		return err
	}
	refs := make([]*OutputReference, 0, len(t.Inputs))
	for _, in := range t.Inputs {
		producer, err := ctx.Producer(in.Value)
		if err != nil {
			return err
		}
		ref, err := ctx.AsOutputReference(in.Value, producer)
		if err != nil {
			return err
		}
		refs = append(refs, ref)
	}
	b.AddOutputReferences(propInputs, refs)
	_, err = b.AddOutput(out)
	return err
}

func translateWindowInto(t *graph.Transform, ctx TranslationContext) error {
	in, out, err := singleInOut(t)
	if err != nil {
		return err
	}
	b, err := ctx.AddStep(t, windowIntoKind)
	if err != nil {
		return err
	}
	if err := b.AddInput(propParallelInput, in); err != nil {
		return err
	}
	if _, err := b.AddOutput(out); err != nil {
		return err
	}
	serialized, err := encodeWindowingStrategy(out.WindowingStrategy)
	if err != nil {
		return err
	}
	b.AddString(propSerializedFn, serialized)
	return nil
}

func translateCombineValues(t *graph.Transform, ctx TranslationContext) error {
	fn := t.CombineFn
	if fn == nil {
		return errors.Wrapf(ErrMalformedStep, "combine %v has no combine fn", t)
	}
	in, out, err := singleInOut(t)
	if err != nil {
		return err
	}
	accum, err := accumulatorCoder(fn, in)
	if err != nil {
		return errors.Wrapf(err, "combine %v", t)
	}

	b, err := ctx.AddStep(t, combineKind)
	if err != nil {
		return err
	}
	if _, err := translateInputs(t, in, b, ctx); err != nil {
		return err
	}
	if err := b.AddEncoding(accum); err != nil {
		return err
	}

	accumRef, err := coder.EncodeCloudObject(accum)
	if err != nil {
		return err
	}
	inRef, err := coder.EncodeCloudObject(in.Coder)
	if err != nil {
		return errors.Wrapf(err, "input coder of %v", t)
	}
	ws, err := encodeWindowingStrategy(in.WindowingStrategy)
	if err != nil {
		return err
	}
	serialized, err := encodeJSONFn(combineFnInfo{
		Fn:                fn.Name,
		Payload:           base64.StdEncoding.EncodeToString(fn.Payload),
		AccumulatorCoder:  accumRef,
		InputCoder:        inRef,
		WindowingStrategy: ws,
	})
	if err != nil {
		return err
	}
	b.AddString(propSerializedFn, serialized)
	_, err = b.AddOutput(out)
	return err
}

// accumulatorCoder returns the declared accumulator coder of fn, or else the
// value coder of the grouped input KV<K,Iterable<V>>.
func accumulatorCoder(fn *graph.CombineFn, in *graph.Value) (*coder.Coder, error) {
	if fn.AccumCoder != nil {
		return fn.AccumCoder, nil
	}
	c := in.Coder
	if c == nil || !coder.IsKV(c) || len(c.Components) != 2 || c.Components[1].Kind != coder.Iterable {
		return nil, errors.Wrapf(ErrMalformedStep, "input coder %v is not a grouped KV<K,Iterable<V>>", c)
	}
	return c.Components[1].Components[0], nil
}

func translateCreateView(t *graph.Transform, ctx TranslationContext) error {
	in, out, err := singleInOut(t)
	if err != nil {
		return err
	}
	b, err := ctx.AddStep(t, sideInputKind)
	if err != nil {
		return err
	}
	if err := b.AddInput(propParallelInput, in); err != nil {
		return err
	}
	_, err = b.AddCollectionToSingletonOutput(in, out)
	return err
}

func singleInOut(t *graph.Transform) (*graph.Value, *graph.Value, error) {
	in, err := t.Input()
	if err != nil {
		return nil, nil, err
	}
	out, err := t.Output()
	if err != nil {
		return nil, nil, err
	}
	return in, out, nil
}
