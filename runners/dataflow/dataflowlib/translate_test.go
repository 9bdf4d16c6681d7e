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
	"context"
	"encoding/base64"
	"encoding/json"
	"net/url"
	"strconv"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/nicku33/beam/graph"
	"github.com/nicku33/beam/graph/coder"
	"github.com/nicku33/beam/graph/window"
	"github.com/nicku33/beam/internal/errors"
	df "google.golang.org/api/dataflow/v1b3"
)

var (
	kvCoder      = coder.NewKV(coder.NewString(), coder.NewVarInt())
	groupedCoder = coder.NewKV(coder.NewString(), coder.NewI(coder.NewVarInt()))
)

// pipelineBuilder adds transforms and fails the test on error.
type pipelineBuilder struct {
	t *testing.T
	p *graph.Pipeline
}

func newBuilder(t *testing.T) *pipelineBuilder {
	return &pipelineBuilder{t: t, p: graph.New()}
}

func (b *pipelineBuilder) composite(parent *graph.Transform, label string) *graph.Transform {
	b.t.Helper()
	c, err := b.p.NewComposite(parent, label)
	if err != nil {
		b.t.Fatalf("NewComposite(%q) failed: %v", label, err)
	}
	return c
}

// add adds a primitive with inputs tagged i0, i1, ... and outputs tagged o0,
// o1, ...
func (b *pipelineBuilder) add(parent *graph.Transform, label string, kind graph.Kind, ins []*graph.Value, outs ...*graph.Value) *graph.Transform {
	b.t.Helper()
	var inPorts, outPorts []graph.Port
	for i, v := range ins {
		inPorts = append(inPorts, graph.Port{Tag: "i" + strconv.Itoa(i), Value: v})
	}
	for i, v := range outs {
		outPorts = append(outPorts, graph.Port{Tag: "o" + strconv.Itoa(i), Value: v})
	}
	t, err := b.p.NewPrimitive(parent, label, kind, inPorts, outPorts)
	if err != nil {
		b.t.Fatalf("NewPrimitive(%q) failed: %v", label, err)
	}
	return t
}

func (b *pipelineBuilder) col(c *coder.Coder) *graph.Value {
	return b.p.NewCollection(c, nil, true)
}

func (b *pipelineBuilder) impulse(label string) (*graph.Transform, *graph.Value) {
	out := b.col(coder.NewBytes())
	t := b.add(nil, label, graph.Impulse, nil, out)
	t.ImpulseValue = []byte("seed")
	return t, out
}

func (b *pipelineBuilder) read(label string, c *coder.Coder) (*graph.Transform, *graph.Value) {
	out := b.col(c)
	t := b.add(nil, label, graph.Read, nil, out)
	t.Source = &graph.Source{Name: "src", Payload: []byte("source")}
	return t, out
}

func (b *pipelineBuilder) pardo(label string, ins []*graph.Value, outs ...*graph.Value) *graph.Transform {
	t := b.add(nil, label, graph.ParDo, ins, outs...)
	t.DoFn = &graph.Fn{Name: "main.fn"}
	return t
}

func translate(t *testing.T, p *graph.Pipeline, opts *JobOptions) *JobSpecification {
	t.Helper()
	if opts == nil {
		opts = &JobOptions{Name: "test", Project: "p"}
	}
	spec, err := Translate(context.Background(), p, opts, DefaultRegistry())
	if err != nil {
		t.Fatalf("Translate failed: %v", err)
	}
	return spec
}

func translateErr(p *graph.Pipeline, opts *JobOptions, reg *Registry) error {
	if opts == nil {
		opts = &JobOptions{Name: "test", Project: "p"}
	}
	if reg == nil {
		reg = DefaultRegistry()
	}
	_, err := Translate(context.Background(), p, opts, reg)
	return err
}

func props(t *testing.T, step *df.Step) map[string]any {
	t.Helper()
	var ret map[string]any
	if err := json.Unmarshal(step.Properties, &ret); err != nil {
		t.Fatalf("step %v has bad properties %s: %v", step.Name, step.Properties, err)
	}
	return ret
}

func outputInfo(t *testing.T, step *df.Step) []map[string]any {
	t.Helper()
	list, _ := props(t, step)[propOutputInfo].([]any)
	var ret []map[string]any
	for _, o := range list {
		ret = append(ret, o.(map[string]any))
	}
	return ret
}

func ref(step, output string) map[string]any {
	return map[string]any{"@type": "OutputReference", "step_name": step, "output_name": output}
}

// refs collects every output reference in a decoded property tree.
func refs(v any) []map[string]any {
	var ret []map[string]any
	switch v := v.(type) {
	case map[string]any:
		if v["@type"] == "OutputReference" {
			return append(ret, v)
		}
		for _, e := range v {
			ret = append(ret, refs(e)...)
		}
	case []any:
		for _, e := range v {
			ret = append(ret, refs(e)...)
		}
	}
	return ret
}

func TestTranslate_ReadGBK(t *testing.T) {
	b := newBuilder(t)
	_, in := b.read("Read", kvCoder)
	out := b.col(groupedCoder)
	b.add(nil, "GBK", graph.GBK, []*graph.Value{in}, out)

	job := translate(t, b.p, nil).Job

	if got, want := len(job.Steps), 2; got != want {
		t.Fatalf("len(steps) = %v, want %v", got, want)
	}
	read, gbk := job.Steps[0], job.Steps[1]
	if read.Name != "s1" || read.Kind != "ParallelRead" {
		t.Errorf("first step = %v/%v, want s1/ParallelRead", read.Name, read.Kind)
	}
	if gbk.Name != "s2" || gbk.Kind != "GroupByKey" {
		t.Errorf("second step = %v/%v, want s2/GroupByKey", gbk.Name, gbk.Kind)
	}

	rp := props(t, read)
	if got, want := rp[propFormat], "custom_source"; got != want {
		t.Errorf("format = %v, want %v", got, want)
	}
	wantSource := map[string]any{
		"spec": map[string]any{
			"@type":             "CustomSourcesType",
			"serialized_source": base64.StdEncoding.EncodeToString([]byte("source")),
		},
		"metadata": map[string]any{
			"estimated_size_bytes": map[string]any{"@type": "http://schema.org/Integer", "value": float64(5 << 20)},
		},
	}
	if d := cmp.Diff(wantSource, rp[propCustomSourceInputStep]); d != "" {
		t.Errorf("custom_source_step_input diff (-want, +got):\n%v", d)
	}

	gp := props(t, gbk)
	if d := cmp.Diff(ref("s1", "1"), gp[propParallelInput]); d != "" {
		t.Errorf("parallel_input diff (-want, +got):\n%v", d)
	}
	if got, want := gp[propUserName], "GBK"; got != want {
		t.Errorf("user_name = %v, want %v", got, want)
	}
	if got, want := gp[propDisallowCombinerLifting], false; got != want {
		t.Errorf("disallow_combiner_lifting = %v, want %v", got, want)
	}
	if got, want := gp[propIsMergingWindowFn], false; got != want {
		t.Errorf("is_merging_window_fn = %v, want %v", got, want)
	}
	if _, ok := gp[propSerializedFn].(string); !ok {
		t.Errorf("serialized_fn = %v, want a string", gp[propSerializedFn])
	}

	wantOut := []map[string]any{{
		"user_name":   "GBK.out0",
		"output_name": "2",
		"encoding": map[string]any{
			"@type": "kind:windowed_value",
			"component_encodings": []any{
				map[string]any{
					"@type": "kind:pair",
					"component_encodings": []any{
						map[string]any{"@type": "beam:coder:string_utf8:v1"},
						map[string]any{
							"@type":               "kind:stream",
							"component_encodings": []any{map[string]any{"@type": "kind:varint"}},
							"is_stream_like":      true,
						},
					},
					"is_pair_like": true,
				},
				map[string]any{"@type": "kind:global_window"},
			},
			"is_wrapper": true,
		},
	}}
	if d := cmp.Diff(wantOut, outputInfo(t, gbk)); d != "" {
		t.Errorf("output_info diff (-want, +got):\n%v", d)
	}
}

// branching builds impulse -> pardo(2 outputs) -> flatten -> gbk, with a side
// input view, under a composite.
func branching(t *testing.T) *graph.Pipeline {
	b := newBuilder(t)
	_, seed := b.impulse("Impulse")

	view := b.p.NewView(graph.Singleton, coder.NewBytes(), nil)
	viewIn := b.col(coder.NewBytes())
	b.pardo("PrepSide", []*graph.Value{seed}, viewIn)
	b.add(nil, "View", graph.CreateView, []*graph.Value{viewIn}, view)

	outer := b.composite(nil, "Outer")
	main, side := b.col(kvCoder), b.col(kvCoder)
	split := b.add(outer, "Split", graph.ParDo, []*graph.Value{seed, view}, main, side)
	split.DoFn = &graph.Fn{Name: "main.split"}

	flat := b.col(kvCoder)
	b.add(outer, "Flatten", graph.Flatten, []*graph.Value{main, side}, flat)
	grouped := b.col(groupedCoder)
	b.add(nil, "GBK", graph.GBK, []*graph.Value{flat}, grouped)
	return b.p
}

func TestTranslate_StepNamesAndReferences(t *testing.T) {
	job := translate(t, branching(t), nil).Job

	seen := make(map[string]int)
	var lastID int64
	for i, step := range job.Steps {
		if got, want := step.Name, "s"+strconv.Itoa(i+1); got != want {
			t.Errorf("step %d name = %v, want %v", i, got, want)
		}
		ps := props(t, step)
		for _, r := range refs(ps) {
			name := r["step_name"].(string)
			if _, ok := seen[name]; !ok {
				t.Errorf("step %v refers to %v, which is not an earlier step", step.Name, name)
			}
		}
		seen[step.Name] = i

		for _, out := range outputInfo(t, step) {
			id, err := strconv.ParseInt(out["output_name"].(string), 10, 64)
			if err != nil {
				t.Fatalf("step %v has bad output name %v", step.Name, out["output_name"])
			}
			if id != lastID+1 {
				t.Errorf("step %v output id = %d, want %d", step.Name, id, lastID+1)
			}
			lastID = id
		}
	}
	if got, want := len(job.Steps), 6; got != want {
		t.Errorf("len(steps) = %v, want %v", got, want)
	}
}

func TestTranslate_ParDo(t *testing.T) {
	spec := translate(t, branching(t), nil)
	var split *df.Step
	for _, step := range spec.Job.Steps {
		if props(t, step)[propUserName] == "Outer/Split" {
			split = step
		}
	}
	if split == nil {
		t.Fatalf("no step for Outer/Split in %v", spec.Job.Steps)
	}
	if got, want := split.Kind, "ParallelDo"; got != want {
		t.Errorf("kind = %v, want %v", got, want)
	}

	ps := props(t, split)
	if got, want := ps[propUserFn], "main.split"; got != want {
		t.Errorf("user_fn = %v, want %v", got, want)
	}
	side, ok := ps[propNonParallelInputs].(map[string]any)
	if !ok || len(side) != 1 {
		t.Fatalf("non_parallel_inputs = %v, want one entry", ps[propNonParallelInputs])
	}
	if _, ok := side["i1"]; !ok {
		t.Errorf("non_parallel_inputs = %v, want key i1", side)
	}

	var names []string
	for _, out := range outputInfo(t, split) {
		names = append(names, out["user_name"].(string))
	}
	if d := cmp.Diff([]string{"Outer/Split.out0", "Outer/Split.out1"}, names); d != "" {
		t.Errorf("output user names diff (-want, +got):\n%v", d)
	}

	serialized, err := url.PathUnescape(ps[propSerializedFn].(string))
	if err != nil {
		t.Fatalf("bad serialized_fn: %v", err)
	}
	var info fnInfo
	if err := json.Unmarshal([]byte(serialized), &info); err != nil {
		t.Fatalf("bad serialized_fn %q: %v", serialized, err)
	}
	outs := outputInfo(t, split)
	mainID, _ := strconv.ParseInt(outs[0]["output_name"].(string), 10, 64)
	if got, want := info.MainOutput, mainID; got != want {
		t.Errorf("main output = %v, want %v", got, want)
	}
	wantOutputs := map[string]string{
		outs[0]["output_name"].(string): "o0",
		outs[1]["output_name"].(string): "o1",
	}
	if d := cmp.Diff(wantOutputs, info.Outputs); d != "" {
		t.Errorf("outputs diff (-want, +got):\n%v", d)
	}
	if d := cmp.Diff([]string{"i1"}, info.SideInputs); d != "" {
		t.Errorf("side inputs diff (-want, +got):\n%v", d)
	}
}

func TestTranslate_NoSideInputs(t *testing.T) {
	b := newBuilder(t)
	_, seed := b.impulse("Impulse")
	b.pardo("Fn", []*graph.Value{seed}, b.col(coder.NewBytes()))

	job := translate(t, b.p, nil).Job
	got := props(t, job.Steps[1])[propNonParallelInputs]
	if d := cmp.Diff(map[string]any{}, got); d != "" {
		t.Errorf("non_parallel_inputs diff (-want, +got):\n%v", d)
	}
}

func TestTranslate_KeyedState(t *testing.T) {
	tests := []struct {
		name      string
		streaming bool
		state     bool
		timers    bool
		want      bool
	}{
		{name: "batch_state", state: true},
		{name: "batch_timers", timers: true},
		{name: "streaming_stateless", streaming: true},
		{name: "streaming_state", streaming: true, state: true, want: true},
		{name: "streaming_timers", streaming: true, timers: true, want: true},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			b := newBuilder(t)
			_, seed := b.impulse("Impulse")
			fn := b.pardo("Stateful", []*graph.Value{seed}, b.col(coder.NewBytes()))
			fn.DoFn.UsesState = test.state
			fn.DoFn.UsesTimers = test.timers

			job := translate(t, b.p, &JobOptions{Name: "test", Streaming: test.streaming}).Job
			v, ok := props(t, job.Steps[1])[propUsesKeyedState]
			if ok != test.want {
				t.Fatalf("uses_keyed_state present = %v, want %v", ok, test.want)
			}
			if ok && v != "true" {
				t.Errorf("uses_keyed_state = %v, want \"true\"", v)
			}
		})
	}
}

func TestTranslate_SplittableDoFn(t *testing.T) {
	b := newBuilder(t)
	_, seed := b.impulse("Impulse")
	fn := b.pardo("SDF", []*graph.Value{seed}, b.col(coder.NewBytes()))
	fn.DoFn.Splittable = true

	err := translateErr(b.p, nil, nil)
	if !errors.Is(err, ErrUnsupportedFeature) {
		t.Fatalf("Translate() = %v, want ErrUnsupportedFeature", err)
	}
}

func TestTranslate_NonCollectionOutput(t *testing.T) {
	b := newBuilder(t)
	_, seed := b.impulse("Impulse")
	view := b.p.NewView(graph.Iter, coder.NewBytes(), nil)
	b.pardo("Multi", []*graph.Value{seed}, b.col(coder.NewBytes()), view)

	err := translateErr(b.p, nil, nil)
	if !errors.Is(err, ErrNonCollectionOutput) {
		t.Fatalf("Translate() = %v, want ErrNonCollectionOutput", err)
	}
}

func TestTranslate_UnregisteredKind(t *testing.T) {
	b := newBuilder(t)
	b.impulse("Impulse")

	err := translateErr(b.p, nil, NewRegistry())
	if !errors.Is(err, ErrUnregisteredKind) {
		t.Fatalf("Translate() = %v, want ErrUnregisteredKind", err)
	}
}

func TestTranslate_UnresolvedInput(t *testing.T) {
	b := newBuilder(t)
	dangling := b.col(coder.NewBytes())
	b.pardo("Fn", []*graph.Value{dangling}, b.col(coder.NewBytes()))

	err := translateErr(b.p, nil, nil)
	if !errors.Is(err, ErrUnresolvedReference) {
		t.Fatalf("Translate() = %v, want ErrUnresolvedReference", err)
	}
}

func TestTranslate_Flatten(t *testing.T) {
	for _, n := range []int{0, 1, 3} {
		t.Run(strconv.Itoa(n), func(t *testing.T) {
			b := newBuilder(t)
			var ins []*graph.Value
			for i := 0; i < n; i++ {
				_, out := b.impulse("Impulse" + strconv.Itoa(i))
				ins = append(ins, out)
			}
			b.add(nil, "Flatten", graph.Flatten, ins, b.col(coder.NewBytes()))

			job := translate(t, b.p, nil).Job
			flatten := job.Steps[len(job.Steps)-1]
			if got, want := flatten.Kind, "Flatten"; got != want {
				t.Fatalf("kind = %v, want %v", got, want)
			}
			want := []any{}
			for i := 0; i < n; i++ {
				want = append(want, ref("s"+strconv.Itoa(i+1), strconv.Itoa(i+1)))
			}
			if d := cmp.Diff(want, props(t, flatten)[propInputs]); d != "" {
				t.Errorf("inputs diff (-want, +got):\n%v", d)
			}
		})
	}
}

func TestDisallowCombinerLifting(t *testing.T) {
	fixed := &window.WindowingStrategy{Fn: window.NewFixedWindows(60e9)}
	sessions := &window.WindowingStrategy{Fn: window.NewSessions(60e9)}
	triggered := &window.WindowingStrategy{
		Fn:      window.NewGlobalWindows(),
		Trigger: &window.Trigger{Kind: window.AfterCountTrigger, ElementCount: 3},
	}
	tests := []struct {
		name      string
		ws        *window.WindowingStrategy
		streaming bool
		fewKeys   bool
		want      bool
	}{
		{name: "batch_default", ws: window.DefaultWindowingStrategy(), want: false},
		{name: "batch_fixed", ws: fixed, want: false},
		{name: "batch_sessions", ws: sessions, want: true},
		{name: "batch_trigger", ws: triggered, want: true},
		{name: "streaming_many_keys", ws: fixed, streaming: true, want: true},
		{name: "streaming_few_keys", ws: fixed, streaming: true, fewKeys: true, want: false},
		{name: "streaming_few_keys_sessions", ws: sessions, streaming: true, fewKeys: true, want: true},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if got := disallowCombinerLifting(test.ws, test.streaming, test.fewKeys); got != test.want {
				t.Errorf("disallowCombinerLifting(%v, %v, %v) = %v, want %v", test.ws, test.streaming, test.fewKeys, got, test.want)
			}
		})
	}
}

func TestTranslate_GBKSessions(t *testing.T) {
	b := newBuilder(t)
	ws := &window.WindowingStrategy{Fn: window.NewSessions(60e9)}
	in := b.p.NewCollection(kvCoder, ws, true)
	src := b.add(nil, "Read", graph.Read, nil, in)
	src.Source = &graph.Source{Name: "src"}
	b.add(nil, "GBK", graph.GBK, []*graph.Value{in}, b.p.NewCollection(groupedCoder, ws, true))

	ps := props(t, translate(t, b.p, nil).Job.Steps[1])
	if got, want := ps[propIsMergingWindowFn], true; got != want {
		t.Errorf("is_merging_window_fn = %v, want %v", got, want)
	}
	if got, want := ps[propDisallowCombinerLifting], true; got != want {
		t.Errorf("disallow_combiner_lifting = %v, want %v", got, want)
	}
}

func TestTranslate_SortedGBK(t *testing.T) {
	b := newBuilder(t)
	_, in := b.read("Read", kvCoder)
	b.add(nil, "Sorted", graph.SortedGBK, []*graph.Value{in}, b.col(groupedCoder))

	step := translate(t, b.p, nil).Job.Steps[1]
	if got, want := step.Kind, "GroupByKey"; got != want {
		t.Errorf("kind = %v, want %v", got, want)
	}
	ps := props(t, step)
	if ps[propSortValues] != true || ps[propDisallowCombinerLifting] != true {
		t.Errorf("sort_values = %v, disallow_combiner_lifting = %v, want true, true", ps[propSortValues], ps[propDisallowCombinerLifting])
	}
}

func TestTranslate_CombineValues(t *testing.T) {
	b := newBuilder(t)
	_, in := b.read("Read", kvCoder)
	grouped := b.col(groupedCoder)
	b.add(nil, "GBK", graph.GBK, []*graph.Value{in}, grouped)
	combine := b.add(nil, "Sum", graph.CombineValues, []*graph.Value{grouped}, b.col(kvCoder))
	combine.CombineFn = &graph.CombineFn{Name: "main.sum"}

	step := translate(t, b.p, nil).Job.Steps[2]
	if got, want := step.Kind, "CombineValues"; got != want {
		t.Errorf("kind = %v, want %v", got, want)
	}
	ps := props(t, step)
	if d := cmp.Diff(map[string]any{"@type": "kind:varint"}, ps[propEncoding]); d != "" {
		t.Errorf("encoding diff (-want, +got):\n%v", d)
	}
	if d := cmp.Diff(ref("s2", "2"), ps[propParallelInput]); d != "" {
		t.Errorf("parallel_input diff (-want, +got):\n%v", d)
	}
}

func TestTranslate_CombineValuesUngrouped(t *testing.T) {
	b := newBuilder(t)
	_, in := b.read("Read", kvCoder)
	combine := b.add(nil, "Sum", graph.CombineValues, []*graph.Value{in}, b.col(kvCoder))
	combine.CombineFn = &graph.CombineFn{Name: "main.sum"}

	if err := translateErr(b.p, nil, nil); !errors.Is(err, ErrMalformedStep) {
		t.Fatalf("Translate() = %v, want ErrMalformedStep", err)
	}
}

func TestTranslate_WindowInto(t *testing.T) {
	b := newBuilder(t)
	_, in := b.impulse("Impulse")
	ws := &window.WindowingStrategy{Fn: window.NewFixedWindows(60e9)}
	b.add(nil, "Window", graph.WindowInto, []*graph.Value{in}, b.p.NewCollection(coder.NewBytes(), ws, true))

	step := translate(t, b.p, nil).Job.Steps[1]
	if got, want := step.Kind, "Bucket"; got != want {
		t.Errorf("kind = %v, want %v", got, want)
	}
	enc := outputInfo(t, step)[0]["encoding"].(map[string]any)
	w := enc["component_encodings"].([]any)[1]
	if d := cmp.Diff(map[string]any{"@type": "kind:interval_window"}, w); d != "" {
		t.Errorf("window coder diff (-want, +got):\n%v", d)
	}
	want, err := encodeWindowingStrategy(ws)
	if err != nil {
		t.Fatal(err)
	}
	if got := props(t, step)[propSerializedFn]; got != want {
		t.Errorf("serialized_fn = %v, want %v", got, want)
	}
}

func TestTranslate_Impulse(t *testing.T) {
	b := newBuilder(t)
	b.impulse("Impulse")

	step := translate(t, b.p, nil).Job.Steps[0]
	if got, want := step.Kind, "CreateCollection"; got != want {
		t.Errorf("kind = %v, want %v", got, want)
	}
	elms := props(t, step)[propElement].([]any)
	if len(elms) != 1 {
		t.Fatalf("element = %v, want one entry", elms)
	}
	got, err := url.QueryUnescape(elms[0].(string))
	if err != nil {
		t.Fatal(err)
	}
	want := string(append(globalWindowHeader(), "seed"...))
	if got != want {
		t.Errorf("element = %q, want %q", got, want)
	}
}

func TestGlobalWindowHeader(t *testing.T) {
	want := []byte{0x80, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 1, 0x0f}
	if d := cmp.Diff(want, globalWindowHeader()); d != "" {
		t.Errorf("globalWindowHeader() diff (-want, +got):\n%v", d)
	}
}

func TestTranslate_CreateView(t *testing.T) {
	b := newBuilder(t)
	_, in := b.impulse("Impulse")
	b.add(nil, "View", graph.CreateView, []*graph.Value{in}, b.p.NewView(graph.Singleton, coder.NewBytes(), nil))

	step := translate(t, b.p, nil).Job.Steps[1]
	if got, want := step.Kind, "CollectionToSingleton"; got != want {
		t.Errorf("kind = %v, want %v", got, want)
	}
	want := map[string]any{
		"@type": "kind:stream",
		"component_encodings": []any{
			map[string]any{
				"@type": "kind:windowed_value",
				"component_encodings": []any{
					map[string]any{"@type": "kind:bytes"},
					map[string]any{"@type": "kind:global_window"},
				},
				"is_wrapper": true,
			},
		},
		"is_stream_like": true,
	}
	if d := cmp.Diff(want, outputInfo(t, step)[0]["encoding"]); d != "" {
		t.Errorf("encoding diff (-want, +got):\n%v", d)
	}
}

func TestTranslate_IndexedFormat(t *testing.T) {
	tests := []struct {
		name      string
		view      graph.ViewKind
		streaming bool
		want      bool
	}{
		{name: "batch_list", view: graph.List, want: true},
		{name: "batch_map", view: graph.Map, want: true},
		{name: "batch_singleton", view: graph.Singleton},
		{name: "streaming_list", view: graph.List, streaming: true},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			b := newBuilder(t)
			_, in := b.impulse("Impulse")
			b.add(nil, "View", graph.CreateView, []*graph.Value{in}, b.p.NewView(test.view, coder.NewBytes(), nil))

			job := translate(t, b.p, &JobOptions{Name: "test", Streaming: test.streaming}).Job
			got, _ := outputInfo(t, job.Steps[0])[0]["use_indexed_format"].(bool)
			if got != test.want {
				t.Errorf("use_indexed_format = %v, want %v", got, test.want)
			}
		})
	}
}

func TestTranslate_DisplayData(t *testing.T) {
	b := newBuilder(t)
	imp, _ := b.impulse("Impulse")
	imp.DisplayData = []graph.DisplayItem{{Key: "count", Namespace: "main", Value: 3}}

	got := props(t, translate(t, b.p, nil).Job.Steps[0])[propDisplayData]
	want := []any{map[string]any{"key": "count", "namespace": "main", "type": "INTEGER", "value": float64(3)}}
	if d := cmp.Diff(want, got); d != "" {
		t.Errorf("display_data diff (-want, +got):\n%v", d)
	}
}

func TestTranslate_StepNames(t *testing.T) {
	b := newBuilder(t)
	imp, seed := b.impulse("Impulse")
	fn := b.pardo("Fn", []*graph.Value{seed}, b.col(coder.NewBytes()))

	spec := translate(t, b.p, nil)
	for tr, want := range map[*graph.Transform]string{imp: "s1", fn: "s2"} {
		if got, ok := spec.StepName(tr); !ok || got != want {
			t.Errorf("StepName(%v) = %v, %v, want %v", tr, got, ok, want)
		}
	}
	if _, ok := spec.StepName(b.p.Root()); ok {
		t.Errorf("StepName(root) found, want none")
	}
}
