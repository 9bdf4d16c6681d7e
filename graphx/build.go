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

package graphx

import (
	"encoding/base64"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/nicku33/beam/graph"
	"github.com/nicku33/beam/graph/coder"
	"github.com/nicku33/beam/graph/window"
	"github.com/nicku33/beam/internal/errors"
)

var viewKinds = map[string]graph.ViewKind{
	"singleton": graph.Singleton,
	"iterable":  graph.Iter,
	"list":      graph.List,
	"map":       graph.Map,
	"multimap":  graph.MultiMap,
}

type builder struct {
	p      *graph.Pipeline
	coders *Coders
	values map[string]*graph.Value
}

// Build creates the pipeline graph of a description. Values may be referenced
// before the transform that declares them.
func Build(d *Description) (*graph.Pipeline, error) {
	cs, err := newCoders(d)
	if err != nil {
		return nil, err
	}
	b := &builder{p: graph.New(), coders: cs, values: make(map[string]*graph.Value)}
	if err := b.declare(d.Transforms); err != nil {
		return nil, err
	}
	if err := b.add(nil, d.Transforms); err != nil {
		return nil, err
	}
	return b.p, nil
}

func newCoders(d *Description) (*Coders, error) {
	cs := &Coders{Avro: make(map[string]*coder.Coder), Custom: make(map[string][]byte)}

	// Sorted so that the first bad entry is the one reported.
	var names []string
	for name := range d.AvroSchemas {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		c, err := coder.NewAvro(name, d.AvroSchemas[name])
		if err != nil {
			return nil, errors.Wrapf(err, "avro schema %q", name)
		}
		cs.Avro[name] = c
	}
	for name, payload := range d.CustomCoders {
		data, err := base64.StdEncoding.DecodeString(payload)
		if err != nil {
			return nil, errors.Wrapf(err, "payload of custom coder %q", name)
		}
		cs.Custom[name] = data
	}
	return cs, nil
}

// declare creates every output value, including those of nested transforms.
func (b *builder) declare(specs []*TransformSpec) error {
	for _, s := range specs {
		for _, out := range s.Outputs {
			if out.ID == "" {
				return errors.Errorf("output %q of transform %q has no id", out.Tag, s.Name)
			}
			if _, ok := b.values[out.ID]; ok {
				return errors.Errorf("value %q declared twice", out.ID)
			}
			v, err := b.newValue(out)
			if err != nil {
				return errors.Wrapf(err, "output %q of transform %q", out.ID, s.Name)
			}
			b.values[out.ID] = v
		}
		if err := b.declare(s.Transforms); err != nil {
			return err
		}
	}
	return nil
}

func (b *builder) newValue(out *OutputSpec) (*graph.Value, error) {
	ws, err := buildWindowing(out.Windowing)
	if err != nil {
		return nil, err
	}
	var c *coder.Coder
	if out.Coder != "" {
		if c, err = b.coders.ParseCoder(out.Coder); err != nil {
			return nil, err
		}
	}
	if out.View != "" {
		kind, ok := viewKinds[strings.ToLower(out.View)]
		if !ok {
			return nil, errors.Errorf("unknown view kind %q", out.View)
		}
		return b.p.NewView(kind, c, ws), nil
	}
	if c == nil {
		return nil, errors.New("collections need a coder")
	}
	bounded := true
	if out.Bounded != nil {
		bounded = *out.Bounded
	}
	return b.p.NewCollection(c, ws, bounded), nil
}

func (b *builder) add(parent *graph.Transform, specs []*TransformSpec) error {
	for _, s := range specs {
		if err := b.addTransform(parent, s); err != nil {
			return err
		}
	}
	return nil
}

func (b *builder) addTransform(parent *graph.Transform, s *TransformSpec) error {
	kind, err := graph.ParseKind(s.Kind)
	if err != nil {
		return errors.Wrapf(err, "transform %q", s.Name)
	}
	if kind == graph.Composite {
		if len(s.Inputs)+len(s.SideInputs)+len(s.Outputs) > 0 || s.hasPayload() {
			return errors.Errorf("composite %q can only have nested transforms", s.Name)
		}
		t, err := b.p.NewComposite(parent, s.Name)
		if err != nil {
			return err
		}
		return b.add(t, s.Transforms)
	}
	if len(s.Transforms) > 0 {
		return errors.Errorf("primitive %q of kind %v cannot have nested transforms", s.Name, kind)
	}

	var inputs, outputs []graph.Port
	for _, in := range s.Inputs {
		v, err := b.lookup(s, in)
		if err != nil {
			return err
		}
		inputs = append(inputs, graph.Port{Tag: tagOf(in.Tag, in.ID), Value: v})
	}
	for _, in := range s.SideInputs {
		v, err := b.lookup(s, in)
		if err != nil {
			return err
		}
		if v.IsCollection() {
			return errors.Errorf("side input %q of transform %q is not a view", in.ID, s.Name)
		}
		inputs = append(inputs, graph.Port{Tag: tagOf(in.Tag, in.ID), Value: v})
	}
	for _, out := range s.Outputs {
		outputs = append(outputs, graph.Port{Tag: tagOf(out.Tag, out.ID), Value: b.values[out.ID]})
	}

	t, err := b.p.NewPrimitive(parent, s.Name, kind, inputs, outputs)
	if err != nil {
		return err
	}
	if err := b.payload(t, s); err != nil {
		return errors.Wrapf(err, "transform %q", s.Name)
	}
	for _, dd := range s.DisplayData {
		if dd.Key == "" {
			return errors.Errorf("display data of transform %q has no key", s.Name)
		}
		t.DisplayData = append(t.DisplayData, graph.DisplayItem{Key: dd.Key, Label: dd.Label, Namespace: dd.Namespace, Value: dd.Value})
	}
	return nil
}

func (b *builder) lookup(s *TransformSpec, in *PortSpec) (*graph.Value, error) {
	v, ok := b.values[in.ID]
	if !ok {
		return nil, errors.Errorf("transform %q reads unknown value %q", s.Name, in.ID)
	}
	return v, nil
}

func tagOf(tag, id string) string {
	if tag == "" {
		return id
	}
	return tag
}

func (s *TransformSpec) hasPayload() bool {
	return s.Fn != nil || s.CombineFn != nil || s.Source != nil || s.Impulse != "" || s.FewKeys
}

// payload attaches the kind specific payload. Payloads of other kinds are
// rejected.
func (b *builder) payload(t *graph.Transform, s *TransformSpec) error {
	if s.Fn != nil && t.Kind != graph.ParDo {
		return errors.Errorf("fn is only valid for %v", graph.ParDo)
	}
	if s.CombineFn != nil && t.Kind != graph.CombineValues {
		return errors.Errorf("combine_fn is only valid for %v", graph.CombineValues)
	}
	if s.Source != nil && t.Kind != graph.Read {
		return errors.Errorf("source is only valid for %v", graph.Read)
	}
	if s.Impulse != "" && t.Kind != graph.Impulse {
		return errors.Errorf("impulse is only valid for %v", graph.Impulse)
	}
	if s.FewKeys && t.Kind != graph.GBK {
		return errors.Errorf("few_keys is only valid for %v", graph.GBK)
	}

	switch t.Kind {
	case graph.Impulse:
		data, err := decodePayload(s.Impulse)
		if err != nil {
			return errors.Wrap(err, "impulse")
		}
		t.ImpulseValue = data

	case graph.Read:
		if s.Source == nil {
			return errors.New("missing source")
		}
		data, err := decodePayload(s.Source.Payload)
		if err != nil {
			return errors.Wrap(err, "source payload")
		}
		size, err := parseSize(s.Source.EstimatedSize)
		if err != nil {
			return err
		}
		t.Source = &graph.Source{Name: s.Source.Name, Payload: data, EstimatedSize: size}

	case graph.ParDo:
		if s.Fn == nil {
			return errors.New("missing fn")
		}
		data, err := decodePayload(s.Fn.Payload)
		if err != nil {
			return errors.Wrap(err, "fn payload")
		}
		t.DoFn = &graph.Fn{
			Name:       s.Fn.Name,
			Payload:    data,
			Splittable: s.Fn.Splittable,
			UsesState:  s.Fn.UsesState,
			UsesTimers: s.Fn.UsesTimers,
		}

	case graph.CombineValues:
		if s.CombineFn == nil {
			return errors.New("missing combine_fn")
		}
		data, err := decodePayload(s.CombineFn.Payload)
		if err != nil {
			return errors.Wrap(err, "combine_fn payload")
		}
		fn := &graph.CombineFn{Name: s.CombineFn.Name, Payload: data}
		if s.CombineFn.AccumCoder != "" {
			if fn.AccumCoder, err = b.coders.ParseCoder(s.CombineFn.AccumCoder); err != nil {
				return errors.Wrap(err, "accumulator coder")
			}
		}
		t.CombineFn = fn

	case graph.GBK:
		t.FewKeys = s.FewKeys
	}
	return nil
}

func decodePayload(s string) ([]byte, error) {
	if s == "" {
		return nil, nil
	}
	return base64.StdEncoding.DecodeString(s)
}

func parseSize(s string) (int64, error) {
	if s == "" {
		return 0, nil
	}
	n, err := humanize.ParseBytes(s)
	if err != nil {
		return 0, errors.Wrapf(err, "invalid estimated size %q", s)
	}
	if n > math.MaxInt64 {
		return 0, errors.Errorf("invalid estimated size %q: exceeds %d bytes", s, int64(math.MaxInt64))
	}
	return int64(n), nil
}

func buildWindowing(w *WindowingSpec) (*window.WindowingStrategy, error) {
	if w == nil {
		return nil, nil
	}
	var fn *window.Fn
	switch strings.ToLower(w.Fn) {
	case "", "global":
		fn = window.NewGlobalWindows()
	case "fixed":
		size, err := parseDuration("size", w.Size)
		if err != nil {
			return nil, err
		}
		fn = window.NewFixedWindows(size)
	case "sliding":
		period, err := parseDuration("period", w.Period)
		if err != nil {
			return nil, err
		}
		size, err := parseDuration("size", w.Size)
		if err != nil {
			return nil, err
		}
		fn = window.NewSlidingWindows(period, size)
	case "sessions":
		gap, err := parseDuration("gap", w.Gap)
		if err != nil {
			return nil, err
		}
		fn = window.NewSessions(gap)
	default:
		return nil, errors.Errorf("unknown window fn %q", w.Fn)
	}
	if w.Offset != "" {
		offset, err := parseDuration("offset", w.Offset)
		if err != nil {
			return nil, err
		}
		fn.Offset = offset
	}

	ws := &window.WindowingStrategy{Fn: fn, Trigger: &window.Trigger{Kind: window.DefaultTrigger}, AccumulationMode: window.Discarding}
	if w.Trigger != "" {
		tr, err := ParseTrigger(w.Trigger)
		if err != nil {
			return nil, errors.Wrapf(err, "trigger %q", w.Trigger)
		}
		ws.Trigger = tr
	}
	switch strings.ToLower(w.Accumulation) {
	case "", "discarding":
	case "accumulating":
		ws.AccumulationMode = window.Accumulating
	default:
		return nil, errors.Errorf("unknown accumulation mode %q", w.Accumulation)
	}
	if w.AllowedLateness != "" {
		d, err := parseDuration("allowed_lateness", w.AllowedLateness)
		if err != nil {
			return nil, err
		}
		ws.AllowedLateness = d
	}
	if err := ws.Validate(); err != nil {
		return nil, err
	}
	return ws, nil
}

func parseDuration(field, s string) (time.Duration, error) {
	if s == "" {
		return 0, errors.Errorf("%v is required", field)
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, errors.Wrapf(err, "invalid %v", field)
	}
	return d, nil
}
