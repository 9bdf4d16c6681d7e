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
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/nicku33/beam/graph"
	"github.com/nicku33/beam/graph/coder"
	"github.com/nicku33/beam/internal/errors"
	"github.com/nicku33/beam/log"
	df "google.golang.org/api/dataflow/v1b3"
)

// TranslationContext is the view of an ongoing translation given to handlers.
// Every query names the transform it is about explicitly.
type TranslationContext interface {
	// Options returns the job options of the translation.
	Options() *JobOptions

	// AddStep appends a new step of the given service kind for t and returns
	// the builder used to fill in its properties. The step is seeded with the
	// full name of t. It fails if t already has a step.
	AddStep(t *graph.Transform, kind string) (*StepBuilder, error)

	// AddPrecomputedStep appends a deep copy of a step built elsewhere as the
	// step of t. The copy keeps its name, which must be unused. Steps added
	// later skip generated names it already took. If the step declares
	// outputs, the name of the first one is registered for the sole output
	// of t.
	AddPrecomputedStep(t *graph.Transform, step *df.Step) (*df.Step, error)

	// AsOutputReference resolves v, produced by producer, to a reference into
	// the producer's step.
	AsOutputReference(v *graph.Value, producer *graph.Transform) (*OutputReference, error)

	// Producer returns the transform recorded as producing v.
	Producer(v *graph.Value) (*graph.Transform, error)

	// OutputCoder returns the coder registered for v by the step producing it.
	OutputCoder(v *graph.Value) (*coder.Coder, bool)
}

// translator holds the state of one translation. It must not be reused.
type translator struct {
	ctx  context.Context
	p    *graph.Pipeline
	opts *JobOptions
	reg  *Registry

	steps        []*df.Step
	stepNames    map[*graph.Transform]string
	usedNames    map[string]bool
	producers    map[*graph.Value]*graph.Transform
	outputNames  map[*graph.Value]string
	outputCoders map[*graph.Value]*coder.Coder
	lastID       int64

	// indexed holds collections that must be written in indexed format.
	indexed map[*graph.Value]bool
	// pending holds the builders of the handler being run.
	pending []*StepBuilder
}

func newTranslator(ctx context.Context, p *graph.Pipeline, opts *JobOptions, reg *Registry) *translator {
	return &translator{
		ctx:          ctx,
		p:            p,
		opts:         opts,
		reg:          reg,
		stepNames:    make(map[*graph.Transform]string),
		usedNames:    make(map[string]bool),
		producers:    make(map[*graph.Value]*graph.Transform),
		outputNames:  make(map[*graph.Value]string),
		outputCoders: make(map[*graph.Value]*coder.Coder),
		indexed:      indexedCollections(p, opts.Streaming),
	}
}

// indexedCollections returns the collections materialized as list or map views
// in batch jobs. The service reads those by index.
func indexedCollections(p *graph.Pipeline, streaming bool) map[*graph.Value]bool {
	ret := make(map[*graph.Value]bool)
	if streaming {
		return ret
	}
	for _, t := range p.Transforms() {
		if t.Kind != graph.CreateView {
			continue
		}
		for _, out := range t.Outputs {
			switch out.Value.View {
			case graph.List, graph.Map, graph.MultiMap:
				for _, in := range t.MainInputs() {
					ret[in.Value] = true
				}
			}
		}
	}
	return ret
}

func (x *translator) run() ([]*df.Step, error) {
	if err := x.p.Walk(x); err != nil {
		return nil, err
	}
	return x.steps, nil
}

func (x *translator) EnterComposite(*graph.Transform) error {
	return nil
}

func (x *translator) LeaveComposite(*graph.Transform) error {
	return nil
}

func (x *translator) VisitPrimitive(t *graph.Transform) error {
	h, ok := x.reg.Lookup(t.Kind)
	if !ok {
		return errors.Wrapf(ErrUnregisteredKind, "transform %v", t)
	}
	log.Debugf(x.ctx, "Translating %v", t)

	x.pending = x.pending[:0]
	if err := h.Translate(t, x); err != nil {
		return errors.WithContextf(err, "translating %v", t)
	}
	for _, sb := range x.pending {
		if err := sb.finish(); err != nil {
			return errors.WithContextf(err, "translating %v", t)
		}
	}
	return nil
}

func (x *translator) VisitValue(v *graph.Value, producer *graph.Transform) error {
	x.producers[v] = producer
	log.Debugf(x.ctx, "Checking translation of %v", v)
	if producer.IsComposite() {
		return nil
	}
	// Primitive transforms are the only ones assigned step names.
	_, err := x.AsOutputReference(v, producer)
	return err
}

func (x *translator) Options() *JobOptions {
	return x.opts
}

func (x *translator) AddStep(t *graph.Transform, kind string) (*StepBuilder, error) {
	name := x.genStepName()
	if err := x.registerStepName(t, name); err != nil {
		return nil, err
	}

	step := &df.Step{Name: name, Kind: kind}
	x.steps = append(x.steps, step)

	sb := newStepBuilder(x, step)
	sb.AddString(propUserName, t.FullName())
	sb.addDisplayData(t.DisplayData)
	x.pending = append(x.pending, sb)
	return sb, nil
}

func (x *translator) AddPrecomputedStep(t *graph.Transform, step *df.Step) (*df.Step, error) {
	if step == nil || step.Name == "" {
		return nil, errors.Wrapf(ErrMalformedStep, "precomputed step for %v has no name", t)
	}
	clone := &df.Step{
		Name:       step.Name,
		Kind:       step.Kind,
		Properties: append([]byte(nil), step.Properties...),
	}

	name, err := firstOutputName(clone.Properties)
	if err != nil {
		return nil, errors.Wrapf(err, "precomputed step %v for %v", clone.Name, t)
	}
	if err := x.registerStepName(t, clone.Name); err != nil {
		return nil, err
	}
	if name != "" {
		out, err := t.Output()
		if err != nil {
			return nil, errors.Wrapf(ErrMalformedStep, "precomputed step %v declares an output: %v", clone.Name, err)
		}
		if err := x.registerOutputName(out, name); err != nil {
			return nil, err
		}
	}

	x.steps = append(x.steps, clone)
	return clone, nil
}

// firstOutputName returns the output_name of the first output_info entry of
// serialized step properties. Structurally corrupt properties, including a
// non-string output_name, are an error; an absent entry or name yields "".
func firstOutputName(props []byte) (string, error) {
	if len(props) == 0 {
		return "", nil
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(props, &fields); err != nil {
		return "", errors.Wrap(ErrMalformedStep, "inconsistent step properties")
	}
	raw, ok := fields[propOutputInfo]
	if !ok {
		return "", nil
	}
	var outputs []map[string]json.RawMessage
	if err := json.Unmarshal(raw, &outputs); err != nil {
		return "", errors.Wrap(ErrMalformedStep, "inconsistent output_info")
	}
	if len(outputs) == 0 {
		return "", nil
	}
	rawName, ok := outputs[0][propOutputName]
	if !ok {
		return "", nil
	}
	var name string
	if err := json.Unmarshal(rawName, &name); err != nil {
		return "", errors.Wrapf(ErrMalformedStep, "output_name %s is not a string", rawName)
	}
	return name, nil
}

func (x *translator) AsOutputReference(v *graph.Value, producer *graph.Transform) (*OutputReference, error) {
	if v == nil || producer == nil {
		return nil, errors.Wrapf(ErrUnresolvedReference, "value %v with producer %v", v, producer)
	}
	stepName, ok := x.stepNames[producer]
	if !ok {
		return nil, errors.Wrapf(ErrUnresolvedReference, "%v doesn't have a step name", producer)
	}
	outputName, ok := x.outputNames[v]
	if !ok {
		return nil, errors.Wrapf(ErrUnresolvedReference, "output %v of %v doesn't have a name", v, producer)
	}
	return newOutputReference(stepName, outputName), nil
}

func (x *translator) Producer(v *graph.Value) (*graph.Transform, error) {
	p, ok := x.producers[v]
	if !ok {
		return nil, errors.Wrapf(ErrUnresolvedReference, "unknown producer for value %v", v)
	}
	return p, nil
}

func (x *translator) OutputCoder(v *graph.Value) (*coder.Coder, bool) {
	c, ok := x.outputCoders[v]
	return c, ok
}

// genStepName returns "s" followed by one more than the number of named
// steps, counting up past names a precomputed step already took.
func (x *translator) genStepName() string {
	for n := len(x.stepNames) + 1; ; n++ {
		if name := fmt.Sprintf("s%d", n); !x.usedNames[name] {
			return name
		}
	}
}

func (x *translator) registerStepName(t *graph.Transform, name string) error {
	if prev, ok := x.stepNames[t]; ok {
		return errors.Wrapf(ErrDuplicateStepName, "%v already has step name %v", t, prev)
	}
	if x.usedNames[name] {
		return errors.Wrapf(ErrDuplicateStepName, "step name %v for %v is already in use", name, t)
	}
	x.stepNames[t] = name
	x.usedNames[name] = true
	return nil
}

// nextOutputID returns the next id of the output id sequence shared by every
// step of the job. The first id is 1.
func (x *translator) nextOutputID() int64 {
	x.lastID++
	return x.lastID
}

func (x *translator) registerOutputName(v *graph.Value, name string) error {
	if prev, ok := x.outputNames[v]; ok {
		return errors.Wrapf(ErrDuplicateOutputName, "output %v already has name %v", v, prev)
	}
	x.outputNames[v] = name
	return nil
}

func outputName(id int64) string {
	return strconv.FormatInt(id, 10)
}
