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
	"fmt"

	"github.com/nicku33/beam/graph"
	"github.com/nicku33/beam/graph/coder"
	"github.com/nicku33/beam/internal/errors"
	df "google.golang.org/api/dataflow/v1b3"
)

// output models an entry of the output_info step property.
type output struct {
	UserName         string             `json:"user_name,omitempty"`
	OutputName       string             `json:"output_name,omitempty"`
	Encoding         *coder.CloudObject `json:"encoding,omitempty"`
	UseIndexedFormat bool               `json:"use_indexed_format,omitempty"`
}

// StepBuilder accumulates the properties of one step. The properties are
// serialized into the step once its handler returns.
type StepBuilder struct {
	x       *translator
	step    *df.Step
	props   map[string]any
	outputs []*output
}

func newStepBuilder(x *translator, step *df.Step) *StepBuilder {
	return &StepBuilder{x: x, step: step, props: make(map[string]any)}
}

// Name returns the step name.
func (b *StepBuilder) Name() string {
	return b.step.Name
}

// AddBool sets a boolean property.
func (b *StepBuilder) AddBool(name string, value bool) {
	b.props[name] = value
}

// AddString sets a string property.
func (b *StepBuilder) AddString(name, value string) {
	b.props[name] = value
}

// AddInt sets an integer property.
func (b *StepBuilder) AddInt(name string, value int64) {
	b.props[name] = newInteger(value)
}

// AddDict sets a dictionary property.
func (b *StepBuilder) AddDict(name string, elements map[string]any) {
	if elements == nil {
		elements = map[string]any{}
	}
	b.props[name] = elements
}

// AddList sets a list of dictionaries property.
func (b *StepBuilder) AddList(name string, elements []map[string]any) {
	if elements == nil {
		elements = []map[string]any{}
	}
	b.props[name] = elements
}

// AddOutputReferences sets a list property of references, keeping order.
func (b *StepBuilder) AddOutputReferences(name string, refs []*OutputReference) {
	if refs == nil {
		refs = []*OutputReference{}
	}
	b.props[name] = refs
}

// AddInput resolves v to a reference into the step producing it and sets it
// as a property.
func (b *StepBuilder) AddInput(name string, v *graph.Value) error {
	if v == nil {
		return errors.Errorf("input %v of step %v must be a value", name, b.step.Name)
	}
	producer, err := b.x.Producer(v)
	if err != nil {
		return err
	}
	ref, err := b.x.AsOutputReference(v, producer)
	if err != nil {
		return err
	}
	b.props[name] = ref
	return nil
}

// AddEncoding sets the encoding property from c.
func (b *StepBuilder) AddEncoding(c *coder.Coder) error {
	enc, err := coder.EncodeCloudObject(c)
	if err != nil {
		return errors.Wrapf(err, "encoding of step %v", b.step.Name)
	}
	b.props[propEncoding] = enc
	return nil
}

// AddOutput registers v as an output of the step and returns its output id.
// Collections are encoded with their element coder wrapped in a windowed
// value coder for the window of their windowing strategy. Other values have
// no encoding.
func (b *StepBuilder) AddOutput(v *graph.Value) (int64, error) {
	if v == nil {
		return 0, errors.Errorf("nil output for step %v", b.step.Name)
	}
	var c *coder.Coder
	if v.IsCollection() {
		if v.Coder == nil || v.WindowingStrategy == nil || v.WindowingStrategy.Fn == nil {
			return 0, errors.Wrapf(ErrMalformedStep, "collection %v lacks a coder or windowing strategy", v)
		}
		c = coder.NewW(v.Coder, v.WindowingStrategy.Fn.Coder())
	}
	return b.addOutput(v, c)
}

// AddCollectionToSingletonOutput registers out as the materialized form of
// in. The output coder is an iterable of the windowed coder already
// registered for in.
func (b *StepBuilder) AddCollectionToSingletonOutput(in, out *graph.Value) (int64, error) {
	inCoder, ok := b.x.OutputCoder(in)
	if !ok {
		return 0, errors.Wrapf(ErrMalformedStep, "no coder registered for %v", in)
	}
	if !coder.IsW(inCoder) {
		return 0, errors.Wrapf(ErrMalformedStep, "coder %v of %v is not a windowed value coder", inCoder, in)
	}
	return b.addOutput(out, coder.NewI(inCoder))
}

func (b *StepBuilder) addOutput(v *graph.Value, c *coder.Coder) (int64, error) {
	id := b.x.nextOutputID()
	if err := b.x.registerOutputName(v, outputName(id)); err != nil {
		return 0, err
	}

	userName, _ := b.props[propUserName].(string)
	info := &output{
		OutputName:       outputName(id),
		UserName:         fmt.Sprintf("%s.out%d", userName, len(b.outputs)),
		UseIndexedFormat: v.IsCollection() && b.x.indexed[v],
	}
	if c != nil {
		enc, err := coder.EncodeCloudObject(c)
		if err != nil {
			return 0, errors.Wrapf(err, "encoding output %v of step %v", v, b.step.Name)
		}
		info.Encoding = enc
		b.x.outputCoders[v] = c
	}
	b.outputs = append(b.outputs, info)
	return id, nil
}

func (b *StepBuilder) addDisplayData(items []graph.DisplayItem) {
	if len(items) == 0 {
		return
	}
	list := make([]*displayData, 0, len(items))
	for _, item := range items {
		list = append(list, newDisplayData(item.Key, item.Label, item.Namespace, item.Value))
	}
	b.props[propDisplayData] = list
}

// finish serializes the properties into the step.
func (b *StepBuilder) finish() error {
	if len(b.outputs) > 0 {
		b.props[propOutputInfo] = b.outputs
	}
	msg, err := newMsg(b.props)
	if err != nil {
		return errors.Wrapf(ErrMalformedStep, "properties of step %v: %v", b.step.Name, err)
	}
	b.step.Properties = msg
	return nil
}
