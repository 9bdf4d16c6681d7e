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

// Package graphx decodes pipeline descriptions into pipeline graphs.
//
// A description lists transforms with their inputs and outputs. Values are
// named by id and connect the output of one transform to the inputs of
// others. The same model is accepted as YAML, JSON or HCL:
//
//	name: wordcount
//	transforms:
//	  - name: Read
//	    kind: Read
//	    source: {name: textio, estimated_size: 64MB}
//	    outputs: [{tag: out, id: lines, coder: string_utf8}]
//	  - name: Count
//	    kind: Composite
//	    transforms:
//	      - name: GBK
//	        kind: GBK
//	        inputs: [{tag: in, id: pairs}]
//	        outputs: [{tag: out, id: grouped, coder: "KV<string_utf8,Iterable<varint>>"}]
package graphx

// Description is a decoded pipeline description.
type Description struct {
	Name         string            `yaml:"name"`
	AvroSchemas  map[string]string `yaml:"avro_schemas"`
	CustomCoders map[string]string `yaml:"custom_coders"` // name -> base64 payload
	Transforms   []*TransformSpec  `yaml:"transforms"`
}

// TransformSpec describes one transform. Composites only have a name and
// parts.
type TransformSpec struct {
	Name       string           `yaml:"name"`
	Kind       string           `yaml:"kind"`
	Transforms []*TransformSpec `yaml:"transforms"`

	Inputs     []*PortSpec   `yaml:"inputs"`
	SideInputs []*PortSpec   `yaml:"side_inputs"`
	Outputs    []*OutputSpec `yaml:"outputs"`

	Fn          *FnSpec            `yaml:"fn"`
	CombineFn   *CombineFnSpec     `yaml:"combine_fn"`
	Source      *SourceSpec        `yaml:"source"`
	Impulse     string             `yaml:"impulse"` // base64
	FewKeys     bool               `yaml:"few_keys"`
	DisplayData []*DisplayDataSpec `yaml:"display_data"`
}

// PortSpec references a value by id.
type PortSpec struct {
	Tag string `yaml:"tag"`
	ID  string `yaml:"id"`
}

// OutputSpec declares a value produced by a transform.
type OutputSpec struct {
	Tag       string         `yaml:"tag"`
	ID        string         `yaml:"id"`
	Coder     string         `yaml:"coder"`
	View      string         `yaml:"view"` // Empty for collections.
	Bounded   *bool          `yaml:"bounded"`
	Windowing *WindowingSpec `yaml:"windowing"`
}

// WindowingSpec declares a windowing strategy. Durations use Go syntax, such
// as 1m30s.
type WindowingSpec struct {
	Fn              string `yaml:"fn"` // global, fixed, sliding or sessions
	Size            string `yaml:"size"`
	Period          string `yaml:"period"`
	Offset          string `yaml:"offset"`
	Gap             string `yaml:"gap"`
	Trigger         string `yaml:"trigger"`
	Accumulation    string `yaml:"accumulation"` // discarding or accumulating
	AllowedLateness string `yaml:"allowed_lateness"`
}

// FnSpec declares the fn of a ParDo.
type FnSpec struct {
	Name       string `yaml:"name"`
	Payload    string `yaml:"payload"` // base64
	Splittable bool   `yaml:"splittable"`
	UsesState  bool   `yaml:"uses_state"`
	UsesTimers bool   `yaml:"uses_timers"`
}

// CombineFnSpec declares the fn of a CombineValues.
type CombineFnSpec struct {
	Name       string `yaml:"name"`
	Payload    string `yaml:"payload"` // base64
	AccumCoder string `yaml:"accumulator_coder"`
}

// SourceSpec declares the source of a Read.
type SourceSpec struct {
	Name          string `yaml:"name"`
	Payload       string `yaml:"payload"`        // base64
	EstimatedSize string `yaml:"estimated_size"` // bytes, or a size such as 64MB
}

// DisplayDataSpec is one display data item. Value is a string, number or
// boolean.
type DisplayDataSpec struct {
	Key       string `yaml:"key"`
	Label     string `yaml:"label"`
	Namespace string `yaml:"namespace"`
	Value     any    `yaml:"value"`
}
