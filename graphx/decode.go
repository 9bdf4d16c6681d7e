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
	"bytes"
	"context"
	"io"
	"math/big"
	"path/filepath"
	"strings"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/nicku33/beam/graph"
	"github.com/nicku33/beam/internal/errors"
	"github.com/nicku33/beam/io/filesystem"
	"github.com/nicku33/beam/log"
	"github.com/zclconf/go-cty/cty"
	"gopkg.in/yaml.v3"
)

// Format is the syntax of a description.
type Format string

const (
	YAML Format = "yaml" // Also accepts JSON.
	HCL  Format = "hcl"
)

// FormatOf returns the format of a description file from its extension.
func FormatOf(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml", ".json":
		return YAML, nil
	case ".hcl":
		return HCL, nil
	default:
		return "", errors.Errorf("unknown pipeline description format for %v; want .yaml, .yml, .json or .hcl", path)
	}
}

// Load reads, decodes and builds the pipeline description at path, which may
// be on any registered file system.
func Load(ctx context.Context, path string) (*Description, *graph.Pipeline, error) {
	format, err := FormatOf(path)
	if err != nil {
		return nil, nil, err
	}
	data, err := filesystem.ReadFile(ctx, path)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "reading pipeline description %v", path)
	}
	d, err := Decode(data, format, path)
	if err != nil {
		return nil, nil, err
	}
	p, err := Build(d)
	if err != nil {
		return nil, nil, errors.WithContextf(err, "building pipeline from %v", path)
	}
	log.Debugf(ctx, "Loaded pipeline %q from %v with %d transforms", d.Name, path, len(p.Transforms())-1)
	return d, p, nil
}

// Decode decodes a description. The filename is used in error messages.
func Decode(data []byte, format Format, filename string) (*Description, error) {
	switch format {
	case YAML:
		return decodeYAML(data, filename)
	case HCL:
		return decodeHCL(data, filename)
	default:
		return nil, errors.Errorf("unknown format %q", format)
	}
}

func decodeYAML(data []byte, filename string) (*Description, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var d Description
	if err := dec.Decode(&d); err != nil {
		if err == io.EOF {
			return &d, nil
		}
		return nil, errors.Wrapf(err, "failed to decode %v", filename)
	}
	return &d, nil
}

type hclFile struct {
	Name         string            `hcl:"name,optional"`
	AvroSchemas  []*hclAvroSchema  `hcl:"avro_schema,block"`
	CustomCoders []*hclCustomCoder `hcl:"custom_coder,block"`
	Transforms   []*hclTransform   `hcl:"transform,block"`
}

type hclAvroSchema struct {
	Name   string `hcl:"name,label"`
	Schema string `hcl:"schema"`
}

type hclCustomCoder struct {
	Name    string `hcl:"name,label"`
	Payload string `hcl:"payload,optional"`
}

type hclTransform struct {
	Name       string          `hcl:"name,label"`
	Kind       string          `hcl:"kind"`
	Transforms []*hclTransform `hcl:"transform,block"`

	Inputs     []*hclPort   `hcl:"input,block"`
	SideInputs []*hclPort   `hcl:"side_input,block"`
	Outputs    []*hclOutput `hcl:"output,block"`

	Fn          *hclFn            `hcl:"fn,block"`
	CombineFn   *hclCombineFn     `hcl:"combine_fn,block"`
	Source      *hclSource        `hcl:"source,block"`
	Impulse     string            `hcl:"impulse,optional"`
	FewKeys     bool              `hcl:"few_keys,optional"`
	DisplayData []*hclDisplayData `hcl:"display_data,block"`
}

type hclPort struct {
	Tag string `hcl:"tag,label"`
	ID  string `hcl:"id"`
}

type hclOutput struct {
	Tag       string        `hcl:"tag,label"`
	ID        string        `hcl:"id"`
	Coder     string        `hcl:"coder,optional"`
	View      string        `hcl:"view,optional"`
	Bounded   *bool         `hcl:"bounded,optional"`
	Windowing *hclWindowing `hcl:"windowing,block"`
}

type hclWindowing struct {
	Fn              string `hcl:"fn,optional"`
	Size            string `hcl:"size,optional"`
	Period          string `hcl:"period,optional"`
	Offset          string `hcl:"offset,optional"`
	Gap             string `hcl:"gap,optional"`
	Trigger         string `hcl:"trigger,optional"`
	Accumulation    string `hcl:"accumulation,optional"`
	AllowedLateness string `hcl:"allowed_lateness,optional"`
}

type hclFn struct {
	Name       string `hcl:"name"`
	Payload    string `hcl:"payload,optional"`
	Splittable bool   `hcl:"splittable,optional"`
	UsesState  bool   `hcl:"uses_state,optional"`
	UsesTimers bool   `hcl:"uses_timers,optional"`
}

type hclCombineFn struct {
	Name       string `hcl:"name"`
	Payload    string `hcl:"payload,optional"`
	AccumCoder string `hcl:"accumulator_coder,optional"`
}

type hclSource struct {
	Name          string `hcl:"name"`
	Payload       string `hcl:"payload,optional"`
	EstimatedSize string `hcl:"estimated_size,optional"`
}

type hclDisplayData struct {
	Key       string    `hcl:"key,label"`
	Label     string    `hcl:"label,optional"`
	Namespace string    `hcl:"namespace,optional"`
	Value     cty.Value `hcl:"value"`
}

func decodeHCL(data []byte, filename string) (*Description, error) {
	f, diags := hclparse.NewParser().ParseHCL(data, filename)
	if diags.HasErrors() {
		return nil, errors.Wrapf(diags, "failed to parse HCL file %v", filename)
	}
	var parsed hclFile
	if diags := gohcl.DecodeBody(f.Body, nil, &parsed); diags.HasErrors() {
		return nil, errors.Wrapf(diags, "failed to decode HCL file %v", filename)
	}

	d := &Description{Name: parsed.Name}
	for _, s := range parsed.AvroSchemas {
		if d.AvroSchemas == nil {
			d.AvroSchemas = make(map[string]string)
		}
		if _, ok := d.AvroSchemas[s.Name]; ok {
			return nil, errors.Errorf("%v: duplicate avro schema %q", filename, s.Name)
		}
		d.AvroSchemas[s.Name] = s.Schema
	}
	for _, c := range parsed.CustomCoders {
		if d.CustomCoders == nil {
			d.CustomCoders = make(map[string]string)
		}
		if _, ok := d.CustomCoders[c.Name]; ok {
			return nil, errors.Errorf("%v: duplicate custom coder %q", filename, c.Name)
		}
		d.CustomCoders[c.Name] = c.Payload
	}
	for _, t := range parsed.Transforms {
		spec, err := t.spec()
		if err != nil {
			return nil, errors.Wrapf(err, "%v", filename)
		}
		d.Transforms = append(d.Transforms, spec)
	}
	return d, nil
}

func (t *hclTransform) spec() (*TransformSpec, error) {
	ret := &TransformSpec{
		Name:    t.Name,
		Kind:    t.Kind,
		Impulse: t.Impulse,
		FewKeys: t.FewKeys,
	}
	for _, sub := range t.Transforms {
		s, err := sub.spec()
		if err != nil {
			return nil, err
		}
		ret.Transforms = append(ret.Transforms, s)
	}
	for _, in := range t.Inputs {
		ret.Inputs = append(ret.Inputs, &PortSpec{Tag: in.Tag, ID: in.ID})
	}
	for _, in := range t.SideInputs {
		ret.SideInputs = append(ret.SideInputs, &PortSpec{Tag: in.Tag, ID: in.ID})
	}
	for _, out := range t.Outputs {
		o := &OutputSpec{Tag: out.Tag, ID: out.ID, Coder: out.Coder, View: out.View, Bounded: out.Bounded}
		if w := out.Windowing; w != nil {
			o.Windowing = &WindowingSpec{
				Fn:              w.Fn,
				Size:            w.Size,
				Period:          w.Period,
				Offset:          w.Offset,
				Gap:             w.Gap,
				Trigger:         w.Trigger,
				Accumulation:    w.Accumulation,
				AllowedLateness: w.AllowedLateness,
			}
		}
		ret.Outputs = append(ret.Outputs, o)
	}
	if fn := t.Fn; fn != nil {
		ret.Fn = &FnSpec{Name: fn.Name, Payload: fn.Payload, Splittable: fn.Splittable, UsesState: fn.UsesState, UsesTimers: fn.UsesTimers}
	}
	if fn := t.CombineFn; fn != nil {
		ret.CombineFn = &CombineFnSpec{Name: fn.Name, Payload: fn.Payload, AccumCoder: fn.AccumCoder}
	}
	if src := t.Source; src != nil {
		ret.Source = &SourceSpec{Name: src.Name, Payload: src.Payload, EstimatedSize: src.EstimatedSize}
	}
	for _, dd := range t.DisplayData {
		v, err := fromCty(dd.Value)
		if err != nil {
			return nil, errors.Wrapf(err, "display data %q of transform %q", dd.Key, t.Name)
		}
		ret.DisplayData = append(ret.DisplayData, &DisplayDataSpec{Key: dd.Key, Label: dd.Label, Namespace: dd.Namespace, Value: v})
	}
	return ret, nil
}

// fromCty converts a primitive HCL value. Whole numbers become int64.
func fromCty(v cty.Value) (any, error) {
	if v.IsNull() || !v.IsKnown() {
		return nil, errors.New("value must be known and not null")
	}
	switch v.Type() {
	case cty.String:
		return v.AsString(), nil
	case cty.Bool:
		return v.True(), nil
	case cty.Number:
		bf := v.AsBigFloat()
		if i, acc := bf.Int64(); acc == big.Exact {
			return i, nil
		}
		f, _ := bf.Float64()
		return f, nil
	default:
		return nil, errors.Errorf("unsupported value type %v; want a string, number or bool", v.Type().FriendlyName())
	}
}
