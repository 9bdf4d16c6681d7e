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
	"context"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/nicku33/beam/io/filesystem/memfs"
	"github.com/nicku33/beam/runners/dataflow/dataflowlib"
)

const wordCountYAML = `
name: wordcount
transforms:
  - name: Read
    kind: Read
    source: {name: textio, payload: c3Jj, estimated_size: 64MB}
    outputs: [{tag: out, id: lines, coder: string_utf8}]
  - name: Count
    kind: Composite
    transforms:
      - name: Pair
        kind: ParDo
        fn: {name: pairFn}
        inputs: [{tag: in, id: lines}]
        outputs:
          - tag: out
            id: pairs
            coder: KV<string_utf8,varint>
            windowing: {fn: fixed, size: 1m}
      - name: GBK
        kind: GBK
        inputs: [{tag: in, id: pairs}]
        outputs: [{tag: out, id: grouped, coder: "KV<string_utf8,Iterable<varint>>", windowing: {fn: fixed, size: 1m}}]
        display_data:
          - {key: shards, value: 3}
          - {key: label, label: Label, value: counts}
`

const wordCountJSON = `{
	"name": "wordcount",
	"transforms": [
		{
			"name": "Read",
			"kind": "Read",
			"source": {"name": "textio", "payload": "c3Jj", "estimated_size": "64MB"},
			"outputs": [{"tag": "out", "id": "lines", "coder": "string_utf8"}]
		},
		{
			"name": "Count",
			"kind": "Composite",
			"transforms": [
				{
					"name": "Pair",
					"kind": "ParDo",
					"fn": {"name": "pairFn"},
					"inputs": [{"tag": "in", "id": "lines"}],
					"outputs": [{"tag": "out", "id": "pairs", "coder": "KV<string_utf8,varint>", "windowing": {"fn": "fixed", "size": "1m"}}]
				},
				{
					"name": "GBK",
					"kind": "GBK",
					"inputs": [{"tag": "in", "id": "pairs"}],
					"outputs": [{"tag": "out", "id": "grouped", "coder": "KV<string_utf8,Iterable<varint>>", "windowing": {"fn": "fixed", "size": "1m"}}],
					"display_data": [
						{"key": "shards", "value": 3},
						{"key": "label", "label": "Label", "value": "counts"}
					]
				}
			]
		}
	]
}`

const wordCountHCL = `
name = "wordcount"

transform "Read" {
  kind = "Read"
  source {
    name           = "textio"
    payload        = "c3Jj"
    estimated_size = "64MB"
  }
  output "out" {
    id    = "lines"
    coder = "string_utf8"
  }
}

transform "Count" {
  kind = "Composite"

  transform "Pair" {
    kind = "ParDo"
    fn {
      name = "pairFn"
    }
    input "in" {
      id = "lines"
    }
    output "out" {
      id    = "pairs"
      coder = "KV<string_utf8,varint>"
      windowing {
        fn   = "fixed"
        size = "1m"
      }
    }
  }

  transform "GBK" {
    kind = "GBK"
    input "in" {
      id = "pairs"
    }
    output "out" {
      id    = "grouped"
      coder = "KV<string_utf8,Iterable<varint>>"
      windowing {
        fn   = "fixed"
        size = "1m"
      }
    }
    display_data "shards" {
      value = 3
    }
    display_data "label" {
      label = "Label"
      value = "counts"
    }
  }
}
`

func TestDecode_Formats(t *testing.T) {
	want, err := Decode([]byte(wordCountYAML), YAML, "wordcount.yaml")
	if err != nil {
		t.Fatalf("Decode(yaml) failed: %v", err)
	}
	if got := want.Transforms[1].Transforms[1].DisplayData[0].Value; got != 3 {
		t.Errorf("yaml display value = %#v, want 3", got)
	}

	tests := []struct {
		name   string
		format Format
		data   string
	}{
		{"json", YAML, wordCountJSON},
		{"hcl", HCL, wordCountHCL},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			got, err := Decode([]byte(test.data), test.format, "wordcount."+test.name)
			if err != nil {
				t.Fatalf("Decode failed: %v", err)
			}
			// Numbers decode to int in YAML and int64 in HCL.
			for _, tr := range []*Description{want, got} {
				for _, dd := range tr.Transforms[1].Transforms[1].DisplayData {
					if n, ok := dd.Value.(int64); ok {
						dd.Value = int(n)
					}
				}
			}
			if diff := cmp.Diff(want, got); diff != "" {
				t.Errorf("Decode mismatch (-yaml +%v):\n%s", test.name, diff)
			}
		})
	}
}

func TestDecode_Errors(t *testing.T) {
	tests := []struct {
		name   string
		format Format
		data   string
	}{
		{"unknown yaml field", YAML, "name: x\nsteps: []\n"},
		{"bad yaml", YAML, "transforms: {"},
		{"bad hcl", HCL, `transform "x" {`},
		{"unknown hcl block", HCL, `step "x" {}`},
		{"missing hcl kind", HCL, `transform "x" {}`},
		{"hcl list value", HCL, "transform \"x\" {\n kind = \"Flatten\"\n display_data \"k\" {\n value = [1]\n }\n}\n"},
		{"duplicate hcl schema", HCL, "avro_schema \"A\" {\n schema = \"{}\"\n}\navro_schema \"A\" {\n schema = \"{}\"\n}\n"},
		{"unknown format", Format("toml"), ""},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if d, err := Decode([]byte(test.data), test.format, "test"); err == nil {
				t.Errorf("Decode succeeded with %+v, want error", d)
			}
		})
	}
}

func TestDecode_Empty(t *testing.T) {
	d, err := Decode(nil, YAML, "empty.yaml")
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if len(d.Transforms) != 0 {
		t.Errorf("Decode(empty) = %+v, want no transforms", d)
	}
}

func TestFormatOf(t *testing.T) {
	tests := []struct {
		path string
		want Format
	}{
		{"p.yaml", YAML},
		{"gs://bucket/p.YML", YAML},
		{"p.json", YAML},
		{"/tmp/p.hcl", HCL},
	}
	for _, test := range tests {
		got, err := FormatOf(test.path)
		if err != nil {
			t.Errorf("FormatOf(%q) failed: %v", test.path, err)
			continue
		}
		if got != test.want {
			t.Errorf("FormatOf(%q) = %v, want %v", test.path, got, test.want)
		}
	}
	if _, err := FormatOf("p.toml"); err == nil {
		t.Errorf("FormatOf(p.toml) succeeded, want error")
	}
}

func TestLoad(t *testing.T) {
	ctx := context.Background()
	memfs.Write("memfs://pipelines/wordcount.hcl", []byte(wordCountHCL))
	defer memfs.Remove("memfs://pipelines/wordcount.hcl")

	d, p, err := Load(ctx, "memfs://pipelines/wordcount.hcl")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if got, want := d.Name, "wordcount"; got != want {
		t.Errorf("name = %v, want %v", got, want)
	}

	spec, err := dataflowlib.Translate(ctx, p, &dataflowlib.JobOptions{Name: d.Name, Project: "p"}, dataflowlib.DefaultRegistry())
	if err != nil {
		t.Fatalf("Translate failed: %v", err)
	}
	var got []string
	for _, step := range spec.Job.Steps {
		got = append(got, step.Kind+":"+step.Name)
	}
	want := []string{"ParallelRead:s1", "ParallelDo:s2", "GroupByKey:s3"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("steps mismatch (-want +got):\n%s", diff)
	}
	if !strings.Contains(string(spec.Job.Steps[0].Properties), `"estimated_size_bytes":{"@type":"http://schema.org/Integer","value":64000000}`) {
		t.Errorf("read properties = %s, want estimated size 64000000", spec.Job.Steps[0].Properties)
	}
}

func TestLoad_Errors(t *testing.T) {
	ctx := context.Background()
	memfs.Write("memfs://pipelines/bad.yaml", []byte("transforms: [{name: X, kind: Flatten, inputs: [{id: missing}]}]"))
	defer memfs.Remove("memfs://pipelines/bad.yaml")

	tests := []string{
		"memfs://pipelines/missing.yaml",
		"memfs://pipelines/bad.yaml",
		"memfs://pipelines/bad.toml",
	}
	for _, test := range tests {
		if _, _, err := Load(ctx, test); err == nil {
			t.Errorf("Load(%q) succeeded, want error", test)
		}
	}
}
