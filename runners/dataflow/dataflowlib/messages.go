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
	"encoding/json"
	"fmt"

	"google.golang.org/api/googleapi"
)

// NOTE: most of the v1b3 messages are weakly-typed json blobs. The ones the
// translator emits are modeled here.

// Property names understood by the service.
const (
	propUserName                = "user_name"
	propDisplayData             = "display_data"
	propOutputInfo              = "output_info"
	propOutputName              = "output_name"
	propEncoding                = "encoding"
	propUseIndexedFormat        = "use_indexed_format"
	propParallelInput           = "parallel_input"
	propNonParallelInputs       = "non_parallel_inputs"
	propInputs                  = "inputs"
	propSerializedFn            = "serialized_fn"
	propUserFn                  = "user_fn"
	propUsesKeyedState          = "uses_keyed_state"
	propDisallowCombinerLifting = "disallow_combiner_lifting"
	propIsMergingWindowFn       = "is_merging_window_fn"
	propSortValues              = "sort_values"
	propFormat                  = "format"
	propCustomSourceInputStep   = "custom_source_step_input"
	propElement                 = "element"
)

// newMsg creates a json-encoded RawMessage.
func newMsg(msg any) (googleapi.RawMessage, error) {
	data, err := json.Marshal(msg)
	if err != nil {
		return nil, err
	}
	return googleapi.RawMessage(data), nil
}

// pipelineOptions models Job/Environment/SdkPipelineOptions.
type pipelineOptions struct {
	DisplayData []*displayData `json:"display_data,omitempty"`
	Options     any            `json:"options,omitempty"`
}

// userAgent models Job/Environment/UserAgent. Example value:
//
//	"userAgent": {
//	    "name": "Apache Beam SDK for Go",
//	    "version": "2.45.0"
//	},
type userAgent struct {
	Name    string `json:"name,omitempty"`
	Version string `json:"version,omitempty"`
}

// version models Job/Environment/Version. Example value:
//
//	"version": {
//	   "job_type": "FNAPI_BATCH",
//	   "major": "6"
//	},
type version struct {
	JobType string `json:"job_type,omitempty"`
	Major   string `json:"major,omitempty"`
}

type integer struct {
	Type  string `json:"@type,omitempty"` // "http://schema.org/Integer"
	Value int64  `json:"value"`
}

func newInteger(value int64) *integer {
	return &integer{
		Type:  "http://schema.org/Integer",
		Value: value,
	}
}

type customSourceInputStep struct {
	Spec     customSourceInputStepSpec      `json:"spec"`
	Metadata *customSourceInputStepMetadata `json:"metadata,omitempty"`
}

type customSourceInputStepSpec struct {
	Type             string `json:"@type,omitempty"` // "CustomSourcesType"
	SerializedSource string `json:"serialized_source,omitempty"`
}

type customSourceInputStepMetadata struct {
	EstimatedSizeBytes *integer `json:"estimated_size_bytes,omitempty"`
}

const defaultEstimatedSize = 5 << 20 // 5 MB

func newCustomSourceInputStep(serializedSource string, estimatedSize int64) *customSourceInputStep {
	if estimatedSize <= 0 {
		estimatedSize = defaultEstimatedSize
	}
	return &customSourceInputStep{
		Spec: customSourceInputStepSpec{
			Type:             "CustomSourcesType",
			SerializedSource: serializedSource,
		},
		Metadata: &customSourceInputStepMetadata{
			EstimatedSizeBytes: newInteger(estimatedSize),
		},
	}
}

// OutputReference is how a step refers to an output of an earlier step.
type OutputReference struct {
	Type       string `json:"@type,omitempty"` // "OutputReference"
	StepName   string `json:"step_name,omitempty"`
	OutputName string `json:"output_name,omitempty"`
}

func newOutputReference(step, output string) *OutputReference {
	return &OutputReference{
		Type:       "OutputReference",
		StepName:   step,
		OutputName: output,
	}
}

func (r *OutputReference) String() string {
	return fmt.Sprintf("%v.%v", r.StepName, r.OutputName)
}

type displayData struct {
	Key        string `json:"key,omitempty"`
	Label      string `json:"label,omitempty"`
	Namespace  string `json:"namespace,omitempty"`
	ShortValue string `json:"shortValue,omitempty"`
	Type       string `json:"type,omitempty"`
	Value      any    `json:"value,omitempty"`
}

func findDisplayDataType(value any) (string, any) {
	switch value.(type) {
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return "INTEGER", value
	case float32, float64:
		return "FLOAT", value
	case bool:
		return "BOOLEAN", value
	case string:
		return "STRING", value
	default:
		return "STRING", fmt.Sprintf("%v", value)
	}
}

func newDisplayData(key, label, namespace string, value any) *displayData {
	t, v := findDisplayDataType(value)

	return &displayData{
		Key:       key,
		Label:     label,
		Namespace: namespace,
		Type:      t,
		Value:     v,
	}
}
