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

package coder

import (
	"encoding/base64"

	"github.com/nicku33/beam/internal/errors"
)

// NOTE: the Dataflow service expects coders as weakly typed "CloudObject"
// JSON. Example value of a windowed KV<bytes,bytes> coder:
//
//	{
//	  "@type": "kind:windowed_value",
//	  "component_encodings": [
//	    {
//	      "@type": "kind:pair",
//	      "component_encodings": [
//	        {"@type": "kind:bytes"},
//	        {"@type": "kind:bytes"}
//	      ],
//	      "is_pair_like": true
//	    },
//	    {"@type": "kind:global_window"}
//	  ],
//	  "is_wrapper": true
//	}

// CloudObject is the serialized form of a coder.
type CloudObject struct {
	Type            string         `json:"@type,omitempty"`
	Components      []*CloudObject `json:"component_encodings,omitempty"`
	IsWrapper       bool           `json:"is_wrapper,omitempty"`
	IsPairLike      bool           `json:"is_pair_like,omitempty"`
	IsStreamLike    bool           `json:"is_stream_like,omitempty"`
	SerializedCoder string         `json:"serialized_coder,omitempty"` // Custom
	Schema          string         `json:"schema,omitempty"`           // Avro
}

const (
	bytesType         = "kind:bytes"
	varIntType        = "kind:varint"
	stringType        = "beam:coder:string_utf8:v1"
	boolType          = "beam:coder:bool:v1"
	doubleType        = "beam:coder:double:v1"
	pairType          = "kind:pair"
	streamType        = "kind:stream"
	lengthPrefixType  = "kind:length_prefix"
	windowedValueType = "kind:windowed_value"
	avroType          = "kind:avro"

	globalWindowType   = "kind:global_window"
	intervalWindowType = "kind:interval_window"
)

// EncodeCloudObject returns the CloudObject form of the coder.
func EncodeCloudObject(c *Coder) (*CloudObject, error) {
	if c == nil {
		return nil, errors.New("nil coder")
	}
	switch c.Kind {
	case Bytes:
		return &CloudObject{Type: bytesType}, nil
	case VarInt:
		return &CloudObject{Type: varIntType}, nil
	case String:
		return &CloudObject{Type: stringType}, nil
	case Bool:
		return &CloudObject{Type: boolType}, nil
	case Double:
		return &CloudObject{Type: doubleType}, nil

	case KV:
		if len(c.Components) != 2 {
			return nil, errors.Errorf("bad KV coder: %v", c)
		}
		key, err := EncodeCloudObject(c.Components[0])
		if err != nil {
			return nil, err
		}
		value, err := EncodeCloudObject(c.Components[1])
		if err != nil {
			return nil, err
		}
		return &CloudObject{Type: pairType, Components: []*CloudObject{key, value}, IsPairLike: true}, nil

	case Iterable:
		elm, err := encodeSole(c)
		if err != nil {
			return nil, err
		}
		return &CloudObject{Type: streamType, Components: []*CloudObject{elm}, IsStreamLike: true}, nil

	case LP:
		elm, err := encodeSole(c)
		if err != nil {
			return nil, err
		}
		return &CloudObject{Type: lengthPrefixType, Components: []*CloudObject{elm}}, nil

	case WindowedValue:
		elm, err := encodeSole(c)
		if err != nil {
			return nil, err
		}
		w, err := EncodeWindowCloudObject(c.Window)
		if err != nil {
			return nil, err
		}
		return &CloudObject{Type: windowedValueType, Components: []*CloudObject{elm, w}, IsWrapper: true}, nil

	case Custom:
		if c.Custom == nil {
			return nil, errors.Errorf("custom coder without payload: %v", c)
		}
		// Custom coders are opaque to the service and must be length prefixed.
		custom := &CloudObject{
			Type:            c.Custom.Name,
			SerializedCoder: base64.StdEncoding.EncodeToString(c.Custom.Payload),
		}
		return &CloudObject{Type: lengthPrefixType, Components: []*CloudObject{custom}}, nil

	case Avro:
		if c.Schema == nil {
			return nil, errors.Errorf("avro coder without schema: %v", c)
		}
		avro := &CloudObject{Type: avroType, Schema: c.Schema.Canonical}
		return &CloudObject{Type: lengthPrefixType, Components: []*CloudObject{avro}}, nil

	default:
		return nil, errors.Errorf("bad coder kind: %v", c.Kind)
	}
}

func encodeSole(c *Coder) (*CloudObject, error) {
	if len(c.Components) != 1 {
		return nil, errors.Errorf("bad %v coder: want 1 component, got %d", c.Kind, len(c.Components))
	}
	return EncodeCloudObject(c.Components[0])
}

// EncodeWindowCloudObject returns the CloudObject form of the window coder.
func EncodeWindowCloudObject(w *WindowCoder) (*CloudObject, error) {
	if w == nil {
		return nil, errors.New("nil window coder")
	}
	switch w.Kind {
	case GlobalWindow:
		return &CloudObject{Type: globalWindowType}, nil
	case IntervalWindow:
		return &CloudObject{Type: intervalWindowType}, nil
	default:
		return nil, errors.Errorf("bad window kind: %v", w.Kind)
	}
}
