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
	"bytes"
	"encoding/json"

	"github.com/linkedin/goavro"
	"github.com/nicku33/beam/internal/errors"
)

// AvroSchema is a validated Avro schema. Canonical is the schema JSON with
// insignificant whitespace removed.
type AvroSchema struct {
	Name      string
	Canonical string
}

// NewAvro returns a coder for Avro records of the given schema. The schema is
// parsed eagerly so that bad schemas fail at pipeline construction.
func NewAvro(name, schema string) (*Coder, error) {
	if _, err := goavro.NewCodec(schema); err != nil {
		return nil, errors.Wrapf(err, "invalid avro schema %q", name)
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, []byte(schema)); err != nil {
		return nil, errors.Wrapf(err, "invalid avro schema %q", name)
	}
	return &Coder{Kind: Avro, Schema: &AvroSchema{Name: name, Canonical: buf.String()}}, nil
}
