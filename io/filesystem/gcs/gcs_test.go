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

package gcs

import (
	"testing"
)

func TestContentType(t *testing.T) {
	tests := []struct {
		object string
		want   string
	}{
		{"jobs/job.json", "application/json"},
		{"pipelines/p.yaml", "application/yaml"},
		{"pipelines/p.yml", "application/yaml"},
		{"pipelines/p.hcl", ""},
	}
	for _, test := range tests {
		if got := contentType(test.object); got != test.want {
			t.Errorf("contentType(%q) = %q, want %q", test.object, got, test.want)
		}
	}
}
