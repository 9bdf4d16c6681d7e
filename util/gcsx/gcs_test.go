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

package gcsx

import (
	"testing"
)

func TestMakeObject(t *testing.T) {
	if got, want := MakeObject("some-bucket", "some/path"), "gs://some-bucket/some/path"; got != want {
		t.Fatalf("MakeObject() Got: %v Want: %v", got, want)
	}
}

func TestParseObject(t *testing.T) {
	tests := []struct {
		object     string
		bucket     string
		path       string
		errorExist bool
	}{
		{object: "gs://some-bucket/some-object", bucket: "some-bucket", path: "some-object"},
		{object: "gs://some-bucket/staging/job.json", bucket: "some-bucket", path: "staging/job.json"},
		{object: "gs://some-bucket", bucket: "some-bucket", path: ""},
		{object: "gs://", errorExist: true},
		{object: "s3://some-bucket/some-object", errorExist: true},
	}
	for _, test := range tests {
		bucket, path, err := ParseObject(test.object)
		if test.errorExist {
			if err == nil {
				t.Errorf("ParseObject(%v) succeeded, want error", test.object)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseObject(%v) failed: %v", test.object, err)
			continue
		}
		if bucket != test.bucket || path != test.path {
			t.Errorf("ParseObject(%v) = (%v, %v), want (%v, %v)", test.object, bucket, path, test.bucket, test.path)
		}
	}
}
