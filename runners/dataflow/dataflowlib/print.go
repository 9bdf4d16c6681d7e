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

	"github.com/nicku33/beam/graph/window"
	"github.com/nicku33/beam/log"
	df "google.golang.org/api/dataflow/v1b3"
	"google.golang.org/protobuf/encoding/prototext"
)

// JobToString returns the job as indented JSON.
func JobToString(job *df.Job) (string, error) {
	str, err := json.MarshalIndent(job, "", "  ")
	if err != nil {
		return "", err
	}
	return string(str), nil
}

// PrintJob logs the job as indented JSON.
func PrintJob(ctx context.Context, job *df.Job) {
	str, err := JobToString(job)
	if err != nil {
		log.Infof(ctx, "Failed to print job %v: %v", job.Name, err)
		return
	}
	log.Info(ctx, str)
}

// WindowingStrategyText returns the model proto of the strategy, as sent in
// serialized_fn properties, in protobuf text format.
func WindowingStrategyText(ws *window.WindowingStrategy) (string, error) {
	msg, err := marshalWindowingStrategy(ws)
	if err != nil {
		return "", err
	}
	return prototext.MarshalOptions{Multiline: true}.Format(msg), nil
}
