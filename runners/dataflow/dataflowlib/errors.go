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
	"github.com/nicku33/beam/internal/errors"
)

// Failure categories of a translation. Errors returned by this package wrap
// one of these, so callers can test them with errors.Is.
var (
	ErrUnregisteredKind      = errors.New("no handler registered for transform kind")
	ErrDuplicateRegistration = errors.New("handler already registered")
	ErrDuplicateStepName     = errors.New("duplicate step name")
	ErrDuplicateOutputName   = errors.New("duplicate output name")
	ErrUnresolvedReference   = errors.New("unresolved reference")
	ErrUnsupportedFeature    = errors.New("unsupported feature")
	ErrNonCollectionOutput   = errors.New("output is not a collection")
	ErrInvalidConfiguration  = errors.New("invalid configuration")
	ErrMalformedStep         = errors.New("malformed step")
)
