// Copyright 2025 Arcade Team
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package errs defines the error taxonomy shared by the marketplace services.
package errs

import (
	"errors"
	"fmt"

	"github.com/go-arcade/modhub/pkg/statemachine"
)

var (
	ErrNotFound        = errors.New("not found")
	ErrForbidden       = errors.New("forbidden")
	ErrConflict        = errors.New("conflict")
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrInvalidTransition is returned for events not allowed in the current upload state.
	ErrInvalidTransition = statemachine.ErrInvalidTransition
)

// SchemaError is the first manifest validation failure.
type SchemaError struct {
	Field   string
	Message string
}

func (e *SchemaError) Error() string {
	if e.Field == "" {
		return "manifest: " + e.Message
	}
	return fmt.Sprintf("manifest field %q: %s", e.Field, e.Message)
}

// BuildError is a failed sandbox build. LogTail holds the truncated end of the build log.
type BuildError struct {
	ExitCode     int32
	TimedOut     bool
	MissingEntry string
	LogTail      string
	Cause        error
}

func (e *BuildError) Error() string {
	switch {
	case e.Cause != nil:
		return "build failed: " + e.Cause.Error()
	case e.TimedOut:
		return "build timed out"
	case e.MissingEntry != "":
		return fmt.Sprintf("build output does not contain entry bundle %s", e.MissingEntry)
	default:
		return fmt.Sprintf("build exited with code %d", e.ExitCode)
	}
}

func (e *BuildError) Unwrap() error {
	return e.Cause
}

// Reason is the text stored as the upload rejection reason.
func (e *BuildError) Reason() string {
	if e.LogTail == "" {
		return e.Error()
	}
	return e.Error() + "\n" + e.LogTail
}

// ReviewRejection records a reviewer's refusal.
type ReviewRejection struct {
	Reviewer string
	Reason   string
}

func (e *ReviewRejection) Error() string {
	return fmt.Sprintf("rejected by %s: %s", e.Reviewer, e.Reason)
}

// IneligibleError carries the refused install decision.
type IneligibleError struct {
	Rule   string
	Reason string
}

func (e *IneligibleError) Error() string {
	return fmt.Sprintf("not eligible (%s): %s", e.Rule, e.Reason)
}

// RuntimeLoadError is a module that could not be fetched, resolved or mounted.
type RuntimeLoadError struct {
	ModuleId string
	Version  string
	Reason   string
	Cause    error
}

func (e *RuntimeLoadError) Error() string {
	msg := fmt.Sprintf("load module %s@%s: %s", e.ModuleId, e.Version, e.Reason)
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *RuntimeLoadError) Unwrap() error {
	return e.Cause
}

// TeardownWarning is logged when an unmounted module has no teardown hook
// or the hook failed.
type TeardownWarning struct {
	ModuleId string
	Cause    error
}

func (e *TeardownWarning) Error() string {
	if e.Cause == nil {
		return fmt.Sprintf("module %s has no teardown hook", e.ModuleId)
	}
	return fmt.Sprintf("module %s teardown failed: %v", e.ModuleId, e.Cause)
}

func (e *TeardownWarning) Unwrap() error {
	return e.Cause
}
