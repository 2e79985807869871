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

package errs

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildError(t *testing.T) {
	tests := []struct {
		name string
		err  *BuildError
		want string
	}{
		{name: "exit", err: &BuildError{ExitCode: 2}, want: "build exited with code 2"},
		{name: "timeout", err: &BuildError{TimedOut: true, ExitCode: -1}, want: "build timed out"},
		{name: "missing entry", err: &BuildError{MissingEntry: "remoteEntry.js"}, want: "build output does not contain entry bundle remoteEntry.js"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Error())
		})
	}

	e := &BuildError{ExitCode: 1, LogTail: "npm ERR! missing script: build"}
	assert.Equal(t, "build exited with code 1\nnpm ERR! missing script: build", e.Reason())
}

func TestErrorsAs(t *testing.T) {
	cause := errors.New("connection refused")
	err := fmt.Errorf("session: %w", &RuntimeLoadError{ModuleId: "weather-lite", Version: "1.0.0", Reason: "fetch failed", Cause: cause})

	var rle *RuntimeLoadError
	assert.ErrorAs(t, err, &rle)
	assert.Equal(t, "weather-lite", rle.ModuleId)
	assert.ErrorIs(t, err, cause)

	var tw *TeardownWarning
	assert.False(t, errors.As(err, &tw))
}

func TestSchemaError(t *testing.T) {
	assert.Equal(t, `manifest field "version": not a semantic version`, (&SchemaError{Field: "version", Message: "not a semantic version"}).Error())
	assert.Equal(t, "manifest: not found", (&SchemaError{Message: "not found"}).Error())
}
