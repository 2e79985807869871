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

package upload

import (
	"testing"

	"github.com/go-arcade/modhub/internal/hub/errs"
	"github.com/go-arcade/modhub/internal/hub/model"
	"github.com/go-arcade/modhub/pkg/statemachine"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransition(t *testing.T) {
	tests := []struct {
		from  model.UploadStatus
		event statemachine.Event
		to    model.UploadStatus
	}{
		{model.StatusUploaded, EventStartValidation, model.StatusValidating},
		{model.StatusValidating, EventSchemaFailed, model.StatusRejected},
		{model.StatusValidating, EventBuildFailed, model.StatusRejected},
		{model.StatusValidating, EventBuildSucceeded, model.StatusValidatedWaitingReview},
		{model.StatusValidatedWaitingReview, EventApprove, model.StatusPublished},
		{model.StatusValidatedWaitingReview, EventReject, model.StatusRejected},
	}
	for _, tt := range tests {
		t.Run(string(tt.from)+"/"+string(tt.event), func(t *testing.T) {
			to, err := Transition(tt.from, tt.event)
			require.NoError(t, err)
			assert.Equal(t, tt.to, to)
		})
	}
}

func TestTransition_Invalid(t *testing.T) {
	invalid := []struct {
		from  model.UploadStatus
		event statemachine.Event
	}{
		{model.StatusUploaded, EventApprove},
		{model.StatusValidating, EventApprove},
		{model.StatusValidatedWaitingReview, EventBuildFailed},
		{model.StatusPublished, EventReject},
		{model.StatusRejected, EventApprove},
		{model.StatusRejected, EventStartValidation},
	}
	for _, tt := range invalid {
		_, err := Transition(tt.from, tt.event)
		assert.ErrorIs(t, err, errs.ErrInvalidTransition, "%s on %s", tt.from, tt.event)
	}
	assert.Empty(t, Events(model.StatusPublished))
	assert.ElementsMatch(t, []statemachine.Event{EventApprove, EventReject}, Events(model.StatusValidatedWaitingReview))
	assert.Contains(t, Diagram(), "validated_waiting_review")
}
