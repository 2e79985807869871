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
	"github.com/go-arcade/modhub/internal/hub/model"
	"github.com/go-arcade/modhub/pkg/statemachine"
)

// Pipeline and review events.
const (
	EventStartValidation statemachine.Event = "start_validation"
	EventSchemaFailed    statemachine.Event = "schema_failed"
	EventBuildFailed     statemachine.Event = "build_failed"
	EventBuildSucceeded  statemachine.Event = "build_succeeded"
	EventApprove         statemachine.Event = "approve"
	EventReject          statemachine.Event = "reject"
)

var lifecycle = statemachine.NewTable[model.UploadStatus]().
	On(model.StatusUploaded, EventStartValidation, model.StatusValidating).
	On(model.StatusValidating, EventSchemaFailed, model.StatusRejected).
	On(model.StatusValidating, EventBuildFailed, model.StatusRejected).
	On(model.StatusValidating, EventBuildSucceeded, model.StatusValidatedWaitingReview).
	On(model.StatusValidatedWaitingReview, EventApprove, model.StatusPublished).
	On(model.StatusValidatedWaitingReview, EventReject, model.StatusRejected).
	Terminal(model.StatusRejected, model.StatusPublished)

// Transition returns the state reached from `from` on event, or an error
// wrapping errs.ErrInvalidTransition.
func Transition(from model.UploadStatus, event statemachine.Event) (model.UploadStatus, error) {
	return lifecycle.Next(from, event)
}

// Events lists the events accepted in state.
func Events(state model.UploadStatus) []statemachine.Event {
	return lifecycle.Events(state)
}

// Diagram renders the lifecycle as Graphviz dot.
func Diagram() string {
	return lifecycle.ToDot("upload")
}
