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
	"context"

	"github.com/go-arcade/modhub/internal/hub/model"
)

// ReviewPolicy decides whether a validated upload is published without a human reviewer.
type ReviewPolicy interface {
	AutoApprove(u *model.Upload) bool
}

// ManualReview leaves every upload to a reviewer.
type ManualReview struct{}

func (ManualReview) AutoApprove(*model.Upload) bool { return false }

// AutoApprove publishes every validated upload. Meant for test suites and
// trusted internal pipelines.
type AutoApprove struct{}

func (AutoApprove) AutoApprove(*model.Upload) bool { return true }

// PolicyFunc adapts a function to ReviewPolicy.
type PolicyFunc func(u *model.Upload) bool

func (f PolicyFunc) AutoApprove(u *model.Upload) bool { return f(u) }

func PolicyFromConfig(conf Config) ReviewPolicy {
	if conf.AutoApprove {
		return AutoApprove{}
	}
	return ManualReview{}
}

// Approver publishes a validated upload on behalf of a principal.
type Approver interface {
	Approve(ctx context.Context, principal model.Principal, uploadId string) (*model.Upload, error)
}
