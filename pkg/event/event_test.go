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

package event

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type selectionChanged struct {
	EntityID string
}

func (selectionChanged) EventName() string { return "selection.changed" }

func TestEventBus_PublishSubscribe(t *testing.T) {
	bus := NewEventBus()

	var got []string
	sub := bus.Subscribe("selection.changed", HandlerFunc(func(e Event) {
		got = append(got, e.(selectionChanged).EntityID)
	}))
	bus.Subscribe("selection.changed", HandlerFunc(func(Event) { panic("boom") }))
	assert.Equal(t, 2, bus.Len())

	bus.Publish(selectionChanged{EntityID: "parcel-1"})
	assert.Equal(t, []string{"parcel-1"}, got)

	sub.Unsubscribe()
	sub.Unsubscribe()
	assert.Equal(t, 1, bus.Len())

	bus.Publish(selectionChanged{EntityID: "parcel-2"})
	assert.Equal(t, []string{"parcel-1"}, got)
}
