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

package statemachine

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// 定义测试用状态
type OrderStatus string

const (
	OrderCreated   OrderStatus = "CREATED"
	OrderPaid      OrderStatus = "PAID"
	OrderShipped   OrderStatus = "SHIPPED"
	OrderDelivered OrderStatus = "DELIVERED"
	OrderCanceled  OrderStatus = "CANCELED"
)

const (
	EventPay     Event = "pay"
	EventShip    Event = "ship"
	EventDeliver Event = "deliver"
	EventCancel  Event = "cancel"
)

func orderTable() *Table[OrderStatus] {
	return NewTable[OrderStatus]().
		On(OrderCreated, EventPay, OrderPaid).
		On(OrderCreated, EventCancel, OrderCanceled).
		On(OrderPaid, EventShip, OrderShipped).
		On(OrderPaid, EventCancel, OrderCanceled).
		On(OrderShipped, EventDeliver, OrderDelivered).
		Terminal(OrderDelivered, OrderCanceled)
}

func TestTable_Next(t *testing.T) {
	table := orderTable()

	to, err := table.Next(OrderCreated, EventPay)
	require.NoError(t, err)
	assert.Equal(t, OrderPaid, to)

	_, err = table.Next(OrderCreated, EventDeliver)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	_, err = table.Next(OrderCanceled, EventPay)
	assert.ErrorIs(t, err, ErrInvalidTransition)
	assert.True(t, table.IsTerminal(OrderCanceled))
}

func TestTable_Events(t *testing.T) {
	table := orderTable()
	assert.Equal(t, []Event{EventPay, EventCancel}, table.Events(OrderCreated))
	assert.Empty(t, table.Events(OrderDelivered))
}

func TestStateMachine_Fire(t *testing.T) {
	sm := New(orderTable(), OrderCreated)

	assert.True(t, sm.Can(EventPay))
	assert.False(t, sm.Can(EventShip))

	to, err := sm.Fire(EventPay)
	require.NoError(t, err)
	assert.Equal(t, OrderPaid, to)
	assert.Equal(t, OrderPaid, sm.Current())

	_, err = sm.Fire(EventDeliver)
	assert.ErrorIs(t, err, ErrInvalidTransition)
	assert.Equal(t, OrderPaid, sm.Current())
}

func TestStateMachine_Hooks(t *testing.T) {
	sm := New(orderTable(), OrderCreated)

	var executionOrder []string
	sm.OnTransition(func(from, to OrderStatus, event Event) error {
		executionOrder = append(executionOrder, "transition:"+string(event))
		return nil
	})
	sm.OnEnter(OrderPaid, func(state OrderStatus) error {
		executionOrder = append(executionOrder, "enter:paid")
		return nil
	})

	_, err := sm.Fire(EventPay)
	require.NoError(t, err)
	assert.Equal(t, []string{"transition:pay", "enter:paid"}, executionOrder)
}

func TestStateMachine_Validator(t *testing.T) {
	sm := New(orderTable(), OrderCreated)
	sm.AddValidator(func(from, to OrderStatus, event Event) error {
		if to == OrderCanceled {
			return errors.New("cancellation disabled")
		}
		return nil
	})

	_, err := sm.Fire(EventCancel)
	assert.ErrorContains(t, err, "cancellation disabled")
	assert.Equal(t, OrderCreated, sm.Current())

	history := sm.History()
	require.Len(t, history, 1)
	assert.Error(t, history[0].Error)
}

func TestTable_ToDot(t *testing.T) {
	dot := orderTable().ToDot("order")
	assert.True(t, strings.HasPrefix(dot, `digraph "order" {`))
	assert.Contains(t, dot, `"CREATED" -> "PAID" [label="pay"];`)
	assert.Contains(t, dot, `"CANCELED" [shape=doublecircle];`)
}
