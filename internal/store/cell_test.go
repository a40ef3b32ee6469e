package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetThenGetReturnsLatestValue(t *testing.T) {
	cell := New(1)
	cell.Set(42)
	assert.Equal(t, 42, cell.Get())
}

func TestSubscribeFiresImmediatelyWithCurrentValue(t *testing.T) {
	cell := New("title")
	var seen []string
	unsubscribe := cell.Subscribe(func(v string) { seen = append(seen, v) })
	defer unsubscribe()

	require.Equal(t, []string{"title"}, seen)
}

func TestSetNotifiesInSubscriptionOrder(t *testing.T) {
	cell := New(0)
	var order []string
	cell.Subscribe(func(v int) { order = append(order, "first") })
	cell.Subscribe(func(v int) { order = append(order, "second") })
	order = nil

	cell.Set(1)
	assert.Equal(t, []string{"first", "second"}, order)
}

func TestEqualValuesStillNotify(t *testing.T) {
	cell := New(7)
	calls := 0
	cell.Subscribe(func(int) { calls++ })
	cell.Set(7)
	cell.Set(7)
	assert.Equal(t, 3, calls)
}

func TestUnsubscribeStopsDelivery(t *testing.T) {
	cell := New(0)
	var got []int
	unsubscribe := cell.Subscribe(func(v int) { got = append(got, v) })
	cell.Set(1)
	unsubscribe()
	unsubscribe()
	cell.Set(2)

	assert.Equal(t, []int{0, 1}, got)
	assert.Zero(t, cell.Subscribers())
}

func TestUnsubscribeDuringNotificationSkipsLaterSubscriber(t *testing.T) {
	cell := New(0)
	var second Unsubscribe
	var got []int
	cell.Subscribe(func(v int) {
		if v == 1 && second != nil {
			second()
		}
	})
	second = cell.Subscribe(func(v int) { got = append(got, v) })
	cell.Set(1)

	assert.Equal(t, []int{0}, got)
	assert.Equal(t, 1, cell.Subscribers())
}

func TestNestedSetRunsBeforeOuterSetReturns(t *testing.T) {
	source := New(0)
	mirror := New(0)
	source.Subscribe(func(v int) { mirror.Set(v * 10) })

	source.Set(3)
	assert.Equal(t, 30, mirror.Get())
}

func TestUpdateAppliesFunctionToCurrentValue(t *testing.T) {
	cell := New([]string{"a"})
	cell.Update(func(v []string) []string { return append(append([]string(nil), v...), "b") })
	assert.Equal(t, []string{"a", "b"}, cell.Get())
}

func TestSubscriberAddedDuringSetWaitsForNextSet(t *testing.T) {
	cell := New(0)
	lateCalls := 0
	added := false
	cell.Subscribe(func(v int) {
		if v == 1 && !added {
			added = true
			cell.Subscribe(func(int) { lateCalls++ })
		}
	})
	cell.Set(1)
	require.Equal(t, 1, lateCalls, "subscribe itself fires once")
	cell.Set(2)
	assert.Equal(t, 2, lateCalls)
}
