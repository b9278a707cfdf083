package signals

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

type sampleEvent struct {
	payload int
}

func TestSignal_AttachAndNotify(t *testing.T) {
	s := NewSignal[sampleEvent]()
	var called sampleEvent
	s.Attach(func(e sampleEvent) { called = e }, "obs")
	s.Notify(sampleEvent{1})
	assert.Equal(t, sampleEvent{1}, called)
}

func TestSignal_NotifyPreservesOrder(t *testing.T) {
	s := NewSignal[sampleEvent]()
	var order []int
	s.Attach(func(e sampleEvent) { order = append(order, 1) }, "obs1")
	s.Attach(func(e sampleEvent) { order = append(order, 2) }, "obs2")
	s.Notify(sampleEvent{1})
	assert.Equal(t, []int{1, 2}, order)
}

func TestSignal_Detach(t *testing.T) {
	s := NewSignal[sampleEvent]()
	called := false
	observer := Observer[sampleEvent](func(e sampleEvent) { called = true })
	s.Attach(observer, "obs")
	s.Detach(observer, "obs")
	s.Notify(sampleEvent{1})
	assert.False(t, called)
}

func TestSignal_DetachNonexistentIsSilent(t *testing.T) {
	s := NewSignal[sampleEvent]()
	observer := Observer[sampleEvent](func(e sampleEvent) {})
	s.Detach(observer, "nonexistent")
}

func TestSignal_AttachDuplicateObserverIDKeepsFirst(t *testing.T) {
	s := NewSignal[sampleEvent]()
	var which int
	s.Attach(func(e sampleEvent) { which = 1 }, "same")
	s.Attach(func(e sampleEvent) { which = 2 }, "same")
	s.Notify(sampleEvent{1})
	assert.Equal(t, 1, which)
}

func TestSignal_AttachReturnsDetach(t *testing.T) {
	s := NewSignal[sampleEvent]()
	calls := 0
	detach := s.Attach(func(e sampleEvent) { calls++ })
	s.Notify(sampleEvent{1})
	detach()
	s.Notify(sampleEvent{2})
	assert.Equal(t, 1, calls)
}

func TestSignal_DetachDuringNotify(t *testing.T) {
	s := NewSignal[sampleEvent]()
	var calls []int
	var detachFirst func()
	detachFirst = s.Attach(func(e sampleEvent) {
		calls = append(calls, 1)
		detachFirst()
	}, "first")
	s.Attach(func(e sampleEvent) { calls = append(calls, 2) }, "second")

	s.Notify(sampleEvent{1})
	s.Notify(sampleEvent{2})
	assert.Equal(t, []int{1, 2, 2}, calls)
}

func TestSignal_ConcurrentAttach(t *testing.T) {
	s := NewSignal[sampleEvent]()
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			s.Attach(func(e sampleEvent) {}, id)
		}(i)
	}
	wg.Wait()
	assert.Len(t, s.observers, 16)
}
