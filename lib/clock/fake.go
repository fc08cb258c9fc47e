// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package clock

import (
	"sort"
	"sync"
	"time"
)

// FakeClock is a deterministic Clock. Time moves only when Advance is
// called. AfterFunc callbacks run synchronously inside Advance, in
// deadline order; a callback must not call Advance itself.
//
// FakeClock is safe for concurrent use.
type FakeClock struct {
	mutex   sync.Mutex
	current time.Time
	pending []*fakeTimer
	changed *sync.Cond
}

type fakeTimer struct {
	deadline time.Time
	channel  chan time.Time // set for After
	callback func()         // set for AfterFunc
	done     bool
}

// Fake returns a FakeClock frozen at initial.
func Fake(initial time.Time) *FakeClock {
	fake := &FakeClock{current: initial}
	fake.changed = sync.NewCond(&fake.mutex)
	return fake
}

// Now returns the fake current time.
func (fake *FakeClock) Now() time.Time {
	fake.mutex.Lock()
	defer fake.mutex.Unlock()
	return fake.current
}

// After registers a one-shot timer and returns its channel.
func (fake *FakeClock) After(d time.Duration) <-chan time.Time {
	fake.mutex.Lock()
	defer fake.mutex.Unlock()

	channel := make(chan time.Time, 1)
	if d <= 0 {
		channel <- fake.current
		return channel
	}
	fake.pending = append(fake.pending, &fakeTimer{
		deadline: fake.current.Add(d),
		channel:  channel,
	})
	fake.changed.Broadcast()
	return channel
}

// AfterFunc registers f to run when the clock passes now+d. If d <= 0
// f runs before AfterFunc returns.
func (fake *FakeClock) AfterFunc(d time.Duration, f func()) *Timer {
	if d <= 0 {
		f()
		return &Timer{stop: func() bool { return false }}
	}

	fake.mutex.Lock()
	timer := &fakeTimer{deadline: fake.current.Add(d), callback: f}
	fake.pending = append(fake.pending, timer)
	fake.changed.Broadcast()
	fake.mutex.Unlock()

	return &Timer{stop: func() bool {
		fake.mutex.Lock()
		defer fake.mutex.Unlock()
		if timer.done {
			return false
		}
		timer.done = true
		return true
	}}
}

// Advance moves the clock forward by d and fires every timer whose
// deadline is at or before the new time.
func (fake *FakeClock) Advance(d time.Duration) {
	fake.mutex.Lock()
	fake.current = fake.current.Add(d)
	now := fake.current

	var due, remaining []*fakeTimer
	for _, timer := range fake.pending {
		switch {
		case timer.done:
		case !timer.deadline.After(now):
			timer.done = true
			due = append(due, timer)
		default:
			remaining = append(remaining, timer)
		}
	}
	fake.pending = remaining
	fake.mutex.Unlock()

	sort.SliceStable(due, func(i, j int) bool {
		return due[i].deadline.Before(due[j].deadline)
	})
	for _, timer := range due {
		if timer.callback != nil {
			timer.callback()
			continue
		}
		timer.channel <- now
	}
}

// WaitForTimers blocks until at least n timers are pending. Call it
// before Advance when the timer is registered by another goroutine.
func (fake *FakeClock) WaitForTimers(n int) {
	fake.mutex.Lock()
	defer fake.mutex.Unlock()
	for fake.pendingLocked() < n {
		fake.changed.Wait()
	}
}

// Pending returns the number of timers that have neither fired nor
// been stopped.
func (fake *FakeClock) Pending() int {
	fake.mutex.Lock()
	defer fake.mutex.Unlock()
	return fake.pendingLocked()
}

func (fake *FakeClock) pendingLocked() int {
	count := 0
	for _, timer := range fake.pending {
		if !timer.done {
			count++
		}
	}
	return count
}
