// Copyright 2024 The gtos Authors
// This file is part of the gtos library.
//
// The gtos library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The gtos library is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the gtos library. If not, see <http://www.gnu.org/licenses/>.

// Package event implements a one-to-many, type-checked pub-sub Feed in the
// shape of go-ethereum's event package. Consensus uses it to announce new
// best tips; the scheduler uses it to announce drained entries — both are
// internal notifications, never the RPC/P2P transport that's out of scope.
package event

import (
	"errors"
	"reflect"
	"sync"
)

// ErrFeedTypeMismatch is the value Send panics with when the type of the
// value being sent does not match the Feed's type.
var ErrFeedTypeMismatch = errors.New("event: Send on Feed called with wrong type")

// Feed implements one-to-many subscription notification: every value passed
// to Send is delivered to every channel currently subscribed via Subscribe.
// The zero Feed is ready to use.
type Feed struct {
	mu     sync.Mutex
	typ    reflect.Type
	chans  []reflect.Value
	closed bool
}

// Subscription represents a subscription to a Feed.
type Subscription interface {
	// Unsubscribe stops the delivery of events to the registered channel.
	Unsubscribe()
}

type feedSub struct {
	feed *Feed
	ch   reflect.Value
	once sync.Once
}

func (s *feedSub) Unsubscribe() {
	s.once.Do(func() {
		s.feed.mu.Lock()
		defer s.feed.mu.Unlock()
		for i, c := range s.feed.chans {
			if c == s.ch {
				s.feed.chans = append(s.feed.chans[:i], s.feed.chans[i+1:]...)
				break
			}
		}
	})
}

// Subscribe adds a channel to the feed. Future calls to Send will try to
// send value items to the channel. channel must be a writable channel type
// whose element type is identical to the Feed's type, which is fixed by
// the first Subscribe or Send call.
func (f *Feed) Subscribe(channel interface{}) Subscription {
	chanval := reflect.ValueOf(channel)
	chantyp := chanval.Type()
	if chantyp.Kind() != reflect.Chan || chantyp.ChanDir()&reflect.SendDir == 0 {
		panic("event: Subscribe argument does not have sendable channel type")
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.typeCheck(chantyp.Elem()) {
		panic("event: subscribe channel element type mismatches other Feed subscribers")
	}
	f.chans = append(f.chans, chanval)
	return &feedSub{feed: f, ch: chanval}
}

// typeCheck must be called with f.mu held.
func (f *Feed) typeCheck(typ reflect.Type) bool {
	if f.typ == nil {
		f.typ = typ
		return true
	}
	return f.typ == typ
}

// Send delivers value to all subscribed channels. It blocks until every
// subscriber channel has accepted the value, returning the number of
// subscribers it was sent to.
func (f *Feed) Send(value interface{}) (nsent int) {
	rvalue := reflect.ValueOf(value)

	f.mu.Lock()
	if !f.typeCheck(rvalue.Type()) {
		f.mu.Unlock()
		panic(ErrFeedTypeMismatch)
	}
	chans := make([]reflect.Value, len(f.chans))
	copy(chans, f.chans)
	f.mu.Unlock()

	for _, ch := range chans {
		ch.Send(rvalue)
		nsent++
	}
	return nsent
}
