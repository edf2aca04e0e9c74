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

// Package log is gtos's structured logger, modeled on go-ethereum's log
// package: a small Logger interface, leveled methods taking alternating
// key/value pairs, and a swappable Handler that does the actual writing.
package log

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/go-stack/stack"
)

// Lvl is a log severity level, ordered from most to least severe.
type Lvl int

const (
	LvlCrit Lvl = iota
	LvlError
	LvlWarn
	LvlInfo
	LvlDebug
	LvlTrace
)

func (l Lvl) String() string {
	switch l {
	case LvlCrit:
		return "CRIT"
	case LvlError:
		return "ERROR"
	case LvlWarn:
		return "WARN"
	case LvlInfo:
		return "INFO"
	case LvlDebug:
		return "DEBUG"
	case LvlTrace:
		return "TRACE"
	default:
		return "UNKNOWN"
	}
}

// Record is one emitted log line.
type Record struct {
	Time    time.Time
	Lvl     Lvl
	Msg     string
	Ctx     []interface{}
	Call    stack.Call
}

// Handler writes a Record somewhere. Handlers must be safe for concurrent
// use; Logger serializes nothing on their behalf.
type Handler interface {
	Log(r *Record) error
}

// Logger is the interface every gtos package logs through.
type Logger interface {
	Trace(msg string, ctx ...interface{})
	Debug(msg string, ctx ...interface{})
	Info(msg string, ctx ...interface{})
	Warn(msg string, ctx ...interface{})
	Error(msg string, ctx ...interface{})
	Crit(msg string, ctx ...interface{})

	// New returns a child Logger with ctx appended to every record it emits.
	New(ctx ...interface{}) Logger
}

type logger struct {
	ctx     []interface{}
	handler *swapHandler
}

type swapHandler struct {
	mu sync.RWMutex
	h  Handler
}

func (s *swapHandler) Log(r *Record) error {
	s.mu.RLock()
	h := s.h
	s.mu.RUnlock()
	return h.Log(r)
}

func (s *swapHandler) Swap(h Handler) {
	s.mu.Lock()
	s.h = h
	s.mu.Unlock()
}

var root = &logger{handler: &swapHandler{h: StreamHandler(os.Stderr)}}

// Root returns the root Logger.
func Root() Logger { return root }

// SetHandler replaces the root logger's handler.
func SetHandler(h Handler) { root.handler.Swap(h) }

// New returns a child of the root Logger carrying ctx. It shares the root's
// handler, so SetHandler affects it too.
func New(ctx ...interface{}) Logger {
	return root.New(ctx...)
}

func (l *logger) New(ctx ...interface{}) Logger {
	child := make([]interface{}, 0, len(l.ctx)+len(ctx))
	child = append(child, l.ctx...)
	child = append(child, ctx...)
	return &logger{ctx: child, handler: l.handler}
}

func (l *logger) write(lvl Lvl, msg string, ctx []interface{}) {
	all := make([]interface{}, 0, len(l.ctx)+len(ctx))
	all = append(all, l.ctx...)
	all = append(all, ctx...)
	r := &Record{Time: time.Now(), Lvl: lvl, Msg: msg, Ctx: all, Call: stack.Caller(2)}
	_ = l.handler.Log(r)
}

func (l *logger) Trace(msg string, ctx ...interface{}) { l.write(LvlTrace, msg, ctx) }
func (l *logger) Debug(msg string, ctx ...interface{}) { l.write(LvlDebug, msg, ctx) }
func (l *logger) Info(msg string, ctx ...interface{})  { l.write(LvlInfo, msg, ctx) }
func (l *logger) Warn(msg string, ctx ...interface{})  { l.write(LvlWarn, msg, ctx) }
func (l *logger) Error(msg string, ctx ...interface{}) { l.write(LvlError, msg, ctx) }
func (l *logger) Crit(msg string, ctx ...interface{})  { l.write(LvlCrit, msg, ctx) }

// funcHandler adapts a plain function to Handler.
type funcHandler func(r *Record) error

func (f funcHandler) Log(r *Record) error { return f(r) }

// StreamHandler returns a Handler that writes human-readable lines to w.
func StreamHandler(w io.Writer) Handler {
	var mu sync.Mutex
	return funcHandler(func(r *Record) error {
		mu.Lock()
		defer mu.Unlock()
		line := fmt.Sprintf("%s [%s] %s", r.Time.Format("2006-01-02T15:04:05.000"), r.Lvl, r.Msg)
		for i := 0; i+1 < len(r.Ctx); i += 2 {
			line += fmt.Sprintf(" %v=%v", r.Ctx[i], r.Ctx[i+1])
		}
		_, err := fmt.Fprintln(w, line)
		return err
	})
}

// DiscardHandler drops every record; used in tests that want a silent
// logger without nil-checking every call site.
func DiscardHandler() Handler {
	return funcHandler(func(*Record) error { return nil })
}
