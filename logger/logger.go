/*
 * MIT License
 *
 * Copyright (c) 2025 Nicolas JUHEL
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in all
 * copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 *
 *
 */

// Package logger is the engine's structured-logging sink, adapted from the
// teacher's github.com/AlonsoVanessa/http/logger package: a logrus.Logger behind a
// small Logger interface, keyed fields, and a stack/caller-aware Entry type.
// It is the Notifier's logging side: the engine never logs directly through
// logrus, it always goes through an Entry built here.
package logger

import (
	"context"
	"io"
	"log"
	"runtime"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	libctx "github.com/AlonsoVanessa/http/context"
	loglvl "github.com/AlonsoVanessa/http/logger/level"
)

// re-export the level vocabulary so callers only import this package for the
// handful of constants the engine actually uses; the conversions, Parse and
// ListLevels helpers live in the level sub-package.
type Level = loglvl.Level

const (
	PanicLevel = loglvl.PanicLevel
	FatalLevel = loglvl.FatalLevel
	ErrorLevel = loglvl.ErrorLevel
	WarnLevel  = loglvl.WarnLevel
	InfoLevel  = loglvl.InfoLevel
	DebugLevel = loglvl.DebugLevel
	NilLevel   = loglvl.NilLevel
)

var modeColor = true

const (
	keyLevel uint8 = iota
	keyLogrus
	keyCloser
)

// Logger is the engine-facing logging facade. Every connection, timer tick
// and httperr call goes through one of the level constructors to obtain an
// *Entry, fills in fields, and calls Entry.Log().
type Logger interface {
	io.Writer

	SetLevel(lvl Level)
	GetLevel() Level

	SetIOWriterLevel(lvl Level)
	GetStdLogger(lvl Level, logFlags int) *log.Logger
	SetStdLogger(lvl Level, logFlags int)

	Entry(lvl Level, msg string) *Entry
	Debug(msg string) *Entry
	Info(msg string) *Entry
	Warning(msg string) *Entry
	Error(msg string) *Entry
	Fatal(msg string) *Entry
	Panic(msg string) *Entry

	Close() error
}

type logger struct {
	m sync.RWMutex
	x libctx.Config[uint8]
}

// New creates a Logger writing to a colorable stdout hook, mirroring the
// teacher's logger.New(ctx) but without the multi-hook manager (file/
// syslog backends dropped, see DESIGN.md).
func New(ctx func() context.Context) Logger {
	var cc context.Context
	if ctx != nil {
		cc = ctx()
	}

	l := &logger{
		x: libctx.New[uint8](cc),
	}

	lg := logrus.New()
	lg.SetLevel(InfoLevel.Logrus())
	hook := NewHookStandard(Options{}, StdOut, logrus.AllLevels)
	lg.SetOutput(io.Discard)
	lg.AddHook(hook)

	l.x.Store(keyLogrus, lg)
	l.x.Store(keyLevel, InfoLevel)
	l.x.Store(keyCloser, hook)

	return l
}

func (o *logger) getLogrus() *logrus.Logger {
	if i, ok := o.x.Load(keyLogrus); !ok {
		return nil
	} else if v, ok := i.(*logrus.Logger); !ok {
		return nil
	} else {
		return v
	}
}

func (o *logger) SetLevel(lvl Level) {
	o.m.Lock()
	defer o.m.Unlock()

	o.x.Store(keyLevel, lvl)

	if lg := o.getLogrus(); lg != nil {
		lg.SetLevel(lvl.Logrus())
	}
}

func (o *logger) GetLevel() Level {
	o.m.RLock()
	defer o.m.RUnlock()

	if i, ok := o.x.Load(keyLevel); !ok {
		return InfoLevel
	} else if v, ok := i.(Level); !ok {
		return InfoLevel
	} else {
		return v
	}
}

func (o *logger) SetIOWriterLevel(lvl Level) {
	o.SetLevel(lvl)
}

func (o *logger) Write(p []byte) (n int, err error) {
	o.Entry(o.GetLevel(), string(p)).Log()
	return len(p), nil
}

func (o *logger) Close() error {
	if i, ok := o.x.Load(keyCloser); ok {
		if c, ok := i.(io.Closer); ok {
			return c.Close()
		}
	}
	return nil
}

func (o *logger) Entry(lvl Level, msg string) *Entry {
	frame := callerFrame()

	return &Entry{
		log:     o.getLogrus,
		Time:    time.Now(),
		Level:   lvl,
		Stack:   stackID(),
		Caller:  frame.Function,
		File:    frame.File,
		Line:    uint32(frame.Line),
		Message: msg,
		Fields:  NewFields(),
	}
}

func (o *logger) Debug(msg string) *Entry   { return o.Entry(DebugLevel, msg) }
func (o *logger) Info(msg string) *Entry    { return o.Entry(InfoLevel, msg) }
func (o *logger) Warning(msg string) *Entry { return o.Entry(WarnLevel, msg) }
func (o *logger) Error(msg string) *Entry   { return o.Entry(ErrorLevel, msg) }
func (o *logger) Fatal(msg string) *Entry   { return o.Entry(FatalLevel, msg) }
func (o *logger) Panic(msg string) *Entry   { return o.Entry(PanicLevel, msg) }

func stackID() uint64 {
	b := make([]byte, 64)
	b = b[:runtime.Stack(b, false)]
	var n uint64
	for _, c := range b[len("goroutine "):] {
		if c < '0' || c > '9' {
			break
		}
		n = n*10 + uint64(c-'0')
	}
	return n
}

func callerFrame() runtime.Frame {
	pc := make([]uintptr, 16)
	n := runtime.Callers(3, pc)
	if n == 0 {
		return runtime.Frame{Function: "unknown", File: "unknown"}
	}
	frames := runtime.CallersFrames(pc[:n])
	frame, _ := frames.Next()
	return frame
}
