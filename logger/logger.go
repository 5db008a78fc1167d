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

// Package logger is facil-go's structured logging facade: a thin,
// level-filtered wrapper around logrus with field injection and an
// Access() entry shaped for spec.md §4.H's access-log line, mirroring the
// teacher's logger package at a scale appropriate to this module.
package logger

import (
	"io"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	jww "github.com/spf13/jwalterweatherman"

	logent "github.com/boazsegev/facil-go/logger/entry"
	logfld "github.com/boazsegev/facil-go/logger/fields"
	loglvl "github.com/boazsegev/facil-go/logger/level"
)

// FuncLog returns a Logger lazily; used for dependency injection the same
// way the teacher's FuncLog type is used to thread an optional logger
// through constructors without forcing one at call time.
type FuncLog func() Logger

// Logger is the logging surface used by every other facil-go package.
type Logger interface {
	io.Writer

	SetLevel(lvl loglvl.Level)
	GetLevel() loglvl.Level

	SetFields(f logfld.Fields)
	GetFields() logfld.Fields

	Debug(message string, args ...interface{})
	Info(message string, args ...interface{})
	Warning(message string, args ...interface{})
	Error(message string, args ...interface{})
	Fatal(message string, args ...interface{})

	// LogEntry writes a pre-built Entry (used for the access log and for
	// any caller that already composed one, e.g. via logent.Access).
	LogEntry(e logent.Entry)

	// CheckError logs err at lvlKO if non-nil; otherwise, if lvlOK is not
	// loglvl.NilLevel, it logs message at lvlOK. Returns true iff err was
	// nil (mirrors the teacher's CheckError ergonomics for "log and
	// continue" call sites).
	CheckError(lvlKO, lvlOK loglvl.Level, message string, err error) bool

	// Access logs one HTTP access-log line per spec.md §4.H.
	Access(remoteAddr, remoteUser string, at time.Time, latency time.Duration, method, path, proto string, status int, size int64)

	// SPF13Bridge routes a jwalterweatherman notepad's output through this
	// logger, so third-party code logging via jww lands in the same sink.
	SPF13Bridge(n *jww.Notepad)

	// Clone returns an independent logger that starts from the same level
	// and fields.
	Clone() Logger
}

type logger struct {
	mu  sync.RWMutex
	lvl loglvl.Level
	fld logfld.Fields
	log *logrus.Logger
}

// New builds a Logger writing to out (os.Stderr is a typical choice) at
// InfoLevel with no default fields.
func New(out io.Writer) Logger {
	l := logrus.New()
	l.SetOutput(out)
	l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true, DisableQuote: true})
	return &logger{lvl: loglvl.InfoLevel, fld: logfld.Fields{}, log: l}
}

func (l *logger) SetLevel(lvl loglvl.Level) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.lvl = lvl
	l.log.SetLevel(lvl.Logrus())
}

func (l *logger) GetLevel() loglvl.Level {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.lvl
}

func (l *logger) SetFields(f logfld.Fields) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.fld = f.Clone()
}

func (l *logger) GetFields() logfld.Fields {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.fld.Clone()
}

func (l *logger) entry() *logrus.Entry {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.log.WithFields(l.fld.Logrus())
}

func (l *logger) Write(p []byte) (int, error) {
	l.entry().Info(string(p))
	return len(p), nil
}

func (l *logger) Debug(message string, args ...interface{})   { l.entry().Debugf(message, args...) }
func (l *logger) Info(message string, args ...interface{})    { l.entry().Infof(message, args...) }
func (l *logger) Warning(message string, args ...interface{})  { l.entry().Warnf(message, args...) }
func (l *logger) Error(message string, args ...interface{})    { l.entry().Errorf(message, args...) }
func (l *logger) Fatal(message string, args ...interface{})    { l.entry().Fatalf(message, args...) }

func (l *logger) LogEntry(e logent.Entry) {
	ent := l.entry().WithFields(logfld.Fields(e.Fields).Logrus())
	switch e.Level {
	case loglvl.DebugLevel:
		ent.Debug(e.String())
	case loglvl.WarnLevel:
		ent.Warn(e.String())
	case loglvl.ErrorLevel:
		ent.Error(e.String())
	case loglvl.FatalLevel:
		ent.Fatal(e.String())
	default:
		ent.Info(e.String())
	}
}

func (l *logger) CheckError(lvlKO, lvlOK loglvl.Level, message string, err error) bool {
	if err != nil {
		l.logAt(lvlKO, message+": "+err.Error())
		return false
	}
	if lvlOK != loglvl.NilLevel {
		l.logAt(lvlOK, message)
	}
	return true
}

func (l *logger) logAt(lvl loglvl.Level, message string) {
	switch lvl {
	case loglvl.DebugLevel:
		l.Debug(message)
	case loglvl.WarnLevel:
		l.Warning(message)
	case loglvl.ErrorLevel:
		l.Error(message)
	case loglvl.FatalLevel:
		l.Fatal(message)
	default:
		l.Info(message)
	}
}

func (l *logger) Access(remoteAddr, remoteUser string, at time.Time, latency time.Duration, method, path, proto string, status int, size int64) {
	l.LogEntry(logent.Access(remoteAddr, remoteUser, at, latency, method, path, proto, status, size))
}

func (l *logger) SPF13Bridge(n *jww.Notepad) {
	if n == nil {
		return
	}
	n.SetLogOutput(l)
}

func (l *logger) Clone() Logger {
	l.mu.RLock()
	defer l.mu.RUnlock()
	n := &logger{lvl: l.lvl, fld: l.fld.Clone(), log: logrus.New()}
	n.log.SetOutput(l.log.Out)
	n.log.SetFormatter(l.log.Formatter)
	n.log.SetLevel(l.lvl.Logrus())
	return n
}
