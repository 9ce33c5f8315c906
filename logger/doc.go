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

/*
Package logger wraps a logrus.Logger behind the small Logger interface
that the engine logs through.

# Overview

  - Logger embeds io.Writer: each Write becomes one entry logged at the
    Logger's current level (GetLevel).
  - SetLevel and GetLevel control the level; SetIOWriterLevel is the same
    as SetLevel.
  - Entry, Debug, Info, Warning, Error, Fatal and Panic build an *Entry
    carrying the time, level, goroutine id, caller function, file, line,
    message and a Fields set; nothing is written until Entry.Log is called.
  - GetStdLogger returns a standard library *log.Logger that writes through
    this Logger; SetStdLogger points the log package's global logger at
    it. Both also set the Logger's level to the level they are given.
  - New installs a single standard-output hook (NewHookStandard with
    StdOut); Close closes that hook.

The package has no file, syslog or framework hooks and no sub-packages
besides level, which holds the level names, conversions and parsing.

# Example

	log := logger.New(func() context.Context { return context.Background() })
	defer log.Close()

	log.SetLevel(logger.DebugLevel)
	log.Info("application started").Log()

	std := log.GetStdLogger(logger.WarnLevel, stdlog.LstdFlags)
	std.Println("logged as a warning entry")
*/
package logger
