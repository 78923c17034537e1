/*
MIT License

Copyright (c) 2019 Nicolas JUHEL

Permission is hereby granted, free of charge, to any person obtaining a copy
of this software and associated documentation files (the "Software"), to deal
in the Software without restriction, including without limitation the rights
to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
copies of the Software, and to permit persons to whom the Software is
furnished to do so, subject to the following conditions:

The above copyright notice and this permission notice shall be included in all
copies or substantial portions of the Software.

THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
SOFTWARE.
*/

package logger

import (
	"math"
	"strings"

	"github.com/sirupsen/logrus"
)

// Level orders log severities from most to least urgent, matching logrus's
// own ordering (PanicLevel is 0, DebugLevel is the highest numeric value
// below NilLevel) so comparisons like "e.Level <= FatalLevel" in Entry.Log
// and threshold checks in Logger.SetLevel stay meaningful across the two
// types.
type Level uint8

const (
	PanicLevel Level = iota
	FatalLevel
	ErrorLevel
	WarnLevel
	InfoLevel
	DebugLevel
	// NilLevel never logs; an Entry built at this level is a deliberate no-op.
	// Logger.SetLevel accepts it and hands logrus the out-of-range level that
	// Level.Logrus returns for it.
	NilLevel
)

type levelInfo struct {
	name   string
	logrus logrus.Level
}

var levelTable = map[Level]levelInfo{
	PanicLevel: {"Critical Error", logrus.PanicLevel},
	FatalLevel: {"Fatal Error", logrus.FatalLevel},
	ErrorLevel: {"Error", logrus.ErrorLevel},
	WarnLevel:  {"Warning", logrus.WarnLevel},
	InfoLevel:  {"Info", logrus.InfoLevel},
	DebugLevel: {"Debug", logrus.DebugLevel},
	NilLevel:   {"", 0},
}

// orderedLevels lists every level with a human name, in the order they
// should be presented to a human (most to least urgent); NilLevel is
// deliberately excluded since it isn't a selectable log level.
var orderedLevels = []Level{PanicLevel, FatalLevel, ErrorLevel, WarnLevel, InfoLevel, DebugLevel}

// GetLevelListString returns the lower-cased name of every selectable level,
// most to least urgent -- suitable for a CLI flag's choice list.
func GetLevelListString() []string {
	out := make([]string, 0, len(orderedLevels))
	for _, lvl := range orderedLevels {
		out = append(out, strings.ToLower(lvl.String()))
	}
	return out
}

// GetLevelString resolves l against each selectable level's name, matching
// loosely (substring, case-insensitive) so "warn", "Warning", and "WARNING"
// all resolve to WarnLevel. An unrecognized string falls back to InfoLevel.
func GetLevelString(l string) Level {
	needle := strings.ToLower(l)
	for _, lvl := range orderedLevels {
		if strings.Contains(strings.ToLower(lvl.String()), needle) {
			return lvl
		}
	}
	return InfoLevel
}

// Uint8 returns the numeric level, e.g. FatalLevel.Uint8() == 1.
func (l Level) Uint8() uint8 {
	return uint8(l)
}

// String returns the level's display name, e.g. PanicLevel.String() ==
// "Critical Error". An out-of-range value returns "unknown".
func (l Level) String() string {
	if info, ok := levelTable[l]; ok {
		return info.name
	}
	return "unknown"
}

// Logrus maps l onto the equivalent logrus.Level. An out-of-range value
// maps to a level above logrus's own range, so it is filtered by every
// logrus logger regardless of its configured threshold.
func (l Level) Logrus() logrus.Level {
	if info, ok := levelTable[l]; ok && l != NilLevel {
		return info.logrus
	}
	return logrus.Level(math.MaxInt32)
}
