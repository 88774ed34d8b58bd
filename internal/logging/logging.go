// Copyright (C) 2020 Markus L. Noga
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

// Package logging sets up structured logging to the console, and optionally
// also to a rotated log file.
package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
)

type Config struct {
	Level      string    `mapstructure:"level"`      // trace, debug, info, warn, error; info if empty
	File       string    `mapstructure:"file"`       // log file name, none if empty
	MaxSizeMB  int       `mapstructure:"maxSizeMB"`  // rotate the log file after this size
	MaxBackups int       `mapstructure:"maxBackups"` // number of rotated log files to keep
	Console    io.Writer `mapstructure:"-"`          // console output, os.Stderr if nil
	NoColor    bool      `mapstructure:"noColor"`
}

// A logger writing to the console, and optionally also to a file
type Logger struct {
	zerolog.Logger
	file *lumberjack.Logger
}

// Creates a logger with the given configuration. Close it to release the log file.
func New(cfg Config) (*Logger, error) {
	level := zerolog.InfoLevel
	if cfg.Level != "" {
		var err error
		if level, err = zerolog.ParseLevel(strings.ToLower(cfg.Level)); err != nil {
			return nil, err
		}
	}

	out := cfg.Console
	if out == nil {
		out = os.Stderr
	}
	writers := []io.Writer{zerolog.ConsoleWriter{Out: out, NoColor: cfg.NoColor, TimeFormat: time.TimeOnly}}

	l := &Logger{}
	if cfg.File != "" {
		l.file = &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
		}
		writers = append(writers, l.file)
	}

	l.Logger = zerolog.New(zerolog.MultiLevelWriter(writers...)).Level(level).With().Timestamp().Logger()
	return l, nil
}

// Returns an io.Writer turning each write into a log message on the given level.
// For code which reports progress as formatted text.
func (l *Logger) Writer(level zerolog.Level) io.Writer {
	return WriterAt(l.Logger, level)
}

func WriterAt(log zerolog.Logger, level zerolog.Level) io.Writer {
	return levelWriter{log, level}
}

type levelWriter struct {
	log   zerolog.Logger
	level zerolog.Level
}

func (w levelWriter) Write(p []byte) (n int, err error) {
	w.log.WithLevel(w.level).Msg(strings.TrimRight(string(p), "\n"))
	return len(p), nil
}

func (l *Logger) Close() error {
	if l.file == nil {
		return nil
	}
	return l.file.Close()
}
