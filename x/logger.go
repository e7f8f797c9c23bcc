/*
 * SPDX-FileCopyrightText: © Hypermode Inc. <hello@hypermode.com>
 * SPDX-License-Identifier: Apache-2.0
 */

package x

import (
	"io"
	"os"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// LoggerConf configures a JSON line logger.
type LoggerConf struct {
	// Output is "stdout", "stderr" or the path of a file that's appended to.
	Output string
	// MessageKey is the JSON key the message of every line is written under.
	MessageKey string
}

// Logger writes structured JSON lines.  A nil *Logger discards everything.
type Logger struct {
	logger *zap.Logger
	closer io.Closer
}

// InitLogger builds a Logger writing to conf.Output.
func InitLogger(conf *LoggerConf) (*Logger, error) {
	if conf == nil || conf.Output == "" {
		return nil, errors.New("no output given for the logger")
	}

	var ws zapcore.WriteSyncer
	var closer io.Closer
	switch conf.Output {
	case "stdout":
		ws = zapcore.Lock(os.Stdout)
	case "stderr":
		ws = zapcore.Lock(os.Stderr)
	default:
		f, err := os.OpenFile(conf.Output, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
		if err != nil {
			return nil, errors.Wrapf(err, "while opening log file %s", conf.Output)
		}
		ws = zapcore.Lock(f)
		closer = f
	}

	l := newLogger(ws, conf.MessageKey)
	l.closer = closer
	return l, nil
}

// NewLogger returns a Logger writing to w.
func NewLogger(w io.Writer, messageKey string) *Logger {
	return newLogger(zapcore.AddSync(w), messageKey)
}

func newLogger(ws zapcore.WriteSyncer, messageKey string) *Logger {
	encCfg := zap.NewProductionEncoderConfig()
	encCfg.TimeKey = "time"
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	if messageKey != "" {
		encCfg.MessageKey = messageKey
	}
	core := zapcore.NewCore(zapcore.NewJSONEncoder(encCfg), ws, zap.DebugLevel)

	return &Logger{logger: zap.New(core)}
}

// AuditI logs msg at info level.  args are key, value pairs.
func (l *Logger) AuditI(msg string, args ...interface{}) {
	if l == nil {
		return
	}
	l.logger.Info(msg, fields(args)...)
}

// AuditE logs msg at error level.  args are key, value pairs.
func (l *Logger) AuditE(msg string, args ...interface{}) {
	if l == nil {
		return
	}
	l.logger.Error(msg, fields(args)...)
}

func fields(args []interface{}) []zap.Field {
	flds := make([]zap.Field, 0, len(args)/2)
	for i := 0; i+1 < len(args); i = i + 2 {
		key, ok := args[i].(string)
		if !ok {
			key = "arg"
		}
		flds = append(flds, zap.Any(key, args[i+1]))
	}
	return flds
}

// Sync flushes buffered lines.
func (l *Logger) Sync() {
	if l == nil {
		return
	}
	_ = l.logger.Sync()
}

// Close flushes the logger and closes its file, if it has one.
func (l *Logger) Close() error {
	if l == nil {
		return nil
	}
	l.Sync()
	if l.closer == nil {
		return nil
	}
	return l.closer.Close()
}
