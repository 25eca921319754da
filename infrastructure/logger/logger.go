package logger

import (
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

type Logger struct {
	Log *zap.Logger
}

type Options struct {
	FilePath string
	Encoding string
	Level    string
}

var levels = map[string]zapcore.Level{
	"debug": zapcore.DebugLevel,
	"info":  zapcore.InfoLevel,
	"warn":  zapcore.WarnLevel,
	"error": zapcore.ErrorLevel,
	"fatal": zapcore.FatalLevel,
}

func NewDevelopmentLogger() (*Logger, error) {
	l, err := zap.NewDevelopment(zap.AddCallerSkip(1))
	if err != nil {
		return nil, err
	}
	return &Logger{Log: l}, nil
}

// NewLogger writes to stdout and, when FilePath is set, to a rotated file
// under that directory.
func NewLogger(opts Options) (*Logger, error) {
	level, ok := levels[opts.Level]
	if !ok {
		level = zapcore.InfoLevel
	}

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.TimeKey = "time"
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	var encoder zapcore.Encoder
	if opts.Encoding == "console" {
		encoder = zapcore.NewConsoleEncoder(encCfg)
	} else {
		encoder = zapcore.NewJSONEncoder(encCfg)
	}

	cores := []zapcore.Core{
		zapcore.NewCore(encoder, zapcore.AddSync(os.Stdout), level),
	}

	if opts.FilePath != "" {
		if err := os.MkdirAll(opts.FilePath, 0o755); err != nil {
			return nil, err
		}
		writer := zapcore.AddSync(&lumberjack.Logger{
			Filename:   filepath.Join(opts.FilePath, "townhall.log"),
			MaxSize:    10,
			MaxAge:     7,
			MaxBackups: 5,
			Compress:   true,
			LocalTime:  true,
		})
		cores = append(cores, zapcore.NewCore(encoder, writer, level))
	}

	l := zap.New(zapcore.NewTee(cores...), zap.AddCaller(), zap.AddCallerSkip(1), zap.AddStacktrace(zapcore.ErrorLevel))
	return &Logger{Log: l}, nil
}

func NewNop() *Logger {
	return &Logger{Log: zap.NewNop()}
}

func (l *Logger) With(fields ...zap.Field) *Logger {
	return &Logger{Log: l.Log.With(fields...)}
}

func (l *Logger) Debug(msg string, fields ...zap.Field) {
	l.Log.Debug(msg, fields...)
}

func (l *Logger) Info(msg string, fields ...zap.Field) {
	l.Log.Info(msg, fields...)
}

func (l *Logger) Warn(msg string, fields ...zap.Field) {
	l.Log.Warn(msg, fields...)
}

func (l *Logger) Error(msg string, fields ...zap.Field) {
	l.Log.Error(msg, fields...)
}

func (l *Logger) Fatal(msg string, fields ...zap.Field) {
	l.Log.Fatal(msg, fields...)
}

func (l *Logger) Panic(msg string, fields ...zap.Field) {
	l.Log.Panic(msg, fields...)
}
