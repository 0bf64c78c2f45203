package log

import (
	"github.com/mattn/go-colorable"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"log"
	"os"
	"path/filepath"
)

func NewLogger(path string, debug bool) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		log.Fatal(err)
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		log.Fatal(err)
	}

	pe := zap.NewProductionEncoderConfig()
	pe.EncodeTime = zapcore.ISO8601TimeEncoder
	pe.MessageKey = "message"
	pe.TimeKey = "time"
	fileEncoder := zapcore.NewJSONEncoder(pe)

	pe.EncodeLevel = zapcore.CapitalColorLevelEncoder
	consoleEncoder := zapcore.NewConsoleEncoder(pe)

	level := zap.InfoLevel
	if debug {
		level = zap.DebugLevel
	}

	core := zapcore.NewTee(
		zapcore.NewCore(fileEncoder, zapcore.AddSync(f), level),
		zapcore.NewCore(consoleEncoder, zapcore.AddSync(colorable.NewColorableStderr()), level),
	)

	logger := zap.New(core)
	defer logger.Sync()

	zap.ReplaceGlobals(logger)
}

// Logger is the printf logger olivere/elastic accepts for its error, info and trace output.
type Logger interface {
	Printf(format string, v ...interface{})
}

// ElasticLogger routes olivere/elastic output through zap at the given level.
type ElasticLogger struct {
	Level zapcore.Level
}

func (l ElasticLogger) Printf(format string, v ...interface{}) {
	switch l.Level {
	case zapcore.DebugLevel:
		zap.S().Debugf(format, v...)
	case zapcore.InfoLevel:
		zap.S().Infof(format, v...)
	default:
		zap.S().Errorf(format, v...)
	}
}
