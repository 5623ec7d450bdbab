package logger

import (
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger define a interface para logging estruturado.
// A aplicação (Handler, Service, Repository) depende apenas desta interface.
type Logger interface {
	Debug(msg string, fields map[string]interface{})
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Error(msg string, err error)
	Fatal(msg string, err error)
	Sync() error
}

// ZapLogger implementa Logger sobre o zap, com saída JSON.
type ZapLogger struct {
	log *zap.Logger
}

// NewLogger cria o logger de produção com o nível indicado ("debug", "info", "warn", "error").
// Níveis desconhecidos caem para info.
func NewLogger(level string) Logger {
	cfg := zap.NewProductionConfig()

	lvl, err := zapcore.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil {
		lvl = zapcore.InfoLevel
	}
	cfg.Level = zap.NewAtomicLevelAt(lvl)

	cfg.EncoderConfig.TimeKey = "timestamp"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.EncoderConfig.CallerKey = "caller"

	l, err := cfg.Build(zap.AddCallerSkip(1))
	if err != nil {
		// Configuração estática; só falha se stdout/stderr não existirem.
		return NewNop()
	}
	return &ZapLogger{log: l}
}

// New embrulha um *zap.Logger já construído.
func New(l *zap.Logger) Logger {
	return &ZapLogger{log: l}
}

// NewNop devolve um logger que descarta tudo. Usado nos testes.
func NewNop() Logger {
	return &ZapLogger{log: zap.NewNop()}
}

func toZapFields(fields map[string]interface{}) []zap.Field {
	if len(fields) == 0 {
		return nil
	}
	out := make([]zap.Field, 0, len(fields))
	for k, v := range fields {
		out = append(out, zap.Any(k, v))
	}
	return out
}

func (l *ZapLogger) Debug(msg string, fields map[string]interface{}) {
	l.log.Debug(msg, toZapFields(fields)...)
}

func (l *ZapLogger) Info(msg string, fields map[string]interface{}) {
	l.log.Info(msg, toZapFields(fields)...)
}

func (l *ZapLogger) Warn(msg string, fields map[string]interface{}) {
	l.log.Warn(msg, toZapFields(fields)...)
}

func (l *ZapLogger) Error(msg string, err error) {
	l.log.Error(msg, zap.Error(err))
}

// Fatal regista e termina o processo (os.Exit(1) via zap).
func (l *ZapLogger) Fatal(msg string, err error) {
	l.log.Fatal(msg, zap.Error(err))
}

// Sync descarrega os buffers do zap; chamado no encerramento.
func (l *ZapLogger) Sync() error {
	return l.log.Sync()
}
