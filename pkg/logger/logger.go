package logger

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Config opciones para el logger.
type Config struct {
	Env     string // development -> consola legible; otro -> JSON
	Level   string // trace, debug, info, warn, error
	Service string // se agrega como campo service en cada línea
}

// Logger wrapper sobre zerolog. Los componentes del motor reciben un sublogger Named.
type Logger struct {
	zl zerolog.Logger
}

// New crea el logger del proceso y lo instala como logger global de zerolog.
func New(cfg Config) *Logger {
	var w io.Writer = os.Stdout
	if cfg.Env == "development" {
		w = zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.TimeOnly}
	}
	ctx := zerolog.New(w).Level(parseLevel(cfg.Level)).With().Timestamp()
	if cfg.Service != "" {
		ctx = ctx.Str("service", cfg.Service)
	}
	zl := ctx.Logger()
	log.Logger = zl
	return &Logger{zl: zl}
}

// NewWithWriter logger JSON sobre w, sin tocar el global (tests).
func NewWithWriter(w io.Writer, level string) *Logger {
	return &Logger{zl: zerolog.New(w).Level(parseLevel(level)).With().Timestamp().Logger()}
}

// Nop descarta todo; valor por defecto cuando no se inyecta logger.
func Nop() *Logger {
	return &Logger{zl: zerolog.Nop()}
}

// parseLevel nivel de zerolog; vacío o desconocido es info.
func parseLevel(s string) zerolog.Level {
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(s)))
	if err != nil || lvl == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return lvl
}

func (l *Logger) Trace() *zerolog.Event { return l.zl.Trace() }
func (l *Logger) Debug() *zerolog.Event { return l.zl.Debug() }
func (l *Logger) Info() *zerolog.Event  { return l.zl.Info() }
func (l *Logger) Warn() *zerolog.Event  { return l.zl.Warn() }
func (l *Logger) Error() *zerolog.Event { return l.zl.Error() }
func (l *Logger) Fatal() *zerolog.Event { return l.zl.Fatal() }

// Named sublogger con el campo component fijo (stock_engine, order_delivery, http...).
func (l *Logger) Named(component string) *Logger {
	return &Logger{zl: l.zl.With().Str("component", component).Logger()}
}

// GetLevel nivel efectivo.
func (l *Logger) GetLevel() zerolog.Level {
	return l.zl.GetLevel()
}
