package logx

import (
	"io"
	"os"
	"sort"
	"strings"
	"sync"

	"github.com/rs/zerolog"
)

// Level representa el nivel de logging
type Level uint8

const (
	LevelError Level = iota
	LevelWarn
	LevelInfo
	LevelDebug
	LevelTrace
)

// Fields representa pares clave-valor para structured logging
type Fields map[string]any

// Config gestiona la configuración global del logger
type Config struct {
	mu      sync.RWMutex
	logger  zerolog.Logger
	level   Level
	out     io.Writer
	json    bool
	noColor bool
}

var cfg = newConfig(os.Stderr)

func newConfig(w io.Writer) *Config {
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	c := &Config{
		level:   LevelInfo,
		out:     w,
		noColor: !IsTerminal(w),
	}
	c.rebuild()
	return c
}

// rebuild recrea el logger a partir de out/json/noColor. Llamar con mu tomado.
func (c *Config) rebuild() {
	if c.json {
		c.logger = zerolog.New(c.out).With().Timestamp().Logger()
		return
	}
	c.logger = zerolog.New(zerolog.ConsoleWriter{
		Out:        c.out,
		TimeFormat: "15:04:05",
		NoColor:    c.noColor,
	}).With().Timestamp().Logger()
}

// Los eventos de debug del escaneo de subdominios se muestrean: uno de cada N.
var sampleRates = map[string]int{
	"dns-scan": 10,
}

var sampleState = struct {
	sync.Mutex
	counters map[string]int64
}{counters: make(map[string]int64)}

// SetVerbosity configura el nivel: 0=info, 1=info, 2=debug, 3=trace
func SetVerbosity(v int) {
	switch {
	case v <= 1:
		SetLevel(LevelInfo)
	case v == 2:
		SetLevel(LevelDebug)
	default:
		SetLevel(LevelTrace)
	}
}

// SetLevel cambia el nivel mínimo de logging
func SetLevel(l Level) {
	cfg.mu.Lock()
	defer cfg.mu.Unlock()
	cfg.level = l

	var zlevel zerolog.Level
	switch l {
	case LevelError:
		zlevel = zerolog.ErrorLevel
	case LevelWarn:
		zlevel = zerolog.WarnLevel
	case LevelInfo:
		zlevel = zerolog.InfoLevel
	case LevelDebug:
		zlevel = zerolog.DebugLevel
	case LevelTrace:
		zlevel = zerolog.TraceLevel
	default:
		zlevel = zerolog.InfoLevel
	}

	zerolog.SetGlobalLevel(zlevel)
}

// GetLevel retorna el nivel actual de logging
func GetLevel() Level {
	cfg.mu.RLock()
	defer cfg.mu.RUnlock()
	return cfg.level
}

// SetOutput redirige la salida del logger. Los colores se desactivan si el
// destino no es una terminal.
func SetOutput(w io.Writer) {
	cfg.mu.Lock()
	defer cfg.mu.Unlock()

	if w == nil {
		w = os.Stderr
	}
	cfg.out = w
	cfg.noColor = !IsTerminal(w)
	cfg.rebuild()
}

// SetJSON habilita output JSON estructurado
func SetJSON(enabled bool) {
	cfg.mu.Lock()
	defer cfg.mu.Unlock()
	cfg.json = enabled
	cfg.rebuild()
}

// Logger expone el logger subyacente (para el middleware HTTP).
func Logger() zerolog.Logger {
	cfg.mu.RLock()
	defer cfg.mu.RUnlock()
	return cfg.logger
}

func Errorf(format string, a ...interface{}) {
	logger := Logger()
	logger.Error().Msgf(format, a...)
}

func Warnf(format string, a ...interface{}) {
	logger := Logger()
	logger.Warn().Msgf(format, a...)
}

func Infof(format string, a ...interface{}) {
	logger := Logger()
	logger.Info().Msgf(format, a...)
}

func Debugf(format string, a ...interface{}) {
	logger := Logger()
	logger.Debug().Msgf(format, a...)
}

func Tracef(format string, a ...interface{}) {
	logger := Logger()
	logger.Trace().Msgf(format, a...)
}

// Funciones con fields estructurados
func Error(msg string, fields Fields) { logFields(LevelError, msg, fields) }

func Warn(msg string, fields Fields) { logFields(LevelWarn, msg, fields) }

func Info(msg string, fields Fields) { logFields(LevelInfo, msg, fields) }

func Debug(msg string, fields Fields) { logFields(LevelDebug, msg, fields) }

func Trace(msg string, fields Fields) { logFields(LevelTrace, msg, fields) }

func logFields(lvl Level, msg string, fields Fields) {
	if shouldSampleFields(lvl, fields) {
		return
	}
	logger := Logger()

	var event *zerolog.Event
	switch lvl {
	case LevelError:
		event = logger.Error()
	case LevelWarn:
		event = logger.Warn()
	case LevelInfo:
		event = logger.Info()
	case LevelDebug:
		event = logger.Debug()
	default:
		event = logger.Trace()
	}
	if event == nil {
		return
	}

	// Orden estable de claves para que la salida sea comparable entre ejecuciones
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		switch v := fields[k].(type) {
		case error:
			event = event.AnErr(k, v)
		default:
			event = event.Interface(k, v)
		}
	}
	event.Msg(msg)
}

// shouldSampleFields implementa sampling para reducir ruido en logs debug
func shouldSampleFields(lvl Level, fields Fields) bool {
	if lvl < LevelDebug || len(fields) == 0 {
		return false
	}
	raw, ok := fields["component"]
	if !ok {
		return false
	}
	component, ok := raw.(string)
	if !ok {
		return false
	}
	component = strings.ToLower(strings.TrimSpace(component))
	rate, ok := sampleRates[component]
	if !ok || rate <= 1 {
		return false
	}
	sampleState.Lock()
	defer sampleState.Unlock()
	count := sampleState.counters[component] + 1
	sampleState.counters[component] = count
	return count%int64(rate) != 1
}
