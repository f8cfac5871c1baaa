// Package errors proporciona la taxonomía de errores de las fuentes de
// registro, con contexto y sugerencias para el usuario.
package errors

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"
)

// ErrorWithSuggestion es un error que incluye una sugerencia para el usuario.
type ErrorWithSuggestion struct {
	Err        error
	Suggestion string
	Context    map[string]string
}

func (e *ErrorWithSuggestion) Error() string {
	var b strings.Builder
	b.WriteString(e.Err.Error())
	if e.Suggestion != "" {
		b.WriteString("\n\n💡 Sugerencia: ")
		b.WriteString(e.Suggestion)
	}
	if len(e.Context) > 0 {
		b.WriteString("\n\nContexto:")
		keys := make([]string, 0, len(e.Context))
		for k := range e.Context {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(&b, "\n  • %s: %s", k, e.Context[k])
		}
	}
	return b.String()
}

func (e *ErrorWithSuggestion) Unwrap() error {
	return e.Err
}

// WithSuggestion envuelve un error con una sugerencia para el usuario.
func WithSuggestion(err error, suggestion string) error {
	if err == nil {
		return nil
	}
	return &ErrorWithSuggestion{
		Err:        err,
		Suggestion: suggestion,
		Context:    make(map[string]string),
	}
}

// WithContext añade contexto adicional a un error.
func WithContext(err error, key, value string) error {
	if err == nil {
		return nil
	}

	var suggErr *ErrorWithSuggestion
	if errors.As(err, &suggErr) {
		if suggErr.Context == nil {
			suggErr.Context = make(map[string]string)
		}
		suggErr.Context[key] = value
		return err
	}

	return &ErrorWithSuggestion{
		Err:     err,
		Context: map[string]string{key: value},
	}
}

// ConnectionError representa una conexión rechazada o reiniciada por el peer.
type ConnectionError struct {
	Op     string
	Target string
	Reason string // refused, reset, unreachable
	Err    error
}

func (e *ConnectionError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("conexión %s durante %s a %s: %v", e.Reason, e.Op, e.Target, e.Err)
	}
	return fmt.Sprintf("error de conexión durante %s a %s: %v", e.Op, e.Target, e.Err)
}

func (e *ConnectionError) Unwrap() error {
	return e.Err
}

// NewConnectionError crea un error mejorado para fallos de conexión.
func NewConnectionError(op, target, reason string, err error) error {
	baseErr := &ConnectionError{Op: op, Target: target, Reason: reason, Err: err}

	suggestion := "Verifica tu conexión a internet y que el servidor acepte conexiones\n" +
		"O fija otro servidor con: -whois-server=host:43"

	wrapped := WithSuggestion(baseErr, suggestion)
	wrapped = WithContext(wrapped, "target", target)
	return wrapped
}

// TimeoutError representa una fuente que no respondió dentro del plazo.
type TimeoutError struct {
	Source   string
	Duration time.Duration
	Reason   string
}

func (e *TimeoutError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("timeout de %s después de %s: %s", e.Source, e.Duration, e.Reason)
	}
	return fmt.Sprintf("timeout de %s después de %s", e.Source, e.Duration)
}

// NewTimeoutError crea un error mejorado para timeouts.
func NewTimeoutError(source string, d time.Duration, reason string) error {
	baseErr := &TimeoutError{Source: source, Duration: d, Reason: reason}

	suggestion := fmt.Sprintf("Intenta aumentar el timeout con: -timeout=%d\n"+
		"O desactiva esta fuente con: -disable=%s",
		(d + 15*time.Second).Milliseconds(), source)

	err := WithSuggestion(baseErr, suggestion)
	err = WithContext(err, "source", source)
	err = WithContext(err, "timeout_ms", fmt.Sprintf("%d", d.Milliseconds()))
	return err
}

// ParseError representa una respuesta que no se pudo interpretar.
type ParseError struct {
	Source string
	Reason string
	Sample string
}

func (e *ParseError) Error() string {
	msg := fmt.Sprintf("respuesta inválida de %s: %s", e.Source, e.Reason)
	if e.Sample != "" {
		msg += fmt.Sprintf(" (muestra: %q)", truncate(e.Sample, 50))
	}
	return msg
}

// NewParseError crea un error mejorado para respuestas malformadas.
func NewParseError(source, reason, sample string) error {
	baseErr := &ParseError{Source: source, Reason: reason, Sample: sample}

	suggestion := "La fuente puede haber cambiado de formato o estar limitando peticiones\n" +
		"Reintenta más tarde o desactívala con: -disable=" + source

	err := WithSuggestion(baseErr, suggestion)
	err = WithContext(err, "source", source)
	return err
}

// HTTPError representa una respuesta HTTP fuera del rango 2xx.
type HTTPError struct {
	Source     string
	URL        string
	StatusCode int
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("%s respondió HTTP %d", e.Source, e.StatusCode)
}

// NewHTTPError crea un error mejorado para respuestas HTTP no exitosas.
func NewHTTPError(source, url string, status int) error {
	baseErr := &HTTPError{Source: source, URL: url, StatusCode: status}

	var suggestion string
	switch {
	case status == 404:
		suggestion = "El dominio no existe en esta fuente o el TLD no está soportado"
	case status == 429:
		suggestion = "La fuente está limitando peticiones, reintenta más tarde"
	default:
		suggestion = "Verifica la URL base configurada para esta fuente"
	}

	err := WithSuggestion(baseErr, suggestion)
	err = WithContext(err, "source", source)
	if url != "" {
		err = WithContext(err, "url", truncate(url, 100))
	}
	return err
}

// DNSError representa un fallo de resolución DNS.
type DNSError struct {
	Name string
	Type string
	Err  error
}

func (e *DNSError) Error() string {
	return fmt.Sprintf("resolución DNS %s %s falló: %v", e.Type, e.Name, e.Err)
}

func (e *DNSError) Unwrap() error {
	return e.Err
}

// NewDNSError crea un error mejorado para fallos DNS.
func NewDNSError(name, qtype string, err error) error {
	baseErr := &DNSError{Name: name, Type: qtype, Err: err}

	wrapped := WithSuggestion(baseErr, "Verifica el resolvedor configurado con: -resolver=host:53")
	wrapped = WithContext(wrapped, "name", name)
	return wrapped
}

// ConfigurationError representa un error de configuración.
type ConfigurationError struct {
	Field  string
	Value  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuración inválida para '%s': %s", e.Field, e.Reason)
}

// NewConfigurationError crea un error mejorado para problemas de configuración.
func NewConfigurationError(field, value, reason, suggestion string) error {
	baseErr := &ConfigurationError{
		Field:  field,
		Value:  value,
		Reason: reason,
	}

	err := WithSuggestion(baseErr, suggestion)
	err = WithContext(err, "field", field)
	if value != "" {
		err = WithContext(err, "value", value)
	}

	return err
}

// truncate limita una cadena a n caracteres, añadiendo "..." si es necesario.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}

// GetSuggestion extrae la sugerencia de un error si existe.
func GetSuggestion(err error) string {
	var suggErr *ErrorWithSuggestion
	if errors.As(err, &suggErr) {
		return suggErr.Suggestion
	}
	return ""
}

// GetContext extrae el contexto de un error si existe.
func GetContext(err error) map[string]string {
	var suggErr *ErrorWithSuggestion
	if errors.As(err, &suggErr) {
		return suggErr.Context
	}
	return nil
}

// Message devuelve el mensaje del error sin sugerencia ni contexto.
func Message(err error) string {
	if err == nil {
		return ""
	}
	var suggErr *ErrorWithSuggestion
	if errors.As(err, &suggErr) {
		return suggErr.Err.Error()
	}
	return err.Error()
}

// IsTimeout verifica si un error es por timeout.
func IsTimeout(err error) bool {
	var timeoutErr *TimeoutError
	return errors.As(err, &timeoutErr)
}

// IsConnection verifica si un error es de conexión.
func IsConnection(err error) bool {
	var connErr *ConnectionError
	return errors.As(err, &connErr)
}

// IsParse verifica si un error es por respuesta inválida.
func IsParse(err error) bool {
	var parseErr *ParseError
	return errors.As(err, &parseErr)
}

// IsHTTP verifica si un error es por estado HTTP no exitoso.
func IsHTTP(err error) bool {
	var httpErr *HTTPError
	return errors.As(err, &httpErr)
}

// IsDNS verifica si un error es de resolución DNS.
func IsDNS(err error) bool {
	var dnsErr *DNSError
	return errors.As(err, &dnsErr)
}

// IsConfiguration verifica si un error es de configuración.
func IsConfiguration(err error) bool {
	var cfgErr *ConfigurationError
	return errors.As(err, &cfgErr)
}

// Kind devuelve la etiqueta de la taxonomía usada en los reportes de fallo.
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case IsTimeout(err):
		return "timeout"
	case IsConnection(err):
		return "connection"
	case IsParse(err):
		return "parse"
	case IsHTTP(err):
		return "http"
	case IsDNS(err):
		return "dns"
	case IsConfiguration(err):
		return "configuration"
	default:
		return "unknown"
	}
}
