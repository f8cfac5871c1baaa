package logx

import "time"

// TimedOperation registra el inicio y fin de una consulta con su duración.
type TimedOperation struct {
	source    string
	operation string
	start     time.Time
	fields    Fields
}

// StartOperation inicia el tracking de una operación sobre una fuente.
func StartOperation(source, operation string, fields ...Fields) *TimedOperation {
	op := &TimedOperation{
		source:    source,
		operation: operation,
		start:     time.Now(),
		fields:    Fields{"source": source},
	}

	for _, f := range fields {
		for k, v := range f {
			op.fields[k] = v
		}
	}

	Debug(operation+" iniciada", op.fields)
	return op
}

// Elapsed devuelve el tiempo transcurrido desde el inicio.
func (op *TimedOperation) Elapsed() time.Duration {
	return time.Since(op.start)
}

// Complete marca la operación como completada y loggea la duración.
func (op *TimedOperation) Complete() {
	op.fields["duration_ms"] = op.Elapsed().Milliseconds()
	Debug(op.operation+" completada", op.fields)
}

// Fail marca la operación como fallida. Los fallos de una fuente no abortan
// la consulta, por eso van a warn y no a error.
func (op *TimedOperation) Fail(err error) {
	op.fields["duration_ms"] = op.Elapsed().Milliseconds()
	op.fields["error"] = err
	Warn(op.operation+" fallida", op.fields)
}

