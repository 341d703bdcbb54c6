// Package expressions evaluates JMESPath expressions against decoded provider responses.
package expressions

import (
	"fmt"
	"sync"

	"github.com/jmespath/go-jmespath"
)

// Evaluator compiles expressions once and reuses them across requests.
type Evaluator struct {
	cache map[string]*jmespath.JMESPath
	mu    sync.RWMutex
}

func NewEvaluator() *Evaluator {
	return &Evaluator{
		cache: make(map[string]*jmespath.JMESPath),
	}
}

func (e *Evaluator) Evaluate(expression string, data any) (any, error) {
	compiled, err := e.compile(expression)
	if err != nil {
		return nil, fmt.Errorf("invalid expression %q: %w", expression, err)
	}

	result, err := compiled.Search(data)
	if err != nil {
		return nil, fmt.Errorf("failed to evaluate expression %q: %w", expression, err)
	}
	return result, nil
}

// EvaluateInt returns 0 when the expression selects nothing.
func (e *Evaluator) EvaluateInt(expression string, data any) (int, error) {
	result, err := e.Evaluate(expression, data)
	if err != nil || result == nil {
		return 0, err
	}

	switch v := result.(type) {
	case float64:
		return int(v), nil
	case int:
		return v, nil
	case int64:
		return int(v), nil
	}
	return 0, fmt.Errorf("cannot convert %T to int", result)
}

func (e *Evaluator) EvaluateBool(expression string, data any) (bool, error) {
	result, err := e.Evaluate(expression, data)
	if err != nil || result == nil {
		return false, err
	}

	switch v := result.(type) {
	case bool:
		return v, nil
	case string:
		return v != "", nil
	case float64:
		return v != 0, nil
	case []any:
		return len(v) > 0, nil
	case map[string]any:
		return len(v) > 0, nil
	}
	return true, nil
}

// EvaluateRecords selects a list of objects. A single object is wrapped; non-object items are dropped.
func (e *Evaluator) EvaluateRecords(expression string, data any) ([]map[string]any, error) {
	result, err := e.Evaluate(expression, data)
	if err != nil || result == nil {
		return nil, err
	}

	items, ok := result.([]any)
	if !ok {
		items = []any{result}
	}

	records := make([]map[string]any, 0, len(items))
	for _, item := range items {
		if m, ok := item.(map[string]any); ok {
			records = append(records, m)
		}
	}
	return records, nil
}

// Project builds a new record by evaluating each field expression against record.
// Fields whose expression selects nothing are omitted.
func (e *Evaluator) Project(fields map[string]string, record map[string]any) (map[string]any, error) {
	out := make(map[string]any, len(fields))
	for field, expression := range fields {
		value, err := e.Evaluate(expression, record)
		if err != nil {
			return nil, fmt.Errorf("field %s: %w", field, err)
		}
		if value != nil {
			out[field] = value
		}
	}
	return out, nil
}

func (e *Evaluator) Validate(expression string) error {
	_, err := e.compile(expression)
	return err
}

func (e *Evaluator) compile(expression string) (*jmespath.JMESPath, error) {
	e.mu.RLock()
	if compiled, ok := e.cache[expression]; ok {
		e.mu.RUnlock()
		return compiled, nil
	}
	e.mu.RUnlock()

	compiled, err := jmespath.Compile(expression)
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	e.cache[expression] = compiled
	e.mu.Unlock()

	return compiled, nil
}
