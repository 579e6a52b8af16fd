package embedding

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
)

// Kind tags the shape of a decoded feature-extraction response.
type Kind int

const (
	KindUnknown Kind = iota
	// KindError is a {"error": ...} payload.
	KindError
	// KindSentence is one numeric vector per input.
	KindSentence
	// KindToken is one list of per-token vectors per input.
	KindToken
	// KindWrapped is one single-key object per input wrapping a vector.
	KindWrapped
	// KindSingle is a bare flat vector, returned for a single input.
	KindSingle
)

func (k Kind) String() string {
	switch k {
	case KindError:
		return "error"
	case KindSentence:
		return "sentence"
	case KindToken:
		return "token"
	case KindWrapped:
		return "wrapped"
	case KindSingle:
		return "single"
	default:
		return "unknown"
	}
}

var (
	ErrUpstream     = errors.New("embedding service returned an error")
	ErrUnknownShape = errors.New("unrecognized embedding response shape")
	ErrRowCount     = errors.New("embedding row count does not match input count")
)

// Response is a classified feature-extraction payload.
type Response struct {
	Kind Kind
	// Message is set for KindError.
	Message string
	// Rows is set for KindSentence, KindWrapped and KindSingle.
	Rows [][]float64
	// Tokens is set for KindToken.
	Tokens [][][]float64
}

// Classify inspects a value decoded by encoding/json and tags its shape.
// It never fails; anything it cannot recognize is KindUnknown.
func Classify(raw any) Response {
	switch v := raw.(type) {
	case map[string]any:
		if msg, ok := v["error"]; ok {
			return Response{Kind: KindError, Message: describe(msg)}
		}
		return Response{Kind: KindUnknown}
	case []any:
		return classifyList(v)
	default:
		return Response{Kind: KindUnknown}
	}
}

func classifyList(items []any) Response {
	if len(items) == 0 {
		return Response{Kind: KindSentence, Rows: [][]float64{}}
	}

	if vec, ok := numbers(items); ok {
		return Response{Kind: KindSingle, Rows: [][]float64{vec}}
	}

	switch items[0].(type) {
	case []any:
		if rows, ok := matrix(items); ok {
			return Response{Kind: KindSentence, Rows: rows}
		}
		tokens := make([][][]float64, 0, len(items))
		for _, item := range items {
			list, ok := item.([]any)
			if !ok {
				return Response{Kind: KindUnknown}
			}
			m, ok := matrix(list)
			if !ok {
				return Response{Kind: KindUnknown}
			}
			tokens = append(tokens, m)
		}
		return Response{Kind: KindToken, Tokens: tokens}
	case map[string]any:
		rows := make([][]float64, 0, len(items))
		for _, item := range items {
			obj, ok := item.(map[string]any)
			if !ok || len(obj) != 1 {
				return Response{Kind: KindUnknown}
			}
			var row []float64
			for _, value := range obj {
				row, ok = wrappedVector(value)
			}
			if !ok {
				return Response{Kind: KindUnknown}
			}
			rows = append(rows, row)
		}
		return Response{Kind: KindWrapped, Rows: rows}
	default:
		return Response{Kind: KindUnknown}
	}
}

// wrappedVector accepts either a flat vector or a token matrix as the wrapped value.
func wrappedVector(value any) ([]float64, bool) {
	list, ok := value.([]any)
	if !ok {
		return nil, false
	}
	if vec, ok := numbers(list); ok {
		return vec, true
	}
	m, ok := matrix(list)
	if !ok {
		return nil, false
	}
	return mean(m), true
}

// Matrix reduces the response to exactly n rows of Dimension width.
// Rows of the wrong width or with non-finite components are replaced by zero vectors.
// Any other mismatch is reported as an error and the caller should fall back to Zeros(n).
func (r Response) Matrix(n int) (Matrix, error) {
	var rows [][]float64
	switch r.Kind {
	case KindError:
		return nil, fmt.Errorf("%w: %s", ErrUpstream, r.Message)
	case KindSentence, KindWrapped, KindSingle:
		rows = r.Rows
	case KindToken:
		rows = make([][]float64, 0, len(r.Tokens))
		for _, tokens := range r.Tokens {
			rows = append(rows, mean(tokens))
		}
	default:
		return nil, ErrUnknownShape
	}

	if len(rows) != n {
		return nil, fmt.Errorf("%w: got %d rows for %d inputs (%s)", ErrRowCount, len(rows), n, r.Kind)
	}

	out := make(Matrix, n)
	for i, row := range rows {
		out[i] = conform(row)
	}
	return out, nil
}

// Normalize classifies raw and reduces it to n rows. It always returns a usable matrix;
// the error explains why a zero fallback was used.
func Normalize(raw any, n int) (Matrix, Response, error) {
	resp := Classify(raw)
	m, err := resp.Matrix(n)
	if err != nil {
		return Zeros(n), resp, err
	}
	return m, resp, nil
}

// Decode parses a JSON body and normalizes it to n rows.
func Decode(body []byte, n int) (Matrix, Response, error) {
	var raw any
	if err := json.Unmarshal(body, &raw); err != nil {
		return Zeros(n), Response{Kind: KindUnknown}, fmt.Errorf("decode embedding response: %w", err)
	}
	return Normalize(raw, n)
}

func conform(row []float64) Vector {
	if len(row) != Dimension {
		return Zero()
	}
	v := make(Vector, Dimension)
	for i, x := range row {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return Zero()
		}
		v[i] = x
	}
	return v
}

// mean averages token vectors component-wise. Ragged or empty input yields nil.
func mean(tokens [][]float64) []float64 {
	if len(tokens) == 0 {
		return nil
	}
	width := len(tokens[0])
	sum := make([]float64, width)
	for _, token := range tokens {
		if len(token) != width {
			return nil
		}
		for i, x := range token {
			sum[i] += x
		}
	}
	for i := range sum {
		sum[i] /= float64(len(tokens))
	}
	return sum
}

func numbers(items []any) ([]float64, bool) {
	out := make([]float64, 0, len(items))
	for _, item := range items {
		f, ok := item.(float64)
		if !ok {
			return nil, false
		}
		out = append(out, f)
	}
	return out, true
}

func matrix(items []any) ([][]float64, bool) {
	out := make([][]float64, 0, len(items))
	for _, item := range items {
		list, ok := item.([]any)
		if !ok {
			return nil, false
		}
		row, ok := numbers(list)
		if !ok {
			return nil, false
		}
		out = append(out, row)
	}
	return out, true
}

func describe(v any) string {
	switch val := v.(type) {
	case string:
		return strings.TrimSpace(val)
	case nil:
		return ""
	default:
		data, err := json.Marshal(val)
		if err != nil {
			return fmt.Sprintf("%v", val)
		}
		return string(data)
	}
}
