// Package embedding turns texts into fixed-width dense vectors.
package embedding

import "context"

// Dimension is the width of every vector produced by this package.
const Dimension = 384

// Vector is a dense semantic encoding of a single text.
type Vector []float64

// Matrix holds one Vector per input text, in input order.
type Matrix []Vector

// Embedder encodes texts. Implementations never fail: any upstream problem
// yields zero rows, and the result always has len(texts) rows of Dimension width.
type Embedder interface {
	Embed(ctx context.Context, texts []string) Matrix
}

// Zero returns a zero vector of Dimension width.
func Zero() Vector {
	return make(Vector, Dimension)
}

// Zeros returns an all-zero matrix with n rows.
func Zeros(n int) Matrix {
	if n <= 0 {
		return Matrix{}
	}
	m := make(Matrix, n)
	for i := range m {
		m[i] = Zero()
	}
	return m
}

// IsZero reports whether every component of v is zero.
func (v Vector) IsZero() bool {
	for _, x := range v {
		if x != 0 {
			return false
		}
	}
	return true
}

// IsZero reports whether every row of m is a zero vector.
func (m Matrix) IsZero() bool {
	for _, row := range m {
		if !row.IsZero() {
			return false
		}
	}
	return true
}

// EmbedOne encodes a single text and returns its first row.
func EmbedOne(ctx context.Context, e Embedder, text string) Vector {
	m := e.Embed(ctx, []string{text})
	if len(m) == 0 {
		return Zero()
	}
	return m[0]
}
