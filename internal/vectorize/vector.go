package vectorize

import "math"

// Vector is a sparse row over the vocabulary. Indices are strictly
// increasing column numbers; Values holds the weight of each.
type Vector struct {
	Indices []int
	Values  []float64
}

// NNZ returns the number of non-zero entries.
func (v Vector) NNZ() int {
	return len(v.Indices)
}

// IsZero reports whether the vector has no entries.
func (v Vector) IsZero() bool {
	return len(v.Indices) == 0
}

// Dot returns the dot product of two sparse vectors by merging their indices.
func (v Vector) Dot(o Vector) float64 {
	var sum float64
	i, j := 0, 0
	for i < len(v.Indices) && j < len(o.Indices) {
		switch {
		case v.Indices[i] == o.Indices[j]:
			sum += v.Values[i] * o.Values[j]
			i++
			j++
		case v.Indices[i] < o.Indices[j]:
			i++
		default:
			j++
		}
	}
	return sum
}

// Norm returns the Euclidean length of the vector.
func (v Vector) Norm() float64 {
	var sum float64
	for _, x := range v.Values {
		sum += x * x
	}
	return math.Sqrt(sum)
}

// normalize scales the vector in place to unit length.
// A zero vector is left untouched.
func (v Vector) normalize() {
	n := v.Norm()
	if n == 0 {
		return
	}
	for i := range v.Values {
		v.Values[i] /= n
	}
}

// Matrix is the document-by-vocabulary TF-IDF matrix. Row i belongs to the
// i-th document of the corpus it was built from.
type Matrix struct {
	rows []Vector
	cols int
}

// Rows returns the number of documents.
func (m *Matrix) Rows() int {
	return len(m.rows)
}

// Cols returns the vocabulary size.
func (m *Matrix) Cols() int {
	return m.cols
}

// Row returns the vector of document i. The returned vector shares storage
// with the matrix and must not be modified.
func (m *Matrix) Row(i int) Vector {
	return m.rows[i]
}
