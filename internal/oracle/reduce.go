package oracle

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// project converts embeddings to float64 rows, optionally L2-normalised, and
// projects them onto the leading principal components. Reduction is skipped
// when the matrix is already no wider than components or has too few rows.
func project(embeddings [][]float32, components int, normalize bool) ([][]float64, error) {
	n, d := len(embeddings), len(embeddings[0])
	data := make([]float64, n*d)
	for i, emb := range embeddings {
		row := data[i*d : (i+1)*d]
		for j, v := range emb {
			row[j] = float64(v)
		}
		if normalize {
			if norm := floats.Norm(row, 2); norm > 0 {
				floats.Scale(1/norm, row)
			}
		}
	}

	if components <= 0 || d <= components || n <= components {
		return splitRows(data, n, d), nil
	}

	a := mat.NewDense(n, d, data)
	var pc stat.PC
	if ok := pc.PrincipalComponents(a, nil); !ok {
		return nil, &DecompositionError{Rows: n, Cols: d}
	}
	var vecs mat.Dense
	pc.VectorsTo(&vecs)
	_, cols := vecs.Dims()
	k := min(components, cols)

	means := make([]float64, d)
	for j := range d {
		means[j] = stat.Mean(mat.Col(nil, j, a), nil)
	}
	var centered mat.Dense
	centered.Apply(func(_, j int, v float64) float64 { return v - means[j] }, a)

	var proj mat.Dense
	proj.Mul(&centered, vecs.Slice(0, d, 0, k))

	out := make([][]float64, n)
	for i := range n {
		out[i] = mat.Row(nil, i, &proj)
	}
	return out, nil
}

func splitRows(data []float64, n, d int) [][]float64 {
	out := make([][]float64, n)
	for i := range n {
		out[i] = data[i*d : (i+1)*d : (i+1)*d]
	}
	return out
}
