package network

import (
	"errors"

	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/netevo/internal/topology"
)

// MatrixKind selects the matrix used for spectral analysis.
type MatrixKind int

const (
	// Laplacian has 1 at (u, v) for every arc u->v between distinct nodes and
	// minus the out-degree of u on the diagonal. Parallel arcs and self loops
	// count towards the degree.
	Laplacian MatrixKind = iota
	// Adjacency has 1 at (u, v) for every arc u->v.
	Adjacency
)

func (k MatrixKind) String() string {
	switch k {
	case Laplacian:
		return "laplacian"
	case Adjacency:
		return "adjacency"
	default:
		return "unknown"
	}
}

var errEigen = errors.New("network: eigendecomposition did not converge")

// Matrix builds the dense matrix of the given kind indexed by node
// enumeration. It returns nil for an empty system.
func (s *System) Matrix(kind MatrixKind) *mat.Dense {
	s.RefreshStateIDs()
	n := len(s.mapper.nodeOrder)
	if n == 0 {
		return nil
	}
	m := mat.NewDense(n, n, nil)
	for _, a := range s.mapper.arcOrder {
		u, v := s.graph.Source(a), s.graph.Target(a)
		m.Set(s.mapper.nodeIndex[u], s.mapper.nodeIndex[v], 1)
	}
	if kind == Laplacian {
		for i, u := range s.mapper.nodeOrder {
			m.Set(i, i, -float64(s.graph.OutDegree(u)))
		}
	}
	return m
}

// Eigenvalues returns the eigenvalues of the matrix of the given kind in the
// order produced by the decomposition.
func (s *System) Eigenvalues(kind MatrixKind) ([]complex128, error) {
	m := s.Matrix(kind)
	if m == nil {
		return nil, nil
	}
	var eig mat.Eigen
	if !eig.Factorize(m, mat.EigenNone) {
		return nil, errEigen
	}
	return eig.Values(nil), nil
}

// Eigensystem returns the eigenvalues and the right eigenvectors, stored as
// the columns of the returned matrix.
func (s *System) Eigensystem(kind MatrixKind) ([]complex128, *mat.CDense, error) {
	m := s.Matrix(kind)
	if m == nil {
		return nil, nil, nil
	}
	var eig mat.Eigen
	if !eig.Factorize(m, mat.EigenRight) {
		return nil, nil, errEigen
	}
	var vecs mat.CDense
	eig.VectorsTo(&vecs)
	return eig.Values(nil), &vecs, nil
}

// NodeOrder returns the current node enumeration, matching the rows of
// Matrix.
func (s *System) NodeOrder() []topology.Node {
	s.RefreshStateIDs()
	out := make([]topology.Node, len(s.mapper.nodeOrder))
	copy(out, s.mapper.nodeOrder)
	return out
}
