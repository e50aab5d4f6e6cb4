package oracle

import (
	"context"
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"

	"github.com/kailas-cloud/topicdex/internal/domain/cluster"
)

// maxLambda stands in for 1/0 when points coincide.
const maxLambda = 1e12

// ctxCheckEvery bounds how many rows are processed between cancellation checks.
const ctxCheckEvery = 256

type mstEdge struct {
	a, b   int
	weight float64
}

// linkage is a single-linkage dendrogram. Node ids below n are points;
// node n+i is the i-th merge.
type linkage struct {
	n     int
	left  []int
	right []int
	dist  []float64
	size  []int
}

func (l *linkage) sizeOf(node int) int {
	if node < l.n {
		return 1
	}
	return l.size[node-l.n]
}

func (l *linkage) root() int { return 2*l.n - 2 }

// condensed is the condensed cluster tree. Cluster 0 is the root.
type condensed struct {
	parent      []int // per cluster; -1 for the root
	birth       []float64
	children    [][]int
	pointParent []int // per point: the cluster it fell out of
	pointLambda []float64
}

// hdbscan labels points by hierarchical density clustering. Noise gets
// cluster.Outlier; clusters are numbered in creation order.
func hdbscan(ctx context.Context, points [][]float64, minClusterSize, minSamples int) ([]int, error) {
	n := len(points)
	labels := make([]int, n)
	for i := range labels {
		labels[i] = cluster.Outlier
	}
	if n < 2 {
		return labels, nil
	}
	minClusterSize = max(minClusterSize, 2)
	if minSamples <= 0 {
		minSamples = minClusterSize
	}

	core, err := coreDistances(ctx, points, min(minSamples, n))
	if err != nil {
		return nil, err
	}
	edges, err := primMST(ctx, points, core)
	if err != nil {
		return nil, err
	}
	tree := condense(singleLinkage(n, edges), minClusterSize)
	selected := selectClusters(tree)

	index := make(map[int]int)
	for c := range selected {
		if selected[c] {
			index[c] = len(index)
		}
	}
	for p := range n {
		c := tree.pointParent[p]
		for c > 0 && !selected[c] {
			c = tree.parent[c]
		}
		if c > 0 {
			labels[p] = index[c]
		}
	}
	return labels, nil
}

// coreDistances returns, per point, the distance to its k-th nearest neighbour
// counting the point itself.
func coreDistances(ctx context.Context, points [][]float64, k int) ([]float64, error) {
	n := len(points)
	core := make([]float64, n)
	buf := make([]float64, n)
	for i := range n {
		if i%ctxCheckEvery == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		for j := range n {
			buf[j] = floats.Distance(points[i], points[j], 2)
		}
		core[i] = kthSmallest(buf, k-1)
	}
	return core, nil
}

// kthSmallest returns the k-th (0-based) smallest element, reordering buf.
func kthSmallest(buf []float64, k int) float64 {
	lo, hi := 0, len(buf)-1
	for lo < hi {
		pivot := buf[lo+(hi-lo)/2]
		i, j := lo, hi
		for i <= j {
			for buf[i] < pivot {
				i++
			}
			for buf[j] > pivot {
				j--
			}
			if i <= j {
				buf[i], buf[j] = buf[j], buf[i]
				i++
				j--
			}
		}
		switch {
		case k <= j:
			hi = j
		case k >= i:
			lo = i
		default:
			return buf[k]
		}
	}
	return buf[k]
}

// primMST builds the minimum spanning tree of the mutual reachability graph
// without materialising the distance matrix.
func primMST(ctx context.Context, points [][]float64, core []float64) ([]mstEdge, error) {
	n := len(points)
	inTree := make([]bool, n)
	best := make([]float64, n)
	from := make([]int, n)
	for i := range best {
		best[i] = math.Inf(1)
	}

	edges := make([]mstEdge, 0, n-1)
	current := 0
	inTree[current] = true
	for len(edges) < n-1 {
		if len(edges)%ctxCheckEvery == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		next, nextDist := -1, math.Inf(1)
		for j := range n {
			if inTree[j] {
				continue
			}
			d := max(floats.Distance(points[current], points[j], 2), core[current], core[j])
			if d < best[j] {
				best[j] = d
				from[j] = current
			}
			if best[j] < nextDist {
				next, nextDist = j, best[j]
			}
		}
		edges = append(edges, mstEdge{a: from[next], b: next, weight: nextDist})
		inTree[next] = true
		current = next
	}
	return edges, nil
}

func singleLinkage(n int, edges []mstEdge) *linkage {
	sort.SliceStable(edges, func(i, j int) bool { return edges[i].weight < edges[j].weight })

	l := &linkage{
		n:     n,
		left:  make([]int, len(edges)),
		right: make([]int, len(edges)),
		dist:  make([]float64, len(edges)),
		size:  make([]int, len(edges)),
	}
	parent := make([]int, 2*n-1)
	for i := range parent {
		parent[i] = i
	}
	find := func(x int) int {
		root := x
		for parent[root] != root {
			root = parent[root]
		}
		for parent[x] != root {
			parent[x], x = root, parent[x]
		}
		return root
	}

	for i, e := range edges {
		a, b := find(e.a), find(e.b)
		node := n + i
		l.left[i], l.right[i] = a, b
		l.dist[i] = e.weight
		l.size[i] = l.sizeOf(a) + l.sizeOf(b)
		parent[a], parent[b] = node, node
	}
	return l
}

func lambdaOf(dist float64) float64 {
	if dist <= 1/maxLambda {
		return maxLambda
	}
	return 1 / dist
}

// condense walks the dendrogram from the root, keeping a split only when both
// sides have at least minClusterSize points; smaller sides fall out as points.
func condense(l *linkage, minClusterSize int) *condensed {
	t := &condensed{
		parent:      []int{-1},
		birth:       []float64{0},
		children:    [][]int{nil},
		pointParent: make([]int, l.n),
		pointLambda: make([]float64, l.n),
	}

	type frame struct{ node, cluster int }
	stack := []frame{{node: l.root(), cluster: 0}}

	fallOut := func(node, c int, lambda float64) {
		pending := []int{node}
		for len(pending) > 0 {
			x := pending[len(pending)-1]
			pending = pending[:len(pending)-1]
			if x < l.n {
				t.pointParent[x] = c
				t.pointLambda[x] = lambda
				continue
			}
			pending = append(pending, l.left[x-l.n], l.right[x-l.n])
		}
	}
	newCluster := func(parent int, lambda float64) int {
		id := len(t.parent)
		t.parent = append(t.parent, parent)
		t.birth = append(t.birth, lambda)
		t.children = append(t.children, nil)
		t.children[parent] = append(t.children[parent], id)
		return id
	}

	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if f.node < l.n {
			fallOut(f.node, f.cluster, t.birth[f.cluster])
			continue
		}

		i := f.node - l.n
		left, right := l.left[i], l.right[i]
		lambda := lambdaOf(l.dist[i])
		bigLeft := l.sizeOf(left) >= minClusterSize
		bigRight := l.sizeOf(right) >= minClusterSize

		switch {
		case bigLeft && bigRight:
			stack = append(stack,
				frame{node: left, cluster: newCluster(f.cluster, lambda)},
				frame{node: right, cluster: newCluster(f.cluster, lambda)},
			)
		case bigLeft:
			fallOut(right, f.cluster, lambda)
			stack = append(stack, frame{node: left, cluster: f.cluster})
		case bigRight:
			fallOut(left, f.cluster, lambda)
			stack = append(stack, frame{node: right, cluster: f.cluster})
		default:
			fallOut(left, f.cluster, lambda)
			fallOut(right, f.cluster, lambda)
		}
	}
	return t
}

// selectClusters runs excess-of-mass selection. The root is never selected.
func selectClusters(t *condensed) []bool {
	m := len(t.parent)
	stability := make([]float64, m)
	sizes := make([]int, m)
	for p, c := range t.pointParent {
		stability[c] += t.pointLambda[p] - t.birth[c]
		for x := c; x >= 0; x = t.parent[x] {
			sizes[x]++
		}
	}
	for c := 1; c < m; c++ {
		parent := t.parent[c]
		stability[parent] += (t.birth[c] - t.birth[parent]) * float64(sizes[c])
	}

	selected := make([]bool, m)
	for c := m - 1; c >= 1; c-- {
		var childSum float64
		for _, child := range t.children[c] {
			childSum += stability[child]
		}
		if len(t.children[c]) > 0 && childSum > stability[c] {
			stability[c] = childSum
			continue
		}
		selected[c] = true
		pending := append([]int(nil), t.children[c]...)
		for len(pending) > 0 {
			x := pending[len(pending)-1]
			pending = pending[:len(pending)-1]
			selected[x] = false
			pending = append(pending, t.children[x]...)
		}
	}
	return selected
}
