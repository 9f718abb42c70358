package model

import (
	"math/rand"
	"sort"
)

const leafNode = -1

// node is a flattened tree node. Feature is leafNode for leaves.
type node struct {
	Feature   int
	Threshold float64
	Left      int
	Right     int
	Value     float64
}

// Tree is a CART regression tree.
type Tree struct {
	nodes []node
}

type treeParams struct {
	maxDepth        int
	minSamplesSplit int
	minSamplesLeaf  int
	maxFeatures     int
}

// Predict walks the tree for row x.
func (t *Tree) Predict(x []float64) float64 {
	if len(t.nodes) == 0 {
		return 0
	}
	i := 0
	for {
		n := t.nodes[i]
		if n.Feature == leafNode {
			return n.Value
		}
		if x[n.Feature] <= n.Threshold {
			i = n.Left
		} else {
			i = n.Right
		}
	}
}

// Depth returns the maximum root-to-leaf edge count.
func (t *Tree) Depth() int {
	if len(t.nodes) == 0 {
		return 0
	}
	var walk func(i int) int
	walk = func(i int) int {
		n := t.nodes[i]
		if n.Feature == leafNode {
			return 0
		}
		l, r := walk(n.Left), walk(n.Right)
		if l > r {
			return l + 1
		}
		return r + 1
	}
	return walk(0)
}

func fitTree(X [][]float64, y []float64, idx []int, p treeParams, rng *rand.Rand) *Tree {
	t := &Tree{}
	if len(idx) == 0 {
		return t
	}
	b := &treeBuilder{X: X, y: y, p: p, rng: rng, tree: t}
	b.grow(idx, 0)
	return t
}

type treeBuilder struct {
	X    [][]float64
	y    []float64
	p    treeParams
	rng  *rand.Rand
	tree *Tree
}

func (b *treeBuilder) grow(idx []int, depth int) int {
	pos := len(b.tree.nodes)
	b.tree.nodes = append(b.tree.nodes, node{Feature: leafNode, Value: b.mean(idx)})

	if depth >= b.p.maxDepth || len(idx) < b.p.minSamplesSplit || len(idx) < 2*b.p.minSamplesLeaf {
		return pos
	}

	feature, threshold, ok := b.bestSplit(idx)
	if !ok {
		return pos
	}

	var left, right []int
	for _, i := range idx {
		if b.X[i][feature] <= threshold {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}

	l := b.grow(left, depth+1)
	r := b.grow(right, depth+1)
	b.tree.nodes[pos] = node{Feature: feature, Threshold: threshold, Left: l, Right: r}
	return pos
}

func (b *treeBuilder) mean(idx []int) float64 {
	var sum float64
	for _, i := range idx {
		sum += b.y[i]
	}
	return sum / float64(len(idx))
}

// bestSplit scans candidate features for the threshold with the largest reduction in squared error.
func (b *treeBuilder) bestSplit(idx []int) (int, float64, bool) {
	numFeatures := len(b.X[idx[0]])
	features := b.candidateFeatures(numFeatures)

	var total, totalSq float64
	for _, i := range idx {
		total += b.y[i]
		totalSq += b.y[i] * b.y[i]
	}
	n := float64(len(idx))
	parentSSE := totalSq - total*total/n

	bestFeature, bestThreshold := -1, 0.0
	bestSSE := parentSSE - 1e-12
	order := make([]int, len(idx))

	for _, f := range features {
		copy(order, idx)
		sort.SliceStable(order, func(a, c int) bool { return b.X[order[a]][f] < b.X[order[c]][f] })

		var leftSum, leftSq float64
		for k := 0; k < len(order)-1; k++ {
			v := b.y[order[k]]
			leftSum += v
			leftSq += v * v

			nl := k + 1
			nr := len(order) - nl
			if nl < b.p.minSamplesLeaf || nr < b.p.minSamplesLeaf {
				continue
			}
			cur, next := b.X[order[k]][f], b.X[order[k+1]][f]
			if cur == next {
				continue
			}

			rightSum := total - leftSum
			rightSq := totalSq - leftSq
			sse := (leftSq - leftSum*leftSum/float64(nl)) + (rightSq - rightSum*rightSum/float64(nr))
			if sse < bestSSE {
				bestSSE = sse
				bestFeature = f
				bestThreshold = (cur + next) / 2
			}
		}
	}

	return bestFeature, bestThreshold, bestFeature >= 0
}

func (b *treeBuilder) candidateFeatures(n int) []int {
	all := make([]int, n)
	for i := range all {
		all[i] = i
	}
	if b.p.maxFeatures <= 0 || b.p.maxFeatures >= n {
		return all
	}
	b.rng.Shuffle(n, func(i, j int) { all[i], all[j] = all[j], all[i] })
	return all[:b.p.maxFeatures]
}
