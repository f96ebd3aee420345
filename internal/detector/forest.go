package detector

import (
	"math"
	"math/rand"
)

// eulerGamma is the Euler-Mascheroni constant.
const eulerGamma = 0.5772156649

// avgPathLength is c(n), the average path length of an unsuccessful
// binary search tree lookup among n points. It normalizes isolation
// depths and fills in the remaining depth at truncated leaves.
func avgPathLength(n int) float64 {
	if n <= 1 {
		return 0
	}
	f := float64(n)
	return 2*(math.Log(f-1)+eulerGamma) - 2*(f-1)/f
}

// treeNode is one node of an isolation tree. Leaves have feature -1 and
// record how many training points they hold.
type treeNode struct {
	feature int
	split   float64
	size    int
	left    *treeNode
	right   *treeNode
}

// buildTree grows an isolation tree over the rows of data selected by
// idx. Recursion stops at maxDepth, at a single point, or when every
// remaining feature is constant across the node.
func buildTree(data [][]float64, idx []int, depth, maxDepth int, rng *rand.Rand) *treeNode {
	if len(idx) <= 1 || depth >= maxDepth {
		return &treeNode{feature: -1, size: len(idx)}
	}

	cols := len(data[idx[0]])
	mins := make([]float64, cols)
	maxs := make([]float64, cols)
	for j := 0; j < cols; j++ {
		mins[j] = math.Inf(1)
		maxs[j] = math.Inf(-1)
	}
	for _, i := range idx {
		for j, v := range data[i] {
			if v < mins[j] {
				mins[j] = v
			}
			if v > maxs[j] {
				maxs[j] = v
			}
		}
	}

	candidates := make([]int, 0, cols)
	for j := 0; j < cols; j++ {
		if maxs[j] > mins[j] {
			candidates = append(candidates, j)
		}
	}
	if len(candidates) == 0 {
		return &treeNode{feature: -1, size: len(idx)}
	}

	feature := candidates[rng.Intn(len(candidates))]
	split := mins[feature] + rng.Float64()*(maxs[feature]-mins[feature])

	var left, right []int
	for _, i := range idx {
		if data[i][feature] < split {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}
	if len(left) == 0 {
		// split landed exactly on the minimum and isolated nothing
		return &treeNode{feature: -1, size: len(idx)}
	}

	return &treeNode{
		feature: feature,
		split:   split,
		left:    buildTree(data, left, depth+1, maxDepth, rng),
		right:   buildTree(data, right, depth+1, maxDepth, rng),
	}
}

// pathLength walks x to a leaf, counting edges and adding the expected
// remaining depth for the leaf's population.
func pathLength(root *treeNode, x []float64) float64 {
	node := root
	depth := 0.0
	for node.feature >= 0 {
		if x[node.feature] < node.split {
			node = node.left
		} else {
			node = node.right
		}
		depth++
	}
	return depth + avgPathLength(node.size)
}
