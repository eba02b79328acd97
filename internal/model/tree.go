package model

import "sort"

// treeNode is one node of a regression tree. Leaves carry the mean target of
// their training subset; internal nodes split on feature <= threshold.
type treeNode struct {
	leaf      bool
	value     float64
	feature   int
	threshold float64
	left      *treeNode
	right     *treeNode
}

type treeParams struct {
	maxDepth       int
	minSamplesLeaf int
}

// fitTree grows a regression tree greedily by variance reduction over the
// rows referenced by idx.
func fitTree(x [][]float64, y []float64, idx []int, depth int, p treeParams) *treeNode {
	node := &treeNode{leaf: true, value: meanAt(y, idx)}
	if depth >= p.maxDepth || len(idx) < 2*p.minSamplesLeaf {
		return node
	}

	feature, threshold, ok := bestSplit(x, y, idx, p.minSamplesLeaf)
	if !ok {
		return node
	}

	var left, right []int
	for _, i := range idx {
		if x[i][feature] <= threshold {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}
	if len(left) < p.minSamplesLeaf || len(right) < p.minSamplesLeaf {
		return node
	}

	node.leaf = false
	node.feature = feature
	node.threshold = threshold
	node.left = fitTree(x, y, left, depth+1, p)
	node.right = fitTree(x, y, right, depth+1, p)
	return node
}

// bestSplit scans every feature for the threshold with the lowest weighted
// sum of squared errors, using prefix sums over the rows sorted by that
// feature. Returns ok=false when no split improves on the parent.
func bestSplit(x [][]float64, y []float64, idx []int, minLeaf int) (feature int, threshold float64, ok bool) {
	n := len(idx)
	if n < 2*minLeaf {
		return 0, 0, false
	}

	var totalSum, totalSq float64
	for _, i := range idx {
		totalSum += y[i]
		totalSq += y[i] * y[i]
	}
	parentSSE := totalSq - totalSum*totalSum/float64(n)
	bestSSE := parentSSE

	order := make([]int, n)
	nFeatures := len(x[idx[0]])

	for f := 0; f < nFeatures; f++ {
		copy(order, idx)
		sort.Slice(order, func(a, b int) bool { return x[order[a]][f] < x[order[b]][f] })

		var leftSum, leftSq float64
		for pos := 0; pos < n-1; pos++ {
			i := order[pos]
			leftSum += y[i]
			leftSq += y[i] * y[i]

			// cannot split between equal feature values
			if x[order[pos]][f] == x[order[pos+1]][f] {
				continue
			}
			nl := pos + 1
			nr := n - nl
			if nl < minLeaf || nr < minLeaf {
				continue
			}

			rightSum := totalSum - leftSum
			rightSq := totalSq - leftSq
			sse := (leftSq - leftSum*leftSum/float64(nl)) +
				(rightSq - rightSum*rightSum/float64(nr))
			if sse < bestSSE {
				bestSSE = sse
				feature = f
				threshold = (x[order[pos]][f] + x[order[pos+1]][f]) / 2
				ok = true
			}
		}
	}

	return feature, threshold, ok
}

func (t *treeNode) predict(features []float64) float64 {
	node := t
	for !node.leaf {
		if features[node.feature] <= node.threshold {
			node = node.left
		} else {
			node = node.right
		}
	}
	return node.value
}

func meanAt(y []float64, idx []int) float64 {
	if len(idx) == 0 {
		return 0
	}
	sum := 0.0
	for _, i := range idx {
		sum += y[i]
	}
	return sum / float64(len(idx))
}
