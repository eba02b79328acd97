package model

import "errors"

// GBRTConfig controls the gradient-boosted regression tree ensemble. The
// defaults mirror the production demand model: many shallow-ish trees with a
// slow learning rate.
type GBRTConfig struct {
	Estimators     int
	LearningRate   float64
	MaxDepth       int
	MinSamplesLeaf int
}

// DefaultGBRTConfig returns the production hyperparameters.
func DefaultGBRTConfig() GBRTConfig {
	return GBRTConfig{
		Estimators:     500,
		LearningRate:   0.03,
		MaxDepth:       6,
		MinSamplesLeaf: 3,
	}
}

// GBRTModel is a gradient-boosted ensemble of regression trees fit on
// squared-error residuals. Fitting is fully deterministic: no row or feature
// subsampling, so identically seeded runs reproduce byte-identical models.
type GBRTModel struct {
	base  float64
	trees []*treeNode
	lr    float64
}

// FitGBRT boosts regression trees against the residuals of the running
// prediction, starting from the target mean.
func FitGBRT(x [][]float64, y []float64, cfg GBRTConfig) (*GBRTModel, error) {
	n := len(x)
	if n == 0 || len(y) != n {
		return nil, errors.New("gbrt fit: empty or mismatched training data")
	}
	if cfg.Estimators <= 0 {
		cfg = DefaultGBRTConfig()
	}
	if cfg.LearningRate <= 0 {
		cfg.LearningRate = 0.03
	}
	if cfg.MaxDepth <= 0 {
		cfg.MaxDepth = 6
	}
	if cfg.MinSamplesLeaf <= 0 {
		cfg.MinSamplesLeaf = 1
	}

	base := 0.0
	for _, v := range y {
		base += v
	}
	base /= float64(n)

	m := &GBRTModel{
		base:  base,
		trees: make([]*treeNode, 0, cfg.Estimators),
		lr:    cfg.LearningRate,
	}

	idx := make([]int, n)
	current := make([]float64, n)
	residual := make([]float64, n)
	for i := range idx {
		idx[i] = i
		current[i] = base
	}

	params := treeParams{maxDepth: cfg.MaxDepth, minSamplesLeaf: cfg.MinSamplesLeaf}

	for iter := 0; iter < cfg.Estimators; iter++ {
		allZero := true
		for i := range y {
			residual[i] = y[i] - current[i]
			if residual[i] != 0 {
				allZero = false
			}
		}
		if allZero {
			break
		}

		tree := fitTree(x, residual, idx, 0, params)
		if tree.leaf && tree.value == 0 {
			break
		}
		m.trees = append(m.trees, tree)

		for i := range current {
			current[i] += m.lr * tree.predict(x[i])
		}
	}

	return m, nil
}

func (m *GBRTModel) Predict(features []float64) float64 {
	out := m.base
	for _, tree := range m.trees {
		out += m.lr * tree.predict(features)
	}
	return out
}

func (m *GBRTModel) Name() string { return "gradient_boosting" }
