package animator

import (
	"github.com/Carmen-Shannon/freefall-go/common"
)

// BlendTreeLayer is one child of a blend tree: a state pinned to a point in
// the tree's 2D parameter space.
type BlendTreeLayer struct {
	// State is the child state blended at this sample point.
	State *State

	// Point is the child's position in parameter space, typically
	// (speed, direction) or similar gameplay axes.
	Point [2]float32
}

// BlendTree blends any number of child states positioned in a 2D parameter
// space using gradient band interpolation. Each frame the tree reads its two
// parameters from the owning animator, computes per-child weights from the
// sample point's position relative to every child pair, and advances only the
// dominant child's clock, hard-syncing the rest to its phase so walk and run
// cycles never drift apart.
type BlendTree struct {
	// ParamX and ParamY name the animator parameters forming the blend space.
	ParamX string
	ParamY string

	// Layers are the tree's children. Order is significant: ties for the
	// driving child resolve to the earliest authored layer.
	Layers []*BlendTreeLayer

	// weights holds the most recent normalized per-child weights, parallel
	// to Layers. Scratch space reused across frames.
	weights []float32

	// driving indexes the child whose clock advances this frame, -1 before
	// the first update.
	driving int
}

// NewBlendTree creates a blend tree over the named parameter pair.
//
// Parameters:
//   - paramX: the animator parameter for the horizontal axis
//   - paramY: the animator parameter for the vertical axis
//   - layers: the tree's children
//
// Returns:
//   - *BlendTree: the newly created tree
func NewBlendTree(paramX, paramY string, layers ...*BlendTreeLayer) *BlendTree {
	return &BlendTree{
		ParamX:  paramX,
		ParamY:  paramY,
		Layers:  layers,
		weights: make([]float32, len(layers)),
		driving: -1,
	}
}

// Weights returns the per-child weights computed by the most recent update,
// parallel to Layers. The returned slice is owned by the tree.
//
// Returns:
//   - []float32: the normalized child weights
func (t *BlendTree) Weights() []float32 {
	return t.weights
}

// drivingState returns the child whose clock currently advances, or the
// first child before any update has run.
func (t *BlendTree) drivingState() *State {
	if len(t.Layers) == 0 {
		return nil
	}
	if t.driving < 0 {
		return t.Layers[0].State
	}
	return t.Layers[t.driving].State
}

// computeWeights evaluates gradient band interpolation at the sample point p.
// Each child's raw weight is the minimum over all other children of the
// clamped complement of the sample's projection onto the segment between the
// two children's points. Raw weights are renormalized to sum to 1, then the
// largest is forced to exactly 1 so the dominant child always plays at full
// strength. The driving index is chosen by strict maximum over the raw
// weights before any rescaling.
func (t *BlendTree) computeWeights(p [2]float32) {
	n := len(t.Layers)
	if len(t.weights) != n {
		t.weights = make([]float32, n)
	}

	var sum float32
	for i := 0; i < n; i++ {
		pi := t.Layers[i].Point
		w := float32(1)
		for j := 0; j < n; j++ {
			if j == i {
				continue
			}
			pj := t.Layers[j].Point
			dx := pj[0] - pi[0]
			dy := pj[1] - pi[1]
			lenSq := dx*dx + dy*dy
			if lenSq <= 0 {
				// Coincident sample points contribute full weight rather
				// than dividing by zero.
				continue
			}
			proj := ((p[0]-pi[0])*dx + (p[1]-pi[1])*dy) / lenSq
			c := common.Clamp01(1 - proj)
			if c < w {
				w = c
			}
		}
		t.weights[i] = w
		sum += w
	}

	best := -1
	var bestW float32
	for i := 0; i < n; i++ {
		if t.weights[i] > bestW {
			bestW = t.weights[i]
			best = i
		}
	}
	t.driving = best

	if sum > 0 {
		inv := 1 / sum
		for i := 0; i < n; i++ {
			t.weights[i] *= inv
		}
	}
	if best >= 0 {
		t.weights[best] = 1
	}
}

// update recomputes child weights from the animator's current parameter
// values, folds the owning state's weight into each child, advances the
// driving child, and phase-locks every other active child to the driving
// child's normalized time. When no child carries any weight there is no
// driving child and no clock advances.
func (t *BlendTree) update(dt float32, a *animator, owner *State, fireEvents bool) {
	if len(t.Layers) == 0 {
		return
	}

	p := [2]float32{a.Param(t.ParamX), a.Param(t.ParamY)}
	t.computeWeights(p)

	for i, l := range t.Layers {
		l.State.setWeight(t.weights[i] * owner.weight)
	}

	if t.driving < 0 {
		return
	}

	drv := t.Layers[t.driving].State
	drv.update(dt, a, fireEvents)
	norm := drv.NormalizedTime()

	for _, l := range t.Layers {
		if l.State == drv || l.State.weight <= 0 {
			continue
		}
		l.State.setNormalizedTime(norm)
	}
}
