package animator

import (
	"github.com/Carmen-Shannon/freefall-go/common"
	"github.com/Carmen-Shannon/freefall-go/engine/model"
)

// implicitExitFraction is the normalized playback position at which a
// transition with no conditions fires, leaving enough tail for the cross-fade
// to land before the source clip clamps or wraps.
const implicitExitFraction = 0.8

// Comparator selects how a condition compares a parameter against its
// reference value.
type Comparator int

const (
	// CompareEquals passes when the parameter equals the reference value.
	CompareEquals Comparator = iota

	// CompareGreater passes when the parameter exceeds the reference value.
	CompareGreater

	// CompareSmaller passes when the parameter is below the reference value.
	CompareSmaller
)

// Condition gates a transition on an animator parameter. All conditions on a
// transition must pass for it to fire.
type Condition struct {
	// Param names the animator parameter to test.
	Param string

	// Compare selects the comparison operator.
	Compare Comparator

	// Value is the reference value compared against.
	Value float32

	// AutoReturn marks a time-based return condition instead of a parameter
	// test: the transition fires once the current state's clock passes
	// AutoThreshold of its duration, and the transition's target is replaced
	// by the state the layer most recently transitioned away from.
	AutoReturn bool

	// AutoThreshold is the fraction of the current state's duration after
	// which an AutoReturn condition fires.
	AutoThreshold float32
}

// met reports whether a parameter condition passes. AutoReturn conditions are
// evaluated by the layer, not here.
func (c *Condition) met(a *animator) bool {
	v := a.Param(c.Param)
	switch c.Compare {
	case CompareEquals:
		return v == c.Value
	case CompareGreater:
		return v > c.Value
	case CompareSmaller:
		return v < c.Value
	}
	return false
}

// Transition is a directed, cross-fading edge between two states of a layer.
type Transition struct {
	// From is the source state the transition leaves.
	From *State

	// To is the authored target state. An AutoReturn condition overrides it
	// at fire time with the layer's saved return state.
	To *State

	// Duration is the cross-fade length in seconds. Zero commits instantly.
	Duration float32

	// Conditions gate the transition; all must pass. An empty list makes the
	// transition implicit: it fires on playback position alone.
	Conditions []Condition
}

// autoReturnCondition returns the transition's AutoReturn condition, or nil.
func (t *Transition) autoReturnCondition() *Condition {
	for i := range t.Conditions {
		if t.Conditions[i].AutoReturn {
			return &t.Conditions[i]
		}
	}
	return nil
}

// Layer is an independent transition state machine inside an Animator. Each
// layer plays exactly one current state, cross-fades into at most one target
// state at a time, and blends its result over the layers below it by its own
// weight. A bone mask restricts which bones the layer may influence.
type Layer struct {
	// Name identifies the layer within its animator.
	Name string

	// Weight scales the layer's influence over the composed pose.
	Weight float32

	// Mask lists the bone indices this layer drives. Empty means all bones.
	Mask []int32

	// States are the layer's nodes. The first state is the entry state.
	States []*State

	// Transitions are the layer's edges, checked in authored order; the
	// first transition whose conditions pass wins.
	Transitions []*Transition

	// current is the active state, nil until the first update.
	current *State

	// target is the effective cross-fade destination while transitioning.
	// May differ from the transition's authored To when AutoReturn fires.
	target *State

	// active is the in-flight transition, nil when idle.
	active *Transition

	// transitionTime is the elapsed cross-fade time in seconds.
	transitionTime float32

	// returnTo remembers the state the layer last transitioned away from,
	// the destination AutoReturn conditions send it back to.
	returnTo *State
}

// NewLayer creates a layer with full weight over the given states and
// transitions. The first state is the entry state.
//
// Parameters:
//   - name: the layer identifier
//   - states: the layer's states, entry state first
//   - transitions: the layer's transition edges
//
// Returns:
//   - *Layer: the newly created layer
func NewLayer(name string, states []*State, transitions []*Transition) *Layer {
	return &Layer{
		Name:        name,
		Weight:      1,
		States:      states,
		Transitions: transitions,
	}
}

// Current returns the layer's active state, or nil before the first update.
//
// Returns:
//   - *State: the active state
func (l *Layer) Current() *State {
	return l.current
}

// CurrentStateName returns the active state's name, or "" before the first
// update.
//
// Returns:
//   - string: the active state name
func (l *Layer) CurrentStateName() string {
	if l.current == nil {
		return ""
	}
	return l.current.Name
}

// InTransition reports whether a cross-fade is in flight.
//
// Returns:
//   - bool: true while transitioning
func (l *Layer) InTransition() bool {
	return l.active != nil
}

// TransitionTargetName returns the name of the state being faded in, or ""
// when the layer is idle.
//
// Returns:
//   - string: the cross-fade target name
func (l *Layer) TransitionTargetName() string {
	if l.target == nil {
		return ""
	}
	return l.target.Name
}

// State returns the layer's state with the given name, or nil.
//
// Parameters:
//   - name: the state name to search for
//
// Returns:
//   - *State: the state or nil
func (l *Layer) State(name string) *State {
	for _, s := range l.States {
		if s.Name == name {
			return s
		}
	}
	return nil
}

// findTransition scans the layer's transitions from the current state in
// authored order and returns the first that fires, together with its
// effective target.
func (l *Layer) findTransition(a *animator) (*Transition, *State) {
	for _, tr := range l.Transitions {
		if tr.From != l.current {
			continue
		}

		if len(tr.Conditions) == 0 {
			if l.current.NormalizedTime() >= implicitExitFraction {
				return tr, tr.To
			}
			continue
		}

		if auto := tr.autoReturnCondition(); auto != nil {
			if l.returnTo != nil && l.current.TimeElapsed() > l.current.Duration()*auto.AutoThreshold {
				return tr, l.returnTo
			}
			continue
		}

		met := true
		for i := range tr.Conditions {
			if !tr.Conditions[i].met(a) {
				met = false
				break
			}
		}
		if met {
			return tr, tr.To
		}
	}
	return nil, nil
}

// beginTransition arms a cross-fade into target, remembering the state being
// left for later AutoReturn and rewinding the target's playback.
func (l *Layer) beginTransition(tr *Transition, target *State) {
	l.returnTo = l.current
	l.active = tr
	l.target = target
	l.transitionTime = 0
	target.restart()
	common.Logger().Debug("layer transition started",
		"layer", l.Name,
		"from", l.current.Name,
		"to", target.Name,
		"duration", tr.Duration,
	)
}

// update advances the layer's state machine by dt. Idle layers check for a
// firing transition before advancing; when one fires the update recurses so
// the very first frame already reflects the partially blended pair instead of
// lagging a frame behind. During a cross-fade the source keeps full layer
// weight while the target ramps up, and both clocks advance. The fade commits
// on the frame its duration is exceeded, giving the new current state one
// final update with event firing suppressed.
func (l *Layer) update(dt float32, a *animator) {
	if len(l.States) == 0 {
		return
	}
	if l.current == nil {
		l.current = l.States[0]
	}

	if l.active == nil {
		if tr, target := l.findTransition(a); tr != nil {
			l.beginTransition(tr, target)
			l.update(dt, a)
			return
		}
		l.current.setWeight(l.Weight)
		l.current.update(dt, a, true)
		return
	}

	l.transitionTime += dt
	dur := l.active.Duration

	if l.transitionTime >= dur {
		l.current = l.target
		l.target = nil
		l.active = nil
		l.current.setWeight(l.Weight)
		l.current.update(dt, a, false)
		return
	}

	l.current.setWeight(l.Weight)
	l.target.setWeight(common.Clamp01(l.transitionTime/dur) * l.Weight)
	l.current.update(dt, a, true)
	l.target.update(dt, a, true)
}

// DrivesBone reports whether the layer's bone mask admits the given bone
// index. An empty mask admits every bone. The mask is declarative: pose
// composition does not consult it, the scoping decision belongs to whatever
// consumes the composed pose.
//
// Parameters:
//   - boneIndex: the bone index to test
//
// Returns:
//   - bool: true when the mask admits the bone
func (l *Layer) DrivesBone(boneIndex int32) bool {
	if len(l.Mask) == 0 {
		return true
	}
	for _, m := range l.Mask {
		if m == boneIndex {
			return true
		}
	}
	return false
}

// blendBone blends the layer's contribution for one bone into the pose
// accumulator: the current state first, then the cross-fade target on top.
func (l *Layer) blendBone(bone *model.Bone, accum *model.Transform) {
	if l.current == nil {
		return
	}
	l.current.BlendBone(bone, accum)
	if l.target != nil {
		l.target.BlendBone(bone, accum)
	}
}
