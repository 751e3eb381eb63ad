package animator

import (
	"github.com/Carmen-Shannon/freefall-go/common"
	"github.com/Carmen-Shannon/freefall-go/engine/model"
)

// eventWeightThreshold is the minimum blend weight a state must carry for its
// clip events to fire. States that are barely blended in during a cross-fade
// must not produce gameplay-visible events (footsteps, etc.).
const eventWeightThreshold = 0.9

// OutputCurve drives an animator parameter from a state's playback position.
// The curve is sampled at the state's normalized time every update and the
// result is pushed into the owning animator's parameter map, letting
// animation data drive procedural values, not just bone poses.
type OutputCurve struct {
	// Param is the animator parameter the curve writes to. The parameter must
	// be pre-declared on the animator or the write is dropped.
	Param string

	// Curve is the scalar curve, keyed in normalized time.
	Curve model.FloatCurve
}

// State is a playable node in an animation graph: either a single-clip leaf
// or a wrapper around a nested blend tree. States are created at graph
// authoring time and persist for the life of their Animator; elapsed time,
// weight, and event arming mutate every frame.
type State struct {
	// Name identifies the state within its layer.
	Name string

	// Clip is the animation played by a leaf state. A nil Clip on a leaf
	// makes Update a no-op: incompletely authored graphs are common during
	// content iteration and must degrade silently.
	Clip *model.AnimationClip

	// Tree is the nested blend tree for a non-leaf state. Exactly one of
	// Clip and Tree should be set.
	Tree *BlendTree

	// Speed is the playback rate multiplier (1 = authored speed).
	Speed float32

	// Loop selects wrapping playback; non-looping states clamp at the clip
	// duration.
	Loop bool

	// Curves are the state's parameter-driving output curves.
	Curves []OutputCurve

	// timeElapsed is the local playback clock in seconds.
	timeElapsed float32

	// weight is the blend weight in [0, 1], assigned each frame by the
	// owning layer or blend tree.
	weight float32

	// finished marks a non-looping state that has reached its clamp, so the
	// one-time event reset at the clamp transition is not repeated.
	finished bool

	// eventFired is this playback's own arming snapshot, one flag per clip
	// event. It lives here, never on the shared Clip, so one clip can be
	// played by any number of animators concurrently.
	eventFired []bool
}

// NewClipState creates a looping leaf state playing the given clip at normal
// speed. The clip may be nil for a placeholder state.
//
// Parameters:
//   - name: the state identifier
//   - clip: the clip to play, or nil
//
// Returns:
//   - *State: the newly created state
func NewClipState(name string, clip *model.AnimationClip) *State {
	s := &State{
		Name:  name,
		Clip:  clip,
		Speed: 1,
		Loop:  true,
	}
	if clip != nil {
		s.eventFired = make([]bool, len(clip.Events))
	}
	return s
}

// NewTreeState creates a state wrapping a nested blend tree.
//
// Parameters:
//   - name: the state identifier
//   - tree: the blend tree to wrap
//
// Returns:
//   - *State: the newly created state
func NewTreeState(name string, tree *BlendTree) *State {
	return &State{
		Name:  name,
		Tree:  tree,
		Speed: 1,
		Loop:  true,
	}
}

// Weight returns the state's current blend weight.
//
// Returns:
//   - float32: the weight in [0, 1]
func (s *State) Weight() float32 {
	return s.weight
}

func (s *State) setWeight(w float32) {
	s.weight = w
}

// TimeElapsed returns the state's local playback clock in seconds.
//
// Returns:
//   - float32: the elapsed playback time
func (s *State) TimeElapsed() float32 {
	return s.timeElapsed
}

// Duration returns the state's playback length in seconds. Tree states report
// their driving child's duration; a leaf without a clip reports 0.
//
// Returns:
//   - float32: the duration in seconds, or 0 when unknown
func (s *State) Duration() float32 {
	if s.Tree != nil {
		if d := s.Tree.drivingState(); d != nil {
			return d.Duration()
		}
		return 0
	}
	if s.Clip == nil {
		return 0
	}
	return s.Clip.DurationSeconds()
}

// NormalizedTime returns the playback position scaled to [0, 1] over the
// state's duration. Tree states report their driving child's position.
//
// Returns:
//   - float32: the normalized playback position
func (s *State) NormalizedTime() float32 {
	if s.Tree != nil {
		if d := s.Tree.drivingState(); d != nil {
			return d.NormalizedTime()
		}
		return 0
	}
	dur := s.Duration()
	if dur <= 0 {
		return 0
	}
	return s.timeElapsed / dur
}

// setNormalizedTime force-sets the playback clock from a normalized position.
// Used for hard phase synchronization across blend tree children.
func (s *State) setNormalizedTime(f float32) {
	s.timeElapsed = f * s.Duration()
}

// ChildCount returns the number of nested states (blend tree children).
// Leaf states report 0.
//
// Returns:
//   - int: the child count
func (s *State) ChildCount() int {
	if s.Tree == nil {
		return 0
	}
	return len(s.Tree.Layers)
}

// Child returns the nested state at the given index, or nil when out of
// range.
//
// Parameters:
//   - i: the child index
//
// Returns:
//   - *State: the child state or nil
func (s *State) Child(i int) *State {
	if s.Tree == nil || i < 0 || i >= len(s.Tree.Layers) {
		return nil
	}
	return s.Tree.Layers[i].State
}

// restart rewinds the playback clock and re-arms every event, used when a
// layer transition makes this state its target.
func (s *State) restart() {
	s.timeElapsed = 0
	s.finished = false
	s.resetEvents()
}

func (s *State) resetEvents() {
	for i := range s.eventFired {
		s.eventFired[i] = false
	}
}

// update advances the state's playback clock by dt scaled by Speed, handles
// loop wrap or end clamp, pushes output curves into the animator's parameter
// map, and fires clip events when fireEvents is set and the state's weight
// exceeds the event threshold. Tree states delegate to their blend tree.
func (s *State) update(dt float32, a *animator, fireEvents bool) {
	if s.Tree != nil {
		s.Tree.update(dt, a, s, fireEvents)
		return
	}
	if s.Clip == nil {
		return
	}
	dur := s.Clip.DurationSeconds()
	if dur <= 0 {
		return
	}

	s.timeElapsed += dt * s.Speed

	clamped := false
	if s.Loop {
		if s.timeElapsed >= dur {
			s.timeElapsed = common.Mod(s.timeElapsed, dur)
			s.resetEvents()
		}
	} else if s.timeElapsed >= dur {
		s.timeElapsed = dur
		if !s.finished {
			clamped = true
		}
	}

	norm := s.NormalizedTime()

	for i := range s.Curves {
		a.setParam(s.Curves[i].Param, s.Curves[i].Curve.Evaluate(norm))
	}

	// A finished non-looping state keeps its pose but stays silent until a
	// transition rewinds it.
	if fireEvents && !s.finished && s.weight > eventWeightThreshold {
		a.pendingEvents = s.Clip.EvaluateEvents(norm, s.eventFired, a.pendingEvents)
	}

	if clamped {
		// Events re-arm exactly once at the clamp transition, after the final
		// evaluation above has had its chance to fire end-of-clip triggers.
		s.finished = true
		s.resetEvents()
	}
}

// BlendBone blends this state's contribution for one bone into the caller's
// accumulator. Leaf states sample their clip at the local playback time and
// blend by their own weight (linear for translation/scale, spherical for
// rotation); tree states recurse into every active child with the same
// accumulator. Parent weighting is folded into child weights by the owner
// when it assigns them, never re-multiplied here.
//
// Parameters:
//   - bone: the bone to sample
//   - accum: the pose accumulator, pre-seeded by the caller
func (s *State) BlendBone(bone *model.Bone, accum *model.Transform) {
	if s.Tree != nil {
		for _, l := range s.Tree.Layers {
			if l.State.weight > 0 {
				l.State.BlendBone(bone, accum)
			}
		}
		return
	}
	if s.Clip == nil || s.weight <= 0 {
		return
	}

	pose := *accum
	s.Clip.BonePose(bone, s.timeElapsed, &pose)

	accum.Translation = common.Lerp3(accum.Translation, pose.Translation, s.weight)
	accum.Rotation = common.Slerp(accum.Rotation, pose.Rotation, s.weight)
	accum.Scale = common.Lerp3(accum.Scale, pose.Scale, s.weight)
}
