package model

import (
	"fmt"

	"github.com/Carmen-Shannon/freefall-go/common"
)

// --- Transform & Skeleton Types ---

// Transform represents a decomposed transform for animation interpolation.
type Transform struct {
	// Translation is the position offset.
	Translation [3]float32

	// Rotation is the orientation as a quaternion (x, y, z, w).
	Rotation [4]float32

	// Scale is the scale factor along each axis.
	Scale [3]float32
}

// IdentityTransform returns the identity transform (zero translation,
// identity rotation, unit scale).
//
// Returns:
//   - Transform: the identity transform
func IdentityTransform() Transform {
	return Transform{
		Rotation: [4]float32{0, 0, 0, 1},
		Scale:    [3]float32{1, 1, 1},
	}
}

// Bone represents a single bone in a skeleton hierarchy.
// Bones are immutable once their Skeleton has been constructed; every other
// structure refers to a bone by its index in the Skeleton's bone slice.
type Bone struct {
	// Name is the bone's identifier (for debugging and animation targeting).
	Name string

	// NameHash is the stable FNV-1a hash of Name, used to match animation
	// channels without string compares. Filled in by NewSkeleton when zero.
	NameHash uint32

	// ParentIndex is the index of the parent bone (-1 for root bones).
	// Parents may appear after their children in the bone slice.
	ParentIndex int32

	// BindTransform is the bone's local transform at bind pose, relative to
	// its parent. Pose buffers are seeded from this each frame.
	BindTransform Transform

	// BindMatrix transforms from bone space to model space at bind pose.
	// Computed by NewSkeleton.
	BindMatrix [16]float32

	// InverseBindMatrix transforms from model space to bone space at bind
	// pose. Taken from the asset when supplied, otherwise computed by
	// NewSkeleton as the inverse of BindMatrix.
	InverseBindMatrix [16]float32

	// Correction is an optional retargeting correction transform applied when
	// building skinning matrices. Its computation is external; nil means no
	// correction.
	Correction *Transform

	// CorrectionScale is the uniform retargeting scale factor paired with
	// Correction. Zero is treated as 1.
	CorrectionScale float32
}

// Skeleton represents a bone hierarchy for skeletal animation.
// A Skeleton is immutable after construction and may be shared read-only by
// any number of Animator instances.
type Skeleton struct {
	// Bones is the array of all bones in the skeleton. The slice index is the
	// canonical bone ID used by channels, pose buffers, and weight buffers.
	Bones []Bone

	// RootBoneIndices are indices of bones with no parent.
	RootBoneIndices []int32

	// BoneNameToIndex maps bone names to their indices for quick lookup.
	BoneNameToIndex map[string]int32
}

// NewSkeleton builds a Skeleton from the given bones. It validates that every
// parent index references a valid bone or -1 and that the parent graph is
// acyclic, fills in missing name hashes, and computes bind and inverse-bind
// matrices (asset-supplied inverse-bind matrices are preserved).
//
// Parameters:
//   - bones: the bones in canonical index order
//
// Returns:
//   - *Skeleton: the constructed skeleton
//   - error: error if a parent index is out of range or the graph has a cycle
func NewSkeleton(bones []Bone) (*Skeleton, error) {
	s := &Skeleton{
		Bones:           bones,
		BoneNameToIndex: make(map[string]int32, len(bones)),
	}

	for i := range s.Bones {
		b := &s.Bones[i]
		if p := b.ParentIndex; p != -1 && (p < 0 || int(p) >= len(s.Bones)) {
			return nil, fmt.Errorf("model: bone %q parent index %d out of range", b.Name, p)
		}
		if b.NameHash == 0 {
			b.NameHash = common.HashName(b.Name)
		}
		s.BoneNameToIndex[b.Name] = int32(i)
		if b.ParentIndex == -1 {
			s.RootBoneIndices = append(s.RootBoneIndices, int32(i))
		}
	}

	// Cycle check: walking up from any bone must reach a root within
	// len(Bones) hops.
	for i := range s.Bones {
		hops := 0
		for p := s.Bones[i].ParentIndex; p != -1; p = s.Bones[p].ParentIndex {
			hops++
			if hops > len(s.Bones) {
				return nil, fmt.Errorf("model: bone %q is part of a parent cycle", s.Bones[i].Name)
			}
		}
	}

	s.computeBindMatrices()
	return s, nil
}

// computeBindMatrices fills each bone's BindMatrix (parent bind * local bind)
// and, when the asset did not supply one, its InverseBindMatrix. Bones may
// appear in any order, so parents are resolved recursively with memoization.
func (s *Skeleton) computeBindMatrices() {
	done := make([]bool, len(s.Bones))

	var resolve func(i int32)
	resolve = func(i int32) {
		if done[i] {
			return
		}
		done[i] = true

		b := &s.Bones[i]
		var local [16]float32
		common.ComposeTRS(local[:], b.BindTransform.Translation, b.BindTransform.Rotation, b.BindTransform.Scale)

		if b.ParentIndex == -1 {
			b.BindMatrix = local
		} else {
			resolve(b.ParentIndex)
			common.Mul4(b.BindMatrix[:], s.Bones[b.ParentIndex].BindMatrix[:], local[:])
		}

		if b.InverseBindMatrix == ([16]float32{}) {
			if !common.Invert4(b.InverseBindMatrix[:], b.BindMatrix[:]) {
				common.Identity(b.InverseBindMatrix[:])
			}
		}
	}

	for i := range s.Bones {
		resolve(int32(i))
	}
}

// BindPose returns a fresh pose buffer seeded with every bone's bind-pose
// local transform, one entry per bone index.
//
// Returns:
//   - []Transform: the bind-pose local transforms
func (s *Skeleton) BindPose() []Transform {
	pose := make([]Transform, len(s.Bones))
	for i := range s.Bones {
		pose[i] = s.Bones[i].BindTransform
	}
	return pose
}

// --- Keyframe Curves ---

// VectorKeyframe stores a 3D vector value at a specific time.
type VectorKeyframe struct {
	// Time is the keyframe timestamp in ticks.
	Time float32

	// Value is the 3D vector value at this keyframe.
	Value [3]float32
}

// QuaternionKeyframe stores a quaternion rotation at a specific time.
type QuaternionKeyframe struct {
	// Time is the keyframe timestamp in ticks.
	Time float32

	// Value is the quaternion value at this keyframe (x, y, z, w).
	Value [4]float32
}

// FloatKeyframe stores a scalar value at a specific time. Float curves drive
// animator parameters rather than bone poses.
type FloatKeyframe struct {
	// Time is the keyframe timestamp, normalized to [0, 1] over the owning
	// state's duration.
	Time float32

	// Value is the scalar value at this keyframe.
	Value float32
}

// locateKeyframes finds the bracketing sample pair for time t over n samples
// ordered (conceptually) by ascending time. The scan advances while the
// sample time is below t; an exact hit selects that sample alone; exhausting
// the scan wraps the upper bracket to index 0 to support cyclic curves.
// cur == next signals the caller to return sample cur unmodified — this
// covers exact hits, times at or before the first key, and wrapped or
// non-monotonic spans, which all degrade to the nearest edge rather than
// extrapolating.
//
// Parameters:
//   - n: the sample count (must be >= 2)
//   - timeAt: accessor returning the time of sample i
//   - t: the lookup time
//
// Returns:
//   - cur: the lower bracket index
//   - next: the upper bracket index (== cur when no interpolation applies)
//   - f: the interpolation factor in [0, 1]
func locateKeyframes(n int, timeAt func(int) float32, t float32) (cur, next int, f float32) {
	idx := 0
	for idx < n && timeAt(idx) < t {
		idx++
	}
	if idx < n && timeAt(idx) == t {
		return idx, idx, 0
	}

	next = idx
	if next >= n {
		next = 0 // cyclic wrap
	}
	cur = idx - 1
	if cur < 0 {
		cur = 0
	}
	if next == cur {
		return cur, cur, 0
	}

	span := timeAt(next) - timeAt(cur)
	if span <= 0 {
		return cur, cur, 0
	}
	return cur, next, common.Clamp01((t - timeAt(cur)) / span)
}

// VectorCurve is an ordered-by-time sequence of 3D vector samples.
// Immutable once loaded.
type VectorCurve struct {
	// Keys are the curve samples.
	Keys []VectorKeyframe
}

// Evaluate samples the curve at time t using linear interpolation. Zero keys
// return the zero vector; a single key is returned unconditionally.
//
// Parameters:
//   - t: the lookup time in ticks
//
// Returns:
//   - [3]float32: the interpolated value
func (c VectorCurve) Evaluate(t float32) [3]float32 {
	switch len(c.Keys) {
	case 0:
		return [3]float32{}
	case 1:
		return c.Keys[0].Value
	}
	cur, next, f := locateKeyframes(len(c.Keys), func(i int) float32 { return c.Keys[i].Time }, t)
	if cur == next {
		return c.Keys[cur].Value
	}
	return common.Lerp3(c.Keys[cur].Value, c.Keys[next].Value, f)
}

// QuaternionCurve is an ordered-by-time sequence of unit quaternion samples.
// Immutable once loaded.
type QuaternionCurve struct {
	// Keys are the curve samples.
	Keys []QuaternionKeyframe
}

// Evaluate samples the curve at time t using shortest-arc spherical linear
// interpolation. Zero keys return the identity rotation; a single key is
// returned unconditionally.
//
// Parameters:
//   - t: the lookup time in ticks
//
// Returns:
//   - [4]float32: the interpolated unit quaternion
func (c QuaternionCurve) Evaluate(t float32) [4]float32 {
	switch len(c.Keys) {
	case 0:
		return [4]float32{0, 0, 0, 1}
	case 1:
		return c.Keys[0].Value
	}
	cur, next, f := locateKeyframes(len(c.Keys), func(i int) float32 { return c.Keys[i].Time }, t)
	if cur == next {
		return c.Keys[cur].Value
	}
	return common.Slerp(c.Keys[cur].Value, c.Keys[next].Value, f)
}

// FloatCurve is an ordered-by-time sequence of scalar samples.
// Immutable once loaded.
type FloatCurve struct {
	// Keys are the curve samples.
	Keys []FloatKeyframe
}

// Evaluate samples the curve at time t using linear interpolation. Zero keys
// return 0; a single key is returned unconditionally.
//
// Parameters:
//   - t: the lookup time
//
// Returns:
//   - float32: the interpolated value
func (c FloatCurve) Evaluate(t float32) float32 {
	switch len(c.Keys) {
	case 0:
		return 0
	case 1:
		return c.Keys[0].Value
	}
	cur, next, f := locateKeyframes(len(c.Keys), func(i int) float32 { return c.Keys[i].Time }, t)
	if cur == next {
		return c.Keys[cur].Value
	}
	a, b := c.Keys[cur].Value, c.Keys[next].Value
	return a + (b-a)*f
}

// --- Animation Types ---

// AnimationChannel contains keyframe data for a single bone within a clip.
// Any of the three curves may be empty, in which case that pose component
// falls back to whatever the caller seeded (the bind pose).
type AnimationChannel struct {
	// BoneName is the targeted bone's name, kept for diagnostics.
	BoneName string

	// BoneNameHash is the FNV-1a hash of BoneName used for matching.
	BoneNameHash uint32

	// PositionKeys are keyframes for translation.
	PositionKeys VectorCurve

	// RotationKeys are keyframes for rotation (quaternion).
	RotationKeys QuaternionCurve

	// ScaleKeys are keyframes for scale.
	ScaleKeys VectorCurve
}

// AnimationEvent is a discrete time-stamped trigger within a clip (footstep,
// weapon swing, etc.). Events are immutable: the fired/armed flag for a
// playback lives on the playing state, never on the shared clip, so one clip
// can be played by any number of animators concurrently.
type AnimationEvent struct {
	// Name is the event identifier dispatched to the host callback.
	Name string

	// Time is the normalized trigger time in [0, 1].
	Time float32
}

// AnimationClip represents a single animation (walk, run, attack, etc.).
// Clips are shared read-only across every animator playing them.
type AnimationClip struct {
	// Name is the animation identifier.
	Name string

	// Duration is the total length of the animation in ticks.
	Duration float32

	// TicksPerSecond is the sample rate of the animation.
	TicksPerSecond float32

	// Channels contains animation data for each animated bone.
	Channels []AnimationChannel

	// Events are the clip's discrete triggers, ordered by trigger time.
	Events []AnimationEvent
}

// DurationSeconds returns the clip length in seconds, or 0 when the clip has
// no valid tick rate.
//
// Returns:
//   - float32: the clip duration in seconds
func (c *AnimationClip) DurationSeconds() float32 {
	if c.TicksPerSecond <= 0 {
		return 0
	}
	return c.Duration / c.TicksPerSecond
}

// channelFor returns the channel matching the given bone name hash, or nil.
// Linear scan: bone counts are small and this is not the hot inner loop
// relative to blend evaluation.
func (c *AnimationClip) channelFor(nameHash uint32) *AnimationChannel {
	for i := range c.Channels {
		if c.Channels[i].BoneNameHash == nameHash {
			return &c.Channels[i]
		}
	}
	return nil
}

// BonePose samples the clip at the given absolute time and writes the
// resulting local pose components into pose. Time above the clip's duration
// clamps to the duration; otherwise it is converted to tick space and wrapped
// modulo the tick duration. A bone with no matching channel, or a channel
// with a missing curve, leaves the corresponding caller-seeded components
// untouched (callers seed with the bind pose).
//
// Parameters:
//   - bone: the bone to sample, matched by name hash
//   - seconds: the absolute playback time in seconds
//   - pose: the pose to write into, pre-seeded by the caller
func (c *AnimationClip) BonePose(bone *Bone, seconds float32, pose *Transform) {
	if c.TicksPerSecond <= 0 || c.Duration <= 0 {
		return
	}

	if durSec := c.DurationSeconds(); seconds > durSec {
		seconds = durSec
	}
	ticks := common.Mod(seconds*c.TicksPerSecond, c.Duration)

	ch := c.channelFor(bone.NameHash)
	if ch == nil {
		common.Logger().Debug("clip has no channel for bone", "clip", c.Name, "bone", bone.Name)
		return
	}

	if len(ch.PositionKeys.Keys) > 0 {
		pose.Translation = ch.PositionKeys.Evaluate(ticks)
	}
	if len(ch.RotationKeys.Keys) > 0 {
		pose.Rotation = ch.RotationKeys.Evaluate(ticks)
	}
	if len(ch.ScaleKeys.Keys) > 0 {
		pose.Scale = ch.ScaleKeys.Evaluate(ticks)
	}
}

// EvaluateEvents appends to out the names of events whose normalized trigger
// time has been crossed and whose per-playback fired flag is still clear,
// marking each as fired. The fired slice is owned by the playing state and
// must have one entry per clip event; it is re-armed by the state when its
// playback wraps or clamps.
//
// Parameters:
//   - normalizedTime: the playback position in [0, 1]
//   - fired: the caller-owned fired flags, len(fired) == len(Events)
//   - out: the slice to append fired event names to
//
// Returns:
//   - []string: out with any newly fired event names appended
func (c *AnimationClip) EvaluateEvents(normalizedTime float32, fired []bool, out []string) []string {
	for i := range c.Events {
		if i >= len(fired) || fired[i] {
			continue
		}
		if normalizedTime >= c.Events[i].Time {
			fired[i] = true
			out = append(out, c.Events[i].Name)
		}
	}
	return out
}
