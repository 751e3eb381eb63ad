package animator

import (
	"github.com/Carmen-Shannon/freefall-go/common"
	"github.com/Carmen-Shannon/freefall-go/engine/model"
)

// EventHandler receives the name of an animation event in the frame its
// trigger time is crossed.
type EventHandler func(name string)

// animator is the implementation of the Animator interface.
type animator struct {
	name     string
	skeleton *model.Skeleton
	params   map[string]float32
	layers   []*Layer
	handler  EventHandler

	// pose holds the composed local transform per bone, seeded from the
	// bind pose at the start of every update.
	pose []model.Transform

	// pendingEvents collects event names fired during the current update,
	// dispatched to the handler at the end of it.
	pendingEvents []string

	// world, worldDone, and palette are per-frame scratch for matrix
	// composition, sized 16 floats per bone.
	world     []float32
	worldDone []bool
	palette   []float32
}

// Animator evaluates a layered animation graph against one skeleton instance.
// It owns the graph's runtime: parameter values, per-layer state machines,
// playback clocks, event arming, and the composed pose buffer. An Animator is
// driven by exactly one goroutine per frame and must not be shared; its
// methods perform no internal locking. Many Animator instances may share one
// read-only Model.
type Animator interface {
	// Name retrieves the animator identifier.
	//
	// Returns:
	//   - string: the animator name
	Name() string

	// Update advances every layer by the elapsed frame time, recomposes the
	// pose buffer from the bind pose, and dispatches fired events to the
	// registered handler.
	//
	// Parameters:
	//   - delta: the elapsed frame time in seconds
	Update(delta float32)

	// SetParam writes a parameter value. Writes to undeclared parameters
	// are dropped: the parameter set is fixed at construction so gameplay
	// code cannot grow the map from the frame path.
	//
	// Parameters:
	//   - name: the parameter name
	//   - value: the value to store
	SetParam(name string, value float32)

	// Param reads a parameter value; undeclared parameters read as 0.
	//
	// Parameters:
	//   - name: the parameter name
	//
	// Returns:
	//   - float32: the stored value, or 0
	Param(name string) float32

	// Params returns a snapshot copy of the parameter map.
	//
	// Returns:
	//   - map[string]float32: the parameter names and current values
	Params() map[string]float32

	// Layers returns the animator's layers in blend order.
	//
	// Returns:
	//   - []*Layer: the layers
	Layers() []*Layer

	// Layer returns the layer with the given name, or nil.
	//
	// Parameters:
	//   - name: the layer name to search for
	//
	// Returns:
	//   - *Layer: the layer or nil
	Layer(name string) *Layer

	// Skeleton retrieves the skeleton this animator poses. May be nil for a
	// parameter-only graph.
	//
	// Returns:
	//   - *model.Skeleton: the skeleton or nil
	Skeleton() *model.Skeleton

	// Pose returns the composed per-bone local transforms from the most
	// recent Update. The returned slice is owned by the animator.
	//
	// Returns:
	//   - []model.Transform: the local pose, indexed by bone
	Pose() []model.Transform

	// PoseMatrices composes the current pose into model-space matrices, one
	// column-major 4x4 block of 16 floats per bone. The returned slice is
	// scratch owned by the animator and is overwritten by the next call.
	//
	// Returns:
	//   - []float32: the model-space matrices, 16 floats per bone
	PoseMatrices() []float32

	// SkinningPalette composes the current pose into skinning matrices
	// (model-space matrix times inverse bind, with any per-bone correction
	// applied between them). Layout matches PoseMatrices.
	//
	// Returns:
	//   - []float32: the skinning matrices, 16 floats per bone
	SkinningPalette() []float32

	// PackedPalette returns the skinning palette reinterpreted as raw bytes
	// for direct buffer upload.
	//
	// Returns:
	//   - []byte: the palette bytes
	//   - error: an error if the palette could not be packed
	PackedPalette() ([]byte, error)

	// PackedBoneTransform returns one bone's composed local transform from
	// the most recent Update reinterpreted as raw bytes, for consumers that
	// follow a single bone (weapon sockets, prop anchors) without pulling
	// the whole pose.
	//
	// Parameters:
	//   - boneIndex: the bone whose transform to pack
	//
	// Returns:
	//   - []byte: the transform bytes
	//   - error: an error if there is no skeleton or the index is out of range
	PackedBoneTransform(boneIndex int32) ([]byte, error)

	// SetEventHandler registers the callback invoked for fired animation
	// events. Pass nil to drop events silently.
	//
	// Parameters:
	//   - h: the handler or nil
	SetEventHandler(h EventHandler)
}

var _ Animator = &animator{}

// NewAnimator creates a new Animator with the given name and options applied.
// Parameters and layers are fixed after construction.
//
// Parameters:
//   - name: the animator identifier
//   - options: variadic list of AnimatorBuilderOption functions to configure the animator
//
// Returns:
//   - Animator: the newly created animator
func NewAnimator(name string, options ...AnimatorBuilderOption) Animator {
	a := &animator{
		name:   name,
		params: make(map[string]float32),
	}
	for _, opt := range options {
		opt(a)
	}
	if a.skeleton != nil {
		n := len(a.skeleton.Bones)
		a.pose = a.skeleton.BindPose()
		a.world = make([]float32, n*16)
		a.worldDone = make([]bool, n)
		a.palette = make([]float32, n*16)
	}
	return a
}

func (a *animator) Name() string {
	return a.name
}

func (a *animator) Update(delta float32) {
	for _, l := range a.layers {
		l.update(delta, a)
	}

	if a.skeleton != nil {
		bones := a.skeleton.Bones
		for i := range bones {
			a.pose[i] = bones[i].BindTransform
			for _, l := range a.layers {
				l.blendBone(&bones[i], &a.pose[i])
			}
		}
	}

	if len(a.pendingEvents) > 0 {
		if a.handler != nil {
			for _, name := range a.pendingEvents {
				a.handler(name)
			}
		}
		a.pendingEvents = a.pendingEvents[:0]
	}
}

func (a *animator) SetParam(name string, value float32) {
	a.setParam(name, value)
}

// setParam is the shared write path for gameplay code and output curves.
// Unknown names are dropped.
func (a *animator) setParam(name string, value float32) {
	if _, ok := a.params[name]; !ok {
		common.Logger().Debug("dropped write to undeclared parameter",
			"animator", a.name,
			"param", name,
		)
		return
	}
	a.params[name] = value
}

func (a *animator) Param(name string) float32 {
	return a.params[name]
}

func (a *animator) Params() map[string]float32 {
	out := make(map[string]float32, len(a.params))
	for k, v := range a.params {
		out[k] = v
	}
	return out
}

func (a *animator) Layers() []*Layer {
	return a.layers
}

func (a *animator) Layer(name string) *Layer {
	for _, l := range a.layers {
		if l.Name == name {
			return l
		}
	}
	return nil
}

func (a *animator) Skeleton() *model.Skeleton {
	return a.skeleton
}

func (a *animator) Pose() []model.Transform {
	return a.pose
}

func (a *animator) SetEventHandler(h EventHandler) {
	a.handler = h
}
