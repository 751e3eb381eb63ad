package model

// model is the implementation of the Model interface.
type model struct {
	name     string
	skeleton *Skeleton
	clips    []*AnimationClip
}

// Model defines the interface for an animatable rig: a shared read-only
// skeleton plus the animation clips authored for it. It is produced by an
// external asset pipeline and treated as immutable by every consumer; any
// number of Animator instances may read one Model concurrently.
type Model interface {
	// Name retrieves the model identifier.
	//
	// Returns:
	//   - string: the model name
	Name() string

	// Skinned reports whether this model carries a skeleton.
	//
	// Returns:
	//   - bool: true if the model has bone data
	Skinned() bool

	// Skeleton retrieves the bone hierarchy for this model.
	// Returns nil for static (non-skinned) models.
	//
	// Returns:
	//   - *Skeleton: the skeleton or nil
	Skeleton() *Skeleton

	// Clips retrieves all animation clips bundled with this model.
	//
	// Returns:
	//   - []*AnimationClip: the animation clips
	Clips() []*AnimationClip

	// ClipCount returns the number of available animation clips.
	//
	// Returns:
	//   - int: the clip count
	ClipCount() int

	// ClipNames returns the names of all animation clips.
	//
	// Returns:
	//   - []string: the animation clip names
	ClipNames() []string

	// Clip returns the animation clip with the given name, or nil if the
	// model has no clip by that name.
	//
	// Parameters:
	//   - name: the clip name to search for
	//
	// Returns:
	//   - *AnimationClip: the clip or nil
	Clip(name string) *AnimationClip

	// ClipIndex returns the index of a clip by name, or -1 if not found.
	//
	// Parameters:
	//   - name: the clip name to search for
	//
	// Returns:
	//   - int: the clip index, or -1 if not found
	ClipIndex(name string) int
}

var _ Model = &model{}

// NewModel creates a new Model with the given name and options applied.
//
// Parameters:
//   - name: the model identifier
//   - options: variadic list of ModelBuilderOption functions to configure the model
//
// Returns:
//   - Model: the newly created model
func NewModel(name string, options ...ModelBuilderOption) Model {
	m := &model{
		name: name,
	}
	for _, opt := range options {
		opt(m)
	}
	return m
}

func (m *model) Name() string {
	return m.name
}

func (m *model) Skinned() bool {
	return m.skeleton != nil
}

func (m *model) Skeleton() *Skeleton {
	return m.skeleton
}

func (m *model) Clips() []*AnimationClip {
	return m.clips
}

func (m *model) ClipCount() int {
	return len(m.clips)
}

func (m *model) ClipNames() []string {
	names := make([]string, len(m.clips))
	for i, c := range m.clips {
		names[i] = c.Name
	}
	return names
}

func (m *model) Clip(name string) *AnimationClip {
	for _, c := range m.clips {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func (m *model) ClipIndex(name string) int {
	for i, c := range m.clips {
		if c.Name == name {
			return i
		}
	}
	return -1
}
