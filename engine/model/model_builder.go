package model

// ModelBuilderOption is a functional option for configuring a Model during construction.
type ModelBuilderOption func(*model)

// WithSkeleton is an option builder that assigns a skeleton to the Model.
//
// Parameters:
//   - s: the skeleton to attach
//
// Returns:
//   - ModelBuilderOption: a function that applies the skeleton option to a model
func WithSkeleton(s *Skeleton) ModelBuilderOption {
	return func(m *model) {
		m.skeleton = s
	}
}

// WithClips is an option builder that appends animation clips to the Model.
//
// Parameters:
//   - clips: the clips to add
//
// Returns:
//   - ModelBuilderOption: a function that applies the clips option to a model
func WithClips(clips ...*AnimationClip) ModelBuilderOption {
	return func(m *model) {
		m.clips = append(m.clips, clips...)
	}
}
