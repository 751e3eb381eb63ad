package animator

import (
	"github.com/Carmen-Shannon/freefall-go/engine/model"
)

// AnimatorBuilderOption is a functional option for configuring an Animator during construction.
type AnimatorBuilderOption func(*animator)

// WithModel is an option builder that binds the animator to a model's
// skeleton.
//
// Parameters:
//   - m: the model whose skeleton the animator poses
//
// Returns:
//   - AnimatorBuilderOption: a function that applies the model option to an animator
func WithModel(m model.Model) AnimatorBuilderOption {
	return func(a *animator) {
		if m != nil {
			a.skeleton = m.Skeleton()
		}
	}
}

// WithSkeleton is an option builder that binds the animator directly to a
// skeleton.
//
// Parameters:
//   - s: the skeleton the animator poses
//
// Returns:
//   - AnimatorBuilderOption: a function that applies the skeleton option to an animator
func WithSkeleton(s *model.Skeleton) AnimatorBuilderOption {
	return func(a *animator) {
		a.skeleton = s
	}
}

// WithParameter is an option builder that declares a parameter and its
// initial value. The parameter set is fixed after construction; only
// declared parameters accept writes.
//
// Parameters:
//   - name: the parameter name
//   - value: the initial value
//
// Returns:
//   - AnimatorBuilderOption: a function that applies the parameter option to an animator
func WithParameter(name string, value float32) AnimatorBuilderOption {
	return func(a *animator) {
		a.params[name] = value
	}
}

// WithLayer is an option builder that appends a layer to the animator. Layers
// blend in the order they are added; later layers blend over earlier ones.
//
// Parameters:
//   - l: the layer to add
//
// Returns:
//   - AnimatorBuilderOption: a function that applies the layer option to an animator
func WithLayer(l *Layer) AnimatorBuilderOption {
	return func(a *animator) {
		a.layers = append(a.layers, l)
	}
}

// WithEventHandler is an option builder that registers the animation event
// callback.
//
// Parameters:
//   - h: the handler invoked for each fired event
//
// Returns:
//   - AnimatorBuilderOption: a function that applies the handler option to an animator
func WithEventHandler(h EventHandler) AnimatorBuilderOption {
	return func(a *animator) {
		a.handler = h
	}
}
