package loader

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"sync"

	"github.com/Carmen-Shannon/freefall-go/common"
	"github.com/Carmen-Shannon/freefall-go/engine/animator"
	"github.com/Carmen-Shannon/freefall-go/engine/model"
)

// LoaderBackendType identifies the graph file format backend to use.
type LoaderBackendType int

const (
	// BackendTypeYAML selects the YAML graph definition backend.
	BackendTypeYAML LoaderBackendType = iota
)

// loader is the implementation of the Loader interface.
type loader struct {
	mu sync.RWMutex

	graphCache map[string]*GraphSpec

	backend loaderBackend

	watcher *graphWatcher
}

// Loader defines the public-facing interface for loading, caching, and
// instantiating animation graph definitions. A graph definition is parsed
// once and cached by path; Build then resolves it against a concrete model
// into a fresh Animator. Each Build call produces an independent runtime so
// any number of characters can share one cached definition.
type Loader interface {
	// Load parses a graph definition file and caches the result by path.
	// Cached definitions are returned without re-reading the file.
	//
	// Parameters:
	//   - path: the file path to the graph definition
	//
	// Returns:
	//   - *GraphSpec: the parsed and cached definition
	//   - error: error if reading or parsing fails
	Load(path string) (*GraphSpec, error)

	// LoadReader parses a graph definition from a reader stream and caches
	// it by the given name.
	//
	// Parameters:
	//   - name: the cache key for the definition
	//   - r: the reader providing graph data
	//
	// Returns:
	//   - *GraphSpec: the parsed definition
	//   - error: error if parsing fails
	LoadReader(name string, r io.Reader) (*GraphSpec, error)

	// Build loads (or reuses) the graph definition at path and resolves it
	// against the given model into a new Animator. Clip names are resolved
	// through the model's clip library and bone mask names through its
	// skeleton; unresolvable references fail the build.
	//
	// Parameters:
	//   - path: the graph definition path (also the cache key)
	//   - m: the model supplying clips and the skeleton
	//   - options: extra animator options applied after the graph's own
	//
	// Returns:
	//   - animator.Animator: the newly built animator
	//   - error: error if loading or resolution fails
	Build(path string, m model.Model, options ...animator.AnimatorBuilderOption) (animator.Animator, error)

	// Get retrieves a cached graph definition by name. Returns nil if not
	// found.
	//
	// Parameters:
	//   - name: the cache key to look up
	//
	// Returns:
	//   - *GraphSpec: the cached definition or nil
	Get(name string) *GraphSpec

	// Graphs returns a snapshot of the definition cache.
	//
	// Returns:
	//   - map[string]*GraphSpec: all cached definitions keyed by name
	Graphs() map[string]*GraphSpec

	// Watch re-parses the graph definition at path whenever the file
	// changes on disk and invokes onChange with the fresh definition. The
	// cache entry is replaced so subsequent Build calls pick up the new
	// definition. Parse failures are logged and skipped, keeping the last
	// good definition in place.
	//
	// Parameters:
	//   - path: the graph definition file to watch
	//   - onChange: callback invoked with each successfully reloaded definition, may be nil
	//
	// Returns:
	//   - error: error if the watcher could not be started
	Watch(path string, onChange func(*GraphSpec)) error

	// Close stops any file watchers started by Watch.
	//
	// Returns:
	//   - error: error if shutting down the watcher fails
	Close() error
}

var _ Loader = &loader{}

// NewLoader creates a new Loader instance with the specified backend type and options applied.
//
// Parameters:
//   - backendType: the type of loader backend to use (e.g., BackendTypeYAML)
//   - options: a variadic list of LoaderBuilderOption functions to configure the Loader
//
// Returns:
//   - Loader: a new instance of Loader configured with the provided backend and options
func NewLoader(backendType LoaderBackendType, options ...LoaderBuilderOption) Loader {
	l := &loader{
		mu:         sync.RWMutex{},
		graphCache: make(map[string]*GraphSpec),
	}

	switch backendType {
	case BackendTypeYAML:
		l.backend = newYAMLLoaderBackend()
	}

	for _, option := range options {
		option(l)
	}
	return l
}

func (l *loader) Load(path string) (*GraphSpec, error) {
	l.mu.RLock()
	if cached, ok := l.graphCache[path]; ok {
		l.mu.RUnlock()
		return cached, nil
	}
	l.mu.RUnlock()

	backend, err := l.resolveBackend(path)
	if err != nil {
		return nil, err
	}

	spec, err := backend.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", path, err)
	}

	l.mu.Lock()
	l.graphCache[path] = spec
	l.mu.Unlock()

	return spec, nil
}

func (l *loader) LoadReader(name string, r io.Reader) (*GraphSpec, error) {
	l.mu.RLock()
	if cached, ok := l.graphCache[name]; ok {
		l.mu.RUnlock()
		return cached, nil
	}
	l.mu.RUnlock()

	spec, err := l.backend.LoadReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to load from reader %q: %w", name, err)
	}

	l.mu.Lock()
	l.graphCache[name] = spec
	l.mu.Unlock()

	return spec, nil
}

func (l *loader) Build(path string, m model.Model, options ...animator.AnimatorBuilderOption) (animator.Animator, error) {
	spec, err := l.Load(path)
	if err != nil {
		return nil, err
	}
	return buildAnimator(spec, m, options...)
}

func (l *loader) Get(name string) *GraphSpec {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.graphCache[name]
}

func (l *loader) Graphs() map[string]*GraphSpec {
	l.mu.RLock()
	defer l.mu.RUnlock()

	result := make(map[string]*GraphSpec, len(l.graphCache))
	for k, v := range l.graphCache {
		result[k] = v
	}
	return result
}

// resolveBackend selects an appropriate loader backend based on the file extension.
// Currently only YAML is supported.
func (l *loader) resolveBackend(path string) (loaderBackend, error) {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".yaml", ".yml":
		return l.backend, nil
	default:
		return nil, fmt.Errorf("unsupported graph format: %s", ext)
	}
}

// replaceGraph swaps the cached definition for a path, used by the watcher.
func (l *loader) replaceGraph(path string, spec *GraphSpec) {
	l.mu.Lock()
	l.graphCache[path] = spec
	l.mu.Unlock()
}

// buildAnimator resolves a parsed graph definition against a model into a
// runnable Animator. Every clip reference must exist in the model's clip
// library and every mask bone in its skeleton.
//
// Parameters:
//   - spec: the parsed graph definition
//   - m: the model supplying clips and the skeleton
//   - options: extra animator options applied after the graph's own
//
// Returns:
//   - animator.Animator: the newly built animator
//   - error: error if any reference cannot be resolved
func buildAnimator(spec *GraphSpec, m model.Model, options ...animator.AnimatorBuilderOption) (animator.Animator, error) {
	opts := []animator.AnimatorBuilderOption{animator.WithModel(m)}
	for name, value := range spec.Parameters {
		opts = append(opts, animator.WithParameter(name, value))
	}

	for li := range spec.Layers {
		layer, err := buildLayer(&spec.Layers[li], spec, m)
		if err != nil {
			return nil, err
		}
		opts = append(opts, animator.WithLayer(layer))
	}

	opts = append(opts, options...)
	return animator.NewAnimator(spec.Name, opts...), nil
}

func buildLayer(ls *LayerSpec, spec *GraphSpec, m model.Model) (*animator.Layer, error) {
	states := make([]*animator.State, len(ls.States))
	byName := make(map[string]*animator.State, len(ls.States))
	for si := range ls.States {
		st, err := buildState(&ls.States[si], spec, m)
		if err != nil {
			return nil, fmt.Errorf("graph %q: layer %q: %w", spec.Name, ls.Name, err)
		}
		states[si] = st
		byName[st.Name] = st
	}

	transitions := make([]*animator.Transition, len(ls.Transitions))
	for ti := range ls.Transitions {
		ts := &ls.Transitions[ti]
		tr := &animator.Transition{
			From:     byName[ts.From],
			To:       byName[ts.To],
			Duration: ts.Duration,
		}
		for _, cs := range ts.Conditions {
			cond, err := buildCondition(&cs, spec)
			if err != nil {
				return nil, fmt.Errorf("graph %q: layer %q: %w", spec.Name, ls.Name, err)
			}
			tr.Conditions = append(tr.Conditions, cond)
		}
		transitions[ti] = tr
	}

	layer := animator.NewLayer(ls.Name, states, transitions)
	defaultWeight := float32(1)
	layer.Weight = *common.Coalesce(ls.Weight, &defaultWeight)

	if len(ls.Mask) > 0 {
		sk := m.Skeleton()
		if sk == nil {
			return nil, fmt.Errorf("graph %q: layer %q declares a bone mask but model %q has no skeleton", spec.Name, ls.Name, m.Name())
		}
		for _, boneName := range ls.Mask {
			idx, ok := sk.BoneNameToIndex[boneName]
			if !ok {
				return nil, fmt.Errorf("graph %q: layer %q: mask references unknown bone %q", spec.Name, ls.Name, boneName)
			}
			layer.Mask = append(layer.Mask, idx)
		}
	}

	return layer, nil
}

func buildState(ss *StateSpec, spec *GraphSpec, m model.Model) (*animator.State, error) {
	if ss.Blend != nil {
		defaultSpeed := float32(1)
		children := make([]*animator.BlendTreeLayer, len(ss.Blend.Children))
		for ci := range ss.Blend.Children {
			cs := &ss.Blend.Children[ci]
			clip := m.Clip(cs.Clip)
			if clip == nil {
				return nil, fmt.Errorf("state %q: blend child references unknown clip %q", ss.Name, cs.Clip)
			}
			child := animator.NewClipState(cs.Clip, clip)
			child.Speed = *common.Coalesce(cs.Speed, &defaultSpeed)
			children[ci] = &animator.BlendTreeLayer{State: child, Point: cs.Point}
		}
		st := animator.NewTreeState(ss.Name, animator.NewBlendTree(ss.Blend.X, ss.Blend.Y, children...))
		applyStateCommon(st, ss)
		return st, nil
	}

	var clip *model.AnimationClip
	if ss.Clip != "" {
		clip = m.Clip(ss.Clip)
		if clip == nil {
			return nil, fmt.Errorf("state %q references unknown clip %q", ss.Name, ss.Clip)
		}
	}
	st := animator.NewClipState(ss.Name, clip)
	applyStateCommon(st, ss)
	return st, nil
}

func applyStateCommon(st *animator.State, ss *StateSpec) {
	// Coalesce on the spec pointers keeps authored zero values while filling
	// omitted fields with their defaults.
	defaultSpeed := float32(1)
	defaultLoop := true
	st.Speed = *common.Coalesce(ss.Speed, &defaultSpeed)
	st.Loop = *common.Coalesce(ss.Loop, &defaultLoop)
	for _, cs := range ss.Curves {
		oc := animator.OutputCurve{Param: cs.Param}
		for _, k := range cs.Keys {
			oc.Curve.Keys = append(oc.Curve.Keys, model.FloatKeyframe{Time: k.Time, Value: k.Value})
		}
		st.Curves = append(st.Curves, oc)
	}
}

func buildCondition(cs *ConditionSpec, spec *GraphSpec) (animator.Condition, error) {
	if cs.AutoReturn {
		return animator.Condition{
			AutoReturn:    true,
			AutoThreshold: cs.Threshold,
		}, nil
	}

	if _, ok := spec.Parameters[cs.Param]; !ok {
		return animator.Condition{}, fmt.Errorf("condition references undeclared parameter %q", cs.Param)
	}

	var cmp animator.Comparator
	switch cs.Compare {
	case "equals":
		cmp = animator.CompareEquals
	case "greater":
		cmp = animator.CompareGreater
	case "smaller":
		cmp = animator.CompareSmaller
	default:
		return animator.Condition{}, fmt.Errorf("unknown comparator %q", cs.Compare)
	}

	return animator.Condition{
		Param:   cs.Param,
		Compare: cmp,
		Value:   cs.Value,
	}, nil
}
