package loader

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// GraphSpec is the parsed, unresolved form of an animation graph definition.
// It references clips, bones, and parameters by name; resolution against a
// concrete model happens in Build.
type GraphSpec struct {
	// Name is the graph identifier, used as the animator name.
	Name string `yaml:"name"`

	// Parameters declares the animator's parameter set with initial values.
	Parameters map[string]float32 `yaml:"parameters"`

	// Layers are the graph's layers in blend order.
	Layers []LayerSpec `yaml:"layers"`
}

// LayerSpec describes one layer of a graph.
type LayerSpec struct {
	Name string `yaml:"name"`

	// Weight defaults to 1 when omitted.
	Weight *float32 `yaml:"weight"`

	// Mask lists bone names the layer drives; empty means all bones.
	Mask []string `yaml:"mask"`

	// States are the layer's nodes, entry state first.
	States []StateSpec `yaml:"states"`

	Transitions []TransitionSpec `yaml:"transitions"`
}

// StateSpec describes one state: either a clip leaf (Clip set) or a blend
// tree (Blend set).
type StateSpec struct {
	Name string `yaml:"name"`

	// Clip names a clip in the target model's library.
	Clip string `yaml:"clip"`

	// Speed defaults to 1 when omitted.
	Speed *float32 `yaml:"speed"`

	// Loop defaults to true when omitted.
	Loop *bool `yaml:"loop"`

	Blend *BlendSpec `yaml:"blend"`

	Curves []CurveSpec `yaml:"curves"`
}

// BlendSpec describes a 2D blend tree.
type BlendSpec struct {
	// X and Y name the animator parameters forming the blend space.
	X string `yaml:"x"`
	Y string `yaml:"y"`

	Children []BlendChildSpec `yaml:"children"`
}

// BlendChildSpec pins a clip to a point in the blend space.
type BlendChildSpec struct {
	Clip  string     `yaml:"clip"`
	Point [2]float32 `yaml:"point"`

	Speed *float32 `yaml:"speed"`
}

// CurveSpec describes a parameter-driving output curve keyed in normalized
// time.
type CurveSpec struct {
	Param string    `yaml:"param"`
	Keys  []KeySpec `yaml:"keys"`
}

// KeySpec is one scalar keyframe.
type KeySpec struct {
	Time  float32 `yaml:"time"`
	Value float32 `yaml:"value"`
}

// TransitionSpec describes a transition edge.
type TransitionSpec struct {
	From string `yaml:"from"`
	To   string `yaml:"to"`

	// Duration is the cross-fade length in seconds.
	Duration float32 `yaml:"duration"`

	Conditions []ConditionSpec `yaml:"conditions"`
}

// ConditionSpec describes one transition condition. Either a parameter
// comparison (Param/Compare/Value) or an auto-return marker.
type ConditionSpec struct {
	Param   string  `yaml:"param"`
	Compare string  `yaml:"compare"`
	Value   float32 `yaml:"value"`

	AutoReturn bool    `yaml:"auto_return"`
	Threshold  float32 `yaml:"threshold"`
}

// loaderBackend abstracts the graph file format behind the Loader.
type loaderBackend interface {
	// Load parses a graph definition file.
	Load(path string) (*GraphSpec, error)

	// LoadReader parses a graph definition from a stream.
	LoadReader(r io.Reader) (*GraphSpec, error)
}

// yamlLoaderBackend parses YAML graph definitions.
type yamlLoaderBackend struct{}

var _ loaderBackend = &yamlLoaderBackend{}

func newYAMLLoaderBackend() *yamlLoaderBackend {
	return &yamlLoaderBackend{}
}

func (b *yamlLoaderBackend) Load(path string) (*GraphSpec, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return b.LoadReader(f)
}

func (b *yamlLoaderBackend) LoadReader(r io.Reader) (*GraphSpec, error) {
	var spec GraphSpec
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&spec); err != nil {
		return nil, fmt.Errorf("failed to decode graph: %w", err)
	}
	if err := validateSpec(&spec); err != nil {
		return nil, err
	}
	return &spec, nil
}

// validateSpec checks the internal consistency of a parsed graph: state name
// uniqueness, transition endpoints, blend axes, and condition shapes. Clip
// and bone references are checked later against a concrete model.
func validateSpec(spec *GraphSpec) error {
	if spec.Name == "" {
		return fmt.Errorf("graph has no name")
	}
	for li := range spec.Layers {
		layer := &spec.Layers[li]
		if layer.Name == "" {
			return fmt.Errorf("graph %q: layer %d has no name", spec.Name, li)
		}
		if len(layer.States) == 0 {
			return fmt.Errorf("graph %q: layer %q has no states", spec.Name, layer.Name)
		}

		names := make(map[string]bool, len(layer.States))
		for si := range layer.States {
			st := &layer.States[si]
			if st.Name == "" {
				return fmt.Errorf("graph %q: layer %q: state %d has no name", spec.Name, layer.Name, si)
			}
			if names[st.Name] {
				return fmt.Errorf("graph %q: layer %q: duplicate state %q", spec.Name, layer.Name, st.Name)
			}
			names[st.Name] = true

			if st.Clip != "" && st.Blend != nil {
				return fmt.Errorf("graph %q: state %q declares both a clip and a blend tree", spec.Name, st.Name)
			}
			if st.Blend != nil {
				if st.Blend.X == "" || st.Blend.Y == "" {
					return fmt.Errorf("graph %q: state %q: blend tree needs both x and y parameters", spec.Name, st.Name)
				}
				if len(st.Blend.Children) == 0 {
					return fmt.Errorf("graph %q: state %q: blend tree has no children", spec.Name, st.Name)
				}
			}
			for _, c := range st.Curves {
				if c.Param == "" {
					return fmt.Errorf("graph %q: state %q: output curve has no param", spec.Name, st.Name)
				}
			}
		}

		for ti := range layer.Transitions {
			tr := &layer.Transitions[ti]
			if !names[tr.From] {
				return fmt.Errorf("graph %q: layer %q: transition %d references unknown state %q", spec.Name, layer.Name, ti, tr.From)
			}
			if !names[tr.To] {
				return fmt.Errorf("graph %q: layer %q: transition %d references unknown state %q", spec.Name, layer.Name, ti, tr.To)
			}
			for ci, c := range tr.Conditions {
				if c.AutoReturn {
					continue
				}
				if c.Param == "" {
					return fmt.Errorf("graph %q: layer %q: transition %d condition %d has no param", spec.Name, layer.Name, ti, ci)
				}
				switch c.Compare {
				case "equals", "greater", "smaller":
				default:
					return fmt.Errorf("graph %q: layer %q: transition %d condition %d has unknown comparator %q", spec.Name, layer.Name, ti, ci, c.Compare)
				}
			}
		}
	}
	return nil
}
