package loader

// LoaderBuilderOption is a functional option for configuring a Loader via NewLoader.
type LoaderBuilderOption func(*loader)

// WithGraph is an option builder that pre-populates the definition cache with
// a parsed graph.
//
// Parameters:
//   - key: the cache key for the definition
//   - spec: the definition to cache
//
// Returns:
//   - LoaderBuilderOption: a function that applies the graph option to a loader
func WithGraph(key string, spec *GraphSpec) LoaderBuilderOption {
	return func(l *loader) {
		l.graphCache[key] = spec
	}
}
