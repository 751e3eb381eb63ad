package stage

import (
	"runtime"
	"sync"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/Carmen-Shannon/freefall-go/engine/animator"
	"github.com/Carmen-Shannon/freefall-go/engine/profiler"
)

// Stage manages a collection of Animators and drives their per-frame
// evaluation across a bounded worker pool. Each registered animator owns its
// own graph runtime, so animator updates are independent of one another and
// fan out safely; the Stage only hands each animator to a single worker per
// frame. Registry access is thread-safe.
type Stage interface {
	// Name returns the stage's identifier.
	Name() string

	// SetName sets the stage's identifier.
	SetName(name string)

	// Active returns whether this stage is currently updating.
	Active() bool

	// SetActive sets whether this stage updates when Update is called.
	SetActive(active bool)

	// Add registers an animator and assigns it an ID.
	//
	// Parameters:
	//   - a: the animator to register
	//
	// Returns:
	//   - uint64: the assigned animator ID
	Add(a animator.Animator) uint64

	// Get retrieves a registered animator by its ID.
	// Returns nil if not found.
	//
	// Parameters:
	//   - id: the animator's unique ID
	//
	// Returns:
	//   - animator.Animator: the animator or nil
	Get(id uint64) animator.Animator

	// Remove unregisters an animator by ID.
	//
	// Parameters:
	//   - id: the animator's unique ID
	Remove(id uint64)

	// Clear removes all animators from the stage.
	Clear()

	// Count returns the number of registered animators.
	//
	// Returns:
	//   - int: the animator count
	Count() int

	// Animators returns a snapshot of the registered animators.
	//
	// Returns:
	//   - []animator.Animator: the registered animators
	Animators() []animator.Animator

	// Update advances every registered animator by the elapsed frame time,
	// distributing the work across the stage's worker pool and blocking
	// until all animators have finished. No-ops when the stage is inactive.
	//
	// Parameters:
	//   - deltaTime: elapsed time since the last frame in seconds
	Update(deltaTime float32)

	// Workers returns the configured worker count for parallel updates.
	//
	// Returns:
	//   - int: the worker count
	Workers() int
}

// stage is the implementation of the Stage interface.
type stage struct {
	mu *sync.RWMutex

	name   string
	active bool

	registry map[uint64]animator.Animator
	order    []uint64 // insertion order, so Update fan-out is deterministic
	nextID   uint64

	prof *profiler.Profiler

	// updatePool manages a bounded set of reusable goroutines for the
	// parallel update phase. Workers persist across frames, avoiding
	// per-frame goroutine spawn/teardown overhead.
	updatePool    worker.DynamicWorkerPool
	updateWorkers int
}

var _ Stage = &stage{}

// NewStage creates a new Stage with the given name and options applied. The
// worker pool defaults to NumCPU-1 workers and can be overridden with
// WithUpdateWorkers.
//
// Parameters:
//   - name: the stage identifier
//   - options: variadic list of StageBuilderOption functions to configure the stage
//
// Returns:
//   - Stage: the newly created stage
func NewStage(name string, options ...StageBuilderOption) Stage {
	s := &stage{
		mu:            &sync.RWMutex{},
		name:          name,
		active:        true,
		registry:      make(map[uint64]animator.Animator),
		nextID:        1,
		updateWorkers: max(runtime.NumCPU()-1, 1),
	}

	for _, option := range options {
		option(s)
	}

	// Initialize the pool after options so WithUpdateWorkers can override the
	// default. Queue size of 256 accommodates typical animator counts with
	// headroom.
	s.updatePool = worker.NewDynamicWorkerPool(s.updateWorkers, 256, 1*time.Second)

	return s
}

func (s *stage) Name() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.name
}

func (s *stage) SetName(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.name = name
}

func (s *stage) Active() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.active
}

func (s *stage) SetActive(active bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.active = active
}

func (s *stage) Add(a animator.Animator) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextID
	s.nextID++
	s.registry[id] = a
	s.order = append(s.order, id)
	return id
}

func (s *stage) Get(id uint64) animator.Animator {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.registry[id]
}

func (s *stage) Remove(id uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.registry[id]; !ok {
		return
	}
	delete(s.registry, id)
	for i, oid := range s.order {
		if oid == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
}

func (s *stage) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.registry = make(map[uint64]animator.Animator)
	s.order = s.order[:0]
}

func (s *stage) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.registry)
}

func (s *stage) Animators() []animator.Animator {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]animator.Animator, 0, len(s.order))
	for _, id := range s.order {
		result = append(result, s.registry[id])
	}
	return result
}

func (s *stage) Update(deltaTime float32) {
	s.mu.RLock()
	if !s.active {
		s.mu.RUnlock()
		return
	}
	animators := make([]animator.Animator, 0, len(s.order))
	for _, id := range s.order {
		animators = append(animators, s.registry[id])
	}
	s.mu.RUnlock()

	var wg sync.WaitGroup
	taskID := 0
	for _, a := range animators {
		wg.Add(1)
		aCap := a // capture for closure
		id := taskID
		taskID++
		s.updatePool.SubmitTask(worker.Task{
			ID: id,
			Do: func() (any, error) {
				defer wg.Done()
				aCap.Update(deltaTime)
				return nil, nil
			},
		})
	}
	wg.Wait()

	if s.prof != nil {
		s.prof.Tick()
	}
}

func (s *stage) Workers() int {
	return s.updateWorkers
}
