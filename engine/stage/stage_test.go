package stage

import (
	"fmt"
	"math"
	"testing"

	"github.com/Carmen-Shannon/freefall-go/common"
	"github.com/Carmen-Shannon/freefall-go/engine/animator"
	"github.com/Carmen-Shannon/freefall-go/engine/model"
)

func slideClip() *model.AnimationClip {
	return &model.AnimationClip{
		Name:           "slide",
		Duration:       24,
		TicksPerSecond: 24,
		Channels: []model.AnimationChannel{
			{
				BoneName:     "hips",
				BoneNameHash: common.HashName("hips"),
				PositionKeys: model.VectorCurve{Keys: []model.VectorKeyframe{
					{Time: 0, Value: [3]float32{0, 0, 0}},
					{Time: 24, Value: [3]float32{0, 0, 24}},
				}},
			},
		},
	}
}

func newTestAnimator(t *testing.T, name string) animator.Animator {
	t.Helper()
	sk, err := model.NewSkeleton([]model.Bone{
		{Name: "hips", ParentIndex: -1, BindTransform: model.IdentityTransform()},
	})
	if err != nil {
		t.Fatalf("NewSkeleton failed: %v", err)
	}
	st := animator.NewClipState("slide", slideClip())
	return animator.NewAnimator(name,
		animator.WithSkeleton(sk),
		animator.WithLayer(animator.NewLayer("base", []*animator.State{st}, nil)),
	)
}

func TestStageRegistry(t *testing.T) {
	s := NewStage("level1")

	if s.Name() != "level1" {
		t.Errorf("Name = %q, want level1", s.Name())
	}
	if !s.Active() {
		t.Error("new stage should be active")
	}

	a := newTestAnimator(t, "npc")
	id := s.Add(a)
	if s.Count() != 1 {
		t.Errorf("Count = %d, want 1", s.Count())
	}
	if s.Get(id) != a {
		t.Error("Get did not return the registered animator")
	}
	if s.Get(9999) != nil {
		t.Error("Get of unknown ID should be nil")
	}

	s.Remove(id)
	if s.Count() != 0 {
		t.Errorf("Count after Remove = %d, want 0", s.Count())
	}
	s.Remove(id) // double remove is a no-op

	s.Add(newTestAnimator(t, "a"))
	s.Add(newTestAnimator(t, "b"))
	s.Clear()
	if s.Count() != 0 {
		t.Errorf("Count after Clear = %d, want 0", s.Count())
	}
}

func TestStageAnimatorsPreserveInsertionOrder(t *testing.T) {
	s := NewStage("level1")
	for i := 0; i < 5; i++ {
		s.Add(newTestAnimator(t, fmt.Sprintf("npc_%d", i)))
	}

	animators := s.Animators()
	if len(animators) != 5 {
		t.Fatalf("Animators length = %d, want 5", len(animators))
	}
	for i, a := range animators {
		want := fmt.Sprintf("npc_%d", i)
		if a.Name() != want {
			t.Errorf("animator %d = %q, want %q", i, a.Name(), want)
		}
	}
}

func TestParallelUpdateMatchesSerial(t *testing.T) {
	const count = 32

	parallel := NewStage("parallel", WithUpdateWorkers(4))
	serial := make([]animator.Animator, 0, count)

	for i := 0; i < count; i++ {
		name := fmt.Sprintf("npc_%d", i)
		parallel.Add(newTestAnimator(t, name))
		serial = append(serial, newTestAnimator(t, name))
	}

	for frame := 0; frame < 10; frame++ {
		parallel.Update(0.05)
		for _, a := range serial {
			a.Update(0.05)
		}
	}

	got := parallel.Animators()
	for i := range serial {
		pz := got[i].Pose()[0].Translation[2]
		sz := serial[i].Pose()[0].Translation[2]
		if math.Abs(float64(pz-sz)) > 1e-6 {
			t.Fatalf("animator %d diverged: parallel z = %v, serial z = %v", i, pz, sz)
		}
	}
}

func TestInactiveStageSkipsUpdates(t *testing.T) {
	s := NewStage("paused", WithInactive())
	a := newTestAnimator(t, "npc")
	s.Add(a)

	s.Update(0.5)
	if z := a.Pose()[0].Translation[2]; z != 0 {
		t.Errorf("inactive stage advanced an animator: z = %v", z)
	}

	s.SetActive(true)
	s.Update(0.5)
	if z := a.Pose()[0].Translation[2]; z == 0 {
		t.Error("reactivated stage did not advance animators")
	}
}

func TestWithUpdateWorkersClampsToOne(t *testing.T) {
	s := NewStage("tiny", WithUpdateWorkers(0))
	if s.Workers() != 1 {
		t.Errorf("Workers = %d, want 1", s.Workers())
	}
}
