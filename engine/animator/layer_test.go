package animator

import (
	"testing"
)

func twoStateAnimator(tr *Transition, params ...string) (Animator, *State, *State) {
	idle := NewClipState("idle", makeClip("idle"))
	action := NewClipState("action", makeClip("action"))
	tr.From = idle
	tr.To = action
	layer := NewLayer("base", []*State{idle, action}, []*Transition{tr})

	opts := []AnimatorBuilderOption{WithLayer(layer)}
	for _, p := range params {
		opts = append(opts, WithParameter(p, 0))
	}
	return NewAnimator("test", opts...), idle, action
}

func TestConditionTransition(t *testing.T) {
	a, _, _ := twoStateAnimator(&Transition{
		Duration: 0.2,
		Conditions: []Condition{
			{Param: "go", Compare: CompareGreater, Value: 0.5},
		},
	}, "go")
	layer := a.Layer("base")

	a.Update(0.1)
	if layer.CurrentStateName() != "idle" {
		t.Fatalf("entry state = %q, want idle", layer.CurrentStateName())
	}
	if layer.InTransition() {
		t.Fatal("layer transitioning with condition unmet")
	}

	a.SetParam("go", 1)
	a.Update(0.1)
	if !layer.InTransition() {
		t.Fatal("transition did not start when condition was met")
	}
	if layer.TransitionTargetName() != "action" {
		t.Errorf("transition target = %q, want action", layer.TransitionTargetName())
	}

	// Cross-fade: source holds full weight while the target ramps in.
	cur, target := layer.Current(), layer.State("action")
	if !almostEqual(cur.Weight(), 1) {
		t.Errorf("source weight during fade = %v, want 1", cur.Weight())
	}
	if target.Weight() <= 0 || target.Weight() >= 1 {
		t.Errorf("target weight during fade = %v, want in (0, 1)", target.Weight())
	}

	a.Update(0.2) // exceeds the 0.2s duration: commit
	if layer.InTransition() {
		t.Fatal("transition did not commit after its duration")
	}
	if layer.CurrentStateName() != "action" {
		t.Errorf("committed state = %q, want action", layer.CurrentStateName())
	}
	if !almostEqual(layer.Current().Weight(), 1) {
		t.Errorf("committed weight = %v, want 1", layer.Current().Weight())
	}
}

func TestAllConditionsMustPass(t *testing.T) {
	a, _, _ := twoStateAnimator(&Transition{
		Duration: 0.1,
		Conditions: []Condition{
			{Param: "go", Compare: CompareGreater, Value: 0.5},
			{Param: "grounded", Compare: CompareEquals, Value: 1},
		},
	}, "go", "grounded")
	layer := a.Layer("base")

	a.SetParam("go", 1)
	a.Update(0.1)
	if layer.InTransition() {
		t.Fatal("transition fired with only one of two conditions met")
	}

	a.SetParam("grounded", 1)
	a.Update(0.1)
	if !layer.InTransition() && layer.CurrentStateName() != "action" {
		t.Fatal("transition did not fire with all conditions met")
	}
}

func TestComparators(t *testing.T) {
	tests := []struct {
		name    string
		compare Comparator
		ref     float32
		value   float32
		want    bool
	}{
		{"greater passes", CompareGreater, 0.5, 1, true},
		{"greater fails at equal", CompareGreater, 0.5, 0.5, false},
		{"smaller passes", CompareSmaller, 0.5, 0.2, true},
		{"smaller fails above", CompareSmaller, 0.5, 0.7, false},
		{"equals passes", CompareEquals, 1, 1, true},
		{"equals fails", CompareEquals, 1, 0.99, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, _, _ := twoStateAnimator(&Transition{
				Duration:   0.1,
				Conditions: []Condition{{Param: "p", Compare: tt.compare, Value: tt.ref}},
			}, "p")
			layer := a.Layer("base")

			a.SetParam("p", tt.value)
			a.Update(0.01)

			fired := layer.InTransition() || layer.CurrentStateName() == "action"
			if fired != tt.want {
				t.Errorf("condition fired = %v, want %v", fired, tt.want)
			}
		})
	}
}

func TestImplicitExitNearClipEnd(t *testing.T) {
	a, _, _ := twoStateAnimator(&Transition{Duration: 0.1})
	layer := a.Layer("base")

	// The transition has no conditions: it fires on playback position alone,
	// once the source clip is most of the way through.
	a.Update(0.5)
	if layer.InTransition() {
		t.Fatal("implicit exit fired too early")
	}
	a.Update(0.25) // t = 0.75, still below the exit point at the check
	if layer.InTransition() {
		t.Fatal("implicit exit fired below the exit fraction")
	}
	a.Update(0.1) // checked at t = 0.75... advances past; next check sees 0.85
	a.Update(0.01)
	if !layer.InTransition() && layer.CurrentStateName() != "action" {
		t.Fatal("implicit exit never fired near the clip end")
	}
}

func TestAutoReturnGoesBackToPreviousState(t *testing.T) {
	idle := NewClipState("idle", makeClip("idle"))
	attack := NewClipState("attack", makeClip("attack"))
	attack.Loop = false

	enter := &Transition{
		From: idle, To: attack, Duration: 0.1,
		Conditions: []Condition{{Param: "attack", Compare: CompareGreater, Value: 0.5}},
	}
	// The authored target is ignored when the auto-return condition fires;
	// the layer returns to whatever state it last left.
	back := &Transition{
		From: attack, To: attack, Duration: 0.3,
		Conditions: []Condition{{AutoReturn: true, AutoThreshold: 0.89}},
	}
	layer := NewLayer("base", []*State{idle, attack}, []*Transition{enter, back})

	a := NewAnimator("test",
		WithParameter("attack", 0),
		WithLayer(layer),
	)

	a.Update(0.1)
	a.SetParam("attack", 1)
	a.Update(0.05) // transition into attack starts
	a.Update(0.1)  // commit (0.15 > 0.1)
	if layer.CurrentStateName() != "attack" {
		t.Fatalf("state after enter = %q, want attack", layer.CurrentStateName())
	}
	a.SetParam("attack", 0)

	// Play the attack until its clock passes 89% of its one-second length.
	for i := 0; i < 9; i++ {
		a.Update(0.1)
	}
	if !layer.InTransition() {
		t.Fatal("auto-return never fired past its threshold")
	}
	if layer.TransitionTargetName() != "idle" {
		t.Fatalf("auto-return target = %q, want idle", layer.TransitionTargetName())
	}

	a.Update(0.2) // commit the return
	if layer.CurrentStateName() != "idle" {
		t.Errorf("state after auto-return = %q, want idle", layer.CurrentStateName())
	}
}

func TestAutoReturnInertWithoutHistory(t *testing.T) {
	// An auto-return transition from the entry state has nowhere to return
	// to and must stay silent.
	idle := NewClipState("idle", makeClip("idle"))
	other := NewClipState("other", makeClip("other"))
	back := &Transition{
		From: idle, To: other, Duration: 0.1,
		Conditions: []Condition{{AutoReturn: true, AutoThreshold: 0.1}},
	}
	layer := NewLayer("base", []*State{idle, other}, []*Transition{back})
	a := NewAnimator("test", WithLayer(layer))

	for i := 0; i < 10; i++ {
		a.Update(0.1)
	}
	if layer.InTransition() || layer.CurrentStateName() != "idle" {
		t.Errorf("auto-return fired without a previous state: %q", layer.CurrentStateName())
	}
}

func TestTransitionTargetRestarts(t *testing.T) {
	a, _, action := twoStateAnimator(&Transition{
		Duration:   0.1,
		Conditions: []Condition{{Param: "go", Compare: CompareGreater, Value: 0.5}},
	}, "go")

	// Pre-advance the target's clock as if it had played before.
	action.timeElapsed = 0.7
	action.finished = true

	a.SetParam("go", 1)
	a.Update(0.05)

	// The fade's first frame must play the target from its start, give or
	// take the frame's own delta.
	if action.TimeElapsed() > 0.06 {
		t.Errorf("target clock after transition start = %v, want near 0", action.TimeElapsed())
	}
	if action.finished {
		t.Error("target still marked finished after restart")
	}
}

func TestFirstMatchingTransitionWins(t *testing.T) {
	idle := NewClipState("idle", makeClip("idle"))
	a1 := NewClipState("a1", makeClip("a1"))
	a2 := NewClipState("a2", makeClip("a2"))

	first := &Transition{
		From: idle, To: a1, Duration: 0.1,
		Conditions: []Condition{{Param: "go", Compare: CompareGreater, Value: 0.5}},
	}
	second := &Transition{
		From: idle, To: a2, Duration: 0.1,
		Conditions: []Condition{{Param: "go", Compare: CompareGreater, Value: 0.5}},
	}
	layer := NewLayer("base", []*State{idle, a1, a2}, []*Transition{first, second})

	a := NewAnimator("test",
		WithParameter("go", 0),
		WithLayer(layer),
	)

	a.SetParam("go", 1)
	a.Update(0.01)
	if layer.TransitionTargetName() != "a1" {
		t.Errorf("transition target = %q, want a1 (authored first)", layer.TransitionTargetName())
	}
}

func TestZeroDurationTransitionCommitsImmediately(t *testing.T) {
	a, _, _ := twoStateAnimator(&Transition{
		Duration:   0,
		Conditions: []Condition{{Param: "go", Compare: CompareGreater, Value: 0.5}},
	}, "go")
	layer := a.Layer("base")

	a.SetParam("go", 1)
	a.Update(0.1)
	if layer.InTransition() {
		t.Fatal("zero-duration transition left the layer transitioning")
	}
	if layer.CurrentStateName() != "action" {
		t.Errorf("state = %q, want action", layer.CurrentStateName())
	}
}

func TestLayerWeightScalesPose(t *testing.T) {
	sk := makeSkeleton(t)
	st := NewClipState("walk", makeClip("walk"))
	layer := NewLayer("base", []*State{st}, nil)
	layer.Weight = 0.5

	a := NewAnimator("test",
		WithSkeleton(sk),
		WithLayer(layer),
	)

	a.Update(0.5)
	// At half layer weight the hips translation lands halfway between the
	// bind pose (z = 0) and the sampled pose (z = 12).
	if got := a.Pose()[0].Translation[2]; !almostEqual(got, 6) {
		t.Errorf("hips z at half weight = %v, want 6", got)
	}
}
