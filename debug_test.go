package twin

import (
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestCheckDisposedPanicsWithName(t *testing.T) {
	n := NewContainer("cover")
	n.Dispose()
	defer func() {
		r := recover()
		msg, _ := r.(string)
		if !strings.Contains(msg, `"cover"`) || !strings.Contains(msg, "Reparent") {
			t.Errorf("panic = %v", r)
		}
	}()
	checkDisposed(n, "Reparent")
}

func TestDebugCheckTreeDepth(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	s := NewScene(zap.New(core))
	s.SetDebugMode(true)

	parent := s.Root()
	for i := 0; i < debugMaxTreeDepth+2; i++ {
		c := NewContainer("level")
		parent.AddChild(c)
		parent = c
	}
	s.Tick(0.016)

	if logs.FilterMessage("tree depth exceeds limit").Len() != 1 {
		t.Errorf("depth warnings = %d, want 1", logs.FilterMessage("tree depth exceeds limit").Len())
	}
}

func TestDebugCheckTreeChildCount(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	s := NewScene(zap.New(core))
	s.SetDebugMode(true)

	wide := NewContainer("wide")
	for i := 0; i <= debugMaxChildCount; i++ {
		wide.AddChild(NewContainer("leaf"))
	}
	s.Root().AddChild(wide)
	s.Tick(0.016)

	entries := logs.FilterMessage("child count exceeds limit").All()
	if len(entries) != 1 {
		t.Fatalf("fan-out warnings = %d, want 1", len(entries))
	}
	if entries[0].ContextMap()["node"] != "wide" {
		t.Errorf("node = %v, want wide", entries[0].ContextMap()["node"])
	}
}

func TestDebugModeOffIsSilent(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	s := NewScene(zap.New(core))

	parent := s.Root()
	for i := 0; i < debugMaxTreeDepth+2; i++ {
		c := NewContainer("level")
		parent.AddChild(c)
		parent = c
	}
	s.Tick(0.016)
	if logs.Len() != 0 {
		t.Errorf("logged %d entries with debug off", logs.Len())
	}
}
