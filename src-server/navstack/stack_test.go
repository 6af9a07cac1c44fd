package navstack_test

import (
	"casal/src-server/navstack"
	"testing"
)

func TestStackLIFO(t *testing.T) {
	stack := navstack.New()

	if stack.CanGoBack() {
		t.Error("fresh stack claims it can go back")
	}
	if _, ok := stack.Pop(); ok {
		t.Error("popped a frame off an empty stack")
	}

	stack.Push(navstack.Frame{TargetType: "event", Action: navstack.ActionShow, Item: int64(1)})
	stack.Push(navstack.Frame{TargetType: "event", Action: navstack.ActionEdit, Item: int64(2)})
	stack.Push(navstack.Frame{TargetType: "place", Action: navstack.ActionShow, Item: int64(3)})

	if stack.Len() != 3 || !stack.CanGoBack() {
		t.Fatal("unexpected depth", stack.Len())
	}

	// frames come back newest first, untouched
	wantItems := []int64{3, 2, 1}
	wantTypes := []string{"place", "event", "event"}
	for i := range wantItems {
		frame, ok := stack.Pop()
		if !ok {
			t.Fatal("stack ran dry early", i)
		}
		if frame.Item != wantItems[i] || frame.TargetType != wantTypes[i] {
			t.Error("wrong frame", i, frame)
		}
	}

	if stack.CanGoBack() {
		t.Error("drained stack claims it can go back")
	}
}

func TestStackClear(t *testing.T) {
	stack := navstack.New()
	stack.Push(navstack.Frame{TargetType: "event", Action: navstack.ActionShow})
	stack.Push(navstack.Frame{TargetType: "event", Action: navstack.ActionDelete})

	stack.Clear()

	if stack.Len() != 0 || stack.CanGoBack() {
		t.Error("clear left frames behind", stack.Len())
	}
	if _, ok := stack.Pop(); ok {
		t.Error("popped a frame after clear")
	}
}
