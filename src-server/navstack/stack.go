package navstack

import "sync"

// Action is what the modal is doing with its item.
type Action int

const (
	ActionShow Action = iota
	ActionEdit
	ActionCreate
	ActionDelete
)

// Frame records one modal: what kind of thing it renders, what it does
// with it, and the item itself (including any view state captured at
// push time). Frames are never mutated after push, so navigating back
// restores the exact prior view.
type Frame struct {
	TargetType string
	Action     Action
	Item       any
}

// Stack is the LIFO of modal frames behind nested detail navigation.
// One stack per active page; it is not shared across pages.
type Stack struct {
	mu     sync.Mutex
	frames []Frame
}

func New() *Stack {
	return &Stack{}
}

// Push records the frame being navigated away from.
func (s *Stack) Push(frame Frame) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.frames = append(s.frames, frame)
}

// Pop removes and returns the top frame; ok is false on an empty stack.
func (s *Stack) Pop() (Frame, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.frames) == 0 {
		return Frame{}, false
	}
	top := s.frames[len(s.frames)-1]
	s.frames = s.frames[:len(s.frames)-1]
	return top, true
}

// Clear empties the stack, used on explicit close.
func (s *Stack) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.frames = s.frames[:0]
}

func (s *Stack) CanGoBack() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.frames) > 0
}

func (s *Stack) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.frames)
}
