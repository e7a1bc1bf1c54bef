package main

// editor is a text-entry widget that can own keyboard input.
type editor interface {
	editorName() string
}

// EditorSession tracks editor mode: while an editor is active, keys are
// routed to it instead of the message list. The model owns one session
// and hands it to every widget that needs to enter or leave editor mode.
type EditorSession struct {
	active editor
}

// Enter makes e the active editor unless another editor already holds
// input. It reports whether e is now active.
func (s *EditorSession) Enter(e editor) bool {
	if s.active != nil {
		return s.active == e
	}
	s.active = e
	return true
}

// Exit leaves editor mode.
func (s *EditorSession) Exit() {
	s.active = nil
}

// InEditorMode reports whether any editor holds input.
func (s *EditorSession) InEditorMode() bool {
	return s.active != nil
}

// Active returns the editor holding input, or nil.
func (s *EditorSession) Active() editor {
	return s.active
}
