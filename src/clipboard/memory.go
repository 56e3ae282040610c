package clipboard

import "sync"

// Memory is an in-process clipboard used when no system clipboard is wanted
// (CLI runs, tests). It can be told to fail reads or writes.
type Memory struct {
	mu       sync.Mutex
	text     string
	writes   int
	ReadErr  error
	WriteErr error
}

func NewMemory(initial string) *Memory { return &Memory{text: initial} }

func (m *Memory) Read() (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ReadErr != nil {
		return "", m.ReadErr
	}
	return m.text, nil
}

func (m *Memory) Write(text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.WriteErr != nil {
		return m.WriteErr
	}
	m.text = text
	m.writes++
	return nil
}

// Text returns the current contents regardless of ReadErr.
func (m *Memory) Text() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.text
}

// Writes counts successful writes.
func (m *Memory) Writes() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.writes
}
