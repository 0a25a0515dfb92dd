package artifact

import (
	"context"
	"fmt"
	"path"
	"sort"
	"strings"
	"sync"
)

// Memory is an in-memory Store. Paths are slash separated.
type Memory struct {
	mu    sync.Mutex
	files map[string]string
	dirs  map[string]bool
}

// NewMemory creates a store holding the given files
func NewMemory(files map[string]string) *Memory {
	m := &Memory{files: make(map[string]string), dirs: make(map[string]bool)}
	for p, text := range files {
		m.files[path.Clean(p)] = text
		m.dirs[path.Dir(path.Clean(p))] = true
	}
	return m
}

func (m *Memory) Find(ctx context.Context, root, fileName string) (string, bool, error) {
	if err := ctx.Err(); err != nil {
		return "", false, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	root = path.Clean(root)
	var matches []string
	for p := range m.files {
		if path.Base(p) == fileName && within(root, p) {
			matches = append(matches, p)
		}
	}
	if len(matches) == 0 {
		return "", false, nil
	}
	sort.Slice(matches, func(i, j int) bool { return walkLess(matches[i], matches[j]) })
	return matches[0], true, nil
}

func (m *Memory) Write(p, text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p = path.Clean(p)
	if !m.dirs[path.Dir(p)] {
		return fmt.Errorf("failed to write %s: directory does not exist", p)
	}
	m.files[p] = text
	return nil
}

func (m *Memory) Delete(p string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p = path.Clean(p)
	if _, ok := m.files[p]; !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, p)
	}
	delete(m.files, p)
	return nil
}

func (m *Memory) EnsureDir(p string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for p = path.Clean(p); ; p = path.Dir(p) {
		m.dirs[p] = true
		if parent := path.Dir(p); parent == p {
			return nil
		}
	}
}

// Files returns a copy of the stored files.
func (m *Memory) Files() map[string]string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]string, len(m.files))
	for p, text := range m.files {
		out[p] = text
	}
	return out
}

// Read returns the text stored at p.
func (m *Memory) Read(p string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	text, ok := m.files[path.Clean(p)]
	return text, ok
}

func within(root, p string) bool {
	return root == "." || p == root || strings.HasPrefix(p, root+"/")
}

// walkLess orders paths the way a lexical directory walk visits them.
func walkLess(a, b string) bool {
	as, bs := strings.Split(a, "/"), strings.Split(b, "/")
	for i := 0; i < len(as) && i < len(bs); i++ {
		if as[i] != bs[i] {
			return as[i] < bs[i]
		}
	}
	return len(as) < len(bs)
}
