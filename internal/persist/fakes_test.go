package persist

import (
	"context"
	"errors"
	"sync"

	"github.com/roach88/canvas/internal/ir"
)

var errUnavailable = errors.New("storage unavailable")

type savedViewport struct {
	userID string
	v      ir.Viewport
}

// memSaver records saves. Tests set fail to make saves error.
type memSaver struct {
	mu        sync.Mutex
	nodes     []ir.Node
	conns     []ir.Connection
	viewports []savedViewport
	fail      bool
	onSave    func(n ir.Node)
}

func (m *memSaver) SaveNode(_ context.Context, _ string, n ir.Node) error {
	m.mu.Lock()
	hook, fail := m.onSave, m.fail
	m.mu.Unlock()
	if hook != nil {
		hook(n)
	}
	if fail {
		return errUnavailable
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nodes = append(m.nodes, n)
	return nil
}

func (m *memSaver) SaveConnection(_ context.Context, _ string, c ir.Connection) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail {
		return errUnavailable
	}
	m.conns = append(m.conns, c)
	return nil
}

func (m *memSaver) SaveViewport(_ context.Context, _, userID string, v ir.Viewport) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail {
		return errUnavailable
	}
	m.viewports = append(m.viewports, savedViewport{userID: userID, v: v})
	return nil
}

func (m *memSaver) setFail(fail bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fail = fail
}

func (m *memSaver) savedNodes() []ir.Node {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]ir.Node(nil), m.nodes...)
}

type memLoader struct {
	state ir.WorkspaceState
	err   error
}

func (l memLoader) LoadWorkspace(context.Context, string, string) (ir.WorkspaceState, error) {
	return l.state, l.err
}

type memLog struct {
	mu      sync.Mutex
	updates [][]byte
}

func (l *memLog) AppendUpdates(_ context.Context, _ string, updates [][]byte) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.updates = append(l.updates, updates...)
	return nil
}

func (l *memLog) Updates(context.Context, string) ([][]byte, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([][]byte(nil), l.updates...), nil
}
