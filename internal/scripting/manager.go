package scripting

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/cory-johannsen/candlelight/internal/game/dice"
)

// CombatantInfo is a snapshot of a combatant's state passed to Lua callbacks.
type CombatantInfo struct {
	ID     string
	NameID string
	Name   string
	Team   string
	HP     int
	MaxHP  int
	State  string
}

// Manager owns one sandboxed LState and exposes hook dispatch.
//
// Manager is safe for concurrent CallHook after Load completes. The LState is
// single-threaded, so calls are serialized.
type Manager struct {
	mu     sync.Mutex
	vm     *lua.LState
	limit  int
	roller *dice.Roller
	logger *zap.Logger

	// Injected after construction. nil = no-op in engine.* modules.
	GetCombatant func(id string) *CombatantInfo
}

// NewManager creates a Manager.
//
// Precondition: roller and logger must be non-nil.
// Postcondition: Returns a non-nil Manager with no scripts loaded.
func NewManager(roller *dice.Roller, logger *zap.Logger) *Manager {
	if roller == nil {
		panic("scripting.NewManager: roller must not be nil")
	}
	if logger == nil {
		panic("scripting.NewManager: logger must not be nil")
	}
	return &Manager{roller: roller, logger: logger}
}

// Load creates a sandboxed VM, registers all engine.* modules, then executes
// every *.lua file in scriptDir in lexicographic order. A previously loaded
// VM is replaced.
//
// Precondition: scriptDir must be a readable directory; instLimit >= 0.
// Postcondition: The VM is registered; returns error on Lua load failure.
func (m *Manager) Load(scriptDir string, instLimit int) error {
	L := NewSandboxedState(instLimit)
	m.RegisterModules(L)

	entries, err := os.ReadDir(scriptDir)
	if err != nil {
		L.Close()
		return fmt.Errorf("scripting: reading script dir %q: %w", scriptDir, err)
	}

	var luaFiles []string
	for _, e := range entries {
		if !e.IsDir() && filepath.Ext(e.Name()) == ".lua" {
			luaFiles = append(luaFiles, filepath.Join(scriptDir, e.Name()))
		}
	}
	sort.Strings(luaFiles)

	for _, path := range luaFiles {
		cancel := LimitInstructions(L, instLimit)
		err := L.DoFile(path)
		cancel()
		if err != nil {
			L.Close()
			return fmt.Errorf("scripting: loading %q: %w", path, err)
		}
	}

	m.mu.Lock()
	if m.vm != nil {
		m.vm.Close()
	}
	m.vm = L
	m.limit = instLimit
	m.mu.Unlock()

	m.logger.Info("scripts loaded",
		zap.String("dir", scriptDir),
		zap.Int("files", len(luaFiles)),
	)
	return nil
}

// Loaded reports whether a VM is available.
func (m *Manager) Loaded() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.vm != nil
}

// CallHook calls the named Lua global function. Returns (LNil, nil) if the
// hook is not defined or no VM is loaded. Lua runtime errors, including an
// exhausted instruction budget, are logged at Warn level and never propagated.
//
// Precondition: args must be valid lua.LValue instances.
// Postcondition: Returns the first return value of the hook, or LNil.
func (m *Manager) CallHook(hook string, args ...lua.LValue) (lua.LValue, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.vm == nil {
		m.logger.Debug("scripting: no VM loaded", zap.String("hook", hook))
		return lua.LNil, nil
	}

	fn := m.vm.GetGlobal(hook)
	if fn.Type() != lua.LTFunction {
		return lua.LNil, nil
	}

	cancel := LimitInstructions(m.vm, m.limit)
	defer cancel()
	if err := m.vm.CallByParam(lua.P{
		Fn:      fn,
		NRet:    1,
		Protect: true,
	}, args...); err != nil {
		m.logger.Warn("scripting: Lua runtime error",
			zap.String("hook", hook),
			zap.Error(err),
		)
		return lua.LNil, nil
	}

	ret := m.vm.Get(-1)
	m.vm.Pop(1)
	return ret, nil
}

// Close releases the VM. Subsequent CallHook calls are no-ops.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.vm != nil {
		m.vm.Close()
		m.vm = nil
	}
}
