package scripting_test

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/candlelight/internal/game/dice"
	"github.com/cory-johannsen/candlelight/internal/scripting"
)

func newTestManager(t testing.TB) (*scripting.Manager, *observer.ObservedLogs) {
	t.Helper()
	core, logs := observer.New(zap.DebugLevel)
	logger := zap.New(core)
	roller := dice.NewRoller(dice.NewSeededSource(1), logger)
	return scripting.NewManager(roller, logger), logs
}

func writeTempLua(t testing.TB, filename, src string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, filename), []byte(src), 0644))
	return dir
}

func hasLevel(logs *observer.ObservedLogs, level zapcore.Level) bool {
	for _, e := range logs.All() {
		if e.Level == level {
			return true
		}
	}
	return false
}

func TestManager_Load_CallsHook(t *testing.T) {
	mgr, _ := newTestManager(t)
	dir := writeTempLua(t, "hooks.lua", `
		function test_hook(a, b)
			return a + b
		end
	`)
	require.NoError(t, mgr.Load(dir, 0))
	assert.True(t, mgr.Loaded())
	ret, err := mgr.CallHook("test_hook", lua.LNumber(3), lua.LNumber(4))
	require.NoError(t, err)
	assert.Equal(t, lua.LNumber(7), ret)
}

func TestManager_CallHook_MissingHook_NoOp(t *testing.T) {
	mgr, _ := newTestManager(t)
	dir := writeTempLua(t, "empty.lua", `not_a_function = 3`)
	require.NoError(t, mgr.Load(dir, 0))
	for _, hook := range []string{"nonexistent_hook", "not_a_function"} {
		ret, err := mgr.CallHook(hook)
		require.NoError(t, err)
		assert.Equal(t, lua.LNil, ret)
	}
}

func TestManager_CallHook_NotLoaded_ReturnsNil(t *testing.T) {
	mgr, _ := newTestManager(t)
	assert.False(t, mgr.Loaded())
	ret, err := mgr.CallHook("on_damage")
	require.NoError(t, err)
	assert.Equal(t, lua.LNil, ret)
}

func TestManager_CallHook_RuntimeError_WarnLogNoPanic(t *testing.T) {
	mgr, logs := newTestManager(t)
	dir := writeTempLua(t, "bad.lua", `
		function bad_hook()
			error("intentional error")
		end
	`)
	require.NoError(t, mgr.Load(dir, 0))
	ret, err := mgr.CallHook("bad_hook")
	require.NoError(t, err)
	assert.Equal(t, lua.LNil, ret)
	assert.True(t, hasLevel(logs, zap.WarnLevel), "expected Warn log for Lua runtime error")
}

func TestManager_CallHook_RunawayHookStopsAndLaterHooksRun(t *testing.T) {
	mgr, logs := newTestManager(t)
	dir := writeTempLua(t, "loop.lua", `
		function spin() while true do end end
		function ok() return 1 end
	`)
	require.NoError(t, mgr.Load(dir, 500))

	ret, err := mgr.CallHook("spin")
	require.NoError(t, err)
	assert.Equal(t, lua.LNil, ret)
	assert.True(t, hasLevel(logs, zap.WarnLevel))

	for i := 0; i < 3; i++ {
		ret, err = mgr.CallHook("ok")
		require.NoError(t, err)
		assert.Equal(t, lua.LNumber(1), ret)
	}
}

func TestManager_Load_EmptyDir_NoError(t *testing.T) {
	mgr, _ := newTestManager(t)
	require.NoError(t, mgr.Load(t.TempDir(), 0))
	ret, err := mgr.CallHook("anything")
	require.NoError(t, err)
	assert.Equal(t, lua.LNil, ret)
}

func TestManager_Load_InvalidLua_ReturnsError(t *testing.T) {
	mgr, _ := newTestManager(t)
	dir := writeTempLua(t, "bad.lua", `this is not valid lua @@@@`)
	assert.Error(t, mgr.Load(dir, 0))
	assert.False(t, mgr.Loaded())
}

func TestManager_Load_MissingDir_ReturnsError(t *testing.T) {
	mgr, _ := newTestManager(t)
	assert.Error(t, mgr.Load(filepath.Join(t.TempDir(), "nope"), 0))
}

func TestManager_Load_MultipleFiles_OrderedByName(t *testing.T) {
	mgr, _ := newTestManager(t)
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.lua"), []byte(`base_val = 10`), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.lua"), []byte(`
		function get_val() return base_val end
	`), 0644))
	require.NoError(t, mgr.Load(dir, 0))
	ret, err := mgr.CallHook("get_val")
	require.NoError(t, err)
	assert.Equal(t, lua.LNumber(10), ret)
}

func TestManager_Load_ReplacesVM(t *testing.T) {
	mgr, _ := newTestManager(t)
	require.NoError(t, mgr.Load(writeTempLua(t, "a.lua", `function v() return 1 end`), 0))
	require.NoError(t, mgr.Load(writeTempLua(t, "b.lua", `function w() return 2 end`), 0))
	ret, err := mgr.CallHook("v")
	require.NoError(t, err)
	assert.Equal(t, lua.LNil, ret)
	ret, err = mgr.CallHook("w")
	require.NoError(t, err)
	assert.Equal(t, lua.LNumber(2), ret)
}

func TestProperty_CallHookUnknownNeverPanics(t *testing.T) {
	mgr, _ := newTestManager(t)
	require.NoError(t, mgr.Load(writeTempLua(t, "x.lua", `function hook_known() return 1 end`), 0))
	rapid.Check(t, func(rt *rapid.T) {
		hook := rapid.StringMatching(`hook_[a-z]{1,8}`).Draw(rt, "hook")
		ret, err := mgr.CallHook(hook)
		if err != nil {
			rt.Fatalf("unexpected error: %v", err)
		}
		if hook != "hook_known" && ret != lua.LNil {
			rt.Fatalf("unknown hook %q returned %v", hook, ret)
		}
	})
}

func TestManager_CallHookConcurrent_NoRace(t *testing.T) {
	mgr, _ := newTestManager(t)
	dir := writeTempLua(t, "hooks.lua", `
		function concurrent_hook(a, b)
			return a + b
		end
	`)
	require.NoError(t, mgr.Load(dir, 0))

	const goroutines = 10
	const callsEach = 5
	var wg sync.WaitGroup
	wg.Add(goroutines)
	for i := 0; i < goroutines; i++ {
		go func() {
			defer wg.Done()
			for j := 0; j < callsEach; j++ {
				ret, err := mgr.CallHook("concurrent_hook", lua.LNumber(1), lua.LNumber(2))
				assert.NoError(t, err)
				assert.Equal(t, lua.LNumber(3), ret)
			}
		}()
	}
	wg.Wait()
}

func TestNewManager_PanicsOnNilRoller(t *testing.T) {
	assert.Panics(t, func() {
		scripting.NewManager(nil, zap.NewNop())
	})
}

func TestNewManager_PanicsOnNilLogger(t *testing.T) {
	roller := dice.NewRoller(dice.NewCryptoSource(), zap.NewNop())
	assert.Panics(t, func() {
		scripting.NewManager(roller, nil)
	})
}

func TestManager_Close_Releases(t *testing.T) {
	mgr, _ := newTestManager(t)
	require.NoError(t, mgr.Load(writeTempLua(t, "init.lua", `function get_x() return 1 end`), 0))
	mgr.Close()
	ret, err := mgr.CallHook("get_x")
	assert.NoError(t, err)
	assert.Equal(t, lua.LNil, ret)
}
