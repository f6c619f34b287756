package scripting

import (
	"fmt"
	"os"
	"path/filepath"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/l1jgo/poitrack/internal/poi"
)

// Engine wraps a single gopher-lua VM hosting the icon visibility policy.
// Single-goroutine access only (loop goroutine).
type Engine struct {
	vm       *lua.LState
	log      *zap.Logger
	fallback poi.IconPolicy

	warnedMissing bool
}

var _ poi.IconPolicy = (*Engine)(nil)

// NewEngine creates a Lua engine and loads every script under
// scriptsDir/policy. A missing directory leaves the built-in policy in charge.
func NewEngine(scriptsDir string, log *zap.Logger) (*Engine, error) {
	vm := lua.NewState(lua.Options{
		SkipOpenLibs: false,
	})

	vm.SetGlobal("API_VERSION", lua.LNumber(1))

	e := &Engine{vm: vm, log: log, fallback: poi.DefaultIconPolicy{}}

	if err := e.loadDir(filepath.Join(scriptsDir, "policy")); err != nil {
		vm.Close()
		return nil, fmt.Errorf("load policy scripts: %w", err)
	}
	return e, nil
}

// loadDir loads all .lua files in a directory.
func (e *Engine) loadDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil // skip missing dirs
		}
		return err
	}
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".lua" {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		if err := e.vm.DoFile(path); err != nil {
			return fmt.Errorf("load %s: %w", path, err)
		}
		e.log.Debug("loaded lua script", zap.String("file", path))
	}
	return nil
}

// IconHidden calls the Lua icon_hidden(ctx) function. When the function is
// missing, fails or returns a non-boolean, the built-in policy decides.
func (e *Engine) IconHidden(ctx poi.IconContext) bool {
	fn := e.vm.GetGlobal("icon_hidden")
	if fn == lua.LNil {
		if !e.warnedMissing {
			e.warnedMissing = true
			e.log.Warn("lua function icon_hidden not found, using built-in policy")
		}
		return e.fallback.IconHidden(ctx)
	}

	t := e.vm.NewTable()
	t.RawSetString("class", lua.LString(ctx.Class.String()))
	t.RawSetString("tier", lua.LString(ctx.Tier.String()))
	t.RawSetString("distance", lua.LNumber(ctx.Distance))
	t.RawSetString("priority", lua.LBool(ctx.Priority))
	t.RawSetString("auto_hide_far", lua.LBool(ctx.AutoHideFar))
	t.RawSetString("descriptor_hide", lua.LBool(ctx.DescriptorHide))

	if err := e.vm.CallByParam(lua.P{
		Fn:      fn,
		NRet:    1,
		Protect: true,
	}, t); err != nil {
		e.log.Error("lua icon_hidden error", zap.Error(err))
		return e.fallback.IconHidden(ctx)
	}

	result := e.vm.Get(-1)
	e.vm.Pop(1)

	b, ok := result.(lua.LBool)
	if !ok {
		e.log.Error("lua icon_hidden returned non-boolean", zap.String("type", result.Type().String()))
		return e.fallback.IconHidden(ctx)
	}
	return bool(b)
}

// Close shuts down the Lua VM.
func (e *Engine) Close() {
	e.vm.Close()
}
