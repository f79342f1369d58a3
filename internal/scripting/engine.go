package scripting

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/txecs/runtime/internal/core/ecs"
	"github.com/txecs/runtime/internal/core/ident"
)

// APIVersion is exposed to scripts as API_VERSION.
const APIVersion = 1

func newVM() *lua.LState {
	vm := lua.NewState(lua.Options{
		SkipOpenLibs: false,
	})
	vm.SetGlobal("API_VERSION", lua.LNumber(APIVersion))
	return vm
}

// LoadDir builds one System per .lua file in dir, in file name order. Each
// file declares itself through globals:
//
//	system = "gravity"            -- optional, defaults to the file name
//	valid  = false                -- optional initial state
//	aspect = {
//	  { name = "Position", kind = "vec3" },
//	  { name = "Velocity", kind = "vec3", read_only = true },
//	}
//
// A missing dir yields no systems.
func LoadDir(dir string, opts ...Option) ([]*System, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil // skip missing dirs
		}
		return nil, err
	}
	o := buildOptions(opts)

	var systems []*System
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".lua" {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		s, err := loadFile(path, o)
		if err != nil {
			for _, loaded := range systems {
				loaded.Close()
			}
			return nil, err
		}
		o.log.Debug("loaded lua system", zap.String("file", path), zap.Stringer("system", s.ID()))
		systems = append(systems, s)
	}
	return systems, nil
}

func loadFile(path string, o options) (*System, error) {
	vm := newVM()
	if err := vm.DoFile(path); err != nil {
		vm.Close()
		return nil, fmt.Errorf("load %s: %w", path, err)
	}

	name := strings.TrimSuffix(filepath.Base(path), ".lua")
	if lv, ok := vm.GetGlobal("system").(lua.LString); ok {
		name = string(lv)
	}
	id, err := ident.NewSystemID(name)
	if err != nil {
		vm.Close()
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	if lv, ok := vm.GetGlobal("valid").(lua.LBool); ok {
		o.valid = bool(lv)
	}
	aspect, err := declaredAspect(vm, o.convs)
	if err != nil {
		vm.Close()
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	return bind(id, aspect, vm, o)
}

func declaredAspect(vm *lua.LState, convs *Converters) (ecs.Aspect, error) {
	t, ok := vm.GetGlobal("aspect").(*lua.LTable)
	if !ok {
		return ecs.Aspect{}, fmt.Errorf("aspect table missing")
	}
	var slots []ecs.Slot
	var ferr error
	t.ForEach(func(_, v lua.LValue) {
		if ferr != nil {
			return
		}
		st, ok := v.(*lua.LTable)
		if !ok {
			ferr = fmt.Errorf("aspect entry: want table, got %s", v.Type())
			return
		}
		name, kind := st.RawGetString("name").String(), st.RawGetString("kind").String()
		cid, err := ident.NewComponentID(name)
		if err != nil {
			ferr = err
			return
		}
		conv, err := convs.forKind(kind)
		if err != nil {
			ferr = fmt.Errorf("aspect %s: %w", name, err)
			return
		}
		slots = append(slots, ecs.Slot{
			ID:       cid,
			Type:     conv.typ,
			ReadOnly: lua.LVAsBool(st.RawGetString("read_only")),
		})
	})
	if ferr != nil {
		return ecs.Aspect{}, ferr
	}
	return ecs.NewAspect(slots...), nil
}
