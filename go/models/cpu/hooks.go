package cpu

import (
	"github.com/pkg/errors"
)

type Hook interface{}

// callback shapes accepted by HookAdd
//   HOOK_BLOCK:     func(Cpu, addr, size uint32)
//   HOOK_INTR:      func(Cpu, vector uint32)
//   HOOK_MEM_READ:  func(Cpu, access int, addr uint32, size int, val uint32)
//   HOOK_MEM_WRITE: same as HOOK_MEM_READ

type hookInfo struct {
	htype int
	start uint32
	end   uint32
}

func (h *hookInfo) Type() int {
	return h.htype
}

// start > end means "everywhere"
func (h *hookInfo) Contains(addr uint32) bool {
	return h.start > h.end || addr >= h.start && addr <= h.end
}

type hinfo interface {
	Type() int
}

type blockHook struct {
	hookInfo
	cb func(Cpu, uint32, uint32)
}

type intrHook struct {
	hookInfo
	cb func(Cpu, uint32)
}

type memHook struct {
	hookInfo
	cb func(Cpu, int, uint32, int, uint32)
}

type Hooks struct {
	cpu Cpu

	block []*blockHook
	intr  []*intrHook
	mem   []*memHook
}

// creates &Hooks{} dispatching callbacks with cpu as the first argument.
// Memory hooks are dispatched by the core, since Mem is shared by both cores.
func NewHooks(cpu Cpu) *Hooks {
	return &Hooks{cpu: cpu}
}

func (h *Hooks) HookAdd(htype int, cb interface{}, start, end uint32) (Hook, error) {
	info := hookInfo{htype, start, end}
	var hook interface{}
	switch htype {
	case HOOK_BLOCK:
		fn, ok := cb.(func(Cpu, uint32, uint32))
		if !ok {
			return nil, errors.Errorf("bad block hook callback: %T", cb)
		}
		hh := &blockHook{info, fn}
		h.block, hook = append(h.block, hh), hh

	case HOOK_INTR:
		fn, ok := cb.(func(Cpu, uint32))
		if !ok {
			return nil, errors.Errorf("bad interrupt hook callback: %T", cb)
		}
		hh := &intrHook{info, fn}
		h.intr, hook = append(h.intr, hh), hh

	case HOOK_MEM_READ, HOOK_MEM_WRITE, HOOK_MEM_READ | HOOK_MEM_WRITE:
		fn, ok := cb.(func(Cpu, int, uint32, int, uint32))
		if !ok {
			return nil, errors.Errorf("bad memory hook callback: %T", cb)
		}
		hh := &memHook{info, fn}
		h.mem, hook = append(h.mem, hh), hh

	default:
		return nil, errors.Errorf("unknown hook type: %d", htype)
	}
	return hook, nil
}

func (h *Hooks) HookDel(hh Hook) error {
	info, ok := hh.(hinfo)
	if !ok {
		return errors.Errorf("not a hook: %T", hh)
	}
	switch info.Type() {
	case HOOK_BLOCK:
		var tmp []*blockHook
		for _, v := range h.block {
			if v != hh {
				tmp = append(tmp, v)
			}
		}
		h.block = tmp
	case HOOK_INTR:
		var tmp []*intrHook
		for _, v := range h.intr {
			if v != hh {
				tmp = append(tmp, v)
			}
		}
		h.intr = tmp
	case HOOK_MEM_READ, HOOK_MEM_WRITE, HOOK_MEM_READ | HOOK_MEM_WRITE:
		var tmp []*memHook
		for _, v := range h.mem {
			if v != hh {
				tmp = append(tmp, v)
			}
		}
		h.mem = tmp
	}
	return nil
}

// Empty is true when no hook of any type is installed.
func (h *Hooks) Empty() bool {
	return len(h.block) == 0 && len(h.intr) == 0 && len(h.mem) == 0
}

// HasMem lets the caller skip building memory hook arguments.
func (h *Hooks) HasMem() bool {
	return len(h.mem) > 0
}

func (h *Hooks) OnBlock(addr, size uint32) {
	for _, v := range h.block {
		if v.Contains(addr) {
			v.cb(h.cpu, addr, size)
		}
	}
}

func (h *Hooks) OnIntr(vector uint32) {
	for _, v := range h.intr {
		v.cb(h.cpu, vector)
	}
}

func (h *Hooks) OnMem(access int, addr uint32, size int, val uint32) {
	for _, v := range h.mem {
		if !v.Contains(addr) {
			continue
		}
		if access == MEM_WRITE && v.htype&HOOK_MEM_WRITE == 0 {
			continue
		}
		if access != MEM_WRITE && v.htype&HOOK_MEM_READ == 0 {
			continue
		}
		v.cb(h.cpu, access, addr, size, val)
	}
}
