package cpu

import (
	"io"
)

// Cpu is the surface a core exposes to hooks, the monitor and savestates.
type Cpu interface {
	// register IO, enums are defined by the cpu package
	RegRead(reg int) (uint32, error)
	RegWrite(reg int, val uint32) error
	RegNames() map[int]string

	// execution, returns consumed cycles
	Run(cycles int) int

	// hooks
	HookAdd(htype int, cb interface{}, begin, end uint32) (Hook, error)
	HookDel(hook Hook) error

	// save/restore architectural state
	ContextSave(w io.Writer) error
	ContextRestore(r io.Reader) error
}
