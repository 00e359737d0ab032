package cpu

// memory protections
const (
	PROT_NONE  = 0
	PROT_READ  = 1 << 0
	PROT_WRITE = 1 << 1
	PROT_EXEC  = 1 << 2
	PROT_ALL   = PROT_READ | PROT_WRITE | PROT_EXEC
)

// access kinds passed to memory hooks
const (
	MEM_READ = iota + 1
	MEM_WRITE
	MEM_FETCH
)

// MemError.Enum values
const (
	MEM_READ_UNMAPPED = iota + 0x10
	MEM_WRITE_UNMAPPED
	MEM_FETCH_UNMAPPED
	MEM_READ_PROT
	MEM_WRITE_PROT
	MEM_FETCH_PROT
)

// hook types accepted by Hooks.HookAdd
const (
	HOOK_INTR  = 1 << 0 // exception or interrupt taken
	HOOK_BLOCK = 1 << 3 // block entry

	HOOK_MEM_READ  = 1 << 10
	HOOK_MEM_WRITE = 1 << 11
)
