package mars

import (
	"encoding/binary"

	"github.com/pkg/errors"

	"github.com/lunixbochs/sh2corn/go/cpu/sh2"
	"github.com/lunixbochs/sh2corn/go/models"
	"github.com/lunixbochs/sh2corn/go/models/cpu"
)

// address map, as seen from either core with the cache-through bit cleared
const (
	BootBase = 0x00000000
	BootSize = 0x800

	SysRegBase = 0x00004000
	SysRegSize = 0x100
	CommBase   = 0x00004020
	CommSize   = 0x10

	RomBase = 0x02000000
	RomSize = 0x400000

	FrameBase = 0x04000000
	FrameSize = 0x40000

	SdramBase = 0x06000000
	SdramSize = 0x40000

	CacheDataBase = 0xc0000000
	CacheDataSize = 0x1000

	OnChipBase = 0xfffffe00
	OnChipSize = 0x200

	// secondary core's power-on vectors, in the upper half of boot RAM
	SecondaryBoot = 0x400
)

type mapping struct {
	addr, size uint32
	prot       int
	desc       string
}

var layout = []mapping{
	{BootBase, BootSize, cpu.PROT_ALL, "boot"},
	{SysRegBase, SysRegSize, cpu.PROT_READ | cpu.PROT_WRITE, "sysreg"},
	{RomBase, RomSize, cpu.PROT_READ | cpu.PROT_EXEC, "rom"},
	{FrameBase, FrameSize, cpu.PROT_READ | cpu.PROT_WRITE, "framebuffer"},
	{SdramBase, SdramSize, cpu.PROT_ALL, "sdram"},
	{CacheDataBase, CacheDataSize, cpu.PROT_ALL, "cache data"},
	{OnChipBase, OnChipSize, cpu.PROT_READ | cpu.PROT_WRITE, "onchip"},
}

// Bus is the memory both cores share. Accesses outside the map read as
// open bus (zero) and are dropped on write, with a warning per page.
type Bus struct {
	*cpu.Mem
	config *models.Config

	OpenBus uint64
	warned  map[uint32]bool
}

func NewBus(config *models.Config) (*Bus, error) {
	b := &Bus{
		Mem:    cpu.NewMem(binary.BigEndian),
		config: config,
		warned: make(map[uint32]bool),
	}
	for _, m := range layout {
		if _, err := b.MemMapProt(m.addr, m.size, m.prot, m.desc); err != nil {
			return nil, errors.Wrap(err, "mapping "+m.desc)
		}
	}
	return b, nil
}

// Load copies an image into memory, ignoring protections. Watchers are told
// as for any write.
func (b *Bus) Load(addr uint32, data []byte) error {
	if err := b.MemWrite(sh2.Canonical(addr), data); err != nil {
		return errors.Wrapf(err, "loading %d bytes at %#08x", len(data), addr)
	}
	return nil
}

func (b *Bus) open(addr uint32, err error) {
	b.OpenBus++
	page := addr &^ 0xfff
	if !b.warned[page] {
		b.warned[page] = true
		b.config.Warnf("open bus: %v\n", err)
	}
}

func (b *Bus) read(addr uint32, size, prot int) uint32 {
	addr = sh2.Canonical(addr)
	v, err := b.ReadUint(addr, size, prot)
	if err != nil {
		b.open(addr, err)
		return 0
	}
	return v
}

func (b *Bus) write(addr uint32, size int, v uint32) {
	addr = sh2.Canonical(addr)
	if err := b.WriteUint(addr, size, cpu.PROT_WRITE, v); err != nil {
		b.open(addr, err)
	}
}

func (b *Bus) Read8(addr uint32) uint8   { return uint8(b.read(addr, 1, cpu.PROT_READ)) }
func (b *Bus) Read16(addr uint32) uint16 { return uint16(b.read(addr, 2, cpu.PROT_READ)) }
func (b *Bus) Read32(addr uint32) uint32 { return b.read(addr, 4, cpu.PROT_READ) }
func (b *Bus) Fetch(pc uint32) uint16    { return uint16(b.read(pc, 2, cpu.PROT_EXEC)) }

func (b *Bus) Write8(addr uint32, v uint8)   { b.write(addr, 1, uint32(v)) }
func (b *Bus) Write16(addr uint32, v uint16) { b.write(addr, 2, uint32(v)) }
func (b *Bus) Write32(addr uint32, v uint32) { b.write(addr, 4, v) }

var _ sh2.Bus = &Bus{}
