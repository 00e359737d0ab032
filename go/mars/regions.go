package mars

import (
	"github.com/lunixbochs/sh2corn/go/cpu/sh2"
)

const (
	RegionBoot sh2.RegionKind = iota + 1
	RegionSysReg
	RegionComm
	RegionROM
	RegionFrameBuffer
	RegionSDRAM
	RegionCacheData
	RegionOnChip
)

var regionNames = map[sh2.RegionKind]string{
	sh2.RegionUnknown: "unknown",
	RegionBoot:        "boot",
	RegionSysReg:      "sysreg",
	RegionComm:        "comm",
	RegionROM:         "rom",
	RegionFrameBuffer: "framebuffer",
	RegionSDRAM:       "sdram",
	RegionCacheData:   "cache data",
	RegionOnChip:      "onchip",
}

func RegionName(k sh2.RegionKind) string {
	if name, ok := regionNames[k]; ok {
		return name
	}
	return "unknown"
}

func in(addr, base, size uint32) bool {
	return addr >= base && addr-base < size
}

// Regions classifies addresses for the poll detector. Only memory another
// agent can change while a core spins is actionable.
type Regions struct{}

func (Regions) Classify(addr uint32) sh2.RegionKind {
	addr = sh2.Canonical(addr)
	switch {
	case in(addr, CommBase, CommSize):
		return RegionComm
	case in(addr, SysRegBase, SysRegSize):
		return RegionSysReg
	case in(addr, BootBase, BootSize):
		return RegionBoot
	case in(addr, RomBase, RomSize):
		return RegionROM
	case in(addr, FrameBase, FrameSize):
		return RegionFrameBuffer
	case in(addr, SdramBase, SdramSize):
		return RegionSDRAM
	case in(addr, CacheDataBase, CacheDataSize):
		return RegionCacheData
	case addr >= OnChipBase:
		return RegionOnChip
	}
	return sh2.RegionUnknown
}

func (Regions) Actionable(k sh2.RegionKind) bool {
	switch k {
	case RegionSDRAM, RegionFrameBuffer, RegionComm, RegionSysReg:
		return true
	}
	return false
}

var _ sh2.RegionClassifier = Regions{}
