package sh2

import (
	"encoding/binary"
	"io"

	"github.com/lunixbochs/struc"
	"github.com/pkg/errors"
)

// State is everything a core needs to resume. It is flat and fixed size so
// it packs directly into a snapshot.
type State struct {
	R    [16]uint32 `struc:"[16]uint32"`
	SR   uint32
	GBR  uint32
	VBR  uint32
	MACH uint32
	MACL uint32
	PR   uint32
	PC   uint32

	// branch target pending behind a delay slot
	DelayPC uint32
	InDelay bool `struc:"bool"`
	// parked by SLEEP until an interrupt is accepted
	Sleeping bool `struc:"bool"`
	// latched whenever a MAC with S=1 saturates
	MACSat bool `struc:"bool"`

	// remaining budget of the current Run
	Cycles   int32
	Consumed uint64
}

func (s *State) T() bool { return s.SR&SR_T != 0 }
func (s *State) S() bool { return s.SR&SR_S != 0 }
func (s *State) Q() bool { return s.SR&SR_Q != 0 }
func (s *State) M() bool { return s.SR&SR_M != 0 }

func (s *State) IMask() int {
	return int(s.SR&SR_I) >> SR_ISHFT
}

func (s *State) SetT(v bool) {
	if v {
		s.SR |= SR_T
	} else {
		s.SR &^= SR_T
	}
}

func (s *State) SetQ(v bool) {
	if v {
		s.SR |= SR_Q
	} else {
		s.SR &^= SR_Q
	}
}

func (s *State) SetM(v bool) {
	if v {
		s.SR |= SR_M
	} else {
		s.SR &^= SR_M
	}
}

func (s *State) SetIMask(level int) {
	s.SR = s.SR&^SR_I | uint32(level&0xf)<<SR_ISHFT
}

func (s *State) tbit() uint32 {
	return s.SR & SR_T
}

// Reset puts the core in its power-on state. PC and SP come from the vector
// table at vbr.
func (s *State) Reset(pc, sp uint32) {
	*s = State{}
	s.SR = SR_I
	s.PC = pc
	s.R[SP] = sp
}

func (s *State) Pack(w io.Writer) error {
	return errors.Wrap(struc.PackWithOrder(w, s, binary.BigEndian), "packing cpu state")
}

func (s *State) Unpack(r io.Reader) error {
	var tmp State
	if err := struc.UnpackWithOrder(r, &tmp, binary.BigEndian); err != nil {
		return errors.Wrap(err, "unpacking cpu state")
	}
	*s = tmp
	return nil
}
