package models

import (
	"encoding/binary"
	"io"

	"github.com/lunixbochs/struc"
	"github.com/pkg/errors"
)

type StrucStream struct {
	Stream io.ReadWriter
	Order  binary.ByteOrder
}

// Pack packs each value in order, stopping at the first error.
func (s *StrucStream) Pack(vals ...interface{}) error {
	for _, v := range vals {
		if err := struc.PackWithOrder(s.Stream, v, s.Order); err != nil {
			return errors.Wrap(err, "struc pack")
		}
	}
	return nil
}

func (s *StrucStream) Unpack(vals ...interface{}) error {
	for _, v := range vals {
		if err := struc.UnpackWithOrder(s.Stream, v, s.Order); err != nil {
			return errors.Wrap(err, "struc unpack")
		}
	}
	return nil
}
