package models

import (
	"bytes"
	"encoding/binary"
	"hash/crc32"
	"io"

	"github.com/golang/snappy"
	"github.com/pkg/errors"

	"github.com/lunixbochs/sh2corn/go/models/cpu"
)

// savestate format, all big-endian:
//
// file header
// uint32(magic "SH2S")
// uint32(savestate format version)
// uint32(crc32 of compressed data)
// uint64(length of compressed data)
// remainder is snappy-compressed
//
// -- uncompressed data start --
// uint32(number of cores), uint32(number of mapped sections)
// 1..cores: uint32(len), <core context of len>
// 1..sections: uint32(addr), uint32(len), uint32(prot), <raw memory bytes of len>

const (
	saveMagic   = 0x53483253
	saveVersion = 1
)

type saveHeader struct {
	Magic   uint32
	Version uint32
	Crc     uint32
	Length  uint64
}

type saveBody struct {
	Cores, Pages uint32
}

type saveBlob struct {
	Len uint32
}

type savePage struct {
	Addr, Size, Prot uint32
}

// SaveMachine writes every core's context and all mapped memory.
func SaveMachine(w io.Writer, cores []cpu.Cpu, mem *cpu.Mem) error {
	var body bytes.Buffer
	s := StrucStream{&body, binary.BigEndian}
	pages := mem.Mappings()
	if err := s.Pack(&saveBody{uint32(len(cores)), uint32(len(pages))}); err != nil {
		return err
	}
	var ctx bytes.Buffer
	for i, c := range cores {
		ctx.Reset()
		if err := c.ContextSave(&ctx); err != nil {
			return errors.Wrapf(err, "saving core %d", i)
		}
		if err := s.Pack(&saveBlob{uint32(ctx.Len())}); err != nil {
			return err
		}
		body.Write(ctx.Bytes())
	}
	for _, pg := range pages {
		if err := s.Pack(&savePage{pg.Addr, pg.Size, uint32(pg.Prot)}); err != nil {
			return err
		}
		body.Write(pg.Data)
	}

	data := snappy.Encode(nil, body.Bytes())
	var head bytes.Buffer
	s = StrucStream{&head, binary.BigEndian}
	if err := s.Pack(&saveHeader{saveMagic, saveVersion, crc32.ChecksumIEEE(data), uint64(len(data))}); err != nil {
		return err
	}
	if _, err := w.Write(head.Bytes()); err != nil {
		return errors.Wrap(err, "writing savestate")
	}
	if _, err := w.Write(data); err != nil {
		return errors.Wrap(err, "writing savestate")
	}
	return nil
}

// LoadMachine restores a SaveMachine stream into a machine with the same
// cores and memory map. Memory is written before the cores are restored.
func LoadMachine(r io.Reader, cores []cpu.Cpu, mem *cpu.Mem) error {
	var head saveHeader
	if err := (&StrucStream{readOnly{r}, binary.BigEndian}).Unpack(&head); err != nil {
		return errors.Wrap(err, "reading savestate header")
	}
	if head.Magic != saveMagic {
		return errors.Errorf("not a savestate: magic %#x", head.Magic)
	}
	if head.Version != saveVersion {
		return errors.Errorf("unsupported savestate version %d", head.Version)
	}
	data := make([]byte, head.Length)
	if _, err := io.ReadFull(r, data); err != nil {
		return errors.Wrap(err, "reading savestate body")
	}
	if crc := crc32.ChecksumIEEE(data); crc != head.Crc {
		return errors.Errorf("savestate checksum mismatch: %#x != %#x", crc, head.Crc)
	}
	raw, err := snappy.Decode(nil, data)
	if err != nil {
		return errors.Wrap(err, "decompressing savestate")
	}
	body := bytes.NewBuffer(raw)
	s := StrucStream{body, binary.BigEndian}

	var hdr saveBody
	if err := s.Unpack(&hdr); err != nil {
		return err
	}
	if int(hdr.Cores) != len(cores) {
		return errors.Errorf("savestate has %d cores, machine has %d", hdr.Cores, len(cores))
	}
	contexts := make([][]byte, len(cores))
	for i := range contexts {
		var blob saveBlob
		if err := s.Unpack(&blob); err != nil {
			return err
		}
		if contexts[i] = body.Next(int(blob.Len)); len(contexts[i]) != int(blob.Len) {
			return errors.Errorf("core %d context truncated", i)
		}
	}
	for i := uint32(0); i < hdr.Pages; i++ {
		var sp savePage
		if err := s.Unpack(&sp); err != nil {
			return err
		}
		pg := mem.Mappings().Find(sp.Addr)
		if pg == nil || pg.Addr != sp.Addr || pg.Size != sp.Size {
			return errors.Errorf("savestate mapping %#08x+%#x not in memory map", sp.Addr, sp.Size)
		}
		chunk := body.Next(int(sp.Size))
		if len(chunk) != int(sp.Size) {
			return errors.Errorf("mapping %#08x truncated", sp.Addr)
		}
		if err := mem.MemWrite(sp.Addr, chunk); err != nil {
			return err
		}
	}
	for i, c := range cores {
		if err := c.ContextRestore(bytes.NewReader(contexts[i])); err != nil {
			return errors.Wrapf(err, "restoring core %d", i)
		}
	}
	return nil
}

// readOnly lets a plain reader back a StrucStream used only to unpack.
type readOnly struct {
	io.Reader
}

func (readOnly) Write(p []byte) (int, error) {
	return 0, errors.New("read-only stream")
}
