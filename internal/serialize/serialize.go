// Package serialize reads and writes the binary module format (§6.3):
// a Chunk is flattened to a self-contained blob a VM can load without
// the original source, and the reverse operation. Every fixed-width
// field is big-endian via encoding/binary, matching the byte-order
// discipline the rest of this pack's serialization code already uses.
package serialize

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/lone-wolf-akela/foxlox/internal/bytecode"
	"github.com/lone-wolf-akela/foxlox/internal/config"
)

// ErrWrongFormat is returned when a blob does not begin with the magic header.
var ErrWrongFormat = errors.New("Wrong binary format.")

// Write encodes chunk into its binary module representation.
func Write(chunk *bytecode.Chunk) []byte {
	var buf bytes.Buffer
	buf.Write(config.ModuleMagic[:])

	writeStr(&buf, chunk.SourcePath)

	writeI64(&buf, int64(len(chunk.SourcePerLine)))
	for _, line := range chunk.SourcePerLine {
		writeStr(&buf, line)
	}

	writeI64(&buf, int64(len(chunk.Subroutines)))
	for _, s := range chunk.Subroutines {
		writeSubroutine(&buf, s)
	}

	writeI64(&buf, int64(len(chunk.Classes)))
	for _, c := range chunk.Classes {
		writeClass(&buf, c)
	}

	writeI64(&buf, int64(len(chunk.Exports)))
	for _, e := range chunk.Exports {
		writeU16(&buf, e.NameIdx)
		writeU16(&buf, e.ValueIdx)
	}

	writeI64(&buf, int64(len(chunk.Constants)))
	for _, c := range chunk.Constants {
		buf.WriteByte(byte(c.Kind))
		if c.Kind == bytecode.ConstInt {
			writeI64(&buf, c.Int)
		} else {
			writeF64(&buf, c.Float)
		}
	}

	writeI64(&buf, int64(len(chunk.ConstStrings)))
	for _, s := range chunk.ConstStrings {
		writeStr(&buf, s)
	}

	writeU16(&buf, chunk.StaticValueNum)

	return buf.Bytes()
}

func writeSubroutine(buf *bytes.Buffer, s *bytecode.Subroutine) {
	writeI32(buf, int32(s.Arity))
	writeI64(buf, int64(len(s.Code)))
	buf.Write(s.Code)
	writeStr(buf, s.Name)
	writeI64(buf, int64(len(s.Lines.Entries)))
	for _, e := range s.Lines.Entries {
		writeI64(buf, int64(e.Offset))
		writeI32(buf, int32(e.Line))
	}
	writeI64(buf, int64(len(s.StaticRefs)))
	for _, r := range s.StaticRefs {
		writeU16(buf, r)
	}
}

func writeClass(buf *bytes.Buffer, c bytecode.ClassDesc) {
	writeStr(buf, c.Name)
	writeI64(buf, int64(len(c.Methods)))
	for _, m := range c.Methods {
		writeU16(buf, m.NameIdx)
		writeU16(buf, m.FuncIdx)
	}
}

func writeStr(buf *bytes.Buffer, s string) {
	writeI64(buf, int64(len(s)))
	buf.WriteString(s)
}

func writeI32(buf *bytes.Buffer, v int32) { binary.Write(buf, binary.BigEndian, v) }
func writeI64(buf *bytes.Buffer, v int64) { binary.Write(buf, binary.BigEndian, v) }
func writeF64(buf *bytes.Buffer, v float64) { binary.Write(buf, binary.BigEndian, v) }
func writeU16(buf *bytes.Buffer, v uint16) { binary.Write(buf, binary.BigEndian, v) }

// Read decodes a blob previously produced by Write into a Chunk.
func Read(blob []byte) (*bytecode.Chunk, error) {
	if len(blob) < len(config.ModuleMagic) || !bytes.Equal(blob[:len(config.ModuleMagic)], config.ModuleMagic[:]) {
		return nil, ErrWrongFormat
	}
	r := bytes.NewReader(blob[len(config.ModuleMagic):])
	chunk := &bytecode.Chunk{}

	var err error
	if chunk.SourcePath, err = readStr(r); err != nil {
		return nil, err
	}

	nLines, err := readI64(r)
	if err != nil {
		return nil, err
	}
	chunk.SourcePerLine = make([]string, nLines)
	for i := range chunk.SourcePerLine {
		if chunk.SourcePerLine[i], err = readStr(r); err != nil {
			return nil, err
		}
	}

	nSubs, err := readI64(r)
	if err != nil {
		return nil, err
	}
	chunk.Subroutines = make([]*bytecode.Subroutine, nSubs)
	for i := range chunk.Subroutines {
		if chunk.Subroutines[i], err = readSubroutine(r); err != nil {
			return nil, err
		}
	}

	nClasses, err := readI64(r)
	if err != nil {
		return nil, err
	}
	chunk.Classes = make([]bytecode.ClassDesc, nClasses)
	for i := range chunk.Classes {
		if chunk.Classes[i], err = readClass(r); err != nil {
			return nil, err
		}
	}

	nExports, err := readI64(r)
	if err != nil {
		return nil, err
	}
	chunk.Exports = make([]bytecode.Export, nExports)
	for i := range chunk.Exports {
		nameIdx, err := readU16(r)
		if err != nil {
			return nil, err
		}
		valueIdx, err := readU16(r)
		if err != nil {
			return nil, err
		}
		chunk.Exports[i] = bytecode.Export{NameIdx: nameIdx, ValueIdx: valueIdx}
	}

	nConsts, err := readI64(r)
	if err != nil {
		return nil, err
	}
	chunk.Constants = make([]bytecode.Constant, nConsts)
	for i := range chunk.Constants {
		kindByte, err := r.ReadByte()
		if err != nil {
			return nil, err
		}
		c := bytecode.Constant{Kind: bytecode.ConstKind(kindByte)}
		if c.Kind == bytecode.ConstInt {
			if c.Int, err = readI64(r); err != nil {
				return nil, err
			}
		} else {
			if c.Float, err = readF64(r); err != nil {
				return nil, err
			}
		}
		chunk.Constants[i] = c
	}

	nStr, err := readI64(r)
	if err != nil {
		return nil, err
	}
	chunk.ConstStrings = make([]string, nStr)
	for i := range chunk.ConstStrings {
		if chunk.ConstStrings[i], err = readStr(r); err != nil {
			return nil, err
		}
	}

	if chunk.StaticValueNum, err = readU16(r); err != nil {
		return nil, err
	}

	return chunk, nil
}

func readSubroutine(r *bytes.Reader) (*bytecode.Subroutine, error) {
	arity, err := readI32(r)
	if err != nil {
		return nil, err
	}
	codeLen, err := readI64(r)
	if err != nil {
		return nil, err
	}
	code := make([]byte, codeLen)
	if _, err := io.ReadFull(r, code); err != nil {
		return nil, err
	}
	name, err := readStr(r)
	if err != nil {
		return nil, err
	}
	nLines, err := readI64(r)
	if err != nil {
		return nil, err
	}
	var lt bytecode.LineTable
	lt.Entries = make([]bytecode.LineEntry, nLines)
	for i := range lt.Entries {
		off, err := readI64(r)
		if err != nil {
			return nil, err
		}
		line, err := readI32(r)
		if err != nil {
			return nil, err
		}
		lt.Entries[i] = bytecode.LineEntry{Offset: int(off), Line: int(line)}
	}
	nRefs, err := readI64(r)
	if err != nil {
		return nil, err
	}
	refs := make([]uint16, nRefs)
	for i := range refs {
		if refs[i], err = readU16(r); err != nil {
			return nil, err
		}
	}
	return &bytecode.Subroutine{
		Arity:      int(arity),
		Code:       code,
		Lines:      lt,
		Name:       name,
		StaticRefs: refs,
	}, nil
}

func readClass(r *bytes.Reader) (bytecode.ClassDesc, error) {
	name, err := readStr(r)
	if err != nil {
		return bytecode.ClassDesc{}, err
	}
	nMethods, err := readI64(r)
	if err != nil {
		return bytecode.ClassDesc{}, err
	}
	methods := make([]bytecode.MethodEntry, nMethods)
	for i := range methods {
		nameIdx, err := readU16(r)
		if err != nil {
			return bytecode.ClassDesc{}, err
		}
		funcIdx, err := readU16(r)
		if err != nil {
			return bytecode.ClassDesc{}, err
		}
		methods[i] = bytecode.MethodEntry{NameIdx: nameIdx, FuncIdx: funcIdx}
	}
	return bytecode.ClassDesc{Name: name, Methods: methods}, nil
}

func readStr(r *bytes.Reader) (string, error) {
	n, err := readI64(r)
	if err != nil {
		return "", err
	}
	if n < 0 {
		return "", fmt.Errorf("serialize: negative string length %d", n)
	}
	b := make([]byte, n)
	if _, err := io.ReadFull(r, b); err != nil {
		return "", err
	}
	return string(b), nil
}

func readI32(r *bytes.Reader) (int32, error) {
	var v int32
	err := binary.Read(r, binary.BigEndian, &v)
	return v, err
}

func readI64(r *bytes.Reader) (int64, error) {
	var v int64
	err := binary.Read(r, binary.BigEndian, &v)
	return v, err
}

func readF64(r *bytes.Reader) (float64, error) {
	var v float64
	err := binary.Read(r, binary.BigEndian, &v)
	return v, err
}

func readU16(r *bytes.Reader) (uint16, error) {
	var v uint16
	err := binary.Read(r, binary.BigEndian, &v)
	return v, err
}
