// Zaparoo Overlay
// Copyright (c) 2026 The Zaparoo Project Contributors.
// SPDX-License-Identifier: GPL-3.0-or-later
//
// This file is part of Zaparoo Overlay.
//
// Zaparoo Overlay is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// Zaparoo Overlay is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with Zaparoo Overlay.  If not, see <http://www.gnu.org/licenses/>.

// Package vdfbinary reads Valve's binary VDF format, as used by Steam's
// userdata/<id>/config/shortcuts.vdf.
//
// The layout follows github.com/TimDeve/valve-vdf-binary (MIT).
package vdfbinary

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"strings"
)

// maxDepth bounds map nesting. shortcuts.vdf nests three levels (root,
// shortcuts, entry, tags), so anything deeper is garbage.
const maxDepth = 16

var (
	ErrEmptyVDF     = errors.New("vdf is empty")
	ErrNotBinaryVDF = errors.New("vdf is not binary, possibly a text vdf")
	ErrCorruptedVDF = errors.New("vdf ended early, the file might be corrupted")
	ErrTooDeep      = errors.New("vdf nesting too deep")
)

// decoder tracks the byte offset so errors can point into the file.
type decoder struct {
	r     *bufio.Reader
	off   int64
	depth int
}

// Parse decodes a whole binary VDF document into its root map node.
func Parse(r io.Reader) (VdfValue, error) {
	d := &decoder{r: bufio.NewReader(r)}

	head, err := d.r.Peek(1)
	if errors.Is(err, io.EOF) {
		return vdfValue{}, ErrEmptyVDF
	}
	if err != nil {
		return vdfValue{}, fmt.Errorf("peek vdf header: %w", err)
	}
	switch head[0] {
	case vdfMarkerMap, vdfMarkerString, vdfMarkerNumber, vdfMarkerEndOfMap:
	default:
		return vdfValue{}, ErrNotBinaryVDF
	}

	root, err := d.mapNode()
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return vdfValue{}, fmt.Errorf("%w (offset %d)", ErrCorruptedVDF, d.off)
	}
	return root, err
}

func (d *decoder) readByte() (byte, error) {
	b, err := d.r.ReadByte()
	if err != nil {
		return 0, err //nolint:wrapcheck // EOF is matched by Parse
	}
	d.off++
	return b, nil
}

func (d *decoder) mapNode() (vdfValue, error) {
	d.depth++
	defer func() { d.depth-- }()
	if d.depth > maxDepth {
		return vdfValue{}, fmt.Errorf("%w at offset %d", ErrTooDeep, d.off)
	}

	m := make(VdfMap)
	for {
		marker, err := d.readByte()
		if err != nil {
			return vdfValue{}, err
		}
		if marker == vdfMarkerEndOfMap {
			return vdfValue{m}, nil
		}

		key, err := d.cstring()
		if err != nil {
			return vdfValue{}, err
		}

		var v vdfValue
		switch marker {
		case vdfMarkerMap:
			v, err = d.mapNode()
		case vdfMarkerNumber:
			v, err = d.uint32Node()
		case vdfMarkerString:
			var s string
			s, err = d.cstring()
			v = vdfValue{s}
		default:
			err = fmt.Errorf("unexpected marker 0x%02x for key %q at offset %d", marker, key, d.off-1)
		}
		if err != nil {
			return vdfValue{}, err
		}

		m[strings.ToLower(key)] = v
	}
}

func (d *decoder) uint32Node() (vdfValue, error) {
	var raw [4]byte
	n, err := io.ReadFull(d.r, raw[:])
	d.off += int64(n)
	if err != nil {
		return vdfValue{}, err //nolint:wrapcheck // EOF is matched by Parse
	}
	return vdfValue{binary.LittleEndian.Uint32(raw[:])}, nil
}

func (d *decoder) cstring() (string, error) {
	s, err := d.r.ReadString(vdfMarkerEndOfString)
	d.off += int64(len(s))
	if err != nil {
		return "", err //nolint:wrapcheck // EOF is matched by Parse
	}
	return s[:len(s)-1], nil
}
