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

package steam

// CRC is a parameterised bit-by-bit CRC calculator (Rocksoft model).
//
// Steam computes shortcut IDs with this exact algorithm, so it is kept in its
// bit-serial form instead of a table driven one. Init is interpreted as the
// direct initial value when Direct is set; the non-direct value the bit loop
// starts from is derived by running Init backwards through the polynomial.
type CRC struct {
	Width  uint
	Poly   uint64
	Init   uint64
	XorOut uint64
	Direct bool
	RefIn  bool
	RefOut bool
}

// CRC32 is the parameter set Steam uses for shortcut IDs.
var CRC32 = CRC{
	Width:  32,
	Poly:   0x04C11DB7,
	Init:   0xFFFFFFFF,
	Direct: true,
	RefIn:  true,
	RefOut: true,
	XorOut: 0xFFFFFFFF,
}

func (c CRC) mask() uint64 {
	return (uint64(1)<<(c.Width-1)-1)<<1 | 1
}

func (c CRC) highBit() uint64 {
	return uint64(1) << (c.Width - 1)
}

// nonDirectInit returns the register value the bit loop starts from.
func (c CRC) nonDirectInit() uint64 {
	if !c.Direct {
		return c.Init & c.mask()
	}
	high := c.highBit()
	crc := c.Init & c.mask()
	for range c.Width {
		bit := crc & 1
		if bit != 0 {
			crc ^= c.Poly
		}
		crc >>= 1
		if bit != 0 {
			crc |= high
		}
	}
	return crc
}

// Checksum computes the CRC of data, treating each byte as one input symbol.
func (c CRC) Checksum(data []byte) uint64 {
	mask := c.mask()
	high := c.highBit()
	crc := c.nonDirectInit()

	for _, b := range data {
		in := uint64(b)
		if c.RefIn {
			in = reflect(in, 8)
		}
		for j := uint64(0x80); j != 0; j >>= 1 {
			bit := crc & high
			crc = (crc << 1) & mask
			if in&j != 0 {
				crc |= 1
			}
			if bit != 0 {
				crc ^= c.Poly
			}
		}
	}

	// augment with Width zero bits
	for range c.Width {
		bit := crc & high
		crc = (crc << 1) & mask
		if bit != 0 {
			crc ^= c.Poly
		}
	}

	if c.RefOut {
		crc = reflect(crc, c.Width)
	}
	return (crc ^ c.XorOut) & mask
}

func reflect(v uint64, bits uint) uint64 {
	var out uint64
	for i := range bits {
		if v&(uint64(1)<<i) != 0 {
			out |= uint64(1) << (bits - 1 - i)
		}
	}
	return out
}
