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

package vdfbinary

import "strings"

const (
	vdfMarkerMap         byte = 0x00
	vdfMarkerString      byte = 0x01
	vdfMarkerNumber      byte = 0x02
	vdfMarkerEndOfMap    byte = 0x08
	vdfMarkerEndOfString byte = 0x00
)

// VdfMap is a parsed map node. Keys are stored lowercased.
type VdfMap map[string]vdfValue

// VdfValue is any node of a parsed binary VDF document.
type VdfValue interface {
	GetMap(key string) (VdfMap, bool)
	GetString(key string) (string, bool)
	GetUint(key string) (uint32, bool)
	GetBool(key string) (bool, bool)
	AsString() (string, bool)
	AsUint() (uint32, bool)
	AsMap() (VdfMap, bool)
}

type vdfValue struct {
	v any
}

var _ VdfValue = vdfValue{}

func (v vdfValue) AsMap() (VdfMap, bool) {
	m, ok := v.v.(VdfMap)
	return m, ok
}

func (v vdfValue) AsString() (string, bool) {
	s, ok := v.v.(string)
	return s, ok
}

func (v vdfValue) AsUint() (uint32, bool) {
	n, ok := v.v.(uint32)
	return n, ok
}

func (v vdfValue) child(key string) (vdfValue, bool) {
	m, ok := v.AsMap()
	if !ok {
		return vdfValue{}, false
	}
	c, ok := m[strings.ToLower(key)]
	return c, ok
}

func (v vdfValue) GetMap(key string) (VdfMap, bool) {
	c, ok := v.child(key)
	if !ok {
		return nil, false
	}
	return c.AsMap()
}

func (v vdfValue) GetString(key string) (string, bool) {
	c, ok := v.child(key)
	if !ok {
		return "", false
	}
	return c.AsString()
}

func (v vdfValue) GetUint(key string) (uint32, bool) {
	c, ok := v.child(key)
	if !ok {
		return 0, false
	}
	return c.AsUint()
}

// GetBool reads a number node as a boolean, Steam stores flags as 0/1.
func (v vdfValue) GetBool(key string) (bool, bool) {
	n, ok := v.GetUint(key)
	return n != 0, ok
}
