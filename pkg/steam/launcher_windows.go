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

//go:build windows

package steam

import "github.com/ZaparooProject/zaparoo-overlay/pkg/helpers/command"

// start's first quoted argument is the window title, so it is left empty.
func (*Launcher) shellCommand(url string) command.Cmd {
	return command.Cmd{
		Name:       "cmd",
		Args:       []string{"/c", "start", "", url},
		HideWindow: true,
	}
}
