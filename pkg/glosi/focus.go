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

package glosi

import "fmt"

// WindowFocuser brings a fixed top-level window to the foreground, usually
// the launcher front-end the user was in before the helper appeared.
type WindowFocuser struct {
	platform Platform
	class    string
	title    string
}

func NewWindowFocuser(platform Platform, class, title string) *WindowFocuser {
	return &WindowFocuser{platform: platform, class: class, title: title}
}

// Focus finds the window and focuses it. A missing window is not an error.
func (f *WindowFocuser) Focus() error {
	w, found, err := f.platform.FindWindow(f.class, f.title)
	if err != nil {
		return fmt.Errorf("find window to focus: %w", err)
	}
	if !found {
		return nil
	}
	return f.platform.FocusWindow(w)
}
