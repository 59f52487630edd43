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

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ZaparooProject/zaparoo-overlay/pkg/helpers/syncutil"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
)

// LaunchSettings is the "launch" object of a target configuration: what the
// helper starts by itself while it runs.
type LaunchSettings struct {
	LaunchPath        string   `json:"launchPath"`
	LaunchAppArgs     string   `json:"launchAppArgs"`
	LauncherProcesses []string `json:"launcherProcesses,omitempty"`
	Launch            bool     `json:"launch"`
	CloseOnExit       bool     `json:"closeOnExit"`
	WaitForChildProcs bool     `json:"waitForChildProcs"`
	IsUWP             bool     `json:"isUWP"`
	IgnoreLauncher    bool     `json:"ignoreLauncher"`
	KillLauncher      bool     `json:"killLauncher"`
}

// Target is the part of a helper target configuration this service reads.
// The files carry many more settings, which are preserved on write.
type Target struct {
	Name    string         `json:"name" validate:"required"`
	Launch  LaunchSettings `json:"launch"`
	Version int            `json:"version" validate:"gte=0"`
}

var targetValidator = validator.New(validator.WithRequiredStructEnabled())

// Validate checks the fields the coordinator depends on.
func (t *Target) Validate() error {
	if err := targetValidator.Struct(t); err != nil {
		return fmt.Errorf("invalid target configuration: %w", err)
	}
	return nil
}

// Targets reads and updates target configuration files in one directory.
type Targets struct {
	fs  afero.Fs
	dir string
	mu  syncutil.Mutex
}

// NewTargets creates a store over dir on the OS filesystem.
func NewTargets(dir string) *Targets {
	return NewTargetsFs(afero.NewOsFs(), dir)
}

// NewTargetsFs creates a store over dir on the given filesystem.
func NewTargetsFs(fs afero.Fs, dir string) *Targets {
	return &Targets{fs: fs, dir: dir}
}

// Dir returns the directory the store reads from.
func (t *Targets) Dir() string {
	return t.dir
}

// Path returns the configuration file path for a target name.
func (t *Targets) Path(name string) string {
	return filepath.Join(t.dir, TargetFileName(name))
}

// Exists reports whether a configuration file exists for name.
func (t *Targets) Exists(name string) bool {
	ok, err := afero.Exists(t.fs, t.Path(name))
	if err != nil {
		log.Warn().Err(err).Str("target", name).Msg("error checking target configuration")
		return false
	}
	return ok
}

// Read loads and validates the configuration of a target.
func (t *Targets) Read(name string) (*Target, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	data, err := t.readFile(name)
	if err != nil {
		return nil, err
	}
	return ParseTarget(data)
}

// ParseTarget decodes and validates a target configuration document.
func ParseTarget(data []byte) (*Target, error) {
	var target Target
	if err := json.Unmarshal(data, &target); err != nil {
		return nil, fmt.Errorf("failed to unmarshal target configuration: %w", err)
	}
	if err := target.Validate(); err != nil {
		return nil, err
	}
	return &target, nil
}

// SetAutoLaunch sets launch.launch in a target configuration, leaving every
// other field untouched. It reports whether the file was changed.
func (t *Targets) SetAutoLaunch(name string, enabled bool) (bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	data, err := t.readFile(name)
	if err != nil {
		return false, err
	}

	var doc map[string]json.RawMessage
	if err := json.Unmarshal(data, &doc); err != nil {
		return false, fmt.Errorf("failed to unmarshal target configuration: %w", err)
	}

	launch := make(map[string]json.RawMessage)
	if raw, ok := doc["launch"]; ok && !bytes.Equal(raw, []byte("null")) {
		if err := json.Unmarshal(raw, &launch); err != nil {
			return false, fmt.Errorf("failed to unmarshal launch settings: %w", err)
		}
	}

	if raw, ok := launch["launch"]; ok {
		var current bool
		if err := json.Unmarshal(raw, &current); err != nil {
			log.Warn().Err(err).Str("target", name).Msg("invalid launch flag in target, rewriting it")
		} else if current == enabled {
			return false, nil
		}
	}

	launch["launch"] = json.RawMessage(fmt.Sprintf("%t", enabled))
	rawLaunch, err := json.Marshal(launch)
	if err != nil {
		return false, fmt.Errorf("failed to marshal launch settings: %w", err)
	}
	doc["launch"] = rawLaunch

	out, err := json.MarshalIndent(doc, "", "    ")
	if err != nil {
		return false, fmt.Errorf("failed to marshal target configuration: %w", err)
	}

	if err := t.writeFile(name, out); err != nil {
		return false, err
	}

	log.Debug().Str("target", name).Bool("launch", enabled).Msg("updated target auto-launch")
	return true, nil
}

func (t *Targets) readFile(name string) ([]byte, error) {
	data, err := afero.ReadFile(t.fs, t.Path(name))
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrTargetNotFound, name)
	} else if err != nil {
		return nil, fmt.Errorf("failed to read target configuration: %w", err)
	}
	return data, nil
}

// writeFile replaces the file via a temp file so the helper never reads a
// partially written configuration.
func (t *Targets) writeFile(name string, data []byte) error {
	path := t.Path(name)
	tmp := path + ".tmp"

	if err := afero.WriteFile(t.fs, tmp, data, 0o600); err != nil {
		return fmt.Errorf("failed to write target configuration: %w", err)
	}
	if err := t.fs.Rename(tmp, path); err != nil {
		_ = t.fs.Remove(tmp)
		return fmt.Errorf("failed to replace target configuration: %w", err)
	}
	return nil
}
