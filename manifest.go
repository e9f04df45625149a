// Copyright 2026 The Govisor Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use file except in compliance with the License.
// You may obtain a copy of the license at
//
//    http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package procvisor

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Duration is a time.Duration written as a string such as "10s" in
// manifests.
type Duration time.Duration

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

func (d *Duration) UnmarshalText(b []byte) error {
	v, e := time.ParseDuration(string(b))
	if e != nil {
		return e
	}
	*d = Duration(v)
	return nil
}

// Manifest describes one supervised process, as loaded from a TOML or JSON
// file by the daemon.
type Manifest struct {
	Name          string            `json:"name" toml:"name"`
	Description   string            `json:"description" toml:"description"`
	RunType       RunType           `json:"runType" toml:"runType"`
	Directory     string            `json:"directory" toml:"directory"`
	Executable    string            `json:"executable" toml:"executable"`
	Arguments     string            `json:"arguments" toml:"arguments"`
	Env           map[string]string `json:"env" toml:"env"`
	InheritParent bool              `json:"inheritParent" toml:"inheritParent"`
	StopTimeout   Duration          `json:"stopTimeout" toml:"stopTimeout"`
}

// Validate checks the fields a Config cannot do without.
func (m *Manifest) Validate() error {
	if m.Name == "" {
		return fmt.Errorf("%w: missing name", ErrBadManifest)
	}
	if m.Executable == "" {
		return fmt.Errorf("%w: missing executable", ErrBadManifest)
	}
	if m.StopTimeout < 0 {
		return fmt.Errorf("%w: negative stopTimeout", ErrBadManifest)
	}
	return nil
}

// Config converts the manifest.  Logger, Metrics and Signaler are left for
// the caller to fill in.
func (m *Manifest) Config() Config {
	cfg := Config{
		RunType: m.RunType,
		Dir:     m.Directory,
		Path:    m.Executable,
		Args:    m.Arguments,
		Env:     m.Env,
	}
	if m.InheritParent {
		cfg.ParentPID = os.Getpid()
	}
	return cfg
}

// NewManifestFromToml decodes a TOML manifest.  Unknown keys are rejected,
// since they are almost always typos.
func NewManifestFromToml(r io.Reader) (*Manifest, error) {
	m := &Manifest{}
	dec := toml.NewDecoder(r)
	dec.DisallowUnknownFields()
	if e := dec.Decode(m); e != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadManifest, e)
	}
	if e := m.Validate(); e != nil {
		return nil, e
	}
	return m, nil
}

func NewManifestFromJson(r io.Reader) (*Manifest, error) {
	m := &Manifest{}
	dec := json.NewDecoder(r)
	if e := dec.Decode(m); e != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadManifest, e)
	}
	if e := m.Validate(); e != nil {
		return nil, e
	}
	return m, nil
}

// LoadManifest reads a manifest file, choosing the format by extension.
// Anything that is not ".json" is read as TOML.
func LoadManifest(path string) (*Manifest, error) {
	f, e := os.Open(path)
	if e != nil {
		return nil, e
	}
	defer f.Close()

	if strings.EqualFold(filepath.Ext(path), ".json") {
		return NewManifestFromJson(f)
	}
	return NewManifestFromToml(f)
}

// NewFromManifest creates a Supervisor for the manifest.  Logger, Metrics,
// Signaler and WaitDelay are taken from base.
func NewFromManifest(m *Manifest, base Config) *Supervisor {
	cfg := m.Config()
	cfg.Logger = base.Logger
	cfg.Metrics = base.Metrics
	cfg.Signaler = base.Signaler
	cfg.WaitDelay = base.WaitDelay
	return New(cfg)
}
