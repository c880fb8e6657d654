/*
 * MIT License
 *
 * Copyright (c) 2020 Nicolas JUHEL
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in all
 * copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 *
 *
 */

package netcfg

import (
	"fmt"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

// FuncViper is called whenever the backing source reloads, mirroring the
// teacher's viper.FuncViper injection hook.
type FuncViper func(v *viper.Viper)

// Loader wraps one viper.Viper instance as a vtree-like node: every
// section is addressed by a dotted key and decoded on demand into a typed
// struct, rather than bound up front into a DI component graph.
type Loader struct {
	v        *viper.Viper
	onChange []FuncViper
}

// New builds a Loader with envPrefix bound for environment-variable
// overrides (e.g. NETCTL_CONTROLLER_LISTEN), dots replaced by underscores
// as viper's AutomaticEnv requires.
func New(envPrefix string) *Loader {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return &Loader{v: v}
}

// AddFile registers a config file path to merge into the tree; name and
// typ follow viper's conventions (e.g. "netctl", "yaml").
func (l *Loader) AddFile(path string) {
	l.v.SetConfigFile(path)
}

// SetDefault seeds a default value at a dotted key, read if no source
// overrides it.
func (l *Loader) SetDefault(key string, value any) {
	l.v.SetDefault(key, value)
}

// Load reads every registered file source into the tree. Safe to call
// with no file registered: environment and defaults still apply.
func (l *Loader) Load() error {
	if l.v.ConfigFileUsed() == "" {
		return nil
	}
	if err := l.v.ReadInConfig(); err != nil {
		return fmt.Errorf("netcfg: %w", err)
	}
	return nil
}

// OnChange registers a callback invoked after Watch fires a reload.
func (l *Loader) OnChange(fct FuncViper) {
	l.onChange = append(l.onChange, fct)
}

// Watch arms viper's fsnotify-based file watch and fires every registered
// OnChange callback on each reload.
func (l *Loader) Watch() {
	l.v.OnConfigChange(func(_ fsnotify.Event) {
		for _, fct := range l.onChange {
			fct(l.v)
		}
	})
	l.v.WatchConfig()
}

// Fetch decodes the sub-tree rooted at key into a fresh T, the vtree-style
// "fetch a typed node" operation SPEC_FULL.md's config section names.
func Fetch[T any](l *Loader, key string) (T, error) {
	var out T

	sub := l.v.Sub(key)
	if sub == nil {
		// Sub returns nil both when the key is absent and when it holds a
		// scalar; fall back to unmarshalling the whole tree at key via Get.
		if !l.v.IsSet(key) {
			return out, ErrorDecode.Error(fmt.Errorf("missing config section %q", key))
		}
		if err := mapstructure.Decode(l.v.Get(key), &out); err != nil {
			return out, ErrorDecode.Error(err)
		}
		return out, nil
	}

	if err := sub.Unmarshal(&out); err != nil {
		return out, ErrorDecode.Error(err)
	}
	return out, nil
}

// Viper exposes the underlying instance for callers that need raw Get/Set
// access outside the typed Fetch path.
func (l *Loader) Viper() *viper.Viper {
	return l.v
}
