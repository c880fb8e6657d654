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

// getbconfvars dumps a resolved configuration tree (file + environment
// overrides merged by internal/netcfg) as flat "dotted.key = value"
// lines, a small debugging aid for operators inspecting what a
// controller instance actually sees at startup.
package main

import (
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"github.com/nabbar/netctl/internal/netcfg"
)

func main() {
	var (
		file string
		key  string
		env  string
	)

	cmd := &cobra.Command{
		Use:   "getbconfvars",
		Short: "Dump a resolved bconf/vtree configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(file, key, env)
		},
	}

	cmd.Flags().StringVar(&file, "file", "", "configuration file to load")
	cmd.Flags().StringVar(&key, "key", "", "only dump the sub-tree rooted at this dotted key")
	cmd.Flags().StringVar(&env, "env-prefix", "NETCTL", "environment variable prefix for overrides")

	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "getbconfvars:", err)
		os.Exit(1)
	}
}

func run(file, key, envPrefix string) error {
	l := netcfg.New(envPrefix)
	if file != "" {
		l.AddFile(file)
	}
	if err := l.Load(); err != nil {
		return err
	}

	v := l.Viper()

	var keys []string
	if key != "" {
		sub := v.Sub(key)
		if sub == nil {
			return fmt.Errorf("getbconfvars: no such key %q", key)
		}
		v = sub
	}
	keys = v.AllKeys()
	sort.Strings(keys)

	for _, k := range keys {
		fmt.Printf("%s = %v\n", k, v.Get(k))
	}

	return nil
}
