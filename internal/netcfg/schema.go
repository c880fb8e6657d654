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

import "time"

// ControllerSection is the "controller:" node of the bconf tree, decoded
// into a controller.Config by the caller (kept dependency-free of the
// controller package here to avoid an import cycle risk as both grow).
type ControllerSection struct {
	Name   string `mapstructure:"name"`
	Listen string `mapstructure:"listen"`

	TLSEnabled  bool   `mapstructure:"tls_enabled"`
	TLSCertFile string `mapstructure:"tls_cert_file"`
	TLSKeyFile  string `mapstructure:"tls_key_file"`
	TLSCAFile   string `mapstructure:"tls_ca_file"`
	TLSMutual   bool   `mapstructure:"tls_require_client_cert"`

	Workers           int           `mapstructure:"workers"`
	QueueSize         int           `mapstructure:"queue_size"`
	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout"`
	ShutdownTimeout   time.Duration `mapstructure:"shutdown_timeout"`

	ACLRules []ACLRuleSection `mapstructure:"acl_rules"`
}

// ACLRuleSection is one "acl_rules[]" entry; Identity matching beyond a
// plain peer-address prefix is wired by the caller, not decoded here.
type ACLRuleSection struct {
	Method     string `mapstructure:"method"`
	Prefix     string `mapstructure:"prefix"`
	PeerPrefix string `mapstructure:"peer_prefix"`
	Allow      bool   `mapstructure:"allow"`
}

// ServiceSection is one "services.<name>:" node, decoded into an
// fdpool.ServiceConfig by the caller.
type ServiceSection struct {
	Retries        int           `mapstructure:"retries"`
	FailCost       int64         `mapstructure:"fail_cost"`
	TempFailCost   int64         `mapstructure:"temp_fail_cost"`
	Strategy       string        `mapstructure:"strategy"`
	ConnectTimeout time.Duration `mapstructure:"connect_timeout"`
	CycleLast      bool          `mapstructure:"cycle_last"`
	Hosts          []HostSection `mapstructure:"hosts"`
}

type HostSection struct {
	URL     string `mapstructure:"url"`
	PortKey string `mapstructure:"port_key"`
}
