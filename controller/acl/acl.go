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

// Package acl implements the controller's method + path-prefix + peer
// identity access-control engine (spec.md §4.3, §5 "ACL returns a single
// boolean; default is deny").
package acl

import "strings"

// Identity carries the peer attributes an ACL rule may match against: the
// dialing address, and — once a TLS handshake has completed — the leaf
// certificate's CN and its issuing CA's CN (spec.md §4.3). Fields are
// retrieved lazily per connection and may be empty when TLS isn't in use or
// the handshake hasn't produced a peer certificate.
type Identity struct {
	RemoteAddr string
	CertCN     string
	IssuerCN   string
}

// Rule matches a request by HTTP method (empty = any), a path prefix, and
// optionally any of RemoteAddr/CertCN/IssuerCN. A prefix ending in "/"
// matches that prefix and any sub-path beneath it; any other prefix must
// match the path exactly; an empty prefix matches any path (spec.md §4.3
// "must end with / to match sub-paths, else exact"). Each present identity
// field must match: "*" matches any non-empty value, anything else must
// match it exactly; an empty field imposes no constraint.
type Rule struct {
	Method     string
	Prefix     string
	RemoteAddr string
	CertCN     string
	IssuerCN   string
	Allow      bool
}

// ACL is an ordered list of rules evaluated first-match-wins, with a
// REDESIGN-FLAG default of deny when no rule matches or the engine has no
// rules at all (fail closed, see DESIGN.md Open Question resolutions).
// The zero value is a deny-all ACL; callers wanting allow-all must set
// Disabled or add an explicit catch-all Allow rule.
type ACL struct {
	Rules    []Rule
	Disabled bool
}

// New builds an ACL from an ordered rule list.
func New(rules ...Rule) *ACL {
	return &ACL{Rules: rules}
}

// DefaultRules is the TLS default rule set installed when TLS is on and a
// CA is configured but the caller declared no explicit ACL (spec.md §4.3
// "Defaults"): allow both loopback addresses, then allow any peer
// presenting a CN from a certificate that passed verification.
func DefaultRules() []Rule {
	return []Rule{
		{RemoteAddr: "::1", Allow: true},
		{RemoteAddr: "127.0.0.1", Allow: true},
		{CertCN: "*", Allow: true},
	}
}

// Allow reports whether method/path/id is permitted. A nil or disabled ACL
// allows everything (opt-out, not the default). First rule whose fields all
// match supplies the decision; if no rule matches, deny.
func (a *ACL) Allow(method, path string, id Identity) bool {
	if a == nil || a.Disabled {
		return true
	}

	for _, r := range a.Rules {
		if r.Method != "" && !strings.EqualFold(r.Method, method) {
			continue
		}
		if !matchPrefix(r.Prefix, path) {
			continue
		}
		if !matchField(r.RemoteAddr, id.RemoteAddr) {
			continue
		}
		if !matchField(r.CertCN, id.CertCN) {
			continue
		}
		if !matchField(r.IssuerCN, id.IssuerCN) {
			continue
		}
		return r.Allow
	}

	return false
}

func matchPrefix(prefix, path string) bool {
	if prefix == "" {
		return true
	}
	if strings.HasSuffix(prefix, "/") {
		return strings.HasPrefix(path, prefix)
	}
	return path == prefix
}

// matchField evaluates one present-or-not identity field against the rule's
// declared matcher: "" imposes no constraint, "*" requires any non-empty
// value, anything else must match exactly.
func matchField(rule, have string) bool {
	switch rule {
	case "":
		return true
	case "*":
		return have != ""
	default:
		return rule == have
	}
}
