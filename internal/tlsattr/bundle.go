/*
cleanupd - mail transfer agent queue-cleanup service.
Copyright (C) 2024 cleanupd contributors

This program is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

This program is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with this program.  If not, see <https://www.gnu.org/licenses/>.
*/

package tlsattr

import (
	"fmt"
	"io"
)

// ClientStartProps mirrors the startup bundle a TLS client-mode session
// needs from its caller: timeout, negotiated TLS level, nexthop and peer
// identity, protocol/cipher policy, and the digest algorithm used for
// fingerprint matching.
type ClientStartProps struct {
	Timeout          int
	TLSLevel         string
	Nexthop          string
	Host             string
	NamAddr          string
	ServerID         string
	Helo             string
	Protocols        string
	CipherGrade      string
	CipherExclusions string
	MatchArgv        []string
	MDAlg            string
}

// ClientStartFieldCount is the number of top-level fields ClientStartProps
// serializes to. UnmarshalClientStart treats any other count as a schema
// mismatch.
const ClientStartFieldCount = 12

// MarshalClientStart writes p to w in field-declaration order.
func MarshalClientStart(w io.Writer, p ClientStartProps) error {
	aw := NewAttrWriter(w)
	writers := []func() error{
		func() error { return aw.WriteInt(p.Timeout) },
		func() error { return aw.WriteString(p.TLSLevel) },
		func() error { return aw.WriteString(p.Nexthop) },
		func() error { return aw.WriteString(p.Host) },
		func() error { return aw.WriteString(p.NamAddr) },
		func() error { return aw.WriteString(p.ServerID) },
		func() error { return aw.WriteString(p.Helo) },
		func() error { return aw.WriteString(p.Protocols) },
		func() error { return aw.WriteString(p.CipherGrade) },
		func() error { return aw.WriteString(p.CipherExclusions) },
		func() error { return aw.WriteStringList(p.MatchArgv) },
		func() error { return aw.WriteString(p.MDAlg) },
	}
	for _, write := range writers {
		if err := write(); err != nil {
			return err
		}
	}
	return nil
}

// UnmarshalClientStart reads a ClientStartProps back from r. It returns an
// error unless exactly ClientStartFieldCount fields were read, the schema's
// append-only versioning check.
func UnmarshalClientStart(r io.Reader) (ClientStartProps, error) {
	ar := NewAttrReader(r)
	var p ClientStartProps
	var err error

	if p.Timeout, err = ar.ReadInt(); err != nil {
		return ClientStartProps{}, err
	}
	if p.TLSLevel, err = ar.ReadString(); err != nil {
		return ClientStartProps{}, err
	}
	if p.Nexthop, err = ar.ReadString(); err != nil {
		return ClientStartProps{}, err
	}
	if p.Host, err = ar.ReadString(); err != nil {
		return ClientStartProps{}, err
	}
	if p.NamAddr, err = ar.ReadString(); err != nil {
		return ClientStartProps{}, err
	}
	if p.ServerID, err = ar.ReadString(); err != nil {
		return ClientStartProps{}, err
	}
	if p.Helo, err = ar.ReadString(); err != nil {
		return ClientStartProps{}, err
	}
	if p.Protocols, err = ar.ReadString(); err != nil {
		return ClientStartProps{}, err
	}
	if p.CipherGrade, err = ar.ReadString(); err != nil {
		return ClientStartProps{}, err
	}
	if p.CipherExclusions, err = ar.ReadString(); err != nil {
		return ClientStartProps{}, err
	}
	if p.MatchArgv, err = ar.ReadStringList(); err != nil {
		return ClientStartProps{}, err
	}
	if p.MDAlg, err = ar.ReadString(); err != nil {
		return ClientStartProps{}, err
	}

	if ar.Count() != ClientStartFieldCount {
		return ClientStartProps{}, fmt.Errorf("tlsattr: client-start bundle has %d fields, want %d", ar.Count(), ClientStartFieldCount)
	}
	return p, nil
}

// ServerInitProps mirrors the bundle a TLS server-mode session needs to
// initialize: logging parameters, session cache policy, the certificate/key
// file triple (RSA, DSA-compatible "D"-prefixed, and EC), CA material,
// protocol and cipher policy, Diffie-Hellman parameter files, and the
// client-certificate-request flag.
type ServerInitProps struct {
	LogParam        string
	LogLevel        int
	VerifyDepth     int
	CacheType       string
	SetSessID       bool
	CertFile        string
	KeyFile         string
	DCertFile       string
	DKeyFile        string
	ECCertFile      string
	ECKeyFile       string
	CAFile          string
	CAPath          string
	Protocols       string
	EECDHGrade      string
	DH1024ParamFile string
	DH512ParamFile  string
	AskCCert        bool
	MDAlg           string
}

// ServerInitFieldCount is the number of top-level fields ServerInitProps
// serializes to.
const ServerInitFieldCount = 19

// MarshalServerInit writes p to w in field-declaration order.
func MarshalServerInit(w io.Writer, p ServerInitProps) error {
	aw := NewAttrWriter(w)
	writers := []func() error{
		func() error { return aw.WriteString(p.LogParam) },
		func() error { return aw.WriteInt(p.LogLevel) },
		func() error { return aw.WriteInt(p.VerifyDepth) },
		func() error { return aw.WriteString(p.CacheType) },
		func() error { return aw.WriteBool(p.SetSessID) },
		func() error { return aw.WriteString(p.CertFile) },
		func() error { return aw.WriteString(p.KeyFile) },
		func() error { return aw.WriteString(p.DCertFile) },
		func() error { return aw.WriteString(p.DKeyFile) },
		func() error { return aw.WriteString(p.ECCertFile) },
		func() error { return aw.WriteString(p.ECKeyFile) },
		func() error { return aw.WriteString(p.CAFile) },
		func() error { return aw.WriteString(p.CAPath) },
		func() error { return aw.WriteString(p.Protocols) },
		func() error { return aw.WriteString(p.EECDHGrade) },
		func() error { return aw.WriteString(p.DH1024ParamFile) },
		func() error { return aw.WriteString(p.DH512ParamFile) },
		func() error { return aw.WriteBool(p.AskCCert) },
		func() error { return aw.WriteString(p.MDAlg) },
	}
	for _, write := range writers {
		if err := write(); err != nil {
			return err
		}
	}
	return nil
}

// UnmarshalServerInit reads a ServerInitProps back from r, enforcing the
// same field-count versioning check as UnmarshalClientStart.
func UnmarshalServerInit(r io.Reader) (ServerInitProps, error) {
	ar := NewAttrReader(r)
	var p ServerInitProps
	var err error

	if p.LogParam, err = ar.ReadString(); err != nil {
		return ServerInitProps{}, err
	}
	if p.LogLevel, err = ar.ReadInt(); err != nil {
		return ServerInitProps{}, err
	}
	if p.VerifyDepth, err = ar.ReadInt(); err != nil {
		return ServerInitProps{}, err
	}
	if p.CacheType, err = ar.ReadString(); err != nil {
		return ServerInitProps{}, err
	}
	if p.SetSessID, err = ar.ReadBool(); err != nil {
		return ServerInitProps{}, err
	}
	if p.CertFile, err = ar.ReadString(); err != nil {
		return ServerInitProps{}, err
	}
	if p.KeyFile, err = ar.ReadString(); err != nil {
		return ServerInitProps{}, err
	}
	if p.DCertFile, err = ar.ReadString(); err != nil {
		return ServerInitProps{}, err
	}
	if p.DKeyFile, err = ar.ReadString(); err != nil {
		return ServerInitProps{}, err
	}
	if p.ECCertFile, err = ar.ReadString(); err != nil {
		return ServerInitProps{}, err
	}
	if p.ECKeyFile, err = ar.ReadString(); err != nil {
		return ServerInitProps{}, err
	}
	if p.CAFile, err = ar.ReadString(); err != nil {
		return ServerInitProps{}, err
	}
	if p.CAPath, err = ar.ReadString(); err != nil {
		return ServerInitProps{}, err
	}
	if p.Protocols, err = ar.ReadString(); err != nil {
		return ServerInitProps{}, err
	}
	if p.EECDHGrade, err = ar.ReadString(); err != nil {
		return ServerInitProps{}, err
	}
	if p.DH1024ParamFile, err = ar.ReadString(); err != nil {
		return ServerInitProps{}, err
	}
	if p.DH512ParamFile, err = ar.ReadString(); err != nil {
		return ServerInitProps{}, err
	}
	if p.AskCCert, err = ar.ReadBool(); err != nil {
		return ServerInitProps{}, err
	}
	if p.MDAlg, err = ar.ReadString(); err != nil {
		return ServerInitProps{}, err
	}

	if ar.Count() != ServerInitFieldCount {
		return ServerInitProps{}, fmt.Errorf("tlsattr: server-init bundle has %d fields, want %d", ar.Count(), ServerInitFieldCount)
	}
	return p, nil
}
