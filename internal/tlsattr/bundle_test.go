package tlsattr

import (
	"bytes"
	"reflect"
	"testing"
)

func TestClientStartRoundTrip(t *testing.T) {
	want := ClientStartProps{
		Timeout:          30,
		TLSLevel:         "encrypt",
		Nexthop:          "mail.example.com",
		Host:             "mail.example.com",
		NamAddr:          "mail.example.com[192.0.2.1]",
		ServerID:         "smtp",
		Helo:             "relay.example.com",
		Protocols:        "!SSLv2,!SSLv3",
		CipherGrade:      "high",
		CipherExclusions: "aNULL,eNULL",
		MatchArgv:        []string{"match:CN=mail.example.com", "fingerprint:abcd"},
		MDAlg:            "sha256",
	}

	var buf bytes.Buffer
	if err := MarshalClientStart(&buf, want); err != nil {
		t.Fatalf("MarshalClientStart: %v", err)
	}

	got, err := UnmarshalClientStart(&buf)
	if err != nil {
		t.Fatalf("UnmarshalClientStart: %v", err)
	}

	if !reflect.DeepEqual(got, want) {
		if !stringSliceEqual(got.MatchArgv, want.MatchArgv) {
			t.Fatalf("MatchArgv = %v, want %v", got.MatchArgv, want.MatchArgv)
		}
		got.MatchArgv, want.MatchArgv = nil, nil
		if !reflect.DeepEqual(got, want) {
			t.Fatalf("got = %+v, want %+v", got, want)
		}
	}
}

func TestClientStartEmptyMatchArgv(t *testing.T) {
	want := ClientStartProps{TLSLevel: "none"}

	var buf bytes.Buffer
	if err := MarshalClientStart(&buf, want); err != nil {
		t.Fatalf("MarshalClientStart: %v", err)
	}

	got, err := UnmarshalClientStart(&buf)
	if err != nil {
		t.Fatalf("UnmarshalClientStart: %v", err)
	}
	if len(got.MatchArgv) != 0 {
		t.Errorf("MatchArgv = %v, want empty", got.MatchArgv)
	}
}

func TestServerInitRoundTrip(t *testing.T) {
	want := ServerInitProps{
		LogParam:        "smtpd",
		LogLevel:        2,
		VerifyDepth:     5,
		CacheType:       "internal",
		SetSessID:       true,
		CertFile:        "/etc/cleanupd/cert.pem",
		KeyFile:         "/etc/cleanupd/key.pem",
		DCertFile:       "",
		DKeyFile:        "",
		ECCertFile:      "/etc/cleanupd/ec-cert.pem",
		ECKeyFile:       "/etc/cleanupd/ec-key.pem",
		CAFile:          "/etc/cleanupd/ca.pem",
		CAPath:          "",
		Protocols:       "!SSLv2,!SSLv3",
		EECDHGrade:      "auto",
		DH1024ParamFile: "",
		DH512ParamFile:  "",
		AskCCert:        false,
		MDAlg:           "sha256",
	}

	var buf bytes.Buffer
	if err := MarshalServerInit(&buf, want); err != nil {
		t.Fatalf("MarshalServerInit: %v", err)
	}

	got, err := UnmarshalServerInit(&buf)
	if err != nil {
		t.Fatalf("UnmarshalServerInit: %v", err)
	}
	if got != want {
		t.Fatalf("got = %+v, want %+v", got, want)
	}
}

func TestServerInitFieldCountMismatchIsRejected(t *testing.T) {
	var buf bytes.Buffer
	aw := NewAttrWriter(&buf)
	// Write fewer fields than the schema requires, simulating a sender
	// running an older schema version.
	for i := 0; i < ServerInitFieldCount-1; i++ {
		if err := aw.WriteString("x"); err != nil {
			t.Fatalf("WriteString: %v", err)
		}
	}

	if _, err := UnmarshalServerInit(&buf); err == nil {
		t.Fatalf("expected UnmarshalServerInit to reject a short bundle")
	}
}

func stringSliceEqual(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
