package token

import (
	"strings"
	"testing"
)

func TestHash(t *testing.T) {
	// sha256("abc")
	want := "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad"
	if got := Hash("abc"); got != want {
		t.Errorf("Hash(abc) = %s, want %s", got, want)
	}
}

func TestFingerprint(t *testing.T) {
	fp := Fingerprint("abc")
	if fp != "sha256:ba7816bf8f01cfea" {
		t.Errorf("Fingerprint(abc) = %q", fp)
	}
	if Fingerprint("") != "" {
		t.Error("empty credential should have no fingerprint")
	}
	if strings.Contains(Fingerprint("secret-token"), "secret") {
		t.Error("fingerprint leaks the credential")
	}
	if Fingerprint("a") == Fingerprint("b") {
		t.Error("different credentials share a fingerprint")
	}
}

func TestMatch(t *testing.T) {
	fp := Fingerprint("tok-1")

	tests := []struct {
		name       string
		credential string
		fp         string
		want       bool
	}{
		{"match", "tok-1", fp, true},
		{"other credential", "tok-2", fp, false},
		{"empty credential", "", fp, false},
		{"missing prefix", "tok-1", strings.TrimPrefix(fp, FingerprintPrefix), false},
		{"truncated", "tok-1", fp[:len(fp)-1], false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Match(tt.credential, tt.fp); got != tt.want {
				t.Errorf("Match() = %v, want %v", got, tt.want)
			}
		})
	}
}
