//go:build linux

package inject

import "testing"

func TestCharToKeyCoversPrintableASCII(t *testing.T) {
	if _, _, ok := charToKey('a'); !ok {
		t.Error("lowercase letter unmapped")
	}
	if _, shift, _ := charToKey('A'); !shift {
		t.Error("uppercase letter should need shift")
	}
	if _, shift, ok := charToKey('?'); !ok || !shift {
		t.Errorf("'?' mapping = shift %v ok %v, want shifted slash", shift, ok)
	}
	if _, _, ok := charToKey(0x07); ok {
		t.Error("control character should be unmapped")
	}
	for c := byte('a'); c <= 'z'; c++ {
		if _, _, ok := charToKey(c); !ok {
			t.Errorf("%q unmapped", c)
		}
	}
	for c := byte('0'); c <= '9'; c++ {
		if _, _, ok := charToKey(c); !ok {
			t.Errorf("%q unmapped", c)
		}
	}
}
