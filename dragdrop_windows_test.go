//go:build windows

package main

import "testing"

func TestHresultFailed(t *testing.T) {
	tests := []struct {
		hr   uintptr
		want bool
	}{
		{comSOK, false},
		{1, false}, // S_FALSE: OLE already initialized
		{0x80004002, true},
		{0x800401F0, true}, // CO_E_NOTINITIALIZED
	}
	for _, tt := range tests {
		if got := hresultFailed(tt.hr); got != tt.want {
			t.Errorf("hresultFailed(0x%x) = %v, want %v", tt.hr, got, tt.want)
		}
	}
}

func TestUnpackPoint(t *testing.T) {
	x, y := int32(150), int32(-20)
	pt := uintptr(uint64(uint32(y))<<32 | uint64(uint32(x)))
	if x, y := unpackPoint(pt); x != 150 || y != -20 {
		t.Errorf("unpackPoint = (%d, %d), want (150, -20)", x, y)
	}
}
