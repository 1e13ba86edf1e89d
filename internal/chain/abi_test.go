package chain

import (
	"bytes"
	"encoding/hex"
	"math/big"
	"testing"
)

func TestSelectorKnownERC20(t *testing.T) {
	t.Parallel()
	cases := []struct {
		sig  string
		want string
	}{
		{sig: "approve(address,uint256)", want: "095ea7b3"},
		{sig: "allowance(address,address)", want: "dd62ed3e"},
		{sig: "transfer(address,uint256)", want: "a9059cbb"},
	}
	for _, tc := range cases {
		if got := hex.EncodeToString(Selector(tc.sig)); got != tc.want {
			t.Fatalf("Selector(%q) = %s, want %s", tc.sig, got, tc.want)
		}
	}
}

func TestEncodeApprove(t *testing.T) {
	t.Parallel()
	spender := "0x00000000000000000000000000000000000000aB"
	data, err := EncodeApprove(spender, big.NewInt(1_000_000))
	if err != nil {
		t.Fatalf("EncodeApprove returned error: %v", err)
	}
	if len(data) != 4+32+32 {
		t.Fatalf("calldata length = %d, want 68", len(data))
	}
	if hex.EncodeToString(data[:4]) != "095ea7b3" {
		t.Fatalf("selector = %x", data[:4])
	}
	// Address is right-aligned in the first word.
	if data[4+12] != 0x00 || data[4+31] != 0xab {
		t.Fatalf("address word = %x", data[4:36])
	}
	// 1_000_000 = 0x0f4240 right-aligned in the second word.
	amount := data[36:]
	if !bytes.Equal(amount[29:], []byte{0x0f, 0x42, 0x40}) {
		t.Fatalf("amount word = %x", amount)
	}
}

func TestEncodeApproveRejectsBadAddress(t *testing.T) {
	t.Parallel()
	if _, err := EncodeApprove("not-an-address", big.NewInt(1)); err == nil {
		t.Fatal("expected error for malformed spender")
	}
}

func TestEncodePayForImagesIsBareSelector(t *testing.T) {
	t.Parallel()
	data := EncodePayForImages()
	if len(data) != 4 {
		t.Fatalf("zero-argument call data length = %d, want 4", len(data))
	}
	if !bytes.Equal(data, Selector("payForImages()")) {
		t.Fatal("calldata does not match payForImages() selector")
	}
}

func TestValidAddress(t *testing.T) {
	t.Parallel()
	cases := []struct {
		in   string
		want bool
	}{
		{"0x036CbD53842c5426634e7929541eC2318f3dCF7e", true},
		{"0x036CbD53842c5426634e7929541eC2318f3dCF7", false},
		{"036CbD53842c5426634e7929541eC2318f3dCF7e00", false},
		{"0xzz6CbD53842c5426634e7929541eC2318f3dCF7e", false},
		{"", false},
	}
	for _, tc := range cases {
		if got := ValidAddress(tc.in); got != tc.want {
			t.Fatalf("ValidAddress(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}
