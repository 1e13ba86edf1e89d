package chain

import (
	"encoding/hex"
	"fmt"
	"math/big"
	"strings"

	"golang.org/x/crypto/sha3"
)

// Function signatures for the two contracts this service touches: the ERC-20
// token and the zero-argument payment contract.
const (
	sigApprove      = "approve(address,uint256)"
	sigAllowance    = "allowance(address,address)"
	sigPayForImages = "payForImages()"
)

// Selector returns the 4-byte function selector for a canonical signature.
func Selector(signature string) []byte {
	h := sha3.NewLegacyKeccak256()
	h.Write([]byte(signature))
	return h.Sum(nil)[:4]
}

// EncodeApprove builds calldata for approve(spender, amount).
func EncodeApprove(spender string, amount *big.Int) ([]byte, error) {
	addr, err := padAddress(spender)
	if err != nil {
		return nil, err
	}
	data := Selector(sigApprove)
	data = append(data, addr...)
	data = append(data, padUint256(amount)...)
	return data, nil
}

// EncodeAllowance builds calldata for allowance(owner, spender).
func EncodeAllowance(owner, spender string) ([]byte, error) {
	ownerWord, err := padAddress(owner)
	if err != nil {
		return nil, err
	}
	spenderWord, err := padAddress(spender)
	if err != nil {
		return nil, err
	}
	data := Selector(sigAllowance)
	data = append(data, ownerWord...)
	data = append(data, spenderWord...)
	return data, nil
}

// EncodePayForImages builds calldata for the zero-argument payment call.
func EncodePayForImages() []byte {
	return Selector(sigPayForImages)
}

// ValidAddress reports whether s looks like a 0x-prefixed 20-byte hex address.
func ValidAddress(s string) bool {
	s = strings.TrimSpace(s)
	if len(s) != 42 || !strings.HasPrefix(s, "0x") {
		return false
	}
	_, err := hex.DecodeString(s[2:])
	return err == nil
}

func padAddress(addr string) ([]byte, error) {
	if !ValidAddress(addr) {
		return nil, fmt.Errorf("invalid address %q", addr)
	}
	raw, err := hex.DecodeString(strings.TrimPrefix(strings.TrimSpace(addr), "0x"))
	if err != nil {
		return nil, fmt.Errorf("invalid address %q: %w", addr, err)
	}
	word := make([]byte, 32)
	copy(word[12:], raw)
	return word, nil
}

func padUint256(v *big.Int) []byte {
	word := make([]byte, 32)
	if v == nil || v.Sign() <= 0 {
		return word
	}
	b := v.Bytes()
	copy(word[32-len(b):], b)
	return word
}
