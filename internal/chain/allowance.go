package chain

import (
	"context"
	"encoding/hex"
	"fmt"
	"math/big"
	"strings"
)

// AllowanceReader reads the current ERC-20 allowance granted by owner to
// spender. Lets the payment flow skip a redundant approval.
type AllowanceReader interface {
	Allowance(ctx context.Context, token, owner, spender string) (*big.Int, error)
}

// Allowance performs an eth_call against the token's allowance view.
func (c *RPCClient) Allowance(ctx context.Context, token, owner, spender string) (*big.Int, error) {
	if !ValidAddress(token) {
		return nil, fmt.Errorf("invalid token address %q", token)
	}
	calldata, err := EncodeAllowance(owner, spender)
	if err != nil {
		return nil, err
	}
	params := []any{
		map[string]string{
			"to":   token,
			"data": "0x" + hex.EncodeToString(calldata),
		},
		"latest",
	}
	var raw string
	if err := c.Call(ctx, "eth_call", params, &raw); err != nil {
		return nil, fmt.Errorf("read allowance: %w", err)
	}
	return parseUint256(raw)
}

func parseUint256(raw string) (*big.Int, error) {
	cleaned := strings.TrimPrefix(strings.TrimSpace(raw), "0x")
	if cleaned == "" {
		return big.NewInt(0), nil
	}
	v, ok := new(big.Int).SetString(cleaned, 16)
	if !ok {
		return nil, fmt.Errorf("malformed uint256 %q", raw)
	}
	return v, nil
}
