package validation

import (
	"strings"

	"github.com/paystream/sdk-go/core/types"
)

// Context carries the external state validators need: the accepted-token
// allowlist, the sender account, the stream contract (the approval
// spender), and whatever balances and allowances the watcher has pushed so
// far. Missing entries mean "unknown, not yet validated" — never a
// rejection.
type Context struct {
	AcceptedTokens  []string
	Account         string
	ContractAddress string

	balances   map[string]types.TokenBalance
	allowances map[string]types.TokenBalance
}

// NewContext builds an empty validation context.
func NewContext(acceptedTokens []string, contractAddress string) *Context {
	return &Context{
		AcceptedTokens:  acceptedTokens,
		ContractAddress: contractAddress,
		balances:        make(map[string]types.TokenBalance),
		allowances:      make(map[string]types.TokenBalance),
	}
}

// SetBalance records a pushed balance for (token, owner).
func (c *Context) SetBalance(tokenAddress, owner string, balance types.TokenBalance) {
	c.balances[balanceKey(tokenAddress, owner)] = balance
}

// BalanceFor returns the known balance for (token, owner), if any.
func (c *Context) BalanceFor(tokenAddress, owner string) (types.TokenBalance, bool) {
	b, ok := c.balances[balanceKey(tokenAddress, owner)]
	return b, ok
}

// SetAllowance records a pushed allowance for (spender, token, owner).
func (c *Context) SetAllowance(spender, tokenAddress, owner string, allowance types.TokenBalance) {
	c.allowances[allowanceKey(spender, tokenAddress, owner)] = allowance
}

// AllowanceFor returns the known allowance for (spender, token, owner).
func (c *Context) AllowanceFor(spender, tokenAddress, owner string) (types.TokenBalance, bool) {
	a, ok := c.allowances[allowanceKey(spender, tokenAddress, owner)]
	return a, ok
}

// TokenAccepted reports allowlist membership by symbol.
func (c *Context) TokenAccepted(symbol string) bool {
	for _, accepted := range c.AcceptedTokens {
		if accepted == symbol {
			return true
		}
	}
	return false
}

func balanceKey(tokenAddress, owner string) string {
	return strings.ToLower(tokenAddress) + "/" + strings.ToLower(owner)
}

func allowanceKey(spender, tokenAddress, owner string) string {
	return strings.ToLower(spender) + "/" + strings.ToLower(tokenAddress) + "/" + strings.ToLower(owner)
}
