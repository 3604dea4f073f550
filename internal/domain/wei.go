package domain

import (
	"fmt"
	"math/big"
	"strings"
)

var weiPerEther = new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil)

// FormatEther renders a wei amount as a decimal ether string with trailing
// zeros trimmed (e.g. 10010000000000000 -> "0.01001").
func FormatEther(wei *big.Int) string {
	if wei == nil {
		return "0"
	}
	whole, frac := new(big.Int).QuoRem(wei, weiPerEther, new(big.Int))
	if frac.Sign() == 0 {
		return whole.String()
	}
	fracStr := strings.TrimRight(fmt.Sprintf("%018s", frac.Abs(frac).String()), "0")
	return fmt.Sprintf("%s.%s", whole.String(), fracStr)
}

// ParseEther converts a decimal ether string into wei. It fails on negative
// amounts and on more than 18 fractional digits.
func ParseEther(s string) (*big.Int, error) {
	s = strings.TrimSpace(s)
	if s == "" || strings.HasPrefix(s, "-") {
		return nil, fmt.Errorf("invalid ether amount: %q", s)
	}

	whole, frac := s, ""
	if i := strings.IndexByte(s, '.'); i >= 0 {
		whole, frac = s[:i], s[i+1:]
	}
	if len(frac) > 18 {
		return nil, fmt.Errorf("too many decimal places in ether amount: %q", s)
	}
	if whole == "" {
		whole = "0"
	}

	wei, ok := new(big.Int).SetString(whole, 10)
	if !ok {
		return nil, fmt.Errorf("invalid ether amount: %q", s)
	}
	wei.Mul(wei, weiPerEther)

	if frac != "" {
		fracWei, ok := new(big.Int).SetString(frac+strings.Repeat("0", 18-len(frac)), 10)
		if !ok {
			return nil, fmt.Errorf("invalid ether amount: %q", s)
		}
		wei.Add(wei, fracWei)
	}

	return wei, nil
}
