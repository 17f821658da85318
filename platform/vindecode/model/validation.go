/*
Copyright the VinDecode Authors. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package model

import (
	"math/big"
	"regexp"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/params"
	"github.com/pkg/errors"
)

var (
	vinRegex     = regexp.MustCompile(`^[A-HJ-NPR-Z0-9]{17}$`)
	addressRegex = regexp.MustCompile(`^0x[a-fA-F0-9]{40}$`)

	ErrInvalidVIN     = errors.New("invalid vin code")
	ErrInvalidAddress = errors.New("invalid owner address")
	ErrInvalidAmount  = errors.New("invalid ether amount")

	// ReportPrice is the fee paid for a full car report
	ReportPrice = new(big.Int).Div(big.NewInt(params.Ether), big.NewInt(100))
)

// ValidateVIN accepts 17 characters excluding I, O and Q
func ValidateVIN(vin string) error {
	if !vinRegex.MatchString(vin) {
		return errors.Wrapf(ErrInvalidVIN, "[%s]", vin)
	}
	return nil
}

// ParseAddress accepts 0x-prefixed hex addresses only
func ParseAddress(s string) (common.Address, error) {
	if !addressRegex.MatchString(s) {
		return common.Address{}, errors.Wrapf(ErrInvalidAddress, "[%s]", s)
	}
	return common.HexToAddress(s), nil
}

// ParseEther converts a decimal ether amount into wei
func ParseEther(s string) (*big.Int, error) {
	r, ok := new(big.Rat).SetString(strings.TrimSpace(s))
	if !ok || r.Sign() < 0 {
		return nil, errors.Wrapf(ErrInvalidAmount, "[%s]", s)
	}
	r.Mul(r, new(big.Rat).SetInt64(params.Ether))
	if !r.IsInt() {
		return nil, errors.Wrapf(ErrInvalidAmount, "[%s] has more than 18 decimals", s)
	}
	return new(big.Int).Set(r.Num()), nil
}

// FormatEther renders wei as a decimal ether amount, e.g. "0.01" or "2.0"
func FormatEther(wei *big.Int) string {
	if wei == nil {
		return "0.0"
	}
	sign := ""
	v := new(big.Int).Set(wei)
	if v.Sign() < 0 {
		sign = "-"
		v.Neg(v)
	}
	whole, frac := new(big.Int).QuoRem(v, big.NewInt(params.Ether), new(big.Int))
	fracStr := strings.TrimRight(leftPad(frac.String(), 18), "0")
	if len(fracStr) == 0 {
		fracStr = "0"
	}
	return sign + whole.String() + "." + fracStr
}

func leftPad(s string, n int) string {
	if len(s) >= n {
		return s
	}
	return strings.Repeat("0", n-len(s)) + s
}
