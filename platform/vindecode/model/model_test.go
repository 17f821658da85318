/*
Copyright the VinDecode Authors. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package model

import (
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTimestampString(t *testing.T) {
	ts := NewTimestamp(time.Date(2024, time.March, 5, 9, 7, 3, 0, time.Local))
	assert.Equal(t, "5 March 2024 9:07:03", ts.String())
}

func TestValidateVIN(t *testing.T) {
	assert.NoError(t, ValidateVIN("1HGBH41JXMN109186"))
	assert.ErrorIs(t, ValidateVIN("1HGBH41JXMN10918"), ErrInvalidVIN)
	// I, O and Q are never used
	assert.ErrorIs(t, ValidateVIN("1HGBH41JXMN10918O"), ErrInvalidVIN)
	assert.ErrorIs(t, ValidateVIN("1hgbh41jxmn109186"), ErrInvalidVIN)
}

func TestParseAddress(t *testing.T) {
	a, err := ParseAddress("0x00000000000000000000000000000000000000aB")
	require.NoError(t, err)
	assert.Equal(t, common.HexToAddress("0xab"), a)

	_, err = ParseAddress("00000000000000000000000000000000000000ab")
	assert.ErrorIs(t, err, ErrInvalidAddress)
	_, err = ParseAddress("0xZZ000000000000000000000000000000000000ab")
	assert.ErrorIs(t, err, ErrInvalidAddress)
}

func TestEther(t *testing.T) {
	wei, err := ParseEther("0.01")
	require.NoError(t, err)
	assert.Equal(t, ReportPrice, wei)
	assert.Equal(t, "0.01", FormatEther(wei))

	wei, err = ParseEther("2")
	require.NoError(t, err)
	assert.Equal(t, "2.0", FormatEther(wei))
	assert.Equal(t, "0.000000000000000001", FormatEther(big.NewInt(1)))
	assert.Equal(t, "0.0", FormatEther(nil))

	_, err = ParseEther("0.0000000000000000001")
	assert.ErrorIs(t, err, ErrInvalidAmount)
	_, err = ParseEther("-1")
	assert.ErrorIs(t, err, ErrInvalidAmount)
	_, err = ParseEther("ten")
	assert.ErrorIs(t, err, ErrInvalidAmount)
}

func TestCarClone(t *testing.T) {
	owner := common.HexToAddress("0x01")
	car := &Car{
		VIN:          "1HGBH41JXMN109186",
		Brand:        "Toyota",
		PlateNumbers: []string{"AA1234BB"},
		Owners:       []common.Address{owner},
		Fines:        []Fine{{Description: "speeding", Amount: big.NewInt(10)}},
		Accidents:    []Accident{{Description: "bump", Images: []string{"https://ipfs.io/ipfs/a"}}},
		TheftHistory: []Theft{{IsStolen: true, Location: "Kyiv"}},
	}

	clone := car.Clone()
	assert.Equal(t, car, clone)

	clone.Fines[0].Paid = true
	clone.Fines[0].Amount.SetInt64(20)
	clone.Accidents[0].Images[0] = "changed"
	clone.PlateNumbers[0] = "changed"
	assert.False(t, car.Fines[0].Paid)
	assert.Equal(t, int64(10), car.Fines[0].Amount.Int64())
	assert.Equal(t, "https://ipfs.io/ipfs/a", car.Accidents[0].Images[0])
	assert.Equal(t, "AA1234BB", car.PlateNumbers[0])

	assert.True(t, car.Registered())
	assert.True(t, car.Stolen())
	o, ok := car.Owner()
	assert.True(t, ok)
	assert.Equal(t, owner, o)

	var missing *Car
	assert.Nil(t, missing.Clone())
	assert.False(t, missing.Registered())
	assert.False(t, (&Car{}).Stolen())
}
