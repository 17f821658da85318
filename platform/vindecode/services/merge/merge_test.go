/*
Copyright the VinDecode Authors. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package merge

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/vindecode/vindecode/platform/ethereum/driver"
	"github.com/vindecode/vindecode/platform/vindecode/model"
)

const vin = "WVWZZZ1JZXW000001"

var bigIntComparer = cmp.Comparer(func(a, b *big.Int) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Cmp(b) == 0
})

func sample() *model.Car {
	return &model.Car{
		VIN:          vin,
		Brand:        "Volkswagen",
		Model:        "Golf",
		Year:         1999,
		PlateNumbers: []string{"AA1234BB"},
		Mileage:      120000,
		Owners:       []common.Address{common.HexToAddress("0x01")},
		Fines: []model.Fine{
			{Date: 1700000000, Description: "Speeding", Amount: big.NewInt(1e16)},
			{Date: 1700000100, Description: "Parking", Amount: big.NewInt(2e16)},
		},
	}
}

func TestMarkFinePaid(t *testing.T) {
	before := sample()
	snapshot := before.Clone()

	once := Merge(before, MarkFinePaid{Index: 0})
	assert.True(t, once.Fines[0].Paid)
	assert.False(t, once.Fines[1].Paid)

	// the input is untouched
	assert.Empty(t, cmp.Diff(snapshot, before, bigIntComparer))

	// idempotent
	twice := Merge(once, MarkFinePaid{Index: 0})
	assert.Empty(t, cmp.Diff(once, twice, bigIntComparer))

	// only the flag changed
	expected := sample()
	expected.Fines[0].Paid = true
	assert.Empty(t, cmp.Diff(expected, once, bigIntComparer))

	// out of range is a no-op
	assert.Empty(t, cmp.Diff(before, Merge(before, MarkFinePaid{Index: 5}), bigIntComparer))
	assert.Empty(t, cmp.Diff(before, Merge(before, MarkFinePaid{Index: -1}), bigIntComparer))
}

func TestAppendVariants(t *testing.T) {
	owner := common.HexToAddress("0x02")
	at := model.Timestamp(1710000000)

	out := Merge(sample(), AddServiceEntry{Mileage: 130000, Works: []string{"Oil change"}, At: at})
	assert.Equal(t, uint64(130000), out.Mileage)
	assert.Equal(t, []model.ServiceWork{{Date: at, Mileage: 130000, Works: []string{"Oil change"}}}, out.ServiceHistory)

	out = Merge(out, AddAccident{Description: "Rear bumper", Images: []string{"https://ipfs.io/ipfs/Qm1"}, At: at})
	assert.Equal(t, "Rear bumper", out.Accidents[0].Description)
	assert.Equal(t, []string{"https://ipfs.io/ipfs/Qm1"}, out.Accidents[0].Images)

	out = Merge(out, AddFines{Fines: []model.Fine{{Description: "Red light", Amount: big.NewInt(5)}}})
	assert.Len(t, out.Fines, 3)
	assert.Equal(t, "Red light", out.Fines[2].Description)

	out = Merge(out, ChangePlate{Plate: "BB9876CC"})
	assert.Equal(t, []string{"AA1234BB", "BB9876CC"}, out.PlateNumbers)

	out = Merge(out, AddOwner{Owner: owner})
	current, ok := out.Owner()
	assert.True(t, ok)
	assert.Equal(t, owner, current)

	out = Merge(out, ReportTheft{Stolen: true, Location: "Kyiv", At: at})
	assert.True(t, out.Stolen())
	out = Merge(out, ReportTheft{Stolen: false, Location: "Lviv", At: at + 60})
	assert.False(t, out.Stolen())
	assert.Len(t, out.TheftHistory, 2)
}

func TestReplaceRecord(t *testing.T) {
	replacement := sample()
	replacement.Mileage = 1

	out := Merge(sample(), ReplaceRecord{Record: replacement})
	assert.Equal(t, uint64(1), out.Mileage)
	assert.NotSame(t, replacement, out)

	assert.Empty(t, cmp.Diff(sample(), Merge(sample(), ReplaceRecord{}), bigIntComparer))
}

func TestNilRecord(t *testing.T) {
	assert.Nil(t, Merge(nil, MarkFinePaid{}))
	assert.Nil(t, Merge(nil, ReplaceRecord{Record: sample()}))
}

func TestFromConfirmation(t *testing.T) {
	other := sample()
	other.VIN = "JH4KA7561PC008269"
	mine := sample()
	mine.Mileage = 200000

	actions := FromConfirmation(&driver.Confirmation{Events: []driver.CarEvent{
		{Name: driver.PlateChanged, VIN: other.VIN, Car: other},
		{Name: driver.ReportPurchased, VIN: vin, Car: mine},
		{Name: driver.FinePaid, VIN: vin},
	}}, vin)
	assert.Equal(t, []Action{ReplaceRecord{Record: mine}}, actions)
	assert.Nil(t, FromConfirmation(nil, vin))
}
