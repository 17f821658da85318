/*
Copyright the VinDecode Authors. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package contract

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/vindecode/vindecode/platform/vindecode/model"
)

// fromModel is the inverse of toModel, used to build contract payloads
func fromModel(car *model.Car) carTuple {
	t := carTuple{
		Brand:            car.Brand,
		Model:            car.Model,
		Year:             new(big.Int).SetUint64(car.Year),
		FuelType:         car.FuelType,
		TransmissionType: car.TransmissionType,
		Color:            car.Color,
		Configuration:    car.Configuration,
		Country:          car.Country,
		PlateNumbers:     append([]string{}, car.PlateNumbers...),
		Mileage:          new(big.Int).SetUint64(car.Mileage),
		Owners:           append([]common.Address{}, car.Owners...),
		Fines:            []fineTuple{},
		TheftHistory:     []theftTuple{},
		Accidents:        []accidentTuple{},
		ServiceHistory:   []serviceTuple{},
	}
	for _, f := range car.Fines {
		amount := new(big.Int)
		if f.Amount != nil {
			amount.Set(f.Amount)
		}
		t.Fines = append(t.Fines, fineTuple{
			Date:        new(big.Int).SetUint64(uint64(f.Date)),
			Description: f.Description,
			Amount:      amount,
			Paid:        f.Paid,
		})
	}
	for _, th := range car.TheftHistory {
		t.TheftHistory = append(t.TheftHistory, theftTuple{
			Date:     new(big.Int).SetUint64(uint64(th.Date)),
			IsStolen: th.IsStolen,
			Location: th.Location,
		})
	}
	for _, a := range car.Accidents {
		t.Accidents = append(t.Accidents, accidentTuple{
			Date:        new(big.Int).SetUint64(uint64(a.Date)),
			Description: a.Description,
			Images:      append([]string{}, a.Images...),
		})
	}
	for _, s := range car.ServiceHistory {
		t.ServiceHistory = append(t.ServiceHistory, serviceTuple{
			Date:    new(big.Int).SetUint64(uint64(s.Date)),
			Mileage: new(big.Int).SetUint64(s.Mileage),
			Works:   append([]string{}, s.Works...),
		})
	}
	return t
}
