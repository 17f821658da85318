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

// The tuple types mirror the Car struct of the contract.
// Field order and names must follow the ABI components.

type fineTuple struct {
	Date        *big.Int
	Description string
	Amount      *big.Int
	Paid        bool
}

type theftTuple struct {
	Date     *big.Int
	IsStolen bool
	Location string
}

type accidentTuple struct {
	Date        *big.Int
	Description string
	Images      []string
}

type serviceTuple struct {
	Date    *big.Int
	Mileage *big.Int
	Works   []string
}

type carTuple struct {
	Brand            string
	Model            string
	Year             *big.Int
	FuelType         string
	TransmissionType string
	Color            string
	Configuration    string
	Country          string
	PlateNumbers     []string
	Mileage          *big.Int
	Owners           []common.Address
	Fines            []fineTuple
	TheftHistory     []theftTuple
	Accidents        []accidentTuple
	ServiceHistory   []serviceTuple
}

// carEventTuple is the payload of every contract event
type carEventTuple struct {
	Vin string
	Car carTuple
}

func toUint64(v *big.Int) uint64 {
	if v == nil || !v.IsUint64() {
		return 0
	}
	return v.Uint64()
}

func toTimestamp(v *big.Int) model.Timestamp {
	return model.Timestamp(toUint64(v))
}

func (t *carTuple) toModel(vin string) *model.Car {
	car := &model.Car{
		VIN:              vin,
		Brand:            t.Brand,
		Model:            t.Model,
		Year:             toUint64(t.Year),
		FuelType:         t.FuelType,
		TransmissionType: t.TransmissionType,
		Color:            t.Color,
		Configuration:    t.Configuration,
		Country:          t.Country,
		PlateNumbers:     append([]string{}, t.PlateNumbers...),
		Mileage:          toUint64(t.Mileage),
		Owners:           append([]common.Address{}, t.Owners...),
		Fines:            make([]model.Fine, 0, len(t.Fines)),
		TheftHistory:     make([]model.Theft, 0, len(t.TheftHistory)),
		Accidents:        make([]model.Accident, 0, len(t.Accidents)),
		ServiceHistory:   make([]model.ServiceWork, 0, len(t.ServiceHistory)),
	}
	for _, f := range t.Fines {
		amount := new(big.Int)
		if f.Amount != nil {
			amount.Set(f.Amount)
		}
		car.Fines = append(car.Fines, model.Fine{
			Date:        toTimestamp(f.Date),
			Description: f.Description,
			Amount:      amount,
			Paid:        f.Paid,
		})
	}
	for _, th := range t.TheftHistory {
		car.TheftHistory = append(car.TheftHistory, model.Theft{
			Date:     toTimestamp(th.Date),
			IsStolen: th.IsStolen,
			Location: th.Location,
		})
	}
	for _, a := range t.Accidents {
		car.Accidents = append(car.Accidents, model.Accident{
			Date:        toTimestamp(a.Date),
			Description: a.Description,
			Images:      append([]string{}, a.Images...),
		})
	}
	for _, s := range t.ServiceHistory {
		car.ServiceHistory = append(car.ServiceHistory, model.ServiceWork{
			Date:    toTimestamp(s.Date),
			Mileage: toUint64(s.Mileage),
			Works:   append([]string{}, s.Works...),
		})
	}
	return car
}
