/*
Copyright the VinDecode Authors. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package merge applies confirmed actions to the local copy of a car record.
package merge

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/vindecode/vindecode/platform/ethereum/driver"
	"github.com/vindecode/vindecode/platform/vindecode/model"
)

// Action is a confirmed change. The set of actions is closed.
type Action interface {
	action()
}

type MarkFinePaid struct {
	Index int
}

type AddServiceEntry struct {
	Mileage uint64
	Works   []string
	At      model.Timestamp
}

type AddAccident struct {
	Description string
	Images      []string
	At          model.Timestamp
}

type AddFines struct {
	Fines []model.Fine
}

type ChangePlate struct {
	Plate string
}

type AddOwner struct {
	Owner common.Address
}

type ReportTheft struct {
	Stolen   bool
	Location string
	At       model.Timestamp
}

// ReplaceRecord carries the full record emitted by the contract
type ReplaceRecord struct {
	Record *model.Car
}

func (MarkFinePaid) action()    {}
func (AddServiceEntry) action() {}
func (AddAccident) action()     {}
func (AddFines) action()        {}
func (ChangePlate) action()     {}
func (AddOwner) action()        {}
func (ReportTheft) action()     {}
func (ReplaceRecord) action()   {}

// Merge returns a copy of record with the action applied. The input is never modified.
// A nil record stays nil.
func Merge(record *model.Car, a Action) *model.Car {
	if record == nil {
		return nil
	}
	if r, ok := a.(ReplaceRecord); ok {
		if r.Record == nil {
			return record.Clone()
		}
		return r.Record.Clone()
	}

	out := record.Clone()
	switch a := a.(type) {
	case MarkFinePaid:
		if a.Index >= 0 && a.Index < len(out.Fines) {
			out.Fines[a.Index].Paid = true
		}
	case AddServiceEntry:
		out.ServiceHistory = append(out.ServiceHistory, model.ServiceWork{
			Date:    a.At,
			Mileage: a.Mileage,
			Works:   append([]string(nil), a.Works...),
		})
		if a.Mileage > out.Mileage {
			out.Mileage = a.Mileage
		}
	case AddAccident:
		out.Accidents = append(out.Accidents, model.Accident{
			Date:        a.At,
			Description: a.Description,
			Images:      append([]string(nil), a.Images...),
		})
	case AddFines:
		fines := (&model.Car{Fines: a.Fines}).Clone().Fines
		out.Fines = append(out.Fines, fines...)
	case ChangePlate:
		out.PlateNumbers = append(out.PlateNumbers, a.Plate)
	case AddOwner:
		out.Owners = append(out.Owners, a.Owner)
	case ReportTheft:
		out.TheftHistory = append(out.TheftHistory, model.Theft{
			Date:     a.At,
			IsStolen: a.Stolen,
			Location: a.Location,
		})
	}
	return out
}

// FromConfirmation returns the record replacements the confirmation carries for vin, in log order
func FromConfirmation(confirmation *driver.Confirmation, vin string) []Action {
	if confirmation == nil {
		return nil
	}
	var res []Action
	for _, ev := range confirmation.Events {
		if ev.VIN == vin && ev.Car != nil {
			res = append(res, ReplaceRecord{Record: ev.Car})
		}
	}
	return res
}
