/*
Copyright the VinDecode Authors. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package model

import (
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// Timestamp is a block time in unix seconds, as stored by the contract
type Timestamp uint64

var months = [...]string{
	"January", "February", "March", "April", "May", "June",
	"July", "August", "September", "October", "November", "December",
}

func NewTimestamp(t time.Time) Timestamp {
	return Timestamp(t.Unix())
}

func (t Timestamp) Time() time.Time {
	return time.Unix(int64(t), 0)
}

// String renders the timestamp in local time, e.g. "2 January 2006 9:04:05"
func (t Timestamp) String() string {
	lt := t.Time().Local()
	return fmt.Sprintf("%d %s %d %d:%02d:%02d",
		lt.Day(), months[lt.Month()-1], lt.Year(), lt.Hour(), lt.Minute(), lt.Second())
}

type Fine struct {
	Date        Timestamp `json:"date"`
	Description string    `json:"description"`
	// Amount in wei
	Amount *big.Int `json:"amount"`
	Paid   bool     `json:"paid"`
}

type Theft struct {
	Date     Timestamp `json:"date"`
	IsStolen bool      `json:"isStolen"`
	Location string    `json:"location"`
}

type Accident struct {
	Date        Timestamp `json:"date"`
	Description string    `json:"description"`
	// Images are gateway URLs of the pinned photos
	Images []string `json:"images"`
}

type ServiceWork struct {
	Date    Timestamp `json:"date"`
	Mileage uint64    `json:"mileage"`
	Works   []string  `json:"works"`
}

// Car is the view-local snapshot of a contract record
type Car struct {
	VIN              string           `json:"vin"`
	Brand            string           `json:"brand"`
	Model            string           `json:"model"`
	Year             uint64           `json:"year"`
	FuelType         string           `json:"fuelType"`
	TransmissionType string           `json:"transmissionType"`
	Color            string           `json:"color"`
	Configuration    string           `json:"configuration"`
	Country          string           `json:"country"`
	PlateNumbers     []string         `json:"plateNumbers"`
	Mileage          uint64           `json:"mileage"`
	Owners           []common.Address `json:"owners"`
	Fines            []Fine           `json:"fines"`
	TheftHistory     []Theft          `json:"theftHistory"`
	Accidents        []Accident       `json:"accidents"`
	ServiceHistory   []ServiceWork    `json:"serviceHistory"`
}

// Registered reports whether the contract knows the car; unknown vins come back as empty records
func (c *Car) Registered() bool {
	return c != nil && len(c.Brand) != 0
}

// Stolen reports the theft status of the latest report
func (c *Car) Stolen() bool {
	if c == nil || len(c.TheftHistory) == 0 {
		return false
	}
	return c.TheftHistory[len(c.TheftHistory)-1].IsStolen
}

// Owner returns the current owner
func (c *Car) Owner() (common.Address, bool) {
	if c == nil || len(c.Owners) == 0 {
		return common.Address{}, false
	}
	return c.Owners[len(c.Owners)-1], true
}

// Clone returns a deep copy
func (c *Car) Clone() *Car {
	if c == nil {
		return nil
	}
	out := *c
	out.PlateNumbers = cloneStrings(c.PlateNumbers)
	if c.Owners != nil {
		out.Owners = append([]common.Address{}, c.Owners...)
	}
	if c.Fines != nil {
		out.Fines = make([]Fine, len(c.Fines))
		for i, f := range c.Fines {
			out.Fines[i] = f
			if f.Amount != nil {
				out.Fines[i].Amount = new(big.Int).Set(f.Amount)
			}
		}
	}
	if c.TheftHistory != nil {
		out.TheftHistory = append([]Theft{}, c.TheftHistory...)
	}
	if c.Accidents != nil {
		out.Accidents = make([]Accident, len(c.Accidents))
		for i, a := range c.Accidents {
			out.Accidents[i] = a
			out.Accidents[i].Images = cloneStrings(a.Images)
		}
	}
	if c.ServiceHistory != nil {
		out.ServiceHistory = make([]ServiceWork, len(c.ServiceHistory))
		for i, s := range c.ServiceHistory {
			out.ServiceHistory[i] = s
			out.ServiceHistory[i].Works = cloneStrings(s.Works)
		}
	}
	return &out
}

func cloneStrings(s []string) []string {
	if s == nil {
		return nil
	}
	return append([]string{}, s...)
}
