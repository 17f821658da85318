/*
Copyright the VinDecode Authors. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package page

import (
	"context"
	"math/big"
	"sort"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/vindecode/vindecode/platform/ethereum/driver"
	"github.com/vindecode/vindecode/platform/vindecode/model"
	"github.com/vindecode/vindecode/platform/vindecode/services/merge"
	"github.com/vindecode/vindecode/platform/vindecode/services/relay"
	"github.com/vindecode/vindecode/platform/vindecode/services/role"
	"github.com/vindecode/vindecode/platform/vindecode/services/tx"
)

// Action names
const (
	AddCarAction            = "addCar"
	AddServiceHistoryAction = "addServiceHistory"
	AddAccidentAction       = "addAccident"
	AddFinesAction          = "addFines"
	MarkAsPaidAction        = "markAsPaid"
	ReportTheftAction       = "reportThieftState"
	ChangePlateAction       = "changePlate"
	AddNewOwnerAction       = "addNewOwner"
	PayFineAction           = "payFine"
	BuyReportAction         = "buyReport"
	ActivateSuperUserAction = "activateSuperUser"
)

// CarNotFound is the reason given for actions on unknown cars
const CarNotFound = "Car does not exist in database"

// env is what commands may use while building their call
type env struct {
	reader   driver.CarReader
	uploader relay.Uploader
	// record is the page record, nil when none is loaded
	record *model.Car
	now    func() time.Time
}

// Command is a user action of a page.
// build runs while the action is held and returns the call with the change it makes to the record,
// nil when the change is only known from the contract events.
type Command interface {
	Name() string
	Area() role.Area
	// Target is the vin the command changes, empty when none
	Target() string
	Validate() error
	build(ctx context.Context, e *env) (driver.Call, merge.Action, error)
}

func invalid(err error) *tx.Failure {
	return &tx.Failure{Kind: tx.Unknown, Reason: err.Error(), Cause: err}
}

func validateVIN(vin string) error {
	if err := model.ValidateVIN(vin); err != nil {
		return invalid(err)
	}
	return nil
}

type AddCar struct {
	VIN              string `json:"vin"`
	Brand            string `json:"brand"`
	Model            string `json:"model"`
	Year             uint64 `json:"year"`
	FuelType         string `json:"fuelType"`
	TransmissionType string `json:"transmissionType"`
	Color            string `json:"color"`
	Configuration    string `json:"configuration"`
	Country          string `json:"country"`
	Owner            string `json:"owner"`
}

func (c *AddCar) Name() string    { return AddCarAction }
func (c *AddCar) Area() role.Area { return role.Dealer }
func (c *AddCar) Target() string  { return c.VIN }

func (c *AddCar) Validate() error {
	if err := validateVIN(c.VIN); err != nil {
		return err
	}
	if _, err := model.ParseAddress(c.Owner); err != nil {
		return invalid(err)
	}
	if len(strings.TrimSpace(c.Brand)) == 0 {
		return invalid(errors.New("brand is required"))
	}
	return nil
}

func (c *AddCar) build(context.Context, *env) (driver.Call, merge.Action, error) {
	owner, err := model.ParseAddress(c.Owner)
	if err != nil {
		return driver.Call{}, nil, invalid(err)
	}
	return driver.Call{
		Method: AddCarAction,
		Args: []interface{}{
			c.VIN, c.Brand, c.Model, new(big.Int).SetUint64(c.Year), c.FuelType,
			c.TransmissionType, c.Color, c.Configuration, c.Country, owner,
		},
	}, nil, nil
}

type AddServiceHistory struct {
	VIN     string   `json:"vin"`
	Mileage uint64   `json:"mileage"`
	Works   []string `json:"works"`
}

func (c *AddServiceHistory) Name() string    { return AddServiceHistoryAction }
func (c *AddServiceHistory) Area() role.Area { return role.Dealer }
func (c *AddServiceHistory) Target() string  { return c.VIN }

func (c *AddServiceHistory) Validate() error {
	if err := validateVIN(c.VIN); err != nil {
		return err
	}
	if len(c.Works) == 0 {
		return invalid(errors.New("at least one work is required"))
	}
	return nil
}

func (c *AddServiceHistory) build(_ context.Context, e *env) (driver.Call, merge.Action, error) {
	return driver.Call{
			Method: AddServiceHistoryAction,
			Args:   []interface{}{c.VIN, new(big.Int).SetUint64(c.Mileage), c.Works},
		}, merge.AddServiceEntry{
			Mileage: c.Mileage,
			Works:   c.Works,
			At:      model.NewTimestamp(e.now()),
		}, nil
}

type AddAccident struct {
	VIN         string       `json:"vin"`
	Description string       `json:"description"`
	Images      *relay.Batch `json:"-"`
}

func (c *AddAccident) Name() string    { return AddAccidentAction }
func (c *AddAccident) Area() role.Area { return role.Insurance }
func (c *AddAccident) Target() string  { return c.VIN }

func (c *AddAccident) Validate() error {
	if err := validateVIN(c.VIN); err != nil {
		return err
	}
	if len(strings.TrimSpace(c.Description)) == 0 {
		return invalid(errors.New("description is required"))
	}
	return nil
}

// build uploads the images first, the accident is never submitted when the upload fails.
// Images already uploaded by an earlier attempt are not sent again.
func (c *AddAccident) build(ctx context.Context, e *env) (driver.Call, merge.Action, error) {
	if c.Images == nil {
		c.Images = relay.NewBatch()
	}
	urls, err := c.Images.Upload(ctx, e.uploader)
	if err != nil {
		return driver.Call{}, nil, err
	}
	return driver.Call{
			Method: AddAccidentAction,
			Args:   []interface{}{c.VIN, c.Description, urls},
		}, merge.AddAccident{
			Description: c.Description,
			Images:      urls,
			At:          model.NewTimestamp(e.now()),
		}, nil
}

type FineInput struct {
	Description string `json:"description"`
	// Amount in ether
	Amount string `json:"amount"`
}

type AddFines struct {
	VIN   string      `json:"vin"`
	Fines []FineInput `json:"fines"`
}

func (c *AddFines) Name() string    { return AddFinesAction }
func (c *AddFines) Area() role.Area { return role.TrafficPolice }
func (c *AddFines) Target() string  { return c.VIN }

func (c *AddFines) Validate() error {
	if err := validateVIN(c.VIN); err != nil {
		return err
	}
	if len(c.Fines) == 0 {
		return invalid(errors.New("at least one fine is required"))
	}
	for _, f := range c.Fines {
		if _, err := model.ParseEther(f.Amount); err != nil {
			return invalid(err)
		}
	}
	return nil
}

func (c *AddFines) build(_ context.Context, e *env) (driver.Call, merge.Action, error) {
	descriptions := make([]string, len(c.Fines))
	amounts := make([]*big.Int, len(c.Fines))
	fines := make([]model.Fine, len(c.Fines))
	at := model.NewTimestamp(e.now())
	for i, f := range c.Fines {
		wei, err := model.ParseEther(f.Amount)
		if err != nil {
			return driver.Call{}, nil, invalid(err)
		}
		descriptions[i] = f.Description
		amounts[i] = wei
		fines[i] = model.Fine{Date: at, Description: f.Description, Amount: wei}
	}
	return driver.Call{
		Method: AddFinesAction,
		Args:   []interface{}{c.VIN, descriptions, amounts},
	}, merge.AddFines{Fines: fines}, nil
}

type MarkAsPaid struct {
	VIN   string `json:"vin"`
	Index int    `json:"index"`
}

func (c *MarkAsPaid) Name() string    { return MarkAsPaidAction }
func (c *MarkAsPaid) Area() role.Area { return role.TrafficPolice }
func (c *MarkAsPaid) Target() string  { return c.VIN }

func (c *MarkAsPaid) Validate() error {
	if err := validateVIN(c.VIN); err != nil {
		return err
	}
	if c.Index < 0 {
		return invalid(errors.Errorf("invalid fine index %d", c.Index))
	}
	return nil
}

func (c *MarkAsPaid) build(context.Context, *env) (driver.Call, merge.Action, error) {
	return driver.Call{
		Method: MarkAsPaidAction,
		Args:   []interface{}{c.VIN, big.NewInt(int64(c.Index))},
	}, merge.MarkFinePaid{Index: c.Index}, nil
}

// ReportTheft sets the theft status of the car
type ReportTheft struct {
	VIN      string `json:"vin"`
	Location string `json:"location"`
	Stolen   bool   `json:"stolen"`
}

func (c *ReportTheft) Name() string    { return ReportTheftAction }
func (c *ReportTheft) Area() role.Area { return role.TrafficPolice }
func (c *ReportTheft) Target() string  { return c.VIN }

func (c *ReportTheft) Validate() error {
	return validateVIN(c.VIN)
}

func (c *ReportTheft) build(_ context.Context, e *env) (driver.Call, merge.Action, error) {
	return driver.Call{
			Method: ReportTheftAction,
			Args:   []interface{}{c.VIN, c.Location, c.Stolen},
		}, merge.ReportTheft{
			Stolen:   c.Stolen,
			Location: c.Location,
			At:       model.NewTimestamp(e.now()),
		}, nil
}

type ChangePlate struct {
	VIN   string `json:"vin"`
	Plate string `json:"plate"`
}

func (c *ChangePlate) Name() string    { return ChangePlateAction }
func (c *ChangePlate) Area() role.Area { return role.TrafficPolice }
func (c *ChangePlate) Target() string  { return c.VIN }

func (c *ChangePlate) Validate() error {
	if err := validateVIN(c.VIN); err != nil {
		return err
	}
	if len(strings.TrimSpace(c.Plate)) == 0 {
		return invalid(errors.New("plate is required"))
	}
	return nil
}

func (c *ChangePlate) build(context.Context, *env) (driver.Call, merge.Action, error) {
	return driver.Call{
		Method: ChangePlateAction,
		Args:   []interface{}{c.VIN, c.Plate},
	}, merge.ChangePlate{Plate: c.Plate}, nil
}

type AddNewOwner struct {
	VIN   string `json:"vin"`
	Owner string `json:"owner"`
}

func (c *AddNewOwner) Name() string    { return AddNewOwnerAction }
func (c *AddNewOwner) Area() role.Area { return role.TrafficPolice }
func (c *AddNewOwner) Target() string  { return c.VIN }

func (c *AddNewOwner) Validate() error {
	if err := validateVIN(c.VIN); err != nil {
		return err
	}
	if _, err := model.ParseAddress(c.Owner); err != nil {
		return invalid(err)
	}
	return nil
}

func (c *AddNewOwner) build(context.Context, *env) (driver.Call, merge.Action, error) {
	owner, err := model.ParseAddress(c.Owner)
	if err != nil {
		return driver.Call{}, nil, invalid(err)
	}
	return driver.Call{
		Method: AddNewOwnerAction,
		Args:   []interface{}{c.VIN, owner},
	}, merge.AddOwner{Owner: owner}, nil
}

// PayFine pays the fine amount from the connected account
type PayFine struct {
	VIN   string `json:"vin"`
	Index int    `json:"index"`
}

func (c *PayFine) Name() string    { return PayFineAction }
func (c *PayFine) Area() role.Area { return role.None }
func (c *PayFine) Target() string  { return c.VIN }

func (c *PayFine) Validate() error {
	if err := validateVIN(c.VIN); err != nil {
		return err
	}
	if c.Index < 0 {
		return invalid(errors.Errorf("invalid fine index %d", c.Index))
	}
	return nil
}

func (c *PayFine) build(ctx context.Context, e *env) (driver.Call, merge.Action, error) {
	record := e.record
	if record == nil || record.VIN != c.VIN {
		var err error
		if record, err = e.reader.CarInfo(ctx, c.VIN); err != nil {
			return driver.Call{}, nil, err
		}
	}
	if !record.Registered() {
		return driver.Call{}, nil, invalid(errors.New(CarNotFound))
	}
	if c.Index >= len(record.Fines) {
		return driver.Call{}, nil, invalid(errors.Errorf("fine %d not found", c.Index))
	}
	fine := record.Fines[c.Index]
	if fine.Paid {
		return driver.Call{}, nil, invalid(errors.New("fine already paid"))
	}
	return driver.Call{
		Method: PayFineAction,
		Args:   []interface{}{c.VIN, big.NewInt(int64(c.Index))},
		Value:  new(big.Int).Set(fine.Amount),
	}, merge.MarkFinePaid{Index: c.Index}, nil
}

// BuyReport pays for the full record, delivered by the ReportPurchased event
type BuyReport struct {
	VIN string `json:"vin"`
}

func (c *BuyReport) Name() string    { return BuyReportAction }
func (c *BuyReport) Area() role.Area { return role.None }
func (c *BuyReport) Target() string  { return c.VIN }

func (c *BuyReport) Validate() error {
	return validateVIN(c.VIN)
}

func (c *BuyReport) build(ctx context.Context, e *env) (driver.Call, merge.Action, error) {
	exists, err := e.reader.CarExists(ctx, c.VIN)
	if err != nil {
		return driver.Call{}, nil, err
	}
	if !exists {
		return driver.Call{}, nil, invalid(errors.New(CarNotFound))
	}
	return driver.Call{
		Method: BuyReportAction,
		Args:   []interface{}{c.VIN},
		Value:  new(big.Int).Set(model.ReportPrice),
	}, nil, nil
}

// ActivateSuperUser grants every role to the connected account
type ActivateSuperUser struct{}

func (c *ActivateSuperUser) Name() string    { return ActivateSuperUserAction }
func (c *ActivateSuperUser) Area() role.Area { return role.None }
func (c *ActivateSuperUser) Target() string  { return "" }
func (c *ActivateSuperUser) Validate() error { return nil }

func (c *ActivateSuperUser) build(context.Context, *env) (driver.Call, merge.Action, error) {
	return driver.Call{Method: "ACTIVATE_SUPER_USER"}, nil, nil
}

// commands lists the actions offered by each page
var commands = map[role.Area]map[string]func() Command{
	role.Dealer: {
		AddCarAction:            func() Command { return &AddCar{} },
		AddServiceHistoryAction: func() Command { return &AddServiceHistory{} },
	},
	role.TrafficPolice: {
		ChangePlateAction: func() Command { return &ChangePlate{} },
		AddNewOwnerAction: func() Command { return &AddNewOwner{} },
		AddFinesAction:    func() Command { return &AddFines{} },
		MarkAsPaidAction:  func() Command { return &MarkAsPaid{} },
		ReportTheftAction: func() Command { return &ReportTheft{} },
	},
	role.Insurance: {
		AddAccidentAction: func() Command { return &AddAccident{} },
	},
	role.None: {
		PayFineAction:   func() Command { return &PayFine{} },
		BuyReportAction: func() Command { return &BuyReport{} },
	},
	role.Admin: {
		ActivateSuperUserAction: func() Command { return &ActivateSuperUser{} },
	},
}

// NewCommand returns an empty command of the page of area, ready to be decoded into
func NewCommand(area role.Area, name string) (Command, error) {
	f, ok := commands[area][name]
	if !ok {
		return nil, errors.Errorf("page [%s] has no action [%s]", area, name)
	}
	return f(), nil
}

// Actions lists the action names of the page of area
func Actions(area role.Area) []string {
	var res []string
	for name := range commands[area] {
		res = append(res, name)
	}
	sort.Strings(res)
	return res
}
