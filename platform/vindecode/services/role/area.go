/*
Copyright the VinDecode Authors. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package role

import (
	"strings"

	"github.com/pkg/errors"
)

// Area is the protected region a page or action belongs to
type Area int

const (
	// None requires a connected account only
	None Area = iota
	Dealer
	TrafficPolice
	Insurance
	// Admin requires all three roles
	Admin
)

var areaNames = map[Area]string{
	None:          "home",
	Dealer:        "dealer",
	TrafficPolice: "traffic",
	Insurance:     "insurance",
	Admin:         "admin",
}

func (a Area) String() string {
	if name, ok := areaNames[a]; ok {
		return name
	}
	return "unknown"
}

// ParseArea returns the area with the given name, as used in the API paths
func ParseArea(name string) (Area, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for area, n := range areaNames {
		if n == name {
			return area, nil
		}
	}
	return None, errors.Errorf("unknown area [%s]", name)
}

// Areas lists every area
func Areas() []Area {
	return []Area{None, Dealer, TrafficPolice, Insurance, Admin}
}
