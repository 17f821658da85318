/*
Copyright the VinDecode Authors. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package role

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
	"github.com/vindecode/vindecode/platform/common/services/logging"
	"github.com/vindecode/vindecode/platform/ethereum/driver"
)

var logger = logging.MustGetLogger("vindecode.role")

// Resolver answers whether an account holds the role of an area.
// It fails closed: empty accounts, unknown areas and backend errors all resolve to false.
type Resolver struct {
	querier driver.RoleQuerier
}

func NewResolver(querier driver.RoleQuerier) *Resolver {
	return &Resolver{querier: querier}
}

type check func(ctx context.Context, account common.Address) (bool, error)

func (r *Resolver) checks(area Area) []check {
	switch area {
	case Dealer:
		return []check{r.querier.IsDealer}
	case TrafficPolice:
		return []check{r.querier.IsTrafficPolice}
	case Insurance:
		return []check{r.querier.IsInsuranceCompany}
	case Admin:
		return []check{r.querier.IsDealer, r.querier.IsTrafficPolice, r.querier.IsInsuranceCompany}
	default:
		return nil
	}
}

func (r *Resolver) Resolve(ctx context.Context, account common.Address, area Area) bool {
	ok, err := r.Lookup(ctx, account, area)
	if err != nil {
		logger.Warnf("failed resolving [%s] for [%s], denying: %v", area, account, err)
		return false
	}
	return ok
}

// Lookup is Resolve returning the backend failure instead of denying
func (r *Resolver) Lookup(ctx context.Context, account common.Address, area Area) (bool, error) {
	if account == (common.Address{}) {
		return false, nil
	}
	checks := r.checks(area)
	if len(checks) == 0 {
		logger.Warnf("no role guards area [%s]", area)
		return false, nil
	}
	for _, c := range checks {
		ok, err := c(ctx, account)
		if err != nil {
			return false, errors.WithMessagef(err, "failed checking role of area [%s]", area)
		}
		if !ok {
			logger.Debugf("[%s] lacks role for area [%s]", account, area)
			return false, nil
		}
	}
	return true, nil
}
