package models

import (
	"time"

	"github.com/ethereum/go-ethereum/common"

	"tokengate/pkg/domain"
)

// Entry binds a wallet to its identity contract and declared country.
type Entry struct {
	Wallet    common.Address
	Identity  common.Address
	Country   domain.CountryCode
	UpdatedAt time.Time
}

// Registration is one row of a batch registration.
type Registration struct {
	Wallet   common.Address
	Identity common.Address
	Country  domain.CountryCode
}
