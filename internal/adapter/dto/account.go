package dto

import (
	"github.com/iho/txengine/internal/domain"
)

// AccountSnapshot is the serialized form of an account in every output sink.
type AccountSnapshot struct {
	Client    uint16 `json:"client"`
	Available string `json:"available"`
	Held      string `json:"held"`
	Total     string `json:"total"`
	Locked    bool   `json:"locked"`
}

// AccountFromDomain converts a domain account to its snapshot.
func AccountFromDomain(a domain.Account) AccountSnapshot {
	return AccountSnapshot{
		Client:    a.ClientID,
		Available: a.Available.StringFixed(domain.BalancePlaces),
		Held:      a.Held.StringFixed(domain.BalancePlaces),
		Total:     a.Total.StringFixed(domain.BalancePlaces),
		Locked:    a.Locked,
	}
}

// AccountsFromDomain converts domain accounts to snapshots.
func AccountsFromDomain(accounts []domain.Account) []AccountSnapshot {
	result := make([]AccountSnapshot, len(accounts))
	for i, a := range accounts {
		result[i] = AccountFromDomain(a)
	}
	return result
}
