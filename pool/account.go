// Package pool implements the collateral pool: the mapping from
// obligation id to owned position, the account ledger, and the
// buy/sell/par-adjust/filter operations (§3 Collateral pool).
package pool

import "github.com/meenmo-clo/engine/money"

// AccountKind enumerates the named cash accounts a deal maintains.
type AccountKind string

const (
	Collection        AccountKind = "COLLECTION"
	RampUp            AccountKind = "RAMP_UP"
	RevolverFunding    AccountKind = "REVOLVER_FUNDING"
	ExpenseReserve     AccountKind = "EXPENSE_RESERVE"
	InterestReserve    AccountKind = "INTEREST_RESERVE"
	Custodial          AccountKind = "CUSTODIAL"
	SupplementalReserve AccountKind = "SUPPLEMENTAL_RESERVE"
	FundingNote        AccountKind = "FUNDING_NOTE"
	Payment            AccountKind = "PAYMENT"
)

// Account is the (interest, principal) cash pair §3 defines; both
// sides are additive.
type Account struct {
	Interest  money.Amount
	Principal money.Amount
}

func (a Account) Add(o Account) Account {
	return Account{Interest: a.Interest.Add(o.Interest), Principal: a.Principal.Add(o.Principal)}
}

// Accounts is the {AccountKind -> Account} map a pool or deal carries.
type Accounts map[AccountKind]Account

// Credit adds interest/principal cash into an account kind.
func (a Accounts) Credit(kind AccountKind, interest, principal money.Amount) {
	acc := a[kind]
	acc.Interest = acc.Interest.Add(interest)
	acc.Principal = acc.Principal.Add(principal)
	a[kind] = acc
}

// Move transfers both sides of one account into another, zeroing the
// source (§4.10 DealSetup: "move RAMP_UP principal cash to
// COLLECTION").
func (a Accounts) Move(from, to AccountKind) {
	acc := a[from]
	a.Credit(to, acc.Interest, acc.Principal)
	a[from] = Account{}
}

// MovePrincipalOnly transfers only the principal side, leaving
// interest at the source untouched.
func (a Accounts) MovePrincipalOnly(from, to AccountKind) {
	acc := a[from]
	a.Credit(to, money.Zero, acc.Principal)
	acc.Principal = money.Zero
	a[from] = acc
}
