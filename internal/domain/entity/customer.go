package entity

import (
	"github.com/rs/xid"
)

// Customer maps a user to a payment provider's customer identity, keyed
// (uid, provider). Customers keeps every provider customer id ever assigned;
// the set only grows.
type Customer struct {
	UID       xid.ID
	Provider  string
	CreatedAt int64
	UpdatedAt int64
	Customer  string
	Payload   []byte
	Customers map[string]struct{}
}

// SetCustomer records a new current provider customer id, retaining the
// previous ones in the historical set.
func (c *Customer) SetCustomer(customer string) {
	if c.Customers == nil {
		c.Customers = make(map[string]struct{})
	}
	if c.Customer != "" {
		c.Customers[c.Customer] = struct{}{}
	}
	c.Customer = customer
	c.Customers[customer] = struct{}{}
}
