package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// ClientStatus represents the lifecycle status of a client
type ClientStatus string

const (
	ClientStatusProspect   ClientStatus = "PROSPECT"
	ClientStatusActive     ClientStatus = "ACTIVE"
	ClientStatusTerminated ClientStatus = "TERMINATED"
)

// Client represents an investor. Clients are created independently of funds.
type Client struct {
	ID        uuid.UUID
	FullName  string
	Email     string
	Status    ClientStatus
	CreatedAt time.Time
}

// Validate ensures the client adheres to domain rules
func (c *Client) Validate() error {
	if c.FullName == "" {
		return errors.New("client full name cannot be empty")
	}
	switch c.Status {
	case ClientStatusProspect, ClientStatusActive, ClientStatusTerminated:
	default:
		return errors.New("client status must be PROSPECT, ACTIVE or TERMINATED")
	}
	return nil
}
