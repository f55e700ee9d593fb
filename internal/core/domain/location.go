package domain

import "time"

type Location struct {
	ID               string
	Name             string
	Code             string
	Capacity         int
	CurrentOccupancy int
	IsActive         bool
	IsDefault        bool
	UpdatedAt        time.Time
}

// Reserve adds amount to occupancy without crossing capacity.
func (l *Location) Reserve(amount int) error {
	if amount < 0 {
		return ErrInvalidQuantity
	}
	if !l.IsActive {
		return ErrInvalidLocation
	}
	if l.CurrentOccupancy+amount > l.Capacity {
		return ErrCapacityExceeded
	}
	l.CurrentOccupancy += amount
	return nil
}

// Release floors at zero.
func (l *Location) Release(amount int) error {
	if amount < 0 {
		return ErrInvalidQuantity
	}
	l.CurrentOccupancy -= amount
	if l.CurrentOccupancy < 0 {
		l.CurrentOccupancy = 0
	}
	return nil
}
