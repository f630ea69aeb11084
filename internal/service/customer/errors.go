package customer

import "errors"

// Sentinel errors for the customer service layer.
var (
	ErrNotFound       = errors.New("customer not found")
	ErrDuplicatePhone = errors.New("a customer with this phone number already exists")
	ErrInactive       = errors.New("customer is inactive")
)
