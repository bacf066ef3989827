package services

import "errors"

var (
	ErrNotFound           = errors.New("not found")
	ErrForbidden          = errors.New("caller does not own this ticket")
	ErrNoPendingTransfer  = errors.New("ticket has no pending transfer")
	ErrInvalidOrUsedCode  = errors.New("transfer code invalid or already used")
	ErrSelfRedemption     = errors.New("cannot redeem a ticket you already own")
	ErrUnknownUser        = errors.New("redeeming user not found")
	ErrInvalidCredentials = errors.New("invalid username or password")
)
