// Package vaulterr holds the error taxonomy shared by the record codecs, the
// vault core and the host runtime.
//
// Every failure aborts the whole operation. Callers match with errors.Is; the
// numeric code is stable and is what a host reports back to its client.
package vaulterr

import "errors"

var (
	ErrAuthenticationFailure = errors.New("authentication failure: required signer missing or not authorized")
	ErrAddressMismatch       = errors.New("address mismatch: account does not match the vault record")
	ErrArithmeticOverflow    = errors.New("arithmetic overflow")
	ErrArithmeticUnderflow   = errors.New("arithmetic underflow")
	ErrAmountTooLarge        = errors.New("amount too large for a 64-bit token amount")
	ErrEpochMismatch         = errors.New("epoch mismatch")
	ErrAlreadyClaimed        = errors.New("claim index already paid")
	ErrIndexOutOfRange       = errors.New("claim index out of bitmap range")
	ErrProofInvalid          = errors.New("merkle proof does not match root")
	ErrProofTooLong          = errors.New("merkle proof too long")
	ErrNoActiveEpoch         = errors.New("no active epoch: total weight is zero")
	ErrInsufficientShares    = errors.New("insufficient shares")
	ErrMalformedInput        = errors.New("malformed input")
)

// codes maps each sentinel to its wire code. Zero means success.
var codes = []struct {
	err  error
	code uint32
}{
	{ErrAuthenticationFailure, 1},
	{ErrAddressMismatch, 2},
	{ErrArithmeticOverflow, 3},
	{ErrArithmeticUnderflow, 4},
	{ErrAmountTooLarge, 5},
	{ErrEpochMismatch, 6},
	{ErrAlreadyClaimed, 7},
	{ErrIndexOutOfRange, 8},
	{ErrProofInvalid, 9},
	{ErrProofTooLong, 10},
	{ErrNoActiveEpoch, 11},
	{ErrInsufficientShares, 12},
	{ErrMalformedInput, 13},
}

// UnknownCode is reported for errors outside the taxonomy (for example a
// storage failure inside the host).
const UnknownCode uint32 = 0xffff

// Code returns the stable numeric code for err, 0 for nil.
func Code(err error) uint32 {
	if err == nil {
		return 0
	}
	for _, c := range codes {
		if errors.Is(err, c.err) {
			return c.code
		}
	}
	return UnknownCode
}

// Name returns the short taxonomy name for err ("AlreadyClaimed", ...), or
// "Unknown" when err is outside the taxonomy.
func Name(err error) string {
	switch Code(err) {
	case 0:
		return "Ok"
	case 1:
		return "AuthenticationFailure"
	case 2:
		return "AddressMismatch"
	case 3:
		return "ArithmeticOverflow"
	case 4:
		return "ArithmeticUnderflow"
	case 5:
		return "AmountTooLarge"
	case 6:
		return "EpochMismatch"
	case 7:
		return "AlreadyClaimed"
	case 8:
		return "IndexOutOfRange"
	case 9:
		return "ProofInvalid"
	case 10:
		return "ProofTooLong"
	case 11:
		return "NoActiveEpoch"
	case 12:
		return "InsufficientShares"
	case 13:
		return "MalformedInput"
	default:
		return "Unknown"
	}
}
