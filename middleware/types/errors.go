//   Copyright (C) 2018 ZVChain
//
//   This program is free software: you can redistribute it and/or modify
//   it under the terms of the GNU General Public License as published by
//   the Free Software Foundation, either version 3 of the License, or
//   (at your option) any later version.
//
//   This program is distributed in the hope that it will be useful,
//   but WITHOUT ANY WARRANTY; without even the implied warranty of
//   MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
//   GNU General Public License for more details.
//
//   You should have received a copy of the GNU General Public License
//   along with this program.  If not, see <https://www.gnu.org/licenses/>.

package types

import (
	"errors"
	"fmt"
)

// ErrKind classifies a rejected call
type ErrKind byte

const (
	ErrKindAuthorization ErrKind = iota + 1 // caller isn't allowed to do this
	ErrKindState                            // wrong lifecycle state or time
	ErrKindQuantity                         // zero amount, insufficient balance, limits
	ErrKindArgument                         // malformed argument such as the zero address
)

func (k ErrKind) String() string {
	switch k {
	case ErrKindAuthorization:
		return "authorization"
	case ErrKindState:
		return "state"
	case ErrKindQuantity:
		return "quantity"
	case ErrKindArgument:
		return "argument"
	}
	return "unknown"
}

// TxError is a named rejection. A call failing with it commits nothing.
type TxError struct {
	Kind   ErrKind
	Reason string
}

func (e *TxError) Error() string {
	return fmt.Sprintf("%v: %v", e.Kind, e.Reason)
}

// Is reports two TxErrors equal when kind and reason match, so package level
// sentinels work with errors.Is even after wrapping
func (e *TxError) Is(target error) bool {
	t, ok := target.(*TxError)
	if !ok {
		return false
	}
	return e.Kind == t.Kind && e.Reason == t.Reason
}

func NewAuthError(reason string) *TxError {
	return &TxError{Kind: ErrKindAuthorization, Reason: reason}
}

func NewStateError(reason string) *TxError {
	return &TxError{Kind: ErrKindState, Reason: reason}
}

func NewQuantityError(reason string) *TxError {
	return &TxError{Kind: ErrKindQuantity, Reason: reason}
}

func NewArgumentError(reason string) *TxError {
	return &TxError{Kind: ErrKindArgument, Reason: reason}
}

// KindOf returns the kind of a TxError, 0 for any other error
func KindOf(err error) ErrKind {
	var e *TxError
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}
