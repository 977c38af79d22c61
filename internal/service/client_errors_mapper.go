// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package service

import (
	"errors"
	"fmt"

	"github.com/MKhiriev/go-clip-keeper/internal/adapter"
)

// mapAdapterError translates the adapter's transport error into a service
// fault class. The original error stays in the chain.
func mapAdapterError(err error) error {
	if err == nil {
		return nil
	}

	switch {
	case errors.Is(err, ErrAuth), errors.Is(err, ErrNetwork), errors.Is(err, ErrDecode):
		return err

	case errors.Is(err, adapter.ErrUnauthorized), errors.Is(err, adapter.ErrForbidden):
		return fmt.Errorf("%w: %w", ErrAuth, err)

	case errors.Is(err, adapter.ErrBadRequest):
		return fmt.Errorf("%w: %w", ErrDecode, err)

	case errors.Is(err, adapter.ErrNetwork),
		errors.Is(err, adapter.ErrInternalServerError),
		errors.Is(err, adapter.ErrNotFound),
		errors.Is(err, adapter.ErrSubscriptionClosed):
		return fmt.Errorf("%w: %w", ErrNetwork, err)
	}

	return err
}

// isUnauthorized reports whether err is a rejected credential, either from
// the transport or from the credential manager.
func isUnauthorized(err error) bool {
	return errors.Is(err, adapter.ErrUnauthorized) ||
		errors.Is(err, adapter.ErrForbidden) ||
		errors.Is(err, ErrAuth)
}
