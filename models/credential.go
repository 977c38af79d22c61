// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package models

import "time"

// Credential is the access token used to authorise remote store calls,
// together with the refresh token that renews it.
type Credential struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	Expiry       time.Time `json:"expiry"`
}

// IsValid reports whether the credential can be used or refreshed without
// user interaction.
func (c Credential) IsValid() bool {
	return c.AccessToken != "" && c.RefreshToken != ""
}

// NeedsRefresh reports whether the access token has reached its expiry at now.
func (c Credential) NeedsRefresh(now time.Time) bool {
	return !now.Before(c.Expiry)
}
