// Package utils provides general-purpose helper utilities used across
// different parts of the application: HTTP response writing, HTTP client
// construction, JWT claim inspection and identifier generation.
package utils

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrNoExpiry is returned by [TokenExpiry] when the token carries no exp claim.
var ErrNoExpiry = errors.New("token has no expiry claim")

// TokenExpiry reads the exp claim of an access token without verifying its
// signature. The token was issued by the identity provider and is verified
// by the remote store, the client only needs to know when to refresh it.
//
// Example usage:
//
//	exp, err := utils.TokenExpiry(accessToken)
//	if err == nil && !time.Now().Before(exp) {
//	    // refresh
//	}
func TokenExpiry(tokenString string) (time.Time, error) {
	token, _, err := jwt.NewParser().ParseUnverified(tokenString, jwt.MapClaims{})
	if err != nil {
		return time.Time{}, fmt.Errorf("error parsing token: %w", err)
	}

	exp, err := token.Claims.GetExpirationTime()
	if err != nil {
		return time.Time{}, fmt.Errorf("error reading exp claim: %w", err)
	}
	if exp == nil {
		return time.Time{}, ErrNoExpiry
	}

	return exp.Time, nil
}

// TokenSubject returns the sub claim of an access token without verifying
// its signature, or an empty string when the token cannot be parsed.
func TokenSubject(tokenString string) string {
	token, _, err := jwt.NewParser().ParseUnverified(tokenString, jwt.MapClaims{})
	if err != nil {
		return ""
	}

	sub, err := token.Claims.GetSubject()
	if err != nil {
		return ""
	}
	return sub
}
