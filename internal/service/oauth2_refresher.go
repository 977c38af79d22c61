package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/MKhiriev/go-clip-keeper/internal/utils"
	"github.com/MKhiriev/go-clip-keeper/models"
	"golang.org/x/oauth2"
)

type oauth2Refresher struct {
	config *oauth2.Config
	client *http.Client
}

// NewOAuth2Refresher returns a [TokenRefresher] performing refresh_token
// grants against tokenURL.
func NewOAuth2Refresher(clientID, clientSecret, tokenURL string) TokenRefresher {
	return &oauth2Refresher{
		config: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			Endpoint:     oauth2.Endpoint{TokenURL: tokenURL},
		},
		client: utils.NewHTTPClient().GetClient(),
	}
}

func (r *oauth2Refresher) Refresh(ctx context.Context, refreshToken string) (models.Credential, error) {
	if refreshToken == "" {
		return models.Credential{}, fmt.Errorf("%w: empty refresh token", ErrAuth)
	}

	ctx = context.WithValue(ctx, oauth2.HTTPClient, r.client)
	tok, err := r.config.TokenSource(ctx, &oauth2.Token{RefreshToken: refreshToken}).Token()
	if err != nil {
		return models.Credential{}, mapOAuth2Error(err)
	}

	return models.Credential{
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		Expiry:       tok.Expiry,
	}, nil
}

func mapOAuth2Error(err error) error {
	var re *oauth2.RetrieveError
	if errors.As(err, &re) {
		if re.ErrorCode == "invalid_grant" || re.ErrorCode == "invalid_client" ||
			re.ErrorCode == "unauthorized_client" ||
			(re.Response != nil && re.Response.StatusCode == http.StatusUnauthorized) {
			return fmt.Errorf("%w: %v", ErrAuth, err)
		}
	}

	return fmt.Errorf("%w: %v", ErrNetwork, err)
}
