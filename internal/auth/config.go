package auth

import (
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/microsoft"
)

// DefaultTenant is the Microsoft identity platform tenant for personal accounts.
const DefaultTenant = "consumers"

// Scopes requested for every authorization. offline_access makes the
// provider issue a refresh token.
var Scopes = []string{
	"User.Read",
	"Mail.ReadWrite",
	"Mail.Send",
	"offline_access",
}

// OAuth2Config returns the authorization code configuration for the
// Microsoft identity platform. clientSecret may be empty for public clients.
func OAuth2Config(clientID, clientSecret, tenant, redirectURL string) *oauth2.Config {
	if tenant == "" {
		tenant = DefaultTenant
	}
	return &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		Endpoint:     microsoft.AzureADEndpoint(tenant),
		RedirectURL:  redirectURL,
		Scopes:       append([]string(nil), Scopes...),
	}
}
