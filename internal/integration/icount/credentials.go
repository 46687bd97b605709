package icount

import (
	"github.com/tombee/icount-connector/internal/operation/api"
)

// Credentials describes the credential the iCount connector expects from
// the host platform: a single pre-issued bearer token. Username/password
// session login is deliberately not supported here.
func Credentials() *api.CredentialSchema {
	return &api.CredentialSchema{
		Name:        "icountApi",
		DisplayName: "iCount API",
		Fields: []api.CredentialField{
			{
				Name:        "token",
				Description: "API token issued in the iCount settings screen",
				Secret:      true,
				Required:    true,
			},
		},
	}
}
