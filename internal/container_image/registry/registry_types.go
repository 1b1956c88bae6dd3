package registry

import "github.com/google/go-containerregistry/pkg/authn"

type Registry interface {
	GetKeychain() authn.Keychain
	GetImageRef() (string, error)
}
