package git

import (
	"github.com/go-git/go-git/v5/plumbing/transport"
	"github.com/go-git/go-git/v5/plumbing/transport/http"
	"github.com/go-git/go-git/v5/plumbing/transport/ssh"

	"git.home.luguber.info/inful/bookbuilder/internal/foundation/errors"
)

// AuthType selects how the client authenticates against remotes.
type AuthType string

const (
	AuthNone  AuthType = "none"
	AuthToken AuthType = "token"
	AuthBasic AuthType = "basic"
	AuthSSH   AuthType = "ssh"
)

// Auth holds credentials for cloning.
type Auth struct {
	Type     AuthType `yaml:"type"`
	Token    string   `yaml:"token,omitempty"`
	Username string   `yaml:"username,omitempty"`
	Password string   `yaml:"password,omitempty"`
	KeyPath  string   `yaml:"key_path,omitempty"`
}

// method returns a go-git AuthMethod for the configuration. A nil config or
// AuthNone yields no authentication.
func (a *Auth) method() (transport.AuthMethod, error) {
	if a == nil {
		return nil, nil
	}
	switch a.Type {
	case "", AuthNone:
		return nil, nil
	case AuthToken:
		if a.Token == "" {
			return nil, errors.AuthError("token authentication requires a token").Build()
		}
		return &http.BasicAuth{Username: "token", Password: a.Token}, nil
	case AuthBasic:
		if a.Username == "" || a.Password == "" {
			return nil, errors.AuthError("basic authentication requires username and password").Build()
		}
		return &http.BasicAuth{Username: a.Username, Password: a.Password}, nil
	case AuthSSH:
		user := a.Username
		if user == "" {
			user = "git"
		}
		keys, err := ssh.NewPublicKeysFromFile(user, a.KeyPath, a.Password)
		if err != nil {
			return nil, errors.AuthError("cannot load ssh key").WithCause(err).WithContext("key_path", a.KeyPath).Build()
		}
		return keys, nil
	default:
		return nil, errors.AuthError("unsupported authentication type").WithContext("type", string(a.Type)).Build()
	}
}
