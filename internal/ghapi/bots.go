package ghapi

import (
	"strings"

	"github.com/google/go-github/v80/github"
	"github.com/mona-actions/gh-community-metrics/internal/model"
)

const botSuffix = "[bot]"

// IsBot reports whether an account should be excluded as automation: the login is missing,
// the account type is non-empty and not "User", or the login ends in "[bot]". An empty type
// counts as absent.
func IsBot(u *github.User) bool {
	if u == nil || u.GetLogin() == "" {
		return true
	}
	if t := u.GetType(); t != "" && t != "User" {
		return true
	}
	return strings.HasSuffix(u.GetLogin(), botSuffix)
}

// toUser normalizes an API account.
func toUser(u *github.User) model.User {
	return model.User{
		Login:     u.GetLogin(),
		AvatarURL: u.GetAvatarURL(),
	}
}
