package fakesessionrepo_test

import (
	"testing"

	"github.com/jrsteele09/go-auth-sessions/sessions"
	fakesessionrepo "github.com/jrsteele09/go-auth-sessions/sessions/repofake"
	"github.com/jrsteele09/go-auth-sessions/sessions/sessionstest"
)

func TestFakeSessionRepo(t *testing.T) {
	sessionstest.RunRepoSuite(t, func(t *testing.T) sessions.Repo {
		return fakesessionrepo.NewFakeSessionRepo()
	})
}
