package cli

import (
	"fmt"

	"github.com/akowalczyk/voxtask/internal/core"
	"github.com/akowalczyk/voxtask/internal/server"
	"github.com/akowalczyk/voxtask/pkg/models"
)

// Service instances, set during app initialization in app.go.
var (
	Config     *core.AppConfig
	Accounts   map[string]*models.AccountSettings
	Events     core.EventLogger
	NewClients server.ClientFactory
)

// resolveAccount returns the account named by the flag, falling back to the
// configured default account.
func resolveAccount(flagValue string) (*models.AccountSettings, error) {
	name := flagValue
	if name == "" && Config != nil {
		name = Config.DefaultAccount
	}
	if name == "" {
		return nil, fmt.Errorf("no account selected: pass --account or set default_account in .voxtaskconfig")
	}

	account, ok := Accounts[name]
	if !ok {
		return nil, fmt.Errorf("unknown account %q", name)
	}
	return account, nil
}
