package cmd

import (
	"fmt"

	"github.com/mmcdole/casedesk/internal/adapter"
	"github.com/mmcdole/casedesk/internal/store"
	"github.com/spf13/cobra"
)

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Forget the server credentials and clear local data",
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg.Server.URL != "" {
			if st, err := store.NewCaseStore(cfg.CachePath(), cfg.Server.URL); err == nil {
				st.InvalidateAll()
				st.Close()
			} else {
				logger.Warn("failed to open case store", "error", err)
			}
		}
		if err := adapter.ClearServerConfig(); err != nil {
			return fmt.Errorf("failed to clear server config: %w", err)
		}
		if err := adapter.ClearCache(cfg); err != nil {
			return err
		}
		logger.Info("logged out")
		fmt.Fprintln(cmd.OutOrStdout(), "Logged out. Run casedesk setup to configure a server.")
		return nil
	},
}
