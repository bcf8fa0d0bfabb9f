package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/dshills/tabnine/internal/client"
	"github.com/dshills/tabnine/internal/installer"
)

var installCmd = &cobra.Command{
	Use:   "install",
	Short: "Download and install the newest engine binary",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		log := newLogger(cfg)

		inst := installer.New(installer.Config{Logger: log})

		ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Minute)
		defer cancel()

		version, err := inst.Install(ctx, cfg.BinaryRoot)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "installed engine %s under %s\n", version, cfg.BinaryRoot)
		return nil
	},
}

var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Show the authenticated engine user",
	RunE: func(cmd *cobra.Command, args []string) error {
		sess, err := newSession()
		if err != nil {
			return err
		}
		defer sess.Stop()

		ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
		defer cancel()

		name, err := sess.AuthenticatedUser(ctx)
		if err != nil {
			return err
		}
		if name == "" {
			fmt.Fprintln(cmd.OutOrStdout(), "not logged in")
			return nil
		}
		fmt.Fprintln(cmd.OutOrStdout(), name)
		return nil
	},
}

var hubCmd = &cobra.Command{
	Use:   "hub",
	Short: "Print the configuration hub URL",
	RunE: func(cmd *cobra.Command, args []string) error {
		sess, err := newSession()
		if err != nil {
			return err
		}
		defer sess.Stop()

		ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
		defer cancel()

		url, err := sess.ConfigurationHubURL(ctx)
		if err != nil {
			return err
		}
		if url == "" {
			fmt.Fprintln(cmd.OutOrStdout(), "engine did not return a hub URL")
			return nil
		}
		fmt.Fprintln(cmd.OutOrStdout(), url)
		return nil
	},
}

var restartCmd = &cobra.Command{
	Use:   "restart",
	Short: "Spawn a fresh engine process and report its state",
	RunE: func(cmd *cobra.Command, args []string) error {
		sess, err := newSession()
		if err != nil {
			return err
		}
		defer sess.Stop()

		if err := sess.Restart(); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "engine running")
		return nil
	},
}

// newSession assembles a surface-less session for engine queries.
func newSession() (*client.Session, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	return client.New(client.Options{
		Config: cfg,
		Logger: newLogger(cfg),
	}), nil
}
