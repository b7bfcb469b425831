package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"healthstore/config"
	"healthstore/sandbox"
)

var (
	sandboxAddr string
	configForce bool
)

var sandboxCmd = &cobra.Command{
	Use:   "sandbox",
	Short: "Run the in-memory backend locally",
	Long: fmt.Sprintf(`Serves every storefront endpoint from memory, seeded with a few
categories and products and an admin account (%s / %s).
State is lost when the process exits.`, sandbox.SeedAdminUsername, sandbox.SeedAdminPassword),
	RunE: runSandbox,
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the config file",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write the default config file",
	RunE:  runConfigInit,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective config",
	RunE:  runConfigShow,
}

var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Inspect the stored session",
}

var sessionWatchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Follow session changes made by other healthstore processes",
	Long:  "Requires storage.driver=file. Runs until interrupted.",
	RunE:  runSessionWatch,
}

func init() {
	sandboxCmd.Flags().StringVar(&sandboxAddr, "addr", "", "listen address (default sandbox.addr)")
	configInitCmd.Flags().BoolVar(&configForce, "force", false, "overwrite an existing file")

	configCmd.AddCommand(configInitCmd, configShowCmd)
	sessionCmd.AddCommand(sessionWatchCmd)
	rootCmd.AddCommand(sandboxCmd, configCmd, sessionCmd)
}

func runSandbox(cmd *cobra.Command, args []string) error {
	addr := sandboxAddr
	if addr == "" {
		addr = cfg.Sandbox.Addr
	}
	sb, err := sandbox.New(cfg.Sandbox.Secret, sandbox.WithLogger(logger))
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s on %s\n", titleStyle.Render("sandbox"), addr)
	return sb.ListenAndServe(cmd.Context(), addr)
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	if _, err := os.Stat(cfgPath); err == nil && !configForce {
		return fmt.Errorf("%s already exists (use --force to overwrite)", cfgPath)
	}
	if err := config.DefaultConfig().Save(cfgPath); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", cfgPath)
	return nil
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	_, err = cmd.OutOrStdout().Write(data)
	return err
}

func runSessionWatch(cmd *cobra.Command, args []string) error {
	a, err := getApp(cmd)
	if err != nil {
		return err
	}
	reloads, err := a.watchSession(cmd.Context())
	if err != nil {
		return err
	}

	a.print(sessionLine(a))
	for {
		select {
		case <-reloads:
			a.print(sessionLine(a))
		case <-cmd.Context().Done():
			return nil
		}
	}
}

func sessionLine(a *app) string {
	u := a.auth.User()
	if u == nil {
		return dimStyle.Render(time.Now().Format("15:04:05")+" ") + "logged out"
	}
	return dimStyle.Render(time.Now().Format("15:04:05")+" ") + titleStyle.Render(u.Username) + " " + string(u.Role)
}
