package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"healthstore/model"
)

var (
	loginPassword string

	registerEmail    string
	registerPassword string
)

var loginCmd = &cobra.Command{
	Use:   "login [username]",
	Short: "Log in and store the session",
	Args:  cobra.ExactArgs(1),
	RunE:  runLogin,
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Forget the stored session",
	RunE:  runLogout,
}

var registerCmd = &cobra.Command{
	Use:   "register [username]",
	Short: "Create a customer account",
	Long: `Creates an account. Usernames are 3 to 50 characters and passwords at
least 6. Registering does not log you in.`,
	Args: cobra.ExactArgs(1),
	RunE: runRegister,
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the logged-in user",
	RunE:  runWhoami,
}

func init() {
	loginCmd.Flags().StringVarP(&loginPassword, "password", "p", "", "password (prompted when empty)")
	registerCmd.Flags().StringVar(&registerEmail, "email", "", "email address")
	registerCmd.Flags().StringVarP(&registerPassword, "password", "p", "", "password (prompted when empty)")

	rootCmd.AddCommand(loginCmd, logoutCmd, registerCmd, whoamiCmd)
}

// readSecret prompts on the command's output and reads one line of input.
func readSecret(cmd *cobra.Command, prompt string) (string, error) {
	fmt.Fprint(cmd.OutOrStdout(), prompt)
	line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	if err != nil && line == "" {
		return "", errors.New("no password given")
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func runLogin(cmd *cobra.Command, args []string) error {
	a, err := getApp(cmd)
	if err != nil {
		return err
	}
	password := loginPassword
	if password == "" {
		if password, err = readSecret(cmd, "Password: "); err != nil {
			return err
		}
	}

	var resp model.LoginResponse
	err = a.run(cmd, "", func(ctx context.Context) error {
		var err error
		resp, err = a.auth.Login(ctx, args[0], password)
		return err
	})
	if err != nil {
		return err
	}
	a.notifier.Success(fmt.Sprintf("Logged in as %s (%s)", resp.User.Username, resp.User.Role))
	return nil
}

func runLogout(cmd *cobra.Command, args []string) error {
	a, err := getApp(cmd)
	if err != nil {
		return err
	}
	a.auth.Logout()
	a.cart.ClearCart()
	a.notifier.Info("Logged out")
	return nil
}

func runRegister(cmd *cobra.Command, args []string) error {
	a, err := getApp(cmd)
	if err != nil {
		return err
	}
	password := registerPassword
	if password == "" {
		if password, err = readSecret(cmd, "Password: "); err != nil {
			return err
		}
	}
	return a.run(cmd, "Account created; you can now log in", func(ctx context.Context) error {
		_, err := a.auth.Register(ctx, model.Registration{Username: args[0], Email: registerEmail, Password: password})
		return err
	})
}

func runWhoami(cmd *cobra.Command, args []string) error {
	a, err := getApp(cmd)
	if err != nil {
		return err
	}
	u := a.auth.User()
	if u == nil {
		a.print(dimStyle.Render("not logged in"))
		return nil
	}
	a.print(fmt.Sprintf("%s %s", titleStyle.Render(u.Username), dimStyle.Render(fmt.Sprintf("#%d %s %s", u.ID, u.Email, u.Role))))
	return nil
}
