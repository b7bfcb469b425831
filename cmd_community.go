package main

import (
	"context"
	"strings"

	"github.com/spf13/cobra"

	"healthstore/model"
)

var (
	shopName        string
	shopDescription string

	guestbookName string
)

var shopsCmd = &cobra.Command{
	Use:   "shops",
	Short: "Browse shops or request your own",
}

var shopsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List approved shops",
	RunE:  runShopsList,
}

var shopsRequestCmd = &cobra.Command{
	Use:   "request",
	Short: "Ask an admin to open a shop for you",
	RunE:  runShopsRequest,
}

var guestbookCmd = &cobra.Command{
	Use:   "guestbook",
	Short: "Read or sign the guestbook",
}

var guestbookListCmd = &cobra.Command{
	Use:   "list",
	Short: "Read the guestbook",
	RunE:  runGuestbookList,
}

var guestbookSignCmd = &cobra.Command{
	Use:   "sign [message]",
	Short: "Sign the guestbook",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runGuestbookSign,
}

func init() {
	shopsRequestCmd.Flags().StringVar(&shopName, "name", "", "shop name")
	shopsRequestCmd.Flags().StringVar(&shopDescription, "description", "", "description")
	_ = shopsRequestCmd.MarkFlagRequired("name")

	guestbookSignCmd.Flags().StringVar(&guestbookName, "name", "", "name to sign with (defaults to your username)")

	shopsCmd.AddCommand(shopsListCmd, shopsRequestCmd)
	guestbookCmd.AddCommand(guestbookListCmd, guestbookSignCmd)
	rootCmd.AddCommand(shopsCmd, guestbookCmd)
}

func runShopsList(cmd *cobra.Command, args []string) error {
	a, err := getApp(cmd)
	if err != nil {
		return err
	}
	var shops []model.Shop
	if err := a.run(cmd, "", func(ctx context.Context) error {
		var err error
		shops, err = a.api.GetShops(ctx)
		return err
	}); err != nil {
		return err
	}
	a.print(renderShops(shops))
	return nil
}

func runShopsRequest(cmd *cobra.Command, args []string) error {
	a, err := getApp(cmd)
	if err != nil {
		return err
	}
	if err := a.requireLogin(); err != nil {
		return err
	}
	return a.run(cmd, "Shop request sent for review", func(ctx context.Context) error {
		_, err := a.api.RequestShop(ctx, shopName, shopDescription)
		return err
	})
}

func runGuestbookList(cmd *cobra.Command, args []string) error {
	a, err := getApp(cmd)
	if err != nil {
		return err
	}
	var entries []model.GuestbookEntry
	if err := a.run(cmd, "", func(ctx context.Context) error {
		var err error
		entries, err = a.api.GetGuestbook(ctx)
		return err
	}); err != nil {
		return err
	}
	a.print(renderGuestbook(entries))
	return nil
}

func runGuestbookSign(cmd *cobra.Command, args []string) error {
	a, err := getApp(cmd)
	if err != nil {
		return err
	}
	return a.run(cmd, "Thanks for signing", func(ctx context.Context) error {
		_, err := a.api.SignGuestbook(ctx, guestbookName, strings.Join(args, " "))
		return err
	})
}
