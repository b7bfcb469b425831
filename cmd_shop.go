package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"healthstore/model"
	"healthstore/ui"
)

var (
	cartQuantity int

	orderPayment string
	orderBank    string

	feedbackRating  int
	feedbackComment string
)

var cartCmd = &cobra.Command{
	Use:   "cart",
	Short: "Show and change your cart",
}

var cartShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the cart",
	RunE:  runCartShow,
}

var cartAddCmd = &cobra.Command{
	Use:   "add [product-id]",
	Short: "Add a product to the cart",
	Args:  cobra.ExactArgs(1),
	RunE:  runCartAdd,
}

var cartRemoveCmd = &cobra.Command{
	Use:   "remove [item-id]",
	Short: "Remove a line from the cart",
	Args:  cobra.ExactArgs(1),
	RunE:  runCartRemove,
}

var ordersCmd = &cobra.Command{
	Use:   "orders",
	Short: "Place and track orders",
}

var ordersPlaceCmd = &cobra.Command{
	Use:   "place",
	Short: "Order everything in the cart",
	Long: `Places an order for the current cart.

Payment methods: credit_card, debit_card, bank_transfer, cash_on_delivery.
bank_transfer needs --bank.`,
	RunE: runOrdersPlace,
}

var ordersListCmd = &cobra.Command{
	Use:   "list",
	Short: "List your orders",
	RunE:  runOrdersList,
}

var ordersShowCmd = &cobra.Command{
	Use:   "show [id]",
	Short: "Show one order",
	Args:  cobra.ExactArgs(1),
	RunE:  runOrdersShow,
}

var ordersCancelCmd = &cobra.Command{
	Use:   "cancel [id]",
	Short: "Cancel a pending order",
	Args:  cobra.ExactArgs(1),
	RunE:  runOrdersCancel,
}

var feedbackCmd = &cobra.Command{
	Use:   "feedback [product-id]",
	Short: "Rate a product",
	Args:  cobra.ExactArgs(1),
	RunE:  runFeedback,
}

func init() {
	cartAddCmd.Flags().IntVarP(&cartQuantity, "qty", "q", 1, "quantity")

	ordersPlaceCmd.Flags().StringVar(&orderPayment, "payment", string(model.PaymentCreditCard), "payment method")
	ordersPlaceCmd.Flags().StringVar(&orderBank, "bank", "", "bank name for bank transfers")

	feedbackCmd.Flags().IntVarP(&feedbackRating, "rating", "r", model.MaxRating, "rating from 1 to 5")
	feedbackCmd.Flags().StringVarP(&feedbackComment, "comment", "m", "", "comment")

	cartCmd.AddCommand(cartShowCmd, cartAddCmd, cartRemoveCmd)
	ordersCmd.AddCommand(ordersPlaceCmd, ordersListCmd, ordersShowCmd, ordersCancelCmd)
	rootCmd.AddCommand(cartCmd, ordersCmd, feedbackCmd)
}

func runCartShow(cmd *cobra.Command, args []string) error {
	a, err := getApp(cmd)
	if err != nil {
		return err
	}
	if err := a.requireLogin(); err != nil {
		return err
	}
	if err := a.run(cmd, "", func(ctx context.Context) error {
		_, err := a.cart.FetchCart(ctx)
		return err
	}); err != nil {
		return err
	}
	a.print(renderCart(a.cart.Cart()))
	return nil
}

func runCartAdd(cmd *cobra.Command, args []string) error {
	a, err := getApp(cmd)
	if err != nil {
		return err
	}
	if err := a.requireLogin(); err != nil {
		return err
	}
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	if err := a.run(cmd, "Added to cart", func(ctx context.Context) error {
		return a.cart.AddToCart(ctx, id, cartQuantity)
	}); err != nil {
		return err
	}
	a.print(renderCart(a.cart.Cart()))
	return nil
}

func runCartRemove(cmd *cobra.Command, args []string) error {
	a, err := getApp(cmd)
	if err != nil {
		return err
	}
	if err := a.requireLogin(); err != nil {
		return err
	}
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	if err := a.run(cmd, "Removed from cart", func(ctx context.Context) error {
		return a.cart.RemoveFromCart(ctx, id)
	}); err != nil {
		return err
	}
	a.print(renderCart(a.cart.Cart()))
	return nil
}

func runOrdersPlace(cmd *cobra.Command, args []string) error {
	a, err := getApp(cmd)
	if err != nil {
		return err
	}
	if err := a.requireLogin(); err != nil {
		return err
	}
	method := model.PaymentMethod(orderPayment)
	if !method.Valid() {
		return fmt.Errorf("unknown payment method %q", orderPayment)
	}

	var o model.Order
	if err := a.run(cmd, "Order placed", func(ctx context.Context) error {
		var err error
		if o, err = a.api.PlaceOrder(ctx, method, orderBank); err != nil {
			return err
		}
		a.cart.ClearCart()
		return nil
	}); err != nil {
		return err
	}
	a.print(renderOrder(o))
	return nil
}

func runOrdersList(cmd *cobra.Command, args []string) error {
	a, err := getApp(cmd)
	if err != nil {
		return err
	}
	if err := a.requireLogin(); err != nil {
		return err
	}
	var orders []model.Order
	if err := a.run(cmd, "", func(ctx context.Context) error {
		var err error
		orders, err = a.api.GetOrders(ctx)
		return err
	}); err != nil {
		return err
	}
	a.print(renderOrders(orders))
	return nil
}

func runOrdersShow(cmd *cobra.Command, args []string) error {
	a, err := getApp(cmd)
	if err != nil {
		return err
	}
	if err := a.requireLogin(); err != nil {
		return err
	}
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	var o model.Order
	if err := a.run(cmd, "", func(ctx context.Context) error {
		var err error
		o, err = a.api.GetOrder(ctx, id)
		return err
	}); err != nil {
		return err
	}
	a.print(renderOrder(o))
	return nil
}

func runOrdersCancel(cmd *cobra.Command, args []string) error {
	a, err := getApp(cmd)
	if err != nil {
		return err
	}
	if err := a.requireLogin(); err != nil {
		return err
	}
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	ok, err := a.confirm(cmd, ui.ConfirmOptions{
		Title:       "Cancel Order",
		Message:     fmt.Sprintf("Cancel order #%d?", id),
		ConfirmText: "Cancel order",
		CancelText:  "Keep order",
		Variant:     ui.VariantWarning,
	})
	if err != nil || !ok {
		return err
	}
	return a.run(cmd, "Order cancelled", func(ctx context.Context) error {
		_, err := a.api.CancelOrder(ctx, id)
		return err
	})
}

func runFeedback(cmd *cobra.Command, args []string) error {
	a, err := getApp(cmd)
	if err != nil {
		return err
	}
	if err := a.requireLogin(); err != nil {
		return err
	}
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	f := model.Feedback{ProductID: id, Comment: feedbackComment, Rating: feedbackRating}
	if err := model.ValidateFeedback(f); err != nil {
		return err
	}
	return a.run(cmd, "Thanks for your feedback", func(ctx context.Context) error {
		_, err := a.api.SubmitFeedback(ctx, f.ProductID, f.Comment, f.Rating)
		return err
	})
}
