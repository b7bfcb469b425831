package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"healthstore/api"
	"healthstore/model"
	"healthstore/ui"
)

var (
	reportType   string
	reportFormat string
	reportStart  string
	reportEnd    string
)

var adminCmd = &cobra.Command{
	Use:   "admin",
	Short: "Back-office commands (admin role required)",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := rootCmd.PersistentPreRunE(cmd, args); err != nil {
			return err
		}
		a, err := getApp(cmd)
		if err != nil {
			return err
		}
		return a.requireAdmin()
	},
}

var adminOrdersCmd = &cobra.Command{
	Use:   "orders",
	Short: "List every order",
	RunE:  runAdminOrders,
}

var adminOrderStatusCmd = &cobra.Command{
	Use:   "order-status [id] [status]",
	Short: "Move an order to a new status",
	Long:  "Statuses: pending, processing, shipped, delivered, cancelled.",
	Args:  cobra.ExactArgs(2),
	RunE:  runAdminOrderStatus,
}

var adminUsersCmd = &cobra.Command{
	Use:   "users",
	Short: "List users",
	RunE:  runAdminUsers,
}

var adminUserDeleteCmd = &cobra.Command{
	Use:   "user-delete [id]",
	Short: "Delete a user",
	Args:  cobra.ExactArgs(1),
	RunE:  runAdminUserDelete,
}

var adminReportCmd = &cobra.Command{
	Use:   "report",
	Short: "Download a report into downloads.dir",
	Long: `Downloads a report and saves it as report_<type>_<unix-millis>.<format>.

Types: summary, detailed, sales, inventory. Formats: pdf, csv, excel.
Dates are YYYY-MM-DD.`,
	RunE: runAdminReport,
}

var adminShopRequestsCmd = &cobra.Command{
	Use:   "shop-requests",
	Short: "List shop requests",
	RunE:  runAdminShopRequests,
}

var adminShopApproveCmd = &cobra.Command{
	Use:   "approve [id]",
	Short: "Approve a shop request",
	Args:  cobra.ExactArgs(1),
	RunE:  func(cmd *cobra.Command, args []string) error { return reviewShopRequest(cmd, args[0], true) },
}

var adminShopRejectCmd = &cobra.Command{
	Use:   "reject [id]",
	Short: "Reject a shop request",
	Args:  cobra.ExactArgs(1),
	RunE:  func(cmd *cobra.Command, args []string) error { return reviewShopRequest(cmd, args[0], false) },
}

var adminGuestbookCmd = &cobra.Command{
	Use:   "guestbook",
	Short: "List guestbook entries",
	RunE:  runAdminGuestbook,
}

var adminGuestbookDeleteCmd = &cobra.Command{
	Use:   "guestbook-delete [id]",
	Short: "Delete a guestbook entry",
	Args:  cobra.ExactArgs(1),
	RunE:  runAdminGuestbookDelete,
}

func init() {
	adminReportCmd.Flags().StringVar(&reportType, "type", string(model.ReportSummary), "report type")
	adminReportCmd.Flags().StringVar(&reportFormat, "format", string(model.ReportPDF), "file format")
	adminReportCmd.Flags().StringVar(&reportStart, "start", "", "start date")
	adminReportCmd.Flags().StringVar(&reportEnd, "end", "", "end date")

	adminShopRequestsCmd.AddCommand(adminShopApproveCmd, adminShopRejectCmd)
	adminCmd.AddCommand(adminOrdersCmd, adminOrderStatusCmd, adminUsersCmd, adminUserDeleteCmd,
		adminReportCmd, adminShopRequestsCmd, adminGuestbookCmd, adminGuestbookDeleteCmd)
	rootCmd.AddCommand(adminCmd)
}

func runAdminOrders(cmd *cobra.Command, args []string) error {
	a, err := getApp(cmd)
	if err != nil {
		return err
	}
	var orders []model.Order
	if err := a.run(cmd, "", func(ctx context.Context) error {
		var err error
		orders, err = a.api.GetAllOrders(ctx)
		return err
	}); err != nil {
		return err
	}
	a.print(renderOrders(orders))
	return nil
}

func runAdminOrderStatus(cmd *cobra.Command, args []string) error {
	a, err := getApp(cmd)
	if err != nil {
		return err
	}
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	status := model.OrderStatus(args[1])
	if !status.Valid() {
		return fmt.Errorf("unknown status %q", args[1])
	}
	var o model.Order
	if err := a.run(cmd, fmt.Sprintf("Order #%d is now %s", id, status.Label()), func(ctx context.Context) error {
		var err error
		o, err = a.api.UpdateOrderStatus(ctx, id, status)
		return err
	}); err != nil {
		return err
	}
	a.print(renderOrder(o))
	return nil
}

func runAdminUsers(cmd *cobra.Command, args []string) error {
	a, err := getApp(cmd)
	if err != nil {
		return err
	}
	var users []model.User
	if err := a.run(cmd, "", func(ctx context.Context) error {
		var err error
		users, err = a.api.GetAllUsers(ctx)
		return err
	}); err != nil {
		return err
	}
	a.print(renderUsers(users))
	return nil
}

func runAdminUserDelete(cmd *cobra.Command, args []string) error {
	a, err := getApp(cmd)
	if err != nil {
		return err
	}
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	ok, err := a.confirm(cmd, ui.ConfirmOptions{
		Title:       "Delete User",
		Message:     fmt.Sprintf("Delete user #%d and their cart?", id),
		ConfirmText: "Delete",
	})
	if err != nil || !ok {
		return err
	}
	return a.run(cmd, "User deleted", func(ctx context.Context) error {
		return a.api.DeleteUser(ctx, id)
	})
}

func runAdminReport(cmd *cobra.Command, args []string) error {
	a, err := getApp(cmd)
	if err != nil {
		return err
	}
	var path string
	if err := a.run(cmd, "", func(ctx context.Context) error {
		var err error
		path, err = a.api.GenerateReport(ctx, api.ReportRequest{
			Type:      model.ReportType(reportType),
			Format:    model.ReportFormat(reportFormat),
			StartDate: reportStart,
			EndDate:   reportEnd,
		})
		return err
	}); err != nil {
		return err
	}
	a.notifier.Success("Report saved to " + path)
	return nil
}

func runAdminShopRequests(cmd *cobra.Command, args []string) error {
	a, err := getApp(cmd)
	if err != nil {
		return err
	}
	var reqs []model.ShopRequest
	if err := a.run(cmd, "", func(ctx context.Context) error {
		var err error
		reqs, err = a.api.GetShopRequests(ctx)
		return err
	}); err != nil {
		return err
	}
	a.print(renderShopRequests(reqs))
	return nil
}

func reviewShopRequest(cmd *cobra.Command, arg string, approve bool) error {
	a, err := getApp(cmd)
	if err != nil {
		return err
	}
	id, err := parseID(arg)
	if err != nil {
		return err
	}
	msg := "Shop request rejected"
	if approve {
		msg = "Shop request approved"
	}
	return a.run(cmd, msg, func(ctx context.Context) error {
		if approve {
			_, err := a.api.ApproveShopRequest(ctx, id)
			return err
		}
		_, err := a.api.RejectShopRequest(ctx, id)
		return err
	})
}

func runAdminGuestbook(cmd *cobra.Command, args []string) error {
	a, err := getApp(cmd)
	if err != nil {
		return err
	}
	var entries []model.GuestbookEntry
	if err := a.run(cmd, "", func(ctx context.Context) error {
		var err error
		entries, err = a.api.GetAdminGuestbook(ctx)
		return err
	}); err != nil {
		return err
	}
	a.print(renderGuestbook(entries))
	return nil
}

func runAdminGuestbookDelete(cmd *cobra.Command, args []string) error {
	a, err := getApp(cmd)
	if err != nil {
		return err
	}
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	ok, err := a.confirm(cmd, ui.ConfirmOptions{
		Title:       "Delete Entry",
		Message:     fmt.Sprintf("Delete guestbook entry #%d?", id),
		ConfirmText: "Delete",
	})
	if err != nil || !ok {
		return err
	}
	return a.run(cmd, "Entry deleted", func(ctx context.Context) error {
		return a.api.DeleteGuestbookEntry(ctx, id)
	})
}
