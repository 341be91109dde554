package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jesses-code-adventures/invoicer/internal/service"
)

func newSandboxCmd(invoiceService *service.InvoiceService) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sandbox",
		Short: "Try the app on demo companies",
		Long: `Sandbox mode swaps in two demo companies with their own data. Your real
companies and data are untouched and come back when you exit.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			on, err := invoiceService.InSandbox(cmd.Context())
			if err != nil {
				return err
			}
			if on {
				fmt.Println("Sandbox mode is on.")
			} else {
				fmt.Println("Sandbox mode is off.")
			}
			return nil
		},
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "enter",
			Short: "Switch to the demo companies",
			RunE: func(cmd *cobra.Command, args []string) error {
				if err := invoiceService.EnterSandbox(cmd.Context()); err != nil {
					return err
				}
				fmt.Println("Entered sandbox mode.")
				return nil
			},
		},
		&cobra.Command{
			Use:   "exit",
			Short: "Return to your real companies",
			RunE: func(cmd *cobra.Command, args []string) error {
				if err := invoiceService.ExitSandbox(cmd.Context()); err != nil {
					return err
				}
				fmt.Println("Exited sandbox mode.")
				return nil
			},
		},
		&cobra.Command{
			Use:   "reset",
			Short: "Restore the demo data",
			RunE: func(cmd *cobra.Command, args []string) error {
				if err := invoiceService.ResetSandbox(cmd.Context()); err != nil {
					return err
				}
				fmt.Println("Reset sandbox data.")
				return nil
			},
		},
	)

	return cmd
}
