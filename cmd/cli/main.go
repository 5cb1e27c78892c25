package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"
)

var (
	baseURL string
	timeout time.Duration
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "chequer-cli",
		Short: "Chequer CLI tool",
		Long:  `A command line interface for interacting with the Chequer clearing API.`,
	}

	rootCmd.PersistentFlags().StringVar(&baseURL, "url", "http://localhost:8080", "Base URL of the Chequer API")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 10*time.Second, "Request timeout")

	// Cheque commands
	chequeCmd := &cobra.Command{
		Use:   "cheque",
		Short: "Cheque operations",
	}
	chequeCmd.AddCommand(submitChequeCmd())
	chequeCmd.AddCommand(chequeStatusCmd())
	chequeCmd.AddCommand(chequeAttemptsCmd())
	chequeCmd.AddCommand(cancelChequeCmd())
	chequeCmd.AddCommand(reverseChequeCmd())
	rootCmd.AddCommand(chequeCmd)

	// Account commands
	accountCmd := &cobra.Command{
		Use:   "account",
		Short: "Account operations",
	}
	accountCmd.AddCommand(createAccountCmd())
	accountCmd.AddCommand(listAccountsCmd())
	rootCmd.AddCommand(accountCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func submitChequeCmd() *cobra.Command {
	var (
		routingCode   string
		accountNumber string
		serialNumber  string
		payerAccount  string
		payeeAccount  string
		amountMinor   int64
		issueDate     string
	)

	cmd := &cobra.Command{
		Use:   "submit",
		Short: "Present a cheque for clearing",
		RunE: func(cmd *cobra.Command, args []string) error {
			return postJSON("/api/v1/cheques/", map[string]any{
				"routing_code":   routingCode,
				"account_number": accountNumber,
				"serial_number":  serialNumber,
				"payer_account":  payerAccount,
				"payee_account":  payeeAccount,
				"amount_minor":   amountMinor,
				"issue_date":     issueDate,
			})
		},
	}

	cmd.Flags().StringVar(&routingCode, "routing-code", "", "Drawee bank routing code")
	cmd.Flags().StringVar(&accountNumber, "account-number", "", "Drawer account number")
	cmd.Flags().StringVar(&serialNumber, "serial-number", "", "Cheque serial number")
	cmd.Flags().StringVar(&payerAccount, "payer", "", "Payer account ID")
	cmd.Flags().StringVar(&payeeAccount, "payee", "", "Payee account ID")
	cmd.Flags().Int64Var(&amountMinor, "amount", 0, "Amount in minor units")
	cmd.Flags().StringVar(&issueDate, "issue-date", "", "Issue date (YYYY-MM-DD)")

	return cmd
}

func chequeStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status [id]",
		Short: "Show a cheque with its clearing history",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return getJSON("/api/v1/cheques/" + args[0])
		},
	}
}

func chequeAttemptsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "attempts [id]",
		Short: "Show the settlement attempt trail for a cheque",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return getJSON("/api/v1/cheques/" + args[0] + "/attempts")
		},
	}
}

func cancelChequeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cancel [id]",
		Short: "Cancel a cheque that has not begun settlement",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return postJSON("/api/v1/cheques/"+args[0]+"/cancel", nil)
		},
	}
}

func reverseChequeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reverse [id]",
		Short: "Reverse a settled cheque within the reversal window",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return postJSON("/api/v1/cheques/"+args[0]+"/reverse", nil)
		},
	}
}

func createAccountCmd() *cobra.Command {
	var (
		accountNumber string
		routingCode   string
		holderName    string
		balance       string
	)

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Register a new account",
		RunE: func(cmd *cobra.Command, args []string) error {
			return postJSON("/api/v1/accounts/", map[string]any{
				"account_number": accountNumber,
				"routing_code":   routingCode,
				"holder_name":    holderName,
				"balance":        balance,
			})
		},
	}

	cmd.Flags().StringVar(&accountNumber, "account-number", "", "Account number")
	cmd.Flags().StringVar(&routingCode, "routing-code", "", "Bank routing code")
	cmd.Flags().StringVar(&holderName, "holder", "", "Account holder name")
	cmd.Flags().StringVar(&balance, "balance", "0", "Opening balance")

	return cmd
}

func listAccountsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List registered accounts",
		RunE: func(cmd *cobra.Command, args []string) error {
			return getJSON("/api/v1/accounts/")
		},
	}
}

func getJSON(path string) error {
	client := &http.Client{Timeout: timeout}
	resp, err := client.Get(baseURL + path)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	return printResponse(resp)
}

func postJSON(path string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	client := &http.Client{Timeout: timeout}
	resp, err := client.Post(baseURL+path, "application/json", bytes.NewReader(body))
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	return printResponse(resp)
}

func printResponse(resp *http.Response) error {
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	var decoded any
	if err := json.Unmarshal(body, &decoded); err != nil {
		fmt.Printf("Status: %d\n%s\n", resp.StatusCode, truncate(string(body), 500))
		return nil
	}

	fmt.Printf("Status: %d\n", resp.StatusCode)
	printJSON(decoded)

	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("request failed with status %d", resp.StatusCode)
	}
	return nil
}

func printJSON(v any) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fmt.Printf("failed to render response: %v\n", err)
		return
	}
	fmt.Println(string(out))
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
