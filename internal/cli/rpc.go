package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"
)

var (
	rpcURL     string
	rpcTimeout time.Duration
)

// rpcCmd represents the rpc command group
var rpcCmd = &cobra.Command{
	Use:   "rpc",
	Short: "RPC client commands",
	Long:  `Call the JSON-RPC API of a running lskd node.`,
}

func init() {
	rootCmd.AddCommand(rpcCmd)

	rpcCmd.PersistentFlags().StringVar(&rpcURL, "url", "", "node URL (default: the configured server address)")
	rpcCmd.PersistentFlags().DurationVar(&rpcTimeout, "timeout", 30*time.Second, "request timeout")

	rpcCmd.AddCommand(pingCmd, serverInfoCmd, submitCmd, txCmd, accountInfoCmd, accountTxCmd, dappInfoCmd, blockIncludedCmd)
}

// endpoint returns --url or the address of the configured server
func endpoint() (string, error) {
	if rpcURL != "" {
		return rpcURL, nil
	}
	cfg, err := loadConfig()
	if err != nil {
		return "", err
	}
	return "http://" + cfg.Server.Address() + "/", nil
}

// executeMethod posts method to the node and prints the result object
func executeMethod(cmd *cobra.Command, method string, params any) error {
	url, err := endpoint()
	if err != nil {
		return err
	}

	request := map[string]any{"method": method}
	if params != nil {
		request["params"] = []any{params}
	}
	body, err := json.Marshal(request)
	if err != nil {
		return fmt.Errorf("failed to marshal parameters: %w", err)
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), rpcTimeout)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("rpc request failed: %w", err)
	}
	defer resp.Body.Close()

	var decoded struct {
		Result map[string]any `json:"result"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return fmt.Errorf("invalid response (HTTP %d): %w", resp.StatusCode, err)
	}
	if decoded.Result["status"] == "error" {
		return fmt.Errorf("RPC error [%v]: %v", decoded.Result["error"], decoded.Result["error_message"])
	}

	prettyJSON, err := json.MarshalIndent(decoded.Result, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(prettyJSON))
	return nil
}

// =============================================================================
// SERVER COMMANDS
// =============================================================================

var pingCmd = &cobra.Command{
	Use:   "ping",
	Short: "Ping the server",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return executeMethod(cmd, "ping", nil)
	},
}

var serverInfoCmd = &cobra.Command{
	Use:   "server_info",
	Short: "Get server information",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return executeMethod(cmd, "server_info", nil)
	},
}

// =============================================================================
// TRANSACTION COMMANDS
// =============================================================================

var submitCmd = &cobra.Command{
	Use:   "submit <file|->",
	Short: "Submit a JSON transaction read from a file or stdin",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var (
			raw []byte
			err error
		)
		if args[0] == "-" {
			raw, err = io.ReadAll(cmd.InOrStdin())
		} else {
			raw, err = os.ReadFile(args[0])
		}
		if err != nil {
			return fmt.Errorf("failed to read transaction: %w", err)
		}
		if !json.Valid(raw) {
			return fmt.Errorf("transaction is not valid JSON")
		}
		return executeMethod(cmd, "submit", map[string]any{"transaction": json.RawMessage(raw)})
	},
}

var txCmd = &cobra.Command{
	Use:   "tx <id>",
	Short: "Get the status of a transaction",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return executeMethod(cmd, "tx", map[string]any{"id": args[0]})
	},
}

// =============================================================================
// ACCOUNT COMMANDS
// =============================================================================

var accountInfoCmd = &cobra.Command{
	Use:   "account_info <address>",
	Short: "Get account balance",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return executeMethod(cmd, "account_info", map[string]any{"address": args[0]})
	},
}

var accountTxCmd = &cobra.Command{
	Use:   "account_tx <address> [limit]",
	Short: "Get account transaction history",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		params := map[string]any{"address": args[0]}
		if len(args) > 1 {
			limit, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("invalid limit: %s", args[1])
			}
			params["limit"] = limit
		}
		return executeMethod(cmd, "account_tx", params)
	},
}

// =============================================================================
// DAPP COMMANDS
// =============================================================================

var dappInfoCmd = &cobra.Command{
	Use:   "dapp_info <id>",
	Short: "Get a registered application and its pool balance",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return executeMethod(cmd, "dapp_info", map[string]any{"id": args[0]})
	},
}

// =============================================================================
// ADMIN COMMANDS
// =============================================================================

var blockIncludedCmd = &cobra.Command{
	Use:   "block_included <height> [id...]",
	Short: "Report a block and the transactions it includes",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		height, err := strconv.ParseUint(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid height: %s", args[0])
		}
		ids := args[1:]
		if ids == nil {
			ids = []string{}
		}
		return executeMethod(cmd, "block_included", map[string]any{
			"height":       height,
			"transactions": ids,
		})
	},
}
