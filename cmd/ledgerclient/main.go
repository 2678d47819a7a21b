// Command ledgerclient is the thin CLI front end over
// internal/client: it generates keys, signs transfers, and prints
// balances. Argument parsing and human-readable output are the only
// things this package does; the wire protocol lives entirely in
// internal/client.
package main

import (
	"encoding/hex"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/orellis-labs/ledgernet/internal/client"
	"github.com/orellis-labs/ledgernet/internal/identity"
	"github.com/orellis-labs/ledgernet/internal/ledgertypes"
)

func main() {
	root := &cobra.Command{
		Use:   "ledgerclient",
		Short: "Client for the replicated ledger network",
	}

	root.AddCommand(createAccountCmd(), balanceCmd(), transferCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func createAccountCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "create-account",
		Short: "Generate a new signing key and print it as hex",
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := identity.GenerateKey()
			if err != nil {
				return err
			}
			fmt.Printf("Generated key: %s\n", hex.EncodeToString(key.Bytes()))
			fmt.Printf("Address: %s\n", key.Address().String())
			return nil
		},
	}
}

func balanceCmd() *cobra.Command {
	var socket, keyHex, nodeAddr string
	cmd := &cobra.Command{
		Use:   "balance",
		Short: "Query the balance of this key's address from a node",
		RunE: func(cmd *cobra.Command, args []string) error {
			signer, local, node, err := dialArgs(socket, keyHex, nodeAddr)
			if err != nil {
				return err
			}
			c, err := client.Dial(local, node, logEntry())
			if err != nil {
				return err
			}
			defer c.Close()

			fmt.Printf("Address: %s\n", signer.Address().String())
			balance, err := c.Balance(signer.Address())
			if err != nil {
				return fmt.Errorf("ledgerclient: %w", err)
			}
			fmt.Printf("Balance: %d\n", balance)
			return nil
		},
	}
	bindCommonFlags(cmd, &socket, &keyHex, &nodeAddr)
	return cmd
}

func transferCmd() *cobra.Command {
	var socket, keyHex, nodeAddr, to string
	var amount uint64
	cmd := &cobra.Command{
		Use:   "transfer",
		Short: "Sign and send a value transfer transaction",
		RunE: func(cmd *cobra.Command, args []string) error {
			signer, local, node, err := dialArgs(socket, keyHex, nodeAddr)
			if err != nil {
				return err
			}
			toBytes, err := hex.DecodeString(to)
			if err != nil || len(toBytes) != 32 {
				return fmt.Errorf("ledgerclient: --transfer-to must be 32 bytes of hex")
			}
			var toAddr identity.H256
			copy(toAddr[:], toBytes)

			c, err := client.Dial(local, node, logEntry())
			if err != nil {
				return err
			}
			defer c.Close()

			fmt.Printf("Address: %s\n", signer.Address().String())
			tx, err := c.Transfer(signer, toAddr, amount)
			if err != nil {
				return fmt.Errorf("ledgerclient: %w", err)
			}
			fmt.Printf("Sent transaction: %s\n", tx.Hash.String())
			return nil
		},
	}
	bindCommonFlags(cmd, &socket, &keyHex, &nodeAddr)
	cmd.Flags().StringVar(&to, "transfer-to", "", "recipient address, hex-encoded (required)")
	cmd.Flags().Uint64Var(&amount, "amount", 0, "amount to transfer (required)")
	cmd.MarkFlagRequired("transfer-to")
	cmd.MarkFlagRequired("amount")
	return cmd
}

func bindCommonFlags(cmd *cobra.Command, socket, keyHex, nodeAddr *string) {
	cmd.Flags().StringVar(socket, "socket", "", "local UDP bind address for this client (required)")
	cmd.Flags().StringVar(keyHex, "key", "", "hex-encoded signing key (required)")
	cmd.Flags().StringVar(nodeAddr, "node", "", "target node's UDP address (required)")
	cmd.MarkFlagRequired("socket")
	cmd.MarkFlagRequired("key")
	cmd.MarkFlagRequired("node")
}

func dialArgs(socket, keyHex, nodeAddr string) (identity.PrivateKey, ledgertypes.Endpoint, ledgertypes.Endpoint, error) {
	local, err := ledgertypes.NewEndpoint(socket)
	if err != nil {
		return identity.PrivateKey{}, ledgertypes.Endpoint{}, ledgertypes.Endpoint{}, fmt.Errorf("ledgerclient: %w", err)
	}
	node, err := ledgertypes.NewEndpoint(nodeAddr)
	if err != nil {
		return identity.PrivateKey{}, ledgertypes.Endpoint{}, ledgertypes.Endpoint{}, fmt.Errorf("ledgerclient: %w", err)
	}
	keyBytes, err := hex.DecodeString(keyHex)
	if err != nil {
		return identity.PrivateKey{}, ledgertypes.Endpoint{}, ledgertypes.Endpoint{}, fmt.Errorf("ledgerclient: %w", err)
	}
	signer, err := identity.PrivateKeyFromBytes(keyBytes)
	if err != nil {
		return identity.PrivateKey{}, ledgertypes.Endpoint{}, ledgertypes.Endpoint{}, fmt.Errorf("ledgerclient: %w", err)
	}
	return signer, local, node, nil
}

func logEntry() *logrus.Entry {
	return logrus.NewEntry(logrus.StandardLogger())
}
