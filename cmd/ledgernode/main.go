// Command ledgernode runs a single peer in the replicated ledger
// network: it binds a UDP socket, seats the canonical genesis block,
// optionally says Hello to a bootstrap peer, and then loops forever
// dispatching gossip.
package main

import (
	"fmt"
	"math/rand"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/orellis-labs/ledgernet/internal/identity"
	"github.com/orellis-labs/ledgernet/internal/ledgertypes"
	"github.com/orellis-labs/ledgernet/internal/node"
)

// adjectives and nouns back a tiny random name generator so --name can
// be omitted.
var (
	adjectives = []string{"quiet", "brisk", "amber", "lucid", "feral", "placid"}
	nouns      = []string{"heron", "ridge", "basin", "cobalt", "ferrule", "quartz"}
)

func randomName() string {
	return fmt.Sprintf("%s-%s", adjectives[rand.Intn(len(adjectives))], nouns[rand.Intn(len(nouns))])
}

func main() {
	var name, socket, otherNode string

	cmd := &cobra.Command{
		Use:   "ledgernode",
		Short: "Run a peer of the replicated ledger network",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(name, socket, otherNode)
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "human-readable node name (random if omitted)")
	cmd.Flags().StringVar(&socket, "socket", "", "local UDP bind address, e.g. 127.0.0.1:9000")
	cmd.Flags().StringVar(&otherNode, "other-node", "", "optional bootstrap peer address")
	cmd.MarkFlagRequired("socket")

	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(name, socket, otherNode string) error {
	log := logrus.NewEntry(logrus.StandardLogger())

	if name == "" {
		name = randomName()
	}

	local, err := ledgertypes.NewEndpoint(socket)
	if err != nil {
		return fmt.Errorf("ledgernode: %w", err)
	}

	signer, err := identity.GenerateKey()
	if err != nil {
		return fmt.Errorf("ledgernode: %w", err)
	}

	info := ledgertypes.NodeInfo{
		Name:    name,
		Address: signer.Address(),
		Socket:  local,
	}
	log.WithFields(logrus.Fields{"name": info.Name, "address": info.Address.String()}).Info("node identity")

	var bootstrap *ledgertypes.Endpoint
	if otherNode != "" {
		ep, err := ledgertypes.NewEndpoint(otherNode)
		if err != nil {
			return fmt.Errorf("ledgernode: %w", err)
		}
		bootstrap = &ep
	}

	n, err := node.New(signer, info, bootstrap, log)
	if err != nil {
		return fmt.Errorf("ledgernode: %w", err)
	}
	defer n.Close()

	runErr := make(chan error, 1)
	go func() { runErr <- n.Run() }()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-shutdown:
		log.WithField("signal", sig.String()).Info("shutting down")
		return n.Close()
	case err := <-runErr:
		return err
	}
}
