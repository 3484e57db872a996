package main

import (
	"context"
	"flag"
	"fmt"
	"log"

	"go.uber.org/zap"

	"github.com/zentalk/envelope/pkg/client"
	"github.com/zentalk/envelope/pkg/content"
)

var (
	configPath = flag.String("config", "", "Path to YAML config file (optional)")
	padding    = flag.String("padding", "fixed", "Padding scheme: none, fixed or random")
	verbose    = flag.Bool("v", false, "Verbose logging")
)

func main() {
	flag.Parse()

	printBanner()

	logger, err := buildLogger(*verbose)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer logger.Sync()

	cfg := client.DefaultConfig()
	if *configPath != "" {
		cfg, err = client.LoadConfig(*configPath)
		if err != nil {
			log.Fatalf("Failed to load config: %v", err)
		}
	} else {
		cfg.Padding = *padding
	}

	if err := run(cfg, logger); err != nil {
		log.Fatalf("Demo failed: %v", err)
	}
}

// run walks two clients through the whole lifecycle on an in-process bus:
// contact discovery, conversation invite, and a sealed message exchange.
func run(cfg *client.Config, logger *zap.Logger) error {
	bus := client.NewLocalDelivery()
	defer bus.Close()

	alice, err := newClient("alice", cfg, bus, logger)
	if err != nil {
		return err
	}
	bob, err := newClient("bob", cfg, bus, logger)
	if err != nil {
		return err
	}

	bob.OnChatMessage = func(conversationID string, msg *content.ChatMessage) {
		fmt.Printf("  bob   <- [%s] %s\n", shortID(conversationID), msg.Text)
	}
	alice.OnChatMessage = func(conversationID string, msg *content.ChatMessage) {
		fmt.Printf("  alice <- [%s] %s\n", shortID(conversationID), msg.Text)
	}
	alice.OnContact = func(c *content.Contact) {
		fmt.Printf("  alice <- contact card: %s (%s)\n", c.DisplayName, shortID(c.Address))
		if err := alice.AddContact(c); err != nil {
			logger.Warn("failed to add contact", zap.Error(err))
		}
	}
	bob.OnContact = func(c *content.Contact) {
		fmt.Printf("  bob   <- contact card: %s (%s)\n", c.DisplayName, shortID(c.Address))
		if err := bob.AddContact(c); err != nil {
			logger.Warn("failed to add contact", zap.Error(err))
		}
	}

	if err := alice.Start(); err != nil {
		return err
	}
	defer alice.Close()
	if err := bob.Start(); err != nil {
		return err
	}
	defer bob.Close()

	ctx := context.Background()

	// Contact discovery over the public directory.
	fmt.Println("\n-- publishing contact cards --")
	if err := alice.PublishContact(ctx); err != nil {
		return err
	}
	if err := bob.PublishContact(ctx); err != nil {
		return err
	}

	// Conversation setup and message exchange.
	fmt.Println("\n-- conversation --")
	conv, err := alice.CreateConversation(bob.Address())
	if err != nil {
		return err
	}
	if err := alice.Invite(ctx, conv.ID, bob.Address()); err != nil {
		return err
	}

	if _, err := alice.SendChatMessage(ctx, conv.ID, "hey bob, this line is sealed to you"); err != nil {
		return err
	}
	if _, err := bob.SendChatMessage(ctx, conv.ID, "got it, replying on the same channel"); err != nil {
		return err
	}

	fmt.Println("\nDone.")
	return nil
}

func newClient(name string, cfg *client.Config, bus *client.LocalDelivery, logger *zap.Logger) (*client.Client, error) {
	identity, err := client.NewIdentity(name)
	if err != nil {
		return nil, err
	}

	clientCfg := *cfg
	clientCfg.DisplayName = name

	c, err := client.NewClient(&clientCfg, identity, bus, logger.Named(name))
	if err != nil {
		return nil, err
	}

	fmt.Printf("  %-5s address: %s\n", name, shortID(identity.Address))
	return c, nil
}

func buildLogger(verbose bool) (*zap.Logger, error) {
	if verbose {
		return zap.NewDevelopment()
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	return cfg.Build()
}

func shortID(s string) string {
	if len(s) <= 8 {
		return s
	}
	return s[:8]
}

func printBanner() {
	fmt.Println("==================================")
	fmt.Println("  zentalk envelope demo")
	fmt.Println("==================================")
}
