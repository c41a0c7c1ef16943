package main

import (
	"context"
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/adamscao/lotcert/internal/auth"
	"github.com/adamscao/lotcert/internal/config"
	"github.com/adamscao/lotcert/internal/db/repository"
	"github.com/adamscao/lotcert/internal/models"
)

var issuerCmd = &cobra.Command{
	Use:   "issuer",
	Short: "Manage issuers and their API tokens",
}

var issuerCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a new issuer",
	RunE:  createIssuer,
}

var issuerListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all issuers",
	RunE:  listIssuers,
}

var issuerDisableCmd = &cobra.Command{
	Use:   "disable <issuer-id>",
	Short: "Disable an issuer; its tokens stop authenticating",
	Args:  cobra.ExactArgs(1),
	RunE:  disableIssuer,
}

var issuerTokenCmd = &cobra.Command{
	Use:   "token <issuer-id>",
	Short: "Mint a bearer token for an issuer",
	Args:  cobra.ExactArgs(1),
	RunE:  mintIssuerToken,
}

var (
	issuerID    string
	issuerName  string
	issuerEmail string
	tokenTTL    string
)

func init() {
	issuerCreateCmd.Flags().StringVar(&issuerID, "id", "", "Issuer ID (required)")
	issuerCreateCmd.Flags().StringVarP(&issuerName, "name", "n", "", "Display name")
	issuerCreateCmd.Flags().StringVarP(&issuerEmail, "email", "e", "", "Contact email (required)")
	issuerCreateCmd.MarkFlagRequired("id")
	issuerCreateCmd.MarkFlagRequired("email")

	issuerTokenCmd.Flags().StringVar(&tokenTTL, "ttl", "", "Token lifetime (e.g. 90d, 720h); empty never expires")

	issuerCmd.AddCommand(issuerCreateCmd)
	issuerCmd.AddCommand(issuerListCmd)
	issuerCmd.AddCommand(issuerDisableCmd)
	issuerCmd.AddCommand(issuerTokenCmd)
}

func createIssuer(cmd *cobra.Command, args []string) error {
	if err := initDB(); err != nil {
		return err
	}
	defer database.Close()

	name := issuerName
	if name == "" {
		name = issuerID
	}

	issuerRepo := repository.NewIssuerRepository(database)
	issuer := &models.Issuer{
		ID:      issuerID,
		Name:    name,
		Email:   issuerEmail,
		Enabled: true,
	}
	if err := issuerRepo.Create(context.Background(), issuer); err != nil {
		return fmt.Errorf("failed to create issuer: %w", err)
	}

	color.Green("Issuer created successfully!")
	fmt.Printf("ID:    %s\n", issuer.ID)
	fmt.Printf("Name:  %s\n", issuer.Name)
	fmt.Printf("Email: %s\n", issuer.Email)
	fmt.Printf("\nMint a token with: admin issuer token %s\n", issuer.ID)

	return nil
}

func listIssuers(cmd *cobra.Command, args []string) error {
	if err := initDB(); err != nil {
		return err
	}
	defer database.Close()

	issuerRepo := repository.NewIssuerRepository(database)
	issuers, err := issuerRepo.List(context.Background())
	if err != nil {
		return fmt.Errorf("failed to list issuers: %w", err)
	}

	if len(issuers) == 0 {
		fmt.Println("No issuers found")
		return nil
	}

	fmt.Printf("\nTotal issuers: %d\n\n", len(issuers))
	fmt.Printf("%-24s %-24s %-32s %-8s %s\n", "ID", "Name", "Email", "Enabled", "Created")
	fmt.Println("----------------------------------------------------------------------------------------------------------")

	for _, issuer := range issuers {
		enabledStr := color.GreenString("Yes")
		if !issuer.Enabled {
			enabledStr = color.RedString("No ")
		}
		fmt.Printf("%-24s %-24s %-32s %-8s %s\n",
			issuer.ID,
			issuer.Name,
			issuer.Email,
			enabledStr,
			issuer.CreatedAt.Format("2006-01-02 15:04:05"),
		)
	}

	return nil
}

func disableIssuer(cmd *cobra.Command, args []string) error {
	if err := initDB(); err != nil {
		return err
	}
	defer database.Close()

	issuerRepo := repository.NewIssuerRepository(database)
	if err := issuerRepo.SetEnabled(context.Background(), args[0], false); err != nil {
		return fmt.Errorf("failed to disable issuer: %w", err)
	}

	color.Yellow("Issuer %s disabled", args[0])
	return nil
}

func mintIssuerToken(cmd *cobra.Command, args []string) error {
	var expiresAt *time.Time
	if tokenTTL != "" {
		ttl, err := config.ParseDuration(tokenTTL)
		if err != nil || ttl <= 0 {
			return fmt.Errorf("invalid --ttl %q", tokenTTL)
		}
		t := time.Now().UTC().Add(ttl)
		expiresAt = &t
	}

	if err := initDB(); err != nil {
		return err
	}
	defer database.Close()

	ctx := context.Background()
	issuerRepo := repository.NewIssuerRepository(database)
	issuer, err := issuerRepo.GetByID(ctx, args[0])
	if err != nil {
		return fmt.Errorf("failed to load issuer: %w", err)
	}
	if !issuer.Enabled {
		color.Yellow("Warning: issuer %s is disabled; the token will be rejected until it is enabled", issuer.ID)
	}

	token, err := auth.GenerateToken()
	if err != nil {
		return fmt.Errorf("failed to generate token: %w", err)
	}

	tokenRepo := repository.NewTokenRepository(database)
	record := &models.IssuerToken{
		IssuerID:  issuer.ID,
		TokenHash: auth.HashToken(token),
		ExpiresAt: expiresAt,
	}
	if err := tokenRepo.Create(ctx, record); err != nil {
		return fmt.Errorf("failed to store token: %w", err)
	}

	color.Green("Token created for %s", issuer.ID)
	fmt.Printf("Token ID: %d\n", record.ID)
	if expiresAt != nil {
		fmt.Printf("Expires:  %s\n", expiresAt.Format(time.RFC3339))
	}
	fmt.Printf("\n%s\n\n", token)
	color.Yellow("Store it now: only its hash is kept.")

	return nil
}
