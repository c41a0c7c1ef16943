package main

import (
	"context"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/adamscao/lotcert/internal/db/repository"
	"github.com/adamscao/lotcert/internal/models"
	"github.com/adamscao/lotcert/pkg/certhash"
)

var certCmd = &cobra.Command{
	Use:   "cert",
	Short: "Inspect issued certificates",
}

var certListCmd = &cobra.Command{
	Use:   "list",
	Short: "List certificates of a lot or an issuer, newest first",
	RunE:  listCertificates,
}

var certHistoryCmd = &cobra.Command{
	Use:   "history <certificate-id>",
	Short: "Show the verification log of a certificate",
	Args:  cobra.ExactArgs(1),
	RunE:  certificateHistory,
}

var certCheckCmd = &cobra.Command{
	Use:   "check <certificate-id>",
	Short: "Re-hash the stored PDF and compare it with the record",
	Args:  cobra.ExactArgs(1),
	RunE:  checkCertificate,
}

var (
	listLot    string
	listIssuer string
	listLimit  int
)

func init() {
	certListCmd.Flags().StringVar(&listLot, "lot", "", "Lot ID")
	certListCmd.Flags().StringVar(&listIssuer, "issuer", "", "Issuer ID")
	certListCmd.Flags().IntVarP(&listLimit, "limit", "l", 50, "Maximum number of rows")
	certHistoryCmd.Flags().IntVarP(&listLimit, "limit", "l", 50, "Maximum number of rows")

	certCmd.AddCommand(certListCmd)
	certCmd.AddCommand(certHistoryCmd)
	certCmd.AddCommand(certCheckCmd)
}

func listCertificates(cmd *cobra.Command, args []string) error {
	if (listLot == "") == (listIssuer == "") {
		return fmt.Errorf("exactly one of --lot or --issuer is required")
	}

	if err := initDB(); err != nil {
		return err
	}
	defer database.Close()

	ctx := context.Background()
	certRepo := repository.NewCertificateRepository(database)

	var (
		list []*models.Certificate
		err  error
	)
	if listLot != "" {
		list, err = certRepo.ListByLot(ctx, listLot, listLimit)
	} else {
		list, err = certRepo.ListByIssuer(ctx, listIssuer, listLimit)
	}
	if err != nil {
		return fmt.Errorf("failed to list certificates: %w", err)
	}

	if len(list) == 0 {
		fmt.Println("No certificates found")
		return nil
	}

	fmt.Printf("\nTotal certificates: %d\n\n", len(list))
	fmt.Printf("%-38s %-10s %-9s %-12s %-16s %-8s %s\n", "ID", "Fingerprint", "Status", "Lot", "Issuer", "Checks", "Issued")
	fmt.Println("---------------------------------------------------------------------------------------------------------------------")

	for _, cert := range list {
		status := color.GreenString("%-9s", cert.Status)
		if cert.IsRevoked() {
			status = color.RedString("%-9s", cert.Status)
		}
		fmt.Printf("%-38s %-10s %s %-12s %-16s %-8d %s\n",
			cert.CertificateID,
			cert.PublicFingerprint,
			status,
			cert.LotID,
			cert.IssuerID,
			cert.VerificationCount,
			cert.IssuedAt.Format("2006-01-02 15:04:05"),
		)
	}

	return nil
}

func certificateHistory(cmd *cobra.Command, args []string) error {
	if err := initDB(); err != nil {
		return err
	}
	defer database.Close()

	ctx := context.Background()
	logRepo := repository.NewVerificationRepository(database)

	counts, err := logRepo.CountByResult(ctx, args[0])
	if err != nil {
		return fmt.Errorf("failed to count verifications: %w", err)
	}
	logs, err := logRepo.ListByCertificate(ctx, args[0], listLimit)
	if err != nil {
		return fmt.Errorf("failed to list verifications: %w", err)
	}

	if len(logs) == 0 {
		fmt.Println("No verification events found")
		return nil
	}

	fmt.Printf("\nvalid: %d  revoked: %d  not_found: %d\n\n",
		counts[models.ResultValid], counts[models.ResultRevoked], counts[models.ResultNotFound])
	fmt.Printf("%-20s %-9s %-10s %-16s %s\n", "Time", "Route", "Result", "IP (hmac)", "UA (hmac)")
	fmt.Println("-------------------------------------------------------------------------------")

	for _, entry := range logs {
		fmt.Printf("%-20s %-9s %-10s %-16s %s\n",
			entry.Timestamp.Format("2006-01-02 15:04:05"),
			entry.Route,
			entry.Result,
			shortHash(entry.IPHMAC),
			shortHash(entry.UAHMAC),
		)
	}

	return nil
}

func checkCertificate(cmd *cobra.Command, args []string) error {
	if err := initDB(); err != nil {
		return err
	}
	defer database.Close()

	ctx := context.Background()
	certRepo := repository.NewCertificateRepository(database)
	cert, err := certRepo.GetByID(ctx, args[0])
	if err != nil {
		return fmt.Errorf("failed to load certificate: %w", err)
	}

	blobs, err := initBlobs()
	if err != nil {
		return err
	}

	body, err := blobs.Get(ctx, cert.PDF.Key)
	if err != nil {
		return fmt.Errorf("failed to fetch %s: %w", cert.PDF.Key, err)
	}

	if err := verifyDocument(cert, body); err != nil {
		color.Red("FAIL %s", cert.CertificateID)
		return err
	}

	color.Green("OK   %s  %s  %d bytes", cert.CertificateID, cert.PDF.ContentHash, cert.PDF.Size)
	return nil
}

// verifyDocument checks stored bytes against the hash and size on the record
func verifyDocument(cert *models.Certificate, body []byte) error {
	if got := int64(len(body)); got != cert.PDF.Size {
		return fmt.Errorf("size mismatch: record %d, stored %d", cert.PDF.Size, got)
	}
	if got := certhash.ContentHash(body); got != cert.PDF.ContentHash {
		return fmt.Errorf("content hash mismatch: record %s, stored %s", cert.PDF.ContentHash, got)
	}
	return nil
}

func shortHash(h string) string {
	if len(h) > 12 {
		return h[:12] + "…"
	}
	return h
}
