package main

import (
	"fmt"
	"os"
	"path/filepath"

	"bizdash/internal/export"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var flagOut string

var invoiceCmd = &cobra.Command{
	Use:   "invoice",
	Short: "Issued invoices",
}

var invoiceExportCmd = &cobra.Command{
	Use:   "export <invoice-id>",
	Short: "Write an issued invoice as an XLSX workbook",
	Args:  cobra.ExactArgs(1),
	RunE:  runInvoiceExport,
}

func init() {
	invoiceExportCmd.Flags().StringVarP(&flagOut, "out", "o", "", "Output file (default <invoice-number>.xlsx)")
	invoiceCmd.AddCommand(invoiceExportCmd)
	rootCmd.AddCommand(invoiceCmd)
}

func runInvoiceExport(cmd *cobra.Command, args []string) error {
	if err := requireUser(); err != nil {
		return err
	}
	id, err := uuid.Parse(args[0])
	if err != nil {
		return fmt.Errorf("invalid invoice id %q: %w", args[0], err)
	}
	a, err := open(cmd.Context())
	if err != nil {
		return err
	}
	doc, err := a.invoices.Document(cmd.Context(), flagUser, id)
	if err != nil {
		return err
	}
	data, err := export.InvoiceXLSX(doc)
	if err != nil {
		return fmt.Errorf("render invoice: %w", err)
	}

	out := flagOut
	if out == "" {
		out = doc.Invoice.InvoiceNumber + ".xlsx"
	}
	if dir := filepath.Dir(out); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output directory: %w", err)
		}
	}
	if err := os.WriteFile(out, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", out, err)
	}
	a.logger.Info("Invoice exported", "invoice", doc.Invoice.InvoiceNumber, "path", out, "bytes", len(data))
	return nil
}
