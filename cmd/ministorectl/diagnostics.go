package main

import (
	"fmt"
	"os"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"ministore/internal/email"
	"ministore/internal/pdf"
)

var previewChars int

var pdfTextCmd = &cobra.Command{
	Use:   "pdf-text <file>",
	Short: "Print the text extracted from a PDF without analyzing it",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := os.Open(args[0])
		if err != nil {
			return fmt.Errorf("failed to open %s: %w", args[0], err)
		}
		defer f.Close()

		text, err := pdf.ExtractText(f)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Characters: %d\n", utf8.RuneCountInString(text))
		fmt.Fprintf(out, "Words:      %d\n\n", len(strings.Fields(text)))
		runes := []rune(text)
		if previewChars > 0 && len(runes) > previewChars {
			runes = runes[:previewChars]
		}
		fmt.Fprintln(out, string(runes))
		return nil
	},
}

var inboxTestEmailCmd = &cobra.Command{
	Use:   "test-email",
	Short: "Send a sample digest to SMTP_TO to check the SMTP settings",
	RunE: func(cmd *cobra.Command, args []string) error {
		logger.Info("testing SMTP connection",
			zap.String("host", cfg.SMTPHost),
			zap.Int("port", cfg.SMTPPort),
			zap.String("from", cfg.SMTPFrom),
			zap.String("to", cfg.SMTPTo))

		sender := email.NewSender(email.SenderConfig{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUsername,
			Password: cfg.SMTPPassword,
			From:     cfg.SMTPFrom,
			To:       cfg.SMTPTo,
		}, logger)

		err := sender.SendDigest([]email.AnalysisResult{{
			Filename:     "prueba.pdf",
			EmailSubject: "Email de prueba",
			EmailFrom:    cfg.SMTPFrom,
			EmailDate:    time.Now(),
			Summary:      "Este es un **resumen de prueba** generado por ministorectl.",
			Topics:       []string{"producto de prueba"},
			Ministores:   []string{cfg.SearchBaseURL},
		}})
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Email sent successfully")
		return nil
	},
}

func init() {
	pdfTextCmd.Flags().IntVar(&previewChars, "preview", 2000, "Maximum characters to print (0 for all)")
}
