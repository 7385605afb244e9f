package engine

import (
	"bytes"
	"context"
	"fmt"

	"github.com/pdfcpu/pdfcpu/pkg/api"

	"github.com/wudi/pdftools/document"
	"github.com/wudi/pdftools/observability"
	"github.com/wudi/pdftools/security"
)

// Secure writes a copy of source to dest protected by password, used as
// both user and owner password. Already encrypted sources are rejected.
func (e *Engine) Secure(ctx context.Context, source, dest, password string) error {
	fields := []observability.Field{
		observability.String("source", source),
		observability.String("dest", dest),
	}
	return e.run(ctx, observability.SpanSecure, fields, func(ctx context.Context, log observability.Logger) error {
		if password == "" {
			return ErrEmptyPassword
		}
		conf, err := e.enc.Configuration(password)
		if err != nil {
			return fmt.Errorf("encryption settings: %w", err)
		}
		doc, err := e.openUnprotected(ctx, "secure", source)
		if err != nil {
			return err
		}
		defer doc.Close()

		var buf bytes.Buffer
		if err := api.Encrypt(doc.Reader(), &buf, conf); err != nil {
			return fmt.Errorf("encrypt %s: %w", source, err)
		}
		if err := writeOutput(dest, buf.Bytes()); err != nil {
			return err
		}
		e.stats.AddDocuments(1)
		log.Info("secured document",
			observability.Bool("aes", e.enc.UseAES),
			observability.Int("key_length", e.enc.KeyLength))
		return nil
	})
}

type UnlockResult struct {
	// WasEncrypted is false when the source had no protection and was
	// copied as is.
	WasEncrypted bool
}

// Unlock writes an unprotected copy of source to dest. A wrong password
// fails with document.ErrIncorrectPassword. Sources without protection are
// copied page for page.
func (e *Engine) Unlock(ctx context.Context, source, dest, password string) (UnlockResult, error) {
	var res UnlockResult
	fields := []observability.Field{
		observability.String("source", source),
		observability.String("dest", dest),
	}
	err := e.run(ctx, observability.SpanUnlock, fields, func(ctx context.Context, log observability.Logger) error {
		doc, err := e.open(ctx, source, document.WithPassword(password))
		if err != nil {
			return err
		}
		defer doc.Close()
		if doc.Locked {
			return &document.PathError{Op: "unlock", Path: source, Err: document.ErrIncorrectPassword}
		}

		var buf bytes.Buffer
		if doc.Encrypted {
			res.WasEncrypted = true
			err = api.Decrypt(doc.Reader(), &buf, security.NewConfiguration(password))
		} else {
			log.Info("document is not password protected")
			err = api.Optimize(doc.Reader(), &buf, security.NewConfiguration(""))
		}
		if err != nil {
			return fmt.Errorf("unlock %s: %w", source, err)
		}
		if err := writeOutput(dest, buf.Bytes()); err != nil {
			return err
		}
		e.stats.AddDocuments(1)
		return nil
	})
	return res, err
}
