package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/dropDatabas3/idbridge/internal/security/secretbox"
)

// newEncCmd cifra un secreto de config (broker secret, SMTP password) con la
// clave maestra de SECRETBOX_MASTER_KEY, listo para pegar en el YAML.
func newEncCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "enc <plaintext>",
		Short: "Cifra un secreto de configuración con SECRETBOX_MASTER_KEY",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if os.Getenv("SECRETBOX_MASTER_KEY") == "" {
				return fmt.Errorf("SECRETBOX_MASTER_KEY no seteada")
			}
			enc, err := secretbox.Encrypt(args[0])
			if err != nil {
				return fmt.Errorf("encrypt: %w", err)
			}
			fmt.Println(enc)
			return nil
		},
	}
}
