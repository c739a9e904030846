package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

// newResolveCmd crea el subcomando cliente: postea una assertion contra un
// servidor idbridge corriendo y muestra el resultado.
func newResolveCmd() *cobra.Command {
	var (
		baseURL   = envOr("IDBRIDGE_URL", "http://localhost:8080")
		provider  string
		assertion string
		out       = envOr("IDBRIDGE_OUT", "json")
	)

	cmd := &cobra.Command{
		Use:   "resolve",
		Short: "Resuelve una assertion del broker contra un servidor corriendo",
		RunE: func(cmd *cobra.Command, args []string) error {
			if provider == "" {
				return fmt.Errorf("--provider es requerido")
			}
			if assertion == "" {
				// Permite pasar la assertion por stdin (pipes desde el broker).
				b, err := io.ReadAll(os.Stdin)
				if err != nil {
					return err
				}
				assertion = strings.TrimSpace(string(b))
			}
			if assertion == "" {
				return fmt.Errorf("--assertion es requerido (flag o stdin)")
			}

			payload, _ := json.Marshal(map[string]string{"assertion": assertion})
			url := strings.TrimRight(baseURL, "/") + "/v1/resolve/" + provider

			httpClient := &http.Client{Timeout: 30 * time.Second}
			req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(payload))
			if err != nil {
				return err
			}
			req.Header.Set("Content-Type", "application/json")

			resp, err := httpClient.Do(req)
			if err != nil {
				return err
			}
			defer resp.Body.Close()
			body, _ := io.ReadAll(resp.Body)

			printResponse(out, resp.StatusCode, body)
			if resp.StatusCode/100 != 2 {
				return fmt.Errorf("status=%d", resp.StatusCode)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&baseURL, "url", baseURL, "URL base del servidor (env IDBRIDGE_URL)")
	cmd.Flags().StringVar(&provider, "provider", "", "proveedor federado (facebook|google|linkedin|github)")
	cmd.Flags().StringVar(&assertion, "assertion", "", "assertion JWT firmada por el broker")
	cmd.Flags().StringVar(&out, "out", out, "Formato de salida: json|text")
	return cmd
}

func printResponse(format string, status int, body []byte) {
	if format == "json" {
		var v any
		if json.Unmarshal(body, &v) == nil {
			p, _ := json.MarshalIndent(v, "", "  ")
			fmt.Println(string(p))
			return
		}
	}
	if len(body) > 0 {
		fmt.Println(string(body))
	} else {
		fmt.Printf("status=%d\n", status)
	}
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
