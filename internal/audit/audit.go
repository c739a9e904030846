// Package audit emite eventos de auditoría del ciclo de vida de cuentas.
// Hoy salen por el logger estructurado con un canal propio; si mañana hace
// falta un sink dedicado (DB, SIEM) se cambia acá sin tocar a los callers.
package audit

import (
	"context"

	"github.com/dropDatabas3/idbridge/internal/observability/logger"
	"go.uber.org/zap"
)

// Eventos conocidos.
const (
	EventAccountProvisioned = "account.provisioned"
	EventAccountResolved    = "account.resolved"
	EventLoginRejected      = "login.rejected"
)

// Log registra un evento de auditoría con los campos dados.
func Log(ctx context.Context, event string, fields ...zap.Field) {
	logger.From(ctx).With(
		zap.String("channel", "audit"),
		zap.String("event", event),
	).Info("audit", fields...)
}
