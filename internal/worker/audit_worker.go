package worker

import (
	"github.com/spec-kit/storefront-auth/internal/service"
)

// StartAuditWorker registers the audit handlers on the dispatcher.
func StartAuditWorker(auditService *service.AuditService) {
	if auditService == nil {
		return
	}
	auditService.RegisterHandlers()
}
