package domain

import "time"

type AuditAction string

const (
	AuditActionCreate  AuditAction = "CREATE"
	AuditActionEdit    AuditAction = "EDIT"
	AuditActionDeliver AuditAction = "DELIVER"
	AuditActionDelete  AuditAction = "DELETE"
)

type OrderAudit struct {
	ID        uint
	OrderID   uint
	Action    AuditAction
	UserName  string
	CreatedAt time.Time
	Note      *string
}
