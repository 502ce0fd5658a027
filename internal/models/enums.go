package models

import (
	"fmt"
	"strings"
)

// Role of a platform user.
type Role string

const (
	RoleUser  Role = "USER"
	RoleAdmin Role = "ADMIN"
)

var Roles = []Role{RoleUser, RoleAdmin}

// LoyaltyTier of a platform user.
type LoyaltyTier string

const (
	TierBronze   LoyaltyTier = "Bronze"
	TierSilver   LoyaltyTier = "Silver"
	TierGold     LoyaltyTier = "Gold"
	TierPlatinum LoyaltyTier = "Platinum"
)

var LoyaltyTiers = []LoyaltyTier{TierBronze, TierSilver, TierGold, TierPlatinum}

// ActiveStatus is shared by airlines and airports.
type ActiveStatus string

const (
	StatusActive   ActiveStatus = "ACTIVE"
	StatusInactive ActiveStatus = "INACTIVE"
)

var ActiveStatuses = []ActiveStatus{StatusActive, StatusInactive}

// BookingStatus is lower-case on the wire.
type BookingStatus string

const (
	BookingConfirmed BookingStatus = "confirmed"
	BookingPending   BookingStatus = "pending"
	BookingCancelled BookingStatus = "cancelled"
)

var BookingStatuses = []BookingStatus{BookingConfirmed, BookingPending, BookingCancelled}

type PaymentStatus string

const (
	PaymentCompleted PaymentStatus = "COMPLETED"
	PaymentPending   PaymentStatus = "PENDING"
	PaymentFailed    PaymentStatus = "FAILED"
	PaymentRefunded  PaymentStatus = "REFUNDED"
)

var PaymentStatuses = []PaymentStatus{PaymentCompleted, PaymentPending, PaymentFailed, PaymentRefunded}

type NotificationType string

const (
	NotificationInfo      NotificationType = "INFO"
	NotificationWarning   NotificationType = "WARNING"
	NotificationSuccess   NotificationType = "SUCCESS"
	NotificationPromotion NotificationType = "PROMOTION"
)

var NotificationTypes = []NotificationType{NotificationInfo, NotificationWarning, NotificationSuccess, NotificationPromotion}

type NotificationTarget string

const (
	TargetAll    NotificationTarget = "ALL"
	TargetUsers  NotificationTarget = "USERS"
	TargetAdmins NotificationTarget = "ADMINS"
)

var NotificationTargets = []NotificationTarget{TargetAll, TargetUsers, TargetAdmins}

type DiscountType string

const (
	DiscountPercentage DiscountType = "PERCENTAGE"
	DiscountFixed      DiscountType = "FIXED"
)

var DiscountTypes = []DiscountType{DiscountPercentage, DiscountFixed}

type TicketStatus string

const (
	TicketOpen       TicketStatus = "OPEN"
	TicketInProgress TicketStatus = "IN_PROGRESS"
	TicketResolved   TicketStatus = "RESOLVED"
	TicketClosed     TicketStatus = "CLOSED"
)

var TicketStatuses = []TicketStatus{TicketOpen, TicketInProgress, TicketResolved, TicketClosed}

type TicketPriority string

const (
	PriorityLow    TicketPriority = "LOW"
	PriorityMedium TicketPriority = "MEDIUM"
	PriorityHigh   TicketPriority = "HIGH"
)

var TicketPriorities = []TicketPriority{PriorityLow, PriorityMedium, PriorityHigh}

type AuditAction string

const (
	AuditCreate AuditAction = "CREATE"
	AuditUpdate AuditAction = "UPDATE"
	AuditDelete AuditAction = "DELETE"
	AuditLogin  AuditAction = "LOGIN"
)

var AuditActions = []AuditAction{AuditCreate, AuditUpdate, AuditDelete, AuditLogin}

// parseEnum matches s against the closed set, case-insensitively for
// the upper-case enumerations. The canonical spelling is returned.
func parseEnum[E ~string](kind string, s string, values []E) (E, error) {
	s = strings.TrimSpace(s)
	for _, v := range values {
		if strings.EqualFold(string(v), s) {
			return v, nil
		}
	}
	var zero E
	return zero, fmt.Errorf("invalid %s %q", kind, s)
}

func ParseRole(s string) (Role, error)                 { return parseEnum("role", s, Roles) }
func ParseLoyaltyTier(s string) (LoyaltyTier, error)   { return parseEnum("loyalty tier", s, LoyaltyTiers) }
func ParseActiveStatus(s string) (ActiveStatus, error) { return parseEnum("status", s, ActiveStatuses) }
func ParseBookingStatus(s string) (BookingStatus, error) {
	return parseEnum("booking status", s, BookingStatuses)
}
func ParsePaymentStatus(s string) (PaymentStatus, error) {
	return parseEnum("payment status", s, PaymentStatuses)
}
func ParseNotificationType(s string) (NotificationType, error) {
	return parseEnum("notification type", s, NotificationTypes)
}
func ParseNotificationTarget(s string) (NotificationTarget, error) {
	return parseEnum("notification target", s, NotificationTargets)
}
func ParseDiscountType(s string) (DiscountType, error) {
	return parseEnum("discount type", s, DiscountTypes)
}
func ParseTicketStatus(s string) (TicketStatus, error) {
	return parseEnum("ticket status", s, TicketStatuses)
}
func ParseTicketPriority(s string) (TicketPriority, error) {
	return parseEnum("ticket priority", s, TicketPriorities)
}
func ParseAuditAction(s string) (AuditAction, error) {
	return parseEnum("audit action", s, AuditActions)
}

// Strings converts a closed set to its wire spellings, for select inputs.
func Strings[E ~string](values []E) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = string(v)
	}
	return out
}
