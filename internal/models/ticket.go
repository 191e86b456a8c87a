package models

import "time"

// TicketStateKind — вид состояния пригласительного билета.
type TicketStateKind int

const (
	// TicketUnused — билет ещё никем не использован.
	TicketUnused TicketStateKind = iota
	// TicketProvisionallyAllocated — билет временно закреплён за ожидающей регистрацией.
	TicketProvisionallyAllocated
	// TicketConsumed — билет окончательно использован учётной записью.
	TicketConsumed
)

func (k TicketStateKind) String() string {
	switch k {
	case TicketUnused:
		return "unused"
	case TicketProvisionallyAllocated:
		return "provisionally_allocated"
	case TicketConsumed:
		return "consumed"
	default:
		return "unknown"
	}
}

// TicketState — явное состояние билета.
//
// Since и PendingID заполнены только для TicketProvisionallyAllocated,
// AccountID и At — только для TicketConsumed.
type TicketState struct {
	Kind      TicketStateKind
	Since     time.Time
	PendingID string
	AccountID string
	At        time.Time
}

// UnusedTicket возвращает состояние неиспользованного билета.
func UnusedTicket() TicketState {
	return TicketState{Kind: TicketUnused}
}

// ProvisionallyAllocatedTicket возвращает состояние билета, выданного ожидающей регистрации.
func ProvisionallyAllocatedTicket(since time.Time, pendingID string) TicketState {
	return TicketState{Kind: TicketProvisionallyAllocated, Since: since, PendingID: pendingID}
}

// ConsumedTicket возвращает состояние билета, использованного учётной записью.
func ConsumedTicket(accountID string, at time.Time) TicketState {
	return TicketState{Kind: TicketConsumed, AccountID: accountID, At: at}
}

// LeaseActive сообщает, удерживает ли ожидающая регистрация билет в момент now.
func (s TicketState) LeaseActive(now time.Time, lease time.Duration) bool {
	return s.Kind == TicketProvisionallyAllocated && now.Sub(s.Since) < lease
}

// RegistrationTicket — пригласительный билет.
type RegistrationTicket struct {
	ID        string
	Code      string
	ExpiresAt *time.Time
	State     TicketState
	CreatedAt time.Time
}

// Expired сообщает, истёк ли срок действия билета.
func (t *RegistrationTicket) Expired(now time.Time) bool {
	return t.ExpiresAt != nil && t.ExpiresAt.Before(now)
}
