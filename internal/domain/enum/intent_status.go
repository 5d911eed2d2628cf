package enum

// IntentStatus is the state of a QR/card payment intent while it is being
// polled. Intents are coordination handles, not persisted entities, so the
// status is kept as the gateway's string form.
type IntentStatus string

const (
	IntentStatusPending   IntentStatus = "PENDING"
	IntentStatusApproved  IntentStatus = "APPROVED"
	IntentStatusRejected  IntentStatus = "REJECTED"
	IntentStatusCancelled IntentStatus = "CANCELLED"
)

// Terminal reports whether the status ends the polling loop
func (s IntentStatus) Terminal() bool {
	return s == IntentStatusApproved || s == IntentStatusRejected || s == IntentStatusCancelled
}
