package port

import "time"

type Clock interface {
	Now() time.Time
}

type IDGenerator interface {
	// PaymentID returns a new unique payment id.
	PaymentID() int64
	// Reference returns a new unique reconciliation token.
	Reference() string
}
