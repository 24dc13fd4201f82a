package types

// Field names a draft field for the per-field rejection map.
type Field string

const (
	FieldToken     Field = "token"
	FieldPayment   Field = "payment"
	FieldInterval  Field = "interval"
	FieldTimes     Field = "times"
	FieldRecipient Field = "recipient"
)

// ReasonCode identifies why a validator rejected a field. Reasons are
// values, never errors: they gate submission and drive display messages.
type ReasonCode string

const (
	ReasonTokenNotAccepted            ReasonCode = "token-not-accepted"
	ReasonPaymentZero                 ReasonCode = "payment-zero"
	ReasonPaymentDecimalsTooLong      ReasonCode = "payment-decimals-too-long"
	ReasonPaymentInsufficientBalance  ReasonCode = "payment-insufficient-balance"
	ReasonIntervalInvalid             ReasonCode = "interval-invalid"
	ReasonStopBeforeStart             ReasonCode = "stop-before-start"
	ReasonDurationShorterThanInterval ReasonCode = "duration-shorter-than-interval"
	ReasonRecipientInvalid            ReasonCode = "recipient-invalid"
	ReasonRecipientIsSelf             ReasonCode = "recipient-is-self"
	ReasonRequiredFieldMissing        ReasonCode = "required-field-missing"
)

// Rejection is a single validator outcome. Balance and TokenSymbol are set
// only for ReasonPaymentInsufficientBalance, carrying the displayable
// balance for the message.
type Rejection struct {
	Code        ReasonCode
	Balance     string
	TokenSymbol string
}

// RejectionMap maps a field to its current rejection, if any.
type RejectionMap map[Field]*Rejection

// Clean reports whether no field is currently rejected.
func (m RejectionMap) Clean() bool {
	return len(m) == 0
}
