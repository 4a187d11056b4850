package assistant

// Outcome classifies how a turn ended. The values are used as metric
// labels.
type Outcome string

const (
	OutcomeSuccess           Outcome = "success"
	OutcomeUnauthorized      Outcome = "unauthorized"
	OutcomeResolutionFailure Outcome = "resolution_failure"
	OutcomeMissingReference  Outcome = "missing_reference"
	OutcomeMissingDetails    Outcome = "missing_details"
	OutcomeMissingWindow     Outcome = "missing_window"
	OutcomeGatewayFailure    Outcome = "gateway_failure"
	OutcomeTransportFailure  Outcome = "transport_failure"
	OutcomeInternalFailure   Outcome = "internal_failure"
)

func (o Outcome) String() string {
	return string(o)
}

// intentNone labels turns that never reached the resolver.
const intentNone = "none"
