package observability

const (
	MUsecaseRequests     = "usecase_requests_total"
	MUsecaseDuration     = "usecase_duration_seconds"
	MHTTPRequests        = "http_requests_total"
	MHTTPRequestDuration = "http_request_duration_seconds"
	MPaymentAttempts     = "payment_attempts_total"
	MPaymentPolls        = "payment_polls_total"
	MGatewayRequests     = "gateway_requests_total"
)
