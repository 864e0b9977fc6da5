package toolgateway

import "tradegate/internal/coreerr"

func errUnknownTool(toolName string) error {
	return coreerr.Newf(coreerr.Validation, "toolgateway: unknown tool %q", toolName)
}

func errForbiddenParam(toolName, param string) error {
	return coreerr.Newf(coreerr.Validation, "toolgateway: parameter %q is forbidden for tool %q", param, toolName)
}

func errValidationFailed(toolName string, cause error) error {
	return coreerr.Wrap(coreerr.Validation, "toolgateway: "+toolName+": VALIDATION_FAILED", cause)
}

func errRateLimited(dimension string) error {
	return coreerr.Newf(coreerr.Resource, "toolgateway: rate limit exceeded (%s)", dimension)
}

func errBreakerOpen(toolName string) error {
	return coreerr.Newf(coreerr.Resource, "toolgateway: circuit breaker open for tool %q", toolName)
}
