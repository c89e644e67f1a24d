package clients

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/freightops/load-ledger-api/pkg/circuitbreaker"
	"github.com/freightops/load-ledger-api/pkg/errors"
	"github.com/freightops/load-ledger-api/pkg/logger"
	"github.com/freightops/load-ledger-api/pkg/retry"
	"github.com/go-resty/resty/v2"
)

// FMCSAClient looks up carriers in the FMCSA QC registry by docket (MC)
// number. Calls go through a circuit breaker and bounded retries so a flaky
// registry cannot stall load negotiation.
type FMCSAClient struct {
	client      *resty.Client
	webKey      string
	breaker     *circuitbreaker.CircuitBreaker
	retryConfig *retry.Config
	logger      logger.Logger
}

// CarrierInfo is the subset of the registry record the ledger cares about
type CarrierInfo struct {
	DocketNumber  string `json:"docket_number"`
	LegalName     string `json:"legal_name"`
	DBAName       string `json:"dba_name,omitempty"`
	DOTNumber     int    `json:"dot_number,omitempty"`
	AllowedToHaul bool   `json:"allowed_to_haul"`
}

type carrierSearchResponse struct {
	Content []struct {
		Carrier struct {
			LegalName        string `json:"legalName"`
			DBAName          string `json:"dbaName"`
			DotNumber        int    `json:"dotNumber"`
			AllowedToOperate string `json:"allowedToOperate"`
		} `json:"carrier"`
	} `json:"content"`
}

// NewFMCSAClient creates a new FMCSA registry client
func NewFMCSAClient(baseURL, webKey string, logger logger.Logger) *FMCSAClient {
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(10 * time.Second).
		SetHeader("Accept", "application/json")

	return &FMCSAClient{
		client: client,
		webKey: webKey,
		breaker: circuitbreaker.New(circuitbreaker.Config{
			FailureThreshold: 5,
			ResetTimeout:     30 * time.Second,
			HalfOpenMaxCalls: 2,
		}),
		retryConfig: &retry.Config{
			MaxAttempts:     3,
			BackoffStrategy: retry.NewDefaultExponentialBackoff(),
			Logger:          logger,
			RetryableErrors: []error{
				errors.ErrTimeout,
				errors.ErrTemporaryFailure,
				errors.ErrServiceUnavailable,
			},
		},
		logger: logger,
	}
}

// SearchByDocket verifies a carrier by docket number
func (c *FMCSAClient) SearchByDocket(ctx context.Context, docketNumber string) (*CarrierInfo, error) {
	if docketNumber == "" {
		return nil, errors.NewValidationError("docket_number", docketNumber, "docket_number is required")
	}

	if !c.breaker.Allow() {
		c.logger.Warn("FMCSA circuit open, rejecting lookup", "docketNumber", docketNumber)
		return nil, errors.NewTemporaryError("carrier registry temporarily unavailable")
	}

	var result carrierSearchResponse

	lookup := func() error {
		resp, err := c.client.R().
			SetContext(ctx).
			SetQueryParam("webKey", c.webKey).
			SetResult(&result).
			Get(fmt.Sprintf("/carriers/docket-number/%s", docketNumber))

		if err != nil {
			return errors.NewTemporaryError(fmt.Sprintf("fmcsa request failed: %v", err))
		}

		switch {
		case resp.StatusCode() == http.StatusNotFound:
			return errors.NewNotFoundError(fmt.Sprintf("carrier with docket number %q not found", docketNumber))
		case resp.StatusCode() == http.StatusRequestTimeout || resp.StatusCode() == http.StatusGatewayTimeout:
			return errors.NewTimeoutError("fmcsa request timed out")
		case resp.StatusCode() >= http.StatusInternalServerError:
			return errors.NewTemporaryError(fmt.Sprintf("fmcsa service error: %d", resp.StatusCode()))
		case resp.StatusCode() >= http.StatusBadRequest:
			return errors.NewAppError(errors.ErrInternal,
				fmt.Sprintf("fmcsa returned error: %d", resp.StatusCode()), resp.StatusCode(), false)
		}

		return nil
	}

	err := retry.Do(ctx, lookup, c.retryConfig)

	if err != nil {
		c.breaker.Failure()
		c.logger.Error("FMCSA lookup failed", "error", err, "docketNumber", docketNumber)
		return nil, err
	}

	c.breaker.Success()

	if len(result.Content) == 0 {
		return nil, errors.NewNotFoundError(fmt.Sprintf("carrier with docket number %q not found", docketNumber))
	}

	carrier := result.Content[0].Carrier

	return &CarrierInfo{
		DocketNumber:  docketNumber,
		LegalName:     carrier.LegalName,
		DBAName:       carrier.DBAName,
		DOTNumber:     carrier.DotNumber,
		AllowedToHaul: carrier.AllowedToOperate == "Y",
	}, nil
}

// BreakerMetrics exposes the breaker state for debug introspection
func (c *FMCSAClient) BreakerMetrics() map[string]interface{} {
	return c.breaker.GetMetrics()
}
