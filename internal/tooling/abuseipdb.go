package tooling

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"

	"github.com/hashicorp/go-retryablehttp"

	"opschat/internal/domain"
)

const abuseIPDBBaseURL = "https://api.abuseipdb.com/api/v2"

// defaultMaxAgeDays bounds how far back AbuseIPDB reports are considered.
const defaultMaxAgeDays = 90

// CheckIPInput is the argument struct for check_ip_reputation.
type CheckIPInput struct {
	IPAddress string `json:"ip_address"`
	MaxAge    int    `json:"max_age,omitempty" jsonschema:"default=90"`
}

// CheckIPTool queries AbuseIPDB for a single address's abuse reputation.
type CheckIPTool struct {
	apiKey  string
	baseURL string
	client  *retryablehttp.Client
}

// NewCheckIPTool returns a reputation tool authenticated with the given key.
func NewCheckIPTool(apiKey string) *CheckIPTool {
	return &CheckIPTool{
		apiKey:  apiKey,
		baseURL: abuseIPDBBaseURL,
		client:  newHTTPClient(),
	}
}

func (t *CheckIPTool) Name() string { return "check_ip_reputation" }

func (t *CheckIPTool) Description() string {
	return "Check the abuse reputation of a single IP address"
}

func (t *CheckIPTool) Definition() string {
	return GenerateSchema(CheckIPInput{})
}

func (t *CheckIPTool) Call(ctx context.Context, args json.RawMessage) (*domain.ToolResult, error) {
	if err := ValidateAgainstSchema(args, t.Definition()); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidArguments, err)
	}
	var input CheckIPInput
	if err := json.Unmarshal(args, &input); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidArguments, err)
	}
	if input.MaxAge <= 0 {
		input.MaxAge = defaultMaxAgeDays
	}

	q := url.Values{}
	q.Set("ipAddress", input.IPAddress)
	q.Set("maxAgeInDays", strconv.Itoa(input.MaxAge))

	headers := map[string]string{"Key": t.apiKey, "Accept": "application/json"}
	body, err := doJSON(ctx, t.client, "GET", t.baseURL+"/check?"+q.Encode(), headers, nil)
	if err != nil {
		return nil, err
	}
	return domain.NewSuccessResult(body), nil
}

// CheckBlockInput is the argument struct for check_ip_block.
type CheckBlockInput struct {
	Block string `json:"block"`
}

// CheckBlockTool queries AbuseIPDB for abusive addresses inside a CIDR block.
type CheckBlockTool struct {
	apiKey  string
	baseURL string
	client  *retryablehttp.Client
}

// NewCheckBlockTool returns a block-check tool authenticated with the given key.
func NewCheckBlockTool(apiKey string) *CheckBlockTool {
	return &CheckBlockTool{
		apiKey:  apiKey,
		baseURL: abuseIPDBBaseURL,
		client:  newHTTPClient(),
	}
}

func (t *CheckBlockTool) Name() string { return "check_ip_block" }

func (t *CheckBlockTool) Description() string {
	return "Check if any IPs in a block are abusive"
}

func (t *CheckBlockTool) Definition() string {
	return GenerateSchema(CheckBlockInput{})
}

func (t *CheckBlockTool) Call(ctx context.Context, args json.RawMessage) (*domain.ToolResult, error) {
	if err := ValidateAgainstSchema(args, t.Definition()); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidArguments, err)
	}
	var input CheckBlockInput
	if err := json.Unmarshal(args, &input); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidArguments, err)
	}

	q := url.Values{}
	q.Set("network", input.Block)
	q.Set("maxAgeInDays", strconv.Itoa(defaultMaxAgeDays))

	headers := map[string]string{"Key": t.apiKey, "Accept": "application/json"}
	body, err := doJSON(ctx, t.client, "GET", t.baseURL+"/check-block?"+q.Encode(), headers, nil)
	if err != nil {
		return nil, err
	}
	return domain.NewSuccessResult(body), nil
}
