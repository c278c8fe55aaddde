package tooling

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/hashicorp/go-retryablehttp"

	"opschat/internal/domain"
)

const slackBaseURL = "https://slack.com/api"

// slackClient is shared by the four Slack tools: one token, one HTTP client.
type slackClient struct {
	token   string
	baseURL string
	client  *retryablehttp.Client
}

func newSlackClient(token string) *slackClient {
	return &slackClient{
		token:   token,
		baseURL: slackBaseURL,
		client:  newHTTPClient(),
	}
}

func (c *slackClient) headers(contentType string) map[string]string {
	h := map[string]string{"Authorization": "Bearer " + c.token}
	if contentType != "" {
		h["Content-Type"] = contentType
	}
	return h
}

// call performs a Slack Web API request and checks the "ok" envelope field.
// A 2xx response with ok=false is still a tool-level failure.
func (c *slackClient) call(ctx context.Context, method, endpoint string, query url.Values, body []byte) (json.RawMessage, error) {
	u := c.baseURL + "/" + endpoint
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	var reader *bytes.Reader
	contentType := ""
	if body != nil {
		reader = bytes.NewReader(body)
		contentType = "application/json"
	}

	var raw string
	var err error
	if reader != nil {
		raw, err = doJSON(ctx, c.client, method, u, c.headers(contentType), reader)
	} else {
		raw, err = doJSON(ctx, c.client, method, u, c.headers(contentType), nil)
	}
	if err != nil {
		return nil, err
	}

	var envelope struct {
		OK    bool   `json:"ok"`
		Error string `json:"error"`
	}
	if err := json.Unmarshal([]byte(raw), &envelope); err != nil {
		return nil, fmt.Errorf("%w: slack response is not JSON: %v", domain.ErrToolExecution, err)
	}
	if !envelope.OK {
		reason := envelope.Error
		if reason == "" {
			reason = "unknown_error"
		}
		return nil, fmt.Errorf("%w: slack: %s", domain.ErrToolExecution, reason)
	}
	return json.RawMessage(raw), nil
}

// NewSlackTools returns all Slack tools backed by one shared client, in the
// order they should be registered.
func NewSlackTools(token string) []SchemaTool {
	c := newSlackClient(token)
	return []SchemaTool{
		&SendSlackMessageTool{client: c},
		&ListSlackChannelsTool{client: c},
		&LookupSlackUserTool{client: c},
		&ListSlackUsersTool{client: c},
	}
}

// =============================================================================
// send_slack_message
// =============================================================================

// SendSlackMessageInput is the argument struct for send_slack_message.
type SendSlackMessageInput struct {
	Channel string `json:"channel" jsonschema:"description=Slack channel (e.g. #alerts) or user ID (e.g. U12345678)"`
	Message string `json:"message" jsonschema:"description=The message to send"`
}

type SendSlackMessageTool struct {
	client *slackClient
}

func (t *SendSlackMessageTool) Name() string { return "send_slack_message" }

func (t *SendSlackMessageTool) Description() string {
	return "Send a message to a Slack channel or user (e.g., to alert about abusive IPs)"
}

func (t *SendSlackMessageTool) Definition() string {
	return GenerateSchema(SendSlackMessageInput{})
}

func (t *SendSlackMessageTool) Call(ctx context.Context, args json.RawMessage) (*domain.ToolResult, error) {
	if err := ValidateAgainstSchema(args, t.Definition()); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidArguments, err)
	}
	var input SendSlackMessageInput
	if err := json.Unmarshal(args, &input); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidArguments, err)
	}

	payload, err := json.Marshal(map[string]string{
		"channel": input.Channel,
		"text":    input.Message,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrToolExecution, err)
	}
	if _, err := t.client.call(ctx, "POST", "chat.postMessage", nil, payload); err != nil {
		return nil, err
	}

	out, _ := json.Marshal(map[string]string{
		"status":  "success",
		"channel": input.Channel,
		"message": input.Message,
	})
	res := domain.NewSuccessResult(string(out))
	res.Metadata = map[string]string{"channel": input.Channel}
	return res, nil
}

// =============================================================================
// list_slack_channels
// =============================================================================

// ListSlackChannelsInput takes no arguments.
type ListSlackChannelsInput struct{}

type ListSlackChannelsTool struct {
	client *slackClient
}

func (t *ListSlackChannelsTool) Name() string { return "list_slack_channels" }

func (t *ListSlackChannelsTool) Description() string {
	return "List all available public and private Slack channels"
}

func (t *ListSlackChannelsTool) Definition() string {
	return GenerateSchema(ListSlackChannelsInput{})
}

func (t *ListSlackChannelsTool) Call(ctx context.Context, args json.RawMessage) (*domain.ToolResult, error) {
	if err := ValidateAgainstSchema(args, t.Definition()); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidArguments, err)
	}

	q := url.Values{}
	q.Set("types", "public_channel,private_channel")
	q.Set("limit", "1000")

	raw, err := t.client.call(ctx, "GET", "conversations.list", q, nil)
	if err != nil {
		return nil, err
	}

	var data struct {
		Channels []struct {
			Name      string `json:"name"`
			ID        string `json:"id"`
			IsPrivate bool   `json:"is_private"`
		} `json:"channels"`
	}
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrToolExecution, err)
	}
	out, _ := json.Marshal(map[string]any{
		"status":   "success",
		"channels": data.Channels,
	})
	return domain.NewSuccessResult(string(out)), nil
}

// =============================================================================
// lookup_slack_user
// =============================================================================

// LookupSlackUserInput is the argument struct for lookup_slack_user.
type LookupSlackUserInput struct {
	Email string `json:"email" jsonschema:"description=The user's email address"`
}

type LookupSlackUserTool struct {
	client *slackClient
}

func (t *LookupSlackUserTool) Name() string { return "lookup_slack_user" }

func (t *LookupSlackUserTool) Description() string {
	return "Find a Slack user's ID by their email"
}

func (t *LookupSlackUserTool) Definition() string {
	return GenerateSchema(LookupSlackUserInput{})
}

func (t *LookupSlackUserTool) Call(ctx context.Context, args json.RawMessage) (*domain.ToolResult, error) {
	if err := ValidateAgainstSchema(args, t.Definition()); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidArguments, err)
	}
	var input LookupSlackUserInput
	if err := json.Unmarshal(args, &input); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidArguments, err)
	}

	q := url.Values{}
	q.Set("email", input.Email)

	raw, err := t.client.call(ctx, "GET", "users.lookupByEmail", q, nil)
	if err != nil {
		return nil, err
	}

	var data struct {
		User struct {
			ID       string `json:"id"`
			RealName string `json:"real_name"`
		} `json:"user"`
	}
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrToolExecution, err)
	}
	out, _ := json.Marshal(map[string]string{
		"status":    "success",
		"user_id":   data.User.ID,
		"real_name": data.User.RealName,
	})
	return domain.NewSuccessResult(string(out)), nil
}

// =============================================================================
// list_slack_users
// =============================================================================

// ListSlackUsersInput takes no arguments.
type ListSlackUsersInput struct{}

type ListSlackUsersTool struct {
	client *slackClient
}

func (t *ListSlackUsersTool) Name() string { return "list_slack_users" }

func (t *ListSlackUsersTool) Description() string {
	return "List all Slack users (public info only)"
}

func (t *ListSlackUsersTool) Definition() string {
	return GenerateSchema(ListSlackUsersInput{})
}

func (t *ListSlackUsersTool) Call(ctx context.Context, args json.RawMessage) (*domain.ToolResult, error) {
	if err := ValidateAgainstSchema(args, t.Definition()); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidArguments, err)
	}

	raw, err := t.client.call(ctx, "GET", "users.list", nil, nil)
	if err != nil {
		return nil, err
	}

	var data struct {
		Members []struct {
			ID       string `json:"id"`
			RealName string `json:"real_name"`
			IsBot    bool   `json:"is_bot"`
			Profile  struct {
				Email string `json:"email"`
			} `json:"profile"`
		} `json:"members"`
	}
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrToolExecution, err)
	}

	type user struct {
		ID       string `json:"id"`
		RealName string `json:"real_name"`
		Email    string `json:"email"`
	}
	users := make([]user, 0, len(data.Members))
	for _, m := range data.Members {
		if m.IsBot {
			continue
		}
		users = append(users, user{ID: m.ID, RealName: m.RealName, Email: m.Profile.Email})
	}
	out, _ := json.Marshal(map[string]any{
		"status": "success",
		"users":  users,
	})
	return domain.NewSuccessResult(string(out)), nil
}
