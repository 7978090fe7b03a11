//nolint:revive,nolintlint // Package name "common" is intentional for shared helpers.
package common

import (
	"context"
	"errors"
	"fmt"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/metadata"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	api "github.com/oshokin/commute-alarm/internal/api/grpc/alarm"
	"github.com/oshokin/commute-alarm/internal/config"
	"github.com/oshokin/commute-alarm/internal/notify"
)

// Client wraps the gRPC AlarmService client with convenience helpers.
type Client struct {
	// conn is the underlying gRPC connection to the daemon.
	conn *grpc.ClientConn
	// api is the AlarmService client.
	api api.AlarmServiceClient
	// health checks daemon liveness.
	health healthpb.HealthClient

	// callTimeout is the default timeout for individual RPC calls.
	callTimeout time.Duration
	// actor is attached to every call when set.
	actor *Actor
}

// Option configures client behaviour.
type Option func(*Client)

// WithCallTimeout sets a default timeout for service calls.
func WithCallTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.callTimeout = timeout
		}
	}
}

// WithActor attaches actor to every call for the daemon's audit log.
func WithActor(actor Actor) Option {
	return func(c *Client) {
		c.actor = &actor
	}
}

var (
	// errAddressRequired is returned when a required address value is missing.
	errAddressRequired = errors.New("address must be provided")
	// errIDRequired is returned when an alarm id is not provided.
	errIDRequired = errors.New("alarm id must be provided")
)

// Dial establishes a gRPC connection to the daemon.
// Note: this uses insecure transport credentials; deploy on a trusted network
// or terminate TLS in a proxy until native TLS is added.
func Dial(_ context.Context, address string, opts ...Option) (*Client, error) {
	if address == "" {
		return nil, errAddressRequired
	}

	conn, err := grpc.NewClient(address, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("dial daemon: %w", err)
	}

	client := &Client{
		conn:        conn,
		api:         api.NewAlarmServiceClient(conn),
		health:      healthpb.NewHealthClient(conn),
		callTimeout: config.DefaultTimeout,
	}

	for _, opt := range opts {
		opt(client)
	}

	return client, nil
}

// Close releases the underlying gRPC connection.
func (c *Client) Close() error {
	if c == nil || c.conn == nil {
		return nil
	}

	return c.conn.Close()
}

// Ping checks that the daemon reports itself as serving.
func (c *Client) Ping(ctx context.Context) error {
	callCtx, cancel := c.callContext(ctx)
	defer cancel()

	resp, err := c.health.Check(callCtx, &healthpb.HealthCheckRequest{Service: api.ServiceName})
	if err != nil {
		return fmt.Errorf("health check: %w", err)
	}

	if resp.GetStatus() != healthpb.HealthCheckResponse_SERVING {
		return fmt.Errorf("health check: daemon is %s", resp.GetStatus())
	}

	return nil
}

// ListAlarms returns every alarm.
func (c *Client) ListAlarms(ctx context.Context) (*api.AlarmList, error) {
	callCtx, cancel := c.callContext(ctx)
	defer cancel()

	resp, err := c.api.ListAlarms(callCtx, new(emptypb.Empty))
	if err != nil {
		return nil, fmt.Errorf("list alarms: %w", err)
	}

	return decode[api.AlarmList](resp)
}

// GetAlarm returns one alarm.
func (c *Client) GetAlarm(ctx context.Context, id string) (*api.AlarmView, error) {
	if id == "" {
		return nil, errIDRequired
	}

	callCtx, cancel := c.callContext(ctx)
	defer cancel()

	resp, err := c.api.GetAlarm(callCtx, wrapperspb.String(id))
	if err != nil {
		return nil, fmt.Errorf("get alarm: %w", err)
	}

	return decode[api.AlarmView](resp)
}

// CreateAlarm stores a new alarm.
func (c *Client) CreateAlarm(ctx context.Context, draft *api.AlarmDraft) (*api.AlarmView, error) {
	return c.sendDraft(ctx, "create alarm", draft, c.api.CreateAlarm)
}

// UpdateAlarm replaces the editable fields of draft.ID.
func (c *Client) UpdateAlarm(ctx context.Context, draft *api.AlarmDraft) (*api.AlarmView, error) {
	if draft == nil || draft.ID == "" {
		return nil, errIDRequired
	}

	return c.sendDraft(ctx, "update alarm", draft, c.api.UpdateAlarm)
}

// DeleteAlarm removes an alarm.
func (c *Client) DeleteAlarm(ctx context.Context, id string) error {
	if id == "" {
		return errIDRequired
	}

	callCtx, cancel := c.callContext(ctx)
	defer cancel()

	if _, err := c.api.DeleteAlarm(callCtx, wrapperspb.String(id)); err != nil {
		return fmt.Errorf("delete alarm: %w", err)
	}

	return nil
}

// SetAlarmEnabled enables or disables an alarm.
func (c *Client) SetAlarmEnabled(ctx context.Context, id string, enabled bool) (*api.AlarmView, error) {
	if id == "" {
		return nil, errIDRequired
	}

	req, err := api.EncodeStruct(api.EnabledRequest{ID: id, Enabled: enabled})
	if err != nil {
		return nil, err
	}

	callCtx, cancel := c.callContext(ctx)
	defer cancel()

	resp, err := c.api.SetAlarmEnabled(callCtx, req)
	if err != nil {
		return nil, fmt.Errorf("set alarm enabled: %w", err)
	}

	return decode[api.AlarmView](resp)
}

// TriggerAlarm asks the daemon to present the notification of an alarm now.
func (c *Client) TriggerAlarm(ctx context.Context, id string) (*notify.Request, error) {
	if id == "" {
		return nil, errIDRequired
	}

	callCtx, cancel := c.callContext(ctx)
	defer cancel()

	resp, err := c.api.TriggerAlarm(callCtx, wrapperspb.String(id))
	if err != nil {
		return nil, fmt.Errorf("trigger alarm: %w", err)
	}

	return decode[notify.Request](resp)
}

// GetLineStatuses returns the daemon's cached line snapshot.
func (c *Client) GetLineStatuses(ctx context.Context) (*api.LineSnapshot, error) {
	callCtx, cancel := c.callContext(ctx)
	defer cancel()

	resp, err := c.api.GetLineStatuses(callCtx, new(emptypb.Empty))
	if err != nil {
		return nil, fmt.Errorf("get line statuses: %w", err)
	}

	return decode[api.LineSnapshot](resp)
}

// RefreshLineStatuses runs one fetch on the daemon and returns its final result.
func (c *Client) RefreshLineStatuses(ctx context.Context) (*api.SyncResult, error) {
	callCtx, cancel := c.callContext(ctx)
	defer cancel()

	resp, err := c.api.RefreshLineStatuses(callCtx, new(emptypb.Empty))
	if err != nil {
		return nil, fmt.Errorf("refresh line statuses: %w", err)
	}

	return decode[api.SyncResult](resp)
}

// sendDraft encodes draft and performs call.
func (c *Client) sendDraft(
	ctx context.Context,
	op string,
	draft *api.AlarmDraft,
	call func(context.Context, *structpb.Struct, ...grpc.CallOption) (*structpb.Struct, error),
) (*api.AlarmView, error) {
	req, err := api.EncodeStruct(draft)
	if err != nil {
		return nil, err
	}

	callCtx, cancel := c.callContext(ctx)
	defer cancel()

	resp, err := call(callCtx, req)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return decode[api.AlarmView](resp)
}

// callContext returns a context with the client's call timeout if configured,
// otherwise a cancellable child context without a deadline. The actor, when
// known, is attached as outgoing metadata.
func (c *Client) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.actor != nil {
		ctx = metadata.AppendToOutgoingContext(ctx, ActorMetadataKey, c.actor.String())
	}

	if c.callTimeout <= 0 {
		return context.WithCancel(ctx)
	}

	return context.WithTimeout(ctx, c.callTimeout)
}

// decode converts a Struct response into T.
func decode[T any](resp *structpb.Struct) (*T, error) {
	result := new(T)
	if err := api.DecodeStruct(resp, result); err != nil {
		return nil, err
	}

	return result, nil
}
