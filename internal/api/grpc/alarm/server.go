package alarm

import (
	"context"
	"errors"
	"time"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	domain "github.com/oshokin/commute-alarm/internal/domain/alarm"
	"github.com/oshokin/commute-alarm/internal/domain/line"
	"github.com/oshokin/commute-alarm/internal/logger"
	"github.com/oshokin/commute-alarm/internal/notify"
	"github.com/oshokin/commute-alarm/internal/repository/alarms"
	alarmsvc "github.com/oshokin/commute-alarm/internal/service/alarms"
)

// AlarmService abstracts the alarm management operations the transport depends on.
type AlarmService interface {
	List(ctx context.Context) ([]*domain.Alarm, error)
	Get(ctx context.Context, id string) (*domain.Alarm, error)
	Create(ctx context.Context, draft alarmsvc.Draft) (*domain.Alarm, error)
	Update(ctx context.Context, id string, draft alarmsvc.Draft) (*domain.Alarm, error)
	Delete(ctx context.Context, id string) error
	SetEnabled(ctx context.Context, id string, enabled bool) (*domain.Alarm, error)
	CanCreateMore(ctx context.Context) (bool, error)
	NextTrigger(a *domain.Alarm) (time.Time, bool)
}

// Previewer runs a manual dispatch of a stored alarm.
type Previewer interface {
	Preview(ctx context.Context, id string) (notify.Request, error)
}

// LineStatuses exposes the line status repository.
type LineStatuses interface {
	Statuses(ctx context.Context) <-chan line.Result
	Cached(ctx context.Context) ([]line.Cached, error)
	LastUpdateTime(ctx context.Context) (time.Time, bool)
}

// Server implements the AlarmService gRPC API.
type Server struct {
	UnimplementedAlarmServiceServer

	// alarms provides alarm management.
	alarms AlarmService
	// previewer runs manual triggers.
	previewer Previewer
	// lines provides line statuses.
	lines LineStatuses
}

// NewServer wires the provided services into a gRPC handler.
func NewServer(alarms AlarmService, previewer Previewer, lines LineStatuses) *Server {
	return &Server{
		alarms:    alarms,
		previewer: previewer,
		lines:     lines,
	}
}

// ListAlarms returns every alarm ordered by time of day.
func (s *Server) ListAlarms(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	all, err := s.alarms.List(ctx)
	if err != nil {
		return nil, toStatus(ctx, err)
	}

	canCreate, err := s.alarms.CanCreateMore(ctx)
	if err != nil {
		return nil, toStatus(ctx, err)
	}

	list := AlarmList{
		Alarms:        make([]AlarmView, 0, len(all)),
		CanCreateMore: canCreate,
	}

	for _, a := range all {
		list.Alarms = append(list.Alarms, s.view(a))
	}

	return encode(ctx, list)
}

// GetAlarm returns one alarm.
func (s *Server) GetAlarm(ctx context.Context, req *wrapperspb.StringValue) (*structpb.Struct, error) {
	if req.GetValue() == "" {
		return nil, status.Error(codes.InvalidArgument, "alarm id is required")
	}

	a, err := s.alarms.Get(ctx, req.GetValue())
	if err != nil {
		return nil, toStatus(ctx, err)
	}

	return encode(ctx, s.view(a))
}

// CreateAlarm stores and schedules a new alarm.
func (s *Server) CreateAlarm(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	draft, _, err := decodeDraft(req)
	if err != nil {
		return nil, err
	}

	a, err := s.alarms.Create(ctx, draft)
	if err != nil {
		return nil, toStatus(ctx, err)
	}

	return encode(ctx, s.view(a))
}

// UpdateAlarm replaces the editable fields of an alarm.
func (s *Server) UpdateAlarm(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	draft, id, err := decodeDraft(req)
	if err != nil {
		return nil, err
	}

	if id == "" {
		return nil, status.Error(codes.InvalidArgument, "alarm id is required")
	}

	a, err := s.alarms.Update(ctx, id, draft)
	if err != nil {
		return nil, toStatus(ctx, err)
	}

	return encode(ctx, s.view(a))
}

// DeleteAlarm cancels and removes an alarm.
func (s *Server) DeleteAlarm(ctx context.Context, req *wrapperspb.StringValue) (*emptypb.Empty, error) {
	if req.GetValue() == "" {
		return nil, status.Error(codes.InvalidArgument, "alarm id is required")
	}

	if err := s.alarms.Delete(ctx, req.GetValue()); err != nil {
		return nil, toStatus(ctx, err)
	}

	return new(emptypb.Empty), nil
}

// SetAlarmEnabled enables or disables an alarm.
func (s *Server) SetAlarmEnabled(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	var request EnabledRequest
	if err := DecodeStruct(req, &request); err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	if request.ID == "" {
		return nil, status.Error(codes.InvalidArgument, "alarm id is required")
	}

	a, err := s.alarms.SetEnabled(ctx, request.ID, request.Enabled)
	if err != nil {
		return nil, toStatus(ctx, err)
	}

	return encode(ctx, s.view(a))
}

// TriggerAlarm presents the notification an alarm would produce right now.
func (s *Server) TriggerAlarm(ctx context.Context, req *wrapperspb.StringValue) (*structpb.Struct, error) {
	if req.GetValue() == "" {
		return nil, status.Error(codes.InvalidArgument, "alarm id is required")
	}

	presented, err := s.previewer.Preview(ctx, req.GetValue())
	if err != nil {
		return nil, toStatus(ctx, err)
	}

	return encode(ctx, presented)
}

// GetLineStatuses returns the cached snapshot without touching the network.
func (s *Server) GetLineStatuses(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	cached, err := s.lines.Cached(ctx)
	if err != nil {
		return nil, toStatus(ctx, err)
	}

	snapshot := LineSnapshot{Lines: cached}
	if updated, ok := s.lines.LastUpdateTime(ctx); ok {
		snapshot.LastUpdated = &updated
	}

	return encode(ctx, snapshot)
}

// RefreshLineStatuses runs one fetch and returns its final result.
func (s *Server) RefreshLineStatuses(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	last := line.Loading()

	for r := range s.lines.Statuses(ctx) {
		last = r
	}

	return encode(ctx, ToSyncResult(last))
}

// view converts an alarm to its wire form.
func (s *Server) view(a *domain.Alarm) AlarmView {
	v := AlarmView{
		ID:          a.ID,
		Time:        a.Time.String(),
		Days:        a.Days,
		Lines:       a.Lines,
		Enabled:     a.Enabled,
		DisplayTime: a.DisplayTime(),
		DisplayDays: a.DisplayDays(),
		CreatedAt:   a.CreatedAt,
		ModifiedAt:  a.ModifiedAt,
	}

	if next, ok := s.alarms.NextTrigger(a); ok {
		v.NextTrigger = &next
	}

	return v
}

// decodeDraft converts a draft request and returns the id it carries.
func decodeDraft(req *structpb.Struct) (alarmsvc.Draft, string, error) {
	var wire AlarmDraft
	if err := DecodeStruct(req, &wire); err != nil {
		return alarmsvc.Draft{}, "", status.Error(codes.InvalidArgument, err.Error())
	}

	at, err := domain.ParseTimeOfDay(wire.Time)
	if err != nil {
		return alarmsvc.Draft{}, "", status.Error(codes.InvalidArgument, err.Error())
	}

	enabled := wire.Enabled == nil || *wire.Enabled

	return alarmsvc.Draft{
		Time:    at,
		Days:    wire.Days,
		Lines:   wire.Lines,
		Enabled: enabled,
	}, wire.ID, nil
}

// encode converts a response payload, mapping failures to codes.Internal.
func encode(ctx context.Context, v any) (*structpb.Struct, error) {
	result, err := EncodeStruct(v)
	if err != nil {
		return nil, toStatus(ctx, err)
	}

	return result, nil
}

// toStatus maps domain errors to gRPC status codes.
func toStatus(ctx context.Context, err error) error {
	switch {
	case errors.Is(err, domain.ErrNoLines),
		errors.Is(err, domain.ErrInvalidTime),
		errors.Is(err, domain.ErrInvalidID):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, alarms.ErrNotFound):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, alarms.ErrLimitReached):
		return status.Error(codes.ResourceExhausted, err.Error())
	case errors.Is(err, alarms.ErrAlreadyExists):
		return status.Error(codes.AlreadyExists, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, err.Error())
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, err.Error())
	}

	logger.ErrorKV(logger.WithName(ctx, "grpc"), "Request failed", "error", err)

	return status.Error(codes.Internal, "internal error")
}
