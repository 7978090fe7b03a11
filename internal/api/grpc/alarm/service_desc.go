package alarm

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// ServiceName is the fully-qualified gRPC service name.
const ServiceName = "commutealarm.v1.AlarmService"

// Full method names.
const (
	MethodListAlarms          = "/" + ServiceName + "/ListAlarms"
	MethodGetAlarm            = "/" + ServiceName + "/GetAlarm"
	MethodCreateAlarm         = "/" + ServiceName + "/CreateAlarm"
	MethodUpdateAlarm         = "/" + ServiceName + "/UpdateAlarm"
	MethodDeleteAlarm         = "/" + ServiceName + "/DeleteAlarm"
	MethodSetAlarmEnabled     = "/" + ServiceName + "/SetAlarmEnabled"
	MethodTriggerAlarm        = "/" + ServiceName + "/TriggerAlarm"
	MethodGetLineStatuses     = "/" + ServiceName + "/GetLineStatuses"
	MethodRefreshLineStatuses = "/" + ServiceName + "/RefreshLineStatuses"
)

// AlarmServiceServer is the server API of the alarm service.
// Structured payloads travel as google.protobuf.Struct documents.
type AlarmServiceServer interface {
	ListAlarms(ctx context.Context, req *emptypb.Empty) (*structpb.Struct, error)
	GetAlarm(ctx context.Context, req *wrapperspb.StringValue) (*structpb.Struct, error)
	CreateAlarm(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	UpdateAlarm(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	DeleteAlarm(ctx context.Context, req *wrapperspb.StringValue) (*emptypb.Empty, error)
	SetAlarmEnabled(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	TriggerAlarm(ctx context.Context, req *wrapperspb.StringValue) (*structpb.Struct, error)
	GetLineStatuses(ctx context.Context, req *emptypb.Empty) (*structpb.Struct, error)
	RefreshLineStatuses(ctx context.Context, req *emptypb.Empty) (*structpb.Struct, error)
}

// UnimplementedAlarmServiceServer answers every method with codes.Unimplemented.
type UnimplementedAlarmServiceServer struct{}

func (UnimplementedAlarmServiceServer) ListAlarms(context.Context, *emptypb.Empty) (*structpb.Struct, error) {
	return nil, status.Error(codes.Unimplemented, "method ListAlarms not implemented")
}

func (UnimplementedAlarmServiceServer) GetAlarm(context.Context, *wrapperspb.StringValue) (*structpb.Struct, error) {
	return nil, status.Error(codes.Unimplemented, "method GetAlarm not implemented")
}

func (UnimplementedAlarmServiceServer) CreateAlarm(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	return nil, status.Error(codes.Unimplemented, "method CreateAlarm not implemented")
}

func (UnimplementedAlarmServiceServer) UpdateAlarm(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	return nil, status.Error(codes.Unimplemented, "method UpdateAlarm not implemented")
}

func (UnimplementedAlarmServiceServer) DeleteAlarm(context.Context, *wrapperspb.StringValue) (*emptypb.Empty, error) {
	return nil, status.Error(codes.Unimplemented, "method DeleteAlarm not implemented")
}

func (UnimplementedAlarmServiceServer) SetAlarmEnabled(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	return nil, status.Error(codes.Unimplemented, "method SetAlarmEnabled not implemented")
}

func (UnimplementedAlarmServiceServer) TriggerAlarm(
	context.Context,
	*wrapperspb.StringValue,
) (*structpb.Struct, error) {
	return nil, status.Error(codes.Unimplemented, "method TriggerAlarm not implemented")
}

func (UnimplementedAlarmServiceServer) GetLineStatuses(context.Context, *emptypb.Empty) (*structpb.Struct, error) {
	return nil, status.Error(codes.Unimplemented, "method GetLineStatuses not implemented")
}

func (UnimplementedAlarmServiceServer) RefreshLineStatuses(
	context.Context,
	*emptypb.Empty,
) (*structpb.Struct, error) {
	return nil, status.Error(codes.Unimplemented, "method RefreshLineStatuses not implemented")
}

// RegisterAlarmServiceServer registers srv with s.
func RegisterAlarmServiceServer(s grpc.ServiceRegistrar, srv AlarmServiceServer) {
	s.RegisterService(&AlarmServiceDesc, srv)
}

// unaryHandler adapts a typed unary method to a grpc.MethodDesc handler.
func unaryHandler[Req any, Resp any](
	fullMethod string,
	call func(srv AlarmServiceServer, ctx context.Context, req *Req) (*Resp, error),
) grpc.MethodHandler {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(Req)
		if err := dec(in); err != nil {
			return nil, err
		}

		if interceptor == nil {
			return call(srv.(AlarmServiceServer), ctx, in) //nolint:forcetypeassert // Registered with this type.
		}

		info := &grpc.UnaryServerInfo{
			Server:     srv,
			FullMethod: fullMethod,
		}

		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(AlarmServiceServer), ctx, req.(*Req)) //nolint:forcetypeassert // Decoded above.
		}

		return interceptor(ctx, in, info, handler)
	}
}

// AlarmServiceDesc describes the alarm service for grpc.Server.RegisterService.
//
//nolint:gochecknoglobals // Service descriptors are package-level by convention.
var AlarmServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*AlarmServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "ListAlarms",
			Handler:    unaryHandler(MethodListAlarms, AlarmServiceServer.ListAlarms),
		},
		{
			MethodName: "GetAlarm",
			Handler:    unaryHandler(MethodGetAlarm, AlarmServiceServer.GetAlarm),
		},
		{
			MethodName: "CreateAlarm",
			Handler:    unaryHandler(MethodCreateAlarm, AlarmServiceServer.CreateAlarm),
		},
		{
			MethodName: "UpdateAlarm",
			Handler:    unaryHandler(MethodUpdateAlarm, AlarmServiceServer.UpdateAlarm),
		},
		{
			MethodName: "DeleteAlarm",
			Handler:    unaryHandler(MethodDeleteAlarm, AlarmServiceServer.DeleteAlarm),
		},
		{
			MethodName: "SetAlarmEnabled",
			Handler:    unaryHandler(MethodSetAlarmEnabled, AlarmServiceServer.SetAlarmEnabled),
		},
		{
			MethodName: "TriggerAlarm",
			Handler:    unaryHandler(MethodTriggerAlarm, AlarmServiceServer.TriggerAlarm),
		},
		{
			MethodName: "GetLineStatuses",
			Handler:    unaryHandler(MethodGetLineStatuses, AlarmServiceServer.GetLineStatuses),
		},
		{
			MethodName: "RefreshLineStatuses",
			Handler:    unaryHandler(MethodRefreshLineStatuses, AlarmServiceServer.RefreshLineStatuses),
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "commutealarm/v1/alarm.proto",
}

// AlarmServiceClient is the client API of the alarm service.
type AlarmServiceClient interface {
	ListAlarms(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*structpb.Struct, error)
	GetAlarm(ctx context.Context, in *wrapperspb.StringValue, opts ...grpc.CallOption) (*structpb.Struct, error)
	CreateAlarm(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
	UpdateAlarm(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
	DeleteAlarm(ctx context.Context, in *wrapperspb.StringValue, opts ...grpc.CallOption) (*emptypb.Empty, error)
	SetAlarmEnabled(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
	TriggerAlarm(ctx context.Context, in *wrapperspb.StringValue, opts ...grpc.CallOption) (*structpb.Struct, error)
	GetLineStatuses(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*structpb.Struct, error)
	RefreshLineStatuses(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*structpb.Struct, error)
}

type alarmServiceClient struct {
	cc grpc.ClientConnInterface
}

// NewAlarmServiceClient returns a client over cc.
func NewAlarmServiceClient(cc grpc.ClientConnInterface) AlarmServiceClient {
	return &alarmServiceClient{cc: cc}
}

// invoke performs one unary call into a fresh response message.
func invoke[Resp any](ctx context.Context, cc grpc.ClientConnInterface, method string, in any, opts []grpc.CallOption) (*Resp, error) {
	out := new(Resp)
	if err := cc.Invoke(ctx, method, in, out, opts...); err != nil {
		return nil, err
	}

	return out, nil
}

func (c *alarmServiceClient) ListAlarms(
	ctx context.Context,
	in *emptypb.Empty,
	opts ...grpc.CallOption,
) (*structpb.Struct, error) {
	return invoke[structpb.Struct](ctx, c.cc, MethodListAlarms, in, opts)
}

func (c *alarmServiceClient) GetAlarm(
	ctx context.Context,
	in *wrapperspb.StringValue,
	opts ...grpc.CallOption,
) (*structpb.Struct, error) {
	return invoke[structpb.Struct](ctx, c.cc, MethodGetAlarm, in, opts)
}

func (c *alarmServiceClient) CreateAlarm(
	ctx context.Context,
	in *structpb.Struct,
	opts ...grpc.CallOption,
) (*structpb.Struct, error) {
	return invoke[structpb.Struct](ctx, c.cc, MethodCreateAlarm, in, opts)
}

func (c *alarmServiceClient) UpdateAlarm(
	ctx context.Context,
	in *structpb.Struct,
	opts ...grpc.CallOption,
) (*structpb.Struct, error) {
	return invoke[structpb.Struct](ctx, c.cc, MethodUpdateAlarm, in, opts)
}

func (c *alarmServiceClient) DeleteAlarm(
	ctx context.Context,
	in *wrapperspb.StringValue,
	opts ...grpc.CallOption,
) (*emptypb.Empty, error) {
	return invoke[emptypb.Empty](ctx, c.cc, MethodDeleteAlarm, in, opts)
}

func (c *alarmServiceClient) SetAlarmEnabled(
	ctx context.Context,
	in *structpb.Struct,
	opts ...grpc.CallOption,
) (*structpb.Struct, error) {
	return invoke[structpb.Struct](ctx, c.cc, MethodSetAlarmEnabled, in, opts)
}

func (c *alarmServiceClient) TriggerAlarm(
	ctx context.Context,
	in *wrapperspb.StringValue,
	opts ...grpc.CallOption,
) (*structpb.Struct, error) {
	return invoke[structpb.Struct](ctx, c.cc, MethodTriggerAlarm, in, opts)
}

func (c *alarmServiceClient) GetLineStatuses(
	ctx context.Context,
	in *emptypb.Empty,
	opts ...grpc.CallOption,
) (*structpb.Struct, error) {
	return invoke[structpb.Struct](ctx, c.cc, MethodGetLineStatuses, in, opts)
}

func (c *alarmServiceClient) RefreshLineStatuses(
	ctx context.Context,
	in *emptypb.Empty,
	opts ...grpc.CallOption,
) (*structpb.Struct, error) {
	return invoke[structpb.Struct](ctx, c.cc, MethodRefreshLineStatuses, in, opts)
}
