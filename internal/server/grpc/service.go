package grpc

import (
	"context"

	"google.golang.org/grpc"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "attendance.v1.AttendanceService"

// AttendanceServiceServer is the server API of the attendance service.
type AttendanceServiceServer interface {
	CreateSession(context.Context, *CreateSessionRequest) (*SessionResponse, error)
	ListSessions(context.Context, *ListSessionsRequest) (*ListSessionsResponse, error)
	GetSessionDetail(context.Context, *SessionRequest) (*SessionDetailResponse, error)
	SubmitScan(context.Context, *SubmitScanRequest) (*ScanResponse, error)
	ResolveTwin(context.Context, *ResolveTwinRequest) (*ScanResponse, error)
	CancelTwin(context.Context, *SessionRequest) (*CancelTwinResponse, error)
	ManualMark(context.Context, *ManualMarkRequest) (*MarkResponse, error)
	SubmitSession(context.Context, *SessionRequest) (*SessionResponse, error)
	GetSummary(context.Context, *SessionRequest) (*SummaryResponse, error)
}

func fullMethod(name string) string { return "/" + ServiceName + "/" + name }

// unary adapts a typed server method to grpc.MethodDesc, running the
// chained interceptors the same way generated code does.
func unary[Req, Resp any](name string, call func(AttendanceServiceServer, context.Context, *Req) (*Resp, error)) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(Req)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(AttendanceServiceServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod(name)}
			handler := func(ctx context.Context, req any) (any, error) {
				return call(srv.(AttendanceServiceServer), ctx, req.(*Req))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

// AttendanceServiceDesc describes the service for grpc.Server.RegisterService.
var AttendanceServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*AttendanceServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		unary("CreateSession", AttendanceServiceServer.CreateSession),
		unary("ListSessions", AttendanceServiceServer.ListSessions),
		unary("GetSessionDetail", AttendanceServiceServer.GetSessionDetail),
		unary("SubmitScan", AttendanceServiceServer.SubmitScan),
		unary("ResolveTwin", AttendanceServiceServer.ResolveTwin),
		unary("CancelTwin", AttendanceServiceServer.CancelTwin),
		unary("ManualMark", AttendanceServiceServer.ManualMark),
		unary("SubmitSession", AttendanceServiceServer.SubmitSession),
		unary("GetSummary", AttendanceServiceServer.GetSummary),
	},
	Streams: []grpc.StreamDesc{},
}

// RegisterAttendanceServiceServer registers srv on s.
func RegisterAttendanceServiceServer(s grpc.ServiceRegistrar, srv AttendanceServiceServer) {
	s.RegisterService(&AttendanceServiceDesc, srv)
}

// Client is a typed client for the attendance service. Every call uses
// the JSON codec.
type Client struct {
	cc grpc.ClientConnInterface
}

func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

func invoke[Resp any](ctx context.Context, cc grpc.ClientConnInterface, name string, in any, opts []grpc.CallOption) (*Resp, error) {
	out := new(Resp)
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(codecName)}, opts...)
	if err := cc.Invoke(ctx, fullMethod(name), in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) CreateSession(ctx context.Context, in *CreateSessionRequest, opts ...grpc.CallOption) (*SessionResponse, error) {
	return invoke[SessionResponse](ctx, c.cc, "CreateSession", in, opts)
}

func (c *Client) ListSessions(ctx context.Context, in *ListSessionsRequest, opts ...grpc.CallOption) (*ListSessionsResponse, error) {
	return invoke[ListSessionsResponse](ctx, c.cc, "ListSessions", in, opts)
}

func (c *Client) GetSessionDetail(ctx context.Context, in *SessionRequest, opts ...grpc.CallOption) (*SessionDetailResponse, error) {
	return invoke[SessionDetailResponse](ctx, c.cc, "GetSessionDetail", in, opts)
}

func (c *Client) SubmitScan(ctx context.Context, in *SubmitScanRequest, opts ...grpc.CallOption) (*ScanResponse, error) {
	return invoke[ScanResponse](ctx, c.cc, "SubmitScan", in, opts)
}

func (c *Client) ResolveTwin(ctx context.Context, in *ResolveTwinRequest, opts ...grpc.CallOption) (*ScanResponse, error) {
	return invoke[ScanResponse](ctx, c.cc, "ResolveTwin", in, opts)
}

func (c *Client) CancelTwin(ctx context.Context, in *SessionRequest, opts ...grpc.CallOption) (*CancelTwinResponse, error) {
	return invoke[CancelTwinResponse](ctx, c.cc, "CancelTwin", in, opts)
}

func (c *Client) ManualMark(ctx context.Context, in *ManualMarkRequest, opts ...grpc.CallOption) (*MarkResponse, error) {
	return invoke[MarkResponse](ctx, c.cc, "ManualMark", in, opts)
}

func (c *Client) SubmitSession(ctx context.Context, in *SessionRequest, opts ...grpc.CallOption) (*SessionResponse, error) {
	return invoke[SessionResponse](ctx, c.cc, "SubmitSession", in, opts)
}

func (c *Client) GetSummary(ctx context.Context, in *SessionRequest, opts ...grpc.CallOption) (*SummaryResponse, error) {
	return invoke[SummaryResponse](ctx, c.cc, "GetSummary", in, opts)
}
