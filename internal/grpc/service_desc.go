package grpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

const ServiceName = "perception.v1.MarketPerception"

const (
	submitFeedbackMethod     = "/" + ServiceName + "/SubmitFeedback"
	moderateFeedbackMethod   = "/" + ServiceName + "/ModerateFeedback"
	getSubjectReportMethod   = "/" + ServiceName + "/GetSubjectReport"
	getSubjectExcerptsMethod = "/" + ServiceName + "/GetSubjectExcerpts"
)

// MarketPerceptionServer is the server API. Messages are protobuf well-known types.
type MarketPerceptionServer interface {
	SubmitFeedback(context.Context, *structpb.Struct) (*wrapperspb.StringValue, error)
	ModerateFeedback(context.Context, *structpb.Struct) (*emptypb.Empty, error)
	GetSubjectReport(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetSubjectExcerpts(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

func RegisterMarketPerceptionServer(s grpc.ServiceRegistrar, srv MarketPerceptionServer) {
	s.RegisterService(&MarketPerceptionServiceDesc, srv)
}

var MarketPerceptionServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*MarketPerceptionServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "SubmitFeedback", Handler: submitFeedbackHandler},
		{MethodName: "ModerateFeedback", Handler: moderateFeedbackHandler},
		{MethodName: "GetSubjectReport", Handler: getSubjectReportHandler},
		{MethodName: "GetSubjectExcerpts", Handler: getSubjectExcerptsHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "perception/v1/perception.proto",
}

func submitFeedbackHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(MarketPerceptionServer).SubmitFeedback(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: submitFeedbackMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(MarketPerceptionServer).SubmitFeedback(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

func moderateFeedbackHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(MarketPerceptionServer).ModerateFeedback(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: moderateFeedbackMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(MarketPerceptionServer).ModerateFeedback(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

func getSubjectReportHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(MarketPerceptionServer).GetSubjectReport(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: getSubjectReportMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(MarketPerceptionServer).GetSubjectReport(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

func getSubjectExcerptsHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(MarketPerceptionServer).GetSubjectExcerpts(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: getSubjectExcerptsMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(MarketPerceptionServer).GetSubjectExcerpts(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

// MarketPerceptionClient calls the service over a client connection.
type MarketPerceptionClient struct {
	cc grpc.ClientConnInterface
}

func NewMarketPerceptionClient(cc grpc.ClientConnInterface) *MarketPerceptionClient {
	return &MarketPerceptionClient{cc: cc}
}

func (c *MarketPerceptionClient) SubmitFeedback(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*wrapperspb.StringValue, error) {
	out := new(wrapperspb.StringValue)
	if err := c.cc.Invoke(ctx, submitFeedbackMethod, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *MarketPerceptionClient) ModerateFeedback(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*emptypb.Empty, error) {
	out := new(emptypb.Empty)
	if err := c.cc.Invoke(ctx, moderateFeedbackMethod, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *MarketPerceptionClient) GetSubjectReport(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, getSubjectReportMethod, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *MarketPerceptionClient) GetSubjectExcerpts(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, getSubjectExcerptsMethod, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
