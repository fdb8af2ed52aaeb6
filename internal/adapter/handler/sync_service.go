package handler

import (
	"context"

	"google.golang.org/grpc"

	"github.com/rl1809/stock-sync/internal/core/domain"
)

const (
	serviceName                                     = "stocksync.v1.SyncService"
	SyncService_RunSync_FullMethodName              = "/" + serviceName + "/RunSync"
	SyncService_GetStatus_FullMethodName            = "/" + serviceName + "/GetStatus"
	SyncService_ListPendingConflicts_FullMethodName = "/" + serviceName + "/ListPendingConflicts"
	SyncService_ResolveConflict_FullMethodName      = "/" + serviceName + "/ResolveConflict"
)

type RunSyncRequest struct{}

type RunSyncResponse struct {
	Report domain.RunReport `json:"report"`
}

type GetStatusRequest struct{}

type GetStatusResponse struct {
	Status domain.Status `json:"status"`
}

type ListPendingConflictsRequest struct{}

type ListPendingConflictsResponse struct {
	Conflicts []domain.ConflictReport `json:"conflicts"`
}

type ResolveConflictRequest struct {
	SKU      string `json:"sku"`
	Decision string `json:"decision"`
}

type ResolveConflictResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// SyncServiceServer is the server API for the sync service.
type SyncServiceServer interface {
	RunSync(context.Context, *RunSyncRequest) (*RunSyncResponse, error)
	GetStatus(context.Context, *GetStatusRequest) (*GetStatusResponse, error)
	ListPendingConflicts(context.Context, *ListPendingConflictsRequest) (*ListPendingConflictsResponse, error)
	ResolveConflict(context.Context, *ResolveConflictRequest) (*ResolveConflictResponse, error)
}

func RegisterSyncServiceServer(s grpc.ServiceRegistrar, srv SyncServiceServer) {
	s.RegisterService(&SyncService_ServiceDesc, srv)
}

var SyncService_ServiceDesc = grpc.ServiceDesc{
	ServiceName: serviceName,
	HandlerType: (*SyncServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "RunSync", Handler: _SyncService_RunSync_Handler},
		{MethodName: "GetStatus", Handler: _SyncService_GetStatus_Handler},
		{MethodName: "ListPendingConflicts", Handler: _SyncService_ListPendingConflicts_Handler},
		{MethodName: "ResolveConflict", Handler: _SyncService_ResolveConflict_Handler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "stocksync/v1/sync.json",
}

func _SyncService_RunSync_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(RunSyncRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(SyncServiceServer).RunSync(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: SyncService_RunSync_FullMethodName}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(SyncServiceServer).RunSync(ctx, req.(*RunSyncRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _SyncService_GetStatus_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(GetStatusRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(SyncServiceServer).GetStatus(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: SyncService_GetStatus_FullMethodName}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(SyncServiceServer).GetStatus(ctx, req.(*GetStatusRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _SyncService_ListPendingConflicts_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(ListPendingConflictsRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(SyncServiceServer).ListPendingConflicts(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: SyncService_ListPendingConflicts_FullMethodName}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(SyncServiceServer).ListPendingConflicts(ctx, req.(*ListPendingConflictsRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _SyncService_ResolveConflict_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(ResolveConflictRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(SyncServiceServer).ResolveConflict(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: SyncService_ResolveConflict_FullMethodName}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(SyncServiceServer).ResolveConflict(ctx, req.(*ResolveConflictRequest))
	}
	return interceptor(ctx, in, info, handler)
}

// SyncServiceClient calls the sync service using the JSON codec.
type SyncServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewSyncServiceClient(cc grpc.ClientConnInterface) *SyncServiceClient {
	return &SyncServiceClient{cc: cc}
}

func (c *SyncServiceClient) invoke(ctx context.Context, method string, in, out any, opts []grpc.CallOption) error {
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(codecName)}, opts...)
	return c.cc.Invoke(ctx, method, in, out, opts...)
}

func (c *SyncServiceClient) RunSync(ctx context.Context, in *RunSyncRequest, opts ...grpc.CallOption) (*RunSyncResponse, error) {
	out := new(RunSyncResponse)
	if err := c.invoke(ctx, SyncService_RunSync_FullMethodName, in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *SyncServiceClient) GetStatus(ctx context.Context, in *GetStatusRequest, opts ...grpc.CallOption) (*GetStatusResponse, error) {
	out := new(GetStatusResponse)
	if err := c.invoke(ctx, SyncService_GetStatus_FullMethodName, in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *SyncServiceClient) ListPendingConflicts(ctx context.Context, in *ListPendingConflictsRequest, opts ...grpc.CallOption) (*ListPendingConflictsResponse, error) {
	out := new(ListPendingConflictsResponse)
	if err := c.invoke(ctx, SyncService_ListPendingConflicts_FullMethodName, in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *SyncServiceClient) ResolveConflict(ctx context.Context, in *ResolveConflictRequest, opts ...grpc.CallOption) (*ResolveConflictResponse, error) {
	out := new(ResolveConflictResponse)
	if err := c.invoke(ctx, SyncService_ResolveConflict_FullMethodName, in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}
