package handler

import (
	"context"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/rl1809/stock-sync/internal/core/domain"
)

type GRPCHandler struct {
	sync SyncService
}

var _ SyncServiceServer = (*GRPCHandler)(nil)

func NewGRPCHandler(sync SyncService) *GRPCHandler {
	return &GRPCHandler{sync: sync}
}

// RunSync returns the cycle report for every terminal status, skipped
// included. Callers inspect Report.Status.
func (h *GRPCHandler) RunSync(ctx context.Context, _ *RunSyncRequest) (*RunSyncResponse, error) {
	return &RunSyncResponse{Report: h.sync.RunSync(ctx)}, nil
}

func (h *GRPCHandler) GetStatus(ctx context.Context, _ *GetStatusRequest) (*GetStatusResponse, error) {
	return &GetStatusResponse{Status: h.sync.GetStatus()}, nil
}

func (h *GRPCHandler) ListPendingConflicts(ctx context.Context, _ *ListPendingConflictsRequest) (*ListPendingConflictsResponse, error) {
	return &ListPendingConflictsResponse{Conflicts: h.sync.GetPendingConflicts()}, nil
}

func (h *GRPCHandler) ResolveConflict(ctx context.Context, req *ResolveConflictRequest) (*ResolveConflictResponse, error) {
	if req.SKU == "" {
		return nil, status.Error(codes.InvalidArgument, "sku is required")
	}
	if _, err := domain.ParseDecision(req.Decision); err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	if !h.sync.ResolvePendingConflict(ctx, req.SKU, req.Decision) {
		return &ResolveConflictResponse{
			Success: false,
			Message: "no pending conflict for sku or push failed",
		}, nil
	}

	return &ResolveConflictResponse{
		Success: true,
		Message: "conflict resolved",
	}, nil
}
