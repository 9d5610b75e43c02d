package dex

import "context"

// LocalClient adapts Service to the client surface for deployments
// where the orchestrator runs in the same process as the proxy.
type LocalClient struct {
	service *Service
}

func NewLocalClient(service *Service) *LocalClient {
	return &LocalClient{service: service}
}

func (l *LocalClient) GetApprovalData(ctx context.Context, tokenAddress, amount string) (*CallData, error) {
	return l.service.ResolveApprovalCall(ctx, tokenAddress, amount)
}

func (l *LocalClient) GetSwapData(ctx context.Context, req SwapRequest) (*SwapCallResult, error) {
	return l.service.ResolveSwapCall(ctx, req)
}
