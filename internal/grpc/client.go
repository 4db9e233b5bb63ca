package grpc

import (
	"context"

	"google.golang.org/grpc"

	"github.com/mr1hm/crisis-alerts/internal/models"
)

// Client calls AlertService over any connection, forcing the JSON codec.
type Client struct {
	cc grpc.ClientConnInterface
}

func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

func callOptions(opts []grpc.CallOption) []grpc.CallOption {
	return append([]grpc.CallOption{grpc.ForceCodec(Codec)}, opts...)
}

func (c *Client) Subscribe(ctx context.Context, in *SubscribeRequest, opts ...grpc.CallOption) (*models.SubscriptionReceipt, error) {
	out := new(models.SubscriptionReceipt)
	if err := c.cc.Invoke(ctx, subscribeMethod, in, out, callOptions(opts)...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) Unsubscribe(ctx context.Context, in *UnsubscribeRequest, opts ...grpc.CallOption) (*models.UnsubscribeResult, error) {
	out := new(models.UnsubscribeResult)
	if err := c.cc.Invoke(ctx, unsubscribeMethod, in, out, callOptions(opts)...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) ListSubscribers(ctx context.Context, in *ListSubscribersRequest, opts ...grpc.CallOption) (*ListSubscribersResponse, error) {
	out := new(ListSubscribersResponse)
	if err := c.cc.Invoke(ctx, listSubscribersMethod, in, out, callOptions(opts)...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) SendAlert(ctx context.Context, in *SendAlertRequest, opts ...grpc.CallOption) (*models.Receipt, error) {
	out := new(models.Receipt)
	if err := c.cc.Invoke(ctx, sendAlertMethod, in, out, callOptions(opts)...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) ListAlerts(ctx context.Context, in *ListAlertsRequest, opts ...grpc.CallOption) (*ListAlertsResponse, error) {
	out := new(ListAlertsResponse)
	if err := c.cc.Invoke(ctx, listAlertsMethod, in, out, callOptions(opts)...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) WatchAlerts(ctx context.Context, in *WatchRequest, opts ...grpc.CallOption) (grpc.ServerStreamingClient[AlertSnapshot], error) {
	stream, err := c.cc.NewStream(ctx, &ServiceDesc.Streams[0], watchAlertsMethod, callOptions(opts)...)
	if err != nil {
		return nil, err
	}
	x := &grpc.GenericClientStream[WatchRequest, AlertSnapshot]{ClientStream: stream}
	if err := x.ClientStream.SendMsg(in); err != nil {
		return nil, err
	}
	if err := x.ClientStream.CloseSend(); err != nil {
		return nil, err
	}
	return x, nil
}

func (c *Client) WatchSubscribers(ctx context.Context, in *WatchRequest, opts ...grpc.CallOption) (grpc.ServerStreamingClient[SubscriberSnapshot], error) {
	stream, err := c.cc.NewStream(ctx, &ServiceDesc.Streams[1], watchSubscribersMethod, callOptions(opts)...)
	if err != nil {
		return nil, err
	}
	x := &grpc.GenericClientStream[WatchRequest, SubscriberSnapshot]{ClientStream: stream}
	if err := x.ClientStream.SendMsg(in); err != nil {
		return nil, err
	}
	if err := x.ClientStream.CloseSend(); err != nil {
		return nil, err
	}
	return x, nil
}
