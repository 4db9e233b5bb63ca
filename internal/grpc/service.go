package grpc

import (
	"context"

	"google.golang.org/grpc"

	"github.com/mr1hm/crisis-alerts/internal/models"
)

const ServiceName = "crisisalerts.v1.AlertService"

const (
	subscribeMethod        = "/" + ServiceName + "/Subscribe"
	unsubscribeMethod      = "/" + ServiceName + "/Unsubscribe"
	listSubscribersMethod  = "/" + ServiceName + "/ListSubscribers"
	sendAlertMethod        = "/" + ServiceName + "/SendAlert"
	listAlertsMethod       = "/" + ServiceName + "/ListAlerts"
	watchAlertsMethod      = "/" + ServiceName + "/WatchAlerts"
	watchSubscribersMethod = "/" + ServiceName + "/WatchSubscribers"
)

type SubscribeRequest struct {
	PhoneNumber string `json:"phoneNumber"`
	Area        string `json:"area,omitempty"`
}

type UnsubscribeRequest struct {
	PhoneNumber string `json:"phoneNumber"`
}

type ListSubscribersRequest struct{}

type ListSubscribersResponse struct {
	Subscribers []models.Subscriber `json:"subscribers"`
}

type SendAlertRequest struct {
	Alert models.AlertInput `json:"alert"`
}

type ListAlertsRequest struct{}

type ListAlertsResponse struct {
	Alerts []models.Alert `json:"alerts"`
}

type WatchRequest struct{}

// AlertSnapshot is the full alert history at one point in time.
type AlertSnapshot struct {
	Alerts []models.Alert `json:"alerts"`
}

// SubscriberSnapshot is the full subscriber list at one point in time.
type SubscriberSnapshot struct {
	Subscribers []models.Subscriber `json:"subscribers"`
}

type AlertServiceServer interface {
	Subscribe(context.Context, *SubscribeRequest) (*models.SubscriptionReceipt, error)
	Unsubscribe(context.Context, *UnsubscribeRequest) (*models.UnsubscribeResult, error)
	ListSubscribers(context.Context, *ListSubscribersRequest) (*ListSubscribersResponse, error)
	SendAlert(context.Context, *SendAlertRequest) (*models.Receipt, error)
	ListAlerts(context.Context, *ListAlertsRequest) (*ListAlertsResponse, error)
	WatchAlerts(*WatchRequest, grpc.ServerStreamingServer[AlertSnapshot]) error
	WatchSubscribers(*WatchRequest, grpc.ServerStreamingServer[SubscriberSnapshot]) error
}

var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*AlertServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Subscribe", Handler: unaryHandler(subscribeMethod, AlertServiceServer.Subscribe)},
		{MethodName: "Unsubscribe", Handler: unaryHandler(unsubscribeMethod, AlertServiceServer.Unsubscribe)},
		{MethodName: "ListSubscribers", Handler: unaryHandler(listSubscribersMethod, AlertServiceServer.ListSubscribers)},
		{MethodName: "SendAlert", Handler: unaryHandler(sendAlertMethod, AlertServiceServer.SendAlert)},
		{MethodName: "ListAlerts", Handler: unaryHandler(listAlertsMethod, AlertServiceServer.ListAlerts)},
	},
	Streams: []grpc.StreamDesc{
		{StreamName: "WatchAlerts", Handler: watchAlertsHandler, ServerStreams: true},
		{StreamName: "WatchSubscribers", Handler: watchSubscribersHandler, ServerStreams: true},
	},
	Metadata: "crisisalerts/v1/alerts.json",
}

func RegisterAlertServiceServer(s grpc.ServiceRegistrar, srv AlertServiceServer) {
	s.RegisterService(&ServiceDesc, srv)
}

func unaryHandler[Req, Resp any](fullMethod string, call func(AlertServiceServer, context.Context, *Req) (*Resp, error)) func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(Req)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(AlertServiceServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(AlertServiceServer), ctx, req.(*Req))
		}
		return interceptor(ctx, in, info, handler)
	}
}

func watchAlertsHandler(srv any, stream grpc.ServerStream) error {
	m := new(WatchRequest)
	if err := stream.RecvMsg(m); err != nil {
		return err
	}
	return srv.(AlertServiceServer).WatchAlerts(m, &grpc.GenericServerStream[WatchRequest, AlertSnapshot]{ServerStream: stream})
}

func watchSubscribersHandler(srv any, stream grpc.ServerStream) error {
	m := new(WatchRequest)
	if err := stream.RecvMsg(m); err != nil {
		return err
	}
	return srv.(AlertServiceServer).WatchSubscribers(m, &grpc.GenericServerStream[WatchRequest, SubscriberSnapshot]{ServerStream: stream})
}
