package grpc

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"sync"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/mr1hm/crisis-alerts/internal/alerting"
	"github.com/mr1hm/crisis-alerts/internal/feed"
	"github.com/mr1hm/crisis-alerts/internal/models"
)

type Server struct {
	svc        *alerting.Service
	grpcServer *grpc.Server
	done       chan struct{}
	stopOnce   sync.Once
}

func NewServer(svc *alerting.Service) *Server {
	s := &Server{
		svc:        svc,
		grpcServer: grpc.NewServer(grpc.ForceServerCodec(Codec)),
		done:       make(chan struct{}),
	}
	RegisterAlertServiceServer(s.grpcServer, s)
	return s
}

func (s *Server) Start(addr string) error {
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return s.Serve(lis)
}

func (s *Server) Serve(lis net.Listener) error {
	slog.Info("gRPC server listening", "addr", lis.Addr().String())
	return s.grpcServer.Serve(lis)
}

// Stop ends open watch streams, then waits for in-flight calls.
func (s *Server) Stop() {
	s.stopOnce.Do(func() {
		close(s.done)
		s.grpcServer.GracefulStop()
	})
}

func (s *Server) Subscribe(ctx context.Context, req *SubscribeRequest) (*models.SubscriptionReceipt, error) {
	receipt, err := s.svc.Subscriptions.Subscribe(ctx, req.PhoneNumber, models.Preferences{Area: req.Area})
	if err != nil {
		return nil, toStatus(err)
	}
	return receipt, nil
}

func (s *Server) Unsubscribe(ctx context.Context, req *UnsubscribeRequest) (*models.UnsubscribeResult, error) {
	if req.PhoneNumber == "" {
		return nil, status.Error(codes.InvalidArgument, "phoneNumber is required")
	}
	res, err := s.svc.Subscriptions.Unsubscribe(ctx, req.PhoneNumber)
	if err != nil {
		return nil, toStatus(err)
	}
	return res, nil
}

func (s *Server) ListSubscribers(ctx context.Context, _ *ListSubscribersRequest) (*ListSubscribersResponse, error) {
	subs, err := s.svc.Subscriptions.List(ctx)
	if err != nil {
		return nil, toStatus(err)
	}
	return &ListSubscribersResponse{Subscribers: subs}, nil
}

func (s *Server) SendAlert(ctx context.Context, req *SendAlertRequest) (*models.Receipt, error) {
	if req.Alert.Location == "" || req.Alert.Description == "" {
		return nil, status.Error(codes.InvalidArgument, "alert location and description are required")
	}
	receipt, err := s.svc.Alerts.Send(ctx, req.Alert)
	if err != nil {
		return nil, toStatus(err)
	}
	return receipt, nil
}

func (s *Server) ListAlerts(ctx context.Context, _ *ListAlertsRequest) (*ListAlertsResponse, error) {
	alerts, err := s.svc.Alerts.List(ctx)
	if err != nil {
		return nil, toStatus(err)
	}
	return &ListAlertsResponse{Alerts: alerts}, nil
}

func (s *Server) WatchAlerts(_ *WatchRequest, stream grpc.ServerStreamingServer[AlertSnapshot]) error {
	return watch(stream.Context(), s.done, "alerts", s.svc.Alerts.Feed(), func(alerts []models.Alert) error {
		return stream.Send(&AlertSnapshot{Alerts: alerts})
	})
}

func (s *Server) WatchSubscribers(_ *WatchRequest, stream grpc.ServerStreamingServer[SubscriberSnapshot]) error {
	return watch(stream.Context(), s.done, "subscribers", s.svc.Subscriptions.Feed(), func(subs []models.Subscriber) error {
		return stream.Send(&SubscriberSnapshot{Subscribers: subs})
	})
}

func watch[T any](ctx context.Context, done <-chan struct{}, name string, pub *feed.Publisher[T], send func([]T) error) error {
	ch, detach, err := pub.Watch(ctx)
	if err != nil {
		return status.Errorf(codes.Internal, "failed to load %s: %v", name, err)
	}
	defer detach()

	slog.Info("client subscribed to stream", "stream", name)

	for {
		select {
		case <-ctx.Done():
			slog.Info("client disconnected from stream", "stream", name)
			return nil
		case <-done:
			return nil
		case snapshot := <-ch:
			if err := send(snapshot); err != nil {
				slog.Error("failed to send snapshot", "stream", name, "error", err)
				return err
			}
		}
	}
}

func toStatus(err error) error {
	var (
		ve *alerting.ValidationError
		pe *alerting.PersistenceError
	)
	switch {
	case errors.As(err, &ve):
		return status.Error(codes.InvalidArgument, ve.Error())
	case errors.As(err, &pe):
		return status.Errorf(codes.Internal, "failed to %s: %v", pe.Op, pe.Err)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return status.FromContextError(err).Err()
	default:
		return status.Error(codes.Internal, err.Error())
	}
}
