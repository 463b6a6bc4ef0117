package inventory

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"ecommerce/pkg/domain/model"
)

// Server exposes the stock ledger to internal callers.
type Server struct {
	catalog model.Catalog
	ledger  model.StockLedger
}

var _ InventoryServer = (*Server)(nil)

func NewServer(catalog model.Catalog, ledger model.StockLedger) *Server {
	return &Server{catalog: catalog, ledger: ledger}
}

// NewGRPCServer returns a gRPC server with the inventory and health
// services registered.
func NewGRPCServer(srv InventoryServer) (*grpc.Server, *health.Server) {
	server := grpc.NewServer(grpc.ChainUnaryInterceptor(logInterceptor))
	RegisterInventoryServer(server, srv)

	healthServer := health.NewServer()
	healthServer.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_SERVING)
	healthpb.RegisterHealthServer(server, healthServer)
	return server, healthServer
}

func (s *Server) GetStock(ctx context.Context, productID *wrapperspb.StringValue) (*wrapperspb.Int64Value, error) {
	id, err := uuid.Parse(productID.GetValue())
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, "invalid product id")
	}
	item, err := s.catalog.Get(ctx, id)
	if err != nil {
		return nil, toStatus(err)
	}
	return wrapperspb.Int64(int64(item.Stock)), nil
}

func (s *Server) Reserve(ctx context.Context, line *structpb.Struct) (*emptypb.Empty, error) {
	id, quantity, err := parseLine(line)
	if err != nil {
		return nil, err
	}
	if err := s.ledger.Reserve(ctx, id, quantity); err != nil {
		return nil, toStatus(err)
	}
	return &emptypb.Empty{}, nil
}

func (s *Server) Release(ctx context.Context, line *structpb.Struct) (*emptypb.Empty, error) {
	id, quantity, err := parseLine(line)
	if err != nil {
		return nil, err
	}
	if err := s.ledger.Release(ctx, id, quantity); err != nil {
		return nil, toStatus(err)
	}
	return &emptypb.Empty{}, nil
}

func parseLine(line *structpb.Struct) (uuid.UUID, int, error) {
	fields := line.GetFields()
	id, err := uuid.Parse(fields["productId"].GetStringValue())
	if err != nil {
		return uuid.Nil, 0, status.Error(codes.InvalidArgument, "invalid product id")
	}
	quantity := fields["quantity"].GetNumberValue()
	if quantity < 1 || quantity != math.Trunc(quantity) || quantity > math.MaxInt32 {
		return uuid.Nil, 0, status.Error(codes.InvalidArgument, model.ErrInvalidQuantity.Error())
	}
	return id, int(quantity), nil
}

func toStatus(err error) error {
	switch {
	case errors.Is(err, model.ErrNotFound):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, model.ErrConflict):
		return status.Error(codes.FailedPrecondition, err.Error())
	case errors.Is(err, model.ErrValidation):
		return status.Error(codes.InvalidArgument, err.Error())
	}
	log.WithError(err).Error("inventory call failed")
	return status.Error(codes.Internal, "internal error")
}

func logInterceptor(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
	start := time.Now()
	resp, err := handler(ctx, req)
	log.WithFields(log.Fields{
		"method":   info.FullMethod,
		"code":     status.Code(err).String(),
		"duration": time.Since(start).String(),
	}).Info("got a new rpc")
	return resp, err
}
