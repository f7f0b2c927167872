package service

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"strings"

	"connectrpc.com/connect"
	"github.com/mmynk/lunchtab/internal/ingest"
	"github.com/mmynk/lunchtab/internal/ledger"
	"github.com/mmynk/lunchtab/internal/models"
	"github.com/mmynk/lunchtab/internal/rpc"
)

var _ rpc.MenuServiceHandler = (*MenuService)(nil)

// Ingester turns an uploaded photo into a menu.
type Ingester interface {
	Ingest(ctx context.Context, raw []byte) (*ingest.Result, error)
}

// MenuService implements the Connect MenuService.
type MenuService struct {
	engine   *ledger.Engine
	ingester Ingester
	logger   *slog.Logger
}

// NewMenuService creates a MenuService. ingester may be nil, in which case
// IngestMenu reports a configuration error.
func NewMenuService(engine *ledger.Engine, ingester Ingester, logger *slog.Logger) *MenuService {
	return &MenuService{engine: engine, ingester: ingester, logger: logger}
}

func (s *MenuService) GetMenu(ctx context.Context, req *connect.Request[rpc.GetMenuRequest]) (*connect.Response[rpc.GetMenuResponse], error) {
	menu, err := s.engine.GetMenu(ctx)
	if err != nil {
		return nil, connectError(err)
	}
	return connect.NewResponse(&rpc.GetMenuResponse{Menu: menu}), nil
}

func (s *MenuService) AddItem(ctx context.Context, req *connect.Request[rpc.AddItemRequest]) (*connect.Response[rpc.AddItemResponse], error) {
	item, err := s.engine.AddItem(ctx, actor(ctx), req.Msg.Name, req.Msg.Price)
	if err != nil {
		return nil, connectError(err)
	}
	return connect.NewResponse(&rpc.AddItemResponse{Item: item}), nil
}

func (s *MenuService) RemoveItem(ctx context.Context, req *connect.Request[rpc.RemoveItemRequest]) (*connect.Response[rpc.RemoveItemResponse], error) {
	if err := s.engine.RemoveItem(ctx, actor(ctx), req.Msg.ItemID); err != nil {
		return nil, connectError(err)
	}
	return connect.NewResponse(&rpc.RemoveItemResponse{}), nil
}

// UpdateRestaurant sets one field, or all of them when Restaurant is given.
func (s *MenuService) UpdateRestaurant(ctx context.Context, req *connect.Request[rpc.UpdateRestaurantRequest]) (*connect.Response[rpc.UpdateRestaurantResponse], error) {
	var (
		menu *models.Menu
		err  error
	)
	if req.Msg.Restaurant != nil {
		menu, err = s.engine.SetRestaurant(ctx, actor(ctx), *req.Msg.Restaurant)
	} else {
		menu, err = s.engine.UpdateRestaurant(ctx, actor(ctx), ledger.RestaurantField(req.Msg.Field), req.Msg.Value)
	}
	if err != nil {
		return nil, connectError(err)
	}
	return connect.NewResponse(&rpc.UpdateRestaurantResponse{Menu: menu}), nil
}

func (s *MenuService) SetDeadline(ctx context.Context, req *connect.Request[rpc.SetDeadlineRequest]) (*connect.Response[rpc.SetDeadlineResponse], error) {
	menu, err := s.engine.SetDeadline(ctx, actor(ctx), req.Msg.Deadline)
	if err != nil {
		return nil, connectError(err)
	}
	return connect.NewResponse(&rpc.SetDeadlineResponse{Menu: menu}), nil
}

// IngestMenu analyzes an uploaded photo and replaces today's menu with the
// result. Nothing is written unless analysis succeeds.
func (s *MenuService) IngestMenu(ctx context.Context, req *connect.Request[rpc.IngestMenuRequest]) (*connect.Response[rpc.IngestMenuResponse], error) {
	caller := actor(ctx)
	if !caller.IsAdmin {
		return nil, connectError(fmt.Errorf("%w: admin required", models.ErrUnauthorized))
	}
	if s.ingester == nil {
		return nil, connectError(&ingest.Error{Kind: models.ErrIngestion, Reason: "no analysis path", Err: ingest.ErrNoAnalysisPath})
	}

	raw, err := decodeImage(req.Msg.Image)
	if err != nil {
		return nil, connectError(err)
	}

	result, err := s.ingester.Ingest(ctx, raw)
	if err != nil {
		s.logger.Warn("Menu ingestion failed", "user_name", caller.UserName, "error", err)
		return nil, connectError(err)
	}

	menu, err := s.engine.ReplaceMenu(ctx, caller, &result.Menu)
	if err != nil {
		return nil, connectError(err)
	}
	return connect.NewResponse(&rpc.IngestMenuResponse{Menu: menu}), nil
}

// decodeImage accepts plain base64 or a data URL.
func decodeImage(encoded string) ([]byte, error) {
	if i := strings.Index(encoded, ";base64,"); strings.HasPrefix(encoded, "data:") && i >= 0 {
		encoded = encoded[i+len(";base64,"):]
	}
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("%w: image is not valid base64", models.ErrValidation)
	}
	return raw, nil
}
