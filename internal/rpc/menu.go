package rpc

import (
	"context"
	"net/http"
	"strings"

	"connectrpc.com/connect"
)

// MenuServiceName is the fully-qualified name of the MenuService.
const MenuServiceName = "lunchtab.v1.MenuService"

// Procedure paths, one per RPC.
const (
	MenuServiceGetMenuProcedure          = "/" + MenuServiceName + "/GetMenu"
	MenuServiceAddItemProcedure          = "/" + MenuServiceName + "/AddItem"
	MenuServiceRemoveItemProcedure       = "/" + MenuServiceName + "/RemoveItem"
	MenuServiceUpdateRestaurantProcedure = "/" + MenuServiceName + "/UpdateRestaurant"
	MenuServiceSetDeadlineProcedure      = "/" + MenuServiceName + "/SetDeadline"
	MenuServiceIngestMenuProcedure       = "/" + MenuServiceName + "/IngestMenu"
)

// MenuServiceHandler serves today's menu and its admin edits.
type MenuServiceHandler interface {
	GetMenu(context.Context, *connect.Request[GetMenuRequest]) (*connect.Response[GetMenuResponse], error)
	AddItem(context.Context, *connect.Request[AddItemRequest]) (*connect.Response[AddItemResponse], error)
	RemoveItem(context.Context, *connect.Request[RemoveItemRequest]) (*connect.Response[RemoveItemResponse], error)
	UpdateRestaurant(context.Context, *connect.Request[UpdateRestaurantRequest]) (*connect.Response[UpdateRestaurantResponse], error)
	SetDeadline(context.Context, *connect.Request[SetDeadlineRequest]) (*connect.Response[SetDeadlineResponse], error)
	IngestMenu(context.Context, *connect.Request[IngestMenuRequest]) (*connect.Response[IngestMenuResponse], error)
}

// NewMenuServiceHandler builds an HTTP handler for svc and returns the path to
// mount it on.
func NewMenuServiceHandler(svc MenuServiceHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = handlerOptions(opts)
	getMenu := connect.NewUnaryHandler(MenuServiceGetMenuProcedure, svc.GetMenu, opts...)
	addItem := connect.NewUnaryHandler(MenuServiceAddItemProcedure, svc.AddItem, opts...)
	removeItem := connect.NewUnaryHandler(MenuServiceRemoveItemProcedure, svc.RemoveItem, opts...)
	updateRestaurant := connect.NewUnaryHandler(MenuServiceUpdateRestaurantProcedure, svc.UpdateRestaurant, opts...)
	setDeadline := connect.NewUnaryHandler(MenuServiceSetDeadlineProcedure, svc.SetDeadline, opts...)
	ingestMenu := connect.NewUnaryHandler(MenuServiceIngestMenuProcedure, svc.IngestMenu, opts...)
	return "/" + MenuServiceName + "/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case MenuServiceGetMenuProcedure:
			getMenu.ServeHTTP(w, r)
		case MenuServiceAddItemProcedure:
			addItem.ServeHTTP(w, r)
		case MenuServiceRemoveItemProcedure:
			removeItem.ServeHTTP(w, r)
		case MenuServiceUpdateRestaurantProcedure:
			updateRestaurant.ServeHTTP(w, r)
		case MenuServiceSetDeadlineProcedure:
			setDeadline.ServeHTTP(w, r)
		case MenuServiceIngestMenuProcedure:
			ingestMenu.ServeHTTP(w, r)
		default:
			http.NotFound(w, r)
		}
	})
}

// MenuServiceClient calls a MenuService over HTTP.
type MenuServiceClient struct {
	getMenu          *connect.Client[GetMenuRequest, GetMenuResponse]
	addItem          *connect.Client[AddItemRequest, AddItemResponse]
	removeItem       *connect.Client[RemoveItemRequest, RemoveItemResponse]
	updateRestaurant *connect.Client[UpdateRestaurantRequest, UpdateRestaurantResponse]
	setDeadline      *connect.Client[SetDeadlineRequest, SetDeadlineResponse]
	ingestMenu       *connect.Client[IngestMenuRequest, IngestMenuResponse]
}

// NewMenuServiceClient creates a client for the service at baseURL.
func NewMenuServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) *MenuServiceClient {
	baseURL = strings.TrimRight(baseURL, "/")
	opts = clientOptions(opts)
	return &MenuServiceClient{
		getMenu: connect.NewClient[GetMenuRequest, GetMenuResponse](httpClient, baseURL+MenuServiceGetMenuProcedure, opts...),
		addItem: connect.NewClient[AddItemRequest, AddItemResponse](httpClient, baseURL+MenuServiceAddItemProcedure, opts...),
		removeItem: connect.NewClient[RemoveItemRequest, RemoveItemResponse](httpClient, baseURL+MenuServiceRemoveItemProcedure, opts...),
		updateRestaurant: connect.NewClient[UpdateRestaurantRequest, UpdateRestaurantResponse](httpClient, baseURL+MenuServiceUpdateRestaurantProcedure, opts...),
		setDeadline: connect.NewClient[SetDeadlineRequest, SetDeadlineResponse](httpClient, baseURL+MenuServiceSetDeadlineProcedure, opts...),
		ingestMenu: connect.NewClient[IngestMenuRequest, IngestMenuResponse](httpClient, baseURL+MenuServiceIngestMenuProcedure, opts...),
	}
}

func (c *MenuServiceClient) GetMenu(ctx context.Context, req *connect.Request[GetMenuRequest]) (*connect.Response[GetMenuResponse], error) {
	return c.getMenu.CallUnary(ctx, req)
}

func (c *MenuServiceClient) AddItem(ctx context.Context, req *connect.Request[AddItemRequest]) (*connect.Response[AddItemResponse], error) {
	return c.addItem.CallUnary(ctx, req)
}

func (c *MenuServiceClient) RemoveItem(ctx context.Context, req *connect.Request[RemoveItemRequest]) (*connect.Response[RemoveItemResponse], error) {
	return c.removeItem.CallUnary(ctx, req)
}

func (c *MenuServiceClient) UpdateRestaurant(ctx context.Context, req *connect.Request[UpdateRestaurantRequest]) (*connect.Response[UpdateRestaurantResponse], error) {
	return c.updateRestaurant.CallUnary(ctx, req)
}

func (c *MenuServiceClient) SetDeadline(ctx context.Context, req *connect.Request[SetDeadlineRequest]) (*connect.Response[SetDeadlineResponse], error) {
	return c.setDeadline.CallUnary(ctx, req)
}

func (c *MenuServiceClient) IngestMenu(ctx context.Context, req *connect.Request[IngestMenuRequest]) (*connect.Response[IngestMenuResponse], error) {
	return c.ingestMenu.CallUnary(ctx, req)
}
