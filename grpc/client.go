package minichaingrpc

import (
	"context"
	"fmt"

	"google.golang.org/grpc"

	"github.com/blockberries/minichain"
	"github.com/blockberries/minichain/types"
)

// Compile-time interface check.
var _ minichain.Connection = (*Client)(nil)

// Client implements minichain.Connection for a remote runtime over
// gRPC using cramberry serialization. Errors come back as
// *minichain.Error with the code the server reported.
type Client struct {
	cc *grpc.ClientConn
}

// Dial connects to a remote runtime. The connection is established
// lazily on the first call.
func Dial(addr string, opts ...grpc.DialOption) (*Client, error) {
	opts = append(opts, grpc.WithDefaultCallOptions(
		grpc.ForceCodec(CramberryCodec{}),
	))
	cc, err := grpc.NewClient(addr, opts...)
	if err != nil {
		return nil, fmt.Errorf("minichain client: dial %s: %w", addr, err)
	}
	return &Client{cc: cc}, nil
}

func (c *Client) Close() error {
	return c.cc.Close()
}

// invoke calls method and maps a failure back to the runtime taxonomy.
func invoke[Resp any](ctx context.Context, c *Client, method string, req any) (Resp, error) {
	resp := new(Resp)
	if err := c.cc.Invoke(ctx, fullMethod(method), req, resp); err != nil {
		var zero Resp
		return zero, fromStatus(method, err)
	}
	return *resp, nil
}

func (c *Client) CreateChain(ctx context.Context, owner string) (types.Chain, error) {
	return invoke[types.Chain](ctx, c, "CreateChain", &CreateChainRequest{Owner: owner})
}

func (c *Client) ListChains(ctx context.Context) ([]types.Chain, error) {
	resp, err := invoke[ListChainsResponse](ctx, c, "ListChains", &Empty{})
	return resp.Chains, err
}

func (c *Client) DeactivateChain(ctx context.Context, chainID types.ChainID) (types.Chain, error) {
	return invoke[types.Chain](ctx, c, "DeactivateChain", &ChainIDRequest{ChainID: chainID})
}

func (c *Client) DeployApp(ctx context.Context, req types.DeployRequest) (types.Application, error) {
	app, err := invoke[types.Application](ctx, c, "DeployApp", &req)
	app.State.Normalize()
	return app, err
}

func (c *Client) ExecuteAction(ctx context.Context, req types.ExecuteRequest) (types.ExecuteResult, error) {
	res, err := invoke[types.ExecuteResult](ctx, c, "ExecuteAction", &req)
	res.State.Normalize()
	return res, err
}

func (c *Client) GetAppState(ctx context.Context, appID types.AppID) (types.State, error) {
	st, err := invoke[types.State](ctx, c, "GetAppState", &AppIDRequest{AppID: appID})
	st.Normalize()
	return st, err
}

func (c *Client) ListApps(ctx context.Context) ([]types.Application, error) {
	resp, err := invoke[ListAppsResponse](ctx, c, "ListApps", &Empty{})
	for i := range resp.Apps {
		resp.Apps[i].State.Normalize()
	}
	return resp.Apps, err
}

func (c *Client) ListMessages(ctx context.Context) ([]types.CrossChainMessage, error) {
	resp, err := invoke[ListMessagesResponse](ctx, c, "ListMessages", &Empty{})
	return resp.Messages, err
}

func (c *Client) GetMessage(ctx context.Context, id types.MessageID) (types.CrossChainMessage, error) {
	return invoke[types.CrossChainMessage](ctx, c, "GetMessage", &MessageIDRequest{ID: id})
}
