package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"github.com/ZilDuck/zilliqa-nft-exchange/internal/api"
	"github.com/ZilDuck/zilliqa-nft-exchange/internal/entity"
	"github.com/ZilDuck/zilliqa-nft-exchange/internal/exchange"
	"github.com/hashicorp/go-retryablehttp"
	"go.uber.org/zap"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

// Error is a rejection returned by the API.
type Error struct {
	Status  int
	Code    string
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s (%d): %s", e.Code, e.Status, e.Message)
}

// Unwrap exposes the exchange sentinel for the code so callers can use errors.Is.
func (e *Error) Unwrap() error {
	return sentinels[e.Code]
}

var sentinels = map[string]error{
	exchange.CodeInvalidPrice:              exchange.ErrInvalidPrice,
	exchange.CodeNotItemOwnerOrNotApproved: exchange.ErrNotItemOwnerOrNotApproved,
	exchange.CodeListingNotActive:          exchange.ErrListingNotActive,
	exchange.CodeListingNotFound:           exchange.ErrListingNotFound,
	exchange.CodeNotOwner:                  exchange.ErrNotOwner,
	exchange.CodeInsufficientFunds:         exchange.ErrInsufficientFunds,
	exchange.CodeInsufficientAllowance:     exchange.ErrInsufficientAllowance,
	exchange.CodeSettlementFailed:          exchange.ErrSettlementFailed,
}

type Client struct {
	baseUrl    string
	caller     entity.Address
	httpClient *retryablehttp.Client
}

// New returns a client for the API at baseUrl. Requests carry caller as their
// identity; caller may be empty for read-only use.
func New(baseUrl string, caller entity.Address, retries int) *Client {
	retryClient := retryablehttp.NewClient()
	retryClient.Logger = nil
	retryClient.RetryMax = retries
	retryClient.CheckRetry = checkRetry

	return &Client{
		baseUrl:    strings.TrimRight(baseUrl, "/"),
		caller:     caller,
		httpClient: retryClient,
	}
}

// WithCaller returns a copy of c acting as caller.
func (c *Client) WithCaller(caller entity.Address) *Client {
	clone := *c
	clone.caller = caller

	return &clone
}

type methodKey struct{}

// checkRetry retries GET requests only. A mutation whose connection dropped may
// already have been applied, so it is never sent twice.
func checkRetry(ctx context.Context, resp *http.Response, err error) (bool, error) {
	if method, _ := ctx.Value(methodKey{}).(string); method != http.MethodGet {
		return false, err
	}

	return retryablehttp.DefaultRetryPolicy(ctx, resp, err)
}

func (c *Client) Exchange(ctx context.Context) (info api.ExchangeInfo, err error) {
	err = c.do(ctx, http.MethodGet, "/exchange", nil, &info)
	return
}

func (c *Client) Token(ctx context.Context) (info api.TokenInfo, err error) {
	err = c.do(ctx, http.MethodGet, "/token", nil, &info)
	return
}

func (c *Client) Balance(ctx context.Context, owner entity.Address) (balance api.AmountResponse, err error) {
	err = c.do(ctx, http.MethodGet, "/token/balances/"+owner.String(), nil, &balance)
	return
}

func (c *Client) Allowance(ctx context.Context, owner, spender entity.Address) (allowance api.AmountResponse, err error) {
	err = c.do(ctx, http.MethodGet, "/token/allowances/"+owner.String()+"/"+spender.String(), nil, &allowance)
	return
}

func (c *Client) Transfer(ctx context.Context, to entity.Address, amount string) (resp api.AmountResponse, err error) {
	err = c.do(ctx, http.MethodPost, "/token/transfer", api.AmountRequest{Target: to.String(), Amount: amount}, &resp)
	return
}

func (c *Client) ApproveTokens(ctx context.Context, spender entity.Address, amount string) (resp api.AmountResponse, err error) {
	err = c.do(ctx, http.MethodPost, "/token/approve", api.AmountRequest{Target: spender.String(), Amount: amount}, &resp)
	return
}

func (c *Client) Registries(ctx context.Context) (registries []api.RegistryInfo, err error) {
	err = c.do(ctx, http.MethodGet, "/registries", nil, &registries)
	return
}

func (c *Client) Mint(ctx context.Context, registry entity.Address, tokenUri string) (item entity.Item, err error) {
	err = c.do(ctx, http.MethodPost, "/registries/"+registry.String()+"/items", api.MintRequest{TokenUri: tokenUri}, &item)
	return
}

func (c *Client) Item(ctx context.Context, registry entity.Address, itemId uint64) (item entity.Item, err error) {
	err = c.do(ctx, http.MethodGet, itemPath(registry, itemId), nil, &item)
	return
}

func (c *Client) ItemActivity(ctx context.Context, registry entity.Address, itemId uint64, size, from int) (actions []entity.ExchangeAction, err error) {
	query := url.Values{}
	query.Set("size", strconv.Itoa(size))
	query.Set("from", strconv.Itoa(from))

	err = c.do(ctx, http.MethodGet, itemPath(registry, itemId)+"/activity?"+query.Encode(), nil, &actions)
	return
}

func (c *Client) ApproveItem(ctx context.Context, registry entity.Address, itemId uint64, to entity.Address) (item entity.Item, err error) {
	err = c.do(ctx, http.MethodPost, itemPath(registry, itemId)+"/approve", api.ApproveItemRequest{To: to.String()}, &item)
	return
}

func (c *Client) SetOperator(ctx context.Context, registry, operator entity.Address, approved bool) (resp api.OperatorResponse, err error) {
	err = c.do(ctx, http.MethodPost, "/registries/"+registry.String()+"/operators", api.OperatorRequest{Operator: operator.String(), Approved: approved}, &resp)
	return
}

func (c *Client) List(ctx context.Context, registry entity.Address, itemId uint64, price string, feeParam uint64) (listing api.ListingResponse, err error) {
	req := api.CreateListingRequest{Registry: registry.String(), ItemId: itemId, Price: price, FeeParam: feeParam}
	err = c.do(ctx, http.MethodPost, "/listings", req, &listing)
	return
}

func (c *Client) Listing(ctx context.Context, listingId uint64) (listing api.ListingResponse, err error) {
	err = c.do(ctx, http.MethodGet, listingPath(listingId), nil, &listing)
	return
}

func (c *Client) Listings(ctx context.Context, filter exchange.ListingFilter) (listings []api.ListingResponse, err error) {
	query := url.Values{}
	if filter.Seller != "" {
		query.Set("seller", filter.Seller.String())
	}
	if filter.Registry != "" {
		query.Set("registry", filter.Registry.String())
	}
	if filter.State != "" {
		query.Set("state", string(filter.State))
	}

	path := "/listings"
	if len(query) > 0 {
		path += "?" + query.Encode()
	}

	err = c.do(ctx, http.MethodGet, path, nil, &listings)
	return
}

func (c *Client) Purchase(ctx context.Context, listingId uint64) (sale api.SaleResponse, err error) {
	err = c.do(ctx, http.MethodPost, listingPath(listingId)+"/purchase", nil, &sale)
	return
}

func (c *Client) Cancel(ctx context.Context, listingId uint64) (listing api.ListingResponse, err error) {
	err = c.do(ctx, http.MethodPost, listingPath(listingId)+"/cancel", nil, &listing)
	return
}

func (c *Client) Activity(ctx context.Context, listingId uint64) (actions []entity.ExchangeAction, err error) {
	err = c.do(ctx, http.MethodGet, listingPath(listingId)+"/activity", nil, &actions)
	return
}

func (c *Client) do(ctx context.Context, method, path string, body, target interface{}) error {
	var payload io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		payload = bytes.NewReader(data)
	}

	req, err := retryablehttp.NewRequest(method, c.baseUrl+path, payload)
	if err != nil {
		return err
	}
	req = req.WithContext(context.WithValue(ctx, methodKey{}, method))
	req.Header.Add("Accept", "application/json")
	if body != nil {
		req.Header.Add("Content-Type", "application/json;charset=utf-8")
	}
	if c.caller != "" {
		req.Header.Add(api.CallerHeader, c.caller.String())
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		zap.L().With(zap.String("method", method), zap.String("path", path), zap.Error(err)).Warn("Client: Request failure")
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if resp.StatusCode >= http.StatusBadRequest {
		apiErr := &Error{Status: resp.StatusCode}
		var errResp api.ErrorResponse
		if json.Unmarshal(data, &errResp) == nil && errResp.Code != "" {
			apiErr.Code, apiErr.Message = errResp.Code, errResp.Error
		} else {
			apiErr.Code, apiErr.Message = exchange.CodeInternal, strings.TrimSpace(string(data))
		}
		return apiErr
	}

	if target == nil {
		return nil
	}

	return json.Unmarshal(data, target)
}

func listingPath(listingId uint64) string {
	return "/listings/" + strconv.FormatUint(listingId, 10)
}

func itemPath(registry entity.Address, itemId uint64) string {
	return "/registries/" + registry.String() + "/items/" + strconv.FormatUint(itemId, 10)
}
