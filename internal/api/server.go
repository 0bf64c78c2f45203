package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"github.com/ZilDuck/zilliqa-nft-exchange/internal/entity"
	"github.com/ZilDuck/zilliqa-nft-exchange/internal/exchange"
	"github.com/ZilDuck/zilliqa-nft-exchange/internal/ledger"
	"github.com/ZilDuck/zilliqa-nft-exchange/internal/metrics"
	"github.com/ZilDuck/zilliqa-nft-exchange/internal/registry"
	"github.com/ZilDuck/zilliqa-nft-exchange/internal/repository"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
	"math/big"
	"net/http"
	"strconv"
)

const CallerHeader = "X-Caller"

var (
	ErrMissingCaller  = errors.New("missing " + CallerHeader + " header")
	ErrInvalidRequest = errors.New("invalid request")
	ErrIndexDisabled  = errors.New("activity index is not configured")
)

type Server struct {
	exchange   exchange.Exchange
	ledger     ledger.Ledger
	registries registry.Directory
	listings   repository.ListingRepository
	actions    repository.ExchangeActionRepository
	metrics    *metrics.Metrics
}

// NewServer builds the HTTP API. listings, actions and metrics may be nil.
func NewServer(
	exchange exchange.Exchange,
	ledger ledger.Ledger,
	registries registry.Directory,
	listings repository.ListingRepository,
	actions repository.ExchangeActionRepository,
	metrics *metrics.Metrics,
) Server {
	return Server{exchange, ledger, registries, listings, actions, metrics}
}

func (s Server) Router() *mux.Router {
	r := mux.NewRouter()
	if s.metrics != nil {
		r.Use(s.metrics.InstrumentHandler)
		r.Handle("/metrics", s.metrics.Handler()).Methods("GET")
	}

	r.HandleFunc("/health", s.handleHealth).Methods("GET")
	r.HandleFunc("/exchange", s.handleExchange).Methods("GET")

	r.HandleFunc("/listings", s.handleCreateListing).Methods("POST")
	r.HandleFunc("/listings", s.handleGetListings).Methods("GET")
	r.HandleFunc("/listings/{id:[0-9]+}", s.handleGetListing).Methods("GET")
	r.HandleFunc("/listings/{id:[0-9]+}/purchase", s.handlePurchase).Methods("POST")
	r.HandleFunc("/listings/{id:[0-9]+}/cancel", s.handleCancel).Methods("POST")
	r.HandleFunc("/listings/{id:[0-9]+}/activity", s.handleGetActivity).Methods("GET")
	r.HandleFunc("/sellers/{seller}/listings", s.handleGetSellerHistory).Methods("GET")

	r.HandleFunc("/token", s.handleGetToken).Methods("GET")
	r.HandleFunc("/token/balances/{owner}", s.handleGetBalance).Methods("GET")
	r.HandleFunc("/token/allowances/{owner}/{spender}", s.handleGetAllowance).Methods("GET")
	r.HandleFunc("/token/transfer", s.handleTransfer).Methods("POST")
	r.HandleFunc("/token/approve", s.handleApproveTokens).Methods("POST")

	r.HandleFunc("/registries", s.handleGetRegistries).Methods("GET")
	r.HandleFunc("/registries/{registry}/items", s.handleMint).Methods("POST")
	r.HandleFunc("/registries/{registry}/items/{id:[0-9]+}", s.handleGetItem).Methods("GET")
	r.HandleFunc("/registries/{registry}/items/{id:[0-9]+}/activity", s.handleGetItemActivity).Methods("GET")
	r.HandleFunc("/registries/{registry}/items/{id:[0-9]+}/approve", s.handleApproveItem).Methods("POST")
	r.HandleFunc("/registries/{registry}/operators", s.handleSetOperator).Methods("POST")

	r.NotFoundHandler = notFoundHandler()

	return r
}

func (s Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s Server) handleExchange(w http.ResponseWriter, r *http.Request) {
	next, err := s.exchange.NextListingID(r.Context())
	if err != nil {
		s.writeError(w, "exchange", err)
		return
	}

	writeJSON(w, http.StatusOK, ExchangeInfo{
		Address:            s.exchange.Address(),
		AddressBech32:      s.exchange.Address().Bech32(),
		Admin:              s.exchange.Admin(),
		AdminBech32:        s.exchange.Admin().Bech32(),
		PlatformFeePercent: s.exchange.PlatformFeePercent(),
		ValueLedger:        s.exchange.ValueLedger().Address(),
		NextListingId:      next,
	})
}

func (s Server) handleCreateListing(w http.ResponseWriter, r *http.Request) {
	caller, err := getCaller(r)
	if err != nil {
		s.writeError(w, "list", err)
		return
	}

	var req CreateListingRequest
	if err := decode(r, &req); err != nil {
		s.writeError(w, "list", err)
		return
	}
	registryAddr, err := entity.NewAddress(req.Registry)
	if err != nil {
		s.writeError(w, "list", err)
		return
	}
	price, err := entity.ParseAmount(req.Price)
	if err != nil {
		s.writeError(w, "list", err)
		return
	}

	id, err := s.exchange.List(r.Context(), caller, registryAddr, req.ItemId, price, req.FeeParam)
	if err != nil {
		s.writeError(w, "list", err)
		return
	}

	listing, err := s.exchange.GetListing(r.Context(), id)
	if err != nil {
		s.writeError(w, "list", err)
		return
	}

	writeJSON(w, http.StatusCreated, s.listingResponse(listing))
}

func (s Server) handleGetListings(w http.ResponseWriter, r *http.Request) {
	filter := exchange.ListingFilter{State: entity.ListingState(r.URL.Query().Get("state"))}
	for key, target := range map[string]*entity.Address{"seller": &filter.Seller, "registry": &filter.Registry} {
		if value := r.URL.Query().Get(key); value != "" {
			addr, err := entity.NewAddress(value)
			if err != nil {
				s.writeError(w, "listings", err)
				return
			}
			*target = addr
		}
	}

	listings, err := s.exchange.Listings(r.Context(), filter)
	if err != nil {
		s.writeError(w, "listings", err)
		return
	}

	response := make([]ListingResponse, 0, len(listings))
	for _, l := range listings {
		response = append(response, s.listingResponse(l))
	}

	writeJSON(w, http.StatusOK, response)
}

func (s Server) handleGetListing(w http.ResponseWriter, r *http.Request) {
	id, err := getUint(r, "id")
	if err != nil {
		s.writeError(w, "listing", err)
		return
	}

	listing, err := s.exchange.GetListing(r.Context(), id)
	if err != nil {
		s.writeError(w, "listing", err)
		return
	}

	writeJSON(w, http.StatusOK, s.listingResponse(listing))
}

func (s Server) handlePurchase(w http.ResponseWriter, r *http.Request) {
	id, err := getUint(r, "id")
	if err != nil {
		s.writeError(w, "purchase", err)
		return
	}
	caller, err := getCaller(r)
	if err != nil {
		s.writeError(w, "purchase", err)
		return
	}

	sale, err := s.exchange.Purchase(r.Context(), caller, id)
	if err != nil {
		s.writeError(w, "purchase", err)
		return
	}

	writeJSON(w, http.StatusOK, SaleResponse{
		Sale:               *sale,
		DisplayPrice:       s.display(sale.Price),
		DisplayPlatformFee: s.display(sale.PlatformFee),
		DisplayProceeds:    s.display(sale.SellerProceeds),
	})
}

func (s Server) handleCancel(w http.ResponseWriter, r *http.Request) {
	id, err := getUint(r, "id")
	if err != nil {
		s.writeError(w, "cancel", err)
		return
	}
	caller, err := getCaller(r)
	if err != nil {
		s.writeError(w, "cancel", err)
		return
	}

	if err := s.exchange.Cancel(r.Context(), caller, id); err != nil {
		s.writeError(w, "cancel", err)
		return
	}

	listing, err := s.exchange.GetListing(r.Context(), id)
	if err != nil {
		s.writeError(w, "cancel", err)
		return
	}

	writeJSON(w, http.StatusOK, s.listingResponse(listing))
}

func (s Server) handleGetActivity(w http.ResponseWriter, r *http.Request) {
	if s.actions == nil {
		s.writeError(w, "activity", ErrIndexDisabled)
		return
	}
	id, err := getUint(r, "id")
	if err != nil {
		s.writeError(w, "activity", err)
		return
	}

	actions, err := s.actions.GetActionsForListing(id)
	if err != nil {
		s.writeError(w, "activity", err)
		return
	}

	writeJSON(w, http.StatusOK, actions)
}

func (s Server) handleGetSellerHistory(w http.ResponseWriter, r *http.Request) {
	if s.listings == nil {
		s.writeError(w, "history", ErrIndexDisabled)
		return
	}
	seller, err := entity.NewAddress(mux.Vars(r)["seller"])
	if err != nil {
		s.writeError(w, "history", err)
		return
	}
	size, from := getPaging(r)

	listings, total, err := s.listings.GetListingsBySeller(seller, size, from)
	if err != nil {
		s.writeError(w, "history", err)
		return
	}

	response := make([]ListingResponse, 0, len(listings))
	for _, l := range listings {
		response = append(response, s.listingResponse(l))
	}

	w.Header().Set("X-Pagination-Total", strconv.FormatInt(total, 10))
	writeJSON(w, http.StatusOK, response)
}

func (s Server) handleGetToken(w http.ResponseWriter, r *http.Request) {
	supply, err := s.ledger.TotalSupply(r.Context())
	if err != nil {
		s.writeError(w, "token", err)
		return
	}

	writeJSON(w, http.StatusOK, TokenInfo{
		Address:     s.ledger.Address(),
		Name:        s.ledger.Name(),
		Symbol:      s.ledger.Symbol(),
		Decimals:    s.ledger.Decimals(),
		TotalSupply: supply.String(),
	})
}

func (s Server) handleGetBalance(w http.ResponseWriter, r *http.Request) {
	owner, err := entity.NewAddress(mux.Vars(r)["owner"])
	if err != nil {
		s.writeError(w, "balance", err)
		return
	}

	balance, err := s.ledger.BalanceOf(r.Context(), owner)
	if err != nil {
		s.writeError(w, "balance", err)
		return
	}

	writeJSON(w, http.StatusOK, AmountResponse{Owner: owner, Amount: balance.String(), Display: s.display(balance)})
}

func (s Server) handleGetAllowance(w http.ResponseWriter, r *http.Request) {
	owner, err := entity.NewAddress(mux.Vars(r)["owner"])
	if err != nil {
		s.writeError(w, "allowance", err)
		return
	}
	spender, err := entity.NewAddress(mux.Vars(r)["spender"])
	if err != nil {
		s.writeError(w, "allowance", err)
		return
	}

	allowance, err := s.ledger.Allowance(r.Context(), owner, spender)
	if err != nil {
		s.writeError(w, "allowance", err)
		return
	}

	writeJSON(w, http.StatusOK, AmountResponse{Owner: owner, Spender: spender, Amount: allowance.String(), Display: s.display(allowance)})
}

func (s Server) handleTransfer(w http.ResponseWriter, r *http.Request) {
	s.handleAmountCommand(w, r, "transfer", func(caller, target entity.Address, amount *big.Int) error {
		return s.ledger.Transfer(r.Context(), caller, target, amount)
	})
}

func (s Server) handleApproveTokens(w http.ResponseWriter, r *http.Request) {
	s.handleAmountCommand(w, r, "approve", func(caller, target entity.Address, amount *big.Int) error {
		return s.ledger.Approve(r.Context(), caller, target, amount)
	})
}

func (s Server) handleAmountCommand(w http.ResponseWriter, r *http.Request, operation string, command func(caller, target entity.Address, amount *big.Int) error) {
	caller, err := getCaller(r)
	if err != nil {
		s.writeError(w, operation, err)
		return
	}

	var req AmountRequest
	if err := decode(r, &req); err != nil {
		s.writeError(w, operation, err)
		return
	}
	target, err := entity.NewAddress(req.Target)
	if err != nil {
		s.writeError(w, operation, err)
		return
	}
	amount, err := entity.ParseAmount(req.Amount)
	if err != nil {
		s.writeError(w, operation, err)
		return
	}

	if err := command(caller, target, amount); err != nil {
		s.writeError(w, operation, err)
		return
	}

	writeJSON(w, http.StatusOK, AmountResponse{Owner: caller, Spender: target, Amount: amount.String(), Display: s.display(amount)})
}

func (s Server) handleGetRegistries(w http.ResponseWriter, r *http.Request) {
	registries := s.registries.All()

	response := make([]RegistryInfo, 0, len(registries))
	for _, items := range registries {
		count, err := items.TokenCount(r.Context())
		if err != nil {
			s.writeError(w, "registries", err)
			return
		}
		response = append(response, RegistryInfo{
			Address:       items.Address(),
			AddressBech32: items.Address().Bech32(),
			Name:          items.Name(),
			Symbol:        items.Symbol(),
			TokenCount:    count,
		})
	}

	writeJSON(w, http.StatusOK, response)
}

func (s Server) handleMint(w http.ResponseWriter, r *http.Request) {
	caller, err := getCaller(r)
	if err != nil {
		s.writeError(w, "mint", err)
		return
	}
	items, err := s.getRegistry(r)
	if err != nil {
		s.writeError(w, "mint", err)
		return
	}

	var req MintRequest
	if err := decode(r, &req); err != nil {
		s.writeError(w, "mint", err)
		return
	}

	itemId, err := items.Mint(r.Context(), caller, req.TokenUri)
	if err != nil {
		s.writeError(w, "mint", err)
		return
	}

	item, err := items.GetItem(r.Context(), itemId)
	if err != nil {
		s.writeError(w, "mint", err)
		return
	}

	writeJSON(w, http.StatusCreated, item)
}

func (s Server) handleGetItem(w http.ResponseWriter, r *http.Request) {
	items, err := s.getRegistry(r)
	if err != nil {
		s.writeError(w, "item", err)
		return
	}
	id, err := getUint(r, "id")
	if err != nil {
		s.writeError(w, "item", err)
		return
	}

	item, err := items.GetItem(r.Context(), id)
	if err != nil {
		s.writeError(w, "item", err)
		return
	}

	writeJSON(w, http.StatusOK, item)
}

func (s Server) handleGetItemActivity(w http.ResponseWriter, r *http.Request) {
	if s.actions == nil {
		s.writeError(w, "itemActivity", ErrIndexDisabled)
		return
	}
	registryAddr, err := entity.NewAddress(mux.Vars(r)["registry"])
	if err != nil {
		s.writeError(w, "itemActivity", err)
		return
	}
	id, err := getUint(r, "id")
	if err != nil {
		s.writeError(w, "itemActivity", err)
		return
	}
	size, from := getPaging(r)

	actions, total, err := s.actions.GetActionsForItem(registryAddr, id, size, from)
	if err != nil {
		s.writeError(w, "itemActivity", err)
		return
	}

	w.Header().Set("X-Pagination-Total", strconv.FormatInt(total, 10))
	writeJSON(w, http.StatusOK, actions)
}

func (s Server) handleApproveItem(w http.ResponseWriter, r *http.Request) {
	caller, err := getCaller(r)
	if err != nil {
		s.writeError(w, "approveItem", err)
		return
	}
	items, err := s.getRegistry(r)
	if err != nil {
		s.writeError(w, "approveItem", err)
		return
	}
	id, err := getUint(r, "id")
	if err != nil {
		s.writeError(w, "approveItem", err)
		return
	}

	var req ApproveItemRequest
	if err := decode(r, &req); err != nil {
		s.writeError(w, "approveItem", err)
		return
	}
	to, err := entity.NewAddress(req.To)
	if err != nil {
		s.writeError(w, "approveItem", err)
		return
	}

	if err := items.Approve(r.Context(), caller, to, id); err != nil {
		s.writeError(w, "approveItem", err)
		return
	}

	item, err := items.GetItem(r.Context(), id)
	if err != nil {
		s.writeError(w, "approveItem", err)
		return
	}

	writeJSON(w, http.StatusOK, item)
}

func (s Server) handleSetOperator(w http.ResponseWriter, r *http.Request) {
	caller, err := getCaller(r)
	if err != nil {
		s.writeError(w, "setOperator", err)
		return
	}
	items, err := s.getRegistry(r)
	if err != nil {
		s.writeError(w, "setOperator", err)
		return
	}

	var req OperatorRequest
	if err := decode(r, &req); err != nil {
		s.writeError(w, "setOperator", err)
		return
	}
	operator, err := entity.NewAddress(req.Operator)
	if err != nil {
		s.writeError(w, "setOperator", err)
		return
	}

	if err := items.SetApprovalForAll(r.Context(), caller, operator, req.Approved); err != nil {
		s.writeError(w, "setOperator", err)
		return
	}

	writeJSON(w, http.StatusOK, OperatorResponse{Owner: caller, Operator: operator, Approved: req.Approved})
}

func (s Server) getRegistry(r *http.Request) (registry.Registry, error) {
	addr, err := entity.NewAddress(mux.Vars(r)["registry"])
	if err != nil {
		return nil, err
	}

	return s.registries.Get(addr)
}

func (s Server) listingResponse(l entity.Listing) ListingResponse {
	return ListingResponse{
		Listing:      l,
		SellerBech32: l.Seller.Bech32(),
		BuyerBech32:  l.Buyer.Bech32(),
		DisplayPrice: s.display(l.Price),
	}
}

func (s Server) display(amount *big.Int) string {
	return entity.FormatAmount(amount, s.ledger.Decimals())
}

func (s Server) writeError(w http.ResponseWriter, operation string, err error) {
	code, status := classify(err)
	if s.metrics != nil {
		s.metrics.RecordRejection(operation, code)
	}

	logger := zap.L().With(zap.String("operation", operation), zap.String("code", code), zap.Error(err))
	if status >= http.StatusInternalServerError {
		logger.Error("Api: Request failed")
	} else {
		logger.Debug("Api: Request rejected")
	}

	writeJSON(w, status, ErrorResponse{Code: code, Error: err.Error()})
}

func getCaller(r *http.Request) (entity.Address, error) {
	value := r.Header.Get(CallerHeader)
	if value == "" {
		return "", ErrMissingCaller
	}

	return entity.NewAddress(value)
}

func getUint(r *http.Request, key string) (uint64, error) {
	value, ok := mux.Vars(r)[key]
	if !ok {
		return 0, fmt.Errorf("%w: missing %s", ErrInvalidRequest, key)
	}

	return strconv.ParseUint(value, 10, 64)
}

func getPaging(r *http.Request) (size, from int) {
	size, from = 20, 0
	if v, err := strconv.Atoi(r.URL.Query().Get("size")); err == nil && v > 0 && v <= 100 {
		size = v
	}
	if v, err := strconv.Atoi(r.URL.Query().Get("from")); err == nil && v >= 0 {
		from = v
	}

	return
}

func decode(r *http.Request, target interface{}) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(target); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}

	return nil
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		zap.L().With(zap.Error(err)).Warn("Api: Failed to write response")
	}
}

func notFoundHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, ErrorResponse{Code: "NotFound", Error: "Page not found"})
	})
}
