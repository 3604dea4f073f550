package main

import (
	"context"
	"flag"
	"fmt"
	"math/big"
	"os"
	"text/tabwriter"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/bansal-ishaan/TickkItOnn/internal/adapter"
	"github.com/bansal-ishaan/TickkItOnn/internal/aggregator"
	"github.com/bansal-ishaan/TickkItOnn/internal/chain"
	"github.com/bansal-ishaan/TickkItOnn/internal/config"
	"github.com/bansal-ishaan/TickkItOnn/internal/domain"
	"github.com/bansal-ishaan/TickkItOnn/internal/ledger"
	"github.com/bansal-ishaan/TickkItOnn/internal/ledger/schema"
	"github.com/bansal-ishaan/TickkItOnn/internal/logger"
	"github.com/bansal-ishaan/TickkItOnn/internal/orchestrator"
	"github.com/bansal-ishaan/TickkItOnn/internal/pricing"
	"github.com/bansal-ishaan/TickkItOnn/internal/registry"
)

var (
	configFile = flag.String("config", "", "Path to configuration file")
	envPath    = flag.String("env", "config/", "Path to environment files")
)

const usage = `Usage: tickkitonn [flags] <command>

Commands:
  events           List active events across all networks
  balances         Show aggregated ticket and refund balances
  buy              Quote a ticket purchase; add -confirm to submit it
  purchases        List recorded purchases for the connected account
  create-event     Create an event on the wallet's network
  withdraw-refund  Withdraw the pending refund balance
  resale           Resale marketplace: list, mine, sell, buy
`

// app bundles the wired dependencies every command runs against
type app struct {
	cfg      *config.Config
	registry registry.NetworkRegistry
	session  *chain.Session
	adapters chain.AdapterFactory
	agg      aggregator.Engine
	pricing  pricing.Engine
	ledger   ledger.Store
	orch     *orchestrator.Orchestrator
}

func main() {
	flag.Usage = func() {
		fmt.Fprint(os.Stderr, usage)
		flag.PrintDefaults()
	}
	flag.Parse()
	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}

	// Load configuration
	cfg, err := config.Load(*configFile, *envPath)
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize logger with sentry integration
	err = logger.Initialize(logger.Config{
		Debug:     cfg.Debug,
		SentryDSN: cfg.SentryDSN,
		Tags: map[string]string{
			"service": "tickkitonn",
		},
	})
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer logger.Flush(2 * time.Second)

	a, err := wire(ctx, cfg)
	if err != nil {
		logger.Fatal("Failed to initialize", zap.Error(err))
	}
	defer a.adapters.Close()

	if err := run(ctx, a, flag.Args()); err != nil {
		logger.ErrorCtx(ctx, err, zap.String("command", flag.Arg(0)))
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func wire(ctx context.Context, cfg *config.Config) (*app, error) {
	descriptors, err := cfg.Descriptors()
	if err != nil {
		return nil, err
	}
	reg := registry.NewNetworkRegistry(descriptors)

	session, err := chain.NewSession(cfg.Wallet.PrivateKey, domain.NetworkID(cfg.Wallet.NetworkID))
	if err != nil {
		return nil, err
	}

	db, err := gorm.Open(sqlite.Open(cfg.Ledger.Path), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open ledger at %s: %w", cfg.Ledger.Path, err)
	}
	if err := ledger.Migrate(db); err != nil {
		return nil, err
	}

	clock := adapter.NewClock()
	adapters := chain.NewAdapterFactory(reg, adapter.NewEthClientDialer())
	ledgerStore := ledger.NewStore(db, clock)
	pricingEngine := pricing.NewEngine(reg, adapters)
	agg := aggregator.NewEngine(reg, adapters, aggregator.Config{
		NetworkTimeout: cfg.Aggregation.NetworkTimeout,
	})

	logger.InfoCtx(ctx, "Initialized",
		zap.Int("networks", len(descriptors)),
		zap.Bool("wallet_connected", session.Connected()),
	)

	return &app{
		cfg:      cfg,
		registry: reg,
		session:  session,
		adapters: adapters,
		agg:      agg,
		pricing:  pricingEngine,
		ledger:   ledgerStore,
		orch:     orchestrator.New(reg, pricingEngine, adapters, session, ledgerStore, clock),
	}, nil
}

func run(ctx context.Context, a *app, args []string) error {
	switch args[0] {
	case "events":
		return cmdEvents(ctx, a)
	case "balances":
		return cmdBalances(ctx, a, args[1:])
	case "buy":
		return cmdBuy(ctx, a, args[1:])
	case "purchases":
		return cmdPurchases(ctx, a, args[1:])
	case "create-event":
		return cmdCreateEvent(ctx, a, args[1:])
	case "withdraw-refund":
		return cmdWithdrawRefund(ctx, a)
	case "resale":
		return cmdResale(ctx, a, args[1:])
	default:
		flag.Usage()
		return fmt.Errorf("unknown command %q", args[0])
	}
}

func cmdEvents(ctx context.Context, a *app) error {
	events := a.agg.FetchEvents(ctx, a.cfg.Aggregation.MaxEventsPerNetwork)

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "NETWORK\tEVENT\tNAME\tVENUE\tDATE\tPRICE\tAVAILABLE")
	for _, ev := range events {
		network, err := a.registry.Resolve(ev.HostNetworkID)
		if err != nil {
			continue
		}
		fmt.Fprintf(w, "%s\t%d\t%s\t%s\t%s\t%s %s\t%d/%d\n",
			network.Name, ev.EventID, ev.Name, ev.Venue,
			ev.EventDate().Format("2006-01-02 15:04"),
			domain.FormatEther(pricing.CurrentPrice(ev.BasePriceWei, ev.TicketsSold)), network.NativeSymbol,
			ev.Available(), ev.TotalTickets,
		)
	}
	return w.Flush()
}

func cmdBalances(ctx context.Context, a *app, args []string) error {
	fs := flag.NewFlagSet("balances", flag.ExitOnError)
	accountHex := fs.String("account", "", "Account address (defaults to the connected wallet)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	account, err := resolveAccount(a, *accountHex)
	if err != nil {
		return err
	}

	balance := a.agg.FetchBalances(ctx, account)
	fmt.Printf("Account:         %s\n", account.Hex())
	fmt.Printf("Tickets held:    %d\n", balance.TicketCount)
	fmt.Printf("Pending refunds: %s ETH\n", domain.FormatEther(balance.PendingRefundWei))
	return nil
}

func cmdBuy(ctx context.Context, a *app, args []string) error {
	fs := flag.NewFlagSet("buy", flag.ExitOnError)
	hostNetwork := fs.Uint64("host-network", 0, "Network hosting the event")
	eventID := fs.Uint64("event", 0, "Event ID on the host network")
	quantity := fs.Uint64("quantity", 1, "Number of tickets")
	confirm := fs.Bool("confirm", false, "Submit the purchase instead of quoting only")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *hostNetwork == 0 {
		return fmt.Errorf("-host-network is required")
	}

	event, err := findEvent(ctx, a, domain.NetworkID(*hostNetwork), *eventID)
	if err != nil {
		return err
	}

	// The wallet pays from the network it is connected to; the route is
	// cross-network whenever that differs from the event's host.
	source := a.session.NetworkID()
	attempt, err := a.orch.Begin(*event, *quantity, source)
	if err != nil {
		return err
	}

	quote, err := attempt.Quote(ctx)
	if err != nil {
		return err
	}

	sourceNet, err := a.registry.Resolve(source)
	if err != nil {
		return err
	}
	fmt.Printf("Event:       %s (#%d on %s)\n", event.Name, event.EventID, networkName(a, event.HostNetworkID))
	fmt.Printf("Quantity:    %d\n", *quantity)
	fmt.Printf("Ticket cost: %s %s\n", domain.FormatEther(quote.TicketCostWei), sourceNet.NativeSymbol)
	if attempt.CrossNetwork() {
		fmt.Printf("Bridge fee:  %s %s\n", domain.FormatEther(quote.BridgeFeeWei), sourceNet.NativeSymbol)
	}
	fmt.Printf("Total:       %s %s\n", domain.FormatEther(quote.TotalWei), sourceNet.NativeSymbol)

	if !*confirm {
		fmt.Println("\nQuote only. Re-run with -confirm to submit the purchase.")
		return attempt.Abandon()
	}

	if err := attempt.Confirm(ctx); err != nil {
		return err
	}
	fmt.Printf("\nPurchase confirmed in tx %s\n", attempt.TxHash().Hex())
	return nil
}

func cmdPurchases(ctx context.Context, a *app, args []string) error {
	fs := flag.NewFlagSet("purchases", flag.ExitOnError)
	accountHex := fs.String("account", "", "Account address (defaults to the connected wallet)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	account, err := resolveAccount(a, *accountHex)
	if err != nil {
		return err
	}

	purchases, err := a.ledger.ListPurchasesFor(ctx, account.Hex())
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tEVENT\tNETWORK\tQTY\tTOTAL\tWHEN\tRESALE")
	for _, p := range purchases {
		total, _ := new(big.Int).SetString(p.TotalCostWei, 10)
		fmt.Fprintf(w, "%d\t%s (#%d)\t%s\t%d\t%s ETH\t%s\t%v\n",
			p.ID, p.EventName, p.EventID, networkName(a, domain.NetworkID(p.HostNetworkID)),
			p.Quantity, domain.FormatEther(total),
			p.PurchaseTimestamp.Format("2006-01-02 15:04"), p.IsResalePurchase,
		)
	}
	return w.Flush()
}

func cmdCreateEvent(ctx context.Context, a *app, args []string) error {
	fs := flag.NewFlagSet("create-event", flag.ExitOnError)
	name := fs.String("name", "", "Event name")
	description := fs.String("description", "", "Event description")
	venue := fs.String("venue", "", "Event venue")
	date := fs.String("date", "", "Event date (RFC 3339, e.g. 2026-10-01T20:00:00Z)")
	tickets := fs.Uint64("tickets", 0, "Total ticket supply")
	basePrice := fs.String("base-price", "", "Base ticket price in ether")
	stake := fs.String("stake", "", "Organizer stake in ether")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *name == "" || *date == "" || *tickets == 0 || *basePrice == "" || *stake == "" {
		return fmt.Errorf("-name, -date, -tickets, -base-price and -stake are required")
	}

	eventDate, err := time.Parse(time.RFC3339, *date)
	if err != nil {
		return fmt.Errorf("invalid -date: %w", err)
	}
	basePriceWei, err := domain.ParseEther(*basePrice)
	if err != nil {
		return fmt.Errorf("invalid -base-price: %w", err)
	}
	stakeWei, err := domain.ParseEther(*stake)
	if err != nil {
		return fmt.Errorf("invalid -stake: %w", err)
	}

	txHash, err := a.orch.CreateEvent(ctx, chain.CreateEventParams{
		Name:          *name,
		Description:   *description,
		Venue:         *venue,
		EventDateUnix: eventDate.Unix(),
		TotalTickets:  *tickets,
		BasePriceWei:  basePriceWei,
		StakeWei:      stakeWei,
	})
	if err != nil {
		return err
	}
	fmt.Printf("Event created in tx %s\n", txHash.Hex())
	return nil
}

func cmdWithdrawRefund(ctx context.Context, a *app) error {
	txHash, err := a.orch.WithdrawRefund(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("Refund withdrawn in tx %s\n", txHash.Hex())
	return nil
}

func cmdResale(ctx context.Context, a *app, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("resale requires a subcommand: list, mine, sell, buy")
	}
	switch args[0] {
	case "list":
		return cmdResaleList(ctx, a, false)
	case "mine":
		return cmdResaleList(ctx, a, true)
	case "sell":
		return cmdResaleSell(ctx, a, args[1:])
	case "buy":
		return cmdResaleBuy(ctx, a, args[1:])
	default:
		return fmt.Errorf("unknown resale subcommand %q", args[0])
	}
}

func cmdResaleList(ctx context.Context, a *app, mine bool) error {
	var (
		listings []schema.ResaleListing
		err      error
	)
	if mine {
		account, aerr := a.session.Account()
		if aerr != nil {
			return aerr
		}
		listings, err = a.ledger.ListListingsBySeller(ctx, account.Hex())
	} else {
		listings, err = a.ledger.ListActiveListings(ctx)
	}
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "LISTING\tEVENT\tNETWORK\tASK\tSELLER\tSTATUS")
	for _, l := range listings {
		ask, _ := new(big.Int).SetString(l.AskPriceWei, 10)
		fmt.Fprintf(w, "%s\t%s (#%d)\t%s\t%s ETH\t%s\t%s\n",
			l.ListingID, l.EventName, l.EventID,
			networkName(a, domain.NetworkID(l.HostNetworkID)),
			domain.FormatEther(ask), l.SellerAddress, l.Status,
		)
	}
	return w.Flush()
}

func cmdResaleSell(ctx context.Context, a *app, args []string) error {
	fs := flag.NewFlagSet("resale sell", flag.ExitOnError)
	purchaseID := fs.Uint64("purchase", 0, "Purchase record ID of the ticket to list")
	price := fs.String("price", "", "Ask price in ether")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *purchaseID == 0 || *price == "" {
		return fmt.Errorf("-purchase and -price are required")
	}

	account, err := a.session.Account()
	if err != nil {
		return err
	}
	askWei, err := domain.ParseEther(*price)
	if err != nil {
		return fmt.Errorf("invalid -price: %w", err)
	}

	purchases, err := a.ledger.ListPurchasesFor(ctx, account.Hex())
	if err != nil {
		return err
	}
	var ticket *ledger.TicketRef
	for _, p := range purchases {
		if p.ID != *purchaseID {
			continue
		}
		total, ok := new(big.Int).SetString(p.TotalCostWei, 10)
		if !ok {
			return fmt.Errorf("corrupt cost on purchase %d", p.ID)
		}
		// Per-ticket original price from the recorded batch total
		perTicket := new(big.Int).Div(total, new(big.Int).SetUint64(p.Quantity))

		event, eerr := findEvent(ctx, a, domain.NetworkID(p.HostNetworkID), p.EventID)
		venue, dateUnix := "", int64(0)
		if eerr == nil {
			venue, dateUnix = event.Venue, event.EventDateUnix
		}
		ticket = &ledger.TicketRef{
			EventID:          p.EventID,
			EventName:        p.EventName,
			EventVenue:       venue,
			EventDateUnix:    dateUnix,
			HostNetworkID:    domain.NetworkID(p.HostNetworkID),
			OriginalPriceWei: perTicket,
		}
		break
	}
	if ticket == nil {
		return fmt.Errorf("purchase %d not found for %s", *purchaseID, account.Hex())
	}

	listing, err := a.ledger.CreateListing(ctx, *ticket, askWei, account.Hex())
	if err != nil {
		return err
	}
	fmt.Printf("Listing %s created: %s for %s ETH\n",
		listing.ListingID, listing.EventName, domain.FormatEther(askWei))
	return nil
}

func cmdResaleBuy(ctx context.Context, a *app, args []string) error {
	fs := flag.NewFlagSet("resale buy", flag.ExitOnError)
	listingID := fs.String("listing", "", "Listing ID to purchase")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *listingID == "" {
		return fmt.Errorf("-listing is required")
	}

	account, err := a.session.Account()
	if err != nil {
		return err
	}

	listing, err := a.ledger.SettleListing(ctx, *listingID, account.Hex())
	if err != nil {
		return err
	}
	fmt.Printf("Bought listing %s: %s from %s\n",
		listing.ListingID, listing.EventName, listing.SellerAddress)
	return nil
}

// findEvent locates one event by scanning the host network's active events
func findEvent(ctx context.Context, a *app, hostNetworkID domain.NetworkID, eventID uint64) (*domain.EventRecord, error) {
	reader, err := a.adapters.ReaderFor(ctx, hostNetworkID)
	if err != nil {
		return nil, err
	}
	events, err := reader.GetActiveEvents(ctx, 0, a.cfg.Aggregation.MaxEventsPerNetwork)
	if err != nil {
		return nil, err
	}
	for i := range events {
		if events[i].EventID == eventID {
			return &events[i], nil
		}
	}
	return nil, fmt.Errorf("event %d not found on network %d", eventID, hostNetworkID)
}

func resolveAccount(a *app, accountHex string) (common.Address, error) {
	if accountHex != "" {
		if !common.IsHexAddress(accountHex) {
			return common.Address{}, fmt.Errorf("invalid address %q", accountHex)
		}
		return common.HexToAddress(accountHex), nil
	}
	return a.session.Account()
}

func networkName(a *app, id domain.NetworkID) string {
	network, err := a.registry.Resolve(id)
	if err != nil {
		return fmt.Sprintf("network %d", id)
	}
	return network.Name
}
