package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"sort"

	"github.com/achrilik/storefront/internal/auth"
	"github.com/achrilik/storefront/internal/cart"
	"github.com/achrilik/storefront/internal/catalog"
	"github.com/achrilik/storefront/internal/favorites"
	"github.com/achrilik/storefront/internal/orders"
	"github.com/achrilik/storefront/pkg/api"
	"github.com/achrilik/storefront/pkg/config"
	"github.com/achrilik/storefront/pkg/enums"
	"github.com/achrilik/storefront/pkg/logger"
	"github.com/achrilik/storefront/pkg/metrics"
	"github.com/achrilik/storefront/pkg/storage"
	filekv "github.com/achrilik/storefront/pkg/storage/file"
	rediskv "github.com/achrilik/storefront/pkg/storage/redis"
	sqlitekv "github.com/achrilik/storefront/pkg/storage/sqlite"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
)

const usage = `usage: achrilik <command> [flags]

commands:
  products    list products (-search, -category, -free-delivery)
  product     show one product (-id)
  cart        show the cart, totals, and free-delivery progress
  cart-add    add a product to the cart (-id, -qty, -size, -color)
  cart-rm     remove a cart line (-line)
  cart-qty    set a cart line quantity (-line, -qty)
  cart-clear  empty the cart
  fav         list liked products
  fav-toggle  like or unlike a product (-id)
  login       sign in (-email, -password)
  logout      sign out
  me          show the current user
  orders      list past orders
  checkout    place an order from the cart
`

type app struct {
	cfg       *config.Config
	logg      *logger.Logger
	cart      *cart.Store
	favorites *favorites.Store
	catalog   *catalog.Service
	auth      *auth.Service
	orders    *orders.Service
}

func main() {
	ctx := context.Background()
	logg := logger.New(logger.Options{ServiceName: "achrilik"})

	_ = godotenv.Load()

	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}
	command := os.Args[1]
	args := os.Args[2:]

	cfg, err := config.Load()
	requireResource(ctx, logg, "config", err)

	logg = logger.New(logger.Options{
		ServiceName: "achrilik",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	kv, err := openStorage(ctx, cfg)
	requireResource(ctx, logg, "storage", err)
	defer kv.Close()

	app, err := buildApp(ctx, cfg, logg, kv)
	requireResource(ctx, logg, "storefront", err)

	if err := app.run(ctx, command, args); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func openStorage(ctx context.Context, cfg *config.Config) (storage.KV, error) {
	switch cfg.Storage.Backend {
	case config.StorageBackendRedis:
		return rediskv.New(ctx, cfg.Redis)
	case config.StorageBackendSQLite:
		return sqlitekv.New(cfg.Storage.SQLitePath)
	default:
		return filekv.New(cfg.Storage.DataDir)
	}
}

func buildApp(ctx context.Context, cfg *config.Config, logg *logger.Logger, kv storage.KV) (*app, error) {
	storeMetrics := metrics.NewStorefrontMetrics(prometheus.NewRegistry())

	tokens, err := auth.NewTokenStore(kv, cfg.API.TokenKey)
	if err != nil {
		return nil, err
	}

	client, err := api.NewClient(api.Config{
		BaseURL:    cfg.API.BaseURL,
		Timeout:    cfg.API.Timeout,
		MaxRetries: cfg.API.MaxRetries,
		RetryDelay: cfg.API.RetryDelay,
		UserAgent:  cfg.API.UserAgent,
	}, tokens, logg, api.WithMetrics(storeMetrics))
	if err != nil {
		return nil, err
	}

	cartStore, err := cart.NewStore(cart.StoreParams{
		KV:      kv,
		CartKey: cfg.Storage.CartKey,
		Logger:  logg,
		Metrics: storeMetrics,
		Delivery: cart.DeliveryDefaults{
			Threshold: cfg.Delivery.DefaultThreshold,
			StoreName: cfg.Delivery.FallbackStoreName,
		},
	})
	if err != nil {
		return nil, err
	}
	cartStore.Load(ctx)

	favoritesStore, err := favorites.NewStore(favorites.StoreParams{
		KV:     kv,
		Key:    cfg.Storage.FavoritesKey,
		Logger: logg,
	})
	if err != nil {
		return nil, err
	}
	favoritesStore.Load(ctx)

	catalogService, err := catalog.NewService(client)
	if err != nil {
		return nil, err
	}

	profiles, err := auth.NewProfileStore(kv, cfg.API.ProfileKey)
	if err != nil {
		return nil, err
	}

	authService, err := auth.NewService(auth.ServiceParams{
		API:      client,
		Tokens:   tokens,
		Profiles: profiles,
		Logger:   logg,
	})
	if err != nil {
		return nil, err
	}
	authService.Load(ctx)

	orderService, err := orders.NewService(client, cartStore, logg)
	if err != nil {
		return nil, err
	}

	return &app{
		cfg:       cfg,
		logg:      logg,
		cart:      cartStore,
		favorites: favoritesStore,
		catalog:   catalogService,
		auth:      authService,
		orders:    orderService,
	}, nil
}

func (a *app) run(ctx context.Context, command string, args []string) error {
	switch command {
	case "products":
		return a.listProducts(ctx, args)
	case "product":
		return a.showProduct(ctx, args)
	case "cart":
		return a.showCart()
	case "cart-add":
		return a.addToCart(ctx, args)
	case "cart-rm":
		return a.removeFromCart(ctx, args)
	case "cart-qty":
		return a.setCartQuantity(ctx, args)
	case "cart-clear":
		a.cart.ClearCart(ctx)
		fmt.Println("cart cleared")
		return nil
	case "fav":
		return a.listFavorites()
	case "fav-toggle":
		return a.toggleFavorite(ctx, args)
	case "login":
		return a.login(ctx, args)
	case "logout":
		a.auth.Logout(ctx)
		fmt.Println("signed out")
		return nil
	case "me":
		return a.showUser(ctx)
	case "orders":
		return a.listOrders(ctx)
	case "checkout":
		return a.checkout(ctx, args)
	default:
		fmt.Fprint(os.Stderr, usage)
		return fmt.Errorf("unknown command %q", command)
	}
}

func (a *app) listProducts(ctx context.Context, args []string) error {
	flags := flag.NewFlagSet("products", flag.ContinueOnError)
	search := flags.String("search", "", "search query")
	category := flags.String("category", "", "category id")
	freeDelivery := flags.Bool("free-delivery", false, "only stores offering free delivery")
	if err := flags.Parse(args); err != nil {
		return err
	}

	products, err := a.catalog.List(ctx, catalog.ListFilters{
		Search:       *search,
		CategoryID:   *category,
		FreeDelivery: *freeDelivery,
	})
	if err != nil {
		return err
	}
	for _, product := range products {
		storeName := ""
		if product.Store != nil {
			storeName = product.Store.Name
		}
		fmt.Printf("%s  %-40s %8d DA  %s\n", product.ID, product.Title, product.Price, storeName)
	}
	return nil
}

func (a *app) showProduct(ctx context.Context, args []string) error {
	flags := flag.NewFlagSet("product", flag.ContinueOnError)
	id := flags.String("id", "", "product id")
	if err := flags.Parse(args); err != nil {
		return err
	}
	if *id == "" {
		return fmt.Errorf("missing -id")
	}

	product, err := a.catalog.GetByID(ctx, *id)
	if err != nil {
		return err
	}
	fmt.Printf("%s\n%s\nprice: %d DA\n", product.Title, product.Description, product.Price)
	for _, variant := range product.Variants {
		fmt.Printf("  variant size=%s color=%s stock=%d\n",
			strOrDash(variant.Size), strOrDash(variant.Color), variant.Stock)
	}
	return nil
}

func (a *app) showCart() error {
	items := a.cart.Items()
	if len(items) == 0 {
		fmt.Println("cart is empty")
		return nil
	}
	for _, item := range items {
		fmt.Printf("%s  %-40s x%-3d %8d DA  (%s)\n",
			item.ID, item.Title, item.Quantity, item.Subtotal(), item.StoreName)
	}
	fmt.Printf("total: %d articles, %d DA\n", a.cart.TotalItems(), a.cart.TotalPrice())

	progress := a.cart.DeliveryProgress(a.catalog.ThresholdLookup())
	storeIDs := make([]string, 0, len(progress))
	for storeID := range progress {
		storeIDs = append(storeIDs, storeID)
	}
	sort.Strings(storeIDs)
	for _, storeID := range storeIDs {
		group := progress[storeID]
		if group.Eligible {
			fmt.Printf("%s: free delivery unlocked\n", group.StoreName)
			continue
		}
		fmt.Printf("%s: %d DA to go for free delivery (threshold %d DA)\n",
			group.StoreName, group.Remaining, group.Threshold)
	}
	return nil
}

func (a *app) addToCart(ctx context.Context, args []string) error {
	flags := flag.NewFlagSet("cart-add", flag.ContinueOnError)
	id := flags.String("id", "", "product id")
	qty := flags.Int("qty", 1, "quantity")
	size := flags.String("size", "", "variant size")
	color := flags.String("color", "", "variant color")
	if err := flags.Parse(args); err != nil {
		return err
	}
	if *id == "" {
		return fmt.Errorf("missing -id")
	}

	product, err := a.catalog.GetByID(ctx, *id)
	if err != nil {
		return err
	}
	variant := pickVariant(product.Variants, *size, *color)
	input := catalog.CartSnapshot(*product, variant, *qty)
	if err := a.cart.AddItem(ctx, input); err != nil {
		return err
	}
	fmt.Printf("added %q x%d\n", product.Title, *qty)
	return nil
}

func (a *app) removeFromCart(ctx context.Context, args []string) error {
	flags := flag.NewFlagSet("cart-rm", flag.ContinueOnError)
	line := flags.String("line", "", "cart line id")
	if err := flags.Parse(args); err != nil {
		return err
	}
	if *line == "" {
		return fmt.Errorf("missing -line")
	}
	a.cart.RemoveItem(ctx, *line)
	return nil
}

func (a *app) setCartQuantity(ctx context.Context, args []string) error {
	flags := flag.NewFlagSet("cart-qty", flag.ContinueOnError)
	line := flags.String("line", "", "cart line id")
	qty := flags.Int("qty", 1, "new quantity (0 removes the line)")
	if err := flags.Parse(args); err != nil {
		return err
	}
	if *line == "" {
		return fmt.Errorf("missing -line")
	}
	a.cart.UpdateQuantity(ctx, *line, *qty)
	return nil
}

func (a *app) listFavorites() error {
	entries := a.favorites.Entries()
	if len(entries) == 0 {
		fmt.Println("no liked products")
		return nil
	}
	for _, entry := range entries {
		fmt.Printf("%s  %-40s %8d DA  %s\n", entry.ProductID, entry.Title, entry.Price, entry.StoreName)
	}
	return nil
}

func (a *app) toggleFavorite(ctx context.Context, args []string) error {
	flags := flag.NewFlagSet("fav-toggle", flag.ContinueOnError)
	id := flags.String("id", "", "product id")
	if err := flags.Parse(args); err != nil {
		return err
	}
	if *id == "" {
		return fmt.Errorf("missing -id")
	}

	product, err := a.catalog.GetByID(ctx, *id)
	if err != nil {
		return err
	}
	entry := favorites.Entry{
		ProductID: product.ID,
		Title:     product.Title,
		Price:     product.Price,
		Image:     product.FirstImage(),
		StoreID:   product.StoreID,
	}
	if product.Store != nil {
		entry.StoreID = product.Store.ID
		entry.StoreName = product.Store.Name
	}

	liked, err := a.favorites.Toggle(ctx, entry)
	if err != nil {
		return err
	}
	if liked {
		fmt.Printf("liked %q\n", product.Title)
	} else {
		fmt.Printf("unliked %q\n", product.Title)
	}
	return nil
}

func (a *app) login(ctx context.Context, args []string) error {
	flags := flag.NewFlagSet("login", flag.ContinueOnError)
	email := flags.String("email", "", "account email")
	password := flags.String("password", "", "account password")
	if err := flags.Parse(args); err != nil {
		return err
	}

	user, err := a.auth.Login(ctx, auth.Credentials{Email: *email, Password: *password})
	if err != nil {
		return err
	}
	fmt.Printf("signed in as %s %s <%s>\n", user.FirstName, user.LastName, user.Email)
	return nil
}

func (a *app) showUser(ctx context.Context) error {
	user, err := a.auth.CurrentUser(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("%s %s <%s> role=%s\n", user.FirstName, user.LastName, user.Email, user.Role)
	return nil
}

func (a *app) listOrders(ctx context.Context) error {
	list, err := a.orders.List(ctx)
	if err != nil {
		return err
	}
	for _, order := range list {
		fmt.Printf("%s  %-10s %8d DA  %s\n", order.ID, order.Status, order.Total, order.CreatedAt)
	}
	return nil
}

func (a *app) checkout(ctx context.Context, args []string) error {
	flags := flag.NewFlagSet("checkout", flag.ContinueOnError)
	firstName := flags.String("first-name", "", "contact first name")
	lastName := flags.String("last-name", "", "contact last name")
	phone := flags.String("phone", "", "contact phone")
	email := flags.String("email", "", "contact email")
	wilaya := flags.String("wilaya", "", "delivery wilaya")
	commune := flags.String("commune", "", "delivery commune")
	address := flags.String("address", "", "delivery address")
	deliveryMethod := flags.String("delivery", string(enums.DeliveryMethodDelivery), "delivery method")
	paymentMethod := flags.String("payment", string(enums.PaymentMethodCOD), "payment method")
	if err := flags.Parse(args); err != nil {
		return err
	}

	delivery, err := enums.ParseDeliveryMethod(*deliveryMethod)
	if err != nil {
		return err
	}
	payment, err := enums.ParsePaymentMethod(*paymentMethod)
	if err != nil {
		return err
	}

	order, err := a.orders.Checkout(ctx, orders.CheckoutInput{
		DeliveryMethod: delivery,
		PaymentMethod:  payment,
		FirstName:      *firstName,
		LastName:       *lastName,
		Phone:          *phone,
		Email:          *email,
		Wilaya:         *wilaya,
		Commune:        *commune,
		Address:        *address,
	})
	if err != nil {
		return err
	}
	fmt.Printf("order %s placed, total %d DA\n", order.ID, order.Total)
	return nil
}

func pickVariant(variants []catalog.ProductVariant, size, color string) *catalog.ProductVariant {
	if size == "" && color == "" {
		return nil
	}
	for i := range variants {
		variant := variants[i]
		if size != "" && strOrDash(variant.Size) != size {
			continue
		}
		if color != "" && strOrDash(variant.Color) != color {
			continue
		}
		return &variant
	}
	// No catalog variant matched; treat the flags as free-form selectors.
	return &catalog.ProductVariant{
		Size:  optional(size),
		Color: optional(color),
	}
}

func optional(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}

func strOrDash(value *string) string {
	if value == nil {
		return "-"
	}
	return *value
}

func requireResource(ctx context.Context, logg *logger.Logger, name string, err error) {
	if err == nil {
		return
	}
	logg.Error(ctx, "failed to bootstrap "+name, err)
	os.Exit(1)
}
