package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"

	"github.com/cakedaddy/storefront/internal/cart"
	"github.com/cakedaddy/storefront/internal/catalog"
	"github.com/cakedaddy/storefront/internal/checkout"
	"github.com/cakedaddy/storefront/internal/localstore"
	"github.com/cakedaddy/storefront/internal/order"
	"github.com/cakedaddy/storefront/internal/pricing"
)

const usage = `usage: shop <command> [flags]

commands:
  products   list the menu (-category, -query filter)
  add        add a product to the cart (-id, -qty)
  cart       show the cart with totals
  set        set a line quantity (-id, -qty; 0 removes)
  remove     remove a line (-id)
  clear      empty the cart
  checkout   place the order (delivery and card flags)
  status     look up an order (-id)
`

func main() {
	log.SetFlags(0)
	_ = godotenv.Load()

	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	app, err := newApp()
	if err != nil {
		log.Fatalf("shop: %v", err)
	}

	ctx := context.Background()
	cmd, args := os.Args[1], os.Args[2:]

	if err := app.run(ctx, cmd, args); err != nil {
		log.Fatalf("shop: %v", err)
	}
}

type app struct {
	cart    *cart.Store
	catalog *catalog.Client
	orders  *order.Client
}

func newApp() (*app, error) {
	baseURL := os.Getenv("API_BASE_URL")
	if baseURL == "" {
		baseURL = "http://localhost:8080"
	}

	dataDir := os.Getenv("SHOP_DATA_DIR")
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("resolve home dir: %w", err)
		}
		dataDir = filepath.Join(home, ".cakedaddy")
	}

	store, err := localstore.New(dataDir)
	if err != nil {
		return nil, fmt.Errorf("open local store: %w", err)
	}

	return &app{
		cart:    cart.NewStore(cart.NewStoragePersister(store)),
		catalog: catalog.NewClient(baseURL, 5*time.Minute),
		orders:  order.NewClient(baseURL),
	}, nil
}

func (a *app) run(ctx context.Context, cmd string, args []string) error {
	switch cmd {
	case "products":
		return a.cmdProducts(ctx, args)
	case "add":
		return a.cmdAdd(ctx, args)
	case "cart":
		return a.cmdCart(args)
	case "set":
		return a.cmdSet(args)
	case "remove":
		return a.cmdRemove(args)
	case "clear":
		return a.cart.Clear()
	case "checkout":
		return a.cmdCheckout(ctx, args)
	case "status":
		return a.cmdStatus(ctx, args)
	default:
		fmt.Fprint(os.Stderr, usage)
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func (a *app) cmdProducts(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("products", flag.ExitOnError)
	category := fs.String("category", "", "only this category")
	query := fs.String("query", "", "search by name or description")
	fs.Parse(args)

	var (
		list []catalog.Product
		err  error
	)
	switch {
	case *query != "":
		list, err = a.catalog.Search(ctx, *query)
	case *category != "":
		list, err = a.catalog.ListByCategory(ctx, *category)
	default:
		list, err = a.catalog.List(ctx)
	}
	if err != nil {
		return err
	}

	for _, p := range list {
		line := fmt.Sprintf("%-36s  %-24s  $%.2f  stock %d", p.ID, p.Name, p.Price, p.StockQuantity)
		if avg := p.AverageRating(); avg > 0 {
			line += fmt.Sprintf("  %.1f*", avg)
		}
		fmt.Println(line)
	}
	return nil
}

func (a *app) cmdAdd(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("add", flag.ExitOnError)
	id := fs.String("id", "", "product id")
	qty := fs.Int("qty", 1, "quantity to add")
	fs.Parse(args)
	if *id == "" {
		return errors.New("add: -id is required")
	}

	p, err := a.catalog.Get(ctx, *id)
	if err != nil {
		return err
	}

	line := cart.Line{
		ProductID: p.ID,
		Name:      p.Name,
		UnitPrice: decimal.NewFromFloat(p.Price),
		ImageURL:  p.ImageURL,
	}
	if err := a.cart.Add(line, *qty, p.StockQuantity); err != nil {
		return err
	}
	fmt.Printf("added %s x%d\n", p.Name, *qty)
	return nil
}

func (a *app) cmdCart(args []string) error {
	snapshot := a.cart.Snapshot()
	if len(snapshot) == 0 {
		fmt.Println("cart is empty")
		return nil
	}

	for _, l := range snapshot {
		fmt.Printf("%-36s  %-24s  %d x $%s\n", l.ProductID, l.Name, l.Quantity, l.UnitPrice.StringFixed(2))
	}

	sum := pricing.Compute(snapshot, pricing.DefaultShipping, pricing.DefaultTaxRate)
	fmt.Printf("\nsubtotal  $%s\n", sum.Subtotal.StringFixed(2))
	fmt.Printf("shipping  $%s\n", sum.Shipping.StringFixed(2))
	fmt.Printf("tax       $%s\n", sum.Tax.StringFixed(2))
	fmt.Printf("total     $%s\n", sum.Total.StringFixed(2))
	return nil
}

func (a *app) cmdSet(args []string) error {
	fs := flag.NewFlagSet("set", flag.ExitOnError)
	id := fs.String("id", "", "product id")
	qty := fs.Int("qty", -1, "new quantity (0 removes the line)")
	fs.Parse(args)
	if *id == "" || *qty < 0 {
		return errors.New("set: -id and -qty are required")
	}

	removed, err := a.cart.SetQuantity(*id, *qty)
	if err != nil {
		return err
	}
	if removed {
		fmt.Println("line removed")
	}
	return nil
}

func (a *app) cmdRemove(args []string) error {
	fs := flag.NewFlagSet("remove", flag.ExitOnError)
	id := fs.String("id", "", "product id")
	fs.Parse(args)
	if *id == "" {
		return errors.New("remove: -id is required")
	}
	return a.cart.Remove(*id)
}

func (a *app) cmdCheckout(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("checkout", flag.ExitOnError)
	form := checkout.Form{}
	fs.StringVar(&form.UserID, "user", "", "user id (generated when empty)")
	fs.StringVar(&form.FullName, "name", "", "full name")
	fs.StringVar(&form.Email, "email", "", "email address")
	fs.StringVar(&form.Phone, "phone", "", "phone number")
	fs.StringVar(&form.DeliveryAddress, "address", "", "delivery address")
	fs.StringVar(&form.SpecialInstructions, "note", "", "special instructions")
	fs.StringVar(&form.CardNumber, "card", "", "card number")
	fs.StringVar(&form.ExpiryDate, "expiry", "", "card expiry MM/YY")
	fs.StringVar(&form.CVV, "cvv", "", "card CVV")
	fs.Parse(args)

	pipeline := checkout.NewPipeline(a.cart, a.orders, pricing.DefaultShipping, pricing.DefaultTaxRate)

	orderID, err := pipeline.Submit(ctx, form)
	if err != nil {
		var ve *checkout.ValidationError
		if errors.As(err, &ve) {
			for field, msg := range ve.Fields {
				fmt.Fprintf(os.Stderr, "%s: %s\n", field, msg)
			}
		}
		return err
	}

	fmt.Printf("order placed: %s\n", orderID)
	return nil
}

func (a *app) cmdStatus(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	id := fs.String("id", "", "order id")
	fs.Parse(args)
	if *id == "" {
		return errors.New("status: -id is required")
	}

	view, err := a.orders.Get(ctx, *id)
	if err != nil {
		return err
	}
	fmt.Printf("order %s\nstatus %s\ntotal  $%.2f\n", view.ID, view.Status, view.TotalAmount)
	return nil
}
