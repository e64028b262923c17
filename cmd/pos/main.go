package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"github.com/sgaibor/tiendafacil-pos/internal/api"
	"github.com/sgaibor/tiendafacil-pos/internal/auth"
	"github.com/sgaibor/tiendafacil-pos/internal/cart"
	"github.com/sgaibor/tiendafacil-pos/internal/catalog"
	"github.com/sgaibor/tiendafacil-pos/internal/checkout"
	"github.com/sgaibor/tiendafacil-pos/internal/inventory"
	"github.com/sgaibor/tiendafacil-pos/internal/notify"
	"github.com/sgaibor/tiendafacil-pos/internal/reports"
	"github.com/sgaibor/tiendafacil-pos/internal/sales"
	"github.com/sgaibor/tiendafacil-pos/internal/session"
	"github.com/sgaibor/tiendafacil-pos/pkg/config"
	"github.com/sgaibor/tiendafacil-pos/pkg/enums"
	"github.com/sgaibor/tiendafacil-pos/pkg/logger"
	"github.com/sgaibor/tiendafacil-pos/pkg/metrics"
	"github.com/sgaibor/tiendafacil-pos/pkg/visibility"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "pos"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "pos",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	db, err := gorm.Open(sqlite.Open(cfg.Session.DBPath), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		logg.Error(context.Background(), "failed to open local session store", err)
		os.Exit(1)
	}

	sessions, err := session.NewManager(db, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create session manager", err)
		os.Exit(1)
	}

	ctx := context.Background()
	if err := sessions.Restore(ctx); err != nil {
		logg.Error(ctx, "failed to restore session", err)
	}

	taxRate, err := cfg.POS.TaxRate()
	if err != nil {
		logg.Error(ctx, "invalid tax rate", err)
		os.Exit(1)
	}

	notifier := notify.NewLogNotifier(logg)
	client := api.New(cfg.API, sessions, logg)
	saleMetrics := metrics.NewSaleMetrics(prometheus.DefaultRegisterer)

	authSvc, err := auth.NewService(client)
	if err != nil {
		fatal(logg, ctx, "auth service", err)
	}
	catalogSvc, err := catalog.NewService(client)
	if err != nil {
		fatal(logg, ctx, "catalog service", err)
	}
	salesSvc, err := sales.NewService(client)
	if err != nil {
		fatal(logg, ctx, "sales service", err)
	}
	inventorySvc, err := inventory.NewService(client, notifier)
	if err != nil {
		fatal(logg, ctx, "inventory service", err)
	}
	reportsSvc, err := reports.NewService(client, notifier)
	if err != nil {
		fatal(logg, ctx, "reports service", err)
	}

	store := cart.NewStore(notifier)
	flow, err := checkout.NewFlow(store, salesSvc, notifier, saleMetrics, checkout.Config{
		TaxRate:                 taxRate,
		SellerID:                cfg.POS.SellerID,
		DefaultCustomerName:     cfg.POS.DefaultCustomerName,
		DefaultCustomerDocument: cfg.POS.DefaultCustomerDocument,
		SaleNotes:               cfg.POS.SaleNotes,
	})
	if err != nil {
		fatal(logg, ctx, "checkout flow", err)
	}

	app := &posApp{
		ctx:       ctx,
		logg:      logg,
		sessions:  sessions,
		auth:      authSvc,
		catalog:   catalogSvc,
		sales:     salesSvc,
		inventory: inventorySvc,
		reports:   reportsSvc,
		cart:      store,
		flow:      flow,
		taxRate:   taxRate,
		known:     map[int64]catalog.AvailableProduct{},
	}
	app.run()
}

func fatal(logg *logger.Logger, ctx context.Context, what string, err error) {
	logg.Error(ctx, "failed to create "+what, err)
	os.Exit(1)
}

type posApp struct {
	ctx       context.Context
	logg      *logger.Logger
	sessions  *session.Manager
	auth      *auth.Service
	catalog   *catalog.Service
	sales     *sales.Service
	inventory *inventory.Service
	reports   *reports.Service
	cart      *cart.Store
	flow      *checkout.Flow
	taxRate   decimal.Decimal

	// known caches the latest product snapshots seen in search results so
	// cart mutations can look up current stock.
	known map[int64]catalog.AvailableProduct
}

func (a *posApp) run() {
	fmt.Println("tiendafacil POS - escriba 'help' para ver los comandos")
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			return
		}
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		if fields[0] == "quit" || fields[0] == "exit" {
			return
		}
		a.dispatch(fields[0], fields[1:])
	}
}

func (a *posApp) dispatch(command string, args []string) {
	switch command {
	case "help":
		a.printHelp()
	case "login":
		a.login(args)
	case "logout":
		a.logout()
	case "menu":
		a.printMenu()
	case "locales":
		a.listLocales()
	case "local":
		a.selectLocal(args)
	case "search":
		a.search(args)
	case "add":
		a.add(args)
	case "qty":
		a.setQuantity(args)
	case "rm":
		a.remove(args)
	case "cart":
		a.printCart()
	case "clear":
		a.cart.Clear()
	case "checkout":
		if a.flow.Open(a.ctx) {
			a.printDraft()
		}
	case "method":
		a.setMethod(args)
	case "customer":
		a.setCustomer(args)
	case "cash":
		a.setCash(args)
	case "confirm":
		_ = a.flow.Confirm(a.ctx)
	case "cancel":
		a.flow.Cancel()
	case "movement":
		a.movement(args)
	case "report":
		a.report(args)
	case "history":
		a.history(args)
	default:
		fmt.Println("comando desconocido:", command)
	}
}

func (a *posApp) printHelp() {
	fmt.Println(`login <usuario> <clave>      iniciar sesión
logout                       cerrar sesión
menu                         módulos visibles para el rol actual
locales                      listar locales
local <id>                   seleccionar local (vacía el carrito)
search <texto> [página]      buscar productos en el local
add <productoId>             agregar una unidad al carrito
qty <productoId> <cantidad>  fijar cantidad de una línea
rm <productoId>              quitar línea
cart                         mostrar carrito y totales
clear                        vaciar carrito
checkout                     abrir cobro
method <EFECTIVO|TARJETA|TRANSFERENCIA>
customer <nombre> <documento>
cash <monto>                 efectivo recibido
confirm                      confirmar pago
cancel                       cancelar cobro
movement <productoId> <ENTRADA|SALIDA> <cantidad> [motivo]
report <ventas|inventario> [pdf|excel]
history [página]             historial de ventas
quit                         salir`)
}

func (a *posApp) login(args []string) {
	if len(args) < 2 {
		fmt.Println("uso: login <usuario> <clave>")
		return
	}
	user, err := a.auth.Login(a.ctx, args[0], args[1])
	if err != nil {
		fmt.Println("login fallido:", err)
		return
	}
	err = a.sessions.SignIn(a.ctx, session.Identity{
		UserID:   user.ID,
		Username: user.Username,
		FullName: user.FullName(),
		Role:     user.Role,
		Token:    user.Token,
	})
	if err != nil {
		a.logg.Error(a.ctx, "failed to persist session", err)
		return
	}
	fmt.Printf("bienvenido %s (%s)\n", user.FullName(), user.Role)
}

func (a *posApp) logout() {
	if err := a.sessions.SignOut(a.ctx); err != nil {
		a.logg.Error(a.ctx, "failed to sign out", err)
		return
	}
	fmt.Println("sesión cerrada")
}

func (a *posApp) printMenu() {
	role, ok := a.sessions.Role()
	if !ok {
		fmt.Println("inicie sesión para ver los módulos")
		return
	}
	for _, module := range visibility.AllModules {
		if visibility.HasModulePermission(role, module) {
			fmt.Println("-", module)
		}
	}
}

func (a *posApp) listLocales() {
	locales, err := a.catalog.Locales(a.ctx)
	if err != nil {
		fmt.Println("error:", err)
		return
	}
	for _, local := range locales {
		fmt.Printf("%4d  %s\n", local.ID, local.Name)
	}
}

func (a *posApp) selectLocal(args []string) {
	id, ok := parseID(args, 0)
	if !ok {
		fmt.Println("uso: local <id>")
		return
	}
	a.flow.SelectLocal(id)
	a.known = map[int64]catalog.AvailableProduct{}
	fmt.Println("local seleccionado:", id)
}

func (a *posApp) search(args []string) {
	if a.flow.LocalID() <= 0 {
		fmt.Println("seleccione un local primero")
		return
	}
	if len(args) == 0 {
		fmt.Println("uso: search <texto> [página]")
		return
	}
	page := 0
	if len(args) > 1 {
		if n, err := strconv.Atoi(args[1]); err == nil {
			page = n
		}
	}
	result, err := a.catalog.SearchByLocal(a.ctx, a.flow.LocalID(), args[0], page)
	if err != nil {
		fmt.Println("error:", err)
		return
	}
	for _, product := range result.Data {
		a.known[product.ProductID] = product
		fmt.Printf("%6d  %-10s %-30s $%s  stock:%d\n",
			product.ProductID, product.Code, product.Name,
			product.UnitPrice.StringFixed(2), product.StockOnHand)
	}
	fmt.Printf("página %d de %d\n", result.CurrentPage+1, result.TotalPages)
}

func (a *posApp) add(args []string) {
	product, ok := a.lookup(args)
	if !ok {
		return
	}
	if a.cart.AddItem(a.ctx, product) {
		a.printCart()
	}
}

func (a *posApp) setQuantity(args []string) {
	product, ok := a.lookup(args)
	if !ok {
		return
	}
	if len(args) < 2 {
		fmt.Println("uso: qty <productoId> <cantidad>")
		return
	}
	quantity, err := strconv.Atoi(args[1])
	if err != nil {
		fmt.Println("cantidad inválida:", args[1])
		return
	}
	if a.cart.SetQuantity(a.ctx, product, quantity) {
		a.printCart()
	}
}

func (a *posApp) remove(args []string) {
	id, ok := parseID(args, 0)
	if !ok {
		fmt.Println("uso: rm <productoId>")
		return
	}
	a.cart.RemoveItem(id)
	a.printCart()
}

func (a *posApp) lookup(args []string) (catalog.AvailableProduct, bool) {
	id, ok := parseID(args, 0)
	if !ok {
		fmt.Println("indique el id del producto")
		return catalog.AvailableProduct{}, false
	}
	product, ok := a.known[id]
	if !ok {
		fmt.Println("producto no encontrado en la última búsqueda:", id)
		return catalog.AvailableProduct{}, false
	}
	return product, true
}

func (a *posApp) printCart() {
	lines := a.cart.Lines()
	if len(lines) == 0 {
		fmt.Println("carrito vacío")
		return
	}
	for _, line := range lines {
		fmt.Printf("%6d  %-30s x%-3d $%s = $%s\n",
			line.ProductID, line.ProductName, line.Quantity,
			line.UnitPrice.StringFixed(2), line.LineTotal.StringFixed(2))
	}
	totals := a.cart.Totals(a.taxRate)
	fmt.Printf("subtotal $%s  iva $%s  total $%s\n",
		totals.Subtotal.StringFixed(2), totals.Tax.StringFixed(2), totals.Total.StringFixed(2))
}

func (a *posApp) printDraft() {
	draft := a.flow.Draft()
	totals := a.flow.Totals()
	fmt.Printf("cobro abierto: total $%s, método %s, cliente %s (%s)\n",
		totals.Total.StringFixed(2), draft.PaymentMethod, draft.CustomerName, draft.CustomerDocument)
}

func (a *posApp) setMethod(args []string) {
	if len(args) == 0 {
		fmt.Println("uso: method <EFECTIVO|TARJETA|TRANSFERENCIA>")
		return
	}
	method, err := enums.ParsePaymentMethod(strings.ToUpper(args[0]))
	if err != nil {
		fmt.Println(err)
		return
	}
	a.flow.SetPaymentMethod(method)
	a.printDraft()
}

func (a *posApp) setCustomer(args []string) {
	if len(args) < 2 {
		fmt.Println("uso: customer <nombre> <documento>")
		return
	}
	a.flow.SetCustomer(strings.Join(args[:len(args)-1], " "), args[len(args)-1])
	a.printDraft()
}

func (a *posApp) setCash(args []string) {
	if len(args) == 0 {
		fmt.Println("uso: cash <monto>")
		return
	}
	amount, err := decimal.NewFromString(args[0])
	if err != nil {
		fmt.Println("monto inválido:", args[0])
		return
	}
	if a.flow.SetCashTendered(amount) {
		draft := a.flow.Draft()
		fmt.Printf("cambio: $%s\n", draft.ChangeDue.StringFixed(2))
	}
}

func (a *posApp) movement(args []string) {
	if len(args) < 3 {
		fmt.Println("uso: movement <productoId> <ENTRADA|SALIDA> <cantidad> [motivo]")
		return
	}
	id, ok := parseID(args, 0)
	if !ok {
		return
	}
	movementType, err := enums.ParseMovementType(strings.ToUpper(args[1]))
	if err != nil {
		fmt.Println(err)
		return
	}
	quantity, err := strconv.Atoi(args[2])
	if err != nil {
		fmt.Println("cantidad inválida:", args[2])
		return
	}
	reason := ""
	if len(args) > 3 {
		reason = strings.Join(args[3:], " ")
	}
	known := 0
	if product, ok := a.known[id]; ok {
		known = product.StockOnHand
	}
	_ = a.inventory.RegisterMovement(a.ctx, inventory.Movement{
		LocalID:   a.flow.LocalID(),
		ProductID: id,
		Type:      movementType,
		Quantity:  quantity,
		Reason:    reason,
	}, known)
}

func (a *posApp) report(args []string) {
	if len(args) == 0 {
		fmt.Println("uso: report <ventas|inventario> [pdf|excel]")
		return
	}
	format := reports.FormatPDF
	if len(args) > 1 && args[1] == "excel" {
		format = reports.FormatExcel
	}
	var (
		raw []byte
		err error
	)
	switch args[0] {
	case "ventas":
		raw, err = a.reports.DownloadSales(a.ctx, format, "", "")
	case "inventario":
		raw, err = a.reports.DownloadInventory(a.ctx, format, a.flow.LocalID())
	default:
		fmt.Println("reporte desconocido:", args[0])
		return
	}
	if err != nil || raw == nil {
		return
	}
	name := fmt.Sprintf("reporte_%s.%s", args[0], format)
	if err := os.WriteFile(name, raw, 0o644); err != nil {
		a.logg.Error(a.ctx, "failed to save report", err)
		return
	}
	fmt.Println("guardado:", name)
}

func (a *posApp) history(args []string) {
	page := 0
	if len(args) > 0 {
		if n, err := strconv.Atoi(args[0]); err == nil {
			page = n
		}
	}
	result, err := a.sales.History(a.ctx, page, 20)
	if err != nil {
		fmt.Println("error:", err)
		return
	}
	for _, summary := range result.Data {
		fmt.Printf("%-12s %-20s %-25s $%.2f %s\n",
			summary.TicketNumber, summary.Date, summary.Customer, summary.Total, summary.Status)
	}
	fmt.Printf("página %d de %d\n", result.CurrentPage+1, result.TotalPages)
}

func parseID(args []string, index int) (int64, bool) {
	if len(args) <= index {
		return 0, false
	}
	id, err := strconv.ParseInt(args[index], 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
