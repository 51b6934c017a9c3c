package main

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/xelth-com/eckassets/internal/access"
	"github.com/xelth-com/eckassets/internal/config"
	"github.com/xelth-com/eckassets/internal/database"
	"github.com/xelth-com/eckassets/internal/logging"
	"github.com/xelth-com/eckassets/internal/models"
	"github.com/xelth-com/eckassets/internal/repository"
	"github.com/xelth-com/eckassets/internal/services/assets"
	"github.com/xelth-com/eckassets/internal/services/assignments"
	"github.com/xelth-com/eckassets/internal/services/history"
	"github.com/xelth-com/eckassets/internal/services/notify"
	"github.com/xelth-com/eckassets/internal/services/qr"
	"github.com/xelth-com/eckassets/internal/services/schedules"
	"github.com/xelth-com/eckassets/internal/utils"
)

const demoPassword = "demo1234"

func main() {
	fmt.Println("🌱 eckassets Demo Data Seeder")
	fmt.Println(strings.Repeat("=", 60))

	// Load config
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("❌ Failed to load config: %v", err)
	}
	logger, err := logging.New(cfg.Log)
	if err != nil {
		log.Fatalf("❌ Failed to build logger: %v", err)
	}

	// Connect to database
	db, err := database.Connect(cfg.Database, logger)
	if err != nil {
		log.Fatalf("❌ Failed to connect to database: %v", err)
	}
	defer db.Close()
	fmt.Println("✅ Connected to database")

	// Run migrations first
	if err := database.Migrate(db.DB); err != nil {
		log.Fatalf("❌ Migration failed: %v", err)
	}
	fmt.Println("✅ Migrations complete")

	// Check if data already exists
	var companyCount int64
	db.Model(&models.Company{}).Count(&companyCount)
	if companyCount > 0 {
		fmt.Printf("⚠️  Database already has %d companies. Nothing to do.\n", companyCount)
		return
	}

	ctx := context.Background()
	renderer, err := qr.New(ctx, cfg.QR)
	if err != nil {
		log.Fatalf("❌ Failed to initialize QR storage: %v", err)
	}
	repos := repository.NewRepositories(db.DB)
	recorder := history.NewRecorder(repos.History)
	notifier := notify.NewService(repos.Notifications)
	assetSvc := assets.NewService(repos, recorder, renderer, cfg.QR.BaseURL, logger)
	assignSvc := assignments.NewService(repos, recorder, notifier, logger)
	scheduleSvc := schedules.NewService(repos, recorder, notifier, logger)

	hash, err := utils.HashPassword(demoPassword)
	if err != nil {
		log.Fatalf("❌ Failed to hash password: %v", err)
	}

	// 1. Company and locations
	company := &models.Company{Name: "Demo Manufacturing", TaxID: "DEMO-0001"}
	must(db.Create(company).Error, "company")
	site := &models.Site{CompanyID: company.ID, Name: "Main Plant", Address: "Industrial Park 4"}
	must(db.Create(site).Error, "site")
	workshop := &models.Area{SiteID: site.ID, Name: "Workshop"}
	office := &models.Area{SiteID: site.ID, Name: "Office"}
	must(db.Create(workshop).Error, "area")
	must(db.Create(office).Error, "area")
	laptops := &models.Category{CompanyID: company.ID, Name: "Laptops"}
	machines := &models.Category{CompanyID: company.ID, Name: "Machinery"}
	must(db.Create(laptops).Error, "category")
	must(db.Create(machines).Error, "category")
	fmt.Println("✅ Created company, site, areas and categories")

	// 2. Users
	users := []*models.User{
		{Email: "root@demo.local", Name: "System Admin", Role: access.RoleSystemAdmin},
		{Email: "admin@demo.local", Name: "Plant Admin", Role: access.RoleAdmin},
		{Email: "tech@demo.local", Name: "Tina Technician", Role: access.RoleTechnician},
	}
	for _, u := range users {
		u.CompanyID = company.ID
		u.Password = hash
		u.IsActive = true
		must(db.Create(u).Error, "user "+u.Email)
		fmt.Printf("   ✓ User %s (%s) / %s\n", u.Email, u.Role, demoPassword)
	}
	admin := access.Identity{UserID: users[1].ID, CompanyID: company.ID, Role: access.RoleAdmin}
	tech := users[2]

	// 3. Employees
	employees := []*models.Employee{
		{Name: "Ana Lopez", Email: "ana@demo.local", AreaID: &office.ID},
		{Name: "Tina Technician", Email: tech.Email, AreaID: &workshop.ID, UserID: &tech.ID},
	}
	for _, e := range employees {
		e.CompanyID = company.ID
		must(db.Create(e).Error, "employee "+e.Name)
	}
	fmt.Printf("✅ Created %d employees\n", len(employees))

	// 4. Assets through the registry so QR codes and history exist
	purchased := time.Now().UTC().AddDate(-1, 0, 0)
	inputs := []assets.CreateInput{
		{Code: "LAP-0001", Name: "ThinkPad T14", CategoryID: &laptops.ID, SiteID: &site.ID, AreaID: &office.ID, PurchaseDate: &purchased, PurchaseValue: money("1450.00")},
		{Code: "LAP-0002", Name: "ThinkPad T14", CategoryID: &laptops.ID, SiteID: &site.ID, AreaID: &office.ID, PurchaseDate: &purchased, PurchaseValue: money("1450.00")},
		{Code: "CNC-0001", Name: "CNC Lathe", CategoryID: &machines.ID, SiteID: &site.ID, AreaID: &workshop.ID, PurchaseValue: money("48000.00")},
		{Code: "CMP-0001", Name: "Air Compressor", CategoryID: &machines.ID, SiteID: &site.ID, AreaID: &workshop.ID, PurchaseValue: money("3200.00")},
	}
	var created []*models.Asset
	for _, in := range inputs {
		a, err := assetSvc.Create(ctx, admin, in)
		must(err, "asset "+in.Code)
		created = append(created, a)
		fmt.Printf("   ✓ Asset [%s] %s\n", a.Code, a.Name)
	}

	// 5. An assignment and preventive maintenance for the machinery
	_, err = assignSvc.Assign(ctx, admin, assignments.AssignInput{AssetID: created[0].ID, EmployeeID: employees[0].ID, Notes: "onboarding"})
	must(err, "assignment")

	res, err := scheduleSvc.CreateBulk(ctx, admin, schedules.BulkInput{
		CategoryID:    &machines.ID,
		TechnicianID:  &tech.ID,
		ScheduledDate: time.Now().UTC().AddDate(0, 0, 3).Format("2006-01-02"),
		Description:   "Quarterly inspection",
		Tasks:         []string{"Check oil level", "Inspect belts", "Clean filters"},
	})
	must(err, "scheduled maintenance")
	fmt.Printf("✅ Scheduled %d maintenance items\n", res.Created)

	fmt.Println()
	fmt.Println("🎉 Demo data ready")
}

func money(s string) decimal.NullDecimal {
	return decimal.NewNullDecimal(decimal.RequireFromString(s))
}

func must(err error, what string) {
	if err != nil {
		log.Fatalf("❌ Failed to create %s: %v", what, err)
	}
}
