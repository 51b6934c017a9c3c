package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/xelth-com/eckassets/internal/access"
	"github.com/xelth-com/eckassets/internal/config"
	"github.com/xelth-com/eckassets/internal/database"
	"github.com/xelth-com/eckassets/internal/models"
	"github.com/xelth-com/eckassets/internal/repository"
)

func main() {
	companyID := flag.Uint("company", 0, "limit the report to one company (0 = all)")
	days := flag.Int("days", 7, "maintenance lookahead in days")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("❌ Failed to load config: %v", err)
	}
	cfg.Database.Silent = true

	db, err := database.Connect(cfg.Database, zap.NewNop())
	if err != nil {
		log.Fatalf("❌ Failed to connect: %v\n\n💡 Try starting the server first:\n   go run ./cmd/api", err)
	}
	defer db.Close()

	scope := access.AllCompanies
	if *companyID != 0 {
		scope = access.ForCompany(*companyID)
	}
	ctx := context.Background()
	repos := repository.NewRepositories(db.DB)

	fmt.Println("╔═══════════════════════════════════════════════════════════╗")
	fmt.Println("║               📊 eckassets Data Report                    ║")
	fmt.Println("╚═══════════════════════════════════════════════════════════╝")
	fmt.Println()

	list, err := repos.Assets.List(ctx, scope, repository.AssetFilter{})
	if err != nil {
		log.Fatalf("❌ Failed to list assets: %v", err)
	}
	byStatus := map[models.AssetStatus]int{}
	for _, a := range list {
		byStatus[a.Status]++
	}

	fmt.Println("📈 ASSETS")
	fmt.Println(strings.Repeat("─", 58))
	fmt.Printf("  Total:           %4d\n", len(list))
	for _, s := range []models.AssetStatus{models.AssetStatusActive, models.AssetStatusInMaintenance, models.AssetStatusRetired, models.AssetStatusLost} {
		fmt.Printf("  %-16s %4d\n", string(s)+":", byStatus[s])
	}
	fmt.Println()

	open, err := repos.Assignments.List(ctx, scope, repository.AssignmentFilter{OpenOnly: true})
	if err != nil {
		log.Fatalf("❌ Failed to list assignments: %v", err)
	}
	fmt.Printf("👤 OPEN ASSIGNMENTS (%d)\n", len(open))
	fmt.Println(strings.Repeat("─", 58))
	for _, a := range open {
		code, holder := "?", fmt.Sprintf("employee %d", a.EmployeeID)
		if a.Asset != nil {
			code = a.Asset.Code
		}
		if a.Employee != nil {
			holder = a.Employee.Name
		}
		fmt.Printf("  [%s] → %s since %s\n", code, holder, a.AssignedAt.Format("2006-01-02"))
	}
	fmt.Println()

	limit := time.Now().UTC().AddDate(0, 0, *days)
	due, err := repos.Schedules.Due(ctx, scope, limit)
	if err != nil {
		log.Fatalf("❌ Failed to list due maintenance: %v", err)
	}
	fmt.Printf("🔧 MAINTENANCE DUE WITHIN %d DAYS (%d)\n", *days, len(due))
	fmt.Println(strings.Repeat("─", 58))
	for _, sm := range due {
		code := "?"
		if sm.Asset != nil {
			code = sm.Asset.Code
		}
		tech := "unassigned"
		if sm.TechnicianID != nil {
			tech = fmt.Sprintf("technician %d", *sm.TechnicianID)
		}
		fmt.Printf("  %s  [%s] %s (%s)\n", repository.DateKey(sm.ScheduledDate), code, sm.Description, tech)
	}
}
