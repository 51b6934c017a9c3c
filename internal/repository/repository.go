package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/xelth-com/eckassets/internal/access"
	"github.com/xelth-com/eckassets/internal/models"
)

var (
	ErrNotFound = errors.New("record not found")
)

// Repositories groups the repositories sharing one connection or transaction
type Repositories struct {
	db *gorm.DB

	Assets        *AssetRepository
	QRs           *QRRepository
	Assignments   *AssignmentRepository
	Schedules     *ScheduleRepository
	Records       *RecordRepository
	History       *HistoryRepository
	Notifications *NotificationRepository
	Requests      *RequestRepository
	Employees     *EmployeeRepository
}

// NewRepositories creates the repository collection
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		db:            db,
		Assets:        NewAssetRepository(db),
		QRs:           NewQRRepository(db),
		Assignments:   NewAssignmentRepository(db),
		Schedules:     NewScheduleRepository(db),
		Records:       NewRecordRepository(db),
		History:       NewHistoryRepository(db),
		Notifications: NewNotificationRepository(db),
		Requests:      NewRequestRepository(db),
		Employees:     NewEmployeeRepository(db),
	}
}

// Transaction runs fn with repositories bound to a single transaction.
// Returning an error from fn rolls everything back.
func (r *Repositories) Transaction(ctx context.Context, fn func(tx *Repositories) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewRepositories(tx))
	})
}

// notFound converts gorm's sentinel into ErrNotFound
func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

// scopeByAsset restricts rows whose assetColumn references an asset outside scope
func scopeByAsset(q *gorm.DB, scope access.Scope, assetColumn string) *gorm.DB {
	if scope.All {
		return q
	}
	sub := q.Session(&gorm.Session{NewDB: true}).
		Model(&models.Asset{}).
		Select("id").
		Where("company_id = ?", scope.CompanyID)
	return q.Where(assetColumn+" IN (?)", sub)
}

// DateKey formats a date for exact comparison against a date column
func DateKey(d datatypes.Date) string {
	return time.Time(d).Format("2006-01-02")
}

// EmployeeRepository reads employees
type EmployeeRepository struct {
	db *gorm.DB
}

func NewEmployeeRepository(db *gorm.DB) *EmployeeRepository {
	return &EmployeeRepository{db: db}
}

// FindByID returns an employee
func (r *EmployeeRepository) FindByID(ctx context.Context, id uint) (*models.Employee, error) {
	var employee models.Employee
	if err := r.db.WithContext(ctx).First(&employee, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &employee, nil
}
