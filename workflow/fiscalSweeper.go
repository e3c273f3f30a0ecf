package workflow

import (
	"context"
	"os"
	"strconv"
	"time"

	"bitbucket.org/lmsoluciones/fiscalpos_backend/config"
	"bitbucket.org/lmsoluciones/fiscalpos_backend/models"
	"github.com/bsm/redislock"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// FiscalSweeper drives the two periodic jobs: invoice materialization for
// paid orders and reconciliation of open fiscal invoices. Each tick takes a
// redis lock per job so replicas never run the same sweep concurrently; a
// replica that cannot get the lock just waits for the next tick.
type FiscalSweeper struct {
	DB     *gorm.DB
	Logger *logrus.Logger

	Interval    time.Duration
	LockTimeout time.Duration

	// CompanyId pins the sweeper to one company; zero sweeps all of them.
	CompanyId int
}

func NewFiscalSweeper(db *gorm.DB, logger *logrus.Logger) *FiscalSweeper {
	interval := 60 * time.Second
	if s := os.Getenv("FISCAL_SWEEP_SECONDS"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			interval = time.Duration(n) * time.Second
		}
	}
	companyId := 0
	if s := os.Getenv("COMPANY_ID"); s != "" {
		if n, err := strconv.Atoi(s); err == nil {
			companyId = n
		}
	}
	return &FiscalSweeper{
		DB:          db,
		Logger:      logger,
		Interval:    interval,
		LockTimeout: 2 * time.Minute,
		CompanyId:   companyId,
	}
}

func (s *FiscalSweeper) Run(ctx context.Context) {
	if ctx == nil {
		ctx = context.Background()
	}
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}
		s.SweepOnce(ctx)
		select {
		case <-ctx.Done():
			return
		case <-time.After(s.Interval):
		}
	}
}

// SweepOnce runs both sweeps once over every target company.
func (s *FiscalSweeper) SweepOnce(ctx context.Context) {
	s.withLock(ctx, "FiscalSweep:Invoice", func() {
		s.forEachCompany(func(companyId int) {
			if _, err := ProcessFiscalInvoiceSweep(s.DB, s.Logger, companyId); err != nil {
				config.LogError(s.Logger, "FiscalSweeper.go", "SweepOnce", "ProcessFiscalInvoiceSweep", companyId, err)
			}
		})
	})
	s.withLock(ctx, "FiscalSweep:Reconcile", func() {
		s.forEachCompany(func(companyId int) {
			if _, err := ProcessReconcileSweep(s.DB, s.Logger, companyId); err != nil {
				config.LogError(s.Logger, "FiscalSweeper.go", "SweepOnce", "ProcessReconcileSweep", companyId, err)
			}
		})
	})
}

func (s *FiscalSweeper) forEachCompany(fn func(companyId int)) {
	if s.CompanyId > 0 {
		fn(s.CompanyId)
		return
	}
	ids, err := models.GetCompanyIds(s.DB)
	if err != nil {
		config.LogError(s.Logger, "FiscalSweeper.go", "forEachCompany", "GetCompanyIds", nil, err)
		return
	}
	for _, id := range ids {
		fn(id)
	}
}

func (s *FiscalSweeper) withLock(ctx context.Context, key string, fn func()) {
	locker := config.GetRedisLock()
	if locker == nil {
		// single-replica deployment without redis; run unguarded
		fn()
		return
	}
	lock, err := locker.Obtain(ctx, key, s.LockTimeout, nil)
	if err != nil {
		if err != redislock.ErrNotObtained {
			config.LogError(s.Logger, "FiscalSweeper.go", "withLock", "Obtain "+key, nil, err)
		}
		return
	}
	defer lock.Release(ctx)
	fn()
}
