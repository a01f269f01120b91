package services

import (
	"context"
	"errors"

	"estanteria_go/models"
	"estanteria_go/repository"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// ErrShipmentNotFound 发货记录不存在
var ErrShipmentNotFound = errors.New("shipment not found")

// SaleService 销售与发货服务
type SaleService struct {
	sales repository.SaleRepository
	books repository.BookRepository
	users repository.UserRepository
	log   *zap.Logger
}

// NewSaleService 创建销售服务实例
func NewSaleService(sales repository.SaleRepository, books repository.BookRepository, users repository.UserRepository, log *zap.Logger) *SaleService {
	if log == nil {
		log = zap.NewNop()
	}
	return &SaleService{sales: sales, books: books, users: users, log: log}
}

// Dashboard 管理首页统计
type Dashboard struct {
	Users            int64
	Books            int64
	Sales            int64
	PendingShipments int64
}

// MySales 我卖出的书
func (ss *SaleService) MySales(ctx context.Context, user *models.User) ([]models.Sale, error) {
	sales, err := ss.sales.FindBySeller(ctx, user.ID)
	if err != nil {
		ss.log.Error("list sales failed", zap.Uint("user_id", user.ID), zap.Error(err))
		return nil, err
	}
	return sales, nil
}

// MyPurchases 我买到的书
func (ss *SaleService) MyPurchases(ctx context.Context, user *models.User) ([]models.Sale, error) {
	sales, err := ss.sales.FindByBuyer(ctx, user.ID)
	if err != nil {
		ss.log.Error("list purchases failed", zap.Uint("user_id", user.ID), zap.Error(err))
		return nil, err
	}
	return sales, nil
}

// AllSales 全部销售（管理员）
func (ss *SaleService) AllSales(ctx context.Context) ([]models.Sale, error) {
	sales, err := ss.sales.FindAll(ctx)
	if err != nil {
		ss.log.Error("list global sales failed", zap.Error(err))
		return nil, err
	}
	return sales, nil
}

// Shipments 发货列表（管理员）
func (ss *SaleService) Shipments(ctx context.Context) ([]models.Shipment, error) {
	shipments, err := ss.sales.FindShipments(ctx)
	if err != nil {
		ss.log.Error("list shipments failed", zap.Error(err))
		return nil, err
	}
	return shipments, nil
}

// DeleteShipment 删除发货记录
func (ss *SaleService) DeleteShipment(ctx context.Context, id uint) error {
	n, err := ss.sales.DeleteShipment(ctx, id)
	if err != nil {
		ss.log.Error("delete shipment failed", zap.Uint("shipment_id", id), zap.Error(err))
		return err
	}
	if n == 0 {
		return ErrShipmentNotFound
	}
	return nil
}

// Dashboard 并发读取各项统计
func (ss *SaleService) Dashboard(ctx context.Context) (*Dashboard, error) {
	var d Dashboard
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		d.Users, err = ss.users.Count(gctx)
		return err
	})
	g.Go(func() (err error) {
		d.Books, err = ss.books.Count(gctx)
		return err
	})
	g.Go(func() (err error) {
		d.Sales, err = ss.sales.Count(gctx)
		return err
	})
	g.Go(func() (err error) {
		d.PendingShipments, err = ss.sales.CountPendingShipments(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		ss.log.Error("load dashboard failed", zap.Error(err))
		return nil, err
	}
	return &d, nil
}
