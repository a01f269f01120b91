package repository

import (
	"context"
	"errors"
	"fmt"

	"estanteria_go/models"

	"gorm.io/gorm"
)

// errBookGone 书籍已被删除，购买事务需要回滚
var errBookGone = errors.New("book already gone")

type gormSaleRepository struct {
	db *gorm.DB
}

// NewSaleRepository 创建基于gorm的销售存储
func NewSaleRepository(db *gorm.DB) SaleRepository {
	return &gormSaleRepository{db: db}
}

func (r *gormSaleRepository) Purchase(ctx context.Context, book *models.Book, buyer *models.User) (int64, error) {
	var deleted int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// 先删除书籍，已被别人买走时整个事务回滚
		res := tx.Where("url = ?", book.URL).Delete(&models.Book{})
		if res.Error != nil {
			return fmt.Errorf("delete book %q: %w", book.URL, res.Error)
		}
		if res.RowsAffected == 0 {
			return errBookGone
		}
		deleted = res.RowsAffected

		sale := models.NewSaleFromBook(book, buyer)
		if err := tx.Create(sale).Error; err != nil {
			return fmt.Errorf("create sale: %w", err)
		}

		shipment := &models.Shipment{
			SaleID:    sale.ID,
			BookName:  book.Nombre,
			BuyerID:   buyer.ID,
			BuyerName: buyer.Username,
			Address:   buyer.Address,
			Status:    models.ShipmentPending,
		}
		if err := tx.Create(shipment).Error; err != nil {
			return fmt.Errorf("create shipment: %w", err)
		}
		return nil
	})
	if errors.Is(err, errBookGone) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return deleted, nil
}

func (r *gormSaleRepository) FindAll(ctx context.Context) ([]models.Sale, error) {
	var sales []models.Sale
	if err := r.db.WithContext(ctx).Order("created_at DESC").Find(&sales).Error; err != nil {
		return nil, fmt.Errorf("find sales: %w", err)
	}
	return sales, nil
}

func (r *gormSaleRepository) FindBySeller(ctx context.Context, sellerID uint) ([]models.Sale, error) {
	var sales []models.Sale
	if err := r.db.WithContext(ctx).Where("seller_id = ?", sellerID).Order("created_at DESC").Find(&sales).Error; err != nil {
		return nil, fmt.Errorf("find sales of seller %d: %w", sellerID, err)
	}
	return sales, nil
}

func (r *gormSaleRepository) FindByBuyer(ctx context.Context, buyerID uint) ([]models.Sale, error) {
	var sales []models.Sale
	if err := r.db.WithContext(ctx).Where("buyer_id = ?", buyerID).Order("created_at DESC").Find(&sales).Error; err != nil {
		return nil, fmt.Errorf("find purchases of buyer %d: %w", buyerID, err)
	}
	return sales, nil
}

func (r *gormSaleRepository) FindShipments(ctx context.Context) ([]models.Shipment, error) {
	var shipments []models.Shipment
	if err := r.db.WithContext(ctx).Order("created_at").Find(&shipments).Error; err != nil {
		return nil, fmt.Errorf("find shipments: %w", err)
	}
	return shipments, nil
}

func (r *gormSaleRepository) DeleteShipment(ctx context.Context, id uint) (int64, error) {
	res := r.db.WithContext(ctx).Delete(&models.Shipment{}, id)
	if res.Error != nil {
		return 0, fmt.Errorf("delete shipment %d: %w", id, res.Error)
	}
	return res.RowsAffected, nil
}

func (r *gormSaleRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(&models.Sale{}).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("count sales: %w", err)
	}
	return n, nil
}

func (r *gormSaleRepository) CountPendingShipments(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(&models.Shipment{}).Where("status = ?", models.ShipmentPending).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("count shipments: %w", err)
	}
	return n, nil
}
