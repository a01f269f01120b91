package controllers

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"estanteria_go/middleware"
	"estanteria_go/models"
	"estanteria_go/services"
	"estanteria_go/utils"

	"github.com/gin-gonic/gin"
)

// SaleController 销售记录和发货控制器
type SaleController struct {
	saleService *services.SaleService
}

// NewSaleController 创建销售控制器实例
func NewSaleController(saleService *services.SaleService) *SaleController {
	return &SaleController{saleService: saleService}
}

// MySales 我卖出的书
func (sc *SaleController) MySales(c *gin.Context) {
	sc.renderSales(c, "mis_ventas", func(ctx context.Context, user *models.User) ([]models.Sale, error) {
		return sc.saleService.MySales(ctx, user)
	})
}

// MyPurchases 我买到的书
func (sc *SaleController) MyPurchases(c *gin.Context) {
	sc.renderSales(c, "mis_compras", func(ctx context.Context, user *models.User) ([]models.Sale, error) {
		return sc.saleService.MyPurchases(ctx, user)
	})
}

// AllSales 全部销售记录（管理员）
func (sc *SaleController) AllSales(c *gin.Context) {
	sc.renderSales(c, "ventas_globales", func(ctx context.Context, _ *models.User) ([]models.Sale, error) {
		return sc.saleService.AllSales(ctx)
	})
}

func (sc *SaleController) renderSales(c *gin.Context, template string, load func(context.Context, *models.User) ([]models.Sale, error)) {
	user, _ := middleware.CurrentUser(c.Request.Context())
	ventas, err := load(c.Request.Context(), user)
	if err != nil {
		_ = c.Error(err)
		utils.RenderMessages(c, http.StatusInternalServerError, template,
			[]utils.Message{utils.Warning(utils.MsgServerError)}, utils.View{"ventas": []models.Sale{}})
		return
	}
	utils.Render(c, http.StatusOK, template, utils.View{"ventas": ventas})
}

// Shipments 待发货列表（管理员）
func (sc *SaleController) Shipments(c *gin.Context) {
	envios, err := sc.saleService.Shipments(c.Request.Context())
	if err != nil {
		_ = c.Error(err)
		utils.RenderMessages(c, http.StatusInternalServerError, "envios",
			[]utils.Message{utils.Warning(utils.MsgServerError)}, utils.View{"envios": []models.Shipment{}})
		return
	}
	utils.Render(c, http.StatusOK, "envios", utils.View{"envios": envios})
}

// DeleteShipment 删除发货记录（管理员）
func (sc *SaleController) DeleteShipment(c *gin.Context) {
	id, err := strconv.ParseUint(c.PostForm("id"), 10, 64)
	if err != nil || id == 0 {
		c.Redirect(http.StatusFound, "/envios")
		return
	}

	err = sc.saleService.DeleteShipment(c.Request.Context(), uint(id))
	if err != nil && !errors.Is(err, services.ErrShipmentNotFound) {
		_ = c.Error(err)
		utils.RenderMessages(c, http.StatusInternalServerError, "envios",
			[]utils.Message{utils.Warning(utils.MsgServerError)}, utils.View{"envios": []models.Shipment{}})
		return
	}
	c.Redirect(http.StatusFound, "/envios")
}
