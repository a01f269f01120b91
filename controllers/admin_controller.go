package controllers

import (
	"net/http"

	"estanteria_go/services"
	"estanteria_go/utils"

	"github.com/gin-gonic/gin"
)

// AdminController 首页、管理首页和帮助页
type AdminController struct {
	saleService *services.SaleService
}

// NewAdminController 创建实例
func NewAdminController(saleService *services.SaleService) *AdminController {
	return &AdminController{saleService: saleService}
}

// Home 管理首页，附带统计数据
func (ac *AdminController) Home(c *gin.Context) {
	resumen, err := ac.saleService.Dashboard(c.Request.Context())
	if err != nil {
		_ = c.Error(err)
		utils.RenderMessages(c, http.StatusOK, "home_admin",
			[]utils.Message{utils.Warning(utils.MsgServerError)}, utils.View{"layout": "admin"})
		return
	}
	utils.Render(c, http.StatusOK, "home_admin", utils.View{"layout": "admin", "resumen": resumen})
}

// Welcome 普通用户首页
func (ac *AdminController) Welcome(c *gin.Context) {
	utils.Render(c, http.StatusOK, "bienvenida", nil)
}

// Help 帮助页
func (ac *AdminController) Help(c *gin.Context) {
	utils.Render(c, http.StatusOK, "ayuda", nil)
}
