package controllers

import (
	"errors"
	"net/http"
	"strconv"

	"estanteria_go/middleware"
	"estanteria_go/services"
	"estanteria_go/utils"

	"github.com/gin-gonic/gin"
)

// 购买结果提示
const (
	MsgPurchased       = "¡Haz adquirido un nuevo libro!"
	MsgBookNotFound    = "El libro que intentas comprar ya no está disponible."
	MsgOwnBookPurchase = "No puedes comprar un libro de tu propia estantería."
)

// BookController 书籍控制器
type BookController struct {
	bookService *services.BookService
}

// NewBookController 创建书籍控制器实例
func NewBookController(bookService *services.BookService) *BookController {
	return &BookController{bookService: bookService}
}

// NewForm 发布书籍页面
func (bc *BookController) NewForm(c *gin.Context) {
	utils.Render(c, http.StatusOK, "crear_libro", nil)
}

// Create 发布书籍
func (bc *BookController) Create(c *gin.Context) {
	var req services.CreateBookRequest
	if err := bindForm(c, &req); err != nil {
		utils.RenderMessages(c, http.StatusOK, "crear_libro", []utils.Message{utils.Danger(err.Error())}, nil)
		return
	}
	if messages := utils.ValidateRequired(&req, services.CreateBookMessages); len(messages) > 0 {
		utils.RenderMessages(c, http.StatusOK, "crear_libro", messages, nil)
		return
	}
	req.Imagen = c.PostForm("imagen")

	user, _ := middleware.CurrentUser(c.Request.Context())
	cover, err := c.FormFile("imagen")
	if err != nil {
		cover = nil
	}

	_, err = bc.bookService.CreateBook(c.Request.Context(), user, &req, cover)
	if errors.Is(err, services.ErrInvalidCover) {
		utils.RenderMessages(c, http.StatusOK, "crear_libro",
			[]utils.Message{utils.Danger(services.MsgInvalidCover)}, nil)
		return
	}
	if err != nil {
		_ = c.Error(err)
		utils.RenderMessages(c, http.StatusInternalServerError, "crear_libro",
			[]utils.Message{utils.Warning(utils.MsgServerError)}, nil)
		return
	}

	c.Redirect(http.StatusFound, "/mi_estanteria")
}

// Home 其他用户正在出售的书籍
func (bc *BookController) Home(c *gin.Context) {
	user, _ := middleware.CurrentUser(c.Request.Context())
	libros, err := bc.bookService.ListOthers(c.Request.Context(), user)
	bc.renderList(c, "home_libro", libros, err)
}

// Shelf 我的书架
func (bc *BookController) Shelf(c *gin.Context) {
	user, _ := middleware.CurrentUser(c.Request.Context())
	libros, err := bc.bookService.ListOwn(c.Request.Context(), user)
	bc.renderList(c, "mi_estanteria", libros, err)
}

// GlobalShelf 全部书籍（管理员）
func (bc *BookController) GlobalShelf(c *gin.Context) {
	libros, err := bc.bookService.ListAll(c.Request.Context())
	bc.renderList(c, "estanteria_global", libros, err)
}

// renderList 列表页面：查询失败时仍然渲染页面，附带提示和空列表
func (bc *BookController) renderList(c *gin.Context, template string, libros []services.BookListing, err error) {
	if err != nil {
		_ = c.Error(err)
		utils.RenderMessages(c, http.StatusInternalServerError, template,
			[]utils.Message{utils.Warning(utils.MsgListError)},
			utils.View{"libros": []services.BookListing{}})
		return
	}
	utils.Render(c, http.StatusOK, template, utils.View{"libros": libros})
}

// ShowBySlug 查看自己的书籍详情，其他情况返回首页
func (bc *BookController) ShowBySlug(c *gin.Context) {
	user, _ := middleware.CurrentUser(c.Request.Context())
	listing, err := bc.bookService.GetBySlug(c.Request.Context(), user, c.Param("url"))
	if err != nil {
		c.Redirect(http.StatusFound, "/")
		return
	}

	utils.Render(c, http.StatusOK, "ver_libro", utils.View{
		"layout": "auth",
		"libro":  listing,
		"hace":   listing.Hace,
	})
}

// Update 更新书籍
func (bc *BookController) Update(c *gin.Context) {
	var req services.UpdateBookRequest
	if err := bindForm(c, &req); err != nil {
		utils.RenderMessages(c, http.StatusOK, "ver_libro", []utils.Message{utils.Danger(err.Error())}, utils.View{"layout": "auth"})
		return
	}
	if messages := utils.ValidateRequired(&req, services.UpdateBookMessages); len(messages) > 0 {
		utils.RenderMessages(c, http.StatusOK, "ver_libro", messages, utils.View{"layout": "auth"})
		return
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		c.Redirect(http.StatusFound, "/")
		return
	}

	user, _ := middleware.CurrentUser(c.Request.Context())
	err = bc.bookService.UpdateBook(c.Request.Context(), user, uint(id), &req)
	switch {
	case err == nil:
		c.Redirect(http.StatusFound, "/mi_estanteria")
	case errors.Is(err, services.ErrBookNotFound), errors.Is(err, services.ErrNotOwner):
		c.Redirect(http.StatusFound, "/")
	default:
		_ = c.Error(err)
		utils.RenderMessages(c, http.StatusInternalServerError, "ver_libro",
			[]utils.Message{utils.Warning(utils.MsgServerError)}, utils.View{"layout": "auth"})
	}
}

// Purchase 购买书籍，url 优先从查询参数读取
func (bc *BookController) Purchase(c *gin.Context) {
	slug := c.Query("url")
	if slug == "" {
		slug = c.Param("url")
	}

	user, _ := middleware.CurrentUser(c.Request.Context())
	_, err := bc.bookService.Purchase(c.Request.Context(), user, slug)
	switch {
	case err == nil:
		c.String(http.StatusOK, MsgPurchased)
	case errors.Is(err, services.ErrBookNotFound):
		c.String(http.StatusNotFound, MsgBookNotFound)
	case errors.Is(err, services.ErrSelfPurchase):
		c.String(http.StatusForbidden, MsgOwnBookPurchase)
	default:
		_ = c.Error(err)
		c.String(http.StatusInternalServerError, utils.MsgServerError)
	}
}
