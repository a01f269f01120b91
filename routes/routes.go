package routes

import (
	"html/template"

	"estanteria_go/controllers"
	"estanteria_go/middleware"
	"estanteria_go/websocket"

	"github.com/gin-gonic/gin"
)

// Handlers 全部控制器
type Handlers struct {
	Auth    *controllers.AuthController
	Book    *controllers.BookController
	User    *controllers.UserController
	Comment *controllers.CommentController
	Sale    *controllers.SaleController
	Admin   *controllers.AdminController
}

// Options 路由依赖
type Options struct {
	Sessions  middleware.SessionResolver
	Templates *template.Template
	CORS      *middleware.CORSConfig
	AccessLog *middleware.AccessLogger // 为空时不记录访问日志
	UploadDir string                   // 本地封面目录，为空时不提供 /uploads
	Hub       *websocket.Hub           // 为空时不开放 /ws
}

// 各表单需要清理的字段
var (
	bookCreateFields = []string{"nombre", "autor", "precio", "descripcion", "ISBN", "fecha", "imagen", "vendedor", "emailVendedor"}
	bookUpdateFields = []string{"id", "nombre", "autor", "descripcion", "precio", "ISBN"}
	registerFields   = []string{"username", "email", "password"}
	loginFields      = []string{"email", "password"}
	commentFields    = []string{"contenido"}
	profileFields    = []string{"username", "fullname", "email", "age", "phone", "address"}
)

// SetupRoutes 设置路由
func SetupRoutes(r *gin.Engine, h *Handlers, opts *Options) {
	// 应用全局中间件
	if opts.CORS != nil {
		r.Use(middleware.CORS(opts.CORS))
	}
	if opts.AccessLog != nil {
		r.Use(middleware.Logger(opts.AccessLog))
	}

	if opts.Templates != nil {
		r.SetHTMLTemplate(opts.Templates)
	}
	if opts.UploadDir != "" {
		r.Static("/uploads", opts.UploadDir)
	}

	auth := middleware.AuthMiddleware(opts.Sessions)
	adminOnly := middleware.RequireAdmin()

	// ====== 首页 ======
	r.GET("/", auth, middleware.AdminGate(h.Admin.Home), h.Admin.Welcome)
	r.GET("/ayuda", auth, h.Admin.Help)

	// ====== 认证路由 (无需认证) ======
	r.GET("/registrate", h.Auth.RegisterForm)
	r.POST("/registrate", middleware.Sanitize(registerFields...), h.Auth.Register)
	r.GET("/iniciar_sesion", h.Auth.LoginForm)
	r.POST("/iniciar_sesion", middleware.Sanitize(loginFields...), h.Auth.Login)
	r.GET("/cerrar_sesion", h.Auth.Logout)

	// ====== 书籍路由 ======
	r.GET("/crear_libro", auth, h.Book.NewForm)
	r.POST("/crear_libro", auth, middleware.Sanitize(bookCreateFields...), h.Book.Create)
	r.GET("/home_libro", auth, h.Book.Home)
	r.GET("/mi_estanteria", auth, h.Book.Shelf)
	r.GET("/libro/:url", auth, h.Book.ShowBySlug)
	r.DELETE("/libro/:url", auth, h.Book.Purchase)
	r.POST("/actualizar_libro/:id", auth, middleware.Sanitize(bookUpdateFields...), h.Book.Update)

	// ====== 评论路由 ======
	r.GET("/home_comentarios", auth, h.Comment.List)
	r.POST("/crear_comentarios", auth, middleware.Sanitize(commentFields...), h.Comment.Create)

	// ====== 用户路由 ======
	r.GET("/ver_usuario", auth, h.User.Profile)
	r.POST("/actualizar_usuario", auth, middleware.Sanitize(profileFields...), h.User.UpdateProfile)

	// ====== 销售路由 ======
	r.GET("/mis_ventas", auth, h.Sale.MySales)
	r.GET("/mis_compras", auth, h.Sale.MyPurchases)

	// ====== 管理员路由 ======
	r.GET("/ventas_globales", auth, adminOnly, h.Sale.AllSales)
	r.GET("/control_usuarios", auth, adminOnly, h.User.ListUsers)
	r.GET("/estanteria_global", auth, adminOnly, h.Book.GlobalShelf)
	r.GET("/envios", auth, adminOnly, h.Sale.Shipments)
	r.POST("/eliminar_envio", auth, adminOnly, h.Sale.DeleteShipment)

	// ====== WebSocket路由 ======
	if opts.Hub != nil {
		r.GET("/ws", auth, opts.Hub.HandleConnection)
	}
}
